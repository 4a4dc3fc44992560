package risk

import (
	"context"
	"errors"
	"log/slog"

	"github.com/halcyonpay/fraudsentry/internal/segment"
)

// SegmentTable maps each customer segment to its static fraud
// probability. Like the amount tiers, these are inherited domain
// constants.
type SegmentTable map[segment.Segment]float64

// DefaultSegmentTable is the production segment table.
var DefaultSegmentTable = SegmentTable{
	segment.SegmentA: 0.5,
	segment.SegmentB: 0.2,
	segment.SegmentC: 0.3,
	segment.NoData:   0.25,
}

var segmentRationales = map[segment.Segment]string{
	segment.SegmentA: "prepaid-only segment, elevated fraud risk",
	segment.SegmentB: "postpaid-only segment, moderate risk",
	segment.SegmentC: "mixed prepaid/postpaid segment, medium-high risk",
	segment.NoData:   "no segment information, default risk",
}

// SegmentAgent scores a customer by the coarse category derived from
// prepaid/postpaid counters. A store failure scores as NO_DATA rather
// than failing the analysis: absence and unavailability look the same
// to the caller, keeping Analyze total.
type SegmentAgent struct {
	store  segment.Store
	table  SegmentTable
	logger *slog.Logger
}

// NewSegmentAgent builds the agent over a segment store.
func NewSegmentAgent(store segment.Store, table SegmentTable, logger *slog.Logger) *SegmentAgent {
	if logger == nil {
		logger = slog.Default()
	}
	return &SegmentAgent{store: store, table: table, logger: logger}
}

// Score evaluates a customer's segment.
func (a *SegmentAgent) Score(ctx context.Context, customerID string) Finding {
	profile, err := a.store.Lookup(ctx, customerID)
	if err != nil && !errors.Is(err, segment.ErrNotFound) {
		a.logger.Warn("segment lookup failed, scoring as no-data",
			"customer_id", customerID,
			"error", err,
		)
		profile = nil
	}

	seg := segment.Classify(profile)
	return Finding{
		Agent:       AgentSegment,
		Probability: a.table[seg],
		Rationale:   segmentRationales[seg],
		Extra:       map[string]any{"segment": string(seg)},
	}
}
