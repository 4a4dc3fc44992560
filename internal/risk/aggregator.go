package risk

import (
	"context"
	"log/slog"
	"time"

	"github.com/halcyonpay/fraudsentry/internal/idgen"
	"github.com/halcyonpay/fraudsentry/internal/ledger"
	"github.com/halcyonpay/fraudsentry/internal/segment"
)

// Aggregator owns the fraud ledger, builds the three agents once, and
// combines their findings into a final decision. Safe for concurrent
// use: per-request evaluation is pure computation over the immutable
// ledger.
type Aggregator struct {
	ledger    *ledger.Ledger
	blacklist *BlacklistAgent
	amount    *AmountAgent
	segment   *SegmentAgent
	weights   Weights
	store     Store
	logger    *slog.Logger
}

// Option configures the aggregator.
type Option func(*Aggregator)

// WithWeights overrides the default agent weight table.
func WithWeights(w Weights) Option {
	return func(a *Aggregator) { a.weights = w }
}

// WithStore sets the audit-trail store. Assessments are recorded
// best-effort and asynchronously.
func WithStore(s Store) Option {
	return func(a *Aggregator) { a.store = s }
}

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *Aggregator) { a.logger = l }
}

// WithAmountTiers overrides the amount tier table.
func WithAmountTiers(t AmountTiers) Option {
	return func(a *Aggregator) { a.amount = &AmountAgent{mean: a.ledger.MeanAmount(), tiers: t} }
}

// WithSegmentTable overrides the segment probability table.
func WithSegmentTable(t SegmentTable) Option {
	return func(a *Aggregator) { a.segment.table = t }
}

// NewAggregator builds the aggregator and its agents over a loaded
// ledger. Construction fails if the weight table does not sum to 1.0.
func NewAggregator(l *ledger.Ledger, segments segment.Store, opts ...Option) (*Aggregator, error) {
	a := &Aggregator{
		ledger:  l,
		weights: DefaultWeights,
		logger:  slog.Default(),
	}
	a.blacklist = NewBlacklistAgent(l)
	a.amount = NewAmountAgent(l, DefaultAmountTiers)
	a.segment = NewSegmentAgent(segments, DefaultSegmentTable, a.logger)

	for _, opt := range opts {
		opt(a)
	}
	a.segment.logger = a.logger

	if err := a.weights.Validate(); err != nil {
		return nil, err
	}
	return a, nil
}

// Analyze runs all three agents and produces an assessment. It performs
// no I/O on the scoring path and never fails: unknown customers and
// negative amounts are valid inputs scored via the defined defaults.
func (a *Aggregator) Analyze(ctx context.Context, customerID string, amount float64) *Assessment {
	blacklistFinding := a.blacklist.Check(customerID)
	amountFinding := a.amount.Score(amount)
	segmentFinding := a.segment.Score(ctx, customerID)

	// Blacklist membership is absolute: it bypasses the weighted sum
	// entirely rather than being diluted by the other signals.
	var probability float64
	if a.blacklist.Contains(customerID) {
		probability = 1.0
	} else {
		probability = round3(
			a.weights.Blacklist*blacklistFinding.Probability +
				a.weights.Amount*amountFinding.Probability +
				a.weights.Segment*segmentFinding.Probability,
		)
	}

	decision := Decide(probability)
	assessment := &Assessment{
		ID:          idgen.WithPrefix("frd_"),
		CustomerID:  customerID,
		Amount:      amount,
		Probability: probability,
		Decision:    decision,
		Action:      decision.Action(),
		Findings:    []Finding{blacklistFinding, amountFinding, segmentFinding},
		Weights:     a.weights.Map(),
		EvaluatedAt: time.Now().UTC(),
	}

	a.logger.Debug("transaction analyzed",
		"customer_id", customerID,
		"amount", amount,
		"probability", probability,
		"decision", string(decision),
	)

	// Best-effort audit trail, off the request path.
	if a.store != nil {
		go func() {
			_ = a.store.Record(context.Background(), assessment)
		}()
	}

	return assessment
}

// Stats reports operational visibility numbers. Not part of the
// scoring contract.
func (a *Aggregator) Stats() (ledgerSize, blacklistSize int, meanAmount float64) {
	return a.ledger.Size(), a.ledger.BlacklistSize(), a.ledger.MeanAmount()
}
