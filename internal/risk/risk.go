// Package risk implements the multi-agent fraud scoring engine.
//
// Three independent rule evaluators — blacklist membership, amount
// deviation from the historical fraud mean, and customer segment — each
// produce a finding with a probability in [0, 1]. The aggregator
// combines them under configured weights, with blacklist membership as
// an absolute override, and maps the result to a decision.
package risk

import (
	"context"
	"fmt"
	"math"
	"time"
)

// Agent names as they appear in findings and the weight table.
const (
	AgentBlacklist = "blacklist"
	AgentAmount    = "amount"
	AgentSegment   = "segment"
)

// Decision is the closed set of action recommendations.
type Decision string

const (
	DecisionBlock   Decision = "BLOCK"
	DecisionReview  Decision = "REVIEW"
	DecisionMonitor Decision = "MONITOR"
	DecisionApprove Decision = "APPROVE"
)

// Decision thresholds, evaluated high to low, inclusive on the lower edge.
const (
	BlockThreshold   = 0.8
	ReviewThreshold  = 0.5
	MonitorThreshold = 0.3
)

// Decide maps a final probability to a decision.
func Decide(probability float64) Decision {
	switch {
	case probability >= BlockThreshold:
		return DecisionBlock
	case probability >= ReviewThreshold:
		return DecisionReview
	case probability >= MonitorThreshold:
		return DecisionMonitor
	default:
		return DecisionApprove
	}
}

// Action returns the fixed human-readable recommendation for a decision.
func (d Decision) Action() string {
	switch d {
	case DecisionBlock:
		return "Block transaction immediately"
	case DecisionReview:
		return "Requires manual review"
	case DecisionMonitor:
		return "Monitor customer activity"
	case DecisionApprove:
		return "Transaction OK"
	default:
		return "Unknown decision"
	}
}

// Finding is the structured output of a single agent. Immutable once
// returned.
type Finding struct {
	Agent       string         `json:"agent"`
	Probability float64        `json:"probability"`
	Rationale   string         `json:"rationale"`
	Extra       map[string]any `json:"extra,omitempty"`
}

// Assessment is the aggregator's verdict on one transaction. Built
// fresh per request and not retained beyond the audit trail.
type Assessment struct {
	ID          string             `json:"id"`
	CustomerID  string             `json:"customerId"`
	Amount      float64            `json:"amount"`
	Probability float64            `json:"probability"`
	Decision    Decision           `json:"decision"`
	Action      string             `json:"action"`
	Findings    []Finding          `json:"findings"`
	Weights     map[string]float64 `json:"weights"`
	EvaluatedAt time.Time          `json:"evaluatedAt"`
}

// Weights assigns each agent's share of the final probability.
type Weights struct {
	Blacklist float64
	Amount    float64
	Segment   float64
}

// DefaultWeights is the production weight table. Blacklist evidence
// carries the most weight even before its absolute override.
var DefaultWeights = Weights{Blacklist: 0.5, Amount: 0.3, Segment: 0.2}

const weightTolerance = 1e-9

// Validate rejects weight tables that do not sum to 1.0. A violation is
// a construction-time failure, never a silent mis-score.
func (w Weights) Validate() error {
	sum := w.Blacklist + w.Amount + w.Segment
	if math.Abs(sum-1.0) > weightTolerance {
		return fmt.Errorf("agent weights must sum to 1.0, got %v", sum)
	}
	if w.Blacklist < 0 || w.Amount < 0 || w.Segment < 0 {
		return fmt.Errorf("agent weights must be non-negative")
	}
	return nil
}

// Map returns the weight table keyed by agent name, for responses.
func (w Weights) Map() map[string]float64 {
	return map[string]float64{
		AgentBlacklist: w.Blacklist,
		AgentAmount:    w.Amount,
		AgentSegment:   w.Segment,
	}
}

// Store persists assessments for the audit trail.
type Store interface {
	Record(ctx context.Context, assessment *Assessment) error
	ListByCustomer(ctx context.Context, customerID string, limit int) ([]*Assessment, error)
}

// round3 rounds to three decimal places, the precision assessments are
// reported at.
func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

// round2 rounds to two decimal places, the precision of per-agent
// probabilities.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
