package risk

import (
	"github.com/halcyonpay/fraudsentry/internal/ledger"
)

// BlacklistAgent answers whether a customer has a confirmed-fraud
// record. Membership is an absolute signal: the aggregator forces the
// final probability to 1.0 when it fires.
type BlacklistAgent struct {
	ledger *ledger.Ledger
}

// NewBlacklistAgent builds the agent over the loaded ledger. The
// ledger's customer index makes Check O(1).
func NewBlacklistAgent(l *ledger.Ledger) *BlacklistAgent {
	return &BlacklistAgent{ledger: l}
}

// Contains reports blacklist membership.
func (a *BlacklistAgent) Contains(customerID string) bool {
	return a.ledger.Contains(customerID)
}

// Check evaluates a customer. Deterministic, no side effects.
func (a *BlacklistAgent) Check(customerID string) Finding {
	if a.ledger.Contains(customerID) {
		return Finding{
			Agent:       AgentBlacklist,
			Probability: 1.0,
			Rationale:   "customer has a prior confirmed-fraud record (reason code 83)",
			Extra:       map[string]any{"blacklisted": true},
		}
	}
	return Finding{
		Agent:       AgentBlacklist,
		Probability: 0.0,
		Rationale:   "customer has no prior fraud records",
		Extra:       map[string]any{"blacklisted": false},
	}
}
