package risk

import (
	"testing"

	"github.com/halcyonpay/fraudsentry/internal/ledger"
)

// ledgerWithMean builds a synthetic ledger whose mean fraud amount is
// exactly mean.
func ledgerWithMean(mean float64) *ledger.Ledger {
	return ledger.New([]ledger.Record{
		{CustomerID: "hist-1", Amount: mean, ReasonCode: ledger.ReasonConfirmedFraud},
	})
}

func TestAmountTiersInOrder(t *testing.T) {
	agent := NewAmountAgent(ledgerWithMean(1000), DefaultAmountTiers)

	tests := []struct {
		name   string
		amount float64
		want   float64
	}{
		{"150x mean is extreme", 150000, 0.9},
		{"15x mean is very high", 15000, 0.7},
		{"10% over mean is near", 1100, 0.8},
		{"40% over mean is close", 1400, 0.6},
		{"200% over mean decays", 3000, 0.3}, // max(0.1, 0.5 − 0.1×2.0)
		{"800% over mean hits the floor", 9000, 0.1},
		{"exactly the mean", 1000, 0.8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := agent.Score(tt.amount)
			if f.Probability != tt.want {
				t.Errorf("Score(%v) = %v, want %v", tt.amount, f.Probability, tt.want)
			}
			if f.Agent != AgentAmount {
				t.Errorf("unexpected agent name %q", f.Agent)
			}
		})
	}
}

func TestAmountAbsoluteTiersOverrideDeviation(t *testing.T) {
	// With a tiny mean, 15x the mean is also within no deviation tier's
	// reach, and must take the multiple tier, not decay.
	agent := NewAmountAgent(ledgerWithMean(10), DefaultAmountTiers)

	f := agent.Score(150) // 15x, deviation 14.0
	if f.Probability != 0.7 {
		t.Errorf("expected high-multiple tier 0.7, got %v", f.Probability)
	}
}

func TestAmountZeroMean(t *testing.T) {
	agent := NewAmountAgent(ledgerWithMean(0), DefaultAmountTiers)

	f := agent.Score(500)
	if f.Probability != 0.1 {
		t.Errorf("zero mean should score 0.1, got %v", f.Probability)
	}
	if f.Rationale != "no fraud data to compare" {
		t.Errorf("unexpected rationale %q", f.Rationale)
	}
}

func TestAmountNegativeAmountIsScored(t *testing.T) {
	agent := NewAmountAgent(ledgerWithMean(1000), DefaultAmountTiers)

	// deviation = 1.5 → max(0.1, 0.5 − 0.15) = 0.35
	f := agent.Score(-500)
	if f.Probability != 0.35 {
		t.Errorf("negative amounts are scored, not rejected: got %v", f.Probability)
	}
}

func TestAmountEmptyLedgerUsesFallbackMean(t *testing.T) {
	agent := NewAmountAgent(ledger.New(nil), DefaultAmountTiers)

	if agent.Mean() != ledger.FallbackMeanAmount {
		t.Fatalf("expected fallback mean, got %v", agent.Mean())
	}
	// 1000 == fallback mean, deviation 0 → near tier.
	if f := agent.Score(1000); f.Probability != 0.8 {
		t.Errorf("expected 0.8 at the fallback mean, got %v", f.Probability)
	}
}
