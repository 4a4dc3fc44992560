package risk

import (
	"fmt"
	"math"

	"github.com/halcyonpay/fraudsentry/internal/ledger"
)

// AmountTiers holds the amount-scoring constants. The multiples and
// deviations are domain constants inherited from the fraud team; they
// are configuration, not logic, and should not be tuned without domain
// guidance.
type AmountTiers struct {
	ExtremeMultiple float64 // amount above mean×this is extreme
	ExtremeProb     float64
	HighMultiple    float64
	HighProb        float64
	NearDeviation   float64 // relative deviation considered "near the mean"
	NearProb        float64
	CloseDeviation  float64
	CloseProb       float64
	DecayBase       float64 // decay: max(Floor, Base − Rate×deviation)
	DecayRate       float64
	FloorProb       float64
	ZeroMeanProb    float64 // fixed score when the ledger mean is zero
}

// DefaultAmountTiers is the production tier table.
var DefaultAmountTiers = AmountTiers{
	ExtremeMultiple: 100,
	ExtremeProb:     0.9,
	HighMultiple:    10,
	HighProb:        0.7,
	NearDeviation:   0.2,
	NearProb:        0.8,
	CloseDeviation:  0.5,
	CloseProb:       0.6,
	DecayBase:       0.5,
	DecayRate:       0.1,
	FloorProb:       0.1,
	ZeroMeanProb:    0.1,
}

// AmountAgent scores a transaction amount against the historical fraud
// mean. Tiers are evaluated in strict order, first match wins: the
// absolute-multiple tiers come before the deviation tiers because a
// very large amount is suspicious regardless of its distance from the
// mean.
type AmountAgent struct {
	mean  float64
	tiers AmountTiers
}

// NewAmountAgent builds the agent over the loaded ledger's mean.
func NewAmountAgent(l *ledger.Ledger, tiers AmountTiers) *AmountAgent {
	return &AmountAgent{mean: l.MeanAmount(), tiers: tiers}
}

// Mean returns the reference mean fraud amount.
func (a *AmountAgent) Mean() float64 { return a.mean }

// Score evaluates a transaction amount. Negative amounts are scored,
// not rejected; the ledger itself contains them.
func (a *AmountAgent) Score(amount float64) Finding {
	t := a.tiers

	if a.mean == 0 {
		return Finding{
			Agent:       AgentAmount,
			Probability: t.ZeroMeanProb,
			Rationale:   "no fraud data to compare",
			Extra:       map[string]any{"meanAmount": 0.0},
		}
	}

	deviation := math.Abs(amount-a.mean) / a.mean

	var prob float64
	var rationale string
	switch {
	case amount > a.mean*t.ExtremeMultiple:
		prob = t.ExtremeProb
		rationale = fmt.Sprintf("amount %.2f is extremely high (over %.0fx the historical fraud mean)", amount, t.ExtremeMultiple)
	case amount > a.mean*t.HighMultiple:
		prob = t.HighProb
		rationale = fmt.Sprintf("amount %.2f is very high (over %.0fx the historical fraud mean)", amount, t.HighMultiple)
	case deviation <= t.NearDeviation:
		prob = t.NearProb
		rationale = fmt.Sprintf("amount %.2f is near the historical fraud mean %.2f", amount, a.mean)
	case deviation <= t.CloseDeviation:
		prob = t.CloseProb
		rationale = fmt.Sprintf("amount %.2f is close to the historical fraud mean %.2f", amount, a.mean)
	default:
		prob = math.Max(t.FloorProb, t.DecayBase-t.DecayRate*deviation)
		rationale = fmt.Sprintf("amount %.2f is far from the historical fraud mean %.2f", amount, a.mean)
	}

	return Finding{
		Agent:       AgentAmount,
		Probability: round2(prob),
		Rationale:   rationale,
		Extra: map[string]any{
			"meanAmount": round2(a.mean),
			"deviation":  round2(deviation),
		},
	}
}
