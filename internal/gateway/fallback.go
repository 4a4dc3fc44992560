package gateway

import (
	"fmt"
	"math/rand"
	"sync"
	"time"
)

// Patterns holds the crude fallback thresholds. These come from the
// fraud team's rule sheet, not from the ledger: the fallback path must
// work when everything behind the aggregator is down.
type Patterns struct {
	HighAmountThreshold     float64
	ElevatedAmountThreshold float64
	SuspiciousLocations     []string
	RiskyMerchantCats       []string
	JitterSpan              float64 // max magnitude of the jitter term
}

// DefaultPatterns is the production rule sheet.
var DefaultPatterns = Patterns{
	HighAmountThreshold:     10000,
	ElevatedAmountThreshold: 5000,
	SuspiciousLocations:     []string{"unknown", "suspicious"},
	RiskyMerchantCats:       []string{"online_gaming", "crypto", "gambling"},
	JitterSpan:              0.05,
}

// Contribution of each rule to the crude score.
const (
	fallbackAmountWeight         = 0.4
	fallbackElevatedAmountWeight = 0.2
	fallbackLocationWeight       = 0.3
	fallbackMerchantWeight       = 0.25
)

// Jitter supplies the random term added to the crude score. It is an
// interface so tests can pin the sequence with a fixed seed.
type Jitter interface {
	Float64() float64 // in [0.0, 1.0)
}

type lockedJitter struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func (j *lockedJitter) Float64() float64 {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.rng.Float64()
}

// NewSeededJitter returns a deterministic jitter source.
func NewSeededJitter(seed int64) Jitter {
	return &lockedJitter{rng: rand.New(rand.NewSource(seed))}
}

// NewTimeJitter returns a time-seeded jitter source for production.
func NewTimeJitter() Jitter {
	return NewSeededJitter(time.Now().UnixNano())
}

// FallbackScorer is the degraded analysis path: amount, location, and
// merchant-category thresholds only, no ledger, no blacklist.
// Intentionally cruder than the multi-agent path and always labeled as
// such.
type FallbackScorer struct {
	patterns Patterns
	jitter   Jitter
}

// NewFallbackScorer creates the degraded scorer. A nil jitter gets a
// time-seeded source.
func NewFallbackScorer(patterns Patterns, jitter Jitter) *FallbackScorer {
	if jitter == nil {
		jitter = NewTimeJitter()
	}
	return &FallbackScorer{patterns: patterns, jitter: jitter}
}

// Score evaluates a request against the rule sheet. It fails only on a
// request missing its customer id, which cannot be scored meaningfully
// by any path.
func (f *FallbackScorer) Score(req AnalysisRequest) (*Verdict, error) {
	if req.CustomerID == "" {
		return nil, fmt.Errorf("cannot score transaction %q: missing customer id", req.TransactionID)
	}

	p := f.patterns
	score := 0.0
	factors := []string{}

	switch {
	case req.Amount > p.HighAmountThreshold:
		score += fallbackAmountWeight
		factors = append(factors, fmt.Sprintf("high amount: %.2f exceeds %.2f", req.Amount, p.HighAmountThreshold))
	case req.Amount > p.ElevatedAmountThreshold:
		score += fallbackElevatedAmountWeight
		factors = append(factors, fmt.Sprintf("elevated amount: %.2f exceeds %.2f", req.Amount, p.ElevatedAmountThreshold))
	}

	for _, loc := range p.SuspiciousLocations {
		if req.Location == loc {
			score += fallbackLocationWeight
			factors = append(factors, fmt.Sprintf("suspicious location: %s", req.Location))
			break
		}
	}

	for _, cat := range p.RiskyMerchantCats {
		if req.MerchantCategory == cat {
			score += fallbackMerchantWeight
			factors = append(factors, fmt.Sprintf("risky merchant category: %s", req.MerchantCategory))
			break
		}
	}

	score += f.jitter.Float64() * p.JitterSpan
	if score > 1.0 {
		score = 1.0
	}

	isFraud := score > 0.5
	return &Verdict{
		IsFraud:        isFraud,
		Confidence:     score,
		RiskFactors:    factors,
		Recommendation: fallbackRecommendation(score),
		Decision:       fallbackDecision(score),
		AnalysisMethod: MethodFallback,
	}, nil
}

func fallbackDecision(score float64) string {
	switch {
	case score > 0.8:
		return "BLOCK"
	case score > 0.5:
		return "REVIEW"
	default:
		return "APPROVE"
	}
}

func fallbackRecommendation(score float64) string {
	switch {
	case score > 0.8:
		return "BLOCK - high fraud risk detected"
	case score > 0.5:
		return "REVIEW - manual verification recommended"
	default:
		return "APPROVE - low fraud risk"
	}
}
