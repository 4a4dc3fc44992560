package gateway

import (
	"testing"
)

func TestFallbackDeterministicUnderFixedSeed(t *testing.T) {
	req := AnalysisRequest{
		CustomerID:    "c1",
		TransactionID: "tx1",
		Amount:        15000,
		Location:      "unknown",
	}

	v1, err := NewFallbackScorer(DefaultPatterns, NewSeededJitter(7)).Score(req)
	if err != nil {
		t.Fatal(err)
	}
	v2, err := NewFallbackScorer(DefaultPatterns, NewSeededJitter(7)).Score(req)
	if err != nil {
		t.Fatal(err)
	}
	if v1.Confidence != v2.Confidence {
		t.Errorf("same seed must give the same score: %v vs %v", v1.Confidence, v2.Confidence)
	}
}

func TestFallbackRules(t *testing.T) {
	scorer := NewFallbackScorer(DefaultPatterns, NewSeededJitter(1))

	tests := []struct {
		name        string
		req         AnalysisRequest
		minScore    float64
		maxScore    float64
		wantFactors int
	}{
		{
			name:        "clean transaction",
			req:         AnalysisRequest{CustomerID: "c1", Amount: 50, Location: "Madrid"},
			minScore:    0,
			maxScore:    0.05,
			wantFactors: 0,
		},
		{
			name:        "high amount only",
			req:         AnalysisRequest{CustomerID: "c1", Amount: 20000},
			minScore:    0.4,
			maxScore:    0.45,
			wantFactors: 1,
		},
		{
			name:        "elevated amount only",
			req:         AnalysisRequest{CustomerID: "c1", Amount: 7000},
			minScore:    0.2,
			maxScore:    0.25,
			wantFactors: 1,
		},
		{
			name: "everything fires",
			req: AnalysisRequest{
				CustomerID:       "c1",
				Amount:           20000,
				Location:         "unknown",
				MerchantCategory: "crypto",
			},
			minScore:    0.95,
			maxScore:    1.0, // clamped
			wantFactors: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := scorer.Score(tt.req)
			if err != nil {
				t.Fatal(err)
			}
			if v.Confidence < tt.minScore || v.Confidence > tt.maxScore {
				t.Errorf("confidence %v outside [%v, %v]", v.Confidence, tt.minScore, tt.maxScore)
			}
			if len(v.RiskFactors) != tt.wantFactors {
				t.Errorf("factors = %v, want %d", v.RiskFactors, tt.wantFactors)
			}
			if v.AnalysisMethod != MethodFallback {
				t.Errorf("method = %q", v.AnalysisMethod)
			}
		})
	}
}

func TestFallbackIgnoresTimestamp(t *testing.T) {
	scorer := NewFallbackScorer(DefaultPatterns, NewSeededJitter(1))

	// Only amount, location, and merchant category are scored; a
	// small-hours timestamp contributes nothing.
	v, err := scorer.Score(AnalysisRequest{CustomerID: "c1", Amount: 10, Timestamp: "2024-03-01T03:12:00Z"})
	if err != nil {
		t.Fatal(err)
	}
	if len(v.RiskFactors) != 0 {
		t.Errorf("timestamp must not contribute risk factors: %v", v.RiskFactors)
	}
	if v.Confidence > DefaultPatterns.JitterSpan {
		t.Errorf("confidence %v exceeds jitter span for a clean transaction", v.Confidence)
	}
}

func TestFallbackMissingCustomerFails(t *testing.T) {
	scorer := NewFallbackScorer(DefaultPatterns, NewSeededJitter(1))

	if _, err := scorer.Score(AnalysisRequest{TransactionID: "tx"}); err == nil {
		t.Fatal("expected error for missing customer id")
	}
}
