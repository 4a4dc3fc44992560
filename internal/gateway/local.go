package gateway

import (
	"context"
	"fmt"

	"github.com/halcyonpay/fraudsentry/internal/risk"
)

// LocalAnalyzer runs the multi-agent aggregator in-process as the
// gateway's primary path.
type LocalAnalyzer struct {
	aggregator *risk.Aggregator
}

// NewLocalAnalyzer wraps the aggregator.
func NewLocalAnalyzer(agg *risk.Aggregator) *LocalAnalyzer {
	return &LocalAnalyzer{aggregator: agg}
}

// Analyze scores the transaction with the multi-agent engine and maps
// the assessment into the gateway's verdict shape.
func (a *LocalAnalyzer) Analyze(ctx context.Context, req AnalysisRequest) (*Verdict, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	assessment := a.aggregator.Analyze(ctx, req.CustomerID, req.Amount)
	return VerdictFromAssessment(assessment), nil
}

// VerdictFromAssessment converts an aggregator assessment into the
// caller-facing verdict, expanding each finding into an auditable risk
// factor with its weight and contribution.
func VerdictFromAssessment(a *risk.Assessment) *Verdict {
	factors := make([]string, 0, len(a.Findings)+1)
	for _, f := range a.Findings {
		weight := a.Weights[f.Agent]
		factors = append(factors, fmt.Sprintf(
			"%s: %s [risk %.1f%%, weight %.1f%%, contribution %.1f%%]",
			f.Agent, f.Rationale, f.Probability*100, weight*100, f.Probability*weight*100,
		))
	}
	factors = append(factors, fmt.Sprintf("final score: %.1f%% (weighted aggregation)", a.Probability*100))

	return &Verdict{
		IsFraud:        a.Decision == risk.DecisionBlock || a.Decision == risk.DecisionReview,
		Confidence:     a.Probability,
		RiskFactors:    factors,
		Recommendation: a.Action,
		Decision:       string(a.Decision),
		AnalysisMethod: MethodMultiAgent,
	}
}
