// Package gateway is the orchestration boundary for fraud analysis.
//
// It calls the primary analyzer (the in-process multi-agent aggregator
// or a remote analysis service) exactly once under a bounded timeout.
// On any failure it degrades, exactly once, to an embedded simplified
// scorer. Degraded answers are labeled so callers can tell
// authoritative from crude.
package gateway

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/halcyonpay/fraudsentry/internal/circuitbreaker"
)

// Analysis method labels. Callers rely on these to distinguish the
// multi-agent path from the degraded one.
const (
	MethodMultiAgent = "multi-agent"
	MethodFallback   = "fallback"
)

// ErrAnalysisFailed means both the primary and fallback paths failed.
var ErrAnalysisFailed = errors.New("fraud analysis failed on both primary and fallback paths")

// DefaultAnalyzerTimeout bounds the primary analyzer call. Expiry is
// treated identically to a transport error.
const DefaultAnalyzerTimeout = 5 * time.Second

// breakerKey names the single primary-analyzer circuit.
const breakerKey = "analyzer"

// AnalysisRequest is a transaction submitted for scoring.
type AnalysisRequest struct {
	CustomerID       string  `json:"customer_id"`
	TransactionID    string  `json:"transaction_id"`
	Amount           float64 `json:"amount"`
	Timestamp        string  `json:"timestamp,omitempty"`
	Location         string  `json:"location,omitempty"`
	MerchantCategory string  `json:"merchant_category,omitempty"`
}

// Verdict is the structured answer callers always receive — a decision
// or a labeled degraded decision, never a raw fault.
type Verdict struct {
	IsFraud        bool     `json:"is_fraud"`
	Confidence     float64  `json:"confidence_score"`
	RiskFactors    []string `json:"risk_factors"`
	Recommendation string   `json:"recommendation"`
	Decision       string   `json:"decision"`
	AnalysisMethod string   `json:"analysis_method"`
}

// Analyzer is the primary analysis path.
type Analyzer interface {
	Analyze(ctx context.Context, req AnalysisRequest) (*Verdict, error)
}

// Gateway orchestrates primary-then-fallback analysis.
type Gateway struct {
	primary  Analyzer
	fallback *FallbackScorer
	breaker  *circuitbreaker.Breaker
	timeout  time.Duration
	logger   *slog.Logger
}

// Option configures the gateway.
type Option func(*Gateway)

// WithTimeout bounds the primary analyzer call.
func WithTimeout(d time.Duration) Option {
	return func(g *Gateway) { g.timeout = d }
}

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(g *Gateway) { g.logger = l }
}

// WithBreaker guards the primary analyzer with a circuit breaker. An
// open circuit skips a known-dead primary and goes straight to the
// fallback; it is not a retry mechanism.
func WithBreaker(b *circuitbreaker.Breaker) Option {
	return func(g *Gateway) { g.breaker = b }
}

// New creates a gateway over a primary analyzer and a fallback scorer.
func New(primary Analyzer, fallback *FallbackScorer, opts ...Option) *Gateway {
	g := &Gateway{
		primary:  primary,
		fallback: fallback,
		timeout:  DefaultAnalyzerTimeout,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Analyze attempts exactly one primary call and, on failure, exactly
// one fallback. A second failure returns ErrAnalysisFailed together
// with a safe default verdict so callers still get a structured answer.
func (g *Gateway) Analyze(ctx context.Context, req AnalysisRequest) (*Verdict, error) {
	if g.breaker == nil || g.breaker.Allow(breakerKey) {
		callCtx, cancel := context.WithTimeout(ctx, g.timeout)
		verdict, err := g.primary.Analyze(callCtx, req)
		cancel()

		if err == nil {
			if g.breaker != nil {
				g.breaker.RecordSuccess(breakerKey)
			}
			return verdict, nil
		}

		if g.breaker != nil {
			g.breaker.RecordFailure(breakerKey)
		}
		g.logger.Warn("primary analyzer failed, degrading to fallback scorer",
			"transaction_id", req.TransactionID,
			"error", err,
		)
	} else {
		g.logger.Warn("analyzer circuit open, using fallback scorer",
			"transaction_id", req.TransactionID,
		)
	}

	verdict, err := g.fallback.Score(req)
	if err != nil {
		g.logger.Error("fallback scorer failed",
			"transaction_id", req.TransactionID,
			"error", err,
		)
		return safeDefault(), errors.Join(ErrAnalysisFailed, err)
	}
	return verdict, nil
}

// safeDefault is returned alongside ErrAnalysisFailed: no unhandled
// fault ever reaches the caller.
func safeDefault() *Verdict {
	return &Verdict{
		IsFraud:        false,
		Confidence:     0,
		RiskFactors:    []string{},
		Recommendation: "ERROR - analysis unavailable, manual review advised",
		Decision:       "ERROR",
		AnalysisMethod: MethodFallback,
	}
}
