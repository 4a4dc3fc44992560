package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/halcyonpay/fraudsentry/internal/gateway"
	"github.com/halcyonpay/fraudsentry/internal/health"
	"github.com/halcyonpay/fraudsentry/internal/logging"
	"github.com/halcyonpay/fraudsentry/internal/metrics"
	"github.com/halcyonpay/fraudsentry/internal/segment"
	"github.com/halcyonpay/fraudsentry/internal/traces"
)

// analyzeFraudHandler handles POST /v1/analyze-fraud.
// Full orchestration: collect customer context, run the analysis
// gateway, return the labeled verdict alongside the collected data.
func (s *Server) analyzeFraudHandler(c *gin.Context) {
	var req gateway.AnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "Invalid request body",
		})
		return
	}
	if req.CustomerID == "" || req.TransactionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "customer_id and transaction_id are required",
		})
		return
	}

	ctx, span := traces.StartSpan(c.Request.Context(), "analyze_fraud",
		traces.CustomerID(req.CustomerID),
		traces.TransactionID(req.TransactionID),
		traces.Amount(req.Amount),
	)
	defer span.End()

	// Customer context is advisory: analysis proceeds without it.
	bundle, err := s.collector.Collect(ctx, req.CustomerID)
	if err != nil {
		logging.L(ctx).Warn("data collection failed, analyzing without context",
			"customer_id", req.CustomerID,
			"error", err,
		)
	}

	start := time.Now()
	verdict, err := s.gateway.Analyze(ctx, req)

	span.SetAttributes(traces.AnalysisMethod(verdict.AnalysisMethod))
	metrics.AnalysisDuration.WithLabelValues(verdict.AnalysisMethod).Observe(time.Since(start).Seconds())
	metrics.AnalysisMethodTotal.WithLabelValues(verdict.AnalysisMethod).Inc()
	if verdict.AnalysisMethod == gateway.MethodFallback && err == nil {
		metrics.FallbacksTotal.Inc()
	}

	if err != nil {
		metrics.AnalysisFailuresTotal.Inc()
		if errors.Is(err, gateway.ErrAnalysisFailed) {
			// Both analysis paths failed. The caller still gets a
			// structured safe-default verdict, but under an error status
			// so it is never mistaken for a real score.
			c.JSON(http.StatusInternalServerError, gin.H{
				"transaction_id": req.TransactionID,
				"verdict":        verdict,
				"error":          "analysis_failed",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "Analysis failed",
		})
		return
	}

	span.SetAttributes(traces.DecisionAttr(verdict.Decision))
	metrics.AnalysesTotal.WithLabelValues(verdict.Decision).Inc()

	resp := gin.H{
		"transaction_id": req.TransactionID,
		"verdict":        verdict,
	}
	if bundle != nil {
		resp["collected_data"] = bundle
	}
	c.JSON(http.StatusOK, resp)
}

// decideHandler handles POST /v1/decide: the multi-agent engine
// directly, no collection, no fallback.
func (s *Server) decideHandler(c *gin.Context) {
	var req struct {
		CustomerID string  `json:"customer_id" binding:"required"`
		Amount     float64 `json:"amount"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "customer_id is required",
		})
		return
	}

	ctx, span := traces.StartSpan(c.Request.Context(), "decide",
		traces.CustomerID(req.CustomerID),
		traces.Amount(req.Amount),
	)
	defer span.End()

	assessment := s.aggregator.Analyze(ctx, req.CustomerID, req.Amount)

	span.SetAttributes(traces.DecisionAttr(string(assessment.Decision)))
	metrics.AnalysesTotal.WithLabelValues(string(assessment.Decision)).Inc()

	c.JSON(http.StatusOK, assessment)
}

// ledgerStatsHandler handles GET /v1/ledger/stats
func (s *Server) ledgerStatsHandler(c *gin.Context) {
	size, blacklisted, mean := s.aggregator.Stats()
	c.JSON(http.StatusOK, gin.H{
		"records":               size,
		"blacklisted_customers": blacklisted,
		"mean_fraud_amount":     mean,
	})
}

// listAssessmentsHandler handles GET /v1/customers/:id/assessments
func (s *Server) listAssessmentsHandler(c *gin.Context) {
	customerID := c.Param("id")

	assessments, err := s.riskStore.ListByCustomer(c.Request.Context(), customerID, 50)
	if err != nil {
		logging.L(c.Request.Context()).Error("failed to list assessments", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "Failed to load assessment history",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"customer_id": customerID,
		"assessments": assessments,
		"count":       len(assessments),
	})
}

// upsertSegmentHandler handles PUT /v1/customers/:id/segment
func (s *Server) upsertSegmentHandler(c *gin.Context) {
	var req struct {
		PrepaidCount  int `json:"prepaid_count"`
		PostpaidCount int `json:"postpaid_count"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "Invalid request body",
		})
		return
	}
	if req.PrepaidCount < 0 || req.PostpaidCount < 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "activity counters must be non-negative",
		})
		return
	}

	profile := &segment.Profile{
		CustomerID:    c.Param("id"),
		PrepaidCount:  req.PrepaidCount,
		PostpaidCount: req.PostpaidCount,
	}
	if err := s.segmentStore.Upsert(c.Request.Context(), profile); err != nil {
		logging.L(c.Request.Context()).Error("failed to upsert segment profile", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "Failed to store segment profile",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"profile": profile,
		"segment": segment.Classify(profile),
	})
}

// -----------------------------------------------------------------------------
// Health & info
// -----------------------------------------------------------------------------

// HealthResponse for health check endpoints
type HealthResponse struct {
	Status    string          `json:"status"`
	Version   string          `json:"version"`
	Checks    []health.Status `json:"checks,omitempty"`
	Timestamp string          `json:"timestamp"`
}

func (s *Server) healthHandler(c *gin.Context) {
	healthy, statuses := s.healthReg.CheckAll(c.Request.Context())

	status := "healthy"
	httpStatus := http.StatusOK
	if !healthy {
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}

	c.JSON(httpStatus, HealthResponse{
		Status:    status,
		Version:   "0.1.0",
		Checks:    statuses,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) livenessHandler(c *gin.Context) {
	if !s.healthy.Load() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "alive"})
}

func (s *Server) readinessHandler(c *gin.Context) {
	if !s.ready.Load() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

func (s *Server) infoHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"name":        "FraudSentry",
		"description": "Multi-agent fraud risk analysis service",
		"version":     "0.1.0",
	})
}
