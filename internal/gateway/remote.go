package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/halcyonpay/fraudsentry/internal/risk"
)

const maxResponseSize = 1 * 1024 * 1024 // 1MB

// RemoteAnalyzer calls a separate analysis service over HTTP, for
// deployments where the aggregator runs behind its own front door.
// The per-call deadline comes from the gateway's context timeout.
type RemoteAnalyzer struct {
	baseURL string
	client  *http.Client
}

// NewRemoteAnalyzer creates a client for the analysis service at
// baseURL (POST {baseURL}/v1/decide).
func NewRemoteAnalyzer(baseURL string) *RemoteAnalyzer {
	return &RemoteAnalyzer{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{},
	}
}

// Analyze posts the request to the remote analyzer. Any transport
// error, timeout, or non-2xx status is a failure; the gateway handles
// degradation.
func (a *RemoteAnalyzer) Analyze(ctx context.Context, req AnalysisRequest) (*Verdict, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal analysis request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/v1/decide", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create analysis request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("analysis service unreachable: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("analysis service returned %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("read analysis response: %w", err)
	}

	// The remote service answers with a full assessment; map it into
	// the same verdict shape the local analyzer produces.
	var assessment risk.Assessment
	if err := json.Unmarshal(raw, &assessment); err != nil {
		return nil, fmt.Errorf("decode analysis response: %w", err)
	}
	return VerdictFromAssessment(&assessment), nil
}
