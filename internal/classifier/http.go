package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/evanmorse/crisiseval/internal/severity"
)

// classifyRequest is the wire shape of the classifier's analyze endpoint.
type classifyRequest struct {
	Message   string `json:"message"`
	UserID    string `json:"user_id"`
	ChannelID string `json:"channel_id"`
}

type classifyResponse struct {
	CrisisLevel        string   `json:"crisis_level"`
	ConfidenceScore    float64  `json:"confidence_score"`
	ProcessingTimeMs   float64  `json:"processing_time_ms"`
	DetectedCategories []string `json:"detected_categories"`
}

// HTTPClient talks to the remote crisis classifier over HTTP.
type HTTPClient struct {
	hc        *http.Client
	endpoint  string
	userID    string
	channelID string
}

// NewHTTPClient creates an HTTPClient from configuration.
func NewHTTPClient(cfg Config) (*HTTPClient, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("classifier endpoint is required")
	}
	return &HTTPClient{
		hc:        &http.Client{Timeout: cfg.Timeout},
		endpoint:  cfg.Endpoint,
		userID:    cfg.UserID,
		channelID: cfg.ChannelID,
	}, nil
}

// Classify sends one phrase and decodes the classifier's verdict.
func (c *HTTPClient) Classify(ctx context.Context, text string) (*Verdict, error) {
	body, err := json.Marshal(classifyRequest{
		Message:   text,
		UserID:    c.userID,
		ChannelID: c.channelID,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		// Network failures and client timeouts are transient.
		return nil, &ErrUnavailable{Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, &ErrUnavailable{Err: fmt.Errorf("read response: %w", err)}
	}

	if err := mapStatus(resp, raw); err != nil {
		return nil, err
	}

	return decodeVerdict(raw, time.Since(start))
}

// mapStatus converts non-2xx responses into typed errors.
func mapStatus(resp *http.Response, raw []byte) error {
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusTooManyRequests:
		return &ErrRateLimit{
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			Err:        fmt.Errorf("status 429"),
		}
	case resp.StatusCode >= 500:
		return &ErrUnavailable{Err: fmt.Errorf("status %d: %s", resp.StatusCode, truncate(raw, 200))}
	default:
		return &ErrPermanent{StatusCode: resp.StatusCode, Body: truncate(raw, 200)}
	}
}

// decodeVerdict validates and decodes a 2xx classifier response.
// A reply that does not match the response schema, or reports a severity
// outside the taxonomy, is ErrUnavailable — never coerced.
func decodeVerdict(raw []byte, elapsed time.Duration) (*Verdict, error) {
	if err := validateResponse(raw); err != nil {
		return nil, &ErrUnavailable{Err: err}
	}

	var cr classifyResponse
	if err := json.Unmarshal(raw, &cr); err != nil {
		return nil, &ErrUnavailable{Err: fmt.Errorf("decode response: %w", err)}
	}

	sev, err := severity.Parse(cr.CrisisLevel)
	if err != nil {
		return nil, &ErrUnavailable{Err: err}
	}

	latency := cr.ProcessingTimeMs
	if latency <= 0 {
		latency = float64(elapsed.Milliseconds())
	}

	return &Verdict{
		Severity:   sev,
		Confidence: cr.ConfidenceScore,
		LatencyMs:  latency,
		RawLabels:  cr.DetectedCategories,
	}, nil
}

func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return 0
}

func truncate(raw []byte, n int) string {
	if len(raw) > n {
		return string(raw[:n]) + "..."
	}
	return string(raw)
}
