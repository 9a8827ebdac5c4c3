package governance

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/adaptd/internal/adaptation"
)

// DefaultCallTimeout bounds each verification call. Cycles have no
// mid-phase cancellation, so latency is contained here rather than by
// interrupting the controller.
const DefaultCallTimeout = 5 * time.Second

// maxResponseBytes caps verification response bodies.
const maxResponseBytes = 1 << 20

// Client calls the three verification services over HTTP. One Client
// handles all three endpoints; they share transport, timeout and
// logging behavior.
type Client struct {
	baseURL string
	http    *http.Client
	timeout time.Duration
	logger  *zap.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithTimeout overrides the per-call timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithHTTPClient substitutes the underlying HTTP client.
func WithHTTPClient(h *http.Client) ClientOption {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// NewClient creates a verification client for the service at baseURL.
func NewClient(baseURL string, logger *zap.Logger, opts ...ClientOption) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("base URL cannot be empty")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}

	c := &Client{
		baseURL: baseURL,
		http:    &http.Client{},
		timeout: DefaultCallTimeout,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// VerifyBeliefTrace calls the belief-trace verifier.
func (c *Client) VerifyBeliefTrace(ctx context.Context, a *adaptation.Adaptation) (adaptation.ConstitutionalVerification, error) {
	var out adaptation.ConstitutionalVerification
	err := c.post(ctx, "/api/v1/verify/belief-trace", a, &out)
	return out, err
}

// AssessTrustImplications calls the trust assessor.
func (c *Client) AssessTrustImplications(ctx context.Context, a *adaptation.Adaptation) (adaptation.TrustAssessment, error) {
	var out adaptation.TrustAssessment
	err := c.post(ctx, "/api/v1/verify/trust", a, &out)
	return out, err
}

// VerifyCompliance calls the governance-compliance checker.
func (c *Client) VerifyCompliance(ctx context.Context, a *adaptation.Adaptation) (adaptation.GovernanceCompliance, error) {
	var out adaptation.GovernanceCompliance
	err := c.post(ctx, "/api/v1/verify/compliance", a, &out)
	return out, err
}

// post sends one verification request and decodes the response into
// out. Any transport error, timeout or non-200 status is returned as an
// error; the caller maps errors to a failed check.
func (c *Client) post(ctx context.Context, path string, body, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("verification call failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("verification service returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// Ensure Client satisfies all three verifier contracts.
var (
	_ adaptation.BeliefTraceVerifier = (*Client)(nil)
	_ adaptation.TrustAssessor       = (*Client)(nil)
	_ adaptation.ComplianceChecker   = (*Client)(nil)
)
