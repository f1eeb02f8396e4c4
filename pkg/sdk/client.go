package sdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultTimeout = 60 * time.Second

// Option configures the Client.
type Option func(*Client)

// WithAPIKey sets the bearer token sent with every request.
func WithAPIKey(key string) Option {
	return func(c *Client) {
		c.apiKey = key
	}
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		c.httpClient = h
	}
}

// WithTimeout sets the per-request timeout. Default: 60s, sized for
// generation endpoints that wait on the AI provider.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// Client talks to a studymeter API server.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// New creates an API client for the given base URL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type consumeRequest struct {
	Feature string `json:"feature"`
}

type consumeResponse struct {
	Allowed         bool   `json:"allowed"`
	Reason          string `json:"reason,omitempty"`
	Remaining       int    `json:"remaining"`
	WindowRemaining int    `json:"window_remaining"`
}

// Consume records one use of a feature if quota allows. A denial is not
// an error: Decision.Allowed is false and Decision.Reason carries the
// matching sentinel.
func (c *Client) Consume(ctx context.Context, userID, feature string) (Decision, error) {
	var resp consumeResponse
	err := c.do(ctx, http.MethodPost, c.userPath(userID, "consume"),
		consumeRequest{Feature: feature}, &resp)
	if err != nil {
		return Decision{}, err
	}

	d := Decision{
		Allowed:         resp.Allowed,
		Remaining:       resp.Remaining,
		WindowRemaining: resp.WindowRemaining,
	}
	if !resp.Allowed {
		d.Reason = codeSentinels[resp.Reason]
	}
	return d, nil
}

// Usage returns the derived usage state for a user.
func (c *Client) Usage(ctx context.Context, userID string) (Usage, error) {
	var u Usage
	if err := c.do(ctx, http.MethodGet, c.userPath(userID, "usage"), nil, &u); err != nil {
		return Usage{}, err
	}
	return u, nil
}

type checkFeatureResponse struct {
	Feature string `json:"feature"`
	CanUse  bool   `json:"can_use"`
}

// CanUse reports whether a consume would currently be allowed for the
// given tier. An empty tier means free.
func (c *Client) CanUse(ctx context.Context, userID, feature, tier string) (bool, error) {
	path := c.userPath(userID, "features/"+url.PathEscape(feature))
	if tier != "" {
		path += "?tier=" + url.QueryEscape(tier)
	}

	var resp checkFeatureResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return false, err
	}
	return resp.CanUse, nil
}

type setTierRequest struct {
	Tier string `json:"tier"`
}

// SetTier switches a user's subscription tier.
func (c *Client) SetTier(ctx context.Context, userID, tier string) error {
	return c.do(ctx, http.MethodPut, c.userPath(userID, "tier"), setTierRequest{Tier: tier}, nil)
}

type quizRequest struct {
	Material      string `json:"material"`
	QuestionCount int    `json:"question_count,omitempty"`
}

// GenerateQuiz produces a quiz from source material, charging quota
// first. Denials surface as ErrWindowQuotaExceeded or
// ErrFeatureLimitReached.
func (c *Client) GenerateQuiz(ctx context.Context, userID, material string, questionCount int) (Artifact, error) {
	var a Artifact
	err := c.do(ctx, http.MethodPost, c.userPath(userID, "quiz"),
		quizRequest{Material: material, QuestionCount: questionCount}, &a)
	if err != nil {
		return Artifact{}, err
	}
	return a, nil
}

type materialRequest struct {
	Material string `json:"material"`
}

// Summarize produces a summary from source material, charging quota first.
func (c *Client) Summarize(ctx context.Context, userID, material string) (Artifact, error) {
	var a Artifact
	err := c.do(ctx, http.MethodPost, c.userPath(userID, "summary"),
		materialRequest{Material: material}, &a)
	if err != nil {
		return Artifact{}, err
	}
	return a, nil
}

type homeworkRequest struct {
	Problem string `json:"problem"`
}

// HomeworkHelp produces step-by-step guidance, charging quota first.
func (c *Client) HomeworkHelp(ctx context.Context, userID, problem string) (Artifact, error) {
	var a Artifact
	err := c.do(ctx, http.MethodPost, c.userPath(userID, "homework"),
		homeworkRequest{Problem: problem}, &a)
	if err != nil {
		return Artifact{}, err
	}
	return a, nil
}

// Artifact fetches previously generated study content by id.
func (c *Client) Artifact(ctx context.Context, userID, artifactID string) (Artifact, error) {
	var a Artifact
	path := c.userPath(userID, "artifacts/"+url.PathEscape(artifactID))
	if err := c.do(ctx, http.MethodGet, path, nil, &a); err != nil {
		return Artifact{}, err
	}
	return a, nil
}

// Health returns the service health report. A degraded service is not
// an error: the report carries the failing checks.
func (c *Client) Health(ctx context.Context) (Health, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/health", nil)
	if err != nil {
		return Health{}, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Health{}, fmt.Errorf("health: %w", err)
	}
	defer resp.Body.Close()

	// 503 still carries the report body
	var h Health
	if err := json.NewDecoder(resp.Body).Decode(&h); err != nil {
		return Health{}, fmt.Errorf("health: decode response: %w", err)
	}
	return h, nil
}

func (c *Client) userPath(userID, suffix string) string {
	return "/api/v1/users/" + url.PathEscape(userID) + "/" + suffix
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	return req, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeAPIError(resp)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("%s %s: decode response: %w", method, path, err)
		}
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	var body struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		apiErr.Code = "internal_error"
		apiErr.Message = resp.Status
		return apiErr
	}

	apiErr.Code = body.Code
	apiErr.Message = body.Message
	return apiErr
}
