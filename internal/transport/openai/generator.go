// Package openai implements the study content generator on the
// OpenAI-compatible chat completions API.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/fonta-cloud/studymeter/internal/domain"
	"github.com/fonta-cloud/studymeter/internal/metrics"
)

const (
	quizSystemPrompt = "You are a study assistant. Create a multiple-choice quiz from the " +
		"provided material. For each question give four options labeled A-D and mark the " +
		"correct answer at the end."
	summarySystemPrompt = "You are a study assistant. Summarize the provided material into " +
		"concise bullet points a student can review before an exam."
	homeworkSystemPrompt = "You are a study assistant. Guide the student through the problem " +
		"step by step. Explain the reasoning; do not just state the final answer."
)

// Generator produces study content using the OpenAI-compatible API.
type Generator struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
	user        string
	logger      *zap.Logger
}

// Config holds the generation provider settings.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	MaxTokens   int
	User        string
	Logger      *zap.Logger
}

// NewGenerator creates an OpenAI-compatible content generator.
func NewGenerator(cfg *Config) *Generator {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &Generator{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		user:        cfg.User,
		logger:      cfg.Logger,
	}
}

// GenerateQuiz implements study.Generator.
func (g *Generator) GenerateQuiz(ctx context.Context, material string, questionCount int) (string, error) {
	prompt := fmt.Sprintf("Create a quiz with %d questions from this material:\n\n%s", questionCount, material)
	return g.complete(ctx, domain.FeatureQuiz, quizSystemPrompt, prompt)
}

// GenerateSummary implements study.Generator.
func (g *Generator) GenerateSummary(ctx context.Context, material string) (string, error) {
	return g.complete(ctx, domain.FeatureSummary, summarySystemPrompt, material)
}

// GenerateHomeworkHelp implements study.Generator.
func (g *Generator) GenerateHomeworkHelp(ctx context.Context, problem string) (string, error) {
	return g.complete(ctx, domain.FeatureHomework, homeworkSystemPrompt, problem)
}

// complete runs one chat completion with transport-level metrics.
func (g *Generator) complete(ctx context.Context, feature domain.Feature, system, user string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:       g.model,
		Temperature: g.temperature,
		MaxTokens:   g.maxTokens,
		User:        g.user,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	}

	start := time.Now()

	resp, err := g.client.CreateChatCompletion(ctx, req)

	duration := time.Since(start)

	if err != nil {
		metrics.GenerationRequestsTotal.WithLabelValues(g.model, string(feature), "error").Inc()
		metrics.GenerationErrorsTotal.WithLabelValues(g.model, string(feature), "api_error").Inc()
		return "", parseAPIError(err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		metrics.GenerationRequestsTotal.WithLabelValues(g.model, string(feature), "error").Inc()
		metrics.GenerationErrorsTotal.WithLabelValues(g.model, string(feature), "empty_response").Inc()
		return "", fmt.Errorf("empty completion response: %w", domain.ErrGenerationFailed)
	}

	metrics.GenerationRequestsTotal.WithLabelValues(g.model, string(feature), "success").Inc()
	metrics.GenerationRequestDuration.WithLabelValues(g.model, string(feature)).Observe(duration.Seconds())

	if resp.Usage.TotalTokens > 0 {
		metrics.GenerationTokensTotal.WithLabelValues(g.model, "prompt").Add(float64(resp.Usage.PromptTokens))
		metrics.GenerationTokensTotal.WithLabelValues(g.model, "completion").Add(float64(resp.Usage.CompletionTokens))
		metrics.GenerationTokensTotal.WithLabelValues(g.model, "total").Add(float64(resp.Usage.TotalTokens))
	}

	g.logger.Debug("completion finished",
		zap.String("model", g.model),
		zap.String("feature", string(feature)),
		zap.Duration("duration", duration),
		zap.Int("total_tokens", resp.Usage.TotalTokens),
	)

	return resp.Choices[0].Message.Content, nil
}

// HealthCheck verifies API availability via ListModels (free endpoint).
func (g *Generator) HealthCheck(ctx context.Context) error {
	if _, err := g.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

// parseAPIError extracts a human-readable error from the API response.
// All errors are wrapped with domain.ErrGenerationFailed for correct 502 mapping.
func parseAPIError(err error) error {
	wrap := domain.ErrGenerationFailed

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		detail := extractDetail(reqErr.Body)
		if detail != "" {
			return fmt.Errorf("completion API error %d: %s: %w",
				reqErr.HTTPStatusCode, detail, wrap)
		}
		return fmt.Errorf("completion API error %d: %s: %w",
			reqErr.HTTPStatusCode, string(reqErr.Body), wrap)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("completion API error %d: %s: %w",
			apiErr.HTTPStatusCode, apiErr.Message, wrap)
	}

	return fmt.Errorf("completion request failed: %w", wrap)
}

// extractDetail extracts the "detail" field from a JSON error body.
func extractDetail(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Detail != "" {
		return parsed.Detail
	}
	return ""
}
