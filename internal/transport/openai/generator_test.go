package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/fonta-cloud/studymeter/internal/domain"
	"github.com/fonta-cloud/studymeter/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.RegisterGenerationMetrics()
	os.Exit(m.Run())
}

// chatCompletionResponse mirrors the OpenAI-compatible chat completion response.
type chatCompletionResponse struct {
	Object  string `json:"object"`
	Model   string `json:"model"`
	Choices []struct {
		Index   int `json:"index"`
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

func completionServer(t *testing.T, content string, capture *string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("unexpected auth header: %s", r.Header.Get("Authorization"))
		}

		if capture != nil {
			var req struct {
				Messages []struct {
					Role    string `json:"role"`
					Content string `json:"content"`
				} `json:"messages"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err == nil && len(req.Messages) > 0 {
				*capture = req.Messages[len(req.Messages)-1].Content
			}
		}

		resp := chatCompletionResponse{Object: "chat.completion", Model: "test-model"}
		resp.Choices = append(resp.Choices, struct {
			Index   int `json:"index"`
			Message struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"message"`
			FinishReason string `json:"finish_reason"`
		}{})
		resp.Choices[0].Message.Role = "assistant"
		resp.Choices[0].Message.Content = content
		resp.Choices[0].FinishReason = "stop"
		resp.Usage.PromptTokens = 50
		resp.Usage.CompletionTokens = 100
		resp.Usage.TotalTokens = 150

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
}

func newTestGenerator(baseURL string) *Generator {
	return NewGenerator(&Config{
		APIKey:  "test-key",
		BaseURL: baseURL,
		Model:   "test-model",
		Logger:  zap.NewNop(),
	})
}

func TestGenerator_GenerateQuiz(t *testing.T) {
	var prompt string
	server := completionServer(t, "Q1: What is mitosis?", &prompt)
	defer server.Close()

	gen := newTestGenerator(server.URL)

	content, err := gen.GenerateQuiz(context.Background(), "cell biology notes", 7)
	if err != nil {
		t.Fatalf("GenerateQuiz failed: %v", err)
	}
	if content != "Q1: What is mitosis?" {
		t.Errorf("unexpected content: %q", content)
	}
	if !strings.Contains(prompt, "7 questions") {
		t.Errorf("question count not in prompt: %q", prompt)
	}
	if !strings.Contains(prompt, "cell biology notes") {
		t.Errorf("material not in prompt: %q", prompt)
	}
}

func TestGenerator_GenerateSummary(t *testing.T) {
	var prompt string
	server := completionServer(t, "- point one\n- point two", &prompt)
	defer server.Close()

	gen := newTestGenerator(server.URL)

	content, err := gen.GenerateSummary(context.Background(), "long history chapter")
	if err != nil {
		t.Fatalf("GenerateSummary failed: %v", err)
	}
	if content == "" {
		t.Fatal("empty summary")
	}
	if prompt != "long history chapter" {
		t.Errorf("material should pass through as the user message, got %q", prompt)
	}
}

func TestGenerator_GenerateHomeworkHelp(t *testing.T) {
	server := completionServer(t, "Step 1: factor the equation", nil)
	defer server.Close()

	gen := newTestGenerator(server.URL)

	content, err := gen.GenerateHomeworkHelp(context.Background(), "solve x^2-4=0")
	if err != nil {
		t.Fatalf("GenerateHomeworkHelp failed: %v", err)
	}
	if !strings.HasPrefix(content, "Step 1") {
		t.Errorf("unexpected content: %q", content)
	}
}

func TestGenerator_EmptyResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := chatCompletionResponse{Object: "chat.completion", Model: "test-model"}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	gen := newTestGenerator(server.URL)

	_, err := gen.GenerateSummary(context.Background(), "notes")
	if !errors.Is(err, domain.ErrGenerationFailed) {
		t.Fatalf("expected ErrGenerationFailed, got %v", err)
	}
}

func TestGenerator_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{
				"message": "rate limit exceeded",
				"type":    "rate_limit_error",
			},
		})
	}))
	defer server.Close()

	gen := newTestGenerator(server.URL)

	_, err := gen.GenerateQuiz(context.Background(), "notes", 5)
	if !errors.Is(err, domain.ErrGenerationFailed) {
		t.Fatalf("expected ErrGenerationFailed, got %v", err)
	}
	if !strings.Contains(err.Error(), "429") {
		t.Errorf("status code should be in the message: %v", err)
	}
}
