package generate

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dgallion1/reportdoc/internal/parser"
)

const reportBody = "# Report\n\n## Summary\nAll good."

func TestClaudeClient_Generate(t *testing.T) {
	var got anthropicRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("x-api-key") != "key" {
			t.Errorf("expected api key header")
		}
		json.NewDecoder(r.Body).Decode(&got)
		json.NewEncoder(w).Encode(map[string]any{
			"content": []map[string]string{{"type": "text", "text": "```markdown\n" + reportBody + "\n```"}},
		})
	}))
	defer srv.Close()

	stats := NewLLMStats(time.Hour)
	c := NewClaudeClient("key", "claude-test", WithBaseURL(srv.URL), WithStats(stats))
	defer c.Close()

	text, err := c.Generate(context.Background(), Request{Student: "Jane", Sources: []Source{{Name: "iep.pdf", Text: "IEP text"}}})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if text != reportBody {
		t.Errorf("expected fence stripped, got %q", text)
	}
	if got.Model != "claude-test" || got.System != SystemPrompt || len(got.Messages) != 1 {
		t.Errorf("unexpected request: %+v", got)
	}
	if !strings.Contains(got.Messages[0].Content, "IEP text") {
		t.Errorf("expected source text in prompt")
	}
	if m := stats.Snapshot().Models["claude-test"]; m.Calls != 1 || m.Outcomes[OutcomeOK] != 1 {
		t.Errorf("expected one ok call for claude-test, got %+v", m)
	}
}

func TestClaudeClient_RetryableStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "7")
		http.Error(w, "slow down", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	stats := NewLLMStats(time.Hour)
	_, err := NewClaudeClient("key", "m", WithBaseURL(srv.URL), WithStats(stats)).Generate(context.Background(), Request{})
	var re *RetryableError
	if !errors.As(err, &re) || re.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("expected RetryableError 429, got %v", err)
	}
	if re.RetryAfter != 7*time.Second {
		t.Errorf("expected retry after 7s, got %v", re.RetryAfter)
	}
	if n := stats.Snapshot().Models["m"].Outcomes[OutcomeRetryable]; n != 1 {
		t.Errorf("expected one retryable outcome, got %d", n)
	}
}

func TestClaudeClient_ClientErrorNotRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad", http.StatusBadRequest)
	}))
	defer srv.Close()

	_, err := NewClaudeClient("key", "m", WithBaseURL(srv.URL)).Generate(context.Background(), Request{})
	var re *RetryableError
	if err == nil || errors.As(err, &re) {
		t.Fatalf("expected non-retryable error, got %v", err)
	}
}

func TestClaudeClient_NoSections(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"content": []map[string]string{{"type": "text", "text": "I cannot help with that."}},
		})
	}))
	defer srv.Close()

	_, err := NewClaudeClient("key", "m", WithBaseURL(srv.URL)).Generate(context.Background(), Request{})
	if !errors.Is(err, ErrNoSections) {
		t.Fatalf("expected ErrNoSections, got %v", err)
	}
}

func TestOpenAIClient_Generate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		if req.Model != "gpt-test" || len(req.Messages) != 2 || req.Messages[0].Role != "system" {
			t.Errorf("unexpected request: %+v", req)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":      "x",
			"object":  "chat.completion",
			"choices": []map[string]any{{"index": 0, "message": map[string]string{"role": "assistant", "content": reportBody}}},
		})
	}))
	defer srv.Close()

	stats := NewLLMStats(time.Hour)
	c := NewOpenAIClient("key", "gpt-test", srv.URL+"/v1", stats)
	text, err := c.Generate(context.Background(), Request{})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if text != reportBody {
		t.Errorf("expected report text, got %q", text)
	}
	if m := stats.Snapshot().Models["gpt-test"]; m.Calls != 1 {
		t.Errorf("expected one call recorded for gpt-test, got %+v", m)
	}
}

func TestOpenAIClient_RetryableStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"error":{"message":"overloaded","type":"server_error"}}`))
	}))
	defer srv.Close()

	_, err := NewOpenAIClient("key", "m", srv.URL+"/v1", nil).Generate(context.Background(), Request{})
	var re *RetryableError
	if !errors.As(err, &re) || re.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected RetryableError 503, got %v", err)
	}
}

func TestBuildPrompt_Budget(t *testing.T) {
	long := strings.Repeat("word ", 300)
	req := Request{
		Student:         "Jane",
		Instructions:    "Focus on reading",
		Sources:         []Source{{Name: "a.txt", Text: long}, {Name: "b.txt", Text: "never included"}},
		MaxSourceTokens: 100,
	}
	p := BuildPrompt(req)
	if !strings.Contains(p, "Student: Jane") || !strings.Contains(p, "Instructions: Focus on reading") {
		t.Errorf("expected header lines, got %q", p[:80])
	}
	if !strings.Contains(p, "[truncated]") {
		t.Error("expected first source truncated")
	}
	if strings.Contains(p, "never included") || !strings.Contains(p, "budget exhausted") {
		t.Error("expected second source omitted")
	}
}

func TestBuildPrompt_NoSources(t *testing.T) {
	if p := BuildPrompt(Request{}); !strings.Contains(p, "No source documents") {
		t.Errorf("expected skeleton instruction, got %q", p)
	}
}

func TestEstimateTokens(t *testing.T) {
	if EstimateTokens("") != 0 {
		t.Error("expected 0 for empty text")
	}
	if got := EstimateTokens("one two three"); got != 3 {
		t.Errorf("expected 3, got %d", got)
	}
	if got := EstimateTokens(" "); got != 1 {
		t.Errorf("expected minimum of 1, got %d", got)
	}
}

func TestClean(t *testing.T) {
	if _, err := Clean("```\n## A\nbody\n```", parser.DefaultOptions()); err != nil {
		t.Errorf("expected bare fence accepted, got %v", err)
	}
	if _, err := Clean("", parser.DefaultOptions()); !errors.Is(err, ErrNoSections) {
		t.Errorf("expected ErrNoSections, got %v", err)
	}
}
