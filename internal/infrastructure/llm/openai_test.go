package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"engram/internal/domain"
)

func TestClientChat(t *testing.T) {
	t.Parallel()

	var captured chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("authorization = %q", got)
		}
		if got := r.Header.Get("Content-Type"); got != "application/json" {
			t.Errorf("content type = %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Write([]byte(`{"choices":[{"message":{"content":"the answer"}}]}`))
	}))
	defer srv.Close()

	c := NewClient("openai", srv.URL+"/", "gpt-4o-mini", "sk-test")
	c.httpClient = srv.Client()

	reply, err := c.Chat(context.Background(), []domain.Message{
		{Role: domain.RoleSystem, Content: "be brief"},
		{Role: domain.RoleUser, Content: "hello"},
	}, 0.3, 512)
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if reply != "the answer" {
		t.Errorf("reply = %q", reply)
	}

	if captured.Model != "gpt-4o-mini" {
		t.Errorf("model = %q", captured.Model)
	}
	if captured.Temperature != 0.3 {
		t.Errorf("temperature = %v", captured.Temperature)
	}
	if captured.MaxTokens != 512 {
		t.Errorf("max_tokens = %d", captured.MaxTokens)
	}
	if len(captured.Messages) != 2 || captured.Messages[0].Role != "system" || captured.Messages[1].Content != "hello" {
		t.Errorf("messages = %+v", captured.Messages)
	}
}

func TestClientChatUpstreamError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":{"message":"rate limited"}}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient("openai", srv.URL, "gpt-4o-mini", "sk-test")
	c.httpClient = srv.Client()

	_, err := c.Chat(context.Background(), []domain.Message{{Role: domain.RoleUser, Content: "hi"}}, 0.7, 0)
	if err == nil {
		t.Fatal("expected upstream error")
	}
	var llmErr *domain.LLMError
	if !errors.As(err, &llmErr) {
		t.Fatalf("expected LLMError, got %T", err)
	}
	if llmErr.Provider != "openai" {
		t.Errorf("provider = %q", llmErr.Provider)
	}
	if !strings.Contains(err.Error(), "rate limited") {
		t.Errorf("upstream body not surfaced: %v", err)
	}
}

func TestClientChatEmptyChoices(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	c := NewClient("openai", srv.URL, "gpt-4o-mini", "sk-test")
	c.httpClient = srv.Client()

	if _, err := c.Chat(context.Background(), nil, 0.7, 0); err == nil {
		t.Fatal("expected error on empty choices")
	}
}

func TestClientChatMisconfigured(t *testing.T) {
	t.Parallel()

	c := NewClient("openai", "https://api.openai.com/v1", "gpt-4o-mini", "")
	if _, err := c.Chat(context.Background(), nil, 0.7, 0); err == nil {
		t.Fatal("expected error without api key")
	}
}
