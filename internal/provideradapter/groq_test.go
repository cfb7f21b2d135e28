package provideradapter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestGroqProvider_Complete_ParsesChoice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Fatalf("missing bearer auth header")
		}
		_ = json.NewEncoder(w).Encode(groqChatResp{
			Choices: []struct {
				Message struct {
					Content string `json:"content"`
				} `json:"message"`
			}{{Message: struct {
				Content string `json:"content"`
			}{Content: "hello there"}}},
		})
	}))
	defer srv.Close()

	p := NewGroqProvider(srv.URL, "test-key", "llama-3.3-70b", nil)
	res, err := p.Complete(context.Background(), "hi", LLMOptions{Temperature: 0.5})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if res.Answer != "hello there" {
		t.Fatalf("unexpected answer: %q", res.Answer)
	}
	if res.Provider != "groq" {
		t.Fatalf("unexpected provider: %q", res.Provider)
	}
}

func TestGroqProvider_Complete_RateLimitedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	p := NewGroqProvider(srv.URL, "test-key", "llama-3.3-70b", nil)
	_, err := p.Complete(context.Background(), "hi", LLMOptions{})
	if err == nil {
		t.Fatalf("expected an error")
	}
}
