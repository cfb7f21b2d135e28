package dispatcher

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/suPer8Hu/chat-gateway/internal/provideradapter"
	"github.com/suPer8Hu/chat-gateway/internal/ratelimit"
)

type fakeLLM struct {
	name    string
	err     error
	answer  string
	calls   int
}

func (f *fakeLLM) Name() string { return f.name }
func (f *fakeLLM) Complete(ctx context.Context, prompt string, opts provideradapter.LLMOptions) (provideradapter.LLMResult, error) {
	f.calls++
	if f.err != nil {
		return provideradapter.LLMResult{}, f.err
	}
	return provideradapter.LLMResult{Answer: f.answer, Provider: f.name, Model: "test-model"}, nil
}

// noopPolicySource configures no policies, so ratelimit.Check always allows.
type noopPolicySource struct{}

func (noopPolicySource) Policy(provider, service string) (ratelimit.Policy, bool) { return ratelimit.Policy{}, false }

func newTestDispatcher(llm []provideradapter.LLMAdapter) *Dispatcher {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	return &Dispatcher{
		limiter:  ratelimit.New(rdb, noopPolicySource{}),
		llmChain: llm,
	}
}

func TestWalk_FirstProviderSucceeds(t *testing.T) {
	primary := &fakeLLM{name: "groq", answer: "hi"}
	fallback := &fakeLLM{name: "gemini", answer: "hi-fallback"}
	d := newTestDispatcher([]provideradapter.LLMAdapter{primary, fallback})

	result, provider, err := d.Complete(context.Background(), "prompt", provideradapter.LLMOptions{})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if provider != "groq" || result.Answer != "hi" {
		t.Fatalf("expected primary to serve the request, got provider=%s answer=%s", provider, result.Answer)
	}
	if fallback.calls != 0 {
		t.Fatalf("expected fallback untouched, got %d calls", fallback.calls)
	}
}

func TestWalk_FallsBackOnPrimaryFailure(t *testing.T) {
	primary := &fakeLLM{name: "groq", err: errors.New("boom")}
	fallback := &fakeLLM{name: "gemini", answer: "fallback answer"}
	d := newTestDispatcher([]provideradapter.LLMAdapter{primary, fallback})

	result, provider, err := d.Complete(context.Background(), "prompt", provideradapter.LLMOptions{})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if provider != "gemini" || result.Answer != "fallback answer" {
		t.Fatalf("expected fallback to serve the request, got provider=%s", provider)
	}
}

func TestWalk_ExhaustsChainAndReturnsError(t *testing.T) {
	primary := &fakeLLM{name: "groq", err: errors.New("boom")}
	fallback := &fakeLLM{name: "gemini", err: errors.New("also boom")}
	d := newTestDispatcher([]provideradapter.LLMAdapter{primary, fallback})

	_, _, err := d.Complete(context.Background(), "prompt", provideradapter.LLMOptions{})
	if err == nil {
		t.Fatalf("expected chain exhaustion error")
	}
}

func TestWalk_UnconfiguredPolicyAllowsWithoutTouchingStore(t *testing.T) {
	// With no policy configured for (provider, kind), ratelimit.Check
	// returns allowed=true without ever dialing the store, so the chain
	// walk succeeds even against a redis.Client with no reachable server.
	primary := &fakeLLM{name: "groq", answer: "ok"}
	d := newTestDispatcher([]provideradapter.LLMAdapter{primary})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	result, provider, err := d.Complete(ctx, "prompt", provideradapter.LLMOptions{})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if provider != "groq" || result.Answer != "ok" {
		t.Fatalf("expected single provider to serve despite limiter store being unreachable")
	}
}
