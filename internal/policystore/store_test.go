package policystore

import (
	"testing"

	"github.com/suPer8Hu/chat-gateway/internal/ratelimit"
)

func TestStore_UpsertAndPolicy(t *testing.T) {
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	want := ratelimit.Policy{PerMinute: 10, PerDay: 1000, CreditLimit: 5, EstimatedCostPerRequest: 0.01}
	if err := s.Upsert("groq", "llm", want); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	got, ok := s.Policy("groq", "llm")
	if !ok {
		t.Fatalf("expected policy to be found")
	}
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestStore_PolicyMissingReturnsFalse(t *testing.T) {
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, ok := s.Policy("unknown", "unknown"); ok {
		t.Fatalf("expected no policy for unconfigured pair")
	}
}

func TestStore_SeedSkipsWhenPopulated(t *testing.T) {
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.Upsert("groq", "llm", ratelimit.Policy{PerMinute: 1}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := s.Seed(map[string]ratelimit.Policy{"groq:llm": {PerMinute: 999}}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	got, _ := s.Policy("groq", "llm")
	if got.PerMinute != 1 {
		t.Fatalf("seed overwrote existing policy: got %d", got.PerMinute)
	}
}
