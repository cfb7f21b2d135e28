package summary

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/suPer8Hu/chat-gateway/internal/provideradapter"
	"github.com/suPer8Hu/chat-gateway/internal/vectorstore"
)

type fakeGateway struct {
	points map[string]vectorstore.Point
}

func newFakeGateway() *fakeGateway { return &fakeGateway{points: make(map[string]vectorstore.Point)} }

func (f *fakeGateway) Bootstrap(ctx context.Context, c vectorstore.Collection, vectorSize int) error {
	return nil
}
func (f *fakeGateway) Upsert(ctx context.Context, c vectorstore.Collection, p vectorstore.Point) error {
	f.points[p.ID] = p
	return nil
}
func (f *fakeGateway) Retrieve(ctx context.Context, c vectorstore.Collection, ids []string) ([]vectorstore.Point, error) {
	var out []vectorstore.Point
	for _, id := range ids {
		if p, ok := f.points[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}
func (f *fakeGateway) Search(ctx context.Context, c vectorstore.Collection, v []float32, limit int, filter *vectorstore.Filter) ([]vectorstore.SearchResult, error) {
	return nil, nil
}
func (f *fakeGateway) Scroll(ctx context.Context, c vectorstore.Collection, filter *vectorstore.Filter, pageSize int) ([]vectorstore.Point, error) {
	return nil, nil
}
func (f *fakeGateway) Delete(ctx context.Context, c vectorstore.Collection, ids []string) error { return nil }
func (f *fakeGateway) DeleteByFilter(ctx context.Context, c vectorstore.Collection, filter vectorstore.Filter) error {
	return nil
}
func (f *fakeGateway) Count(ctx context.Context, c vectorstore.Collection, filter *vectorstore.Filter) (int, error) {
	return len(f.points), nil
}

type fakeCompleter struct {
	answer string
	calls  int
}

func (f *fakeCompleter) Complete(ctx context.Context, prompt string, opts provideradapter.LLMOptions) (provideradapter.LLMResult, string, error) {
	f.calls++
	return provideradapter.LLMResult{Answer: f.answer, Provider: "groq"}, "groq", nil
}

func TestUpdateRoomSummary_SeedsShortMessageWithoutLLM(t *testing.T) {
	gw := newFakeGateway()
	llm := &fakeCompleter{}
	s := New(gw, llm)

	s.UpdateRoomSummary(context.Background(), "room1", "hi there", "alice")

	if llm.calls != 0 {
		t.Fatalf("expected no LLM call for a short seed message, got %d", llm.calls)
	}

	points, _ := gw.Retrieve(context.Background(), vectorstore.CollectionRooms, []string{})
	_ = points
	found := false
	for _, p := range gw.points {
		agg := vectorstore.RoomAggregateFromPoint(p)
		if agg.RoomID == "room1" {
			found = true
			if !strings.Contains(agg.Summary, "hi there") {
				t.Fatalf("expected seeded summary to contain raw text, got %q", agg.Summary)
			}
			if agg.MessageCount != 1 {
				t.Fatalf("expected messageCount=1, got %d", agg.MessageCount)
			}
		}
	}
	if !found {
		t.Fatalf("expected a room aggregate to be upserted")
	}
}

func TestUpdateRoomSummary_CondensesLongMessageViaLLM(t *testing.T) {
	gw := newFakeGateway()
	llm := &fakeCompleter{answer: "condensed"}
	s := New(gw, llm)

	longText := strings.Repeat("word ", 100)
	s.UpdateRoomSummary(context.Background(), "room1", longText, "")

	if llm.calls != 1 {
		t.Fatalf("expected exactly one LLM call for a long new-only message, got %d", llm.calls)
	}
}

func TestUpdateRoomSummary_MergesWithPriorSummaryViaLLM(t *testing.T) {
	gw := newFakeGateway()
	llm := &fakeCompleter{answer: "merged"}
	s := New(gw, llm)

	s.UpdateRoomSummary(context.Background(), "room1", "short", "")
	s.UpdateRoomSummary(context.Background(), "room1", "short2", "")

	if llm.calls != 1 {
		t.Fatalf("expected exactly one LLM call once a prior summary exists, got %d", llm.calls)
	}
}

func TestUpdateRoomSummary_SwallowsLLMFailure(t *testing.T) {
	gw := newFakeGateway()
	longText := strings.Repeat("word ", 100)
	s := New(gw, &failingCompleter{})

	// Must not panic nor propagate an error; there is nothing to assert on
	// the return value since UpdateRoomSummary is fire-and-forget by design.
	s.UpdateRoomSummary(context.Background(), "room1", longText, "")
}

type failingCompleter struct{}

func (f *failingCompleter) Complete(ctx context.Context, prompt string, opts provideradapter.LLMOptions) (provideradapter.LLMResult, string, error) {
	return provideradapter.LLMResult{}, "", errBoom
}

var errBoom = &boomErr{}

type boomErr struct{}

func (*boomErr) Error() string { return "boom" }

func TestTruncate_IsRuneSafeAcrossMultiByteText(t *testing.T) {
	arabic := strings.Repeat("ميجو ", vectorstore.SummaryCharCap) // far more runes than the cap
	llm := &fakeCompleter{answer: arabic}
	s := New(newFakeGateway(), llm)

	got, err := s.buildSummary(context.Background(), roomSummaryPersona, "prior summary", "new", "")
	if err != nil {
		t.Fatalf("buildSummary: %v", err)
	}

	runes := []rune(got)
	if len(runes) != vectorstore.SummaryCharCap {
		t.Fatalf("expected truncated summary to have exactly %d runes, got %d", vectorstore.SummaryCharCap, len(runes))
	}
	for _, r := range got {
		if r == 0xFFFD {
			t.Fatalf("truncated summary contains utf8.RuneError, truncation split a multi-byte rune: %q", got)
		}
	}
	if !utf8.ValidString(got) {
		t.Fatalf("truncated summary is not valid UTF-8: %q", got)
	}
}
