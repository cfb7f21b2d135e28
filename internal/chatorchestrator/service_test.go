package chatorchestrator

import (
	"context"
	"testing"
	"time"

	"github.com/suPer8Hu/chat-gateway/internal/contextassembly"
	"github.com/suPer8Hu/chat-gateway/internal/history"
	"github.com/suPer8Hu/chat-gateway/internal/identity"
	"github.com/suPer8Hu/chat-gateway/internal/provideradapter"
	"github.com/suPer8Hu/chat-gateway/internal/vectorstore"
)

type fakeGateway struct {
	points   map[string]vectorstore.Point
	inserted chan vectorstore.Point
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{points: make(map[string]vectorstore.Point), inserted: make(chan vectorstore.Point, 8)}
}

func (f *fakeGateway) put(collection vectorstore.Collection, p vectorstore.Point) {
	f.points[string(collection)+"/"+p.ID] = p
}

func (f *fakeGateway) Bootstrap(ctx context.Context, c vectorstore.Collection, vectorSize int) error {
	return nil
}
func (f *fakeGateway) Upsert(ctx context.Context, c vectorstore.Collection, p vectorstore.Point) error {
	f.put(c, p)
	if c == vectorstore.CollectionAIChatMessages {
		f.inserted <- p
	}
	return nil
}
func (f *fakeGateway) Retrieve(ctx context.Context, c vectorstore.Collection, ids []string) ([]vectorstore.Point, error) {
	var out []vectorstore.Point
	for _, id := range ids {
		if p, ok := f.points[string(c)+"/"+id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}
func (f *fakeGateway) Search(ctx context.Context, c vectorstore.Collection, v []float32, limit int, filter *vectorstore.Filter) ([]vectorstore.SearchResult, error) {
	return nil, nil
}
func (f *fakeGateway) Scroll(ctx context.Context, c vectorstore.Collection, filter *vectorstore.Filter, pageSize int) ([]vectorstore.Point, error) {
	prefix := string(c) + "/"
	var out []vectorstore.Point
	for key, p := range f.points {
		if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			out = append(out, p)
		}
	}
	return out, nil
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
	err    error
	calls  int
}

func (f *fakeCompleter) Complete(ctx context.Context, prompt string, opts provideradapter.LLMOptions) (provideradapter.LLMResult, string, error) {
	f.calls++
	if f.err != nil {
		return provideradapter.LLMResult{}, "", f.err
	}
	return provideradapter.LLMResult{Answer: f.answer, Model: "llama-3"}, "groq", nil
}

func newService(gw *fakeGateway, completer Completer) *Service {
	a := contextassembly.New(gw, history.New(gw))
	return New(a, completer, history.New(gw))
}

func TestChat_PersistsRecordOnSuccess(t *testing.T) {
	gw := newFakeGateway()
	completer := &fakeCompleter{answer: `{"answer": "42", "suggested_answer": "forty-two"}`}
	svc := newService(gw, completer)

	result, err := svc.Chat(context.Background(), ChatRequest{RoomID: "r1", UserID: "u1", UserQuestion: "what is the answer?"})
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if result.Answer != "42" {
		t.Fatalf("expected answer 42, got %q", result.Answer)
	}
	if result.SuggestedAnswer == nil || *result.SuggestedAnswer != "forty-two" {
		t.Fatalf("expected suggested answer, got %v", result.SuggestedAnswer)
	}

	select {
	case p := <-gw.inserted:
		rec := vectorstore.AIChatRecordFromPoint(p)
		if rec.Question != "what is the answer?" || rec.Answer != "42" {
			t.Fatalf("unexpected persisted record: %+v", rec)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for AIChatRecord to persist")
	}
}

func TestReply_NeverPersists(t *testing.T) {
	gw := newFakeGateway()
	msg := vectorstore.Message{ID: identity.RandomID(), ExternalMessageID: "ext1", RoomID: "r1", SenderID: "other", SenderName: "Bob", Text: "hi there", CreatedAt: time.Now()}
	gw.put(vectorstore.CollectionMessages, msg.ToPoint())

	completer := &fakeCompleter{answer: `{"answer": "sure thing"}`}
	svc := newService(gw, completer)

	result, err := svc.Reply(context.Background(), ReplyRequest{RoomID: "r1", SenderID: "u1", MessageID: "ext1"})
	if err != nil {
		t.Fatalf("reply: %v", err)
	}
	if result.Answer != "sure thing" {
		t.Fatalf("unexpected answer: %q", result.Answer)
	}
	if result.TargetSenderName != "Bob" {
		t.Fatalf("expected target sender name Bob, got %q", result.TargetSenderName)
	}

	select {
	case p := <-gw.inserted:
		t.Fatalf("reply must never persist an AIChatRecord, got %+v", p)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestReply_SelfReplyIsForbiddenWithoutCallingLLM(t *testing.T) {
	gw := newFakeGateway()
	msg := vectorstore.Message{ID: identity.RandomID(), ExternalMessageID: "ext1", RoomID: "r1", SenderID: "u1", Text: "hi", CreatedAt: time.Now()}
	gw.put(vectorstore.CollectionMessages, msg.ToPoint())

	completer := &fakeCompleter{answer: `{"answer": "should not be called"}`}
	svc := newService(gw, completer)

	_, err := svc.Reply(context.Background(), ReplyRequest{RoomID: "r1", SenderID: "u1", MessageID: "ext1"})
	if err != contextassembly.ErrCannotReplyToSelf {
		t.Fatalf("expected ErrCannotReplyToSelf, got %v", err)
	}
	if completer.calls != 0 {
		t.Fatalf("expected LLM not to be called for a self-reply, got %d calls", completer.calls)
	}
}

func TestReply_MissingTargetIsNotFoundWithoutCallingLLM(t *testing.T) {
	gw := newFakeGateway()
	completer := &fakeCompleter{answer: `{"answer": "should not be called"}`}
	svc := newService(gw, completer)

	_, err := svc.Reply(context.Background(), ReplyRequest{RoomID: "r1", SenderID: "u1", MessageID: "missing"})
	if err != contextassembly.ErrMessageNotFound {
		t.Fatalf("expected ErrMessageNotFound, got %v", err)
	}
	if completer.calls != 0 {
		t.Fatalf("expected LLM not to be called when target is missing, got %d calls", completer.calls)
	}
}
