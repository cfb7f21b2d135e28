package contextassembly

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/suPer8Hu/chat-gateway/internal/embedding"
	"github.com/suPer8Hu/chat-gateway/internal/history"
	"github.com/suPer8Hu/chat-gateway/internal/identity"
	"github.com/suPer8Hu/chat-gateway/internal/vectorstore"
)

type fakeGateway struct {
	points map[string]vectorstore.Point
}

func newFakeGateway() *fakeGateway { return &fakeGateway{points: make(map[string]vectorstore.Point)} }

func (f *fakeGateway) put(collection vectorstore.Collection, p vectorstore.Point) {
	f.points[string(collection)+"/"+p.ID] = p
}

func (f *fakeGateway) Bootstrap(ctx context.Context, c vectorstore.Collection, vectorSize int) error {
	return nil
}
func (f *fakeGateway) Upsert(ctx context.Context, c vectorstore.Collection, p vectorstore.Point) error {
	f.put(c, p)
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
	var out []vectorstore.Point
	for key, p := range f.points {
		if !strings.HasPrefix(key, string(c)+"/") {
			continue
		}
		if matches(p, filter) {
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

func matches(p vectorstore.Point, filter *vectorstore.Filter) bool {
	if filter == nil {
		return true
	}
	for k, v := range filter.Equals {
		if str(p.Payload[k]) != v {
			return false
		}
	}
	return true
}

func str(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

func TestAssembleForChat_NoContext(t *testing.T) {
	gw := newFakeGateway()
	hist := history.New(gw)
	a := New(gw, hist)

	c, err := a.AssembleForChat(context.Background(), ChatParams{RoomID: "r1", UserID: "u1", Question: "hi"})
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	if !hasNoContext(c) {
		t.Fatalf("expected empty context for a fresh room/user")
	}
	_, prompt := BuildChatPrompt(c, "hi")
	if !strings.Contains(prompt, "No prior context") {
		t.Fatalf("expected no-context instruction branch, got: %s", prompt)
	}
}

func TestAssembleForChat_WithRoomAndUser(t *testing.T) {
	gw := newFakeGateway()
	room := vectorstore.RoomAggregate{RoomID: "r1", Summary: "talking about launch plans", MessageCount: 3}
	roomPoint := room.ToPoint()
	roomPoint.Vector = embedding.ZeroVector()
	gw.put(vectorstore.CollectionRooms, roomPoint)

	user := vectorstore.UserAggregate{UserID: "u1", PersonalizationSummary: "likes concise answers"}
	userPoint := user.ToPoint()
	userPoint.Vector = embedding.ZeroVector()
	gw.put(vectorstore.CollectionUsers, userPoint)

	hist := history.New(gw)
	a := New(gw, hist)

	c, err := a.AssembleForChat(context.Background(), ChatParams{RoomID: "r1", UserID: "u1", Question: "hi"})
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	if c.Room == nil || c.Room.Summary != "talking about launch plans" {
		t.Fatalf("expected room summary to be fetched")
	}
	if c.User == nil || c.User.PersonalizationSummary != "likes concise answers" {
		t.Fatalf("expected user profile to be fetched")
	}

	system, prompt := BuildChatPrompt(c, "what's the plan?")
	if !strings.Contains(system, ChatPersona) {
		t.Fatalf("expected chat system prompt to name the persona")
	}
	if !strings.Contains(prompt, "launch plans") {
		t.Fatalf("expected room summary in prompt")
	}
}

func TestAssembleForReply_MissingTargetFails(t *testing.T) {
	gw := newFakeGateway()
	hist := history.New(gw)
	a := New(gw, hist)

	_, err := a.AssembleForReply(context.Background(), ReplyParams{RoomID: "r1", SenderID: "u1", TargetExternalID: "does-not-exist"})
	if err != ErrMessageNotFound {
		t.Fatalf("expected ErrMessageNotFound, got %v", err)
	}
}

func TestAssembleForReply_SelfReplyFails(t *testing.T) {
	gw := newFakeGateway()
	msg := vectorstore.Message{ID: identity.RandomID(), ExternalMessageID: "ext1", RoomID: "r1", SenderID: "u1", Text: "hi", CreatedAt: time.Now()}
	gw.put(vectorstore.CollectionMessages, msg.ToPoint())

	hist := history.New(gw)
	a := New(gw, hist)

	_, err := a.AssembleForReply(context.Background(), ReplyParams{RoomID: "r1", SenderID: "u1", TargetExternalID: "ext1"})
	if err != ErrCannotReplyToSelf {
		t.Fatalf("expected ErrCannotReplyToSelf, got %v", err)
	}
}

func TestAssembleForReply_StarsTargetMessage(t *testing.T) {
	gw := newFakeGateway()
	msg := vectorstore.Message{ID: identity.RandomID(), ExternalMessageID: "ext1", RoomID: "r1", SenderID: "other", SenderName: "Bob", Text: "original message", CreatedAt: time.Now()}
	gw.put(vectorstore.CollectionMessages, msg.ToPoint())

	hist := history.New(gw)
	a := New(gw, hist)

	c, err := a.AssembleForReply(context.Background(), ReplyParams{RoomID: "r1", SenderID: "u1", TargetExternalID: "ext1"})
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	_, prompt := BuildReplyPrompt(c)
	if !strings.Contains(prompt, "* [") {
		t.Fatalf("expected target message to be starred in the recent-messages section, got: %s", prompt)
	}
}
