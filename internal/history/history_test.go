package history

import (
	"context"
	"testing"
	"time"

	"github.com/suPer8Hu/chat-gateway/internal/vectorstore"
)

type fakeGateway struct {
	points map[string]vectorstore.Point
}

func newFakeGateway() *fakeGateway { return &fakeGateway{points: make(map[string]vectorstore.Point)} }

func (f *fakeGateway) Bootstrap(ctx context.Context, collection vectorstore.Collection, vectorSize int) error {
	return nil
}

func (f *fakeGateway) Upsert(ctx context.Context, collection vectorstore.Collection, point vectorstore.Point) error {
	f.points[point.ID] = point
	return nil
}

func (f *fakeGateway) Retrieve(ctx context.Context, collection vectorstore.Collection, ids []string) ([]vectorstore.Point, error) {
	var out []vectorstore.Point
	for _, id := range ids {
		if p, ok := f.points[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeGateway) Search(ctx context.Context, collection vectorstore.Collection, vector []float32, limit int, filter *vectorstore.Filter) ([]vectorstore.SearchResult, error) {
	return nil, nil
}

func (f *fakeGateway) Scroll(ctx context.Context, collection vectorstore.Collection, filter *vectorstore.Filter, pageSize int) ([]vectorstore.Point, error) {
	var out []vectorstore.Point
	for _, p := range f.points {
		if matches(p, filter) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeGateway) Delete(ctx context.Context, collection vectorstore.Collection, ids []string) error {
	for _, id := range ids {
		delete(f.points, id)
	}
	return nil
}

func (f *fakeGateway) DeleteByFilter(ctx context.Context, collection vectorstore.Collection, filter vectorstore.Filter) error {
	for id, p := range f.points {
		if matches(p, &filter) {
			delete(f.points, id)
		}
	}
	return nil
}

func (f *fakeGateway) Count(ctx context.Context, collection vectorstore.Collection, filter *vectorstore.Filter) (int, error) {
	points, _ := f.Scroll(ctx, collection, filter, 1000)
	return len(points), nil
}

func matches(p vectorstore.Point, filter *vectorstore.Filter) bool {
	if filter == nil {
		return true
	}
	for k, v := range filter.Equals {
		if p.Payload[k] != v {
			return false
		}
	}
	return true
}

func TestStore_InsertAndLatest(t *testing.T) {
	gw := newFakeGateway()
	s := New(gw)

	now := time.Now().UTC()
	older := vectorstore.AIChatRecord{UserID: "u1", RoomID: "r1", Answer: "old", CreatedAt: now.Add(-time.Hour)}
	newer := vectorstore.AIChatRecord{UserID: "u1", RoomID: "r1", Answer: "new", CreatedAt: now}

	if err := s.Insert(context.Background(), older); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := s.Insert(context.Background(), newer); err != nil {
		t.Fatalf("insert: %v", err)
	}

	records, err := s.Latest(context.Background(), "u1", "r1", 10)
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].Answer != "new" {
		t.Fatalf("expected newest-first order, got %q first", records[0].Answer)
	}
}

func TestStore_DeleteForRoom(t *testing.T) {
	gw := newFakeGateway()
	s := New(gw)

	if err := s.Insert(context.Background(), vectorstore.AIChatRecord{UserID: "u1", RoomID: "r1", Answer: "a"}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := s.DeleteForRoom(context.Background(), "r1", ""); err != nil {
		t.Fatalf("delete: %v", err)
	}
	records, err := s.Query(context.Background(), QueryParams{RoomID: "r1"})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected room history to be empty after delete, got %d", len(records))
	}
}
