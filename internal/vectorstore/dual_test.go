package vectorstore

import (
	"context"
	"errors"
	"testing"
)

// fakeGateway is an in-memory Gateway used to exercise DualGateway's
// fan-out/union policy without a real store dependency.
type fakeGateway struct {
	points    map[Collection]map[string]Point
	failWrite bool
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{points: make(map[Collection]map[string]Point)}
}

func (f *fakeGateway) Bootstrap(ctx context.Context, collection Collection, vectorSize int) error {
	if f.points[collection] == nil {
		f.points[collection] = make(map[string]Point)
	}
	return nil
}

func (f *fakeGateway) Upsert(ctx context.Context, collection Collection, point Point) error {
	if f.failWrite {
		return errors.New("write failed")
	}
	f.points[collection][point.ID] = point
	return nil
}

func (f *fakeGateway) Retrieve(ctx context.Context, collection Collection, ids []string) ([]Point, error) {
	var out []Point
	for _, id := range ids {
		if p, ok := f.points[collection][id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeGateway) Search(ctx context.Context, collection Collection, vector []float32, limit int, filter *Filter) ([]SearchResult, error) {
	var out []SearchResult
	for _, p := range f.points[collection] {
		out = append(out, SearchResult{Point: p})
	}
	return out, nil
}

func (f *fakeGateway) Scroll(ctx context.Context, collection Collection, filter *Filter, pageSize int) ([]Point, error) {
	var out []Point
	for _, p := range f.points[collection] {
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeGateway) Delete(ctx context.Context, collection Collection, ids []string) error {
	for _, id := range ids {
		delete(f.points[collection], id)
	}
	return nil
}

func (f *fakeGateway) DeleteByFilter(ctx context.Context, collection Collection, filter Filter) error {
	for id := range f.points[collection] {
		delete(f.points[collection], id)
	}
	return nil
}

func (f *fakeGateway) Count(ctx context.Context, collection Collection, filter *Filter) (int, error) {
	return len(f.points[collection]), nil
}

func TestDualGateway_UpsertWritesBothStoresForMessages(t *testing.T) {
	auth := newFakeGateway()
	shadow := newFakeGateway()
	auth.Bootstrap(context.Background(), CollectionMessages, 4)
	shadow.Bootstrap(context.Background(), CollectionMessages, 4)

	g := NewDualGateway(auth, shadow)
	err := g.Upsert(context.Background(), CollectionMessages, Point{ID: "m1", Payload: map[string]any{"x": "y"}})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}

	if _, ok := auth.points[CollectionMessages]["m1"]; !ok {
		t.Fatalf("expected authoritative store to contain m1")
	}
	if _, ok := shadow.points[CollectionMessages]["m1"]; !ok {
		t.Fatalf("expected shadow store to contain m1")
	}
}

func TestDualGateway_UpsertSkipsShadowForNonMessageCollections(t *testing.T) {
	auth := newFakeGateway()
	shadow := newFakeGateway()
	auth.Bootstrap(context.Background(), CollectionRooms, 4)
	shadow.Bootstrap(context.Background(), CollectionRooms, 4)

	g := NewDualGateway(auth, shadow)
	if err := g.Upsert(context.Background(), CollectionRooms, Point{ID: "r1"}); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	if _, ok := shadow.points[CollectionRooms]["r1"]; ok {
		t.Fatalf("expected shadow store to be untouched for non-message collections")
	}
}

func TestDualGateway_ShadowWriteFailureDoesNotFailUpsert(t *testing.T) {
	auth := newFakeGateway()
	shadow := newFakeGateway()
	shadow.failWrite = true
	auth.Bootstrap(context.Background(), CollectionMessages, 4)
	shadow.Bootstrap(context.Background(), CollectionMessages, 4)

	g := NewDualGateway(auth, shadow)
	if err := g.Upsert(context.Background(), CollectionMessages, Point{ID: "m1"}); err != nil {
		t.Fatalf("expected shadow failure to be swallowed, got %v", err)
	}
}

func TestDualGateway_AuthoritativeWriteFailureSurfaces(t *testing.T) {
	auth := newFakeGateway()
	shadow := newFakeGateway()
	auth.failWrite = true
	auth.Bootstrap(context.Background(), CollectionMessages, 4)
	shadow.Bootstrap(context.Background(), CollectionMessages, 4)

	g := NewDualGateway(auth, shadow)
	if err := g.Upsert(context.Background(), CollectionMessages, Point{ID: "m1"}); err == nil {
		t.Fatalf("expected authoritative failure to surface")
	}
}
