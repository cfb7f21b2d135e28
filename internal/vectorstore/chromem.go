package vectorstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/philippgille/chromem-go"
)

// BootstrapMarkerID is the shadow store's dummy init-row marker: chromem-go
// needs a collection to contain at least one document before certain
// queries are meaningful, so Bootstrap seeds one and every read path here
// filters it back out, per spec.md §9's call to make this explicit rather
// than implicit.
const BootstrapMarkerID = "__bootstrap_marker__"

// ChromemStore is the local embedded shadow vector store, used for
// messages only per spec.md §4.E's dual-store policy.
type ChromemStore struct {
	mu          sync.Mutex
	db          *chromem.DB
	collections map[Collection]*chromem.Collection
}

func NewChromemStore(persistPath string) (*ChromemStore, error) {
	var db *chromem.DB
	var err error
	if persistPath == "" {
		db = chromem.NewDB()
	} else {
		db, err = chromem.NewPersistentDB(persistPath, false)
		if err != nil {
			return nil, fmt.Errorf("chromem: open %s: %w", persistPath, err)
		}
	}
	return &ChromemStore{db: db, collections: make(map[Collection]*chromem.Collection)}, nil
}

// noopEmbeddingFunc satisfies chromem-go's embedding-function requirement
// while this gateway always supplies pre-computed vectors itself.
func noopEmbeddingFunc(ctx context.Context, text string) ([]float32, error) {
	return nil, fmt.Errorf("chromem: embeddings are supplied by the caller, not computed locally")
}

func (c *ChromemStore) Bootstrap(ctx context.Context, collection Collection, vectorSize int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.collections[collection]; ok {
		return nil
	}

	col, err := c.db.GetOrCreateCollection(string(collection), nil, noopEmbeddingFunc)
	if err != nil {
		return fmt.Errorf("chromem: create collection %s: %w", collection, err)
	}
	c.collections[collection] = col

	if col.Count() == 0 {
		marker := chromem.Document{
			ID:        BootstrapMarkerID,
			Embedding: make([]float32, vectorSize),
			Metadata:  map[string]string{"bootstrap": "true"},
		}
		if err := col.AddDocument(ctx, marker); err != nil {
			return fmt.Errorf("chromem: seed bootstrap marker: %w", err)
		}
	}
	return nil
}

func (c *ChromemStore) collection(collection Collection) (*chromem.Collection, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	col, ok := c.collections[collection]
	if !ok {
		return nil, fmt.Errorf("chromem: collection %s not bootstrapped", collection)
	}
	return col, nil
}

func (c *ChromemStore) Upsert(ctx context.Context, collection Collection, point Point) error {
	col, err := c.collection(collection)
	if err != nil {
		return err
	}
	return col.AddDocument(ctx, chromem.Document{
		ID:        point.ID,
		Embedding: point.Vector,
		Metadata:  stringifyPayload(point.Payload),
	})
}

func (c *ChromemStore) Retrieve(ctx context.Context, collection Collection, ids []string) ([]Point, error) {
	col, err := c.collection(collection)
	if err != nil {
		return nil, err
	}
	out := make([]Point, 0, len(ids))
	for _, id := range ids {
		if id == BootstrapMarkerID {
			continue
		}
		doc, err := col.GetByID(ctx, id)
		if err != nil {
			continue
		}
		out = append(out, Point{ID: doc.ID, Vector: doc.Embedding, Payload: destringifyPayload(doc.Metadata)})
	}
	return out, nil
}

func (c *ChromemStore) Search(ctx context.Context, collection Collection, vector []float32, limit int, filter *Filter) ([]SearchResult, error) {
	col, err := c.collection(collection)
	if err != nil {
		return nil, err
	}
	where := filterToWhere(filter)

	n := limit
	if max := col.Count(); n > max {
		n = max
	}
	if n == 0 {
		return nil, nil
	}

	results, err := col.QueryEmbedding(ctx, vector, n, where, nil)
	if err != nil {
		return nil, fmt.Errorf("chromem: search %s: %w", collection, err)
	}

	out := make([]SearchResult, 0, len(results))
	for _, r := range results {
		if r.ID == BootstrapMarkerID {
			continue
		}
		out = append(out, SearchResult{
			Point:  Point{ID: r.ID, Vector: r.Embedding, Payload: destringifyPayload(r.Metadata)},
			Score:  r.Similarity,
			Source: "shadow",
		})
	}
	return out, nil
}

func (c *ChromemStore) Scroll(ctx context.Context, collection Collection, filter *Filter, pageSize int) ([]Point, error) {
	col, err := c.collection(collection)
	if err != nil {
		return nil, err
	}
	var out []Point
	for _, doc := range col.GetAll(ctx) {
		if doc.ID == BootstrapMarkerID {
			continue
		}
		payload := destringifyPayload(doc.Metadata)
		if !matchesFilter(payload, filter) {
			continue
		}
		out = append(out, Point{ID: doc.ID, Vector: doc.Embedding, Payload: payload})
	}
	return out, nil
}

func (c *ChromemStore) Delete(ctx context.Context, collection Collection, ids []string) error {
	col, err := c.collection(collection)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if id == BootstrapMarkerID {
			continue // the marker survives every delete, per spec.md §9
		}
		_ = col.Delete(ctx, nil, nil, id)
	}
	return nil
}

func (c *ChromemStore) DeleteByFilter(ctx context.Context, collection Collection, filter Filter) error {
	points, err := c.Scroll(ctx, collection, &filter, 1000)
	if err != nil {
		return err
	}
	ids := make([]string, 0, len(points))
	for _, p := range points {
		ids = append(ids, p.ID)
	}
	return c.Delete(ctx, collection, ids)
}

func (c *ChromemStore) Count(ctx context.Context, collection Collection, filter *Filter) (int, error) {
	if filter == nil {
		col, err := c.collection(collection)
		if err != nil {
			return 0, err
		}
		n := col.Count()
		if n > 0 {
			n-- // exclude the bootstrap marker
		}
		return n, nil
	}
	points, err := c.Scroll(ctx, collection, filter, 1000)
	if err != nil {
		return 0, err
	}
	return len(points), nil
}

func stringifyPayload(payload map[string]any) map[string]string {
	out := make(map[string]string, len(payload))
	for k, v := range payload {
		out[k] = str(v)
	}
	return out
}

func destringifyPayload(meta map[string]string) map[string]any {
	out := make(map[string]any, len(meta))
	for k, v := range meta {
		out[k] = v
	}
	return out
}

func filterToWhere(filter *Filter) map[string]string {
	if filter == nil {
		return nil
	}
	return filter.Equals
}

func matchesFilter(payload map[string]any, filter *Filter) bool {
	if filter == nil {
		return true
	}
	for k, v := range filter.Equals {
		if str(payload[k]) != v {
			return false
		}
	}
	return true
}
