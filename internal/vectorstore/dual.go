package vectorstore

import (
	"context"

	"github.com/suPer8Hu/chat-gateway/internal/platform/logger"
)

// DualGateway composes the authoritative store with the shadow store,
// applying the dual-store policy of spec.md §4.E: the shadow store mirrors
// the `messages` collection only; every other collection is authoritative-
// only. Writes go authoritative-then-shadow in sequence; Search queries both
// and returns the union with a source tag on each result, while Retrieve,
// Scroll and Count read the authoritative store only; deletes fan out to both. There is no reconciliation,
// per the open design note in spec.md §9 (decision recorded in DESIGN.md:
// the shadow write is treated as best-effort/log-only, option (a)).
type DualGateway struct {
	Authoritative Gateway
	Shadow        Gateway
}

func NewDualGateway(authoritative, shadow Gateway) *DualGateway {
	return &DualGateway{Authoritative: authoritative, Shadow: shadow}
}

func shadowed(collection Collection) bool {
	return collection == CollectionMessages
}

func (g *DualGateway) Bootstrap(ctx context.Context, collection Collection, vectorSize int) error {
	if err := g.Authoritative.Bootstrap(ctx, collection, vectorSize); err != nil {
		return err
	}
	if shadowed(collection) {
		if err := g.Shadow.Bootstrap(ctx, collection, vectorSize); err != nil {
			logger.Log.WithError(err).WithField("collection", collection).Warn("vectorstore: shadow bootstrap failed")
		}
	}
	return nil
}

// Upsert writes authoritative first; the shadow write is best-effort. If
// the authoritative write fails the caller sees the failure and the shadow
// write is never attempted; if the shadow write fails it is logged only,
// per the decision in DESIGN.md.
func (g *DualGateway) Upsert(ctx context.Context, collection Collection, point Point) error {
	if err := g.Authoritative.Upsert(ctx, collection, point); err != nil {
		return err
	}
	if shadowed(collection) {
		if err := g.Shadow.Upsert(ctx, collection, point); err != nil {
			logger.Log.WithError(err).WithField("collection", collection).WithField("id", point.ID).
				Warn("vectorstore: shadow upsert failed, authoritative write stands")
		}
	}
	return nil
}

func (g *DualGateway) Retrieve(ctx context.Context, collection Collection, ids []string) ([]Point, error) {
	return g.Authoritative.Retrieve(ctx, collection, ids)
}

// Search returns the union of authoritative and shadow results with a
// source tag attached per result, per spec.md §4.E.
func (g *DualGateway) Search(ctx context.Context, collection Collection, vector []float32, limit int, filter *Filter) ([]SearchResult, error) {
	authResults, err := g.Authoritative.Search(ctx, collection, vector, limit, filter)
	if err != nil {
		return nil, err
	}
	if !shadowed(collection) {
		return authResults, nil
	}

	shadowResults, err := g.Shadow.Search(ctx, collection, vector, limit, filter)
	if err != nil {
		logger.Log.WithError(err).Warn("vectorstore: shadow search failed, returning authoritative only")
		return authResults, nil
	}
	return append(authResults, shadowResults...), nil
}

func (g *DualGateway) Scroll(ctx context.Context, collection Collection, filter *Filter, pageSize int) ([]Point, error) {
	return g.Authoritative.Scroll(ctx, collection, filter, pageSize)
}

// Delete fans out to both stores, per spec.md §4.E.
func (g *DualGateway) Delete(ctx context.Context, collection Collection, ids []string) error {
	err := g.Authoritative.Delete(ctx, collection, ids)
	if shadowed(collection) {
		if shadowErr := g.Shadow.Delete(ctx, collection, ids); shadowErr != nil {
			logger.Log.WithError(shadowErr).Warn("vectorstore: shadow delete failed")
		}
	}
	return err
}

func (g *DualGateway) DeleteByFilter(ctx context.Context, collection Collection, filter Filter) error {
	err := g.Authoritative.DeleteByFilter(ctx, collection, filter)
	if shadowed(collection) {
		if shadowErr := g.Shadow.DeleteByFilter(ctx, collection, filter); shadowErr != nil {
			logger.Log.WithError(shadowErr).Warn("vectorstore: shadow deleteByFilter failed")
		}
	}
	return err
}

func (g *DualGateway) Count(ctx context.Context, collection Collection, filter *Filter) (int, error) {
	return g.Authoritative.Count(ctx, collection, filter)
}

// ShadowCount exposes the shadow store's own count, used by /api/v1/embedding/stats
// to surface both counts for observability per spec.md §6.
func (g *DualGateway) ShadowCount(ctx context.Context, collection Collection, filter *Filter) (int, error) {
	if !shadowed(collection) {
		return 0, nil
	}
	return g.Shadow.Count(ctx, collection, filter)
}
