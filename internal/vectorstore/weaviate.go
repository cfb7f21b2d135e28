package vectorstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/weaviate/weaviate-go-client/v4/weaviate"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/auth"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/filters"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"

	"github.com/suPer8Hu/chat-gateway/internal/platform/logger"
)

// WeaviateStore is the authoritative, hosted vector store backend. Each
// Collection is mapped to its own Weaviate class, one class per collection
// name (capitalised, Weaviate classes must start with an uppercase letter),
// conceptually grounded on the dual Conversation/Document class design
// documented in the retrieval pack's AleutianLocal interface file — one
// class per logical collection, payload-filterable, vector-searchable.
type WeaviateStore struct {
	client *weaviate.Client
}

func NewWeaviateStore(scheme, host, apiKey string) *WeaviateStore {
	cfg := weaviate.Config{Scheme: scheme, Host: host}
	if apiKey != "" {
		cfg.AuthConfig = weaviateAuthAPIKey(apiKey)
	}
	return &WeaviateStore{client: weaviate.New(cfg)}
}

func className(c Collection) string {
	s := string(c)
	return strings.ToUpper(s[:1]) + s[1:]
}

func (w *WeaviateStore) Bootstrap(ctx context.Context, collection Collection, vectorSize int) error {
	class := className(collection)

	exists, err := w.client.Schema().ClassExistenceChecker().WithClassName(class).Do(ctx)
	if err != nil {
		return fmt.Errorf("weaviate: check class %s: %w", class, err)
	}
	if exists {
		return nil
	}

	props := make([]*models.Property, 0, len(schemas[collection]))
	for _, f := range schemas[collection] {
		dataType := "text"
		if f.Type == FieldDatetime {
			dataType = "date"
		}
		props = append(props, &models.Property{
			Name:         f.Name,
			DataType:     []string{dataType},
			IndexFilterable: boolPtr(true),
		})
	}

	classObj := &models.Class{
		Class:      class,
		Vectorizer: "none", // vectors are supplied externally by internal/embedding
		Properties: props,
	}

	if err := w.client.Schema().ClassCreator().WithClass(classObj).Do(ctx); err != nil {
		return fmt.Errorf("weaviate: create class %s: %w", class, err)
	}
	return nil
}

func (w *WeaviateStore) Upsert(ctx context.Context, collection Collection, point Point) error {
	class := className(collection)

	exists, err := w.client.Data().Checker().WithClassName(class).WithID(point.ID).Do(ctx)
	if err == nil && exists {
		return w.client.Data().Updater().
			WithClassName(class).
			WithID(point.ID).
			WithProperties(point.Payload).
			WithVector(point.Vector).
			Do(ctx)
	}

	_, err = w.client.Data().Creator().
		WithClassName(class).
		WithID(point.ID).
		WithProperties(point.Payload).
		WithVector(point.Vector).
		Do(ctx)
	return err
}

func (w *WeaviateStore) Retrieve(ctx context.Context, collection Collection, ids []string) ([]Point, error) {
	class := className(collection)
	out := make([]Point, 0, len(ids))
	for _, id := range ids {
		obj, err := w.client.Data().ObjectsGetter().WithClassName(class).WithID(id).WithVector().Do(ctx)
		if err != nil {
			logger.Log.WithError(err).WithField("id", id).Debug("weaviate: retrieve miss")
			continue
		}
		for _, o := range obj {
			out = append(out, Point{ID: id, Vector: o.Vector, Payload: o.Properties.(map[string]any)})
		}
	}
	return out, nil
}

func (w *WeaviateStore) Search(ctx context.Context, collection Collection, vector []float32, limit int, filter *Filter) ([]SearchResult, error) {
	class := className(collection)

	nearVector := w.client.GraphQL().NearVectorArgBuilder().WithVector(vector)

	fields := fieldList(collection)
	fields = append(fields, graphql.Field{
		Name: "_additional", Fields: []graphql.Field{
			{Name: "id"}, {Name: "certainty"},
		},
	})

	q := w.client.GraphQL().Get().
		WithClassName(class).
		WithNearVector(nearVector).
		WithLimit(limit).
		WithFields(fields...)

	if filter != nil {
		if where := buildWhere(*filter); where != nil {
			q = q.WithWhere(where)
		}
	}

	resp, err := q.Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("weaviate: search %s: %w", class, err)
	}
	return parseGetResponse(resp, class, "authoritative")
}

func (w *WeaviateStore) Scroll(ctx context.Context, collection Collection, filter *Filter, pageSize int) ([]Point, error) {
	class := className(collection)
	fields := fieldList(collection)
	fields = append(fields, graphql.Field{Name: "_additional", Fields: []graphql.Field{{Name: "id"}}})

	var all []Point
	offset := 0
	for {
		q := w.client.GraphQL().Get().
			WithClassName(class).
			WithLimit(pageSize).
			WithOffset(offset).
			WithFields(fields...)
		if filter != nil {
			if where := buildWhere(*filter); where != nil {
				q = q.WithWhere(where)
			}
		}
		resp, err := q.Do(ctx)
		if err != nil {
			return nil, fmt.Errorf("weaviate: scroll %s: %w", class, err)
		}
		results, err := parseGetResponse(resp, class, "authoritative")
		if err != nil {
			return nil, err
		}
		if len(results) == 0 {
			break
		}
		for _, r := range results {
			all = append(all, r.Point)
		}
		if len(results) < pageSize {
			break
		}
		offset += pageSize
	}
	return all, nil
}

func (w *WeaviateStore) Delete(ctx context.Context, collection Collection, ids []string) error {
	class := className(collection)
	for _, id := range ids {
		if err := w.client.Data().Deleter().WithClassName(class).WithID(id).Do(ctx); err != nil {
			logger.Log.WithError(err).WithField("id", id).Warn("weaviate: delete failed")
		}
	}
	return nil
}

func (w *WeaviateStore) DeleteByFilter(ctx context.Context, collection Collection, filter Filter) error {
	class := className(collection)
	where := buildWhere(filter)
	if where == nil {
		return fmt.Errorf("weaviate: deleteByFilter requires at least one condition")
	}
	_, err := w.client.Batch().ObjectsBatchDeleter().
		WithClassName(class).
		WithWhere(where).
		Do(ctx)
	return err
}

func (w *WeaviateStore) Count(ctx context.Context, collection Collection, filter *Filter) (int, error) {
	class := className(collection)
	q := w.client.GraphQL().Aggregate().WithClassName(class).WithFields(graphql.Field{
		Name: "meta", Fields: []graphql.Field{{Name: "count"}},
	})
	if filter != nil {
		if where := buildWhere(*filter); where != nil {
			q = q.WithWhere(where)
		}
	}
	resp, err := q.Do(ctx)
	if err != nil {
		return 0, fmt.Errorf("weaviate: count %s: %w", class, err)
	}
	return parseAggregateCount(resp, class)
}

func fieldList(collection Collection) []graphql.Field {
	fields := make([]graphql.Field, 0, len(schemas[collection]))
	for _, f := range schemas[collection] {
		fields = append(fields, graphql.Field{Name: f.Name})
	}
	return fields
}

func buildWhere(f Filter) *filters.WhereBuilder {
	var operands []*filters.WhereBuilder
	for field, value := range f.Equals {
		operands = append(operands, filters.Where().
			WithPath([]string{field}).
			WithOperator(filters.Equal).
			WithValueString(value))
	}
	if f.After != nil {
		operands = append(operands, filters.Where().
			WithPath([]string{"createdAt"}).
			WithOperator(filters.GreaterThan).
			WithValueDate(*f.After))
	}
	if f.Before != nil {
		operands = append(operands, filters.Where().
			WithPath([]string{"createdAt"}).
			WithOperator(filters.LessThan).
			WithValueDate(*f.Before))
	}
	if len(operands) == 0 {
		return nil
	}
	if len(operands) == 1 {
		return operands[0]
	}
	return filters.Where().WithOperator(filters.And).WithOperands(operands)
}

func boolPtr(b bool) *bool { return &b }

func weaviateAuthAPIKey(key string) auth.Config {
	return auth.ApiKey{Value: key}
}
