// Package vectorstore implements the uniform CRUD+search gateway over the
// authoritative hosted vector database and the local embedded shadow store,
// per spec.md §4.E.
package vectorstore

import (
	"context"
	"time"
)

type Collection string

const (
	CollectionMessages       Collection = "messages"
	CollectionRooms          Collection = "rooms"
	CollectionUsers          Collection = "users"
	CollectionAIChatMessages Collection = "aiChatMessages"
)

// FieldType distinguishes the payload index types the gateway must create.
type FieldType string

const (
	FieldKeyword  FieldType = "keyword"
	FieldDatetime FieldType = "datetime"
)

type IndexedField struct {
	Name string
	Type FieldType
}

// schemas pins the required payload indices per collection, per spec.md
// §4.E, so bootstrap never has to be told them by a caller.
var schemas = map[Collection][]IndexedField{
	CollectionMessages: {
		{Name: "externalMessageId", Type: FieldKeyword},
		{Name: "roomId", Type: FieldKeyword},
		{Name: "senderId", Type: FieldKeyword},
		{Name: "createdAt", Type: FieldDatetime},
	},
	CollectionRooms: {
		{Name: "roomId", Type: FieldKeyword},
	},
	CollectionUsers: {
		{Name: "userId", Type: FieldKeyword},
	},
	CollectionAIChatMessages: {
		{Name: "userId", Type: FieldKeyword},
		{Name: "roomId", Type: FieldKeyword},
		{Name: "createdAt", Type: FieldDatetime},
	},
}

// Point is the uniform storage unit: an ID, a vector, and an arbitrary
// payload. Concrete domain records (Message, RoomAggregate, ...) marshal to
// and from Point via ToPoint/FromPoint helpers in this package.
type Point struct {
	ID      string
	Vector  []float32
	Payload map[string]any
}

// Filter is a flat equality filter over payload fields; the gateway never
// needs more than equality + range-on-datetime for the operations spec.md
// names.
type Filter struct {
	Equals map[string]string
	Before *time.Time
	After  *time.Time
}

type SearchResult struct {
	Point
	Score  float32
	Source string // "authoritative" or "shadow"
}

// Gateway is the uniform operation surface over one backend.
type Gateway interface {
	Bootstrap(ctx context.Context, collection Collection, vectorSize int) error
	Upsert(ctx context.Context, collection Collection, point Point) error
	Retrieve(ctx context.Context, collection Collection, ids []string) ([]Point, error)
	Search(ctx context.Context, collection Collection, vector []float32, limit int, filter *Filter) ([]SearchResult, error)
	Scroll(ctx context.Context, collection Collection, filter *Filter, pageSize int) ([]Point, error)
	Delete(ctx context.Context, collection Collection, ids []string) error
	DeleteByFilter(ctx context.Context, collection Collection, filter Filter) error
	Count(ctx context.Context, collection Collection, filter *Filter) (int, error)
}
