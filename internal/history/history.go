// Package history stores and retrieves AI-Chat History records: completed
// (question, answer, suggested-answer) turns, per spec.md §4.K. It is a
// thin, payload-filter-only wrapper over the aiChatMessages vectorstore
// collection — records are never retrieved by vector similarity.
package history

import (
	"context"
	"time"

	"github.com/suPer8Hu/chat-gateway/internal/embedding"
	"github.com/suPer8Hu/chat-gateway/internal/identity"
	"github.com/suPer8Hu/chat-gateway/internal/vectorstore"
)

type Store struct {
	gateway vectorstore.Gateway
}

func New(gateway vectorstore.Gateway) *Store {
	return &Store{gateway: gateway}
}

// Insert persists one completed turn. A fresh random ID is used since
// AIChatRecord is append-only, like Message, per spec.md §4.F.
func (s *Store) Insert(ctx context.Context, record vectorstore.AIChatRecord) error {
	if record.ID == "" {
		record.ID = identity.RandomID()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	point := record.ToPoint()
	point.Vector = embedding.ZeroVector()
	return s.gateway.Upsert(ctx, vectorstore.CollectionAIChatMessages, point)
}

// Latest returns the N most recent records for (userId, roomId), newest
// first.
func (s *Store) Latest(ctx context.Context, userID, roomID string, limit int) ([]vectorstore.AIChatRecord, error) {
	return s.Query(ctx, QueryParams{UserID: userID, RoomID: roomID, Limit: limit})
}

// QueryParams filters AI-Chat history; at least one of UserID/RoomID should
// be set by the caller (the HTTP layer enforces this per spec.md §6).
type QueryParams struct {
	UserID string
	RoomID string
	Limit  int
}

// Query returns matching records newest-first, per spec.md §4.K.
func (s *Store) Query(ctx context.Context, params QueryParams) ([]vectorstore.AIChatRecord, error) {
	filter := vectorstore.Filter{Equals: map[string]string{}}
	if params.UserID != "" {
		filter.Equals["userId"] = params.UserID
	}
	if params.RoomID != "" {
		filter.Equals["roomId"] = params.RoomID
	}

	limit := params.Limit
	if limit <= 0 {
		limit = 50
	}

	points, err := s.gateway.Scroll(ctx, vectorstore.CollectionAIChatMessages, &filter, limit*2)
	if err != nil {
		return nil, err
	}

	records := make([]vectorstore.AIChatRecord, 0, len(points))
	for _, p := range points {
		records = append(records, vectorstore.AIChatRecordFromPoint(p))
	}
	sortNewestFirst(records)
	if len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

// DeleteForRoom removes every record for a room, optionally scoped to one
// user.
func (s *Store) DeleteForRoom(ctx context.Context, roomID, userID string) error {
	filter := vectorstore.Filter{Equals: map[string]string{"roomId": roomID}}
	if userID != "" {
		filter.Equals["userId"] = userID
	}
	return s.gateway.DeleteByFilter(ctx, vectorstore.CollectionAIChatMessages, filter)
}

func sortNewestFirst(records []vectorstore.AIChatRecord) {
	for i := 1; i < len(records); i++ {
		for j := i; j > 0 && records[j].CreatedAt.After(records[j-1].CreatedAt); j-- {
			records[j], records[j-1] = records[j-1], records[j]
		}
	}
}
