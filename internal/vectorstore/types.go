package vectorstore

import (
	"fmt"
	"time"

	"github.com/suPer8Hu/chat-gateway/internal/identity"
)

// Message is the append-only record of a human utterance, per spec.md §3.
type Message struct {
	ID                string
	ExternalMessageID string
	RoomID            string
	SenderID          string
	SenderName        string
	Text              string
	CreatedAt         time.Time
	Vector            []float32
}

func (m Message) ToPoint() Point {
	return Point{
		ID:     m.ID,
		Vector: m.Vector,
		Payload: map[string]any{
			"externalMessageId": m.ExternalMessageID,
			"roomId":            m.RoomID,
			"senderId":          m.SenderID,
			"senderName":        m.SenderName,
			"text":              m.Text,
			"createdAt":         m.CreatedAt.Format(time.RFC3339),
		},
	}
}

func MessageFromPoint(p Point) Message {
	return Message{
		ID:                p.ID,
		ExternalMessageID: str(p.Payload["externalMessageId"]),
		RoomID:            str(p.Payload["roomId"]),
		SenderID:          str(p.Payload["senderId"]),
		SenderName:        str(p.Payload["senderName"]),
		Text:              str(p.Payload["text"]),
		CreatedAt:         parseTime(p.Payload["createdAt"]),
		Vector:            p.Vector,
	}
}

// RoomAggregate is mutable per-room state, identified by a deterministic ID
// so repeated writes coalesce as replaces, per spec.md §3/§4.F.
type RoomAggregate struct {
	RoomID       string
	Summary      string
	MessageCount int
}

const SummaryCharCap = 3000

func (r RoomAggregate) ToPoint() Point {
	summary := r.Summary
	if runes := []rune(summary); len(runes) > SummaryCharCap {
		summary = string(runes[:SummaryCharCap])
	}
	return Point{
		ID:     identity.RoomID(r.RoomID),
		Vector: make([]float32, 0), // filled by caller with embedding.ZeroVector()
		Payload: map[string]any{
			"roomId":       r.RoomID,
			"summary":      summary,
			"messageCount": r.MessageCount,
		},
	}
}

func RoomAggregateFromPoint(p Point) RoomAggregate {
	return RoomAggregate{
		RoomID:       str(p.Payload["roomId"]),
		Summary:      str(p.Payload["summary"]),
		MessageCount: intOf(p.Payload["messageCount"]),
	}
}

// UserAggregate is mutable per-user state, identified by a deterministic ID.
type UserAggregate struct {
	UserID                 string
	PersonalizationSummary string
	MessageCount           int
}

func (u UserAggregate) ToPoint() Point {
	summary := u.PersonalizationSummary
	if runes := []rune(summary); len(runes) > SummaryCharCap {
		summary = string(runes[:SummaryCharCap])
	}
	return Point{
		ID: identity.UserID(u.UserID),
		Payload: map[string]any{
			"userId":                 u.UserID,
			"personalizationSummary": summary,
			"messageCount":           u.MessageCount,
		},
	}
}

func UserAggregateFromPoint(p Point) UserAggregate {
	return UserAggregate{
		UserID:                 str(p.Payload["userId"]),
		PersonalizationSummary: str(p.Payload["personalizationSummary"]),
		MessageCount:           intOf(p.Payload["messageCount"]),
	}
}

// AIChatRecord is one completed (question, answer) turn, per spec.md §3/§4.K.
type AIChatRecord struct {
	ID              string
	UserID          string
	RoomID          string
	Question        string
	Answer          string
	SuggestedAnswer string
	ProviderName    string
	ModelName       string
	CreatedAt       time.Time
}

func (r AIChatRecord) ToPoint() Point {
	return Point{
		ID: r.ID,
		Payload: map[string]any{
			"userId":          r.UserID,
			"roomId":          r.RoomID,
			"question":        r.Question,
			"answer":          r.Answer,
			"suggestedAnswer": r.SuggestedAnswer,
			"providerName":    r.ProviderName,
			"modelName":       r.ModelName,
			"createdAt":       r.CreatedAt.Format(time.RFC3339),
		},
	}
}

func AIChatRecordFromPoint(p Point) AIChatRecord {
	return AIChatRecord{
		ID:              p.ID,
		UserID:          str(p.Payload["userId"]),
		RoomID:          str(p.Payload["roomId"]),
		Question:        str(p.Payload["question"]),
		Answer:          str(p.Payload["answer"]),
		SuggestedAnswer: str(p.Payload["suggestedAnswer"]),
		ProviderName:    str(p.Payload["providerName"]),
		ModelName:       str(p.Payload["modelName"]),
		CreatedAt:       parseTime(p.Payload["createdAt"]),
	}
}

func str(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

func intOf(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}

func parseTime(v any) time.Time {
	s, ok := v.(string)
	if !ok || s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
