package ingestion

import "time"

// MediaKind distinguishes how a media item's key is processed, per spec.md
// §4.G step 1.
type MediaKind string

const (
	MediaImage    MediaKind = "image"
	MediaAudio    MediaKind = "audio"
	MediaDocument MediaKind = "document"
)

// MediaItem is one attachment on an ingested message; Key is resolved
// against the sender backend's media-fetch protocol (internal/media).
type MediaItem struct {
	Kind MediaKind `json:"type"`
	Key  string    `json:"key"`
}

// Request is the input to Ingest, per spec.md §4.G: `roomId` and
// `externalMessageId` required; at least one of `text` or non-empty
// `media` required.
type Request struct {
	RoomID            string
	SenderID          string
	SenderName        string
	ExternalMessageID string
	CreatedAt         time.Time
	Text              string
	Media             []MediaItem
}

// Result is what Ingest returns once the message is durably stored.
type Result struct {
	ID                string
	RoomID            string
	SenderID          string
	SenderName        string
	ExternalMessageID string
	Text              string
	CreatedAt         time.Time
}
