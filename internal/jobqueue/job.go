package jobqueue

import "time"

type Kind string

const (
	KindAudio Kind = "audio"
	KindImage Kind = "image"
	KindOCR   Kind = "ocr"
	KindLLM   Kind = "llm"
)

type Priority int

const (
	PriorityHigh   Priority = 1
	PriorityNormal Priority = 2
	PriorityLow    Priority = 3
)

func (p Priority) label() string {
	switch p {
	case PriorityHigh:
		return "high"
	case PriorityLow:
		return "low"
	default:
		return "normal"
	}
}

type Status string

const (
	StatusQueued    Status = "queued"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// HardTimeout is the kind-specific timeout past which a job fails terminally
// regardless of attempts remaining, per spec.md §5.
var HardTimeout = map[Kind]time.Duration{
	KindAudio: 120 * time.Second,
	KindImage: 60 * time.Second,
	KindOCR:   60 * time.Second,
	KindLLM:   90 * time.Second,
}

// Concurrency is the fixed-size worker pool per queue kind, per spec.md §4.D.
var Concurrency = map[Kind]int{
	KindAudio: 3,
	KindImage: 5,
	KindOCR:   5,
	KindLLM:   4,
}

const (
	defaultAttempts   = 3
	baseBackoff       = 2 * time.Second
	resultRetention   = time.Hour
	completedKeepLast = 100
	failedKeepLast    = 500
)

// EnqueueOptions tunes a single enqueue call.
type EnqueueOptions struct {
	Priority  Priority
	TimeoutMs int
	Attempts  int
}

// Job is a unit of AI work submitted to a queue.
type Job struct {
	ID                string    `json:"id"`
	Kind              Kind      `json:"kind"`
	Priority          Priority  `json:"priority"`
	Payload           string    `json:"payload"` // JSON-encoded, kind-specific
	AttemptsRemaining int       `json:"attemptsRemaining"`
	TimeoutMs         int       `json:"timeoutMs"`
	Status            Status    `json:"status"`
	CreatedAt         time.Time `json:"createdAt"`
}

// Result is what a JobHandle.Await resolves with.
type Result struct {
	Output   string `json:"output"` // JSON-encoded, kind-specific
	Provider string `json:"provider"`
	Model    string `json:"model"`
	Err      string `json:"err,omitempty"`
}
