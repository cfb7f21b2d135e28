// Package chatorchestrator implements the two generative endpoints, chat
// and reply: assemble context, call the LLM chain, recover a structured
// answer from whatever text comes back, and persist the turn, per spec.md
// §4.J.
package chatorchestrator

import (
	"time"

	"github.com/suPer8Hu/chat-gateway/internal/contextassembly"
)

// ChatRequest is the input to Chat.
type ChatRequest struct {
	RoomID       string
	UserID       string
	UserQuestion string
}

// ReplyRequest is the input to Reply.
type ReplyRequest struct {
	RoomID    string
	SenderID  string
	MessageID string // external message ID
}

// Answer is the recovered, structured shape of an LLM turn, per spec.md
// §4.J step 4's recovery ladder.
type Answer struct {
	Answer          string
	SuggestedAnswer *string
}

// ChatResult is returned by Chat.
type ChatResult struct {
	Answer          string
	SuggestedAnswer *string
	Provider        string
	Model           string
	Duration        time.Duration
	Context         contextassembly.Quality
}

// ReplyResult is returned by Reply.
type ReplyResult struct {
	Answer           string
	SuggestedAnswer  *string
	Provider         string
	Model            string
	Duration         time.Duration
	Context          contextassembly.Quality
	TargetSenderID   string
	TargetSenderName string
	TargetText       string
	TargetExternalID string
}
