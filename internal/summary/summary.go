// Package summary implements the rolling room-summary and user-
// personalisation aggregator, per spec.md §4.H. Grounded on the teacher
// pack's SummaryService (akhmilyas-ai_advent_day1): load-existing ->
// build-input-by-case -> call the LLM -> upsert, generalized from
// "messages since last summary ID" (conversation-scoped) to
// "prior summary + one new message" (room/user-scoped, since ingestion
// calls this once per message rather than on demand).
package summary

import (
	"context"
	"fmt"
	"strings"

	"github.com/suPer8Hu/chat-gateway/internal/embedding"
	"github.com/suPer8Hu/chat-gateway/internal/identity"
	"github.com/suPer8Hu/chat-gateway/internal/platform/logger"
	"github.com/suPer8Hu/chat-gateway/internal/provideradapter"
	"github.com/suPer8Hu/chat-gateway/internal/vectorstore"
)

// condenseThreshold is the "newText is long" cutoff of spec.md §4.H.
const condenseThreshold = 200

// Completer is the slice of *dispatcher.Dispatcher this package needs; all
// LLM work is routed through it, per spec.md §4.H's "All LLM work is routed
// through §4.D."
type Completer interface {
	Complete(ctx context.Context, prompt string, opts provideradapter.LLMOptions) (provideradapter.LLMResult, string, error)
}

type Service struct {
	gateway    vectorstore.Gateway
	dispatcher Completer
}

func New(gateway vectorstore.Gateway, dispatcher Completer) *Service {
	return &Service{gateway: gateway, dispatcher: dispatcher}
}

// UpdateRoomSummary recomputes a room's rolling summary against one new
// message. Failures are logged and swallowed: a summary miss must never
// surface to the ingest caller, per spec.md §4.H.
func (s *Service) UpdateRoomSummary(ctx context.Context, roomID, newText, senderName string) {
	id := identity.RoomID(roomID)
	points, err := s.gateway.Retrieve(ctx, vectorstore.CollectionRooms, []string{id})
	var existing *vectorstore.RoomAggregate
	if err == nil && len(points) > 0 {
		agg := vectorstore.RoomAggregateFromPoint(points[0])
		existing = &agg
	}

	prior := ""
	count := 0
	if existing != nil {
		prior = existing.Summary
		count = existing.MessageCount
	}

	summary, err := s.buildSummary(ctx, roomSummaryPersona, prior, newText, senderName)
	if err != nil {
		logger.Log.WithError(err).WithField("roomId", roomID).Warn("summary: room summary update failed")
		return
	}

	point := vectorstore.RoomAggregate{RoomID: roomID, Summary: summary, MessageCount: count + 1}.ToPoint()
	point.Vector = embedding.ZeroVector()
	if err := s.gateway.Upsert(ctx, vectorstore.CollectionRooms, point); err != nil {
		logger.Log.WithError(err).WithField("roomId", roomID).Warn("summary: room aggregate upsert failed")
	}
}

// UpdateUserPersonalization follows the same shape as UpdateRoomSummary but
// with a persona-focused prompt emphasising preferences, style, and
// interests, per spec.md §4.H.
func (s *Service) UpdateUserPersonalization(ctx context.Context, userID, newText, senderName string) {
	id := identity.UserID(userID)
	points, err := s.gateway.Retrieve(ctx, vectorstore.CollectionUsers, []string{id})
	var existing *vectorstore.UserAggregate
	if err == nil && len(points) > 0 {
		agg := vectorstore.UserAggregateFromPoint(points[0])
		existing = &agg
	}

	prior := ""
	count := 0
	if existing != nil {
		prior = existing.PersonalizationSummary
		count = existing.MessageCount
	}

	summary, err := s.buildSummary(ctx, userPersonalizationPersona, prior, newText, senderName)
	if err != nil {
		logger.Log.WithError(err).WithField("userId", userID).Warn("summary: user personalization update failed")
		return
	}

	point := vectorstore.UserAggregate{UserID: userID, PersonalizationSummary: summary, MessageCount: count + 1}.ToPoint()
	point.Vector = embedding.ZeroVector()
	if err := s.gateway.Upsert(ctx, vectorstore.CollectionUsers, point); err != nil {
		logger.Log.WithError(err).WithField("userId", userID).Warn("summary: user aggregate upsert failed")
	}
}

// buildSummary implements the three-branch decision of spec.md §4.H: merge
// prior+new via the LLM, condense a long new-only message via the LLM, or
// seed the raw message directly — all LLM work routed through
// internal/dispatcher per spec.md §4.D.
func (s *Service) buildSummary(ctx context.Context, persona, prior, newText, senderName string) (string, error) {
	switch {
	case prior != "":
		prompt := fmt.Sprintf(
			"%s\n\nExisting summary:\n%s\n\nNew message%s:\n%s\n\nProduce an updated summary that merges the existing summary with the new message. Stay under %d characters.",
			persona, prior, attribution(senderName), newText, vectorstore.SummaryCharCap,
		)
		result, _, err := s.dispatcher.Complete(ctx, prompt, provideradapter.LLMOptions{MaxTokens: 512, Temperature: 0.2})
		if err != nil {
			return "", err
		}
		return truncate(result.Answer), nil

	case len(newText) > condenseThreshold:
		prompt := fmt.Sprintf(
			"%s\n\nCondense the following message%s into a short summary, under %d characters:\n%s",
			persona, attribution(senderName), vectorstore.SummaryCharCap, newText,
		)
		result, _, err := s.dispatcher.Complete(ctx, prompt, provideradapter.LLMOptions{MaxTokens: 512, Temperature: 0.2})
		if err != nil {
			return "", err
		}
		return truncate(result.Answer), nil

	default:
		seed := newText
		if senderName != "" {
			seed = fmt.Sprintf("%s: %s", senderName, newText)
		}
		return truncate(seed), nil
	}
}

func attribution(senderName string) string {
	if senderName == "" {
		return ""
	}
	return fmt.Sprintf(" (from %s)", senderName)
}

func truncate(s string) string {
	s = strings.TrimSpace(s)
	runes := []rune(s)
	if len(runes) > vectorstore.SummaryCharCap {
		return string(runes[:vectorstore.SummaryCharCap])
	}
	return s
}

const roomSummaryPersona = "You summarize a multi-user chat room's conversation so far, capturing topics discussed, decisions made, and open questions."

const userPersonalizationPersona = "You maintain a running personalization profile of one chat participant: their preferences, communication style, and interests, inferred from what they write."
