// Package ingestion implements message ingestion: media→text extraction,
// embedding generation, dual-store write, and fire-and-forget summary
// triggers, per spec.md §4.G.
package ingestion

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/suPer8Hu/chat-gateway/internal/embedding"
	"github.com/suPer8Hu/chat-gateway/internal/identity"
	"github.com/suPer8Hu/chat-gateway/internal/media"
	"github.com/suPer8Hu/chat-gateway/internal/platform/logger"
	"github.com/suPer8Hu/chat-gateway/internal/provideradapter"
	"github.com/suPer8Hu/chat-gateway/internal/vectorstore"
)

// ErrNoContent is returned when a message carries neither text nor any
// media that yields extracted text, per spec.md §4.G step 2.
var ErrNoContent = errors.New("ingestion: message has no content")

// describePrompt is used for every image description job; spec.md leaves
// the prompt text itself unspecified, so this mirrors the teacher's
// Groq/Gemini vision call style (a flat instruction, no persona).
const describePrompt = "Describe this image in one or two sentences."

// MediaExtractor is the synchronous-caller side of the media job kinds,
// satisfied by internal/llmclient.Client.
type MediaExtractor interface {
	Describe(ctx context.Context, imageURL, prompt string) (provideradapter.DescribeResult, string, error)
	ExtractText(ctx context.Context, imageURL string, languages []string) (provideradapter.OCRResult, string, error)
	Transcribe(ctx context.Context, audioURL, language string) (provideradapter.AudioResult, string, error)
}

// SummaryTrigger is the fire-and-forget step 5 hook, satisfied by
// internal/summary.Service.
type SummaryTrigger interface {
	UpdateRoomSummary(ctx context.Context, roomID, newText, senderName string)
	UpdateUserPersonalization(ctx context.Context, userID, newText, senderName string)
}

type Service struct {
	media     *media.Fetcher
	extractor MediaExtractor
	embedder  embedding.Model
	gateway   vectorstore.Gateway
	summaries SummaryTrigger
}

func New(mediaFetcher *media.Fetcher, extractor MediaExtractor, embedder embedding.Model, gateway vectorstore.Gateway, summaries SummaryTrigger) *Service {
	return &Service{media: mediaFetcher, extractor: extractor, embedder: embedder, gateway: gateway, summaries: summaries}
}

// Ingest runs the full pipeline of spec.md §4.G steps 1-4 synchronously,
// then backgrounds step 5.
func (s *Service) Ingest(ctx context.Context, req Request) (Result, error) {
	if req.RoomID == "" || req.ExternalMessageID == "" {
		return Result{}, fmt.Errorf("ingestion: roomId and externalMessageId are required")
	}

	mediaTexts, err := s.extractMediaText(ctx, req.Media)
	if err != nil {
		return Result{}, err
	}

	text := strings.TrimSpace(strings.Join(append([]string{req.Text}, mediaTexts...), " "))
	if text == "" {
		return Result{}, ErrNoContent
	}

	vector, err := s.embedder.Embed(ctx, text, embedding.PrefixPassage)
	if err != nil {
		return Result{}, fmt.Errorf("ingestion: embed message: %w", err)
	}

	createdAt := req.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	msg := vectorstore.Message{
		ID:                identity.RandomID(),
		ExternalMessageID: req.ExternalMessageID,
		RoomID:            req.RoomID,
		SenderID:          req.SenderID,
		SenderName:        req.SenderName,
		Text:              text,
		CreatedAt:         createdAt,
		Vector:            vector,
	}

	if err := s.gateway.Upsert(ctx, vectorstore.CollectionMessages, msg.ToPoint()); err != nil {
		return Result{}, fmt.Errorf("ingestion: store message: %w", err)
	}

	s.triggerSummaries(req.RoomID, req.SenderID, req.SenderName, text)

	return Result{
		ID:                msg.ID,
		RoomID:            msg.RoomID,
		SenderID:          msg.SenderID,
		SenderName:        msg.SenderName,
		ExternalMessageID: msg.ExternalMessageID,
		Text:              msg.Text,
		CreatedAt:         msg.CreatedAt,
	}, nil
}

// extractMediaText runs every media item's extraction job concurrently and
// awaits all of them, per spec.md §4.G step 1. An image yields OCR *and*
// description text, both awaited.
func (s *Service) extractMediaText(ctx context.Context, items []MediaItem) ([]string, error) {
	if len(items) == 0 {
		return nil, nil
	}

	texts := make([]string, len(items))
	group, gctx := errgroup.WithContext(ctx)

	for i, item := range items {
		i, item := i, item
		group.Go(func() error {
			text, err := s.extractOne(gctx, item)
			if err != nil {
				return err
			}
			texts[i] = text
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, fmt.Errorf("ingestion: media extraction failed: %w", err)
	}
	return texts, nil
}

func (s *Service) extractOne(ctx context.Context, item MediaItem) (string, error) {
	url := s.media.URL(item.Key)

	switch item.Kind {
	case MediaImage:
		var ocrText, description string
		group, gctx := errgroup.WithContext(ctx)
		group.Go(func() error {
			r, _, err := s.extractor.ExtractText(gctx, url, nil)
			if err != nil {
				return err
			}
			if r.HasText {
				ocrText = r.Text
			}
			return nil
		})
		group.Go(func() error {
			r, _, err := s.extractor.Describe(gctx, url, describePrompt)
			if err != nil {
				return err
			}
			description = r.Description
			return nil
		})
		if err := group.Wait(); err != nil {
			return "", err
		}
		return strings.TrimSpace(ocrText + " " + description), nil

	case MediaAudio:
		r, _, err := s.extractor.Transcribe(ctx, url, "")
		if err != nil {
			return "", err
		}
		return r.Text, nil

	case MediaDocument:
		fetched, err := s.media.Fetch(ctx, item.Key)
		if err != nil {
			return "", err
		}
		return string(fetched.Bytes), nil

	default:
		return "", fmt.Errorf("ingestion: unknown media kind %q", item.Kind)
	}
}

// triggerSummaries fires step 5 asynchronously: errors are logged, never
// raised, and a panic in either branch is recovered so it can never take
// down the caller's goroutine, per spec.md §4.G step 5 / §7's propagation
// rule that ingestion step-5 errors never surface.
func (s *Service) triggerSummaries(roomID, senderID, senderName, text string) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Log.WithField("panic", r).WithField("roomId", roomID).
					Error("ingestion: summary trigger panicked")
			}
		}()
		ctx := context.Background()
		s.summaries.UpdateRoomSummary(ctx, roomID, text, senderName)
		if senderID != "" {
			s.summaries.UpdateUserPersonalization(ctx, senderID, text, senderName)
		}
	}()
}
