package chatorchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/suPer8Hu/chat-gateway/internal/contextassembly"
	"github.com/suPer8Hu/chat-gateway/internal/history"
	"github.com/suPer8Hu/chat-gateway/internal/identity"
	"github.com/suPer8Hu/chat-gateway/internal/platform/logger"
	"github.com/suPer8Hu/chat-gateway/internal/provideradapter"
	"github.com/suPer8Hu/chat-gateway/internal/vectorstore"
)

// Completer is the LLM job kind this package needs; all calls are routed
// through the job queue rather than invoking a provider directly, per
// spec.md §2's control-flow line.
type Completer interface {
	Complete(ctx context.Context, prompt string, opts provideradapter.LLMOptions) (provideradapter.LLMResult, string, error)
}

const (
	chatMaxTokens  = 1500
	chatTemp       = 0.5
	replyMaxTokens = 1000
	replyTemp      = 0.6
)

type Service struct {
	assembler *contextassembly.Assembler
	completer Completer
	history   *history.Store
}

func New(assembler *contextassembly.Assembler, completer Completer, historyStore *history.Store) *Service {
	return &Service{assembler: assembler, completer: completer, history: historyStore}
}

// Chat runs spec.md §4.J's chat pipeline: assemble context, call the LLM,
// recover a structured answer, persist the turn, return the result.
func (s *Service) Chat(ctx context.Context, req ChatRequest) (ChatResult, error) {
	start := time.Now()

	c, err := s.assembler.AssembleForChat(ctx, contextassembly.ChatParams{
		RoomID: req.RoomID, UserID: req.UserID, Question: req.UserQuestion,
	})
	if err != nil {
		return ChatResult{}, fmt.Errorf("chatorchestrator: assemble context: %w", err)
	}

	systemPrompt, userPrompt := contextassembly.BuildChatPrompt(c, req.UserQuestion)

	llmResult, provider, err := s.completer.Complete(ctx, userPrompt, provideradapter.LLMOptions{
		SystemPrompt: systemPrompt,
		MaxTokens:    chatMaxTokens,
		Temperature:  chatTemp,
	})
	if err != nil {
		return ChatResult{}, fmt.Errorf("chatorchestrator: complete: %w", err)
	}

	answer := recoverAnswer(llmResult.Answer)

	s.persistRecord(req.UserID, req.RoomID, req.UserQuestion, answer, provider, llmResult.Model)

	return ChatResult{
		Answer:          answer.Answer,
		SuggestedAnswer: answer.SuggestedAnswer,
		Provider:        provider,
		Model:           llmResult.Model,
		Duration:        time.Since(start),
		Context:         c.Quality(),
	}, nil
}

// Reply runs the same machinery as Chat but with the reply prompt and
// tuning, and never persists an AIChatRecord, per spec.md §4.J.
func (s *Service) Reply(ctx context.Context, req ReplyRequest) (ReplyResult, error) {
	start := time.Now()

	c, err := s.assembler.AssembleForReply(ctx, contextassembly.ReplyParams{
		RoomID: req.RoomID, SenderID: req.SenderID, TargetExternalID: req.MessageID,
	})
	if err != nil {
		if errors.Is(err, contextassembly.ErrMessageNotFound) || errors.Is(err, contextassembly.ErrCannotReplyToSelf) {
			return ReplyResult{}, err
		}
		return ReplyResult{}, fmt.Errorf("chatorchestrator: assemble context: %w", err)
	}

	systemPrompt, userPrompt := contextassembly.BuildReplyPrompt(c)

	llmResult, provider, err := s.completer.Complete(ctx, userPrompt, provideradapter.LLMOptions{
		SystemPrompt: systemPrompt,
		MaxTokens:    replyMaxTokens,
		Temperature:  replyTemp,
	})
	if err != nil {
		return ReplyResult{}, fmt.Errorf("chatorchestrator: complete: %w", err)
	}

	answer := recoverAnswer(llmResult.Answer)
	target := c.TargetMessage

	return ReplyResult{
		Answer:           answer.Answer,
		SuggestedAnswer:  answer.SuggestedAnswer,
		Provider:         provider,
		Model:            llmResult.Model,
		Duration:         time.Since(start),
		Context:          c.Quality(),
		TargetSenderID:   target.SenderID,
		TargetSenderName: target.SenderName,
		TargetText:       target.Text,
		TargetExternalID: target.ExternalMessageID,
	}, nil
}

// persistRecord stores the AIChatRecord asynchronously: a write failure
// here never fails a chat call that already produced an answer.
func (s *Service) persistRecord(userID, roomID, question string, answer Answer, provider, model string) {
	record := vectorstore.AIChatRecord{
		ID:           identity.RandomID(),
		UserID:       userID,
		RoomID:       roomID,
		Question:     question,
		Answer:       answer.Answer,
		ProviderName: provider,
		ModelName:    model,
		CreatedAt:    time.Now().UTC(),
	}
	if answer.SuggestedAnswer != nil {
		record.SuggestedAnswer = *answer.SuggestedAnswer
	}

	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Log.WithField("panic", r).WithField("roomId", roomID).
					Error("chatorchestrator: persisting AIChatRecord panicked")
			}
		}()
		if err := s.history.Insert(context.Background(), record); err != nil {
			logger.Log.WithError(err).WithField("roomId", roomID).
				Warn("chatorchestrator: failed to persist AIChatRecord")
		}
	}()
}
