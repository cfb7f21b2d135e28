package dispatcher

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/suPer8Hu/chat-gateway/internal/jobqueue"
)

// HandleJob decodes a job's kind-specific payload, runs it through that
// kind's provider chain, and encodes the result into jobqueue.Result.Output.
// This is the generalization of the teacher's single
// chat.Service.GenerateAssistantReplyAndInsert call into a per-kind chain
// walk, per spec.md §4.D.
func (d *Dispatcher) HandleJob(ctx context.Context, job *jobqueue.Job) (jobqueue.Result, error) {
	switch job.Kind {
	case jobqueue.KindAudio:
		var p AudioPayload
		if err := json.Unmarshal([]byte(job.Payload), &p); err != nil {
			return jobqueue.Result{}, fmt.Errorf("dispatcher: decode audio payload: %w", err)
		}
		result, provider, err := d.Transcribe(ctx, p.AudioURL, p.Language)
		if err != nil {
			return jobqueue.Result{}, err
		}
		out, err := encode(result)
		if err != nil {
			return jobqueue.Result{}, err
		}
		return jobqueue.Result{Output: out, Provider: provider, Model: result.Model}, nil

	case jobqueue.KindImage:
		var p ImagePayload
		if err := json.Unmarshal([]byte(job.Payload), &p); err != nil {
			return jobqueue.Result{}, fmt.Errorf("dispatcher: decode image payload: %w", err)
		}
		result, provider, err := d.Describe(ctx, p.ImageURL, p.Prompt)
		if err != nil {
			return jobqueue.Result{}, err
		}
		out, err := encode(result)
		if err != nil {
			return jobqueue.Result{}, err
		}
		return jobqueue.Result{Output: out, Provider: provider, Model: result.Model}, nil

	case jobqueue.KindOCR:
		var p OCRPayload
		if err := json.Unmarshal([]byte(job.Payload), &p); err != nil {
			return jobqueue.Result{}, fmt.Errorf("dispatcher: decode ocr payload: %w", err)
		}
		result, provider, err := d.ExtractText(ctx, p.ImageURL, p.Languages)
		if err != nil {
			return jobqueue.Result{}, err
		}
		out, err := encode(result)
		if err != nil {
			return jobqueue.Result{}, err
		}
		return jobqueue.Result{Output: out, Provider: provider, Model: result.Model}, nil

	case jobqueue.KindLLM:
		var p LLMPayload
		if err := json.Unmarshal([]byte(job.Payload), &p); err != nil {
			return jobqueue.Result{}, fmt.Errorf("dispatcher: decode llm payload: %w", err)
		}
		result, provider, err := d.Complete(ctx, p.Prompt, p.Options)
		if err != nil {
			return jobqueue.Result{}, err
		}
		out, err := encode(result)
		if err != nil {
			return jobqueue.Result{}, err
		}
		return jobqueue.Result{Output: out, Provider: provider, Model: result.Model}, nil

	default:
		return jobqueue.Result{}, fmt.Errorf("dispatcher: unknown job kind %q", job.Kind)
	}
}
