// Package dispatcher executes queued jobs against an ordered, typed
// provider-fallback chain per job kind, honouring the shared rate limiter,
// per spec.md §4.D.
package dispatcher

import (
	"context"
	"fmt"
	"time"

	"github.com/suPer8Hu/chat-gateway/internal/platform/logger"
	"github.com/suPer8Hu/chat-gateway/internal/provideradapter"
	"github.com/suPer8Hu/chat-gateway/internal/ratelimit"
)

// Dispatcher owns one ordered provider chain per job kind and the shared
// limiter all chains check against.
type Dispatcher struct {
	limiter *ratelimit.Limiter

	audioChain []provideradapter.AudioAdapter
	imageChain []provideradapter.ImageAdapter
	ocrChain   []provideradapter.OCRAdapter
	llmChain   []provideradapter.LLMAdapter
}

// New wires the chains exactly as spec.md §4.D names them:
//
//	audio: groq -> deepgram -> assemblyai
//	image: groq -> gemini
//	ocr:   groq -> gemini
//	llm:   groq -> gemini
func New(limiter *ratelimit.Limiter, groq *provideradapter.GroqProvider, deepgram *provideradapter.DeepgramProvider, assemblyai *provideradapter.AssemblyAIProvider, gemini *provideradapter.GeminiProvider) *Dispatcher {
	return &Dispatcher{
		limiter:    limiter,
		audioChain: []provideradapter.AudioAdapter{groq, deepgram, assemblyai},
		imageChain: []provideradapter.ImageAdapter{groq, gemini},
		ocrChain:   []provideradapter.OCRAdapter{groq, gemini},
		llmChain:   []provideradapter.LLMAdapter{groq, gemini},
	}
}

// step is one provider's attempt within a chain walk; call invokes the
// adapter and, on success, stashes its result in the caller's closure.
type step struct {
	name string
	call func(ctx context.Context) error
}

// walk tries each step in order. A limiter denial does not count as a
// provider failure: it is skipped and the largest retryAfter across denials
// is tracked for the error message if every provider is denied, per spec.md
// §4.D's key design point.
func (d *Dispatcher) walk(ctx context.Context, kind string, steps []step) (providerName string, err error) {
	var lastErr error
	var maxRetryAfter time.Duration
	anyAllowed := false

	for _, s := range steps {
		allowed, retryAfter, checkErr := d.limiter.Check(ctx, s.name, kind)
		if checkErr != nil {
			logger.Log.WithError(checkErr).WithFields(map[string]any{
				"provider": s.name, "kind": kind,
			}).Warn("dispatcher: limiter check failed, treating as allowed")
			allowed = true
		}
		if !allowed {
			if retryAfter > maxRetryAfter {
				maxRetryAfter = retryAfter
			}
			logger.Log.WithFields(map[string]any{"provider": s.name, "kind": kind, "retryAfter": retryAfter}).
				Debug("dispatcher: provider rate-limited, trying next")
			continue
		}

		anyAllowed = true
		if callErr := s.call(ctx); callErr != nil {
			lastErr = fmt.Errorf("%s: %w", s.name, callErr)
			logger.Log.WithError(callErr).WithFields(map[string]any{"provider": s.name, "kind": kind}).
				Warn("dispatcher: provider call failed, trying next")
			continue
		}

		if incErr := d.limiter.Increment(ctx, s.name, kind); incErr != nil {
			logger.Log.WithError(incErr).WithFields(map[string]any{"provider": s.name, "kind": kind}).
				Warn("dispatcher: limiter increment failed")
		}
		return s.name, nil
	}

	if !anyAllowed {
		return "", fmt.Errorf("dispatcher: %s chain exhausted, all providers rate-limited, retry after %s", kind, maxRetryAfter)
	}
	if lastErr != nil {
		return "", fmt.Errorf("dispatcher: %s chain exhausted: %w", kind, lastErr)
	}
	return "", fmt.Errorf("dispatcher: %s chain exhausted", kind)
}

func (d *Dispatcher) Transcribe(ctx context.Context, audioURL, language string) (provideradapter.AudioResult, string, error) {
	var result provideradapter.AudioResult
	steps := make([]step, len(d.audioChain))
	for i, p := range d.audioChain {
		p := p
		steps[i] = step{name: p.Name(), call: func(ctx context.Context) error {
			r, err := p.Transcribe(ctx, audioURL, language)
			if err != nil {
				return err
			}
			result = r
			return nil
		}}
	}
	provider, err := d.walk(ctx, "audio", steps)
	return result, provider, err
}

func (d *Dispatcher) Describe(ctx context.Context, imageURL, prompt string) (provideradapter.DescribeResult, string, error) {
	var result provideradapter.DescribeResult
	steps := make([]step, len(d.imageChain))
	for i, p := range d.imageChain {
		p := p
		steps[i] = step{name: p.Name(), call: func(ctx context.Context) error {
			r, err := p.Describe(ctx, imageURL, prompt)
			if err != nil {
				return err
			}
			result = r
			return nil
		}}
	}
	provider, err := d.walk(ctx, "image", steps)
	return result, provider, err
}

func (d *Dispatcher) ExtractText(ctx context.Context, imageURL string, languages []string) (provideradapter.OCRResult, string, error) {
	var result provideradapter.OCRResult
	steps := make([]step, len(d.ocrChain))
	for i, p := range d.ocrChain {
		p := p
		steps[i] = step{name: p.Name(), call: func(ctx context.Context) error {
			r, err := p.ExtractText(ctx, imageURL, languages)
			if err != nil {
				return err
			}
			result = r
			return nil
		}}
	}
	provider, err := d.walk(ctx, "ocr", steps)
	return result, provider, err
}

func (d *Dispatcher) Complete(ctx context.Context, prompt string, opts provideradapter.LLMOptions) (provideradapter.LLMResult, string, error) {
	var result provideradapter.LLMResult
	steps := make([]step, len(d.llmChain))
	for i, p := range d.llmChain {
		p := p
		steps[i] = step{name: p.Name(), call: func(ctx context.Context) error {
			r, err := p.Complete(ctx, prompt, opts)
			if err != nil {
				return err
			}
			result = r
			return nil
		}}
	}
	provider, err := d.walk(ctx, "llm", steps)
	return result, provider, err
}
