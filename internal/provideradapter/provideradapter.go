// Package provideradapter exposes a uniform call surface over each
// third-party AI provider, one adapter per provider per service, following
// the style of the teacher's internal/ai package (stateless adapters aside
// from an initialised API credential, bespoke net/http clients per
// provider). The gemini adapter is the exception: it calls the genai SDK.
package provideradapter

import (
	"context"
	"errors"
)

// Failure kinds, surfaced by adapters so the dispatcher can distinguish
// rate-limit-adjacent failures from hard provider errors.
var (
	ErrAuth      = errors.New("provideradapter: auth failure")
	ErrRate      = errors.New("provideradapter: provider-side rate limit")
	ErrTransient = errors.New("provideradapter: transient failure")
	ErrMalformed = errors.New("provideradapter: malformed response")
)

// NoTextSentinel is the strict OCR prompt's marker for "no text found".
const NoTextSentinel = "NO_TEXT"

type AudioResult struct {
	Text       string
	Language   string
	Confidence float64
	DurationMs int64
	Provider   string
	Model      string
}

type AudioAdapter interface {
	Name() string
	Transcribe(ctx context.Context, audioURL, language string) (AudioResult, error)
}

type DescribeResult struct {
	Description string
	Provider    string
	Model       string
}

type ImageAdapter interface {
	Name() string
	Describe(ctx context.Context, imageURL, prompt string) (DescribeResult, error)
}

type OCRResult struct {
	Text      string
	HasText   bool
	Languages []string
	Provider  string
	Model     string
}

type OCRAdapter interface {
	Name() string
	ExtractText(ctx context.Context, imageURL string, languages []string) (OCRResult, error)
}

type LLMOptions struct {
	SystemPrompt string
	MaxTokens    int
	Temperature  float64
}

type LLMResult struct {
	Answer   string
	Provider string
	Model    string
}

type LLMAdapter interface {
	Name() string
	Complete(ctx context.Context, prompt string, opts LLMOptions) (LLMResult, error)
}
