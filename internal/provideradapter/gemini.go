package provideradapter

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiProvider is the shared fallback for image description, OCR, and LLM
// work, grounded on the genai client-construction shape used for SQL
// generation elsewhere in the example pack: a fresh genai.Client and
// GenerativeModel per call, temperature pinned explicitly for LLM and OCR
// calls (Describe leaves the model's default temperature).
type GeminiProvider struct {
	APIKey string
	Model  string
	Fetch  func(ctx context.Context, url string) ([]byte, string, error)
}

func NewGeminiProvider(apiKey, model string, fetch func(ctx context.Context, url string) ([]byte, string, error)) *GeminiProvider {
	if model == "" {
		model = "gemini-1.5-flash"
	}
	return &GeminiProvider{APIKey: apiKey, Model: model, Fetch: fetch}
}

func (p *GeminiProvider) Name() string { return "gemini" }

func (p *GeminiProvider) client(ctx context.Context) (*genai.Client, error) {
	if strings.TrimSpace(p.APIKey) == "" {
		return nil, fmt.Errorf("%w: gemini api key is required", ErrAuth)
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(p.APIKey))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransient, err)
	}
	return client, nil
}

func (p *GeminiProvider) Complete(ctx context.Context, prompt string, opts LLMOptions) (LLMResult, error) {
	client, err := p.client(ctx)
	if err != nil {
		return LLMResult{}, err
	}
	defer client.Close()

	model := client.GenerativeModel(p.Model)
	temp := float32(opts.Temperature)
	model.Temperature = &temp
	if opts.MaxTokens > 0 {
		maxTok := int32(opts.MaxTokens)
		model.MaxOutputTokens = &maxTok
	}
	if opts.SystemPrompt != "" {
		model.SystemInstruction = genai.NewUserContent(genai.Text(opts.SystemPrompt))
	}

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return LLMResult{}, fmt.Errorf("%w: %v", ErrTransient, err)
	}

	answer, err := extractText(resp)
	if err != nil {
		return LLMResult{}, err
	}
	return LLMResult{Answer: answer, Provider: p.Name(), Model: p.Model}, nil
}

func (p *GeminiProvider) Describe(ctx context.Context, imageURL, prompt string) (DescribeResult, error) {
	client, err := p.client(ctx)
	if err != nil {
		return DescribeResult{}, err
	}
	defer client.Close()

	raw, contentType, err := p.Fetch(ctx, imageURL)
	if err != nil {
		return DescribeResult{}, fmt.Errorf("%w: %v", ErrTransient, err)
	}
	if prompt == "" {
		prompt = "Describe this image in detail."
	}

	model := client.GenerativeModel(p.Model)
	resp, err := model.GenerateContent(ctx, genai.Text(prompt), genai.ImageData(mimeSubtype(contentType), raw))
	if err != nil {
		return DescribeResult{}, fmt.Errorf("%w: %v", ErrTransient, err)
	}
	text, err := extractText(resp)
	if err != nil {
		return DescribeResult{}, err
	}
	return DescribeResult{Description: text, Provider: p.Name(), Model: p.Model}, nil
}

func (p *GeminiProvider) ExtractText(ctx context.Context, imageURL string, languages []string) (OCRResult, error) {
	client, err := p.client(ctx)
	if err != nil {
		return OCRResult{}, err
	}
	defer client.Close()

	raw, contentType, err := p.Fetch(ctx, imageURL)
	if err != nil {
		return OCRResult{}, fmt.Errorf("%w: %v", ErrTransient, err)
	}

	prompt := fmt.Sprintf(
		"Extract all visible text from this image verbatim, preserving line breaks. "+
			"Respond with exactly %s if there is no legible text.",
		NoTextSentinel,
	)

	model := client.GenerativeModel(p.Model)
	zero := float32(0)
	model.Temperature = &zero
	resp, err := model.GenerateContent(ctx, genai.Text(prompt), genai.ImageData(mimeSubtype(contentType), raw))
	if err != nil {
		return OCRResult{}, fmt.Errorf("%w: %v", ErrTransient, err)
	}
	text, err := extractText(resp)
	if err != nil {
		return OCRResult{}, err
	}

	trimmed := strings.TrimSpace(text)
	if trimmed == NoTextSentinel {
		return OCRResult{HasText: false, Languages: languages, Provider: p.Name(), Model: p.Model}, nil
	}
	return OCRResult{Text: trimmed, HasText: true, Languages: languages, Provider: p.Name(), Model: p.Model}, nil
}

func extractText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("%w: gemini returned no candidates", ErrMalformed)
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("%w: gemini returned no text parts", ErrMalformed)
	}
	return b.String(), nil
}

func mimeSubtype(contentType string) string {
	if contentType == "" {
		return "jpeg"
	}
	parts := strings.SplitN(contentType, "/", 2)
	if len(parts) != 2 {
		return "jpeg"
	}
	return strings.SplitN(parts[1], ";", 2)[0]
}
