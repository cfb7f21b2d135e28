package provideradapter

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

// GroqProvider is the primary provider for all four job kinds: Whisper for
// audio, vision-capable chat completions for image description and OCR,
// and plain chat completions for LLM work. Shaped after the teacher's
// OllamaProvider/OpenRouterProvider: a bespoke net/http client per provider,
// no SDK dependency.
type GroqProvider struct {
	BaseURL string
	APIKey  string
	Model   string // chat/vision model
	Fetch   func(ctx context.Context, url string) ([]byte, string, error)
	Client  *http.Client
}

func NewGroqProvider(baseURL, apiKey, model string, fetch func(ctx context.Context, url string) ([]byte, string, error)) *GroqProvider {
	if baseURL == "" {
		baseURL = "https://api.groq.com/openai/v1"
	}
	return &GroqProvider{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		Model:   model,
		Fetch:   fetch,
		Client:  &http.Client{Timeout: 90 * time.Second},
	}
}

func (p *GroqProvider) Name() string { return "groq" }

type groqChatMsgContentPart struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	ImageURL *struct {
		URL string `json:"url"`
	} `json:"image_url,omitempty"`
}

type groqChatMsg struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type groqChatReq struct {
	Model       string        `json:"model"`
	Messages    []groqChatMsg `json:"messages"`
	Temperature float64       `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type groqChatResp struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (p *GroqProvider) chatCompletion(ctx context.Context, req groqChatReq) (string, error) {
	b, err := json.Marshal(req)
	if err != nil {
		return "", err
	}

	url := p.BaseURL + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.APIKey)

	resp, err := p.Client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTransient, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return "", ErrAuth
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return "", ErrRate
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4*1024))
		return "", fmt.Errorf("%w: groq status %d: %s", ErrTransient, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var decoded groqChatResp
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if decoded.Error != nil && decoded.Error.Message != "" {
		return "", fmt.Errorf("%w: %s", ErrTransient, decoded.Error.Message)
	}
	if len(decoded.Choices) == 0 {
		return "", fmt.Errorf("%w: empty choices", ErrMalformed)
	}
	return decoded.Choices[0].Message.Content, nil
}

func (p *GroqProvider) Complete(ctx context.Context, prompt string, opts LLMOptions) (LLMResult, error) {
	msgs := []groqChatMsg{}
	if opts.SystemPrompt != "" {
		msgs = append(msgs, groqChatMsg{Role: "system", Content: opts.SystemPrompt})
	}
	msgs = append(msgs, groqChatMsg{Role: "user", Content: prompt})

	answer, err := p.chatCompletion(ctx, groqChatReq{
		Model:       p.Model,
		Messages:    msgs,
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
	})
	if err != nil {
		return LLMResult{}, err
	}
	return LLMResult{Answer: answer, Provider: p.Name(), Model: p.Model}, nil
}

func (p *GroqProvider) fetchAsDataURL(ctx context.Context, imageURL string) (string, error) {
	raw, contentType, err := p.Fetch(ctx, imageURL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTransient, err)
	}
	if contentType == "" {
		contentType = "image/jpeg"
	}
	encoded := base64.StdEncoding.EncodeToString(raw)
	return fmt.Sprintf("data:%s;base64,%s", contentType, encoded), nil
}

func (p *GroqProvider) Describe(ctx context.Context, imageURL, prompt string) (DescribeResult, error) {
	dataURL, err := p.fetchAsDataURL(ctx, imageURL)
	if err != nil {
		return DescribeResult{}, err
	}
	if prompt == "" {
		prompt = "Describe this image in detail."
	}

	content := []groqChatMsgContentPart{
		{Type: "text", Text: prompt},
		{Type: "image_url", ImageURL: &struct {
			URL string `json:"url"`
		}{URL: dataURL}},
	}

	answer, err := p.chatCompletion(ctx, groqChatReq{
		Model: p.Model,
		Messages: []groqChatMsg{
			{Role: "user", Content: content},
		},
		Temperature: 0.4,
	})
	if err != nil {
		return DescribeResult{}, err
	}
	return DescribeResult{Description: answer, Provider: p.Name(), Model: p.Model}, nil
}

func (p *GroqProvider) ExtractText(ctx context.Context, imageURL string, languages []string) (OCRResult, error) {
	dataURL, err := p.fetchAsDataURL(ctx, imageURL)
	if err != nil {
		return OCRResult{}, err
	}

	prompt := fmt.Sprintf(
		"Extract all visible text from this image verbatim, preserving line breaks. "+
			"Respond with %s if there is no legible text. Do not describe the image, only extract text.",
		NoTextSentinel,
	)

	content := []groqChatMsgContentPart{
		{Type: "text", Text: prompt},
		{Type: "image_url", ImageURL: &struct {
			URL string `json:"url"`
		}{URL: dataURL}},
	}

	answer, err := p.chatCompletion(ctx, groqChatReq{
		Model: p.Model,
		Messages: []groqChatMsg{
			{Role: "user", Content: content},
		},
		Temperature: 0,
	})
	if err != nil {
		return OCRResult{}, err
	}

	trimmed := strings.TrimSpace(answer)
	if trimmed == NoTextSentinel {
		return OCRResult{HasText: false, Languages: languages, Provider: p.Name(), Model: p.Model}, nil
	}
	return OCRResult{Text: trimmed, HasText: true, Languages: languages, Provider: p.Name(), Model: p.Model}, nil
}

// Transcribe posts a multipart/form-data request to Groq's Whisper
// transcription endpoint.
func (p *GroqProvider) Transcribe(ctx context.Context, audioURL, language string) (AudioResult, error) {
	raw, _, err := p.Fetch(ctx, audioURL)
	if err != nil {
		return AudioResult{}, fmt.Errorf("%w: %v", ErrTransient, err)
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", "audio.ogg")
	if err != nil {
		return AudioResult{}, err
	}
	if _, err := part.Write(raw); err != nil {
		return AudioResult{}, err
	}
	_ = writer.WriteField("model", "whisper-large-v3")
	if language != "" {
		_ = writer.WriteField("language", language)
	}
	if err := writer.Close(); err != nil {
		return AudioResult{}, err
	}

	url := p.BaseURL + "/audio/transcriptions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return AudioResult{}, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+p.APIKey)

	resp, err := p.Client.Do(req)
	if err != nil {
		return AudioResult{}, fmt.Errorf("%w: %v", ErrTransient, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return AudioResult{}, ErrAuth
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return AudioResult{}, ErrRate
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4*1024))
		return AudioResult{}, fmt.Errorf("%w: groq whisper status %d: %s", ErrTransient, resp.StatusCode, strings.TrimSpace(string(b)))
	}

	var decoded struct {
		Text     string `json:"text"`
		Language string `json:"language"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return AudioResult{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	return AudioResult{
		Text:     decoded.Text,
		Language: decoded.Language,
		Provider: p.Name(),
		Model:    "whisper-large-v3",
	}, nil
}
