package provideradapter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DeepgramProvider is the first audio fallback.
type DeepgramProvider struct {
	BaseURL string
	APIKey  string
	Fetch   func(ctx context.Context, url string) ([]byte, string, error)
	Client  *http.Client
}

func NewDeepgramProvider(baseURL, apiKey string, fetch func(ctx context.Context, url string) ([]byte, string, error)) *DeepgramProvider {
	if baseURL == "" {
		baseURL = "https://api.deepgram.com/v1"
	}
	return &DeepgramProvider{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		Fetch:   fetch,
		Client:  &http.Client{Timeout: 90 * time.Second},
	}
}

func (p *DeepgramProvider) Name() string { return "deepgram" }

func (p *DeepgramProvider) Transcribe(ctx context.Context, audioURL, language string) (AudioResult, error) {
	raw, contentType, err := p.Fetch(ctx, audioURL)
	if err != nil {
		return AudioResult{}, fmt.Errorf("%w: %v", ErrTransient, err)
	}
	if contentType == "" {
		contentType = "audio/ogg"
	}

	url := fmt.Sprintf("%s/listen?model=nova-2&smart_format=true", p.BaseURL)
	if language != "" {
		url += "&language=" + language
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(raw))
	if err != nil {
		return AudioResult{}, err
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Token "+p.APIKey)

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
		return AudioResult{}, fmt.Errorf("%w: deepgram status %d: %s", ErrTransient, resp.StatusCode, strings.TrimSpace(string(b)))
	}

	var decoded struct {
		Results struct {
			Channels []struct {
				Alternatives []struct {
					Transcript string  `json:"transcript"`
					Confidence float64 `json:"confidence"`
				} `json:"alternatives"`
			} `json:"channels"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return AudioResult{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if len(decoded.Results.Channels) == 0 || len(decoded.Results.Channels[0].Alternatives) == 0 {
		return AudioResult{}, fmt.Errorf("%w: empty transcript", ErrMalformed)
	}

	alt := decoded.Results.Channels[0].Alternatives[0]
	return AudioResult{
		Text:       alt.Transcript,
		Language:   language,
		Confidence: alt.Confidence,
		Provider:   p.Name(),
		Model:      "nova-2",
	}, nil
}
