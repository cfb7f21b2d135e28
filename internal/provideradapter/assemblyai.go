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

// AssemblyAIProvider is the second, last-resort audio fallback.
type AssemblyAIProvider struct {
	BaseURL string
	APIKey  string
	Fetch   func(ctx context.Context, url string) ([]byte, string, error)
	Client  *http.Client
	// PollInterval controls how often the transcript job is polled; exposed
	// for tests.
	PollInterval time.Duration
}

func NewAssemblyAIProvider(baseURL, apiKey string, fetch func(ctx context.Context, url string) ([]byte, string, error)) *AssemblyAIProvider {
	if baseURL == "" {
		baseURL = "https://api.assemblyai.com/v2"
	}
	return &AssemblyAIProvider{
		BaseURL:      strings.TrimRight(baseURL, "/"),
		APIKey:       apiKey,
		Fetch:        fetch,
		Client:       &http.Client{Timeout: 30 * time.Second},
		PollInterval: 2 * time.Second,
	}
}

func (p *AssemblyAIProvider) Name() string { return "assemblyai" }

func (p *AssemblyAIProvider) upload(ctx context.Context, audioURL string) (string, error) {
	raw, _, err := p.Fetch(ctx, audioURL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTransient, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.BaseURL+"/upload", bytes.NewReader(raw))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", p.APIKey)

	resp, err := p.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTransient, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: assemblyai upload status %d", ErrTransient, resp.StatusCode)
	}

	var decoded struct {
		UploadURL string `json:"upload_url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return decoded.UploadURL, nil
}

func (p *AssemblyAIProvider) Transcribe(ctx context.Context, audioURL, language string) (AudioResult, error) {
	uploadURL, err := p.upload(ctx, audioURL)
	if err != nil {
		return AudioResult{}, err
	}

	reqBody := map[string]any{"audio_url": uploadURL}
	if language != "" {
		reqBody["language_code"] = language
	}
	b, err := json.Marshal(reqBody)
	if err != nil {
		return AudioResult{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.BaseURL+"/transcript", bytes.NewReader(b))
	if err != nil {
		return AudioResult{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", p.APIKey)

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
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4*1024))
		return AudioResult{}, fmt.Errorf("%w: assemblyai status %d: %s", ErrTransient, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var created struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return AudioResult{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	return p.poll(ctx, created.ID, language)
}

func (p *AssemblyAIProvider) poll(ctx context.Context, id, language string) (AudioResult, error) {
	ticker := time.NewTicker(p.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return AudioResult{}, ctx.Err()
		case <-ticker.C:
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.BaseURL+"/transcript/"+id, nil)
			if err != nil {
				return AudioResult{}, err
			}
			req.Header.Set("Authorization", p.APIKey)

			resp, err := p.Client.Do(req)
			if err != nil {
				return AudioResult{}, fmt.Errorf("%w: %v", ErrTransient, err)
			}

			var decoded struct {
				Status string `json:"status"`
				Text   string `json:"text"`
				Error  string `json:"error"`
			}
			decodeErr := json.NewDecoder(resp.Body).Decode(&decoded)
			resp.Body.Close()
			if decodeErr != nil {
				return AudioResult{}, fmt.Errorf("%w: %v", ErrMalformed, decodeErr)
			}

			switch decoded.Status {
			case "completed":
				return AudioResult{Text: decoded.Text, Language: language, Provider: p.Name(), Model: "best"}, nil
			case "error":
				return AudioResult{}, fmt.Errorf("%w: %s", ErrTransient, decoded.Error)
			}
		}
	}
}
