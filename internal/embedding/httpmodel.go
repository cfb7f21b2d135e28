package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// HTTPModel calls out to an external embedding service over HTTP, per
// spec.md §1's treatment of the embedding model as an external
// collaborator "consumed as a function text->vector". The service is
// expected to return a 384-dimension, mean-pooled, L2-normalised vector.
type HTTPModel struct {
	BaseURL string
	Client  *http.Client
}

func NewHTTPModel(baseURL string) *HTTPModel {
	return &HTTPModel{BaseURL: baseURL, Client: &http.Client{Timeout: 10 * time.Second}}
}

type embedRequest struct {
	Text string `json:"text"`
}

type embedResponse struct {
	Vector []float32 `json:"vector"`
}

// Embed prepends the "{prefix}: " convention, per the embedding model
// contract, then POSTs to {BaseURL}/embed.
func (m *HTTPModel) Embed(ctx context.Context, text string, prefix Prefix) ([]float32, error) {
	body, err := json.Marshal(embedRequest{Text: fmt.Sprintf("%s: %s", prefix, text)})
	if err != nil {
		return nil, fmt.Errorf("embedding: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.BaseURL+"/embed", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("embedding: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embedding: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("embedding: service returned status %d", resp.StatusCode)
	}

	var out embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("embedding: decode response: %w", err)
	}
	if len(out.Vector) != Dimension {
		return nil, fmt.Errorf("embedding: expected %d dimensions, got %d", Dimension, len(out.Vector))
	}
	return out.Vector, nil
}
