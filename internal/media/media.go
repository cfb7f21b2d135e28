// Package media fetches media bytes from the upstream sender backend. The
// backend itself is an external collaborator; this package only implements
// the documented fetch protocol.
package media

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

type Fetcher struct {
	BaseURL        string
	ExceptionToken string
	ExceptionQuery string
	Client         *http.Client
}

func NewFetcher(baseURL, token, query string) *Fetcher {
	return &Fetcher{
		BaseURL:        baseURL,
		ExceptionToken: token,
		ExceptionQuery: query,
		Client:         &http.Client{Timeout: 30 * time.Second},
	}
}

// Fetched holds the raw bytes and content type of a fetched media item.
type Fetched struct {
	Bytes       []byte
	ContentType string
}

// URL builds the fully-qualified, token-bearing fetch URL for a media key
// without performing the request. Since the URL carries its own auth in the
// query string, it doubles as the plain "imageUrl"/"audioUrl" a provider
// adapter's generic URL-fetcher needs — the adapter never has to know about
// the sender backend's token/eq convention.
func (f *Fetcher) URL(key string) string {
	return fmt.Sprintf("%s/api/v1/media/%s?token=%s&eq=%s",
		f.BaseURL,
		url.PathEscape(key),
		url.QueryEscape(f.ExceptionToken),
		url.QueryEscape(f.ExceptionQuery),
	)
}

// Fetch retrieves GET {BaseURL}/api/v1/media/{key}?token=...&eq=....
func (f *Fetcher) Fetch(ctx context.Context, key string) (*Fetched, error) {
	u := f.URL(key)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("media: fetch %s: status %d", key, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	return &Fetched{Bytes: body, ContentType: resp.Header.Get("Content-Type")}, nil
}

// FetchURL retrieves any fully-qualified URL (typically one built by
// Fetcher.URL), matching the func(ctx, url) ([]byte, contentType, error)
// shape every provideradapter constructor expects as its generic fetcher.
func FetchURL(ctx context.Context, rawURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", err
	}

	client := http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", fmt.Errorf("media: fetch %s: status %d", rawURL, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", err
	}

	return body, resp.Header.Get("Content-Type"), nil
}
