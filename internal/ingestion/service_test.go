package ingestion

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/suPer8Hu/chat-gateway/internal/embedding"
	"github.com/suPer8Hu/chat-gateway/internal/media"
	"github.com/suPer8Hu/chat-gateway/internal/provideradapter"
	"github.com/suPer8Hu/chat-gateway/internal/vectorstore"
)

type fakeExtractor struct {
	ocrText     string
	description string
	transcript  string
}

func (f *fakeExtractor) Describe(ctx context.Context, imageURL, prompt string) (provideradapter.DescribeResult, string, error) {
	return provideradapter.DescribeResult{Description: f.description}, "groq", nil
}

func (f *fakeExtractor) ExtractText(ctx context.Context, imageURL string, languages []string) (provideradapter.OCRResult, string, error) {
	if f.ocrText == "" {
		return provideradapter.OCRResult{HasText: false}, "groq", nil
	}
	return provideradapter.OCRResult{HasText: true, Text: f.ocrText}, "groq", nil
}

func (f *fakeExtractor) Transcribe(ctx context.Context, audioURL, language string) (provideradapter.AudioResult, string, error) {
	return provideradapter.AudioResult{Text: f.transcript}, "groq", nil
}

type fakeEmbedder struct{}

func (fakeEmbedder) Embed(ctx context.Context, text string, prefix embedding.Prefix) ([]float32, error) {
	return embedding.ZeroVector(), nil
}

type fakeGateway struct {
	mu     sync.Mutex
	points []vectorstore.Point
}

func (f *fakeGateway) Bootstrap(ctx context.Context, c vectorstore.Collection, vectorSize int) error {
	return nil
}
func (f *fakeGateway) Upsert(ctx context.Context, c vectorstore.Collection, p vectorstore.Point) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.points = append(f.points, p)
	return nil
}
func (f *fakeGateway) Retrieve(ctx context.Context, c vectorstore.Collection, ids []string) ([]vectorstore.Point, error) {
	return nil, nil
}
func (f *fakeGateway) Search(ctx context.Context, c vectorstore.Collection, v []float32, limit int, filter *vectorstore.Filter) ([]vectorstore.SearchResult, error) {
	return nil, nil
}
func (f *fakeGateway) Scroll(ctx context.Context, c vectorstore.Collection, filter *vectorstore.Filter, pageSize int) ([]vectorstore.Point, error) {
	return nil, nil
}
func (f *fakeGateway) Delete(ctx context.Context, c vectorstore.Collection, ids []string) error { return nil }
func (f *fakeGateway) DeleteByFilter(ctx context.Context, c vectorstore.Collection, filter vectorstore.Filter) error {
	return nil
}
func (f *fakeGateway) Count(ctx context.Context, c vectorstore.Collection, filter *vectorstore.Filter) (int, error) {
	return len(f.points), nil
}

type fakeSummaryTrigger struct {
	mu       sync.Mutex
	roomHits int
	userHits int
	done     chan struct{}
}

func newFakeSummaryTrigger() *fakeSummaryTrigger {
	return &fakeSummaryTrigger{done: make(chan struct{}, 2)}
}

func (f *fakeSummaryTrigger) UpdateRoomSummary(ctx context.Context, roomID, newText, senderName string) {
	f.mu.Lock()
	f.roomHits++
	f.mu.Unlock()
	f.done <- struct{}{}
}

func (f *fakeSummaryTrigger) UpdateUserPersonalization(ctx context.Context, userID, newText, senderName string) {
	f.mu.Lock()
	f.userHits++
	f.mu.Unlock()
	f.done <- struct{}{}
}

func TestIngest_TextOnlyMessage(t *testing.T) {
	gw := &fakeGateway{}
	trigger := newFakeSummaryTrigger()
	s := New(media.NewFetcher("http://example.invalid", "tok", "eq"), &fakeExtractor{}, fakeEmbedder{}, gw, trigger)

	result, err := s.Ingest(context.Background(), Request{
		RoomID: "room1", SenderID: "sender1", ExternalMessageID: "m1", Text: "hello world",
	})
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if result.Text != "hello world" {
		t.Fatalf("expected text to round-trip, got %q", result.Text)
	}
	if len(gw.points) != 1 {
		t.Fatalf("expected one stored point, got %d", len(gw.points))
	}

	<-trigger.done
	<-trigger.done
	if trigger.roomHits != 1 || trigger.userHits != 1 {
		t.Fatalf("expected both summary triggers to fire, got room=%d user=%d", trigger.roomHits, trigger.userHits)
	}
}

func TestIngest_EmptyContentFails(t *testing.T) {
	gw := &fakeGateway{}
	s := New(media.NewFetcher("http://example.invalid", "tok", "eq"), &fakeExtractor{}, fakeEmbedder{}, gw, newFakeSummaryTrigger())

	_, err := s.Ingest(context.Background(), Request{RoomID: "room1", ExternalMessageID: "m1"})
	if err != ErrNoContent {
		t.Fatalf("expected ErrNoContent, got %v", err)
	}
}

func TestIngest_ImageMediaConcatenatesOCRAndDescription(t *testing.T) {
	gw := &fakeGateway{}
	extractor := &fakeExtractor{ocrText: "ocr-text", description: "a photo"}
	s := New(media.NewFetcher("http://example.invalid", "tok", "eq"), extractor, fakeEmbedder{}, gw, newFakeSummaryTrigger())

	result, err := s.Ingest(context.Background(), Request{
		RoomID: "room1", ExternalMessageID: "m1",
		Media: []MediaItem{{Kind: MediaImage, Key: "img1"}},
	})
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if result.Text != "ocr-text a photo" {
		t.Fatalf("expected concatenated media text, got %q", result.Text)
	}
}

func TestIngest_DocumentMediaFetchesRawBytes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("document contents"))
	}))
	defer server.Close()

	gw := &fakeGateway{}
	s := New(media.NewFetcher(server.URL, "tok", "eq"), &fakeExtractor{}, fakeEmbedder{}, gw, newFakeSummaryTrigger())

	result, err := s.Ingest(context.Background(), Request{
		RoomID: "room1", ExternalMessageID: "m1",
		Media: []MediaItem{{Kind: MediaDocument, Key: "doc1"}},
	})
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if result.Text != "document contents" {
		t.Fatalf("expected fetched document text, got %q", result.Text)
	}
}
