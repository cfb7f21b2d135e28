// Package llmclient is the synchronous-caller side of the job dispatch
// pipeline: it enqueues a kind-specific job onto internal/jobqueue, blocks
// on the returned handle, and decodes the terminal result back into the
// provideradapter result shape. This is how the server process (and any
// in-process caller that is not itself a dispatcher worker) routes work
// through "B → D → (A-gated) C → result flows back through B", per spec.md
// §2's control-flow line and the "server vs worker sibling process" split
// of §5.
package llmclient

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/suPer8Hu/chat-gateway/internal/dispatcher"
	"github.com/suPer8Hu/chat-gateway/internal/jobqueue"
	"github.com/suPer8Hu/chat-gateway/internal/provideradapter"
)

type Client struct {
	queue *jobqueue.Queue
}

func New(queue *jobqueue.Queue) *Client {
	return &Client{queue: queue}
}

func (c *Client) Complete(ctx context.Context, prompt string, opts provideradapter.LLMOptions) (provideradapter.LLMResult, string, error) {
	payload, err := dispatcher.EncodeLLMPayload(dispatcher.LLMPayload{Prompt: prompt, Options: opts})
	if err != nil {
		return provideradapter.LLMResult{}, "", err
	}
	var result provideradapter.LLMResult
	provider, err := c.run(ctx, jobqueue.KindLLM, payload, &result)
	return result, provider, err
}

func (c *Client) Describe(ctx context.Context, imageURL, prompt string) (provideradapter.DescribeResult, string, error) {
	payload, err := dispatcher.EncodeImagePayload(dispatcher.ImagePayload{ImageURL: imageURL, Prompt: prompt})
	if err != nil {
		return provideradapter.DescribeResult{}, "", err
	}
	var result provideradapter.DescribeResult
	provider, err := c.run(ctx, jobqueue.KindImage, payload, &result)
	return result, provider, err
}

func (c *Client) ExtractText(ctx context.Context, imageURL string, languages []string) (provideradapter.OCRResult, string, error) {
	payload, err := dispatcher.EncodeOCRPayload(dispatcher.OCRPayload{ImageURL: imageURL, Languages: languages})
	if err != nil {
		return provideradapter.OCRResult{}, "", err
	}
	var result provideradapter.OCRResult
	provider, err := c.run(ctx, jobqueue.KindOCR, payload, &result)
	return result, provider, err
}

func (c *Client) Transcribe(ctx context.Context, audioURL, language string) (provideradapter.AudioResult, string, error) {
	payload, err := dispatcher.EncodeAudioPayload(dispatcher.AudioPayload{AudioURL: audioURL, Language: language})
	if err != nil {
		return provideradapter.AudioResult{}, "", err
	}
	var result provideradapter.AudioResult
	provider, err := c.run(ctx, jobqueue.KindAudio, payload, &result)
	return result, provider, err
}

func (c *Client) run(ctx context.Context, kind jobqueue.Kind, payload string, into any) (string, error) {
	handle, err := c.queue.Enqueue(ctx, kind, payload, jobqueue.EnqueueOptions{})
	if err != nil {
		return "", fmt.Errorf("llmclient: enqueue %s job: %w", kind, err)
	}
	result, err := handle.Await(ctx)
	if err != nil {
		return "", fmt.Errorf("llmclient: %s job failed: %w", kind, err)
	}
	if err := json.Unmarshal([]byte(result.Output), into); err != nil {
		return "", fmt.Errorf("llmclient: decode %s result: %w", kind, err)
	}
	return result.Provider, nil
}
