package dispatcher

import (
	"encoding/json"

	"github.com/suPer8Hu/chat-gateway/internal/provideradapter"
)

// Payload shapes are the JSON-encoded contents of jobqueue.Job.Payload, one
// per job kind.

type AudioPayload struct {
	AudioURL string `json:"audioUrl"`
	Language string `json:"language,omitempty"`
}

type ImagePayload struct {
	ImageURL string `json:"imageUrl"`
	Prompt   string `json:"prompt,omitempty"`
}

type OCRPayload struct {
	ImageURL  string   `json:"imageUrl"`
	Languages []string `json:"languages,omitempty"`
}

type LLMPayload struct {
	Prompt  string                     `json:"prompt"`
	Options provideradapter.LLMOptions `json:"options,omitempty"`
}

func EncodeAudioPayload(p AudioPayload) (string, error) { return encode(p) }
func EncodeImagePayload(p ImagePayload) (string, error) { return encode(p) }
func EncodeOCRPayload(p OCRPayload) (string, error)     { return encode(p) }
func EncodeLLMPayload(p LLMPayload) (string, error)     { return encode(p) }

func encode(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
