// Package config loads the process configuration from environment
// variables: the service endpoints and credentials, per-provider base URL
// and model overrides, and the policy-store and embedding-service locations.
package config

import (
	"os"
)

type Config struct {
	Port   string
	DBPath string

	AuthoritativeVectorURL    string
	AuthoritativeVectorAPIKey string
	CacheStoreURL             string

	SenderBackendURL                 string
	SenderBackendMediaExceptionToken string
	SenderBackendMediaExceptionQuery string

	GroqAPIKey        string
	GroqBaseURL       string
	GroqModel         string
	DeepgramAPIKey    string
	DeepgramBaseURL   string
	AssemblyAIAPIKey  string
	AssemblyAIBaseURL string
	GeminiAPIKey      string
	GeminiModel       string

	PolicyStorePath  string
	EmbeddingService string
}

func Load() Config {
	return Config{
		Port:   envOr("PORT", "8080"),
		DBPath: envOr("DB_PATH", "./data/shadow-store"),

		AuthoritativeVectorURL:    os.Getenv("AUTHORITATIVE_VECTOR_URL"),
		AuthoritativeVectorAPIKey: os.Getenv("AUTHORITATIVE_VECTOR_API_KEY"),
		CacheStoreURL:             envOr("CACHE_STORE_URL", "127.0.0.1:6379"),

		SenderBackendURL:                 os.Getenv("SENDER_BACKEND_URL"),
		SenderBackendMediaExceptionToken: os.Getenv("SENDER_BACKEND_MEDIA_EXCEPTION_TOKEN"),
		SenderBackendMediaExceptionQuery: os.Getenv("SENDER_BACKEND_MEDIA_EXCEPTION_QUERY"),

		GroqAPIKey:        os.Getenv("GROQ_API_KEY"),
		GroqBaseURL:       envOr("GROQ_BASE_URL", "https://api.groq.com/openai/v1"),
		GroqModel:         envOr("GROQ_MODEL", "llama-3.3-70b-versatile"),
		DeepgramAPIKey:    os.Getenv("DEEPGRAM_API_KEY"),
		DeepgramBaseURL:   envOr("DEEPGRAM_BASE_URL", "https://api.deepgram.com/v1"),
		AssemblyAIAPIKey:  os.Getenv("ASSEMBLYAI_API_KEY"),
		AssemblyAIBaseURL: envOr("ASSEMBLYAI_BASE_URL", "https://api.assemblyai.com/v2"),
		GeminiAPIKey:      os.Getenv("GEMINI_API_KEY"),
		GeminiModel:       envOr("GEMINI_MODEL", "gemini-1.5-flash"),

		PolicyStorePath:  envOr("POLICY_STORE_PATH", "./data/policies.db"),
		EmbeddingService: envOr("EMBEDDING_SERVICE_URL", "http://127.0.0.1:8090"),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

