// Package config provides configuration loading for Prism. The configuration
// is resolved once at startup into an immutable Config value and injected into
// every component that needs it; nothing in Prism inspects the environment at
// call time.
package config

import (
	"fmt"
	"time"
)

// GroqConfig configures the Groq provider (OpenAI-compatible API).
type GroqConfig struct {
	APIKey  string `koanf:"api_key"`
	Model   string `koanf:"model"`
	BaseURL string `koanf:"base_url"`
}

// GeminiConfig configures the Google Gemini provider.
type GeminiConfig struct {
	APIKey         string `koanf:"api_key"`
	Model          string `koanf:"model"`
	EmbeddingModel string `koanf:"embedding_model"`
}

// OpenAIConfig configures the OpenAI provider.
type OpenAIConfig struct {
	APIKey         string `koanf:"api_key"`
	Model          string `koanf:"model"`
	EmbeddingModel string `koanf:"embedding_model"`
}

// AnthropicConfig configures the Anthropic provider.
type AnthropicConfig struct {
	APIKey string `koanf:"api_key"`
	Model  string `koanf:"model"`
}

// QdrantConfig configures the remote Qdrant vector backend.
type QdrantConfig struct {
	Host           string        `koanf:"host"`
	Port           int           `koanf:"port"`
	UseTLS         bool          `koanf:"use_tls"`
	APIKey         string        `koanf:"api_key"`
	Collection     string        `koanf:"collection"`
	RequestTimeout time.Duration `koanf:"request_timeout"`
}

// ChromemConfig configures the embedded chromem-go vector backend.
type ChromemConfig struct {
	// Path is the directory for persistent storage. Empty keeps the store
	// purely in memory.
	Path     string `koanf:"path"`
	Compress bool   `koanf:"compress"`
}

// MemoryConfig selects and sizes the memory backend.
type MemoryConfig struct {
	// Backend is one of "qdrant", "chromem" or "none".
	Backend    string `koanf:"backend"`
	VectorSize int    `koanf:"vector_size"`
	// TopK is the number of prior entries retrieved as context.
	TopK int `koanf:"top_k"`
}

// ToolsConfig bounds auxiliary tool usage.
type ToolsConfig struct {
	RateLimitPerMinute int `koanf:"rate_limit_per_minute"`
}

// TrackerConfig sizes the background worker pool.
type TrackerConfig struct {
	Workers   int `koanf:"workers"`
	QueueSize int `koanf:"queue_size"`
}

// Config is the complete, immutable Prism configuration.
type Config struct {
	Groq      GroqConfig      `koanf:"groq"`
	Gemini    GeminiConfig    `koanf:"gemini"`
	OpenAI    OpenAIConfig    `koanf:"openai"`
	Anthropic AnthropicConfig `koanf:"anthropic"`
	Qdrant    QdrantConfig    `koanf:"qdrant"`
	Chromem   ChromemConfig   `koanf:"chromem"`
	Memory    MemoryConfig    `koanf:"memory"`
	Tools     ToolsConfig     `koanf:"tools"`
	Tracker   TrackerConfig   `koanf:"tracker"`
}

// Default returns the baseline configuration before file and environment
// overrides are applied.
func Default() *Config {
	return &Config{
		Groq: GroqConfig{
			Model:   "llama-3.3-70b-versatile",
			BaseURL: "https://api.groq.com/openai/v1",
		},
		Gemini: GeminiConfig{
			Model:          "gemini-2.5-flash",
			EmbeddingModel: "gemini-embedding-001",
		},
		OpenAI: OpenAIConfig{
			Model:          "gpt-4o-mini",
			EmbeddingModel: "text-embedding-3-small",
		},
		Anthropic: AnthropicConfig{
			Model: "claude-3-5-sonnet-20241022",
		},
		Qdrant: QdrantConfig{
			Host:           "localhost",
			Port:           6334,
			Collection:     "user_memories",
			RequestTimeout: 30 * time.Second,
		},
		Memory: MemoryConfig{
			Backend:    "none",
			VectorSize: 1536,
			TopK:       3,
		},
		Tools: ToolsConfig{
			RateLimitPerMinute: 60,
		},
		Tracker: TrackerConfig{
			Workers:   4,
			QueueSize: 64,
		},
	}
}

// Validate checks structural invariants that would otherwise surface as
// confusing runtime failures.
func (c *Config) Validate() error {
	switch c.Memory.Backend {
	case "qdrant", "chromem", "none":
	default:
		return fmt.Errorf("invalid memory backend %q (want qdrant, chromem or none)", c.Memory.Backend)
	}
	if c.Memory.VectorSize <= 0 {
		return fmt.Errorf("invalid vector size %d (must be > 0)", c.Memory.VectorSize)
	}
	if c.Memory.TopK < 0 {
		return fmt.Errorf("invalid retrieval top_k %d (must be >= 0)", c.Memory.TopK)
	}
	if c.Memory.Backend == "qdrant" {
		if c.Qdrant.Host == "" {
			return fmt.Errorf("qdrant host is required")
		}
		if c.Qdrant.Port <= 0 || c.Qdrant.Port > 65535 {
			return fmt.Errorf("invalid qdrant port: %d (must be 1-65535)", c.Qdrant.Port)
		}
	}
	if c.Tools.RateLimitPerMinute <= 0 {
		return fmt.Errorf("invalid tools rate limit %d (must be > 0)", c.Tools.RateLimitPerMinute)
	}
	if c.Tracker.Workers <= 0 {
		return fmt.Errorf("invalid tracker workers %d (must be > 0)", c.Tracker.Workers)
	}
	if c.Tracker.QueueSize <= 0 {
		return fmt.Errorf("invalid tracker queue size %d (must be > 0)", c.Tracker.QueueSize)
	}
	return nil
}

// HasCredential reports whether at least one provider credential is set.
func (c *Config) HasCredential() bool {
	return c.Groq.APIKey != "" || c.Gemini.APIKey != "" || c.OpenAI.APIKey != "" || c.Anthropic.APIKey != ""
}
