package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	assert.NoError(t, Default().Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"unknown memory backend", func(c *Config) { c.Memory.Backend = "postgres" }},
		{"zero vector size", func(c *Config) { c.Memory.VectorSize = 0 }},
		{"negative top_k", func(c *Config) { c.Memory.TopK = -1 }},
		{"qdrant without host", func(c *Config) { c.Memory.Backend = "qdrant"; c.Qdrant.Host = "" }},
		{"qdrant bad port", func(c *Config) { c.Memory.Backend = "qdrant"; c.Qdrant.Port = 99999 }},
		{"zero rate limit", func(c *Config) { c.Tools.RateLimitPerMinute = 0 }},
		{"zero workers", func(c *Config) { c.Tracker.Workers = 0 }},
		{"zero queue size", func(c *Config) { c.Tracker.QueueSize = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestHasCredential(t *testing.T) {
	cfg := Default()
	assert.False(t, cfg.HasCredential())

	cfg.Anthropic.APIKey = "sk-test"
	assert.True(t, cfg.HasCredential())
}

func TestTransformEnvKey(t *testing.T) {
	tests := map[string]string{
		"PRISM_GROQ_API_KEY":       "groq.api_key",
		"PRISM_MEMORY_BACKEND":     "memory.backend",
		"PRISM_QDRANT_USE_TLS":     "qdrant.use_tls",
		"PRISM_TRACKER_QUEUE_SIZE": "tracker.queue_size",
	}
	for in, want := range tests {
		assert.Equal(t, want, transformEnvKey(in), in)
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "none", cfg.Memory.Backend)
	assert.Equal(t, 60, cfg.Tools.RateLimitPerMinute)
}

func TestLoadYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prism.yaml")
	content := []byte("memory:\n  backend: chromem\n  top_k: 5\ngroq:\n  api_key: file-key\n")
	require.NoError(t, os.WriteFile(path, content, 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "chromem", cfg.Memory.Backend)
	assert.Equal(t, 5, cfg.Memory.TopK)
	assert.Equal(t, "file-key", cfg.Groq.APIKey)
	// Untouched sections keep their defaults.
	assert.Equal(t, "llama-3.3-70b-versatile", cfg.Groq.Model)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prism.yaml")
	require.NoError(t, os.WriteFile(path, []byte("groq:\n  api_key: file-key\n"), 0o600))

	t.Setenv("PRISM_GROQ_API_KEY", "env-key")
	t.Setenv("PRISM_MEMORY_TOP_K", "7")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "env-key", cfg.Groq.APIKey)
	assert.Equal(t, 7, cfg.Memory.TopK)
}

func TestLoadMissingFileIsIgnored(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "none", cfg.Memory.Backend)
}
