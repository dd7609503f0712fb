package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// envPrefix namespaces all Prism environment variables.
const envPrefix = "PRISM_"

// Load resolves configuration with the precedence (highest to lowest):
//
//  1. Environment variables (PRISM_GROQ_API_KEY, PRISM_MEMORY_BACKEND, ...)
//  2. YAML config file, when configPath is non-empty and the file exists
//  3. Hardcoded defaults
//
// Environment variables map onto config keys by stripping the PRISM_ prefix,
// lowercasing, and splitting section from field at the first underscore:
//
//	PRISM_GROQ_API_KEY       -> groq.api_key
//	PRISM_QDRANT_USE_TLS     -> qdrant.use_tls
//	PRISM_TRACKER_QUEUE_SIZE -> tracker.queue_size
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if configPath != "" {
		content, err := os.ReadFile(configPath)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
			}
		} else if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", transformEnvKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	cfg := Default()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// transformEnvKey maps a raw environment variable name to a koanf key.
// The first underscore separates the section from the field; everything after
// it stays underscore-joined (api_key, queue_size, ...).
func transformEnvKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, envPrefix))
	section, field, found := strings.Cut(s, "_")
	if !found {
		return section
	}
	return section + "." + field
}
