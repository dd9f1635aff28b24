package config

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

const maxConfigFileSize = 1024 * 1024 // 1MB

// envSections lists the top-level config sections that environment variables
// may target. Variables whose first underscore-delimited segment is not one of
// these are ignored, so unrelated process environment (PATH, HOME, ...) never
// leaks into the configuration.
var envSections = map[string]bool{
	"server":      true,
	"logging":     true,
	"telemetry":   true,
	"embedding":   true,
	"vectorstore": true,
	"qdrant":      true,
	"chromem":     true,
	"chat":        true,
	"chatlog":     true,
	"nats":        true,
	"ingest":      true,
}

// Load loads configuration from an optional YAML file, then overrides with
// environment variables.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (SERVER_PORT, EMBEDDING_API_KEY, QDRANT_HOST, ...)
//  2. YAML config file (configPath, skipped when empty or absent)
//  3. Hardcoded defaults
//
// Environment variables use underscore separator and are uppercased. The
// transformer splits on the first underscore: the first segment is the config
// section, the remainder is the field name.
//
//	SERVER_SHUTDOWN_TIMEOUT -> server.shutdown_timeout
//	EMBEDDING_API_KEY       -> embedding.api_key
//	VECTORSTORE_PROVIDER    -> vectorstore.provider
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if configPath != "" {
		if err := loadFile(k, configPath); err != nil {
			return nil, err
		}
	}

	if err := k.Load(env.Provider("", ".", transformEnvVar), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// loadFile reads and parses a YAML config file into k.
// A missing file is not an error; the caller falls through to env and defaults.
func loadFile(k *koanf.Koanf, configPath string) error {
	f, err := os.Open(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat config file: %w", err)
	}
	if info.Size() > maxConfigFileSize {
		return fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxConfigFileSize)
	}

	content, err := io.ReadAll(f)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
		return fmt.Errorf("failed to load config file %s: %w", configPath, err)
	}
	return nil
}

// transformEnvVar maps an environment variable name to a config key.
// Returns "" for variables outside the known config sections, which tells
// the env provider to skip them.
func transformEnvVar(s string) string {
	lower := strings.ToLower(s)
	parts := strings.SplitN(lower, "_", 2)
	if len(parts) != 2 {
		return ""
	}
	if !envSections[parts[0]] {
		return ""
	}
	return parts[0] + "." + parts[1]
}
