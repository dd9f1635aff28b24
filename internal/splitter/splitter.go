// Package splitter chunks document text for embedding.
//
// It wraps a recursive character splitter that prefers paragraph, then line,
// then word boundaries before falling back to hard character cuts, and
// normalizes whitespace in the resulting chunks.
package splitter

import (
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/textsplitter"
)

const (
	// DefaultChunkSize is the target chunk length in characters, sized for
	// 384-dimension sentence-transformer embeddings.
	DefaultChunkSize = 1000

	// DefaultChunkOverlap is the number of characters shared between
	// consecutive chunks to preserve context across boundaries.
	DefaultChunkOverlap = 100
)

// Config holds splitter configuration.
type Config struct {
	ChunkSize    int
	ChunkOverlap int
}

// ApplyDefaults fills zero values with defaults.
func (c *Config) ApplyDefaults() {
	if c.ChunkSize == 0 {
		c.ChunkSize = DefaultChunkSize
	}
	if c.ChunkOverlap == 0 {
		c.ChunkOverlap = DefaultChunkOverlap
	}
}

// Validate checks config for errors.
func (c *Config) Validate() error {
	if c.ChunkSize <= 0 {
		return fmt.Errorf("chunk size must be positive, got %d", c.ChunkSize)
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("chunk overlap must be in [0, %d), got %d", c.ChunkSize, c.ChunkOverlap)
	}
	return nil
}

// Splitter chunks text recursively by character boundaries.
type Splitter struct {
	inner textsplitter.RecursiveCharacter
}

// New creates a Splitter from config.
func New(cfg Config) (*Splitter, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	inner := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(cfg.ChunkSize),
		textsplitter.WithChunkOverlap(cfg.ChunkOverlap),
	)

	return &Splitter{inner: inner}, nil
}

// Split chunks text and normalizes whitespace in each chunk. Empty input
// yields an empty slice. Chunks that are blank after normalization are
// dropped.
func (s *Splitter) Split(text string) ([]string, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	raw, err := s.inner.SplitText(text)
	if err != nil {
		return nil, fmt.Errorf("splitting text: %w", err)
	}

	chunks := make([]string, 0, len(raw))
	for _, c := range raw {
		cleaned := normalizeWhitespace(c)
		if cleaned == "" {
			continue
		}
		chunks = append(chunks, cleaned)
	}
	return chunks, nil
}

// normalizeWhitespace collapses runs of whitespace (including newlines and
// tabs) into single spaces and trims the ends.
func normalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
