package splitter

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_InvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"negative chunk size", Config{ChunkSize: -1, ChunkOverlap: 10}},
		{"overlap equals chunk size", Config{ChunkSize: 100, ChunkOverlap: 100}},
		{"overlap exceeds chunk size", Config{ChunkSize: 100, ChunkOverlap: 200}},
		{"negative overlap", Config{ChunkSize: 100, ChunkOverlap: -5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg)
			assert.Error(t, err)
		})
	}
}

func TestSplit_Empty(t *testing.T) {
	s, err := New(Config{})
	require.NoError(t, err)

	for _, input := range []string{"", "   ", "\n\t\n"} {
		chunks, err := s.Split(input)
		require.NoError(t, err)
		assert.Empty(t, chunks)
	}
}

func TestSplit_ShortTextSingleChunk(t *testing.T) {
	s, err := New(Config{})
	require.NoError(t, err)

	chunks, err := s.Split("hello world")
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "hello world", chunks[0])
}

func TestSplit_ChunkBounds(t *testing.T) {
	s, err := New(Config{ChunkSize: 100, ChunkOverlap: 20})
	require.NoError(t, err)

	text := strings.Repeat("the quick brown fox jumps over the lazy dog ", 50)
	chunks, err := s.Split(text)
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	for i, c := range chunks {
		assert.LessOrEqual(t, len(c), 100, "chunk %d exceeds size", i)
		assert.NotEmpty(t, c)
	}
}

// A 1500-character run with the default 1000/100 settings must produce
// exactly two chunks, the second starting 900 characters in.
func TestSplit_OverlapWindow(t *testing.T) {
	s, err := New(Config{})
	require.NoError(t, err)

	text := strings.Repeat("a", 1500)
	chunks, err := s.Split(text)
	require.NoError(t, err)
	require.Len(t, chunks, 2)

	assert.Equal(t, strings.Repeat("a", 1000), chunks[0])
	assert.Equal(t, strings.Repeat("a", 600), chunks[1])
	// The second chunk is the tail from offset 900: 100 overlapping
	// characters plus the remaining 500.
	assert.Equal(t, text[900:], chunks[1])
}

func TestSplit_WhitespaceNormalization(t *testing.T) {
	s, err := New(Config{})
	require.NoError(t, err)

	chunks, err := s.Split("line one\n\nline\ttwo   spaced")
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "line one line two spaced", chunks[0])
}

func TestSplit_PrefersParagraphBoundaries(t *testing.T) {
	s, err := New(Config{ChunkSize: 50, ChunkOverlap: 0})
	require.NoError(t, err)

	text := "the first paragraph talks about one thing only.\n\nthe second paragraph talks about another thing."
	chunks, err := s.Split(text)
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, "the first paragraph talks about one thing only.", chunks[0])
	assert.Equal(t, "the second paragraph talks about another thing.", chunks[1])
}
