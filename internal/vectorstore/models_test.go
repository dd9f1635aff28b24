package vectorstore

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateCollectionName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid simple", "web_embeddings", false},
		{"valid with digits", "embeddings_v2", false},
		{"empty", "", true},
		{"uppercase", "WebEmbeddings", true},
		{"spaces", "web embeddings", true},
		{"path traversal", "../etc", true},
		{"too long", strings.Repeat("a", 65), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCollectionName(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidCollectionName)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPointID_Deterministic(t *testing.T) {
	c := Chunk{Text: "some chunk text", SourceURL: "https://example.com/a", Index: 2}

	id1 := PointID(c)
	id2 := PointID(c)
	assert.Equal(t, id1, id2)

	_, err := uuid.Parse(id1)
	require.NoError(t, err)
}

func TestPointID_DistinguishesSourceAndText(t *testing.T) {
	base := Chunk{Text: "shared text", SourceURL: "https://example.com/a"}

	otherText := base
	otherText.Text = "different text"
	assert.NotEqual(t, PointID(base), PointID(otherText))

	// The same text on a different page is a different point.
	otherURL := base
	otherURL.SourceURL = "https://example.com/b"
	assert.NotEqual(t, PointID(base), PointID(otherURL))

	// Index is carried in the payload, not the identity: the same content
	// at a shifted position still maps to the same point.
	otherIndex := base
	otherIndex.Index = 7
	assert.Equal(t, PointID(base), PointID(otherIndex))
}
