package vectorstore

import (
	"fmt"
	"regexp"

	"github.com/google/uuid"
)

// collectionNamePattern validates collection names.
// Pattern: lowercase letters, numbers, underscores, 1-64 characters.
var collectionNamePattern = regexp.MustCompile(`^[a-z0-9_]{1,64}$`)

// ValidateCollectionName validates a collection name.
// Rejects uppercase, special characters, path traversal, and spaces.
func ValidateCollectionName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: collection name cannot be empty", ErrInvalidCollectionName)
	}
	if !collectionNamePattern.MatchString(name) {
		return fmt.Errorf("%w: collection name must match pattern ^[a-z0-9_]{1,64}$, got %q", ErrInvalidCollectionName, name)
	}
	return nil
}

// Chunk is one piece of split document text headed for the store.
type Chunk struct {
	// Text is the chunk content.
	Text string

	// SourceURL is the page the chunk was extracted from.
	SourceURL string

	// Index is the chunk's position within its source document.
	Index int
}

// SearchResult is one similarity search hit.
type SearchResult struct {
	// ID is the point id.
	ID string

	// Text is the stored chunk content.
	Text string

	// SourceURL is the page the chunk came from.
	SourceURL string

	// Score is the similarity score; higher is closer.
	Score float32
}

// pointNamespace is the UUID namespace for content-derived point ids.
var pointNamespace = uuid.MustParse("8f0f6fae-2b6c-4c3f-9a57-4e6f1d2b9c01")

// PointID derives a deterministic UUID for a chunk from its source URL and
// text. Re-ingesting the same page produces the same ids, so points are
// overwritten in place instead of accumulating duplicates.
func PointID(c Chunk) string {
	return uuid.NewSHA1(pointNamespace, []byte(c.SourceURL+"\x00"+c.Text)).String()
}
