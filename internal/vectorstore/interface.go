package vectorstore

import (
	"context"
	"errors"
)

var (
	// ErrInvalidConfig indicates invalid store configuration.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrConnectionFailed indicates the backend could not be reached.
	ErrConnectionFailed = errors.New("vector store connection failed")

	// ErrInvalidCollectionName indicates a collection name that fails
	// validation.
	ErrInvalidCollectionName = errors.New("invalid collection name")

	// ErrCollectionNotFound indicates the collection does not exist.
	ErrCollectionNotFound = errors.New("collection not found")

	// ErrLengthMismatch indicates the vector and chunk slices passed to
	// Upsert have different lengths.
	ErrLengthMismatch = errors.New("vectors and chunks length mismatch")

	// ErrDimensionMismatch indicates a vector whose length differs from the
	// collection's configured dimension.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrEmptyBatch indicates an Upsert call with nothing to write.
	ErrEmptyBatch = errors.New("empty batch")
)

// Store is the interface for vector storage backends. Each store owns one
// named collection.
type Store interface {
	// EnsureCollection creates the collection if it does not already exist.
	// Calling it when the collection exists is a no-op.
	EnsureCollection(ctx context.Context) error

	// Upsert writes vectors with their chunks as one batch. Point ids are
	// derived from chunk content, so re-upserting the same chunks overwrites
	// the earlier points. Returns the point ids in input order.
	Upsert(ctx context.Context, vectors [][]float32, chunks []Chunk) ([]string, error)

	// Search returns up to limit stored chunks nearest to queryVector in
	// descending similarity. Returns ErrCollectionNotFound when the
	// collection is absent; an empty result is not an error.
	Search(ctx context.Context, queryVector []float32, limit int) ([]SearchResult, error)

	// DeleteCollection drops the collection and all its points. The bool
	// reports whether a collection actually existed; deleting an absent
	// collection is not an error.
	DeleteCollection(ctx context.Context) (bool, error)

	// CollectionExists reports whether the collection currently exists.
	CollectionExists(ctx context.Context) (bool, error)

	// Close releases backend resources.
	Close() error
}
