package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	chromem "github.com/philippgille/chromem-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

// chromemTracer for OpenTelemetry instrumentation.
var chromemTracer = otel.Tracer("answerd.vectorstore.chromem")

// ChromemConfig holds configuration for the chromem-go embedded backend.
type ChromemConfig struct {
	// Path is the directory for persistent storage. Empty means in-memory
	// only, which is what tests use.
	Path string

	// Compress enables gzip compression for stored data.
	Compress bool

	// CollectionName is the collection this store owns.
	CollectionName string

	// VectorSize is the expected embedding dimension.
	// Must match the embedder's output dimension.
	VectorSize int
}

// ApplyDefaults sets default values for unset fields.
func (c *ChromemConfig) ApplyDefaults() {
	if c.CollectionName == "" {
		c.CollectionName = "web_embeddings"
	}
	if c.VectorSize == 0 {
		c.VectorSize = 384
	}
}

// Validate validates the configuration.
func (c *ChromemConfig) Validate() error {
	if c.VectorSize <= 0 {
		return fmt.Errorf("%w: vector size must be positive", ErrInvalidConfig)
	}
	return nil
}

// ChromemStore implements the Store interface using chromem-go.
//
// chromem-go is an embeddable vector database with zero third-party
// dependencies: in-memory storage with optional persistence to gob files,
// no external service needed.
type ChromemStore struct {
	db     *chromem.DB
	config ChromemConfig
	logger *zap.Logger
}

// NewChromemStore creates a new ChromemStore with the given configuration.
func NewChromemStore(config ChromemConfig, logger *zap.Logger) (*ChromemStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	config.ApplyDefaults()
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	if err := ValidateCollectionName(config.CollectionName); err != nil {
		return nil, fmt.Errorf("validating collection name: %w", err)
	}

	var db *chromem.DB
	if config.Path == "" {
		db = chromem.NewDB()
	} else {
		if err := os.MkdirAll(config.Path, 0755); err != nil {
			return nil, fmt.Errorf("creating directory %s: %w", config.Path, err)
		}
		var err error
		db, err = chromem.NewPersistentDB(config.Path, config.Compress)
		if err != nil {
			return nil, fmt.Errorf("creating chromem DB: %w", err)
		}
	}

	store := &ChromemStore{
		db:     db,
		config: config,
		logger: logger,
	}

	logger.Info("chromem store initialized",
		zap.String("path", config.Path),
		zap.Bool("compress", config.Compress),
		zap.Int("vector_size", config.VectorSize),
		zap.String("collection", config.CollectionName),
	)

	return store, nil
}

// embeddingFunc rejects text embedding requests. All vectors come in
// precomputed; chromem must never fall back to its default remote embedder.
func embeddingFunc(ctx context.Context, text string) ([]float32, error) {
	return nil, errors.New("embeddings are precomputed; text embedding is not available")
}

// getCollection returns the collection or nil if it does not exist.
func (s *ChromemStore) getCollection() *chromem.Collection {
	return s.db.GetCollection(s.config.CollectionName, embeddingFunc)
}

// EnsureCollection creates the collection if it does not already exist.
func (s *ChromemStore) EnsureCollection(ctx context.Context) error {
	_, span := chromemTracer.Start(ctx, "ChromemStore.EnsureCollection")
	defer span.End()

	span.SetAttributes(attribute.String("collection", s.config.CollectionName))

	if s.getCollection() != nil {
		span.SetAttributes(attribute.Bool("created", false))
		span.SetStatus(codes.Ok, "already exists")
		return nil
	}

	if _, err := s.db.CreateCollection(s.config.CollectionName, nil, embeddingFunc); err != nil {
		// Lost a creation race; the collection exists now, which is the goal.
		if strings.Contains(err.Error(), "already exists") {
			span.SetStatus(codes.Ok, "already exists")
			return nil
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("creating collection %s: %w", s.config.CollectionName, err)
	}

	s.logger.Info("created chromem collection", zap.String("collection", s.config.CollectionName))
	span.SetAttributes(attribute.Bool("created", true))
	span.SetStatus(codes.Ok, "created")
	return nil
}

// Upsert writes vectors and chunks as one batch.
func (s *ChromemStore) Upsert(ctx context.Context, vectors [][]float32, chunks []Chunk) ([]string, error) {
	ctx, span := chromemTracer.Start(ctx, "ChromemStore.Upsert")
	defer span.End()

	span.SetAttributes(
		attribute.Int("point_count", len(chunks)),
		attribute.String("collection", s.config.CollectionName),
	)

	if len(vectors) != len(chunks) {
		err := fmt.Errorf("%w: %d vectors, %d chunks", ErrLengthMismatch, len(vectors), len(chunks))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if len(chunks) == 0 {
		return nil, ErrEmptyBatch
	}

	collection := s.getCollection()
	if collection == nil {
		span.SetStatus(codes.Error, "collection not found")
		return nil, ErrCollectionNotFound
	}

	docs := make([]chromem.Document, len(chunks))
	ids := make([]string, len(chunks))
	for i, chunk := range chunks {
		if len(vectors[i]) != s.config.VectorSize {
			err := fmt.Errorf("%w: vector %d has %d dimensions, collection expects %d",
				ErrDimensionMismatch, i, len(vectors[i]), s.config.VectorSize)
			span.RecordError(err)
			return nil, err
		}

		ids[i] = PointID(chunk)
		docs[i] = chromem.Document{
			ID:      ids[i],
			Content: chunk.Text,
			Metadata: map[string]string{
				"source_url":  chunk.SourceURL,
				"chunk_index": strconv.Itoa(chunk.Index),
			},
			Embedding: vectors[i],
		}
	}

	// Concurrency of 1 since embeddings are already computed.
	if err := collection.AddDocuments(ctx, docs, 1); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("adding documents: %w", err)
	}

	s.logger.Debug("upserted chunks to chromem",
		zap.String("collection", s.config.CollectionName),
		zap.Int("count", len(ids)),
	)

	span.SetAttributes(attribute.Int("points_added", len(ids)))
	span.SetStatus(codes.Ok, "success")
	return ids, nil
}

// Search returns the stored chunks nearest to queryVector.
func (s *ChromemStore) Search(ctx context.Context, queryVector []float32, limit int) ([]SearchResult, error) {
	ctx, span := chromemTracer.Start(ctx, "ChromemStore.Search")
	defer span.End()

	span.SetAttributes(
		attribute.String("collection", s.config.CollectionName),
		attribute.Int("limit", limit),
	)

	if limit <= 0 {
		return nil, fmt.Errorf("limit must be positive, got %d", limit)
	}
	if len(queryVector) != s.config.VectorSize {
		err := fmt.Errorf("%w: query vector has %d dimensions, collection expects %d",
			ErrDimensionMismatch, len(queryVector), s.config.VectorSize)
		span.RecordError(err)
		return nil, err
	}

	collection := s.getCollection()
	if collection == nil {
		span.SetStatus(codes.Error, "collection not found")
		return nil, ErrCollectionNotFound
	}

	// chromem requires nResults <= document count.
	docCount := collection.Count()
	if docCount == 0 {
		span.SetStatus(codes.Ok, "empty collection")
		return []SearchResult{}, nil
	}
	if limit > docCount {
		limit = docCount
	}

	results, err := collection.QueryEmbedding(ctx, queryVector, limit, nil, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("querying collection %s: %w", s.config.CollectionName, err)
	}

	searchResults := make([]SearchResult, len(results))
	for i, r := range results {
		searchResults[i] = SearchResult{
			ID:        r.ID,
			Text:      r.Content,
			SourceURL: r.Metadata["source_url"],
			Score:     r.Similarity,
		}
	}

	span.SetAttributes(attribute.Int("results_count", len(searchResults)))
	span.SetStatus(codes.Ok, "success")
	return searchResults, nil
}

// DeleteCollection drops the collection. Returns whether it existed.
func (s *ChromemStore) DeleteCollection(ctx context.Context) (bool, error) {
	_, span := chromemTracer.Start(ctx, "ChromemStore.DeleteCollection")
	defer span.End()

	span.SetAttributes(attribute.String("collection", s.config.CollectionName))

	if s.getCollection() == nil {
		span.SetAttributes(attribute.Bool("deleted", false))
		span.SetStatus(codes.Ok, "already absent")
		return false, nil
	}

	if err := s.db.DeleteCollection(s.config.CollectionName); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return false, fmt.Errorf("deleting collection %s: %w", s.config.CollectionName, err)
	}

	s.logger.Info("deleted chromem collection", zap.String("collection", s.config.CollectionName))
	span.SetAttributes(attribute.Bool("deleted", true))
	span.SetStatus(codes.Ok, "success")
	return true, nil
}

// CollectionExists checks if the collection exists.
func (s *ChromemStore) CollectionExists(ctx context.Context) (bool, error) {
	_, span := chromemTracer.Start(ctx, "ChromemStore.CollectionExists")
	defer span.End()

	exists := s.getCollection() != nil
	span.SetAttributes(attribute.Bool("exists", exists))
	span.SetStatus(codes.Ok, "success")
	return exists, nil
}

// Close releases resources. The embedded DB has nothing to close.
func (s *ChromemStore) Close() error {
	return nil
}

// Ensure ChromemStore implements Store interface.
var _ Store = (*ChromemStore)(nil)
