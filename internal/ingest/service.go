// Package ingest orchestrates the web page ingestion pipeline: fetch,
// split, embed, and upsert into the vector store.
package ingest

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/answerd/internal/fetcher"
	"github.com/fyrsmithlabs/answerd/internal/logging"
	"github.com/fyrsmithlabs/answerd/internal/vectorstore"
)

// Embedder generates embeddings for texts.
type Embedder interface {
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
}

// Fetcher retrieves web pages as documents.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]fetcher.Document, error)
}

// Splitter chunks document text.
type Splitter interface {
	Split(text string) ([]string, error)
}

// Result summarizes a completed ingestion.
type Result struct {
	// Documents is the number of pages fetched.
	Documents int

	// Chunks is the number of chunks indexed.
	Chunks int

	// PointIDs are the ids of the upserted points.
	PointIDs []string
}

// Config holds ingestion service configuration.
type Config struct {
	// JobTimeout bounds one background ingestion run. Default: 5m
	JobTimeout time.Duration
}

// Service runs the ingestion pipeline.
type Service struct {
	store      vectorstore.Store
	embedder   Embedder
	splitter   Splitter
	fetcher    Fetcher
	registry   *Registry
	logger     *logging.Logger
	jobTimeout time.Duration
}

// NewService creates an ingestion service.
func NewService(cfg Config, store vectorstore.Store, embedder Embedder, splitter Splitter, f Fetcher, registry *Registry, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.NewNop()
	}
	if cfg.JobTimeout == 0 {
		cfg.JobTimeout = 5 * time.Minute
	}
	return &Service{
		store:      store,
		embedder:   embedder,
		splitter:   splitter,
		fetcher:    f,
		registry:   registry,
		logger:     logger,
		jobTimeout: cfg.JobTimeout,
	}
}

// Ingest fetches the page at url, splits it into chunks, embeds each
// document's chunks in one call, and writes everything to the store as a
// single batch.
func (s *Service) Ingest(ctx context.Context, url string) (*Result, error) {
	if err := s.store.EnsureCollection(ctx); err != nil {
		return nil, fmt.Errorf("ensuring collection: %w", err)
	}

	docs, err := s.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", url, err)
	}

	var allVectors [][]float32
	var allChunks []vectorstore.Chunk

	for _, doc := range docs {
		texts, err := s.splitter.Split(doc.Text)
		if err != nil {
			return nil, fmt.Errorf("splitting %s: %w", doc.URL, err)
		}
		if len(texts) == 0 {
			s.logger.Warn(ctx, "document produced no chunks", zap.String("url", doc.URL))
			continue
		}

		// One embedding call per document keeps chunk order aligned with
		// the provider response.
		vectors, err := s.embedder.EmbedDocuments(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("embedding chunks of %s: %w", doc.URL, err)
		}

		for i, text := range texts {
			allVectors = append(allVectors, vectors[i])
			allChunks = append(allChunks, vectorstore.Chunk{
				Text:      text,
				SourceURL: doc.URL,
				Index:     i,
			})
		}
	}

	result := &Result{Documents: len(docs), Chunks: len(allChunks)}

	if len(allChunks) > 0 {
		ids, err := s.store.Upsert(ctx, allVectors, allChunks)
		if err != nil {
			return nil, fmt.Errorf("upserting chunks: %w", err)
		}
		result.PointIDs = ids
	}

	s.logger.Info(ctx, "ingestion complete",
		zap.String("url", url),
		zap.Int("documents", result.Documents),
		zap.Int("chunks", result.Chunks),
	)

	return result, nil
}

// IngestAsync starts ingestion on a background goroutine and returns the
// job id immediately. Progress and outcome are queryable through the job
// registry; errors are captured into job state rather than discarded.
func (s *Service) IngestAsync(url string) string {
	job := s.registry.Create(url)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.jobTimeout)
		defer cancel()

		s.registry.Started(job.ID)

		result, err := s.Ingest(ctx, url)
		if err != nil {
			s.logger.Error(ctx, "background ingestion failed",
				zap.String("job_id", job.ID),
				zap.String("url", url),
				zap.Error(err),
			)
			s.registry.Failed(job.ID, err)
			return
		}

		s.registry.Succeeded(job.ID, result.Documents, result.Chunks)
	}()

	return job.ID
}

// Job retrieves a job snapshot by id.
func (s *Service) Job(jobID string) (Job, bool) {
	return s.registry.Get(jobID)
}
