// Package http provides the HTTP API for answerd.
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/fyrsmithlabs/answerd/internal/ingest"
	"github.com/fyrsmithlabs/answerd/internal/logging"
	"github.com/fyrsmithlabs/answerd/internal/vectorstore"
)

const (
	statusHealthy  = "Healthy"
	statusSuccess  = "Success"
	statusAccepted = "Accepted"

	// noContextFallback stands in for retrieved context when the search
	// returns nothing.
	noContextFallback = "No relevant context found."

	chatLogTimeout = 10 * time.Second
)

// Ingestor runs the ingestion pipeline.
type Ingestor interface {
	Ingest(ctx context.Context, url string) (*ingest.Result, error)
	IngestAsync(url string) string
	Job(jobID string) (ingest.Job, bool)
}

// Embedder embeds a single query.
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Answerer generates an answer from a question and retrieved context.
type Answerer interface {
	Answer(ctx context.Context, question, contextData string) (string, error)
}

// ChatLogger persists question/answer exchanges.
type ChatLogger interface {
	Insert(ctx context.Context, url, query, answer string) (string, error)
}

// Config holds HTTP server configuration.
type Config struct {
	Host string
	Port int

	// RateLimit is requests per second per client IP. Zero disables limiting.
	RateLimit float64

	// SearchLimit is the number of context chunks retrieved per question.
	// Default: 5
	SearchLimit int
}

// Server provides the answerd HTTP endpoints.
type Server struct {
	echo     *echo.Echo
	logger   *zap.Logger
	config   *Config
	ingestor Ingestor
	store    vectorstore.Store
	embedder Embedder
	answerer Answerer
	chatLog  ChatLogger // nil disables chat logging

	// lastURL is the most recently ingested URL, recorded with chat logs.
	mu      sync.Mutex
	lastURL string
}

// NewServer creates the HTTP server. chatLog may be nil to disable the
// chat-log sink.
func NewServer(cfg *Config, ingestor Ingestor, store vectorstore.Store, embedder Embedder, answerer Answerer, chatLog ChatLogger, logger *zap.Logger) (*Server, error) {
	if ingestor == nil {
		return nil, errors.New("ingestor is required")
	}
	if store == nil {
		return nil, errors.New("vector store is required")
	}
	if embedder == nil {
		return nil, errors.New("embedder is required")
	}
	if answerer == nil {
		return nil, errors.New("answerer is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.Host == "" {
		cfg.Host = "0.0.0.0"
	}
	if cfg.Port == 0 {
		cfg.Port = 8000
	}
	if cfg.SearchLimit == 0 {
		cfg.SearchLimit = 5
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:     e,
		logger:   logger,
		config:   cfg,
		ingestor: ingestor,
		store:    store,
		embedder: embedder,
		answerer: answerer,
		chatLog:  chatLog,
	}

	e.HTTPErrorHandler = s.handleError

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	if cfg.RateLimit > 0 {
		e.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(rate.Limit(cfg.RateLimit))))
	}
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			// Carry the request id in the context so downstream log records
			// correlate with this request.
			requestID := c.Response().Header().Get(echo.HeaderXRequestID)
			req := c.Request()
			c.SetRequest(req.WithContext(logging.WithRequestID(req.Context(), requestID)))

			err := next(c)
			duration := time.Since(start)

			logger.Info("http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", duration),
				zap.String("request_id", requestID),
			)

			return err
		}
	})
	e.Use(NewHTTPMetrics(logger).MetricsMiddleware())

	s.registerRoutes()

	return s, nil
}

// registerRoutes sets up the HTTP endpoints.
func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)

	v1 := s.echo.Group("/api/v1")
	v1.POST("/process_url", s.handleProcessURL)
	v1.GET("/jobs/:id", s.handleJob)
	v1.POST("/get_answer", s.handleGetAnswer)
	v1.POST("/delete_collection", s.handleDeleteCollection)
}

// handleError renders every error as an ErrorResponse with a detail field.
func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	detail := "internal server error"

	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		if msg, ok := he.Message.(string); ok {
			detail = msg
		}
	}

	if code >= http.StatusInternalServerError {
		s.logger.Error("request failed",
			zap.String("uri", c.Request().RequestURI),
			zap.Int("status", code),
			zap.Error(err),
		)
	}

	if jsonErr := c.JSON(code, ErrorResponse{Detail: detail}); jsonErr != nil {
		s.logger.Error("writing error response", zap.Error(jsonErr))
	}
}

// handleHealth reports service liveness.
func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{
		Status:  statusHealthy,
		Message: "API is up and running.",
	})
}

// handleProcessURL ingests the content behind a URL into the vector store.
// With background set, ingestion runs asynchronously and the job id is
// returned for polling.
func (s *Server) handleProcessURL(c echo.Context) error {
	var req ProcessURLRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(req.URL) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "url field is required")
	}

	// Recorded on submission, not on completion: chat logs attribute
	// exchanges to the most recently submitted URL even if its ingestion
	// fails or is still running.
	s.mu.Lock()
	s.lastURL = req.URL
	s.mu.Unlock()

	if req.Background {
		jobID := s.ingestor.IngestAsync(req.URL)
		return c.JSON(http.StatusAccepted, JobAcceptedResponse{
			Status: statusAccepted,
			JobID:  jobID,
		})
	}

	if _, err := s.ingestor.Ingest(c.Request().Context(), req.URL); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, fmt.Sprintf("failed to process URL: %v", err))
	}

	return c.JSON(http.StatusOK, ProcessURLResponse{
		Status: statusSuccess,
		Answer: "Your content is loaded successfully",
	})
}

// handleJob returns the state of a background ingestion job.
func (s *Server) handleJob(c echo.Context) error {
	job, ok := s.ingestor.Job(c.Param("id"))
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "job not found")
	}
	return c.JSON(http.StatusOK, job)
}

// handleGetAnswer retrieves context for the question and asks the chat model.
func (s *Server) handleGetAnswer(c echo.Context) error {
	var req AnswerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(req.QueryText) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "query_text field is required")
	}

	ctx := c.Request().Context()

	vector, err := s.embedder.EmbedQuery(ctx, req.QueryText)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, fmt.Sprintf("failed to embed query: %v", err))
	}

	results, err := s.store.Search(ctx, vector, s.config.SearchLimit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, fmt.Sprintf("failed to search collection: %v", err))
	}

	contextData := noContextFallback
	if len(results) > 0 {
		texts := make([]string, len(results))
		for i, r := range results {
			texts[i] = r.Text
		}
		contextData = strings.Join(texts, "\n")
	}

	answer, err := s.answerer.Answer(ctx, req.QueryText, contextData)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, fmt.Sprintf("failed to generate answer: %v", err))
	}

	s.logChat(req.QueryText, answer)

	return c.JSON(http.StatusOK, AnswerResponse{
		Status: statusSuccess,
		Answer: answer,
	})
}

// logChat writes the exchange to the chat-log sink on a background
// goroutine. Sink failures are logged, never surfaced to the client.
func (s *Server) logChat(query, answer string) {
	if s.chatLog == nil {
		return
	}

	s.mu.Lock()
	url := s.lastURL
	s.mu.Unlock()

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), chatLogTimeout)
		defer cancel()

		if _, err := s.chatLog.Insert(ctx, url, query, answer); err != nil {
			s.logger.Warn("chat log insert failed", zap.Error(err))
		}
	}()
}

// handleDeleteCollection drops the vector store collection. Deleting a
// collection that does not exist succeeds with a distinct message.
func (s *Server) handleDeleteCollection(c echo.Context) error {
	deleted, err := s.store.DeleteCollection(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, fmt.Sprintf("failed to delete collection: %v", err))
	}

	message := "Collection does not exist, nothing to delete"
	if deleted {
		message = "Collection deleted successfully"
	}

	return c.JSON(http.StatusOK, DeleteCollectionResponse{
		Status:  statusSuccess,
		Message: message,
	})
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.logger.Info("starting http server", zap.String("addr", addr))
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.echo.Shutdown(ctx)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Echo exposes the underlying router so callers can attach extra routes,
// such as the metrics endpoint.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}
