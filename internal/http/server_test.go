package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/answerd/internal/ingest"
	"github.com/fyrsmithlabs/answerd/internal/logging"
	"github.com/fyrsmithlabs/answerd/internal/vectorstore"
)

type fakeIngestor struct {
	ingestErr error
	gotURL    string
	gotCtx    context.Context
	jobs      map[string]ingest.Job
}

func (f *fakeIngestor) Ingest(ctx context.Context, url string) (*ingest.Result, error) {
	f.gotURL = url
	f.gotCtx = ctx
	if f.ingestErr != nil {
		return nil, f.ingestErr
	}
	return &ingest.Result{Documents: 1, Chunks: 3}, nil
}

func (f *fakeIngestor) IngestAsync(url string) string {
	f.gotURL = url
	return "job-123"
}

func (f *fakeIngestor) Job(jobID string) (ingest.Job, bool) {
	job, ok := f.jobs[jobID]
	return job, ok
}

type fakeSearchStore struct {
	results   []vectorstore.SearchResult
	searchErr error
	deleted   bool
	deleteErr error
}

func (f *fakeSearchStore) EnsureCollection(ctx context.Context) error { return nil }

func (f *fakeSearchStore) Upsert(ctx context.Context, vectors [][]float32, chunks []vectorstore.Chunk) ([]string, error) {
	return nil, nil
}

func (f *fakeSearchStore) Search(ctx context.Context, queryVector []float32, limit int) ([]vectorstore.SearchResult, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	if limit < len(f.results) {
		return f.results[:limit], nil
	}
	return f.results, nil
}

func (f *fakeSearchStore) DeleteCollection(ctx context.Context) (bool, error) {
	return f.deleted, f.deleteErr
}

func (f *fakeSearchStore) CollectionExists(ctx context.Context) (bool, error) { return true, nil }
func (f *fakeSearchStore) Close() error                                       { return nil }

type fakeQueryEmbedder struct {
	err error
}

func (f *fakeQueryEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []float32{0.1, 0.2}, nil
}

type fakeAnswerer struct {
	answer     string
	err        error
	gotContext string
	gotQuery   string
}

func (f *fakeAnswerer) Answer(ctx context.Context, question, contextData string) (string, error) {
	f.gotQuery = question
	f.gotContext = contextData
	if f.err != nil {
		return "", f.err
	}
	return f.answer, nil
}

type fakeChatLogger struct {
	inserted chan [3]string
}

func (f *fakeChatLogger) Insert(ctx context.Context, url, query, answer string) (string, error) {
	f.inserted <- [3]string{url, query, answer}
	return "id", nil
}

type serverFixture struct {
	server   *Server
	ingestor *fakeIngestor
	store    *fakeSearchStore
	embedder *fakeQueryEmbedder
	answerer *fakeAnswerer
	chatLog  *fakeChatLogger
}

func newFixture(t *testing.T) *serverFixture {
	t.Helper()

	fx := &serverFixture{
		ingestor: &fakeIngestor{jobs: map[string]ingest.Job{}},
		store:    &fakeSearchStore{},
		embedder: &fakeQueryEmbedder{},
		answerer: &fakeAnswerer{answer: "generated answer"},
		chatLog:  &fakeChatLogger{inserted: make(chan [3]string, 1)},
	}

	server, err := NewServer(&Config{SearchLimit: 5}, fx.ingestor, fx.store, fx.embedder, fx.answerer, fx.chatLog, zap.NewNop())
	require.NoError(t, err)
	fx.server = server
	return fx
}

func (fx *serverFixture) do(method, path, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echoContentType, echoJSONType)
	rec := httptest.NewRecorder()
	fx.server.Handler().ServeHTTP(rec, req)
	return rec
}

const (
	echoContentType = "Content-Type"
	echoJSONType    = "application/json"
)

func TestHealth(t *testing.T) {
	fx := newFixture(t)

	rec := fx.do(http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"Healthy","message":"API is up and running."}`, rec.Body.String())
}

func TestProcessURL(t *testing.T) {
	fx := newFixture(t)

	rec := fx.do(http.MethodPost, "/api/v1/process_url", `{"url":"https://example.com"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ProcessURLResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Success", resp.Status)
	assert.Equal(t, "Your content is loaded successfully", resp.Answer)
	assert.Equal(t, "https://example.com", fx.ingestor.gotURL)
}

func TestProcessURL_MissingURL(t *testing.T) {
	fx := newFixture(t)

	rec := fx.do(http.MethodPost, "/api/v1/process_url", `{}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Detail, "url")
}

func TestProcessURL_IngestError(t *testing.T) {
	fx := newFixture(t)
	fx.ingestor.ingestErr = errors.New("fetch failed")

	rec := fx.do(http.MethodPost, "/api/v1/process_url", `{"url":"https://example.com"}`)
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Detail, "fetch failed")
}

func TestProcessURL_RequestIDInContext(t *testing.T) {
	fx := newFixture(t)

	rec := fx.do(http.MethodPost, "/api/v1/process_url", `{"url":"https://example.com"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	// The request id assigned by the middleware must reach downstream
	// collaborators through the request context so their log records
	// correlate with the request.
	require.NotNil(t, fx.ingestor.gotCtx)
	requestID := logging.RequestIDFromContext(fx.ingestor.gotCtx)
	assert.NotEmpty(t, requestID)
	assert.Equal(t, rec.Header().Get(echo.HeaderXRequestID), requestID)
}

func TestProcessURL_Background(t *testing.T) {
	fx := newFixture(t)

	rec := fx.do(http.MethodPost, "/api/v1/process_url", `{"url":"https://example.com","background":true}`)
	require.Equal(t, http.StatusAccepted, rec.Code)

	var resp JobAcceptedResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Accepted", resp.Status)
	assert.Equal(t, "job-123", resp.JobID)
}

func TestJob(t *testing.T) {
	fx := newFixture(t)
	fx.ingestor.jobs["job-123"] = ingest.Job{
		ID:     "job-123",
		URL:    "https://example.com",
		Status: ingest.JobSucceeded,
		Chunks: 3,
	}

	rec := fx.do(http.MethodGet, "/api/v1/jobs/job-123", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var job ingest.Job
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &job))
	assert.Equal(t, ingest.JobSucceeded, job.Status)
	assert.Equal(t, 3, job.Chunks)
}

func TestJob_NotFound(t *testing.T) {
	fx := newFixture(t)

	rec := fx.do(http.MethodGet, "/api/v1/jobs/unknown", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetAnswer(t *testing.T) {
	fx := newFixture(t)
	fx.store.results = []vectorstore.SearchResult{
		{Text: "first chunk", Score: 0.9},
		{Text: "second chunk", Score: 0.8},
	}

	rec := fx.do(http.MethodPost, "/api/v1/get_answer", `{"query_text":"what is this about?"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp AnswerResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Success", resp.Status)
	assert.Equal(t, "generated answer", resp.Answer)

	// Retrieved chunks are joined with newlines for the model.
	assert.Equal(t, "first chunk\nsecond chunk", fx.answerer.gotContext)
	assert.Equal(t, "what is this about?", fx.answerer.gotQuery)
}

func TestGetAnswer_NoResultsUsesFallback(t *testing.T) {
	fx := newFixture(t)

	rec := fx.do(http.MethodPost, "/api/v1/get_answer", `{"query_text":"anything"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "No relevant context found.", fx.answerer.gotContext)
}

func TestGetAnswer_MissingQuery(t *testing.T) {
	fx := newFixture(t)

	rec := fx.do(http.MethodPost, "/api/v1/get_answer", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetAnswer_EmbedError(t *testing.T) {
	fx := newFixture(t)
	fx.embedder.err = errors.New("model loading")

	rec := fx.do(http.MethodPost, "/api/v1/get_answer", `{"query_text":"anything"}`)
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Detail, "model loading")
}

func TestGetAnswer_SearchError(t *testing.T) {
	fx := newFixture(t)
	fx.store.searchErr = vectorstore.ErrCollectionNotFound

	rec := fx.do(http.MethodPost, "/api/v1/get_answer", `{"query_text":"anything"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestGetAnswer_AnswerError(t *testing.T) {
	fx := newFixture(t)
	fx.answerer.err = errors.New("rate limited")

	rec := fx.do(http.MethodPost, "/api/v1/get_answer", `{"query_text":"anything"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestGetAnswer_LogsChat(t *testing.T) {
	fx := newFixture(t)

	rec := fx.do(http.MethodPost, "/api/v1/process_url", `{"url":"https://example.com"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = fx.do(http.MethodPost, "/api/v1/get_answer", `{"query_text":"a question"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	select {
	case entry := <-fx.chatLog.inserted:
		assert.Equal(t, "https://example.com", entry[0])
		assert.Equal(t, "a question", entry[1])
		assert.Equal(t, "generated answer", entry[2])
	case <-time.After(2 * time.Second):
		t.Fatal("chat log entry was not written")
	}
}

func TestGetAnswer_NilChatLoggerOK(t *testing.T) {
	fx := newFixture(t)
	server, err := NewServer(&Config{}, fx.ingestor, fx.store, fx.embedder, fx.answerer, nil, zap.NewNop())
	require.NoError(t, err)
	fx.server = server

	rec := fx.do(http.MethodPost, "/api/v1/get_answer", `{"query_text":"anything"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestDeleteCollection(t *testing.T) {
	fx := newFixture(t)
	fx.store.deleted = true

	rec := fx.do(http.MethodPost, "/api/v1/delete_collection", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp DeleteCollectionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Success", resp.Status)
	assert.Contains(t, resp.Message, "deleted successfully")
}

func TestDeleteCollection_AlreadyAbsent(t *testing.T) {
	fx := newFixture(t)
	fx.store.deleted = false

	rec := fx.do(http.MethodPost, "/api/v1/delete_collection", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp DeleteCollectionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Message, "does not exist")
}

func TestDeleteCollection_Error(t *testing.T) {
	fx := newFixture(t)
	fx.store.deleteErr = errors.New("qdrant unavailable")

	rec := fx.do(http.MethodPost, "/api/v1/delete_collection", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestNewServer_RequiresCollaborators(t *testing.T) {
	fx := newFixture(t)

	_, err := NewServer(nil, nil, fx.store, fx.embedder, fx.answerer, nil, zap.NewNop())
	assert.Error(t, err)

	_, err = NewServer(nil, fx.ingestor, fx.store, fx.embedder, nil, nil, zap.NewNop())
	assert.Error(t, err)
}
