package http

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// ProcessURLRequest is the request body for POST /api/v1/process_url.
type ProcessURLRequest struct {
	URL string `json:"url"`

	// Background requests asynchronous ingestion; the response then carries
	// a job id instead of waiting for the pipeline to finish.
	Background bool `json:"background,omitempty"`
}

// ProcessURLResponse is the response body for a synchronous ingestion.
type ProcessURLResponse struct {
	Status string `json:"status"`
	Answer string `json:"answer"`
}

// JobAcceptedResponse is the response body for a background ingestion.
type JobAcceptedResponse struct {
	Status string `json:"status"`
	JobID  string `json:"job_id"`
}

// AnswerRequest is the request body for POST /api/v1/get_answer.
type AnswerRequest struct {
	QueryText string `json:"query_text"`
}

// AnswerResponse is the response body for POST /api/v1/get_answer.
type AnswerResponse struct {
	Status string `json:"status"`
	Answer string `json:"answer"`
}

// DeleteCollectionResponse is the response body for POST /api/v1/delete_collection.
type DeleteCollectionResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// ErrorResponse is the body of every error response.
type ErrorResponse struct {
	Detail string `json:"detail"`
}
