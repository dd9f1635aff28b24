// Package chat composes answers with a chat model conditioned on retrieved
// context.
package chat

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

var (
	// ErrMissingAPIKey indicates no chat model credential was configured.
	ErrMissingAPIKey = errors.New("chat API key is required")

	// ErrGenerationFailed indicates the chat model call failed.
	ErrGenerationFailed = errors.New("answer generation failed")
)

// systemPromptFormat frames the retrieved context for the model.
const systemPromptFormat = "You are a helpful AI assistant. Use the provided context: '%s' to answer questions clearly don't make up anything."

// Config holds the chat model configuration.
type Config struct {
	// APIKey is the model provider credential. Required.
	APIKey string

	// Model is the chat model name. Default: gpt-3.5-turbo
	Model string

	// Temperature is the sampling temperature. Default: 0.5
	Temperature float64
}

// ApplyDefaults fills zero values with defaults.
func (c *Config) ApplyDefaults() {
	if c.Model == "" {
		c.Model = "gpt-3.5-turbo"
	}
	if c.Temperature == 0 {
		c.Temperature = 0.5
	}
}

// model is the slice of the llms.Model surface the composer needs,
// extracted so tests can substitute a fake.
type model interface {
	GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error)
}

// Composer holds a running conversation and answers questions against
// supplied context.
//
// The conversation history persists for the composer's lifetime. The system
// message carrying the context is inserted once, on the first call, and is
// NOT replaced by later calls with different context; subsequent questions
// are answered against the original context plus the accumulated exchange.
type Composer struct {
	llm         model
	temperature float64

	mu      sync.Mutex
	history []llms.MessageContent
}

// New creates a Composer from config. Returns ErrMissingAPIKey when the
// credential is absent.
func New(cfg Config) (*Composer, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	cfg.ApplyDefaults()

	llm, err := openai.New(
		openai.WithToken(cfg.APIKey),
		openai.WithModel(cfg.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("creating chat model: %w", err)
	}

	return &Composer{
		llm:         llm,
		temperature: cfg.Temperature,
	}, nil
}

// Answer sends the question to the chat model along with the conversation
// history and returns the model's reply. contextData is the retrieved
// context for the question; it only takes effect on the first call (see the
// type comment).
func (c *Composer) Answer(ctx context.Context, question, contextData string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.ensureSystemMessage(contextData)
	c.history = append(c.history, llms.TextParts(llms.ChatMessageTypeHuman, question))

	resp, err := c.llm.GenerateContent(ctx, c.history, llms.WithTemperature(c.temperature))
	if err != nil {
		// Drop the unanswered question so a retry does not duplicate it.
		c.history = c.history[:len(c.history)-1]
		return "", fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	if len(resp.Choices) == 0 {
		c.history = c.history[:len(c.history)-1]
		return "", fmt.Errorf("%w: model returned no choices", ErrGenerationFailed)
	}

	answer := resp.Choices[0].Content
	c.history = append(c.history, llms.TextParts(llms.ChatMessageTypeAI, answer))
	return answer, nil
}

// ensureSystemMessage guarantees exactly one system message at position 0.
// Present is left as-is, absent is inserted at the front.
func (c *Composer) ensureSystemMessage(contextData string) {
	if len(c.history) > 0 && c.history[0].Role == llms.ChatMessageTypeSystem {
		return
	}
	system := llms.TextParts(llms.ChatMessageTypeSystem, fmt.Sprintf(systemPromptFormat, contextData))
	c.history = append([]llms.MessageContent{system}, c.history...)
}

// HistoryLen reports the number of messages in the conversation.
func (c *Composer) HistoryLen() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.history)
}
