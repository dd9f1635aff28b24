package chatlog

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestConfig_ApplyDefaults(t *testing.T) {
	cfg := Config{URI: "mongodb://localhost:27017"}
	cfg.ApplyDefaults()

	assert.Equal(t, "chatbot", cfg.Database)
	assert.Equal(t, "chat_logs", cfg.Collection)
	assert.Equal(t, 10*time.Second, cfg.ConnectTimeout)
}

func TestConfig_DefaultsKeepExplicitValues(t *testing.T) {
	cfg := Config{
		URI:        "mongodb://localhost:27017",
		Database:   "other",
		Collection: "logs",
	}
	cfg.ApplyDefaults()

	assert.Equal(t, "other", cfg.Database)
	assert.Equal(t, "logs", cfg.Collection)
}

func TestNew_MissingURI(t *testing.T) {
	_, err := New(context.Background(), Config{}, zap.NewNop())
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
