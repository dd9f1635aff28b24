package vectorstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/answerd/internal/config"
)

func TestNewStore_Chromem(t *testing.T) {
	cfg := &config.Config{}
	cfg.VectorStore.Provider = "chromem"
	cfg.VectorStore.CollectionName = "web_embeddings"
	cfg.VectorStore.VectorSize = 384
	cfg.Chromem.Path = t.TempDir()

	store, err := NewStore(cfg, zap.NewNop())
	require.NoError(t, err)
	defer store.Close()

	assert.IsType(t, &ChromemStore{}, store)
}

func TestNewStore_UnsupportedProvider(t *testing.T) {
	cfg := &config.Config{}
	cfg.VectorStore.Provider = "pinecone"

	_, err := NewStore(cfg, zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported vectorstore provider")
}
