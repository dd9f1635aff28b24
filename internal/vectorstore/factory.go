package vectorstore

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/answerd/internal/config"
)

// NewStore creates a Store based on the configuration.
//
// The factory examines cfg.VectorStore.Provider and creates the matching
// implementation:
//   - "qdrant": external Qdrant server over gRPC
//   - "chromem": embedded chromem-go database (no external deps)
func NewStore(cfg *config.Config, logger *zap.Logger) (Store, error) {
	switch cfg.VectorStore.Provider {
	case "qdrant":
		return NewQdrantStore(QdrantConfig{
			Host:           cfg.Qdrant.Host,
			Port:           cfg.Qdrant.Port,
			UseTLS:         cfg.Qdrant.UseTLS,
			CollectionName: cfg.VectorStore.CollectionName,
			VectorSize:     uint64(cfg.VectorStore.VectorSize),
		})

	case "chromem":
		return NewChromemStore(ChromemConfig{
			Path:           cfg.Chromem.Path,
			Compress:       cfg.Chromem.Compress,
			CollectionName: cfg.VectorStore.CollectionName,
			VectorSize:     cfg.VectorStore.VectorSize,
		}, logger)

	default:
		return nil, fmt.Errorf("unsupported vectorstore provider: %s (supported: qdrant, chromem)", cfg.VectorStore.Provider)
	}
}
