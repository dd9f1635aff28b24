// Package vectorstore provides vector storage for embedded web page chunks.
//
// A Store owns a single named collection of fixed-dimension vectors compared
// by cosine similarity. Two backends are available behind the same interface:
//
//   - QdrantStore talks to an external Qdrant server over gRPC.
//   - ChromemStore embeds chromem-go for zero-dependency deployments.
//
// Use NewStore to pick a backend from configuration.
package vectorstore
