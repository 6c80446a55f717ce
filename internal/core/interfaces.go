package core

import "context"

// EmbedService converts text into a fixed-dimension vector.
// The same model must embed both chunks and queries; similarity search
// is meaningless across embedding spaces.
type EmbedService interface {
	EmbedText(ctx context.Context, text string) ([]float32, error)
}

// VectorStore persists chunk embeddings and performs similarity search.
type VectorStore interface {
	// Store writes one embedding record and returns its id.
	Store(ctx context.Context, record EmbeddingRecord) (string, error)

	// Search returns up to limit records whose similarity to vector is at
	// least threshold, ordered by descending similarity. An empty result
	// is not an error.
	Search(ctx context.Context, vector []float32, threshold float32, limit int) ([]SearchResult, error)

	// ListDocuments returns up to max distinct stored document names.
	ListDocuments(ctx context.Context, max int) ([]string, error)
}

// ChatService generates an answer from a system instruction and a user message.
type ChatService interface {
	Complete(ctx context.Context, systemPrompt, userMessage string) (string, error)
}
