package core

import "time"

// Block reasons reported to the caller when the content guard refuses a question.
const (
	ReasonNonReligious    = "non_religious_content"
	ReasonPromptInjection = "prompt_injection"
)

// Chunk is a bounded contiguous slice of a source document's text,
// the unit of embedding and retrieval.
type Chunk struct {
	Text         string `json:"text"`
	Index        int    `json:"index"`
	DocumentName string `json:"document_name"`
	TotalChunks  int    `json:"total_chunks"`
}

// ChunkMetadata travels with every stored embedding record.
type ChunkMetadata struct {
	ChunkIndex   int       `json:"chunk_index"`
	TotalChunks  int       `json:"total_chunks"`
	DocumentType string    `json:"document_type"`
	ProcessedAt  time.Time `json:"processed_at"`
}

// EmbeddingRecord is the unit of storage in the vector store.
// All records for a given embedding model share one vector dimension;
// mixing models invalidates similarity comparisons.
type EmbeddingRecord struct {
	ID           string        `json:"id"`
	DocumentName string        `json:"document_name"`
	ChunkText    string        `json:"chunk_text"`
	Vector       []float32     `json:"vector"`
	Metadata     ChunkMetadata `json:"metadata"`
}

// SearchResult is one retrieved chunk with its similarity score.
type SearchResult struct {
	DocumentName string        `json:"document_name"`
	ChunkText    string        `json:"chunk_text"`
	Similarity   float32       `json:"similarity"`
	Metadata     ChunkMetadata `json:"metadata"`
}

// Answer is the orchestrator's terminal response for an asked question.
type Answer struct {
	Response string   `json:"response"`
	Blocked  bool     `json:"blocked"`
	Reason   string   `json:"reason,omitempty"`
	Sources  []string `json:"sources,omitempty"`
}

// IngestReport summarizes one document ingestion.
// ChunksProcessed may be lower than TotalChunks when individual chunks
// failed to embed or store; the caller must surface the discrepancy.
type IngestReport struct {
	DocumentName    string `json:"document_name"`
	ChunksProcessed int    `json:"chunks_processed"`
	TotalChunks     int    `json:"total_chunks"`
	Message         string `json:"message"`
}
