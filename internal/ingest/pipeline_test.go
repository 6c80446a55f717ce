package ingest

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minber-ai/minber/internal/core"
	"github.com/minber-ai/minber/internal/rag"
)

// fakeEmbedder returns a fixed vector, failing for texts matched by
// failOn.
type fakeEmbedder struct {
	mu     sync.Mutex
	calls  int
	failOn func(text string) bool
}

func (f *fakeEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.failOn != nil && f.failOn(text) {
		return nil, &core.ProviderError{Provider: "fake", Operation: "embed", Status: 500, Err: fmt.Errorf("boom")}
	}
	return []float32{1, 0, 0}, nil
}

// fiveChunkText builds a document the chunker splits into exactly five
// chunks at target size 100: five sentences, each longer than the target
// on its own.
func fiveChunkText() string {
	var sb strings.Builder
	for i := 0; i < 5; i++ {
		sb.WriteString(fmt.Sprintf("Sentence number %d is deliberately padded with many additional words so that it exceeds one hundred characters by itself. ", i))
	}
	return sb.String()
}

func TestIngest(t *testing.T) {
	store := rag.NewMemoryStore()
	embedder := &fakeEmbedder{}
	p := NewPipeline(embedder, store, 100, 2)

	report, err := p.Ingest(context.Background(), fiveChunkText(), "ilmihal", "manual")
	require.NoError(t, err)

	assert.Equal(t, "ilmihal", report.DocumentName)
	assert.Equal(t, 5, report.TotalChunks)
	assert.Equal(t, 5, report.ChunksProcessed)
	assert.Contains(t, report.Message, "ilmihal başarıyla işlendi")
	assert.Contains(t, report.Message, "5 parça")
	assert.Equal(t, 5, store.Len())
}

func TestIngestPartialFailure(t *testing.T) {
	store := rag.NewMemoryStore()
	embedder := &fakeEmbedder{
		failOn: func(text string) bool {
			return strings.Contains(text, "Sentence number 2")
		},
	}
	p := NewPipeline(embedder, store, 100, 2)

	report, err := p.Ingest(context.Background(), fiveChunkText(), "ilmihal", "manual")
	require.NoError(t, err, "a single failed chunk must not fail the document")

	assert.Equal(t, 5, report.TotalChunks)
	assert.Equal(t, 4, report.ChunksProcessed)
	assert.Equal(t, 4, store.Len())
}

func TestIngestValidation(t *testing.T) {
	p := NewPipeline(&fakeEmbedder{}, rag.NewMemoryStore(), 0, 0)

	_, err := p.Ingest(context.Background(), "", "ilmihal", "")
	require.Error(t, err)
	assert.True(t, core.IsValidation(err))

	_, err = p.Ingest(context.Background(), "some document text", "   ", "")
	require.Error(t, err)
	assert.True(t, core.IsValidation(err))
}

func TestIngestMetadata(t *testing.T) {
	store := rag.NewMemoryStore()
	p := NewPipeline(&fakeEmbedder{}, store, 100, 1)

	_, err := p.Ingest(context.Background(), fiveChunkText(), "ilmihal", "")
	require.NoError(t, err)

	// Default document type is applied; chunk indices land intact in the
	// stored metadata regardless of storage order.
	results, err := store.Search(context.Background(), []float32{1, 0, 0}, 0.9, 5)
	require.NoError(t, err)
	require.Len(t, results, 5)

	seen := make(map[int]bool)
	for _, res := range results {
		assert.Equal(t, DefaultDocumentType, res.Metadata.DocumentType)
		assert.Equal(t, 5, res.Metadata.TotalChunks)
		seen[res.Metadata.ChunkIndex] = true
	}
	assert.Len(t, seen, 5)
}

func TestIngestCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := NewPipeline(&fakeEmbedder{}, rag.NewMemoryStore(), 100, 2)
	_, err := p.Ingest(ctx, fiveChunkText(), "ilmihal", "manual")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
