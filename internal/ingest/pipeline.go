// Package ingest coordinates document ingestion: chunk the text, embed
// each chunk, and store the embedding records.
package ingest

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/minber-ai/minber/internal/chunker"
	"github.com/minber-ai/minber/internal/core"
	"github.com/minber-ai/minber/internal/logger"
)

// DefaultDocumentType is assumed when the caller does not label the
// upload.
const DefaultDocumentType = "manual"

// Pipeline runs Chunker → EmbedService → VectorStore per document.
type Pipeline struct {
	embedder core.EmbedService
	store    core.VectorStore

	targetSize int
	workers    int
}

// NewPipeline creates an ingestion pipeline. workers bounds the number of
// chunks embedded and stored concurrently.
func NewPipeline(embedder core.EmbedService, store core.VectorStore, targetSize, workers int) *Pipeline {
	if targetSize <= 0 {
		targetSize = chunker.DefaultTargetSize
	}
	if workers <= 0 {
		workers = 4
	}
	return &Pipeline{
		embedder:   embedder,
		store:      store,
		targetSize: targetSize,
		workers:    workers,
	}
}

// Ingest chunks rawText and embeds and stores each chunk. A failing
// chunk is logged and skipped so one bad chunk cannot void a large
// upload; the report carries both the processed and the produced chunk
// counts and the caller must surface any discrepancy.
//
// Already-stored chunks are not rolled back on cancellation; a retried
// ingestion may therefore duplicate records.
func (p *Pipeline) Ingest(ctx context.Context, rawText, documentName, documentType string) (core.IngestReport, error) {
	if strings.TrimSpace(rawText) == "" {
		return core.IngestReport{}, &core.ValidationError{Field: "documentText", Reason: "must not be empty"}
	}
	if strings.TrimSpace(documentName) == "" {
		return core.IngestReport{}, &core.ValidationError{Field: "documentName", Reason: "must not be empty"}
	}
	if documentType == "" {
		documentType = DefaultDocumentType
	}

	logger.Info("Processing document: %s", documentName)

	chunks := chunker.Split(rawText, p.targetSize)
	logger.Info("Created %d chunks for %s", len(chunks), documentName)

	processedAt := time.Now().UTC()
	var processed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)

	for i, text := range chunks {
		g.Go(func() error {
			if err := p.processChunk(gctx, text, i, len(chunks), documentName, documentType, processedAt); err != nil {
				// Skip-and-continue: the error is already logged with
				// its chunk context.
				return nil
			}
			processed.Add(1)
			return nil
		})
	}

	// Worker errors are swallowed above; Wait only surfaces context
	// cancellation via gctx.
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return core.IngestReport{}, err
	}

	report := core.IngestReport{
		DocumentName:    documentName,
		ChunksProcessed: int(processed.Load()),
		TotalChunks:     len(chunks),
		Message:         fmt.Sprintf("%s başarıyla işlendi. %d parça veritabanına eklendi.", documentName, processed.Load()),
	}

	logger.Info("Successfully processed %d/%d chunks for %s", report.ChunksProcessed, report.TotalChunks, documentName)
	return report, nil
}

func (p *Pipeline) processChunk(ctx context.Context, text string, index, total int, documentName, documentType string, processedAt time.Time) error {
	vector, err := p.embedder.EmbedText(ctx, text)
	if err != nil {
		logger.Error("Failed to embed chunk %d/%d of %s: %v", index+1, total, documentName, err)
		return err
	}

	record := core.EmbeddingRecord{
		DocumentName: documentName,
		ChunkText:    text,
		Vector:       vector,
		Metadata: core.ChunkMetadata{
			ChunkIndex:   index,
			TotalChunks:  total,
			DocumentType: documentType,
			ProcessedAt:  processedAt,
		},
	}

	if _, err := p.store.Store(ctx, record); err != nil {
		logger.Error("Failed to store chunk %d/%d of %s: %v", index+1, total, documentName, err)
		return err
	}

	logger.Debug("Stored chunk %d/%d of %s", index+1, total, documentName)
	return nil
}
