// Package rag persists chunk embeddings and performs nearest-neighbor
// similarity search over them.
package rag

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/milvus-io/milvus/client/v2/column"
	"github.com/milvus-io/milvus/client/v2/entity"
	"github.com/milvus-io/milvus/client/v2/index"
	"github.com/milvus-io/milvus/client/v2/milvusclient"

	"github.com/minber-ai/minber/internal/core"
	"github.com/minber-ai/minber/internal/logger"
)

// Field names for the embeddings collection.
const (
	FieldID           = "id"
	FieldDocumentName = "document_name"
	FieldChunkText    = "chunk_text"
	FieldMetadata     = "metadata"
	FieldCreatedAt    = "created_at"
	FieldVector       = "vector"
)

// EmbeddingCollection holds one record per stored chunk.
const EmbeddingCollection = "document_embeddings"

const (
	maxIDLength    = "100"
	maxNameLength  = "512"
	maxChunkLength = "65535"
)

// MilvusStore implements core.VectorStore on a Milvus collection.
type MilvusStore struct {
	client       *milvusclient.Client
	embeddingDim int
}

// NewMilvusStore connects to Milvus and ensures the embeddings
// collection exists and is loaded.
func NewMilvusStore(ctx context.Context, addr string, embeddingDim int) (*MilvusStore, error) {
	logger.Info("Connecting to Milvus at %s with dimension %d", addr, embeddingDim)

	c, err := milvusclient.New(ctx, &milvusclient.ClientConfig{
		Address: addr,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Milvus: %w", err)
	}

	store := &MilvusStore{
		client:       c,
		embeddingDim: embeddingDim,
	}
	if err := store.EnsureCollection(ctx); err != nil {
		c.Close(ctx)
		return nil, err
	}
	return store, nil
}

// EnsureCollection creates the embeddings collection with a COSINE HNSW
// index when missing, then loads it into memory.
func (s *MilvusStore) EnsureCollection(ctx context.Context) error {
	exists, err := s.client.HasCollection(ctx, milvusclient.NewHasCollectionOption(EmbeddingCollection))
	if err != nil {
		return fmt.Errorf("failed to check if collection exists: %w", err)
	}

	if !exists {
		schema := &entity.Schema{
			CollectionName: EmbeddingCollection,
			Description:    "Chunk embeddings for retrieval-augmented answers",
			Fields: []*entity.Field{
				{
					Name:       FieldID,
					DataType:   entity.FieldTypeVarChar,
					PrimaryKey: true,
					AutoID:     false,
					TypeParams: map[string]string{
						"max_length": maxIDLength,
					},
				},
				{
					Name:     FieldDocumentName,
					DataType: entity.FieldTypeVarChar,
					TypeParams: map[string]string{
						"max_length": maxNameLength,
					},
				},
				{
					Name:     FieldChunkText,
					DataType: entity.FieldTypeVarChar,
					TypeParams: map[string]string{
						"max_length": maxChunkLength,
					},
				},
				{
					Name:     FieldMetadata,
					DataType: entity.FieldTypeJSON,
				},
				{
					Name:     FieldCreatedAt,
					DataType: entity.FieldTypeInt64,
				},
				{
					Name:     FieldVector,
					DataType: entity.FieldTypeFloatVector,
					TypeParams: map[string]string{
						"dim": fmt.Sprintf("%d", s.embeddingDim),
					},
				},
			},
		}

		createOpt := milvusclient.NewCreateCollectionOption(EmbeddingCollection, schema)
		createOpt.WithShardNum(1)
		if err := s.client.CreateCollection(ctx, createOpt); err != nil {
			return fmt.Errorf("failed to create collection: %w", err)
		}

		idx := index.NewHNSWIndex(entity.COSINE, 16, 200)
		indexOpt := milvusclient.NewCreateIndexOption(EmbeddingCollection, FieldVector, idx)
		if _, err := s.client.CreateIndex(ctx, indexOpt); err != nil {
			return fmt.Errorf("failed to create index on vector field: %w", err)
		}

		logger.Info("Created collection %s with COSINE HNSW index", EmbeddingCollection)
	}

	loadOpt := milvusclient.NewLoadCollectionOption(EmbeddingCollection)
	task, err := s.client.LoadCollection(ctx, loadOpt)
	if err != nil {
		return fmt.Errorf("failed to load collection %s: %w", EmbeddingCollection, err)
	}
	// Search requires a loaded collection; block until the load completes.
	if err := task.Await(ctx); err != nil {
		return fmt.Errorf("failed waiting for collection %s to load: %w", EmbeddingCollection, err)
	}

	return nil
}

// Store writes one embedding record and returns its id.
func (s *MilvusStore) Store(ctx context.Context, record core.EmbeddingRecord) (string, error) {
	id := record.ID
	if id == "" {
		id = uuid.NewString()
	}

	metadataBytes, err := json.Marshal(record.Metadata)
	if err != nil {
		return "", &core.PersistenceError{DocumentName: record.DocumentName, ChunkIndex: record.Metadata.ChunkIndex, Err: err}
	}

	insertOpt := milvusclient.NewColumnBasedInsertOption(EmbeddingCollection,
		column.NewColumnVarChar(FieldID, []string{id}),
		column.NewColumnVarChar(FieldDocumentName, []string{record.DocumentName}),
		column.NewColumnVarChar(FieldChunkText, []string{record.ChunkText}),
		column.NewColumnJSONBytes(FieldMetadata, [][]byte{metadataBytes}),
		column.NewColumnInt64(FieldCreatedAt, []int64{time.Now().Unix()}),
		column.NewColumnFloatVector(FieldVector, s.embeddingDim, [][]float32{record.Vector}),
	)

	if _, err := s.client.Insert(ctx, insertOpt); err != nil {
		return "", &core.PersistenceError{DocumentName: record.DocumentName, ChunkIndex: record.Metadata.ChunkIndex, Err: err}
	}

	return id, nil
}

// Search returns up to limit records whose cosine similarity to vector
// clears threshold, ordered by descending similarity. An empty result is
// not an error.
func (s *MilvusStore) Search(ctx context.Context, vector []float32, threshold float32, limit int) ([]core.SearchResult, error) {
	if limit <= 0 {
		limit = 3
	}

	searchOpt := milvusclient.NewSearchOption(EmbeddingCollection, limit, []entity.Vector{entity.FloatVector(vector)}).
		WithANNSField(FieldVector).
		WithOutputFields(FieldDocumentName, FieldChunkText, FieldMetadata)

	resultSets, err := s.client.Search(ctx, searchOpt)
	if err != nil {
		return nil, &core.ProviderError{Provider: "milvus", Operation: "search", Err: err}
	}

	if len(resultSets) == 0 {
		return []core.SearchResult{}, nil
	}

	rs := resultSets[0]
	results := make([]core.SearchResult, 0, rs.ResultCount)

	nameCol := rs.GetColumn(FieldDocumentName)
	textCol := rs.GetColumn(FieldChunkText)
	metaCol := rs.GetColumn(FieldMetadata)
	if nameCol == nil || textCol == nil {
		return []core.SearchResult{}, nil
	}

	for i := 0; i < rs.ResultCount && i < len(rs.Scores); i++ {
		score := rs.Scores[i]
		if score < threshold {
			// Scores are non-increasing; nothing further clears the bar.
			break
		}

		name, err := nameCol.GetAsString(i)
		if err != nil {
			logger.Warn("Skipping search hit %d: unreadable document name: %v", i, err)
			continue
		}
		text, err := textCol.GetAsString(i)
		if err != nil {
			logger.Warn("Skipping search hit %d: unreadable chunk text: %v", i, err)
			continue
		}

		var metadata core.ChunkMetadata
		if metaCol != nil {
			if raw, err := metaCol.GetAsString(i); err == nil {
				_ = json.Unmarshal([]byte(raw), &metadata)
			}
		}

		results = append(results, core.SearchResult{
			DocumentName: name,
			ChunkText:    text,
			Similarity:   score,
			Metadata:     metadata,
		})
	}

	return results, nil
}

// ListDocuments returns up to max distinct stored document names. It
// pages through the collection until max names are seen or the rows run
// out. Milvus caps offset+limit at 16384 per query window, so names
// first appearing beyond that many chunks are not observed.
func (s *MilvusStore) ListDocuments(ctx context.Context, max int) ([]string, error) {
	if max <= 0 {
		max = 20
	}

	const pageSize = 1000
	const scanWindow = 16384

	seen := make(map[string]struct{})
	names := make([]string, 0)

	for offset := 0; offset < scanWindow && len(names) < max; offset += pageSize {
		limit := pageSize
		if offset+limit > scanWindow {
			limit = scanWindow - offset
		}

		queryOpt := milvusclient.NewQueryOption(EmbeddingCollection).
			WithOutputFields(FieldDocumentName).
			WithOffset(offset).
			WithLimit(limit)

		results, err := s.client.Query(ctx, queryOpt)
		if err != nil {
			return nil, fmt.Errorf("failed to query document names: %w", err)
		}

		nameCol := results.GetColumn(FieldDocumentName)
		if nameCol == nil || nameCol.Len() == 0 {
			break
		}

		names = appendDistinctNames(seen, names, nameCol, max)

		if nameCol.Len() < limit {
			break
		}
	}

	logger.Debug("Fetched %d distinct document names", len(names))
	return names, nil
}

// appendDistinctNames folds one page of name values into names, keeping
// first-seen order and stopping at max. Unreadable or empty values are
// skipped.
func appendDistinctNames(seen map[string]struct{}, names []string, col column.Column, max int) []string {
	for i := 0; i < col.Len(); i++ {
		name, err := col.GetAsString(i)
		if err != nil || name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
		if len(names) >= max {
			break
		}
	}
	return names
}

// Close closes the connection to Milvus.
func (s *MilvusStore) Close(ctx context.Context) error {
	return s.client.Close(ctx)
}

// GetEmbeddingDim returns the dimensionality of stored vectors.
func (s *MilvusStore) GetEmbeddingDim() int {
	return s.embeddingDim
}
