package rag

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/minber-ai/minber/internal/core"
)

// MemoryStore is an in-process core.VectorStore with exact cosine
// scoring. It backs tests and offline runs where no Milvus instance is
// available.
type MemoryStore struct {
	mu      sync.RWMutex
	records []core.EmbeddingRecord
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Store appends one embedding record and returns its id.
func (s *MemoryStore) Store(ctx context.Context, record core.EmbeddingRecord) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if record.ID == "" {
		record.ID = uuid.NewString()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, record)
	return record.ID, nil
}

// Search scores every stored record against vector with cosine
// similarity, then returns up to limit hits clearing threshold in
// descending order. Ties keep insertion order.
func (s *MemoryStore) Search(ctx context.Context, vector []float32, threshold float32, limit int) ([]core.SearchResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 3
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	type scored struct {
		result core.SearchResult
		order  int
	}
	var hits []scored

	for i, record := range s.records {
		score := CosineSimilarity(vector, record.Vector)
		if score < threshold {
			continue
		}
		hits = append(hits, scored{
			result: core.SearchResult{
				DocumentName: record.DocumentName,
				ChunkText:    record.ChunkText,
				Similarity:   score,
				Metadata:     record.Metadata,
			},
			order: i,
		})
	}

	sort.SliceStable(hits, func(a, b int) bool {
		if hits[a].result.Similarity != hits[b].result.Similarity {
			return hits[a].result.Similarity > hits[b].result.Similarity
		}
		return hits[a].order < hits[b].order
	})

	if len(hits) > limit {
		hits = hits[:limit]
	}

	results := make([]core.SearchResult, len(hits))
	for i, h := range hits {
		results[i] = h.result
	}
	return results, nil
}

// ListDocuments returns up to max distinct document names in insertion
// order.
func (s *MemoryStore) ListDocuments(ctx context.Context, max int) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if max <= 0 {
		max = 20
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{})
	names := make([]string, 0)
	for _, record := range s.records {
		if _, ok := seen[record.DocumentName]; ok {
			continue
		}
		seen[record.DocumentName] = struct{}{}
		names = append(names, record.DocumentName)
		if len(names) >= max {
			break
		}
	}
	return names, nil
}

// Len returns the number of stored records.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// CosineSimilarity computes the cosine of the angle between two vectors.
// Mismatched or zero-magnitude vectors score 0.
func CosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
