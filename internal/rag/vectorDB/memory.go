package vectorDB

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/akolanti/GoDocQA/internal/domain/commonModels"
	"github.com/akolanti/GoDocQA/internal/domain/docErrors"
)

// memoryIndex is a brute-force cosine index. It is immutable once built, so
// concurrent queries only take the read lock.
type memoryIndex struct {
	documentId string
	mu         sync.RWMutex
	built      bool
	dimension  int
	chunks     []commonModels.Chunk
	norms      []float64
}

func NewMemoryIndex(documentId string) Index {
	return &memoryIndex{documentId: documentId}
}

func MemoryFactory() Factory {
	return func(documentId string) Index { return NewMemoryIndex(documentId) }
}

func (m *memoryIndex) Build(_ context.Context, chunks []commonModels.Chunk) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.built {
		return fmt.Errorf("index for document %q is already built", m.documentId)
	}

	dimension := 0
	stored := make([]commonModels.Chunk, len(chunks))
	norms := make([]float64, len(chunks))
	for i, c := range chunks {
		if len(c.Vector) == 0 {
			return fmt.Errorf("chunk %d has no vector", c.Ordinal)
		}
		if dimension == 0 {
			dimension = len(c.Vector)
		} else if len(c.Vector) != dimension {
			return fmt.Errorf("chunk %d has dimension %d, expected %d", c.Ordinal, len(c.Vector), dimension)
		}
		stored[i] = c
		norms[i] = norm(c.Vector)
	}

	m.chunks = stored
	m.norms = norms
	m.dimension = dimension
	m.built = true
	return nil
}

func (m *memoryIndex) Query(_ context.Context, vector []float32, k int) (commonModels.RetrievalResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.built {
		return commonModels.RetrievalResult{}, &docErrors.EmptyIndexError{DocumentId: m.documentId}
	}
	if k <= 0 || len(m.chunks) == 0 {
		return commonModels.RetrievalResult{}, nil
	}
	if len(vector) != m.dimension {
		return commonModels.RetrievalResult{}, fmt.Errorf("query vector has dimension %d, index has %d", len(vector), m.dimension)
	}

	qNorm := norm(vector)
	scored := make([]commonModels.ScoredChunk, len(m.chunks))
	for i, c := range m.chunks {
		scored[i] = commonModels.ScoredChunk{Chunk: c, Score: cosine(vector, qNorm, c.Vector, m.norms[i])}
	}

	SortScored(scored)
	if k < len(scored) {
		scored = scored[:k]
	}
	return commonModels.RetrievalResult{Matches: scored}, nil
}

func (m *memoryIndex) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.chunks)
}

func (m *memoryIndex) Records() []commonModels.IndexRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()
	records := make([]commonModels.IndexRecord, len(m.chunks))
	for i, c := range m.chunks {
		records[i] = c.ToRecord()
	}
	return records
}

func (m *memoryIndex) Restore(records []commonModels.IndexRecord) error {
	chunks := make([]commonModels.Chunk, len(records))
	for i, r := range records {
		chunks[i] = r.ToChunk()
	}
	sort.SliceStable(chunks, func(a, b int) bool { return chunks[a].Ordinal < chunks[b].Ordinal })
	return m.Build(context.Background(), chunks)
}

// SortScored orders by descending score, equal scores by ascending ordinal.
func SortScored(scored []commonModels.ScoredChunk) {
	sort.SliceStable(scored, func(a, b int) bool {
		if scored[a].Score != scored[b].Score {
			return scored[a].Score > scored[b].Score
		}
		return scored[a].Chunk.Ordinal < scored[b].Chunk.Ordinal
	})
}

func norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

// zero-norm vectors score 0 against everything
func cosine(a []float32, aNorm float64, b []float32, bNorm float64) float32 {
	if aNorm == 0 || bNorm == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return float32(dot / (aNorm * bNorm))
}

// FromRecords rebuilds an in-memory index from persisted records.
func FromRecords(documentId string, records []commonModels.IndexRecord) (Index, error) {
	idx := &memoryIndex{documentId: documentId}
	if err := idx.Restore(records); err != nil {
		return nil, err
	}
	return idx, nil
}
