package vectorDB

import (
	"context"

	"github.com/akolanti/GoDocQA/internal/domain/commonModels"
)

// Index holds the chunk vectors of exactly one document.
// Build is called once at ingestion; Query results are ordered by descending
// score with ties resolved to the lower ordinal.
type Index interface {
	Build(ctx context.Context, chunks []commonModels.Chunk) error
	Query(ctx context.Context, vector []float32, k int) (commonModels.RetrievalResult, error)
	Len() int
}

// Snapshotter is implemented by indexes whose contents must be persisted elsewhere.
type Snapshotter interface {
	Records() []commonModels.IndexRecord
}

// Restorer is implemented by indexes that can be rebuilt from persisted records without re-embedding.
type Restorer interface {
	Restore(records []commonModels.IndexRecord) error
}

// Dropper is implemented by indexes that hold external state, such as a
// collection, which must be deleted with the document.
type Dropper interface {
	Drop(ctx context.Context) error
}

// Factory creates the index for a document.
type Factory func(documentId string) Index
