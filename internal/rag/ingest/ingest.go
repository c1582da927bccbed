package ingest

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/akolanti/GoDocQA/internal/domain/commonModels"
	"github.com/akolanti/GoDocQA/internal/domain/docErrors"
	"github.com/akolanti/GoDocQA/internal/rag/embedding"
	"github.com/akolanti/GoDocQA/internal/rag/retry"
	"github.com/akolanti/GoDocQA/pkg/logger_i"
	"golang.org/x/sync/errgroup"
)

var logger = logger_i.NewLogger("Document Ingestion")

var imageExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".bmp": true, ".webp": true, ".tif": true, ".tiff": true,
}

// DetectFormat maps a file extension to a document type. Images are rejected:
// image understanding is out of scope.
func DetectFormat(docPath string) (commonModels.DocType, error) {
	ext := strings.ToLower(filepath.Ext(docPath))
	switch ext {
	case ".pdf":
		return commonModels.PDF, nil
	case ".docx", ".odt", ".rtf":
		return commonModels.DOCX, nil
	case ".txt", ".md", ".text":
		return commonModels.TXT, nil
	}

	format := strings.ToUpper(strings.TrimPrefix(ext, "."))
	if imageExtensions[ext] {
		format = "IMAGE"
	}
	if format == "" {
		format = string(commonModels.ERR)
	}
	return commonModels.ERR, &docErrors.ExtractionError{Format: format, Cause: docErrors.ErrUnsupportedFormat}
}

// EmbedChunks fills in the vector of every chunk. Batches run in parallel, up to
// concurrency at a time; each batch writes only its own slice range so vectors
// land on the right ordinal whatever order the batches finish in.
// It returns the total number of retries across batches.
func EmbedChunks(ctx context.Context, embedder embedding.Embedder, chunks []commonModels.Chunk, batchSize int, concurrency int, policy retry.Policy, progress ProgressFunc) (int, error) {
	if batchSize <= 0 {
		return 0, docErrors.NewConfigError("embed_batch_size", "must be positive, got %d", batchSize)
	}
	if concurrency <= 0 {
		return 0, docErrors.NewConfigError("embed_concurrency", "must be positive, got %d", concurrency)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	var retries atomic.Int64
	var embedded atomic.Int64
	total := len(chunks)

	for start := 0; start < total; start += batchSize {
		batch := chunks[start:min(start+batchSize, total)]

		g.Go(func() error {
			texts := make([]string, len(batch))
			for i, c := range batch {
				texts[i] = c.Text
			}

			vectors, r, err := retry.Do(gctx, policy, "embedding", "embed_batch", func(ctx context.Context) ([][]float32, error) {
				return embedder.BatchEmbedding(ctx, texts)
			})
			retries.Add(int64(r))
			if err != nil {
				return err
			}
			if len(vectors) != len(batch) {
				return fmt.Errorf("embedding batch starting at chunk %d: got %d vectors for %d chunks", batch[0].Ordinal, len(vectors), len(batch))
			}
			for i := range batch {
				batch[i].Vector = vectors[i]
			}

			done := embedded.Add(int64(len(batch)))
			reportProgress(progress, int(done), total)
			return nil
		})
	}

	err := g.Wait()
	return int(retries.Load()), err
}
