package ingest

import (
	"context"
	"path/filepath"
	"time"

	"github.com/akolanti/GoDocQA/internal/domain/commonModels"
	"github.com/akolanti/GoDocQA/internal/metrics"
	"github.com/akolanti/GoDocQA/internal/rag/chunking"
	"github.com/akolanti/GoDocQA/internal/rag/embedding"
	"github.com/akolanti/GoDocQA/internal/rag/policy"
	"github.com/akolanti/GoDocQA/internal/rag/retry"
	"github.com/akolanti/GoDocQA/internal/rag/vectorDB"
)

type Settings struct {
	Thresholds   policy.Thresholds
	ChunkSize    int
	ChunkOverlap int
	BatchSize    int
	Concurrency  int
	Retry        retry.Policy
}

type Request struct {
	DocumentId    string
	Name          string
	Path          string
	Progress      ProgressFunc
	EmbedProgress ProgressFunc
}

type Result struct {
	Document commonModels.Document
	// Index is nil for full mode documents.
	Index            vectorDB.Index
	EmbeddingRetries int
}

type Pipeline struct {
	extractor Extractor
	embedder  embedding.Embedder
	factory   vectorDB.Factory
	settings  Settings
}

func NewPipeline(extractor Extractor, embedder embedding.Embedder, factory vectorDB.Factory, settings Settings) *Pipeline {
	return &Pipeline{extractor: extractor, embedder: embedder, factory: factory, settings: settings}
}

// Run extracts the document, fixes its mode and, for rag mode only, chunks,
// embeds and indexes it. Full mode documents never touch the embedding API.
// Any embedding failure aborts ingestion; a partial index is never returned.
func (p *Pipeline) Run(ctx context.Context, req Request) (Result, error) {
	log := logger.FromContext(ctx).With("documentId", req.DocumentId)

	format, err := DetectFormat(req.Path)
	if err != nil {
		log.Warn("unsupported document", "path", req.Path, "error", err)
		return Result{}, err
	}

	start := time.Now()
	extraction, err := p.extractor.Extract(ctx, req.Path, format, req.Progress)
	metrics.CaptureExecutionMetrics("extraction", time.Since(start))
	if err != nil {
		log.Error("extraction failed", "error", err)
		return Result{}, err
	}

	doc := commonModels.Document{
		Id:                  req.DocumentId,
		Name:                req.Name,
		LastIngestTimestamp: time.Now(),
		ContentType:         format,
		Text:                extraction.Text,
		Measure:             extraction.Measure,
		Mode:                policy.SelectModeFor(extraction.Measure, p.settings.Thresholds),
	}
	metrics.IncrementModeSelected(string(doc.Mode))
	log.Info("mode selected", "mode", doc.Mode, "pages", doc.Measure.Pages, "chars", doc.Measure.Chars)

	if doc.Mode == commonModels.ModeFull {
		return Result{Document: doc}, nil
	}

	chunks, err := chunking.Split(doc.Text, p.settings.ChunkSize, p.settings.ChunkOverlap)
	if err != nil {
		return Result{}, err
	}
	log.Debug("document chunked", "chunks", len(chunks))

	start = time.Now()
	retries, err := EmbedChunks(ctx, p.embedder, chunks, p.settings.BatchSize, p.settings.Concurrency, p.settings.Retry, req.EmbedProgress)
	metrics.CaptureExecutionMetrics("embedding_batch", time.Since(start))
	if err != nil {
		log.Error("embedding failed, aborting ingestion", "error", err, "retries", retries)
		return Result{}, err
	}

	index := p.factory(doc.Id)
	start = time.Now()
	if err := index.Build(ctx, chunks); err != nil {
		log.Error("index build failed", "error", err)
		return Result{}, err
	}
	metrics.CaptureExecutionMetrics("index_build", time.Since(start))

	doc.ChunkCount = len(chunks)
	return Result{Document: doc, Index: index, EmbeddingRetries: retries}, nil
}

// Inspect measures a document and reports the mode and chunk count it would
// get, without calling any external API.
func (p *Pipeline) Inspect(ctx context.Context, path string, progress ProgressFunc) (commonModels.Document, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return commonModels.Document{}, err
	}
	extraction, err := p.extractor.Extract(ctx, path, format, progress)
	if err != nil {
		return commonModels.Document{}, err
	}

	doc := commonModels.Document{
		Name:        filepath.Base(path),
		ContentType: format,
		Text:        extraction.Text,
		Measure:     extraction.Measure,
		Mode:        policy.SelectModeFor(extraction.Measure, p.settings.Thresholds),
	}
	if doc.Mode == commonModels.ModeRag {
		chunks, err := chunking.Split(doc.Text, p.settings.ChunkSize, p.settings.ChunkOverlap)
		if err != nil {
			return commonModels.Document{}, err
		}
		doc.ChunkCount = len(chunks)
	}
	return doc, nil
}
