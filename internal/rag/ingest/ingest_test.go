package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/akolanti/GoDocQA/internal/domain/commonModels"
	"github.com/akolanti/GoDocQA/internal/domain/docErrors"
	"github.com/akolanti/GoDocQA/internal/rag/policy"
	"github.com/akolanti/GoDocQA/internal/rag/retry"
	"github.com/akolanti/GoDocQA/internal/rag/vectorDB"
)

// --- Mocks ---

type mockExtractor struct {
	extractFunc func(ctx context.Context, path string, format commonModels.DocType) (Extraction, error)
}

func (m *mockExtractor) Extract(ctx context.Context, path string, format commonModels.DocType, progress ProgressFunc) (Extraction, error) {
	return m.extractFunc(ctx, path, format)
}

type mockEmbedder struct {
	mu         sync.Mutex
	batchCalls int
	batchFunc  func(ctx context.Context, texts []string) ([][]float32, error)
}

func (m *mockEmbedder) GetEmbedding(ctx context.Context, query string) ([]float32, error) {
	return nil, errors.New("not used during ingestion")
}

func (m *mockEmbedder) BatchEmbedding(ctx context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	m.batchCalls++
	m.mu.Unlock()
	return m.batchFunc(ctx, texts)
}

func (m *mockEmbedder) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.batchCalls
}

func constantVectors(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, float32(i)}
	}
	return out, nil
}

func testSettings() Settings {
	return Settings{
		Thresholds:   policy.Thresholds{Pages: 80, Chars: 200000},
		ChunkSize:    1000,
		ChunkOverlap: 200,
		BatchSize:    2,
		Concurrency:  3,
		Retry:        retry.Policy{Attempts: 3, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond, CallTimeout: time.Second},
	}
}

func pagedExtraction(pages int) Extraction {
	text := strings.Repeat("Lorem ipsum dolor sit amet. ", pages*20)
	return Extraction{Text: text, Measure: commonModels.LengthMeasure{Pages: pages, HasPages: true, Chars: len(text)}}
}

// --- Unit Tests ---

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		path     string
		expected commonModels.DocType
		wantErr  bool
	}{
		{"test.pdf", commonModels.PDF, false},
		{"DOC.DOCX", commonModels.DOCX, false},
		{"notes.rtf", commonModels.DOCX, false},
		{"notes.txt", commonModels.TXT, false},
		{"README.md", commonModels.TXT, false},
		{"image.png", commonModels.ERR, true},
		{"archive.zip", commonModels.ERR, true},
		{"no_extension", commonModels.ERR, true},
	}

	for _, tt := range tests {
		got, err := DetectFormat(tt.path)
		if got != tt.expected {
			t.Errorf("DetectFormat(%s) = %v; want %v", tt.path, got, tt.expected)
		}
		if (err != nil) != tt.wantErr {
			t.Errorf("DetectFormat(%s) error = %v; wantErr %v", tt.path, err, tt.wantErr)
		}
		if err != nil && !errors.Is(err, docErrors.ErrUnsupportedFormat) {
			t.Errorf("DetectFormat(%s) should wrap ErrUnsupportedFormat, got %v", tt.path, err)
		}
	}
}

func TestDetectFormat_ImageNamed(t *testing.T) {
	_, err := DetectFormat("scan.JPG")
	var exErr *docErrors.ExtractionError
	if !errors.As(err, &exErr) || exErr.Format != "IMAGE" {
		t.Errorf("expected IMAGE extraction error, got %v", err)
	}
}

func TestDecodeText(t *testing.T) {
	utf, err := decodeText([]byte("\xef\xbb\xbfhéllo"))
	if err != nil || utf != "héllo" {
		t.Errorf("utf-8 with BOM: got %q, %v", utf, err)
	}

	legacy, err := decodeText([]byte{0x93, 'h', 'i', 0x94, ' ', 0xe9})
	if err != nil {
		t.Fatal(err)
	}
	if legacy != "“hi” é" {
		t.Errorf("windows-1252 fallback: got %q", legacy)
	}
}

func TestFileExtractor_PlainText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(path, []byte("ünïcode text"), 0o600); err != nil {
		t.Fatal(err)
	}

	ex, err := NewFileExtractor().Extract(context.Background(), path, commonModels.TXT, nil)
	if err != nil {
		t.Fatal(err)
	}
	if ex.Measure.HasPages || ex.Measure.Chars != 12 {
		t.Errorf("plain text should be measured in runes, got %+v", ex.Measure)
	}
}

func TestFileExtractor_EmptyText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blank.txt")
	if err := os.WriteFile(path, []byte("  \n\t "), 0o600); err != nil {
		t.Fatal(err)
	}

	_, err := NewFileExtractor().Extract(context.Background(), path, commonModels.TXT, nil)
	if !errors.Is(err, docErrors.ErrNoText) || !docErrors.IsExtraction(err) {
		t.Errorf("expected ExtractionError wrapping ErrNoText, got %v", err)
	}
}

func TestFileExtractor_MissingFile(t *testing.T) {
	_, err := NewFileExtractor().Extract(context.Background(), "/does/not/exist.txt", commonModels.TXT, nil)
	if !docErrors.IsExtraction(err) {
		t.Errorf("expected ExtractionError, got %v", err)
	}
}

func TestEmbedChunks_KeepsOrdinalOrder(t *testing.T) {
	chunks := make([]commonModels.Chunk, 7)
	for i := range chunks {
		chunks[i] = commonModels.Chunk{Ordinal: i, Text: "c" + strconv.Itoa(i)}
	}
	emb := &mockEmbedder{batchFunc: func(ctx context.Context, texts []string) ([][]float32, error) {
		out := make([][]float32, len(texts))
		for i, text := range texts {
			n, _ := strconv.Atoi(strings.TrimPrefix(text, "c"))
			out[i] = []float32{float32(n)}
		}
		return out, nil
	}}

	var mu sync.Mutex
	lastDone := 0
	progress := func(done, total int) {
		mu.Lock()
		defer mu.Unlock()
		if total != 7 {
			t.Errorf("progress total = %d", total)
		}
		lastDone = max(lastDone, done)
	}

	s := testSettings()
	retries, err := EmbedChunks(context.Background(), emb, chunks, s.BatchSize, s.Concurrency, s.Retry, progress)
	if err != nil {
		t.Fatal(err)
	}
	if retries != 0 {
		t.Errorf("retries = %d", retries)
	}
	if emb.calls() != 4 {
		t.Errorf("expected 4 batches of at most 2, got %d", emb.calls())
	}
	for i, c := range chunks {
		if len(c.Vector) != 1 || int(c.Vector[0]) != i {
			t.Errorf("chunk %d got vector %v", i, c.Vector)
		}
	}
	if lastDone != 7 {
		t.Errorf("progress ended at %d", lastDone)
	}
}

func TestEmbedChunks_VectorCountMismatch(t *testing.T) {
	chunks := []commonModels.Chunk{{Ordinal: 0, Text: "a"}, {Ordinal: 1, Text: "b"}}
	emb := &mockEmbedder{batchFunc: func(ctx context.Context, texts []string) ([][]float32, error) {
		return [][]float32{{1}}, nil
	}}

	if _, err := EmbedChunks(context.Background(), emb, chunks, 10, 1, testSettings().Retry, nil); err == nil {
		t.Error("expected an error when the provider returns fewer vectors than chunks")
	}
}

func TestEmbedChunks_InvalidSettings(t *testing.T) {
	emb := &mockEmbedder{batchFunc: constantVectors}
	if _, err := EmbedChunks(context.Background(), emb, nil, 0, 1, testSettings().Retry, nil); !docErrors.IsConfig(err) {
		t.Errorf("expected ConfigError for batch size 0, got %v", err)
	}
	if _, err := EmbedChunks(context.Background(), emb, nil, 1, 0, testSettings().Retry, nil); !docErrors.IsConfig(err) {
		t.Errorf("expected ConfigError for concurrency 0, got %v", err)
	}
}

func TestPipeline_ShortDocumentUsesFullMode(t *testing.T) {
	emb := &mockEmbedder{batchFunc: constantVectors}
	ext := &mockExtractor{extractFunc: func(ctx context.Context, path string, format commonModels.DocType) (Extraction, error) {
		return pagedExtraction(5), nil
	}}

	res, err := NewPipeline(ext, emb, vectorDB.MemoryFactory(), testSettings()).
		Run(context.Background(), Request{DocumentId: "doc-1", Name: "short.pdf", Path: "short.pdf"})
	if err != nil {
		t.Fatal(err)
	}
	if res.Document.Mode != commonModels.ModeFull {
		t.Errorf("mode = %s; want full", res.Document.Mode)
	}
	if res.Index != nil || res.Document.ChunkCount != 0 {
		t.Error("full mode documents must not be indexed")
	}
	if emb.calls() != 0 {
		t.Errorf("embedding API called %d times for a full mode document", emb.calls())
	}
}

func TestPipeline_ThresholdIsInclusiveForFullMode(t *testing.T) {
	emb := &mockEmbedder{batchFunc: constantVectors}
	ext := &mockExtractor{extractFunc: func(ctx context.Context, path string, format commonModels.DocType) (Extraction, error) {
		return pagedExtraction(80), nil
	}}

	res, err := NewPipeline(ext, emb, vectorDB.MemoryFactory(), testSettings()).
		Run(context.Background(), Request{DocumentId: "doc-80", Path: "exact.pdf"})
	if err != nil {
		t.Fatal(err)
	}
	if res.Document.Mode != commonModels.ModeFull {
		t.Errorf("a document at exactly the threshold should be full mode, got %s", res.Document.Mode)
	}
}

func TestPipeline_LongDocumentIsIndexed(t *testing.T) {
	emb := &mockEmbedder{batchFunc: constantVectors}
	ext := &mockExtractor{extractFunc: func(ctx context.Context, path string, format commonModels.DocType) (Extraction, error) {
		return pagedExtraction(120), nil
	}}

	res, err := NewPipeline(ext, emb, vectorDB.MemoryFactory(), testSettings()).
		Run(context.Background(), Request{DocumentId: "doc-2", Name: "long.pdf", Path: "long.pdf"})
	if err != nil {
		t.Fatal(err)
	}
	if res.Document.Mode != commonModels.ModeRag {
		t.Fatalf("mode = %s; want rag", res.Document.Mode)
	}
	if res.Index == nil || res.Index.Len() == 0 {
		t.Fatal("rag mode document should have a built index")
	}
	if res.Index.Len() != res.Document.ChunkCount {
		t.Errorf("index holds %d chunks, document says %d", res.Index.Len(), res.Document.ChunkCount)
	}
	if emb.calls() == 0 {
		t.Error("rag mode should embed chunks")
	}
}

func TestPipeline_EmbeddingFailureAbortsIngestion(t *testing.T) {
	emb := &mockEmbedder{batchFunc: func(ctx context.Context, texts []string) ([][]float32, error) {
		return nil, &docErrors.ApiError{Service: "embedding", StatusCode: 400, Cause: errors.New("bad request")}
	}}
	ext := &mockExtractor{extractFunc: func(ctx context.Context, path string, format commonModels.DocType) (Extraction, error) {
		return pagedExtraction(120), nil
	}}

	res, err := NewPipeline(ext, emb, vectorDB.MemoryFactory(), testSettings()).
		Run(context.Background(), Request{DocumentId: "doc-3", Path: "long.pdf"})
	if !docErrors.IsApi(err) {
		t.Fatalf("expected ApiError, got %v", err)
	}
	if res.Index != nil {
		t.Error("no index should be returned after a failed ingestion")
	}
}

func TestPipeline_UnsupportedFormat(t *testing.T) {
	ext := &mockExtractor{extractFunc: func(ctx context.Context, path string, format commonModels.DocType) (Extraction, error) {
		t.Fatal("extractor should not be called for unsupported formats")
		return Extraction{}, nil
	}}

	_, err := NewPipeline(ext, &mockEmbedder{batchFunc: constantVectors}, vectorDB.MemoryFactory(), testSettings()).
		Run(context.Background(), Request{DocumentId: "img", Path: "photo.png"})
	if !docErrors.IsExtraction(err) {
		t.Errorf("expected ExtractionError, got %v", err)
	}
}

func TestPipeline_CharMeasuredDocument(t *testing.T) {
	ext := &mockExtractor{extractFunc: func(ctx context.Context, path string, format commonModels.DocType) (Extraction, error) {
		text := strings.Repeat("word ", 50000)
		return Extraction{Text: text, Measure: commonModels.LengthMeasure{Chars: len(text)}}, nil
	}}

	res, err := NewPipeline(ext, &mockEmbedder{batchFunc: constantVectors}, vectorDB.MemoryFactory(), testSettings()).
		Run(context.Background(), Request{DocumentId: "docx", Path: "big.docx"})
	if err != nil {
		t.Fatal(err)
	}
	if res.Document.Mode != commonModels.ModeRag {
		t.Errorf("250000 chars over a 200000 char threshold should be rag, got %s", res.Document.Mode)
	}
}

func TestPipeline_InspectMakesNoApiCalls(t *testing.T) {
	emb := &mockEmbedder{batchFunc: constantVectors}
	ext := &mockExtractor{extractFunc: func(ctx context.Context, path string, format commonModels.DocType) (Extraction, error) {
		return pagedExtraction(120), nil
	}}

	doc, err := NewPipeline(ext, emb, vectorDB.MemoryFactory(), testSettings()).Inspect(context.Background(), "/tmp/long.pdf", nil)
	if err != nil {
		t.Fatal(err)
	}
	if doc.Name != "long.pdf" || doc.Mode != commonModels.ModeRag || doc.ChunkCount == 0 {
		t.Errorf("unexpected inspection %+v", doc.Measure)
	}
	if emb.calls() != 0 {
		t.Error("inspect must not embed")
	}
}
