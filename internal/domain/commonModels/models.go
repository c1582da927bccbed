package commonModels

import "time"

type DocType string

var PDF DocType = "PDF"
var DOCX DocType = "DOCX"
var TXT DocType = "TXT"
var ERR DocType = "ERROR"

// Mode is decided once at ingestion and never re-evaluated.
type Mode string

const (
	ModeFull Mode = "full"
	ModeRag  Mode = "rag"
)

// LengthMeasure is the page count when the format has pages, otherwise the character count.
type LengthMeasure struct {
	Pages    int  `json:"pages,omitempty"`
	HasPages bool `json:"has_pages"`
	Chars    int  `json:"chars"`
}

type Document struct {
	Id                  string        `json:"source_doc_id"`
	Name                string        `json:"doc_name"`
	LastIngestTimestamp time.Time     `json:"ingested_at"`
	ContentType         DocType       `json:"contentType"`
	Text                string        `json:"text"`
	Measure             LengthMeasure `json:"measure"`
	Mode                Mode          `json:"mode"`
	ChunkCount          int           `json:"chunk_count"`
}

// Chunk offsets are rune offsets into Document.Text, End exclusive.
type Chunk struct {
	Ordinal int       `json:"ordinal"`
	Start   int       `json:"start"`
	End     int       `json:"end"`
	Text    string    `json:"text"`
	Vector  []float32 `json:"vector,omitempty"`
}

type ScoredChunk struct {
	Chunk Chunk   `json:"chunk"`
	Score float32 `json:"score"`
}

// RetrievalResult is ordered by descending score, ties broken by lower ordinal.
type RetrievalResult struct {
	Matches []ScoredChunk `json:"matches"`
	Retries int           `json:"retries"`
}

// IndexRecord is the persisted form of a single vector index entry.
type IndexRecord struct {
	Ordinal int       `json:"ordinal"`
	Start   int       `json:"start"`
	End     int       `json:"end"`
	Text    string    `json:"text"`
	Vector  []float32 `json:"vector"`
}

type ConversationTurn struct {
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	Mode      Mode      `json:"mode"`
	Sources   []string  `json:"sources,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type Answer struct {
	Text              string   `json:"text"`
	Mode              Mode     `json:"mode"`
	Sources           []string `json:"sources,omitempty"`
	Warning           string   `json:"warning,omitempty"`
	EmbeddingRetries  int      `json:"embedding_retries"`
	CompletionRetries int      `json:"completion_retries"`
}

func (c Chunk) ToRecord() IndexRecord {
	return IndexRecord{Ordinal: c.Ordinal, Start: c.Start, End: c.End, Text: c.Text, Vector: c.Vector}
}

func (r IndexRecord) ToChunk() Chunk {
	return Chunk{Ordinal: r.Ordinal, Start: r.Start, End: r.End, Text: r.Text, Vector: r.Vector}
}
