package ingest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/akolanti/GoDocQA/internal/config"
	"github.com/akolanti/GoDocQA/internal/domain/commonModels"
	"github.com/akolanti/GoDocQA/internal/domain/docErrors"
	"github.com/dslipak/pdf"
	"github.com/lu4p/cat"
	"golang.org/x/text/encoding/charmap"
)

// ProgressFunc is called after each extracted page or embedded batch.
type ProgressFunc func(done, total int)

type Extraction struct {
	Text    string
	Measure commonModels.LengthMeasure
}

type Extractor interface {
	Extract(ctx context.Context, path string, format commonModels.DocType, progress ProgressFunc) (Extraction, error)
}

// FileExtractor reads documents from the local filesystem.
type FileExtractor struct {
	PageTimeout time.Duration
}

func NewFileExtractor() *FileExtractor {
	return &FileExtractor{PageTimeout: config.PdfPageExtractTimeout}
}

func (f *FileExtractor) Extract(ctx context.Context, path string, format commonModels.DocType, progress ProgressFunc) (Extraction, error) {
	var ex Extraction
	var err error
	switch format {
	case commonModels.PDF:
		ex, err = f.extractPDF(ctx, path, progress)
	case commonModels.DOCX:
		ex, err = extractDocument(path)
	case commonModels.TXT:
		ex, err = extractPlainText(path)
	default:
		err = docErrors.ErrUnsupportedFormat
	}
	if err != nil {
		return Extraction{}, &docErrors.ExtractionError{Format: string(format), Cause: err}
	}
	if strings.TrimSpace(ex.Text) == "" {
		return Extraction{}, &docErrors.ExtractionError{Format: string(format), Cause: docErrors.ErrNoText}
	}
	return ex, nil
}

func (f *FileExtractor) extractPDF(ctx context.Context, path string, progress ProgressFunc) (Extraction, error) {
	log := logger.FromContext(ctx)
	log.Debug("extractPDF", "attempting extraction", path)
	reader, err := pdf.Open(path)
	if err != nil {
		log.Error("failed opening of pdf file", "error", err)
		return Extraction{}, fmt.Errorf("failed to open pdf: %w", err)
	}

	numPages := reader.NumPage()
	log.Debug("extractPDF", "number of pages", numPages)

	var text strings.Builder
	for i := 1; i <= numPages; i++ {
		if err := ctx.Err(); err != nil {
			return Extraction{}, err
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			log.Debug("extractPDF", "null page", i)
			reportProgress(progress, i, numPages)
			continue
		}

		content, err := f.protectExtract(page)
		if err != nil {
			// a broken page does not spoil the rest of the document
			log.Warn("Error parsing page content", "page", i, "error", err)
			reportProgress(progress, i, numPages)
			continue
		}
		if text.Len() > 0 {
			text.WriteString("\n")
		}
		text.WriteString(content)
		reportProgress(progress, i, numPages)
	}

	s := text.String()
	return Extraction{
		Text: s,
		Measure: commonModels.LengthMeasure{
			Pages:    numPages,
			HasPages: true,
			Chars:    utf8.RuneCountInString(s),
		},
	}, nil
}

// extractDocument reads .docx, .odt and .rtf files. These have no stable page
// count, so they are measured in characters.
func extractDocument(path string) (Extraction, error) {
	text, err := cat.File(path)
	if err != nil {
		return Extraction{}, fmt.Errorf("failed to extract document: %w", err)
	}
	return charMeasured(text), nil
}

// extractPlainText decodes UTF-8 and falls back to Windows-1252 for legacy files.
func extractPlainText(path string) (Extraction, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Extraction{}, err
	}
	text, err := decodeText(data)
	if err != nil {
		return Extraction{}, err
	}
	return charMeasured(text), nil
}

func decodeText(data []byte) (string, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if utf8.Valid(data) {
		return string(data), nil
	}
	decoded, err := charmap.Windows1252.NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("text is neither UTF-8 nor Windows-1252: %w", err)
	}
	return string(decoded), nil
}

func charMeasured(text string) Extraction {
	return Extraction{
		Text:    text,
		Measure: commonModels.LengthMeasure{Chars: utf8.RuneCountInString(text)},
	}
}

func reportProgress(progress ProgressFunc, done, total int) {
	if progress != nil {
		progress(done, total)
	}
}

func (f *FileExtractor) protectExtract(page pdf.Page) (string, error) {
	type result struct {
		content string
		err     error
	}
	resChan := make(chan result, 1)

	go func() {
		content, err := page.GetPlainText(nil)
		resChan <- result{content, err}
	}()

	timer := time.NewTimer(f.PageTimeout)
	defer timer.Stop()
	select {
	case r := <-resChan:
		return r.content, r.err
	case <-timer.C:
		return "", errors.New("page extraction timed out")
	}
}
