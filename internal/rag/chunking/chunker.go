// Package chunking splits extracted document text into overlapping segments.
package chunking

import (
	"unicode"

	"github.com/akolanti/GoDocQA/internal/config"
	"github.com/akolanti/GoDocQA/internal/domain/commonModels"
	"github.com/akolanti/GoDocQA/internal/domain/docErrors"
)

// Split cuts text into chunks of about targetSize runes where consecutive chunks
// share exactly overlap runes. Each cut prefers to land just after whitespace or
// sentence punctuation found within the look-back window, and falls back to a hard
// cut at targetSize. Chunks are raw substrings, so dropping the first overlap runes
// of every chunk after the first and concatenating reconstructs text.
func Split(text string, targetSize int, overlap int) ([]commonModels.Chunk, error) {
	return SplitWithLookback(text, targetSize, overlap, config.BoundaryLookback)
}

// SplitWithLookback is Split with an explicit boundary look-back window in runes.
func SplitWithLookback(text string, targetSize int, overlap int, lookback int) ([]commonModels.Chunk, error) {
	if targetSize <= 0 {
		return nil, docErrors.NewConfigError("chunk_size", "must be positive, got %d", targetSize)
	}
	if overlap < 0 || overlap >= targetSize {
		return nil, docErrors.NewConfigError("chunk_overlap", "must be in [0, %d), got %d", targetSize, overlap)
	}

	runes := []rune(text)
	n := len(runes)
	if n == 0 {
		return nil, nil
	}

	// the window never reaches back into the overlap, so every step advances
	window := min(max(lookback, 0), targetSize-overlap-1)

	var chunks []commonModels.Chunk
	start := 0
	for {
		end := start + targetSize
		if end >= n {
			chunks = append(chunks, newChunk(runes, len(chunks), start, n))
			return chunks, nil
		}

		cut := end
		for i := end; i > end-window; i-- {
			if isBoundary(runes[i-1]) {
				cut = i
				break
			}
		}

		chunks = append(chunks, newChunk(runes, len(chunks), start, cut))
		start = cut - overlap
	}
}

// Reconstruct joins chunks produced by Split with the same overlap back into the original text.
func Reconstruct(chunks []commonModels.Chunk, overlap int) string {
	var out []rune
	for i, c := range chunks {
		r := []rune(c.Text)
		if i > 0 {
			r = r[min(overlap, len(r)):]
		}
		out = append(out, r...)
	}
	return string(out)
}

func newChunk(runes []rune, ordinal, start, end int) commonModels.Chunk {
	return commonModels.Chunk{
		Ordinal: ordinal,
		Start:   start,
		End:     end,
		Text:    string(runes[start:end]),
	}
}

func isBoundary(r rune) bool {
	switch r {
	case '.', '!', '?':
		return true
	}
	return unicode.IsSpace(r)
}
