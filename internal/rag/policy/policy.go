/*
Package policy decides, once per document, whether questions are answered from
the full text or from retrieved chunks.

Full mode sends the whole document with every question. It keeps relationships
that span distant passages and supports whole-document tasks such as summaries.
Rag mode sends only the top-K chunks. It keeps per-question cost flat for long
documents, but a question whose answer needs two passages that are never both
retrieved is answered from partial context. That limitation is accepted; no
re-ranking is attempted.

Documents without pages are compared by character count against a threshold
that defaults to threshold_pages * config.CharsPerPage.
*/
package policy

import (
	"github.com/akolanti/GoDocQA/internal/config"
	"github.com/akolanti/GoDocQA/internal/domain/commonModels"
)

type Thresholds struct {
	Pages int
	Chars int
}

func ThresholdsFrom(opts config.Options) Thresholds {
	chars := opts.ThresholdChars
	if chars == 0 {
		chars = opts.ThresholdPages * config.CharsPerPage
	}
	return Thresholds{Pages: opts.ThresholdPages, Chars: chars}
}

// SelectMode returns Rag only when pages strictly exceeds threshold.
func SelectMode(pages int, threshold int) commonModels.Mode {
	if pages > threshold {
		return commonModels.ModeRag
	}
	return commonModels.ModeFull
}

func SelectModeFor(measure commonModels.LengthMeasure, t Thresholds) commonModels.Mode {
	if measure.HasPages {
		return SelectMode(measure.Pages, t.Pages)
	}
	return SelectMode(measure.Chars, t.Chars)
}
