package policy

import (
	"testing"

	"github.com/akolanti/GoDocQA/internal/config"
	"github.com/akolanti/GoDocQA/internal/domain/commonModels"
)

func TestSelectMode(t *testing.T) {
	tests := []struct {
		pages, threshold int
		want             commonModels.Mode
	}{
		{5, 80, commonModels.ModeFull},
		{80, 80, commonModels.ModeFull},
		{81, 80, commonModels.ModeRag},
		{120, 80, commonModels.ModeRag},
		{0, 0, commonModels.ModeFull},
		{1, 0, commonModels.ModeRag},
	}
	for _, tt := range tests {
		if got := SelectMode(tt.pages, tt.threshold); got != tt.want {
			t.Errorf("SelectMode(%d, %d) = %s; want %s", tt.pages, tt.threshold, got, tt.want)
		}
	}
}

func TestSelectMode_IsMonotonic(t *testing.T) {
	const threshold = 80
	seenRag := false
	for pages := 0; pages <= 500; pages++ {
		mode := SelectMode(pages, threshold)
		if seenRag && mode == commonModels.ModeFull {
			t.Fatalf("mode went back to full at %d pages", pages)
		}
		if mode == commonModels.ModeRag {
			seenRag = true
		}
	}
}

func TestSelectModeFor_FallsBackToChars(t *testing.T) {
	th := ThresholdsFrom(config.Options{ThresholdPages: 80})
	if th.Chars != 80*config.CharsPerPage {
		t.Fatalf("derived char threshold = %d", th.Chars)
	}

	tests := []struct {
		name    string
		measure commonModels.LengthMeasure
		want    commonModels.Mode
	}{
		{"pdf under", commonModels.LengthMeasure{Pages: 5, HasPages: true, Chars: 900000}, commonModels.ModeFull},
		{"pdf over", commonModels.LengthMeasure{Pages: 120, HasPages: true}, commonModels.ModeRag},
		{"txt under", commonModels.LengthMeasure{Chars: th.Chars}, commonModels.ModeFull},
		{"txt over", commonModels.LengthMeasure{Chars: th.Chars + 1}, commonModels.ModeRag},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SelectModeFor(tt.measure, th); got != tt.want {
				t.Errorf("got %s; want %s", got, tt.want)
			}
		})
	}
}
