package prompt

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/akolanti/GoDocQA/internal/domain/commonModels"
	"github.com/akolanti/GoDocQA/internal/domain/docErrors"
)

const SystemInstruction = "You are an assistant that answers questions about a single document. " +
	"Use only the source material provided in the user message. " +
	"If the answer is not in the source material, say that you don't know. " +
	"Answer in the language of the question."

const truncationMarker = "\n[... document truncated ...]"

// Prompt is what the LLM client sends. Budget applies to User, counted in characters.
type Prompt struct {
	System  string
	User    string
	Mode    commonModels.Mode
	Kept    int
	Dropped int
	Warning *docErrors.ContextTooLargeWarning
}

// Assemble frames the source material and the question.
// In rag mode excerpts are kept in ranked order and the lowest-ranked ones are
// dropped first; in full mode the document text is cut from the end. The
// question is always included whole, even when it alone exceeds the budget.
func Assemble(question string, mode commonModels.Mode, fullText string, result commonModels.RetrievalResult, budget int) (Prompt, error) {
	if budget <= 0 {
		return Prompt{}, docErrors.NewConfigError("max_prompt_budget", "must be positive, got %d", budget)
	}
	if strings.TrimSpace(question) == "" {
		return Prompt{}, docErrors.NewConfigError("question", "must not be empty")
	}

	switch mode {
	case commonModels.ModeFull:
		return assembleFull(question, fullText, budget), nil
	case commonModels.ModeRag:
		return assembleRag(question, result, budget), nil
	default:
		return Prompt{}, docErrors.NewConfigError("mode", "unknown mode %q", mode)
	}
}

func assembleFull(question string, text string, budget int) Prompt {
	p := Prompt{System: SystemInstruction, Mode: commonModels.ModeFull}

	user := fullMessage(text, question)
	if length(user) <= budget {
		p.User = user
		return p
	}

	available := budget - length(fullMessage(truncationMarker, question))
	cut := ""
	if available > 0 {
		cut = string([]rune(text)[:min(available, utf8.RuneCountInString(text))])
	}
	p.User = fullMessage(cut+truncationMarker, question)
	p.Warning = &docErrors.ContextTooLargeWarning{Truncated: true, Budget: budget}
	return p
}

func assembleRag(question string, result commonModels.RetrievalResult, budget int) Prompt {
	p := Prompt{System: SystemInstruction, Mode: commonModels.ModeRag}

	used := length(ragMessage(nil, question))
	var excerpts []string
	for i, m := range result.Matches {
		e := excerpt(i+1, m)
		if used+length(e) > budget {
			break
		}
		excerpts = append(excerpts, e)
		used += length(e)
	}

	p.Kept = len(excerpts)
	p.Dropped = len(result.Matches) - p.Kept
	p.User = ragMessage(excerpts, question)
	if p.Dropped > 0 {
		p.Warning = &docErrors.ContextTooLargeWarning{Kept: p.Kept, Dropped: p.Dropped, Budget: budget}
	}
	return p
}

func fullMessage(text, question string) string {
	var b strings.Builder
	b.WriteString("Here is the full document:\n<document>\n")
	b.WriteString(text)
	b.WriteString("\n</document>\n\n")
	writeQuestion(&b, question)
	return b.String()
}

func ragMessage(excerpts []string, question string) string {
	var b strings.Builder
	b.WriteString("Here are the most relevant excerpts of the document, best match first:\n")
	for _, e := range excerpts {
		b.WriteString(e)
	}
	b.WriteString("\n")
	writeQuestion(&b, question)
	return b.String()
}

func excerpt(rank int, m commonModels.ScoredChunk) string {
	return fmt.Sprintf("<excerpt rank=\"%d\" chunk=\"%d\" score=\"%.3f\">\n%s\n</excerpt>\n", rank, m.Chunk.Ordinal, m.Score, m.Chunk.Text)
}

func writeQuestion(b *strings.Builder, question string) {
	b.WriteString("Question: ")
	b.WriteString(question)
	b.WriteString("\n\nAnswer using only the source material above. If it does not contain the answer, say so.")
}

func length(s string) int {
	return utf8.RuneCountInString(s)
}
