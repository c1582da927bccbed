package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/akolanti/GoDocQA/internal/domain/commonModels"
	"github.com/akolanti/GoDocQA/internal/rag"
	"github.com/akolanti/GoDocQA/internal/rag/ingest"
	"github.com/akolanti/GoDocQA/internal/session"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	question string
	model    string
)

var askCmd = &cobra.Command{
	Use:   "ask <file>",
	Short: "Load a document and ask questions about it",
	Long: `Load a document and ask questions about it.

With --question the answer is printed and docqa exits. Without it an
interactive prompt starts:
  :clear    forget the conversation so far, keep the document
  :history  list previous questions
  exit      quit`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVarP(&question, "question", "q", "", "ask a single question and exit")
	askCmd.Flags().StringVarP(&model, "model", "m", "", "override the configured model")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	path := args[0]

	application, err := buildApp(ctx, options)
	if err != nil {
		return err
	}

	extracting := newProgress(cmd.ErrOrStderr(), "Extracting")
	embedding := newProgress(cmd.ErrOrStderr(), "Embedding ")
	sess, err := application.Rag.Ingest(ctx, ingest.Request{
		Name:          filepath.Base(path),
		Path:          path,
		Progress:      extracting.update,
		EmbedProgress: embedding.update,
	})
	extracting.finish()
	embedding.finish()
	if err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}

	defer closeSession(ctx, cmd.ErrOrStderr(), application.Rag, sess.Id)

	out := cmd.OutOrStdout()
	printLoaded(out, sess)

	if question != "" {
		return answer(ctx, out, application.Rag, sess.Id, question)
	}
	return repl(ctx, cmd.InOrStdin(), out, application.Rag, sess.Id)
}

// closeSession discards the document when docqa exits, even after an interrupt.
func closeSession(ctx context.Context, errOut io.Writer, svc rag.Service, sessionId string) {
	if err := svc.CloseSession(context.WithoutCancel(ctx), sessionId); err != nil {
		color.New(color.FgYellow).Fprintf(errOut, "warning: could not discard session: %v\n", err)
	}
}

func printLoaded(out io.Writer, sess *session.Session) {
	doc := sess.Document
	size := fmt.Sprintf("%d characters", doc.Measure.Chars)
	if doc.Measure.HasPages {
		size = fmt.Sprintf("%d pages", doc.Measure.Pages)
	}

	how := "full text is sent with every question"
	if doc.Mode == commonModels.ModeRag {
		how = fmt.Sprintf("answers come from the best of %d chunks", doc.ChunkCount)
	}
	color.New(color.FgCyan).Fprintf(out, "Loaded %s (%s): %s mode, %s\n", doc.Name, size, doc.Mode, how)
}

func answer(ctx context.Context, out io.Writer, svc rag.Service, sessionId string, q string) error {
	ans, err := svc.Ask(ctx, sessionId, q, model)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, ans.Text)
	if ans.Warning != "" {
		color.New(color.FgYellow).Fprintf(out, "warning: %s\n", ans.Warning)
	}
	if ans.Mode == commonModels.ModeRag && len(ans.Sources) > 0 {
		color.New(color.Faint).Fprintf(out, "sources: %s\n", strings.Join(ans.Sources, ", "))
	}
	return nil
}

func repl(ctx context.Context, in io.Reader, out io.Writer, svc rag.Service, sessionId string) error {
	scanner := bufio.NewScanner(in)
	prompt := color.New(color.FgGreen).FprintfFunc()

	for {
		prompt(out, "\n> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())

		switch strings.ToLower(line) {
		case "":
			continue
		case "exit", "quit", ":q":
			return nil
		case ":clear":
			if err := svc.ClearHistory(ctx, sessionId); err != nil {
				color.New(color.FgRed).Fprintf(out, "error: %v\n", err)
				continue
			}
			fmt.Fprintln(out, "History cleared.")
			continue
		case ":history":
			printHistory(ctx, out, svc, sessionId)
			continue
		}

		if err := answer(ctx, out, svc, sessionId, line); err != nil {
			// a failed question does not end the session
			color.New(color.FgRed).Fprintf(out, "error: %v\n", err)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return scanner.Err()
}

func printHistory(ctx context.Context, out io.Writer, svc rag.Service, sessionId string) {
	turns, err := svc.History(ctx, sessionId)
	if err != nil {
		color.New(color.FgRed).Fprintf(out, "error: %v\n", err)
		return
	}
	if len(turns) == 0 {
		fmt.Fprintln(out, "No questions yet.")
		return
	}
	for i, t := range turns {
		fmt.Fprintf(out, "%d. %s\n", i+1, t.Question)
	}
}
