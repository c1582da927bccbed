package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <file>",
	Short: "Show how a document would be handled, without calling any API",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		extracting := newProgress(cmd.ErrOrStderr(), "Extracting")
		doc, err := newInspector(options).Inspect(cmd.Context(), args[0], extracting.update)
		extracting.finish()
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "File:\t%s\n", doc.Name)
		fmt.Fprintf(w, "Format:\t%s\n", doc.ContentType)
		if doc.Measure.HasPages {
			fmt.Fprintf(w, "Pages:\t%d\n", doc.Measure.Pages)
		}
		fmt.Fprintf(w, "Characters:\t%d\n", doc.Measure.Chars)
		fmt.Fprintf(w, "Mode:\t%s\n", doc.Mode)
		fmt.Fprintf(w, "Chunks:\t%d\n", doc.ChunkCount)
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}
