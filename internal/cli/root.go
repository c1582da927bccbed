package cli

import (
	"context"
	"log/slog"

	"github.com/akolanti/GoDocQA/internal/app"
	"github.com/akolanti/GoDocQA/internal/config"
	"github.com/akolanti/GoDocQA/pkg/logger_i"
	"github.com/spf13/cobra"
)

var (
	configPath string
	verbose    bool
	options    config.Options

	// swapped in tests
	loadOptions  = config.Load
	buildApp     = app.Build
	newInspector = app.NewInspector
)

var rootCmd = &cobra.Command{
	Use:   "docqa",
	Short: "Ask questions about a document",
	Long: `docqa loads a PDF, DOCX, ODT, RTF or plain text document and answers
questions about it. Short documents are sent whole with every question; long
ones are chunked, embedded and answered from the most relevant excerpts.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		opts, err := loadOptions(configPath)
		if err != nil {
			return err
		}
		options = opts

		// stdout carries answers and, for mcp, the protocol
		level := slog.LevelWarn
		if verbose {
			level = logger_i.ParseLevel(opts.LogLevel)
		}
		logger_i.InitWith(cmd.ErrOrStderr(), level)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "docqa.yaml", "path to the yaml config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log at the configured log_level instead of warn")
}

func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}
