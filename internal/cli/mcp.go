package cli

import (
	"fmt"

	"github.com/akolanti/GoDocQA/internal/mcpServer"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the ingest_document and ask_question tools over MCP",
	Long: `Start a Model Context Protocol server exposing two tools:
  ingest_document  load a file and get a session id
  ask_question     ask a question within a session

The server speaks JSON-RPC over stdio unless --port is given.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		port, err := cmd.Flags().GetInt("port")
		if err != nil {
			return fmt.Errorf("getting port flag: %w", err)
		}

		application, err := buildApp(cmd.Context(), options)
		if err != nil {
			return err
		}
		server, err := mcpServer.NewServer(application.Rag)
		if err != nil {
			return err
		}

		if port > 0 {
			addr := fmt.Sprintf(":%d", port)
			fmt.Fprintf(cmd.ErrOrStderr(), "MCP server listening on http://localhost%s\n", addr)
			return server.RunHTTP(cmd.Context(), addr)
		}
		return server.Run(cmd.Context())
	},
}

func init() {
	mcpCmd.Flags().IntP("port", "p", 0, "HTTP port (0 = use stdio)")
	rootCmd.AddCommand(mcpCmd)
}
