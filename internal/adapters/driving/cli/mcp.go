package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vippawar1104/RAG-agent/internal/adapters/driving/mcp"
)

var mcpPort int

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Model Context Protocol server",
	Long: `Run ragent as an MCP server so AI assistants can ask questions,
ingest documents and read conversation history.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the MCP server. Without --port it speaks over stdio, which is what
desktop assistants expect:

  {"mcpServers": {"ragent": {"command": "ragent", "args": ["mcp", "serve"]}}}

With --port it serves the streamable HTTP transport on localhost.

Tools: ask, ingest, history.
Resources: ragent://documents, ragent://documents/{documentId}.`,
	Args: cobra.NoArgs,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntVar(&mcpPort, "port", 0, "serve streamable HTTP on this port instead of stdio")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	if err := requireQuery(); err != nil {
		return err
	}
	if err := requireIngestion(); err != nil {
		return err
	}

	server, err := mcp.NewServer(&mcp.Ports{
		Query:     queryService,
		Ingestion: ingestionService,
	})
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}

	if mcpPort > 0 {
		addr := fmt.Sprintf("localhost:%d", mcpPort)
		cmd.PrintErrf("MCP server listening on http://%s\n", addr)
		return server.RunHTTP(cmd.Context(), addr)
	}
	return server.Run(cmd.Context())
}
