package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/vippawar1104/RAG-agent/internal/adapters/driving/httpapi"
	"github.com/vippawar1104/RAG-agent/internal/adapters/driving/mcp"
)

var (
	serveAddr    string
	serveMCPAddr string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API",
	Long: `Serve the JSON API:

  POST   /v1/query                  {"query_text": "...", "session_id": "..."}
  POST   /v1/documents              {"id", "mime_type", "content" | "content_base64", "metadata"}
  GET    /v1/documents              ingestion status of every document
  GET    /v1/documents/{id}         ingestion status of one document
  DELETE /v1/documents/{id}
  GET    /v1/sessions/{id}/history?limit=n
  GET    /healthz

With --mcp-addr (or server.mcp_addr) the MCP streamable HTTP endpoint is
served as well.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "HTTP listen address (default from server.http_addr)")
	serveCmd.Flags().StringVar(&serveMCPAddr, "mcp-addr", "", "MCP listen address (default from server.mcp_addr)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if err := requireQuery(); err != nil {
		return err
	}
	if err := requireIngestion(); err != nil {
		return err
	}

	addr, mcpAddr := serveAddr, serveMCPAddr
	if settingsService != nil {
		if s, err := settingsService.Get(); err == nil {
			if addr == "" {
				addr = s.Server.HTTPAddr
			}
			if mcpAddr == "" {
				mcpAddr = s.Server.MCPAddr
			}
		}
	}
	if addr == "" {
		return errors.New("no listen address: pass --addr or set server.http_addr")
	}

	api, err := httpapi.NewServer(httpapi.Ports{Query: queryService, Ingestion: ingestionService})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	errs := make(chan error, 2)
	running := 1
	go func() { errs <- api.Run(ctx, addr) }()
	cmd.Printf("HTTP API listening on %s\n", addr)

	if mcpAddr != "" {
		server, err := mcp.NewServer(&mcp.Ports{Query: queryService, Ingestion: ingestionService})
		if err != nil {
			return err
		}
		running++
		go func() { errs <- server.RunHTTP(ctx, mcpAddr) }()
		cmd.Printf("MCP endpoint listening on %s\n", mcpAddr)
	}

	// The first server to stop takes the other down with it.
	var first error
	for i := 0; i < running; i++ {
		if err := <-errs; err != nil && first == nil {
			first = err
		}
		cancel()
	}
	return first
}
