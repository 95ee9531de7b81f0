package cli

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/vectorlite-cli/internal/adapters/driving/mcp"
)

var (
	mcpPort            int
	mcpHost            string
	mcpShutdownTimeout time.Duration
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Expose vectorlite to AI assistants",
	Long:  `Run vectorlite as a Model Context Protocol server.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve search and queue tools over MCP",
	Long: `Serve vectorlite over the Model Context Protocol.

Without --port the server speaks JSON-RPC on stdin and stdout, which is
what desktop assistants launch. With --port it serves streamable HTTP,
useful with the MCP Inspector.

Tools:     search, drain, requeue, stats
Resources: vectorlite://groups
           vectorlite://groups/{name}/documents
           vectorlite://documents/{id}

Assistant configuration:
  {"mcpServers": {"vectorlite": {"command": "vectorlite", "args": ["mcp", "serve"]}}}`,
	Example: `  vectorlite mcp serve
  vectorlite mcp serve --port 8080 --host 0.0.0.0`,
	Args: cobra.NoArgs,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntVarP(&mcpPort, "port", "p", 0, "serve HTTP on this port instead of stdio")
	mcpServeCmd.Flags().StringVar(&mcpHost, "host", "localhost", "HTTP bind address")
	mcpServeCmd.Flags().DurationVar(&mcpShutdownTimeout, "shutdown-timeout", 5*time.Second,
		"how long HTTP shutdown waits for open sessions")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	if searchService == nil {
		return errors.New("search service not configured")
	}
	if mcpPort < 0 || mcpPort > 65535 {
		return fmt.Errorf("invalid port %d", mcpPort)
	}

	server, err := mcp.NewServer(&mcp.Ports{
		Search:   searchService,
		Queue:    queueService,
		Document: documentService,
		Group:    groupService,
	}, mcp.Options{Version: version, ShutdownTimeout: mcpShutdownTimeout})
	if err != nil {
		return err
	}

	if mcpPort == 0 {
		return server.Run(cmd.Context())
	}

	addr := net.JoinHostPort(mcpHost, strconv.Itoa(mcpPort))
	cmd.PrintErrf("MCP server listening on http://%s\n", addr)
	return server.RunHTTP(cmd.Context(), addr)
}
