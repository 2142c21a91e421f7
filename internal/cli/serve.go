package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dgallion1/pdfnav/internal/api"
	"github.com/dgallion1/pdfnav/internal/mcpserver"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server exposing the pdf_toc, pdf_read,
pdf_peek, pdf_images, pdf_image and pdf_info tools.

By default the server speaks JSON-RPC over stdio. Use --port to serve the
streamable HTTP transport instead.

Examples:
  # Stdio mode
  pdfnav mcp

  # HTTP mode
  pdfnav mcp --port 8092`,
	RunE: runMCP,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long:  `Serve the HTTP API. Configuration comes from PDFNAV_CONFIG and the environment.`,
	RunE:  runServe,
}

func init() {
	mcpCmd.Flags().IntP("port", "p", 0, "HTTP port (0 = use stdio)")
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(serveCmd)
}

func runMCP(cmd *cobra.Command, _ []string) error {
	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return fmt.Errorf("getting port flag: %w", err)
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	server := mcpserver.NewServer(stderrLogger(cmd.ErrOrStderr()), cfg)
	if port > 0 {
		addr := fmt.Sprintf(":%d", port)
		cmd.PrintErrf("MCP server listening on http://localhost%s\n", addr)
		return server.RunHTTP(cmd.Context(), addr)
	}
	return server.Run(cmd.Context())
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	return api.NewServer(stderrLogger(cmd.ErrOrStderr()), cfg).ListenAndServe(cmd.Context())
}
