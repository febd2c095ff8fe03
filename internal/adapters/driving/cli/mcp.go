package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/studesprit/libsearch/internal/adapters/driving/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Expose the library to AI assistants",
	Long:  `Commands that serve the library over the Model Context Protocol.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Serve paragraph search and document reindexing to an MCP client.

The server speaks JSON-RPC over stdin/stdout unless --port is given, in
which case it listens for streamable HTTP on that port. It offers:

  search     ranked paragraphs for a query, scoped to one owner
             (--owner when the call names none)
  reindex    segment and embed a document again

and the resources libsearch://owners/{ownerId}/documents and
libsearch://documents/{documentId}.

A client entry for stdio mode looks like:

  {"command": "libsearch", "args": ["mcp", "serve", "--owner", "alice"]}`,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntP("port", "p", 0, "HTTP port (0 = use stdio)")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return fmt.Errorf("getting port flag: %w", err)
	}

	if retrievalService == nil {
		return errors.New("retrieval service not configured")
	}

	ports := &mcp.Ports{
		Retrieval:    retrievalService,
		Document:     documentService,
		DefaultOwner: ownerID,
		DefaultLimit: resolveSearchLimit(0),
	}

	server, err := mcp.NewServer(ports)
	if err != nil {
		return err
	}

	if port > 0 {
		addr := fmt.Sprintf(":%d", port)
		fmt.Fprintf(cmd.OutOrStdout(), "MCP server listening on http://localhost%s\n", addr)
		return server.RunHTTP(cmd.Context(), addr)
	}

	return server.Run(cmd.Context())
}
