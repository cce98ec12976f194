package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/notebook-cli/internal/adapters/driving/mcp"
	"github.com/custodia-labs/notebook-cli/internal/app"
)

func newMCPCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Start the MCP server over stdio",
		Long: `Start the Model Context Protocol server for AI assistant integration.

The server communicates over stdio using JSON-RPC. Use 'notebook serve'
for the streamable HTTP transport.

Claude Desktop configuration (claude_desktop_config.json):
  {
    "mcpServers": {
      "notebook": {
        "command": "/path/to/notebook",
        "args": ["mcp"]
      }
    }
  }`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := env.App(cmd.Context())
			if err != nil {
				return err
			}
			server, err := newMCPServer(a, env.Version)
			if err != nil {
				return err
			}
			return server.Run(cmd.Context())
		},
	}
}

func newMCPServer(a *app.App, version string) (*mcp.Server, error) {
	return mcp.NewServer(&mcp.Ports{
		Query:     a.Query,
		Answer:    a.Answer,
		Documents: a.Documents,
		Ingest:    a.Ingest,
	}, mcp.WithVersion(version))
}
