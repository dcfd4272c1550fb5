package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"fpl-league-stats/internal/mcpserver"
)

func (a *app) serveCommand() *cobra.Command {
	var (
		transport   string
		addr        string
		path        string
		requireAuth bool
		authHeader  string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the statistics as MCP tools over stdio or HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			srv := mcpserver.New(a.openStore(), a.log.WithField("component", "mcp"))
			switch transport {
			case "stdio":
				return srv.RunStdio(cmd.Context())
			case "http":
				if requireAuth && a.cfg.MCPAPIKey == "" {
					return errors.New("FPLSTATS_MCP_API_KEY is required (set it or run with --require-auth=false)")
				}
				key := a.cfg.MCPAPIKey
				if !requireAuth {
					key = ""
				}
				return srv.ServeHTTP(cmd.Context(), mcpserver.HTTPOptions{
					Addr:       addr,
					Path:       path,
					APIKey:     key,
					AuthHeader: authHeader,
				})
			default:
				return fmt.Errorf("unknown transport %q (want stdio or http)", transport)
			}
		},
	}
	cmd.Flags().StringVar(&transport, "transport", "stdio", "stdio or http")
	cmd.Flags().StringVar(&addr, "addr", ":8080", "HTTP listen address")
	cmd.Flags().StringVar(&path, "path", "/mcp", "HTTP path for the MCP endpoint")
	cmd.Flags().BoolVar(&requireAuth, "require-auth", true, "require FPLSTATS_MCP_API_KEY on HTTP")
	cmd.Flags().StringVar(&authHeader, "auth-header", "X-API-Key", "HTTP header carrying the API key")
	return cmd
}
