package commands

import (
	"github.com/spf13/cobra"

	"github.com/embrace-io/embrace-wizard/internal/mcpserver"
)

func newMCPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve install, uninstall and status as MCP tools over stdio",
		Long:  "Starts an MCP server over stdio so coding agents can run the wizard. Flags and config provide defaults for every tool call.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return mcpserver.New(cfg, openSecrets(cfg)).Run(cmd.Context(), Version)
		},
	}
}
