// Package mcpserver exposes the wizard's flows as MCP tools so an agent can
// install, remove or inspect the Embrace integration without a terminal.
package mcpserver

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/embrace-io/embrace-wizard/internal/config"
	"github.com/embrace-io/embrace-wizard/internal/secrets"
)

// Server answers tool calls using base as the default configuration.
type Server struct {
	base    config.Config
	secrets *secrets.Tokens
}

// New returns a Server. Tool inputs override fields of base per call.
func New(base *config.Config, store *secrets.Tokens) *Server {
	return &Server{base: *base, secrets: store}
}

func (s *Server) server(version string) *mcp.Server {
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    "embrace-wizard",
			Version: version,
		},
		nil,
	)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "install",
		Description: "Add the Embrace SDK setup to the native Android and iOS projects of a React Native app: Gradle plugin, embrace-config.json, SDK start calls, source map export and the dSYM upload phase. Safe to run repeatedly. Set dry_run to get diffs without writing.",
	}, s.handleInstall)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "uninstall",
		Description: "Remove everything install added to the native projects. Parts that are already gone are skipped.",
	}, s.handleUninstall)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "status",
		Description: "Report, for each part of the Embrace setup, whether it is present in the native projects. Read-only.",
	}, s.handleStatus)

	return server
}

// Run serves over stdio until the client disconnects or ctx is cancelled.
func (s *Server) Run(ctx context.Context, version string) error {
	return s.server(version).Run(ctx, &mcp.StdioTransport{})
}
