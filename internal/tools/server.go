package tools

import (
	"github.com/mark3labs/mcp-go/server"
)

// ServerName identifies this server to MCP clients.
const ServerName = "docsbridge"

// NewServer assembles the MCP server with the registry's tools installed.
// A panicking handler is converted to a protocol error instead of killing
// the process.
func NewServer(version string, reg *Registry, hooks *server.Hooks) *server.MCPServer {
	opts := []server.ServerOption{
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	}
	if hooks != nil {
		opts = append(opts, server.WithHooks(hooks))
	}
	s := server.NewMCPServer(ServerName, version, opts...)
	reg.Install(s)
	return s
}
