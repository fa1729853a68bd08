// Package transport binds the MCP server to its process-facing channels.
//
// Two bindings exist: stdio for a single persistent session over the
// process's standard streams, and HTTP for concurrent sessions over
// streamable HTTP with a legacy SSE sub-mode.
package transport

import (
	"context"
	"errors"
	"io"
	"log"
	"os"

	"github.com/mark3labs/mcp-go/server"

	"github.com/opencode-ai/docsbridge/internal/logging"
	"github.com/opencode-ai/docsbridge/internal/reqctx"
)

// Stdio serves a single session over stdin/stdout. The whole process
// shares one RequestContext, fixed at startup from configuration.
type Stdio struct {
	mcpSrv *server.MCPServer
	apiKey string

	in  io.Reader
	out io.Writer
}

// NewStdio creates the stdio binding. apiKey may be empty for anonymous
// upstream access.
func NewStdio(mcpSrv *server.MCPServer, apiKey string) *Stdio {
	return &Stdio{
		mcpSrv: mcpSrv,
		apiKey: apiKey,
		in:     os.Stdin,
		out:    os.Stdout,
	}
}

// Run serves the session until the streams close or ctx is canceled.
func (s *Stdio) Run(ctx context.Context) error {
	std := server.NewStdioServer(s.mcpSrv)
	std.SetErrorLogger(log.New(logging.Logger, "", 0))
	std.SetContextFunc(func(ctx context.Context) context.Context {
		return reqctx.With(ctx, &reqctx.RequestContext{APIKey: s.apiKey})
	})

	logging.Info().Msg("serving on stdio")
	err := std.Listen(ctx, s.in, s.out)
	if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
