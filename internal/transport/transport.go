package transport

import "context"

// Binding serves the MCP server over one channel. Run blocks until the
// channel closes or ctx is canceled; cancellation is a clean shutdown.
type Binding interface {
	Run(ctx context.Context) error
}

var (
	_ Binding = (*Stdio)(nil)
	_ Binding = (*HTTP)(nil)
)
