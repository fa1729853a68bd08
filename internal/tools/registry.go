// Package tools defines the agent-facing tools and their dispatcher.
package tools

import (
	"context"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/opencode-ai/docsbridge/internal/upstream"
)

// Dispatch failure modes. Both are protocol-level faults: the call itself
// was malformed, not the underlying operation.
var (
	ErrUnknownTool      = errors.New("unknown tool")
	ErrInvalidArguments = errors.New("invalid arguments")
)

// Definition binds a tool schema to its validator and handler.
type Definition struct {
	Tool mcp.Tool

	// Validate checks call arguments before the handler runs. A failure
	// means the handler never executes, so a rejected call has no side
	// effects. Optional.
	Validate func(req mcp.CallToolRequest) error

	// Handler executes the tool. It reads the active RequestContext from
	// ctx and must not retain it beyond the call.
	Handler server.ToolHandlerFunc
}

// Registry holds the fixed set of tools. It is populated at startup and
// read-only afterwards, so dispatch needs no locking.
type Registry struct {
	defs  map[string]Definition
	order []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{defs: make(map[string]Definition)}
}

// Register adds a tool. A duplicate name is a programming error and aborts
// startup rather than silently shadowing the earlier registration.
func (r *Registry) Register(def Definition) error {
	name := def.Tool.Name
	if name == "" {
		return fmt.Errorf("tool has no name")
	}
	if _, ok := r.defs[name]; ok {
		return fmt.Errorf("duplicate tool %q", name)
	}
	r.defs[name] = def
	r.order = append(r.order, name)
	return nil
}

// Names returns registered tool names in registration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Dispatch validates and executes a call. It runs strictly inside a
// RequestContext scope established by the transport binding.
func (r *Registry) Dispatch(ctx context.Context, name string, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	def, ok := r.defs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
	if def.Validate != nil {
		if err := def.Validate(req); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrInvalidArguments, err)
		}
	}
	return def.Handler(ctx, req)
}

// Install registers every tool with the MCP server, routing calls through
// Dispatch so validation always runs first.
func (r *Registry) Install(s *server.MCPServer) {
	for _, name := range r.order {
		def := r.defs[name]
		s.AddTool(def.Tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return r.Dispatch(ctx, req.Params.Name, req)
		})
	}
}

// DefaultRegistry builds the registry with the documentation tools.
func DefaultRegistry(client *upstream.Client) (*Registry, error) {
	r := NewRegistry()
	if err := r.Register(NewResolveLibraryID(client)); err != nil {
		return nil, err
	}
	if err := r.Register(NewGetLibraryDocs(client)); err != nil {
		return nil, err
	}
	return r, nil
}
