package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/opencode-ai/docsbridge/internal/logging"
	"github.com/opencode-ai/docsbridge/internal/reqctx"
	"github.com/opencode-ai/docsbridge/internal/upstream"
)

const resolveToolName = "resolve-library-id"

const resolveDescription = `Resolves a package or product name to a library ID and returns a list of matching libraries.

You MUST call this function before 'get-library-docs' to obtain a valid library ID UNLESS the user explicitly provides a library ID in the format '/org/project' or '/org/project/version' in their query.

Selection process:
1. Analyze the query to understand what library or package the user is looking for.
2. Return the most relevant match based on name similarity (exact matches prioritized), description relevance, documentation coverage, and trust score.
3. If multiple good matches exist, maintain the order returned by the search.
4. If no good matches exist, say so and suggest query refinements.`

// NewResolveLibraryID builds the resolve-library-id tool. It searches the
// upstream index and formats matches for the agent to choose from.
func NewResolveLibraryID(client *upstream.Client) Definition {
	tool := mcp.NewTool(resolveToolName,
		mcp.WithDescription(resolveDescription),
		mcp.WithString("libraryName",
			mcp.Required(),
			mcp.Description("Library or package name to search for."),
		),
	)

	return Definition{
		Tool: tool,
		Validate: func(req mcp.CallToolRequest) error {
			name, err := req.RequireString("libraryName")
			if err != nil {
				return err
			}
			if strings.TrimSpace(name) == "" {
				return fmt.Errorf("libraryName must not be empty")
			}
			return nil
		},
		Handler: func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			name, err := req.RequireString("libraryName")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			rc, _ := reqctx.From(ctx)
			resp, err := client.SearchLibraries(ctx, rc, name)
			if err != nil {
				logging.Warn().Err(err).Str("query", name).Msg("library search failed")
				return mcp.NewToolResultError("Failed to search libraries: " + upstreamErrorText(err)), nil
			}
			if len(resp.Results) == 0 {
				return mcp.NewToolResultText(fmt.Sprintf(
					"No libraries matched %q. Try a different or more specific name.", name)), nil
			}
			return mcp.NewToolResultText(formatSearchResults(resp.Results)), nil
		},
	}
}
