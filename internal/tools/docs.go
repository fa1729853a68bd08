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

const docsToolName = "get-library-docs"

const docsDescription = `Fetches up-to-date documentation for one or more libraries. You must call 'resolve-library-id' first to obtain the exact library ID, UNLESS the user explicitly provides an ID in the format '/org/project' or '/org/project/version' in their query.`

// Page and limit bounds for a docs request. Out-of-range values are
// rejected, not clamped, so the caller learns its request was wrong.
const (
	docsDefaultLimit = 15
	docsMaxLimit     = 50
	docsMaxPage      = 10
)

// NewGetLibraryDocs builds the get-library-docs tool. Each requested
// library is fetched sequentially and rendered as its own block.
func NewGetLibraryDocs(client *upstream.Client) Definition {
	tool := mcp.NewTool(docsToolName,
		mcp.WithDescription(docsDescription),
		mcp.WithArray("libraryIds",
			mcp.Required(),
			mcp.Description("Library IDs in the format '/org/project' or '/org/project/version', as returned by resolve-library-id."),
			mcp.Items(map[string]any{"type": "string"}),
		),
		mcp.WithString("topic",
			mcp.Description("Topic to focus the documentation on (e.g. 'hooks', 'routing')."),
		),
		mcp.WithNumber("page",
			mcp.Description(fmt.Sprintf("Page number to fetch, starting at 1 (max %d).", docsMaxPage)),
		),
		mcp.WithNumber("limit",
			mcp.Description(fmt.Sprintf("Result size per page, 1-%d (default %d).", docsMaxLimit, docsDefaultLimit)),
		),
	)

	return Definition{
		Tool: tool,
		Validate: func(req mcp.CallToolRequest) error {
			args := req.GetArguments()
			ids, err := stringSliceArg(args, "libraryIds")
			if err != nil {
				return err
			}
			if len(ids) == 0 {
				return fmt.Errorf("libraryIds must contain at least one library ID")
			}
			for _, raw := range ids {
				if _, err := upstream.ParseLibraryID(raw); err != nil {
					return err
				}
			}
			page, err := intArg(args, "page", 1)
			if err != nil {
				return err
			}
			if page < 1 || page > docsMaxPage {
				return fmt.Errorf("page must be between 1 and %d, got %d", docsMaxPage, page)
			}
			limit, err := intArg(args, "limit", docsDefaultLimit)
			if err != nil {
				return err
			}
			if limit < 1 || limit > docsMaxLimit {
				return fmt.Errorf("limit must be between 1 and %d, got %d", docsMaxLimit, limit)
			}
			return nil
		},
		Handler: func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			args := req.GetArguments()
			rawIDs, err := stringSliceArg(args, "libraryIds")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			topic := req.GetString("topic", "")
			page, _ := intArg(args, "page", 1)
			limit, _ := intArg(args, "limit", docsDefaultLimit)

			rc, _ := reqctx.From(ctx)

			var blocks []string
			var failures []string
			for _, raw := range rawIDs {
				id, err := upstream.ParseLibraryID(raw)
				if err != nil {
					failures = append(failures, err.Error())
					continue
				}
				docs, err := client.FetchDocs(ctx, rc, upstream.DocsQuery{
					Library: id,
					Mode:    upstream.ModeCode,
					Topic:   topic,
					Page:    page,
					Limit:   limit,
				})
				if err != nil {
					if ctx.Err() != nil {
						return nil, err
					}
					logging.Warn().Err(err).Str("library", id.String()).Msg("docs fetch failed")
					failures = append(failures, fmt.Sprintf("Failed to fetch documentation for %s: %s", id.String(), upstreamErrorText(err)))
					continue
				}
				blocks = append(blocks, formatDocsBlock(id, docs))
			}

			if len(blocks) == 0 {
				return mcp.NewToolResultError(strings.Join(failures, "\n")), nil
			}
			blocks = append(blocks, failures...)
			return mcp.NewToolResultText(strings.Join(blocks, blockSeparator)), nil
		},
	}
}

// stringSliceArg reads an array argument whose elements must all be strings.
func stringSliceArg(args map[string]any, key string) ([]string, error) {
	raw, ok := args[key]
	if !ok {
		return nil, fmt.Errorf("missing required argument %q", key)
	}
	items, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("argument %q must be an array of strings", key)
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("argument %q must be an array of strings", key)
		}
		out = append(out, s)
	}
	return out, nil
}

// intArg reads an optional integer argument. JSON numbers decode as
// float64, which is accepted when it carries a whole number.
func intArg(args map[string]any, key string, def int) (int, error) {
	raw, ok := args[key]
	if !ok || raw == nil {
		return def, nil
	}
	switch v := raw.(type) {
	case int:
		return v, nil
	case float64:
		n := int(v)
		if float64(n) != v {
			return 0, fmt.Errorf("argument %q must be an integer", key)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("argument %q must be an integer", key)
	}
}
