package tools

import (
	"errors"
	"fmt"
	"strings"

	"github.com/opencode-ai/docsbridge/internal/upstream"
)

// blockSeparator divides independent result blocks in a tool payload.
const blockSeparator = "\n----------\n"

const searchPreamble = `Available Libraries (top matches):

Each result includes:
- Library ID: identifier to pass to 'get-library-docs'
- Name: library or package name
- Description: short summary
- Code Snippets: number of available code examples
- Trust Score: authority indicator
- Versions: list of versions if available, to request version-specific docs

For best results, select libraries based on name match, trust score, snippet
coverage, and relevance to your use case.

----------
`

func formatSearchResults(results []upstream.SearchResult) string {
	blocks := make([]string, 0, len(results))
	for _, r := range results {
		blocks = append(blocks, formatSearchResult(r))
	}
	return searchPreamble + strings.Join(blocks, blockSeparator)
}

func formatSearchResult(r upstream.SearchResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "- Title: %s\n", r.Title)
	fmt.Fprintf(&b, "- Library ID: %s\n", r.ID)
	fmt.Fprintf(&b, "- Description: %s", r.Description)
	if r.TotalSnippets > 0 {
		fmt.Fprintf(&b, "\n- Code Snippets: %d", r.TotalSnippets)
	}
	if r.TrustScore > 0 {
		fmt.Fprintf(&b, "\n- Trust Score: %.1f", r.TrustScore)
	}
	if len(r.Versions) > 0 {
		fmt.Fprintf(&b, "\n- Versions: %s", strings.Join(r.Versions, ", "))
	}
	return b.String()
}

func formatDocsBlock(id upstream.LibraryID, docs *upstream.DocsText) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Documentation for %s", id.String())
	if p := docs.Pagination; p != nil && p.TotalPages > 1 {
		fmt.Fprintf(&b, " (page %d of %d)", p.Page, p.TotalPages)
	}
	b.WriteString("\n\n")
	b.WriteString(strings.TrimRight(docs.Content, "\n"))
	if p := docs.Pagination; p != nil && p.HasNext {
		fmt.Fprintf(&b, "\n\nMore content is available. Call get-library-docs again with page=%d to continue.", p.Page+1)
	}
	return b.String()
}

// upstreamErrorText turns a failed upstream call into text the agent can
// act on. Auth and rate-limit failures get specific guidance; everything
// else passes through the upstream message.
func upstreamErrorText(err error) string {
	var apiErr *upstream.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case 401, 403:
			return fmt.Sprintf("Authentication failed: %s. Check that your API key is valid and has not expired.", apiErr.Message)
		case 429:
			return fmt.Sprintf("Rate limited: %s. Wait before retrying, or use an API key with a higher quota.", apiErr.Message)
		case 404:
			return fmt.Sprintf("Not found: %s. The library may not exist; use resolve-library-id to find a valid library ID.", apiErr.Message)
		}
		return apiErr.Message
	}
	return err.Error()
}
