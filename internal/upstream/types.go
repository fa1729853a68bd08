package upstream

import (
	"fmt"
	"strings"
)

// SearchResult is one library returned by the search endpoint.
type SearchResult struct {
	ID             string   `json:"id"`
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	Branch         string   `json:"branch,omitempty"`
	LastUpdateDate string   `json:"lastUpdateDate,omitempty"`
	TotalTokens    int      `json:"totalTokens"`
	TotalSnippets  int      `json:"totalSnippets"`
	Stars          int      `json:"stars,omitempty"`
	TrustScore     float64  `json:"trustScore,omitempty"`
	Versions       []string `json:"versions,omitempty"`
}

// SearchResponse is the payload of the search endpoint.
type SearchResponse struct {
	Results []SearchResult `json:"results"`
}

// Pagination is the metadata attached to paginated text responses. All
// fields come from one header set; a record is either complete or absent.
type Pagination struct {
	Page        int
	Limit       int
	TotalPages  int
	HasNext     bool
	HasPrev     bool
	TotalTokens int
}

// DocsText is a documentation page in text form.
type DocsText struct {
	Content    string
	Pagination *Pagination
}

// Docs fetch modes.
const (
	ModeCode = "code"
	ModeInfo = "info"
)

// DocsQuery describes one documentation fetch.
type DocsQuery struct {
	Library LibraryID
	Mode    string // ModeCode (default) or ModeInfo
	Topic   string
	Page    int
	Limit   int
}

// LibraryID identifies a library as /owner/repo or /owner/repo/tag.
type LibraryID struct {
	Owner string
	Repo  string
	Tag   string
}

// ParseLibraryID parses an identifier of the form /owner/repo[/tag]. The
// leading slash is optional on input. Repos whose name contains further
// slashes keep the remainder joined into the repo segment.
func ParseLibraryID(id string) (LibraryID, error) {
	trimmed := strings.TrimPrefix(strings.TrimSpace(id), "/")
	parts := strings.Split(trimmed, "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return LibraryID{}, fmt.Errorf("invalid library id %q: expected /org/project[/tag]", id)
	}
	lid := LibraryID{Owner: parts[0], Repo: parts[1]}
	if len(parts) > 2 {
		lid.Tag = parts[len(parts)-1]
		lid.Repo = strings.Join(parts[1:len(parts)-1], "/")
		if lid.Repo == "" || lid.Tag == "" {
			return LibraryID{}, fmt.Errorf("invalid library id %q: expected /org/project[/tag]", id)
		}
	}
	return lid, nil
}

// String renders the canonical /owner/repo[/tag] form.
func (l LibraryID) String() string {
	s := "/" + l.Owner + "/" + l.Repo
	if l.Tag != "" {
		s += "/" + l.Tag
	}
	return s
}
