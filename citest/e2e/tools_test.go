package e2e_test

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// authTransport injects a bearer token into every request, standing in
// for a caller with its own credential.
type authTransport struct {
	apiKey string
	base   http.RoundTripper
}

func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.apiKey != "" {
		req = req.Clone(req.Context())
		req.Header.Set("Authorization", "Bearer "+t.apiKey)
	}
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(req)
}

func connect(ctx context.Context, apiKey string) *sdkmcp.ClientSession {
	GinkgoHelper()
	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "docsbridge-e2e", Version: "0.0.0"}, nil)
	session, err := client.Connect(ctx, &sdkmcp.StreamableClientTransport{
		Endpoint:   endpoint,
		HTTPClient: &http.Client{Transport: &authTransport{apiKey: apiKey}},
	}, nil)
	Expect(err).NotTo(HaveOccurred())
	return session
}

func callText(ctx context.Context, session *sdkmcp.ClientSession, name string, args map[string]any) string {
	GinkgoHelper()
	result, err := session.CallTool(ctx, &sdkmcp.CallToolParams{Name: name, Arguments: args})
	Expect(err).NotTo(HaveOccurred())
	Expect(result.IsError).To(BeFalse(), "tool call failed: %+v", result.Content)
	Expect(result.Content).NotTo(BeEmpty())
	text, ok := result.Content[0].(*sdkmcp.TextContent)
	Expect(ok).To(BeTrue(), "expected text content")
	return text.Text
}

var _ = Describe("Docsbridge over streamable HTTP", func() {
	var (
		ctx     context.Context
		cancel  context.CancelFunc
		session *sdkmcp.ClientSession
	)

	BeforeEach(func() {
		ctx, cancel = context.WithTimeout(context.Background(), 30*time.Second)
		session = connect(ctx, "")
	})

	AfterEach(func() {
		session.Close()
		cancel()
	})

	It("advertises both documentation tools", func() {
		list, err := session.ListTools(ctx, nil)
		Expect(err).NotTo(HaveOccurred())

		var names []string
		for _, tool := range list.Tools {
			names = append(names, tool.Name)
		}
		Expect(names).To(ConsistOf("resolve-library-id", "get-library-docs"))
	})

	It("resolves a library name to its ID", func() {
		text := callText(ctx, session, "resolve-library-id", map[string]any{"libraryName": "react"})
		Expect(text).To(ContainSubstring("- Library ID: /facebook/react"))
		Expect(text).To(ContainSubstring("- Trust Score: 9.1"))
	})

	It("fetches documentation for a resolved library", func() {
		text := callText(ctx, session, "get-library-docs", map[string]any{
			"libraryIds": []any{"/facebook/react"},
			"topic":      "hooks",
		})
		Expect(text).To(ContainSubstring("Documentation for /facebook/react"))
		Expect(text).To(ContainSubstring("docs for /docs/code/facebook/react"))
	})

	It("rejects invalid arguments without contacting the upstream", func() {
		before := searchHits.Load()

		result, err := session.CallTool(ctx, &sdkmcp.CallToolParams{
			Name:      "resolve-library-id",
			Arguments: map[string]any{},
		})
		if err == nil {
			Expect(result.IsError).To(BeTrue())
		}

		result, err = session.CallTool(ctx, &sdkmcp.CallToolParams{
			Name:      "get-library-docs",
			Arguments: map[string]any{"libraryIds": []any{"/facebook/react"}, "page": 99},
		})
		if err == nil {
			Expect(result.IsError).To(BeTrue())
		}

		Expect(searchHits.Load()).To(Equal(before))
	})

	It("falls back to the server's own key for anonymous callers", func() {
		text := callText(ctx, session, "get-library-docs", map[string]any{
			"libraryIds": []any{"/facebook/react"},
		})
		Expect(text).To(ContainSubstring("credential: Bearer dbk-server-default"))
	})

	It("keeps concurrent exchanges' credentials isolated", func() {
		const callers = 8

		var wg sync.WaitGroup
		errs := make([]error, callers)
		for i := 0; i < callers; i++ {
			wg.Add(1)
			go func(n int) {
				defer wg.Done()
				defer GinkgoRecover()

				key := fmt.Sprintf("dbk-caller-%d", n)
				s := connect(ctx, key)
				defer s.Close()

				for round := 0; round < 3; round++ {
					text := callText(ctx, s, "get-library-docs", map[string]any{
						"libraryIds": []any{"/facebook/react"},
					})
					if !strings.Contains(text, "credential: Bearer "+key) {
						errs[n] = fmt.Errorf("caller %d saw someone else's credential: %s", n, text)
						return
					}
				}
			}(i)
		}
		wg.Wait()

		for _, err := range errs {
			Expect(err).NotTo(HaveOccurred())
		}
	})
})
