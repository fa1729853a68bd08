package transport

import (
	"net"
	"net/http"
	"net/netip"
	"strings"

	"github.com/opencode-ai/docsbridge/internal/logging"
	"github.com/opencode-ai/docsbridge/internal/reqctx"
)

// requestContextFrom derives the per-exchange RequestContext from HTTP
// headers. fallbackKey is the server's own configured key, used when the
// exchange carries no credential of its own.
func requestContextFrom(r *http.Request, fallbackKey string) *reqctx.RequestContext {
	key := apiKeyFromHeaders(r.Header)
	if key == "" {
		key = fallbackKey
	}
	return &reqctx.RequestContext{
		APIKey:   key,
		ClientIP: clientIP(r),
	}
}

// apiKeyFromHeaders extracts the caller's API key. An Authorization bearer
// token takes precedence over X-API-Key; a conflict between the two is
// logged because it usually means a misconfigured client.
func apiKeyFromHeaders(h http.Header) string {
	var bearer string
	if auth := h.Get("Authorization"); auth != "" {
		const prefix = "bearer "
		if len(auth) > len(prefix) && strings.EqualFold(auth[:len(prefix)], prefix) {
			bearer = strings.TrimSpace(auth[len(prefix):])
		}
	}
	alt := strings.TrimSpace(h.Get("X-API-Key"))

	if bearer != "" {
		if alt != "" && alt != bearer {
			logging.Warn().Msg("conflicting Authorization and X-API-Key headers, using Authorization")
		}
		return bearer
	}
	return alt
}

// clientIP returns the first public address in X-Forwarded-For, falling
// back to the connection's remote address. Private and loopback entries
// are proxy hops, not the caller.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		for _, part := range strings.Split(fwd, ",") {
			addr, err := netip.ParseAddr(strings.TrimSpace(part))
			if err != nil {
				continue
			}
			if isPublic(addr) {
				return addr.String()
			}
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func isPublic(addr netip.Addr) bool {
	return !(addr.IsPrivate() ||
		addr.IsLoopback() ||
		addr.IsLinkLocalUnicast() ||
		addr.IsLinkLocalMulticast() ||
		addr.IsUnspecified())
}
