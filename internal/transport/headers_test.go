package transport

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAPIKeyFromHeaders(t *testing.T) {
	cases := []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{"no headers", nil, ""},
		{"bearer token", map[string]string{"Authorization": "Bearer dbk-abc123"}, "dbk-abc123"},
		{"lowercase bearer", map[string]string{"Authorization": "bearer dbk-abc123"}, "dbk-abc123"},
		{"x-api-key", map[string]string{"X-API-Key": "dbk-xyz"}, "dbk-xyz"},
		{"bearer wins over x-api-key", map[string]string{
			"Authorization": "Bearer dbk-from-auth",
			"X-API-Key":     "dbk-from-header",
		}, "dbk-from-auth"},
		{"non-bearer authorization ignored", map[string]string{
			"Authorization": "Basic dXNlcjpwYXNz",
			"X-API-Key":     "dbk-xyz",
		}, "dbk-xyz"},
		{"whitespace trimmed", map[string]string{"Authorization": "Bearer   dbk-abc  "}, "dbk-abc"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := http.Header{}
			for k, v := range tc.headers {
				h.Set(k, v)
			}
			assert.Equal(t, tc.want, apiKeyFromHeaders(h))
		})
	}
}

func TestClientIP(t *testing.T) {
	cases := []struct {
		name       string
		forwarded  string
		remoteAddr string
		want       string
	}{
		{"no forwarding", "", "203.0.113.9:51234", "203.0.113.9"},
		{"single public hop", "198.51.100.7", "10.0.0.1:80", "198.51.100.7"},
		{"skips private hops", "10.1.2.3, 198.51.100.7, 172.16.0.1", "10.0.0.1:80", "198.51.100.7"},
		{"skips loopback", "127.0.0.1, 192.0.2.44", "10.0.0.1:80", "192.0.2.44"},
		{"all private falls back to remote", "10.1.2.3, 192.168.0.5", "203.0.113.9:51234", "203.0.113.9"},
		{"garbage entries skipped", "not-an-ip, 192.0.2.44", "10.0.0.1:80", "192.0.2.44"},
		{"ipv6 public", "2001:db8::1", "10.0.0.1:80", "2001:db8::1"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/mcp", nil)
			r.RemoteAddr = tc.remoteAddr
			if tc.forwarded != "" {
				r.Header.Set("X-Forwarded-For", tc.forwarded)
			}
			assert.Equal(t, tc.want, clientIP(r))
		})
	}
}

func TestRequestContextFromFallbackKey(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/mcp", nil)
	r.RemoteAddr = "203.0.113.9:51234"

	rc := requestContextFrom(r, "dbk-server-default")
	assert.Equal(t, "dbk-server-default", rc.APIKey)
	assert.Equal(t, "203.0.113.9", rc.ClientIP)

	r.Header.Set("Authorization", "Bearer dbk-caller")
	rc = requestContextFrom(r, "dbk-server-default")
	assert.Equal(t, "dbk-caller", rc.APIKey, "exchange credential overrides the server default")
}
