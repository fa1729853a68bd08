package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/mark3labs/mcp-go/server"

	"github.com/opencode-ai/docsbridge/internal/logging"
	"github.com/opencode-ai/docsbridge/internal/reqctx"
)

// maxPortAttempts bounds the sequential port fallback when the configured
// port is taken.
const maxPortAttempts = 10

// HTTPConfig configures the HTTP binding.
type HTTPConfig struct {
	Hostname string
	Port     int
	// APIKey is the server's own credential, used for exchanges that
	// carry no key of their own.
	APIKey string
}

// HTTP serves concurrent MCP sessions. Each exchange gets its own
// RequestContext derived from its headers, so credentials never leak
// between callers.
type HTTP struct {
	cfg      HTTPConfig
	router   *chi.Mux
	httpSrv  *http.Server
	ln       net.Listener
	sessions *SessionTable
}

// NewHTTP creates the HTTP binding. sessions receives hook-driven session
// lifecycle updates and may be shared with other observers.
func NewHTTP(cfg HTTPConfig, mcpSrv *server.MCPServer, sessions *SessionTable) *HTTP {
	h := &HTTP{cfg: cfg, sessions: sessions}

	ctxFn := func(ctx context.Context, r *http.Request) context.Context {
		return reqctx.With(ctx, requestContextFrom(r, cfg.APIKey))
	}

	streamable := server.NewStreamableHTTPServer(mcpSrv,
		server.WithHTTPContextFunc(ctxFn),
		server.WithStateLess(true),
	)
	sse := server.NewSSEServer(mcpSrv,
		server.WithSSEContextFunc(ctxFn),
	)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-API-Key", "Mcp-Session-Id", "Mcp-Protocol-Version", "Last-Event-ID"},
		ExposedHeaders: []string{"Mcp-Session-Id"},
		MaxAge:         300,
	}))

	r.Get("/ping", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("pong"))
	})
	r.Handle("/mcp", streamable)
	r.Get("/sse", sse.SSEHandler().ServeHTTP)
	r.Post("/message", sse.MessageHandler().ServeHTTP)

	h.router = r
	return h
}

// Listen binds the listening socket. When the configured port is already
// in use, consecutive ports are tried before giving up.
func (h *HTTP) Listen() error {
	for attempt := 0; attempt < maxPortAttempts; attempt++ {
		port := h.cfg.Port + attempt
		addr := net.JoinHostPort(h.cfg.Hostname, fmt.Sprintf("%d", port))
		ln, err := net.Listen("tcp", addr)
		if err == nil {
			if attempt > 0 {
				logging.Warn().Int("port", h.cfg.Port).Int("fallback", port).Msg("configured port in use, using fallback")
			}
			h.ln = ln
			return nil
		}
		if !errors.Is(err, syscall.EADDRINUSE) {
			return fmt.Errorf("listen on %s: %w", addr, err)
		}
	}
	return fmt.Errorf("no free port in range %d-%d", h.cfg.Port, h.cfg.Port+maxPortAttempts-1)
}

// Addr returns the bound address. Only valid after Listen.
func (h *HTTP) Addr() string {
	if h.ln == nil {
		return ""
	}
	return h.ln.Addr().String()
}

// Serve accepts connections until Shutdown. Blocks.
func (h *HTTP) Serve() error {
	if h.ln == nil {
		if err := h.Listen(); err != nil {
			return err
		}
	}
	h.httpSrv = &http.Server{
		Handler:     h.router,
		ReadTimeout: 30 * time.Second,
		// no write timeout, SSE streams stay open indefinitely
	}
	logging.Info().Str("addr", h.Addr()).Msg("serving on http")
	if err := h.httpSrv.Serve(h.ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Run binds and serves, stopping gracefully when ctx is canceled.
func (h *HTTP) Run(ctx context.Context) error {
	if err := h.Listen(); err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() { errCh <- h.Serve() }()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := h.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return <-errCh
	case err := <-errCh:
		return err
	}
}

// Shutdown stops the server, waiting for in-flight exchanges.
func (h *HTTP) Shutdown(ctx context.Context) error {
	if h.httpSrv == nil {
		if h.ln != nil {
			return h.ln.Close()
		}
		return nil
	}
	return h.httpSrv.Shutdown(ctx)
}

// Router exposes the handler for tests.
func (h *HTTP) Router() http.Handler {
	return h.router
}
