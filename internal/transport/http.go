package transport

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
)

// RPCHandler dispatches JSON-RPC methods for a tenant.
type RPCHandler interface {
	Handle(ctx context.Context, tenantID, method string, params json.RawMessage) (any, error)
}

// RPCObserver records per-call latency. status is "ok" or the error code.
type RPCObserver interface {
	ObserveRPC(method, status string, elapsed time.Duration)
}

// Options configures the HTTP router.
type Options struct {
	Handler RPCHandler
	// Auth authenticates /rpc and /mcp. Nil serves every request as DefaultTenant.
	Auth          func(http.Handler) http.Handler
	DefaultTenant string
	// RateLimitPerMinute caps /rpc and /mcp requests per client IP; 0 disables it.
	RateLimitPerMinute int
	// Metrics is mounted at /metrics when set.
	Metrics http.Handler
	// MCP is mounted at /mcp when set.
	MCP      http.Handler
	Observer RPCObserver
	Logger   *slog.Logger
}

// Server wires HTTP handlers.
type Server struct {
	handler  RPCHandler
	observer RPCObserver
	logger   *slog.Logger
}

// NewServer creates an HTTP server router with middleware.
func NewServer(opts Options) *chi.Mux {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	srv := &Server{handler: opts.Handler, observer: opts.Observer, logger: logger}

	r.Get("/health", srv.handleHealth)
	if opts.Metrics != nil {
		r.Handle("/metrics", opts.Metrics)
	}

	r.Group(func(r chi.Router) {
		if opts.RateLimitPerMinute > 0 {
			r.Use(httprate.LimitByIP(opts.RateLimitPerMinute, time.Minute))
		}
		if opts.Auth != nil {
			r.Use(opts.Auth)
		} else {
			r.Use(DefaultTenantMiddleware(opts.DefaultTenant))
		}

		r.Post("/rpc", srv.handleRPC)
		if opts.MCP != nil {
			r.Handle("/mcp", opts.MCP)
			r.Handle("/mcp/*", opts.MCP)
		}
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	req, err := ParseRequest(r.Body)
	if err != nil {
		WriteError(w, nil, &Error{Code: ErrorCode(err), Message: err.Error()})
		return
	}

	tenantID, ok := TenantFromContext(r.Context())
	if !ok || tenantID == "" {
		http.Error(w, "missing tenant", http.StatusUnauthorized)
		return
	}

	started := time.Now()
	result, err := s.handler.Handle(r.Context(), tenantID, req.Method, req.Params)
	if err != nil {
		rpcErr := NewError(err)
		method := req.Method
		status := "internal"
		if rpcErr.Data != nil {
			status = rpcErr.Data.Code
		} else if rpcErr.Code == ErrMethodNotFound {
			// Method names come from the client; only known ones become labels.
			method = unknownMethodLabel
			status = "method_not_found"
		}
		s.observe(method, status, started)
		if rpcErr.Code == ErrInternal {
			s.logger.Error("rpc failed", "method", req.Method, "tenant_id", tenantID,
				"request_id", middleware.GetReqID(r.Context()), "error", err)
		}
		WriteError(w, req.ID, rpcErr)
		return
	}

	s.observe(req.Method, "ok", started)
	WriteResult(w, req.ID, result)
}

const unknownMethodLabel = "unknown"

func (s *Server) observe(method, status string, started time.Time) {
	if s.observer == nil {
		return
	}
	s.observer.ObserveRPC(method, status, time.Since(started))
}
