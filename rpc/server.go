package rpc

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"cosmossdk.io/log"
	"github.com/gorilla/mux"

	"github.com/tolelom/vivorun/metrics"
)

// ServerOptions configures a Server.
type ServerOptions struct {
	Addr      string
	AuthToken string  // empty → no auth required
	RateLimit float64 // requests per second per client; 0 → unlimited
	RateBurst int
}

// Server is a JSON-RPC 2.0 HTTP server. It also serves /healthz and
// Prometheus metrics on /metrics.
type Server struct {
	handler   *Handler
	addr      string
	authToken string
	logger    log.Logger
	srv       *http.Server
}

// NewServer creates a Server. If opts.AuthToken is non-empty, every JSON-RPC
// request must carry a matching "Authorization: Bearer <token>" header.
func NewServer(opts ServerOptions, handler *Handler, logger log.Logger) *Server {
	s := &Server{
		handler:   handler,
		addr:      opts.Addr,
		authToken: opts.AuthToken,
		logger:    logger.With("module", "rpc"),
	}

	router := mux.NewRouter()
	router.Use(s.recoverer)
	if opts.RateLimit > 0 {
		router.Use(NewRateLimiter(opts.RateLimit, opts.RateBurst, s.logger).Middleware)
	}
	router.HandleFunc("/", s.serveRPC).Methods(http.MethodPost)
	router.HandleFunc("/healthz", s.serveHealth).Methods(http.MethodGet)
	router.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	s.srv = &http.Server{
		Addr:              opts.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

// Start binds the port synchronously (so callers know immediately if binding
// fails) then serves requests in a background goroutine.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.logger.Info("rpc listening", "addr", ln.Addr().String())
	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("rpc server stopped", "err", err)
		}
	}()
	return nil
}

// Stop gracefully shuts down the HTTP server, waiting up to 5 seconds for
// in-flight requests to complete.
func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.srv.Shutdown(ctx)
}

func (s *Server) authorized(r *http.Request) bool {
	if s.authToken == "" {
		return true
	}
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	return ok && subtle.ConstantTimeCompare([]byte(token), []byte(s.authToken)) == 1
}

func (s *Server) serveRPC(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(r) {
		writeJSONStatus(w, http.StatusUnauthorized, errResponse(nil, CodeUnauthorized, "unauthorized"))
		return
	}

	// Limit request body to 1 MB to prevent memory exhaustion.
	r.Body = http.MaxBytesReader(w, r.Body, 1*1024*1024)

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, errResponse(nil, CodeParseError, err.Error()))
		return
	}
	if req.JSONRPC != "2.0" {
		writeJSON(w, errResponse(req.ID, CodeInvalidRequest, "jsonrpc must be '2.0'"))
		return
	}

	start := time.Now()
	resp := s.handler.Dispatch(req)
	metrics.RecordRPC(req.Method, resp.Error != nil, time.Since(start))
	if resp.Error != nil {
		s.logger.Debug("rpc error", "method", req.Method, "code", resp.Error.Code, "err", resp.Error.Message)
	}
	writeJSON(w, resp)
}

func (s *Server) serveHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSONStatus(w, http.StatusOK, map[string]any{
		"status": "ok",
		"height": s.handler.bc.Height(),
	})
}

func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("rpc handler panicked", "path", r.URL.Path, "panic", rec)
				writeJSONStatus(w, http.StatusInternalServerError, errResponse(nil, CodeInternalError, "internal error"))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	writeJSONStatus(w, http.StatusOK, v)
}

func writeJSONStatus(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
