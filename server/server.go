// Package server is the HTTP front door: thin JSON handlers over the
// service layer. All orchestration decisions live in service/; handlers
// only translate between HTTP and the service API.
package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/pixelfan/pixelfan/config"
	"github.com/pixelfan/pixelfan/logger"
	"github.com/pixelfan/pixelfan/service"
	"github.com/pixelfan/pixelfan/storage"
)

// ShutdownTimeout bounds graceful shutdown before in-flight requests
// are abandoned.
const ShutdownTimeout = 10 * time.Second

// Server serves the generation API.
type Server struct {
	svc            *service.Service
	images         *storage.ImageStore
	allowedOrigins []string
	httpServer     *http.Server
}

// New creates a server for the given service on the configured port.
func New(svc *service.Service, images *storage.ImageStore, cfg *config.ServerConfig) *Server {
	s := &Server{
		svc:            svc,
		images:         images,
		allowedOrigins: cfg.AllowedOrigins,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /generate", s.corsMiddleware(s.handleGenerate))
	mux.HandleFunc("GET /status/{jobId}", s.corsMiddleware(s.handleStatus))
	mux.HandleFunc("POST /enhance", s.corsMiddleware(s.handleEnhance))
	mux.HandleFunc("GET /galleries", s.corsMiddleware(s.handleListGalleries))
	mux.HandleFunc("GET /galleries/{target}", s.corsMiddleware(s.handleGalleryImages))
	mux.HandleFunc("OPTIONS /", s.corsMiddleware(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	s.httpServer = &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: mux,
	}
	return s
}

// Start blocks serving HTTP until the server is shut down.
func (s *Server) Start() error {
	logger.Infow("Starting HTTP server", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}

// Handler exposes the routing mux, for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// corsMiddleware adds CORS headers using the configured allowed origins.
// An empty allowlist permits any origin.
func (s *Server) corsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && s.originAllowed(origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next(w, r)
	}
}

func (s *Server) originAllowed(origin string) bool {
	if len(s.allowedOrigins) == 0 {
		return true
	}
	for _, allowed := range s.allowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}

// callerID identifies the caller for rate limiting. Only the first
// X-Forwarded-For hop is trusted; otherwise the connection address wins.
func callerID(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if idx := strings.IndexByte(fwd, ','); idx >= 0 {
			fwd = fwd[:idx]
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
