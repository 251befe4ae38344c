package api

import (
	"context"
	"fmt"
	"net/http"

	"crisiswatch/internal/middleware"
)

// HTTPServer owns the net/http.Server and route table built on top of
// Server's handlers, with a graceful Run/Shutdown lifecycle.
type HTTPServer struct {
	inner      *Server
	httpServer *http.Server
	mw         *middleware.MiddlewareStack
}

func NewHTTPServer(s *Server, host string, port int) *HTTPServer {
	mux := http.NewServeMux()
	mwStack := middleware.NewMiddleware(s.log)

	srv := &HTTPServer{
		inner: s,
		mw:    mwStack,
		httpServer: &http.Server{
			Addr:    fmt.Sprintf("%s:%d", host, port),
			Handler: mux,
		},
	}

	srv.setupRoutes(mux)
	return srv
}

func (s *HTTPServer) setupRoutes(mux *http.ServeMux) {
	rateLimit := s.inner.store.Get().Security.RateLimit

	chain := func(h http.HandlerFunc) http.Handler {
		return s.mw.Chain(h,
			middleware.RecoveryMiddleware(s.inner.log),
			middleware.RequestIDMiddleware(),
			middleware.SecurityHeadersMiddleware(),
			middleware.CORSHeaderMiddleware(),
			middleware.RateLimitMiddleware(rateLimit),
			middleware.LoggerMiddleware(s.inner.log),
		)
	}

	mux.Handle("/analyze", chain(s.inner.handleAnalyze))
	mux.Handle("/config/context", chain(s.contextConfigRoute))
	mux.Handle("/health", chain(s.inner.handleHealth))

	if s.inner.metrics != nil {
		mux.Handle("/metrics", s.inner.metrics.Handler())
	}
}

func (s *HTTPServer) contextConfigRoute(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodPut {
		s.inner.handlePutContextConfig(w, r)
		return
	}
	s.inner.handleGetContextConfig(w, r)
}

// Run starts serving and blocks until ctx is cancelled, then shuts down
// gracefully.
func (s *HTTPServer) Run(ctx context.Context) error {
	s.inner.log.Info("crisiswatch API server starting on %s", s.httpServer.Addr)
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	case <-ctx.Done():
		return s.httpServer.Shutdown(context.Background())
	}
}
