package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/playperu/minigames/internal/handler/health"
	"github.com/playperu/minigames/internal/room"
)

type Server struct {
	srv    *http.Server
	logger *slog.Logger
}

func New(addr string, logger *slog.Logger, svc *room.Service, broker *Broker, checks map[string]health.Checker) *Server {
	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           newRouter(logger, svc, broker, checks),
			ReadHeaderTimeout: 5 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		logger: logger,
	}
}

func newRouter(logger *slog.Logger, svc *room.Service, broker *Broker, checks map[string]health.Checker) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(newStructuredLogger(logger))
	r.Use(middleware.Recoverer)

	addRoutes(r, logger, svc, broker, checks)
	return r
}

func (s *Server) Run(_ context.Context) error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.srv.Addr, err)
	}

	s.logger.Info("http server listening", "addr", ln.Addr().String())
	err = s.srv.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return s.srv.Shutdown(ctx)
}

func newStructuredLogger(logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				attrs := []any{
					"method", r.Method,
					"path", r.URL.Path,
					"status", ww.Status(),
					"bytes", ww.BytesWritten(),
					"duration_ms", time.Since(start).Milliseconds(),
					"request_id", middleware.GetReqID(r.Context()),
				}
				// Route params are filled in once the router has matched.
				if id := roomID(r); id != "" {
					attrs = append(attrs, "room_id", id)
				}
				logger.Info("http request", attrs...)
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
