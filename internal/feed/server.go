package feed

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"cosmossdk.io/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/swaggest/swgui/v5emb"

	"github.com/subhasisjena1643/tapnad/internal/notify"
	"github.com/subhasisjena1643/tapnad/internal/race"
)

// Source serves committed race state.
type Source interface {
	Snapshot() (race.GameView, int64, error)
	Results() ([]race.Result, error)
}

// Subscriber hands out notification channels.
type Subscriber interface {
	Subscribe() (string, <-chan notify.Notification)
	Unsubscribe(id string)
}

// Server exposes committed race state and events over HTTP.
type Server struct {
	srv    *http.Server
	logger log.Logger
}

func New(addr string, logger log.Logger, src Source, sub Subscriber) *Server {
	logger = logger.With("module", "feed")
	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           NewRouter(logger, src, sub),
			ReadHeaderTimeout: 5 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		logger: logger,
	}
}

func NewRouter(logger log.Logger, src Source, sub Subscriber) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(newStructuredLogger(logger))
	r.Use(middleware.Recoverer)

	r.Get("/openapi.json", handleOpenAPI())
	r.Mount("/docs", v5emb.New("tapnad feed", "/openapi.json", "/docs"))
	r.Get("/healthz", handleHealth(src))
	r.Get("/game", handleGame(src))
	r.Get("/results", handleResults(src))
	r.Get("/events", handleEvents(logger, sub, heartbeatInterval))

	return r
}

func (s *Server) Run(_ context.Context) error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.srv.Addr, err)
	}

	s.logger.Info("starting feed server", "addr", ln.Addr().String())
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

func newStructuredLogger(logger log.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				logger.Debug("http request",
					"method", r.Method,
					"path", r.URL.Path,
					"status", ww.Status(),
					"bytes", ww.BytesWritten(),
					"duration_ms", time.Since(start).Milliseconds(),
					"request_id", middleware.GetReqID(r.Context()),
				)
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
