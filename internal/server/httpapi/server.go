// Package httpapi exposes the barbot services over HTTP using a chi router.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/barbot/internal/logging"
	"github.com/dmitrijs2005/barbot/internal/server/chat"
	"github.com/dmitrijs2005/barbot/internal/server/models"
	"github.com/dmitrijs2005/barbot/internal/server/services"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const shutdownTimeout = 10 * time.Second

type UserService interface {
	Login(ctx context.Context, username, password string) (*services.TokenResponse, error)
	Register(ctx context.Context, in services.RegisterInput) (*models.User, error)
	ResolveIdentity(ctx context.Context, token string) (*models.User, error)
}

type ChatService interface {
	Reply(ctx context.Context, messages []chat.Message) (map[string]any, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

type Options struct {
	Address        string
	RequestTimeout time.Duration
	AllowedOrigins []string
}

type Server struct {
	opts     Options
	logger   logging.Logger
	users    UserService
	chat     ChatService
	store    Pinger
	registry *prometheus.Registry
	metrics  *Metrics
	handler  http.Handler
}

func NewServer(opts Options, l logging.Logger, us UserService, cs ChatService, store Pinger) *Server {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 60 * time.Second
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}

	registry := prometheus.NewRegistry()
	s := &Server{
		opts:     opts,
		logger:   l.With("module", "http_server"),
		users:    us,
		chat:     cs,
		store:    store,
		registry: registry,
		metrics:  NewMetrics(registry),
	}
	s.handler = s.routes()
	return s
}

// Handler returns the fully wired router.
func (s *Server) Handler() http.Handler { return s.handler }

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.opts.RequestTimeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"WWW-Authenticate"},
		AllowCredentials: !allowsAnyOrigin(s.opts.AllowedOrigins),
		MaxAge:           300,
	}))

	r.Get("/", s.handleRoot)
	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	r.Post("/token", s.handleToken)
	r.Post("/register", s.handleRegister)

	r.Group(func(r chi.Router) {
		r.Use(s.requireActiveUser)
		r.Get("/users/me", s.handleMe)
		r.Post("/chat", s.handleChat)
	})

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Address,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      s.opts.RequestTimeout + 5*time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info(ctx, "Starting HTTP server", "address", s.opts.Address)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info(ctx, "Stopping HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

func allowsAnyOrigin(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}
