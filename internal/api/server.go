package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/nerrad567/nb-core/internal/auth"
	"github.com/nerrad567/nb-core/internal/catalog"
	"github.com/nerrad567/nb-core/internal/infrastructure/config"
	"github.com/nerrad567/nb-core/internal/infrastructure/logging"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// RecipeQuerier answers ingredient-filtered recipe queries.
type RecipeQuerier interface {
	Query(ctx context.Context, filters []string) ([]catalog.Recipe, error)
}

// AccountService registers, logs in and authenticates users.
type AccountService interface {
	Register(ctx context.Context, in auth.RegisterInput) (*auth.Session, error)
	Login(ctx context.Context, email, password string) (*auth.Session, error)
	Authenticate(ctx context.Context, key string) (*auth.User, error)
}

// HealthChecker reports whether a dependency is usable.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config   config.APIConfig
	Logger   *logging.Logger
	Recipes  RecipeQuerier
	Accounts AccountService
	Database HealthChecker // optional; /health reports 503 when it fails
	Version  string
}

// Server is the HTTP API server for NB Core.
type Server struct {
	cfg      config.APIConfig
	logger   *logging.Logger
	recipes  RecipeQuerier
	accounts AccountService
	database HealthChecker
	version  string
	limiter  *rate.Limiter
	metrics  *metrics
	handler  http.Handler
	server   *http.Server
}

// New creates a new API server with the given dependencies.
// The server does not listen until Serve is called.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Recipes == nil {
		return nil, fmt.Errorf("recipe service is required")
	}
	if deps.Accounts == nil {
		return nil, fmt.Errorf("account service is required")
	}

	s := &Server{
		cfg:      deps.Config,
		logger:   deps.Logger.With("component", "api"),
		recipes:  deps.Recipes,
		accounts: deps.Accounts,
		database: deps.Database,
		version:  deps.Version,
		metrics:  newMetrics(),
	}
	if rl := deps.Config.RateLimit; rl.Enabled {
		s.limiter = rate.NewLimiter(rate.Limit(rl.RequestsPerSecond), rl.Burst)
	}
	s.handler = s.buildRouter()

	s.server = &http.Server{
		Addr:              net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port)),
		Handler:           s.handler,
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	return s, nil
}

// Handler returns the fully wrapped router.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.server.Addr
}

// Serve listens until ctx is cancelled, then drains in-flight requests for
// up to 10 seconds. A listener failure is returned immediately.
func (s *Server) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.server.Addr, err)
	}
	return s.serveListener(ctx, ln)
}

func (s *Server) serveListener(ctx context.Context, ln net.Listener) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("API server listening", "address", ln.Addr().String(), "tls", s.cfg.TLS.Enabled)

		var err error
		if s.cfg.TLS.Enabled {
			err = s.server.ServeTLS(ln, s.cfg.TLS.CertFile, s.cfg.TLS.KeyFile)
		} else {
			err = s.server.Serve(ln)
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serving HTTP: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
		defer cancel()

		s.logger.Info("API server shutting down")
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down API server: %w", err)
		}
		return nil
	})

	return g.Wait()
}
