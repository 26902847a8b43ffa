// Package server exposes the recipebox GraphQL API over HTTP with lifecycle management.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/99designs/gqlgen/graphql"
	"github.com/99designs/gqlgen/graphql/handler"
	"github.com/99designs/gqlgen/graphql/handler/extension"
	"github.com/99designs/gqlgen/graphql/handler/lru"
	"github.com/99designs/gqlgen/graphql/handler/transport"
	"github.com/99designs/gqlgen/graphql/playground"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/raphaelgruber/recipebox/internal/graph"
	"github.com/raphaelgruber/recipebox/internal/metrics"
	"github.com/vektah/gqlparser/v2/ast"
)

// DefaultKeepAlive is the interval between server pings on subscription sockets.
const DefaultKeepAlive = 10 * time.Second

// shutdownTimeout bounds graceful shutdown.
const shutdownTimeout = 10 * time.Second

// maxBodyBytes caps GraphQL request bodies.
const maxBodyBytes = 1 << 20

// Authenticator resolves bearer tokens to user ids.
type Authenticator interface {
	Authenticate(token string) (uuid.UUID, error)
}

// Pinger reports backend health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Config wires a Server. Health, Metrics and Logger are optional.
type Config struct {
	Addr      string
	Schema    graphql.ExecutableSchema
	Auth      Authenticator
	Health    Pinger
	Metrics   *metrics.Collector
	Logger    *slog.Logger
	KeepAlive time.Duration
}

// Server serves /query, /playground, /health and /metrics.
type Server struct {
	cfg     Config
	logger  *slog.Logger
	handler http.Handler
}

// New creates a server. It does not start listening.
func New(cfg Config) (*Server, error) {
	if cfg.Schema == nil {
		return nil, errors.New("server: schema is required")
	}
	if cfg.Auth == nil {
		return nil, errors.New("server: authenticator is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.KeepAlive <= 0 {
		cfg.KeepAlive = DefaultKeepAlive
	}

	s := &Server{
		cfg:    cfg,
		logger: cfg.Logger.With("component", "http"),
	}
	s.handler = s.routes()
	return s, nil
}

// graphqlHandler serves the schema over POST, GET and websocket transports.
func (s *Server) graphqlHandler() http.Handler {
	srv := handler.New(s.cfg.Schema)

	// WebSocket first for subscription upgrades
	srv.AddTransport(transport.Websocket{
		Upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // Clients authenticate with bearer tokens, not cookies
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		InitFunc:              s.websocketInit,
		KeepAlivePingInterval: s.cfg.KeepAlive,
		PingPongInterval:      s.cfg.KeepAlive,
		MissingPongOk:         true,
	})
	srv.AddTransport(transport.Options{})
	srv.AddTransport(transport.GET{})
	srv.AddTransport(transport.POST{})

	srv.SetQueryCache(lru.New[*ast.QueryDocument](1000))
	srv.Use(extension.Introspection{})
	srv.Use(extension.AutomaticPersistedQuery{
		Cache: lru.New[string](100),
	})
	srv.AroundResponses(s.trackResponse)
	return srv
}

// websocketInit authenticates a bearer token sent in the connection_init
// payload. Connections without one stay anonymous.
func (s *Server) websocketInit(ctx context.Context, payload transport.InitPayload) (context.Context, *transport.InitPayload, error) {
	header := payload.Authorization()
	if header == "" {
		return ctx, nil, nil
	}
	token, ok := bearerToken(header)
	if !ok {
		return ctx, nil, errors.New("invalid authorization payload")
	}
	id, err := s.cfg.Auth.Authenticate(token)
	if err != nil {
		return ctx, nil, errors.New("invalid or expired token")
	}
	return graph.WithUser(ctx, id), nil, nil
}

// trackResponse times query and mutation execution. Subscription events are
// not timed since their handler blocks until the next event.
func (s *Server) trackResponse(ctx context.Context, next graphql.ResponseHandler) *graphql.Response {
	if op := graphql.GetOperationContext(ctx).Operation; op != nil && op.Operation == ast.Subscription {
		return next(ctx)
	}
	start := time.Now()
	resp := next(ctx)
	if resp == nil {
		return nil
	}
	var err error
	if len(resp.Errors) > 0 {
		err = resp.Errors[0]
	}
	s.cfg.Metrics.RecordResult(metrics.OpGraphQL, time.Since(start), err)
	return resp
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	query := LoggingMiddleware(s.logger)(AuthMiddleware(s.cfg.Auth)(
		upgradeDeadlines(http.MaxBytesHandler(s.graphqlHandler(), maxBodyBytes))))
	mux.Handle("/query", query)
	mux.Handle("/playground", playground.Handler("recipebox GraphQL", "/query"))
	mux.HandleFunc("/health", s.serveHealth)
	if s.cfg.Metrics != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(s.cfg.Metrics.Registry(), promhttp.HandlerOpts{}))
	}
	return mux
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) serveHealth(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.cfg.Health.Ping(ctx); err != nil {
			s.logger.Warn("health check failed", "error", err)
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "ok")
}

// Run listens on cfg.Addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	httpServer := &http.Server{
		Handler:      s.handler,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "addr", ln.Addr().String())
		errCh <- httpServer.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
