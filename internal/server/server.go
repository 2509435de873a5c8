package server

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/brpaz/echozap"
	"github.com/cirruslabs/mediacache/internal/opentelemetry"
	"github.com/cirruslabs/mediacache/internal/retrieval"
	"github.com/cirruslabs/mediacache/internal/server/auth"
	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

type Server struct {
	listener   net.Listener
	httpServer *http.Server
	echo       *echo.Echo
	service    *retrieval.Service
	secret     string
	logger     *zap.SugaredLogger

	// Metrics
	requestsCounter metric.Int64Counter
}

func New(addr string, service *retrieval.Service, opts ...Option) (*Server, error) {
	server := &Server{
		service: service,
	}

	// Listen on the desired port
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	server.listener = listener

	// Apply options
	for _, opt := range opts {
		opt(server)
	}

	// Apply defaults
	if server.logger == nil {
		server.logger = zap.NewNop().Sugar()
	}

	// Metrics
	server.requestsCounter, err = opentelemetry.DefaultMeter.Int64Counter("org.cirruslabs.mediacache.requests.total")
	if err != nil {
		return nil, err
	}

	// Configure routes
	server.echo = echo.New()
	server.echo.HideBanner = true
	server.echo.HidePort = true

	server.echo.Use(echozap.ZapLogger(server.logger.Desugar()))
	server.echo.Use(server.measure)

	var middlewares []echo.MiddlewareFunc

	if server.secret != "" {
		middlewares = append(middlewares, auth.Middleware(server.secret))
	}

	server.echo.GET("/health", server.handleHealth)
	server.echo.GET("/media", server.handleMedia, middlewares...)
	server.echo.GET("/blob/:id", server.handleBlob, middlewares...)
	server.echo.POST("/prefetch", server.handlePrefetch, middlewares...)
	server.echo.DELETE("/cache", server.handlePurge, middlewares...)

	// Configure HTTP server
	server.httpServer = &http.Server{
		Handler:           otelhttp.NewHandler(server.echo, "http.request"),
		ReadHeaderTimeout: 30 * time.Second,
	}

	return server, nil
}

func (server *Server) Addr() string {
	return strings.ReplaceAll(server.listener.Addr().String(), "[::]", "127.0.0.1")
}

func (server *Server) Run(ctx context.Context) error {
	server.logger.Infof("listening on %s", server.Addr())

	go func() {
		<-ctx.Done()

		_ = server.httpServer.Close()
	}()

	return server.httpServer.Serve(server.listener)
}

func (server *Server) handleHealth(c echo.Context) error {
	return c.String(http.StatusOK, "healthy")
}

func (server *Server) measure(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := next(c); err != nil {
			c.Error(err)
		}

		//nolint:contextcheck // can't use request.Context() here because it might be canceled
		server.requestsCounter.Add(context.Background(), 1, metric.WithAttributes(
			attribute.String("method", c.Request().Method),
			attribute.Int("status_code", c.Response().Status),
			attribute.String("route", c.Path()),
		))

		return nil
	}
}
