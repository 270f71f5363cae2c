package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/cevicheriapuertoprado-pixel/cevicheria-pos/config"
	"github.com/cevicheriapuertoprado-pixel/cevicheria-pos/internal/api/handlers"
	"github.com/cevicheriapuertoprado-pixel/cevicheria-pos/internal/metrics"
	"github.com/cevicheriapuertoprado-pixel/cevicheria-pos/internal/service"
)

// Dependencies are the collaborators served over HTTP. Metrics and NewRelic
// may be nil.
type Dependencies struct {
	Services     *service.Services
	Metrics      *metrics.Metrics
	NewRelic     *newrelic.Application
	HealthChecks map[string]handlers.HealthCheck
}

// Server represents the HTTP server
type Server struct {
	config     config.ServerConfig
	router     *gin.Engine
	httpServer *http.Server
}

// NewServer creates a new HTTP server
func NewServer(cfg config.ServerConfig, deps Dependencies) *Server {
	server := &Server{config: cfg}
	server.router = server.setupRouter(deps)
	server.httpServer = &http.Server{
		Addr:         cfg.Address,
		Handler:      server.router,
		ReadTimeout:  cfg.Timeout,
		WriteTimeout: cfg.Timeout,
	}
	return server
}

// setupRouter configures the HTTP router
func (s *Server) setupRouter(deps Dependencies) *gin.Engine {
	router := gin.New()
	if s.config.MaxUploadBytes > 0 {
		router.MaxMultipartMemory = s.config.MaxUploadBytes
	}

	router.Use(gin.Recovery())
	router.Use(RequestID())
	router.Use(Logger())
	if s.config.CorsEnabled {
		router.Use(CORS(s.config.CorsOrigins))
	}
	if deps.Metrics != nil {
		router.Use(Metrics(deps.Metrics))
	}
	if deps.NewRelic != nil {
		router.Use(nrgin.Middleware(deps.NewRelic))
	}

	router.GET("/health", handlers.NewHealthHandler(deps.HealthChecks).GetHealth)
	if s.config.MetricsEnabled && deps.Metrics != nil {
		router.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}

	svc := deps.Services
	v1 := router.Group("/api/v1")
	handlers.NewTableHandler(svc.Tables, svc.Orders).RegisterRoutes(v1)
	handlers.NewOrderHandler(svc.Orders).RegisterRoutes(v1)
	handlers.NewMenuHandler(svc.Menu, s.config.MaxUploadBytes).RegisterRoutes(v1)
	handlers.NewRegisterHandler(svc.Registers, svc.Reports.Today).RegisterRoutes(v1)
	handlers.NewReportHandler(svc.Reports).RegisterRoutes(v1)

	return router
}

// Handler returns the router serving every route
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server and blocks until it stops
func (s *Server) Start() error {
	log.Info().Str("address", s.config.Address).Msg("Starting HTTP server")

	if err := s.httpServer.ListenAndServe(); err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Wrap(err, "HTTP server error")
	}
	return nil
}

// Shutdown gracefully stops the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	log.Info().Msg("Shutting down HTTP server")

	timeout := s.config.ShutdownTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "HTTP server shutdown error")
	}

	log.Info().Msg("HTTP server shut down successfully")
	return nil
}
