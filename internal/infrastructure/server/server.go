package server

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/previewd/previewd/internal/api/http"
	"github.com/previewd/previewd/internal/api/middleware"
	"github.com/previewd/previewd/internal/api/ws"
	"github.com/previewd/previewd/internal/domain/session"
	"github.com/previewd/previewd/internal/infrastructure/config"
	"github.com/previewd/previewd/internal/infrastructure/logging"
	"github.com/previewd/previewd/internal/infrastructure/monitoring"
)

// Server wraps the HTTP server and dependencies
type Server struct {
	router   *gin.Engine
	registry *session.Registry
	logger   *logging.Logger
	config   *config.Config
	metrics  *monitoring.Metrics
}

// NewServer creates a new server instance
func NewServer(cfg *config.Config) (*Server, error) {
	var logger *logging.Logger
	if cfg.Logging.Development {
		logger = logging.NewDevelopment()
	} else {
		logger = logging.NewDefault()
	}

	logger.Info("Initializing previewd",
		zap.String("port", cfg.Server.Port),
		zap.String("root", cfg.Preview.Root),
		zap.Duration("debounce", cfg.Preview.Debounce()),
	)

	metrics := monitoring.New()

	factory := func(key, root string) (*session.Session, error) {
		return session.New(key, root, session.Options{
			Quiet:    cfg.Preview.Debounce(),
			Sanitize: cfg.Preview.Sanitize,
			Logger:   logger,
			Metrics:  metrics,
		})
	}
	registry := session.NewRegistry(factory, logger)

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		router.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		}))
	}

	handlers := http.NewHandlers(registry, cfg, logger)
	wsHandler := ws.NewHandler(registry, logger, metrics)

	router.GET("/", handlers.Root)
	router.GET("/health", handlers.Health)

	// Session lifecycle
	router.GET("/sessions", handlers.ListSessions)
	router.POST("/sessions", handlers.CreateSession)
	router.GET("/sessions/:key", handlers.GetSession)
	router.DELETE("/sessions/:key", handlers.DeleteSession)
	router.GET("/sessions/:key/files", handlers.ListDocuments)
	router.GET("/sessions/:key/assets/*asset", handlers.ServeAsset)

	// WebSocket
	router.GET("/stream/:key", wsHandler.HandleConnection)

	// Metrics
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	logger.Info("Server initialized successfully")

	return &Server{
		router:   router,
		registry: registry,
		logger:   logger,
		config:   cfg,
		metrics:  metrics,
	}, nil
}

// Run starts the HTTP server
func (s *Server) Run() error {
	addr := s.config.Server.Host + ":" + s.config.Server.Port
	s.logger.Info("Starting HTTP server", zap.String("addr", addr))
	return s.router.Run(addr)
}

// Close gracefully shuts down the server
func (s *Server) Close() error {
	s.logger.Info("Shutting down server...")
	s.registry.Close()
	s.logger.Sync()
	return nil
}
