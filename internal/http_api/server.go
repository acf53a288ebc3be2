package http_api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/core-coin/blocksage/internal/advisor"
	"github.com/core-coin/blocksage/internal/metrics"
	"github.com/core-coin/blocksage/internal/models"
	"github.com/core-coin/blocksage/pkg/logger"
)

// ShutdownTimeout bounds how long Shutdown waits for in-flight requests.
const ShutdownTimeout = 10 * time.Second

// Service is what the API needs from the application: wallet scans and the
// advisory sessions.
type Service interface {
	Connect(ctx context.Context, address, telegramChatID string) (*models.ScanResult, error)
	Scan(ctx context.Context, address string) (*models.ScanResult, error)
	LatestScan(ctx context.Context, address string) (*models.ScanResult, error)
	Sessions() *advisor.Manager
}

// HTTPServer serves the REST API under /api/v1 plus health and metrics.
type HTTPServer struct {
	logger *logger.Logger
	router *gin.Engine
	port   int
	// set by Start
	server *http.Server
	app    Service
}

// The web client is served from another origin and only uses these verbs.
var corsHeaders = map[string]string{
	"Access-Control-Allow-Origin":  "*",
	"Access-Control-Allow-Methods": "GET, POST, DELETE, OPTIONS",
	"Access-Control-Allow-Headers": "Content-Type, Content-Length, Accept, Authorization, X-Requested-With",
	"Access-Control-Max-Age":       "600",
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		for k, v := range corsHeaders {
			c.Header(k, v)
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func NewHTTPServer(app Service, port int, logger *logger.Logger) *HTTPServer {
	router := gin.Default()
	router.Use(corsMiddleware(), metrics.Middleware())

	s := &HTTPServer{
		router: router,
		port:   port,
		app:    app,
		logger: logger,
	}
	s.routes()
	return s
}

// Start blocks serving requests until Shutdown; a listen failure is fatal.
func (s *HTTPServer) Start() {
	addr := fmt.Sprintf("0.0.0.0:%v", s.port)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Info("Starting HTTP server", "address", addr)
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		s.logger.Fatal("Failed to start the HTTP server", "error", err)
	}
}

// Shutdown stops accepting requests and waits up to ShutdownTimeout for the rest.
func (s *HTTPServer) Shutdown() error {
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()

	s.logger.Info("Shutting down HTTP server...")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("HTTP server shutdown error: %w", err)
	}

	s.logger.Info("HTTP server shut down successfully")
	return nil
}
