package http_api

import "github.com/core-coin/blocksage/internal/metrics"

// routes sets up the routes for the HTTP server.
func (s *HTTPServer) routes() {
	s.router.GET("/healthz", s.health)
	s.router.GET("/metrics", metrics.Handler())

	v1 := s.router.Group("/api/v1")

	v1.POST("/wallets/connect", s.connect)
	v1.POST("/wallets/:address/scan", s.scan)
	v1.GET("/wallets/:address/summary", s.summary)

	v1.POST("/risk/score", s.score)

	v1.POST("/sessions", s.createSession)
	v1.GET("/sessions/:id", s.getSession)
	v1.POST("/sessions/:id/messages", s.postMessage)
	v1.DELETE("/sessions/:id", s.deleteSession)
}
