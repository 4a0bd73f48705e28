package api

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/nemirov/pulse-bot/internal/analytics"
	"go.uber.org/zap"
)

// Server exposes the analytics rollup to the dashboard frontend.
type Server struct {
	aggregator *analytics.Aggregator
	logger     *zap.Logger
	engine     *gin.Engine
}

func NewServer(aggregator *analytics.Aggregator, allowedOrigins []string, logger *zap.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = allowedOrigins
	corsConfig.AllowMethods = []string{http.MethodGet, http.MethodOptions}
	corsConfig.AllowHeaders = []string{"Content-Type"}
	router.Use(cors.New(corsConfig))

	s := &Server{
		aggregator: aggregator,
		logger:     logger,
		engine:     router,
	}

	apiGroup := router.Group("/api")
	apiGroup.GET("/analytics", s.handleAnalytics)
	apiGroup.GET("/health", s.handleHealth)

	return s
}

func (s *Server) Run(addr string) error {
	return s.engine.Run(addr)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) handleAnalytics(c *gin.Context) {
	summary, err := s.aggregator.Summary(c.Request.Context())
	if err != nil {
		s.logger.Error("Failed to compute analytics summary", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	if summary.TotalUsers == 0 && summary.TotalMessages == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "No data available"})
		return
	}

	c.JSON(http.StatusOK, summary)
}

// handleHealth answers regardless of database reachability; it reports
// that the process is serving, nothing more.
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}
