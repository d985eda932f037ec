package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/agenthands/kbslice/internal/logging"
)

type Server struct {
	Catalog *Catalog
	Logger  *zap.Logger
}

func NewServer(catalog *Catalog, logger *zap.Logger) *Server {
	return &Server{
		Catalog: catalog,
		Logger:  logging.OrNop(logger),
	}
}

func (s *Server) SetupRouter() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	r.GET("/health", s.Health)
	r.GET("/stats", s.Stats)
	r.GET("/concepts/:cui", s.GetConcept)

	return r
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.Logger.Debug("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("took", time.Since(start)),
		)
	}
}

func (s *Server) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) Stats(c *gin.Context) {
	c.JSON(http.StatusOK, s.Catalog.Stats())
}

func (s *Server) GetConcept(c *gin.Context) {
	cui := c.Param("cui")
	concept, ok := s.Catalog.Concept(cui)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown concept", "cui": cui})
		return
	}
	c.JSON(http.StatusOK, concept)
}
