// Package server exposes narrative conversion over HTTP.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ppiankov/narrtl/internal/metrics"
	"github.com/ppiankov/narrtl/internal/model"
	"github.com/ppiankov/narrtl/internal/pipeline"
)

const turtleContentType = "text/turtle; charset=utf-8"

// Processor converts an in-memory narrative
type Processor interface {
	ProcessNarrative(ctx context.Context, n *pipeline.Narrative) (*model.Report, error)
}

// Server serves the conversion API
type Server struct {
	processor Processor
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// NewServer creates a server; m may be nil to disable /metrics
func NewServer(processor Processor, m *metrics.Metrics, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{processor: processor, metrics: m, logger: logger}
}

// SetupRouter registers the routes
func (s *Server) SetupRouter() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.logRequests)

	r.GET("/healthz", s.Health)
	r.POST("/v1/convert", s.Convert)
	if s.metrics != nil {
		r.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	}
	return r
}

// Run serves on addr until ctx is cancelled
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.SetupRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) logRequests(c *gin.Context) {
	start := time.Now()
	c.Next()
	s.logger.Debug("request", "method", c.Request.Method, "path", c.FullPath(),
		"status", c.Writer.Status(), "duration", time.Since(start))
}

// Health reports liveness
func (s *Server) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ConvertRequest is the body of POST /v1/convert
type ConvertRequest struct {
	Subject string `json:"subject"`
	Text    string `json:"text" binding:"required"`
}

// ConvertResponse is the JSON answer of POST /v1/convert
type ConvertResponse struct {
	Report *model.Report `json:"report"`
	Turtle string        `json:"turtle"`
}

// Convert processes one narrative. Turtle is returned directly when the
// client accepts text/turtle or asks for ?format=turtle.
func (s *Server) Convert(c *gin.Context) {
	var req ConvertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: text is required"})
		return
	}

	report, err := s.processor.ProcessNarrative(c.Request.Context(), &pipeline.Narrative{
		Subject: req.Subject,
		Source:  "request",
		Text:    req.Text,
	})
	if err != nil {
		s.logger.Warn("conversion failed", "subject", req.Subject, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "conversion failed"})
		return
	}

	doc := pipeline.Document(report)
	if c.Query("format") == "turtle" || strings.Contains(c.GetHeader("Accept"), "text/turtle") {
		c.Data(http.StatusOK, turtleContentType, []byte(doc.String()))
		return
	}
	c.JSON(http.StatusOK, ConvertResponse{Report: report, Turtle: doc.String()})
}
