// Package server exposes the pipeline over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ppiankov/punctuate/internal/logging"
	"github.com/ppiankov/punctuate/internal/model"
)

// Punctuator restores punctuation and capitalization of texts
type Punctuator interface {
	Punctuate(ctx context.Context, texts []string) ([]model.Result, error)
}

// Server serves the punctuation API
type Server struct {
	config     model.ServerConfig
	punctuator Punctuator
	logger     *zap.Logger
	engine     *gin.Engine
}

// PunctuateRequest is the body of POST /v1/punctuate
type PunctuateRequest struct {
	Texts []string `json:"texts"`
}

// PunctuateResponse is the answer to POST /v1/punctuate
type PunctuateResponse struct {
	RequestID string       `json:"request_id"`
	Results   []ResultJSON `json:"results"`
	Failed    int          `json:"failed"`
}

// ResultJSON is one restored text
type ResultJSON struct {
	Index    int    `json:"index"`
	Text     string `json:"text"`
	Segments int    `json:"segments"`
	Repairs  int    `json:"repairs,omitempty"`
	Error    string `json:"error,omitempty"`
}

// New creates a server. A nil logger discards logs.
func New(cfg model.ServerConfig, p Punctuator, logger *zap.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		config:     cfg,
		punctuator: p,
		logger:     logging.Named(logger, "server"),
		engine:     gin.New(),
	}

	s.engine.Use(RequestID(), RequestLogger(s.logger), gin.Recovery())
	s.engine.GET("/healthz", s.handleHealth)
	s.engine.POST("/v1/punctuate", s.handlePunctuate)

	return s
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on the configured address until ctx is cancelled, then shuts
// down gracefully
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.config.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", zap.String("addr", s.config.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handlePunctuate(c *gin.Context) {
	var req PunctuateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid request body: %v", err)})
		return
	}
	if req.Texts == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "texts is required"})
		return
	}
	if s.config.MaxTexts > 0 && len(req.Texts) > s.config.MaxTexts {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{
			"error": fmt.Sprintf("too many texts: %d (max %d)", len(req.Texts), s.config.MaxTexts),
		})
		return
	}

	results, err := s.punctuator.Punctuate(c.Request.Context(), req.Texts)
	if err != nil {
		s.logger.Warn("punctuate failed", zap.String("request_id", GetRequestID(c)), zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}

	resp := PunctuateResponse{
		RequestID: GetRequestID(c),
		Results:   make([]ResultJSON, len(results)),
	}
	for i, r := range results {
		resp.Results[i] = ResultJSON{
			Index:    r.Index,
			Text:     r.Text,
			Segments: r.Segments,
			Repairs:  r.Repairs,
		}
		if r.Error != nil {
			resp.Results[i].Error = r.Error.Error()
			resp.Failed++
		}
	}

	c.JSON(http.StatusOK, resp)
}
