// Package http provides HTTP server adapter for the application layer.
// This is a thin adapter layer that translates HTTP requests to application service calls.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dkp-kub/bantuan-kub/internal/application/service"
)

// Logger interface for logging operations
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// MaxUploadBytes bounds an uploaded BAST document
	MaxUploadBytes int64

	// JWTSecret and Issuer verify the bearer tokens of the identity provider
	JWTSecret []byte
	Issuer    string
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:           "0.0.0.0",
		Port:           8080,
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   30 * time.Second,
		MaxUploadBytes: 10 << 20,
	}
}

// Services groups the application services exposed over HTTP
type Services struct {
	Pengajuan  service.PengajuanService
	Monitoring service.MonitoringService
	Kelompok   service.KelompokService
	Documents  service.DocumentService
}

// Server is the HTTP server adapter
type Server struct {
	config     ServerConfig
	httpServer *http.Server
	router     *gin.Engine
	services   Services
	logger     Logger
}

// NewServer creates a new HTTP server with the given services
func NewServer(config ServerConfig, services Services, logger Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	server := &Server{
		config:   config,
		router:   router,
		services: services,
		logger:   logger,
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}

// setupMiddleware configures middleware for the router
func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(requestIDMiddleware())
	s.router.Use(s.loggingMiddleware())
}

// loggingMiddleware creates a logging middleware
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		s.logger.Info("HTTP request",
			"method", method,
			"path", path,
			"status", c.Writer.Status(),
			"latency", time.Since(start).String(),
			"client_ip", c.ClientIP(),
			"request_id", c.GetString(requestIDKey),
		)
	}
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	h := NewHandlers(s.services, s.config.MaxUploadBytes, s.logger)

	s.router.GET("/health", h.HealthCheck)

	// The token in the query string is the credential
	s.router.GET("/files", h.OpenDocument)

	api := s.router.Group("/api", authMiddleware(s.config.JWTSecret, s.config.Issuer))
	{
		api.POST("/kelompok", h.CreateKelompok)
		api.GET("/kelompok", h.ListKelompok)
		api.GET("/kelompok/:id", h.GetKelompok)

		api.POST("/pengajuan", h.SubmitPengajuan)
		api.GET("/pengajuan", h.ListPengajuan)
		api.GET("/pengajuan/:id", h.GetPengajuan)
		api.PUT("/pengajuan/:id", h.EditPengajuan)
		api.DELETE("/pengajuan/:id", h.DeletePengajuan)
		api.POST("/pengajuan/:id/verifikasi-admin", h.RecordAdminDecision)
		api.POST("/pengajuan/:id/verifikasi-kabid", h.RecordKabidDecision)
		api.POST("/pengajuan/:id/bast", h.AttachBAST)
		api.GET("/pengajuan/:id/bast-url", h.BASTURL)
		api.GET("/pengajuan/:id/history", h.PengajuanHistory)

		api.GET("/laporan/kadis", h.KadisReport)

		api.POST("/monitoring", h.SubmitMonitoring)
		api.GET("/monitoring", h.ListMonitoring)
		api.GET("/monitoring/:id", h.GetMonitoring)
		api.PUT("/monitoring/:id", h.EditMonitoring)
		api.DELETE("/monitoring/:id", h.DeleteMonitoring)
		api.POST("/monitoring/:id/verifikasi-kabid", h.RecordMonitoringDecision)
		api.GET("/monitoring/:id/history", h.MonitoringHistory)
	}
}

// Start starts the HTTP server
func (s *Server) Start(ctx context.Context) error {
	addr := s.Address()

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.logger.Info("Starting HTTP server", "address", addr)

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("HTTP server shutdown requested")
		return s.Stop()
	case err := <-errCh:
		s.logger.Error("HTTP server error", "error", err)
		return err
	}
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}

	s.logger.Info("Stopping HTTP server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
		return err
	}

	s.logger.Info("HTTP server stopped")
	return nil
}

// Router returns the underlying gin router (for testing)
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Address returns the server address
func (s *Server) Address() string {
	return fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
}
