// Package http provides the HTTP server adapter for the application layer.
// This is a thin adapter layer that translates HTTP requests to application service calls.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/dealdesk/dealdesk/internal/application/service"
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
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:         "0.0.0.0",
		Port:         8080,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}

// Server is the HTTP server adapter
type Server struct {
	config     ServerConfig
	httpServer *http.Server
	router     *gin.Engine
	handlers   *Handlers
	logger     Logger
}

// NewServer creates a new HTTP server with the given services
func NewServer(
	config ServerConfig,
	agreementSvc service.AgreementService,
	approvalSvc service.ApprovalService,
	flowSvc service.ApprovalConfigService,
	historySvc service.StageHistoryService,
	leadSvc service.LeadService,
	revisionSvc service.RevisionService,
	logger Logger,
) *Server {
	gin.SetMode(gin.ReleaseMode)

	server := &Server{
		config:   config,
		router:   gin.New(),
		handlers: NewHandlers(agreementSvc, approvalSvc, flowSvc, historySvc, leadSvc, revisionSvc, logger),
		logger:   logger,
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}

// setupMiddleware configures middleware for the router
func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(s.requestIDMiddleware())
	s.router.Use(s.loggingMiddleware())
}

// requestIDMiddleware tags each request with an id for log correlation
func (s *Server) requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set("request_id", requestID)
		c.Header("X-Request-ID", requestID)
		c.Next()
	}
}

// loggingMiddleware creates a logging middleware
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		s.logger.Info("HTTP request",
			"method", method,
			"path", path,
			"status", status,
			"latency", latency.String(),
			"request_id", c.GetString("request_id"),
			"client_ip", c.ClientIP(),
		)
	}
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	h := s.handlers

	// Health check
	s.router.GET("/health", h.HealthCheck)

	api := s.router.Group("/api")
	{
		// Agreements
		api.POST("/agreements", h.CreateAgreement)
		api.GET("/agreements", h.ListAgreements)
		api.GET("/agreements/:id", h.GetAgreement)
		api.DELETE("/agreements/:id", h.RemoveAgreement)
		api.PUT("/agreements/:id/change-stage", h.ChangeStage)

		// Department reviews
		api.PUT("/agreements/:id/review-delivery", h.ReviewDelivery)
		api.PUT("/agreements/:id/review-procurement", h.ReviewProcurement)
		api.PUT("/agreements/:id/review-finance", h.ReviewFinance)
		api.PUT("/agreements/:id/review-client", h.ReviewClient)
		api.PUT("/agreements/:id/approve-ceo", h.ApproveCEO)
		api.PUT("/agreements/:id/approve-ulccs", h.ApproveULCCS)

		// Signatures and terminal moves
		api.PUT("/agreements/:id/sign-client", h.SignClient)
		api.PUT("/agreements/:id/sign-company", h.SignCompany)
		api.PUT("/agreements/:id/terminate", h.TerminateAgreement)
		api.PUT("/agreements/:id/cancel", h.CancelAgreement)

		// Custom approval flow
		api.PUT("/agreements/:id/approval-flow", h.DefineApprovalFlow)
		api.GET("/agreements/:id/approval-flow", h.GetApprovalFlow)
		api.POST("/agreements/:id/send-for-approval", h.SendForApproval)
		api.POST("/agreements/:id/return-to-creator", h.ReturnToCreator)

		// Audit trail and approvals of one agreement
		api.GET("/agreements/:id/history", h.GetHistory)
		api.GET("/agreements/:id/approvals", h.GetAgreementApprovals)

		// Approval engine
		api.POST("/approvals/workflow", h.CreateApprovalWorkflow)
		api.PUT("/approvals/:id/respond", h.RespondApproval)
		api.PUT("/approvals/:id/skip", h.SkipApproval)

		// Leads and negotiation revisions
		api.POST("/leads", h.CreateLead)
		api.GET("/leads", h.ListLeads)
		api.GET("/leads/:id", h.GetLead)
		api.GET("/leads/:id/revisions", h.ListRevisions)
		api.POST("/revisions", h.SubmitRevision)
		api.GET("/revisions/:id", h.GetRevision)
	}
}

// Start starts the HTTP server
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

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

// Stop gracefully shuts down the HTTP server
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("HTTP server shutdown failed", "error", err)
		return err
	}

	s.logger.Info("HTTP server stopped")
	return nil
}

// Router exposes the underlying gin engine for tests
func (s *Server) Router() http.Handler {
	return s.router
}
