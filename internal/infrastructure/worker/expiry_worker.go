package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/dealdesk/dealdesk/internal/application/service"
)

// ExpiryWorkerConfig holds configuration for the expiry worker
type ExpiryWorkerConfig struct {
	CheckInterval time.Duration
	CheckTimeout  time.Duration
}

// DefaultExpiryWorkerConfig returns default configuration
func DefaultExpiryWorkerConfig() ExpiryWorkerConfig {
	return ExpiryWorkerConfig{
		CheckInterval: 6 * time.Hour,
		CheckTimeout:  2 * time.Minute,
	}
}

// ExpiryWorker moves Active agreements past their end date to Expired
type ExpiryWorker struct {
	config ExpiryWorkerConfig
	slaSvc service.SLAService
	logger *zap.Logger

	mu        sync.RWMutex
	ctx       context.Context
	cancel    context.CancelFunc
	isRunning bool
	lastCheck time.Time
	lastError error
}

// NewExpiryWorker creates a new expiry worker
func NewExpiryWorker(config ExpiryWorkerConfig, slaSvc service.SLAService, logger *zap.Logger) *ExpiryWorker {
	return &ExpiryWorker{
		config: config,
		slaSvc: slaSvc,
		logger: logger,
	}
}

// Start begins the worker polling loop
func (w *ExpiryWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.isRunning {
		w.mu.Unlock()
		return fmt.Errorf("expiry worker already running")
	}

	w.ctx, w.cancel = context.WithCancel(ctx)
	w.isRunning = true
	w.mu.Unlock()

	w.logger.Info("ExpiryWorker started",
		zap.Duration("check_interval", w.config.CheckInterval))

	go w.pollLoop()

	return nil
}

// Stop gracefully terminates the worker
func (w *ExpiryWorker) Stop() error {
	w.mu.Lock()
	if !w.isRunning {
		w.mu.Unlock()
		return nil
	}

	w.isRunning = false
	w.mu.Unlock()

	if w.cancel != nil {
		w.cancel()
	}

	w.logger.Info("ExpiryWorker stopped")
	return nil
}

// Name returns the worker name for identification
func (w *ExpiryWorker) Name() string {
	return "ExpiryWorker"
}

func (w *ExpiryWorker) pollLoop() {
	ticker := time.NewTicker(w.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			w.logger.Debug("Expiry poll loop context cancelled")
			return

		case <-ticker.C:
			if err := w.runCheck(); err != nil {
				w.mu.Lock()
				w.lastError = err
				w.mu.Unlock()
				w.logger.Error("Expiry check failed", zap.Error(err))
			}

			w.mu.Lock()
			w.lastCheck = time.Now()
			w.mu.Unlock()
		}
	}
}

func (w *ExpiryWorker) runCheck() error {
	checkCtx, cancel := context.WithTimeout(w.ctx, w.config.CheckTimeout)
	defer cancel()

	return w.slaSvc.ExpireOverdue(checkCtx, time.Now())
}

// Verify interface compliance
var _ Worker = (*ExpiryWorker)(nil)
