package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/dealdesk/dealdesk/internal/application/service"
)

// SLAWorkerConfig holds configuration for the SLA scan worker
type SLAWorkerConfig struct {
	ScanInterval time.Duration
	ScanTimeout  time.Duration
}

// DefaultSLAWorkerConfig returns default configuration
func DefaultSLAWorkerConfig() SLAWorkerConfig {
	return SLAWorkerConfig{
		ScanInterval: time.Hour,
		ScanTimeout:  5 * time.Minute,
	}
}

// SLAWorker periodically scans monitored agreements for dwell-time breaches
// and fires the corresponding escalation notifications.
type SLAWorker struct {
	config SLAWorkerConfig
	slaSvc service.SLAService
	logger *zap.Logger

	mu        sync.RWMutex
	ctx       context.Context
	cancel    context.CancelFunc
	isRunning bool
	lastScan  time.Time
	scanCount int
	lastError error
}

// NewSLAWorker creates a new SLA scan worker
func NewSLAWorker(config SLAWorkerConfig, slaSvc service.SLAService, logger *zap.Logger) *SLAWorker {
	return &SLAWorker{
		config: config,
		slaSvc: slaSvc,
		logger: logger,
	}
}

// Start begins the worker polling loop
func (w *SLAWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.isRunning {
		w.mu.Unlock()
		return fmt.Errorf("SLA worker already running")
	}

	w.ctx, w.cancel = context.WithCancel(ctx)
	w.isRunning = true
	w.mu.Unlock()

	w.logger.Info("SLAWorker started",
		zap.Duration("scan_interval", w.config.ScanInterval))

	go w.pollLoop()

	return nil
}

// Stop gracefully terminates the worker
func (w *SLAWorker) Stop() error {
	w.mu.Lock()
	if !w.isRunning {
		w.mu.Unlock()
		return nil
	}

	w.isRunning = false
	scans := w.scanCount
	w.mu.Unlock()

	if w.cancel != nil {
		w.cancel()
	}

	w.logger.Info("SLAWorker stopped", zap.Int("scan_count", scans))
	return nil
}

// Name returns the worker name for identification
func (w *SLAWorker) Name() string {
	return "SLAWorker"
}

func (w *SLAWorker) pollLoop() {
	ticker := time.NewTicker(w.config.ScanInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			w.logger.Debug("SLA poll loop context cancelled")
			return

		case <-ticker.C:
			if err := w.runScan(); err != nil {
				w.mu.Lock()
				w.lastError = err
				w.mu.Unlock()
				w.logger.Error("SLA scan failed", zap.Error(err))
			}

			w.mu.Lock()
			w.lastScan = time.Now()
			w.scanCount++
			w.mu.Unlock()
		}
	}
}

func (w *SLAWorker) runScan() error {
	scanCtx, cancel := context.WithTimeout(w.ctx, w.config.ScanTimeout)
	defer cancel()

	return w.slaSvc.ScanOnce(scanCtx, time.Now())
}

// Verify interface compliance
var _ Worker = (*SLAWorker)(nil)
