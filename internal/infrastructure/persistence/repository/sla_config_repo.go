package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/dealdesk/dealdesk/internal/application/port"
	"github.com/dealdesk/dealdesk/internal/domain/entity"
	"github.com/dealdesk/dealdesk/internal/domain/stage"
)

// SLAConfigRepository implements port.SLAConfigRepository
type SLAConfigRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSLAConfigRepository creates a new SLA config repository
func NewSLAConfigRepository(db *sql.DB, logger *zap.Logger) port.SLAConfigRepository {
	return &SLAConfigRepository{
		db:     db,
		logger: logger,
	}
}

// GetByStage returns the thresholds for a stage, nil when unmonitored
func (r *SLAConfigRepository) GetByStage(ctx context.Context, s stage.Stage) (*entity.SLAConfig, error) {
	query := `
		SELECT id, stage, warning_threshold_days, critical_threshold_days, escalation_threshold_days
		FROM sla_configs
		WHERE stage = ?
	`

	var (
		cfg      entity.SLAConfig
		stageStr string
	)
	err := executorFrom(ctx, r.db).QueryRowContext(ctx, query, s.String()).Scan(
		&cfg.ID, &stageStr, &cfg.WarningThresholdDays, &cfg.CriticalThresholdDays, &cfg.EscalationThresholdDays,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get SLA config", zap.String("stage", s.String()), zap.Error(err))
		return nil, fmt.Errorf("failed to get SLA config: %w", err)
	}
	cfg.Stage = stage.Stage(stageStr)
	return &cfg, nil
}

// List returns every configured stage threshold
func (r *SLAConfigRepository) List(ctx context.Context) ([]*entity.SLAConfig, error) {
	query := `
		SELECT id, stage, warning_threshold_days, critical_threshold_days, escalation_threshold_days
		FROM sla_configs
		ORDER BY id
	`

	rows, err := executorFrom(ctx, r.db).QueryContext(ctx, query)
	if err != nil {
		r.logger.Error("Failed to list SLA configs", zap.Error(err))
		return nil, fmt.Errorf("failed to list SLA configs: %w", err)
	}
	defer rows.Close()

	var configs []*entity.SLAConfig
	for rows.Next() {
		var (
			cfg      entity.SLAConfig
			stageStr string
		)
		if err := rows.Scan(&cfg.ID, &stageStr, &cfg.WarningThresholdDays, &cfg.CriticalThresholdDays, &cfg.EscalationThresholdDays); err != nil {
			return nil, fmt.Errorf("failed to scan SLA config: %w", err)
		}
		cfg.Stage = stage.Stage(stageStr)
		configs = append(configs, &cfg)
	}
	return configs, rows.Err()
}

// Verify interface compliance
var _ port.SLAConfigRepository = (*SLAConfigRepository)(nil)
