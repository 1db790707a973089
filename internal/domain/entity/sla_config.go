package entity

import "github.com/dealdesk/dealdesk/internal/domain/stage"

// SLAConfig holds per-stage dwell-time thresholds in days. Read-only input
// to the escalation scheduler; stages without a config are not monitored.
type SLAConfig struct {
	ID                      int64       `json:"id"`
	Stage                   stage.Stage `json:"stage"`
	WarningThresholdDays    int         `json:"warning_threshold_days"`
	CriticalThresholdDays   int         `json:"critical_threshold_days"`
	EscalationThresholdDays int         `json:"escalation_threshold_days"`
}
