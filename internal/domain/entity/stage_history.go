package entity

import (
	"time"

	"github.com/dealdesk/dealdesk/internal/domain/stage"
)

// StageHistory is one append-only audit entry for an agreement stage change.
// The newest entry is the sole source of truth for time-in-stage.
type StageHistory struct {
	ID          int64       `json:"id"`
	AgreementID int64       `json:"agreement_id"`
	FromStage   stage.Stage `json:"from_stage"`
	ToStage     stage.Stage `json:"to_stage"`
	Notes       string      `json:"notes,omitempty"`
	ChangedBy   int64       `json:"changed_by"`
	ChangedAt   time.Time   `json:"changed_at"`
}
