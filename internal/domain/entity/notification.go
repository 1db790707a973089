package entity

import "time"

// Notification kinds emitted by the lifecycle core and the SLA scheduler
const (
	NotificationSLAWarning      = "SLA_WARNING"
	NotificationSLACritical     = "SLA_CRITICAL"
	NotificationSLAEscalation   = "SLA_ESCALATION"
	NotificationClientFollowUp  = "CLIENT_FOLLOW_UP"
	NotificationApprovalPending = "APPROVAL_PENDING"
)

// Notification is one in-app message for a user. Dispatch is fire-and-forget;
// DedupeKey suppresses repeats of the same alert within a scan window.
type Notification struct {
	ID          int64     `json:"id"`
	RecipientID int64     `json:"recipient_id"`
	Kind        string    `json:"kind"`
	Subject     string    `json:"subject"`
	Body        string    `json:"body,omitempty"`
	DedupeKey   string    `json:"dedupe_key,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
