package entity

import "time"

// Lead is the sales lead an agreement belongs to. Owned by the external
// CRM surface; the lifecycle core only reads it.
type Lead struct {
	ID             int64     `json:"id"`
	Company        string    `json:"company"`
	ContactName    string    `json:"contact_name,omitempty"`
	ContactEmail   string    `json:"contact_email,omitempty"`
	AccountOwnerID int64     `json:"account_owner_id"`
	IsULCCSProject bool      `json:"is_ulccs_project"`
	CreatedAt      time.Time `json:"created_at"`
}
