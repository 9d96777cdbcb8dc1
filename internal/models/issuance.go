package models

import (
	"time"

	"gorm.io/datatypes"
)

// Issuance statuses.
const (
	IssuanceStatusActive   = "Actif"
	IssuanceStatusReturned = "Retourné"
)

// Issuance (remise) records equipment handed out to an agent, identified in
// the field by a QR token. Unlike a loan it lists material names rather than
// referencing stock rows, so it does not touch article counters.
type Issuance struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Agent          string                      `gorm:"size:255;not null;index" json:"agent"`
	Materials      datatypes.JSONSlice[string] `json:"materials"`
	IssueDate      time.Time                   `gorm:"not null" json:"issue_date"`
	ExpectedReturn time.Time                   `gorm:"not null" json:"expected_return"`
	ActualReturn   *time.Time                  `json:"actual_return,omitempty"`
	Status         string                      `gorm:"size:50;not null;index" json:"status"`
	QRCode         string                      `gorm:"size:100;uniqueIndex" json:"qr_code"`
	Comments       string                      `gorm:"size:1000" json:"comments,omitempty"`
}

// IsOverdue reports whether the issuance is still out past its due date.
func (i Issuance) IsOverdue(now time.Time) bool {
	return isOverdue(i.Status, IssuanceStatusActive, i.ExpectedReturn, now)
}

// DisplayStatus layers the derived "En retard" label over the stored status.
func (i Issuance) DisplayStatus(now time.Time) string {
	if i.IsOverdue(now) {
		return StatusOverdueLabel
	}
	return i.Status
}
