package models

import "time"

// Loan statuses. "En retard" is intentionally absent: overdue is a derived
// display state computed on read, the stored status only ever holds these two.
const (
	LoanStatusActive   = "En cours"
	LoanStatusReturned = "Retourné"
	StatusOverdueLabel = "En retard"
)

// Loan (emprunt) tracks a quantity of one article handed out to an agent.
// Granting a loan decrements the article's QuantityAvailable; returning it
// increments it back. Active → Returned is the only transition.
type Loan struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Agent          string     `gorm:"size:255;not null;index" json:"agent"`
	ArticleID      uint       `gorm:"index;not null" json:"article_id"`
	Article        *Article   `gorm:"foreignKey:ArticleID" json:"article,omitempty"`
	Quantity       int        `gorm:"not null" json:"quantity"`
	LoanDate       time.Time  `gorm:"not null" json:"loan_date"`
	ExpectedReturn time.Time  `gorm:"not null" json:"expected_return"`
	ActualReturn   *time.Time `json:"actual_return,omitempty"`
	Status         string     `gorm:"size:50;not null;index" json:"status"`
}

// isOverdue is the single overdue rule shared by loans and issuances: still
// active and past the expected return date. Never persisted.
func isOverdue(status, activeStatus string, expectedReturn, now time.Time) bool {
	return status == activeStatus && now.After(expectedReturn)
}

// IsOverdue reports whether the loan is still out past its due date.
func (l Loan) IsOverdue(now time.Time) bool {
	return isOverdue(l.Status, LoanStatusActive, l.ExpectedReturn, now)
}

// DisplayStatus layers the derived "En retard" label over the stored status.
func (l Loan) DisplayStatus(now time.Time) string {
	if l.IsOverdue(now) {
		return StatusOverdueLabel
	}
	return l.Status
}
