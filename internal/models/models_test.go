package models

import (
	"testing"
	"time"
)

func TestArticleStockFlags(t *testing.T) {
	a := Article{QuantityTotal: 10, QuantityAvailable: 3, AlertThreshold: 2}
	if a.IsLowStock() {
		t.Error("3 available with threshold 2 is not low stock")
	}
	a.QuantityAvailable = 2
	if !a.IsLowStock() {
		t.Error("available == threshold must count as low stock")
	}
	a.QuantityAvailable = 0
	if !a.IsOutOfStock() || !a.IsLowStock() {
		t.Error("0 available must be both out of stock and low stock")
	}
}

func TestLoanOverdueIsDerived(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	past := now.Add(-48 * time.Hour)
	future := now.Add(48 * time.Hour)

	l := Loan{Status: LoanStatusActive, ExpectedReturn: past}
	if !l.IsOverdue(now) {
		t.Error("active loan past due date must be overdue")
	}
	if got := l.DisplayStatus(now); got != StatusOverdueLabel {
		t.Errorf("expected %q, got %q", StatusOverdueLabel, got)
	}

	l.ExpectedReturn = future
	if l.IsOverdue(now) {
		t.Error("loan due in the future is not overdue")
	}
	if got := l.DisplayStatus(now); got != LoanStatusActive {
		t.Errorf("expected %q, got %q", LoanStatusActive, got)
	}

	// A returned loan is never overdue, no matter the dates.
	l = Loan{Status: LoanStatusReturned, ExpectedReturn: past}
	if l.IsOverdue(now) {
		t.Error("returned loan must not be overdue")
	}
}

func TestIssuanceOverdueSharesTheRule(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	i := Issuance{Status: IssuanceStatusActive, ExpectedReturn: now.Add(-time.Hour)}
	if !i.IsOverdue(now) {
		t.Error("active issuance past due date must be overdue")
	}
	i.Status = IssuanceStatusReturned
	if i.IsOverdue(now) {
		t.Error("returned issuance must not be overdue")
	}
}
