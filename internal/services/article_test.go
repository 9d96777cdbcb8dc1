package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mguerin/materiguard/internal/models"
)

func TestArticleCreateStartsFull(t *testing.T) {
	db := setupTestDB(t)
	svc := NewArticleService(db)

	a := &models.Article{Name: "Radio portative", QuantityTotal: 5, AlertThreshold: 1}
	require.NoError(t, svc.Create(a))
	assert.Equal(t, 5, a.QuantityAvailable, "availability starts equal to total")

	got, err := svc.GetByID(a.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, got.QuantityAvailable)
}

func TestArticleCreateValidation(t *testing.T) {
	db := setupTestDB(t)
	svc := NewArticleService(db)

	err := svc.Create(&models.Article{Name: "", QuantityTotal: 5})
	require.ErrorIs(t, err, ErrValidation)

	err = svc.Create(&models.Article{Name: "Casque", QuantityTotal: 0})
	require.ErrorIs(t, err, ErrValidation)
}

func TestAdjustAvailabilityBounds(t *testing.T) {
	db := setupTestDB(t)
	svc := NewArticleService(db)
	a := seedArticle(t, db, "Gilet pare-balles", 10, 10, 2)

	// Floor: cannot go below zero, and a failed adjustment mutates nothing.
	_, err := svc.AdjustAvailability(a.ID, -11)
	require.ErrorIs(t, err, ErrInsufficientStock)
	got, err := svc.GetByID(a.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, got.QuantityAvailable)

	// Ceiling: cannot exceed the total.
	_, err = svc.AdjustAvailability(a.ID, 1)
	require.ErrorIs(t, err, ErrCapacityExceeded)

	// Unknown article.
	_, err = svc.AdjustAvailability(9999, -1)
	require.ErrorIs(t, err, ErrNotFound)

	// A legal adjustment returns the updated record.
	updated, err := svc.AdjustAvailability(a.ID, -4)
	require.NoError(t, err)
	assert.Equal(t, 6, updated.QuantityAvailable)
}

// The scenario from the ops runbook: 10 total, threshold 2. A 9-unit loan
// leaves 1 (low stock), 2 more must be refused, returning 9 restores 10.
func TestStockScenario(t *testing.T) {
	db := setupTestDB(t)
	articles := NewArticleService(db)
	loans := NewLoanService(db)
	a := seedArticle(t, db, "Lampe torche", 10, 10, 2)

	loan, err := loans.Grant(LoanInput{Agent: "Martin", ArticleID: a.ID, Quantity: 9, ExpectedReturn: futureDate()})
	require.NoError(t, err)

	got, err := articles.GetByID(a.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.QuantityAvailable)

	low, err := articles.GetLowStock()
	require.NoError(t, err)
	require.Len(t, low, 1)
	assert.Equal(t, a.ID, low[0].ID, "article at 1/10 with threshold 2 is low stock")

	_, err = loans.Grant(LoanInput{Agent: "Durand", ArticleID: a.ID, Quantity: 2, ExpectedReturn: futureDate()})
	require.ErrorIs(t, err, ErrInsufficientStock)
	got, _ = articles.GetByID(a.ID)
	assert.Equal(t, 1, got.QuantityAvailable, "failed grant must not move stock")

	_, err = loans.MarkAsReturned(loan.ID, futureDate())
	require.NoError(t, err)
	got, _ = articles.GetByID(a.ID)
	assert.Equal(t, 10, got.QuantityAvailable, "return restores exactly the loaned quantity")
}

func TestArticleUpdateKeepsInvariant(t *testing.T) {
	db := setupTestDB(t)
	svc := NewArticleService(db)
	a := seedArticle(t, db, "Talkie-walkie", 10, 8, 2)

	// Shrinking the total below the current availability is refused.
	seven := 7
	_, err := svc.Update(a.ID, ArticleUpdate{QuantityTotal: &seven})
	require.ErrorIs(t, err, ErrCapacityExceeded)

	twelve := 12
	updated, err := svc.Update(a.ID, ArticleUpdate{QuantityTotal: &twelve})
	require.NoError(t, err)
	assert.Equal(t, 12, updated.QuantityTotal)
	assert.Equal(t, 8, updated.QuantityAvailable)

	_, err = svc.Update(424242, ArticleUpdate{})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestArticleDelete(t *testing.T) {
	db := setupTestDB(t)
	svc := NewArticleService(db)
	a := seedArticle(t, db, "Casque F1", 3, 3, 1)

	require.NoError(t, svc.Delete(a.ID))
	require.ErrorIs(t, svc.Delete(a.ID), ErrNotFound)
	_, err := svc.GetByID(a.ID)
	require.ErrorIs(t, err, ErrNotFound)
}
