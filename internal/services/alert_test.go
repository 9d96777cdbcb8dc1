package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAlertsOrderingAndKinds(t *testing.T) {
	db := setupTestDB(t)
	articles := NewArticleService(db)
	loans := NewLoanService(db)
	issuances := NewIssuanceService(db, "https://materiguard.example.org")
	alerts := NewAlertService(articles, loans, issuances)

	// Low but not empty.
	seedArticle(t, db, "Radio", 10, 2, 2)
	// Empty shelf.
	empty := seedArticle(t, db, "Casque", 5, 0, 1)
	// Healthy stock generates nothing.
	seedArticle(t, db, "Lampe", 10, 9, 1)

	source := seedArticle(t, db, "Gilet", 10, 10, 1)
	_, err := loans.Grant(LoanInput{Agent: "Martin", ArticleID: source.ID, Quantity: 1, ExpectedReturn: pastDate()})
	require.NoError(t, err)
	_, err = issuances.Create(IssuanceInput{Agent: "Durand", Materials: []string{"Radio"}, ExpectedReturn: pastDate()})
	require.NoError(t, err)

	got, err := alerts.Current(time.Now())
	require.NoError(t, err)
	require.Len(t, got, 4)

	// Urgent entries (out of stock, overdue) come before the plain low-stock one.
	var kinds []string
	for _, a := range got {
		kinds = append(kinds, a.Kind)
	}
	assert.Equal(t, AlertLowStock, kinds[len(kinds)-1], "plain low stock sorts last")
	for _, a := range got[:3] {
		assert.True(t, a.Urgent, "first entries must be urgent, got %s", a.Kind)
	}

	// The out-of-stock article is reported as such, not as low stock.
	var sawOut bool
	for _, a := range got {
		if a.Kind == AlertOutOfStock {
			sawOut = true
			assert.Equal(t, empty.ID, a.ArticleID)
		}
	}
	assert.True(t, sawOut)
}
