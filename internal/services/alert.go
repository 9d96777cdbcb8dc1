package services

import (
	"fmt"
	"sort"
	"time"
)

// Alert kinds surfaced on the dashboard.
const (
	AlertOutOfStock      = "out_of_stock"
	AlertLowStock        = "low_stock"
	AlertOverdueLoan     = "overdue_loan"
	AlertOverdueIssuance = "overdue_issuance"
)

// Alert is a read-only projection over articles, loans and issuances.
// Nothing is stored: the list is rebuilt on every read.
type Alert struct {
	Kind       string    `json:"kind"`
	Message    string    `json:"message"`
	Urgent     bool      `json:"urgent"`
	ArticleID  uint      `json:"article_id,omitempty"`
	LoanID     uint      `json:"loan_id,omitempty"`
	IssuanceID uint      `json:"issuance_id,omitempty"`
	At         time.Time `json:"at"`
}

// AlertService aggregates stock and overdue alerts from the entity services.
type AlertService struct {
	articles  *ArticleService
	loans     *LoanService
	issuances *IssuanceService
}

func NewAlertService(articles *ArticleService, loans *LoanService, issuances *IssuanceService) *AlertService {
	return &AlertService{articles: articles, loans: loans, issuances: issuances}
}

// Current builds the alert list at now: out-of-stock and overdue entries are
// urgent and sort first, the rest follows by recency.
func (s *AlertService) Current(now time.Time) ([]Alert, error) {
	var alerts []Alert

	lowStock, err := s.articles.GetLowStock()
	if err != nil {
		return nil, err
	}
	for _, a := range lowStock {
		alert := Alert{
			Kind:      AlertLowStock,
			Message:   fmt.Sprintf("Stock faible : %s (%d restant(s))", a.Name, a.QuantityAvailable),
			ArticleID: a.ID,
			At:        a.UpdatedAt,
		}
		if a.IsOutOfStock() {
			alert.Kind = AlertOutOfStock
			alert.Message = fmt.Sprintf("Stock épuisé : %s", a.Name)
			alert.Urgent = true
		}
		alerts = append(alerts, alert)
	}

	overdueLoans, err := s.loans.GetOverdue(now)
	if err != nil {
		return nil, err
	}
	for _, l := range overdueLoans {
		name := fmt.Sprintf("article #%d", l.ArticleID)
		if l.Article != nil {
			name = l.Article.Name
		}
		alerts = append(alerts, Alert{
			Kind:    AlertOverdueLoan,
			Message: fmt.Sprintf("Emprunt en retard : %s, %s (attendu le %s)", l.Agent, name, l.ExpectedReturn.Format("02/01/2006")),
			Urgent:  true,
			LoanID:  l.ID,
			At:      l.ExpectedReturn,
		})
	}

	overdueIssuances, err := s.issuances.GetOverdue(now)
	if err != nil {
		return nil, err
	}
	for _, i := range overdueIssuances {
		alerts = append(alerts, Alert{
			Kind:       AlertOverdueIssuance,
			Message:    fmt.Sprintf("Remise en retard : %s (attendue le %s)", i.Agent, i.ExpectedReturn.Format("02/01/2006")),
			Urgent:     true,
			IssuanceID: i.ID,
			At:         i.ExpectedReturn,
		})
	}

	// Urgent entries first, then most recent first.
	sort.SliceStable(alerts, func(a, b int) bool {
		if alerts[a].Urgent != alerts[b].Urgent {
			return alerts[a].Urgent
		}
		return alerts[a].At.After(alerts[b].At)
	})
	return alerts, nil
}
