package handlers

import (
	"net/http"
	"time"

	"github.com/mguerin/materiguard/httpx"
	"github.com/mguerin/materiguard/internal/models"
	"github.com/mguerin/materiguard/internal/services"
)

// DashboardHandler serves the aggregate stats and alert feed for the landing
// screen. Everything is computed on read; nothing is cached or stored.
type DashboardHandler struct {
	articles  *services.ArticleService
	loans     *services.LoanService
	issuances *services.IssuanceService
	alerts    *services.AlertService
}

func NewDashboardHandler(
	articles *services.ArticleService,
	loans *services.LoanService,
	issuances *services.IssuanceService,
	alerts *services.AlertService,
) *DashboardHandler {
	return &DashboardHandler{articles: articles, loans: loans, issuances: issuances, alerts: alerts}
}

// Stats returns the headline counters: stock totals, active and overdue
// loans, active issuances.
func (h *DashboardHandler) Stats(w http.ResponseWriter, _ *http.Request) {
	now := time.Now()

	articles, err := h.articles.GetAll()
	if err != nil {
		serviceError(w, err)
		return
	}
	var totalQuantity, availableQuantity, lowStock int
	for _, a := range articles {
		totalQuantity += a.QuantityTotal
		availableQuantity += a.QuantityAvailable
		if a.IsLowStock() {
			lowStock++
		}
	}

	activeLoans, err := h.loans.GetByStatus(models.LoanStatusActive)
	if err != nil {
		serviceError(w, err)
		return
	}
	overdueLoans, err := h.loans.GetOverdue(now)
	if err != nil {
		serviceError(w, err)
		return
	}
	activeIssuances, err := h.issuances.GetByStatus(models.IssuanceStatusActive)
	if err != nil {
		serviceError(w, err)
		return
	}

	httpx.JSON(w, http.StatusOK, map[string]any{
		"articles":           len(articles),
		"quantity_total":     totalQuantity,
		"quantity_available": availableQuantity,
		"low_stock_articles": lowStock,
		"active_loans":       len(activeLoans),
		"overdue_loans":      len(overdueLoans),
		"active_issuances":   len(activeIssuances),
	})
}

// historyLimit caps the activity feed length.
const historyLimit = 20

// History returns the most recent loans and issuances, newest first, with
// their derived display status.
func (h *DashboardHandler) History(w http.ResponseWriter, _ *http.Request) {
	now := time.Now()

	loans, err := h.loans.GetAll()
	if err != nil {
		serviceError(w, err)
		return
	}
	if len(loans) > historyLimit {
		loans = loans[:historyLimit]
	}
	issuances, err := h.issuances.GetAll()
	if err != nil {
		serviceError(w, err)
		return
	}
	if len(issuances) > historyLimit {
		issuances = issuances[:historyLimit]
	}

	httpx.JSON(w, http.StatusOK, map[string]any{
		"loans":     loanViews(loans, now),
		"issuances": issuanceViews(issuances, now),
	})
}

// Alerts returns the current alert feed, urgent entries first.
func (h *DashboardHandler) Alerts(w http.ResponseWriter, _ *http.Request) {
	alerts, err := h.alerts.Current(time.Now())
	if err != nil {
		serviceError(w, err)
		return
	}
	if alerts == nil {
		alerts = []services.Alert{}
	}
	httpx.JSON(w, http.StatusOK, alerts)
}
