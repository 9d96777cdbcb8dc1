package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/mguerin/materiguard/httpx"
	"github.com/mguerin/materiguard/internal/models"
	"github.com/mguerin/materiguard/internal/services"
)

type LoanHandler struct {
	loans *services.LoanService
}

func NewLoanHandler(loans *services.LoanService) *LoanHandler {
	return &LoanHandler{loans: loans}
}

// loanView decorates a loan with its derived display status ("En retard" for
// an active loan past its due date). The stored status is never rewritten.
type loanView struct {
	models.Loan
	DisplayStatus string `json:"display_status"`
}

func loanViews(loans []models.Loan, now time.Time) []loanView {
	views := make([]loanView, len(loans))
	for i, l := range loans {
		views[i] = loanView{Loan: l, DisplayStatus: l.DisplayStatus(now)}
	}
	return views
}

// List returns loans, filterable by ?agent=, ?status=, ?article_id= or
// ?overdue=1. Filters are exclusive; the first match wins.
func (h *LoanHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var (
		loans []models.Loan
		err   error
	)
	switch {
	case q.Get("overdue") == "1":
		loans, err = h.loans.GetOverdue(time.Now())
	case q.Get("agent") != "":
		loans, err = h.loans.GetByAgent(q.Get("agent"))
	case q.Get("status") != "":
		loans, err = h.loans.GetByStatus(q.Get("status"))
	case q.Get("article_id") != "":
		articleID, perr := strconv.ParseUint(q.Get("article_id"), 10, 32)
		if perr != nil {
			httpx.JSONError(w, http.StatusBadRequest, "invalid_article_id", nil)
			return
		}
		loans, err = h.loans.GetByArticle(uint(articleID))
	default:
		loans, err = h.loans.GetAll()
	}
	if err != nil {
		serviceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, loanViews(loans, time.Now()))
}

func (h *LoanHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	loan, err := h.loans.GetByID(id)
	if err != nil {
		serviceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, loanView{Loan: *loan, DisplayStatus: loan.DisplayStatus(time.Now())})
}

// Create grants a loan: the article's availability is decremented in the same
// transaction, so an insufficient stock answer means nothing changed.
func (h *LoanHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input services.LoanInput
	if err := httpx.Decode(r, &input); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	loan, err := h.loans.Grant(input)
	if err != nil {
		serviceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, loan)
}

func (h *LoanHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	var upd services.LoanUpdate
	if err := httpx.Decode(r, &upd); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	loan, err := h.loans.Update(id, upd)
	if err != nil {
		serviceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, loan)
}

// Return marks a loan returned and restores the stock. Doing it twice is a
// conflict, not a no-op.
func (h *LoanHandler) Return(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	loan, err := h.loans.MarkAsReturned(id, time.Now())
	if err != nil {
		serviceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, loan)
}

func (h *LoanHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	if err := h.loans.Delete(id); err != nil {
		serviceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"deleted": id})
}
