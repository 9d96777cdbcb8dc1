package handlers

import (
	"net/http"

	"github.com/mguerin/materiguard/httpx"
	"github.com/mguerin/materiguard/internal/models"
	"github.com/mguerin/materiguard/internal/services"
)

type ArticleHandler struct {
	articles *services.ArticleService
}

func NewArticleHandler(articles *services.ArticleService) *ArticleHandler {
	return &ArticleHandler{articles: articles}
}

// List returns all articles; ?category= narrows to one category and
// ?low_stock=1 to those at or under their alert threshold.
func (h *ArticleHandler) List(w http.ResponseWriter, r *http.Request) {
	var (
		articles []models.Article
		err      error
	)
	switch {
	case r.URL.Query().Get("low_stock") == "1":
		articles, err = h.articles.GetLowStock()
	case r.URL.Query().Get("category") != "":
		articles, err = h.articles.GetByCategory(r.URL.Query().Get("category"))
	default:
		articles, err = h.articles.GetAll()
	}
	if err != nil {
		serviceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, articles)
}

func (h *ArticleHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	article, err := h.articles.GetByID(id)
	if err != nil {
		serviceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, article)
}

func (h *ArticleHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Name           string  `json:"name"`
		Category       string  `json:"category"`
		Brand          string  `json:"brand"`
		Model          string  `json:"model"`
		UnitPrice      float64 `json:"unit_price"`
		QuantityTotal  int     `json:"quantity_total"`
		AlertThreshold int     `json:"alert_threshold"`
	}
	if err := httpx.Decode(r, &input); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	article := &models.Article{
		Name:           input.Name,
		Category:       input.Category,
		Brand:          input.Brand,
		Model:          input.Model,
		UnitPrice:      input.UnitPrice,
		QuantityTotal:  input.QuantityTotal,
		AlertThreshold: input.AlertThreshold,
	}
	if err := h.articles.Create(article); err != nil {
		serviceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, article)
}

func (h *ArticleHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	var upd services.ArticleUpdate
	if err := httpx.Decode(r, &upd); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	article, err := h.articles.Update(id, upd)
	if err != nil {
		serviceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, article)
}

func (h *ArticleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	if err := h.articles.Delete(id); err != nil {
		serviceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"deleted": id})
}

// Adjust applies a signed delta to an article's availability, for manual
// corrections outside the loan workflow (breakage, recount).
func (h *ArticleHandler) Adjust(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	var input struct {
		Delta int `json:"delta"`
	}
	if err := httpx.Decode(r, &input); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if input.Delta == 0 {
		httpx.JSONError(w, http.StatusBadRequest, "delta_required", nil)
		return
	}
	article, err := h.articles.AdjustAvailability(id, input.Delta)
	if err != nil {
		serviceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, article)
}
