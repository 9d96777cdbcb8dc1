package handlers

import (
	"net/http"
	"time"

	qrcode "github.com/skip2/go-qrcode"

	"github.com/mguerin/materiguard/httpx"
	"github.com/mguerin/materiguard/internal/models"
	"github.com/mguerin/materiguard/internal/services"
)

type IssuanceHandler struct {
	issuances *services.IssuanceService
}

func NewIssuanceHandler(issuances *services.IssuanceService) *IssuanceHandler {
	return &IssuanceHandler{issuances: issuances}
}

type issuanceView struct {
	models.Issuance
	DisplayStatus string `json:"display_status"`
}

func issuanceViews(issuances []models.Issuance, now time.Time) []issuanceView {
	views := make([]issuanceView, len(issuances))
	for i, iss := range issuances {
		views[i] = issuanceView{Issuance: iss, DisplayStatus: iss.DisplayStatus(now)}
	}
	return views
}

// List returns issuances, filterable by ?agent=, ?status= or ?overdue=1.
func (h *IssuanceHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var (
		issuances []models.Issuance
		err       error
	)
	switch {
	case q.Get("overdue") == "1":
		issuances, err = h.issuances.GetOverdue(time.Now())
	case q.Get("agent") != "":
		issuances, err = h.issuances.GetByAgent(q.Get("agent"))
	case q.Get("status") != "":
		issuances, err = h.issuances.GetByStatus(q.Get("status"))
	default:
		issuances, err = h.issuances.GetAll()
	}
	if err != nil {
		serviceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, issuanceViews(issuances, time.Now()))
}

func (h *IssuanceHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	issuance, err := h.issuances.GetByID(id)
	if err != nil {
		serviceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, issuanceView{Issuance: *issuance, DisplayStatus: issuance.DisplayStatus(time.Now())})
}

func (h *IssuanceHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input services.IssuanceInput
	if err := httpx.Decode(r, &input); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	issuance, err := h.issuances.Create(input)
	if err != nil {
		serviceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, issuance)
}

func (h *IssuanceHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	var upd services.IssuanceUpdate
	if err := httpx.Decode(r, &upd); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	issuance, err := h.issuances.Update(id, upd)
	if err != nil {
		serviceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, issuance)
}

func (h *IssuanceHandler) Return(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	issuance, err := h.issuances.MarkAsReturned(id, time.Now())
	if err != nil {
		serviceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, issuance)
}

func (h *IssuanceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	if err := h.issuances.Delete(id); err != nil {
		serviceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"deleted": id})
}

// QR renders the issuance's scannable code as a PNG. The payload is the JSON
// blob from the issuance service, not just the short token.
func (h *IssuanceHandler) QR(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	issuance, err := h.issuances.GetByID(id)
	if err != nil {
		serviceError(w, err)
		return
	}
	payload, err := h.issuances.QRPayload(issuance)
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "qr_payload_failed", nil)
		return
	}
	png, err := qrcode.Encode(payload, qrcode.Medium, 256)
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "qr_encode_failed", nil)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(png); err != nil {
		_ = err
	}
}
