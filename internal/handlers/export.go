package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/mguerin/materiguard/httpx"
	"github.com/mguerin/materiguard/internal/services"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportHandler streams spreadsheet downloads. Routes using it sit behind the
// export permission.
type ExportHandler struct {
	export *services.ExportService
}

func NewExportHandler(export *services.ExportService) *ExportHandler {
	return &ExportHandler{export: export}
}

func (h *ExportHandler) Stock(w http.ResponseWriter, _ *http.Request) {
	buf, name, err := h.export.StockReport()
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "export_failed", nil)
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	if _, err := buf.WriteTo(w); err != nil {
		_ = err
	}
}

func (h *ExportHandler) Loans(w http.ResponseWriter, _ *http.Request) {
	buf, name, err := h.export.LoanReport(time.Now())
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "export_failed", nil)
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	if _, err := buf.WriteTo(w); err != nil {
		_ = err
	}
}
