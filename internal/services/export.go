package services

import (
	"bytes"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// ExportService renders stock and loan-history spreadsheets. It only reads:
// the workbook is built from the same queries the dashboard uses and returned
// as a buffer for the handler to stream.
type ExportService struct {
	articles *ArticleService
	loans    *LoanService
	logger   *zap.Logger
}

func NewExportService(articles *ArticleService, loans *LoanService, logger *zap.Logger) *ExportService {
	return &ExportService{articles: articles, loans: loans, logger: logger}
}

// StockReport exports every article with its quantities and threshold.
// Returns the workbook bytes and a suggested filename.
func (s *ExportService) StockReport() (*bytes.Buffer, string, error) {
	articles, err := s.articles.GetAll()
	if err != nil {
		s.logger.Error("export: loading articles failed", zap.Error(err))
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()
	sheet := "Stock"
	f.SetSheetName(f.GetSheetName(0), sheet)

	headers := []string{"Nom", "Catégorie", "Marque", "Modèle", "Prix unitaire", "Quantité totale", "Quantité disponible", "Seuil d'alerte"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}
	for row, a := range articles {
		values := []any{a.Name, a.Category, a.Brand, a.Model, a.UnitPrice, a.QuantityTotal, a.QuantityAvailable, a.AlertThreshold}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			_ = f.SetCellValue(sheet, cell, v)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		s.logger.Error("export: writing workbook failed", zap.Error(err))
		return nil, "", err
	}
	name := fmt.Sprintf("stock_%s.xlsx", time.Now().Format("2006-01-02"))
	return buf, name, nil
}

// LoanReport exports the full loan history with the derived display status.
func (s *ExportService) LoanReport(now time.Time) (*bytes.Buffer, string, error) {
	loans, err := s.loans.GetAll()
	if err != nil {
		s.logger.Error("export: loading loans failed", zap.Error(err))
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()
	sheet := "Emprunts"
	f.SetSheetName(f.GetSheetName(0), sheet)

	headers := []string{"Agent", "Article", "Quantité", "Date d'emprunt", "Retour prévu", "Retour effectif", "Statut"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}
	for row, l := range loans {
		article := fmt.Sprintf("#%d", l.ArticleID)
		if l.Article != nil {
			article = l.Article.Name
		}
		returned := ""
		if l.ActualReturn != nil {
			returned = l.ActualReturn.Format("02/01/2006")
		}
		values := []any{
			l.Agent,
			article,
			l.Quantity,
			l.LoanDate.Format("02/01/2006"),
			l.ExpectedReturn.Format("02/01/2006"),
			returned,
			l.DisplayStatus(now),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			_ = f.SetCellValue(sheet, cell, v)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		s.logger.Error("export: writing workbook failed", zap.Error(err))
		return nil, "", err
	}
	name := fmt.Sprintf("emprunts_%s.xlsx", time.Now().Format("2006-01-02"))
	return buf, name, nil
}
