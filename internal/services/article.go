package services

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/mguerin/materiguard/internal/models"
	"github.com/mguerin/materiguard/validation"
)

// ArticleService owns stock items and the availability counter. All mutations
// of QuantityAvailable go through adjustAvailability so the invariant
// 0 ≤ available ≤ total can never be bypassed.
type ArticleService struct {
	db *gorm.DB
}

func NewArticleService(db *gorm.DB) *ArticleService {
	return &ArticleService{db: db}
}

func (s *ArticleService) GetAll() ([]models.Article, error) {
	var articles []models.Article
	err := s.db.Order("name asc").Find(&articles).Error
	return articles, err
}

func (s *ArticleService) GetByID(id uint) (*models.Article, error) {
	var article models.Article
	if err := s.db.First(&article, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &article, nil
}

func (s *ArticleService) GetByCategory(category string) ([]models.Article, error) {
	var articles []models.Article
	err := s.db.Where("category = ?", category).Order("name asc").Find(&articles).Error
	return articles, err
}

// GetLowStock returns articles whose availability has fallen to their alert
// threshold, most depleted first.
func (s *ArticleService) GetLowStock() ([]models.Article, error) {
	var articles []models.Article
	err := s.db.Where("quantity_available <= alert_threshold").
		Order("quantity_available asc").
		Find(&articles).Error
	return articles, err
}

// Create stores a new article. Availability starts equal to the total:
// everything is on the shelf until loans are granted.
func (s *ArticleService) Create(a *models.Article) error {
	v := validation.Violations{}
	validation.Required("name", a.Name, v)
	validation.PositiveInt("quantity_total", a.QuantityTotal, v)
	validation.NonNegativeInt("alert_threshold", a.AlertThreshold, v)
	if err := invalid(v); err != nil {
		return err
	}
	a.QuantityAvailable = a.QuantityTotal
	return s.db.Create(a).Error
}

// ArticleUpdate is a partial update; nil fields are left untouched.
// QuantityAvailable is deliberately absent: availability only moves through
// AdjustAvailability.
type ArticleUpdate struct {
	Name           *string  `json:"name,omitempty"`
	Category       *string  `json:"category,omitempty"`
	Brand          *string  `json:"brand,omitempty"`
	Model          *string  `json:"model,omitempty"`
	UnitPrice      *float64 `json:"unit_price,omitempty"`
	QuantityTotal  *int     `json:"quantity_total,omitempty"`
	AlertThreshold *int     `json:"alert_threshold,omitempty"`
}

func (s *ArticleService) Update(id uint, upd ArticleUpdate) (*models.Article, error) {
	var article models.Article
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&article, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if upd.Name != nil {
			if strings.TrimSpace(*upd.Name) == "" {
				return &ValidationError{Violations: validation.Violations{"name": "required"}}
			}
			article.Name = *upd.Name
		}
		if upd.Category != nil {
			article.Category = *upd.Category
		}
		if upd.Brand != nil {
			article.Brand = *upd.Brand
		}
		if upd.Model != nil {
			article.Model = *upd.Model
		}
		if upd.UnitPrice != nil {
			article.UnitPrice = *upd.UnitPrice
		}
		if upd.AlertThreshold != nil {
			if *upd.AlertThreshold < 0 {
				return &ValidationError{Violations: validation.Violations{"alert_threshold": "must_not_be_negative"}}
			}
			article.AlertThreshold = *upd.AlertThreshold
		}
		if upd.QuantityTotal != nil {
			// Shrinking the total below what is currently on the shelf would
			// break the availability invariant.
			if *upd.QuantityTotal < article.QuantityAvailable {
				return ErrCapacityExceeded
			}
			if *upd.QuantityTotal <= 0 {
				return &ValidationError{Violations: validation.Violations{"quantity_total": "must_be_positive"}}
			}
			article.QuantityTotal = *upd.QuantityTotal
		}
		return tx.Save(&article).Error
	})
	if err != nil {
		return nil, err
	}
	return &article, nil
}

func (s *ArticleService) Delete(id uint) error {
	res := s.db.Delete(&models.Article{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// AdjustAvailability applies delta to an article's available quantity.
// Negative delta grants stock out (loan), positive delta takes it back
// (return). Fails with ErrNotFound, ErrInsufficientStock or
// ErrCapacityExceeded; on failure the article is left untouched.
func (s *ArticleService) AdjustAvailability(id uint, delta int) (*models.Article, error) {
	var article models.Article
	err := s.db.Transaction(func(tx *gorm.DB) error {
		updated, err := adjustAvailability(tx, id, delta)
		if err != nil {
			return err
		}
		article = *updated
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &article, nil
}

// adjustAvailability is the stock consistency rule, shared with the loan
// workflow so grants and returns stay in the same transaction as the loan
// row. The guarded UPDATE is a single atomic read-modify-write: concurrent
// adjustments cannot drive the counter below zero or above the total.
func adjustAvailability(tx *gorm.DB, id uint, delta int) (*models.Article, error) {
	res := tx.Model(&models.Article{}).
		Where("id = ?", id).
		Where("quantity_available + ? BETWEEN 0 AND quantity_total", delta).
		UpdateColumn("quantity_available", gorm.Expr("quantity_available + ?", delta))
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		// Distinguish the failure: unknown id, floor hit, or ceiling hit.
		var a models.Article
		if err := tx.First(&a, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrNotFound
			}
			return nil, err
		}
		if a.QuantityAvailable+delta < 0 {
			return nil, ErrInsufficientStock
		}
		return nil, ErrCapacityExceeded
	}
	var a models.Article
	if err := tx.First(&a, id).Error; err != nil {
		return nil, err
	}
	return &a, nil
}
