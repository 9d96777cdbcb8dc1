package services

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/mguerin/materiguard/internal/models"
	"github.com/mguerin/materiguard/validation"
)

// LoanService tracks emprunts. Granting and returning a loan move the
// referenced article's availability inside the same transaction as the loan
// row, so the two can never diverge.
type LoanService struct {
	db *gorm.DB
}

func NewLoanService(db *gorm.DB) *LoanService {
	return &LoanService{db: db}
}

func (s *LoanService) GetAll() ([]models.Loan, error) {
	var loans []models.Loan
	err := s.db.Preload("Article").Order("loan_date desc").Find(&loans).Error
	return loans, err
}

func (s *LoanService) GetByID(id uint) (*models.Loan, error) {
	var loan models.Loan
	if err := s.db.Preload("Article").First(&loan, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &loan, nil
}

func (s *LoanService) GetByAgent(agent string) ([]models.Loan, error) {
	var loans []models.Loan
	like := "%" + strings.ToLower(agent) + "%"
	err := s.db.Preload("Article").
		Where("lower(agent) LIKE ?", like).
		Order("loan_date desc").
		Find(&loans).Error
	return loans, err
}

func (s *LoanService) GetByArticle(articleID uint) ([]models.Loan, error) {
	var loans []models.Loan
	err := s.db.Where("article_id = ?", articleID).Order("loan_date desc").Find(&loans).Error
	return loans, err
}

func (s *LoanService) GetByStatus(status string) ([]models.Loan, error) {
	var loans []models.Loan
	err := s.db.Preload("Article").Where("status = ?", status).Order("loan_date desc").Find(&loans).Error
	return loans, err
}

// GetOverdue returns active loans past their expected return date. Overdue is
// computed here on read; the stored status still says "En cours".
func (s *LoanService) GetOverdue(now time.Time) ([]models.Loan, error) {
	var loans []models.Loan
	err := s.db.Preload("Article").
		Where("status = ? AND expected_return < ?", models.LoanStatusActive, now).
		Order("expected_return asc").
		Find(&loans).Error
	return loans, err
}

// LoanInput is what a grant needs from the caller.
type LoanInput struct {
	Agent          string    `json:"agent"`
	ArticleID      uint      `json:"article_id"`
	Quantity       int       `json:"quantity"`
	ExpectedReturn time.Time `json:"expected_return"`
}

// Grant creates an active loan and decrements the article's availability in
// one transaction. An article without enough stock rejects the grant with
// ErrInsufficientStock and mutates nothing.
func (s *LoanService) Grant(in LoanInput) (*models.Loan, error) {
	v := validation.Violations{}
	validation.Required("agent", in.Agent, v)
	validation.PositiveInt("quantity", in.Quantity, v)
	if in.ExpectedReturn.IsZero() {
		v["expected_return"] = "required"
	}
	if err := invalid(v); err != nil {
		return nil, err
	}

	loan := &models.Loan{
		Agent:          in.Agent,
		ArticleID:      in.ArticleID,
		Quantity:       in.Quantity,
		LoanDate:       time.Now(),
		ExpectedReturn: in.ExpectedReturn,
		Status:         models.LoanStatusActive,
	}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if _, err := adjustAvailability(tx, in.ArticleID, -in.Quantity); err != nil {
			return err
		}
		return tx.Create(loan).Error
	})
	if err != nil {
		return nil, err
	}
	return loan, nil
}

// LoanUpdate allows correcting the agent or the due date of an active loan.
// Quantity and article are immutable once granted: changing them would
// desynchronize the stock accounting.
type LoanUpdate struct {
	Agent          *string    `json:"agent,omitempty"`
	ExpectedReturn *time.Time `json:"expected_return,omitempty"`
}

func (s *LoanService) Update(id uint, upd LoanUpdate) (*models.Loan, error) {
	var loan models.Loan
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&loan, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if upd.Agent != nil {
			if strings.TrimSpace(*upd.Agent) == "" {
				return &ValidationError{Violations: validation.Violations{"agent": "required"}}
			}
			loan.Agent = *upd.Agent
		}
		if upd.ExpectedReturn != nil {
			loan.ExpectedReturn = *upd.ExpectedReturn
		}
		return tx.Save(&loan).Error
	})
	if err != nil {
		return nil, err
	}
	return &loan, nil
}

// MarkAsReturned flips an active loan to Retourné and restores the loaned
// quantity to the article. Returning twice is rejected with
// ErrAlreadyReturned; the first return already moved the stock.
func (s *LoanService) MarkAsReturned(id uint, returnedAt time.Time) (*models.Loan, error) {
	var loan models.Loan
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&loan, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if loan.Status == models.LoanStatusReturned {
			return ErrAlreadyReturned
		}
		if _, err := adjustAvailability(tx, loan.ArticleID, loan.Quantity); err != nil {
			return err
		}
		loan.Status = models.LoanStatusReturned
		loan.ActualReturn = &returnedAt
		return tx.Save(&loan).Error
	})
	if err != nil {
		return nil, err
	}
	return &loan, nil
}

// Delete removes a loan record. Deleting a still-active loan performs the
// compensating stock adjustment first, so availability accounting cannot
// silently lose the loaned quantity. Deleting a returned loan touches no
// counters.
func (s *LoanService) Delete(id uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var loan models.Loan
		if err := tx.First(&loan, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if loan.Status == models.LoanStatusActive {
			if _, err := adjustAvailability(tx, loan.ArticleID, loan.Quantity); err != nil {
				return err
			}
		}
		return tx.Delete(&loan).Error
	})
}
