package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/mguerin/materiguard/internal/models"
	"github.com/mguerin/materiguard/validation"
)

// IssuanceService tracks remises: equipment handed out to an agent, tagged
// with a scannable QR token. Issuances list material names and do not touch
// article counters.
type IssuanceService struct {
	db      *gorm.DB
	baseURL string
}

// NewIssuanceService creates the service. baseURL is embedded in QR payloads
// as the deep link back to the issuance.
func NewIssuanceService(db *gorm.DB, baseURL string) *IssuanceService {
	return &IssuanceService{db: db, baseURL: strings.TrimRight(baseURL, "/")}
}

func (s *IssuanceService) GetAll() ([]models.Issuance, error) {
	var issuances []models.Issuance
	err := s.db.Order("issue_date desc").Find(&issuances).Error
	return issuances, err
}

func (s *IssuanceService) GetByID(id uint) (*models.Issuance, error) {
	var issuance models.Issuance
	if err := s.db.First(&issuance, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &issuance, nil
}

func (s *IssuanceService) GetByAgent(agent string) ([]models.Issuance, error) {
	var issuances []models.Issuance
	like := "%" + strings.ToLower(agent) + "%"
	err := s.db.Where("lower(agent) LIKE ?", like).Order("issue_date desc").Find(&issuances).Error
	return issuances, err
}

func (s *IssuanceService) GetByStatus(status string) ([]models.Issuance, error) {
	var issuances []models.Issuance
	err := s.db.Where("status = ?", status).Order("issue_date desc").Find(&issuances).Error
	return issuances, err
}

// GetOverdue returns active issuances past their expected return date.
func (s *IssuanceService) GetOverdue(now time.Time) ([]models.Issuance, error) {
	var issuances []models.Issuance
	err := s.db.Where("status = ? AND expected_return < ?", models.IssuanceStatusActive, now).
		Order("expected_return asc").
		Find(&issuances).Error
	return issuances, err
}

// IssuanceInput is what creating a remise needs from the caller.
type IssuanceInput struct {
	Agent          string    `json:"agent"`
	Materials      []string  `json:"materials"`
	ExpectedReturn time.Time `json:"expected_return"`
	Comments       string    `json:"comments"`
}

// Create stores a new active issuance and stamps its QR token. The token
// needs the record id, so it is written in a second step of the same
// transaction.
func (s *IssuanceService) Create(in IssuanceInput) (*models.Issuance, error) {
	v := validation.Violations{}
	validation.Required("agent", in.Agent, v)
	if len(in.Materials) == 0 {
		v["materials"] = "required"
	}
	if in.ExpectedReturn.IsZero() {
		v["expected_return"] = "required"
	}
	if err := invalid(v); err != nil {
		return nil, err
	}

	now := time.Now()
	issuance := &models.Issuance{
		Agent:          in.Agent,
		Materials:      in.Materials,
		IssueDate:      now,
		ExpectedReturn: in.ExpectedReturn,
		Status:         models.IssuanceStatusActive,
		Comments:       in.Comments,
	}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(issuance).Error; err != nil {
			return err
		}
		issuance.QRCode = QRToken(issuance.ID, now)
		return tx.Model(issuance).Update("qr_code", issuance.QRCode).Error
	})
	if err != nil {
		return nil, err
	}
	return issuance, nil
}

// IssuanceUpdate allows correcting the agent, materials, due date or comments.
type IssuanceUpdate struct {
	Agent          *string    `json:"agent,omitempty"`
	Materials      *[]string  `json:"materials,omitempty"`
	ExpectedReturn *time.Time `json:"expected_return,omitempty"`
	Comments       *string    `json:"comments,omitempty"`
}

func (s *IssuanceService) Update(id uint, upd IssuanceUpdate) (*models.Issuance, error) {
	var issuance models.Issuance
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&issuance, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if upd.Agent != nil {
			if strings.TrimSpace(*upd.Agent) == "" {
				return &ValidationError{Violations: validation.Violations{"agent": "required"}}
			}
			issuance.Agent = *upd.Agent
		}
		if upd.Materials != nil {
			if len(*upd.Materials) == 0 {
				return &ValidationError{Violations: validation.Violations{"materials": "required"}}
			}
			issuance.Materials = *upd.Materials
		}
		if upd.ExpectedReturn != nil {
			issuance.ExpectedReturn = *upd.ExpectedReturn
		}
		if upd.Comments != nil {
			issuance.Comments = *upd.Comments
		}
		return tx.Save(&issuance).Error
	})
	if err != nil {
		return nil, err
	}
	return &issuance, nil
}

// MarkAsReturned flips an active issuance to Retourné once.
func (s *IssuanceService) MarkAsReturned(id uint, returnedAt time.Time) (*models.Issuance, error) {
	var issuance models.Issuance
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&issuance, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if issuance.Status == models.IssuanceStatusReturned {
			return ErrAlreadyReturned
		}
		issuance.Status = models.IssuanceStatusReturned
		issuance.ActualReturn = &returnedAt
		return tx.Save(&issuance).Error
	})
	if err != nil {
		return nil, err
	}
	return &issuance, nil
}

func (s *IssuanceService) Delete(id uint) error {
	res := s.db.Delete(&models.Issuance{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// QRToken builds the short token printed on the paper slip, e.g.
// "MGT-042-20250615".
func QRToken(id uint, date time.Time) string {
	return fmt.Sprintf("MGT-%03d-%s", id, date.Format("20060102"))
}

// QRPayload is the opaque string encoded into the scannable image: the
// issuance id, agent, date, a fixed type tag and a deep link URL. Consumers
// treat it as a blob; only the scanner app interprets it.
func (s *IssuanceService) QRPayload(issuance *models.Issuance) (string, error) {
	payload := map[string]any{
		"id":    issuance.ID,
		"agent": issuance.Agent,
		"date":  issuance.IssueDate.Format(time.RFC3339),
		"type":  "remise_materiel",
		"url":   fmt.Sprintf("%s/remises/%d", s.baseURL, issuance.ID),
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
