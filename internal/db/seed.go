package db

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/mguerin/materiguard/gate"
	"github.com/mguerin/materiguard/internal/models"
)

// Seed inserts the default administrator account and a handful of demo
// articles. Idempotent: existing rows are matched by name and left alone, so
// it is safe to run on every startup.
func Seed(db *gorm.DB) error {
	if err := seedAdmin(db); err != nil {
		return err
	}
	return seedArticles(db)
}

func seedAdmin(db *gorm.DB) error {
	var existing models.User
	err := db.Where("lower(username) = ?", "admin").First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return db.Create(&models.User{
		Username: "admin",
		Email:    "admin@materiguard.local",
		Password: string(hash),
		Role:     gate.RoleAdministrator,
		Active:   true,
	}).Error
}

func seedArticles(db *gorm.DB) error {
	demo := []models.Article{
		{Name: "Radio portative", Category: "Communication", Brand: "Motorola", Model: "DP4400e", UnitPrice: 450, QuantityTotal: 20, QuantityAvailable: 20, AlertThreshold: 4},
		{Name: "Gilet pare-balles", Category: "Protection", Brand: "Safariland", Model: "Hardwire NIJ-IIIA", UnitPrice: 680, QuantityTotal: 15, QuantityAvailable: 15, AlertThreshold: 3},
		{Name: "Lampe tactique", Category: "Éclairage", Brand: "Streamlight", Model: "Stinger 2020", UnitPrice: 120, QuantityTotal: 30, QuantityAvailable: 30, AlertThreshold: 5},
		{Name: "Casque de protection", Category: "Protection", Brand: "MSA", Model: "Gallet F2XR", UnitPrice: 210, QuantityTotal: 12, QuantityAvailable: 12, AlertThreshold: 2},
	}
	for _, a := range demo {
		var existing models.Article
		err := db.Where("name = ?", a.Name).First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := db.Create(&a).Error; err != nil {
			return err
		}
	}
	return nil
}
