package models

import "time"

// Article is a stock item. QuantityAvailable is the single shared mutable
// field that loans contend over; the invariant
// 0 ≤ QuantityAvailable ≤ QuantityTotal holds at all times and is enforced by
// the article service, never bypassed by direct writes.
type Article struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Name              string  `gorm:"size:255;not null" json:"name"`
	Category          string  `gorm:"size:100;index" json:"category"`
	Brand             string  `gorm:"size:100" json:"brand,omitempty"`
	Model             string  `gorm:"size:100" json:"model,omitempty"`
	UnitPrice         float64 `json:"unit_price"`
	QuantityTotal     int     `gorm:"not null" json:"quantity_total"`
	QuantityAvailable int     `gorm:"not null" json:"quantity_available"`
	AlertThreshold    int     `gorm:"not null;default:0" json:"alert_threshold"`
}

// IsLowStock reports whether availability has fallen to the alert threshold.
func (a Article) IsLowStock() bool {
	return a.QuantityAvailable <= a.AlertThreshold
}

// IsOutOfStock reports whether nothing is left to hand out.
func (a Article) IsOutOfStock() bool {
	return a.QuantityAvailable == 0
}
