package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product: Satışa konu mamul (üretilen bitmiş ürün)
// Katalog verisi: core tarafından sadece okunur, bakiyesi stok defterinden gelir.
type Product struct {
	ID             uint            `gorm:"primaryKey"`
	Name           string          `gorm:"size:100;not null;unique"`
	Unit           string          `gorm:"size:20;not null"`       // ADET, KG, KOLİ vs.
	ProductionLine string          `gorm:"size:50;not null;index"` // üretim hattı (ör: "firin-1", "paketleme")
	ShelfLifeDays  int             `gorm:"not null;default:0"`     // raf ömrü (gün); SKT = üretim tarihi + raf ömrü
	MinStockLevel  decimal.Decimal `gorm:"type:decimal(20,6);not null;default:0"` // kritik stok eşiği
	SalePrice      decimal.Decimal `gorm:"type:decimal(20,6);not null;default:0"`
	LastCost       decimal.Decimal `gorm:"type:decimal(20,6);not null;default:0"` // son hesaplanan birim maliyet
	IsActive       bool            `gorm:"not null;default:true"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
