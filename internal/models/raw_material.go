package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// RawMaterial: Üretimde kullanılan hammadde (un, şeker, ambalaj vs.)
// Katalog verisi: core tarafından sadece okunur, bakiyesi stok defterinden gelir.
type RawMaterial struct {
	ID            uint            `gorm:"primaryKey"`
	Name          string          `gorm:"size:100;not null;unique"`
	Unit          string          `gorm:"size:20;not null"` // KG, LT, ADET vs.
	MinStockLevel decimal.Decimal `gorm:"type:decimal(20,6);not null;default:0"` // kritik stok eşiği
	LastCost      decimal.Decimal `gorm:"type:decimal(20,6);not null;default:0"` // son alış fiyatı (birim)
	AvgCost       decimal.Decimal `gorm:"type:decimal(20,6);not null;default:0"` // ortalama alış fiyatı
	IsActive      bool            `gorm:"not null;default:true"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
