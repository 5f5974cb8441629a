package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Bom: Bir ürünün reçetesi (Bill of Materials), versiyonlu.
// Reçete değişince eski versiyon ASLA silinmez veya değiştirilmez;
// yeni versiyon açılır ve is_active bayrağı ona taşınır. Eski versiyonlar
// geçmiş iş emirlerinin maliyet/tüketim denetimi için adreslenebilir kalır.
type Bom struct {
	ID                uint            `gorm:"primaryKey"`
	ProductID         uint            `gorm:"index;not null;uniqueIndex:idx_boms_product_version"`
	Product           Product
	Version           int             `gorm:"not null;uniqueIndex:idx_boms_product_version"` // ürün başına monoton artan, tekrar kullanılmaz
	IsActive          bool            `gorm:"not null;default:false;index"`
	YieldPercentage   decimal.Decimal `gorm:"type:decimal(8,4);not null"` // verim yüzdesi (0-100]
	StandardBatchSize decimal.Decimal `gorm:"type:decimal(20,6);not null"` // standart parti büyüklüğü
	BatchUnit         string          `gorm:"size:20;not null"`
	Notes             string          `gorm:"size:500"`
	CreatedBy         uint            // reçeteyi açan kullanıcı
	CreatedAt         time.Time
	UpdatedAt         time.Time

	Items []BomItem `gorm:"foreignKey:BomID;constraint:OnDelete:CASCADE"`
}

// BomItem: Reçetedeki bir hammadde satırı
type BomItem struct {
	ID              uint `gorm:"primaryKey"`
	BomID           uint `gorm:"index;not null"`
	RawMaterialID   uint `gorm:"index;not null"`
	RawMaterial     RawMaterial
	Quantity        decimal.Decimal `gorm:"type:decimal(20,6);not null"` // standart parti başına miktar
	Unit            string          `gorm:"size:20;not null"`
	WastePercentage decimal.Decimal `gorm:"type:decimal(8,4);not null;default:0"` // fire yüzdesi [0-100); verim ile çarpımsal birleşir
	IsOptional      bool            `gorm:"not null;default:false"`
	SortOrder       int             `gorm:"not null;default:0"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
