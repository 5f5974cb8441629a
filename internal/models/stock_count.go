package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type StockCountType string

const (
	StockCountTypeFull      StockCountType = "FULL"
	StockCountTypePartial   StockCountType = "PARTIAL"
	StockCountTypeSpotCheck StockCountType = "SPOT_CHECK"
)

type StockCountStatus string

// Durum makinesi tek yönlüdür: in_progress -> completed -> approved.
// approved terminal durumdur, geri dönüş yoktur.
const (
	StockCountStatusInProgress StockCountStatus = "in_progress"
	StockCountStatusCompleted  StockCountStatus = "completed"
	StockCountStatusApproved   StockCountStatus = "approved"
)

type VarianceLevel string

const (
	VarianceLevelLow    VarianceLevel = "low"
	VarianceLevelMedium VarianceLevel = "medium"
	VarianceLevelHigh   VarianceLevel = "high"
)

// StockCount: Stok sayım oturumu
type StockCount struct {
	ID          uint             `gorm:"primaryKey"`
	CountNumber string           `gorm:"size:50;uniqueIndex;not null"` // ör: "SAYIM-20260115-001"
	CountType   StockCountType   `gorm:"size:20;not null"`
	Status      StockCountStatus `gorm:"size:20;not null;default:'in_progress';index"`
	StartedBy   uint
	StartedAt   time.Time
	SubmittedAt *time.Time
	ApprovedBy  *uint
	ApprovedAt  *time.Time
	Notes       string `gorm:"size:500"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Items []StockCountItem `gorm:"foreignKey:StockCountID;constraint:OnDelete:CASCADE"`
}

// StockCountItem: Sayım oturumundaki tek kalem.
// SystemQuantity oturum başlangıcındaki bakiyenin snapshot'ıdır;
// CountedQuantity saha sayımıyla doldurulur, fark alanları türetilir.
type StockCountItem struct {
	ID              uint     `gorm:"primaryKey"`
	StockCountID    uint     `gorm:"index;not null"`
	ItemType        ItemType `gorm:"size:20;not null"`
	ItemID          uint     `gorm:"not null"`
	ItemName        string   `gorm:"size:100;not null"` // denormalize (sayım listesi için)
	Unit            string   `gorm:"size:20;not null"`
	SystemQuantity  decimal.Decimal  `gorm:"type:decimal(20,6);not null"` // snapshot
	CountedQuantity *decimal.Decimal `gorm:"type:decimal(20,6)"`          // nil = henüz sayılmadı
	Variance        decimal.Decimal  `gorm:"type:decimal(20,6);not null;default:0"` // counted - system
	VariancePercent decimal.Decimal  `gorm:"type:decimal(8,4);not null;default:0"`
	VarianceLevel   VarianceLevel    `gorm:"size:10;not null;default:'low'"`
	Notes           string           `gorm:"size:255"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
