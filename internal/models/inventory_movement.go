package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type ItemType string

const (
	ItemTypeRawMaterial ItemType = "raw_material"
	ItemTypeProduct     ItemType = "product"
)

type MovementType string

const (
	MovementTypePurchaseReceipt  MovementType = "PURCHASE_RECEIPT"
	MovementTypeProductionInput  MovementType = "PRODUCTION_INPUT"
	MovementTypeProductionOutput MovementType = "PRODUCTION_OUTPUT"
	MovementTypeWaste            MovementType = "WASTE"
	MovementTypeDamaged          MovementType = "DAMAGED"
	MovementTypeAdjustmentPlus   MovementType = "ADJUSTMENT_PLUS"
	MovementTypeAdjustmentMinus  MovementType = "ADJUSTMENT_MINUS"
)

type MovementReferenceType string

const (
	MovementRefWorkOrder        MovementReferenceType = "work_order"
	MovementRefPurchaseOrder    MovementReferenceType = "purchase_order"
	MovementRefStockCount       MovementReferenceType = "stock_count"
	MovementRefManualAdjustment MovementReferenceType = "manual"
)

// InventoryMovement: Stok defterinin tek satırı. Append-only:
// oluşturulduktan sonra ASLA güncellenmez veya silinmez. Bakiyeler
// bu kayıtların işaretli toplamından türetilir.
type InventoryMovement struct {
	ID            uint         `gorm:"primaryKey"`
	ItemType      ItemType     `gorm:"size:20;not null;index:idx_movement_item"`
	ItemID        uint         `gorm:"not null;index:idx_movement_item"`
	MovementType  MovementType `gorm:"size:30;not null;index"`
	Quantity      decimal.Decimal `gorm:"type:decimal(20,6);not null"` // işaretli: giriş +, çıkış -
	Unit          string          `gorm:"size:20;not null"`
	UnitCost      decimal.Decimal `gorm:"type:decimal(20,6);not null;default:0"`
	TotalCost     decimal.Decimal `gorm:"type:decimal(20,6);not null;default:0"`
	ReferenceType MovementReferenceType `gorm:"size:30;index:idx_movement_ref"`
	ReferenceID   uint                  `gorm:"index:idx_movement_ref"`
	BatchNumber   string                `gorm:"size:50;index"`
	ExpiryDate    *time.Time
	MovementDate  time.Time `gorm:"index;not null"`
	Notes         string    `gorm:"size:500"`
	CreatedBy     uint      // raporlayan kullanıcı
	CreatedAt     time.Time
}

// InventoryBalance: (item_type, item_id) başına güncel bakiye.
// Hareket loguyla aynı transaction içinde güncellenen TÜREV bir cache'tir;
// her an hareketlerden yeniden hesaplanabilir olmalıdır.
type InventoryBalance struct {
	ID        uint            `gorm:"primaryKey"`
	ItemType  ItemType        `gorm:"size:20;not null;uniqueIndex:idx_balance_item"`
	ItemID    uint            `gorm:"not null;uniqueIndex:idx_balance_item"`
	Quantity  decimal.Decimal `gorm:"type:decimal(20,6);not null;default:0"`
	Unit      string          `gorm:"size:20;not null"`
	UpdatedAt time.Time
}

// IsIncoming: hareket tipi stok girişi mi? (işaret kuralı buradan türer)
func (mt MovementType) IsIncoming() bool {
	switch mt {
	case MovementTypePurchaseReceipt, MovementTypeProductionOutput, MovementTypeAdjustmentPlus:
		return true
	default:
		return false
	}
}
