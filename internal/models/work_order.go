package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type WorkOrderStatus string

const (
	WorkOrderStatusPlanned    WorkOrderStatus = "planned"
	WorkOrderStatusInProgress WorkOrderStatus = "in_progress"
	WorkOrderStatusCompleted  WorkOrderStatus = "completed"
	WorkOrderStatusCancelled  WorkOrderStatus = "cancelled"
)

type WorkOrderItemStatus string

const (
	WorkOrderItemStatusPending    WorkOrderItemStatus = "pending"
	WorkOrderItemStatusInProgress WorkOrderItemStatus = "in_progress"
	WorkOrderItemStatusCompleted  WorkOrderItemStatus = "completed"
	WorkOrderItemStatusCancelled  WorkOrderItemStatus = "cancelled"
)

// WorkOrder: Bir üretim hattı için bir günlük üretim emri.
// Planlayıcı oluşturur (planned); saha raporları item'ları tamamladıkça
// ilerler; iptal edilmemiş tüm item'lar tamamlanınca completed olur.
type WorkOrder struct {
	ID               uint            `gorm:"primaryKey"`
	OrderNumber      string          `gorm:"size:50;uniqueIndex;not null"` // ör: "WO-20260115-FIRIN1"
	ProductionDate   time.Time       `gorm:"index;not null"`
	ProductionLine   string          `gorm:"size:50;not null;index"`
	Status           WorkOrderStatus `gorm:"size:20;not null;default:'planned';index"`
	PlannedStartTime *time.Time
	PlannedEndTime   *time.Time
	ActualStartTime  *time.Time
	ActualEndTime    *time.Time
	Notes            string `gorm:"size:500"`
	CreatedBy        uint
	CreatedAt        time.Time
	UpdatedAt        time.Time

	Items []WorkOrderItem `gorm:"foreignKey:WorkOrderID;constraint:OnDelete:CASCADE"`
}

// WorkOrderItem: İş emri içindeki tek ürünün üretim satırı.
// BomID, oluşturma anındaki AKTİF reçete versiyonunun snapshot'ıdır;
// sonradan yapılan reçete değişiklikleri planlanmış üretimi etkilemez.
type WorkOrderItem struct {
	ID               uint `gorm:"primaryKey"`
	WorkOrderID      uint `gorm:"index;not null"`
	ProductID        uint `gorm:"index;not null"`
	Product          Product
	BomID            uint `gorm:"not null"` // kullanılan reçete versiyonu (snapshot)
	Bom              Bom
	PlannedQuantity  decimal.Decimal     `gorm:"type:decimal(20,6);not null"`
	ProducedQuantity decimal.Decimal     `gorm:"type:decimal(20,6);not null;default:0"`
	WasteQuantity    decimal.Decimal     `gorm:"type:decimal(20,6);not null;default:0"`
	WasteReason      string              `gorm:"size:255"`
	BatchNumber      string              `gorm:"size:50;index"` // üretim raporunda atanır (LOT-YYYYMMDD-NNN)
	ExpiryDate       *time.Time          // üretim tarihi + ürün raf ömrü
	Status           WorkOrderItemStatus `gorm:"size:20;not null;default:'pending';index"`
	Notes            string              `gorm:"size:500"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
