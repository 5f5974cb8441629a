package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusDraft     OrderStatus = "draft"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// Order: Müşteri siparişi. Core için sadece talep kaynağıdır;
// planlayıcı okur, asla değiştirmez. (draft ve cancelled siparişler
// talep hesabına girmez)
type Order struct {
	ID                    uint        `gorm:"primaryKey"`
	OrderNumber           string      `gorm:"size:50;uniqueIndex;not null"`
	CustomerName          string      `gorm:"size:150;not null"`
	Status                OrderStatus `gorm:"size:20;not null;default:'draft';index"`
	RequestedDeliveryDate time.Time   `gorm:"index;not null"` // talep edilen teslim tarihi
	Notes                 string      `gorm:"size:500"`
	CreatedAt             time.Time
	UpdatedAt             time.Time

	Items []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

// OrderItem: Sipariş satırı
type OrderItem struct {
	ID        uint `gorm:"primaryKey"`
	OrderID   uint `gorm:"index;not null"`
	ProductID uint `gorm:"index;not null"`
	Product   Product
	Quantity  decimal.Decimal `gorm:"type:decimal(20,6);not null"`
	Unit      string          `gorm:"size:20;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
