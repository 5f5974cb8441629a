package models

import "time"

type NotificationType string

const (
	NotificationShortage           NotificationType = "shortage_detected"
	NotificationLowStock           NotificationType = "low_stock"
	NotificationProductionComplete NotificationType = "production_complete"
)

// Notification: Core transaction commit olduktan SONRA fire-and-forget
// yazılan bildirim kaydı. Yazma hatası core işlemini asla geri almaz.
type Notification struct {
	ID         uint             `gorm:"primaryKey"`
	Type       NotificationType `gorm:"size:30;not null;index"`
	Message    string           `gorm:"size:500;not null"`
	EntityType string           `gorm:"size:50"`
	EntityID   uint
	IsRead     bool `gorm:"not null;default:false;index"`
	CreatedAt  time.Time
}
