package notify

import (
	"uretim-backend/internal/database"
	"uretim-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type NotificationResponse struct {
	ID         uint                    `json:"id"`
	Type       models.NotificationType `json:"type"`
	Message    string                  `json:"message"`
	EntityType string                  `json:"entity_type,omitempty"`
	EntityID   uint                    `json:"entity_id,omitempty"`
	IsRead     bool                    `json:"is_read"`
	CreatedAt  string                  `json:"created_at"`
}

// GET /api/notifications?unread=true
func ListNotificationsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Model(&models.Notification{})
		if c.Query("unread") == "true" {
			dbq = dbq.Where("is_read = ?", false)
		}

		var notifications []models.Notification
		if err := dbq.Order("id DESC").Limit(200).Find(&notifications).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Bildirimler listelenemedi")
		}

		resp := make([]NotificationResponse, 0, len(notifications))
		for _, n := range notifications {
			resp = append(resp, NotificationResponse{
				ID:         n.ID,
				Type:       n.Type,
				Message:    n.Message,
				EntityType: n.EntityType,
				EntityID:   n.EntityID,
				IsRead:     n.IsRead,
				CreatedAt:  n.CreatedAt.Format("2006-01-02 15:04:05"),
			})
		}

		return c.JSON(resp)
	}
}

// PUT /api/notifications/:id/read
func MarkReadHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz bildirim ID")
		}

		res := database.DB.Model(&models.Notification{}).Where("id = ?", id).Update("is_read", true)
		if res.Error != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Bildirim güncellenemedi")
		}
		if res.RowsAffected == 0 {
			return fiber.NewError(fiber.StatusNotFound, "Bildirim bulunamadı")
		}

		return c.JSON(fiber.Map{"ok": true})
	}
}
