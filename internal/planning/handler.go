package planning

import (
	"fmt"
	"time"

	"uretim-backend/internal/apperr"
	"uretim-backend/internal/audit"
	"uretim-backend/internal/auth"
	"uretim-backend/internal/database"
	"uretim-backend/internal/models"
	"uretim-backend/internal/notify"

	"github.com/gofiber/fiber/v2"
)

// GET /api/production/plan?date=2026-01-20
// Talep + malzeme ihtiyacı + uyarılar; yan etkisiz
func GeneratePlanHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dateStr := c.Query("date")
		if dateStr == "" {
			return fiber.NewError(fiber.StatusBadRequest, "date parametresi zorunlu")
		}
		date, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Tarih formatı 'YYYY-MM-DD' olmalı")
		}

		plan, err := GeneratePlan(database.DB, date)
		if err != nil {
			return apperr.ToFiber(err, "Plan oluşturulamadı")
		}

		return c.JSON(plan)
	}
}

type CommitPlanRequest struct {
	Date string `json:"date"`
}

// POST /api/production/plan
// Net talebi iş emirlerine çevirir (tek transaction)
func CommitPlanHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CommitPlanRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}
		if body.Date == "" {
			return fiber.NewError(fiber.StatusBadRequest, "date zorunlu")
		}
		date, err := time.Parse("2006-01-02", body.Date)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Tarih formatı 'YYYY-MM-DD' olmalı")
		}

		userID, userName := auth.Actor(c)

		result, err := CommitPlan(database.DB, userID, date)
		if err != nil {
			return apperr.ToFiber(err, "Plan commit edilemedi")
		}

		for _, woID := range result.WorkOrderIDs {
			_ = audit.WriteLog(audit.LogOptions{
				UserID:      userID,
				UserName:    userName,
				EntityType:  "work_order",
				EntityID:    woID,
				Action:      models.AuditActionCreate,
				Description: fmt.Sprintf("Üretim planı commit edildi (%s)", result.Date),
			})
		}

		// Commit sonrası: eksik uyarıları bildirim olarak da yayınla
		for _, alert := range result.Alerts {
			notify.Emit(models.NotificationShortage, "production_plan", 0, "%s", alert)
		}

		return c.Status(fiber.StatusCreated).JSON(result)
	}
}
