package production

import (
	"fmt"

	"uretim-backend/internal/apperr"
	"uretim-backend/internal/audit"
	"uretim-backend/internal/auth"
	"uretim-backend/internal/database"
	"uretim-backend/internal/models"
	"uretim-backend/internal/notify"
	"uretim-backend/internal/validate"

	"github.com/gofiber/fiber/v2"
)

// POST /api/production/report
// Saha üretim raporu: mamul girişi + hammadde tüketimi + satır kapama
func ReportProductionHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body ReportInput
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}
		if err := validate.Struct(body); err != nil {
			return err
		}

		userID, userName := auth.Actor(c)

		result, err := ReportProduction(database.DB, userID, body)
		if err != nil {
			return apperr.ToFiber(err, "Üretim raporu işlenemedi")
		}

		_ = audit.WriteLog(audit.LogOptions{
			UserID:      userID,
			UserName:    userName,
			EntityType:  "work_order_item",
			EntityID:    result.WorkOrderItemID,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("Üretim raporu: %s, %s adet, parti %s", result.ProductName, result.ProducedQuantity.String(), result.BatchNumber),
			After:       result,
		})

		// Commit sonrası bildirimler (fire-and-forget)
		notify.Emit(models.NotificationProductionComplete, "work_order_item", result.WorkOrderItemID,
			"Üretim tamamlandı: %s (%s, parti %s)", result.ProductName, result.ProducedQuantity.String(), result.BatchNumber)
		for _, cons := range result.Consumptions {
			notify.CheckLowStock(models.ItemTypeRawMaterial, cons.RawMaterialID)
		}

		return c.Status(fiber.StatusCreated).JSON(result)
	}
}
