package stockcount

import (
	"strconv"

	"uretim-backend/internal/apperr"
	"uretim-backend/internal/audit"
	"uretim-backend/internal/auth"
	"uretim-backend/internal/config"
	"uretim-backend/internal/database"
	"uretim-backend/internal/models"
	"uretim-backend/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type startCountRequest struct {
	CountType models.StockCountType `json:"count_type" validate:"required,oneof=FULL PARTIAL SPOT_CHECK"`
	Items     []ItemRef             `json:"items" validate:"dive"`
	Notes     string                `json:"notes"`
}

// StartCountHandler: POST /api/inventory/counts
func StartCountHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req startCountRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}
		if err := validate.Struct(req); err != nil {
			return err
		}

		userID, userName := auth.Actor(c)

		count, err := StartCount(database.DB, userID, req.CountType, req.Items, req.Notes)
		if err != nil {
			config.LogError("stockcount/handler.go", "StartCountHandler", "start_count", req, err)
			return apperr.ToFiber(err, "Sayım başlatılamadı")
		}

		audit.WriteLog(audit.LogOptions{
			UserID:      userID,
			UserName:    userName,
			Action:      models.AuditActionCreate,
			EntityType:  "stock_count",
			EntityID:    count.ID,
			Description: "Sayım başlatıldı: " + count.CountNumber,
		})

		return c.Status(fiber.StatusCreated).JSON(count)
	}
}

// ListCountsHandler: GET /api/inventory/counts?status=&type=
func ListCountsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		query := database.DB.Model(&models.StockCount{})

		if status := c.Query("status"); status != "" {
			query = query.Where("status = ?", status)
		}
		if countType := c.Query("type"); countType != "" {
			query = query.Where("count_type = ?", countType)
		}

		var counts []models.StockCount
		if err := query.Order("id DESC").Limit(200).Find(&counts).Error; err != nil {
			config.LogError("stockcount/handler.go", "ListCountsHandler", "list_counts", nil, err)
			return fiber.NewError(fiber.StatusInternalServerError, "Sayımlar listelenemedi")
		}

		return c.JSON(counts)
	}
}

// GetCountHandler: GET /api/inventory/counts/:id
func GetCountHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := strconv.Atoi(c.Params("id"))
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz sayım ID")
		}

		var count models.StockCount
		if err := database.DB.Preload("Items").First(&count, id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Sayım oturumu bulunamadı")
		}

		return c.JSON(count)
	}
}

type saveCountRequest struct {
	Items []CountEntry `json:"items" validate:"required,min=1,dive"`
}

// SaveCountHandler: PUT /api/inventory/counts/:id
func SaveCountHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := strconv.Atoi(c.Params("id"))
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz sayım ID")
		}

		var req saveCountRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}
		if err := validate.Struct(req); err != nil {
			return err
		}

		count, err := SaveCount(database.DB, uint(id), req.Items)
		if err != nil {
			config.LogError("stockcount/handler.go", "SaveCountHandler", "save_count", req, err)
			return apperr.ToFiber(err, "Sayım kaydedilemedi")
		}

		return c.JSON(count)
	}
}

// SubmitCountHandler: POST /api/inventory/counts/:id/submit
func SubmitCountHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := strconv.Atoi(c.Params("id"))
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz sayım ID")
		}

		count, err := SubmitCount(database.DB, uint(id))
		if err != nil {
			config.LogError("stockcount/handler.go", "SubmitCountHandler", "submit_count", id, err)
			return apperr.ToFiber(err, "Sayım tamamlanamadı")
		}

		userID, userName := auth.Actor(c)
		audit.WriteLog(audit.LogOptions{
			UserID:      userID,
			UserName:    userName,
			Action:      models.AuditActionUpdate,
			EntityType:  "stock_count",
			EntityID:    count.ID,
			Description: "Sayım tamamlandı: " + count.CountNumber,
		})

		return c.JSON(count)
	}
}

// ApproveCountHandler: POST /api/inventory/counts/:id/approve
func ApproveCountHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := strconv.Atoi(c.Params("id"))
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz sayım ID")
		}

		userID, userName := auth.Actor(c)

		count, err := ApproveCount(database.DB, userID, uint(id))
		if err != nil {
			config.LogError("stockcount/handler.go", "ApproveCountHandler", "approve_count", id, err)
			return apperr.ToFiber(err, "Sayım onaylanamadı")
		}

		audit.WriteLog(audit.LogOptions{
			UserID:      userID,
			UserName:    userName,
			Action:      models.AuditActionApprove,
			EntityType:  "stock_count",
			EntityID:    count.ID,
			Description: "Sayım onaylandı, düzeltme hareketleri yazıldı: " + count.CountNumber,
		})

		return c.JSON(count)
	}
}
