package catalog

import (
	"strings"

	"uretim-backend/internal/database"
	"uretim-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type RawMaterialResponse struct {
	ID            uint            `json:"id"`
	Name          string          `json:"name"`
	Unit          string          `json:"unit"`
	MinStockLevel decimal.Decimal `json:"min_stock_level"`
	LastCost      decimal.Decimal `json:"last_cost"`
	AvgCost       decimal.Decimal `json:"avg_cost"`
	IsActive      bool            `json:"is_active"`
}

type CreateRawMaterialRequest struct {
	Name          string          `json:"name"`
	Unit          string          `json:"unit"`
	MinStockLevel decimal.Decimal `json:"min_stock_level"`
	LastCost      decimal.Decimal `json:"last_cost"`
}

type UpdateRawMaterialRequest struct {
	Name          *string          `json:"name"`
	Unit          *string          `json:"unit"`
	MinStockLevel *decimal.Decimal `json:"min_stock_level"`
	LastCost      *decimal.Decimal `json:"last_cost"`
	IsActive      *bool            `json:"is_active"`
}

func toRawMaterialResponse(rm models.RawMaterial) RawMaterialResponse {
	return RawMaterialResponse{
		ID:            rm.ID,
		Name:          rm.Name,
		Unit:          rm.Unit,
		MinStockLevel: rm.MinStockLevel,
		LastCost:      rm.LastCost,
		AvgCost:       rm.AvgCost,
		IsActive:      rm.IsActive,
	}
}

// GET /api/raw-materials
func ListRawMaterialsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Model(&models.RawMaterial{})
		if c.Query("include_inactive") != "true" {
			dbq = dbq.Where("is_active = ?", true)
		}

		var materials []models.RawMaterial
		if err := dbq.Order("name asc").Find(&materials).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Hammaddeler listelenemedi")
		}

		res := make([]RawMaterialResponse, 0, len(materials))
		for _, rm := range materials {
			res = append(res, toRawMaterialResponse(rm))
		}
		return c.JSON(res)
	}
}

// POST /api/raw-materials (sadece admin)
func CreateRawMaterialHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateRawMaterialRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}

		body.Name = strings.TrimSpace(body.Name)
		body.Unit = strings.TrimSpace(body.Unit)

		if body.Name == "" || body.Unit == "" {
			return fiber.NewError(fiber.StatusBadRequest, "name ve unit zorunlu")
		}
		if body.LastCost.IsNegative() || body.MinStockLevel.IsNegative() {
			return fiber.NewError(fiber.StatusBadRequest, "Maliyet ve eşik negatif olamaz")
		}

		rm := models.RawMaterial{
			Name:          body.Name,
			Unit:          body.Unit,
			MinStockLevel: body.MinStockLevel,
			LastCost:      body.LastCost,
			AvgCost:       body.LastCost,
			IsActive:      true,
		}

		if err := database.DB.Create(&rm).Error; err != nil {
			return fiber.NewError(fiber.StatusConflict, "Hammadde oluşturulamadı (isim kayıtlı olabilir)")
		}

		return c.Status(fiber.StatusCreated).JSON(toRawMaterialResponse(rm))
	}
}

// PUT /api/raw-materials/:id (sadece admin)
func UpdateRawMaterialHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz hammadde ID")
		}

		var rm models.RawMaterial
		if err := database.DB.First(&rm, id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Hammadde bulunamadı")
		}

		var body UpdateRawMaterialRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}

		if body.Name != nil {
			rm.Name = strings.TrimSpace(*body.Name)
		}
		if body.Unit != nil {
			rm.Unit = strings.TrimSpace(*body.Unit)
		}
		if body.MinStockLevel != nil {
			if body.MinStockLevel.IsNegative() {
				return fiber.NewError(fiber.StatusBadRequest, "Eşik negatif olamaz")
			}
			rm.MinStockLevel = *body.MinStockLevel
		}
		if body.LastCost != nil {
			if body.LastCost.IsNegative() {
				return fiber.NewError(fiber.StatusBadRequest, "Maliyet negatif olamaz")
			}
			// Basit hareketli ortalama: yeni ortalama = (eski ortalama + yeni fiyat) / 2
			rm.AvgCost = rm.AvgCost.Add(*body.LastCost).Div(decimal.NewFromInt(2))
			rm.LastCost = *body.LastCost
		}
		if body.IsActive != nil {
			rm.IsActive = *body.IsActive
		}

		if err := database.DB.Save(&rm).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Hammadde güncellenemedi")
		}

		return c.JSON(toRawMaterialResponse(rm))
	}
}
