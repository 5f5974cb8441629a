package catalog

import (
	"strings"

	"uretim-backend/internal/database"
	"uretim-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type ProductResponse struct {
	ID             uint            `json:"id"`
	Name           string          `json:"name"`
	Unit           string          `json:"unit"`
	ProductionLine string          `json:"production_line"`
	ShelfLifeDays  int             `json:"shelf_life_days"`
	MinStockLevel  decimal.Decimal `json:"min_stock_level"`
	SalePrice      decimal.Decimal `json:"sale_price"`
	LastCost       decimal.Decimal `json:"last_cost"`
	IsActive       bool            `json:"is_active"`
}

type CreateProductRequest struct {
	Name           string          `json:"name"`
	Unit           string          `json:"unit"`
	ProductionLine string          `json:"production_line"`
	ShelfLifeDays  int             `json:"shelf_life_days"`
	MinStockLevel  decimal.Decimal `json:"min_stock_level"`
	SalePrice      decimal.Decimal `json:"sale_price"`
}

type UpdateProductRequest struct {
	Name           *string          `json:"name"`
	Unit           *string          `json:"unit"`
	ProductionLine *string          `json:"production_line"`
	ShelfLifeDays  *int             `json:"shelf_life_days"`
	MinStockLevel  *decimal.Decimal `json:"min_stock_level"`
	SalePrice      *decimal.Decimal `json:"sale_price"`
	IsActive       *bool            `json:"is_active"`
}

func toProductResponse(p models.Product) ProductResponse {
	return ProductResponse{
		ID:             p.ID,
		Name:           p.Name,
		Unit:           p.Unit,
		ProductionLine: p.ProductionLine,
		ShelfLifeDays:  p.ShelfLifeDays,
		MinStockLevel:  p.MinStockLevel,
		SalePrice:      p.SalePrice,
		LastCost:       p.LastCost,
		IsActive:       p.IsActive,
	}
}

// GET /api/products (tüm authenticated kullanıcılar görebilir)
func ListProductsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Model(&models.Product{})
		if c.Query("include_inactive") != "true" {
			dbq = dbq.Where("is_active = ?", true)
		}
		if line := c.Query("production_line"); line != "" {
			dbq = dbq.Where("production_line = ?", line)
		}

		var products []models.Product
		if err := dbq.Order("name asc").Find(&products).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Ürünler listelenemedi")
		}

		res := make([]ProductResponse, 0, len(products))
		for _, p := range products {
			res = append(res, toProductResponse(p))
		}
		return c.JSON(res)
	}
}

// POST /api/products (sadece admin)
func CreateProductHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateProductRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}

		body.Name = strings.TrimSpace(body.Name)
		body.Unit = strings.TrimSpace(body.Unit)
		body.ProductionLine = strings.TrimSpace(body.ProductionLine)

		if body.Name == "" || body.Unit == "" || body.ProductionLine == "" {
			return fiber.NewError(fiber.StatusBadRequest, "name, unit ve production_line zorunlu")
		}
		if body.ShelfLifeDays < 0 {
			return fiber.NewError(fiber.StatusBadRequest, "shelf_life_days negatif olamaz")
		}

		p := models.Product{
			Name:           body.Name,
			Unit:           body.Unit,
			ProductionLine: body.ProductionLine,
			ShelfLifeDays:  body.ShelfLifeDays,
			MinStockLevel:  body.MinStockLevel,
			SalePrice:      body.SalePrice,
			IsActive:       true,
		}

		if err := database.DB.Create(&p).Error; err != nil {
			return fiber.NewError(fiber.StatusConflict, "Ürün oluşturulamadı (isim kayıtlı olabilir)")
		}

		return c.Status(fiber.StatusCreated).JSON(toProductResponse(p))
	}
}

// PUT /api/products/:id (sadece admin)
func UpdateProductHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz ürün ID")
		}

		var p models.Product
		if err := database.DB.First(&p, id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Ürün bulunamadı")
		}

		var body UpdateProductRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}

		if body.Name != nil {
			p.Name = strings.TrimSpace(*body.Name)
		}
		if body.Unit != nil {
			p.Unit = strings.TrimSpace(*body.Unit)
		}
		if body.ProductionLine != nil {
			p.ProductionLine = strings.TrimSpace(*body.ProductionLine)
		}
		if body.ShelfLifeDays != nil {
			if *body.ShelfLifeDays < 0 {
				return fiber.NewError(fiber.StatusBadRequest, "shelf_life_days negatif olamaz")
			}
			p.ShelfLifeDays = *body.ShelfLifeDays
		}
		if body.MinStockLevel != nil {
			p.MinStockLevel = *body.MinStockLevel
		}
		if body.SalePrice != nil {
			p.SalePrice = *body.SalePrice
		}
		if body.IsActive != nil {
			p.IsActive = *body.IsActive
		}

		if err := database.DB.Save(&p).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Ürün güncellenemedi")
		}

		return c.JSON(toProductResponse(p))
	}
}
