package bom

import (
	"fmt"

	"uretim-backend/internal/apperr"
	"uretim-backend/internal/audit"
	"uretim-backend/internal/auth"
	"uretim-backend/internal/database"
	"uretim-backend/internal/models"
	"uretim-backend/internal/validate"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type BomItemResponse struct {
	ID              uint            `json:"id"`
	RawMaterialID   uint            `json:"raw_material_id"`
	RawMaterialName string          `json:"raw_material_name"`
	Quantity        decimal.Decimal `json:"quantity"`
	Unit            string          `json:"unit"`
	WastePercentage decimal.Decimal `json:"waste_percentage"`
	IsOptional      bool            `json:"is_optional"`
	SortOrder       int             `json:"sort_order"`
}

type BomResponse struct {
	ID                uint              `json:"id"`
	ProductID         uint              `json:"product_id"`
	Version           int               `json:"version"`
	IsActive          bool              `json:"is_active"`
	YieldPercentage   decimal.Decimal   `json:"yield_percentage"`
	StandardBatchSize decimal.Decimal   `json:"standard_batch_size"`
	BatchUnit         string            `json:"batch_unit"`
	Notes             string            `json:"notes,omitempty"`
	CreatedAt         string            `json:"created_at"`
	Items             []BomItemResponse `json:"items"`
}

func toBomResponse(b *models.Bom) BomResponse {
	resp := BomResponse{
		ID:                b.ID,
		ProductID:         b.ProductID,
		Version:           b.Version,
		IsActive:          b.IsActive,
		YieldPercentage:   b.YieldPercentage,
		StandardBatchSize: b.StandardBatchSize,
		BatchUnit:         b.BatchUnit,
		Notes:             b.Notes,
		CreatedAt:         b.CreatedAt.Format("2006-01-02 15:04:05"),
		Items:             make([]BomItemResponse, 0, len(b.Items)),
	}
	for _, item := range b.Items {
		resp.Items = append(resp.Items, BomItemResponse{
			ID:              item.ID,
			RawMaterialID:   item.RawMaterialID,
			RawMaterialName: item.RawMaterial.Name,
			Quantity:        item.Quantity,
			Unit:            item.Unit,
			WastePercentage: item.WastePercentage,
			IsOptional:      item.IsOptional,
			SortOrder:       item.SortOrder,
		})
	}
	return resp
}

// GET /api/bom/:productId
func GetActiveBomHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		productID, err := c.ParamsInt("productId")
		if err != nil || productID <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz ürün ID")
		}

		b, err := GetActiveBom(database.DB, uint(productID))
		if err != nil {
			return apperr.ToFiber(err, "Reçete okunamadı")
		}

		return c.JSON(toBomResponse(b))
	}
}

// PUT /api/bom/:productId
// Yeni reçete versiyonu açar ve aktif yapar
func SetActiveBomHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		productID, err := c.ParamsInt("productId")
		if err != nil || productID <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz ürün ID")
		}

		var body BomInput
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}
		if err := validate.Struct(body); err != nil {
			return err
		}

		userID, userName := auth.Actor(c)

		newBom, err := SetActiveBom(database.DB, userID, uint(productID), body)
		if err != nil {
			return apperr.ToFiber(err, "Reçete oluşturulamadı")
		}

		_ = audit.WriteLog(audit.LogOptions{
			UserID:      userID,
			UserName:    userName,
			EntityType:  "bom",
			EntityID:    newBom.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Reçete v%d aktif edildi (ürün ID: %d)", newBom.Version, productID),
			After:       newBom,
		})

		return c.Status(fiber.StatusCreated).JSON(toBomResponse(newBom))
	}
}

// GET /api/bom/:productId/versions
// Denetim için tüm reçete versiyonları (eskiler dahil)
func ListBomVersionsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		productID, err := c.ParamsInt("productId")
		if err != nil || productID <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz ürün ID")
		}

		var boms []models.Bom
		if err := database.DB.Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC")
		}).Preload("Items.RawMaterial").
			Where("product_id = ?", productID).
			Order("version DESC").
			Find(&boms).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Reçete versiyonları listelenemedi")
		}

		resp := make([]BomResponse, 0, len(boms))
		for i := range boms {
			resp = append(resp, toBomResponse(&boms[i]))
		}

		return c.JSON(resp)
	}
}

type CalculateRequest struct {
	Quantity decimal.Decimal `json:"quantity"`
}

// POST /api/bom/:productId/calculate
// Hedef miktar için hammadde ihtiyacı + maliyet (yan etkisiz)
func CalculateBatchHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		productID, err := c.ParamsInt("productId")
		if err != nil || productID <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz ürün ID")
		}

		var body CalculateRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		calc, err := CalculateBatch(database.DB, uint(productID), body.Quantity)
		if err != nil {
			return apperr.ToFiber(err, "Hesaplama yapılamadı")
		}

		return c.JSON(calc)
	}
}
