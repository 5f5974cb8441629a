package ledger

import (
	"fmt"
	"time"

	"uretim-backend/internal/apperr"
	"uretim-backend/internal/audit"
	"uretim-backend/internal/auth"
	"uretim-backend/internal/database"
	"uretim-backend/internal/models"
	"uretim-backend/internal/notify"
	"uretim-backend/internal/validate"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type CreateMovementRequest struct {
	ItemType     models.ItemType     `json:"item_type" validate:"required,oneof=raw_material product"`
	ItemID       uint                `json:"item_id" validate:"required"`
	MovementType models.MovementType `json:"movement_type" validate:"required,oneof=PURCHASE_RECEIPT WASTE DAMAGED"` // manuel girişe açık tipler
	Quantity     decimal.Decimal     `json:"quantity"` // pozitif magnitude; işaret hareket tipinden türer
	UnitCost     decimal.Decimal     `json:"unit_cost"`
	BatchNumber  string              `json:"batch_number"`
	ExpiryDate   *string             `json:"expiry_date"` // "2026-03-15"
	Date         string              `json:"date"`        // "2026-01-15", boşsa bugün
	Notes        string              `json:"notes"`
}

type MovementResponse struct {
	ID            uint            `json:"id"`
	ItemType      models.ItemType `json:"item_type"`
	ItemID        uint            `json:"item_id"`
	ItemName      string          `json:"item_name"`
	MovementType  models.MovementType `json:"movement_type"`
	Quantity      decimal.Decimal `json:"quantity"`
	Unit          string          `json:"unit"`
	UnitCost      decimal.Decimal `json:"unit_cost"`
	TotalCost     decimal.Decimal `json:"total_cost"`
	ReferenceType string          `json:"reference_type,omitempty"`
	ReferenceID   uint            `json:"reference_id,omitempty"`
	BatchNumber   string          `json:"batch_number,omitempty"`
	ExpiryDate    string          `json:"expiry_date,omitempty"`
	MovementDate  string          `json:"movement_date"`
	Notes         string          `json:"notes,omitempty"`
	CreatedBy     uint            `json:"created_by"`
	CreatedAt     string          `json:"created_at"`
}

// POST /api/inventory/movements
// Manuel stok hareketi: satın alma girişi, zayiat, hasar.
// Üretim ve sayım hareketleri kendi endpoint'lerinden yazılır.
func CreateMovementHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateMovementRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}
		if err := validate.Struct(body); err != nil {
			return err
		}
		if !body.Quantity.IsPositive() {
			return apperr.InvalidArgument("quantity 0'dan büyük olmalı")
		}

		unit, itemName, err := resolveItem(body.ItemType, body.ItemID)
		if err != nil {
			return err
		}

		movementDate := time.Now()
		if body.Date != "" {
			d, perr := time.Parse("2006-01-02", body.Date)
			if perr != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Tarih formatı 'YYYY-MM-DD' olmalı")
			}
			movementDate = d
		}

		var expiry *time.Time
		if body.ExpiryDate != nil && *body.ExpiryDate != "" {
			d, perr := time.Parse("2006-01-02", *body.ExpiryDate)
			if perr != nil {
				return fiber.NewError(fiber.StatusBadRequest, "SKT formatı 'YYYY-MM-DD' olmalı")
			}
			expiry = &d
		}

		userID, userName := auth.Actor(c)

		movement := models.InventoryMovement{
			ItemType:      body.ItemType,
			ItemID:        body.ItemID,
			MovementType:  body.MovementType,
			Quantity:      SignedQuantity(body.MovementType, body.Quantity),
			Unit:          unit,
			UnitCost:      body.UnitCost,
			ReferenceType: models.MovementRefManualAdjustment,
			BatchNumber:   body.BatchNumber,
			ExpiryDate:    expiry,
			MovementDate:  movementDate,
			Notes:         body.Notes,
			CreatedBy:     userID,
		}

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			if err := RecordMovement(tx, &movement); err != nil {
				return err
			}
			return audit.WriteLogTx(tx, audit.LogOptions{
				UserID:      userID,
				UserName:    userName,
				EntityType:  "inventory_movement",
				EntityID:    movement.ID,
				Action:      models.AuditActionCreate,
				Description: fmt.Sprintf("Stok hareketi: %s %s %s %s", body.MovementType, itemName, body.Quantity.String(), unit),
				After:       movement,
			})
		})
		if err != nil {
			return apperr.ToFiber(err, "Stok hareketi kaydedilemedi")
		}

		// Commit sonrası: eşik kontrolü (fire-and-forget)
		notify.CheckLowStock(body.ItemType, body.ItemID)

		return c.Status(fiber.StatusCreated).JSON(toMovementResponse(movement, itemName))
	}
}

// GET /api/inventory/movements?item_type=&item_id=&movement_type=&from=&to=
func ListMovementsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Model(&models.InventoryMovement{})

		if it := c.Query("item_type"); it != "" {
			dbq = dbq.Where("item_type = ?", it)
		}
		if idStr := c.Query("item_id"); idStr != "" {
			var id uint
			if _, err := fmt.Sscan(idStr, &id); err == nil && id > 0 {
				dbq = dbq.Where("item_id = ?", id)
			}
		}
		if mt := c.Query("movement_type"); mt != "" {
			dbq = dbq.Where("movement_type = ?", mt)
		}
		if from := c.Query("from"); from != "" {
			if d, err := time.Parse("2006-01-02", from); err == nil {
				dbq = dbq.Where("movement_date >= ?", d)
			}
		}
		if to := c.Query("to"); to != "" {
			if d, err := time.Parse("2006-01-02", to); err == nil {
				dbq = dbq.Where("movement_date < ?", d.AddDate(0, 0, 1))
			}
		}

		var movements []models.InventoryMovement
		if err := dbq.Order("id DESC").Limit(1000).Find(&movements).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Hareketler listelenemedi")
		}

		names := itemNameCache{}
		resp := make([]MovementResponse, 0, len(movements))
		for _, m := range movements {
			resp = append(resp, toMovementResponse(m, names.lookup(m.ItemType, m.ItemID)))
		}

		return c.JSON(resp)
	}
}

type BalanceResponse struct {
	ItemType  models.ItemType `json:"item_type"`
	ItemID    uint            `json:"item_id"`
	ItemName  string          `json:"item_name"`
	Quantity  decimal.Decimal `json:"quantity"`
	Unit      string          `json:"unit"`
	UpdatedAt string          `json:"updated_at"`
}

// GET /api/inventory/balances?item_type=
func ListBalancesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Model(&models.InventoryBalance{})
		if it := c.Query("item_type"); it != "" {
			dbq = dbq.Where("item_type = ?", it)
		}

		var balances []models.InventoryBalance
		if err := dbq.Order("item_type, item_id").Find(&balances).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Bakiyeler listelenemedi")
		}

		names := itemNameCache{}
		resp := make([]BalanceResponse, 0, len(balances))
		for _, b := range balances {
			resp = append(resp, BalanceResponse{
				ItemType:  b.ItemType,
				ItemID:    b.ItemID,
				ItemName:  names.lookup(b.ItemType, b.ItemID),
				Quantity:  b.Quantity,
				Unit:      b.Unit,
				UpdatedAt: b.UpdatedAt.Format("2006-01-02 15:04:05"),
			})
		}

		return c.JSON(resp)
	}
}

type LowStockRow struct {
	ItemType      models.ItemType `json:"item_type"`
	ItemID        uint            `json:"item_id"`
	ItemName      string          `json:"item_name"`
	Unit          string          `json:"unit"`
	Quantity      decimal.Decimal `json:"quantity"`
	MinStockLevel decimal.Decimal `json:"min_stock_level"`
}

// GET /api/inventory/low-stock
// Bakiyesi kritik eşiğin altına düşmüş kalemler
func LowStockHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		rows := make([]LowStockRow, 0)

		var materials []models.RawMaterial
		if err := database.DB.Where("is_active = ?", true).Find(&materials).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Hammaddeler listelenemedi")
		}
		for _, rm := range materials {
			if rm.MinStockLevel.IsZero() {
				continue
			}
			bal, err := GetBalance(database.DB, models.ItemTypeRawMaterial, rm.ID)
			if err != nil {
				continue
			}
			if bal.LessThan(rm.MinStockLevel) {
				rows = append(rows, LowStockRow{
					ItemType: models.ItemTypeRawMaterial, ItemID: rm.ID, ItemName: rm.Name,
					Unit: rm.Unit, Quantity: bal, MinStockLevel: rm.MinStockLevel,
				})
			}
		}

		var products []models.Product
		if err := database.DB.Where("is_active = ?", true).Find(&products).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Ürünler listelenemedi")
		}
		for _, p := range products {
			if p.MinStockLevel.IsZero() {
				continue
			}
			bal, err := GetBalance(database.DB, models.ItemTypeProduct, p.ID)
			if err != nil {
				continue
			}
			if bal.LessThan(p.MinStockLevel) {
				rows = append(rows, LowStockRow{
					ItemType: models.ItemTypeProduct, ItemID: p.ID, ItemName: p.Name,
					Unit: p.Unit, Quantity: bal, MinStockLevel: p.MinStockLevel,
				})
			}
		}

		return c.JSON(rows)
	}
}

// resolveItem: kalemin birimini ve adını katalogdan çözer
func resolveItem(itemType models.ItemType, itemID uint) (string, string, error) {
	switch itemType {
	case models.ItemTypeRawMaterial:
		var rm models.RawMaterial
		if err := database.DB.First(&rm, itemID).Error; err != nil {
			return "", "", apperr.NotFound("Hammadde bulunamadı (ID: %d)", itemID)
		}
		return rm.Unit, rm.Name, nil
	case models.ItemTypeProduct:
		var p models.Product
		if err := database.DB.First(&p, itemID).Error; err != nil {
			return "", "", apperr.NotFound("Ürün bulunamadı (ID: %d)", itemID)
		}
		return p.Unit, p.Name, nil
	default:
		return "", "", apperr.InvalidArgument("item_type 'raw_material' veya 'product' olmalı")
	}
}

// itemNameCache: liste cevaplarında kalem adlarını tek tek sorgulamamak için
type itemNameCache map[string]string

func (cache itemNameCache) lookup(itemType models.ItemType, itemID uint) string {
	key := fmt.Sprintf("%s/%d", itemType, itemID)
	if name, ok := cache[key]; ok {
		return name
	}
	_, name, err := resolveItem(itemType, itemID)
	if err != nil {
		name = ""
	}
	cache[key] = name
	return name
}

func toMovementResponse(m models.InventoryMovement, itemName string) MovementResponse {
	resp := MovementResponse{
		ID:           m.ID,
		ItemType:     m.ItemType,
		ItemID:       m.ItemID,
		ItemName:     itemName,
		MovementType: m.MovementType,
		Quantity:     m.Quantity,
		Unit:         m.Unit,
		UnitCost:     m.UnitCost,
		TotalCost:    m.TotalCost,
		ReferenceType: string(m.ReferenceType),
		ReferenceID:  m.ReferenceID,
		BatchNumber:  m.BatchNumber,
		MovementDate: m.MovementDate.Format("2006-01-02"),
		Notes:        m.Notes,
		CreatedBy:    m.CreatedBy,
		CreatedAt:    m.CreatedAt.Format("2006-01-02 15:04:05"),
	}
	if m.ExpiryDate != nil {
		resp.ExpiryDate = m.ExpiryDate.Format("2006-01-02")
	}
	return resp
}
