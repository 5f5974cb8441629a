package planning

import (
	"fmt"
	"time"

	"uretim-backend/internal/audit"
	"uretim-backend/internal/auth"
	"uretim-backend/internal/database"
	"uretim-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type WorkOrderItemResponse struct {
	ID               uint                       `json:"id"`
	ProductID        uint                       `json:"product_id"`
	ProductName      string                     `json:"product_name"`
	BomID            uint                       `json:"bom_id"`
	BomVersion       int                        `json:"bom_version"`
	PlannedQuantity  decimal.Decimal            `json:"planned_quantity"`
	ProducedQuantity decimal.Decimal            `json:"produced_quantity"`
	WasteQuantity    decimal.Decimal            `json:"waste_quantity"`
	WasteReason      string                     `json:"waste_reason,omitempty"`
	BatchNumber      string                     `json:"batch_number,omitempty"`
	ExpiryDate       string                     `json:"expiry_date,omitempty"`
	Status           models.WorkOrderItemStatus `json:"status"`
}

type WorkOrderResponse struct {
	ID             uint                    `json:"id"`
	OrderNumber    string                  `json:"order_number"`
	ProductionDate string                  `json:"production_date"`
	ProductionLine string                  `json:"production_line"`
	Status         models.WorkOrderStatus  `json:"status"`
	CreatedAt      string                  `json:"created_at"`
	Items          []WorkOrderItemResponse `json:"items"`
}

func toWorkOrderResponse(wo models.WorkOrder) WorkOrderResponse {
	resp := WorkOrderResponse{
		ID:             wo.ID,
		OrderNumber:    wo.OrderNumber,
		ProductionDate: wo.ProductionDate.Format("2006-01-02"),
		ProductionLine: wo.ProductionLine,
		Status:         wo.Status,
		CreatedAt:      wo.CreatedAt.Format("2006-01-02 15:04:05"),
		Items:          make([]WorkOrderItemResponse, 0, len(wo.Items)),
	}
	for _, item := range wo.Items {
		ir := WorkOrderItemResponse{
			ID:               item.ID,
			ProductID:        item.ProductID,
			ProductName:      item.Product.Name,
			BomID:            item.BomID,
			BomVersion:       item.Bom.Version,
			PlannedQuantity:  item.PlannedQuantity,
			ProducedQuantity: item.ProducedQuantity,
			WasteQuantity:    item.WasteQuantity,
			WasteReason:      item.WasteReason,
			BatchNumber:      item.BatchNumber,
			Status:           item.Status,
		}
		if item.ExpiryDate != nil {
			ir.ExpiryDate = item.ExpiryDate.Format("2006-01-02")
		}
		resp.Items = append(resp.Items, ir)
	}
	return resp
}

// GET /api/work-orders?date=&line=&status=
func ListWorkOrdersHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Model(&models.WorkOrder{}).
			Preload("Items.Product").Preload("Items.Bom")

		if dateStr := c.Query("date"); dateStr != "" {
			d, err := time.Parse("2006-01-02", dateStr)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Tarih formatı 'YYYY-MM-DD' olmalı")
			}
			dbq = dbq.Where("production_date >= ? AND production_date < ?", d, d.AddDate(0, 0, 1))
		}
		if line := c.Query("line"); line != "" {
			dbq = dbq.Where("production_line = ?", line)
		}
		if status := c.Query("status"); status != "" {
			dbq = dbq.Where("status = ?", status)
		}

		var workOrders []models.WorkOrder
		if err := dbq.Order("production_date DESC, id DESC").Limit(500).Find(&workOrders).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "İş emirleri listelenemedi")
		}

		resp := make([]WorkOrderResponse, 0, len(workOrders))
		for _, wo := range workOrders {
			resp = append(resp, toWorkOrderResponse(wo))
		}
		return c.JSON(resp)
	}
}

// GET /api/work-orders/:id
func GetWorkOrderHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz iş emri ID")
		}

		var wo models.WorkOrder
		if err := database.DB.Preload("Items.Product").Preload("Items.Bom").
			First(&wo, id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "İş emri bulunamadı")
		}

		return c.JSON(toWorkOrderResponse(wo))
	}
}

// POST /api/work-orders/:id/cancel
// Sadece planned durumdaki, hiç üretim raporu almamış emir iptal edilebilir
func CancelWorkOrderHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz iş emri ID")
		}

		userID, userName := auth.Actor(c)

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			var wo models.WorkOrder
			if err := tx.Preload("Items").First(&wo, id).Error; err != nil {
				return fiber.NewError(fiber.StatusNotFound, "İş emri bulunamadı")
			}

			if wo.Status != models.WorkOrderStatusPlanned {
				return fiber.NewError(fiber.StatusConflict,
					fmt.Sprintf("Sadece 'planned' durumdaki iş emri iptal edilebilir (mevcut: %s)", wo.Status))
			}
			for _, item := range wo.Items {
				if item.Status != models.WorkOrderItemStatusPending {
					return fiber.NewError(fiber.StatusConflict,
						"Üretim raporu almış satırı olan iş emri iptal edilemez")
				}
			}

			if err := tx.Model(&models.WorkOrderItem{}).
				Where("work_order_id = ?", wo.ID).
				Update("status", models.WorkOrderItemStatusCancelled).Error; err != nil {
				return err
			}
			if err := tx.Model(&models.WorkOrder{}).
				Where("id = ?", wo.ID).
				Update("status", models.WorkOrderStatusCancelled).Error; err != nil {
				return err
			}

			return audit.WriteLogTx(tx, audit.LogOptions{
				UserID:      userID,
				UserName:    userName,
				EntityType:  "work_order",
				EntityID:    wo.ID,
				Action:      models.AuditActionCancel,
				Description: fmt.Sprintf("İş emri iptal edildi: %s", wo.OrderNumber),
			})
		})
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				return fe
			}
			return fiber.NewError(fiber.StatusInternalServerError, "İş emri iptal edilemedi")
		}

		return c.JSON(fiber.Map{"ok": true})
	}
}
