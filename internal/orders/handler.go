package orders

import (
	"fmt"
	"strings"
	"time"

	"uretim-backend/internal/database"
	"uretim-backend/internal/models"
	"uretim-backend/internal/validate"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

// Siparişler core için SADECE talep kaynağıdır: planlayıcı okur, değiştirmez.
// Buradaki endpoint'ler ince veri girişi katmanıdır.

type OrderItemRequest struct {
	ProductID uint            `json:"product_id" validate:"required"`
	Quantity  decimal.Decimal `json:"quantity"`
}

type CreateOrderRequest struct {
	CustomerName          string             `json:"customer_name" validate:"required"`
	RequestedDeliveryDate string             `json:"requested_delivery_date" validate:"required"` // "2026-01-20"
	Status                models.OrderStatus `json:"status"`
	Notes                 string             `json:"notes"`
	Items                 []OrderItemRequest `json:"items" validate:"required,min=1,dive"`
}

type OrderItemResponse struct {
	ID          uint            `json:"id"`
	ProductID   uint            `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    decimal.Decimal `json:"quantity"`
	Unit        string          `json:"unit"`
}

type OrderResponse struct {
	ID                    uint                `json:"id"`
	OrderNumber           string              `json:"order_number"`
	CustomerName          string              `json:"customer_name"`
	Status                models.OrderStatus  `json:"status"`
	RequestedDeliveryDate string              `json:"requested_delivery_date"`
	Notes                 string              `json:"notes,omitempty"`
	CreatedAt             string              `json:"created_at"`
	Items                 []OrderItemResponse `json:"items"`
}

func toOrderResponse(o models.Order) OrderResponse {
	resp := OrderResponse{
		ID:                    o.ID,
		OrderNumber:           o.OrderNumber,
		CustomerName:          o.CustomerName,
		Status:                o.Status,
		RequestedDeliveryDate: o.RequestedDeliveryDate.Format("2006-01-02"),
		Notes:                 o.Notes,
		CreatedAt:             o.CreatedAt.Format("2006-01-02 15:04:05"),
		Items:                 make([]OrderItemResponse, 0, len(o.Items)),
	}
	for _, item := range o.Items {
		resp.Items = append(resp.Items, OrderItemResponse{
			ID:          item.ID,
			ProductID:   item.ProductID,
			ProductName: item.Product.Name,
			Quantity:    item.Quantity,
			Unit:        item.Unit,
		})
	}
	return resp
}

// POST /api/orders
func CreateOrderHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateOrderRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}
		if err := validate.Struct(body); err != nil {
			return err
		}

		body.CustomerName = strings.TrimSpace(body.CustomerName)

		deliveryDate, err := time.Parse("2006-01-02", body.RequestedDeliveryDate)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Tarih formatı 'YYYY-MM-DD' olmalı")
		}

		status := body.Status
		if status == "" {
			status = models.OrderStatusConfirmed
		}
		switch status {
		case models.OrderStatusDraft, models.OrderStatusConfirmed:
		default:
			return fiber.NewError(fiber.StatusBadRequest, "Yeni sipariş 'draft' veya 'confirmed' olabilir")
		}

		order := models.Order{
			CustomerName:          body.CustomerName,
			Status:                status,
			RequestedDeliveryDate: deliveryDate,
			Notes:                 body.Notes,
		}

		for _, item := range body.Items {
			if !item.Quantity.IsPositive() {
				return fiber.NewError(fiber.StatusBadRequest, "Sipariş satırı miktarı 0'dan büyük olmalı")
			}
			var product models.Product
			if err := database.DB.First(&product, item.ProductID).Error; err != nil {
				return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("Ürün bulunamadı (ID: %d)", item.ProductID))
			}
			order.Items = append(order.Items, models.OrderItem{
				ProductID: item.ProductID,
				Quantity:  item.Quantity,
				Unit:      product.Unit,
			})
		}

		// Sipariş numarası: SIP-YYYYMMDD-NNN
		var todayCount int64
		dayStart := time.Date(time.Now().Year(), time.Now().Month(), time.Now().Day(), 0, 0, 0, 0, time.Now().Location())
		database.DB.Model(&models.Order{}).Where("created_at >= ?", dayStart).Count(&todayCount)
		order.OrderNumber = fmt.Sprintf("SIP-%s-%03d", time.Now().Format("20060102"), todayCount+1)

		if err := database.DB.Create(&order).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Sipariş oluşturulamadı")
		}

		database.DB.Preload("Items.Product").First(&order, order.ID)

		return c.Status(fiber.StatusCreated).JSON(toOrderResponse(order))
	}
}

// GET /api/orders?date=&status=
func ListOrdersHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Model(&models.Order{}).Preload("Items.Product")

		if dateStr := c.Query("date"); dateStr != "" {
			d, err := time.Parse("2006-01-02", dateStr)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Tarih formatı 'YYYY-MM-DD' olmalı")
			}
			dbq = dbq.Where("requested_delivery_date >= ? AND requested_delivery_date < ?", d, d.AddDate(0, 0, 1))
		}
		if status := c.Query("status"); status != "" {
			dbq = dbq.Where("status = ?", status)
		}

		var orderList []models.Order
		if err := dbq.Order("requested_delivery_date DESC, id DESC").Limit(500).Find(&orderList).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Siparişler listelenemedi")
		}

		resp := make([]OrderResponse, 0, len(orderList))
		for _, o := range orderList {
			resp = append(resp, toOrderResponse(o))
		}
		return c.JSON(resp)
	}
}

// canTransition: sipariş durumu tek yönlü ilerler.
// draft -> confirmed -> delivered; draft ve confirmed iptal edilebilir.
// delivered ve cancelled terminaldir, geri dönüş yoktur.
func canTransition(from, to models.OrderStatus) bool {
	switch from {
	case models.OrderStatusDraft:
		return to == models.OrderStatusConfirmed || to == models.OrderStatusCancelled
	case models.OrderStatusConfirmed:
		return to == models.OrderStatusDelivered || to == models.OrderStatusCancelled
	default:
		return false
	}
}

// PUT /api/orders/:id/status
func UpdateOrderStatusHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz sipariş ID")
		}

		var body struct {
			Status models.OrderStatus `json:"status"`
		}
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		switch body.Status {
		case models.OrderStatusDraft, models.OrderStatusConfirmed, models.OrderStatusDelivered, models.OrderStatusCancelled:
		default:
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz sipariş durumu")
		}

		var order models.Order
		if err := database.DB.First(&order, id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Sipariş bulunamadı")
		}

		if !canTransition(order.Status, body.Status) {
			return fiber.NewError(fiber.StatusConflict,
				fmt.Sprintf("Sipariş '%s' durumundan '%s' durumuna geçemez", order.Status, body.Status))
		}

		order.Status = body.Status
		if err := database.DB.Save(&order).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Sipariş güncellenemedi")
		}

		database.DB.Preload("Items.Product").First(&order, order.ID)
		return c.JSON(toOrderResponse(order))
	}
}
