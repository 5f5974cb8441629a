package production

import (
	"fmt"
	"time"

	"uretim-backend/internal/apperr"
	"uretim-backend/internal/bom"
	"uretim-backend/internal/ledger"
	"uretim-backend/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ReportInput struct {
	WorkOrderItemID  uint            `json:"work_order_item_id" validate:"required"`
	QuantityProduced decimal.Decimal `json:"quantity_produced"`
	QuantityWaste    decimal.Decimal `json:"quantity_waste"`
	WasteReason      string          `json:"waste_reason"`
	Notes            string          `json:"notes"`
}

type ConsumptionRow struct {
	RawMaterialID uint            `json:"raw_material_id"`
	Name          string          `json:"name"`
	Quantity      decimal.Decimal `json:"quantity"` // tüketim (pozitif gösterim)
	Unit          string          `json:"unit"`
}

type ReportResult struct {
	WorkOrderItemID  uint                   `json:"work_order_item_id"`
	BatchNumber      string                 `json:"batch_number"`
	ExpiryDate       string                 `json:"expiry_date,omitempty"`
	ProducedQuantity decimal.Decimal        `json:"produced_quantity"`
	WasteQuantity    decimal.Decimal        `json:"waste_quantity"`
	CostPerUnit      decimal.Decimal        `json:"cost_per_unit"`
	Consumptions     []ConsumptionRow       `json:"consumptions"`
	WorkOrderStatus  models.WorkOrderStatus `json:"work_order_status"`
	ProductName      string                 `json:"product_name"`
}

// ReportProduction: saha raporunu tek atomik işlemde stok defterine işler.
// Raporlama TEK SEFERLİKTİR: satır pending/in_progress iken gelen ilk rapor
// satırı completed yapar; eşzamanlı ikinci rapor Conflict alır ve hiçbir
// hareket yazmaz. Tüketim, PLANLANAN miktara değil GERÇEK üretime göre,
// satıra snapshot'lanmış reçete versiyonuyla hesaplanır.
func ReportProduction(db *gorm.DB, userID uint, input ReportInput) (*ReportResult, error) {
	if !input.QuantityProduced.IsPositive() {
		return nil, apperr.InvalidArgument("Üretilen miktar 0'dan büyük olmalı")
	}
	if input.QuantityWaste.IsNegative() {
		return nil, apperr.InvalidArgument("Fire miktarı negatif olamaz")
	}

	var result *ReportResult
	err := db.Transaction(func(tx *gorm.DB) error {
		var item models.WorkOrderItem
		if err := tx.Preload("Product").First(&item, input.WorkOrderItemID).Error; err != nil {
			return apperr.NotFound("İş emri satırı bulunamadı (ID: %d)", input.WorkOrderItemID)
		}

		var wo models.WorkOrder
		if err := tx.First(&wo, item.WorkOrderID).Error; err != nil {
			return apperr.NotFound("İş emri bulunamadı (ID: %d)", item.WorkOrderID)
		}

		productionDate := wo.ProductionDate
		batchNumber, err := nextBatchNumber(tx, productionDate)
		if err != nil {
			return err
		}

		var expiry *time.Time
		if item.Product.ShelfLifeDays > 0 {
			d := productionDate.AddDate(0, 0, item.Product.ShelfLifeDays)
			expiry = &d
		}

		// Durum koruması check-and-set: sadece pending/in_progress satır
		// completed'a geçebilir. RowsAffected == 0 ise başka bir rapor
		// kazanmıştır -> Conflict, hiçbir hareket yazılmaz.
		res := tx.Model(&models.WorkOrderItem{}).
			Where("id = ? AND status IN ?", item.ID,
				[]models.WorkOrderItemStatus{models.WorkOrderItemStatusPending, models.WorkOrderItemStatusInProgress}).
			Updates(map[string]interface{}{
				"status":            models.WorkOrderItemStatusCompleted,
				"produced_quantity": input.QuantityProduced,
				"waste_quantity":    input.QuantityWaste,
				"waste_reason":      input.WasteReason,
				"batch_number":      batchNumber,
				"expiry_date":       expiry,
				"notes":             input.Notes,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.Conflict("İş emri satırı zaten tamamlanmış veya iptal edilmiş (ID: %d, ürün: %s)",
				item.ID, item.Product.Name)
		}

		// Snapshot'lanmış reçete versiyonunu GERÇEK üretim miktarına patlat
		snapshotBom, err := bom.GetBomByID(tx, item.BomID)
		if err != nil {
			return err
		}
		calc, err := bom.ExplodeBom(tx, &item.Product, snapshotBom, input.QuantityProduced)
		if err != nil {
			return err
		}

		// Mamul girişi
		output := models.InventoryMovement{
			ItemType:      models.ItemTypeProduct,
			ItemID:        item.ProductID,
			MovementType:  models.MovementTypeProductionOutput,
			Quantity:      input.QuantityProduced,
			Unit:          item.Product.Unit,
			UnitCost:      calc.CostPerUnit,
			ReferenceType: models.MovementRefWorkOrder,
			ReferenceID:   wo.ID,
			BatchNumber:   batchNumber,
			ExpiryDate:    expiry,
			MovementDate:  productionDate,
			CreatedBy:     userID,
		}
		if err := ledger.RecordMovement(tx, &output); err != nil {
			return err
		}

		// Hammadde tüketimi: zorunlu satır başına bir negatif hareket.
		// Opsiyonel satırlar otomatik düşülmez, kullanımı sahadan manuel girilir.
		consumptions := make([]ConsumptionRow, 0, len(calc.Items))
		for _, req := range calc.Items {
			if req.IsOptional {
				continue
			}
			inputMovement := models.InventoryMovement{
				ItemType:      models.ItemTypeRawMaterial,
				ItemID:        req.RawMaterialID,
				MovementType:  models.MovementTypeProductionInput,
				Quantity:      req.Required.Neg(),
				Unit:          req.Unit,
				UnitCost:      req.UnitCost,
				ReferenceType: models.MovementRefWorkOrder,
				ReferenceID:   wo.ID,
				BatchNumber:   batchNumber,
				MovementDate:  productionDate,
				CreatedBy:     userID,
			}
			if err := ledger.RecordMovement(tx, &inputMovement); err != nil {
				return err
			}
			consumptions = append(consumptions, ConsumptionRow{
				RawMaterialID: req.RawMaterialID,
				Name:          req.Name,
				Quantity:      req.Required,
				Unit:          req.Unit,
			})
		}

		// Ürünün son birim maliyetini güncelle (katalog alanı)
		if err := tx.Model(&models.Product{}).Where("id = ?", item.ProductID).
			Update("last_cost", calc.CostPerUnit).Error; err != nil {
			return err
		}

		// İş emri roll-up: iptal edilmemiş TÜM satırlar tamamlandıysa completed
		woStatus, err := rollUpWorkOrder(tx, &wo)
		if err != nil {
			return err
		}

		result = &ReportResult{
			WorkOrderItemID:  item.ID,
			BatchNumber:      batchNumber,
			ProducedQuantity: input.QuantityProduced,
			WasteQuantity:    input.QuantityWaste,
			CostPerUnit:      calc.CostPerUnit,
			Consumptions:     consumptions,
			WorkOrderStatus:  woStatus,
			ProductName:      item.Product.Name,
		}
		if expiry != nil {
			result.ExpiryDate = expiry.Format("2006-01-02")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// rollUpWorkOrder: satır durumlarından emir durumunu türetir.
// completed <=> iptal edilmemiş tüm satırlar completed.
func rollUpWorkOrder(tx *gorm.DB, wo *models.WorkOrder) (models.WorkOrderStatus, error) {
	var items []models.WorkOrderItem
	if err := tx.Where("work_order_id = ?", wo.ID).Find(&items).Error; err != nil {
		return wo.Status, err
	}

	allCompleted := true
	anyCompleted := false
	for _, item := range items {
		if item.Status == models.WorkOrderItemStatusCancelled {
			continue
		}
		if item.Status == models.WorkOrderItemStatusCompleted {
			anyCompleted = true
		} else {
			allCompleted = false
		}
	}

	now := time.Now()
	updates := map[string]interface{}{}

	if wo.ActualStartTime == nil && anyCompleted {
		updates["actual_start_time"] = now
	}

	newStatus := wo.Status
	if allCompleted {
		newStatus = models.WorkOrderStatusCompleted
		updates["status"] = newStatus
		updates["actual_end_time"] = now
	} else if anyCompleted && wo.Status == models.WorkOrderStatusPlanned {
		newStatus = models.WorkOrderStatusInProgress
		updates["status"] = newStatus
	}

	if len(updates) > 0 {
		if err := tx.Model(&models.WorkOrder{}).Where("id = ?", wo.ID).Updates(updates).Error; err != nil {
			return wo.Status, err
		}
	}

	return newStatus, nil
}

// nextBatchNumber: LOT-YYYYMMDD-NNN; NNN o günün üretim sırası
func nextBatchNumber(tx *gorm.DB, productionDate time.Time) (string, error) {
	prefix := fmt.Sprintf("LOT-%s-", productionDate.Format("20060102"))

	var count int64
	if err := tx.Model(&models.WorkOrderItem{}).
		Where("batch_number LIKE ?", prefix+"%").
		Count(&count).Error; err != nil {
		return "", err
	}

	return fmt.Sprintf("%s%03d", prefix, count+1), nil
}
