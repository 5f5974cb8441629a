package stockcount

import (
	"fmt"
	"time"

	"uretim-backend/internal/apperr"
	"uretim-backend/internal/ledger"
	"uretim-backend/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Sayım oturumu tek yönlü bir durum makinesidir:
//   in_progress -> completed -> approved (terminal)
// Geri dönüş veya atlama yoktur; yanlış durumdan çağrı Conflict döner.

var (
	oneHundred      = decimal.NewFromInt(100)
	mediumThreshold = decimal.NewFromInt(2)
	highThreshold   = decimal.NewFromInt(5)
)

// ComputeVariance: sayım farkı alanlarını türetir.
//
//	variance  = sayılan - sistem
//	variance% = sistem > 0 ise |variance| / sistem * 100, değilse 0
//
// Seviye eşikleri KESİN büyüktür: %5'ten büyük high, %2'den büyük medium,
// gerisi low. Tam %2 low, tam %5 medium sayılır.
func ComputeVariance(system, counted decimal.Decimal) (variance, pct decimal.Decimal, level models.VarianceLevel) {
	variance = counted.Sub(system)
	if system.IsPositive() {
		pct = variance.Abs().Div(system).Mul(oneHundred)
	} else {
		pct = decimal.Zero
	}
	switch {
	case pct.GreaterThan(highThreshold):
		level = models.VarianceLevelHigh
	case pct.GreaterThan(mediumThreshold):
		level = models.VarianceLevelMedium
	default:
		level = models.VarianceLevelLow
	}
	return variance, pct, level
}

type ItemRef struct {
	ItemType models.ItemType `json:"item_type" validate:"required,oneof=raw_material product"`
	ItemID   uint            `json:"item_id" validate:"required"`
}

// StartCount: sayım oturumu açar ve o ANKİ bakiyeleri system_quantity olarak
// snapshot'lar. FULL sayım tüm aktif kalemleri kapsar; PARTIAL ve SPOT_CHECK
// açıkça verilen kalem listesini ister.
func StartCount(db *gorm.DB, userID uint, countType models.StockCountType, refs []ItemRef, notes string) (*models.StockCount, error) {
	switch countType {
	case models.StockCountTypeFull:
	case models.StockCountTypePartial, models.StockCountTypeSpotCheck:
		if len(refs) == 0 {
			return nil, apperr.InvalidArgument("%s sayımı için kalem listesi zorunlu", countType)
		}
	default:
		return nil, apperr.InvalidArgument("Sayım tipi FULL, PARTIAL veya SPOT_CHECK olmalı")
	}

	var count models.StockCount
	err := db.Transaction(func(tx *gorm.DB) error {
		if countType == models.StockCountTypeFull {
			refs = nil
			var materials []models.RawMaterial
			if err := tx.Where("is_active = ?", true).Order("id").Find(&materials).Error; err != nil {
				return err
			}
			for _, rm := range materials {
				refs = append(refs, ItemRef{ItemType: models.ItemTypeRawMaterial, ItemID: rm.ID})
			}
			var products []models.Product
			if err := tx.Where("is_active = ?", true).Order("id").Find(&products).Error; err != nil {
				return err
			}
			for _, p := range products {
				refs = append(refs, ItemRef{ItemType: models.ItemTypeProduct, ItemID: p.ID})
			}
		}

		count = models.StockCount{
			CountNumber: "",
			CountType:   countType,
			Status:      models.StockCountStatusInProgress,
			StartedBy:   userID,
			StartedAt:   time.Now(),
			Notes:       notes,
		}

		for _, ref := range refs {
			name, unit, err := itemNameAndUnit(tx, ref.ItemType, ref.ItemID)
			if err != nil {
				return err
			}
			system, err := ledger.GetBalance(tx, ref.ItemType, ref.ItemID)
			if err != nil {
				return err
			}
			count.Items = append(count.Items, models.StockCountItem{
				ItemType:       ref.ItemType,
				ItemID:         ref.ItemID,
				ItemName:       name,
				Unit:           unit,
				SystemQuantity: system,
			})
		}

		var todayCount int64
		dayStart := time.Date(time.Now().Year(), time.Now().Month(), time.Now().Day(), 0, 0, 0, 0, time.Now().Location())
		if err := tx.Model(&models.StockCount{}).Where("created_at >= ?", dayStart).Count(&todayCount).Error; err != nil {
			return err
		}
		count.CountNumber = fmt.Sprintf("SAYIM-%s-%03d", time.Now().Format("20060102"), todayCount+1)

		return tx.Create(&count).Error
	})
	if err != nil {
		return nil, err
	}

	return &count, nil
}

type CountEntry struct {
	StockCountItemID uint            `json:"stock_count_item_id" validate:"required"`
	CountedQuantity  decimal.Decimal `json:"counted_quantity"`
	Notes            string          `json:"notes"`
}

// SaveCount: sayılan miktarları kaydeder ve fark alanlarını yeniden türetir.
// Sadece in_progress oturumda geçerlidir; completed/approved oturumun
// kalemleri donmuştur.
func SaveCount(db *gorm.DB, countID uint, entries []CountEntry) (*models.StockCount, error) {
	var count models.StockCount
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&count, countID).Error; err != nil {
			return apperr.NotFound("Sayım oturumu bulunamadı (ID: %d)", countID)
		}
		if count.Status != models.StockCountStatusInProgress {
			return apperr.Conflict("Sayım kalemleri sadece in_progress durumda güncellenebilir (mevcut: %s)", count.Status)
		}

		for _, entry := range entries {
			if entry.CountedQuantity.IsNegative() {
				return apperr.InvalidArgument("Sayılan miktar negatif olamaz (kalem ID: %d)", entry.StockCountItemID)
			}

			var item models.StockCountItem
			if err := tx.Where("id = ? AND stock_count_id = ?", entry.StockCountItemID, countID).
				First(&item).Error; err != nil {
				return apperr.NotFound("Sayım kalemi bulunamadı (ID: %d)", entry.StockCountItemID)
			}

			variance, pct, level := ComputeVariance(item.SystemQuantity, entry.CountedQuantity)
			counted := entry.CountedQuantity
			if err := tx.Model(&models.StockCountItem{}).Where("id = ?", item.ID).
				Updates(map[string]interface{}{
					"counted_quantity": counted,
					"variance":         variance,
					"variance_percent": pct,
					"variance_level":   level,
					"notes":            entry.Notes,
				}).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := db.Preload("Items").First(&count, countID).Error; err != nil {
		return nil, err
	}
	return &count, nil
}

// SubmitCount: in_progress -> completed; kalemler düzenlemeye kapanır
func SubmitCount(db *gorm.DB, countID uint) (*models.StockCount, error) {
	var count models.StockCount
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&count, countID).Error; err != nil {
			return apperr.NotFound("Sayım oturumu bulunamadı (ID: %d)", countID)
		}

		// Check-and-set: sadece in_progress -> completed
		now := time.Now()
		res := tx.Model(&models.StockCount{}).
			Where("id = ? AND status = ?", countID, models.StockCountStatusInProgress).
			Updates(map[string]interface{}{
				"status":       models.StockCountStatusCompleted,
				"submitted_at": now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.Conflict("Sayım sadece in_progress durumdan tamamlanabilir (mevcut: %s)", count.Status)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := db.Preload("Items").First(&count, countID).Error; err != nil {
		return nil, err
	}
	return &count, nil
}

// ApproveCount: completed -> approved; farklar düzeltme hareketine çevrilir.
//
// Düzeltme, oturum başındaki snapshot'a göre DEĞİL, onay transaction'ı
// içinde yeniden okunan GÜNCEL bakiyeye göre hesaplanır:
//
//	düzeltme = sayılan - güncel bakiye
//
// Böylece snapshot ile onay arasında gelen hareketler (alım, üretim)
// düzeltmeyi saptıramaz; onaydan sonra kalemin bakiyesi her durumda
// sayılan miktara eşittir.
func ApproveCount(db *gorm.DB, userID uint, countID uint) (*models.StockCount, error) {
	var count models.StockCount
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Items").First(&count, countID).Error; err != nil {
			return apperr.NotFound("Sayım oturumu bulunamadı (ID: %d)", countID)
		}

		// Check-and-set: sadece completed -> approved
		now := time.Now()
		res := tx.Model(&models.StockCount{}).
			Where("id = ? AND status = ?", countID, models.StockCountStatusCompleted).
			Updates(map[string]interface{}{
				"status":      models.StockCountStatusApproved,
				"approved_by": userID,
				"approved_at": now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.Conflict("Sayım sadece completed durumdan onaylanabilir (mevcut: %s)", count.Status)
		}

		for _, item := range count.Items {
			if item.CountedQuantity == nil {
				// Sayılmamış kalem düzeltilmez
				continue
			}

			current, err := ledger.GetBalance(tx, item.ItemType, item.ItemID)
			if err != nil {
				return err
			}

			adjustment := item.CountedQuantity.Sub(current)
			if adjustment.IsZero() {
				continue
			}

			movementType := models.MovementTypeAdjustmentPlus
			if adjustment.IsNegative() {
				movementType = models.MovementTypeAdjustmentMinus
			}

			movement := models.InventoryMovement{
				ItemType:      item.ItemType,
				ItemID:        item.ItemID,
				MovementType:  movementType,
				Quantity:      adjustment,
				Unit:          item.Unit,
				ReferenceType: models.MovementRefStockCount,
				ReferenceID:   count.ID,
				MovementDate:  now,
				Notes:         fmt.Sprintf("Sayım düzeltmesi: %s", count.CountNumber),
				CreatedBy:     userID,
			}
			if err := ledger.RecordMovement(tx, &movement); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := db.Preload("Items").First(&count, countID).Error; err != nil {
		return nil, err
	}
	return &count, nil
}

func itemNameAndUnit(tx *gorm.DB, itemType models.ItemType, itemID uint) (string, string, error) {
	switch itemType {
	case models.ItemTypeRawMaterial:
		var rm models.RawMaterial
		if err := tx.First(&rm, itemID).Error; err != nil {
			return "", "", apperr.NotFound("Hammadde bulunamadı (ID: %d)", itemID)
		}
		return rm.Name, rm.Unit, nil
	case models.ItemTypeProduct:
		var p models.Product
		if err := tx.First(&p, itemID).Error; err != nil {
			return "", "", apperr.NotFound("Ürün bulunamadı (ID: %d)", itemID)
		}
		return p.Name, p.Unit, nil
	default:
		return "", "", apperr.InvalidArgument("item_type 'raw_material' veya 'product' olmalı")
	}
}
