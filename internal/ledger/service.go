package ledger

import (
	"time"

	"uretim-backend/internal/apperr"
	"uretim-backend/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Stok değişiminin TEK yolu RecordMovement'tır. Hareket satırı append-only
// yazılır ve türev bakiye aynı transaction içinde güncellenir; hareketsiz
// bakiye düzeltme yolu yoktur.

// SignedQuantity: hareket tipine göre işaretli miktar üretir.
// Giriş tipleri (+), çıkış tipleri (-). magnitude her zaman pozitif verilmeli.
func SignedQuantity(mt models.MovementType, magnitude decimal.Decimal) decimal.Decimal {
	if mt.IsIncoming() {
		return magnitude
	}
	return magnitude.Neg()
}

// RecordMovement: hareketi ekler ve bakiyeyi aynı tx içinde günceller.
func RecordMovement(tx *gorm.DB, m *models.InventoryMovement) error {
	if m.Quantity.IsZero() {
		return apperr.InvalidArgument("Hareket miktarı sıfır olamaz (item: %s/%d)", m.ItemType, m.ItemID)
	}

	// İşaret kuralı: giriş tipleri pozitif, çıkış tipleri negatif miktar taşır
	if m.MovementType.IsIncoming() && m.Quantity.IsNegative() {
		return apperr.InvalidArgument("%s hareketi negatif miktar taşıyamaz", m.MovementType)
	}
	if !m.MovementType.IsIncoming() && m.Quantity.IsPositive() {
		return apperr.InvalidArgument("%s hareketi pozitif miktar taşıyamaz", m.MovementType)
	}

	if m.MovementDate.IsZero() {
		m.MovementDate = time.Now()
	}
	if m.TotalCost.IsZero() && !m.UnitCost.IsZero() {
		m.TotalCost = m.UnitCost.Mul(m.Quantity.Abs())
	}

	if err := tx.Create(m).Error; err != nil {
		return err
	}

	return applyToBalance(tx, m.ItemType, m.ItemID, m.Quantity, m.Unit)
}

// applyToBalance: bakiye satırını okur, Go tarafında decimal ile toplar, yazar.
// Tüm çağrılar transaction içinden geldiği için read-modify-write güvenlidir.
func applyToBalance(tx *gorm.DB, itemType models.ItemType, itemID uint, delta decimal.Decimal, unit string) error {
	var bal models.InventoryBalance
	err := tx.Where("item_type = ? AND item_id = ?", itemType, itemID).First(&bal).Error
	if err == gorm.ErrRecordNotFound {
		bal = models.InventoryBalance{
			ItemType: itemType,
			ItemID:   itemID,
			Quantity: delta,
			Unit:     unit,
		}
		return tx.Create(&bal).Error
	}
	if err != nil {
		return err
	}

	bal.Quantity = bal.Quantity.Add(delta)
	return tx.Model(&models.InventoryBalance{}).Where("id = ?", bal.ID).
		Update("quantity", bal.Quantity).Error
}

// GetBalance: güncel bakiye. Kayıt yoksa 0 döner (hiç hareket görmemiş kalem).
func GetBalance(db *gorm.DB, itemType models.ItemType, itemID uint) (decimal.Decimal, error) {
	var bal models.InventoryBalance
	err := db.Where("item_type = ? AND item_id = ?", itemType, itemID).First(&bal).Error
	if err == gorm.ErrRecordNotFound {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, err
	}
	return bal.Quantity, nil
}

// RebuildBalance: bakiyeyi hareket logundan yeniden hesaplar.
// Bakiye her an logdan yeniden üretilebilir olmalıdır; tutarsızlık
// şüphesinde veya bakım komutlarında kullanılır.
func RebuildBalance(tx *gorm.DB, itemType models.ItemType, itemID uint) (decimal.Decimal, error) {
	var movements []models.InventoryMovement
	if err := tx.Where("item_type = ? AND item_id = ?", itemType, itemID).
		Order("id ASC").Find(&movements).Error; err != nil {
		return decimal.Zero, err
	}

	total := decimal.Zero
	unit := ""
	for _, m := range movements {
		total = total.Add(m.Quantity)
		unit = m.Unit
	}

	var bal models.InventoryBalance
	err := tx.Where("item_type = ? AND item_id = ?", itemType, itemID).First(&bal).Error
	if err == gorm.ErrRecordNotFound {
		if len(movements) == 0 {
			return decimal.Zero, nil
		}
		bal = models.InventoryBalance{ItemType: itemType, ItemID: itemID, Quantity: total, Unit: unit}
		return total, tx.Create(&bal).Error
	}
	if err != nil {
		return decimal.Zero, err
	}

	return total, tx.Model(&models.InventoryBalance{}).Where("id = ?", bal.ID).
		Update("quantity", total).Error
}
