package notify

import (
	"fmt"

	"uretim-backend/internal/config"
	"uretim-backend/internal/database"
	"uretim-backend/internal/models"
)

// Bildirimler fire-and-forget'tır: core transaction COMMIT OLDUKTAN SONRA
// ayrı bir goroutine'de yazılır. Bildirim hatası core işlemini asla geri
// almaz, sadece loglanır.

func Emit(ntype models.NotificationType, entityType string, entityID uint, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	go func() {
		n := models.Notification{
			Type:       ntype,
			Message:    msg,
			EntityType: entityType,
			EntityID:   entityID,
		}
		if err := database.DB.Create(&n).Error; err != nil {
			config.LogError("service.go", "Emit", "CreateNotification", msg, err)
		}
	}()
}

// CheckLowStock: kalemin bakiyesi kritik eşiğin altına düştüyse bildirim üretir.
// Hareket yazan endpoint'ler commit sonrası çağırır.
func CheckLowStock(itemType models.ItemType, itemID uint) {
	go func() {
		var bal models.InventoryBalance
		if err := database.DB.Where("item_type = ? AND item_id = ?", itemType, itemID).
			First(&bal).Error; err != nil {
			return
		}

		switch itemType {
		case models.ItemTypeRawMaterial:
			var rm models.RawMaterial
			if err := database.DB.First(&rm, itemID).Error; err != nil {
				return
			}
			if !rm.MinStockLevel.IsZero() && bal.Quantity.LessThan(rm.MinStockLevel) {
				writeLowStock("raw_material", rm.ID, rm.Name, bal.Quantity.String(), rm.Unit, rm.MinStockLevel.String())
			}
		case models.ItemTypeProduct:
			var p models.Product
			if err := database.DB.First(&p, itemID).Error; err != nil {
				return
			}
			if !p.MinStockLevel.IsZero() && bal.Quantity.LessThan(p.MinStockLevel) {
				writeLowStock("product", p.ID, p.Name, bal.Quantity.String(), p.Unit, p.MinStockLevel.String())
			}
		}
	}()
}

func writeLowStock(entityType string, id uint, name, qty, unit, min string) {
	n := models.Notification{
		Type:       models.NotificationLowStock,
		Message:    fmt.Sprintf("Kritik stok: %s %s %s kaldı (eşik: %s)", name, qty, unit, min),
		EntityType: entityType,
		EntityID:   id,
	}
	if err := database.DB.Create(&n).Error; err != nil {
		config.LogError("service.go", "writeLowStock", "CreateNotification", name, err)
	}
}
