package database

import (
	"uretim-backend/internal/config"
	"uretim-backend/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func Init(cfg *config.Config) {
	var err error

	DB, err = gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{})
	if err != nil {
		config.Logger.Fatalf("Veritabanına bağlanılamadı: %v", err)
	}

	if err := Migrate(DB); err != nil {
		config.Logger.Fatalf("AutoMigrate hatası: %v", err)
	}

	config.Logger.Info("Veritabanı bağlantısı başarılı. Migration tamamlandı.")
}

// Migrate: model şemasını kurar. Testler in-memory SQLite ile aynı
// migration'ı kullanır.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.Product{},
		&models.RawMaterial{},
		&models.Bom{},
		&models.BomItem{},
		&models.Order{},
		&models.OrderItem{},
		&models.WorkOrder{},
		&models.WorkOrderItem{},
		&models.InventoryMovement{},
		&models.InventoryBalance{},
		&models.StockCount{},
		&models.StockCountItem{},
		&models.Notification{},
		&models.AuditLog{},
	)
	if err != nil {
		return err
	}

	// Kısmi unique index'ler: transaction içi kontrollerin yanında DB
	// seviyesinde ikinci emniyet. Hem PostgreSQL hem SQLite destekler.
	//   - İptal edilmemiş iş emri satırları içinde (work_order, product)
	//     tekrar edemez (commit_plan yarışı).
	//   - Ürün başına en fazla bir aktif reçete olabilir (set_active yarışı).
	//   - Atanmış parti numarası tekrar edemez (üretim raporu yarışı).
	partialIndexes := []string{
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_work_order_items_plan_unique
			ON work_order_items (work_order_id, product_id)
			WHERE status <> 'cancelled'`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_boms_single_active
			ON boms (product_id)
			WHERE is_active`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_work_order_items_batch_unique
			ON work_order_items (batch_number)
			WHERE batch_number <> ''`,
	}
	for _, stmt := range partialIndexes {
		if err := db.Exec(stmt).Error; err != nil {
			return err
		}
	}

	return nil
}
