package testutil

import (
	"testing"

	"uretim-backend/internal/database"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SetupTestDB: her test için izole in-memory SQLite açar ve production
// şemasıyla migrate eder. Tek connection'a sabitlenir, yoksa her yeni
// connection boş bir :memory: veritabanı görür.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("test veritabanı açılamadı: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql.DB alınamadı: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := database.Migrate(db); err != nil {
		t.Fatalf("test migration hatası: %v", err)
	}

	// Handler'lar global DB kullanır; servis testleri db'yi parametre alır
	// ama notify gibi yan etkiler global üzerinden akar.
	prev := database.DB
	database.DB = db
	t.Cleanup(func() { database.DB = prev })

	return db
}
