package stockcount

import (
	"testing"

	"uretim-backend/internal/apperr"
	"uretim-backend/internal/ledger"
	"uretim-backend/internal/models"
	"uretim-backend/internal/testutil"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func seedMaterialWithStock(t *testing.T, db *gorm.DB, name, qty string) *models.RawMaterial {
	t.Helper()
	rm := models.RawMaterial{Name: name, Unit: "KG", IsActive: true}
	if err := db.Create(&rm).Error; err != nil {
		t.Fatalf("hammadde oluşturulamadı: %v", err)
	}
	if d(qty).IsPositive() {
		err := db.Transaction(func(tx *gorm.DB) error {
			return ledger.RecordMovement(tx, &models.InventoryMovement{
				ItemType:     models.ItemTypeRawMaterial,
				ItemID:       rm.ID,
				MovementType: models.MovementTypePurchaseReceipt,
				Quantity:     d(qty),
				Unit:         "KG",
			})
		})
		if err != nil {
			t.Fatalf("stok girişi yapılamadı: %v", err)
		}
	}
	return &rm
}

func TestComputeVariance(t *testing.T) {
	tests := []struct {
		name     string
		system   string
		counted  string
		variance string
		pct      string
		level    models.VarianceLevel
	}{
		{"sayim eksik cikti", "100", "92", "-8", "8", models.VarianceLevelHigh},
		{"sayim fazla cikti", "100", "103", "3", "3", models.VarianceLevelMedium},
		{"kucuk fark", "100", "99", "-1", "1", models.VarianceLevelLow},
		{"fark yok", "100", "100", "0", "0", models.VarianceLevelLow},
		// Eşikler kesin büyüktür: tam %2 low, tam %5 medium
		{"tam yuzde iki", "100", "102", "2", "2", models.VarianceLevelLow},
		{"tam yuzde bes", "100", "95", "-5", "5", models.VarianceLevelMedium},
		{"yuzde besin birazi ustu", "1000", "949", "-51", "5.1", models.VarianceLevelHigh},
		// Sistem sıfırken yüzde tanımsız, 0 kabul edilir
		{"sifir sistem bakiyesi", "0", "10", "10", "0", models.VarianceLevelLow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			variance, pct, level := ComputeVariance(d(tt.system), d(tt.counted))
			if !variance.Equal(d(tt.variance)) {
				t.Errorf("fark %s, beklenen %s", variance, tt.variance)
			}
			if !pct.Equal(d(tt.pct)) {
				t.Errorf("fark yüzdesi %s, beklenen %s", pct, tt.pct)
			}
			if level != tt.level {
				t.Errorf("seviye %s, beklenen %s", level, tt.level)
			}
		})
	}
}

func TestStartFullCountSnapshotsBalances(t *testing.T) {
	db := testutil.SetupTestDB(t)
	flour := seedMaterialWithStock(t, db, "Un", "100")
	sugar := seedMaterialWithStock(t, db, "Şeker", "40")

	inactive := models.RawMaterial{Name: "Eski Malzeme", Unit: "KG", IsActive: false}
	if err := db.Create(&inactive).Error; err != nil {
		t.Fatalf("pasif hammadde oluşturulamadı: %v", err)
	}

	product := models.Product{Name: "Ekmek", Unit: "ADET", ProductionLine: "firin-1", IsActive: true}
	if err := db.Create(&product).Error; err != nil {
		t.Fatalf("ürün oluşturulamadı: %v", err)
	}

	count, err := StartCount(db, 1, models.StockCountTypeFull, nil, "")
	if err != nil {
		t.Fatalf("sayım başlatılamadı: %v", err)
	}

	if count.Status != models.StockCountStatusInProgress {
		t.Errorf("sayım durumu %s, beklenen in_progress", count.Status)
	}
	// Aktif 2 hammadde + 1 ürün; pasif kalem kapsam dışı
	if len(count.Items) != 3 {
		t.Fatalf("sayım kalemi sayısı %d, beklenen 3", len(count.Items))
	}

	byItem := make(map[uint]models.StockCountItem)
	for _, item := range count.Items {
		if item.ItemType == models.ItemTypeRawMaterial {
			byItem[item.ItemID] = item
		}
	}
	if !byItem[flour.ID].SystemQuantity.Equal(d("100")) {
		t.Errorf("un snapshot'ı %s, beklenen 100", byItem[flour.ID].SystemQuantity)
	}
	if !byItem[sugar.ID].SystemQuantity.Equal(d("40")) {
		t.Errorf("şeker snapshot'ı %s, beklenen 40", byItem[sugar.ID].SystemQuantity)
	}
	if byItem[flour.ID].CountedQuantity != nil {
		t.Error("yeni açılan sayımda sayılan miktar boş olmalı")
	}
}

func TestStartPartialCountRequiresItems(t *testing.T) {
	db := testutil.SetupTestDB(t)

	_, err := StartCount(db, 1, models.StockCountTypePartial, nil, "")
	if !apperr.IsKind(err, apperr.KindInvalidArgument) {
		t.Errorf("kalemsiz PARTIAL sayım için InvalidArgument bekleniyordu, gelen: %v", err)
	}

	flour := seedMaterialWithStock(t, db, "Un", "100")
	count, err := StartCount(db, 1, models.StockCountTypePartial,
		[]ItemRef{{ItemType: models.ItemTypeRawMaterial, ItemID: flour.ID}}, "")
	if err != nil {
		t.Fatalf("PARTIAL sayım başlatılamadı: %v", err)
	}
	if len(count.Items) != 1 {
		t.Errorf("sayım kalemi sayısı %d, beklenen 1", len(count.Items))
	}
}

func TestCountLifecycle(t *testing.T) {
	db := testutil.SetupTestDB(t)
	flour := seedMaterialWithStock(t, db, "Un", "100")

	count, err := StartCount(db, 1, models.StockCountTypeSpotCheck,
		[]ItemRef{{ItemType: models.ItemTypeRawMaterial, ItemID: flour.ID}}, "")
	if err != nil {
		t.Fatalf("sayım başlatılamadı: %v", err)
	}

	// Sayım: 100 yerine 92 -> fark -8, %8, high
	count, err = SaveCount(db, count.ID, []CountEntry{
		{StockCountItemID: count.Items[0].ID, CountedQuantity: d("92")},
	})
	if err != nil {
		t.Fatalf("sayım kaydedilemedi: %v", err)
	}
	item := count.Items[0]
	if !item.Variance.Equal(d("-8")) || !item.VariancePercent.Equal(d("8")) {
		t.Errorf("fark %s / %%%s, beklenen -8 / %%8", item.Variance, item.VariancePercent)
	}
	if item.VarianceLevel != models.VarianceLevelHigh {
		t.Errorf("fark seviyesi %s, beklenen high", item.VarianceLevel)
	}

	// Onay tamamlanmadan yapılamaz
	if _, err := ApproveCount(db, 2, count.ID); !apperr.IsKind(err, apperr.KindConflict) {
		t.Errorf("in_progress sayımın onayı için Conflict bekleniyordu, gelen: %v", err)
	}

	count, err = SubmitCount(db, count.ID)
	if err != nil {
		t.Fatalf("sayım tamamlanamadı: %v", err)
	}
	if count.Status != models.StockCountStatusCompleted {
		t.Errorf("sayım durumu %s, beklenen completed", count.Status)
	}
	if count.SubmittedAt == nil {
		t.Error("tamamlanma zamanı atanmalıydı")
	}

	// Tamamlanmış sayımın kalemleri donmuştur
	if _, err := SaveCount(db, count.ID, []CountEntry{
		{StockCountItemID: item.ID, CountedQuantity: d("95")},
	}); !apperr.IsKind(err, apperr.KindConflict) {
		t.Errorf("completed sayımın düzenlenmesi için Conflict bekleniyordu, gelen: %v", err)
	}

	count, err = ApproveCount(db, 2, count.ID)
	if err != nil {
		t.Fatalf("sayım onaylanamadı: %v", err)
	}
	if count.Status != models.StockCountStatusApproved {
		t.Errorf("sayım durumu %s, beklenen approved", count.Status)
	}
	if count.ApprovedBy == nil || *count.ApprovedBy != 2 {
		t.Error("onaylayan kullanıcı atanmalıydı")
	}

	// Düzeltme hareketi: ADJUSTMENT_MINUS -8, bakiye 92'ye iner
	var adj models.InventoryMovement
	if err := db.Where("movement_type = ?", models.MovementTypeAdjustmentMinus).First(&adj).Error; err != nil {
		t.Fatalf("düzeltme hareketi yok: %v", err)
	}
	if !adj.Quantity.Equal(d("-8")) {
		t.Errorf("düzeltme miktarı %s, beklenen -8", adj.Quantity)
	}
	if adj.ReferenceType != models.MovementRefStockCount || adj.ReferenceID != count.ID {
		t.Errorf("düzeltme sayıma referanslı değil: %s/%d", adj.ReferenceType, adj.ReferenceID)
	}

	bal, _ := ledger.GetBalance(db, models.ItemTypeRawMaterial, flour.ID)
	if !bal.Equal(d("92")) {
		t.Errorf("onay sonrası bakiye %s, beklenen 92", bal)
	}

	// Terminal durum: ikinci onay Conflict
	if _, err := ApproveCount(db, 2, count.ID); !apperr.IsKind(err, apperr.KindConflict) {
		t.Errorf("approved sayımın tekrar onayı için Conflict bekleniyordu, gelen: %v", err)
	}
}

func TestApproveConvergesToCountedQuantity(t *testing.T) {
	db := testutil.SetupTestDB(t)
	flour := seedMaterialWithStock(t, db, "Un", "100")

	count, err := StartCount(db, 1, models.StockCountTypeSpotCheck,
		[]ItemRef{{ItemType: models.ItemTypeRawMaterial, ItemID: flour.ID}}, "")
	if err != nil {
		t.Fatalf("sayım başlatılamadı: %v", err)
	}
	if _, err := SaveCount(db, count.ID, []CountEntry{
		{StockCountItemID: count.Items[0].ID, CountedQuantity: d("92")},
	}); err != nil {
		t.Fatalf("sayım kaydedilemedi: %v", err)
	}
	if _, err := SubmitCount(db, count.ID); err != nil {
		t.Fatalf("sayım tamamlanamadı: %v", err)
	}

	// Snapshot ile onay arasında 20 KG alım gelsin: düzeltme snapshot'a
	// göre değil, onay anındaki bakiyeye göre hesaplanmalı
	err = db.Transaction(func(tx *gorm.DB) error {
		return ledger.RecordMovement(tx, &models.InventoryMovement{
			ItemType:     models.ItemTypeRawMaterial,
			ItemID:       flour.ID,
			MovementType: models.MovementTypePurchaseReceipt,
			Quantity:     d("20"),
			Unit:         "KG",
		})
	})
	if err != nil {
		t.Fatalf("araya giren alım yazılamadı: %v", err)
	}

	if _, err := ApproveCount(db, 2, count.ID); err != nil {
		t.Fatalf("sayım onaylanamadı: %v", err)
	}

	// Bakiye her durumda sayılan miktara yakınsar: 120 -> 92 (düzeltme -28)
	bal, _ := ledger.GetBalance(db, models.ItemTypeRawMaterial, flour.ID)
	if !bal.Equal(d("92")) {
		t.Errorf("onay sonrası bakiye %s, beklenen 92", bal)
	}

	var adj models.InventoryMovement
	if err := db.Where("movement_type = ?", models.MovementTypeAdjustmentMinus).First(&adj).Error; err != nil {
		t.Fatalf("düzeltme hareketi yok: %v", err)
	}
	if !adj.Quantity.Equal(d("-28")) {
		t.Errorf("düzeltme miktarı %s, beklenen -28", adj.Quantity)
	}
}

func TestApproveSkipsUncountedAndZeroVariance(t *testing.T) {
	db := testutil.SetupTestDB(t)
	flour := seedMaterialWithStock(t, db, "Un", "100")
	sugar := seedMaterialWithStock(t, db, "Şeker", "40")

	count, err := StartCount(db, 1, models.StockCountTypePartial, []ItemRef{
		{ItemType: models.ItemTypeRawMaterial, ItemID: flour.ID},
		{ItemType: models.ItemTypeRawMaterial, ItemID: sugar.ID},
	}, "")
	if err != nil {
		t.Fatalf("sayım başlatılamadı: %v", err)
	}

	// Sadece un sayıldı ve fark yok; şeker hiç sayılmadı
	if _, err := SaveCount(db, count.ID, []CountEntry{
		{StockCountItemID: count.Items[0].ID, CountedQuantity: d("100")},
	}); err != nil {
		t.Fatalf("sayım kaydedilemedi: %v", err)
	}
	if _, err := SubmitCount(db, count.ID); err != nil {
		t.Fatalf("sayım tamamlanamadı: %v", err)
	}
	if _, err := ApproveCount(db, 2, count.ID); err != nil {
		t.Fatalf("sayım onaylanamadı: %v", err)
	}

	// Ne sayılmamış kalem ne de sıfır farklı kalem düzeltme üretir
	var adjCount int64
	db.Model(&models.InventoryMovement{}).
		Where("reference_type = ?", models.MovementRefStockCount).Count(&adjCount)
	if adjCount != 0 {
		t.Errorf("düzeltme hareketi sayısı %d, beklenen 0", adjCount)
	}

	sugarBal, _ := ledger.GetBalance(db, models.ItemTypeRawMaterial, sugar.ID)
	if !sugarBal.Equal(d("40")) {
		t.Errorf("sayılmamış kalemin bakiyesi değişmiş: %s", sugarBal)
	}
}

func TestSaveCountRejectsNegative(t *testing.T) {
	db := testutil.SetupTestDB(t)
	flour := seedMaterialWithStock(t, db, "Un", "100")

	count, err := StartCount(db, 1, models.StockCountTypeSpotCheck,
		[]ItemRef{{ItemType: models.ItemTypeRawMaterial, ItemID: flour.ID}}, "")
	if err != nil {
		t.Fatalf("sayım başlatılamadı: %v", err)
	}

	_, err = SaveCount(db, count.ID, []CountEntry{
		{StockCountItemID: count.Items[0].ID, CountedQuantity: d("-5")},
	})
	if !apperr.IsKind(err, apperr.KindInvalidArgument) {
		t.Errorf("negatif sayım için InvalidArgument bekleniyordu, gelen: %v", err)
	}
}
