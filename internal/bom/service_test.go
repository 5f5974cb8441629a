package bom

import (
	"testing"

	"uretim-backend/internal/apperr"
	"uretim-backend/internal/ledger"
	"uretim-backend/internal/models"
	"uretim-backend/internal/testutil"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func seedProduct(t *testing.T, db *gorm.DB, name string) *models.Product {
	t.Helper()
	p := models.Product{Name: name, Unit: "ADET", ProductionLine: "firin-1", IsActive: true}
	if err := db.Create(&p).Error; err != nil {
		t.Fatalf("ürün oluşturulamadı: %v", err)
	}
	return &p
}

func seedMaterial(t *testing.T, db *gorm.DB, name string, lastCost string) *models.RawMaterial {
	t.Helper()
	rm := models.RawMaterial{Name: name, Unit: "KG", LastCost: d(lastCost), IsActive: true}
	if err := db.Create(&rm).Error; err != nil {
		t.Fatalf("hammadde oluşturulamadı: %v", err)
	}
	return &rm
}

func addStock(t *testing.T, db *gorm.DB, itemType models.ItemType, itemID uint, qty string) {
	t.Helper()
	err := db.Transaction(func(tx *gorm.DB) error {
		return ledger.RecordMovement(tx, &models.InventoryMovement{
			ItemType:     itemType,
			ItemID:       itemID,
			MovementType: models.MovementTypePurchaseReceipt,
			Quantity:     d(qty),
			Unit:         "KG",
		})
	})
	if err != nil {
		t.Fatalf("stok girişi yapılamadı: %v", err)
	}
}

func simpleBomInput(materialID uint, qty, wastePct string) BomInput {
	return BomInput{
		Items: []BomItemInput{
			{RawMaterialID: materialID, Quantity: d(qty), Unit: "KG", WastePercentage: d(wastePct)},
		},
		YieldPercentage:   d("100"),
		StandardBatchSize: d("100"),
		BatchUnit:         "ADET",
	}
}

func TestSetActiveBomVersioning(t *testing.T) {
	db := testutil.SetupTestDB(t)
	product := seedProduct(t, db, "Ekmek")
	flour := seedMaterial(t, db, "Un", "10")

	v1, err := SetActiveBom(db, 1, product.ID, simpleBomInput(flour.ID, "2.5", "1"))
	if err != nil {
		t.Fatalf("ilk versiyon açılamadı: %v", err)
	}
	if v1.Version != 1 || !v1.IsActive {
		t.Errorf("ilk versiyon: version=%d active=%v, beklenen version=1 active=true", v1.Version, v1.IsActive)
	}

	v2, err := SetActiveBom(db, 1, product.ID, simpleBomInput(flour.ID, "3", "0"))
	if err != nil {
		t.Fatalf("ikinci versiyon açılamadı: %v", err)
	}
	if v2.Version != 2 {
		t.Errorf("ikinci versiyon numarası %d, beklenen 2", v2.Version)
	}

	// Eski versiyon silinmez, sadece is_active düşer
	var old models.Bom
	if err := db.First(&old, v1.ID).Error; err != nil {
		t.Fatalf("eski versiyon kaybolmuş: %v", err)
	}
	if old.IsActive {
		t.Error("eski versiyon hala aktif")
	}

	var activeCount int64
	db.Model(&models.Bom{}).Where("product_id = ? AND is_active = ?", product.ID, true).Count(&activeCount)
	if activeCount != 1 {
		t.Errorf("aktif versiyon sayısı %d, beklenen 1", activeCount)
	}

	active, err := GetActiveBom(db, product.ID)
	if err != nil {
		t.Fatalf("aktif reçete okunamadı: %v", err)
	}
	if active.ID != v2.ID {
		t.Errorf("aktif reçete ID %d, beklenen %d", active.ID, v2.ID)
	}
}

func TestSetActiveBomValidation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	product := seedProduct(t, db, "Ekmek")
	flour := seedMaterial(t, db, "Un", "10")

	tests := []struct {
		name  string
		input BomInput
		kind  apperr.Kind
	}{
		{
			name:  "bos kalem listesi",
			input: BomInput{YieldPercentage: d("100"), StandardBatchSize: d("100"), BatchUnit: "ADET"},
			kind:  apperr.KindInvalidArgument,
		},
		{
			name: "sifir verim",
			input: BomInput{
				Items:             []BomItemInput{{RawMaterialID: flour.ID, Quantity: d("1"), Unit: "KG"}},
				YieldPercentage:   decimal.Zero,
				StandardBatchSize: d("100"),
				BatchUnit:         "ADET",
			},
			kind: apperr.KindInvalidArgument,
		},
		{
			name: "fire yuzde 100",
			input: BomInput{
				Items:             []BomItemInput{{RawMaterialID: flour.ID, Quantity: d("1"), Unit: "KG", WastePercentage: d("100")}},
				YieldPercentage:   d("100"),
				StandardBatchSize: d("100"),
				BatchUnit:         "ADET",
			},
			kind: apperr.KindInvalidArgument,
		},
		{
			name: "negatif kalem miktari",
			input: BomInput{
				Items:             []BomItemInput{{RawMaterialID: flour.ID, Quantity: d("-1"), Unit: "KG"}},
				YieldPercentage:   d("100"),
				StandardBatchSize: d("100"),
				BatchUnit:         "ADET",
			},
			kind: apperr.KindInvalidArgument,
		},
		{
			name:  "olmayan hammadde",
			input: simpleBomInput(9999, "1", "0"),
			kind:  apperr.KindNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := SetActiveBom(db, 1, product.ID, tt.input)
			if err == nil {
				t.Fatal("hata bekleniyordu")
			}
			if !apperr.IsKind(err, tt.kind) {
				t.Errorf("hata türü %v, beklenen %s", err, tt.kind)
			}
		})
	}
}

func TestCalculateBatchWithShortage(t *testing.T) {
	db := testutil.SetupTestDB(t)
	product := seedProduct(t, db, "Ekmek")
	flour := seedMaterial(t, db, "Un", "10")
	sugar := seedMaterial(t, db, "Şeker", "20")

	input := BomInput{
		Items: []BomItemInput{
			{RawMaterialID: flour.ID, Quantity: d("2.5"), Unit: "KG", WastePercentage: d("1")},
			{RawMaterialID: sugar.ID, Quantity: d("1"), Unit: "KG"},
		},
		YieldPercentage:   d("100"),
		StandardBatchSize: d("100"),
		BatchUnit:         "ADET",
	}
	if _, err := SetActiveBom(db, 1, product.ID, input); err != nil {
		t.Fatalf("reçete açılamadı: %v", err)
	}

	// Un yeterli, şeker yetersiz
	addStock(t, db, models.ItemTypeRawMaterial, flour.ID, "10")
	addStock(t, db, models.ItemTypeRawMaterial, sugar.ID, "0.2")

	calc, err := CalculateBatch(db, product.ID, d("50"))
	if err != nil {
		t.Fatalf("hesap yapılamadı: %v", err)
	}

	if len(calc.Items) != 2 {
		t.Fatalf("kalem sayısı %d, beklenen 2", len(calc.Items))
	}

	flourReq := calc.Items[0]
	if !flourReq.Required.Equal(d("1.2625")) {
		t.Errorf("un ihtiyacı %s, beklenen 1.2625", flourReq.Required)
	}
	if !flourReq.Sufficient {
		t.Error("un yeterli olmalıydı")
	}

	sugarReq := calc.Items[1]
	if !sugarReq.Required.Equal(d("0.5")) {
		t.Errorf("şeker ihtiyacı %s, beklenen 0.5", sugarReq.Required)
	}
	if sugarReq.Sufficient {
		t.Error("şeker yetersiz olmalıydı")
	}
	if !sugarReq.Shortage.Equal(d("0.3")) {
		t.Errorf("şeker eksiği %s, beklenen 0.3", sugarReq.Shortage)
	}

	if calc.Sufficient {
		t.Error("zorunlu kalem eksikken genel yeterlilik true olamaz")
	}

	// Maliyet: 1.2625*10 + 0.5*20 = 22.625; birim maliyet 22.625/50 = 0.4525
	if !calc.TotalCost.Equal(d("22.625")) {
		t.Errorf("toplam maliyet %s, beklenen 22.625", calc.TotalCost)
	}
	if !calc.CostPerUnit.Equal(d("0.4525")) {
		t.Errorf("birim maliyet %s, beklenen 0.4525", calc.CostPerUnit)
	}
}

func TestCalculateBatchOptionalItem(t *testing.T) {
	db := testutil.SetupTestDB(t)
	product := seedProduct(t, db, "Ekmek")
	flour := seedMaterial(t, db, "Un", "10")
	seeds := seedMaterial(t, db, "Susam", "5")

	input := BomInput{
		Items: []BomItemInput{
			{RawMaterialID: flour.ID, Quantity: d("2.5"), Unit: "KG"},
			{RawMaterialID: seeds.ID, Quantity: d("0.5"), Unit: "KG", IsOptional: true},
		},
		YieldPercentage:   d("100"),
		StandardBatchSize: d("100"),
		BatchUnit:         "ADET",
	}
	if _, err := SetActiveBom(db, 1, product.ID, input); err != nil {
		t.Fatalf("reçete açılamadı: %v", err)
	}

	// Un var, susam hiç yok
	addStock(t, db, models.ItemTypeRawMaterial, flour.ID, "100")

	calc, err := CalculateBatch(db, product.ID, d("100"))
	if err != nil {
		t.Fatalf("hesap yapılamadı: %v", err)
	}

	// Opsiyonel kalemin eksiği genel yeterliliği düşürmez
	if !calc.Sufficient {
		t.Error("sadece opsiyonel kalem eksikken genel yeterlilik true olmalı")
	}
	if calc.Items[1].Sufficient {
		t.Error("opsiyonel kalemin kendi satırı yetersiz görünmeli")
	}
}

func TestCalculateBatchErrors(t *testing.T) {
	db := testutil.SetupTestDB(t)
	product := seedProduct(t, db, "Ekmek")

	if _, err := CalculateBatch(db, product.ID, d("-5")); !apperr.IsKind(err, apperr.KindInvalidArgument) {
		t.Errorf("negatif hedef için InvalidArgument bekleniyordu, gelen: %v", err)
	}

	if _, err := CalculateBatch(db, 9999, d("10")); !apperr.IsKind(err, apperr.KindNotFound) {
		t.Errorf("olmayan ürün için NotFound bekleniyordu, gelen: %v", err)
	}

	// Ürün var ama aktif reçetesi yok
	if _, err := CalculateBatch(db, product.ID, d("10")); !apperr.IsKind(err, apperr.KindInsufficientData) {
		t.Errorf("reçetesiz ürün için InsufficientData bekleniyordu, gelen: %v", err)
	}
}

func TestBomUniquenessEnforcedByDB(t *testing.T) {
	db := testutil.SetupTestDB(t)
	product := seedProduct(t, db, "Ekmek")
	material := seedMaterial(t, db, "Un", "10")

	if _, err := SetActiveBom(db, 1, product.ID, simpleBomInput(material.ID, "2.5", "1")); err != nil {
		t.Fatalf("reçete açılamadı: %v", err)
	}

	// Servisi atlayıp doğrudan yazmaya kalkan ikinci aktif satırı DB reddeder
	dupActive := models.Bom{
		ProductID:         product.ID,
		Version:           99,
		IsActive:          true,
		YieldPercentage:   d("100"),
		StandardBatchSize: d("100"),
		BatchUnit:         "ADET",
	}
	if err := db.Create(&dupActive).Error; err == nil {
		t.Error("ürün başına ikinci aktif reçete yazılabildi")
	}

	// Versiyon numarası ürün içinde tekrar edemez
	dupVersion := models.Bom{
		ProductID:         product.ID,
		Version:           1,
		IsActive:          false,
		YieldPercentage:   d("100"),
		StandardBatchSize: d("100"),
		BatchUnit:         "ADET",
	}
	if err := db.Create(&dupVersion).Error; err == nil {
		t.Error("aynı versiyon numarası ikinci kez yazılabildi")
	}
}
