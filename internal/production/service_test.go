package production

import (
	"testing"
	"time"

	"uretim-backend/internal/apperr"
	"uretim-backend/internal/bom"
	"uretim-backend/internal/ledger"
	"uretim-backend/internal/models"
	"uretim-backend/internal/testutil"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var productionDate = time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

type fixture struct {
	db      *gorm.DB
	product *models.Product
	flour   *models.RawMaterial
	wo      *models.WorkOrder
	item    *models.WorkOrderItem
}

// setupFixture: reçeteli ürün, 100 KG un stoğu ve 220'lik pending
// iş emri satırı hazırlar. Reçete: 100 ADET parti başına 2.5 KG un, %1 fire.
func setupFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.SetupTestDB(t)

	product := &models.Product{Name: "Ekmek", Unit: "ADET", ProductionLine: "firin-1", ShelfLifeDays: 3, IsActive: true}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("ürün oluşturulamadı: %v", err)
	}
	flour := &models.RawMaterial{Name: "Un", Unit: "KG", LastCost: d("10"), IsActive: true}
	if err := db.Create(flour).Error; err != nil {
		t.Fatalf("hammadde oluşturulamadı: %v", err)
	}

	input := bom.BomInput{
		Items: []bom.BomItemInput{
			{RawMaterialID: flour.ID, Quantity: d("2.5"), Unit: "KG", WastePercentage: d("1")},
		},
		YieldPercentage:   d("100"),
		StandardBatchSize: d("100"),
		BatchUnit:         "ADET",
	}
	activeBom, err := bom.SetActiveBom(db, 1, product.ID, input)
	if err != nil {
		t.Fatalf("reçete açılamadı: %v", err)
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		return ledger.RecordMovement(tx, &models.InventoryMovement{
			ItemType:     models.ItemTypeRawMaterial,
			ItemID:       flour.ID,
			MovementType: models.MovementTypePurchaseReceipt,
			Quantity:     d("100"),
			Unit:         "KG",
		})
	})
	if err != nil {
		t.Fatalf("stok girişi yapılamadı: %v", err)
	}

	wo := &models.WorkOrder{
		OrderNumber:    "WO-20260115-FIRIN1",
		ProductionDate: productionDate,
		ProductionLine: "firin-1",
		Status:         models.WorkOrderStatusPlanned,
		CreatedBy:      1,
	}
	if err := db.Create(wo).Error; err != nil {
		t.Fatalf("iş emri oluşturulamadı: %v", err)
	}
	item := &models.WorkOrderItem{
		WorkOrderID:     wo.ID,
		ProductID:       product.ID,
		BomID:           activeBom.ID,
		PlannedQuantity: d("220"),
		Status:          models.WorkOrderItemStatusPending,
	}
	if err := db.Create(item).Error; err != nil {
		t.Fatalf("iş emri satırı oluşturulamadı: %v", err)
	}

	return &fixture{db: db, product: product, flour: flour, wo: wo, item: item}
}

func TestReportProduction(t *testing.T) {
	f := setupFixture(t)

	result, err := ReportProduction(f.db, 2, ReportInput{
		WorkOrderItemID:  f.item.ID,
		QuantityProduced: d("215"),
		QuantityWaste:    d("5"),
		WasteReason:      "fırın arızası",
	})
	if err != nil {
		t.Fatalf("rapor işlenemedi: %v", err)
	}

	// Tüketim GERÇEK üretime göre: (215/100)*2.5*1.01 = 5.42875
	if len(result.Consumptions) != 1 {
		t.Fatalf("tüketim satırı sayısı %d, beklenen 1", len(result.Consumptions))
	}
	if !result.Consumptions[0].Quantity.Equal(d("5.42875")) {
		t.Errorf("un tüketimi %s, beklenen 5.42875", result.Consumptions[0].Quantity)
	}

	// Mamul bakiyesi +215, un bakiyesi 100-5.42875
	productBal, _ := ledger.GetBalance(f.db, models.ItemTypeProduct, f.product.ID)
	if !productBal.Equal(d("215")) {
		t.Errorf("mamul bakiyesi %s, beklenen 215", productBal)
	}
	flourBal, _ := ledger.GetBalance(f.db, models.ItemTypeRawMaterial, f.flour.ID)
	if !flourBal.Equal(d("94.57125")) {
		t.Errorf("un bakiyesi %s, beklenen 94.57125", flourBal)
	}

	// Hareketler: bir PRODUCTION_OUTPUT (+), bir PRODUCTION_INPUT (-)
	var output models.InventoryMovement
	if err := f.db.Where("movement_type = ?", models.MovementTypeProductionOutput).First(&output).Error; err != nil {
		t.Fatalf("üretim çıktısı hareketi yok: %v", err)
	}
	if !output.Quantity.Equal(d("215")) {
		t.Errorf("çıktı hareketi miktarı %s, beklenen 215", output.Quantity)
	}
	if output.ReferenceType != models.MovementRefWorkOrder || output.ReferenceID != f.wo.ID {
		t.Errorf("çıktı hareketi iş emrine referanslı değil: %s/%d", output.ReferenceType, output.ReferenceID)
	}

	var consumption models.InventoryMovement
	if err := f.db.Where("movement_type = ?", models.MovementTypeProductionInput).First(&consumption).Error; err != nil {
		t.Fatalf("tüketim hareketi yok: %v", err)
	}
	if !consumption.Quantity.Equal(d("-5.42875")) {
		t.Errorf("tüketim hareketi miktarı %s, beklenen -5.42875", consumption.Quantity)
	}

	// Satır: completed, parti numarası ve SKT atanmış
	var item models.WorkOrderItem
	if err := f.db.First(&item, f.item.ID).Error; err != nil {
		t.Fatalf("satır okunamadı: %v", err)
	}
	if item.Status != models.WorkOrderItemStatusCompleted {
		t.Errorf("satır durumu %s, beklenen completed", item.Status)
	}
	if item.BatchNumber != "LOT-20260115-001" {
		t.Errorf("parti numarası %s, beklenen LOT-20260115-001", item.BatchNumber)
	}
	if !item.ProducedQuantity.Equal(d("215")) || !item.WasteQuantity.Equal(d("5")) {
		t.Errorf("üretim/fire %s/%s, beklenen 215/5", item.ProducedQuantity, item.WasteQuantity)
	}
	if item.ExpiryDate == nil {
		t.Fatal("raf ömürlü ürüne SKT atanmalıydı")
	}
	wantExpiry := productionDate.AddDate(0, 0, 3)
	if !item.ExpiryDate.Equal(wantExpiry) {
		t.Errorf("SKT %s, beklenen %s", item.ExpiryDate, wantExpiry)
	}

	// Tek satırlı emir tamamlanınca emir de completed
	if result.WorkOrderStatus != models.WorkOrderStatusCompleted {
		t.Errorf("emir durumu %s, beklenen completed", result.WorkOrderStatus)
	}

	// Ürünün birim maliyeti güncellenmiş: 5.42875*10/215 = 0.2525
	var product models.Product
	f.db.First(&product, f.product.ID)
	if !product.LastCost.Equal(d("0.2525")) {
		t.Errorf("birim maliyet %s, beklenen 0.2525", product.LastCost)
	}
}

func TestReportProductionIsTerminal(t *testing.T) {
	f := setupFixture(t)

	if _, err := ReportProduction(f.db, 2, ReportInput{
		WorkOrderItemID:  f.item.ID,
		QuantityProduced: d("215"),
		QuantityWaste:    d("5"),
	}); err != nil {
		t.Fatalf("ilk rapor işlenemedi: %v", err)
	}

	// İkinci rapor Conflict alır ve hiçbir hareket yazmaz
	_, err := ReportProduction(f.db, 2, ReportInput{
		WorkOrderItemID:  f.item.ID,
		QuantityProduced: d("10"),
	})
	if !apperr.IsKind(err, apperr.KindConflict) {
		t.Fatalf("ikinci rapor için Conflict bekleniyordu, gelen: %v", err)
	}

	var movementCount int64
	f.db.Model(&models.InventoryMovement{}).
		Where("reference_type = ?", models.MovementRefWorkOrder).Count(&movementCount)
	if movementCount != 2 {
		t.Errorf("iş emri hareketi sayısı %d, beklenen 2 (çıktı + tüketim)", movementCount)
	}

	productBal, _ := ledger.GetBalance(f.db, models.ItemTypeProduct, f.product.ID)
	if !productBal.Equal(d("215")) {
		t.Errorf("reddedilen rapor bakiyeyi değiştirmiş: %s", productBal)
	}
}

func TestReportProductionValidation(t *testing.T) {
	f := setupFixture(t)

	if _, err := ReportProduction(f.db, 2, ReportInput{
		WorkOrderItemID:  f.item.ID,
		QuantityProduced: decimal.Zero,
	}); !apperr.IsKind(err, apperr.KindInvalidArgument) {
		t.Errorf("sıfır üretim için InvalidArgument bekleniyordu, gelen: %v", err)
	}

	if _, err := ReportProduction(f.db, 2, ReportInput{
		WorkOrderItemID:  f.item.ID,
		QuantityProduced: d("10"),
		QuantityWaste:    d("-1"),
	}); !apperr.IsKind(err, apperr.KindInvalidArgument) {
		t.Errorf("negatif fire için InvalidArgument bekleniyordu, gelen: %v", err)
	}

	if _, err := ReportProduction(f.db, 2, ReportInput{
		WorkOrderItemID:  9999,
		QuantityProduced: d("10"),
	}); !apperr.IsKind(err, apperr.KindNotFound) {
		t.Errorf("olmayan satır için NotFound bekleniyordu, gelen: %v", err)
	}
}

func TestWorkOrderRollUp(t *testing.T) {
	f := setupFixture(t)

	// İkinci bir ürün satırı ekle: biri tamamlanınca emir in_progress kalmalı
	simit := models.Product{Name: "Simit", Unit: "ADET", ProductionLine: "firin-1", IsActive: true}
	if err := f.db.Create(&simit).Error; err != nil {
		t.Fatalf("ürün oluşturulamadı: %v", err)
	}
	second := models.WorkOrderItem{
		WorkOrderID:     f.wo.ID,
		ProductID:       simit.ID,
		BomID:           f.item.BomID,
		PlannedQuantity: d("50"),
		Status:          models.WorkOrderItemStatusPending,
	}
	if err := f.db.Create(&second).Error; err != nil {
		t.Fatalf("ikinci satır oluşturulamadı: %v", err)
	}

	result, err := ReportProduction(f.db, 2, ReportInput{
		WorkOrderItemID:  f.item.ID,
		QuantityProduced: d("220"),
	})
	if err != nil {
		t.Fatalf("ilk rapor işlenemedi: %v", err)
	}
	if result.WorkOrderStatus != models.WorkOrderStatusInProgress {
		t.Errorf("emir durumu %s, beklenen in_progress", result.WorkOrderStatus)
	}

	var wo models.WorkOrder
	f.db.First(&wo, f.wo.ID)
	if wo.ActualStartTime == nil {
		t.Error("ilk tamamlanan satırda fiili başlangıç atanmalıydı")
	}
	if wo.ActualEndTime != nil {
		t.Error("emir bitmeden fiili bitiş atanmamalı")
	}

	result, err = ReportProduction(f.db, 2, ReportInput{
		WorkOrderItemID:  second.ID,
		QuantityProduced: d("50"),
	})
	if err != nil {
		t.Fatalf("ikinci rapor işlenemedi: %v", err)
	}
	if result.WorkOrderStatus != models.WorkOrderStatusCompleted {
		t.Errorf("emir durumu %s, beklenen completed", result.WorkOrderStatus)
	}

	f.db.First(&wo, f.wo.ID)
	if wo.ActualEndTime == nil {
		t.Error("tüm satırlar tamamlanınca fiili bitiş atanmalıydı")
	}

	// Parti numaraları gün içinde sıralı
	var items []models.WorkOrderItem
	f.db.Order("id").Find(&items)
	if items[0].BatchNumber != "LOT-20260115-001" || items[1].BatchNumber != "LOT-20260115-002" {
		t.Errorf("parti numaraları %s / %s, beklenen LOT-20260115-001 / LOT-20260115-002",
			items[0].BatchNumber, items[1].BatchNumber)
	}
}

func TestRollUpIgnoresCancelledItems(t *testing.T) {
	f := setupFixture(t)

	cancelled := models.WorkOrderItem{
		WorkOrderID:     f.wo.ID,
		ProductID:       f.product.ID,
		BomID:           f.item.BomID,
		PlannedQuantity: d("30"),
		Status:          models.WorkOrderItemStatusCancelled,
	}
	if err := f.db.Create(&cancelled).Error; err != nil {
		t.Fatalf("iptal satırı oluşturulamadı: %v", err)
	}

	result, err := ReportProduction(f.db, 2, ReportInput{
		WorkOrderItemID:  f.item.ID,
		QuantityProduced: d("220"),
	})
	if err != nil {
		t.Fatalf("rapor işlenemedi: %v", err)
	}

	// İptal edilmiş satır roll-up'ı bloklamaz
	if result.WorkOrderStatus != models.WorkOrderStatusCompleted {
		t.Errorf("emir durumu %s, beklenen completed", result.WorkOrderStatus)
	}
}

func TestReportUsesSnapshottedBomVersion(t *testing.T) {
	f := setupFixture(t)

	// Satır oluştuktan SONRA reçete değişsin: rapor eski versiyonu kullanmalı
	newInput := bom.BomInput{
		Items: []bom.BomItemInput{
			{RawMaterialID: f.flour.ID, Quantity: d("9"), Unit: "KG"},
		},
		YieldPercentage:   d("100"),
		StandardBatchSize: d("100"),
		BatchUnit:         "ADET",
	}
	if _, err := bom.SetActiveBom(f.db, 1, f.product.ID, newInput); err != nil {
		t.Fatalf("yeni versiyon açılamadı: %v", err)
	}

	result, err := ReportProduction(f.db, 2, ReportInput{
		WorkOrderItemID:  f.item.ID,
		QuantityProduced: d("100"),
	})
	if err != nil {
		t.Fatalf("rapor işlenemedi: %v", err)
	}

	// Eski versiyon: 2.5 KG * 1.01 = 2.525 (yeni versiyon 9 KG isterdi)
	if !result.Consumptions[0].Quantity.Equal(d("2.525")) {
		t.Errorf("tüketim %s, beklenen 2.525 (snapshot'lanmış versiyon)", result.Consumptions[0].Quantity)
	}
}

func TestAssignedBatchNumbersAreUnique(t *testing.T) {
	f := setupFixture(t)

	simit := models.Product{Name: "Simit", Unit: "ADET", ProductionLine: "firin-1", IsActive: true}
	if err := f.db.Create(&simit).Error; err != nil {
		t.Fatalf("ürün oluşturulamadı: %v", err)
	}

	// Henüz parti numarası atanmamış (boş) satırlar çakışma sayılmaz
	second := models.WorkOrderItem{
		WorkOrderID:     f.wo.ID,
		ProductID:       simit.ID,
		BomID:           f.item.BomID,
		PlannedQuantity: d("50"),
		Status:          models.WorkOrderItemStatusPending,
	}
	if err := f.db.Create(&second).Error; err != nil {
		t.Fatalf("boş parti numaralı ikinci satır yazılamadı: %v", err)
	}

	err := f.db.Model(&models.WorkOrderItem{}).Where("id = ?", f.item.ID).
		Update("batch_number", "LOT-20260115-001").Error
	if err != nil {
		t.Fatalf("parti numarası atanamadı: %v", err)
	}

	// Atanmış numarayı ikinci bir satıra yazmayı DB reddeder
	err = f.db.Model(&models.WorkOrderItem{}).Where("id = ?", second.ID).
		Update("batch_number", "LOT-20260115-001").Error
	if err == nil {
		t.Error("aynı parti numarası ikinci kez atanabildi")
	}
}
