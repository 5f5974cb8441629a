package bom

import (
	"fmt"

	"uretim-backend/internal/apperr"
	"uretim-backend/internal/ledger"
	"uretim-backend/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type BomItemInput struct {
	RawMaterialID   uint            `json:"raw_material_id" validate:"required"`
	Quantity        decimal.Decimal `json:"quantity"`
	Unit            string          `json:"unit"`
	WastePercentage decimal.Decimal `json:"waste_percentage"`
	IsOptional      bool            `json:"is_optional"`
	SortOrder       int             `json:"sort_order"`
}

type BomInput struct {
	Items             []BomItemInput  `json:"items" validate:"required,min=1,dive"`
	YieldPercentage   decimal.Decimal `json:"yield_percentage"`
	StandardBatchSize decimal.Decimal `json:"standard_batch_size"`
	BatchUnit         string          `json:"batch_unit" validate:"required"`
	Notes             string          `json:"notes"`
}

// SetActiveBom: ürüne yeni reçete versiyonu açar.
// version = (üründeki en büyük versiyon) + 1; eski aktif versiyonun is_active
// bayrağı aynı transaction içinde düşürülür. Eski versiyonlar asla silinmez
// veya değiştirilmez.
func SetActiveBom(db *gorm.DB, userID uint, productID uint, input BomInput) (*models.Bom, error) {
	if len(input.Items) == 0 {
		return nil, apperr.InvalidArgument("Reçete en az bir hammadde içermeli")
	}
	if !input.YieldPercentage.IsPositive() || input.YieldPercentage.GreaterThan(oneHundred) {
		return nil, apperr.InvalidArgument("Verim yüzdesi (0, 100] aralığında olmalı")
	}
	if !input.StandardBatchSize.IsPositive() {
		return nil, apperr.InvalidArgument("Standart parti büyüklüğü 0'dan büyük olmalı")
	}
	for _, item := range input.Items {
		if !item.Quantity.IsPositive() {
			return nil, apperr.InvalidArgument("Hammadde miktarı 0'dan büyük olmalı (hammadde ID: %d)", item.RawMaterialID)
		}
		if item.WastePercentage.IsNegative() || item.WastePercentage.GreaterThanOrEqual(oneHundred) {
			return nil, apperr.InvalidArgument("Fire yüzdesi [0, 100) aralığında olmalı (hammadde ID: %d)", item.RawMaterialID)
		}
	}

	var product models.Product
	if err := db.First(&product, productID).Error; err != nil {
		return nil, apperr.NotFound("Ürün bulunamadı (ID: %d)", productID)
	}

	// Hammadde referansları geçerli mi?
	for _, item := range input.Items {
		var rm models.RawMaterial
		if err := db.First(&rm, item.RawMaterialID).Error; err != nil {
			return nil, apperr.NotFound("Hammadde bulunamadı (ID: %d)", item.RawMaterialID)
		}
	}

	var newBom models.Bom
	err := db.Transaction(func(tx *gorm.DB) error {
		var maxVersion int
		if err := tx.Model(&models.Bom{}).Where("product_id = ?", productID).
			Select("COALESCE(MAX(version), 0)").Scan(&maxVersion).Error; err != nil {
			return err
		}

		// Eski aktif versiyonu düşür
		if err := tx.Model(&models.Bom{}).
			Where("product_id = ? AND is_active = ?", productID, true).
			Update("is_active", false).Error; err != nil {
			return err
		}

		newBom = models.Bom{
			ProductID:         productID,
			Version:           maxVersion + 1,
			IsActive:          true,
			YieldPercentage:   input.YieldPercentage,
			StandardBatchSize: input.StandardBatchSize,
			BatchUnit:         input.BatchUnit,
			Notes:             input.Notes,
			CreatedBy:         userID,
		}
		for i, item := range input.Items {
			sortOrder := item.SortOrder
			if sortOrder == 0 {
				sortOrder = i + 1
			}
			newBom.Items = append(newBom.Items, models.BomItem{
				RawMaterialID:   item.RawMaterialID,
				Quantity:        item.Quantity,
				Unit:            item.Unit,
				WastePercentage: item.WastePercentage,
				IsOptional:      item.IsOptional,
				SortOrder:       sortOrder,
			})
		}

		return tx.Create(&newBom).Error
	})
	if err != nil {
		return nil, err
	}

	return &newBom, nil
}

// GetActiveBom: ürünün aktif reçete versiyonu
func GetActiveBom(db *gorm.DB, productID uint) (*models.Bom, error) {
	var b models.Bom
	err := db.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("sort_order ASC")
	}).Preload("Items.RawMaterial").
		Where("product_id = ? AND is_active = ?", productID, true).
		First(&b).Error
	if err == gorm.ErrRecordNotFound {
		return nil, apperr.NotFound("Ürünün aktif reçetesi yok (ürün ID: %d)", productID)
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// GetBomByID: belirli bir reçete versiyonu (geçmiş iş emirlerinin snapshot'ı için)
func GetBomByID(db *gorm.DB, bomID uint) (*models.Bom, error) {
	var b models.Bom
	err := db.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("sort_order ASC")
	}).Preload("Items.RawMaterial").
		First(&b, bomID).Error
	if err == gorm.ErrRecordNotFound {
		return nil, apperr.NotFound("Reçete bulunamadı (ID: %d)", bomID)
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

type BatchRequirement struct {
	RawMaterialID uint            `json:"raw_material_id"`
	Name          string          `json:"name"`
	Unit          string          `json:"unit"`
	Required      decimal.Decimal `json:"required"`
	Available     decimal.Decimal `json:"available"`
	Shortage      decimal.Decimal `json:"shortage"`
	Sufficient    bool            `json:"sufficient"`
	UnitCost      decimal.Decimal `json:"unit_cost"`
	LineCost      decimal.Decimal `json:"line_cost"`
	IsOptional    bool            `json:"is_optional"`
}

type BatchCalculation struct {
	ProductID      uint               `json:"product_id"`
	ProductName    string             `json:"product_name"`
	BomID          uint               `json:"bom_id"`
	BomVersion     int                `json:"bom_version"`
	TargetQuantity decimal.Decimal    `json:"target_quantity"`
	Items          []BatchRequirement `json:"items"`
	TotalCost      decimal.Decimal    `json:"total_cost"`
	CostPerUnit    decimal.Decimal    `json:"cost_per_unit"`
	Sufficient     bool               `json:"sufficient"` // zorunlu satırların tamamı karşılanıyor mu
}

// CalculateBatch: aktif reçeteyi hedef miktara patlatır, mevcut bakiyelerle
// karşılaştırır ve maliyeti çıkarır. Yan etkisi yoktur; (reçete snapshot'ı,
// güncel bakiyeler) ikilisinin saf fonksiyonudur.
func CalculateBatch(db *gorm.DB, productID uint, targetQty decimal.Decimal) (*BatchCalculation, error) {
	if !targetQty.IsPositive() {
		return nil, apperr.InvalidArgument("Hedef miktar 0'dan büyük olmalı")
	}

	var product models.Product
	if err := db.First(&product, productID).Error; err != nil {
		return nil, apperr.NotFound("Ürün bulunamadı (ID: %d)", productID)
	}

	activeBom, err := GetActiveBom(db, productID)
	if err != nil {
		if apperr.IsKind(err, apperr.KindNotFound) {
			return nil, apperr.InsufficientData("'%s' ürününün aktif reçetesi yok, hesap yapılamaz", product.Name)
		}
		return nil, err
	}

	return ExplodeBom(db, &product, activeBom, targetQty)
}

// ExplodeBom: verilen reçete versiyonunu hedef miktara patlatır.
// Üretim raporu, iş emrine snapshot'lanmış ESKİ versiyonu da bu fonksiyonla
// patlatır; aktif versiyona bağımlılık yoktur.
func ExplodeBom(db *gorm.DB, product *models.Product, b *models.Bom, targetQty decimal.Decimal) (*BatchCalculation, error) {
	if !targetQty.IsPositive() {
		return nil, apperr.InvalidArgument("Hedef miktar 0'dan büyük olmalı")
	}

	calc := &BatchCalculation{
		ProductID:      product.ID,
		ProductName:    product.Name,
		BomID:          b.ID,
		BomVersion:     b.Version,
		TargetQuantity: targetQty,
		Items:          make([]BatchRequirement, 0, len(b.Items)),
		TotalCost:      decimal.Zero,
		Sufficient:     true,
	}

	for _, item := range b.Items {
		rm := item.RawMaterial
		if rm.ID == 0 {
			if err := db.First(&rm, item.RawMaterialID).Error; err != nil {
				return nil, apperr.NotFound("Hammadde bulunamadı (ID: %d)", item.RawMaterialID)
			}
		}

		required := RequiredQuantity(targetQty, b.StandardBatchSize, item.Quantity, item.WastePercentage, b.YieldPercentage)

		available, err := ledger.GetBalance(db, models.ItemTypeRawMaterial, item.RawMaterialID)
		if err != nil {
			return nil, fmt.Errorf("bakiye okunamadı (hammadde ID: %d): %w", item.RawMaterialID, err)
		}

		shortage := required.Sub(available)
		if shortage.IsNegative() {
			shortage = decimal.Zero
		}
		sufficient := shortage.IsZero()

		lineCost := required.Mul(rm.LastCost)
		calc.TotalCost = calc.TotalCost.Add(lineCost)

		// Opsiyonel satırın eksiği genel yeterliliği düşürmez
		if !sufficient && !item.IsOptional {
			calc.Sufficient = false
		}

		calc.Items = append(calc.Items, BatchRequirement{
			RawMaterialID: item.RawMaterialID,
			Name:          rm.Name,
			Unit:          item.Unit,
			Required:      required,
			Available:     available,
			Shortage:      shortage,
			Sufficient:    sufficient,
			UnitCost:      rm.LastCost,
			LineCost:      lineCost,
			IsOptional:    item.IsOptional,
		})
	}

	calc.CostPerUnit = calc.TotalCost.Div(targetQty)
	return calc, nil
}
