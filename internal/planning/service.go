package planning

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"uretim-backend/internal/apperr"
	"uretim-backend/internal/bom"
	"uretim-backend/internal/ledger"
	"uretim-backend/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Planlama iki adımlı bir durum makinesidir:
//   GeneratePlan (sadece okur, idempotent) -> CommitPlan (iş emri yazar).
// Malzeme eksikliği hata DEĞİLDİR; alerts listesinde raporlanır ve diğer
// ürünlerin planlanmasını engellemez.

type DemandLine struct {
	ProductID       uint            `json:"product_id"`
	ProductName     string          `json:"product_name"`
	ProductionLine  string          `json:"production_line"`
	Unit            string          `json:"unit"`
	OrderedQuantity decimal.Decimal `json:"ordered_quantity"`
	CurrentStock    decimal.Decimal `json:"current_stock"`
	NetToProduce    decimal.Decimal `json:"net_to_produce"` // max(0, sipariş - mamul bakiyesi)
	HasActiveBom    bool            `json:"has_active_bom"`
}

type MaterialNeed struct {
	RawMaterialID uint            `json:"raw_material_id"`
	Name          string          `json:"name"`
	Unit          string          `json:"unit"`
	Required      decimal.Decimal `json:"required"` // tarihteki TÜM ürünlerin toplam ihtiyacı
	Available     decimal.Decimal `json:"available"`
	Shortage      decimal.Decimal `json:"shortage"`
}

type ProductionPlan struct {
	Date          string         `json:"date"`
	Demands       []DemandLine   `json:"demands"`
	MaterialNeeds []MaterialNeed `json:"material_needs"`
	Alerts        []string       `json:"alerts"`
}

// GeneratePlan: verilen teslim tarihi için talebi toplar, mamul stoğuyla
// netler, net talebi reçetelere patlatıp malzeme ihtiyacını ürünler arası
// konsolide eder. Yan etkisi yoktur: sipariş/stok/reçete değişmedikçe aynı
// çıktıyı üretir.
func GeneratePlan(db *gorm.DB, date time.Time) (*ProductionPlan, error) {
	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)

	// Taslak ve iptal edilmiş siparişler talep sayılmaz
	var orderItems []models.OrderItem
	err := db.Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.requested_delivery_date >= ? AND orders.requested_delivery_date < ?", dayStart, dayEnd).
		Where("orders.status NOT IN ?", []models.OrderStatus{models.OrderStatusDraft, models.OrderStatusCancelled}).
		Find(&orderItems).Error
	if err != nil {
		return nil, err
	}

	// Ürün başına sipariş toplamı
	orderedByProduct := make(map[uint]decimal.Decimal)
	for _, item := range orderItems {
		orderedByProduct[item.ProductID] = orderedByProduct[item.ProductID].Add(item.Quantity)
	}

	plan := &ProductionPlan{
		Date:          dayStart.Format("2006-01-02"),
		Demands:       make([]DemandLine, 0, len(orderedByProduct)),
		MaterialNeeds: make([]MaterialNeed, 0),
		Alerts:        make([]string, 0),
	}

	type materialAgg struct {
		name      string
		unit      string
		required  decimal.Decimal
		available decimal.Decimal
	}
	materialTotals := make(map[uint]*materialAgg)

	productIDs := make([]uint, 0, len(orderedByProduct))
	for pid := range orderedByProduct {
		productIDs = append(productIDs, pid)
	}
	sort.Slice(productIDs, func(i, j int) bool { return productIDs[i] < productIDs[j] })

	for _, pid := range productIDs {
		ordered := orderedByProduct[pid]

		var product models.Product
		if err := db.First(&product, pid).Error; err != nil {
			plan.Alerts = append(plan.Alerts, fmt.Sprintf("Sipariş edilen ürün katalogda bulunamadı (ID: %d)", pid))
			continue
		}

		stock, err := ledger.GetBalance(db, models.ItemTypeProduct, pid)
		if err != nil {
			return nil, err
		}

		net := ordered.Sub(stock)
		if net.IsNegative() {
			net = decimal.Zero
		}

		demand := DemandLine{
			ProductID:       pid,
			ProductName:     product.Name,
			ProductionLine:  product.ProductionLine,
			Unit:            product.Unit,
			OrderedQuantity: ordered,
			CurrentStock:    stock,
			NetToProduce:    net,
			HasActiveBom:    true,
		}

		// Net talep varsa reçeteye patlat ve malzeme ihtiyacını biriktir.
		// Reçetesi olmayan ürün planı DURDURMAZ; isimle uyarı verilir.
		if net.IsPositive() {
			calc, err := bom.CalculateBatch(db, pid, net)
			if err != nil {
				if apperr.IsKind(err, apperr.KindInsufficientData) || apperr.IsKind(err, apperr.KindNotFound) {
					demand.HasActiveBom = false
					plan.Alerts = append(plan.Alerts,
						fmt.Sprintf("'%s' ürününün aktif reçetesi yok, iş emri oluşturulamayacak", product.Name))
				} else {
					return nil, err
				}
			} else {
				for _, req := range calc.Items {
					agg, ok := materialTotals[req.RawMaterialID]
					if !ok {
						agg = &materialAgg{name: req.Name, unit: req.Unit, available: req.Available}
						materialTotals[req.RawMaterialID] = agg
					}
					agg.required = agg.required.Add(req.Required)
				}
			}
		}

		plan.Demands = append(plan.Demands, demand)
	}

	// Deterministik sıra: üretim hattı, sonra ürün adı
	sort.Slice(plan.Demands, func(i, j int) bool {
		if plan.Demands[i].ProductionLine != plan.Demands[j].ProductionLine {
			return plan.Demands[i].ProductionLine < plan.Demands[j].ProductionLine
		}
		return plan.Demands[i].ProductName < plan.Demands[j].ProductName
	})

	// Konsolide malzeme ihtiyacı: eksik, toplam ihtiyaca göre hesaplanır
	materialIDs := make([]uint, 0, len(materialTotals))
	for mid := range materialTotals {
		materialIDs = append(materialIDs, mid)
	}
	sort.Slice(materialIDs, func(i, j int) bool { return materialIDs[i] < materialIDs[j] })

	for _, mid := range materialIDs {
		agg := materialTotals[mid]
		shortage := agg.required.Sub(agg.available)
		if shortage.IsNegative() {
			shortage = decimal.Zero
		}
		plan.MaterialNeeds = append(plan.MaterialNeeds, MaterialNeed{
			RawMaterialID: mid,
			Name:          agg.name,
			Unit:          agg.unit,
			Required:      agg.required,
			Available:     agg.available,
			Shortage:      shortage,
		})
		if shortage.IsPositive() {
			plan.Alerts = append(plan.Alerts,
				fmt.Sprintf("Malzeme eksiği: %s için %s %s eksik (ihtiyaç: %s, mevcut: %s)",
					agg.name, shortage.String(), agg.unit, agg.required.String(), agg.available.String()))
		}
	}

	return plan, nil
}

type CommitResult struct {
	Date         string   `json:"date"`
	WorkOrderIDs []uint   `json:"work_order_ids"`
	CreatedItems int      `json:"created_items"`
	Skipped      []string `json:"skipped"` // zaten planlanmış (tarih, ürün, hat) satırları
	Alerts       []string `json:"alerts"`
}

// CommitPlan: net talebi iş emirlerine çevirir. Hat başına bir WorkOrder,
// ürün başına bir WorkOrderItem. Aynı (tarih, ürün, hat) için iptal
// edilmemiş bir satır zaten varsa İKİNCİSİ AÇILMAZ: satır atlanır ve
// cevapta raporlanır (çağıran güvenle retry edebilir). Tamamı tek
// transaction'dır.
func CommitPlan(db *gorm.DB, userID uint, date time.Time) (*CommitResult, error) {
	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())

	result := &CommitResult{
		Date:         dayStart.Format("2006-01-02"),
		WorkOrderIDs: make([]uint, 0),
		Skipped:      make([]string, 0),
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		// Plan, commit transaction'ının İÇİNDE yeniden türetilir;
		// commit anındaki sipariş/stok/reçete durumunu yansıtır.
		plan, err := GeneratePlan(tx, dayStart)
		if err != nil {
			return err
		}
		result.Alerts = plan.Alerts

		// Hat bazlı grupla
		byLine := make(map[string][]DemandLine)
		lines := make([]string, 0)
		for _, d := range plan.Demands {
			if !d.NetToProduce.IsPositive() || !d.HasActiveBom {
				continue
			}
			if _, ok := byLine[d.ProductionLine]; !ok {
				lines = append(lines, d.ProductionLine)
			}
			byLine[d.ProductionLine] = append(byLine[d.ProductionLine], d)
		}
		sort.Strings(lines)

		for _, line := range lines {
			demands := byLine[line]

			// Önce yazılacak satırlar belirlenir; hepsi atlanırsa o hat için
			// iş emri hiç açılmaz (boş emir bırakılmaz).
			type pendingItem struct {
				demand DemandLine
				bomID  uint
			}
			toInsert := make([]pendingItem, 0, len(demands))

			for _, d := range demands {
				// Çifte planlama koruması: insert'ten hemen önce, aynı
				// transaction içinde varlık kontrolü
				var existing int64
				err := tx.Model(&models.WorkOrderItem{}).
					Joins("JOIN work_orders ON work_orders.id = work_order_items.work_order_id").
					Where("work_orders.production_date = ? AND work_orders.production_line = ?", dayStart, line).
					Where("work_order_items.product_id = ? AND work_order_items.status <> ?",
						d.ProductID, models.WorkOrderItemStatusCancelled).
					Count(&existing).Error
				if err != nil {
					return err
				}
				if existing > 0 {
					result.Skipped = append(result.Skipped,
						fmt.Sprintf("'%s' için %s tarihli iş emri satırı zaten var, atlandı", d.ProductName, result.Date))
					continue
				}

				activeBom, err := bom.GetActiveBom(tx, d.ProductID)
				if err != nil {
					// GeneratePlan HasActiveBom=true dediyse burada da olmalı;
					// yarış durumunda satırı atla ve raporla
					result.Skipped = append(result.Skipped,
						fmt.Sprintf("'%s' için aktif reçete bulunamadı, satır atlandı", d.ProductName))
					continue
				}

				toInsert = append(toInsert, pendingItem{demand: d, bomID: activeBom.ID})
			}
			if len(toInsert) == 0 {
				continue
			}

			// Sadece halen açık (planned/in_progress) emir yeniden kullanılır.
			// Tamamlanmış emre satır eklenmez; emir bir kez completed olduktan
			// sonra tüm iptal edilmemiş satırları completed kalmalıdır. Geç
			// gelen talep, numarası eklentili yeni bir emir açar.
			var wo models.WorkOrder
			err := tx.Where("production_date = ? AND production_line = ? AND status IN ?",
				dayStart, line,
				[]models.WorkOrderStatus{models.WorkOrderStatusPlanned, models.WorkOrderStatusInProgress}).
				First(&wo).Error
			if err == gorm.ErrRecordNotFound {
				orderNumber, numErr := nextWorkOrderNumber(tx, dayStart, line)
				if numErr != nil {
					return numErr
				}
				wo = models.WorkOrder{
					OrderNumber:    orderNumber,
					ProductionDate: dayStart,
					ProductionLine: line,
					Status:         models.WorkOrderStatusPlanned,
					CreatedBy:      userID,
				}
				if err := tx.Create(&wo).Error; err != nil {
					return err
				}
			} else if err != nil {
				return err
			}
			result.WorkOrderIDs = append(result.WorkOrderIDs, wo.ID)

			for _, p := range toInsert {
				item := models.WorkOrderItem{
					WorkOrderID:     wo.ID,
					ProductID:       p.demand.ProductID,
					BomID:           p.bomID, // versiyon snapshot'ı
					PlannedQuantity: p.demand.NetToProduce,
					Status:          models.WorkOrderItemStatusPending,
				}
				if err := tx.Create(&item).Error; err != nil {
					return err
				}
				result.CreatedItems++
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// nextWorkOrderNumber: taban numara boşsa onu, aynı (tarih, hat) için daha
// önce emir açılmışsa "-2", "-3" ekli ilk numarayı döndürür. OrderNumber
// unique olduğundan taban numara ancak bir kez kullanılabilir.
func nextWorkOrderNumber(tx *gorm.DB, date time.Time, line string) (string, error) {
	base := workOrderNumber(date, line)
	var count int64
	err := tx.Model(&models.WorkOrder{}).
		Where("order_number = ? OR order_number LIKE ?", base, base+"-%").
		Count(&count).Error
	if err != nil {
		return "", err
	}
	if count == 0 {
		return base, nil
	}
	return fmt.Sprintf("%s-%d", base, count+1), nil
}

// workOrderNumber: "WO-20260115-FIRIN1" formatında emir numarası
func workOrderNumber(date time.Time, line string) string {
	sanitized := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r - 32
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		default:
			return -1
		}
	}, line)
	if sanitized == "" {
		sanitized = "HAT"
	}
	return fmt.Sprintf("WO-%s-%s", date.Format("20060102"), sanitized)
}
