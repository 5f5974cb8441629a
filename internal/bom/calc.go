package bom

import (
	"github.com/shopspring/decimal"
)

var oneHundred = decimal.NewFromInt(100)

// RequiredQuantity: hedef miktar için bir reçete satırının hammadde ihtiyacı.
//
//	required = (hedef / standartParti) * satırMiktarı * (1 + fire/100) / (verim/100)
//
// Fire ve verim çarpımsal birleşir, toplamsal değil: %1 fire + %95 verim
// -> x * 1.01 / 0.95. Saf fonksiyondur, yan etkisi yoktur.
func RequiredQuantity(targetQty, batchSize, itemQty, wastePct, yieldPct decimal.Decimal) decimal.Decimal {
	wasteFactor := decimal.NewFromInt(1).Add(wastePct.Div(oneHundred))
	yieldFactor := yieldPct.Div(oneHundred)
	return targetQty.Div(batchSize).Mul(itemQty).Mul(wasteFactor).Div(yieldFactor)
}
