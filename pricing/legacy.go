// C:\Users\wasab\OneDrive\デスクトップ\PYRO\pricing\legacy.go
package pricing

import (
	"pyrotrack/model"

	"github.com/shopspring/decimal"
)

// 旧形式の記録は actualReceived や新しい利益項目を持たないことがあります。
// 集計と CSV 出力はこの関数群を通して値を読みます。

// EffectiveActualReceived は実収 (未設定なら売価合計) を返します。
func EffectiveActualReceived(rec model.OutboundRecord) decimal.Decimal {
	if rec.ActualReceived.Valid {
		return rec.ActualReceived.Decimal
	}
	return rec.TotalSale
}

// EffectiveCost は原価合計 (ゼロなら明細合計) を返します。
func EffectiveCost(rec model.OutboundRecord) decimal.Decimal {
	if !rec.TotalCostValue.IsZero() {
		return rec.TotalCostValue
	}
	return Sum(rec.Items).TotalCostValue
}

// EffectiveWholesale は卸値合計 (ゼロなら明細合計) を返します。
func EffectiveWholesale(rec model.OutboundRecord) decimal.Decimal {
	if !rec.TotalWholesaleValue.IsZero() {
		return rec.TotalWholesaleValue
	}
	return Sum(rec.Items).TotalWholesaleValue
}

func recomputed(rec model.OutboundRecord) Profit {
	t := Sum(rec.Items)
	t.TotalCostValue = EffectiveCost(rec)
	t.TotalWholesaleValue = EffectiveWholesale(rec)
	return ComputeProfit(t, EffectiveActualReceived(rec))
}

// BaseProfit は totalBaseProfit → totalCostProfit → 明細からの再計算 の順に読みます。
func BaseProfit(rec model.OutboundRecord) decimal.Decimal {
	switch {
	case rec.TotalBaseProfit.Valid:
		return rec.TotalBaseProfit.Decimal
	case rec.TotalCostProfit.Valid:
		return rec.TotalCostProfit.Decimal
	case len(rec.Items) > 0:
		return recomputed(rec).BaseCostProfit
	}
	return decimal.Zero
}

// WholesaleSurplus は totalWholesaleSurplus → totalWholesaleProfit → 再計算 の順に読みます。
func WholesaleSurplus(rec model.OutboundRecord) decimal.Decimal {
	switch {
	case rec.TotalWholesaleSurplus.Valid:
		return rec.TotalWholesaleSurplus.Decimal
	case rec.TotalWholesaleProfit.Valid:
		return rec.TotalWholesaleProfit.Decimal
	case len(rec.Items) > 0:
		return recomputed(rec).WholesaleSurplus
	}
	return decimal.Zero
}

// PersonalExtra は totalPersonalExtra を読みます。旧形式には存在しないため 0。
func PersonalExtra(rec model.OutboundRecord) decimal.Decimal {
	if rec.TotalPersonalExtra.Valid {
		return rec.TotalPersonalExtra.Decimal
	}
	return decimal.Zero
}
