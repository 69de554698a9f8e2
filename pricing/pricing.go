// C:\Users\wasab\OneDrive\デスクトップ\PYRO\pricing\pricing.go
package pricing

import (
	"pyrotrack/model"
	"pyrotrack/units"

	"github.com/shopspring/decimal"
)

// UnitPrice はバラ単価を (金額 / 除数) の形で保持します。
// 箱単価から導出した単価は割り切れないことがあるため、乗算を先に行います。
type UnitPrice struct {
	Amount  decimal.Decimal
	Divisor decimal.Decimal
}

// Of は units 個分の金額を返します。
func (p UnitPrice) Of(totalUnits decimal.Decimal) decimal.Decimal {
	if p.Divisor.IsZero() {
		return decimal.Zero
	}
	return totalUnits.Mul(p.Amount).Div(p.Divisor)
}

// Value は単価そのもの (表示用) です。
func (p UnitPrice) Value() decimal.Decimal {
	return p.Of(decimal.NewFromInt(1))
}

var one = decimal.NewFromInt(1)

func perUnit(unit, box decimal.Decimal, spec int) UnitPrice {
	if unit.IsPositive() {
		return UnitPrice{Amount: unit, Divisor: one}
	}
	return UnitPrice{Amount: box, Divisor: units.SafeSpec(spec)}
}

// UnitPrices は商品の原価・卸値・小売のバラ単価です。
type UnitPrices struct {
	Cost      UnitPrice
	Wholesale UnitPrice
	Retail    UnitPrice
}

// PricesFor はバラ単価を導出します。バラ単価が未設定なら 箱単価/規格。
// 小売単価は 小売箱単価 → 卸バラ単価 の順にフォールバックします。
func PricesFor(item model.InventoryItem) UnitPrices {
	p := UnitPrices{
		Cost:      perUnit(item.CostPriceUnit, item.CostPriceBox, item.Spec),
		Wholesale: perUnit(item.WholesalePriceUnit, item.WholesalePriceBox, item.Spec),
	}
	switch {
	case item.RetailPriceUnit.IsPositive():
		p.Retail = UnitPrice{Amount: item.RetailPriceUnit, Divisor: one}
	case item.RetailPriceBox.IsPositive():
		p.Retail = UnitPrice{Amount: item.RetailPriceBox, Divisor: units.SafeSpec(item.Spec)}
	default:
		p.Retail = p.Wholesale
	}
	return p
}

// LineValuation は1行の評価額です。
type LineValuation struct {
	CostTotal      decimal.Decimal `json:"costTotal"`
	WholesaleTotal decimal.Decimal `json:"wholesaleTotal"`
	RetailTotal    decimal.Decimal `json:"retailTotal"`
}

// ValueLine は totalUnits 個分の原価・卸・小売評価額を計算します。
func ValueLine(item model.InventoryItem, totalUnits decimal.Decimal) LineValuation {
	p := PricesFor(item)
	return LineValuation{
		CostTotal:      p.Cost.Of(totalUnits),
		WholesaleTotal: p.Wholesale.Of(totalUnits),
		RetailTotal:    p.Retail.Of(totalUnits),
	}
}

// Totals は伝票全体の集計値です。
type Totals struct {
	TotalSale            decimal.Decimal `json:"totalSale"`
	TotalCostValue       decimal.Decimal `json:"totalCostValue"`
	TotalWholesaleValue  decimal.Decimal `json:"totalWholesaleValue"`
	TotalRetailValuation decimal.Decimal `json:"totalRetailValuation"`
}

// Sum は明細行から集計値を作ります。TotalSale は申告売価の合計で、評価額とは独立です。
func Sum(lines []model.OrderLine) Totals {
	t := Totals{
		TotalSale:            decimal.Zero,
		TotalCostValue:       decimal.Zero,
		TotalWholesaleValue:  decimal.Zero,
		TotalRetailValuation: decimal.Zero,
	}
	for _, l := range lines {
		t.TotalSale = t.TotalSale.Add(l.SoldPrice)
		t.TotalCostValue = t.TotalCostValue.Add(l.CostTotal)
		t.TotalWholesaleValue = t.TotalWholesaleValue.Add(l.WholesaleTotal)
		t.TotalRetailValuation = t.TotalRetailValuation.Add(l.RetailTotal)
	}
	return t
}

// Profit は利益指標です。
type Profit struct {
	PersonalExtra    decimal.Decimal `json:"personalExtra"`
	WholesaleSurplus decimal.Decimal `json:"wholesaleSurplus"`
	BaseCostProfit   decimal.Decimal `json:"baseCostProfit"`

	LegacyCostProfit      decimal.Decimal `json:"legacyCostProfit"`
	LegacyWholesaleProfit decimal.Decimal `json:"legacyWholesaleProfit"`
}

// ComputeProfit は個人加算 → 卸超過 → 基本利益 の順に計算します (順序依存)。
func ComputeProfit(t Totals, actualReceived decimal.Decimal) Profit {
	personalExtra := decimal.Max(decimal.Zero, actualReceived.Sub(t.TotalRetailValuation))
	wholesaleSurplus := actualReceived.Sub(t.TotalWholesaleValue).Sub(personalExtra)
	baseCostProfit := t.TotalWholesaleValue.Sub(t.TotalCostValue)
	return Profit{
		PersonalExtra:         personalExtra,
		WholesaleSurplus:      wholesaleSurplus,
		BaseCostProfit:        baseCostProfit,
		LegacyCostProfit:      actualReceived.Sub(t.TotalCostValue),
		LegacyWholesaleProfit: actualReceived.Sub(t.TotalWholesaleValue),
	}
}

// ApplyTotals は集計値と利益を記録に書き込みます。
func ApplyTotals(rec *model.OutboundRecord, actualReceived decimal.Decimal) {
	t := Sum(rec.Items)
	p := ComputeProfit(t, actualReceived)
	rec.TotalSale = t.TotalSale
	rec.ActualReceived = decimal.NewNullDecimal(actualReceived)
	rec.TotalCostValue = t.TotalCostValue
	rec.TotalWholesaleValue = t.TotalWholesaleValue
	rec.TotalPersonalExtra = decimal.NewNullDecimal(p.PersonalExtra)
	rec.TotalWholesaleSurplus = decimal.NewNullDecimal(p.WholesaleSurplus)
	rec.TotalBaseProfit = decimal.NewNullDecimal(p.BaseCostProfit)
	rec.TotalCostProfit = decimal.NewNullDecimal(p.LegacyCostProfit)
	rec.TotalWholesaleProfit = decimal.NewNullDecimal(p.LegacyWholesaleProfit)
}

// DeriveUnitPrice は 箱単価/規格 を小数2桁に丸めます (商品保存時の単価補完)。
func DeriveUnitPrice(box decimal.Decimal, spec int) decimal.Decimal {
	if box.IsZero() || spec <= 0 {
		return decimal.Zero
	}
	return box.Div(decimal.NewFromInt(int64(spec))).Round(2)
}

// MoneyPrecision は按分後の金額の桁数です。
const MoneyPrecision = 2

// Scale は amount を num/den の比率で按分します。den がゼロなら 0。
func Scale(amount, num, den decimal.Decimal) decimal.Decimal {
	if den.IsZero() {
		return decimal.Zero
	}
	return amount.Mul(num).Div(den).Round(MoneyPrecision)
}
