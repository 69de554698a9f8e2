// C:\Users\wasab\OneDrive\デスクトップ\PYRO\model\transaction_types.go
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ActionKind は出庫記録の変更履歴の種別です。
type ActionKind string

const (
	ActionCreate ActionKind = "CREATE"
	ActionEdit   ActionKind = "EDIT"
	ActionReturn ActionKind = "RETURN"
)

// ModificationLog は出庫記録に追記される変更履歴です。
type ModificationLog struct {
	Timestamp time.Time  `json:"timestamp"`
	Action    ActionKind `json:"action"`
	Details   string     `json:"details"`
	Note      string     `json:"note,omitempty"`
}

// OrderLine は出庫記録の明細行です。
// 出庫数は常に OutShuang + OutFeng == Qty (バラ換算) を満たします。
type OrderLine struct {
	InvID       string `json:"invId,omitempty"`
	ProductName string `json:"productName"`
	// Spec は確定時点の規格です。0 は旧データで、現在の商品規格を使います。
	Spec int `json:"spec,omitempty"`

	QtyBoxes decimal.Decimal `json:"qtyBoxes"`
	QtyUnits decimal.Decimal `json:"qtyUnits"`

	OutShuangBoxes decimal.Decimal `json:"outShuangBoxes"`
	OutShuangUnits decimal.Decimal `json:"outShuangUnits"`
	OutFengBoxes   decimal.Decimal `json:"outFengBoxes"`
	OutFengUnits   decimal.Decimal `json:"outFengUnits"`

	RemainingShuangBoxes decimal.Decimal `json:"remainingShuangBoxes"`
	RemainingShuangUnits decimal.Decimal `json:"remainingShuangUnits"`
	RemainingFengBoxes   decimal.Decimal `json:"remainingFengBoxes"`
	RemainingFengUnits   decimal.Decimal `json:"remainingFengUnits"`

	SoldPrice      decimal.Decimal `json:"soldPrice"`
	CostTotal      decimal.Decimal `json:"costTotal"`
	WholesaleTotal decimal.Decimal `json:"wholesaleTotal"`
	RetailTotal    decimal.Decimal `json:"retailTotal"`
}

func (l OrderLine) Qty() Quantity {
	return Quantity{Boxes: l.QtyBoxes, Units: l.QtyUnits}
}

// Out は指定倉庫からの出庫数です。
func (l OrderLine) Out(w Warehouse) Quantity {
	if w == WarehouseShuang {
		return Quantity{Boxes: l.OutShuangBoxes, Units: l.OutShuangUnits}
	}
	return Quantity{Boxes: l.OutFengBoxes, Units: l.OutFengUnits}
}

// Remaining は出庫直後の指定倉庫の残在庫スナップショットです。
func (l OrderLine) Remaining(w Warehouse) Quantity {
	if w == WarehouseShuang {
		return Quantity{Boxes: l.RemainingShuangBoxes, Units: l.RemainingShuangUnits}
	}
	return Quantity{Boxes: l.RemainingFengBoxes, Units: l.RemainingFengUnits}
}

func (l *OrderLine) SetQty(q Quantity) {
	l.QtyBoxes, l.QtyUnits = q.Boxes, q.Units
}

func (l *OrderLine) SetOut(w Warehouse, q Quantity) {
	if w == WarehouseShuang {
		l.OutShuangBoxes, l.OutShuangUnits = q.Boxes, q.Units
	} else {
		l.OutFengBoxes, l.OutFengUnits = q.Boxes, q.Units
	}
}

func (l *OrderLine) SetRemaining(w Warehouse, q Quantity) {
	if w == WarehouseShuang {
		l.RemainingShuangBoxes, l.RemainingShuangUnits = q.Boxes, q.Units
	} else {
		l.RemainingFengBoxes, l.RemainingFengUnits = q.Boxes, q.Units
	}
}

// OutboundRecord は確定済みの出庫記録です。
// 編集・返品は常に新しい値を作り、Logs に1件追記します。
type OutboundRecord struct {
	ID     string      `json:"id"`
	Date   string      `json:"date"`
	Person string      `json:"person"`
	Items  []OrderLine `json:"items"`

	TotalSale      decimal.Decimal     `json:"totalSale"`
	ActualReceived decimal.NullDecimal `json:"actualReceived"`

	TotalCostValue      decimal.Decimal `json:"totalCostValue"`
	TotalWholesaleValue decimal.Decimal `json:"totalWholesaleValue"`

	// 旧形式の利益 (実収 - 原価, 実収 - 卸値)
	TotalCostProfit      decimal.NullDecimal `json:"totalCostProfit"`
	TotalWholesaleProfit decimal.NullDecimal `json:"totalWholesaleProfit"`

	TotalBaseProfit       decimal.NullDecimal `json:"totalBaseProfit"`
	TotalWholesaleSurplus decimal.NullDecimal `json:"totalWholesaleSurplus"`
	TotalPersonalExtra    decimal.NullDecimal `json:"totalPersonalExtra"`

	Logs    []ModificationLog `json:"logs,omitempty"`
	RawText string            `json:"rawText"`
}

// Clone は明細と履歴をコピーした値を返します。
func (r OutboundRecord) Clone() OutboundRecord {
	r.Items = append([]OrderLine(nil), r.Items...)
	r.Logs = append([]ModificationLog(nil), r.Logs...)
	return r
}
