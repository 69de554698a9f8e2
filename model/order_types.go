// C:\Users\wasab\OneDrive\デスクトップ\PYRO\model\order_types.go
package model

import "github.com/shopspring/decimal"

// ParsedLine は解析器 (正規表現 / AI) が抽出した1行です。
type ParsedLine struct {
	RawLine     string          `json:"rawLine"`
	ProductName string          `json:"productName"`
	QtyBoxes    decimal.Decimal `json:"qtyBoxes"`
	QtyUnits    decimal.Decimal `json:"qtyUnits"`
	SoldPrice   decimal.Decimal `json:"soldPrice"` // 行合計の売価
}

// ParsedOrder は解析結果です。
type ParsedOrder struct {
	Date   string       `json:"date"`
	Person string       `json:"person"`
	Lines  []ParsedLine `json:"items"`
}

// DraftLine は確定前の明細行です。爽仓の割当は既定 0 (全量を峰仓へ)。
type DraftLine struct {
	RawLine     string          `json:"rawLine"`
	ProductName string          `json:"productName" binding:"required"`
	MatchedID   string          `json:"matchedInventoryId,omitempty"`
	QtyBoxes    decimal.Decimal `json:"qtyBoxes"`
	QtyUnits    decimal.Decimal `json:"qtyUnits"`
	SoldPrice   decimal.Decimal `json:"soldPrice"`

	AssignedShuangBoxes decimal.Decimal `json:"assignedShuangBoxes"`
	AssignedShuangUnits decimal.Decimal `json:"assignedShuangUnits"`
}

func (d DraftLine) Qty() Quantity {
	return Quantity{Boxes: d.QtyBoxes, Units: d.QtyUnits}
}

func (d DraftLine) AssignedShuang() Quantity {
	return Quantity{Boxes: d.AssignedShuangBoxes, Units: d.AssignedShuangUnits}
}

// Draft は解析済み・未確定の出庫伝票です。
type Draft struct {
	Date    string      `json:"date"`
	Person  string      `json:"person"`
	RawText string      `json:"rawText"`
	Lines   []DraftLine `json:"items" binding:"required,min=1,dive"`
	// ActualReceived が未指定なら売価合計を実収とします。
	ActualReceived decimal.NullDecimal `json:"actualReceived"`
}

// EditLine は訂正モードで操作者が入力する行の値です。
type EditLine struct {
	QtyBoxes            decimal.Decimal `json:"qtyBoxes"`
	QtyUnits            decimal.Decimal `json:"qtyUnits"`
	AssignedShuangBoxes decimal.Decimal `json:"outShuangBoxes"`
	AssignedShuangUnits decimal.Decimal `json:"outShuangUnits"`
	SoldPrice           decimal.Decimal `json:"soldPrice"`
}

func (e EditLine) Qty() Quantity {
	return Quantity{Boxes: e.QtyBoxes, Units: e.QtyUnits}
}

func (e EditLine) AssignedShuang() Quantity {
	return Quantity{Boxes: e.AssignedShuangBoxes, Units: e.AssignedShuangUnits}
}

// ReturnLine は返品数量 (行ごと) です。
type ReturnLine struct {
	Boxes decimal.Decimal `json:"boxes"`
	Units decimal.Decimal `json:"units"`
}

func (r ReturnLine) Qty() Quantity {
	return Quantity{Boxes: r.Boxes, Units: r.Units}
}

// UnknownPerson は経手人が読み取れなかった場合の既定値です。
const UnknownPerson = "未知用户"
