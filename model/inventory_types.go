// C:\Users\wasab\OneDrive\デスクトップ\PYRO\model\inventory_types.go
package model

import "github.com/shopspring/decimal"

// Warehouse は在庫を保持する倉庫の名前です。
type Warehouse string

const (
	WarehouseShuang Warehouse = "Shuang" // 爽仓: 手動で割り当てる倉庫
	WarehouseFeng   Warehouse = "Feng"   // 峰仓: 既定の出庫先
)

// Warehouses は倉庫の並び順です。返品時の戻し順はこの逆順 (Feng が先) になります。
var Warehouses = []Warehouse{WarehouseShuang, WarehouseFeng}

// Quantity は (箱, バラ) の組で表した数量です。
type Quantity struct {
	Boxes decimal.Decimal `json:"boxes"`
	Units decimal.Decimal `json:"units"`
}

// IsZero は箱・バラともにゼロかどうかを返します。
func (q Quantity) IsZero() bool {
	return q.Boxes.IsZero() && q.Units.IsZero()
}

// InventoryItem は商品マスタと2倉庫の在庫です。
type InventoryItem struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Spec int    `json:"spec"` // 1箱あたりの個数

	CostPriceBox      decimal.Decimal `json:"costPriceBox"`
	WholesalePriceBox decimal.Decimal `json:"wholesalePriceBox"`
	RetailPriceBox    decimal.Decimal `json:"retailPriceBox"`

	CostPriceUnit      decimal.Decimal `json:"costPriceUnit"`
	WholesalePriceUnit decimal.Decimal `json:"wholesalePriceUnit"`
	RetailPriceUnit    decimal.Decimal `json:"retailPriceUnit"`

	StockShuangBoxes decimal.Decimal `json:"stockShuangBoxes"`
	StockShuangUnits decimal.Decimal `json:"stockShuangUnits"`
	StockFengBoxes   decimal.Decimal `json:"stockFengBoxes"`
	StockFengUnits   decimal.Decimal `json:"stockFengUnits"`
}

// SafeSpec は 0 以下の規格を 1 として返します。
func (i InventoryItem) SafeSpec() int {
	if i.Spec <= 0 {
		return 1
	}
	return i.Spec
}

// Stock は指定倉庫の在庫を返します。
func (i InventoryItem) Stock(w Warehouse) Quantity {
	if w == WarehouseShuang {
		return Quantity{Boxes: i.StockShuangBoxes, Units: i.StockShuangUnits}
	}
	return Quantity{Boxes: i.StockFengBoxes, Units: i.StockFengUnits}
}

// WithStock は指定倉庫の在庫を差し替えたコピーを返します。
func (i InventoryItem) WithStock(w Warehouse, q Quantity) InventoryItem {
	if w == WarehouseShuang {
		i.StockShuangBoxes, i.StockShuangUnits = q.Boxes, q.Units
	} else {
		i.StockFengBoxes, i.StockFengUnits = q.Boxes, q.Units
	}
	return i
}

// ImportMode はバルク取込時の在庫の扱いです。
type ImportMode string

const (
	ImportOverwrite ImportMode = "overwrite"
	ImportAdditive  ImportMode = "additive"
)

// ImportRow は取込ファイル (CSV/XLSX/AI) の1行です。
type ImportRow struct {
	Name string `json:"name"`
	Spec int    `json:"spec"`

	CostPriceBox       decimal.Decimal `json:"costPriceBox"`
	CostPriceUnit      decimal.Decimal `json:"costPriceUnit"`
	WholesalePriceBox  decimal.Decimal `json:"wholesalePriceBox"`
	WholesalePriceUnit decimal.Decimal `json:"wholesalePriceUnit"`
	RetailPriceBox     decimal.Decimal `json:"retailPriceBox"`
	RetailPriceUnit    decimal.Decimal `json:"retailPriceUnit"`

	StockShuangBoxes decimal.Decimal `json:"stockShuangBoxes"`
	StockFengBoxes   decimal.Decimal `json:"stockFengBoxes"`
}

// 永続化ストアのコレクション名
const (
	CollectionInventory = "inventory"
	CollectionHistory   = "history"
)
