// C:\Users\wasab\OneDrive\デスクトップ\PYRO\model\aggregation_types.go
package model

import "github.com/shopspring/decimal"

// AggregationFilters は統計時の絞り込み条件です。
type AggregationFilters struct {
	Persons   []string `form:"person"`
	StartDate string   `form:"startDate"`
	EndDate   string   `form:"endDate"`
}

// GlobalStats は絞り込み後の全体集計です。
type GlobalStats struct {
	Orders           int             `json:"orders"`
	Sales            decimal.Decimal `json:"sales"`
	BaseCostProfit   decimal.Decimal `json:"baseCostProfit"`
	WholesaleSurplus decimal.Decimal `json:"wholesaleSurplus"`
	PersonalExtra    decimal.Decimal `json:"personalExtra"`
	TotalCost        decimal.Decimal `json:"totalCost"`
	TotalWholesale   decimal.Decimal `json:"totalWholesale"`
}

// PersonSummary は経手人ごとの集計行です。
type PersonSummary struct {
	Name             string          `json:"name"`
	Count            int             `json:"count"`
	Sales            decimal.Decimal `json:"sales"`
	BaseProfit       decimal.Decimal `json:"baseProfit"`
	WholesaleSurplus decimal.Decimal `json:"wholesaleSurplus"`
	PersonalExtra    decimal.Decimal `json:"personalExtra"`
	TotalCost        decimal.Decimal `json:"totalCost"`
	TotalWholesale   decimal.Decimal `json:"totalWholesale"`
}

// MatrixRow は商品×経手人マトリクスの1行です。Cells のキーは経手人名。
type MatrixRow struct {
	ProductName string              `json:"productName"`
	Cells       map[string]Quantity `json:"cells"`
	TotalBoxes  decimal.Decimal     `json:"totalBoxes"`
	TotalUnits  decimal.Decimal     `json:"totalUnits"`
}

// ProductMatrix は商品×経手人の出庫数量表です。
type ProductMatrix struct {
	Columns []string    `json:"columns"`
	Rows    []MatrixRow `json:"rows"`
}

// ValuationRow は在庫評価の明細行です。
type ValuationRow struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Spec           int             `json:"spec"`
	ShuangUnits    decimal.Decimal `json:"shuangUnits"`
	FengUnits      decimal.Decimal `json:"fengUnits"`
	CostValue      decimal.Decimal `json:"costValue"`
	WholesaleValue decimal.Decimal `json:"wholesaleValue"`
	RetailValue    decimal.Decimal `json:"retailValue"`
	ShowAlert      bool            `json:"showAlert"`
}

// ValuationResult は在庫評価の合計と明細です。
type ValuationResult struct {
	Rows           []ValuationRow  `json:"rows"`
	CostValue      decimal.Decimal `json:"costValue"`
	WholesaleValue decimal.Decimal `json:"wholesaleValue"`
	RetailValue    decimal.Decimal `json:"retailValue"`
}
