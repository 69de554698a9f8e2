// C:\Users\wasab\OneDrive\デスクトップ\PYRO\stock\merge.go
package stock

import (
	"pyrotrack/ledger"
	"pyrotrack/model"
	"pyrotrack/pricing"
	"pyrotrack/units"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MergeResult は一括取込の結果です。
type MergeResult struct {
	Items  []model.InventoryItem `json:"items"`
	Added  int                   `json:"added"`
	Merged int                   `json:"merged"`
}

/**
 * MergeImport は取込行を既存の在庫に名前 (完全一致) で突き合わせます。
 * 並び順は取込ファイルの順で、ファイルに含まれない既存商品はその後ろに元の順で残ります。
 * additive は在庫を加算し、overwrite は置き換えます。
 * 規格・価格はファイル側が 0 より大きい場合のみ上書きします。
 */
func MergeImport(existing []model.InventoryItem, rows []model.ImportRow, mode model.ImportMode) MergeResult {
	byName := make(map[string]int, len(existing))
	for i, it := range existing {
		byName[ledger.CleanName(it.Name)] = i
	}
	consumed := make(map[int]bool)
	produced := make(map[string]int)

	var res MergeResult
	for _, row := range rows {
		name := ledger.CleanName(row.Name)
		if name == "" {
			continue
		}

		// 同じファイル内で同名が再登場した場合は、先に作った行へ重ねる
		if pos, ok := produced[name]; ok {
			res.Items[pos] = mergeRow(res.Items[pos], row, mode)
			continue
		}

		if idx, ok := byName[name]; ok && !consumed[idx] {
			consumed[idx] = true
			produced[name] = len(res.Items)
			res.Items = append(res.Items, mergeRow(existing[idx], row, mode))
			res.Merged++
			continue
		}

		produced[name] = len(res.Items)
		res.Items = append(res.Items, newItem(name, row))
		res.Added++
	}

	for i, it := range existing {
		if !consumed[i] {
			res.Items = append(res.Items, it)
		}
	}
	return res
}

func newItem(name string, row model.ImportRow) model.InventoryItem {
	spec := row.Spec
	if spec <= 0 {
		spec = 1
	}
	retailBox := row.RetailPriceBox
	if !retailBox.IsPositive() {
		retailBox = row.WholesalePriceBox
	}
	item := model.InventoryItem{
		ID:                 uuid.NewString(),
		Name:               name,
		Spec:               spec,
		CostPriceBox:       row.CostPriceBox,
		WholesalePriceBox:  row.WholesalePriceBox,
		RetailPriceBox:     retailBox,
		CostPriceUnit:      unitPrice(row.CostPriceUnit, row.CostPriceBox, spec),
		WholesalePriceUnit: unitPrice(row.WholesalePriceUnit, row.WholesalePriceBox, spec),
		RetailPriceUnit:    unitPrice(row.RetailPriceUnit, retailBox, spec),
	}
	item = item.WithStock(model.WarehouseShuang, incoming(row.StockShuangBoxes, spec))
	item = item.WithStock(model.WarehouseFeng, incoming(row.StockFengBoxes, spec))
	return ledger.NormalizeItem(item)
}

func mergeRow(item model.InventoryItem, row model.ImportRow, mode model.ImportMode) model.InventoryItem {
	oldSpec := item.SafeSpec()
	spec := oldSpec
	if row.Spec > 0 {
		spec = row.Spec
	}

	for _, w := range model.Warehouses {
		add := units.ToUnits(importBoxes(row, w), decimal.Zero, spec)
		total := add
		if mode == model.ImportAdditive {
			total = units.QtyToUnits(item.Stock(w), oldSpec).Add(add)
		}
		item = item.WithStock(w, units.FromUnits(total, spec))
	}
	item.Spec = spec

	if row.CostPriceBox.IsPositive() {
		item.CostPriceBox = row.CostPriceBox
	}
	if row.WholesalePriceBox.IsPositive() {
		item.WholesalePriceBox = row.WholesalePriceBox
	}
	if row.RetailPriceBox.IsPositive() {
		item.RetailPriceBox = row.RetailPriceBox
	}
	item.CostPriceUnit = mergeUnitPrice(item.CostPriceUnit, row.CostPriceUnit, row.CostPriceBox, spec)
	item.WholesalePriceUnit = mergeUnitPrice(item.WholesalePriceUnit, row.WholesalePriceUnit, row.WholesalePriceBox, spec)
	item.RetailPriceUnit = mergeUnitPrice(item.RetailPriceUnit, row.RetailPriceUnit, row.RetailPriceBox, spec)
	return ledger.NormalizeItem(item)
}

func importBoxes(row model.ImportRow, w model.Warehouse) decimal.Decimal {
	if w == model.WarehouseShuang {
		return row.StockShuangBoxes
	}
	return row.StockFengBoxes
}

func incoming(boxes decimal.Decimal, spec int) model.Quantity {
	return units.FromUnits(units.ToUnits(boxes, decimal.Zero, spec), spec)
}

func unitPrice(unit, box decimal.Decimal, spec int) decimal.Decimal {
	if unit.IsPositive() {
		return unit
	}
	return pricing.DeriveUnitPrice(box, spec)
}

// バラ単価: ファイルに単価があればそれ、箱単価だけなら換算値、どちらもなければ既存値
func mergeUnitPrice(current, unit, box decimal.Decimal, spec int) decimal.Decimal {
	switch {
	case unit.IsPositive():
		return unit
	case box.IsPositive():
		return pricing.DeriveUnitPrice(box, spec)
	default:
		return current
	}
}
