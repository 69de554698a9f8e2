// C:\Users\wasab\OneDrive\デスクトップ\PYRO\valuation\valuation.go
package valuation

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"pyrotrack/model"
	"pyrotrack/parsers"
	"pyrotrack/pricing"
	"pyrotrack/units"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Compute は在庫の原価・卸値・小売の評価額を商品ごとに計算します。
// 評価額は 2 桁に丸め、合計は丸めた値の和です。
func Compute(items []model.InventoryItem) model.ValuationResult {
	res := model.ValuationResult{
		Rows:           make([]model.ValuationRow, 0, len(items)),
		CostValue:      decimal.Zero,
		WholesaleValue: decimal.Zero,
		RetailValue:    decimal.Zero,
	}
	for _, it := range items {
		row := model.ValuationRow{
			ID:          it.ID,
			Name:        it.Name,
			Spec:        it.Spec,
			ShuangUnits: units.QtyToUnits(it.Stock(model.WarehouseShuang), it.Spec),
			FengUnits:   units.QtyToUnits(it.Stock(model.WarehouseFeng), it.Spec),
		}
		// 過去の出庫で在庫がマイナスになった商品
		row.ShowAlert = row.ShuangUnits.IsNegative() || row.FengUnits.IsNegative()

		v := pricing.ValueLine(it, row.ShuangUnits.Add(row.FengUnits))
		row.CostValue = v.CostTotal.Round(pricing.MoneyPrecision)
		row.WholesaleValue = v.WholesaleTotal.Round(pricing.MoneyPrecision)
		row.RetailValue = v.RetailTotal.Round(pricing.MoneyPrecision)

		res.CostValue = res.CostValue.Add(row.CostValue)
		res.WholesaleValue = res.WholesaleValue.Add(row.WholesaleValue)
		res.RetailValue = res.RetailValue.Add(row.RetailValue)
		res.Rows = append(res.Rows, row)
	}
	return res
}

var inventoryHeader = []string{
	"商品名称", "规格(个/箱)",
	"成本价(箱)", "成本价(个)",
	"批发价(箱)", "批发价(个)",
	"零售价(箱)", "零售价(个)",
	"爽仓库存(箱)", "爽仓库存(个)",
	"峰仓库存(箱)", "峰仓库存(个)",
}

func inventoryRecord(it model.InventoryItem) []string {
	return []string{
		it.Name, strconv.Itoa(it.Spec),
		it.CostPriceBox.String(), it.CostPriceUnit.String(),
		it.WholesalePriceBox.String(), it.WholesalePriceUnit.String(),
		it.RetailPriceBox.String(), it.RetailPriceUnit.String(),
		it.StockShuangBoxes.String(), it.StockShuangUnits.String(),
		it.StockFengBoxes.String(), it.StockFengUnits.String(),
	}
}

// WriteInventoryCSV は在庫明細を Excel で開ける CSV (BOM 付き UTF-8) で書き出します。
func WriteInventoryCSV(w io.Writer, items []model.InventoryItem) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(inventoryHeader); err != nil {
		return err
	}
	for _, it := range items {
		if err := cw.Write(inventoryRecord(it)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteInventoryXLSX は在庫明細を Excel ファイルで書き出します。
func WriteInventoryXLSX(w io.Writer, items []model.InventoryItem) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "库存明细"
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return err
	}
	write := func(rowNum int, values []string) error {
		cell, err := excelize.CoordinatesToCellName(1, rowNum)
		if err != nil {
			return err
		}
		row := make([]interface{}, len(values))
		for i, v := range values {
			row[i] = v
		}
		// 名前・規格以外は数値セルにする
		for i := 1; rowNum > 1 && i < len(values); i++ {
			if n, err := strconv.ParseFloat(values[i], 64); err == nil {
				row[i] = n
			}
		}
		return f.SetSheetRow(sheet, cell, &row)
	}

	if err := write(1, inventoryHeader); err != nil {
		return err
	}
	for i, it := range items {
		if err := write(i+2, inventoryRecord(it)); err != nil {
			return fmt.Errorf("row %d: %w", i+2, err)
		}
	}
	return f.Write(w)
}

var templateSample = []string{
	"示例商品-黄金加特林", "10",
	"200", "20",
	"220", "22",
	"250", "25",
	"50", "20",
}

// WriteImportTemplate は取込用テンプレート (見出し + 記入例1行) を書き出します。
// 列の並びは parsers の取込列と同じです。
func WriteImportTemplate(w io.Writer) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(parsers.ImportHeader); err != nil {
		return err
	}
	if err := cw.Write(templateSample); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}
