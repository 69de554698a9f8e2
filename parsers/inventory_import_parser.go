// C:\Users\wasab\OneDrive\デスクトップ\PYRO\parsers\inventory_import_parser.go
package parsers

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"pyrotrack/model"

	"github.com/xuri/excelize/v2"
)

// 取込ファイルの列 (0 始まり)
const (
	colName = iota
	colSpec
	colCostBox
	colCostUnit
	colWholesaleBox
	colWholesaleUnit
	colRetailBox
	colRetailUnit
	colShuangBoxes
	colFengBoxes
)

// ImportHeader はテンプレート出力と同じ列見出しです。
var ImportHeader = []string{
	"商品名称", "规格(个/箱)",
	"进价(箱)", "进价(个)",
	"批发价(箱)", "批发价(个)",
	"零售价(箱)", "零售价(个)",
	"爽仓库存(箱)", "峰仓库存(箱)",
}

// ParseInventoryCSV は在庫取込用の CSV (UTF-8 / GBK) を読み込みます。
func ParseInventoryCSV(r io.Reader) ([]model.ImportRow, error) {
	decoded, err := DecodeText(r)
	if err != nil {
		return nil, err
	}
	reader := csv.NewReader(decoded)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("CSVの読み取りに失敗: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("CSVファイルが空です")
	}
	return rowsToImport(rows), nil
}

// ParseInventoryXLSX は在庫取込用の Excel ファイルの先頭シートを読み込みます。
func ParseInventoryXLSX(r io.Reader) ([]model.ImportRow, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("Excelファイルを開けません: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("シートがありません")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("シート %s の読み取りに失敗: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("Excelファイルが空です")
	}
	return rowsToImport(rows), nil
}

func rowsToImport(rows [][]string) []model.ImportRow {
	var out []model.ImportRow
	for _, row := range rows[headerStart(rows):] {
		get := func(idx int) string {
			if idx < len(row) {
				return strings.TrimSpace(row[idx])
			}
			return ""
		}
		name := strings.TrimSpace(strings.NewReplacer("\r", "", "\n", "").Replace(get(colName)))
		if name == "" {
			continue
		}
		// 規格が空・不正なら 0 (既存品は既存の規格、新規は 1 になる)
		spec := int(ParseAmount(get(colSpec)).IntPart())
		if spec < 0 {
			spec = 0
		}
		out = append(out, model.ImportRow{
			Name:               name,
			Spec:               spec,
			CostPriceBox:       ParseAmount(get(colCostBox)),
			CostPriceUnit:      ParseAmount(get(colCostUnit)),
			WholesalePriceBox:  ParseAmount(get(colWholesaleBox)),
			WholesalePriceUnit: ParseAmount(get(colWholesaleUnit)),
			RetailPriceBox:     ParseAmount(get(colRetailBox)),
			RetailPriceUnit:    ParseAmount(get(colRetailUnit)),
			StockShuangBoxes:   ParseAmount(get(colShuangBoxes)),
			StockFengBoxes:     ParseAmount(get(colFengBoxes)),
		})
	}
	return out
}
