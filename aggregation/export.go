// C:\Users\wasab\OneDrive\デスクトップ\PYRO\aggregation\export.go
package aggregation

import (
	"encoding/csv"
	"io"
	"strconv"

	"pyrotrack/model"
	"pyrotrack/pricing"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

func writeCSV(w io.Writer, header []string, rows [][]string) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	if err := cw.WriteAll(rows); err != nil {
		return err
	}
	return cw.Error()
}

// WriteDetailCSV は明細単位の出庫一覧を書き出します。金額列は伝票全体の値です。
func WriteDetailCSV(w io.Writer, records []model.OutboundRecord) error {
	header := []string{
		"日期", "经手人/客户",
		"商品名称", "数量(箱)", "数量(个)",
		"订单总应收(元)", "订单总实收(元)", "订单总批发(元)", "订单总成本(元)",
	}
	var rows [][]string
	for _, rec := range records {
		received := pricing.EffectiveActualReceived(rec).StringFixed(pricing.MoneyPrecision)
		wholesale := pricing.EffectiveWholesale(rec).StringFixed(pricing.MoneyPrecision)
		cost := pricing.EffectiveCost(rec).StringFixed(pricing.MoneyPrecision)
		for _, line := range rec.Items {
			rows = append(rows, []string{
				rec.Date, rec.Person,
				line.ProductName, line.QtyBoxes.String(), line.QtyUnits.String(),
				rec.TotalSale.StringFixed(pricing.MoneyPrecision), received, wholesale, cost,
			})
		}
	}
	return writeCSV(w, header, rows)
}

// WriteSummaryCSV は経手人ごとの集計を書き出します。
func WriteSummaryCSV(w io.Writer, records []model.OutboundRecord) error {
	header := []string{
		"经手人/客户", "订单数", "总实收金额",
		"总成本", "总批发额",
		"成本利润", "批发收益", "个人额外",
	}
	summaries := ByPerson(records)
	rows := make([][]string, 0, len(summaries))
	for _, s := range summaries {
		rows = append(rows, []string{
			s.Name,
			strconv.Itoa(s.Count),
			s.Sales.StringFixed(pricing.MoneyPrecision),
			s.TotalCost.StringFixed(pricing.MoneyPrecision),
			s.TotalWholesale.StringFixed(pricing.MoneyPrecision),
			s.BaseProfit.StringFixed(pricing.MoneyPrecision),
			s.WholesaleSurplus.StringFixed(pricing.MoneyPrecision),
			s.PersonalExtra.StringFixed(pricing.MoneyPrecision),
		})
	}
	return writeCSV(w, header, rows)
}
