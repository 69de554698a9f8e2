// C:\Users\wasab\OneDrive\デスクトップ\PYRO\aggregation\aggregation.go
package aggregation

import (
	"sort"

	"pyrotrack/model"
	"pyrotrack/pricing"

	"github.com/shopspring/decimal"
)

// Global は絞り込み後の記録全体を集計します。売上は実収ベースです。
func Global(records []model.OutboundRecord) model.GlobalStats {
	s := model.GlobalStats{
		Sales:            decimal.Zero,
		BaseCostProfit:   decimal.Zero,
		WholesaleSurplus: decimal.Zero,
		PersonalExtra:    decimal.Zero,
		TotalCost:        decimal.Zero,
		TotalWholesale:   decimal.Zero,
	}
	for _, rec := range records {
		s.Orders++
		s.Sales = s.Sales.Add(pricing.EffectiveActualReceived(rec))
		s.BaseCostProfit = s.BaseCostProfit.Add(pricing.BaseProfit(rec))
		s.WholesaleSurplus = s.WholesaleSurplus.Add(pricing.WholesaleSurplus(rec))
		s.PersonalExtra = s.PersonalExtra.Add(pricing.PersonalExtra(rec))
		s.TotalCost = s.TotalCost.Add(pricing.EffectiveCost(rec))
		s.TotalWholesale = s.TotalWholesale.Add(pricing.EffectiveWholesale(rec))
	}
	return s
}

// ByPerson は経手人ごとの集計を売上の多い順に返します。同額は名前順。
func ByPerson(records []model.OutboundRecord) []model.PersonSummary {
	index := make(map[string]int)
	var out []model.PersonSummary
	for _, rec := range records {
		i, ok := index[rec.Person]
		if !ok {
			i = len(out)
			index[rec.Person] = i
			out = append(out, model.PersonSummary{
				Name:             rec.Person,
				Sales:            decimal.Zero,
				BaseProfit:       decimal.Zero,
				WholesaleSurplus: decimal.Zero,
				PersonalExtra:    decimal.Zero,
				TotalCost:        decimal.Zero,
				TotalWholesale:   decimal.Zero,
			})
		}
		p := &out[i]
		p.Count++
		p.Sales = p.Sales.Add(pricing.EffectiveActualReceived(rec))
		p.BaseProfit = p.BaseProfit.Add(pricing.BaseProfit(rec))
		p.WholesaleSurplus = p.WholesaleSurplus.Add(pricing.WholesaleSurplus(rec))
		p.PersonalExtra = p.PersonalExtra.Add(pricing.PersonalExtra(rec))
		p.TotalCost = p.TotalCost.Add(pricing.EffectiveCost(rec))
		p.TotalWholesale = p.TotalWholesale.Add(pricing.EffectiveWholesale(rec))
	}

	sort.SliceStable(out, func(a, b int) bool {
		if c := out[a].Sales.Cmp(out[b].Sales); c != 0 {
			return c > 0
		}
		return out[a].Name < out[b].Name
	})
	return out
}

// Matrix は商品×経手人の出庫数量表を作ります。
// 箱とバラは記録の値をそのまま合算し、行は合計箱数の多い順に並べます。
func Matrix(records []model.OutboundRecord) model.ProductMatrix {
	rows := make(map[string]*model.MatrixRow)
	var order []string
	persons := make(map[string]bool)

	for _, rec := range records {
		persons[rec.Person] = true
		for _, line := range rec.Items {
			row, ok := rows[line.ProductName]
			if !ok {
				row = &model.MatrixRow{
					ProductName: line.ProductName,
					Cells:       make(map[string]model.Quantity),
					TotalBoxes:  decimal.Zero,
					TotalUnits:  decimal.Zero,
				}
				rows[line.ProductName] = row
				order = append(order, line.ProductName)
			}
			cell, ok := row.Cells[rec.Person]
			if !ok {
				cell = model.Quantity{Boxes: decimal.Zero, Units: decimal.Zero}
			}
			cell.Boxes = cell.Boxes.Add(line.QtyBoxes)
			cell.Units = cell.Units.Add(line.QtyUnits)
			row.Cells[rec.Person] = cell
			row.TotalBoxes = row.TotalBoxes.Add(line.QtyBoxes)
			row.TotalUnits = row.TotalUnits.Add(line.QtyUnits)
		}
	}

	m := model.ProductMatrix{
		Columns: make([]string, 0, len(persons)),
		Rows:    make([]model.MatrixRow, 0, len(order)),
	}
	for p := range persons {
		m.Columns = append(m.Columns, p)
	}
	sort.Strings(m.Columns)
	for _, name := range order {
		m.Rows = append(m.Rows, *rows[name])
	}
	sort.SliceStable(m.Rows, func(a, b int) bool {
		return m.Rows[a].TotalBoxes.GreaterThan(m.Rows[b].TotalBoxes)
	})
	return m
}
