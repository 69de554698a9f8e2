// C:\Users\wasab\OneDrive\デスクトップ\PYRO\mappers\view.go
package mappers

import (
	"pyrotrack/model"
	"pyrotrack/units"

	"github.com/shopspring/decimal"
)

// LineView は出庫明細の表示用の行です (伝票・CSV 出力で共通)。
type LineView struct {
	No              int
	ProductName     string
	Spec            int
	Qty             string
	OutShuang       string
	OutFeng         string
	RemainingShuang string
	RemainingFeng   string
	SoldPrice       decimal.Decimal
	CostTotal       decimal.Decimal
	WholesaleTotal  decimal.Decimal
	RetailTotal     decimal.Decimal
}

// ToLineViews は出庫記録の明細を表示用に変換します。
func ToLineViews(rec model.OutboundRecord) []LineView {
	views := make([]LineView, 0, len(rec.Items))
	for i, l := range rec.Items {
		views = append(views, LineView{
			No:              i + 1,
			ProductName:     l.ProductName,
			Spec:            l.Spec,
			Qty:             units.FormatQty(l.Qty()),
			OutShuang:       units.FormatQty(l.Out(model.WarehouseShuang)),
			OutFeng:         units.FormatQty(l.Out(model.WarehouseFeng)),
			RemainingShuang: units.FormatQty(l.Remaining(model.WarehouseShuang)),
			RemainingFeng:   units.FormatQty(l.Remaining(model.WarehouseFeng)),
			SoldPrice:       l.SoldPrice,
			CostTotal:       l.CostTotal,
			WholesaleTotal:  l.WholesaleTotal,
			RetailTotal:     l.RetailTotal,
		})
	}
	return views
}
