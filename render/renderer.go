// C:\Users\wasab\OneDrive\デスクトップ\PYRO\render\renderer.go
package render

import (
	"bytes"
	"fmt"
	"html/template"

	"pyrotrack/mappers"
	"pyrotrack/model"
	"pyrotrack/pricing"

	"github.com/shopspring/decimal"
)

var slipTemplate = template.Must(template.New("slip").Funcs(template.FuncMap{
	"money": func(d decimal.Decimal) string { return "¥" + d.StringFixed(pricing.MoneyPrecision) },
}).Parse(`<!DOCTYPE html>
<html lang="zh-CN">
<head>
<meta charset="utf-8">
<title>出库单 {{.Record.Date}} {{.Record.Person}}</title>
<style>
  body { font-family: "Microsoft YaHei", "PingFang SC", sans-serif; font-size: 12px; margin: 16px; }
  h1 { font-size: 18px; margin: 0 0 8px; }
  .meta { margin-bottom: 8px; }
  table { width: 100%; border-collapse: collapse; }
  th, td { border: 1px solid #999; padding: 4px 6px; }
  th { background: #eee; }
  td.num { text-align: right; }
  tfoot td { font-weight: bold; }
  .logs { margin-top: 12px; color: #555; }
</style>
</head>
<body>
<h1>出库单</h1>
<div class="meta">日期: {{.Record.Date}}　经手人/客户: {{.Record.Person}}　单号: {{.Record.ID}}</div>
<table>
<thead>
<tr><th>#</th><th>商品名称</th><th>规格</th><th>数量</th><th>爽仓出库</th><th>峰仓出库</th><th>爽仓剩余</th><th>峰仓剩余</th><th>金额</th></tr>
</thead>
<tbody>
{{- range .Lines}}
<tr><td class="num">{{.No}}</td><td>{{.ProductName}}</td><td class="num">{{if .Spec}}{{.Spec}}{{else}}-{{end}}</td><td>{{.Qty}}</td><td>{{.OutShuang}}</td><td>{{.OutFeng}}</td><td>{{.RemainingShuang}}</td><td>{{.RemainingFeng}}</td><td class="num">{{money .SoldPrice}}</td></tr>
{{- else}}
<tr><td colspan="9">没有明细</td></tr>
{{- end}}
</tbody>
<tfoot>
<tr><td colspan="8">应收合计</td><td class="num">{{money .Record.TotalSale}}</td></tr>
<tr><td colspan="8">实收</td><td class="num">{{money .ActualReceived}}</td></tr>
</tfoot>
</table>
{{- if .Record.Logs}}
<div class="logs">
{{- range .Record.Logs}}
<div>{{.Timestamp.Format "2006/01/02 15:04"}} [{{.Action}}] {{.Details}}{{if .Note}} ({{.Note}}){{end}}</div>
{{- end}}
</div>
{{- end}}
</body>
</html>
`))

type slipData struct {
	Record         model.OutboundRecord
	Lines          []mappers.LineView
	ActualReceived decimal.Decimal
}

// RenderSlipHTML は出庫記録1件を印刷用の HTML にします。
func RenderSlipHTML(rec model.OutboundRecord) (string, error) {
	var buf bytes.Buffer
	err := slipTemplate.Execute(&buf, slipData{
		Record:         rec,
		Lines:          mappers.ToLineViews(rec),
		ActualReceived: pricing.EffectiveActualReceived(rec),
	})
	if err != nil {
		return "", fmt.Errorf("failed to render slip %s: %w", rec.ID, err)
	}
	return buf.String(), nil
}
