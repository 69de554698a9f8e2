// C:\Users\wasab\OneDrive\デスクトップ\PYRO\parsers\outbound_text_parser.go
package parsers

import (
	"context"
	"regexp"
	"strings"
	"time"

	"pyrotrack/model"
)

var (
	// 📅 2026/1/1 (💁海哥)
	headerRe = regexp.MustCompile(`📅\s*(.*?)\s*\(\s*[💁👤]?\s*(.*?)\s*\)`)
	// 1. 商品名: 3箱5个 = ¥1,200.00  ("1、" も可)
	itemRe = regexp.MustCompile(`^(\d+)[.、]\s*(.+?)[:：]\s*(.+?)\s*=\s*[￥¥]?([\d.,]+)`)
	boxRe  = regexp.MustCompile(`([\d.,]+)\s*箱`)
	unitRe = regexp.MustCompile(`([\d.,]+)\s*个`)
)

// ParseOutboundText は定型の出庫テキストを解析します。
// 1行目が日付・経手人のヘッダーでなければ、日付は now、経手人は既定値になります。
// 合計行は読み飛ばします。該当行がなければ Lines は空です。
func ParseOutboundText(text string, now time.Time) model.ParsedOrder {
	var lines []string
	for _, l := range strings.Split(text, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}

	order := model.ParsedOrder{
		Date:   now.Format("2006/1/2"),
		Person: model.UnknownPerson,
	}
	if len(lines) == 0 {
		return order
	}

	start := 0
	if m := headerRe.FindStringSubmatch(lines[0]); m != nil {
		order.Date = m[1]
		if m[2] != "" {
			order.Person = m[2]
		}
		start = 1
	}

	for _, line := range lines[start:] {
		if strings.HasPrefix(line, "💰") || strings.HasPrefix(line, "总计") || strings.Contains(line, "总计:") {
			continue
		}
		m := itemRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		parsed := model.ParsedLine{
			RawLine:     line,
			ProductName: strings.TrimSpace(m[2]),
			SoldPrice:   ParseAmount(m[4]),
		}
		if bm := boxRe.FindStringSubmatch(m[3]); bm != nil {
			parsed.QtyBoxes = ParseAmount(bm[1])
		}
		if um := unitRe.FindStringSubmatch(m[3]); um != nil {
			parsed.QtyUnits = ParseAmount(um[1])
		}
		order.Lines = append(order.Lines, parsed)
	}
	return order
}

// RegexOutboundParser は ParseOutboundText を解析器として使うためのアダプタです。
type RegexOutboundParser struct {
	Now func() time.Time
}

func (p RegexOutboundParser) ParseOutbound(_ context.Context, text string) (model.ParsedOrder, error) {
	now := time.Now
	if p.Now != nil {
		now = p.Now
	}
	return ParseOutboundText(text, now()), nil
}
