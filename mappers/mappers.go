// C:\Users\wasab\OneDrive\デスクトップ\PYRO\mappers\mappers.go
package mappers

import (
	"regexp"
	"strings"

	"pyrotrack/model"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/width"
)

var annotationRe = regexp.MustCompile(`[（(].*?[）)]`)

var folder = cases.Fold()

/**
 * NormalizeName は商品名の照合用キーを作ります。
 *
 * 括弧 (全角・半角) で囲まれた注記を取り除き、全角英数を半角に寄せ、
 * 大文字小文字を畳み込みます。表示名には使いません。
 */
func NormalizeName(s string) string {
	s = annotationRe.ReplaceAllString(s, "")
	s = width.Fold.String(s)
	s = folder.String(s)
	return strings.TrimSpace(s)
}

// MatchInventory は解析された商品名に一致する在庫を探します。
// 在庫の並び順で最初に見つかったものを返します。
// 判定: 在庫名が商品名を含む / 商品名が在庫名を含む / 正規化後に一致。
func MatchInventory(productName string, inventory []model.InventoryItem) (model.InventoryItem, bool) {
	name := strings.TrimSpace(productName)
	if name == "" {
		return model.InventoryItem{}, false
	}
	key := NormalizeName(name)
	for _, inv := range inventory {
		if inv.Name == "" {
			continue
		}
		if strings.Contains(inv.Name, name) || strings.Contains(name, inv.Name) {
			return inv, true
		}
		if key != "" && NormalizeName(inv.Name) == key {
			return inv, true
		}
	}
	return model.InventoryItem{}, false
}

// BuildDraft は解析結果を確定前の伝票に変換します。
// 爽仓の割当は 0 (全量を峰仓)、実収は売価合計で初期化します。
func BuildDraft(parsed model.ParsedOrder, inventory []model.InventoryItem, rawText string) model.Draft {
	draft := model.Draft{
		Date:    parsed.Date,
		Person:  parsed.Person,
		RawText: rawText,
		Lines:   make([]model.DraftLine, 0, len(parsed.Lines)),
	}
	if draft.Person == "" {
		draft.Person = model.UnknownPerson
	}

	total := decimal.Zero
	for _, p := range parsed.Lines {
		line := model.DraftLine{
			RawLine:             p.RawLine,
			ProductName:         p.ProductName,
			QtyBoxes:            p.QtyBoxes,
			QtyUnits:            p.QtyUnits,
			SoldPrice:           p.SoldPrice,
			AssignedShuangBoxes: decimal.Zero,
			AssignedShuangUnits: decimal.Zero,
		}
		if inv, ok := MatchInventory(p.ProductName, inventory); ok {
			line.MatchedID = inv.ID
		}
		total = total.Add(p.SoldPrice)
		draft.Lines = append(draft.Lines, line)
	}
	draft.ActualReceived = decimal.NewNullDecimal(total)
	return draft
}
