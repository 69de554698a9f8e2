// C:\Users\wasab\OneDrive\デスクトップ\PYRO\deepseek\parse.go
package deepseek

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"pyrotrack/ledger"
	"pyrotrack/model"
	"pyrotrack/parsers"

	"github.com/shopspring/decimal"
)

const outboundPrompt = `You are a sales parser. Output valid JSON only.
Parse sales text.
Rules:
1. Extract Date, Person/Customer Name.
2. Extract Items: productName, qtyBoxes, qtyUnits, soldPrice (TOTAL price for this line item).
3. Keep Product Name exact but remove newlines.
4. Output Format: { "date": string, "person": string, "items": [{ "productName", "qtyBoxes", "qtyUnits", "soldPrice" }] }`

const inventoryPrompt = `You are a data extraction assistant. Output valid JSON only.
Extract inventory data.
Rules:
1. Identify: Name, Spec (units/box), Cost Price (per box), Wholesale Price (per box), Retail Price (per box).
2. Optional Identify: Cost Price (per unit), Wholesale Price (per unit), Retail Price (per unit).
3. Stock in boxes per warehouse: stockShuangBoxes (爽仓), stockFengBoxes (峰仓). If only one stock figure is given, use stockBoxes.
4. If spec missing, default 1. If stock missing, default 0.
5. Clean Name: Remove newlines.
6. Output Format: { "items": [{ "name", "spec", "costPriceBox", "costPriceUnit", "wholesalePriceBox", "wholesalePriceUnit", "retailPriceBox", "retailPriceUnit", "stockShuangBoxes", "stockFengBoxes", "stockBoxes" }] }`

// amount はモデルが返す数値 (数値・文字列・null のいずれも) を受け付けます。
type amount decimal.Decimal

func (a *amount) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(bytes.TrimSpace(b)), `"`)
	if s == "null" {
		s = ""
	}
	*a = amount(parsers.ParseAmount(s))
	return nil
}

func (a amount) dec() decimal.Decimal { return decimal.Decimal(a) }

type outboundResult struct {
	Date   string `json:"date"`
	Person string `json:"person"`
	Items  []struct {
		ProductName string `json:"productName"`
		QtyBoxes    amount `json:"qtyBoxes"`
		QtyUnits    amount `json:"qtyUnits"`
		SoldPrice   amount `json:"soldPrice"`
	} `json:"items"`
}

// ParseOutbound は出庫テキストをモデルに解析させます。
func (c *Client) ParseOutbound(ctx context.Context, text string) (model.ParsedOrder, error) {
	raw, err := c.complete(ctx, outboundPrompt, text)
	if err != nil {
		return model.ParsedOrder{}, err
	}
	var res outboundResult
	if err := json.Unmarshal(raw, &res); err != nil {
		return model.ParsedOrder{}, fmt.Errorf("failed to decode model output: %w", err)
	}

	order := model.ParsedOrder{
		Date:   strings.TrimSpace(res.Date),
		Person: strings.TrimSpace(res.Person),
	}
	if order.Person == "" {
		order.Person = model.UnknownPerson
	}
	for _, it := range res.Items {
		name := ledger.CleanName(it.ProductName)
		if name == "" {
			continue
		}
		order.Lines = append(order.Lines, model.ParsedLine{
			RawLine:     name,
			ProductName: name,
			QtyBoxes:    it.QtyBoxes.dec(),
			QtyUnits:    it.QtyUnits.dec(),
			SoldPrice:   it.SoldPrice.dec(),
		})
	}
	return order, nil
}

type inventoryEntry struct {
	Name               string `json:"name"`
	Spec               amount `json:"spec"`
	CostPriceBox       amount `json:"costPriceBox"`
	CostPriceUnit      amount `json:"costPriceUnit"`
	WholesalePriceBox  amount `json:"wholesalePriceBox"`
	WholesalePriceUnit amount `json:"wholesalePriceUnit"`
	RetailPriceBox     amount `json:"retailPriceBox"`
	RetailPriceUnit    amount `json:"retailPriceUnit"`
	StockShuangBoxes   amount `json:"stockShuangBoxes"`
	StockFengBoxes     amount `json:"stockFengBoxes"`
	StockBoxes         amount `json:"stockBoxes"`
}

// ParseInventory は在庫一覧のテキストをモデルに解析させ、取込行に変換します。
// 応答は配列そのもの、または items / inventory キーの配列を受け付けます。
func (c *Client) ParseInventory(ctx context.Context, text string) ([]model.ImportRow, error) {
	raw, err := c.complete(ctx, inventoryPrompt, text)
	if err != nil {
		return nil, err
	}

	var entries []inventoryEntry
	if trimmed := bytes.TrimSpace(raw); len(trimmed) > 0 && trimmed[0] == '[' {
		err = json.Unmarshal(trimmed, &entries)
	} else {
		var wrapped struct {
			Items     []inventoryEntry `json:"items"`
			Inventory []inventoryEntry `json:"inventory"`
		}
		err = json.Unmarshal(trimmed, &wrapped)
		entries = wrapped.Items
		if len(entries) == 0 {
			entries = wrapped.Inventory
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode model output: %w", err)
	}

	rows := make([]model.ImportRow, 0, len(entries))
	for _, e := range entries {
		name := ledger.CleanName(e.Name)
		if name == "" {
			name = "未知商品"
		}
		spec := int(e.Spec.dec().IntPart())
		if spec <= 0 {
			spec = 1
		}
		row := model.ImportRow{
			Name:               name,
			Spec:               spec,
			CostPriceBox:       e.CostPriceBox.dec(),
			CostPriceUnit:      e.CostPriceUnit.dec(),
			WholesalePriceBox:  e.WholesalePriceBox.dec(),
			WholesalePriceUnit: e.WholesalePriceUnit.dec(),
			RetailPriceBox:     e.RetailPriceBox.dec(),
			RetailPriceUnit:    e.RetailPriceUnit.dec(),
			StockShuangBoxes:   e.StockShuangBoxes.dec(),
			StockFengBoxes:     e.StockFengBoxes.dec(),
		}
		// 倉庫の区別がない在庫数は峰仓に計上する
		if row.StockShuangBoxes.IsZero() && row.StockFengBoxes.IsZero() {
			row.StockFengBoxes = e.StockBoxes.dec()
		}
		rows = append(rows, row)
	}
	return rows, nil
}
