// C:\Users\wasab\OneDrive\デスクトップ\PYRO\ledger\ledger.go
package ledger

import (
	"strings"

	"pyrotrack/model"
	"pyrotrack/pricing"
	"pyrotrack/units"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Delta は1商品・1倉庫分の在庫変動 (バラ換算) です。出庫方向を正とします。
type Delta struct {
	InvID     string
	Warehouse model.Warehouse
	Units     decimal.Decimal
}

// Negate は符号を反転した差分を返します。
func Negate(deltas []Delta) []Delta {
	out := make([]Delta, len(deltas))
	for i, d := range deltas {
		d.Units = d.Units.Neg()
		out[i] = d
	}
	return out
}

// Ledger は商品IDごとの在庫台帳です。並び順を保持します。
// 排他制御は呼び出し側 (outbound.Service) が行います。
type Ledger struct {
	order []string
	items map[string]model.InventoryItem
}

func New(items []model.InventoryItem) *Ledger {
	l := &Ledger{items: make(map[string]model.InventoryItem, len(items))}
	for _, item := range items {
		if _, dup := l.items[item.ID]; dup {
			continue
		}
		l.order = append(l.order, item.ID)
		l.items[item.ID] = item
	}
	return l
}

func (l *Ledger) Get(id string) (model.InventoryItem, bool) {
	item, ok := l.items[id]
	return item, ok
}

func (l *Ledger) Len() int {
	return len(l.order)
}

// Items は並び順どおりのコピーを返します。
func (l *Ledger) Items() []model.InventoryItem {
	out := make([]model.InventoryItem, 0, len(l.order))
	for _, id := range l.order {
		out = append(out, l.items[id])
	}
	return out
}

func (l *Ledger) Clone() *Ledger {
	return New(l.Items())
}

// Apply は差分を在庫から差し引きます。全件を計算してから反映し、
// 台帳に存在しない商品IDはスキップして返します。
func (l *Ledger) Apply(deltas []Delta) []string {
	return l.shift(deltas, decimal.NewFromInt(-1))
}

// Reverse は差分を在庫へ戻します。
func (l *Ledger) Reverse(deltas []Delta) []string {
	return l.shift(deltas, decimal.NewFromInt(1))
}

func (l *Ledger) shift(deltas []Delta, sign decimal.Decimal) []string {
	staged := make(map[string]model.InventoryItem)
	var skipped []string
	for _, d := range deltas {
		item, ok := staged[d.InvID]
		if !ok {
			item, ok = l.items[d.InvID]
		}
		if !ok {
			skipped = appendUnique(skipped, d.InvID)
			continue
		}
		current := units.QtyToUnits(item.Stock(d.Warehouse), item.Spec)
		next := current.Add(d.Units.Mul(sign))
		staged[d.InvID] = item.WithStock(d.Warehouse, units.FromUnits(next, item.Spec))
	}
	for id, item := range staged {
		l.items[id] = item
	}
	return skipped
}

func appendUnique(ids []string, id string) []string {
	for _, v := range ids {
		if v == id {
			return ids
		}
	}
	return append(ids, id)
}

// Upsert は手動編集した商品を保存します。既存IDは同じ位置で置き換え、
// 新規は先頭に追加します。保存前に NormalizeItem を通します。
func (l *Ledger) Upsert(item model.InventoryItem) model.InventoryItem {
	item = NormalizeItem(item)
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	if _, ok := l.items[item.ID]; ok {
		l.items[item.ID] = item
		return item
	}
	l.Prepend(item)
	return item
}

// Prepend は商品を先頭に追加します。
func (l *Ledger) Prepend(item model.InventoryItem) {
	if _, ok := l.items[item.ID]; ok {
		l.Remove(item.ID)
	}
	l.order = append([]string{item.ID}, l.order...)
	l.items[item.ID] = item
}

func (l *Ledger) Remove(id string) bool {
	if _, ok := l.items[id]; !ok {
		return false
	}
	delete(l.items, id)
	for i, v := range l.order {
		if v == id {
			l.order = append(l.order[:i], l.order[i+1:]...)
			break
		}
	}
	return true
}

// Replace は台帳全体を差し替えます (一括取込・バックアップ復元)。
func (l *Ledger) Replace(items []model.InventoryItem) {
	*l = *New(items)
}

// NormalizeItem は名前の改行を除き、在庫を (箱, バラ<規格) に正規化し、
// 未設定のバラ単価を 箱単価/規格 で補完します。
func NormalizeItem(item model.InventoryItem) model.InventoryItem {
	item.Name = CleanName(item.Name)
	if item.Spec <= 0 {
		item.Spec = 1
	}
	for _, w := range model.Warehouses {
		item = item.WithStock(w, units.Normalize(item.Stock(w), item.Spec))
	}
	if item.CostPriceUnit.IsZero() {
		item.CostPriceUnit = pricing.DeriveUnitPrice(item.CostPriceBox, item.Spec)
	}
	if item.WholesalePriceUnit.IsZero() {
		item.WholesalePriceUnit = pricing.DeriveUnitPrice(item.WholesalePriceBox, item.Spec)
	}
	if item.RetailPriceUnit.IsZero() {
		item.RetailPriceUnit = pricing.DeriveUnitPrice(item.RetailPriceBox, item.Spec)
	}
	return item
}

// CleanName は改行を取り除き前後の空白を詰めます。
func CleanName(name string) string {
	name = strings.NewReplacer("\r\n", "", "\n", "", "\r", "").Replace(name)
	return strings.TrimSpace(name)
}
