// C:\Users\wasab\OneDrive\デスクトップ\PYRO\allocation\allocation.go
package allocation

import (
	"errors"
	"fmt"

	"pyrotrack/model"
	"pyrotrack/units"

	"github.com/shopspring/decimal"
)

var (
	ErrBothInsufficient   = errors.New("both warehouses insufficient")
	ErrShuangInsufficient = errors.New("Shuang insufficient")
	ErrFengInsufficient   = errors.New("Feng insufficient")
	ErrShuangExceedsTotal = errors.New("allocation error: Shuang exceeds total")
	ErrProductNotFound    = errors.New("product does not exist")
	ErrNegativeQuantity   = errors.New("quantity must not be negative")
)

var insufficient = map[model.Warehouse]error{
	model.WarehouseShuang: ErrShuangInsufficient,
	model.WarehouseFeng:   ErrFengInsufficient,
}

// Inventory は割当計算が参照する在庫です。
type Inventory interface {
	Get(id string) (model.InventoryItem, bool)
}

// Request は1行分の割当要求です。
type Request struct {
	ProductName    string
	InvID          string
	Spec           int // 0 なら商品の現在の規格
	Qty            model.Quantity
	AssignedShuang model.Quantity
}

// Line は1行分の割当結果です。数量はすべてバラ換算。
type Line struct {
	Request
	Item       *model.InventoryItem
	Spec       int
	TotalUnits decimal.Decimal
	Out        map[model.Warehouse]decimal.Decimal
	Remaining  map[model.Warehouse]decimal.Decimal
	Err        error
}

// OutQty は倉庫ごとの出庫数を (箱, バラ) で返します。
func (l Line) OutQty(w model.Warehouse) model.Quantity {
	return units.FromUnits(l.Out[w], l.Spec)
}

// RemainingQty は出庫後の残在庫を商品の規格で (箱, バラ) にします。
func (l Line) RemainingQty(w model.Warehouse) model.Quantity {
	spec := l.Spec
	if l.Item != nil {
		spec = l.Item.Spec
	}
	return units.FromUnits(l.Remaining[w], spec)
}

// LineError は行単位の検証エラーです。
type LineError struct {
	Index       int
	ProductName string
	Err         error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d (%s): %v", e.Index+1, e.ProductName, e.Err)
}

func (e *LineError) Unwrap() error {
	return e.Err
}

// Plan は伝票全体の割当結果です。
type Plan struct {
	Lines            []Line
	HasCriticalError bool
}

// Errors は失敗した行の一覧を返します。
func (p Plan) Errors() []*LineError {
	var errs []*LineError
	for i, l := range p.Lines {
		if l.Err != nil {
			errs = append(errs, &LineError{Index: i, ProductName: l.ProductName, Err: l.Err})
		}
	}
	return errs
}

// Allocate は全行を割り当てます。同じ商品が複数行にある場合は
// 前の行の出庫を差し引いた在庫で次の行を判定します。
func Allocate(inv Inventory, reqs []Request) Plan {
	plan := Plan{Lines: make([]Line, 0, len(reqs))}
	running := make(map[string]map[model.Warehouse]decimal.Decimal)

	for _, req := range reqs {
		line := Line{Request: req}
		var (
			item model.InventoryItem
			ok   bool
		)
		if req.InvID != "" {
			item, ok = inv.Get(req.InvID)
		}

		spec := req.Spec
		if spec <= 0 && ok {
			spec = item.Spec
		}
		line.Spec = spec
		line.TotalUnits = units.QtyToUnits(req.Qty, spec)
		shuang := units.QtyToUnits(req.AssignedShuang, spec)
		line.Out = map[model.Warehouse]decimal.Decimal{
			model.WarehouseShuang: shuang,
			model.WarehouseFeng:   line.TotalUnits.Sub(shuang),
		}

		if !ok {
			line.Err = ErrProductNotFound
			plan.Lines = append(plan.Lines, line)
			plan.HasCriticalError = true
			continue
		}
		line.Item = &item

		// 合計・爽仓とも負の数量は不可
		if line.TotalUnits.IsNegative() || shuang.IsNegative() {
			line.Err = ErrNegativeQuantity
			plan.Lines = append(plan.Lines, line)
			plan.HasCriticalError = true
			continue
		}

		stock, seen := running[item.ID]
		if !seen {
			stock = make(map[model.Warehouse]decimal.Decimal, len(model.Warehouses))
			for _, w := range model.Warehouses {
				stock[w] = units.QtyToUnits(item.Stock(w), item.Spec)
			}
			running[item.ID] = stock
		}

		line.Remaining = make(map[model.Warehouse]decimal.Decimal, len(model.Warehouses))
		var short []model.Warehouse
		for _, w := range model.Warehouses {
			line.Remaining[w] = stock[w].Sub(line.Out[w])
			if line.Remaining[w].IsNegative() {
				short = append(short, w)
			}
		}

		switch {
		case len(short) == len(model.Warehouses):
			line.Err = ErrBothInsufficient
		case len(short) > 0:
			line.Err = insufficient[short[0]]
		case line.Out[model.WarehouseFeng].IsNegative():
			line.Err = ErrShuangExceedsTotal
		}

		if line.Err != nil {
			plan.HasCriticalError = true
		} else {
			for _, w := range model.Warehouses {
				stock[w] = line.Remaining[w]
			}
		}
		plan.Lines = append(plan.Lines, line)
	}
	return plan
}

var messages = map[error]string{
	ErrBothInsufficient:   "两仓库存均不足",
	ErrShuangInsufficient: "爽仓库存不足",
	ErrFengInsufficient:   "峰仓库存不足",
	ErrShuangExceedsTotal: "分配错误: 爽仓分配超过总数",
	ErrProductNotFound:    "商品不存在",
	ErrNegativeQuantity:   "数量不能为负数",
}

// Message は行エラーの画面表示用の文言を返します。
func Message(err error) string {
	if err == nil {
		return ""
	}
	for target, msg := range messages {
		if errors.Is(err, target) {
			return msg
		}
	}
	return err.Error()
}
