// C:\Users\wasab\OneDrive\デスクトップ\PYRO\outbound\returns.go
package outbound

import (
	"fmt"
	"strings"

	"pyrotrack/ledger"
	"pyrotrack/model"
	"pyrotrack/pricing"
	"pyrotrack/units"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ReturnRequest は返品の入力です。Lines は記録の明細と同じ順・同じ件数です。
// Refund を省略すると提案額 (SuggestRefund) を使います。
type ReturnRequest struct {
	Lines  []model.ReturnLine  `json:"items" binding:"required"`
	Refund decimal.NullDecimal `json:"refund"`
	Reason string              `json:"reason"`
}

type lineReturn struct {
	index    int
	units    decimal.Decimal
	oldUnits decimal.Decimal
	spec     int
}

// returnsFor は返品数量を検証してバラ換算します。1行でも不正なら全体を拒否します。
func (s *Service) returnsFor(rec model.OutboundRecord, lines []model.ReturnLine) ([]lineReturn, error) {
	if len(lines) != len(rec.Items) {
		return nil, &ValidationError{Op: "return", Err: ErrLineCountMismatch}
	}
	var out []lineReturn
	for i, r := range lines {
		if r.Qty().IsZero() {
			continue
		}
		item := rec.Items[i]
		spec := s.lineSpec(item)
		ret := units.QtyToUnits(r.Qty(), spec)
		old := units.QtyToUnits(item.Qty(), spec)
		switch {
		case ret.IsNegative():
			return nil, &ValidationError{Op: "return", Err: fmt.Errorf("%w: %s", ErrNegativeReturn, item.ProductName)}
		case ret.GreaterThan(old):
			return nil, &ValidationError{Op: "return", Err: fmt.Errorf("%w: %s", ErrReturnExceedsLine, item.ProductName)}
		case ret.IsZero():
			continue
		}
		out = append(out, lineReturn{index: i, units: ret, oldUnits: old, spec: spec})
	}
	if len(out) == 0 {
		return nil, &ValidationError{Op: "return", Err: ErrEmptyReturn}
	}
	return out, nil
}

// suggestRefund は 行売価/行数量 × 返品数 の合計を整数に切り捨てます。
func suggestRefund(rec model.OutboundRecord, rets []lineReturn) decimal.Decimal {
	sum := decimal.Zero
	for _, r := range rets {
		if r.oldUnits.IsZero() {
			continue
		}
		sum = sum.Add(rec.Items[r.index].SoldPrice.Mul(r.units).Div(r.oldUnits))
	}
	return sum.Floor()
}

// SuggestRefund は返品に対する返金の提案額を返します。状態は変更しません。
func (s *Service) SuggestRefund(id string, lines []model.ReturnLine) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, rec, err := s.find(id)
	if err != nil {
		return decimal.Zero, err
	}
	rets, err := s.returnsFor(rec, lines)
	if err != nil {
		return decimal.Zero, err
	}
	return suggestRefund(rec, rets), nil
}

/**
 * Return は顧客返品による部分的な取消です。
 *
 * 返品数は峰仓の出庫から先に減らし、足りない分を爽仓から減らします。
 * 売価と各評価額は 新数量/旧数量 で按分し、実収は 旧実収 - 返金額 になります。
 * 在庫は返品数だけ増えます。
 */
func (s *Service) Return(id string, req ReturnRequest) (updated model.OutboundRecord, err error) {
	defer func() { s.metrics.ObserveOperation("return", err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	idx, rec, err := s.find(id)
	if err != nil {
		return model.OutboundRecord{}, err
	}
	rets, err := s.returnsFor(rec, req.Lines)
	if err != nil {
		return model.OutboundRecord{}, err
	}

	refund := suggestRefund(rec, rets)
	if req.Refund.Valid {
		refund = req.Refund.Decimal
	}
	if refund.IsNegative() {
		return model.OutboundRecord{}, &ValidationError{Op: "return", Err: ErrNegativeRefund}
	}

	updated = rec.Clone()
	var (
		deltas  []ledger.Delta
		summary []string
	)
	for _, r := range rets {
		line := updated.Items[r.index]
		newUnits := r.oldUnits.Sub(r.units)

		// 出庫の戻しは倉庫の並びの逆順 (峰仓 → 爽仓)
		left := r.units
		for i := len(model.Warehouses) - 1; i >= 0 && left.IsPositive(); i-- {
			w := model.Warehouses[i]
			out := units.QtyToUnits(line.Out(w), r.spec)
			take := decimal.Min(left, decimal.Max(out, decimal.Zero))
			if i == 0 {
				take = left
			}
			line.SetOut(w, units.FromUnits(out.Sub(take), r.spec))
			left = left.Sub(take)
			if line.InvID != "" && !take.IsZero() {
				deltas = append(deltas, ledger.Delta{InvID: line.InvID, Warehouse: w, Units: take})
			}
		}

		line.SetQty(units.FromUnits(newUnits, r.spec))
		line.SoldPrice = pricing.Scale(line.SoldPrice, newUnits, r.oldUnits)
		line.CostTotal = pricing.Scale(line.CostTotal, newUnits, r.oldUnits)
		line.WholesaleTotal = pricing.Scale(line.WholesaleTotal, newUnits, r.oldUnits)
		line.RetailTotal = pricing.Scale(line.RetailTotal, newUnits, r.oldUnits)
		updated.Items[r.index] = line

		summary = append(summary, fmt.Sprintf("%s %s", line.ProductName, units.FormatQty(units.FromUnits(r.units, r.spec))))
	}

	pricing.ApplyTotals(&updated, pricing.EffectiveActualReceived(rec).Sub(refund))
	s.appendLog(&updated, model.ActionReturn,
		fmt.Sprintf("退货: %s; 退款 ¥%s", strings.Join(summary, ", "), refund.StringFixed(2)), req.Reason)

	s.warnSkipped("return", id, s.ledger.Reverse(deltas))
	s.history[idx] = updated
	s.persist(model.CollectionInventory, model.CollectionHistory)

	s.log.Info("outbound returned",
		zap.String("recordId", id),
		zap.String("refund", refund.String()))
	return updated.Clone(), nil
}
