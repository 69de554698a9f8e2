// C:\Users\wasab\OneDrive\デスクトップ\PYRO\outbound\correction.go
package outbound

import (
	"fmt"
	"strings"

	"pyrotrack/allocation"
	"pyrotrack/ledger"
	"pyrotrack/model"
	"pyrotrack/pricing"
	"pyrotrack/units"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// EditRequest は訂正モードの入力です。Lines は記録の明細と同じ順・同じ件数です。
type EditRequest struct {
	Lines          []model.EditLine    `json:"items" binding:"required,dive"`
	ActualReceived decimal.NullDecimal `json:"actualReceived"`
	Reason         string              `json:"reason"`
}

/**
 * Edit は入力ミスの訂正です (返品ではありません)。
 *
 * 峰仓の出庫数は常に 合計 - 爽仓 で求め直し、評価額は現在の価格で再計算します。
 * 新しい割当は、元の記録を戻した後の在庫で検証します。
 * 台帳への反映は 元の出庫を戻す + 新しい出庫を引く を1回の差分適用で行います。
 */
func (s *Service) Edit(id string, req EditRequest) (updated model.OutboundRecord, err error) {
	defer func() { s.metrics.ObserveOperation("edit", err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	idx, rec, err := s.find(id)
	if err != nil {
		return model.OutboundRecord{}, err
	}
	if len(req.Lines) != len(rec.Items) {
		return model.OutboundRecord{}, &ValidationError{Op: "edit", Err: ErrLineCountMismatch}
	}

	// 1. 元の出庫を戻した在庫で新しい割当を検証
	oldDeltas := s.deltasFor(rec.Items)
	work := s.ledger.Clone()
	work.Reverse(oldDeltas)

	reqs := make([]allocation.Request, len(rec.Items))
	sold := make([]decimal.Decimal, len(rec.Items))
	for i, old := range rec.Items {
		e := req.Lines[i]
		reqs[i] = allocation.Request{
			ProductName:    old.ProductName,
			InvID:          old.InvID,
			Spec:           old.Spec,
			Qty:            e.Qty(),
			AssignedShuang: e.AssignedShuang(),
		}
		sold[i] = e.SoldPrice
	}
	plan := allocation.Allocate(work, reqs)
	if plan.HasCriticalError {
		return model.OutboundRecord{}, &ValidationError{Op: "edit", Lines: plan.Errors()}
	}

	// 2. 新しい記録 (元の値は変更しない)
	updated = rec.Clone()
	updated.Items = toOrderLines(plan, sold)
	actual := pricing.EffectiveActualReceived(rec)
	if req.ActualReceived.Valid {
		actual = req.ActualReceived.Decimal
	}
	pricing.ApplyTotals(&updated, actual)
	s.appendLog(&updated, model.ActionEdit, describeEdit(rec, updated), req.Reason)

	// 3. 台帳: revert(old) + apply(new)
	net := append(ledger.Negate(oldDeltas), s.deltasFor(updated.Items)...)
	s.warnSkipped("edit", id, s.ledger.Apply(net))

	s.history[idx] = updated
	s.persist(model.CollectionInventory, model.CollectionHistory)

	s.log.Info("outbound edited", zap.String("recordId", id), zap.String("reason", req.Reason))
	return updated.Clone(), nil
}

// describeEdit は変更のあった行と金額をまとめます。
func describeEdit(before, after model.OutboundRecord) string {
	var changes []string
	for i, b := range before.Items {
		a := after.Items[i]
		if !b.Qty().Boxes.Equal(a.Qty().Boxes) || !b.Qty().Units.Equal(a.Qty().Units) ||
			!b.OutShuangBoxes.Equal(a.OutShuangBoxes) || !b.OutShuangUnits.Equal(a.OutShuangUnits) ||
			!b.SoldPrice.Equal(a.SoldPrice) {
			changes = append(changes, fmt.Sprintf("%s %s→%s (爽 %s)",
				a.ProductName, units.FormatQty(b.Qty()), units.FormatQty(a.Qty()),
				units.FormatQty(a.Out(model.WarehouseShuang))))
		}
	}
	details := "订单修正"
	if len(changes) > 0 {
		details += ": " + strings.Join(changes, ", ")
	}
	prevActual := pricing.EffectiveActualReceived(before)
	nextActual := pricing.EffectiveActualReceived(after)
	if !prevActual.Equal(nextActual) {
		details += fmt.Sprintf("; 实收 ¥%s→¥%s", prevActual.StringFixed(2), nextActual.StringFixed(2))
	}
	return details
}
