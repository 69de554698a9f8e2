// C:\Users\wasab\OneDrive\デスクトップ\PYRO\outbound\commit.go
package outbound

import (
	"context"
	"fmt"
	"strings"

	"pyrotrack/allocation"
	"pyrotrack/mappers"
	"pyrotrack/model"
	"pyrotrack/pricing"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const dateLayout = "2006/1/2"

// ParseDraft は自由記述のテキストを解析し、在庫と照合した確定前の伝票を返します。
// 解析に失敗しても台帳・履歴は変更しません。
func (s *Service) ParseDraft(ctx context.Context, text string, strategy Strategy) (model.Draft, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return model.Draft{}, ErrEmptyText
	}
	if strategy == "" {
		strategy = StrategyRegex
	}
	p, ok := s.parsers[strategy]
	if !ok {
		return model.Draft{}, &ParseError{Strategy: strategy, Err: ErrUnknownStrategy}
	}

	parsed, err := p.ParseOutbound(ctx, text)
	s.metrics.ObserveParse(string(strategy), err)
	if err != nil {
		s.log.Warn("parse failed", zap.String("strategy", string(strategy)), zap.Error(err))
		return model.Draft{}, &ParseError{Strategy: strategy, Err: err}
	}
	if len(parsed.Lines) == 0 {
		return model.Draft{}, ErrNoDataExtracted
	}

	draft := mappers.BuildDraft(parsed, s.Inventory(), text)
	if draft.Date == "" {
		draft.Date = s.now().Format(dateLayout)
	}
	return draft, nil
}

// PreviewLine はプレビュー表示用の明細行です。
type PreviewLine struct {
	model.OrderLine
	Error string `json:"error,omitempty"`
}

// Preview は確定前の割当・評価額・利益の試算です。
type Preview struct {
	Lines            []PreviewLine   `json:"items"`
	Totals           pricing.Totals  `json:"totals"`
	Profit           pricing.Profit  `json:"profit"`
	ActualReceived   decimal.Decimal `json:"actualReceived"`
	HasCriticalError bool            `json:"hasCriticalError"`
}

func requestsFor(draft model.Draft) []allocation.Request {
	reqs := make([]allocation.Request, 0, len(draft.Lines))
	for _, l := range draft.Lines {
		reqs = append(reqs, allocation.Request{
			ProductName:    l.ProductName,
			InvID:          l.MatchedID,
			Qty:            l.Qty(),
			AssignedShuang: l.AssignedShuang(),
		})
	}
	return reqs
}

// toOrderLines は割当結果から明細行を作り、現在の価格で評価します。
func toOrderLines(plan allocation.Plan, sold []decimal.Decimal) []model.OrderLine {
	lines := make([]model.OrderLine, 0, len(plan.Lines))
	for i, l := range plan.Lines {
		ol := model.OrderLine{
			ProductName: l.ProductName,
			Spec:        l.Spec,
			SoldPrice:   sold[i],
		}
		ol.SetQty(l.Qty)
		for _, w := range model.Warehouses {
			ol.SetOut(w, l.OutQty(w))
		}
		if l.Item != nil {
			ol.InvID = l.Item.ID
			for _, w := range model.Warehouses {
				ol.SetRemaining(w, l.RemainingQty(w))
			}
			v := pricing.ValueLine(*l.Item, l.TotalUnits)
			ol.CostTotal = v.CostTotal
			ol.WholesaleTotal = v.WholesaleTotal
			ol.RetailTotal = v.RetailTotal
		}
		lines = append(lines, ol)
	}
	return lines
}

func soldPrices(draft model.Draft) []decimal.Decimal {
	sold := make([]decimal.Decimal, len(draft.Lines))
	for i, l := range draft.Lines {
		sold[i] = l.SoldPrice
	}
	return sold
}

func actualOrTotal(actual decimal.NullDecimal, lines []model.OrderLine) decimal.Decimal {
	if actual.Valid {
		return actual.Decimal
	}
	return pricing.Sum(lines).TotalSale
}

// Preview は現在の在庫で割当と利益を試算します。状態は変更しません。
func (s *Service) Preview(draft model.Draft) Preview {
	s.mu.Lock()
	plan := allocation.Allocate(s.ledger, requestsFor(draft))
	s.mu.Unlock()

	lines := toOrderLines(plan, soldPrices(draft))
	totals := pricing.Sum(lines)
	actual := actualOrTotal(draft.ActualReceived, lines)

	p := Preview{
		Lines:            make([]PreviewLine, len(lines)),
		Totals:           totals,
		Profit:           pricing.ComputeProfit(totals, actual),
		ActualReceived:   actual,
		HasCriticalError: plan.HasCriticalError,
	}
	for i, l := range lines {
		p.Lines[i] = PreviewLine{OrderLine: l, Error: allocation.Message(plan.Lines[i].Err)}
	}
	return p
}

// Commit は伝票を確定し、各行の出庫数を在庫から差し引きます。
// 1行でもエラーがあれば何も変更せず ValidationError を返します。明細が無い伝票は確定できません。
func (s *Service) Commit(draft model.Draft) (rec model.OutboundRecord, err error) {
	defer func() { s.metrics.ObserveOperation("commit", err) }()

	if len(draft.Lines) == 0 {
		return model.OutboundRecord{}, ErrNoDataExtracted
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	plan := allocation.Allocate(s.ledger, requestsFor(draft))
	if plan.HasCriticalError {
		return model.OutboundRecord{}, &ValidationError{Op: "commit", Lines: plan.Errors()}
	}

	rec = model.OutboundRecord{
		ID:      s.newID(),
		Date:    draft.Date,
		Person:  draft.Person,
		Items:   toOrderLines(plan, soldPrices(draft)),
		RawText: draft.RawText,
	}
	if rec.Date == "" {
		rec.Date = s.now().Format(dateLayout)
	}
	if rec.Person == "" {
		rec.Person = model.UnknownPerson
	}
	pricing.ApplyTotals(&rec, actualOrTotal(draft.ActualReceived, rec.Items))
	s.appendLog(&rec, model.ActionCreate,
		fmt.Sprintf("新建出库单: %d 项, 合计 ¥%s", len(rec.Items), rec.TotalSale.StringFixed(2)), "")

	s.warnSkipped("commit", rec.ID, s.ledger.Apply(s.deltasFor(rec.Items)))
	s.history = append([]model.OutboundRecord{rec}, s.history...)
	s.persist(model.CollectionInventory, model.CollectionHistory)

	s.log.Info("outbound committed",
		zap.String("recordId", rec.ID),
		zap.String("person", rec.Person),
		zap.Int("lines", len(rec.Items)))
	return rec.Clone(), nil
}

// Delete は記録された出庫数を在庫へ戻し、記録を削除します。
// 戻す数量は再計算せず、記録の値をそのまま使います。
func (s *Service) Delete(id string) (rec model.OutboundRecord, err error) {
	defer func() { s.metrics.ObserveOperation("delete", err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	idx, rec, err := s.find(id)
	if err != nil {
		return model.OutboundRecord{}, err
	}

	s.warnSkipped("delete", id, s.ledger.Reverse(s.deltasFor(rec.Items)))
	s.history = append(s.history[:idx:idx], s.history[idx+1:]...)
	s.persist(model.CollectionInventory, model.CollectionHistory)

	s.log.Info("outbound deleted", zap.String("recordId", id))
	return rec, nil
}
