package outbound

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"pyrotrack/allocation"
	"pyrotrack/ledger"
	"pyrotrack/model"
	"pyrotrack/units"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type recordingStore struct {
	mu    sync.Mutex
	saves map[string]int
	last  map[string]any
}

func newRecordingStore() *recordingStore {
	return &recordingStore{saves: map[string]int{}, last: map[string]any{}}
}

func (r *recordingStore) Enqueue(collection string, snapshot any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saves[collection]++
	r.last[collection] = snapshot
}

type stubParser struct {
	order model.ParsedOrder
	err   error
}

func (p stubParser) ParseOutbound(context.Context, string) (model.ParsedOrder, error) {
	return p.order, p.err
}

func productP() model.InventoryItem {
	return model.InventoryItem{
		ID:                "p",
		Name:              "P",
		Spec:              10,
		CostPriceBox:      d("100"),
		WholesalePriceBox: d("120"),
		RetailPriceBox:    d("150"),
		StockShuangBoxes:  d("5"),
		StockShuangUnits:  d("0"),
		StockFengBoxes:    d("10"),
		StockFengUnits:    d("0"),
	}
}

func newTestService(t *testing.T, items ...model.InventoryItem) (*Service, *recordingStore) {
	t.Helper()
	if len(items) == 0 {
		items = []model.InventoryItem{productP()}
	}
	store := newRecordingStore()
	n := 0
	svc := NewService(items, nil, store, nil,
		WithClock(func() time.Time { return time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC) }),
		WithIDGenerator(func() string { n++; return fmt.Sprintf("rec-%d", n) }),
	)
	return svc, store
}

func scenarioDraft() model.Draft {
	return model.Draft{
		Date:   "2026/1/1",
		Person: "海哥",
		Lines: []model.DraftLine{{
			ProductName:         "P",
			MatchedID:           "p",
			QtyBoxes:            d("12"),
			QtyUnits:            d("0"),
			SoldPrice:           d("1500"),
			AssignedShuangBoxes: d("3"),
			AssignedShuangUnits: d("0"),
		}},
		ActualReceived: decimal.NewNullDecimal(d("1500")),
	}
}

func stockOf(t *testing.T, svc *Service, id string) map[model.Warehouse]decimal.Decimal {
	t.Helper()
	for _, item := range svc.Inventory() {
		if item.ID == id {
			out := map[model.Warehouse]decimal.Decimal{}
			for _, w := range model.Warehouses {
				out[w] = units.QtyToUnits(item.Stock(w), item.Spec)
			}
			return out
		}
	}
	t.Fatalf("item %s not found", id)
	return nil
}

func TestCommitScenario(t *testing.T) {
	svc, store := newTestService(t)

	rec, err := svc.Commit(scenarioDraft())
	require.NoError(t, err)
	require.Len(t, rec.Items, 1)
	line := rec.Items[0]

	assert.True(t, line.OutFengBoxes.Equal(d("9")))
	assert.True(t, line.OutShuangBoxes.Equal(d("3")))
	assert.True(t, line.RemainingFengBoxes.Equal(d("1")))
	assert.True(t, line.RemainingShuangBoxes.Equal(d("2")))
	assert.True(t, line.CostTotal.Equal(d("1200")))
	assert.True(t, line.WholesaleTotal.Equal(d("1440")))
	assert.True(t, line.RetailTotal.Equal(d("1800")))
	assert.Equal(t, 10, line.Spec)

	assert.True(t, rec.TotalPersonalExtra.Decimal.IsZero())
	assert.True(t, rec.TotalWholesaleSurplus.Decimal.Equal(d("60")))
	assert.True(t, rec.TotalBaseProfit.Decimal.Equal(d("240")))
	require.Len(t, rec.Logs, 1)
	assert.Equal(t, model.ActionCreate, rec.Logs[0].Action)

	stock := stockOf(t, svc, "p")
	assert.True(t, stock[model.WarehouseShuang].Equal(d("20")))
	assert.True(t, stock[model.WarehouseFeng].Equal(d("10")))

	assert.Equal(t, 1, store.saves[model.CollectionInventory])
	assert.Equal(t, 1, store.saves[model.CollectionHistory])
	assert.Len(t, svc.History(), 1)
}

func TestCommitConservation(t *testing.T) {
	svc, _ := newTestService(t)
	draft := scenarioDraft()
	draft.Lines[0].QtyBoxes = d("7")
	draft.Lines[0].QtyUnits = d("3.5")
	draft.Lines[0].AssignedShuangBoxes = d("2")
	draft.Lines[0].AssignedShuangUnits = d("9")

	rec, err := svc.Commit(draft)
	require.NoError(t, err)
	l := rec.Items[0]
	total := units.QtyToUnits(l.Qty(), l.Spec)
	out := units.QtyToUnits(l.Out(model.WarehouseShuang), l.Spec).Add(units.QtyToUnits(l.Out(model.WarehouseFeng), l.Spec))
	assert.True(t, total.Equal(out))
}

func TestCommitRejectsOverAssignment(t *testing.T) {
	svc, store := newTestService(t)
	draft := scenarioDraft()
	draft.Lines[0].QtyBoxes = d("2")
	draft.Lines[0].AssignedShuangBoxes = d("3")

	_, err := svc.Commit(draft)
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.ErrorIs(t, err, allocation.ErrShuangExceedsTotal)
	require.Len(t, vErr.Lines, 1)

	assert.Equal(t, []model.InventoryItem{productP()}, svc.Inventory())
	assert.Empty(t, svc.History())
	assert.Zero(t, store.saves[model.CollectionInventory])
}

func TestCommitRejectsWholeOrderWhenAnyLineFails(t *testing.T) {
	svc, _ := newTestService(t)
	draft := scenarioDraft()
	draft.Lines = append(draft.Lines, model.DraftLine{ProductName: "unknown", QtyBoxes: d("1")})

	_, err := svc.Commit(draft)
	assert.ErrorIs(t, err, allocation.ErrProductNotFound)
	assert.Equal(t, []model.InventoryItem{productP()}, svc.Inventory())
}

func TestCommitRejectsNegativeRemaining(t *testing.T) {
	svc, _ := newTestService(t)
	draft := scenarioDraft()
	draft.Lines[0].QtyBoxes = d("13")
	draft.Lines[0].AssignedShuangBoxes = d("0")

	_, err := svc.Commit(draft)
	assert.ErrorIs(t, err, allocation.ErrFengInsufficient)
	assert.Equal(t, []model.InventoryItem{productP()}, svc.Inventory())
}

func TestCommitRejectsNegativeQuantities(t *testing.T) {
	tests := []struct {
		name   string
		qty    string
		shuang string
	}{
		{"negative total and shuang", "-5", "-5"},
		{"negative total", "-2", "0"},
		{"negative shuang", "2", "-1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store := newTestService(t)
			draft := scenarioDraft()
			draft.Lines[0].QtyBoxes = d(tt.qty)
			draft.Lines[0].AssignedShuangBoxes = d(tt.shuang)

			_, err := svc.Commit(draft)
			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.ErrorIs(t, err, allocation.ErrNegativeQuantity)
			assert.Equal(t, []model.InventoryItem{productP()}, svc.Inventory())
			assert.Empty(t, svc.History())
			assert.Zero(t, store.saves[model.CollectionInventory])
		})
	}
}

func TestCommitRejectsEmptyDraft(t *testing.T) {
	svc, store := newTestService(t)
	draft := scenarioDraft()
	draft.Lines = nil

	_, err := svc.Commit(draft)
	assert.ErrorIs(t, err, ErrNoDataExtracted)
	assert.Empty(t, svc.History())
	assert.Zero(t, store.saves[model.CollectionHistory])
}

func TestDeleteRestoresStock(t *testing.T) {
	svc, _ := newTestService(t)
	before := stockOf(t, svc, "p")

	rec, err := svc.Commit(scenarioDraft())
	require.NoError(t, err)
	_, err = svc.Delete(rec.ID)
	require.NoError(t, err)

	after := stockOf(t, svc, "p")
	for _, w := range model.Warehouses {
		assert.True(t, before[w].Equal(after[w]), "warehouse %s", w)
	}
	assert.Empty(t, svc.History())

	_, err = svc.Delete(rec.ID)
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestDeleteSkipsRemovedItems(t *testing.T) {
	svc, _ := newTestService(t)
	rec, err := svc.Commit(scenarioDraft())
	require.NoError(t, err)

	require.NoError(t, svc.MutateInventory(func(l *ledger.Ledger) error {
		l.Remove("p")
		return nil
	}))
	_, err = svc.Delete(rec.ID)
	require.NoError(t, err)
	assert.Empty(t, svc.Inventory())
}

func TestPreviewDoesNotMutate(t *testing.T) {
	svc, store := newTestService(t)
	p := svc.Preview(scenarioDraft())

	assert.False(t, p.HasCriticalError)
	assert.True(t, p.Profit.WholesaleSurplus.Equal(d("60")))
	assert.True(t, p.Totals.TotalRetailValuation.Equal(d("1800")))
	assert.Empty(t, p.Lines[0].Error)
	assert.Equal(t, []model.InventoryItem{productP()}, svc.Inventory())
	assert.Zero(t, store.saves[model.CollectionInventory])

	draft := scenarioDraft()
	draft.Lines[0].MatchedID = ""
	p = svc.Preview(draft)
	assert.True(t, p.HasCriticalError)
	assert.Equal(t, "商品不存在", p.Lines[0].Error)
}

func TestParseDraft(t *testing.T) {
	parsed := model.ParsedOrder{Person: "阿明", Lines: []model.ParsedLine{
		{ProductName: "P", QtyBoxes: d("1"), SoldPrice: d("150")},
	}}
	store := newRecordingStore()
	svc := NewService([]model.InventoryItem{productP()}, nil, store, nil,
		WithParser(StrategyRegex, stubParser{order: parsed}),
		WithParser(StrategyAI, stubParser{err: errors.New("timeout")}),
		WithClock(func() time.Time { return time.Date(2026, 2, 3, 0, 0, 0, 0, time.UTC) }),
	)

	draft, err := svc.ParseDraft(context.Background(), "1. P: 1箱 = ¥150", StrategyRegex)
	require.NoError(t, err)
	assert.Equal(t, "2026/2/3", draft.Date)
	assert.Equal(t, "p", draft.Lines[0].MatchedID)
	assert.True(t, draft.ActualReceived.Decimal.Equal(d("150")))

	_, err = svc.ParseDraft(context.Background(), "text", StrategyAI)
	var pErr *ParseError
	assert.ErrorAs(t, err, &pErr)

	_, err = svc.ParseDraft(context.Background(), "  ", StrategyRegex)
	assert.ErrorIs(t, err, ErrEmptyText)

	_, err = svc.ParseDraft(context.Background(), "text", Strategy("ocr"))
	assert.ErrorIs(t, err, ErrUnknownStrategy)

	assert.Zero(t, store.saves[model.CollectionInventory])
	assert.Zero(t, store.saves[model.CollectionHistory])
}

func TestParseDraftNoData(t *testing.T) {
	svc := NewService(nil, nil, nil, nil, WithParser(StrategyRegex, stubParser{}))
	_, err := svc.ParseDraft(context.Background(), "hello", StrategyRegex)
	assert.ErrorIs(t, err, ErrNoDataExtracted)
}

func TestMutateInventoryFailureKeepsLedger(t *testing.T) {
	svc, store := newTestService(t)
	err := svc.MutateInventory(func(l *ledger.Ledger) error {
		l.Remove("p")
		return errors.New("boom")
	})
	assert.Error(t, err)
	assert.Len(t, svc.Inventory(), 1)
	assert.Zero(t, store.saves[model.CollectionInventory])
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, 422, StatusFor(&ValidationError{Op: "commit"}))
	assert.Equal(t, 422, StatusFor(ErrNoDataExtracted))
	assert.Equal(t, 404, StatusFor(fmt.Errorf("x: %w", ErrRecordNotFound)))
	assert.Equal(t, 502, StatusFor(&ParseError{Strategy: StrategyAI, Err: errors.New("x")}))
	assert.Equal(t, 500, StatusFor(errors.New("x")))
}
