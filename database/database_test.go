package database

import (
	"context"
	"testing"

	"pyrotrack/metrics"
	"pyrotrack/model"

	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, ApplySchema(context.Background(), db))
	return db
}

func TestSaveAllAndGetAll(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	items := []model.InventoryItem{
		{ID: "b", Name: "B", Spec: 10, StockFengBoxes: decimal.RequireFromString("1.5")},
		{ID: "a", Name: "A", Spec: 1},
	}
	require.NoError(t, SaveAll(ctx, db, model.CollectionInventory, items))

	var got []model.InventoryItem
	require.NoError(t, GetAll(ctx, db, model.CollectionInventory, &got))
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].ID)
	assert.True(t, got[0].StockFengBoxes.Equal(decimal.RequireFromString("1.5")))
	assert.Equal(t, "a", got[1].ID)

	// 置き換え
	require.NoError(t, SaveAll(ctx, db, model.CollectionInventory, items[1:]))
	n, err := Count(ctx, db, model.CollectionInventory)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestGetAllEmpty(t *testing.T) {
	db := openTestDB(t)
	var got []model.OutboundRecord
	require.NoError(t, GetAll(context.Background(), db, model.CollectionHistory, &got))
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestSaveAllDuplicateAndMissingIDs(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	docs := []map[string]string{{"id": "x"}, {"id": "x"}, {"name": "no id"}}
	require.NoError(t, SaveAll(ctx, db, "misc", docs))

	var got []map[string]string
	require.NoError(t, GetAll(ctx, db, "misc", &got))
	assert.Equal(t, docs, got)
}

func TestSaveAllRejectsNonList(t *testing.T) {
	db := openTestDB(t)
	assert.Error(t, SaveAll(context.Background(), db, "misc", map[string]int{"a": 1}))
}

func TestMeta(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	v, err := GetMeta(ctx, db, "k")
	require.NoError(t, err)
	assert.Empty(t, v)

	require.NoError(t, SetMeta(ctx, db, "k", "1"))
	require.NoError(t, SetMeta(ctx, db, "k", "2"))
	v, err = GetMeta(ctx, db, "k")
	require.NoError(t, err)
	assert.Equal(t, "2", v)
}

func TestSnapshotWriterKeepsLatest(t *testing.T) {
	db := openTestDB(t)
	w := NewSnapshotWriter(db, nil, nil)

	for i := 1; i <= 5; i++ {
		items := make([]model.InventoryItem, i)
		for j := range items {
			items[j] = model.InventoryItem{ID: string(rune('a' + j)), Spec: 1}
		}
		w.Enqueue(model.CollectionInventory, items)
	}
	w.Enqueue(model.CollectionHistory, []model.OutboundRecord{{ID: "r1", Person: "p"}})
	w.Close()

	var inv []model.InventoryItem
	require.NoError(t, GetAll(context.Background(), db, model.CollectionInventory, &inv))
	assert.Len(t, inv, 5)

	var hist []model.OutboundRecord
	require.NoError(t, GetAll(context.Background(), db, model.CollectionHistory, &hist))
	require.Len(t, hist, 1)
	assert.Equal(t, "p", hist[0].Person)

	saved, err := GetMeta(context.Background(), db, "saved_at:"+model.CollectionHistory)
	require.NoError(t, err)
	assert.NotEmpty(t, saved)

	// 停止後は書き込まない
	w.Enqueue(model.CollectionHistory, []model.OutboundRecord{})
	w.Close()
	require.NoError(t, GetAll(context.Background(), db, model.CollectionHistory, &hist))
	assert.Len(t, hist, 1)
}

func TestSnapshotWriterCountsFailures(t *testing.T) {
	db := openTestDB(t)
	m := metrics.New("test")
	w := NewSnapshotWriter(db, nil, m)
	db.Close()

	w.Enqueue(model.CollectionInventory, []model.InventoryItem{{ID: "a"}})
	w.Close()
	assert.Equal(t, float64(1), testutil.ToFloat64(m.PersistFailures.WithLabelValues(model.CollectionInventory)))
}
