package stock

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"pyrotrack/model"
	"pyrotrack/outbound"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func existingItems() []model.InventoryItem {
	return []model.InventoryItem{
		{
			ID: "a", Name: "加特林", Spec: 12,
			CostPriceBox: d("120"), CostPriceUnit: d("10"),
			WholesalePriceBox: d("144"), WholesalePriceUnit: d("12"),
			RetailPriceBox: d("180"), RetailPriceUnit: d("15"),
			StockShuangBoxes: d("1"), StockShuangUnits: d("6"),
			StockFengBoxes: d("2"), StockFengUnits: d("0"),
		},
		{ID: "b", Name: "烟花棒", Spec: 10, StockFengBoxes: d("5")},
	}
}

func TestMergeImportOrderAndCounts(t *testing.T) {
	rows := []model.ImportRow{
		{Name: "新品", Spec: 6, WholesalePriceBox: d("60"), StockFengBoxes: d("2.5")},
		{Name: "加特林\n", StockShuangBoxes: d("1")},
		{Name: " "},
	}
	res := MergeImport(existingItems(), rows, model.ImportAdditive)

	assert.Equal(t, 1, res.Added)
	assert.Equal(t, 1, res.Merged)
	require.Len(t, res.Items, 3)
	assert.Equal(t, "新品", res.Items[0].Name)
	assert.Equal(t, "a", res.Items[1].ID)
	assert.Equal(t, "b", res.Items[2].ID)

	added := res.Items[0]
	assert.NotEmpty(t, added.ID)
	assert.True(t, added.RetailPriceBox.Equal(d("60")), "retail box falls back to wholesale box")
	assert.True(t, added.WholesalePriceUnit.Equal(d("10")))
	assert.True(t, added.RetailPriceUnit.Equal(d("10")))
	assert.True(t, added.StockFengBoxes.Equal(d("2")))
	assert.True(t, added.StockFengUnits.Equal(d("3")))

	merged := res.Items[1]
	assert.Equal(t, 12, merged.Spec)
	assert.True(t, merged.StockShuangBoxes.Equal(d("2")))
	assert.True(t, merged.StockShuangUnits.Equal(d("6")))
	assert.True(t, merged.StockFengBoxes.Equal(d("2")))
	assert.True(t, merged.CostPriceBox.Equal(d("120")))
	assert.True(t, merged.CostPriceUnit.Equal(d("10")))
}

func TestMergeImportOverwrite(t *testing.T) {
	rows := []model.ImportRow{
		{Name: "加特林", Spec: 24, CostPriceBox: d("240"), StockShuangBoxes: d("3")},
	}
	res := MergeImport(existingItems(), rows, model.ImportOverwrite)

	require.Len(t, res.Items, 2)
	got := res.Items[0]
	assert.Equal(t, "a", got.ID)
	assert.Equal(t, 24, got.Spec)
	assert.True(t, got.StockShuangBoxes.Equal(d("3")))
	assert.True(t, got.StockShuangUnits.IsZero())
	assert.True(t, got.StockFengBoxes.IsZero())
	assert.True(t, got.CostPriceBox.Equal(d("240")))
	assert.True(t, got.CostPriceUnit.Equal(d("10")))
	assert.True(t, got.WholesalePriceBox.Equal(d("144")))
	assert.True(t, got.WholesalePriceUnit.Equal(d("12")))
}

func TestMergeImportAdditiveRespec(t *testing.T) {
	// 既存 爽 1箱6个 (規格12) = 18個 を規格6に変えて 1箱 加算 -> 24個 = 4箱
	rows := []model.ImportRow{{Name: "加特林", Spec: 6, StockShuangBoxes: d("1")}}
	res := MergeImport(existingItems(), rows, model.ImportAdditive)
	got := res.Items[0]
	assert.True(t, got.StockShuangBoxes.Equal(d("4")))
	assert.True(t, got.StockShuangUnits.IsZero())
	assert.True(t, got.StockFengBoxes.Equal(d("4")))
}

func TestMergeImportRepeatedName(t *testing.T) {
	rows := []model.ImportRow{
		{Name: "X", Spec: 1, StockFengBoxes: d("1")},
		{Name: "X", StockFengBoxes: d("2")},
	}
	res := MergeImport(nil, rows, model.ImportAdditive)
	require.Len(t, res.Items, 1)
	assert.Equal(t, 1, res.Added)
	assert.True(t, res.Items[0].StockFengBoxes.Equal(d("3")))
}

type memStore struct{ saves int }

func (s *memStore) Enqueue(string, any) { s.saves++ }

type stubAI struct {
	rows []model.ImportRow
	err  error
}

func (s stubAI) ParseInventory(context.Context, string) ([]model.ImportRow, error) {
	return s.rows, s.err
}

func newRouter(svc *outbound.Service, ai InventoryParser) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/api/inventory", ListHandler(svc))
	r.POST("/api/inventory", CreateHandler(svc))
	r.PUT("/api/inventory/:id", UpdateHandler(svc))
	r.DELETE("/api/inventory/:id", DeleteHandler(svc))
	r.POST("/api/inventory/import", ImportHandler(svc, ai, zap.NewNop()))
	r.GET("/api/inventory/template", TemplateHandler())
	return r
}

func doJSON(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestItemHandlers(t *testing.T) {
	store := &memStore{}
	svc := outbound.NewService(existingItems(), nil, store, nil)
	r := newRouter(svc, nil)

	w := doJSON(r, http.MethodPost, "/api/inventory", map[string]any{
		"name": "新品\r\n", "spec": 10, "costPriceBox": "55", "stockFengUnits": "25",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	inv := svc.Inventory()
	require.Len(t, inv, 3)
	assert.Equal(t, "新品", inv[0].Name)
	assert.True(t, inv[0].StockFengBoxes.Equal(d("2")))
	assert.True(t, inv[0].StockFengUnits.Equal(d("5")))
	assert.True(t, inv[0].CostPriceUnit.Equal(d("5.5")))

	w = doJSON(r, http.MethodPost, "/api/inventory", map[string]any{"spec": 1})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(r, http.MethodPut, "/api/inventory/b", map[string]any{"name": "烟花棒", "spec": 0})
	require.Equal(t, http.StatusOK, w.Code)
	got, _ := findItem(svc.Inventory(), "b")
	assert.Equal(t, 1, got.Spec)

	w = doJSON(r, http.MethodPut, "/api/inventory/zzz", map[string]any{"name": "x"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(r, http.MethodDelete, "/api/inventory/a", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = doJSON(r, http.MethodDelete, "/api/inventory/a", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	assert.Len(t, svc.Inventory(), 2)
	assert.Equal(t, 3, store.saves)
}

func findItem(items []model.InventoryItem, id string) (model.InventoryItem, bool) {
	for _, it := range items {
		if it.ID == id {
			return it, true
		}
	}
	return model.InventoryItem{}, false
}

func TestImportHandlerJSONRows(t *testing.T) {
	svc := outbound.NewService(existingItems(), nil, nil, nil)
	r := newRouter(svc, nil)

	w := doJSON(r, http.MethodPost, "/api/inventory/import?mode=additive", map[string]any{
		"rows": []map[string]any{{"name": "烟花棒", "stockFengBoxes": "1"}},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var body struct{ Added, Merged int }
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 0, body.Added)
	assert.Equal(t, 1, body.Merged)
	assert.Equal(t, "b", svc.Inventory()[0].ID)
	assert.True(t, svc.Inventory()[0].StockFengBoxes.Equal(d("6")))

	w = doJSON(r, http.MethodPost, "/api/inventory/import", map[string]any{"rows": []any{}})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestImportHandlerAI(t *testing.T) {
	svc := outbound.NewService(nil, nil, nil, nil)
	ok := newRouter(svc, stubAI{rows: []model.ImportRow{{Name: "A", Spec: 2, StockFengBoxes: d("1")}}})
	w := doJSON(ok, http.MethodPost, "/api/inventory/import", map[string]any{"text": "A 2个/箱 1箱", "strategy": "ai"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Len(t, svc.Inventory(), 1)

	failing := newRouter(svc, stubAI{err: errors.New("boom")})
	w = doJSON(failing, http.MethodPost, "/api/inventory/import", map[string]any{"text": "x", "strategy": "ai"})
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Len(t, svc.Inventory(), 1)
}

func TestImportHandlerFile(t *testing.T) {
	svc := outbound.NewService(nil, nil, nil, nil)
	r := newRouter(svc, nil)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "stock.csv")
	require.NoError(t, err)
	_, err = fw.Write([]byte("商品名称,规格\nA,4,8,,,,,,1,2\n"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/inventory/import", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	inv := svc.Inventory()
	require.Len(t, inv, 1)
	assert.Equal(t, 4, inv[0].Spec)
	assert.True(t, inv[0].CostPriceUnit.Equal(d("2")))
	assert.True(t, inv[0].StockShuangBoxes.Equal(d("1")))
	assert.True(t, inv[0].StockFengBoxes.Equal(d("2")))
}

func TestTemplateHandler(t *testing.T) {
	r := newRouter(outbound.NewService(nil, nil, nil, nil), nil)
	w := doJSON(r, http.MethodGet, "/api/inventory/template", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte{0xEF, 0xBB, 0xBF}))
	assert.Contains(t, w.Body.String(), "商品名称")
}
