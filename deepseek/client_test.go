package deepseek

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"pyrotrack/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reply(t *testing.T, w http.ResponseWriter, content string) {
	t.Helper()
	resp := map[string]any{
		"choices": []any{
			map[string]any{"message": map[string]string{"role": "assistant", "content": content}},
		},
	}
	require.NoError(t, json.NewEncoder(w).Encode(resp))
}

func newTestClient(url, key string) *Client {
	return NewClient(Config{BaseURL: url, APIKey: func() string { return key }}, nil, nil)
}

func TestParseOutbound(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		reply(t, w, `{"date":"2026/1/1","person":"海哥","items":[
			{"productName":"加特林\n36发","qtyBoxes":3,"qtyUnits":"5","soldPrice":"1,200"},
			{"productName":"","qtyBoxes":1,"qtyUnits":0,"soldPrice":1},
			{"productName":"烟花棒","qtyBoxes":null,"qtyUnits":10,"soldPrice":88.5}]}`)
	}))
	defer srv.Close()

	order, err := newTestClient(srv.URL, "sk-test").ParseOutbound(context.Background(), "text")
	require.NoError(t, err)

	assert.Equal(t, DefaultModel, got.Model)
	assert.Equal(t, "json_object", got.ResponseFormat["type"])
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "text", got.Messages[1].Content)

	assert.Equal(t, "2026/1/1", order.Date)
	assert.Equal(t, "海哥", order.Person)
	require.Len(t, order.Lines, 2)
	assert.Equal(t, "加特林36发", order.Lines[0].ProductName)
	assert.True(t, order.Lines[0].QtyUnits.Equal(decimal.NewFromInt(5)))
	assert.True(t, order.Lines[0].SoldPrice.Equal(decimal.NewFromInt(1200)))
	assert.True(t, order.Lines[1].QtyBoxes.IsZero())
	assert.True(t, order.Lines[1].SoldPrice.Equal(decimal.RequireFromString("88.5")))
}

func TestParseOutboundDefaultsPerson(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reply(t, w, "```json\n{\"items\":[{\"productName\":\"P\",\"qtyBoxes\":1}]}\n```")
	}))
	defer srv.Close()

	order, err := newTestClient(srv.URL, "k").ParseOutbound(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, model.UnknownPerson, order.Person)
	require.Len(t, order.Lines, 1)
}

func TestParseInventory(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reply(t, w, `{"inventory":[
			{"name":"加特林","spec":12,"costPriceBox":120,"stockShuangBoxes":2,"stockFengBoxes":3},
			{"name":"烟花棒","spec":0,"wholesalePriceBox":"50","stockBoxes":4}]}`)
	}))
	defer srv.Close()

	rows, err := newTestClient(srv.URL, "k").ParseInventory(context.Background(), "x")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 12, rows[0].Spec)
	assert.True(t, rows[0].StockShuangBoxes.Equal(decimal.NewFromInt(2)))
	assert.True(t, rows[0].StockFengBoxes.Equal(decimal.NewFromInt(3)))
	assert.Equal(t, 1, rows[1].Spec)
	assert.True(t, rows[1].StockFengBoxes.Equal(decimal.NewFromInt(4)))
	assert.True(t, rows[1].WholesalePriceBox.Equal(decimal.NewFromInt(50)))
}

func TestParseInventoryBareArray(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reply(t, w, `[{"name":"A","spec":6}]`)
	}))
	defer srv.Close()

	rows, err := newTestClient(srv.URL, "k").ParseInventory(context.Background(), "x")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "A", rows[0].Name)
}

func TestMissingAPIKey(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL, " ").ParseOutbound(context.Background(), "x")
	assert.ErrorIs(t, err, ErrMissingAPIKey)
	assert.Zero(t, atomic.LoadInt32(&calls))
}

func TestAPIErrorMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"Authentication Fails"}}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL, "bad").ParseOutbound(context.Background(), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Authentication Fails")
	assert.Contains(t, err.Error(), "401")
}

func TestBreakerOpensOnServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, "k")
	for i := 0; i < 3; i++ {
		_, err := c.ParseOutbound(context.Background(), "x")
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrUnavailable)
	}
	_, err := c.ParseOutbound(context.Background(), "x")
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestBadOutputDoesNotOpenBreaker(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, "k")
	for i := 0; i < 5; i++ {
		_, err := c.ParseOutbound(context.Background(), "x")
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrUnavailable)
	}
}
