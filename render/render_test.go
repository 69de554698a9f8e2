package render

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"pyrotrack/model"
	"pyrotrack/outbound"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func record() model.OutboundRecord {
	return model.OutboundRecord{
		ID:     "rec-1",
		Date:   "2026/1/1",
		Person: "<海哥>",
		Items: []model.OrderLine{{
			ProductName:    "加特林",
			Spec:           10,
			QtyBoxes:       d("12"),
			QtyUnits:       d("0"),
			OutShuangBoxes: d("3"),
			OutFengBoxes:   d("9"),
			SoldPrice:      d("1500"),
		}},
		TotalSale: d("1500"),
		Logs: []model.ModificationLog{{
			Timestamp: time.Date(2026, 1, 1, 9, 30, 0, 0, time.UTC),
			Action:    model.ActionCreate,
			Details:   "新建出库单",
		}},
	}
}

func TestRenderSlipHTML(t *testing.T) {
	html, err := RenderSlipHTML(record())
	require.NoError(t, err)
	assert.Contains(t, html, "加特林")
	assert.Contains(t, html, "12箱")
	assert.Contains(t, html, "¥1500.00")
	assert.Contains(t, html, "&lt;海哥&gt;")
	assert.NotContains(t, html, "<海哥>")
	assert.Contains(t, html, "2026/01/01 09:30 [CREATE]")
}

func TestRenderSlipHTMLWithoutLines(t *testing.T) {
	rec := record()
	rec.Items = nil
	rec.Logs = nil
	html, err := RenderSlipHTML(rec)
	require.NoError(t, err)
	assert.Contains(t, html, "没有明细")
}

type source map[string]model.OutboundRecord

func (s source) Record(id string) (model.OutboundRecord, error) {
	rec, ok := s[id]
	if !ok {
		return model.OutboundRecord{}, outbound.ErrRecordNotFound
	}
	return rec, nil
}

type fakePDF struct {
	html string
	err  error
}

func (f *fakePDF) Render(_ context.Context, html string) ([]byte, error) {
	f.html = html
	return []byte("%PDF-1.4"), f.err
}

func TestSlipHandlers(t *testing.T) {
	gin.SetMode(gin.TestMode)
	src := source{"rec-1": record()}
	pdf := &fakePDF{}
	r := gin.New()
	r.GET("/slip/:id", SlipHTMLHandler(src))
	r.GET("/slip/:id/pdf", SlipPDFHandler(src, pdf))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/slip/rec-1", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "出库单")

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/slip/rec-1/pdf", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Contains(t, pdf.html, "加特林")

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/slip/missing/pdf", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	pdf.err = errors.New("no browser")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/slip/rec-1/pdf", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
