package parsers

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"pyrotrack/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/simplifiedchinese"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestParseOutboundText(t *testing.T) {
	text := `📅 2026/1/1 (💁海哥)
1. 加特林36发: 3箱5个 = ¥1,200.00
2、 烟花棒（大）：10个 = ￥88
💰 总计: ¥1,288.00
随便写的一行`

	order := ParseOutboundText(text, time.Now())
	assert.Equal(t, "2026/1/1", order.Date)
	assert.Equal(t, "海哥", order.Person)
	require.Len(t, order.Lines, 2)

	first := order.Lines[0]
	assert.Equal(t, "加特林36发", first.ProductName)
	assert.True(t, first.QtyBoxes.Equal(d("3")))
	assert.True(t, first.QtyUnits.Equal(d("5")))
	assert.True(t, first.SoldPrice.Equal(d("1200")))

	second := order.Lines[1]
	assert.Equal(t, "烟花棒（大）", second.ProductName)
	assert.True(t, second.QtyBoxes.IsZero())
	assert.True(t, second.QtyUnits.Equal(d("10")))
	assert.True(t, second.SoldPrice.Equal(d("88")))
}

func TestParseOutboundTextWithoutHeader(t *testing.T) {
	now := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)
	order := ParseOutboundText("1. P: 1,000箱 = 5", now)
	assert.Equal(t, "2026/3/9", order.Date)
	assert.Equal(t, model.UnknownPerson, order.Person)
	require.Len(t, order.Lines, 1)
	assert.True(t, order.Lines[0].QtyBoxes.Equal(d("1000")))

	assert.Empty(t, ParseOutboundText("hello\nworld", now).Lines)
	assert.Empty(t, ParseOutboundText("", now).Lines)
}

func TestParseAmount(t *testing.T) {
	assert.True(t, ParseAmount(" ¥1,200.50 ").Equal(d("1200.5")))
	assert.True(t, ParseAmount("abc").IsZero())
	assert.True(t, ParseAmount("").IsZero())
}

const csvBody = "商品名称,规格(个/箱),进价(箱),进价(个),批发价(箱),批发价(个),零售价(箱),零售价(个),爽仓库存(箱),峰仓库存(箱)\n" +
	"加特林,12,120,,144,,180,,2,3.5\n" +
	",10,1,1,1,1,1,1,1,1\n" +
	"烟花棒,,10,1,12,1.2,,,0,1\n"

func assertImported(t *testing.T, rows []model.ImportRow) {
	t.Helper()
	require.Len(t, rows, 2)
	assert.Equal(t, "加特林", rows[0].Name)
	assert.Equal(t, 12, rows[0].Spec)
	assert.True(t, rows[0].CostPriceBox.Equal(d("120")))
	assert.True(t, rows[0].CostPriceUnit.IsZero())
	assert.True(t, rows[0].StockFengBoxes.Equal(d("3.5")))
	assert.Equal(t, 0, rows[1].Spec)
	assert.True(t, rows[1].WholesalePriceUnit.Equal(d("1.2")))
}

func TestParseInventoryCSV_UTF8WithBOM(t *testing.T) {
	body := append([]byte{0xEF, 0xBB, 0xBF}, csvBody...)
	rows, err := ParseInventoryCSV(bytes.NewReader(body))
	require.NoError(t, err)
	assertImported(t, rows)
}

func TestParseInventoryCSV_GBK(t *testing.T) {
	encoded, err := simplifiedchinese.GBK.NewEncoder().String(csvBody)
	require.NoError(t, err)
	rows, err := ParseInventoryCSV(strings.NewReader(encoded))
	require.NoError(t, err)
	assertImported(t, rows)
}

func TestParseInventoryCSV_Empty(t *testing.T) {
	_, err := ParseInventoryCSV(strings.NewReader(""))
	assert.Error(t, err)
}

func TestParseInventoryXLSX(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	rows := [][]any{
		{"说明: 请按模板填写"},
		{"名称", "规格"},
		{"加特林", 12, 120, nil, 144, nil, 180, nil, 2, 3.5},
		{"烟花棒", nil, 10, 1, 12, 1.2, nil, nil, 0, 1},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	parsed, err := ParseInventoryXLSX(&buf)
	require.NoError(t, err)
	assertImported(t, parsed)
}

func TestHeaderStart(t *testing.T) {
	assert.Equal(t, 0, headerStart([][]string{{"加特林", "12"}}))
	assert.Equal(t, 1, headerStart([][]string{{"a", "b"}, {"加特林", "12"}}))
	assert.Equal(t, 2, headerStart([][]string{{"x"}, {"Name", "Spec"}}))
}
