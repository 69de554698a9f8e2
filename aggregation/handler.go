// C:\Users\wasab\OneDrive\デスクトップ\PYRO\aggregation\handler.go
package aggregation

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"pyrotrack/model"

	"github.com/gin-gonic/gin"
)

// HistorySource は出庫記録の一覧を返します。
type HistorySource interface {
	History() []model.OutboundRecord
}

// Report は統計画面の表示データです。
type Report struct {
	Persons  []string               `json:"persons"`
	Global   model.GlobalStats      `json:"global"`
	ByPerson []model.PersonSummary  `json:"byPerson"`
	Matrix   model.ProductMatrix    `json:"matrix"`
	Records  []model.OutboundRecord `json:"records"`
}

// BuildReport は絞り込み条件で統計を作ります。Persons は絞り込み前の全経手人です。
func BuildReport(history []model.OutboundRecord, f model.AggregationFilters) Report {
	filtered := Filter(history, f)
	return Report{
		Persons:  Persons(history),
		Global:   Global(filtered),
		ByPerson: ByPerson(filtered),
		Matrix:   Matrix(filtered),
		Records:  filtered,
	}
}

func bindFilters(c *gin.Context) (model.AggregationFilters, bool) {
	var f model.AggregationFilters
	if err := c.ShouldBindQuery(&f); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "リクエストの解析に失敗: " + err.Error()})
		return f, false
	}
	return f, true
}

// GetReportHandler は統計データを返します。
// クエリ: person (複数可), startDate, endDate
func GetReportHandler(src HistorySource) gin.HandlerFunc {
	return func(c *gin.Context) {
		f, ok := bindFilters(c)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, BuildReport(src.History(), f))
	}
}

// ExportHandler は絞り込んだ記録を CSV でダウンロードさせます。
// kind は "detail" (明細) または "summary" (経手人別)。
func ExportHandler(src HistorySource, now func() time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		f, ok := bindFilters(c)
		if !ok {
			return
		}
		var (
			name  string
			write func(io.Writer, []model.OutboundRecord) error
		)
		switch c.Param("kind") {
		case "detail":
			name, write = "出库明细", WriteDetailCSV
		case "summary":
			name, write = "出库汇总(经手人)", WriteSummaryCSV
		default:
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "不明な出力種別です: " + c.Param("kind")})
			return
		}

		filename := fmt.Sprintf("%s_%s.csv", name, now().Format("2006-01-02"))
		c.Header("Content-Type", "text/csv; charset=utf-8")
		c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+url.PathEscape(filename))
		if err := write(c.Writer, Filter(src.History(), f)); err != nil {
			c.Error(err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "CSVの出力に失敗: " + err.Error()})
		}
	}
}
