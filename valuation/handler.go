// C:\Users\wasab\OneDrive\デスクトップ\PYRO\valuation\handler.go
package valuation

import (
	"fmt"
	"net/http"
	"net/url"
	"time"

	"pyrotrack/model"

	"github.com/gin-gonic/gin"
)

// InventorySource は現在の在庫を返します。
type InventorySource interface {
	Inventory() []model.InventoryItem
}

// GetValuationHandler は在庫評価データをJSONで返します。
func GetValuationHandler(src InventorySource) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, Compute(src.Inventory()))
	}
}

func attachment(c *gin.Context, name, contentType string) {
	c.Header("Content-Type", contentType)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename*=UTF-8''%s", url.PathEscape(name)))
}

// ExportInventoryHandler は在庫明細をダウンロードさせます。format=xlsx で Excel 形式。
func ExportInventoryHandler(src InventorySource, now func() time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		items := src.Inventory()
		stamp := now().Format("2006-01-02")

		var err error
		if c.Query("format") == "xlsx" {
			attachment(c, "库存明细_"+stamp+".xlsx", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
			err = WriteInventoryXLSX(c.Writer, items)
		} else {
			attachment(c, "库存明细_"+stamp+".csv", "text/csv; charset=utf-8")
			err = WriteInventoryCSV(c.Writer, items)
		}
		if err != nil {
			c.Error(err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "在庫データの出力に失敗: " + err.Error()})
		}
	}
}
