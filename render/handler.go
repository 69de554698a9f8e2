// C:\Users\wasab\OneDrive\デスクトップ\PYRO\render\handler.go
package render

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"pyrotrack/model"
	"pyrotrack/outbound"

	"github.com/gin-gonic/gin"
)

// RecordSource は出庫記録を1件返します。
type RecordSource interface {
	Record(id string) (model.OutboundRecord, error)
}

// PDFConverter は HTML を PDF に変換します。
type PDFConverter interface {
	Render(ctx context.Context, html string) ([]byte, error)
}

// SlipHTMLHandler は出庫単を HTML で返します (ブラウザで印刷)。
func SlipHTMLHandler(src RecordSource) gin.HandlerFunc {
	return func(c *gin.Context) {
		rec, err := src.Record(c.Param("id"))
		if err != nil {
			outbound.RespondError(c, err)
			return
		}
		html, err := RenderSlipHTML(rec)
		if err != nil {
			outbound.RespondError(c, err)
			return
		}
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
	}
}

// SlipPDFHandler は出庫単を PDF でダウンロードさせます。
func SlipPDFHandler(src RecordSource, pdf PDFConverter) gin.HandlerFunc {
	return func(c *gin.Context) {
		rec, err := src.Record(c.Param("id"))
		if err != nil {
			outbound.RespondError(c, err)
			return
		}
		html, err := RenderSlipHTML(rec)
		if err != nil {
			outbound.RespondError(c, err)
			return
		}
		data, err := pdf.Render(c.Request.Context(), html)
		if err != nil {
			outbound.RespondError(c, err)
			return
		}
		name := fmt.Sprintf("出库单_%s_%s.pdf", rec.Person, rec.ID)
		c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+url.PathEscape(name))
		c.Data(http.StatusOK, "application/pdf", data)
	}
}
