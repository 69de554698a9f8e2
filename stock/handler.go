// C:\Users\wasab\OneDrive\デスクトップ\PYRO\stock\handler.go
package stock

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"pyrotrack/ledger"
	"pyrotrack/model"
	"pyrotrack/outbound"
	"pyrotrack/parsers"
	"pyrotrack/valuation"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// InventoryParser は自由記述の在庫一覧を取込行に変換します (AI 解析)。
type InventoryParser interface {
	ParseInventory(ctx context.Context, text string) ([]model.ImportRow, error)
}

type itemRequest struct {
	model.InventoryItem
	Name string `json:"name" binding:"required"`
}

func badRequest(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "リクエストの解析に失敗: " + err.Error()})
}

// ListHandler は在庫一覧を返します。
func ListHandler(svc *outbound.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, svc.Inventory())
	}
}

// CreateHandler は商品を新規登録します。新しい商品は一覧の先頭に入ります。
func CreateHandler(svc *outbound.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req itemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
		item := req.InventoryItem
		item.ID = ""
		item.Name = req.Name

		var saved model.InventoryItem
		err := svc.MutateInventory(func(l *ledger.Ledger) error {
			saved = l.Upsert(item)
			return nil
		})
		if err != nil {
			outbound.RespondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, saved)
	}
}

// UpdateHandler は商品を手動で修正します。在庫は規格で正規化し直します。
func UpdateHandler(svc *outbound.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req itemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
		item := req.InventoryItem
		item.ID = c.Param("id")
		item.Name = req.Name

		var saved model.InventoryItem
		err := svc.MutateInventory(func(l *ledger.Ledger) error {
			if _, ok := l.Get(item.ID); !ok {
				return outbound.ErrItemNotFound
			}
			saved = l.Upsert(item)
			return nil
		})
		if err != nil {
			outbound.RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, saved)
	}
}

// DeleteHandler は商品を削除します。過去の出庫記録はそのまま残ります。
func DeleteHandler(svc *outbound.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		err := svc.MutateInventory(func(l *ledger.Ledger) error {
			if !l.Remove(id) {
				return outbound.ErrItemNotFound
			}
			return nil
		})
		if err != nil {
			outbound.RespondError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

type importRequest struct {
	Rows     []model.ImportRow `json:"rows"`
	Text     string            `json:"text"`
	Strategy string            `json:"strategy" binding:"omitempty,oneof=ai"`
}

// ImportHandler は在庫の一括取込を行います。
// 入力は multipart のファイル (CSV / XLSX)、JSON の行配列、または AI 解析用のテキストです。
// クエリ mode=additive で在庫を加算し、それ以外は上書きします。
func ImportHandler(svc *outbound.Service, ai InventoryParser, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		mode := model.ImportOverwrite
		if c.Query("mode") == string(model.ImportAdditive) {
			mode = model.ImportAdditive
		}

		var (
			rows   []model.ImportRow
			source string
			err    error
		)
		if strings.HasPrefix(c.ContentType(), "multipart/") {
			source = "file"
			rows, err = rowsFromUpload(c)
			if err != nil {
				badRequest(c, err)
				return
			}
		} else {
			var req importRequest
			if err := c.ShouldBindJSON(&req); err != nil {
				badRequest(c, err)
				return
			}
			switch {
			case req.Strategy == "ai" || (len(req.Rows) == 0 && strings.TrimSpace(req.Text) != ""):
				source = "ai"
				if ai == nil {
					outbound.RespondError(c, &outbound.ParseError{Strategy: outbound.StrategyAI, Err: outbound.ErrUnknownStrategy})
					return
				}
				rows, err = ai.ParseInventory(c.Request.Context(), req.Text)
				if err != nil {
					outbound.RespondError(c, &outbound.ParseError{Strategy: outbound.StrategyAI, Err: err})
					return
				}
			default:
				source = "json"
				rows = req.Rows
			}
		}
		if len(rows) == 0 {
			outbound.RespondError(c, outbound.ErrNoDataExtracted)
			return
		}

		var res MergeResult
		err = svc.MutateInventory(func(l *ledger.Ledger) error {
			res = MergeImport(l.Items(), rows, mode)
			l.Replace(res.Items)
			return nil
		})
		if err != nil {
			outbound.RespondError(c, err)
			return
		}
		log.Info("inventory imported",
			zap.String("source", source),
			zap.String("mode", string(mode)),
			zap.Int("added", res.Added),
			zap.Int("merged", res.Merged))
		c.JSON(http.StatusOK, gin.H{
			"added":  res.Added,
			"merged": res.Merged,
			"mode":   mode,
			"items":  res.Items,
		})
	}
}

func rowsFromUpload(c *gin.Context) ([]model.ImportRow, error) {
	fh, err := c.FormFile("file")
	if err != nil {
		return nil, fmt.Errorf("ファイルの読み取りに失敗: %w", err)
	}
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("ファイルを開けません: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	switch strings.ToLower(filepath.Ext(fh.Filename)) {
	case ".xlsx", ".xlsm":
		return parsers.ParseInventoryXLSX(r)
	case ".csv", ".txt", "":
		return parsers.ParseInventoryCSV(r)
	default:
		return nil, fmt.Errorf("未対応のファイル形式です: %s", fh.Filename)
	}
}

// TemplateHandler は取込用テンプレート (CSV) をダウンロードさせます。
func TemplateHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/csv; charset=utf-8")
		c.Header("Content-Disposition", `attachment; filename="inventory_template.csv"`)
		if err := valuation.WriteImportTemplate(c.Writer); err != nil {
			c.Error(err)
		}
	}
}
