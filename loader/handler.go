// C:\Users\wasab\OneDrive\デスクトップ\PYRO\loader\handler.go
package loader

import (
	"fmt"
	"net/http"
	"time"

	"pyrotrack/model"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Backup はバックアップファイルの中身です。
type Backup struct {
	Inventory  []model.InventoryItem  `json:"inventory"`
	History    []model.OutboundRecord `json:"history"`
	ExportedAt time.Time              `json:"exportedAt"`
}

// State はバックアップ対象の状態を持つものです。
type State interface {
	Inventory() []model.InventoryItem
	History() []model.OutboundRecord
	Restore(inventory []model.InventoryItem, history []model.OutboundRecord)
}

// BackupExportHandler は在庫と出庫履歴を JSON でダウンロードさせます。
func BackupExportHandler(st State, now func() time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		at := now()
		c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="pyrotrack_backup_%s.json"`, at.Format("2006-01-02")))
		c.IndentedJSON(http.StatusOK, Backup{
			Inventory:  st.Inventory(),
			History:    st.History(),
			ExportedAt: at,
		})
	}
}

type restoreRequest struct {
	Inventory *[]model.InventoryItem  `json:"inventory" binding:"required"`
	History   *[]model.OutboundRecord `json:"history" binding:"required"`
}

// BackupRestoreHandler はバックアップで在庫と出庫履歴を置き換えます。
func BackupRestoreHandler(st State, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req restoreRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "バックアップの解析に失敗: " + err.Error()})
			return
		}
		st.Restore(*req.Inventory, *req.History)
		log.Info("backup restored",
			zap.Int("inventory", len(*req.Inventory)),
			zap.Int("history", len(*req.History)))
		c.JSON(http.StatusOK, gin.H{
			"inventory": len(*req.Inventory),
			"history":   len(*req.History),
		})
	}
}
