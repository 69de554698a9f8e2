// C:\Users\wasab\OneDrive\デスクトップ\PYRO\outbound\handler.go
package outbound

import (
	"net/http"

	"pyrotrack/model"

	"github.com/gin-gonic/gin"
)

type parseRequest struct {
	Text     string   `json:"text" binding:"required"`
	Strategy Strategy `json:"strategy" binding:"omitempty,oneof=regex ai"`
}

// ParseHandler は自由記述を解析して確定前の伝票を返します。
func ParseHandler(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req parseRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "リクエストの解析に失敗: " + err.Error()})
			return
		}
		draft, err := svc.ParseDraft(c.Request.Context(), req.Text, req.Strategy)
		if err != nil {
			RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, draft)
	}
}

// PreviewHandler は割当と利益の試算を返します。
func PreviewHandler(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var draft model.Draft
		if err := c.ShouldBindJSON(&draft); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "リクエストの解析に失敗: " + err.Error()})
			return
		}
		c.JSON(http.StatusOK, svc.Preview(draft))
	}
}

// CommitHandler は伝票を確定します。
func CommitHandler(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var draft model.Draft
		if err := c.ShouldBindJSON(&draft); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "リクエストの解析に失敗: " + err.Error()})
			return
		}
		rec, err := svc.Commit(draft)
		if err != nil {
			RespondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, rec)
	}
}

func ListHistoryHandler(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, svc.History())
	}
}

func GetRecordHandler(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		rec, err := svc.Record(c.Param("id"))
		if err != nil {
			RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, rec)
	}
}

// DeleteHandler は記録を削除し、出庫数を在庫へ戻します。
func DeleteHandler(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, err := svc.Delete(c.Param("id")); err != nil {
			RespondError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// EditHandler は訂正モードで記録を更新します。
func EditHandler(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req EditRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "リクエストの解析に失敗: " + err.Error()})
			return
		}
		rec, err := svc.Edit(c.Param("id"), req)
		if err != nil {
			RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, rec)
	}
}

// SuggestRefundHandler は返品に対する返金の提案額を返します。
func SuggestRefundHandler(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ReturnRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "リクエストの解析に失敗: " + err.Error()})
			return
		}
		refund, err := svc.SuggestRefund(c.Param("id"), req.Lines)
		if err != nil {
			RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"refund": refund})
	}
}

// ReturnHandler は部分返品を記録します。
func ReturnHandler(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ReturnRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "リクエストの解析に失敗: " + err.Error()})
			return
		}
		rec, err := svc.Return(c.Param("id"), req)
		if err != nil {
			RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, rec)
	}
}
