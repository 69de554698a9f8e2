// C:\Users\wasab\OneDrive\デスクトップ\PYRO\config_handler.go
package main

import (
	"net/http"
	"time"

	"pyrotrack/config"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// GetConfigHandler は現在の設定を返します。API キーは伏せます。
func GetConfigHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, config.GetConfig().Masked())
	}
}

// 画面から変更できる項目だけを受け付けます。省略した項目は現在の値のままです。
type settingsRequest struct {
	APIKey         *string `json:"apiKey"`
	BaseURL        string  `json:"baseUrl" binding:"omitempty,url"`
	Model          string  `json:"model"`
	TimeoutSeconds int     `json:"timeoutSeconds" binding:"omitempty,min=1,max=600"`
	LogLevel       string  `json:"logLevel" binding:"omitempty,oneof=debug info warn error"`
	OpenBrowser    *bool   `json:"openBrowser"`
}

// SaveConfigHandler は設定を保存します。
// API キーはクライアントが毎回 config.GetConfig を参照するため再起動は不要です。
func SaveConfigHandler(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req settingsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "リクエストの解析に失敗: " + err.Error()})
			return
		}

		newCfg := config.GetConfig()
		if req.APIKey != nil {
			newCfg.DeepSeek.APIKey = *req.APIKey
		}
		if req.BaseURL != "" {
			newCfg.DeepSeek.BaseURL = req.BaseURL
		}
		if req.Model != "" {
			newCfg.DeepSeek.Model = req.Model
		}
		if req.TimeoutSeconds > 0 {
			newCfg.DeepSeek.Timeout = time.Duration(req.TimeoutSeconds) * time.Second
		}
		if req.LogLevel != "" {
			newCfg.Log.Level = req.LogLevel
		}
		if req.OpenBrowser != nil {
			newCfg.App.OpenBrowser = *req.OpenBrowser
		}

		if err := config.SaveConfig(newCfg); err != nil {
			log.Error("failed to save config", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "設定の保存に失敗しました。"})
			return
		}
		log.Info("config saved", zap.Bool("apiKeySet", newCfg.DeepSeek.APIKey != ""))
		c.JSON(http.StatusOK, gin.H{"message": "設定を保存しました。", "config": newCfg.Masked()})
	}
}
