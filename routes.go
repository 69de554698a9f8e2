// C:\Users\wasab\OneDrive\デスクトップ\PYRO\routes.go
package main

import (
	"os"
	"time"

	"pyrotrack/aggregation"
	"pyrotrack/deepseek"
	"pyrotrack/loader"
	"pyrotrack/metrics"
	"pyrotrack/outbound"
	"pyrotrack/render"
	"pyrotrack/stock"
	"pyrotrack/valuation"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Deps はルーティングに必要な依存です。
type Deps struct {
	Service *outbound.Service
	AI      *deepseek.Client
	PDF     render.PDFConverter
	Metrics *metrics.Metrics
	Log     *zap.Logger
	Now     func() time.Time
}

func SetupRoutes(r *gin.Engine, d Deps) {
	if _, err := os.Stat("./static"); err == nil {
		r.Static("/static", "./static")
		r.StaticFile("/", "./static/index.html")
	}
	r.GET("/metrics", gin.WrapH(d.Metrics.Handler()))

	api := r.Group("/api")

	// 出庫
	api.POST("/outbound/parse", outbound.ParseHandler(d.Service))
	api.POST("/outbound/preview", outbound.PreviewHandler(d.Service))
	api.POST("/outbound/commit", outbound.CommitHandler(d.Service))

	// 出庫履歴
	history := api.Group("/history")
	history.GET("", outbound.ListHistoryHandler(d.Service))
	history.GET("/:id", outbound.GetRecordHandler(d.Service))
	history.DELETE("/:id", outbound.DeleteHandler(d.Service))
	history.PUT("/:id", outbound.EditHandler(d.Service))
	history.POST("/:id/refund-suggestion", outbound.SuggestRefundHandler(d.Service))
	history.POST("/:id/return", outbound.ReturnHandler(d.Service))
	history.GET("/:id/slip", render.SlipHTMLHandler(d.Service))
	history.GET("/:id/slip.pdf", render.SlipPDFHandler(d.Service, d.PDF))

	// 在庫
	inventory := api.Group("/inventory")
	inventory.GET("", stock.ListHandler(d.Service))
	inventory.POST("", stock.CreateHandler(d.Service))
	inventory.PUT("/:id", stock.UpdateHandler(d.Service))
	inventory.DELETE("/:id", stock.DeleteHandler(d.Service))
	inventory.POST("/import", stock.ImportHandler(d.Service, d.AI, d.Log.Named("stock")))
	inventory.GET("/import/template", stock.TemplateHandler())
	inventory.GET("/valuation", valuation.GetValuationHandler(d.Service))
	inventory.GET("/export", valuation.ExportInventoryHandler(d.Service, d.Now))

	// 集計
	api.GET("/aggregation", aggregation.GetReportHandler(d.Service))
	api.GET("/aggregation/export/:kind", aggregation.ExportHandler(d.Service, d.Now))

	// バックアップ
	api.GET("/backup", loader.BackupExportHandler(d.Service, d.Now))
	api.POST("/backup/restore", loader.BackupRestoreHandler(d.Service, d.Log.Named("backup")))

	// 設定
	api.GET("/config", GetConfigHandler())
	api.PUT("/config", SaveConfigHandler(d.Log.Named("config")))
}
