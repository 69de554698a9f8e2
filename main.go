// C:\Users\wasab\OneDrive\デスクトップ\PYRO\main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"pyrotrack/config"
	"pyrotrack/database"
	"pyrotrack/deepseek"
	"pyrotrack/loader"
	"pyrotrack/logger"
	"pyrotrack/metrics"
	"pyrotrack/model"
	"pyrotrack/outbound"
	"pyrotrack/parsers"
	"pyrotrack/render"
)

func main() {
	configPath := flag.String("config", config.DefaultPath, "設定ファイルのパス")
	flag.Parse()

	cfg, cfgErr := config.LoadConfig(*configPath)

	log := logger.New(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: "stdout"})
	defer log.Sync()
	if cfgErr != nil {
		log.Warn("Failed to load config file. Using defaults.", zap.Error(cfgErr))
	}

	// 金額は JSON 上で数値として扱う
	decimal.MarshalJSONWithoutQuotes = true

	m := metrics.New("pyrotrack")

	// 1. データベースと保存済みの状態
	log.Info("Connecting to database...", zap.String("path", cfg.Database.Path))
	dbConn, inventory, history := openStore(cfg.Database.Path, log)
	if dbConn != nil {
		defer dbConn.Close()
	}

	// 2. 永続化
	var store outbound.Snapshotter
	var writer *database.SnapshotWriter
	if dbConn != nil {
		writer = database.NewSnapshotWriter(dbConn, log.Named("snapshot"), m)
		store = writer
	}

	// 3. 解析器とサービス
	ai := deepseek.NewClient(deepseek.Config{
		BaseURL: cfg.DeepSeek.BaseURL,
		Model:   cfg.DeepSeek.Model,
		Timeout: cfg.DeepSeek.Timeout,
		APIKey:  func() string { return config.GetConfig().DeepSeek.APIKey },
	}, log.Named("deepseek"), m)

	svc := outbound.NewService(inventory, history, store, log.Named("outbound"),
		outbound.WithParser(outbound.StrategyRegex, parsers.RegexOutboundParser{}),
		outbound.WithParser(outbound.StrategyAI, ai),
		outbound.WithMetrics(m),
	)

	pdf := render.NewPDFRenderer(log.Named("render"))

	// 4. HTTP
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), logger.GinLogger(log), m.Middleware())
	SetupRoutes(r, Deps{
		Service: svc,
		AI:      ai,
		PDF:     pdf,
		Metrics: m,
		Log:     log,
		Now:     time.Now,
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		log.Info("Starting server", zap.String("url", "http://localhost"+addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server start error", zap.Error(err))
		}
	}()

	if cfg.App.OpenBrowser {
		openBrowser("http://localhost"+addr, log)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("server shutdown error", zap.Error(err))
	}
	if writer != nil {
		writer.Close()
	}
	if err := pdf.Close(); err != nil {
		log.Warn("failed to close browser", zap.Error(err))
	}
	log.Info("Server stopped.")
}

// openStore はデータベースを開いて保存済みの状態を読み込みます。
// 使えない場合は空の状態で起動し、その間の変更は保存されません。
func openStore(path string, log *zap.Logger) (*sqlx.DB, []model.InventoryItem, []model.OutboundRecord) {
	ctx := context.Background()

	dbConn, err := database.Open(path)
	if err != nil {
		log.Warn("Database unavailable. Starting with empty state; changes will not be saved.", zap.Error(err))
		return nil, nil, nil
	}
	if err := loader.InitDatabase(ctx, dbConn, log); err != nil {
		log.Warn("Database initialization failed. Starting with empty state.", zap.Error(err))
		dbConn.Close()
		return nil, nil, nil
	}

	dir := filepath.Dir(path)
	if err := loader.MigrateLegacy(ctx, dbConn, dir, log); err != nil {
		log.Warn("Legacy data migration failed.", zap.Error(err))
	}

	inventory, history, err := loader.LoadState(ctx, dbConn)
	if err != nil {
		log.Warn("Failed to load saved state. Starting with empty state; changes will not be saved.", zap.Error(err))
		dbConn.Close()
		return nil, nil, nil
	}
	log.Info("Database initialization complete.",
		zap.Int("inventory", len(inventory)), zap.Int("history", len(history)))
	return dbConn, inventory, history
}

func openBrowser(url string, log *zap.Logger) {
	var err error
	switch runtime.GOOS {
	case "windows":
		err = exec.Command("rundll32", "url.dll,FileProtocolHandler", url).Start()
	case "darwin":
		err = exec.Command("open", url).Start()
	default:
		err = exec.Command("xdg-open", url).Start()
	}
	if err != nil {
		log.Warn("failed to open browser", zap.Error(err))
	}
}
