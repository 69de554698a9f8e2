// C:\Users\wasab\OneDrive\デスクトップ\PYRO\loader\loader.go
package loader

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"pyrotrack/database"
	"pyrotrack/model"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// 旧バージョンが書き出していた JSON ファイル名
const (
	LegacyInventoryFile = "pyro_inventory_v1.json"
	LegacyHistoryFile   = "pyro_history_v1.json"
)

// InitDatabase はデータベーススキーマを適用します。
func InitDatabase(ctx context.Context, db *sqlx.DB, log *zap.Logger) error {
	log.Info("Applying database schema...")
	if err := database.ApplySchema(ctx, db); err != nil {
		return fmt.Errorf("failed to apply schema.sql: %w", err)
	}
	log.Info("Schema applied successfully.")
	return nil
}

// LoadState は保存済みの在庫と出庫履歴を読み込みます。
func LoadState(ctx context.Context, db *sqlx.DB) ([]model.InventoryItem, []model.OutboundRecord, error) {
	var inventory []model.InventoryItem
	if err := database.GetAll(ctx, db, model.CollectionInventory, &inventory); err != nil {
		return nil, nil, err
	}
	var history []model.OutboundRecord
	if err := database.GetAll(ctx, db, model.CollectionHistory, &history); err != nil {
		return nil, nil, err
	}
	return inventory, history, nil
}

/**
 * MigrateLegacy は dir にある旧形式の JSON (在庫・履歴の配列) を取り込みます。
 * 取り込んだファイルは .migrated を付けて退避し、二度目は読みません。
 * データベース側に既にデータがあるコレクションは上書きしません。
 */
func MigrateLegacy(ctx context.Context, db *sqlx.DB, dir string, log *zap.Logger) error {
	files := []struct {
		collection string
		name       string
		dest       interface{}
	}{
		{model.CollectionInventory, LegacyInventoryFile, &[]model.InventoryItem{}},
		{model.CollectionHistory, LegacyHistoryFile, &[]model.OutboundRecord{}},
	}

	for _, f := range files {
		path := filepath.Join(dir, f.name)
		raw, err := os.ReadFile(path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}

		n, err := database.Count(ctx, db, f.collection)
		if err != nil {
			return err
		}
		if n > 0 {
			log.Warn("legacy file ignored: collection already has data",
				zap.String("file", path), zap.Int("existing", n))
			continue
		}

		if err := json.Unmarshal(raw, f.dest); err != nil {
			return fmt.Errorf("failed to decode %s: %w", path, err)
		}
		if err := database.SaveAll(ctx, db, f.collection, f.dest); err != nil {
			return err
		}
		if err := os.Rename(path, path+".migrated"); err != nil {
			log.Warn("failed to rename migrated file", zap.String("file", path), zap.Error(err))
		}
		log.Info("legacy data migrated", zap.String("file", path), zap.String("collection", f.collection))
	}
	return nil
}
