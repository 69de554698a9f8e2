// C:\Users\wasab\OneDrive\デスクトップ\PYRO\database\collections.go
package database

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// DBTX は *sqlx.DB と *sqlx.Tx の共通部分です。
type DBTX interface {
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// Open は sqlite のデータベースを開きます。書き込みは1接続に直列化します。
func Open(path string) (*sqlx.DB, error) {
	dsn := path
	if path != ":memory:" && !strings.Contains(path, "?") {
		dsn = "file:" + path + "?_busy_timeout=5000&_journal_mode=WAL"
	}
	db, err := sqlx.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect database %s: %w", path, err)
	}
	return db, nil
}

// ApplySchema はテーブルを作成します (既存なら何もしません)。
func ApplySchema(ctx context.Context, db *sqlx.DB) error {
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	return nil
}

type document struct {
	ID       string `db:"id"`
	Position int    `db:"position"`
	Body     string `db:"body"`
}

// splitDocuments は JSON 配列にできる値を要素ごとの文書に分けます。
// 要素の "id" を主キーにし、ない場合は位置を使います。
func splitDocuments(items interface{}) ([]document, error) {
	raw, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("failed to encode collection: %w", err)
	}
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return nil, fmt.Errorf("collection must be a list: %w", err)
	}

	docs := make([]document, 0, len(elems))
	seen := make(map[string]bool, len(elems))
	for i, e := range elems {
		var key struct {
			ID string `json:"id"`
		}
		_ = json.Unmarshal(e, &key)
		id := key.ID
		if id == "" || seen[id] {
			id = "#" + strconv.Itoa(i)
		}
		seen[id] = true
		docs = append(docs, document{ID: id, Position: i, Body: string(e)})
	}
	return docs, nil
}

// SaveAllInTx はトランザクション内でコレクションを丸ごと置き換えます。
func SaveAllInTx(ctx context.Context, tx DBTX, collection string, items interface{}) error {
	docs, err := splitDocuments(items)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM collections WHERE name = ?`, collection); err != nil {
		return fmt.Errorf("failed to clear collection %s: %w", collection, err)
	}
	const q = `INSERT INTO collections (name, id, position, body) VALUES (?, ?, ?, ?)`
	for _, d := range docs {
		if _, err := tx.ExecContext(ctx, q, collection, d.ID, d.Position, d.Body); err != nil {
			return fmt.Errorf("failed to insert %s/%s: %w", collection, d.ID, err)
		}
	}
	return nil
}

// SaveAll は1つのトランザクションでコレクションを置き換えます。
func SaveAll(ctx context.Context, db *sqlx.DB, collection string, items interface{}) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := SaveAllInTx(ctx, tx, collection, items); err != nil {
		return err
	}
	return tx.Commit()
}

// GetAll はコレクションを保存順に読み出し、dest (スライスへのポインタ) にデコードします。
// 空のコレクションでは dest は空スライスになります。
func GetAll(ctx context.Context, dbtx DBTX, collection string, dest interface{}) error {
	var docs []document
	err := dbtx.SelectContext(ctx, &docs,
		`SELECT id, position, body FROM collections WHERE name = ? ORDER BY position`, collection)
	if err != nil {
		return fmt.Errorf("failed to load collection %s: %w", collection, err)
	}

	var sb strings.Builder
	sb.WriteByte('[')
	for i, d := range docs {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(d.Body)
	}
	sb.WriteByte(']')
	if err := json.Unmarshal([]byte(sb.String()), dest); err != nil {
		return fmt.Errorf("failed to decode collection %s: %w", collection, err)
	}
	return nil
}

// Count はコレクションの件数を返します。
func Count(ctx context.Context, dbtx DBTX, collection string) (int, error) {
	var n int
	err := dbtx.GetContext(ctx, &n, `SELECT COUNT(*) FROM collections WHERE name = ?`, collection)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("failed to count collection %s: %w", collection, err)
	}
	return n, nil
}

// SetMeta はメタ情報 (最終保存日時など) を保存します。
func SetMeta(ctx context.Context, dbtx DBTX, key, value string) error {
	_, err := dbtx.ExecContext(ctx,
		`INSERT INTO meta (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		return fmt.Errorf("failed to save meta %s: %w", key, err)
	}
	return nil
}

// GetMeta はメタ情報を返します。未設定なら空文字です。
func GetMeta(ctx context.Context, dbtx DBTX, key string) (string, error) {
	var v string
	err := dbtx.GetContext(ctx, &v, `SELECT value FROM meta WHERE key = ?`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to load meta %s: %w", key, err)
	}
	return v, nil
}
