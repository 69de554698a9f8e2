// C:\Users\wasab\OneDrive\デスクトップ\PYRO\database\snapshot.go
package database

import (
	"context"
	"sync"
	"time"

	"pyrotrack/metrics"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

const saveTimeout = 10 * time.Second

// SnapshotWriter は変更後のコレクション全体をバックグラウンドで保存します。
// 書き込み待ちの間に同じコレクションが再度届いた場合は、最新のものだけを書きます。
// 保存に失敗してもメモリ上の状態はそのままで、次の変更時に再度全体を書きます。
type SnapshotWriter struct {
	db      *sqlx.DB
	log     *zap.Logger
	metrics *metrics.Metrics

	mu      sync.Mutex
	pending map[string]interface{}
	order   []string
	closed  bool

	writeMu sync.Mutex
	wake    chan struct{}
	stop    chan struct{}
	done    chan struct{}
}

// NewSnapshotWriter は書き込み用のゴルーチンを起動します。m は nil でも構いません。
func NewSnapshotWriter(db *sqlx.DB, log *zap.Logger, m *metrics.Metrics) *SnapshotWriter {
	if log == nil {
		log = zap.NewNop()
	}
	w := &SnapshotWriter{
		db:      db,
		log:     log,
		metrics: m,
		pending: make(map[string]interface{}),
		wake:    make(chan struct{}, 1),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go w.run()
	return w
}

// Enqueue はコレクションのスナップショットを書き込み待ちにします。呼び出し側はブロックしません。
func (w *SnapshotWriter) Enqueue(collection string, snapshot interface{}) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		w.log.Warn("snapshot dropped: writer closed", zap.String("collection", collection))
		return
	}
	if _, ok := w.pending[collection]; !ok {
		w.order = append(w.order, collection)
	}
	w.pending[collection] = snapshot
	w.mu.Unlock()

	select {
	case w.wake <- struct{}{}:
	default:
	}
}

func (w *SnapshotWriter) run() {
	defer close(w.done)
	for {
		select {
		case <-w.wake:
			w.Flush()
		case <-w.stop:
			w.Flush()
			return
		}
	}
}

// Flush は書き込み待ちのスナップショットをすべて書き込みます。
func (w *SnapshotWriter) Flush() {
	w.writeMu.Lock()
	defer w.writeMu.Unlock()

	for {
		w.mu.Lock()
		order, pending := w.order, w.pending
		w.order, w.pending = nil, make(map[string]interface{})
		w.mu.Unlock()
		if len(order) == 0 {
			return
		}

		for _, c := range order {
			ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
			start := time.Now()
			err := SaveAll(ctx, w.db, c, pending[c])
			if err == nil {
				err = SetMeta(ctx, w.db, "saved_at:"+c, time.Now().Format(time.RFC3339))
			}
			cancel()
			if err != nil {
				w.log.Error("failed to persist snapshot", zap.String("collection", c), zap.Error(err))
				w.metrics.PersistFailed(c)
				continue
			}
			w.log.Debug("snapshot saved", zap.String("collection", c), zap.Duration("elapsed", time.Since(start)))
		}
	}
}

// Close は残りを書き込んでから停止します。
func (w *SnapshotWriter) Close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		<-w.done
		return
	}
	w.closed = true
	w.mu.Unlock()

	close(w.stop)
	<-w.done
}
