// C:\Users\wasab\OneDrive\デスクトップ\PYRO\outbound\service.go
package outbound

import (
	"context"
	"sync"
	"time"

	"pyrotrack/ledger"
	"pyrotrack/metrics"
	"pyrotrack/model"
	"pyrotrack/units"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Strategy は自由記述の解析方式です。
type Strategy string

const (
	StrategyRegex Strategy = "regex"
	StrategyAI    Strategy = "ai"
)

// Parser は自由記述の出庫テキストを構造化します。
type Parser interface {
	ParseOutbound(ctx context.Context, text string) (model.ParsedOrder, error)
}

// Snapshotter はコレクション全体のスナップショットを書き出します。
// 書き込みは変更の順に直列化される前提です。
type Snapshotter interface {
	Enqueue(collection string, snapshot any)
}

// Service は在庫台帳と出庫履歴を持ち、出庫伝票の確定・訂正・返品・削除を行います。
// すべての変更操作は1つのロックの下で実行され、成功した場合のみ反映されます。
type Service struct {
	mu      sync.Mutex
	ledger  *ledger.Ledger
	history []model.OutboundRecord

	parsers map[Strategy]Parser
	store   Snapshotter
	metrics *metrics.Metrics
	log     *zap.Logger
	now     func() time.Time
	newID   func() string
}

type Option func(*Service)

func WithParser(strategy Strategy, p Parser) Option {
	return func(s *Service) { s.parsers[strategy] = p }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithIDGenerator(newID func() string) Option {
	return func(s *Service) { s.newID = newID }
}

// NewService は起動時に読み込んだ在庫と履歴で Service を作ります。
// store が nil の場合は永続化しません。
func NewService(inventory []model.InventoryItem, history []model.OutboundRecord, store Snapshotter, log *zap.Logger, opts ...Option) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Service{
		ledger:  ledger.New(inventory),
		history: append([]model.OutboundRecord(nil), history...),
		parsers: make(map[Strategy]Parser),
		store:   store,
		log:     log,
		now:     time.Now,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.metrics.SetSizes(s.ledger.Len(), len(s.history))
	return s
}

// Inventory は在庫のコピーを返します。
func (s *Service) Inventory() []model.InventoryItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.Items()
}

// History は出庫履歴 (新しい順) のコピーを返します。
func (s *Service) History() []model.OutboundRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.OutboundRecord, len(s.history))
	for i, r := range s.history {
		out[i] = r.Clone()
	}
	return out
}

// Record は指定IDの出庫記録を返します。
func (s *Service) Record(id string) (model.OutboundRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, rec, err := s.find(id)
	if err != nil {
		return model.OutboundRecord{}, err
	}
	return rec.Clone(), nil
}

// MutateInventory は手動編集や一括取込を台帳のコピーに対して実行し、
// fn が成功した場合のみ差し替えて保存します。
func (s *Service) MutateInventory(fn func(l *ledger.Ledger) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.ledger.Clone()
	if err := fn(work); err != nil {
		return err
	}
	s.ledger = work
	s.persist(model.CollectionInventory)
	return nil
}

// Restore は在庫と履歴を丸ごと差し替えます (バックアップ復元)。
func (s *Service) Restore(inventory []model.InventoryItem, history []model.OutboundRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ledger = ledger.New(inventory)
	s.history = append([]model.OutboundRecord(nil), history...)
	s.persist(model.CollectionInventory, model.CollectionHistory)
}

func (s *Service) find(id string) (int, model.OutboundRecord, error) {
	for i, r := range s.history {
		if r.ID == id {
			return i, r, nil
		}
	}
	return -1, model.OutboundRecord{}, ErrRecordNotFound
}

// lineSpec は明細の規格です。旧データ (規格なし) は商品の現在の規格を使います。
func (s *Service) lineSpec(l model.OrderLine) int {
	if l.Spec > 0 {
		return l.Spec
	}
	if item, ok := s.ledger.Get(l.InvID); ok {
		return item.Spec
	}
	return 1
}

// deltasFor は明細の出庫数を台帳の差分にします。
func (s *Service) deltasFor(lines []model.OrderLine) []ledger.Delta {
	var deltas []ledger.Delta
	for _, l := range lines {
		if l.InvID == "" {
			continue
		}
		spec := s.lineSpec(l)
		for _, w := range model.Warehouses {
			deltas = append(deltas, ledger.Delta{
				InvID:     l.InvID,
				Warehouse: w,
				Units:     units.QtyToUnits(l.Out(w), spec),
			})
		}
	}
	return deltas
}

func (s *Service) warnSkipped(op, recordID string, skipped []string) {
	if len(skipped) == 0 {
		return
	}
	s.log.Warn("inventory items no longer exist; stock change skipped",
		zap.String("op", op),
		zap.String("recordId", recordID),
		zap.Strings("invIds", skipped))
}

func (s *Service) persist(collections ...string) {
	s.metrics.SetSizes(s.ledger.Len(), len(s.history))
	if s.store == nil {
		return
	}
	for _, c := range collections {
		switch c {
		case model.CollectionInventory:
			s.store.Enqueue(c, s.ledger.Items())
		case model.CollectionHistory:
			s.store.Enqueue(c, append([]model.OutboundRecord(nil), s.history...))
		}
	}
}

func (s *Service) appendLog(rec *model.OutboundRecord, action model.ActionKind, details, note string) {
	rec.Logs = append(rec.Logs, model.ModificationLog{
		Timestamp: s.now(),
		Action:    action,
		Details:   details,
		Note:      note,
	})
}
