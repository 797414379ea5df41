package display

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"headlines/internal/domain"
)

// Sink получает копию каждого опубликованного списка (например, таблица в БД).
type Sink interface {
	Replace(ctx context.Context, snap domain.Snapshot) error
}

// Board хранит последний опубликованный список новостей.
// Каждая публикация полностью заменяет предыдущую; подписчики получают
// только самое свежее значение и никогда не блокируют публикацию.
type Board struct {
	mu     sync.RWMutex
	snap   domain.Snapshot
	subs   map[int]chan domain.Snapshot
	nextID int
	sinks  []Sink
	now    func() time.Time
	log    *slog.Logger

	persistMu sync.Mutex
	persisted uint64
}

func NewBoard(log *slog.Logger, sinks ...Sink) *Board {
	return &Board{
		subs:  make(map[int]chan domain.Snapshot),
		sinks: sinks,
		now:   time.Now,
		log:   log.With(slog.String("component", "board")),
	}
}

// Publish заменяет список, оповещает подписчиков и возвращает новый снимок.
// Sink не вызываются: снимок передается им через Persist.
func (b *Board) Publish(_ context.Context, region domain.Region, articles []domain.Article) domain.Snapshot {
	b.mu.Lock()
	b.snap = domain.Snapshot{
		Version:   b.snap.Version + 1,
		Region:    region,
		Articles:  append([]domain.Article(nil), articles...),
		UpdatedAt: b.now(),
	}
	snap := b.copyLocked()
	for _, ch := range b.subs {
		offer(ch, snap)
	}
	b.mu.Unlock()

	b.log.Debug("Headlines list replaced",
		slog.Uint64("version", snap.Version),
		slog.Int("articles", len(snap.Articles)),
	)
	return snap
}

// Persist передает снимок во все Sink по очереди. Снимок не новее уже
// переданного пропускается. Ошибки Sink логируются и не влияют на список.
func (b *Board) Persist(ctx context.Context, snap domain.Snapshot) {
	b.persistMu.Lock()
	defer b.persistMu.Unlock()
	if snap.Version <= b.persisted {
		b.log.Debug("Skipping outdated snapshot",
			slog.Uint64("version", snap.Version),
			slog.Uint64("persisted", b.persisted),
		)
		return
	}
	b.persisted = snap.Version
	for _, s := range b.sinks {
		if err := s.Replace(ctx, snap); err != nil {
			b.log.Error("Display sink update failed",
				slog.Uint64("version", snap.Version),
				slog.Any("error", err),
			)
		}
	}
}

// Current возвращает копию текущего списка.
func (b *Board) Current() domain.Snapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.copyLocked()
}

// Subscribe возвращает канал с последними списками и функцию отписки.
// Если список уже опубликован, он сразу доступен в канале.
func (b *Board) Subscribe() (<-chan domain.Snapshot, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextID
	b.nextID++
	ch := make(chan domain.Snapshot, 1)
	if !b.snap.Empty() {
		ch <- b.copyLocked()
	}
	b.subs[id] = ch
	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subs, id)
			close(ch)
		})
	}
}

func (b *Board) copyLocked() domain.Snapshot {
	snap := b.snap
	snap.Articles = append([]domain.Article(nil), b.snap.Articles...)
	return snap
}

// offer кладет значение в канал емкостью 1, вытесняя непрочитанное.
func offer(ch chan domain.Snapshot, snap domain.Snapshot) {
	select {
	case ch <- snap:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- snap:
	default:
	}
}
