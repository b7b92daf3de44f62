package storage

import (
	"context"
	"sync"

	"github.com/udisondev/gearcfg/internal/model"
)

type writeOp struct {
	seq      uint64
	clear    bool
	equipped model.Equipped
}

// Writer — асинхронная запись (write-behind) поверх Store.
//
// Save и Clear не блокируют вызывающего: операция кладётся в единственный
// pending-слот и применяется горутиной Run. Каждая операция несёт полный снимок
// состояния, поэтому более новая операция замещает ещё не применённую старую,
// а на носитель никогда не попадает устаревший снимок поверх нового.
type Writer struct {
	store *Store

	mu      sync.Mutex
	seq     uint64
	pending *writeOp
	wake    chan struct{}

	applyMu     sync.Mutex
	lastApplied uint64
}

// NewWriter creates a Writer for store. Call Run to start applying writes.
func NewWriter(store *Store) *Writer {
	return &Writer{
		store: store,
		wake:  make(chan struct{}, 1),
	}
}

// Save schedules a write of equipped.
func (w *Writer) Save(ctx context.Context, equipped model.Equipped) {
	w.enqueue(writeOp{equipped: equipped.Clone()})
}

// Clear schedules removal of the record.
func (w *Writer) Clear(ctx context.Context) {
	w.enqueue(writeOp{clear: true})
}

// Load reads through to the store synchronously.
func (w *Writer) Load(ctx context.Context, validItemIDs map[string]struct{}) model.Equipped {
	return w.store.Load(ctx, validItemIDs)
}

func (w *Writer) enqueue(op writeOp) {
	w.mu.Lock()
	w.seq++
	op.seq = w.seq
	w.pending = &op
	w.mu.Unlock()

	select {
	case w.wake <- struct{}{}:
	default:
	}
}

func (w *Writer) take() *writeOp {
	w.mu.Lock()
	defer w.mu.Unlock()
	op := w.pending
	w.pending = nil
	return op
}

func (w *Writer) apply(ctx context.Context, op *writeOp) {
	w.applyMu.Lock()
	defer w.applyMu.Unlock()

	if op.seq <= w.lastApplied {
		return
	}
	w.lastApplied = op.seq

	if op.clear {
		w.store.Clear(ctx)
		return
	}
	w.store.Save(ctx, op.equipped)
}

// Flush applies the pending operation, if any, in the caller's goroutine.
func (w *Writer) Flush(ctx context.Context) {
	if op := w.take(); op != nil {
		w.apply(ctx, op)
	}
}

// Run applies scheduled writes until ctx is cancelled, then flushes what is
// left so the last snapshot still reaches the medium. Writes are not bound to
// ctx cancellation; Store's per-operation timeout limits each of them.
func (w *Writer) Run(ctx context.Context) error {
	applyCtx := context.WithoutCancel(ctx)
	for {
		select {
		case <-ctx.Done():
			w.Flush(applyCtx)
			return nil
		case <-w.wake:
			w.Flush(applyCtx)
		}
	}
}
