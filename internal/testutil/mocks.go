package testutil

import (
	"context"
	"sync"

	"github.com/udisondev/gearcfg/internal/model"
)

// FailingMedium — key/value носитель, у которого любая операция завершается ErrSimulated.
// Имитирует недоступное хранилище (quota exceeded, permission denied).
type FailingMedium struct {
	mu    sync.Mutex
	calls int
}

// Get always fails.
func (m *FailingMedium) Get(ctx context.Context, key string) ([]byte, error) {
	m.count()
	return nil, ErrSimulated
}

// Set always fails.
func (m *FailingMedium) Set(ctx context.Context, key string, value []byte) error {
	m.count()
	return ErrSimulated
}

// Delete always fails.
func (m *FailingMedium) Delete(ctx context.Context, key string) error {
	m.count()
	return ErrSimulated
}

// Calls returns how many operations were attempted.
func (m *FailingMedium) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *FailingMedium) count() {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
}

// RecordingPersister запоминает все сохранения и очистки, Load возвращает заданный Seed.
type RecordingPersister struct {
	mu     sync.Mutex
	Seed   model.Equipped
	saves  []model.Equipped
	clears int
}

// Save records a copy of equipped.
func (p *RecordingPersister) Save(ctx context.Context, equipped model.Equipped) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.saves = append(p.saves, equipped.Clone())
}

// Load returns a copy of Seed without filtering.
func (p *RecordingPersister) Load(ctx context.Context, validItemIDs map[string]struct{}) model.Equipped {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Seed == nil {
		return model.Equipped{}
	}
	return p.Seed.Clone()
}

// Clear records a clear call.
func (p *RecordingPersister) Clear(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.clears++
}

// Saves returns the recorded saves in order.
func (p *RecordingPersister) Saves() []model.Equipped {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]model.Equipped(nil), p.saves...)
}

// LastSave returns the most recent save, or nil.
func (p *RecordingPersister) LastSave() model.Equipped {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.saves) == 0 {
		return nil
	}
	return p.saves[len(p.saves)-1]
}

// Clears returns how many times Clear was called.
func (p *RecordingPersister) Clears() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.clears
}
