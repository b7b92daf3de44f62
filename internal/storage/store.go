package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/udisondev/gearcfg/internal/model"
)

const (
	// DefaultKey is the key the equipped mapping is stored under.
	DefaultKey = "racing-equipment-config-v1"

	// RecordVersion is the only record layout this build reads and writes.
	RecordVersion = 1

	// DefaultOpTimeout bounds a single medium operation.
	DefaultOpTimeout = 5 * time.Second
)

// Record is the durable representation of the equipped mapping.
type Record struct {
	Version  int                 `json:"version"`
	Equipped map[string][]string `json:"equipped"`
}

// Store — PersistenceStore поверх произвольного Medium.
//
// Ни один метод не возвращает ошибку: сбой носителя логируется, а состояние
// в памяти остаётся авторитетным. Приложение продолжает работать без
// долговременного хранения.
type Store struct {
	medium    Medium
	key       string
	opTimeout time.Duration
}

// Option configures a Store.
type Option func(*Store)

// WithKey overrides the record key.
func WithKey(key string) Option {
	return func(s *Store) {
		s.key = key
	}
}

// WithOpTimeout overrides the per-operation timeout.
func WithOpTimeout(d time.Duration) Option {
	return func(s *Store) {
		s.opTimeout = d
	}
}

// NewStore creates a Store writing to medium.
func NewStore(medium Medium, opts ...Option) *Store {
	s := &Store{
		medium:    medium,
		key:       DefaultKey,
		opTimeout: DefaultOpTimeout,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Key returns the record key.
func (s *Store) Key() string {
	return s.key
}

// ForProfile returns a Store on the same medium whose key is namespaced by profile.
// An empty profile returns s unchanged.
func (s *Store) ForProfile(profile string) *Store {
	if profile == "" {
		return s
	}
	cp := *s
	cp.key = s.key + ":" + profile
	return &cp
}

func (s *Store) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.opTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.opTimeout)
}

// Save serializes equipped and writes it. Failures are logged and skipped.
func (s *Store) Save(ctx context.Context, equipped model.Equipped) {
	rec := Record{Version: RecordVersion, Equipped: make(map[string][]string, len(equipped))}
	for slotID, ids := range equipped {
		if len(ids) == 0 {
			continue
		}
		rec.Equipped[slotID] = ids
	}

	data, err := json.Marshal(rec)
	if err != nil {
		slog.Warn("failed to encode equipped record", "key", s.key, "error", err)
		return
	}

	opCtx, cancel := s.opContext(ctx)
	defer cancel()

	if err := s.medium.Set(opCtx, s.key, data); err != nil {
		slog.Warn("failed to save equipped record, continuing without persistence",
			"key", s.key, "error", err)
	}
}

// Load reads the record and returns the equipped mapping restricted to validItemIDs.
// Any read or decode failure yields an empty mapping.
func (s *Store) Load(ctx context.Context, validItemIDs map[string]struct{}) model.Equipped {
	opCtx, cancel := s.opContext(ctx)
	defer cancel()

	data, err := s.medium.Get(opCtx, s.key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			slog.Warn("failed to read equipped record", "key", s.key, "error", err)
		}
		return model.Equipped{}
	}

	rec, err := decodeRecord(data)
	if err != nil {
		slog.Warn("ignoring unreadable equipped record", "key", s.key, "error", err)
		return model.Equipped{}
	}

	return filterEquipped(rec.Equipped, validItemIDs)
}

// Clear removes the record. Failures are logged and skipped.
func (s *Store) Clear(ctx context.Context) {
	opCtx, cancel := s.opContext(ctx)
	defer cancel()

	if err := s.medium.Delete(opCtx, s.key); err != nil {
		slog.Warn("failed to clear equipped record", "key", s.key, "error", err)
	}
}

// decodeRecord разбирает запись и диспетчеризует по версии.
// Неизвестная версия (включая отсутствующую) считается отсутствием записи.
func decodeRecord(data []byte) (Record, error) {
	var head struct {
		Version int `json:"version"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return Record{}, fmt.Errorf("decoding record header: %w", err)
	}

	switch head.Version {
	case RecordVersion:
		var rec Record
		if err := json.Unmarshal(data, &rec); err != nil {
			return Record{}, fmt.Errorf("decoding v%d record: %w", RecordVersion, err)
		}
		return rec, nil
	default:
		return Record{}, fmt.Errorf("unsupported record version %d", head.Version)
	}
}

func filterEquipped(stored map[string][]string, validItemIDs map[string]struct{}) model.Equipped {
	out := make(model.Equipped, len(stored))
	for slotID, ids := range stored {
		var kept []string
		for _, id := range ids {
			if _, ok := validItemIDs[id]; ok {
				kept = append(kept, id)
			}
		}
		if len(kept) > 0 {
			out[slotID] = kept
		}
	}
	return out
}
