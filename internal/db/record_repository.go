package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/udisondev/gearcfg/internal/storage"
)

// RecordRepository хранит сериализованные записи экипировки в PostgreSQL.
// Реализует storage.Medium.
type RecordRepository struct {
	pool *pgxpool.Pool
}

// NewRecordRepository создаёт новый RecordRepository.
func NewRecordRepository(pool *pgxpool.Pool) *RecordRepository {
	return &RecordRepository{pool: pool}
}

// Get возвращает payload по ключу или storage.ErrNotFound.
func (r *RecordRepository) Get(ctx context.Context, key string) ([]byte, error) {
	var payload []byte
	err := r.pool.QueryRow(ctx,
		`SELECT payload FROM equipped_records WHERE record_key = $1`, key,
	).Scan(&payload)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("querying record %q: %w", key, err)
	}
	return payload, nil
}

// Set вставляет или обновляет payload по ключу.
func (r *RecordRepository) Set(ctx context.Context, key string, value []byte) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO equipped_records (record_key, payload, updated_at)
		 VALUES ($1, $2::jsonb, now())
		 ON CONFLICT (record_key) DO UPDATE
		 SET payload = EXCLUDED.payload, updated_at = EXCLUDED.updated_at`,
		key, string(value),
	)
	if err != nil {
		return fmt.Errorf("upserting record %q: %w", key, err)
	}
	return nil
}

// Delete удаляет запись. Отсутствие записи не считается ошибкой.
func (r *RecordRepository) Delete(ctx context.Context, key string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM equipped_records WHERE record_key = $1`, key); err != nil {
		return fmt.Errorf("deleting record %q: %w", key, err)
	}
	return nil
}
