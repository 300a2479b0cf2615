package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/YelzhanWeb/kitchenline/internal/domain"
	"github.com/YelzhanWeb/kitchenline/internal/interfaces"
	"github.com/jackc/pgx/v5"
)

const archiveSchema = `
	CREATE TABLE IF NOT EXISTS order_archive (
		archive_date DATE PRIMARY KEY,
		snapshot     JSONB NOT NULL,
		order_count  INTEGER NOT NULL,
		updated_at   TIMESTAMPTZ NOT NULL
	)
`

// ArchiveRepository keeps one JSONB snapshot of the order table per day.
type ArchiveRepository struct {
	db  DB
	now func() time.Time
}

func NewArchiveRepository(db DB) *ArchiveRepository {
	return &ArchiveRepository{db: db, now: time.Now}
}

func (r *ArchiveRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, archiveSchema); err != nil {
		return fmt.Errorf("failed to create order_archive: %w", err)
	}
	return nil
}

func (r *ArchiveRepository) Load(ctx context.Context, day time.Time) (map[string]*domain.Order, error) {
	query := `SELECT snapshot FROM order_archive WHERE archive_date = $1`

	var raw []byte
	err := r.db.QueryRow(ctx, query, archiveDate(day)).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return map[string]*domain.Order{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load archive %s: %w", interfaces.ArchiveKey(day), err)
	}

	orders := make(map[string]*domain.Order)
	if err := json.Unmarshal(raw, &orders); err != nil {
		return nil, fmt.Errorf("failed to decode archive %s: %w", interfaces.ArchiveKey(day), err)
	}
	return orders, nil
}

func (r *ArchiveRepository) Save(ctx context.Context, day time.Time, orders map[string]*domain.Order) error {
	body, err := json.Marshal(orders)
	if err != nil {
		return fmt.Errorf("failed to encode archive: %w", err)
	}

	query := `
		INSERT INTO order_archive (archive_date, snapshot, order_count, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (archive_date)
		DO UPDATE SET snapshot = EXCLUDED.snapshot,
		              order_count = EXCLUDED.order_count,
		              updated_at = EXCLUDED.updated_at
	`
	tag, err := r.db.Exec(ctx, query, archiveDate(day), body, len(orders), r.now().UTC())
	if err != nil {
		return fmt.Errorf("failed to save archive %s: %w", interfaces.ArchiveKey(day), err)
	}
	if tag.RowsAffected() != 1 {
		return fmt.Errorf("failed to save archive %s: %d rows affected", interfaces.ArchiveKey(day), tag.RowsAffected())
	}
	return nil
}

// archiveDate truncates to the local calendar day the key is derived from.
func archiveDate(day time.Time) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

var _ interfaces.OrderArchive = (*ArchiveRepository)(nil)
