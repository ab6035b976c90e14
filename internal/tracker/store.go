package tracker

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gw2tools/tpwatch/internal/model"
)

// Store persists tracked targets in the tracked_targets table.
type Store struct {
	db *pgxpool.Pool
}

// NewStore creates a Store backed by the given pool.
func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// Add inserts a new tracked target.
func (s *Store) Add(ctx context.Context, e Entry) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO tracked_targets (id, item_id, kind, target_price, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, e.ID, e.ItemID, e.Kind.String(), e.TargetPrice, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting tracked target: %w", err)
	}
	return nil
}

// Remove deletes a tracked target by ID. It returns false when no row matched.
func (s *Store) Remove(ctx context.Context, id uuid.UUID) (bool, error) {
	ct, err := s.db.Exec(ctx, `DELETE FROM tracked_targets WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("deleting tracked target: %w", err)
	}
	return ct.RowsAffected() > 0, nil
}

// List returns all tracked targets.
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, item_id, kind, target_price, created_at
		FROM tracked_targets
		ORDER BY created_at
	`)
	if err != nil {
		return nil, fmt.Errorf("listing tracked targets: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var kind string
		if err := rows.Scan(&e.ID, &e.ItemID, &kind, &e.TargetPrice, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning tracked target: %w", err)
		}
		switch kind {
		case "sell":
			e.Kind = model.KindSell
		default:
			e.Kind = model.KindBuy
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading tracked targets: %w", err)
	}
	return entries, nil
}
