package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/example/storefront/internal/readmodel"
	_ "github.com/lib/pq"
)

// ActivitySchema creates the cart activity read model table
const ActivitySchema = `
CREATE TABLE IF NOT EXISTS cart_activity (
	cart_token        TEXT PRIMARY KEY,
	user_id           TEXT NOT NULL DEFAULT '',
	items_added       INTEGER NOT NULL DEFAULT 0,
	items_removed     INTEGER NOT NULL DEFAULT 0,
	wishlist_toggles  INTEGER NOT NULL DEFAULT 0,
	last_event        TEXT NOT NULL,
	last_activity_at  TIMESTAMPTZ NOT NULL,
	checked_out       BOOLEAN NOT NULL DEFAULT FALSE,
	order_id          TEXT NOT NULL DEFAULT '',
	updated_at        TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_cart_activity_abandoned ON cart_activity (checked_out, last_activity_at);
`

// PostgresActivityStore implements ActivityStoreInterface using PostgreSQL
type PostgresActivityStore struct {
	db *sql.DB
}

func NewPostgresActivityStore(db *sql.DB) *PostgresActivityStore {
	return &PostgresActivityStore{db: db}
}

// Migrate applies ActivitySchema
func (s *PostgresActivityStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, ActivitySchema); err != nil {
		return fmt.Errorf("failed to create cart_activity table: %w", err)
	}
	return nil
}

func (s *PostgresActivityStore) GetCartActivity(ctx context.Context, cartToken string) (*readmodel.CartActivityReadModel, bool, error) {
	var a readmodel.CartActivityReadModel
	err := s.db.QueryRowContext(ctx, `
		SELECT cart_token, user_id, items_added, items_removed, wishlist_toggles,
		       last_event, last_activity_at, checked_out, order_id, updated_at
		FROM cart_activity WHERE cart_token = $1
	`, cartToken).Scan(
		&a.CartToken, &a.UserID, &a.ItemsAdded, &a.ItemsRemoved, &a.WishlistToggles,
		&a.LastEvent, &a.LastActivityAt, &a.CheckedOut, &a.OrderID, &a.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get cart activity %s: %w", cartToken, err)
	}
	return &a, true, nil
}

func (s *PostgresActivityStore) SaveCartActivity(ctx context.Context, a *readmodel.CartActivityReadModel) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cart_activity (cart_token, user_id, items_added, items_removed, wishlist_toggles,
			last_event, last_activity_at, checked_out, order_id, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (cart_token) DO UPDATE SET
			user_id = EXCLUDED.user_id,
			items_added = EXCLUDED.items_added,
			items_removed = EXCLUDED.items_removed,
			wishlist_toggles = EXCLUDED.wishlist_toggles,
			last_event = EXCLUDED.last_event,
			last_activity_at = EXCLUDED.last_activity_at,
			checked_out = EXCLUDED.checked_out,
			order_id = EXCLUDED.order_id,
			updated_at = EXCLUDED.updated_at
	`, a.CartToken, a.UserID, a.ItemsAdded, a.ItemsRemoved, a.WishlistToggles,
		a.LastEvent, a.LastActivityAt, a.CheckedOut, a.OrderID, a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save cart activity %s: %w", a.CartToken, err)
	}
	return nil
}

// ConnectPostgres establishes a connection to PostgreSQL
func ConnectPostgres(connStr string) (*sql.DB, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	return db, nil
}
