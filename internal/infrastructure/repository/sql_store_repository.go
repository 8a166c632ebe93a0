package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"cartesian-metadata-app/internal/domain"
	"cartesian-metadata-app/internal/infrastructure/repository/entity"
	"cartesian-metadata-app/internal/ports"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// recordUsageAttempts bounds the compare-and-swap retries of RecordUsage
const recordUsageAttempts = 5

const storesSchema = `
CREATE TABLE IF NOT EXISTS stores(
  shop_domain TEXT PRIMARY KEY,
  owner_email TEXT NOT NULL DEFAULT '',
  plan TEXT NOT NULL DEFAULT 'free',
  last_reset TEXT NOT NULL,
  metafields_created INTEGER NOT NULL DEFAULT 0,
  created_at TEXT NOT NULL
)`

// OpenSQL opens a database for the store registry. driver is "sqlite" or "postgres".
func OpenSQL(ctx context.Context, driver, dsn string) (*sqlx.DB, error) {
	switch driver {
	case "sqlite", "postgres":
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if driver == "sqlite" {
		// one writer at a time
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

// SQLStoreRepository implements StoreRepository on SQLite or Postgres
type SQLStoreRepository struct {
	db *sqlx.DB
}

// NewSQLStoreRepository creates a new SQL store repository
func NewSQLStoreRepository(db *sqlx.DB) *SQLStoreRepository {
	return &SQLStoreRepository{db: db}
}

var _ ports.StoreRepository = (*SQLStoreRepository)(nil)

// Migrate creates the stores table
func (r *SQLStoreRepository) Migrate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, storesSchema); err != nil {
		return fmt.Errorf("failed to create stores table: %w", err)
	}
	return nil
}

// InsertIfAbsent inserts store unless its domain is already registered
func (r *SQLStoreRepository) InsertIfAbsent(ctx context.Context, store *domain.Store) (bool, error) {
	row := entity.SQLStoreRowFromDomain(store)
	res, err := r.db.NamedExecContext(ctx, `
		INSERT INTO stores(shop_domain, owner_email, plan, last_reset, metafields_created, created_at)
		VALUES (:shop_domain, :owner_email, :plan, :last_reset, :metafields_created, :created_at)
		ON CONFLICT(shop_domain) DO NOTHING
	`, row)
	if err != nil {
		return false, fmt.Errorf("failed to insert store: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to insert store: %w", err)
	}
	return n > 0, nil
}

// GetByDomain retrieves a store by shop domain
func (r *SQLStoreRepository) GetByDomain(ctx context.Context, shopDomain string) (*domain.Store, error) {
	var row entity.SQLStoreRow
	err := r.db.GetContext(ctx, &row, r.db.Rebind(`
		SELECT shop_domain, owner_email, plan, last_reset, metafields_created, created_at
		FROM stores WHERE shop_domain = ?
	`), shopDomain)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get store: %w", err)
	}
	store, err := row.ToDomain()
	if err != nil {
		return nil, fmt.Errorf("failed to decode store %s: %w", shopDomain, err)
	}
	return store, nil
}

// List retrieves all stores ordered by domain
func (r *SQLStoreRepository) List(ctx context.Context) ([]*domain.Store, error) {
	var rows []entity.SQLStoreRow
	if err := r.db.SelectContext(ctx, &rows, `
		SELECT shop_domain, owner_email, plan, last_reset, metafields_created, created_at
		FROM stores ORDER BY shop_domain
	`); err != nil {
		return nil, fmt.Errorf("failed to list stores: %w", err)
	}

	stores := make([]*domain.Store, 0, len(rows))
	for i := range rows {
		store, err := rows[i].ToDomain()
		if err != nil {
			return nil, fmt.Errorf("failed to decode store %s: %w", rows[i].ShopDomain, err)
		}
		stores = append(stores, store)
	}
	return stores, nil
}

// UpdatePlan sets the plan of a store
func (r *SQLStoreRepository) UpdatePlan(ctx context.Context, shopDomain string, plan domain.Plan) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`UPDATE stores SET plan = ? WHERE shop_domain = ?`), string(plan), shopDomain)
	if err != nil {
		return fmt.Errorf("failed to update plan: %w", err)
	}
	return requireRow(res, shopDomain)
}

// RecordUsage adds n to the usage counter. The update only applies when the
// row still holds the values it was computed from, and is retried otherwise.
func (r *SQLStoreRepository) RecordUsage(ctx context.Context, shopDomain string, n int, now time.Time) (*domain.Store, error) {
	for attempt := 0; attempt < recordUsageAttempts; attempt++ {
		current, err := r.GetByDomain(ctx, shopDomain)
		if err != nil {
			return nil, err
		}
		if current == nil {
			return nil, &domain.ErrNotFound{Resource: "store", ID: shopDomain}
		}

		count, lastReset := current.ApplyUsage(n, now)
		res, err := r.db.ExecContext(ctx, r.db.Rebind(`
			UPDATE stores SET metafields_created = ?, last_reset = ?
			WHERE shop_domain = ? AND metafields_created = ? AND last_reset = ?
		`), count, entity.FormatTime(lastReset), shopDomain, current.MetafieldsCreated, entity.FormatTime(current.LastReset))
		if err != nil {
			return nil, fmt.Errorf("failed to record usage: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("failed to record usage: %w", err)
		}
		if affected == 1 {
			current.MetafieldsCreated = count
			current.LastReset = lastReset
			return current, nil
		}
	}
	return nil, fmt.Errorf("failed to record usage for %s: concurrent updates", shopDomain)
}

// ResetUsage zeroes the usage counter and restarts the window at now
func (r *SQLStoreRepository) ResetUsage(ctx context.Context, shopDomain string, now time.Time) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`
		UPDATE stores SET metafields_created = 0, last_reset = ? WHERE shop_domain = ?
	`), entity.FormatTime(now), shopDomain)
	if err != nil {
		return fmt.Errorf("failed to reset usage: %w", err)
	}
	return requireRow(res, shopDomain)
}

func requireRow(res sql.Result, shopDomain string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return &domain.ErrNotFound{Resource: "store", ID: shopDomain}
	}
	return nil
}
