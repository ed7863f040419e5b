package vault

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mnbf9rca/family-medical-app-sub001/internal/dbx"
)

// SQLiteBackend stores slots in two tables of the local database:
// secure_items for secret material and settings for plain scalars. The
// database file itself is expected to live in an OS-protected app
// directory; table separation mirrors the keychain/defaults split of the
// mobile clients.
type SQLiteBackend struct {
	db  *sql.DB
	q   dbx.DBTX
	sec *slotRepo
	sca *slotRepo
}

// NewSQLiteBackend wraps an open database. Run migrations first (see
// InitDatabase).
func NewSQLiteBackend(db *sql.DB) *SQLiteBackend {
	b := &SQLiteBackend{db: db, q: db}
	b.sec = &slotRepo{q: db, table: "secure_items"}
	b.sca = &slotRepo{q: db, table: "settings"}
	return b
}

func (b *SQLiteBackend) Secure() Store  { return b.sec }
func (b *SQLiteBackend) Scalars() Store { return b.sca }

// InTx runs fn against transaction-bound stores. Nested transactions are
// not supported; calling InTx from within fn returns an error.
func (b *SQLiteBackend) InTx(ctx context.Context, fn func(Backend) error) error {
	if b.db == nil {
		return errors.New("already in transaction")
	}
	return dbx.WithTx(ctx, b.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		txBackend := &SQLiteBackend{
			q:   tx,
			sec: &slotRepo{q: tx, table: "secure_items"},
			sca: &slotRepo{q: tx, table: "settings"},
		}
		return fn(txBackend)
	})
}

// slotRepo is one named-slot table.
type slotRepo struct {
	q     dbx.DBTX
	table string
}

func (r *slotRepo) Get(ctx context.Context, slot string) ([]byte, error) {
	var value []byte
	err := r.q.QueryRowContext(ctx,
		`SELECT value FROM `+r.table+` WHERE slot = ?`, slot).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s[%s]: %w", r.table, slot, ErrNotSet)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s[%s]: %w", r.table, slot, err)
	}
	return value, nil
}

func (r *slotRepo) Set(ctx context.Context, slot string, value []byte) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO `+r.table+` (slot, value) VALUES (?, ?)
		ON CONFLICT(slot) DO UPDATE SET value = excluded.value
	`, slot, value)
	if err != nil {
		return fmt.Errorf("failed to set %s[%s]: %w", r.table, slot, err)
	}
	return nil
}

func (r *slotRepo) Delete(ctx context.Context, slot string) error {
	_, err := r.q.ExecContext(ctx, `DELETE FROM `+r.table+` WHERE slot = ?`, slot)
	if err != nil {
		return fmt.Errorf("failed to delete %s[%s]: %w", r.table, slot, err)
	}
	return nil
}
