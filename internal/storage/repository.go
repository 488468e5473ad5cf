// Package storage persists transactions in SQLite. Queries are always
// owner-scoped: a row is only ever visible to the owner named in the
// call, and a miss for "wrong owner" is indistinguishable from a miss
// for "no such row".
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"budget/internal/core"

	_ "modernc.org/sqlite"
)

const txColumns = "id, owner_id, kind, category, amount_cents, occurred_at, description, created_at, updated_at"

type SQLiteStore struct {
	db      *sql.DB
	ownedDB bool
}

// Open creates the database file if needed, runs migrations and
// returns a ready store.
func Open(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	s := NewSQLiteStore(db)
	s.ownedDB = true
	return s, nil
}

// NewSQLiteStore wraps an existing connection. The caller keeps
// ownership of db.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) Close() error {
	if s.ownedDB && s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Create persists a new transaction and fills in its ID and
// timestamps. The transaction must already be validated.
func (s *SQLiteStore) Create(ctx context.Context, t *core.Transaction) error {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO transactions (owner_id, kind, category, amount_cents, occurred_at, description, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.OwnerID, string(t.Kind), t.Category, t.Amount.Cents,
		t.OccurredAt.UnixMilli(), t.Description, now.UnixMilli(), now.UnixMilli())
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	t.ID = id
	t.CreatedAt = now
	t.UpdatedAt = now

	slog.InfoContext(ctx, "Transaction saved",
		"id", t.ID,
		"owner", t.OwnerID,
		"kind", t.Kind,
		"amount_cents", t.Amount.Cents)
	return nil
}

// Get returns one transaction scoped to its owner.
func (s *SQLiteStore) Get(ctx context.Context, ownerID string, id int64) (core.Transaction, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+txColumns+" FROM transactions WHERE id = ? AND owner_id = ?",
		id, ownerID)
	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, core.ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return t, nil
}

// List returns one page of the owner's transactions matching the
// filter, newest first, together with the unpaginated match count.
func (s *SQLiteStore) List(ctx context.Context, f core.ListFilter) ([]core.Transaction, int64, error) {
	where, args := buildWhere(f)

	var total int64
	if err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM transactions WHERE "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count transactions: %w", err)
	}

	query := "SELECT " + txColumns + " FROM transactions WHERE " + where +
		" ORDER BY occurred_at DESC, id DESC LIMIT ? OFFSET ?"
	rows, err := s.db.QueryContext(ctx, query, append(args, f.Limit, f.Skip())...)
	if err != nil {
		return nil, 0, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var txs []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan transaction: %w", err)
		}
		txs = append(txs, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate transactions: %w", err)
	}
	return txs, total, nil
}

// Update applies the provided fields only and returns the merged
// record. A miss (absent or not owned) yields core.ErrNotFound.
func (s *SQLiteStore) Update(ctx context.Context, ownerID string, id int64, u core.TransactionUpdate) (core.Transaction, error) {
	sets := []string{"updated_at = ?", "export_state = 'pending'"}
	args := []any{time.Now().UTC().UnixMilli()}
	if u.Kind != nil {
		sets = append(sets, "kind = ?")
		args = append(args, string(*u.Kind))
	}
	if u.Category != nil {
		sets = append(sets, "category = ?")
		args = append(args, *u.Category)
	}
	if u.Amount != nil {
		sets = append(sets, "amount_cents = ?")
		args = append(args, u.Amount.Cents)
	}
	if u.OccurredAt != nil {
		sets = append(sets, "occurred_at = ?")
		args = append(args, u.OccurredAt.UnixMilli())
	}
	if u.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *u.Description)
	}
	args = append(args, id, ownerID)

	res, err := s.db.ExecContext(ctx,
		"UPDATE transactions SET "+strings.Join(sets, ", ")+" WHERE id = ? AND owner_id = ?",
		args...)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return core.Transaction{}, fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return core.Transaction{}, core.ErrNotFound
	}

	slog.InfoContext(ctx, "Transaction updated", "id", id, "owner", ownerID)
	return s.Get(ctx, ownerID, id)
}

// Delete removes the row permanently. A miss yields core.ErrNotFound.
func (s *SQLiteStore) Delete(ctx context.Context, ownerID string, id int64) error {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM transactions WHERE id = ? AND owner_id = ?", id, ownerID)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return core.ErrNotFound
	}

	slog.InfoContext(ctx, "Transaction deleted", "id", id, "owner", ownerID)
	return nil
}

// SummarizeByKind computes income and expense totals in the database,
// optionally restricted to one calendar month. No row set is
// materialized, so totals stay correct however many records exist.
func (s *SQLiteStore) SummarizeByKind(ctx context.Context, ownerID string, month *core.YearMonth) (core.Summary, error) {
	query := "SELECT kind, COALESCE(SUM(amount_cents), 0) FROM transactions WHERE owner_id = ?"
	args := []any{ownerID}
	if month != nil {
		start, end := month.Range()
		query += " AND occurred_at >= ? AND occurred_at < ?"
		args = append(args, start.UnixMilli(), end.UnixMilli())
	}
	query += " GROUP BY kind"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return core.Summary{}, fmt.Errorf("summarize transactions: %w", err)
	}
	defer rows.Close()

	var sum core.Summary
	for rows.Next() {
		var kind string
		var cents int64
		if err := rows.Scan(&kind, &cents); err != nil {
			return core.Summary{}, fmt.Errorf("scan summary row: %w", err)
		}
		sum.Accumulate(core.Kind(kind), cents)
	}
	if err := rows.Err(); err != nil {
		return core.Summary{}, fmt.Errorf("iterate summary rows: %w", err)
	}
	return sum, nil
}

// GetByID loads a transaction regardless of owner. Export worker use
// only; never expose this to request handling.
func (s *SQLiteStore) GetByID(ctx context.Context, id int64) (core.Transaction, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+txColumns+" FROM transactions WHERE id = ?", id)
	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, core.ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction by id: %w", err)
	}
	return t, nil
}

// PendingExport returns transactions not yet written to the export
// sink, oldest first.
func (s *SQLiteStore) PendingExport(ctx context.Context, limit int) ([]core.Transaction, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+txColumns+" FROM transactions WHERE export_state = 'pending' ORDER BY id LIMIT ?",
		limit)
	if err != nil {
		return nil, fmt.Errorf("pending export transactions: %w", err)
	}
	defer rows.Close()

	var txs []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		txs = append(txs, t)
	}
	return txs, rows.Err()
}

// MarkExported records a successful export.
func (s *SQLiteStore) MarkExported(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE transactions SET export_state = 'exported', exported_at = ? WHERE id = ?",
		time.Now().UTC().UnixMilli(), id)
	if err != nil {
		return fmt.Errorf("mark transaction exported: %w", err)
	}
	return nil
}

// MarkExportError flags a transaction whose export failed so the
// periodic scan can pick it up again later.
func (s *SQLiteStore) MarkExportError(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE transactions SET export_state = 'error' WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("mark transaction export error: %w", err)
	}
	slog.WarnContext(ctx, "Transaction marked with export error", "id", id)
	return nil
}

func buildWhere(f core.ListFilter) (string, []any) {
	where := []string{"owner_id = ?"}
	args := []any{f.OwnerID}
	if f.Kind != "" {
		where = append(where, "kind = ?")
		args = append(args, string(f.Kind))
	}
	if f.Category != "" {
		where = append(where, `LOWER(category) LIKE ? ESCAPE '\'`)
		args = append(args, likePattern(f.Category))
	}
	if f.Month != nil {
		start, end := f.Month.Range()
		where = append(where, "occurred_at >= ?", "occurred_at < ?")
		args = append(args, start.UnixMilli(), end.UnixMilli())
	}
	return strings.Join(where, " AND "), args
}

// likePattern builds a case-insensitive substring pattern, escaping
// LIKE metacharacters in the user input.
func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.ToLower(s)) + "%"
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var t core.Transaction
	var kind string
	var occurredAt, createdAt, updatedAt int64
	err := row.Scan(&t.ID, &t.OwnerID, &kind, &t.Category, &t.Amount.Cents,
		&occurredAt, &t.Description, &createdAt, &updatedAt)
	if err != nil {
		return core.Transaction{}, err
	}
	t.Kind = core.Kind(kind)
	t.OccurredAt = time.UnixMilli(occurredAt).UTC()
	t.CreatedAt = time.UnixMilli(createdAt).UTC()
	t.UpdatedAt = time.UnixMilli(updatedAt).UTC()
	return t, nil
}
