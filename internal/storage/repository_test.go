package storage

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"budget/internal/core"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T) (*SQLiteStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewSQLiteStore(db), mock
}

func txRows(tx core.Transaction) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "owner_id", "kind", "category", "amount_cents",
		"occurred_at", "description", "created_at", "updated_at",
	}).AddRow(tx.ID, tx.OwnerID, string(tx.Kind), tx.Category, tx.Amount.Cents,
		tx.OccurredAt.UnixMilli(), tx.Description, tx.CreatedAt.UnixMilli(), tx.UpdatedAt.UnixMilli())
}

func TestSQLiteStoreCreate(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO transactions")).
		WithArgs("u1", "expense", "Food", int64(1250), sqlmock.AnyArg(), "", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(7, 1))

	tx := core.Transaction{
		OwnerID:    "u1",
		Kind:       core.KindExpense,
		Category:   "Food",
		Amount:     core.Money{Cents: 1250},
		OccurredAt: time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, store.Create(context.Background(), &tx))
	assert.Equal(t, int64(7), tx.ID)
	assert.False(t, tx.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLiteStoreGetNotFound(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery("SELECT .+ FROM transactions WHERE id = \\? AND owner_id = \\?").
		WithArgs(int64(42), "u1").
		WillReturnError(sql.ErrNoRows)

	_, err := store.Get(context.Background(), "u1", 42)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestSQLiteStoreGet(t *testing.T) {
	store, mock := newMockStore(t)
	want := core.Transaction{
		ID:         42,
		OwnerID:    "u1",
		Kind:       core.KindIncome,
		Category:   "Salary",
		Amount:     core.Money{Cents: 100000},
		OccurredAt: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		CreatedAt:  time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC),
		UpdatedAt:  time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC),
	}
	mock.ExpectQuery("SELECT .+ FROM transactions WHERE id = \\? AND owner_id = \\?").
		WithArgs(int64(42), "u1").
		WillReturnRows(txRows(want))

	got, err := store.Get(context.Background(), "u1", 42)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestSQLiteStoreListBuildsFilteredQuery(t *testing.T) {
	store, mock := newMockStore(t)
	march := core.YearMonth{Year: 2024, Month: time.March}
	start, end := march.Range()
	f := core.ListFilter{
		OwnerID:  "u1",
		Kind:     core.KindExpense,
		Category: "Foo%d",
		Month:    &march,
		Page:     2,
		Limit:    10,
	}

	mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT COUNT(*) FROM transactions WHERE owner_id = ? AND kind = ? AND LOWER(category) LIKE ? ESCAPE '\' AND occurred_at >= ? AND occurred_at < ?`)).
		WithArgs("u1", "expense", `%foo\%d%`, start.UnixMilli(), end.UnixMilli()).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(12))

	tx := core.Transaction{ID: 3, OwnerID: "u1", Kind: core.KindExpense, Category: "Foo%d",
		Amount: core.Money{Cents: 100}, OccurredAt: start, CreatedAt: start, UpdatedAt: start}
	mock.ExpectQuery("SELECT .+ FROM transactions WHERE .+ ORDER BY occurred_at DESC, id DESC LIMIT \\? OFFSET \\?").
		WithArgs("u1", "expense", `%foo\%d%`, start.UnixMilli(), end.UnixMilli(), 10, 10).
		WillReturnRows(txRows(tx))

	txs, total, err := store.List(context.Background(), f)
	require.NoError(t, err)
	assert.Equal(t, int64(12), total)
	require.Len(t, txs, 1)
	assert.Equal(t, int64(3), txs[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLiteStoreUpdateNotFound(t *testing.T) {
	store, mock := newMockStore(t)
	amt := core.Money{Cents: 500}
	mock.ExpectExec("UPDATE transactions SET .+ WHERE id = \\? AND owner_id = \\?").
		WillReturnResult(sqlmock.NewResult(0, 0))

	_, err := store.Update(context.Background(), "u1", 42, core.TransactionUpdate{Amount: &amt})
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestSQLiteStoreUpdateSetsOnlyProvidedColumns(t *testing.T) {
	store, mock := newMockStore(t)
	amt := core.Money{Cents: 500}

	mock.ExpectExec(regexp.QuoteMeta(
		"UPDATE transactions SET updated_at = ?, export_state = 'pending', amount_cents = ? WHERE id = ? AND owner_id = ?")).
		WithArgs(sqlmock.AnyArg(), int64(500), int64(42), "u1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	merged := core.Transaction{ID: 42, OwnerID: "u1", Kind: core.KindExpense, Category: "Food",
		Amount: amt, OccurredAt: now, CreatedAt: now, UpdatedAt: now}
	mock.ExpectQuery("SELECT .+ FROM transactions WHERE id = \\? AND owner_id = \\?").
		WithArgs(int64(42), "u1").
		WillReturnRows(txRows(merged))

	got, err := store.Update(context.Background(), "u1", 42, core.TransactionUpdate{Amount: &amt})
	require.NoError(t, err)
	assert.Equal(t, int64(500), got.Amount.Cents)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLiteStoreDelete(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM transactions WHERE id = ? AND owner_id = ?")).
		WithArgs(int64(42), "u1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, store.Delete(context.Background(), "u1", 42))

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM transactions WHERE id = ? AND owner_id = ?")).
		WithArgs(int64(42), "u1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, store.Delete(context.Background(), "u1", 42), core.ErrNotFound)
}

func TestSQLiteStoreSummarizeByKind(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT kind, COALESCE(SUM(amount_cents), 0) FROM transactions WHERE owner_id = ? GROUP BY kind")).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"kind", "total"}).
			AddRow("income", 100000).
			AddRow("expense", 40000))

	sum, err := store.SummarizeByKind(context.Background(), "u1", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(100000), sum.IncomeCents)
	assert.Equal(t, int64(40000), sum.ExpenseCents)
	assert.Equal(t, int64(60000), sum.BalanceCents())
}

func TestSQLiteStoreSummarizeByKindMonthRange(t *testing.T) {
	store, mock := newMockStore(t)
	ym := core.YearMonth{Year: 2024, Month: time.March}
	start, end := ym.Range()
	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT kind, COALESCE(SUM(amount_cents), 0) FROM transactions WHERE owner_id = ? AND occurred_at >= ? AND occurred_at < ? GROUP BY kind")).
		WithArgs("u1", start.UnixMilli(), end.UnixMilli()).
		WillReturnRows(sqlmock.NewRows([]string{"kind", "total"}))

	sum, err := store.SummarizeByKind(context.Background(), "u1", &ym)
	require.NoError(t, err)
	assert.Zero(t, sum.IncomeCents)
	assert.Zero(t, sum.ExpenseCents)
}
