// Package services orchestrates transaction operations across the
// record store and the AMQP event stream.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"budget/internal/amqp"
	"budget/internal/core"
)

// Store is the transaction record store contract. Both the SQLite and
// the in-memory backend satisfy it. Every method is scoped to an owner
// except List, whose filter carries the owner itself.
type Store interface {
	Create(ctx context.Context, t *core.Transaction) error
	Get(ctx context.Context, ownerID string, id int64) (core.Transaction, error)
	List(ctx context.Context, f core.ListFilter) ([]core.Transaction, int64, error)
	Update(ctx context.Context, ownerID string, id int64, u core.TransactionUpdate) (core.Transaction, error)
	Delete(ctx context.Context, ownerID string, id int64) error
	SummarizeByKind(ctx context.Context, ownerID string, month *core.YearMonth) (core.Summary, error)
}

// EventPublisher publishes transaction change notifications.
type EventPublisher interface {
	PublishTransactionEvent(ctx context.Context, op string, id int64) error
}

// SummaryReport holds all-time plus current-month totals for one
// owner's dashboard.
type SummaryReport struct {
	Total   core.Summary
	Month   core.YearMonth
	InMonth core.Summary
}

// TransactionService validates and persists transactions, then
// publishes change events best-effort: a publish failure is logged and
// never fails the caller's request, since the write already committed.
type TransactionService struct {
	store  Store
	events EventPublisher
}

// NewTransactionService creates the service. events may be nil when no
// broker is configured.
func NewTransactionService(store Store, events EventPublisher) *TransactionService {
	return &TransactionService{store: store, events: events}
}

// Create validates the draft fully before any mutation, persists it
// for its owner and returns the stored record.
func (s *TransactionService) Create(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	t.Normalize(time.Now().UTC())
	if err := t.Validate().OrNil(); err != nil {
		return core.Transaction{}, err
	}

	if err := s.store.Create(ctx, &t); err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}
	s.publish(ctx, amqp.OpCreated, t.ID)
	return t, nil
}

// Get returns one owner-scoped transaction.
func (s *TransactionService) Get(ctx context.Context, ownerID string, id int64) (core.Transaction, error) {
	return s.store.Get(ctx, ownerID, id)
}

// List returns a page of matching transactions plus pagination
// metadata for the already-validated filter.
func (s *TransactionService) List(ctx context.Context, f core.ListFilter) ([]core.Transaction, core.Pagination, error) {
	txs, total, err := s.store.List(ctx, f)
	if err != nil {
		return nil, core.Pagination{}, fmt.Errorf("list transactions: %w", err)
	}
	return txs, core.NewPagination(f, total, len(txs)), nil
}

// Update validates the partial update before touching the store, then
// applies only the provided fields.
func (s *TransactionService) Update(ctx context.Context, ownerID string, id int64, u core.TransactionUpdate) (core.Transaction, error) {
	u.Normalize()
	if err := u.Validate().OrNil(); err != nil {
		return core.Transaction{}, err
	}

	t, err := s.store.Update(ctx, ownerID, id, u)
	if err != nil {
		return core.Transaction{}, err
	}
	s.publish(ctx, amqp.OpUpdated, t.ID)
	return t, nil
}

// Delete removes the owner's transaction permanently.
func (s *TransactionService) Delete(ctx context.Context, ownerID string, id int64) error {
	if err := s.store.Delete(ctx, ownerID, id); err != nil {
		return err
	}
	s.publish(ctx, amqp.OpDeleted, id)
	return nil
}

// Summary computes the owner's all-time and current-month totals. The
// sums come from the store's grouped aggregation, so they are exact
// regardless of how many transactions exist.
func (s *TransactionService) Summary(ctx context.Context, ownerID string, now time.Time) (SummaryReport, error) {
	total, err := s.store.SummarizeByKind(ctx, ownerID, nil)
	if err != nil {
		return SummaryReport{}, fmt.Errorf("summarize all transactions: %w", err)
	}

	ym := core.CurrentYearMonth(now)
	inMonth, err := s.store.SummarizeByKind(ctx, ownerID, &ym)
	if err != nil {
		return SummaryReport{}, fmt.Errorf("summarize month transactions: %w", err)
	}

	return SummaryReport{Total: total, Month: ym, InMonth: inMonth}, nil
}

func (s *TransactionService) publish(ctx context.Context, op string, id int64) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishTransactionEvent(ctx, op, id); err != nil {
		slog.ErrorContext(ctx, "Failed to publish transaction event",
			"op", op, "id", id, "error", err)
	}
}
