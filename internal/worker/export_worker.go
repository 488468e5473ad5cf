// Package worker implements the transaction export worker. It drains
// transaction change events from AMQP and appends one CSV row per
// record to the export file, marking each row exported in the store.
// A periodic scan re-exports anything a lost event left behind.
package worker

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"budget/internal/amqp"
	"budget/internal/core"
)

// Store is the subset of the SQLite store the worker needs. Lookups
// are by bare id: the worker runs outside any request and serves every
// owner.
type Store interface {
	GetByID(ctx context.Context, id int64) (core.Transaction, error)
	PendingExport(ctx context.Context, limit int) ([]core.Transaction, error)
	MarkExported(ctx context.Context, id int64) error
	MarkExportError(ctx context.Context, id int64) error
}

// Consumer delivers transaction events until the context ends.
type Consumer interface {
	ConsumeTransactionEvents(ctx context.Context, handler func(*amqp.TransactionEvent) error) error
}

type ExportWorker struct {
	store    Store
	consumer Consumer

	mu  sync.Mutex
	out *os.File
	csv *csv.Writer

	batchSize int
	interval  time.Duration
}

// NewExportWorker opens (or creates) the export file in append mode.
func NewExportWorker(store Store, consumer Consumer, path string, batchSize int, interval time.Duration) (*ExportWorker, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("open export file: %w", err)
	}
	return &ExportWorker{
		store:     store,
		consumer:  consumer,
		out:       f,
		csv:       csv.NewWriter(f),
		batchSize: batchSize,
		interval:  interval,
	}, nil
}

// Run blocks until ctx is cancelled, consuming events and scanning for
// pending rows in parallel.
func (w *ExportWorker) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	if w.consumer != nil {
		g.Go(func() error {
			return w.consumer.ConsumeTransactionEvents(ctx, func(ev *amqp.TransactionEvent) error {
				return w.HandleEvent(ctx, ev)
			})
		})
	}

	g.Go(func() error {
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
				if err := w.ExportPending(ctx); err != nil {
					slog.ErrorContext(ctx, "Pending export scan failed", "error", err)
				}
			}
		}
	})

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// HandleEvent exports the transaction named by one change event.
func (w *ExportWorker) HandleEvent(ctx context.Context, ev *amqp.TransactionEvent) error {
	if ev.Op == amqp.OpDeleted {
		// The row is gone; record the deletion itself.
		return w.writeRow(ev.Op, core.Transaction{ID: ev.ID})
	}

	t, err := w.store.GetByID(ctx, ev.ID)
	if errors.Is(err, core.ErrNotFound) {
		// Deleted between event and processing; nothing to export.
		slog.WarnContext(ctx, "Transaction vanished before export", "id", ev.ID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("load transaction %d: %w", ev.ID, err)
	}

	if err := w.writeRow(ev.Op, t); err != nil {
		if markErr := w.store.MarkExportError(ctx, t.ID); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark export error", "id", t.ID, "error", markErr)
		}
		return err
	}
	return w.store.MarkExported(ctx, t.ID)
}

// ExportPending writes out up to batchSize rows still waiting for
// export. Events normally beat the scan to it; this catches losses.
func (w *ExportWorker) ExportPending(ctx context.Context) error {
	txs, err := w.store.PendingExport(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("list pending transactions: %w", err)
	}
	if len(txs) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Exporting pending transactions", "count", len(txs))
	for _, t := range txs {
		if err := w.writeRow("pending", t); err != nil {
			if markErr := w.store.MarkExportError(ctx, t.ID); markErr != nil {
				slog.ErrorContext(ctx, "Failed to mark export error", "id", t.ID, "error", markErr)
			}
			return err
		}
		if err := w.store.MarkExported(ctx, t.ID); err != nil {
			return fmt.Errorf("mark exported %d: %w", t.ID, err)
		}
	}
	return nil
}

func (w *ExportWorker) writeRow(op string, t core.Transaction) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	record := []string{
		time.Now().UTC().Format(time.RFC3339),
		op,
		strconv.FormatInt(t.ID, 10),
		t.OwnerID,
		string(t.Kind),
		t.Category,
		t.Amount.String(),
		formatTime(t.OccurredAt),
		t.Description,
	}
	if err := w.csv.Write(record); err != nil {
		return fmt.Errorf("write export row: %w", err)
	}
	w.csv.Flush()
	return w.csv.Error()
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// Close flushes and closes the export file.
func (w *ExportWorker) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.csv.Flush()
	return w.out.Close()
}
