package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"budget/internal/core"
	"budget/internal/storage"
)

type recordingPublisher struct {
	events []string
	fail   bool
}

func (p *recordingPublisher) PublishTransactionEvent(ctx context.Context, op string, id int64) error {
	if p.fail {
		return errors.New("broker down")
	}
	p.events = append(p.events, op)
	return nil
}

type failingStore struct {
	storage.MemoryStore
	called bool
}

func (f *failingStore) Create(ctx context.Context, t *core.Transaction) error {
	f.called = true
	return errors.New("boom")
}

func validDraft() core.Transaction {
	return core.Transaction{
		OwnerID:    "u1",
		Kind:       core.KindExpense,
		Category:   "Food",
		Amount:     core.Money{Cents: 1250},
		OccurredAt: time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
	}
}

func TestCreateValidatesBeforeStore(t *testing.T) {
	fs := &failingStore{}
	svc := NewTransactionService(fs, nil)

	bad := validDraft()
	bad.Amount = core.Money{}
	_, err := svc.Create(context.Background(), bad)
	var ve *core.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if fs.called {
		t.Fatal("store must not be touched when validation fails")
	}
}

func TestCreatePublishesEvent(t *testing.T) {
	pub := &recordingPublisher{}
	svc := NewTransactionService(storage.NewMemoryStore(), pub)

	tx, err := svc.Create(context.Background(), validDraft())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if tx.ID == 0 {
		t.Fatal("expected assigned id")
	}
	if len(pub.events) != 1 || pub.events[0] != "created" {
		t.Fatalf("events = %v", pub.events)
	}
}

func TestPublishFailureDoesNotFailRequest(t *testing.T) {
	svc := NewTransactionService(storage.NewMemoryStore(), &recordingPublisher{fail: true})
	if _, err := svc.Create(context.Background(), validDraft()); err != nil {
		t.Fatalf("create should succeed despite publish failure, got %v", err)
	}
}

func TestUpdateAndDeleteEvents(t *testing.T) {
	pub := &recordingPublisher{}
	svc := NewTransactionService(storage.NewMemoryStore(), pub)
	ctx := context.Background()

	tx, err := svc.Create(ctx, validDraft())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	amt := core.Money{Cents: 900}
	if _, err := svc.Update(ctx, "u1", tx.ID, core.TransactionUpdate{Amount: &amt}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := svc.Delete(ctx, "u1", tx.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	want := []string{"created", "updated", "deleted"}
	if len(pub.events) != len(want) {
		t.Fatalf("events = %v", pub.events)
	}
	for i := range want {
		if pub.events[i] != want[i] {
			t.Fatalf("events = %v", pub.events)
		}
	}
}

func TestUpdateNotFoundPublishesNothing(t *testing.T) {
	pub := &recordingPublisher{}
	svc := NewTransactionService(storage.NewMemoryStore(), pub)

	amt := core.Money{Cents: 900}
	_, err := svc.Update(context.Background(), "u1", 404, core.TransactionUpdate{Amount: &amt})
	if !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if len(pub.events) != 0 {
		t.Fatalf("no event expected, got %v", pub.events)
	}
}

func TestSummaryAllTimeAndMonth(t *testing.T) {
	svc := NewTransactionService(storage.NewMemoryStore(), nil)
	ctx := context.Background()
	now := time.Date(2024, 3, 20, 10, 0, 0, 0, time.UTC)

	mk := func(kind core.Kind, cents int64, at time.Time) {
		d := validDraft()
		d.Kind = kind
		d.Amount = core.Money{Cents: cents}
		d.OccurredAt = at
		if _, err := svc.Create(ctx, d); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	mk(core.KindIncome, 100000, now)
	mk(core.KindExpense, 40000, now)
	mk(core.KindExpense, 7000, now.AddDate(0, -2, 0)) // outside current month

	rep, err := svc.Summary(ctx, "u1", now)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if rep.Total.IncomeCents != 100000 || rep.Total.ExpenseCents != 47000 {
		t.Fatalf("total = %+v", rep.Total)
	}
	if rep.InMonth.IncomeCents != 100000 || rep.InMonth.ExpenseCents != 40000 {
		t.Fatalf("month = %+v", rep.InMonth)
	}
	if rep.InMonth.BalanceCents() != 60000 {
		t.Fatalf("month balance = %d", rep.InMonth.BalanceCents())
	}
	if rep.Month.String() != "2024-03" {
		t.Fatalf("month key = %s", rep.Month)
	}
}
