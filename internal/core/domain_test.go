package core

import (
	"errors"
	"testing"
	"time"
)

func TestParseKind(t *testing.T) {
	cases := []struct {
		in   string
		kind Kind
		ok   bool
	}{
		{"income", KindIncome, true},
		{"expense", KindExpense, true},
		{"EXPENSE", KindExpense, true},
		{" Income ", KindIncome, true},
		{"transfer", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		k, ok := ParseKind(tc.in)
		if ok != tc.ok {
			t.Fatalf("%q expected ok=%v, got %v", tc.in, tc.ok, ok)
		}
		if ok && k != tc.kind {
			t.Fatalf("%q expected %q, got %q", tc.in, tc.kind, k)
		}
	}
}

func TestTransactionValidate(t *testing.T) {
	good := Transaction{
		OwnerID:    "u1",
		Kind:       KindExpense,
		Category:   "Food & Dining",
		Amount:     Money{Cents: 1250},
		OccurredAt: time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
	}
	if err := good.Validate().OrNil(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []Transaction{
		{OwnerID: "u1", Kind: "transfer", Category: "c", Amount: Money{Cents: 1}},
		{OwnerID: "u1", Kind: KindIncome, Category: "", Amount: Money{Cents: 1}},
		{OwnerID: "u1", Kind: KindIncome, Category: longString(31), Amount: Money{Cents: 1}},
		{OwnerID: "u1", Kind: KindIncome, Category: "c", Amount: Money{Cents: 0}},
		{OwnerID: "u1", Kind: KindIncome, Category: "c", Amount: Money{Cents: -100}},
		{OwnerID: "u1", Kind: KindIncome, Category: "c", Amount: Money{Cents: 1}, Description: longString(201)},
		{OwnerID: "", Kind: KindIncome, Category: "c", Amount: Money{Cents: 1}},
	}
	for i, tx := range bads {
		if err := tx.Validate().OrNil(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestValidateCollectsAllViolations(t *testing.T) {
	bad := Transaction{OwnerID: "u1", Kind: "nope", Category: "", Amount: Money{Cents: 0}}
	err := bad.Validate().OrNil()
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
	if len(ve.Violations) != 3 {
		t.Fatalf("expected 3 violations, got %d: %v", len(ve.Violations), ve.Violations)
	}
	fields := map[string]bool{}
	for _, v := range ve.Violations {
		fields[v.Field] = true
	}
	for _, f := range []string{"type", "category", "amount"} {
		if !fields[f] {
			t.Fatalf("missing violation for field %q", f)
		}
	}
}

func TestNormalizeDefaultsDate(t *testing.T) {
	now := time.Date(2024, 3, 15, 12, 30, 0, 0, time.UTC)
	tx := Transaction{Kind: " Expense ", Category: " Food ", Description: " x "}
	tx.Normalize(now)
	if tx.Kind != KindExpense {
		t.Fatalf("kind not normalized: %q", tx.Kind)
	}
	if tx.Category != "Food" || tx.Description != "x" {
		t.Fatalf("fields not trimmed: %q %q", tx.Category, tx.Description)
	}
	if !tx.OccurredAt.Equal(now) {
		t.Fatalf("expected default date %v, got %v", now, tx.OccurredAt)
	}
}

func TestTransactionUpdateValidateAndApply(t *testing.T) {
	base := Transaction{
		OwnerID:    "u1",
		Kind:       KindExpense,
		Category:   "Food",
		Amount:     Money{Cents: 1250},
		OccurredAt: time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
	}

	amt := Money{Cents: 999}
	upd := TransactionUpdate{Amount: &amt}
	if err := upd.Validate().OrNil(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	got := upd.Apply(base)
	if got.Amount.Cents != 999 {
		t.Fatalf("amount not applied: %d", got.Amount.Cents)
	}
	// Untouched fields must survive a partial update.
	if got.Kind != base.Kind || got.Category != base.Category ||
		got.Description != base.Description || !got.OccurredAt.Equal(base.OccurredAt) {
		t.Fatalf("partial update changed unrelated fields: %+v", got)
	}

	badKind := Kind("transfer")
	zero := Money{}
	bad := TransactionUpdate{Kind: &badKind, Amount: &zero}
	err := bad.Validate().OrNil()
	var ve *ValidationError
	if !errors.As(err, &ve) || len(ve.Violations) != 2 {
		t.Fatalf("expected 2 violations, got %v", err)
	}

	if !(TransactionUpdate{}).Empty() {
		t.Fatal("zero update should be empty")
	}
	if upd.Empty() {
		t.Fatal("update with amount should not be empty")
	}
}

func longString(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = 'a'
	}
	return string(b)
}
