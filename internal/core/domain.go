package core

import (
	"strings"
	"time"
)

const (
	KindIncome  Kind = "income"
	KindExpense Kind = "expense"
)

const (
	MaxCategoryLen    = 30
	MaxDescriptionLen = 200
)

type (
	// Kind is the transaction direction, income or expense.
	Kind string

	// Transaction is a single financial event belonging to one owner.
	Transaction struct {
		ID          int64
		OwnerID     string
		Kind        Kind
		Category    string
		Amount      Money
		OccurredAt  time.Time
		Description string
		CreatedAt   time.Time
		UpdatedAt   time.Time
	}

	// TransactionUpdate carries a partial update: one optional slot per
	// mutable field. Only non-nil fields are applied; the owner is never
	// changeable.
	TransactionUpdate struct {
		Kind        *Kind
		Category    *string
		Amount      *Money
		OccurredAt  *time.Time
		Description *string
	}
)

// ParseKind normalizes and checks a transaction type string.
func ParseKind(s string) (Kind, bool) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	return k, k.Valid()
}

func (k Kind) Valid() bool {
	return k == KindIncome || k == KindExpense
}

// Normalize trims free-text fields, lowercases the kind and defaults a
// missing date to now. Call before Validate.
func (t *Transaction) Normalize(now time.Time) {
	t.Kind = Kind(strings.ToLower(strings.TrimSpace(string(t.Kind))))
	t.Category = strings.TrimSpace(t.Category)
	t.Description = strings.TrimSpace(t.Description)
	if t.OccurredAt.IsZero() {
		t.OccurredAt = now
	}
	t.OccurredAt = t.OccurredAt.UTC()
}

// Validate checks every field constraint and reports all violations at
// once. It never mutates the transaction.
func (t Transaction) Validate() *ValidationError {
	ve := &ValidationError{}
	if t.OwnerID == "" {
		ve.Add("ownerId", "owner is required")
	}
	if !t.Kind.Valid() {
		ve.Add("type", "type must be either income or expense")
	}
	if t.Category == "" || len(t.Category) > MaxCategoryLen {
		ve.Add("category", "category is required and must be less than 30 characters")
	}
	if t.Amount.Cents < 1 {
		ve.Add("amount", "amount must be a positive number")
	}
	if len(t.Description) > MaxDescriptionLen {
		ve.Add("description", "description cannot exceed 200 characters")
	}
	return ve
}

// Normalize trims and lowercases the provided fields only.
func (u *TransactionUpdate) Normalize() {
	if u.Kind != nil {
		k := Kind(strings.ToLower(strings.TrimSpace(string(*u.Kind))))
		u.Kind = &k
	}
	if u.Category != nil {
		c := strings.TrimSpace(*u.Category)
		u.Category = &c
	}
	if u.Description != nil {
		d := strings.TrimSpace(*u.Description)
		u.Description = &d
	}
	if u.OccurredAt != nil {
		d := u.OccurredAt.UTC()
		u.OccurredAt = &d
	}
}

// Validate re-checks only the fields present in the update.
func (u TransactionUpdate) Validate() *ValidationError {
	ve := &ValidationError{}
	if u.Kind != nil && !u.Kind.Valid() {
		ve.Add("type", "type must be either income or expense")
	}
	if u.Category != nil && (*u.Category == "" || len(*u.Category) > MaxCategoryLen) {
		ve.Add("category", "category must be between 1 and 30 characters")
	}
	if u.Amount != nil && u.Amount.Cents < 1 {
		ve.Add("amount", "amount must be a positive number")
	}
	if u.Description != nil && len(*u.Description) > MaxDescriptionLen {
		ve.Add("description", "description cannot exceed 200 characters")
	}
	return ve
}

// Empty reports whether the update carries no fields at all.
func (u TransactionUpdate) Empty() bool {
	return u.Kind == nil && u.Category == nil && u.Amount == nil &&
		u.OccurredAt == nil && u.Description == nil
}

// Apply merges the update onto a transaction copy and returns it.
func (u TransactionUpdate) Apply(t Transaction) Transaction {
	if u.Kind != nil {
		t.Kind = *u.Kind
	}
	if u.Category != nil {
		t.Category = *u.Category
	}
	if u.Amount != nil {
		t.Amount = *u.Amount
	}
	if u.OccurredAt != nil {
		t.OccurredAt = *u.OccurredAt
	}
	if u.Description != nil {
		t.Description = *u.Description
	}
	return t
}
