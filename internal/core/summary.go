package core

// Summary holds income and expense totals for some set of
// transactions. Balance is always derived, never stored, so the
// income - expenses == balance identity holds by construction.
type Summary struct {
	IncomeCents  int64
	ExpenseCents int64
}

// BalanceCents returns income minus expenses.
func (s Summary) BalanceCents() int64 {
	return s.IncomeCents - s.ExpenseCents
}

// Accumulate adds an amount under the given kind. Unknown kinds are
// ignored; they cannot occur for persisted records.
func (s *Summary) Accumulate(k Kind, cents int64) {
	switch k {
	case KindIncome:
		s.IncomeCents += cents
	case KindExpense:
		s.ExpenseCents += cents
	}
}

// Summarize reduces a transaction slice to its totals. The zero value
// is returned for an empty slice.
func Summarize(txs []Transaction) Summary {
	var s Summary
	for _, t := range txs {
		s.Accumulate(t.Kind, t.Amount.Cents)
	}
	return s
}
