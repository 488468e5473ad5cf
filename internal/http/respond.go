package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"budget/internal/core"
)

// transactionJSON is the wire shape of a persisted transaction.
type transactionJSON struct {
	ID          int64   `json:"id"`
	OwnerID     string  `json:"ownerId"`
	Type        string  `json:"type"`
	Category    string  `json:"category"`
	Amount      float64 `json:"amount"`
	Date        string  `json:"date"`
	Description string  `json:"description,omitempty"`
	CreatedAt   string  `json:"createdAt"`
	UpdatedAt   string  `json:"updatedAt"`
}

func toTransactionJSON(t core.Transaction) transactionJSON {
	return transactionJSON{
		ID:          t.ID,
		OwnerID:     t.OwnerID,
		Type:        string(t.Kind),
		Category:    t.Category,
		Amount:      t.Amount.Amount(),
		Date:        t.OccurredAt.UTC().Format(time.RFC3339),
		Description: t.Description,
		CreatedAt:   t.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:   t.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

type summaryJSON struct {
	Income   float64 `json:"income"`
	Expenses float64 `json:"expenses"`
	Balance  float64 `json:"balance"`
}

func toSummaryJSON(s core.Summary) summaryJSON {
	return summaryJSON{
		Income:   core.Money{Cents: s.IncomeCents}.Amount(),
		Expenses: core.Money{Cents: s.ExpenseCents}.Amount(),
		Balance:  core.Money{Cents: s.BalanceCents()}.Amount(),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// writeError maps domain errors to responses. Validation failures list
// every violated field; not-found stays generic; everything else is a
// bare server error with details only in the log.
func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	var ve *core.ValidationError
	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"message": "Validation failed",
			"errors":  ve.Violations,
		})
	case errors.Is(err, core.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{
			"message": "Transaction not found",
		})
	default:
		slog.ErrorContext(ctx, "Request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"message": "Server error",
		})
	}
}
