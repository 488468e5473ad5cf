package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"budget/internal/core"
)

// createPayload is the transaction creation body. Amount arrives as a
// JSON number and is parsed with decimal-safe cents conversion, never
// float arithmetic.
type createPayload struct {
	Type        string      `json:"type"`
	Category    string      `json:"category"`
	Amount      json.Number `json:"amount"`
	Date        string      `json:"date"`
	Description string      `json:"description"`
}

// updatePayload mirrors createPayload with one optional slot per
// mutable field. Unknown fields are rejected at decode time.
type updatePayload struct {
	Type        *string      `json:"type"`
	Category    *string      `json:"category"`
	Amount      *json.Number `json:"amount"`
	Date        *string      `json:"date"`
	Description *string      `json:"description"`
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	dec.UseNumber()
	if err := dec.Decode(dst); err != nil {
		ve := &core.ValidationError{}
		ve.Add("body", "request body must be a valid JSON object")
		return ve
	}
	return nil
}

// parseDate accepts RFC3339 timestamps and plain dates.
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	return time.Parse("2006-01-02", s)
}

// pathID reads the {id} path segment. Unparseable ids behave exactly
// like unknown ones, so the response stays a generic 404.
func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id < 1 {
		return 0, core.ErrNotFound
	}
	return id, nil
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	owner, ok := OwnerID(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "authentication required"})
		return
	}

	q := r.URL.Query()
	f, err := core.BuildListFilter(owner, core.FilterParams{
		Month:    q.Get("month"),
		Category: q.Get("category"),
		Kind:     q.Get("type"),
		Page:     q.Get("page"),
		Limit:    q.Get("limit"),
	})
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	txs, pagination, err := s.svc.List(r.Context(), f)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	out := make([]transactionJSON, 0, len(txs))
	for _, t := range txs {
		out = append(out, toTransactionJSON(t))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"transactions": out,
		"pagination":   pagination,
	})
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	owner, ok := OwnerID(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "authentication required"})
		return
	}

	var p createPayload
	if err := decodeJSON(r, &p); err != nil {
		writeError(r.Context(), w, err)
		return
	}

	ve := &core.ValidationError{}
	// An unparseable amount falls through as zero cents and surfaces
	// as the standard positive-amount violation.
	cents, _ := core.ParseDecimalToCents(p.Amount.String())

	var occurredAt time.Time
	if p.Date != "" {
		d, err := parseDate(p.Date)
		if err != nil {
			ve.Add("date", "date must be a valid date")
		} else {
			occurredAt = d
		}
	}

	t := core.Transaction{
		OwnerID:     owner,
		Kind:        core.Kind(p.Type),
		Category:    p.Category,
		Amount:      core.Money{Cents: cents},
		OccurredAt:  occurredAt,
		Description: p.Description,
	}
	t.Normalize(time.Now().UTC())
	ve.Merge(t.Validate())
	if err := ve.OrNil(); err != nil {
		writeError(r.Context(), w, err)
		return
	}

	created, err := s.svc.Create(r.Context(), t)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"message":     "Transaction created successfully",
		"transaction": toTransactionJSON(created),
	})
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	owner, ok := OwnerID(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "authentication required"})
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	t, err := s.svc.Get(r.Context(), owner, id)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"transaction": toTransactionJSON(t)})
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	owner, ok := OwnerID(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "authentication required"})
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	var p updatePayload
	if err := decodeJSON(r, &p); err != nil {
		writeError(r.Context(), w, err)
		return
	}

	ve := &core.ValidationError{}
	var u core.TransactionUpdate
	if p.Type != nil {
		k := core.Kind(*p.Type)
		u.Kind = &k
	}
	u.Category = p.Category
	if p.Amount != nil {
		cents, err := core.ParseDecimalToCents(p.Amount.String())
		if err != nil {
			ve.Add("amount", "amount must be a positive number")
		} else {
			u.Amount = &core.Money{Cents: cents}
		}
	}
	if p.Date != nil {
		d, err := parseDate(*p.Date)
		if err != nil {
			ve.Add("date", "date must be a valid date")
		} else {
			u.OccurredAt = &d
		}
	}
	u.Description = p.Description

	u.Normalize()
	ve.Merge(u.Validate())
	if err := ve.OrNil(); err != nil {
		writeError(r.Context(), w, err)
		return
	}

	updated, err := s.svc.Update(r.Context(), owner, id, u)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":     "Transaction updated successfully",
		"transaction": toTransactionJSON(updated),
	})
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	owner, ok := OwnerID(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "authentication required"})
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	if err := s.svc.Delete(r.Context(), owner, id); err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Transaction deleted successfully"})
}
