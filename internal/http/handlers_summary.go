package http

import (
	"net/http"
	"time"
)

// handleSummary returns income, expense and balance totals, all-time
// and for the current calendar month. Totals are aggregated in the
// store, so they do not depend on any page-size cap.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	owner, ok := OwnerID(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "authentication required"})
		return
	}

	rep, err := s.svc.Summary(r.Context(), owner, time.Now().UTC())
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	monthly := toSummaryJSON(rep.InMonth)
	writeJSON(w, http.StatusOK, map[string]any{
		"total": toSummaryJSON(rep.Total),
		"month": map[string]any{
			"month":    rep.Month.String(),
			"income":   monthly.Income,
			"expenses": monthly.Expenses,
			"balance":  monthly.Balance,
		},
	})
}
