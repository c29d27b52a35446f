package handlers

import (
	"net/http"
	"strconv"
)

// Credits returns the caller's current balance plus a page of recent
// journal entries so clients can render spend history without a second call.
func (a *App) Credits(w http.ResponseWriter, r *http.Request) {
	accountID := a.currentAccountID(r)
	if accountID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing account context")
		return
	}
	balance, err := a.Ledger.Balance(r.Context(), accountID)
	if err != nil {
		a.error(w, http.StatusInternalServerError, "internal", "failed to load balance")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	entries, err := a.Ledger.History(r.Context(), accountID, limit, offset)
	if err != nil {
		a.error(w, http.StatusInternalServerError, "internal", "failed to load credit history")
		return
	}
	a.json(w, http.StatusOK, map[string]any{"balance": balance, "entries": entries})
}
