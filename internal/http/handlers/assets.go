package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// ListAssets returns the caller's stored asset metadata, newest first.
func (a *App) ListAssets(w http.ResponseWriter, r *http.Request) {
	accountID := a.currentAccountID(r)
	if accountID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing account context")
		return
	}
	if a.Assets == nil {
		a.error(w, http.StatusNotFound, "not_found", "asset storage is not configured")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	records, err := a.Assets.List(r.Context(), accountID, limit, offset)
	if err != nil {
		a.error(w, http.StatusInternalServerError, "internal", "failed to load assets")
		return
	}
	a.json(w, http.StatusOK, map[string]any{"assets": records})
}

// DownloadAsset streams the stored image bytes for one of the caller's assets.
func (a *App) DownloadAsset(w http.ResponseWriter, r *http.Request) {
	accountID := a.currentAccountID(r)
	if accountID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing account context")
		return
	}
	if a.Assets == nil || a.Files == nil {
		a.error(w, http.StatusNotFound, "not_found", "asset storage is not configured")
		return
	}
	id := chi.URLParam(r, "id")
	rec, err := a.Assets.Get(r.Context(), id)
	if err != nil {
		a.error(w, http.StatusInternalServerError, "internal", "failed to load asset")
		return
	}
	if rec == nil {
		a.error(w, http.StatusNotFound, "not_found", "asset not found")
		return
	}
	if rec.AccountID != accountID {
		a.error(w, http.StatusForbidden, "forbidden", "not your asset")
		return
	}
	data, err := a.Files.Read(r.Context(), rec.StorageKey)
	if err != nil {
		a.error(w, http.StatusNotFound, "not_found", "asset bytes missing from storage")
		return
	}
	w.Header().Set("Content-Type", rec.MIME)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	_, _ = w.Write(data)
}
