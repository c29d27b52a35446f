// Package handlers implements the HTTP surface of the creative generation
// service.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"adstudio/internal/assets"
	"adstudio/internal/credits"
	"adstudio/internal/infra"
	"adstudio/internal/middleware"
	"adstudio/internal/pipeline"
	"adstudio/internal/progress"
	"adstudio/internal/storage"
)

// App carries the dependencies shared by every handler.
type App struct {
	Config       *infra.Config
	Logger       zerolog.Logger
	Ledger       credits.Ledger
	Model        pipeline.ModelClient
	Orchestrator *pipeline.Orchestrator
	Progress     progress.Sink
	Assets       *assets.Store
	Files        *storage.FileStore
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

func (a *App) error(w http.ResponseWriter, status int, code, message string) {
	a.json(w, status, errorEnvelope{Error: errorBody{Code: code, Message: message}})
}

func (a *App) currentAccountID(r *http.Request) string {
	return middleware.AccountIDFromContext(r.Context())
}
