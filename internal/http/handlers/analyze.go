package handlers

import (
	"encoding/json"
	"net/http"

	"adstudio/internal/domain/creative"
	"adstudio/internal/pipeline"
)

type analyzeRequest struct {
	productInputRequest
}

// ProductsAnalyze runs the analysis phase alone so a client can review the
// product understanding, then ask for concepts, before any billed work.
func (a *App) ProductsAnalyze(w http.ResponseWriter, r *http.Request) {
	accountID := a.currentAccountID(r)
	if accountID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing account context")
		return
	}
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	input, err := req.toDomain()
	if err != nil {
		a.writePipelineError(w, err)
		return
	}

	analysis, err := pipeline.AnalyzeProduct(r.Context(), a.Model, input)
	if err != nil {
		a.writePipelineError(w, err)
		return
	}
	a.json(w, http.StatusOK, map[string]any{"analysis": analysis})
}

type conceptsRequest struct {
	Analysis    creative.ProductAnalysis `json:"analysis"`
	Preferences creative.UserPreferences `json:"preferences"`
	Platform    string                   `json:"platform"`
}

// ProductsConcepts proposes 2-4 distinct creative concepts for a previously
// produced analysis. Concepts are ephemeral and never persisted.
func (a *App) ProductsConcepts(w http.ResponseWriter, r *http.Request) {
	accountID := a.currentAccountID(r)
	if accountID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing account context")
		return
	}
	var req conceptsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if missing := req.Analysis.RequiredFieldsMissing(); len(missing) > 0 {
		a.error(w, http.StatusBadRequest, "invalid_input", "analysis is incomplete: missing "+missing[0])
		return
	}

	concepts, err := pipeline.GenerateConcepts(r.Context(), a.Model, req.Analysis, req.Preferences, req.Platform)
	if err != nil {
		a.writePipelineError(w, err)
		return
	}
	a.json(w, http.StatusOK, map[string]any{"concepts": concepts})
}
