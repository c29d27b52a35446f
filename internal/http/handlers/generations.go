package handlers

import (
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"adstudio/internal/domain/creative"
	"adstudio/internal/middleware"
	"adstudio/internal/pipeline"
)

type generateRequest struct {
	productInputRequest
	Analysis    *creative.ProductAnalysis `json:"analysis,omitempty"`
	Concept     *creative.Concept         `json:"concept,omitempty"`
	Preferences creative.UserPreferences  `json:"preferences"`
	Platform    string                    `json:"platform"`
	Resolution  string                    `json:"resolution"`
	Tier        string                    `json:"tier"`
}

type generateResponse struct {
	GenerationID  string                     `json:"generationId"`
	ImageBase64   string                     `json:"imageBase64"`
	MIME          string                     `json:"mime"`
	Prompt        string                     `json:"prompt"`
	CreditCost    int                        `json:"creditCost"`
	StorageKey    string                     `json:"storageKey,omitempty"`
	Analysis      creative.ProductAnalysis   `json:"analysis"`
	Concept       creative.Concept           `json:"concept"`
	Direction     creative.CreativeDirection `json:"direction"`
	SettlementErr string                     `json:"settlementError,omitempty"`
}

// Generations runs the full pipeline for one product input. A caller that
// already went through analyze/concepts passes both back in to skip straight
// to direction finalization.
func (a *App) Generations(w http.ResponseWriter, r *http.Request) {
	accountID := a.currentAccountID(r)
	if accountID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing account context")
		return
	}
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	input, err := req.toDomain()
	if err != nil {
		a.writePipelineError(w, err)
		return
	}
	tier := req.Tier
	if tier == "" {
		tier = middleware.TierFromContext(r.Context())
	}

	res, err := a.Orchestrator.Generate(r.Context(), pipeline.GenerateRequest{
		GenerationID: uuid.NewString(),
		AccountID:    accountID,
		Input:        input,
		Preferences:  req.Preferences,
		Platform:     req.Platform,
		Resolution:   req.Resolution,
		Tier:         tier,
		Analysis:     req.Analysis,
		Concept:      req.Concept,
	})
	if err != nil {
		a.writePipelineError(w, err)
		return
	}

	resp := generateResponse{
		GenerationID: res.Asset.ID,
		ImageBase64:  base64.StdEncoding.EncodeToString(res.Asset.Data),
		MIME:         res.Asset.MIME,
		Prompt:       res.Asset.Prompt,
		CreditCost:   res.Asset.CreditCost,
		StorageKey:   res.Asset.StorageKey,
		Analysis:     res.Analysis,
		Concept:      res.Concept,
		Direction:    res.Direction,
	}
	if res.SettlementErr != nil {
		resp.SettlementErr = res.SettlementErr.Error()
	}
	a.json(w, http.StatusOK, resp)
}

// GenerationProgress returns the latest progress snapshot for a generation.
func (a *App) GenerationProgress(w http.ResponseWriter, r *http.Request) {
	if a.currentAccountID(r) == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing account context")
		return
	}
	id := chi.URLParam(r, "id")
	if id == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "generation id required")
		return
	}
	event, ok := a.Progress.Latest(r.Context(), id)
	if !ok {
		a.error(w, http.StatusNotFound, "not_found", "no progress recorded for this generation")
		return
	}
	a.json(w, http.StatusOK, event)
}
