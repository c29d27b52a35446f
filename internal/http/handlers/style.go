package handlers

import (
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"adstudio/internal/domain/creative"
	"adstudio/internal/middleware"
	"adstudio/internal/pipeline"
)

type styleAnalyzeRequest struct {
	StyleImageBase64 string `json:"styleImageBase64"`
	StyleImageMIME   string `json:"styleImageMime"`
}

func (req styleAnalyzeRequest) toDomain() (creative.ProductInput, error) {
	if req.StyleImageBase64 == "" {
		return creative.ProductInput{}, &creative.ValidationError{Message: "a style reference image is required"}
	}
	data, err := base64.StdEncoding.DecodeString(req.StyleImageBase64)
	if err != nil {
		return creative.ProductInput{}, &creative.ValidationError{Message: "styleImageBase64 is not valid base64"}
	}
	input := creative.ProductInput{ImageData: data, ImageMIME: req.StyleImageMIME}
	return input, input.Validate()
}

// StyleAnalyze extracts the visual style of a reference image.
func (a *App) StyleAnalyze(w http.ResponseWriter, r *http.Request) {
	if a.currentAccountID(r) == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing account context")
		return
	}
	var req styleAnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	ref, err := req.toDomain()
	if err != nil {
		a.writePipelineError(w, err)
		return
	}

	style, err := pipeline.AnalyzeStyle(r.Context(), a.Model, ref)
	if err != nil {
		a.writePipelineError(w, err)
		return
	}
	a.json(w, http.StatusOK, map[string]any{"style": style})
}

type styleGenerateRequest struct {
	productInputRequest
	styleAnalyzeRequest
	Resolution string `json:"resolution"`
	Tier       string `json:"tier"`
}

// StyleGenerations renders the product in the visual style of the reference
// image, bypassing concepts and the rule engine.
func (a *App) StyleGenerations(w http.ResponseWriter, r *http.Request) {
	accountID := a.currentAccountID(r)
	if accountID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing account context")
		return
	}
	var req styleGenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	input, err := req.productInputRequest.toDomain()
	if err != nil {
		a.writePipelineError(w, err)
		return
	}
	ref, err := req.styleAnalyzeRequest.toDomain()
	if err != nil {
		a.writePipelineError(w, err)
		return
	}
	tier := req.Tier
	if tier == "" {
		tier = middleware.TierFromContext(r.Context())
	}

	res, err := a.Orchestrator.StyleGenerate(r.Context(), pipeline.GenerateRequest{
		GenerationID: uuid.NewString(),
		AccountID:    accountID,
		Input:        input,
		Resolution:   req.Resolution,
		Tier:         tier,
	}, ref.ImageData, ref.ImageMIME)
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
	}
	if res.SettlementErr != nil {
		resp.SettlementErr = res.SettlementErr.Error()
	}
	a.json(w, http.StatusOK, resp)
}
