package handlers

import (
	"encoding/base64"
	"errors"
	"net/http"
	"strings"

	"adstudio/internal/domain/creative"
	"adstudio/internal/pipeline"
)

// productInputRequest is the wire form of a product input: an optional
// base64-encoded image plus an optional description.
type productInputRequest struct {
	ImageBase64 string `json:"imageBase64,omitempty"`
	ImageMIME   string `json:"imageMime,omitempty"`
	Description string `json:"description,omitempty"`
}

func (p productInputRequest) toDomain() (creative.ProductInput, error) {
	input := creative.ProductInput{
		ImageMIME:   strings.TrimSpace(p.ImageMIME),
		Description: p.Description,
	}
	if p.ImageBase64 != "" {
		data, err := base64.StdEncoding.DecodeString(p.ImageBase64)
		if err != nil {
			return creative.ProductInput{}, &creative.ValidationError{Message: "imageBase64 is not valid base64"}
		}
		input.ImageData = data
	}
	return input, input.Validate()
}

// writePipelineError maps domain errors onto the HTTP status table. Unknown
// errors become an opaque 500.
func (a *App) writePipelineError(w http.ResponseWriter, err error) {
	var validation *creative.ValidationError
	if errors.As(err, &validation) {
		a.error(w, http.StatusBadRequest, validation.Code(), validation.Message)
		return
	}
	var insufficient *creative.InsufficientCreditsError
	if errors.As(err, &insufficient) {
		a.json(w, http.StatusPaymentRequired, map[string]any{
			"error": map[string]any{
				"code":      insufficient.Code(),
				"message":   insufficient.Error(),
				"required":  insufficient.Required,
				"available": insufficient.Available,
			},
		})
		return
	}
	var parseErr *creative.ParseError
	if errors.As(err, &parseErr) {
		a.error(w, http.StatusInternalServerError, parseErr.Code(), parseErr.Error())
		return
	}
	var invocation *creative.ModelInvocationError
	if errors.As(err, &invocation) {
		a.error(w, http.StatusInternalServerError, invocation.Code(), invocation.Error())
		return
	}
	var pipeErr *pipeline.PipelineError
	if errors.As(err, &pipeErr) {
		a.error(w, http.StatusInternalServerError, "internal", pipeErr.Error())
		return
	}
	a.error(w, http.StatusInternalServerError, "internal", "generation failed")
}
