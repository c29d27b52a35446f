// Package genai wraps the Gemini REST API behind two narrow operations: a
// structured-JSON text call used by the analysis stages and an image synthesis
// call used by the asset synthesizer. Requests and responses are explicit
// typed structs so malformed upstream payloads fail at the decode step instead
// of propagating undefined fields.
package genai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Options controls how the client is configured.
type Options struct {
	APIKey     string
	BaseURL    string
	TextModel  string
	ImageModel string
	HTTPClient *http.Client
	Logger     zerolog.Logger
}

// Client is a facade over the Gemini generateContent endpoint. One handle is
// constructed at process start and injected into the pipeline, so tests can
// substitute a fake transport or a fake pipeline client entirely.
type Client struct {
	apiKey     string
	baseURL    string
	textModel  string
	imageModel string
	httpClient *http.Client
	logger     zerolog.Logger
}

// InlineImage is an image attached to a request as inline bytes.
type InlineImage struct {
	MIME string
	Data []byte
}

// TextRequest is a prompt expecting a schema-constrained JSON reply.
type TextRequest struct {
	Instruction string
	Image       *InlineImage
	Temperature float64
}

// ImageRequest asks the image model for a synthesized photograph.
type ImageRequest struct {
	Prompt      string
	Primary     *InlineImage
	StyleRef    *InlineImage
	AspectRatio string
	Resolution  string
	Model       string
}

// ImageResult carries the synthesized image and any accompanying text.
type ImageResult struct {
	Data []byte
	MIME string
	Text string
}

// BlockedError reports a safety block or an otherwise empty generation. Reason
// carries the upstream blockReason/finishReason for diagnostics.
type BlockedError struct {
	Reason string
}

func (e *BlockedError) Error() string {
	if e.Reason == "" {
		return "gemini returned no usable content"
	}
	return fmt.Sprintf("gemini blocked the request: %s", e.Reason)
}

// APIError is a non-2xx response from the Gemini endpoint.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("gemini status %d", e.StatusCode)
	}
	return fmt.Sprintf("gemini status %d: %s", e.StatusCode, e.Message)
}

// IsRateLimited reports whether err is a transient quota/rate-limit failure
// worth retrying. Safety blocks and schema failures never are.
func IsRateLimited(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode == http.StatusTooManyRequests || apiErr.StatusCode >= 500 {
			return true
		}
		msg := strings.ToLower(apiErr.Message)
		return strings.Contains(msg, "rate limit") || strings.Contains(msg, "quota")
	}
	return false
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inlineData,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mimeType,omitempty"`
	Data     string `json:"data,omitempty"`
}

type geminiImageConfig struct {
	AspectRatio string `json:"aspectRatio,omitempty"`
	ImageSize   string `json:"imageSize,omitempty"`
}

type geminiGenerationConfig struct {
	Temperature        float64            `json:"temperature,omitempty"`
	CandidateCount     int                `json:"candidateCount,omitempty"`
	ResponseMimeType   string             `json:"responseMimeType,omitempty"`
	ResponseModalities []string           `json:"responseModalities,omitempty"`
	ImageConfig        *geminiImageConfig `json:"imageConfig,omitempty"`
}

type geminiGenerateContentRequest struct {
	Contents         []geminiContent         `json:"contents"`
	GenerationConfig *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiCandidate struct {
	Content      geminiContent `json:"content"`
	FinishReason string        `json:"finishReason,omitempty"`
}

type geminiPromptFeedback struct {
	BlockReason string `json:"blockReason,omitempty"`
}

type geminiGenerateContentResponse struct {
	Candidates     []geminiCandidate     `json:"candidates"`
	PromptFeedback *geminiPromptFeedback `json:"promptFeedback,omitempty"`
}

type geminiErrorResponse struct {
	Error struct {
		Code    int    `json:"code,omitempty"`
		Message string `json:"message,omitempty"`
		Status  string `json:"status,omitempty"`
	} `json:"error"`
}

// NewClient constructs a Gemini client with sane defaults. Callers may provide
// a nil HTTP client; a reusable one with a generation-sized timeout is created.
func NewClient(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, errors.New("genai: api key is required")
	}

	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 120 * time.Second}
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com/v1beta"
	}

	textModel := strings.TrimSpace(opts.TextModel)
	if textModel == "" {
		textModel = "gemini-2.5-flash"
	}
	imageModel := strings.TrimSpace(opts.ImageModel)
	if imageModel == "" {
		imageModel = "gemini-2.5-flash-image"
	}

	return &Client{
		apiKey:     strings.TrimSpace(opts.APIKey),
		baseURL:    baseURL,
		textModel:  textModel,
		imageModel: imageModel,
		httpClient: client,
		logger:     opts.Logger,
	}, nil
}

// TextModel returns the configured text model identifier.
func (c *Client) TextModel() string { return c.textModel }

// ImageModel returns the configured image model identifier.
func (c *Client) ImageModel() string { return c.imageModel }

// GenerateJSON sends the instruction (plus optional inline image) to the text
// model with a JSON response mime type and returns the raw candidate text.
// Decoding into a stage schema is the caller's responsibility.
func (c *Client) GenerateJSON(ctx context.Context, req TextRequest) (string, error) {
	parts := []geminiPart{{Text: req.Instruction}}
	if req.Image != nil {
		parts = append(parts, inlinePart(req.Image))
	}

	temperature := req.Temperature
	if temperature == 0 {
		temperature = 0.4
	}

	payload := geminiGenerateContentRequest{
		Contents: []geminiContent{{Role: "user", Parts: parts}},
		GenerationConfig: &geminiGenerationConfig{
			Temperature:      temperature,
			CandidateCount:   1,
			ResponseMimeType: "application/json",
		},
	}

	var response geminiGenerateContentResponse
	if err := c.invoke(ctx, c.textModel, payload, &response); err != nil {
		return "", err
	}
	if reason := blockReason(response); reason != "" {
		return "", &BlockedError{Reason: reason}
	}

	for _, cand := range response.Candidates {
		for _, part := range cand.Content.Parts {
			if strings.TrimSpace(part.Text) != "" {
				return part.Text, nil
			}
		}
	}
	return "", &BlockedError{Reason: finishReason(response)}
}

// GenerateImage sends the artistic prompt plus reference images to the image
// model and returns the first image part. A safety block or an imageless
// response surfaces as BlockedError with the upstream reason attached.
func (c *Client) GenerateImage(ctx context.Context, req ImageRequest) (*ImageResult, error) {
	parts := []geminiPart{{Text: req.Prompt}}
	if req.Primary != nil {
		parts = append(parts, inlinePart(req.Primary))
	}
	if req.StyleRef != nil {
		parts = append(parts, inlinePart(req.StyleRef))
	}

	cfg := &geminiGenerationConfig{
		CandidateCount:     1,
		ResponseModalities: []string{"TEXT", "IMAGE"},
	}
	if req.AspectRatio != "" || req.Resolution != "" {
		cfg.ImageConfig = &geminiImageConfig{
			AspectRatio: req.AspectRatio,
			ImageSize:   strings.ToUpper(strings.TrimSpace(req.Resolution)),
		}
	}

	model := strings.TrimSpace(req.Model)
	if model == "" {
		model = c.imageModel
	}

	payload := geminiGenerateContentRequest{
		Contents:         []geminiContent{{Role: "user", Parts: parts}},
		GenerationConfig: cfg,
	}

	started := time.Now()
	var response geminiGenerateContentResponse
	if err := c.invoke(ctx, model, payload, &response); err != nil {
		return nil, err
	}
	if reason := blockReason(response); reason != "" {
		return nil, &BlockedError{Reason: reason}
	}

	result := &ImageResult{}
	for _, cand := range response.Candidates {
		for _, part := range cand.Content.Parts {
			if part.InlineData != nil && part.InlineData.Data != "" && len(result.Data) == 0 {
				data, err := base64.StdEncoding.DecodeString(part.InlineData.Data)
				if err != nil {
					return nil, fmt.Errorf("genai: decode inline image: %w", err)
				}
				result.Data = data
				result.MIME = part.InlineData.MimeType
				if result.MIME == "" {
					result.MIME = "image/png"
				}
			}
			if part.Text != "" && result.Text == "" {
				result.Text = part.Text
			}
		}
	}
	if len(result.Data) == 0 {
		return nil, &BlockedError{Reason: finishReason(response)}
	}

	c.logger.Debug().
		Str("model", model).
		Int("image_bytes", len(result.Data)).
		Dur("elapsed", time.Since(started)).
		Msg("genai: image synthesized")

	return result, nil
}

func (c *Client) invoke(ctx context.Context, model string, payload any, out any) error {
	endpoint := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, url.PathEscape(model))
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("genai: marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("genai: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("genai: invoke gemini: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr geminiErrorResponse
		if decodeErr := json.NewDecoder(resp.Body).Decode(&apiErr); decodeErr == nil && apiErr.Error.Message != "" {
			return &APIError{StatusCode: resp.StatusCode, Message: apiErr.Error.Message}
		}
		data, _ := io.ReadAll(resp.Body)
		return &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(data))}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("genai: decode gemini response: %w", err)
	}
	return nil
}

func inlinePart(img *InlineImage) geminiPart {
	return geminiPart{InlineData: &geminiInlineData{
		MimeType: img.MIME,
		Data:     base64.StdEncoding.EncodeToString(img.Data),
	}}
}

func blockReason(resp geminiGenerateContentResponse) string {
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return resp.PromptFeedback.BlockReason
	}
	return ""
}

func finishReason(resp geminiGenerateContentResponse) string {
	for _, cand := range resp.Candidates {
		if cand.FinishReason != "" && cand.FinishReason != "STOP" {
			return cand.FinishReason
		}
	}
	return "empty response"
}
