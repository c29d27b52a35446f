package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"adstudio/internal/credits"
	"adstudio/internal/http/handlers"
	"adstudio/internal/http/httpapi"
	"adstudio/internal/infra"
	"adstudio/internal/middleware"
	"adstudio/internal/pipeline"
	"adstudio/internal/progress"
	"adstudio/internal/providers/genai"
)

// scriptedModel replays canned JSON replies in call order.
type scriptedModel struct {
	replies []string
	calls   int
}

func (m *scriptedModel) GenerateJSON(ctx context.Context, req genai.TextRequest) (string, error) {
	if m.calls >= len(m.replies) {
		return "", fmt.Errorf("unexpected json call %d", m.calls)
	}
	reply := m.replies[m.calls]
	m.calls++
	return reply, nil
}

func (m *scriptedModel) GenerateImage(ctx context.Context, req genai.ImageRequest) (*genai.ImageResult, error) {
	return &genai.ImageResult{Data: []byte("png-bytes"), MIME: "image/png"}, nil
}

func fullRunReplies() []string {
	analysis := `{"productCategory":"Accessories","productAttributes":{"material":"leather"},` +
		`"targetAudience":"commuters","keySellingPoints":["durable"],"productType":"leather wallet","brandTier":"mid-tier"}`
	concepts := `{"concepts":[` +
		`{"title":"A","description":"d","adType":"Showcase","mood":"Calm","aesthetic":"Editorial"},` +
		`{"title":"B","description":"d","adType":"Lifestyle","mood":"Bold","aesthetic":"Candid"}]}`
	direction := `{"adType":"Showcase","targetPlatform":"instagram","environment":"studio",` +
		`"modelRequired":false,"presentationStyle":"hero shot","mood":"calm","colorPalette":"neutral",` +
		`"compositionApproach":"centered","cameraAngle":"eye-level","lightingPreference":"soft","aspectRatio":"1:1"}`
	compose := `{"prompt":"Soft light washes over the wallet."}`
	return []string{analysis, concepts, direction, compose}
}

type testEnv struct {
	server *httptest.Server
	ledger *credits.MemoryLedger
	sink   *progress.MemorySink
	token  string
}

func newTestEnv(t *testing.T, model pipeline.ModelClient) *testEnv {
	t.Helper()
	ledger := credits.NewMemoryLedger()
	sink := progress.NewMemorySink()
	orch, err := pipeline.NewOrchestrator(pipeline.Options{
		Model:        model,
		Ledger:       ledger,
		Progress:     sink,
		Logger:       zerolog.Nop(),
		RetryBackoff: time.Millisecond,
	})
	if err != nil {
		t.Fatalf("NewOrchestrator: %v", err)
	}
	cfg := &infra.Config{JWTSecret: "test-secret"}
	app := &handlers.App{
		Config:       cfg,
		Logger:       zerolog.Nop(),
		Ledger:       ledger,
		Model:        model,
		Orchestrator: orch,
		Progress:     sink,
	}
	server := httptest.NewServer(httpapi.NewRouter(app))
	t.Cleanup(server.Close)

	token, err := middleware.SignJWT(cfg.JWTSecret, middleware.TokenClaims{
		Sub:  "acct-1",
		Tier: "standard",
		Exp:  time.Now().Add(time.Hour).Unix(),
	})
	if err != nil {
		t.Fatalf("SignJWT: %v", err)
	}
	return &testEnv{server: server, ledger: ledger, sink: sink, token: token}
}

func (e *testEnv) do(t *testing.T, method, path string, body any, authed bool) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req, err := http.NewRequest(method, e.server.URL+path, &buf)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	if authed {
		req.Header.Set("Authorization", "Bearer "+e.token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestHealthzOpen(t *testing.T) {
	env := newTestEnv(t, &scriptedModel{})
	resp := env.do(t, http.MethodGet, "/v1/healthz", nil, false)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("healthz status = %d", resp.StatusCode)
	}
}

func TestAuthRequired(t *testing.T) {
	env := newTestEnv(t, &scriptedModel{})
	resp := env.do(t, http.MethodGet, "/v1/credits", nil, false)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("unauthenticated status = %d, want 401", resp.StatusCode)
	}
}

func TestProductsAnalyze(t *testing.T) {
	env := newTestEnv(t, &scriptedModel{replies: fullRunReplies()[:1]})
	resp := env.do(t, http.MethodPost, "/v1/products/analyze",
		map[string]string{"description": "a tan leather wallet"}, true)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("analyze status = %d", resp.StatusCode)
	}
	var body struct {
		Analysis struct {
			ProductType string `json:"productType"`
		} `json:"analysis"`
	}
	decodeBody(t, resp, &body)
	if body.Analysis.ProductType != "leather wallet" {
		t.Fatalf("productType = %q", body.Analysis.ProductType)
	}
}

func TestProductsAnalyzeEmptyInputIs400(t *testing.T) {
	env := newTestEnv(t, &scriptedModel{})
	resp := env.do(t, http.MethodPost, "/v1/products/analyze", map[string]string{}, true)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	decodeBody(t, resp, &body)
	if body.Error.Code != "invalid_input" {
		t.Fatalf("error code = %q, want invalid_input", body.Error.Code)
	}
}

func TestProductsAnalyzeUnparsableModelReplyIs500(t *testing.T) {
	env := newTestEnv(t, &scriptedModel{replies: []string{"not json at all"}})
	resp := env.do(t, http.MethodPost, "/v1/products/analyze",
		map[string]string{"description": "a tan leather wallet"}, true)
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", resp.StatusCode)
	}
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	decodeBody(t, resp, &body)
	if body.Error.Code != "model_response_invalid" {
		t.Fatalf("error code = %q, want model_response_invalid", body.Error.Code)
	}
}

func TestGenerationsEndToEnd(t *testing.T) {
	env := newTestEnv(t, &scriptedModel{replies: fullRunReplies()})
	if _, err := env.ledger.Grant(context.Background(), "acct-1", 5, "test"); err != nil {
		t.Fatal(err)
	}

	resp := env.do(t, http.MethodPost, "/v1/generations", map[string]any{
		"description": "a tan leather wallet",
		"resolution":  "2K",
	}, true)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("generations status = %d", resp.StatusCode)
	}
	var body struct {
		GenerationID string `json:"generationId"`
		ImageBase64  string `json:"imageBase64"`
		CreditCost   int    `json:"creditCost"`
	}
	decodeBody(t, resp, &body)
	if body.ImageBase64 == "" {
		t.Fatal("no image in response")
	}
	if body.CreditCost != 2 {
		t.Fatalf("creditCost = %d, want 2", body.CreditCost)
	}
	if balance, _ := env.ledger.Balance(context.Background(), "acct-1"); balance != 3 {
		t.Fatalf("balance = %d, want 3", balance)
	}

	progressResp := env.do(t, http.MethodGet, "/v1/generations/"+body.GenerationID+"/progress", nil, true)
	if progressResp.StatusCode != http.StatusOK {
		t.Fatalf("progress status = %d", progressResp.StatusCode)
	}
	var event progress.Event
	decodeBody(t, progressResp, &event)
	if event.Percent != 100 || event.Stage != "SETTLED" {
		t.Fatalf("final progress = %+v", event)
	}
}

func TestGenerationsInsufficientCreditsIs402(t *testing.T) {
	env := newTestEnv(t, &scriptedModel{replies: fullRunReplies()})

	resp := env.do(t, http.MethodPost, "/v1/generations", map[string]any{
		"description": "a tan leather wallet",
		"resolution":  "4K",
	}, true)
	if resp.StatusCode != http.StatusPaymentRequired {
		t.Fatalf("status = %d, want 402", resp.StatusCode)
	}
	var body struct {
		Error struct {
			Code      string `json:"code"`
			Required  int    `json:"required"`
			Available int    `json:"available"`
		} `json:"error"`
	}
	decodeBody(t, resp, &body)
	if body.Error.Code != "insufficient_credits" {
		t.Fatalf("error code = %q", body.Error.Code)
	}
	if body.Error.Required != 4 || body.Error.Available != 0 {
		t.Fatalf("402 amounts = %+v", body.Error)
	}
}

func TestCreditsBalance(t *testing.T) {
	env := newTestEnv(t, &scriptedModel{})
	if _, err := env.ledger.Grant(context.Background(), "acct-1", 7, "test"); err != nil {
		t.Fatal(err)
	}
	resp := env.do(t, http.MethodGet, "/v1/credits", nil, true)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("credits status = %d", resp.StatusCode)
	}
	var body struct {
		Balance int `json:"balance"`
	}
	decodeBody(t, resp, &body)
	if body.Balance != 7 {
		t.Fatalf("balance = %d, want 7", body.Balance)
	}
}

func TestStyleAnalyzeRequiresImage(t *testing.T) {
	env := newTestEnv(t, &scriptedModel{})
	resp := env.do(t, http.MethodPost, "/v1/style/analyze", map[string]string{}, true)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestConceptsRejectIncompleteAnalysis(t *testing.T) {
	env := newTestEnv(t, &scriptedModel{})
	resp := env.do(t, http.MethodPost, "/v1/products/concepts", map[string]any{
		"analysis": map[string]any{"productCategory": "Accessories"},
	}, true)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}
