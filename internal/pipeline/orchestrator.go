package pipeline

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	"adstudio/internal/credits"
	"adstudio/internal/domain/creative"
	"adstudio/internal/domain/photography"
	"adstudio/internal/progress"
	"adstudio/internal/providers/genai"
)

// State names how far a generation progressed. Failures carry the furthest
// state reached so callers can tell a parse failure from a billing one.
type State string

const (
	StateIntake             State = "INTAKE"
	StateAnalyzed           State = "ANALYZED"
	StateConceptsReady      State = "CONCEPTS_READY"
	StateDirectionFinalized State = "DIRECTION_FINALIZED"
	StateSpecComputed       State = "SPEC_COMPUTED"
	StatePromptComposed     State = "PROMPT_COMPOSED"
	StateCreditChecked      State = "CREDIT_CHECKED"
	StateAssetGenerated     State = "ASSET_GENERATED"
	StateSettled            State = "SETTLED"
	StateFailed             State = "FAILED"
)

// statePercent drives progress reporting. Percent is monotone over the state
// order and hits 100 exactly once, on SETTLED. A failed run publishes FAILED
// frozen at the furthest successful state's percent so pollers never mistake
// a failure for completion.
var statePercent = map[State]int{
	StateIntake:             5,
	StateAnalyzed:           25,
	StateConceptsReady:      40,
	StateDirectionFinalized: 55,
	StateSpecComputed:       62,
	StatePromptComposed:     70,
	StateCreditChecked:      75,
	StateAssetGenerated:     92,
	StateSettled:            100,
}

// PipelineError wraps a stage failure with the furthest state the generation
// reached before failing.
type PipelineError struct {
	State State
	Err   error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("generation failed after %s: %v", e.State, e.Err)
}

func (e *PipelineError) Unwrap() error { return e.Err }

// BlobStore persists finished image bytes under a storage key.
type BlobStore interface {
	Write(ctx context.Context, key string, data []byte) (string, error)
}

// AssetRecorder journals finished asset metadata for later retrieval.
type AssetRecorder interface {
	RecordAsset(ctx context.Context, accountID string, asset *creative.GeneratedAsset) error
}

// Options configures an Orchestrator. Model and Ledger are required; the
// rest default to sensible in-process behavior.
type Options struct {
	Model         ModelClient
	Ledger        credits.Ledger
	Progress      progress.Sink
	Store         BlobStore
	Recorder      AssetRecorder
	Logger        zerolog.Logger
	StandardModel string
	ProModel      string
	MaxConcurrent int64
	RetryAttempts int
	RetryBackoff  time.Duration
}

// Orchestrator runs the full generation pipeline: analysis, concepts,
// direction, the photography rule engine, prompt composition, the credit
// gate, image synthesis, and settlement.
type Orchestrator struct {
	model         ModelClient
	ledger        credits.Ledger
	progress      progress.Sink
	store         BlobStore
	recorder      AssetRecorder
	logger        zerolog.Logger
	standardModel string
	proModel      string
	sem           *semaphore.Weighted
	retryAttempts int
	retryBackoff  time.Duration
}

func NewOrchestrator(opts Options) (*Orchestrator, error) {
	if opts.Model == nil {
		return nil, errors.New("pipeline: model client is required")
	}
	if opts.Ledger == nil {
		return nil, errors.New("pipeline: credit ledger is required")
	}
	if opts.Progress == nil {
		opts.Progress = progress.NewMemorySink()
	}
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = 8
	}
	if opts.RetryAttempts <= 0 {
		opts.RetryAttempts = 3
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = 500 * time.Millisecond
	}
	return &Orchestrator{
		model:         opts.Model,
		ledger:        opts.Ledger,
		progress:      opts.Progress,
		store:         opts.Store,
		recorder:      opts.Recorder,
		logger:        opts.Logger,
		standardModel: opts.StandardModel,
		proModel:      opts.ProModel,
		sem:           semaphore.NewWeighted(opts.MaxConcurrent),
		retryAttempts: opts.RetryAttempts,
		retryBackoff:  opts.RetryBackoff,
	}, nil
}

// Tier labels accepted on generation requests. Pro routes to the higher
// quality image model; the credit price depends only on resolution.
const (
	TierStandard = "standard"
	TierPro      = "pro"
)

// GenerateRequest carries everything one generation needs. Analysis and
// Concept are optional: when a caller already ran the two-phase flow, its
// results are reused instead of re-invoking the analyst.
type GenerateRequest struct {
	GenerationID string
	AccountID    string
	Input        creative.ProductInput
	Preferences  creative.UserPreferences
	Platform     string
	Resolution   string
	Tier         string
	Analysis     *creative.ProductAnalysis
	Concept      *creative.Concept
}

// Result is a finished generation plus the intermediates a caller may want
// to display.
type Result struct {
	Asset     *creative.GeneratedAsset
	Analysis  creative.ProductAnalysis
	Concept   creative.Concept
	Direction creative.CreativeDirection
	Spec      photography.Spec
	// SettlementErr is set when the asset was produced but the credit
	// deduction failed. The asset is still delivered.
	SettlementErr error
}

// Generate runs the pipeline end to end for one product input.
func (o *Orchestrator) Generate(ctx context.Context, req GenerateRequest) (*Result, error) {
	if req.GenerationID == "" {
		req.GenerationID = uuid.NewString()
	}
	if err := o.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer o.sem.Release(1)

	state := StateIntake
	o.publish(ctx, req.GenerationID, state)

	fail := func(err error) (*Result, error) {
		o.logger.Error().Err(err).Str("generation_id", req.GenerationID).Str("state", string(state)).Msg("generation failed")
		o.publishFailed(ctx, req.GenerationID, state)
		return nil, &PipelineError{State: state, Err: err}
	}

	if err := req.Input.Validate(); err != nil {
		return fail(err)
	}

	res := &Result{}

	if req.Analysis != nil {
		res.Analysis = *req.Analysis
	} else {
		analysis, err := AnalyzeProduct(ctx, o.model, req.Input)
		if err != nil {
			return fail(err)
		}
		res.Analysis = *analysis
	}
	state = StateAnalyzed
	o.publish(ctx, req.GenerationID, state)

	if req.Concept != nil {
		res.Concept = *req.Concept
	} else {
		concepts, err := GenerateConcepts(ctx, o.model, res.Analysis, req.Preferences, req.Platform)
		if err != nil {
			return fail(err)
		}
		res.Concept = concepts[0]
	}
	state = StateConceptsReady
	o.publish(ctx, req.GenerationID, state)

	direction, err := FinalizeDirection(ctx, o.model, res.Concept, res.Analysis, req.Platform)
	if err != nil {
		return fail(err)
	}
	res.Direction = *direction
	state = StateDirectionFinalized
	o.publish(ctx, req.GenerationID, state)

	res.Spec = photography.Compose(res.Direction)
	state = StateSpecComputed
	o.publish(ctx, req.GenerationID, state)

	prompt, err := ComposePrompt(ctx, o.model, res.Analysis, res.Direction, res.Spec)
	if err != nil {
		return fail(err)
	}
	state = StatePromptComposed
	o.publish(ctx, req.GenerationID, state)

	asset, settleErr, err := o.synthesize(ctx, req, prompt, res.Direction.AspectRatio, nil, &state)
	if err != nil {
		return fail(err)
	}
	res.Asset = asset
	res.SettlementErr = settleErr
	o.publish(ctx, req.GenerationID, StateSettled)
	return res, nil
}

// StyleGenerate runs the style-transfer path: the reference image's style is
// extracted and applied to the product, bypassing concepts, direction, and
// the rule engine.
func (o *Orchestrator) StyleGenerate(ctx context.Context, req GenerateRequest, styleImage []byte, styleMIME string) (*Result, error) {
	if req.GenerationID == "" {
		req.GenerationID = uuid.NewString()
	}
	if err := o.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer o.sem.Release(1)

	state := StateIntake
	o.publish(ctx, req.GenerationID, state)

	fail := func(err error) (*Result, error) {
		o.logger.Error().Err(err).Str("generation_id", req.GenerationID).Str("state", string(state)).Msg("style generation failed")
		o.publishFailed(ctx, req.GenerationID, state)
		return nil, &PipelineError{State: state, Err: err}
	}

	if err := req.Input.Validate(); err != nil {
		return fail(err)
	}
	style, err := AnalyzeStyle(ctx, o.model, creative.ProductInput{ImageData: styleImage, ImageMIME: styleMIME})
	if err != nil {
		return fail(err)
	}
	state = StateAnalyzed
	o.publish(ctx, req.GenerationID, state)

	prompt, err := ComposeStylePrompt(ctx, o.model, *style, req.Input.Description)
	if err != nil {
		return fail(err)
	}
	state = StatePromptComposed
	o.publish(ctx, req.GenerationID, state)

	res := &Result{}
	asset, settleErr, err := o.synthesize(ctx, req, prompt, "", &genai.InlineImage{Data: styleImage, MIME: styleMIME}, &state)
	if err != nil {
		return fail(err)
	}
	res.Asset = asset
	res.SettlementErr = settleErr
	o.publish(ctx, req.GenerationID, StateSettled)
	return res, nil
}

// synthesize runs the credit gate, the billed image call, persistence, and
// settlement. It is shared by the standard and style paths.
func (o *Orchestrator) synthesize(ctx context.Context, req GenerateRequest, prompt *creative.ArtisticPrompt, aspectRatio string, styleRef *genai.InlineImage, state *State) (*creative.GeneratedAsset, error, error) {
	cost := credits.CostForResolution(req.Resolution)

	balance, err := o.ledger.Balance(ctx, req.AccountID)
	if err != nil {
		return nil, nil, fmt.Errorf("credit gate: %w", err)
	}
	if balance < cost {
		return nil, nil, &creative.InsufficientCreditsError{Required: cost, Available: balance}
	}
	*state = StateCreditChecked
	o.publish(ctx, req.GenerationID, *state)

	// Once the billed call starts, a dropped client connection must not
	// abandon synthesis or settlement midway.
	detached := context.WithoutCancel(ctx)

	imgReq := genai.ImageRequest{
		Prompt:      prompt.Text,
		AspectRatio: aspectRatio,
		Resolution:  req.Resolution,
	}
	if req.Input.HasImage() {
		imgReq.Primary = &genai.InlineImage{Data: req.Input.ImageData, MIME: req.Input.ImageMIME}
	}
	imgReq.StyleRef = styleRef
	if strings.EqualFold(req.Tier, TierPro) && o.proModel != "" {
		imgReq.Model = o.proModel
	} else if o.standardModel != "" {
		imgReq.Model = o.standardModel
	}

	img, err := o.generateWithRetry(detached, imgReq)
	if err != nil {
		return nil, nil, err
	}
	*state = StateAssetGenerated
	o.publish(ctx, req.GenerationID, *state)

	asset := &creative.GeneratedAsset{
		ID:          req.GenerationID,
		Data:        img.Data,
		MIME:        img.MIME,
		Prompt:      prompt.Text,
		CreditCost:  cost,
		AspectRatio: aspectRatio,
	}
	o.persist(detached, req.AccountID, asset)

	if _, err := o.ledger.Deduct(detached, req.AccountID, cost, "generation", map[string]any{"generation_id": req.GenerationID}); err != nil {
		settleErr := &creative.SettlementError{AccountID: req.AccountID, Amount: cost, Err: err}
		o.logger.Error().Err(err).Str("generation_id", req.GenerationID).Str("account_id", req.AccountID).
			Int("amount", cost).Msg("credit settlement failed, asset delivered anyway")
		return asset, settleErr, nil
	}
	return asset, nil, nil
}

// generateWithRetry retries the image call on rate limiting only. Safety
// blocks and malformed responses are terminal on the first attempt.
func (o *Orchestrator) generateWithRetry(ctx context.Context, req genai.ImageRequest) (*genai.ImageResult, error) {
	var lastErr error
	backoff := o.retryBackoff
	for attempt := 1; attempt <= o.retryAttempts; attempt++ {
		img, err := o.model.GenerateImage(ctx, req)
		if err == nil {
			return img, nil
		}
		lastErr = err
		if !genai.IsRateLimited(err) {
			break
		}
		if attempt < o.retryAttempts {
			o.logger.Warn().Err(err).Int("attempt", attempt).Msg("image synthesis rate limited, backing off")
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			backoff *= 2
		}
	}
	return nil, invocationError("image synthesis", lastErr)
}

// persist writes the image bytes and journals the asset metadata. Both are
// best-effort: the caller still receives the in-memory asset on failure.
func (o *Orchestrator) persist(ctx context.Context, accountID string, asset *creative.GeneratedAsset) {
	if o.store != nil {
		key := fmt.Sprintf("generations/%s/%s%s", accountID, asset.ID, extensionFor(asset.MIME))
		stored, err := o.store.Write(ctx, key, asset.Data)
		if err != nil {
			o.logger.Warn().Err(err).Str("asset_id", asset.ID).Msg("asset persistence failed")
		} else {
			asset.StorageKey = stored
		}
	}
	if o.recorder != nil {
		if err := o.recorder.RecordAsset(ctx, accountID, asset); err != nil {
			o.logger.Warn().Err(err).Str("asset_id", asset.ID).Msg("asset metadata record failed")
		}
	}
}

func (o *Orchestrator) publish(ctx context.Context, generationID string, state State) {
	o.progress.Publish(ctx, generationID, progress.Event{
		Stage:   string(state),
		Percent: statePercent[state],
	})
}

// publishFailed freezes the percentage at the furthest state that completed.
func (o *Orchestrator) publishFailed(ctx context.Context, generationID string, reached State) {
	o.progress.Publish(ctx, generationID, progress.Event{
		Stage:   string(StateFailed),
		Percent: statePercent[reached],
	})
}

func extensionFor(mimeType string) string {
	switch mimeType {
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	}
	if exts, err := mime.ExtensionsByType(mimeType); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ".bin"
}
