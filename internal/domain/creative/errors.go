package creative

import "fmt"

// Machine-readable error codes surfaced to callers alongside the human
// message, so a client can route (e.g. insufficient credits -> purchase flow).
const (
	CodeInvalidInput        = "invalid_input"
	CodeModelInvocation     = "model_invocation_failed"
	CodeParseFailure        = "model_response_invalid"
	CodeInsufficientCredits = "insufficient_credits"
	CodeSettlementFailure   = "credit_settlement_failed"
)

// ValidationError reports caller-fixable bad input. It is surfaced verbatim.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Code returns the machine code for this error class.
func (e *ValidationError) Code() string { return CodeInvalidInput }

// ModelInvocationError reports an upstream analysis or generation failure,
// including safety blocks. Reason carries the upstream block/finish reason
// when the provider exposed one.
type ModelInvocationError struct {
	Stage  string
	Reason string
	Err    error
}

func (e *ModelInvocationError) Error() string {
	switch {
	case e.Reason != "" && e.Err != nil:
		return fmt.Sprintf("%s: model invocation failed (%s): %v", e.Stage, e.Reason, e.Err)
	case e.Reason != "":
		return fmt.Sprintf("%s: model invocation failed: %s", e.Stage, e.Reason)
	case e.Err != nil:
		return fmt.Sprintf("%s: model invocation failed: %v", e.Stage, e.Err)
	}
	return fmt.Sprintf("%s: model invocation failed", e.Stage)
}

func (e *ModelInvocationError) Unwrap() error { return e.Err }

func (e *ModelInvocationError) Code() string { return CodeModelInvocation }

// ParseError reports a structured model response that did not match the
// expected shape. It is a hard failure: fields are never silently defaulted.
type ParseError struct {
	Stage string
	Err   error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: response did not match expected schema: %v", e.Stage, e.Err)
	}
	return fmt.Sprintf("%s: response did not match expected schema", e.Stage)
}

func (e *ParseError) Unwrap() error { return e.Err }

func (e *ParseError) Code() string { return CodeParseFailure }

// InsufficientCreditsError halts the pipeline at the credit gate. It carries
// both amounts so the caller can present a top-up flow.
type InsufficientCreditsError struct {
	Required  int
	Available int
}

func (e *InsufficientCreditsError) Error() string {
	return fmt.Sprintf("insufficient credits: required %d, available %d", e.Required, e.Available)
}

func (e *InsufficientCreditsError) Code() string { return CodeInsufficientCredits }

// SettlementError records a post-generation deduction failure. It is reported
// and logged but never fails the request: the asset already exists and the
// caller keeps it.
type SettlementError struct {
	AccountID string
	Amount    int
	Err       error
}

func (e *SettlementError) Error() string {
	return fmt.Sprintf("settlement of %d credits for account %s failed: %v", e.Amount, e.AccountID, e.Err)
}

func (e *SettlementError) Unwrap() error { return e.Err }

func (e *SettlementError) Code() string { return CodeSettlementFailure }
