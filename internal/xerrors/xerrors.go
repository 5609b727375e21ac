// Package xerrors implements the extraction engine's error taxonomy.
// Each kind from spec.md §7 is a distinct type carrying a stable
// machine-readable Kind() and, where the Python original exposed one, a
// human remediation string via SuggestedAction().
package xerrors

import (
	"fmt"
	"time"
)

// Kind is the stable, machine-readable error category.
type Kind string

const (
	KindInput            Kind = "InputError"
	KindConfig           Kind = "ConfigError"
	KindContextOverflow  Kind = "ContextOverflowError"
	KindSchemaViolation  Kind = "SchemaViolationError"
	KindTransientBackend Kind = "TransientBackendError"
	KindFatalBackend     Kind = "FatalBackendError"
	KindResource         Kind = "ResourceError"
	KindCancelled        Kind = "CancelledError"
)

// Actionable is implemented by every error kind below.
type Actionable interface {
	error
	Kind() Kind
	SuggestedAction() string
}

type baseError struct {
	message   string
	kind      Kind
	timestamp time.Time
}

func (e *baseError) Error() string     { return e.message }
func (e *baseError) Kind() Kind        { return e.kind }
func (e *baseError) Timestamp() time.Time { return e.timestamp }

// InputError surfaces an empty or invalid document. Per spec.md §7 this
// is surfaced via the EMPTY_DOCUMENT/INVALID_DOCUMENT result, not raised
// as an error in the orchestrator's hot path; the type exists so callers
// of lower-level components can still report it uniformly.
type InputError struct {
	baseError
	Reason string
}

func NewInputError(reason string) *InputError {
	return &InputError{baseError: baseError{message: reason, kind: KindInput, timestamp: time.Now()}, Reason: reason}
}
func (e *InputError) SuggestedAction() string { return "supply a non-empty, decodable document" }

// ConfigError is fatal at startup.
type ConfigError struct {
	baseError
	InvalidField string
}

func NewConfigError(message, invalidField string) *ConfigError {
	return &ConfigError{baseError: baseError{message: message, kind: KindConfig, timestamp: time.Now()}, InvalidField: invalidField}
}
func (e *ConfigError) SuggestedAction() string {
	return "check configuration parameters and documentation"
}

// ContextOverflowError is raised when prompt (+ completion) exceeds the
// model's context window. Non-retryable.
type ContextOverflowError struct {
	baseError
	EstimatedTokens int
	MaxTokens       int
	ExcessTokens    int
}

func NewContextOverflowError(estimated, max, excess int) *ContextOverflowError {
	msg := fmt.Sprintf("prompt exceeds context budget: estimated=%d max=%d excess=%d", estimated, max, excess)
	return &ContextOverflowError{
		baseError:       baseError{message: msg, kind: KindContextOverflow, timestamp: time.Now()},
		EstimatedTokens: estimated,
		MaxTokens:       max,
		ExcessTokens:    excess,
	}
}
func (e *ContextOverflowError) SuggestedAction() string {
	return fmt.Sprintf("Reduce prompt by ~%d tokens or implement chunking strategy", e.ExcessTokens)
}

// SchemaViolationError: per-entity/relationship, dropped silently from
// output and counted in result metadata.
type SchemaViolationError struct {
	baseError
	Field string
}

func NewSchemaViolationError(message, field string) *SchemaViolationError {
	return &SchemaViolationError{baseError: baseError{message: message, kind: KindSchemaViolation, timestamp: time.Now()}, Field: field}
}
func (e *SchemaViolationError) SuggestedAction() string {
	return "drop the offending record; inspect backend output for schema drift"
}

// TransientBackendError: timeout, 5xx, reset. Retried with backoff.
type TransientBackendError struct {
	baseError
	Attempt     int
	MaxRetries  int
	TimeoutOccurred bool
	ServerError bool
}

func NewTransientBackendError(message string, attempt, maxRetries int, timeoutOccurred, serverError bool) *TransientBackendError {
	return &TransientBackendError{
		baseError:       baseError{message: message, kind: KindTransientBackend, timestamp: time.Now()},
		Attempt:         attempt,
		MaxRetries:      maxRetries,
		TimeoutOccurred: timeoutOccurred,
		ServerError:     serverError,
	}
}

// CanRetry mirrors the Python original's computed can_retry field.
func (e *TransientBackendError) CanRetry() bool {
	return e.Attempt < e.MaxRetries && !e.ServerError
}

func (e *TransientBackendError) SuggestedAction() string {
	switch {
	case e.TimeoutOccurred:
		return "Reduce context size or increase timeout"
	case e.ServerError:
		return "Check backend service status and connectivity"
	default:
		return "Retry with exponential backoff"
	}
}

// FatalBackendError: 4xx other than rate-limit, circuit open, model not
// loaded. Aborts the current wave or chunk.
type FatalBackendError struct {
	baseError
	StatusCode int
}

func NewFatalBackendError(message string, statusCode int) *FatalBackendError {
	return &FatalBackendError{baseError: baseError{message: message, kind: KindFatalBackend, timestamp: time.Now()}, StatusCode: statusCode}
}
func (e *FatalBackendError) SuggestedAction() string {
	return "Check backend service status and connectivity"
}

// ModelNotLoadedError signals the connection state machine surfaced a
// not-ready backend after a failed single-flight transition.
type ModelNotLoadedError struct {
	baseError
	RetryAfter *time.Duration
}

func NewModelNotLoadedError(message string, retryAfter *time.Duration) *ModelNotLoadedError {
	if message == "" {
		message = "Model not loaded"
	}
	return &ModelNotLoadedError{baseError: baseError{message: message, kind: KindFatalBackend, timestamp: time.Now()}, RetryAfter: retryAfter}
}
func (e *ModelNotLoadedError) SuggestedAction() string {
	return "Ensure the inference backend is initialized and ready"
}

// ResourceError: GPU memory exhausted, rate-bucket wait exceeded.
// Treated as transient for retry purposes.
type ResourceError struct {
	baseError
}

func NewResourceError(message string) *ResourceError {
	return &ResourceError{baseError: baseError{message: message, kind: KindResource, timestamp: time.Now()}}
}
func (e *ResourceError) SuggestedAction() string {
	return "Wait for resource pressure to subside or reduce concurrent load"
}

// GPUMemoryError is a specialization of ResourceError carrying GPU stats,
// mirroring the Python original's GPUMemoryError.
type GPUMemoryError struct {
	ResourceError
	UsedMemoryGB      float64
	TotalMemoryGB     float64
	UtilizationPercent float64
}

func NewGPUMemoryError(message string, usedGB, totalGB, utilPercent float64) *GPUMemoryError {
	return &GPUMemoryError{
		ResourceError:      ResourceError{baseError{message: message, kind: KindResource, timestamp: time.Now()}},
		UsedMemoryGB:       usedGB,
		TotalMemoryGB:      totalGB,
		UtilizationPercent: utilPercent,
	}
}
func (e *GPUMemoryError) SuggestedAction() string {
	return "Wait for GPU memory to free up or reduce batch size"
}

// CancelledError: deadline or explicit cancellation.
type CancelledError struct {
	baseError
}

func NewCancelledError(message string) *CancelledError {
	return &CancelledError{baseError: baseError{message: message, kind: KindCancelled, timestamp: time.Now()}}
}
func (e *CancelledError) SuggestedAction() string { return "extraction was cancelled; no retry" }
