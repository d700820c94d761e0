package errors

import (
	"context"
	"errors"
	"fmt"
)

// Common application errors
var (
	// Configuration errors
	ErrUnsupportedMethod   = errors.New("unsupported comparison method")
	ErrMethodNotBuilt      = errors.New("comparison method recognized but not implemented")
	ErrBinWidthOutOfRange  = errors.New("bin width outside (0, 2*pi]")
	ErrEmptyTrajectoryList = errors.New("empty trajectory list")
	ErrListLengthMismatch  = errors.New("simulated and reference trajectory lists differ in length")
	ErrZeroUsableFrames    = errors.New("no usable frames after truncation")
	ErrInvalidChainIndex   = errors.New("invalid protein chain index")

	// Shape errors
	ErrShapeMismatch = errors.New("input arrays differ in shape")

	// Metric errors
	ErrUnsupportedMetric = errors.New("unsupported metric")

	// Loader errors
	ErrTrajectoryNotFound = errors.New("trajectory file not found")
	ErrAngleFileInvalid   = errors.New("invalid angle file")
	ErrLoadCancelled      = errors.New("trajectory load cancelled")

	// Discovery errors
	ErrNoTrajectoriesFound = errors.New("no trajectory files found")
	ErrUnknownLayoutMode   = errors.New("unknown directory layout mode")

	// Render errors
	ErrRenderFailed = errors.New("heatmap render failed")
	ErrEmptyMatrix  = errors.New("empty metric matrix")

	// Internal errors
	ErrInternal       = errors.New("internal error")
	ErrNotImplemented = errors.New("not implemented")
)

// ErrorType represents different categories of errors
type ErrorType string

const (
	ErrorTypeConfiguration ErrorType = "configuration"
	ErrorTypeShape         ErrorType = "shape"
	ErrorTypeNumeric       ErrorType = "numeric"
	ErrorTypeMetric        ErrorType = "metric"
	ErrorTypeLoader        ErrorType = "loader"
	ErrorTypeDiscovery     ErrorType = "discovery"
	ErrorTypeRender        ErrorType = "render"
	ErrorTypeInternal      ErrorType = "internal"
)

// AppError represents an application-specific error with additional context
type AppError struct {
	Type      ErrorType              `json:"type"`
	Code      string                 `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Cause     error                  `json:"-"`
	Context   map[string]interface{} `json:"context,omitempty"`
	Retryable bool                   `json:"retryable"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s - %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches the target
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Type == t.Type && e.Code == t.Code
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithDetails adds details to the error
func (e *AppError) WithDetails(details string) *AppError {
	e.Details = details
	return e
}

// NewAppError creates a new application error
func NewAppError(errType ErrorType, code, message string) *AppError {
	return &AppError{
		Type:      errType,
		Code:      code,
		Message:   message,
		Retryable: false,
	}
}

// WrapError wraps an existing error with application context
func WrapError(err error, errType ErrorType, code, message string) *AppError {
	return &AppError{
		Type:      errType,
		Code:      code,
		Message:   message,
		Cause:     err,
		Retryable: isRetryable(err),
	}
}

// NewConfigurationError creates a configuration error
func NewConfigurationError(code, message string) *AppError {
	return NewAppError(ErrorTypeConfiguration, code, message)
}

// NewShapeMismatchError creates a shape mismatch error
func NewShapeMismatchError(message string) *AppError {
	return NewAppError(ErrorTypeShape, CodeShapeMismatch, message)
}

// NewNumericError creates a numeric degeneracy error
func NewNumericError(message string) *AppError {
	return NewAppError(ErrorTypeNumeric, CodeNumericDegeneracy, message)
}

// NewUnsupportedMetricError creates an unsupported metric error
func NewUnsupportedMetricError(message string) *AppError {
	return NewAppError(ErrorTypeMetric, CodeUnsupportedMetric, message)
}

// NewLoaderError creates a trajectory loading error
func NewLoaderError(code, message string) *AppError {
	return NewAppError(ErrorTypeLoader, code, message)
}

// NewDiscoveryError creates a path discovery error
func NewDiscoveryError(code, message string) *AppError {
	return NewAppError(ErrorTypeDiscovery, code, message)
}

// NewRenderError creates a heatmap rendering error
func NewRenderError(message string) *AppError {
	return NewAppError(ErrorTypeRender, CodeRenderFailed, message)
}

// NewInternalError creates an internal error
func NewInternalError(message string) *AppError {
	return NewAppError(ErrorTypeInternal, CodeInternalError, message)
}

// isRetryable determines if an error is retryable
func isRetryable(err error) bool {
	if err == nil {
		return false
	}

	// Only transient load interruptions qualify; configuration, shape and
	// metric errors are final by policy. Loaders wrap ctx.Err() directly,
	// so the raw context sentinels count as interruptions too.
	switch {
	case errors.Is(err, ErrLoadCancelled):
		return true
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return true
	default:
		return false
	}
}

// Error codes for different error scenarios
const (
	// Configuration error codes
	CodeInvalidMethod        = "INVALID_METHOD"
	CodeMethodNotImplemented = "METHOD_NOT_IMPLEMENTED"
	CodeBinWidthOutOfRange   = "BIN_WIDTH_OUT_OF_RANGE"
	CodeEmptyTrajectoryList  = "EMPTY_TRAJECTORY_LIST"
	CodeListLengthMismatch   = "LIST_LENGTH_MISMATCH"
	CodeZeroUsableFrames     = "ZERO_USABLE_FRAMES"
	CodeInvalidChainIndex    = "INVALID_CHAIN_INDEX"
	CodeInvalidWorkerCount   = "INVALID_WORKER_COUNT"

	// Shape error codes
	CodeShapeMismatch = "SHAPE_MISMATCH"

	// Numeric error codes
	CodeNumericDegeneracy = "NUMERIC_DEGENERACY"

	// Metric error codes
	CodeUnsupportedMetric = "UNSUPPORTED_METRIC"

	// Loader error codes
	CodeTrajectoryNotFound = "TRAJECTORY_NOT_FOUND"
	CodeAngleFileInvalid   = "ANGLE_FILE_INVALID"
	CodeLoadCancelled      = "LOAD_CANCELLED"

	// Discovery error codes
	CodeNoTrajectoriesFound = "NO_TRAJECTORIES_FOUND"
	CodeUnknownLayoutMode   = "UNKNOWN_LAYOUT_MODE"

	// Render error codes
	CodeRenderFailed = "RENDER_FAILED"
	CodeEmptyMatrix  = "EMPTY_MATRIX"

	// Internal error codes
	CodeInternalError  = "INTERNAL_ERROR"
	CodeNotImplemented = "NOT_IMPLEMENTED"
)
