package errors

import (
	"fmt"
)

// Domain-specific error definitions
var (
	// Configuration errors raised eagerly at engine construction
	ErrConfigMethodUnknown = NewConfigurationError(CodeInvalidMethod, "comparison method is not recognized")
	ErrConfigMethodPending = NewConfigurationError(CodeMethodNotImplemented, "comparison method is recognized but not implemented")
	ErrConfigBinWidth      = NewConfigurationError(CodeBinWidthOutOfRange, "bin width must lie in (0, 2*pi]")
	ErrConfigEmptyList     = NewConfigurationError(CodeEmptyTrajectoryList, "trajectory list is empty")
	ErrConfigListLengths   = NewConfigurationError(CodeListLengthMismatch, "trajectory lists differ in length")
	ErrConfigNoFrames      = NewConfigurationError(CodeZeroUsableFrames, "truncation leaves no usable frames")
	ErrConfigChainIndex    = NewConfigurationError(CodeInvalidChainIndex, "chain index does not exist in trajectory")

	// Numeric degeneracy markers
	ErrNumericInfiniteEntropy = NewNumericError("relative entropy diverged on zero reference density")

	// Discovery errors
	ErrDiscoveryNoMatches = NewDiscoveryError(CodeNoTrajectoriesFound, "no trajectory files matched the discovery pattern")
	ErrDiscoveryBadMode   = NewDiscoveryError(CodeUnknownLayoutMode, "directory layout mode is not recognized")
)

// ShapeError carries the dimensions that failed to match, so divergence
// callers can report exactly which axes disagreed.
type ShapeError struct {
	*AppError
	Want []int `json:"want"`
	Got  []int `json:"got"`
}

// NewShapeError creates a shape mismatch error recording both shapes.
func NewShapeError(operation string, want, got []int) *ShapeError {
	return &ShapeError{
		AppError: &AppError{
			Type:    ErrorTypeShape,
			Code:    CodeShapeMismatch,
			Message: fmt.Sprintf("%s requires identically shaped inputs: want %v, got %v", operation, want, got),
		},
		Want: want,
		Got:  got,
	}
}

// NewBinWidthError reports a bin width outside the circular domain,
// including the offending value.
func NewBinWidthError(bwidth float64) *AppError {
	return NewConfigurationError(CodeBinWidthOutOfRange,
		fmt.Sprintf("bin width must be greater than 0 and at most 2*pi radians, received %v", bwidth))
}

// NewUnknownMethodError reports an unrecognized comparison method.
func NewUnknownMethodError(method string, supported []string) *AppError {
	return NewConfigurationError(CodeInvalidMethod,
		fmt.Sprintf("comparison method %q is not recognized, supported methods: %v", method, supported))
}

// NewPendingMethodError reports a recognized method with no implementation.
// Raised eagerly so callers never pay for loading before the rejection.
func NewPendingMethodError(method string) *AppError {
	return NewConfigurationError(CodeMethodNotImplemented,
		fmt.Sprintf("comparison method %q is recognized but not implemented", method))
}

// NewMetricNameError reports an unsupported metric selection.
func NewMetricNameError(metric string, supported []string) *AppError {
	return NewUnsupportedMetricError(
		fmt.Sprintf("metric %q is not supported, choose one of %v", metric, supported))
}

// NewChainIndexError reports a chain selector that exceeds the chains
// present in a loaded trajectory.
func NewChainIndexError(index, available int, source string) *AppError {
	return NewConfigurationError(CodeInvalidChainIndex,
		fmt.Sprintf("chain index %d out of range: trajectory %q has %d chain(s)", index, source, available))
}

// NewTruncationError reports a truncation that consumed every frame.
func NewTruncationError(minLength int) *AppError {
	return NewConfigurationError(CodeZeroUsableFrames,
		fmt.Sprintf("truncated frame count %d leaves no usable frames", minLength))
}

// NewPathError wraps a filesystem failure for one trajectory path.
func NewPathError(err error, path string) *AppError {
	return WrapError(err, ErrorTypeLoader, CodeTrajectoryNotFound,
		fmt.Sprintf("cannot read trajectory path %q", path)).
		WithContext("path", path)
}
