package html2doc

import (
	"context"
	"errors"
	"fmt"

	"github.com/renderkit/html2doc/internal/hints"
)

// Error taxonomy. Every backend- and resource-level failure is translated
// into one of these sentinels before it crosses the pipeline boundary, so
// callers never see backend-specific error types.
var (
	// ErrInvalidInput marks malformed requests: empty or oversized HTML,
	// invalid UTF-8, unknown output format, or an unsupported
	// format/backend combination. Never retryable.
	ErrInvalidInput = errors.New("invalid input")

	// ErrFontCoverage marks a strict-mode conversion whose required glyph
	// coverage is unavailable. Non-strict conversions warn instead.
	ErrFontCoverage = errors.New("font coverage unavailable")

	// ErrResourceExhausted marks a saturated pool or queue. Retryable by
	// the caller with backoff; the pipeline itself never retries.
	ErrResourceExhausted = errors.New("render capacity exhausted")

	// ErrRenderFailure marks a backend-specific rendering error (browser
	// crash, layout failure beyond recoverable limits).
	ErrRenderFailure = errors.New("rendering failed")

	// ErrTimeout marks a stage or global deadline exceeded. Resources held
	// by the request are forcibly reclaimed.
	ErrTimeout = errors.New("conversion deadline exceeded")

	// ErrInternal marks an unexpected failure that fits no other category.
	ErrInternal = errors.New("internal error")
)

// Browser-level sentinels. These stay inside the package; the pipeline wraps
// them into ErrRenderFailure (or ErrTimeout) before returning.
var (
	ErrBrowserConnect = errors.New("failed to connect to browser")
	ErrPageCreate     = errors.New("failed to create browser page")
	ErrPageLoad       = errors.New("failed to load page")
	ErrPDFGeneration  = errors.New("PDF generation failed")
)

// Validation sentinels, wrapped into ErrInvalidInput at the boundary.
var (
	ErrEmptyHTML          = errors.New("html content cannot be empty")
	ErrInputTooLarge      = errors.New("html content exceeds size limit")
	ErrMalformedUTF8      = errors.New("html content is not valid UTF-8")
	ErrUnknownFormat      = errors.New("unknown output format")
	ErrUnknownBackend     = errors.New("unknown backend")
	ErrInvalidPageSize    = errors.New("invalid page size")
	ErrInvalidOrientation = errors.New("invalid orientation")
	ErrInvalidMargin      = errors.New("invalid margin")
	ErrInvalidScale       = errors.New("invalid scale")
	ErrInvalidSlideLayout = errors.New("invalid slide layout")
	ErrInvalidSlideStyle  = errors.New("invalid slide style")
)

// taxonomy lists the boundary sentinels in classification order.
var taxonomy = []error{
	ErrInvalidInput,
	ErrFontCoverage,
	ErrResourceExhausted,
	ErrTimeout,
	ErrRenderFailure,
	ErrInternal,
}

// InTaxonomy reports whether err already wraps one of the boundary
// sentinels.
func InTaxonomy(err error) bool {
	for _, t := range taxonomy {
		if errors.Is(err, t) {
			return true
		}
	}
	return false
}

// classify translates an arbitrary error into the fixed taxonomy.
// Errors already in the taxonomy pass through unchanged; context deadline
// and cancellation map to ErrTimeout; everything else becomes
// ErrRenderFailure when it carries a browser sentinel, otherwise
// ErrInternal.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if InTaxonomy(err) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return errorsJoinKeep(ErrTimeout, fmt.Errorf("%w%s", err, hints.ForTimeout()))
	}
	if errors.Is(err, context.Canceled) {
		return errorsJoinKeep(ErrTimeout, err)
	}
	switch {
	case errors.Is(err, ErrBrowserConnect),
		errors.Is(err, ErrPageCreate),
		errors.Is(err, ErrPageLoad),
		errors.Is(err, ErrPDFGeneration):
		return errorsJoinKeep(ErrRenderFailure, err)
	}
	return errorsJoinKeep(ErrInternal, err)
}

// errorsJoinKeep wraps err under the taxonomy sentinel while preserving the
// original chain for diagnostics.
func errorsJoinKeep(sentinel, err error) error {
	return &taggedError{tag: sentinel, err: err}
}

type taggedError struct {
	tag error
	err error
}

func (e *taggedError) Error() string { return e.tag.Error() + ": " + e.err.Error() }

func (e *taggedError) Unwrap() []error { return []error{e.tag, e.err} }
