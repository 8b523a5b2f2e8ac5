package html2doc

import (
	"context"
	"fmt"
)

// RenderOutput is a backend's raw product before postprocessing.
type RenderOutput struct {
	Bytes    []byte
	Warnings []string
}

// Backend turns HTML plus validated options into a page-accurate byte
// stream. Implementations own the mechanics of their engine; they return
// engine-level errors which the pipeline translates into the fixed
// taxonomy.
type Backend interface {
	// Kind identifies the backend for diagnostics and pool bookkeeping.
	Kind() BackendKind

	// Render converts the document. The context carries the per-render
	// deadline; on expiry the backend must tear down any external process
	// it started before returning.
	Render(ctx context.Context, html []byte, opts RenderOptions, fonts []FontResolution) (*RenderOutput, error)

	// Close releases long-lived engine resources.
	Close() error
}

// Compile-time interface checks.
var (
	_ Backend = (*browserBackend)(nil)
	_ Backend = (*pagedBackend)(nil)
	_ Backend = (*genericBackend)(nil)
)

// selectBackend applies the selection policy:
//
//   - an explicitly requested backend wins, after a compatibility check;
//   - PPTX output requires the generic backend;
//   - documents that execute JavaScript need the browser backend;
//   - everything else uses the configured default.
//
// There is never a fallback from one backend to another at render time.
func selectBackend(req *Request, hasScript bool, defaultKind BackendKind) (BackendKind, error) {
	requested := req.Backend
	if requested == "" {
		requested = BackendAuto
	}

	if requested != BackendAuto {
		if req.Format == FormatPPTX && requested != BackendGeneric {
			return "", fmt.Errorf("%w: backend %q cannot produce %s output", ErrInvalidInput, requested, FormatPPTX)
		}
		if req.Format == FormatPDF && requested == BackendGeneric {
			return "", fmt.Errorf("%w: backend %q cannot produce %s output", ErrInvalidInput, requested, FormatPDF)
		}
		return requested, nil
	}

	if req.Format == FormatPPTX {
		return BackendGeneric, nil
	}
	if req.RequiresJS || hasScript {
		return BackendBrowser, nil
	}
	if defaultKind == "" || defaultKind == BackendAuto {
		return BackendPaged, nil
	}
	return defaultKind, nil
}
