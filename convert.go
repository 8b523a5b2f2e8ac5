package html2doc

import (
	"context"
	"fmt"
	"time"

	"github.com/renderkit/html2doc/internal/hints"
	"github.com/renderkit/html2doc/internal/pipeline"
)

// Service converts HTML documents to PDF and PPTX. Safe for concurrent
// use; construct once, share, and Close when done.
type Service struct {
	cfg              serviceConfig
	registry         *Registry
	manager          *Manager
	backendOverrides map[BackendKind]Backend
}

// NewService builds a Service with the given options. The font inventory
// is scanned once here; an empty system inventory degrades to the embedded
// fallback face rather than failing startup.
func NewService(opts ...Option) (*Service, error) {
	s := &Service{cfg: serviceConfig{
		renderTimeout:  defaultRenderTimeout,
		maxTimeout:     defaultMaxTimeout,
		requestTimeout: defaultRequestTimeout,
		queueWait:      defaultQueueWait,
		maxInputBytes:  MaxInputBytes,
	}}
	for _, opt := range opts {
		opt(s)
	}

	if s.registry == nil {
		reg, err := NewRegistry(RegistryConfig{
			Dirs:          s.cfg.fontDirs,
			DefaultFamily: s.cfg.defaultFont,
			CJKFamily:     s.cfg.cjkFont,
		})
		if err != nil {
			return nil, fmt.Errorf("building font registry: %w", err)
		}
		s.registry = reg
	}

	s.manager = newManager(s.cfg, s.backendOverrides)
	return s, nil
}

// Registry exposes the font inventory, e.g. for a fonts endpoint.
func (s *Service) Registry() *Registry { return s.registry }

// BrowserStats reports browser pool occupancy for health checks.
func (s *Service) BrowserStats() (created, idle int) { return s.manager.BrowserStats() }

// Close releases all pooled backends, including browser processes.
func (s *Service) Close() error { return s.manager.Close() }

// stageTimer measures elapsed time between pipeline stages.
type stageTimer struct {
	last time.Time
}

func (t *stageTimer) mark(stage Stage, d *Diagnostics) {
	now := time.Now()
	d.Timings = append(d.Timings, StageTiming{Stage: stage, Elapsed: now.Sub(t.last)})
	t.last = now
}

// Convert runs one conversion through the pipeline: validate, resolve
// fonts, select a backend, acquire a render slot, render, postprocess.
// Every failure is classified into the package error taxonomy before it
// is returned; a panic anywhere inside surfaces as ErrInternal.
func (s *Service) Convert(ctx context.Context, req Request) (result *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("%w: unexpected panic: %v", ErrInternal, r)
		}
	}()

	if s.cfg.requestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.requestTimeout)
		defer cancel()
	}

	var d Diagnostics
	timer := stageTimer{last: time.Now()}

	if err := req.validate(s.cfg.maxInputBytes); err != nil {
		return nil, errorsJoinKeep(ErrInvalidInput, err)
	}
	timer.mark(StageValidated, &d)

	scan, err := pipeline.Scan(req.HTML)
	if err != nil {
		return nil, errorsJoinKeep(ErrInvalidInput, fmt.Errorf("parsing document: %w", err))
	}

	resolutions := s.registry.Resolve(req.FontFamilies, []byte(scan.Text))
	d.Fonts = resolutions
	for _, res := range resolutions {
		if res.Coverage != CoverageFull {
			d.warnf("font family %q resolved to %q with %s coverage%s",
				res.Requested, res.Family, res.Coverage, hints.ForFontCoverage(s.registry.Families()))
		}
	}
	if req.StrictFonts || s.cfg.strictFonts {
		if err := checkStrict(resolutions); err != nil {
			return nil, err
		}
	}
	timer.mark(StageFontResolved, &d)

	kind, err := selectBackend(&req, scan.HasScript, s.cfg.defaultBackend)
	if err != nil {
		return nil, err
	}
	d.Backend = kind

	// The browser reads font preferences from CSS; the other backends
	// consume the resolutions directly.
	htmlIn := req.HTML
	if kind == BackendBrowser {
		if css := pipeline.FontStackCSS(resolvedFamilies(resolutions)); css != "" {
			htmlIn = []byte(pipeline.InjectCSS(string(htmlIn), css))
		}
	}

	lease, err := s.manager.Acquire(ctx, kind)
	if err != nil {
		return nil, classify(err)
	}
	// Deferred so the slot comes back even when Render panics. A browser
	// that did not finish cleanly may be wedged; recycle it instead of
	// returning it to the pool.
	rendered := false
	defer func() {
		lease.Release(!rendered && kind == BackendBrowser)
	}()

	renderCtx, cancelRender := context.WithTimeout(ctx, s.renderTimeout(&req))
	out, renderErr := lease.Backend.Render(renderCtx, htmlIn, req.Options, resolutions)
	cancelRender()
	rendered = renderErr == nil
	if renderErr != nil {
		return nil, classify(renderErr)
	}
	timer.mark(StageRendering, &d)

	d.Warnings = append(d.Warnings, out.Warnings...)
	timer.mark(StagePostprocessing, &d)

	return &Result{
		Bytes:       out.Bytes,
		ContentType: req.Format.ContentType(),
		Diagnostics: d,
	}, nil
}

// renderTimeout resolves the effective per-render deadline: the request
// override when present, clamped to the operator ceiling.
func (s *Service) renderTimeout(req *Request) time.Duration {
	t := s.cfg.renderTimeout
	if req.Timeout > 0 {
		t = req.Timeout
	}
	if s.cfg.maxTimeout > 0 && t > s.cfg.maxTimeout {
		t = s.cfg.maxTimeout
	}
	return t
}

// resolvedFamilies lists the distinct resolved family names, in order.
func resolvedFamilies(resolutions []FontResolution) []string {
	seen := make(map[string]bool, len(resolutions))
	var out []string
	for _, res := range resolutions {
		if res.Family == "" || seen[res.Family] {
			continue
		}
		seen[res.Family] = true
		out = append(out, res.Family)
	}
	return out
}
