package html2doc

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// OutputFormat identifies the conversion target.
type OutputFormat string

// Supported output formats.
const (
	FormatPDF  OutputFormat = "pdf"
	FormatPPTX OutputFormat = "pptx"
)

// ContentType returns the MIME type served for the format.
func (f OutputFormat) ContentType() string {
	switch f {
	case FormatPPTX:
		return "application/vnd.openxmlformats-officedocument.presentationml.presentation"
	default:
		return "application/pdf"
	}
}

// Valid reports whether the format is one of the supported outputs.
func (f OutputFormat) Valid() bool {
	return f == FormatPDF || f == FormatPPTX
}

// BackendKind names a rendering backend.
type BackendKind string

// Backend kinds. BackendAuto defers the choice to the selection policy.
const (
	BackendAuto    BackendKind = "auto"
	BackendBrowser BackendKind = "browser"
	BackendPaged   BackendKind = "paged"
	BackendGeneric BackendKind = "generic"
)

// Valid reports whether the kind is recognized (including auto).
func (k BackendKind) Valid() bool {
	switch k {
	case BackendAuto, BackendBrowser, BackendPaged, BackendGeneric:
		return true
	}
	return false
}

// Page size constants.
const (
	PageSizeLetter = "letter"
	PageSizeA4     = "a4"
	PageSizeLegal  = "legal"
)

// Orientation constants.
const (
	OrientationPortrait  = "portrait"
	OrientationLandscape = "landscape"
)

// Margin bounds in inches.
const (
	MinMargin     = 0.25
	MaxMargin     = 3.0
	DefaultMargin = 0.5
)

// Scale bounds for browser print scaling.
const (
	MinScale = 0.1
	MaxScale = 2.0
)

// PageSettings configures output page dimensions.
type PageSettings struct {
	Size        string  // "letter", "a4", "legal"
	Orientation string  // "portrait", "landscape"
	Margin      float64 // inches, applied to all sides
}

// DefaultPageSettings returns page settings with default values.
func DefaultPageSettings() *PageSettings {
	return &PageSettings{
		Size:        PageSizeA4,
		Orientation: OrientationPortrait,
		Margin:      DefaultMargin,
	}
}

// Validate checks that page settings are valid.
// Returns nil if p is nil (nil means use defaults).
func (p *PageSettings) Validate() error {
	if p == nil {
		return nil
	}
	switch strings.ToLower(p.Size) {
	case PageSizeLetter, PageSizeA4, PageSizeLegal:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidPageSize, p.Size)
	}
	switch strings.ToLower(p.Orientation) {
	case "", OrientationPortrait, OrientationLandscape:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidOrientation, p.Orientation)
	}
	if p.Margin < MinMargin || p.Margin > MaxMargin {
		return fmt.Errorf("%w: %.2f (must be between %.2f and %.2f)", ErrInvalidMargin, p.Margin, MinMargin, MaxMargin)
	}
	return nil
}

// Slide layout presets for PPTX output.
const (
	SlideLayoutWidescreen = "widescreen" // 16:9, 13.33x7.5in
	SlideLayoutA4         = "a4"         // 210x297mm portrait
	SlideLayoutSquare     = "square"     // 7.5x7.5in
)

// Slide style palettes for PPTX output.
const (
	SlideStylePlain    = "plain"
	SlideStyleMcKinsey = "mckinsey"
	SlideStyleAmazon   = "amazon"
	SlideStyleIB       = "ib"
)

// Footer configures the printed page footer.
type Footer struct {
	ShowPageNumber bool
	DateFormat     string // dateutil format ("YYYY-MM-DD", "iso", ...); empty = no date
	Text           string
}

// RenderOptions is the validated subset of request options handed to a
// backend. Options a backend cannot honor are recorded as warnings in the
// result diagnostics, never silently misapplied.
type RenderOptions struct {
	Page        *PageSettings
	Scale       float64 // browser print scale; 0 = default 1.0
	Footer      *Footer
	SlideLayout string // pptx only
	SlideStyle  string // pptx only
}

// Validate checks option values against their allowed ranges.
func (o *RenderOptions) Validate() error {
	if o == nil {
		return nil
	}
	if err := o.Page.Validate(); err != nil {
		return err
	}
	if o.Scale != 0 && (o.Scale < MinScale || o.Scale > MaxScale) {
		return fmt.Errorf("%w: %.2f (must be between %.2f and %.2f)", ErrInvalidScale, o.Scale, MinScale, MaxScale)
	}
	switch o.SlideLayout {
	case "", SlideLayoutWidescreen, SlideLayoutA4, SlideLayoutSquare:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidSlideLayout, o.SlideLayout)
	}
	switch o.SlideStyle {
	case "", SlideStylePlain, SlideStyleMcKinsey, SlideStyleAmazon, SlideStyleIB:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidSlideStyle, o.SlideStyle)
	}
	return nil
}

// MaxInputBytes is the default HTML input size limit.
const MaxInputBytes = 16 << 20 // 16 MiB

// Request contains one conversion's parameters. Immutable once submitted.
type Request struct {
	HTML         []byte       // UTF-8 HTML document (required)
	Format       OutputFormat // required
	Backend      BackendKind  // empty = auto
	Options      RenderOptions
	FontFamilies []string // preferred families, in order; empty = document default
	StrictFonts  bool     // fail on missing glyph coverage instead of warning
	RequiresJS   bool     // force the browser backend for script-driven documents
	Timeout      time.Duration // per-request render timeout; 0 = configured default
}

func (r *Request) validate(maxBytes int) error {
	if len(r.HTML) == 0 {
		return ErrEmptyHTML
	}
	if maxBytes > 0 && len(r.HTML) > maxBytes {
		return fmt.Errorf("%w: %d bytes (max %d)", ErrInputTooLarge, len(r.HTML), maxBytes)
	}
	if !utf8.Valid(r.HTML) {
		return ErrMalformedUTF8
	}
	if !r.Format.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownFormat, r.Format)
	}
	if r.Backend != "" && !r.Backend.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownBackend, r.Backend)
	}
	return r.Options.Validate()
}

// Stage identifies a pipeline phase. Stages execute strictly in the order
// listed; terminal states are final.
type Stage string

// Pipeline stages.
const (
	StageReceived       Stage = "received"
	StageValidated      Stage = "validated"
	StageFontResolved   Stage = "font_resolved"
	StageRendering      Stage = "rendering"
	StagePostprocessing Stage = "postprocessing"
	StageCompleted      Stage = "completed"
	StageFailed         Stage = "failed"
)

// StageTiming records how long one pipeline stage took.
type StageTiming struct {
	Stage   Stage
	Elapsed time.Duration
}

// Diagnostics accumulates non-fatal findings during one conversion.
type Diagnostics struct {
	Backend  BackendKind      // backend that actually rendered
	Fonts    []FontResolution // per requested family
	Warnings []string
	Timings  []StageTiming
}

func (d *Diagnostics) warnf(format string, args ...any) {
	d.Warnings = append(d.Warnings, fmt.Sprintf(format, args...))
}

// Result is the output of one conversion. Returned exactly once per request
// and never mutated after construction.
type Result struct {
	Bytes       []byte
	ContentType string
	Diagnostics Diagnostics
}

// Option configures a Service.
type Option func(*Service)

// serviceConfig holds internal configuration for Service.
type serviceConfig struct {
	renderTimeout   time.Duration
	maxTimeout      time.Duration // operator ceiling for per-request overrides
	requestTimeout  time.Duration // global per-request deadline
	queueWait       time.Duration
	poolSize        int
	globalLimit     int64
	maxInputBytes   int
	browserBin      string
	fontDirs        []string
	defaultFont     string
	cjkFont         string
	defaultBackend  BackendKind
	strictFonts     bool
}

// Timeout defaults.
const (
	defaultRenderTimeout  = 30 * time.Second
	defaultMaxTimeout     = 5 * time.Minute
	defaultRequestTimeout = 2 * time.Minute
	defaultQueueWait      = 10 * time.Second
)

// WithRenderTimeout sets the default per-render timeout.
// Panics if d <= 0 (programmer error, similar to time.NewTicker).
func WithRenderTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("html2doc: WithRenderTimeout duration must be positive")
	}
	return func(s *Service) {
		s.cfg.renderTimeout = d
	}
}

// WithRequestTimeout sets the global per-request deadline covering all
// pipeline stages.
func WithRequestTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("html2doc: WithRequestTimeout duration must be positive")
	}
	return func(s *Service) {
		s.cfg.requestTimeout = d
	}
}

// WithQueueWait sets how long Acquire blocks for a backend slot before
// failing with ErrResourceExhausted.
func WithQueueWait(d time.Duration) Option {
	if d <= 0 {
		panic("html2doc: WithQueueWait duration must be positive")
	}
	return func(s *Service) {
		s.cfg.queueWait = d
	}
}

// WithPoolSize caps concurrent browser instances.
func WithPoolSize(n int) Option {
	return func(s *Service) {
		s.cfg.poolSize = n
	}
}

// WithGlobalConcurrency caps concurrent conversions across all backends.
func WithGlobalConcurrency(n int) Option {
	return func(s *Service) {
		s.cfg.globalLimit = int64(n)
	}
}

// WithMaxInputBytes overrides the HTML input size limit.
func WithMaxInputBytes(n int) Option {
	return func(s *Service) {
		s.cfg.maxInputBytes = n
	}
}

// WithBrowserBin points the browser backend at a pre-installed Chromium.
func WithBrowserBin(path string) Option {
	return func(s *Service) {
		s.cfg.browserBin = path
	}
}

// WithFontDirs sets the directories scanned into the font inventory at
// startup, replacing the platform defaults.
func WithFontDirs(dirs ...string) Option {
	return func(s *Service) {
		s.cfg.fontDirs = dirs
	}
}

// WithDefaultFont sets the generic fallback family.
func WithDefaultFont(family string) Option {
	return func(s *Service) {
		s.cfg.defaultFont = family
	}
}

// WithCJKFont sets the CJK-capable fallback family used when a document
// contains Hangul/CJK code points.
func WithCJKFont(family string) Option {
	return func(s *Service) {
		s.cfg.cjkFont = family
	}
}

// WithStrictFonts makes missing glyph coverage fail every conversion with
// ErrFontCoverage instead of degrading with a warning. Individual requests
// can still opt in via Request.StrictFonts when this is off.
func WithStrictFonts() Option {
	return func(s *Service) {
		s.cfg.strictFonts = true
	}
}

// WithDefaultBackend sets the backend used by auto selection when neither
// format nor script content forces a choice.
func WithDefaultBackend(kind BackendKind) Option {
	return func(s *Service) {
		s.cfg.defaultBackend = kind
	}
}

// WithRegistry injects a pre-built font registry (e.g., by tests).
func WithRegistry(reg *Registry) Option {
	return func(s *Service) {
		s.registry = reg
	}
}

// WithBackend injects a backend implementation for the given kind,
// replacing the production one (e.g., by tests).
func WithBackend(kind BackendKind, b Backend) Option {
	return func(s *Service) {
		if s.backendOverrides == nil {
			s.backendOverrides = make(map[BackendKind]Backend)
		}
		s.backendOverrides[kind] = b
	}
}
