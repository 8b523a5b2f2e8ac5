package html2doc

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/image/font/gofont/goregular"

	"github.com/renderkit/html2doc/internal/fontscan"
)

// Coverage classifies how well a resolved font covers the code points a
// document needs.
type Coverage string

// Coverage levels.
const (
	CoverageFull    Coverage = "full"
	CoveragePartial Coverage = "partial"
	CoverageNone    Coverage = "none"
)

// FontResolution maps one requested family to the font that will render it.
type FontResolution struct {
	Requested string   // family asked for; empty means document default
	Family    string   // family actually resolved
	Path      string   // font file; empty for the embedded fallback
	Coverage  Coverage // against the document's required code points
}

// RegistryConfig controls registry construction.
type RegistryConfig struct {
	Dirs          []string // font directories; nil = platform defaults
	DefaultFamily string   // generic fallback family name
	CJKFamily     string   // CJK-capable fallback family name
}

// Registry is the process-wide font inventory. Built once at startup,
// read-only afterwards, safe for concurrent readers.
type Registry struct {
	fonts     []*fontscan.Font
	byFamily  map[string]*fontscan.Font // lower-cased family -> font
	defaultF  *fontscan.Font
	cjkF      *fontscan.Font
	scanNotes []string
}

// NewRegistry scans cfg.Dirs and builds the inventory. The embedded Go
// Regular face is always appended as a last-resort entry so an empty system
// inventory still resolves Latin text.
func NewRegistry(cfg RegistryConfig) (*Registry, error) {
	dirs := cfg.Dirs
	if dirs == nil {
		dirs = fontscan.DefaultDirs()
	}

	fonts, notes, err := fontscan.Scan(dirs)
	if err != nil {
		// Empty inventory degrades to the embedded fallback alone.
		notes = append(notes, err.Error())
		fonts = nil
	}

	embedded, err := fontscan.Parse(goregular.TTF, "")
	if err != nil {
		return nil, fmt.Errorf("parsing embedded fallback font: %w", err)
	}
	fonts = append(fonts, embedded)

	r := &Registry{
		fonts:     fonts,
		byFamily:  make(map[string]*fontscan.Font, len(fonts)),
		scanNotes: notes,
	}
	for _, f := range fonts {
		key := strings.ToLower(f.Family)
		if _, dup := r.byFamily[key]; !dup {
			r.byFamily[key] = f
		}
	}

	r.defaultF = r.lookup(cfg.DefaultFamily)
	if r.defaultF == nil {
		r.defaultF = embedded
	}
	r.cjkF = r.lookup(cfg.CJKFamily)
	if r.cjkF == nil {
		r.cjkF = r.findCJKCapable()
	}

	return r, nil
}

// NewRegistryFromFonts builds a registry over pre-parsed fonts, bypassing
// the filesystem scan. Used by tests and embedded deployments.
func NewRegistryFromFonts(fonts []*fontscan.Font, defaultFamily, cjkFamily string) *Registry {
	r := &Registry{
		fonts:    fonts,
		byFamily: make(map[string]*fontscan.Font, len(fonts)),
	}
	for _, f := range fonts {
		key := strings.ToLower(f.Family)
		if _, dup := r.byFamily[key]; !dup {
			r.byFamily[key] = f
		}
	}
	r.defaultF = r.lookup(defaultFamily)
	r.cjkF = r.lookup(cjkFamily)
	if r.cjkF == nil {
		r.cjkF = r.findCJKCapable()
	}
	if r.defaultF == nil && len(fonts) > 0 {
		r.defaultF = fonts[0]
	}
	return r
}

// Families returns the resolvable family names, for diagnostics endpoints.
func (r *Registry) Families() []string {
	out := make([]string, 0, len(r.fonts))
	for _, f := range r.fonts {
		out = append(out, f.Family)
	}
	return out
}

// ScanNotes returns non-fatal findings from the startup scan.
func (r *Registry) ScanNotes() []string { return r.scanNotes }

// Lookup returns the font registered under family, or nil.
func (r *Registry) Lookup(family string) *fontscan.Font { return r.lookup(family) }

func (r *Registry) lookup(family string) *fontscan.Font {
	if family == "" {
		return nil
	}
	return r.byFamily[strings.ToLower(family)]
}

// cjkProbe samples the ranges a CJK-capable font must cover: Hangul
// syllables, jamo, and common ideographs.
var cjkProbe = []rune{'안', '녕', '하', '세', '요', 'ㄱ', '한', '國', '日', '本', '中'}

// findCJKCapable returns the first inventory font covering the CJK probe.
func (r *Registry) findCJKCapable() *fontscan.Font {
	for _, f := range r.fonts {
		if covered, total := f.CoverageOf(cjkProbe); covered == total {
			return f
		}
	}
	return nil
}

// requiredRunes samples the document's distinct code points for coverage
// checks, capped to keep resolution cheap on large inputs.
const maxProbeRunes = 512

func requiredRunes(text []byte) []rune {
	seen := make(map[rune]bool, maxProbeRunes)
	out := make([]rune, 0, maxProbeRunes)
	for len(text) > 0 && len(out) < maxProbeRunes {
		r, size := utf8.DecodeRune(text)
		text = text[size:]
		if r == utf8.RuneError || r < 0x80 && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			continue
		}
		if !seen[r] {
			seen[r] = true
			out = append(out, r)
		}
	}
	return out
}

// containsCJK reports whether text includes Hangul, Han, or kana code
// points.
func containsCJK(text []byte) bool {
	for len(text) > 0 {
		r, size := utf8.DecodeRune(text)
		text = text[size:]
		if unicode.Is(unicode.Hangul, r) || unicode.Is(unicode.Han, r) ||
			unicode.Is(unicode.Hiragana, r) || unicode.Is(unicode.Katakana, r) {
			return true
		}
	}
	return false
}

// Resolve maps the requested families to inventory fonts for a document
// containing text. Pure function over the immutable inventory: exact family
// match first, then the CJK fallback when the document needs it, then the
// generic default. Missing coverage downgrades the Coverage flag; it never
// fails the resolution itself.
func (r *Registry) Resolve(families []string, text []byte) []FontResolution {
	probe := requiredRunes(text)
	needsCJK := containsCJK(text)

	if len(families) == 0 {
		families = []string{""} // document-declared default
	}

	out := make([]FontResolution, 0, len(families))
	for _, family := range families {
		out = append(out, r.resolveOne(family, probe, needsCJK))
	}
	return out
}

func (r *Registry) resolveOne(family string, probe []rune, needsCJK bool) FontResolution {
	res := FontResolution{Requested: family}

	f := r.lookup(family)
	if f == nil {
		if needsCJK && r.cjkF != nil {
			f = r.cjkF
		} else {
			f = r.defaultF
		}
	}
	if f == nil {
		res.Coverage = CoverageNone
		return res
	}

	// An exact match that cannot cover the document's CJK runes still
	// falls through to the CJK-capable family; the requested family is
	// kept in the resolution so the substitution is visible.
	if needsCJK && r.cjkF != nil && f != r.cjkF {
		if covered, total := f.CoverageOf(cjkProbe); covered < total {
			f = r.cjkF
		}
	}

	res.Family = f.Family
	res.Path = f.Path
	res.Coverage = coverageOf(f, probe)
	return res
}

func coverageOf(f *fontscan.Font, probe []rune) Coverage {
	if len(probe) == 0 {
		return CoverageFull
	}
	covered, total := f.CoverageOf(probe)
	switch {
	case covered == total:
		return CoverageFull
	case covered == 0:
		return CoverageNone
	default:
		return CoveragePartial
	}
}

// checkStrict returns ErrFontCoverage when any resolution lacks full
// coverage. Only called for strict-mode requests.
func checkStrict(resolutions []FontResolution) error {
	for _, res := range resolutions {
		if res.Coverage != CoverageFull {
			return fmt.Errorf("%w: family %q resolved to %q with %s coverage",
				ErrFontCoverage, res.Requested, res.Family, res.Coverage)
		}
	}
	return nil
}
