// Package fontscan builds the process-wide font inventory.
//
// The inventory is scanned once at startup from the configured directories
// and is immutable afterwards, so concurrent readers need no locking. Only
// TrueType/OpenType single-font files are parsed; collections (.ttc) and
// unparseable files are skipped with a recorded note.
package fontscan

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/font/sfnt"
)

// ErrNoFonts indicates the scan produced an empty inventory.
var ErrNoFonts = errors.New("no usable fonts found")

// Font is one parsed entry of the inventory.
type Font struct {
	Family string // family name from the name table
	Path   string // source file; empty for embedded fonts
	Data   []byte // raw font file bytes, retained for embedding

	parsed *sfnt.Font
}

// Covers reports whether the font has a glyph for r.
func (f *Font) Covers(r rune) bool {
	// A nil buffer makes GlyphIndex allocate per call, which keeps the
	// parsed font safe for concurrent readers.
	gi, err := f.parsed.GlyphIndex(nil, r)
	return err == nil && gi != 0
}

// CoverageOf counts how many of the sample runes the font can render.
func (f *Font) CoverageOf(sample []rune) (covered, total int) {
	for _, r := range sample {
		if f.Covers(r) {
			covered++
		}
	}
	return covered, len(sample)
}

// Parsed exposes the underlying sfnt font for rasterization.
func (f *Font) Parsed() *sfnt.Font { return f.parsed }

// Parse builds a Font from raw TTF/OTF bytes. path is recorded for
// diagnostics only and may be empty.
func Parse(data []byte, path string) (*Font, error) {
	parsed, err := sfnt.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	family, err := parsed.Name(nil, sfnt.NameIDFamily)
	if err != nil || family == "" {
		// Fall back to the file name so the font stays addressable.
		family = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	return &Font{
		Family: family,
		Path:   path,
		Data:   data,
		parsed: parsed,
	}, nil
}

// fontExtensions lists the file extensions considered during a scan.
var fontExtensions = map[string]bool{
	".ttf": true,
	".otf": true,
}

// Scan walks dirs and parses every font file found. Unreadable or
// unparseable files are skipped and reported in notes; missing directories
// are ignored. Returns ErrNoFonts only when every directory was scanned and
// nothing usable was found.
func Scan(dirs []string) (fonts []*Font, notes []string, err error) {
	for _, dir := range dirs {
		walkErr := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return nil // unreadable subtree, keep going
			}
			if d.IsDir() || !fontExtensions[strings.ToLower(filepath.Ext(path))] {
				return nil
			}
			data, readErr := os.ReadFile(path) // #nosec G304 -- operator-configured font dirs
			if readErr != nil {
				notes = append(notes, fmt.Sprintf("skipping %s: %v", path, readErr))
				return nil
			}
			f, parseErr := Parse(data, path)
			if parseErr != nil {
				notes = append(notes, fmt.Sprintf("skipping %s: %v", path, parseErr))
				return nil
			}
			fonts = append(fonts, f)
			return nil
		})
		if walkErr != nil && !os.IsNotExist(walkErr) {
			notes = append(notes, fmt.Sprintf("scanning %s: %v", dir, walkErr))
		}
	}

	if len(fonts) == 0 {
		return nil, notes, fmt.Errorf("%w: scanned %s", ErrNoFonts, strings.Join(dirs, ", "))
	}
	return fonts, notes, nil
}

// DefaultDirs returns the standard font locations for the platform plus any
// extra directories.
func DefaultDirs(extra ...string) []string {
	dirs := []string{
		"/usr/share/fonts",
		"/usr/local/share/fonts",
	}
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, filepath.Join(home, ".fonts"), filepath.Join(home, ".local", "share", "fonts"))
	}
	return append(dirs, extra...)
}
