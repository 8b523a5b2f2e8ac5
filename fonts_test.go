package html2doc

import (
	"errors"
	"testing"

	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/renderkit/html2doc/internal/fontscan"
)

func mustParse(t *testing.T, data []byte) *fontscan.Font {
	t.Helper()
	f, err := fontscan.Parse(data, "")
	if err != nil {
		t.Fatalf("parsing font: %v", err)
	}
	return f
}

func latinRegistry(t *testing.T) *Registry {
	t.Helper()
	regular := mustParse(t, goregular.TTF)
	mono := mustParse(t, gomono.TTF)
	return NewRegistryFromFonts([]*fontscan.Font{regular, mono}, regular.Family, "")
}

func TestRegistryResolveExactMatch(t *testing.T) {
	t.Parallel()

	reg := latinRegistry(t)
	got := reg.Resolve([]string{"Go Mono"}, []byte("plain ascii text"))
	if len(got) != 1 {
		t.Fatalf("Resolve() returned %d resolutions", len(got))
	}
	if got[0].Family != "Go Mono" {
		t.Errorf("Family = %q, want Go Mono", got[0].Family)
	}
	if got[0].Requested != "Go Mono" {
		t.Errorf("Requested = %q", got[0].Requested)
	}
	if got[0].Coverage != CoverageFull {
		t.Errorf("Coverage = %q, want full", got[0].Coverage)
	}
}

func TestRegistryResolveCaseInsensitive(t *testing.T) {
	t.Parallel()

	reg := latinRegistry(t)
	got := reg.Resolve([]string{"go mono"}, []byte("x"))
	if got[0].Family != "Go Mono" {
		t.Errorf("Family = %q, want case-insensitive match to Go Mono", got[0].Family)
	}
}

func TestRegistryResolveUnknownFamilyFallsBack(t *testing.T) {
	t.Parallel()

	reg := latinRegistry(t)
	got := reg.Resolve([]string{"Comic Sans MS"}, []byte("hello"))
	if got[0].Family != "Go" {
		t.Errorf("Family = %q, want default fallback Go", got[0].Family)
	}
	// The substitution must stay visible.
	if got[0].Requested != "Comic Sans MS" {
		t.Errorf("Requested = %q, want original family preserved", got[0].Requested)
	}
}

func TestRegistryResolveKoreanWithoutCJKFont(t *testing.T) {
	t.Parallel()

	reg := latinRegistry(t)
	got := reg.Resolve(nil, []byte("안녕하세요 world"))
	if got[0].Coverage == CoverageFull {
		t.Errorf("Coverage = full, but the inventory has no Hangul glyphs")
	}
	if err := checkStrict(got); !errors.Is(err, ErrFontCoverage) {
		t.Errorf("checkStrict() error = %v, want ErrFontCoverage", err)
	}
}

func TestRegistryResolveEmptyFamilies(t *testing.T) {
	t.Parallel()

	reg := latinRegistry(t)
	got := reg.Resolve(nil, []byte("abc"))
	if len(got) != 1 {
		t.Fatalf("Resolve(nil) returned %d resolutions, want 1 default", len(got))
	}
	if got[0].Requested != "" {
		t.Errorf("Requested = %q, want empty for document default", got[0].Requested)
	}
	if got[0].Family != "Go" {
		t.Errorf("Family = %q, want default", got[0].Family)
	}
}

func TestNewRegistryDegradesOnEmptyScan(t *testing.T) {
	t.Parallel()

	reg, err := NewRegistry(RegistryConfig{Dirs: []string{t.TempDir()}})
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}
	families := reg.Families()
	if len(families) == 0 {
		t.Fatalf("empty scan should still expose the embedded fallback face")
	}
	if len(reg.ScanNotes()) == 0 {
		t.Errorf("expected scan notes about the empty inventory")
	}

	got := reg.Resolve(nil, []byte("latin only"))
	if got[0].Coverage != CoverageFull {
		t.Errorf("embedded face should fully cover Latin text, got %q", got[0].Coverage)
	}
}

func TestContainsCJK(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		want bool
	}{
		{"latin", "hello world", false},
		{"hangul", "안녕하세요", true},
		{"hangul jamo", "ㄱㄴㄷ", true},
		{"han", "中文文档", true},
		{"hiragana", "ひらがな", true},
		{"katakana", "カタカナ", true},
		{"mixed", "report 보고서", true},
		{"empty", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := containsCJK([]byte(tt.text)); got != tt.want {
				t.Errorf("containsCJK(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}
