package html2doc

import (
	"strings"
	"testing"
)

func TestBuildPrintOptionsDefaults(t *testing.T) {
	t.Parallel()

	opts := buildPrintOptions(RenderOptions{})

	if opts.PaperWidth == nil || *opts.PaperWidth != 8.27 {
		t.Errorf("PaperWidth = %v, want 8.27 (a4)", opts.PaperWidth)
	}
	if opts.PaperHeight == nil || *opts.PaperHeight != 11.69 {
		t.Errorf("PaperHeight = %v, want 11.69 (a4)", opts.PaperHeight)
	}
	if opts.MarginTop == nil || *opts.MarginTop != DefaultMargin {
		t.Errorf("MarginTop = %v, want %v", opts.MarginTop, DefaultMargin)
	}
	if !opts.PrintBackground {
		t.Error("PrintBackground should default to true")
	}
	if opts.DisplayHeaderFooter {
		t.Error("DisplayHeaderFooter should be off without a footer")
	}
	if opts.Scale != nil {
		t.Error("Scale should be unset by default")
	}
}

func TestBuildPrintOptionsLandscape(t *testing.T) {
	t.Parallel()

	opts := buildPrintOptions(RenderOptions{
		Page: &PageSettings{Size: PageSizeLetter, Orientation: OrientationLandscape, Margin: 0.5},
	})

	if *opts.PaperWidth != 11 || *opts.PaperHeight != 8.5 {
		t.Errorf("landscape letter = %vx%v, want 11x8.5", *opts.PaperWidth, *opts.PaperHeight)
	}
	if *opts.MarginLeft != 0.5 {
		t.Errorf("MarginLeft = %v, want 0.5", *opts.MarginLeft)
	}
}

func TestBuildPrintOptionsFooterReservesMargin(t *testing.T) {
	t.Parallel()

	opts := buildPrintOptions(RenderOptions{
		Footer: &Footer{ShowPageNumber: true},
	})

	if !opts.DisplayHeaderFooter {
		t.Error("footer should enable DisplayHeaderFooter")
	}
	if *opts.MarginBottom != marginBottomWithFooter {
		t.Errorf("MarginBottom = %v, want %v", *opts.MarginBottom, marginBottomWithFooter)
	}
	if !strings.Contains(opts.FooterTemplate, "pageNumber") {
		t.Error("footer template missing page number span")
	}
}

func TestBuildFooterTemplate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		footer  *Footer
		want    []string
		wantNot []string
	}{
		{
			name:   "nil footer",
			footer: nil,
			want:   []string{"<span></span>"},
		},
		{
			name:   "page number only",
			footer: &Footer{ShowPageNumber: true},
			want:   []string{"pageNumber", "totalPages"},
		},
		{
			name:   "text escaped",
			footer: &Footer{Text: "<b>draft</b>"},
			want:   []string{"&lt;b&gt;draft&lt;/b&gt;"},
			wantNot: []string{
				"<b>draft</b>",
			},
		},
		{
			name:   "page number and text joined",
			footer: &Footer{ShowPageNumber: true, Text: "confidential"},
			want:   []string{"pageNumber", " - confidential"},
		},
		{
			name:   "empty footer collapses",
			footer: &Footer{},
			want:   []string{"<span></span>"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := buildFooterTemplate(tt.footer)
			for _, want := range tt.want {
				if !strings.Contains(got, want) {
					t.Errorf("template %q missing %q", got, want)
				}
			}
			for _, notWant := range tt.wantNot {
				if strings.Contains(got, notWant) {
					t.Errorf("template %q should not contain %q", got, notWant)
				}
			}
		})
	}
}

func TestBrowserBackendCloseWithoutLaunch(t *testing.T) {
	t.Parallel()

	b := newBrowserBackend("", defaultRenderTimeout)
	if err := b.Close(); err != nil {
		t.Errorf("Close() on unlaunched backend = %v, want nil", err)
	}
}
