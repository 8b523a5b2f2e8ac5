package html2doc

import (
	"errors"
	"testing"
)

func TestSelectBackend(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		req         Request
		hasScript   bool
		defaultKind BackendKind
		want        BackendKind
		wantErr     error
	}{
		{
			name: "explicit browser wins",
			req:  Request{Format: FormatPDF, Backend: BackendBrowser},
			want: BackendBrowser,
		},
		{
			name:      "explicit paged wins over script content",
			req:       Request{Format: FormatPDF, Backend: BackendPaged},
			hasScript: true,
			want:      BackendPaged,
		},
		{
			name:    "explicit paged cannot produce pptx",
			req:     Request{Format: FormatPPTX, Backend: BackendPaged},
			wantErr: ErrInvalidInput,
		},
		{
			name:    "explicit generic cannot produce pdf",
			req:     Request{Format: FormatPDF, Backend: BackendGeneric},
			wantErr: ErrInvalidInput,
		},
		{
			name: "pptx implies generic",
			req:  Request{Format: FormatPPTX},
			want: BackendGeneric,
		},
		{
			name:      "script content implies browser",
			req:       Request{Format: FormatPDF},
			hasScript: true,
			want:      BackendBrowser,
		},
		{
			name: "requires-js flag implies browser",
			req:  Request{Format: FormatPDF, RequiresJS: true},
			want: BackendBrowser,
		},
		{
			name: "default fallback is paged",
			req:  Request{Format: FormatPDF},
			want: BackendPaged,
		},
		{
			name:        "configured default honored",
			req:         Request{Format: FormatPDF},
			defaultKind: BackendBrowser,
			want:        BackendBrowser,
		},
		{
			name:        "auto request uses policy",
			req:         Request{Format: FormatPDF, Backend: BackendAuto},
			defaultKind: BackendPaged,
			want:        BackendPaged,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := selectBackend(&tt.req, tt.hasScript, tt.defaultKind)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("selectBackend() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("selectBackend() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("selectBackend() = %q, want %q", got, tt.want)
			}
		})
	}
}
