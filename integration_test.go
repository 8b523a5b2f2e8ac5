//go:build integration

package html2doc

// Notes:
// - These tests launch real Chromium instances via go-rod; rod downloads a
//   browser on first run if none is installed.
// - Set HTML2DOC_BROWSER_BIN (or ROD_BROWSER_BIN) to use a pre-installed
//   binary in CI.

import (
	"bytes"
	"context"
	"os"
	"testing"
	"time"
)

const integrationTimeout = 30 * time.Second

var integrationSvc *Service

func TestMain(m *testing.M) {
	svc, err := NewService(
		WithPoolSize(2),
		WithRenderTimeout(integrationTimeout),
	)
	if err != nil {
		panic(err)
	}
	integrationSvc = svc

	code := m.Run()

	svc.Close()
	os.Exit(code)
}

func assertValidPDF(t *testing.T, data []byte) {
	t.Helper()

	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		t.Errorf("data does not have PDF magic bytes, got prefix: %q", data[:min(10, len(data))])
	}
	if len(data) < 100 {
		t.Errorf("PDF data suspiciously small: %d bytes", len(data))
	}
}

func TestBrowserRenderIntegration(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), integrationTimeout)
	defer cancel()

	res, err := integrationSvc.Convert(ctx, Request{
		HTML:    []byte("<html><body><h1>Integration</h1><p>Hello from Chromium.</p></body></html>"),
		Format:  FormatPDF,
		Backend: BackendBrowser,
	})
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}

	assertValidPDF(t, res.Bytes)
	if res.Diagnostics.Backend != BackendBrowser {
		t.Errorf("Backend = %q, want %q", res.Diagnostics.Backend, BackendBrowser)
	}
}

func TestBrowserRenderKoreanIntegration(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), integrationTimeout)
	defer cancel()

	res, err := integrationSvc.Convert(ctx, Request{
		HTML:    []byte("<html><body><h1>전략 제안서</h1><p>한글 렌더링 확인.</p></body></html>"),
		Format:  FormatPDF,
		Backend: BackendBrowser,
	})
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}

	assertValidPDF(t, res.Bytes)
	// Without an installed CJK font the pipeline still renders, it just
	// records a coverage warning.
	t.Logf("warnings: %v", res.Diagnostics.Warnings)
}

func TestBrowserRenderScriptIntegration(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), integrationTimeout)
	defer cancel()

	res, err := integrationSvc.Convert(ctx, Request{
		HTML: []byte(`<html><body><div id="out"></div>` +
			`<script>document.getElementById("out").textContent = "scripted";</script>` +
			`</body></html>`),
		Format: FormatPDF,
	})
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}

	assertValidPDF(t, res.Bytes)
	if res.Diagnostics.Backend != BackendBrowser {
		t.Errorf("script content should route to browser, got %q", res.Diagnostics.Backend)
	}
}

func TestBrowserRenderTimeoutIntegration(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), integrationTimeout)
	defer cancel()

	_, err := integrationSvc.Convert(ctx, Request{
		HTML: []byte(`<html><body><script>` +
			`const until = Date.now() + 60000; while (Date.now() < until) {}` +
			`</script></body></html>`),
		Format:  FormatPDF,
		Timeout: 2 * time.Second,
	})
	if err == nil {
		t.Fatal("expected timeout error for busy-looped page")
	}

	// The pool must hand out a fresh browser afterwards.
	res, err := integrationSvc.Convert(ctx, Request{
		HTML:    []byte("<html><body><p>after timeout</p></body></html>"),
		Format:  FormatPDF,
		Backend: BackendBrowser,
	})
	if err != nil {
		t.Fatalf("Convert() after timeout error = %v", err)
	}
	assertValidPDF(t, res.Bytes)
}
