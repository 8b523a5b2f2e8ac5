package html2doc

import (
	"bytes"
	"context"
	"testing"
)

const pagedSampleHTML = `<!DOCTYPE html>
<html><body>
<h1>Quarterly Report</h1>
<p>Revenue grew in every region.</p>
<ul><li>EMEA up 12%</li><li>APAC up 9%</li></ul>
<pre>total = sum(rows)</pre>
<hr>
<h2>Appendix</h2>
<blockquote>Numbers are unaudited.</blockquote>
</body></html>`

func TestPagedBackendRender(t *testing.T) {
	t.Parallel()

	b := newPagedBackend()
	out, err := b.Render(context.Background(), []byte(pagedSampleHTML), RenderOptions{}, nil)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if !bytes.HasPrefix(out.Bytes, []byte("%PDF-")) {
		t.Errorf("output does not start with PDF header")
	}
	if len(out.Warnings) == 0 {
		t.Errorf("expected fallback-font warning with no resolutions")
	}
}

func TestPagedBackendDeterministic(t *testing.T) {
	t.Parallel()

	b := newPagedBackend()
	opts := RenderOptions{Page: &PageSettings{Size: PageSizeLetter, Orientation: OrientationPortrait, Margin: 1.0}}

	first, err := b.Render(context.Background(), []byte(pagedSampleHTML), opts, nil)
	if err != nil {
		t.Fatalf("first Render() error = %v", err)
	}
	second, err := b.Render(context.Background(), []byte(pagedSampleHTML), opts, nil)
	if err != nil {
		t.Fatalf("second Render() error = %v", err)
	}
	if !bytes.Equal(first.Bytes, second.Bytes) {
		t.Errorf("identical input produced different bytes (%d vs %d)", len(first.Bytes), len(second.Bytes))
	}
}

func TestPagedBackendEmptyBody(t *testing.T) {
	t.Parallel()

	b := newPagedBackend()
	out, err := b.Render(context.Background(), []byte("<html><body></body></html>"), RenderOptions{}, nil)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if !bytes.HasPrefix(out.Bytes, []byte("%PDF-")) {
		t.Errorf("empty document should still yield a valid single-page PDF")
	}
}

func TestPagedBackendExternalImageWarning(t *testing.T) {
	t.Parallel()

	b := newPagedBackend()
	html := `<html><body><p>hi</p><img src="https://example.com/x.png" alt="x"></body></html>`
	out, err := b.Render(context.Background(), []byte(html), RenderOptions{}, nil)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	found := false
	for _, w := range out.Warnings {
		if bytes.Contains([]byte(w), []byte("image skipped")) {
			found = true
		}
	}
	if !found {
		t.Errorf("expected image-skipped warning, got %v", out.Warnings)
	}
}

func TestPagedBackendCanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	b := newPagedBackend()
	if _, err := b.Render(ctx, []byte(pagedSampleHTML), RenderOptions{}, nil); err == nil {
		t.Errorf("expected error from canceled context")
	}
}
