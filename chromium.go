package html2doc

import (
	"context"
	"fmt"
	"html"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/renderkit/html2doc/internal/dateutil"
	"github.com/renderkit/html2doc/internal/fileutil"
	"github.com/renderkit/html2doc/internal/hints"
	"github.com/renderkit/html2doc/internal/process"
)

// Paper dimensions in inches per page size.
var paperSizes = map[string][2]float64{
	PageSizeLetter: {8.5, 11},
	PageSizeA4:     {8.27, 11.69},
	PageSizeLegal:  {8.5, 14},
}

// marginBottomWithFooter leaves room for Chrome's native footer strip.
const marginBottomWithFooter = 0.75

// browserBackend drives one headless Chromium instance via go-rod. Each
// instance is leased exclusively per render by the resource manager; N
// instances form the browser pool.
type browserBackend struct {
	bin     string
	timeout time.Duration

	mu      sync.Mutex
	browser *rod.Browser
	pid     int
}

func newBrowserBackend(bin string, timeout time.Duration) *browserBackend {
	return &browserBackend{bin: bin, timeout: timeout}
}

func (b *browserBackend) Kind() BackendKind { return BackendBrowser }

// ensureBrowser lazily launches and connects to Chromium.
func (b *browserBackend) ensureBrowser() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.browser != nil {
		return nil
	}

	l := launcher.New()
	if b.bin != "" {
		l = l.Bin(b.bin)
	} else if bin := os.Getenv("ROD_BROWSER_BIN"); bin != "" {
		l = l.Bin(bin)
	}

	// NoSandbox required for CI and containerized environments
	if os.Getenv("CI") == "true" || b.bin != "" || os.Getenv("ROD_BROWSER_BIN") != "" {
		l = l.NoSandbox(true)
	}

	u, err := l.Launch()
	if err != nil {
		return fmt.Errorf("%w: %v%s", ErrBrowserConnect, err, hints.ForBrowserConnect())
	}
	b.pid = l.PID()

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		process.KillProcessGroup(b.pid)
		b.pid = 0
		return fmt.Errorf("%w: %v%s", ErrBrowserConnect, err, hints.ForBrowserConnect())
	}
	b.browser = browser
	return nil
}

// Render loads the HTML in a fresh page and prints it to PDF. On context
// expiry the page is closed and, if Chromium stops responding, the whole
// process group is killed so no browser process outlives the lease.
func (b *browserBackend) Render(ctx context.Context, htmlContent []byte, opts RenderOptions, fonts []FontResolution) (*RenderOutput, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := b.ensureBrowser(); err != nil {
		return nil, err
	}

	tmpPath, cleanup, err := fileutil.WriteTempFile(string(htmlContent), "html")
	if err != nil {
		return nil, err
	}
	defer cleanup()

	page, err := b.browser.Page(proto.TargetCreateTarget{URL: "file://" + tmpPath})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageCreate, err)
	}
	defer page.Close()

	page = page.Context(ctx)

	// Record embedded-asset load failures as diagnostics; they never fail
	// the render.
	var warnMu sync.Mutex
	var warnings []string
	waitEvents := page.EachEvent(func(e *proto.NetworkLoadingFailed) {
		warnMu.Lock()
		warnings = append(warnings, fmt.Sprintf("resource load failed: %s", e.ErrorText))
		warnMu.Unlock()
	})
	go waitEvents()

	timeout := b.timeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
		if timeout <= 0 {
			return nil, context.DeadlineExceeded
		}
	}

	if err := page.Timeout(timeout).WaitLoad(); err != nil {
		if ctx.Err() != nil {
			// In-flight render timed out: reclaim the browser forcibly so
			// the lease comes back clean.
			b.forceKill()
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", ErrPageLoad, err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	reader, err := page.PDF(buildPrintOptions(opts))
	if err != nil {
		if ctx.Err() != nil {
			b.forceKill()
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", ErrPDFGeneration, err)
	}

	pdfBuf, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: reading PDF stream: %v", ErrPDFGeneration, err)
	}

	warnMu.Lock()
	defer warnMu.Unlock()
	return &RenderOutput{Bytes: pdfBuf, Warnings: warnings}, nil
}

// buildPrintOptions constructs proto.PagePrintToPDF from the validated
// render options.
func buildPrintOptions(opts RenderOptions) *proto.PagePrintToPDF {
	page := opts.Page
	if page == nil {
		page = DefaultPageSettings()
	}

	dims, ok := paperSizes[strings.ToLower(page.Size)]
	if !ok {
		dims = paperSizes[PageSizeA4]
	}
	width, height := dims[0], dims[1]
	if strings.ToLower(page.Orientation) == OrientationLandscape {
		width, height = height, width
	}

	margin := page.Margin
	if margin == 0 {
		margin = DefaultMargin
	}
	marginBottom := margin

	printOpts := &proto.PagePrintToPDF{
		PaperWidth:      floatPtr(width),
		PaperHeight:     floatPtr(height),
		MarginTop:       floatPtr(margin),
		MarginBottom:    floatPtr(marginBottom),
		MarginLeft:      floatPtr(margin),
		MarginRight:     floatPtr(margin),
		PrintBackground: true,
	}

	if opts.Scale != 0 {
		printOpts.Scale = floatPtr(opts.Scale)
	}

	if opts.Footer != nil {
		printOpts.MarginBottom = floatPtr(marginBottomWithFooter)
		printOpts.DisplayHeaderFooter = true
		printOpts.HeaderTemplate = "<span></span>" // Empty header
		printOpts.FooterTemplate = buildFooterTemplate(opts.Footer)
	}

	return printOpts
}

// buildFooterTemplate generates the HTML template for Chrome's native
// footer. Supports page numbers and a formatted date via CSS classes.
func buildFooterTemplate(f *Footer) string {
	if f == nil {
		return "<span></span>"
	}

	var parts []string
	if f.ShowPageNumber {
		parts = append(parts, `<span class="pageNumber"></span>/<span class="totalPages"></span>`)
	}
	if f.DateFormat != "" {
		if formatted, err := dateutil.FormatNow(f.DateFormat); err == nil {
			parts = append(parts, html.EscapeString(formatted))
		}
	}
	if f.Text != "" {
		parts = append(parts, html.EscapeString(f.Text))
	}
	if len(parts) == 0 {
		return "<span></span>"
	}

	content := strings.Join(parts, " - ")
	return fmt.Sprintf(`<div style="font-size: 10px; color: #aaa; width: 100%%; text-align: right; padding: 0 0.5in;">%s</div>`, content)
}

// forceKill tears down the browser process group. The next render relaunches.
func (b *browserBackend) forceKill() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.pid != 0 {
		process.KillProcessGroup(b.pid)
	}
	b.browser = nil
	b.pid = 0
}

// Close releases browser resources.
func (b *browserBackend) Close() error {
	b.mu.Lock()
	browser := b.browser
	pid := b.pid
	b.browser = nil
	b.pid = 0
	b.mu.Unlock()

	if browser == nil {
		return nil
	}
	err := browser.Close()
	if pid != 0 {
		// Best-effort sweep for orphaned child processes.
		process.KillProcessGroup(pid)
	}
	return err
}

// floatPtr returns a pointer to a float64 value.
func floatPtr(v float64) *float64 {
	return &v
}
