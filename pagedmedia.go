package html2doc

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/renderkit/html2doc/internal/dateutil"
	"github.com/renderkit/html2doc/internal/pipeline"
)

// pagedBackend lays out HTML deterministically in pure Go following CSS
// paged-media semantics: fixed page size, margins, page breaks at <hr>.
// Identical input produces byte-identical output; unsupported constructs
// degrade to diagnostics, never to errors.
type pagedBackend struct{}

func newPagedBackend() *pagedBackend { return &pagedBackend{} }

func (p *pagedBackend) Kind() BackendKind { return BackendPaged }

func (p *pagedBackend) Close() error { return nil }

// Fixed document date keeps output reproducible across runs.
var pagedEpoch = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

// Text sizes in points per block kind.
var headingSizes = map[int]float64{1: 24, 2: 18, 3: 14, 4: 12, 5: 12, 6: 12}

const (
	bodySize     = 11
	preSize      = 9.5
	bodyLineHt   = 0.22 // inches
	listIndent   = 0.25 // inches per nesting level
	embeddedName = "document"
)

// fpdf page size names per PageSettings size.
var fpdfSizes = map[string]string{
	PageSizeLetter: "Letter",
	PageSizeA4:     "A4",
	PageSizeLegal:  "Legal",
}

func (p *pagedBackend) Render(ctx context.Context, htmlContent []byte, opts RenderOptions, fonts []FontResolution) (*RenderOutput, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	blocks, err := pipeline.ExtractBlocks(htmlContent)
	if err != nil {
		return nil, fmt.Errorf("%w: parsing document: %v", ErrRenderFailure, err)
	}

	var warnings []string

	page := opts.Page
	if page == nil {
		page = DefaultPageSettings()
	}
	orientation := "P"
	if strings.ToLower(page.Orientation) == OrientationLandscape {
		orientation = "L"
	}
	sizeName, ok := fpdfSizes[strings.ToLower(page.Size)]
	if !ok {
		sizeName = "A4"
	}
	margin := page.Margin
	if margin == 0 {
		margin = DefaultMargin
	}

	if opts.Scale != 0 && opts.Scale != 1.0 {
		warnings = append(warnings, fmt.Sprintf("paged backend ignores print scale %.2f", opts.Scale))
	}
	if opts.SlideLayout != "" || opts.SlideStyle != "" {
		warnings = append(warnings, "paged backend ignores slide options")
	}

	pdf := fpdf.New(orientation, "in", sizeName, "")
	pdf.SetCreationDate(pagedEpoch)
	pdf.SetModificationDate(pagedEpoch)
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(true, margin)

	fontData, fontWarn, err := fontBytes(fonts)
	if err != nil {
		return nil, fmt.Errorf("%w: loading font: %v", ErrRenderFailure, err)
	}
	if fontWarn != "" {
		warnings = append(warnings, fontWarn)
	}
	pdf.AddUTF8FontFromBytes(embeddedName, "", fontData)

	if opts.Footer != nil {
		setupFooter(pdf, opts.Footer, &warnings)
	}

	pdf.AddPage()
	pdf.SetFont(embeddedName, "", bodySize)

	for _, b := range blocks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		renderBlock(pdf, margin, b, &warnings)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRenderFailure, err)
	}
	return &RenderOutput{Bytes: buf.Bytes(), Warnings: warnings}, nil
}

func renderBlock(pdf *fpdf.Fpdf, margin float64, b pipeline.Block, warnings *[]string) {
	switch b.Kind {
	case pipeline.BlockHeading:
		size := headingSizes[b.Level]
		if size == 0 {
			size = bodySize
		}
		pdf.SetFont(embeddedName, "", size)
		pdf.SetTextColor(0, 0, 0)
		pdf.MultiCell(0, size/72*1.4, b.Text, "", "L", false)
		pdf.Ln(0.08)
		pdf.SetFont(embeddedName, "", bodySize)

	case pipeline.BlockParagraph:
		pdf.SetTextColor(0, 0, 0)
		pdf.MultiCell(0, bodyLineHt, b.Text, "", "L", false)
		pdf.Ln(0.08)

	case pipeline.BlockListItem:
		indent := float64(b.Level) * listIndent
		pdf.SetLeftMargin(margin + indent)
		pdf.SetX(margin + indent)
		pdf.SetTextColor(0, 0, 0)
		pdf.MultiCell(0, bodyLineHt, "• "+b.Text, "", "L", false)
		pdf.SetLeftMargin(margin)

	case pipeline.BlockPre:
		pdf.SetFont(embeddedName, "", preSize)
		pdf.SetFillColor(245, 245, 245)
		pdf.SetTextColor(40, 40, 40)
		pdf.MultiCell(0, bodyLineHt*0.9, b.Text, "", "L", true)
		pdf.Ln(0.08)
		pdf.SetFont(embeddedName, "", bodySize)

	case pipeline.BlockQuote:
		pdf.SetLeftMargin(margin + listIndent)
		pdf.SetX(margin + listIndent)
		pdf.SetTextColor(100, 100, 100)
		pdf.MultiCell(0, bodyLineHt, b.Text, "", "L", false)
		pdf.SetLeftMargin(margin)
		pdf.Ln(0.08)

	case pipeline.BlockImage:
		placeImage(pdf, b, warnings)

	case pipeline.BlockPageBreak:
		pdf.AddPage()
	}
}

// placeImage embeds data-URI images. External references would make output
// depend on network state, so they degrade to a diagnostic.
func placeImage(pdf *fpdf.Fpdf, b pipeline.Block, warnings *[]string) {
	data, kind, ok := decodeDataURI(b.Src)
	if !ok {
		*warnings = append(*warnings, fmt.Sprintf("image skipped (not a data URI): %.60s", b.Src))
		return
	}

	name := fmt.Sprintf("img-%d", pdf.PageNo()*1000+int(pdf.GetY()*100))
	pdf.RegisterImageOptionsReader(name, fpdf.ImageOptions{ImageType: kind}, bytes.NewReader(data))
	info := pdf.GetImageInfo(name)
	if info == nil {
		*warnings = append(*warnings, "image skipped (undecodable)")
		return
	}

	pageW, _ := pdf.GetPageSize()
	left, _, right, _ := pdf.GetMargins()
	maxW := pageW - left - right
	w := info.Width() / 96 // assume 96dpi source
	if w > maxW {
		w = maxW
	}
	pdf.ImageOptions(name, pdf.GetX(), pdf.GetY(), w, 0, true, fpdf.ImageOptions{ImageType: kind}, 0, "")
	pdf.Ln(0.1)
}

// decodeDataURI extracts the payload of a base64 data URI and maps its MIME
// type to an fpdf image type.
func decodeDataURI(src string) (data []byte, kind string, ok bool) {
	if !strings.HasPrefix(src, "data:") {
		return nil, "", false
	}
	comma := strings.Index(src, ",")
	if comma < 0 || !strings.Contains(src[:comma], ";base64") {
		return nil, "", false
	}
	switch {
	case strings.Contains(src[:comma], "image/png"):
		kind = "PNG"
	case strings.Contains(src[:comma], "image/jpeg"), strings.Contains(src[:comma], "image/jpg"):
		kind = "JPEG"
	case strings.Contains(src[:comma], "image/gif"):
		kind = "GIF"
	default:
		return nil, "", false
	}
	decoded, err := base64.StdEncoding.DecodeString(src[comma+1:])
	if err != nil {
		return nil, "", false
	}
	return decoded, kind, true
}

func setupFooter(pdf *fpdf.Fpdf, f *Footer, warnings *[]string) {
	var datePart string
	if f.DateFormat != "" {
		formatted, err := dateutil.FormatNow(f.DateFormat)
		if err != nil {
			*warnings = append(*warnings, fmt.Sprintf("footer date format ignored: %v", err))
		} else {
			datePart = formatted
		}
	}

	pdf.AliasNbPages("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-0.4)
		pdf.SetFont(embeddedName, "", 8)
		pdf.SetTextColor(170, 170, 170)

		var parts []string
		if f.ShowPageNumber {
			parts = append(parts, fmt.Sprintf("%d/{nb}", pdf.PageNo()))
		}
		if datePart != "" {
			parts = append(parts, datePart)
		}
		if f.Text != "" {
			parts = append(parts, f.Text)
		}
		pdf.CellFormat(0, 0.2, strings.Join(parts, " - "), "", 0, "R", false, 0, "")
	})
}

// fontBytes loads the file backing the first usable resolution, falling
// back to the embedded Go Regular face when nothing better resolved.
func fontBytes(fonts []FontResolution) (data []byte, warning string, err error) {
	for _, res := range fonts {
		if res.Path == "" {
			continue
		}
		data, err := os.ReadFile(res.Path) // #nosec G304 -- path comes from the startup font scan
		if err != nil {
			return nil, "", fmt.Errorf("reading font %s: %w", res.Path, err)
		}
		return data, "", nil
	}
	return goregular.TTF, "no resolved font file; embedding fallback face", nil
}
