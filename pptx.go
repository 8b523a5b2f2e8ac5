package html2doc

import (
	"context"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/renderkit/html2doc/internal/pipeline"
)

// genericBackend produces PPTX decks. Headings open new slides, body text
// becomes native selectable text boxes, and code blocks plus data-URI
// images are embedded as pictures.
type genericBackend struct{}

func newGenericBackend() *genericBackend { return &genericBackend{} }

func (g *genericBackend) Kind() BackendKind { return BackendGeneric }

func (g *genericBackend) Close() error { return nil }

// slidePalette is a deck-wide color and type scale.
type slidePalette struct {
	bg        string
	title     string
	accent    string
	text      string
	titleFace string
	titleSize float64
	bodySize  float64
}

var slidePalettes = map[string]slidePalette{
	SlideStyleMcKinsey: {bg: "FFFFFF", title: "00305E", accent: "006AA7", text: "1A1A1A", titleFace: "Calibri", titleSize: 28, bodySize: 14},
	SlideStyleAmazon:   {bg: "FFFFFF", title: "FF9900", accent: "146EB4", text: "0F1F2E", titleFace: "Arial", titleSize: 26, bodySize: 13},
	SlideStyleIB:       {bg: "0A1428", title: "FFFFFF", accent: "C9A03C", text: "E8E8E8", titleFace: "Times New Roman", titleSize: 28, bodySize: 13},
	SlideStylePlain:    {bg: "FFFFFF", title: "1F2937", accent: "2563EB", text: "111827", titleFace: "Calibri", titleSize: 28, bodySize: 13},
}

func paletteFor(style string) slidePalette {
	if p, ok := slidePalettes[strings.ToLower(style)]; ok {
		return p
	}
	return slidePalettes[SlideStylePlain]
}

func slideDimsEMU(layout string) (cx, cy int64) {
	switch strings.ToLower(layout) {
	case SlideLayoutA4:
		return mmEMU(210), mmEMU(297)
	case SlideLayoutSquare:
		return inchEMU(7.5), inchEMU(7.5)
	default:
		return inchEMU(13.333), inchEMU(7.5)
	}
}

func (g *genericBackend) Render(ctx context.Context, htmlContent []byte, opts RenderOptions, fonts []FontResolution) (*RenderOutput, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	slides, err := pipeline.SplitSlides(htmlContent)
	if err != nil {
		return nil, fmt.Errorf("%w: splitting slides: %v", ErrRenderFailure, err)
	}
	if len(slides) == 0 {
		slides = []pipeline.Slide{{}}
	}

	b := &deckBuilder{
		pal: paletteFor(opts.SlideStyle),
	}
	b.cx, b.cy = slideDimsEMU(opts.SlideLayout)
	b.latin, b.ea = deckTypefaces(fonts, b.pal)

	rasterSrc, fontWarn, err := fontBytes(fonts)
	if err != nil {
		return nil, fmt.Errorf("%w: loading font: %v", ErrRenderFailure, err)
	}
	if fontWarn != "" {
		b.warnings = append(b.warnings, fontWarn)
	}
	b.rasterSrc = rasterSrc

	if opts.Page != nil {
		b.warnings = append(b.warnings, "slide output ignores page settings")
	}
	if opts.Footer != nil {
		b.warnings = append(b.warnings, "slide output ignores footer settings")
	}

	var slideParts []deckPart
	for i, sl := range slides {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		cover := i == 0 && sl.Title != "" && len(sl.Blocks) <= 2
		shapes := b.buildSlide(sl, i+1, cover)
		slideParts = append(slideParts,
			deckPart{name: fmt.Sprintf("ppt/slides/slide%d.xml", i+1), data: shapes.slideXML()},
			deckPart{name: fmt.Sprintf("ppt/slides/_rels/slide%d.xml.rels", i+1), data: shapes.relsXML()},
		)
	}

	parts := []deckPart{
		{name: "[Content_Types].xml", data: contentTypesXML(len(slides), b.hasPNG, b.hasJPEG, b.hasGIF)},
		{name: "_rels/.rels", data: rootRelsXML()},
		{name: "docProps/core.xml", data: corePropsXML(slides[0].Title)},
		{name: "docProps/app.xml", data: appPropsXML(len(slides))},
		{name: "ppt/presentation.xml", data: presentationXML(b.cx, b.cy, len(slides))},
		{name: "ppt/_rels/presentation.xml.rels", data: presentationRelsXML(len(slides))},
		{name: "ppt/slideMasters/slideMaster1.xml", data: slideMasterXML()},
		{name: "ppt/slideMasters/_rels/slideMaster1.xml.rels", data: slideMasterRelsXML()},
		{name: "ppt/slideLayouts/slideLayout1.xml", data: slideLayoutXML()},
		{name: "ppt/slideLayouts/_rels/slideLayout1.xml.rels", data: slideLayoutRelsXML()},
		{name: "ppt/theme/theme1.xml", data: themeXML()},
	}
	parts = append(parts, slideParts...)
	parts = append(parts, b.media...)

	out, err := writeDeck(parts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRenderFailure, err)
	}
	return &RenderOutput{Bytes: out, Warnings: b.warnings}, nil
}

// deckTypefaces picks the typeface names written into each text run. The
// resolved family doubles as the east-asian face so CJK runs bind to a
// covering font instead of the viewer default.
func deckTypefaces(fonts []FontResolution, pal slidePalette) (latin, ea string) {
	latin = pal.titleFace
	ea = ""
	for _, res := range fonts {
		if res.Family != "" {
			ea = res.Family
			break
		}
	}
	if ea == "" {
		ea = latin
	}
	return latin, ea
}

type deckBuilder struct {
	pal       slidePalette
	cx, cy    int64
	latin, ea string
	rasterSrc []byte

	media                   []deckPart
	hasPNG, hasJPEG, hasGIF bool
	warnings                []string
}

func (b *deckBuilder) buildSlide(sl pipeline.Slide, n int, cover bool) *slideShapes {
	s := newSlideShapes()
	marginX := inchEMU(0.6)
	contentW := b.cx - 2*marginX

	s.addRect(0, 0, b.cx, b.cy, b.pal.bg)

	var cursor int64
	if cover {
		s.addRect(inchEMU(0.5), inchEMU(0.4), b.cx-inchEMU(1.0), ptEMU(3), b.pal.accent)
		if sl.Title != "" {
			s.addTextBox(marginX, inchEMU(1.2), contentW, inchEMU(2.0), b.pal.titleFace, b.ea,
				[]textPara{{text: sl.Title, sizePt: b.pal.titleSize + 8, bold: true, rgb: b.pal.title}})
		}
		cursor = inchEMU(3.4)
	} else {
		if sl.Title != "" {
			s.addTextBox(marginX, inchEMU(0.35), contentW, inchEMU(0.9), b.pal.titleFace, b.ea,
				[]textPara{{text: sl.Title, sizePt: b.pal.titleSize, bold: true, rgb: b.pal.title}})
			s.addRect(inchEMU(0.5), inchEMU(1.2), b.cx-inchEMU(1.0), ptEMU(3), b.pal.accent)
			cursor = inchEMU(1.4)
		} else {
			cursor = inchEMU(0.5)
		}
	}

	contentWIn := float64(contentW) / emuPerInch
	var pending []textPara
	var pendingH int64

	flush := func() {
		if len(pending) == 0 {
			return
		}
		s.addTextBox(marginX, cursor, contentW, pendingH, b.latin, b.ea, pending)
		cursor += pendingH
		pending = nil
		pendingH = 0
	}

	overflowed := false
	advance := func(h int64) {
		if cursor+pendingH+h > b.cy-inchEMU(0.3) && !overflowed {
			overflowed = true
			b.warnings = append(b.warnings, fmt.Sprintf("slide %d content overflows the slide area", n))
		}
	}

	for _, blk := range sl.Blocks {
		switch blk.Kind {
		case pipeline.BlockHeading:
			p := textPara{text: blk.Text, sizePt: b.pal.bodySize + 3, bold: true, rgb: b.pal.title}
			h := estParaEMU(blk.Text, p.sizePt, contentWIn)
			advance(h)
			pending = append(pending, p)
			pendingH += h

		case pipeline.BlockParagraph:
			p := textPara{text: blk.Text, sizePt: b.pal.bodySize, rgb: b.pal.text}
			h := estParaEMU(blk.Text, p.sizePt, contentWIn)
			advance(h)
			pending = append(pending, p)
			pendingH += h

		case pipeline.BlockListItem:
			indent := strings.Repeat("    ", blk.Level)
			p := textPara{text: indent + "▸  " + blk.Text, sizePt: b.pal.bodySize, rgb: b.pal.text}
			h := estParaEMU(blk.Text, p.sizePt, contentWIn)
			advance(h)
			pending = append(pending, p)
			pendingH += h

		case pipeline.BlockQuote:
			p := textPara{text: blk.Text, sizePt: b.pal.bodySize, rgb: b.pal.accent}
			h := estParaEMU(blk.Text, p.sizePt, contentWIn)
			advance(h)
			pending = append(pending, p)
			pendingH += h

		case pipeline.BlockPre:
			flush()
			b.addCode(s, blk.Text, marginX, &cursor, contentWIn)

		case pipeline.BlockImage:
			flush()
			b.addImage(s, blk, marginX, &cursor, contentWIn)
		}
	}
	flush()

	return s
}

// addCode rasterizes a code block and places it at the cursor.
func (b *deckBuilder) addCode(s *slideShapes, code string, x int64, cursor *int64, contentWIn float64) {
	widthPx := int(contentWIn * rasterDPI)
	data, wPx, hPx, err := rasterizeCode(code, b.rasterSrc, widthPx)
	if err != nil {
		b.warnings = append(b.warnings, fmt.Sprintf("code block skipped: %v", err))
		return
	}
	target := b.addMedia(data, "png")
	wIn := float64(wPx) / rasterDPI
	hIn := float64(hPx) / rasterDPI
	s.addPicture(x, *cursor, inchEMU(wIn), inchEMU(hIn), target)
	*cursor += inchEMU(hIn) + inchEMU(0.1)
}

// addImage embeds a data-URI image; external references degrade to a
// diagnostic, mirroring the paged backend.
func (b *deckBuilder) addImage(s *slideShapes, blk pipeline.Block, x int64, cursor *int64, contentWIn float64) {
	data, kind, ok := decodeDataURI(blk.Src)
	if !ok {
		b.warnings = append(b.warnings, fmt.Sprintf("image skipped (not a data URI): %.60s", blk.Src))
		return
	}
	wPx, hPx, err := imageDims(data)
	if err != nil {
		b.warnings = append(b.warnings, fmt.Sprintf("image skipped (undecodable): %v", err))
		return
	}

	var ext string
	switch kind {
	case "PNG":
		ext = "png"
	case "JPEG":
		ext = "jpeg"
	case "GIF":
		ext = "gif"
	}
	target := b.addMedia(data, ext)

	wIn := float64(wPx) / 96
	if wIn > contentWIn {
		wIn = contentWIn
	}
	hIn := wIn * float64(hPx) / float64(wPx)
	s.addPicture(x, *cursor, inchEMU(wIn), inchEMU(hIn), target)
	*cursor += inchEMU(hIn) + inchEMU(0.1)
}

func (b *deckBuilder) addMedia(data []byte, ext string) (target string) {
	switch ext {
	case "png":
		b.hasPNG = true
	case "jpeg":
		b.hasJPEG = true
	case "gif":
		b.hasGIF = true
	}
	name := fmt.Sprintf("image%d.%s", len(b.media)+1, ext)
	b.media = append(b.media, deckPart{name: "ppt/media/" + name, data: data})
	return "../media/" + name
}

func ptEMU(pt float64) int64 { return int64(pt * 12700) }

// estParaEMU is a coarse height estimate for a wrapped paragraph. Exact
// metrics are the viewer's job; this only has to keep shapes from piling
// onto each other.
func estParaEMU(text string, sizePt, widthIn float64) int64 {
	charW := sizePt * 0.62 / 72 // inches
	perLine := math.Max(1, widthIn/charW)
	lines := math.Ceil(float64(utf8.RuneCountInString(text)) / perLine)
	if lines < 1 {
		lines = 1
	}
	return ptEMU(sizePt * 1.45 * lines)
}
