package html2doc

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	_ "image/gif"
	_ "image/jpeg"
)

// rasterDPI is the resolution code blocks are rendered at before being
// embedded as pictures.
const rasterDPI = 144

// rasterizeCode renders a code block to PNG. Pure-ASCII code uses the
// embedded Go Mono face; anything else uses fontData so CJK comments and
// string literals stay readable.
func rasterizeCode(text string, fontData []byte, widthPx int) (data []byte, w, h int, err error) {
	src := fontData
	if isASCII(text) || len(src) == 0 {
		src = gomono.TTF
	}
	parsed, err := opentype.Parse(src)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("parsing raster font: %w", err)
	}
	face, err := opentype.NewFace(parsed, &opentype.FaceOptions{
		Size:    12,
		DPI:     rasterDPI,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, 0, 0, fmt.Errorf("building raster face: %w", err)
	}
	defer face.Close()

	const pad = 16
	metrics := face.Metrics()
	lineH := metrics.Height.Ceil()
	ascent := metrics.Ascent.Ceil()

	lines := wrapLines(strings.Split(strings.TrimRight(text, "\n"), "\n"), face, widthPx-2*pad)
	if len(lines) == 0 {
		lines = []string{""}
	}
	height := 2*pad + lineH*len(lines)

	img := image.NewRGBA(image.Rect(0, 0, widthPx, height))
	bg := color.RGBA{R: 245, G: 245, B: 245, A: 255}
	fg := color.RGBA{R: 40, G: 40, B: 40, A: 255}
	fill(img, bg)

	d := font.Drawer{Dst: img, Src: image.NewUniform(fg), Face: face}
	y := pad + ascent
	for _, line := range lines {
		d.Dot = fixed.P(pad, y)
		d.DrawString(line)
		y += lineH
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, 0, 0, fmt.Errorf("encoding raster: %w", err)
	}
	return buf.Bytes(), widthPx, height, nil
}

func fill(img *image.RGBA, c color.RGBA) {
	for y := img.Rect.Min.Y; y < img.Rect.Max.Y; y++ {
		for x := img.Rect.Min.X; x < img.Rect.Max.X; x++ {
			img.SetRGBA(x, y, c)
		}
	}
}

// wrapLines hard-wraps lines that exceed maxWidth pixels, cutting on rune
// boundaries.
func wrapLines(lines []string, face font.Face, maxWidth int) []string {
	d := font.Drawer{Face: face}
	limit := fixed.I(maxWidth)
	var out []string
	for _, line := range lines {
		runes := []rune(line)
		for d.MeasureString(string(runes)) > limit && len(runes) > 1 {
			cut := len(runes)
			for cut > 1 && d.MeasureString(string(runes[:cut])) > limit {
				cut--
			}
			out = append(out, string(runes[:cut]))
			runes = runes[cut:]
		}
		out = append(out, string(runes))
	}
	return out
}

func isASCII(s string) bool {
	for _, r := range s {
		if r > 127 {
			return false
		}
	}
	return true
}

// imageDims reads just enough of an embedded image to learn its pixel size.
func imageDims(data []byte) (w, h int, err error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, err
	}
	return cfg.Width, cfg.Height, nil
}
