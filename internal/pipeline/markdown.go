package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
)

// ErrMarkdownConvert indicates the Markdown input could not be converted.
var ErrMarkdownConvert = errors.New("markdown conversion failed")

// htmlShell wraps the fragment output in a complete HTML5 document.
const htmlShell = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Document</title>
</head>
<body>
%s
</body>
</html>`

// MarkdownConverter converts Markdown convenience input to a standalone
// HTML document before it enters the conversion pipeline.
type MarkdownConverter struct {
	md goldmark.Markdown
}

// NewMarkdownConverter creates a converter with GFM extensions and syntax
// highlighting.
func NewMarkdownConverter() *MarkdownConverter {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Footnote,
			highlighting.NewHighlighting(
				highlighting.WithStyle("github"),
				highlighting.WithFormatOptions(chromahtml.WithClasses(false)),
			),
		),
		goldmark.WithRendererOptions(
			html.WithHardWraps(),
			html.WithXHTML(),
		),
	)
	return &MarkdownConverter{md: md}
}

// ToHTML converts Markdown to a standalone HTML5 document. Goldmark has no
// native context support, so conversion runs in a goroutine raced against
// ctx.
func (c *MarkdownConverter) ToHTML(ctx context.Context, content []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	type result struct {
		html []byte
		err  error
	}
	done := make(chan result, 1)

	go func() {
		var buf bytes.Buffer
		if err := c.md.Convert(content, &buf); err != nil {
			done <- result{err: fmt.Errorf("%w: %v", ErrMarkdownConvert, err)}
			return
		}
		done <- result{html: fmt.Appendf(nil, htmlShell, buf.String())}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-done:
		return r.html, r.err
	}
}
