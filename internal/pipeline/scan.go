package pipeline

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// DocumentScan summarizes the pre-flight inspection of an HTML document.
type DocumentScan struct {
	HasScript bool   // document carries <script> elements
	Title     string // <title> text, if any
	Text      string // visible text content, tags stripped
}

// Scan parses the document once and extracts the signals the pipeline needs
// before rendering: script presence drives backend selection, the visible
// text feeds font coverage checks.
//
// HTML error recovery applies: malformed markup is tolerated the way
// browsers tolerate it, never rejected here.
func Scan(html []byte) (*DocumentScan, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, err
	}

	s := &DocumentScan{
		HasScript: doc.Find("script").Length() > 0,
		Title:     strings.TrimSpace(doc.Find("title").First().Text()),
	}

	// Script and style bodies are not visible text; left in, they would
	// leak into the font coverage check.
	doc.Find("script, style").Remove()

	body := doc.Find("body")
	if body.Length() > 0 {
		s.Text = strings.TrimSpace(body.Text())
	} else {
		s.Text = strings.TrimSpace(doc.Text())
	}
	return s, nil
}
