package pipeline

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// BlockKind classifies an extracted content block.
type BlockKind int

// Block kinds, in rendering-relevant granularity.
const (
	BlockHeading BlockKind = iota
	BlockParagraph
	BlockListItem
	BlockPre
	BlockQuote
	BlockImage
	BlockPageBreak
)

// Block is one layout unit extracted from the document flow. The
// deterministic backends consume blocks instead of the raw DOM.
type Block struct {
	Kind  BlockKind
	Level int    // heading level 1-6; list nesting depth for list items
	Text  string // collapsed text content
	Src   string // image source for BlockImage (data URI or path)
	Alt   string // image alt text
}

// ExtractBlocks flattens the document body into an ordered block sequence.
// Unknown elements contribute their text as paragraphs so no content is
// silently dropped; structural elements the layout cannot honor are the
// caller's concern to report.
func ExtractBlocks(html []byte) ([]Block, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, err
	}

	var blocks []Block
	root := doc.Find("body")
	if root.Length() == 0 {
		root = doc.Selection
	}
	root.Children().Each(func(_ int, sel *goquery.Selection) {
		blocks = appendBlocks(blocks, sel, 0)
	})
	return blocks, nil
}

func appendBlocks(blocks []Block, sel *goquery.Selection, depth int) []Block {
	switch name := goquery.NodeName(sel); name {
	case "h1", "h2", "h3", "h4", "h5", "h6":
		if text := collapse(sel.Text()); text != "" {
			blocks = append(blocks, Block{Kind: BlockHeading, Level: int(name[1] - '0'), Text: text})
		}
	case "p":
		blocks = appendParagraph(blocks, sel)
	case "ul", "ol":
		sel.ChildrenFiltered("li").Each(func(_ int, li *goquery.Selection) {
			if text := ownText(li); text != "" {
				blocks = append(blocks, Block{Kind: BlockListItem, Level: depth, Text: text})
			}
			li.ChildrenFiltered("ul, ol").Each(func(_ int, nested *goquery.Selection) {
				blocks = appendBlocks(blocks, nested, depth+1)
			})
		})
	case "pre":
		if text := strings.Trim(sel.Text(), "\n"); text != "" {
			blocks = append(blocks, Block{Kind: BlockPre, Text: text})
		}
	case "blockquote":
		if text := collapse(sel.Text()); text != "" {
			blocks = append(blocks, Block{Kind: BlockQuote, Text: text})
		}
	case "img":
		src, _ := sel.Attr("src")
		alt, _ := sel.Attr("alt")
		blocks = append(blocks, Block{Kind: BlockImage, Src: src, Alt: alt})
	case "hr":
		blocks = append(blocks, Block{Kind: BlockPageBreak})
	case "table":
		// Tables degrade to one paragraph per row; cell text joined.
		sel.Find("tr").Each(func(_ int, tr *goquery.Selection) {
			var cells []string
			tr.Find("th, td").Each(func(_ int, td *goquery.Selection) {
				cells = append(cells, collapse(td.Text()))
			})
			if row := strings.Join(cells, "  "); strings.TrimSpace(row) != "" {
				blocks = append(blocks, Block{Kind: BlockParagraph, Text: row})
			}
		})
	case "div", "section", "article", "main", "header", "footer", "aside":
		children := sel.Children()
		if children.Length() == 0 {
			blocks = appendParagraph(blocks, sel)
			return blocks
		}
		children.Each(func(_ int, child *goquery.Selection) {
			blocks = appendBlocks(blocks, child, depth)
		})
	case "script", "style", "head", "#comment":
		// skip
	default:
		blocks = appendParagraph(blocks, sel)
	}
	return blocks
}

func appendParagraph(blocks []Block, sel *goquery.Selection) []Block {
	// Inline images inside the paragraph surface as separate blocks so the
	// backends can embed them.
	sel.Find("img").Each(func(_ int, img *goquery.Selection) {
		src, _ := img.Attr("src")
		alt, _ := img.Attr("alt")
		blocks = append(blocks, Block{Kind: BlockImage, Src: src, Alt: alt})
	})
	if text := collapse(sel.Text()); text != "" {
		blocks = append(blocks, Block{Kind: BlockParagraph, Text: text})
	}
	return blocks
}

// ownText collects a list item's text with nested list content removed;
// nested items surface as their own blocks, never duplicated into the
// parent.
func ownText(li *goquery.Selection) string {
	var b strings.Builder
	li.Contents().Each(func(_ int, n *goquery.Selection) {
		switch goquery.NodeName(n) {
		case "ul", "ol":
		default:
			b.WriteString(n.Text())
			b.WriteByte(' ')
		}
	})
	return collapse(b.String())
}

// collapse trims and normalizes internal whitespace runs to single spaces.
func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Slide is one PPTX slide's worth of content.
type Slide struct {
	Title  string
	Blocks []Block
}

// SplitSlides groups the document into slides. Explicit <section> or
// .slide containers win; otherwise every h1/h2 starts a new slide. A
// leading block run before the first boundary becomes the opening slide.
func SplitSlides(html []byte) ([]Slide, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, err
	}

	containers := doc.Find("body > section, body > div.slide, section.slide")
	if containers.Length() > 0 {
		slides := make([]Slide, 0, containers.Length())
		containers.Each(func(_ int, sel *goquery.Selection) {
			slides = append(slides, slideFromSelection(sel))
		})
		return slides, nil
	}

	blocks, err := ExtractBlocks(html)
	if err != nil {
		return nil, err
	}
	return slidesFromBlocks(blocks), nil
}

func slideFromSelection(sel *goquery.Selection) Slide {
	var s Slide
	var blocks []Block
	sel.Children().Each(func(_ int, child *goquery.Selection) {
		blocks = appendBlocks(blocks, child, 0)
	})
	if len(blocks) == 0 {
		blocks = appendBlocks(blocks, sel, 0)
	}
	for i, b := range blocks {
		if b.Kind == BlockHeading {
			s.Title = b.Text
			blocks = append(blocks[:i], blocks[i+1:]...)
			break
		}
	}
	s.Blocks = blocks
	return s
}

func slidesFromBlocks(blocks []Block) []Slide {
	var slides []Slide
	current := Slide{}
	flush := func() {
		if current.Title != "" || len(current.Blocks) > 0 {
			slides = append(slides, current)
		}
		current = Slide{}
	}
	for _, b := range blocks {
		if b.Kind == BlockHeading && b.Level <= 2 {
			flush()
			current.Title = b.Text
			continue
		}
		if b.Kind == BlockPageBreak {
			flush()
			continue
		}
		current.Blocks = append(current.Blocks, b)
	}
	flush()
	if len(slides) == 0 {
		slides = []Slide{{}}
	}
	return slides
}
