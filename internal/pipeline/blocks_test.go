package pipeline

import (
	"testing"
)

func TestExtractBlocks(t *testing.T) {
	t.Parallel()

	html := `<html><body>
<h1>Title</h1>
<p>Intro  paragraph.</p>
<ul><li>first</li><li>second<ul><li>nested</li></ul></li></ul>
<pre>code
line</pre>
<blockquote>quoted</blockquote>
<hr>
<p><img src="a.png" alt="fig"> trailing</p>
</body></html>`

	blocks, err := ExtractBlocks([]byte(html))
	if err != nil {
		t.Fatalf("ExtractBlocks() error = %v", err)
	}

	want := []Block{
		{Kind: BlockHeading, Level: 1, Text: "Title"},
		{Kind: BlockParagraph, Text: "Intro paragraph."},
		{Kind: BlockListItem, Level: 0, Text: "first"},
		{Kind: BlockListItem, Level: 0, Text: "second"},
		{Kind: BlockListItem, Level: 1, Text: "nested"},
		{Kind: BlockPre, Text: "code\nline"},
		{Kind: BlockQuote, Text: "quoted"},
		{Kind: BlockPageBreak},
		{Kind: BlockImage, Src: "a.png", Alt: "fig"},
		{Kind: BlockParagraph, Text: "trailing"},
	}

	if len(blocks) != len(want) {
		t.Fatalf("got %d blocks, want %d: %+v", len(blocks), len(want), blocks)
	}
	for i, w := range want {
		g := blocks[i]
		if g.Kind != w.Kind || g.Level != w.Level || g.Text != w.Text || g.Src != w.Src {
			t.Errorf("block %d = %+v, want %+v", i, g, w)
		}
	}
}

func TestExtractBlocks_DivUnwrapping(t *testing.T) {
	t.Parallel()

	html := `<body><div><div><p>deep</p></div></div><div>bare text</div></body>`
	blocks, err := ExtractBlocks([]byte(html))
	if err != nil {
		t.Fatalf("ExtractBlocks() error = %v", err)
	}
	if len(blocks) != 2 {
		t.Fatalf("got %d blocks, want 2: %+v", len(blocks), blocks)
	}
	if blocks[0].Text != "deep" || blocks[1].Text != "bare text" {
		t.Errorf("unexpected blocks: %+v", blocks)
	}
}

func TestExtractBlocks_Table(t *testing.T) {
	t.Parallel()

	html := `<body><table><tr><th>k</th><th>v</th></tr><tr><td>a</td><td>1</td></tr></table></body>`
	blocks, err := ExtractBlocks([]byte(html))
	if err != nil {
		t.Fatalf("ExtractBlocks() error = %v", err)
	}
	if len(blocks) != 2 {
		t.Fatalf("got %d blocks, want 2 rows: %+v", len(blocks), blocks)
	}
	if blocks[1].Text != "a  1" {
		t.Errorf("row text = %q, want %q", blocks[1].Text, "a  1")
	}
}

func TestSplitSlides_Headings(t *testing.T) {
	t.Parallel()

	html := `<body>
<h1>Deck</h1>
<p>opening</p>
<h2>Second</h2>
<ul><li>point</li></ul>
<h2>Third</h2>
<p>closing</p>
</body>`

	slides, err := SplitSlides([]byte(html))
	if err != nil {
		t.Fatalf("SplitSlides() error = %v", err)
	}
	if len(slides) != 3 {
		t.Fatalf("got %d slides, want 3", len(slides))
	}
	if slides[0].Title != "Deck" || slides[1].Title != "Second" || slides[2].Title != "Third" {
		t.Errorf("titles = %q, %q, %q", slides[0].Title, slides[1].Title, slides[2].Title)
	}
	if len(slides[1].Blocks) != 1 || slides[1].Blocks[0].Kind != BlockListItem {
		t.Errorf("slide 2 blocks = %+v", slides[1].Blocks)
	}
}

func TestSplitSlides_SectionContainers(t *testing.T) {
	t.Parallel()

	html := `<body>
<section><h2>One</h2><p>a</p></section>
<section><h2>Two</h2><p>b</p></section>
</body>`

	slides, err := SplitSlides([]byte(html))
	if err != nil {
		t.Fatalf("SplitSlides() error = %v", err)
	}
	if len(slides) != 2 {
		t.Fatalf("got %d slides, want 2", len(slides))
	}
	if slides[0].Title != "One" {
		t.Errorf("slide 1 title = %q, want One", slides[0].Title)
	}
	if len(slides[0].Blocks) != 1 || slides[0].Blocks[0].Text != "a" {
		t.Errorf("slide 1 blocks = %+v", slides[0].Blocks)
	}
}

func TestSplitSlides_EmptyDocumentYieldsOneSlide(t *testing.T) {
	t.Parallel()

	slides, err := SplitSlides([]byte(`<html><body></body></html>`))
	if err != nil {
		t.Fatalf("SplitSlides() error = %v", err)
	}
	if len(slides) != 1 {
		t.Fatalf("got %d slides, want 1 empty slide", len(slides))
	}
}
