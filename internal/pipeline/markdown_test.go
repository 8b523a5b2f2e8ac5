package pipeline

import (
	"context"
	"strings"
	"testing"
)

func TestMarkdownToHTML(t *testing.T) {
	t.Parallel()

	c := NewMarkdownConverter()
	got, err := c.ToHTML(context.Background(), []byte("# Title\n\nSome **bold** text.\n"))
	if err != nil {
		t.Fatalf("ToHTML() error = %v", err)
	}

	html := string(got)
	for _, want := range []string{
		"<!DOCTYPE html>",
		`<meta charset="utf-8">`,
		"<h1",
		"Title",
		"<strong>bold</strong>",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("output missing %q", want)
		}
	}
}

func TestMarkdownToHTMLGFMTable(t *testing.T) {
	t.Parallel()

	c := NewMarkdownConverter()
	got, err := c.ToHTML(context.Background(), []byte("| a | b |\n|---|---|\n| 1 | 2 |\n"))
	if err != nil {
		t.Fatalf("ToHTML() error = %v", err)
	}
	if !strings.Contains(string(got), "<table>") {
		t.Error("GFM table extension not applied")
	}
}

func TestMarkdownToHTMLHighlighting(t *testing.T) {
	t.Parallel()

	c := NewMarkdownConverter()
	got, err := c.ToHTML(context.Background(), []byte("```go\nfmt.Println(\"hi\")\n```\n"))
	if err != nil {
		t.Fatalf("ToHTML() error = %v", err)
	}
	// Inline styles come from chroma's github style.
	if !strings.Contains(string(got), "style=") {
		t.Error("expected inline-styled highlighted code block")
	}
}

func TestMarkdownToHTMLKorean(t *testing.T) {
	t.Parallel()

	c := NewMarkdownConverter()
	got, err := c.ToHTML(context.Background(), []byte("# 제목\n\n본문 내용.\n"))
	if err != nil {
		t.Fatalf("ToHTML() error = %v", err)
	}
	if !strings.Contains(string(got), "제목") {
		t.Error("Korean text must pass through unescaped")
	}
}

func TestMarkdownToHTMLCanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewMarkdownConverter()
	if _, err := c.ToHTML(ctx, []byte("# x")); err == nil {
		t.Fatal("expected error for canceled context")
	}
}
