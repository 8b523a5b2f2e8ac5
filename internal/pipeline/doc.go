// Package pipeline implements the HTML-side stages of the conversion
// pipeline: document scanning (script and CJK detection), block extraction
// for the deterministic layout backends, CSS and font-stack injection, and
// the Markdown convenience input.
//
// Rendering itself is handled by the root html2doc package; this package is
// concerned only with document structure and content.
package pipeline
