// Package html2doc converts HTML documents to PDF and PPTX.
//
// Three rendering backends are available and selected per request:
//
//   - Browser: drives a headless Chromium instance for full-fidelity PDF
//     output, including JavaScript execution and modern CSS.
//   - Paged: a deterministic pure-Go layout engine producing reproducible
//     PDFs without any external process.
//   - Generic: assembles PPTX presentations with native, selectable text.
//
// Every backend guarantees that Korean and other CJK text renders with a
// covering font. Fonts are discovered at startup from the host system and
// an embedded fallback face keeps the service usable on bare containers.
//
// # Quick start
//
//	svc, err := html2doc.NewService()
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer svc.Close()
//
//	res, err := svc.Convert(ctx, html2doc.Request{
//		HTML:   []byte("<h1>안녕하세요</h1>"),
//		Format: html2doc.FormatPDF,
//	})
//
// Concurrency is bounded: browser instances are pooled and a global
// semaphore caps simultaneous renders. Callers that cannot obtain a slot
// within the configured queue wait receive ErrResourceExhausted.
//
// The browser backend needs a Chromium binary on the host; the other two
// backends have no external dependencies.
package html2doc
