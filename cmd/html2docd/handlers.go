package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/renderkit/html2doc"
	"github.com/renderkit/html2doc/internal/assets"
	"github.com/renderkit/html2doc/internal/config"
	"github.com/renderkit/html2doc/internal/pipeline"
)

type handler struct {
	svc      *html2doc.Service
	styles   *assets.Resolver
	markdown *pipeline.MarkdownConverter
	log      *zap.Logger
}

func newHandler(svc *html2doc.Service, styles *assets.Resolver, log *zap.Logger, _ *config.Config) *handler {
	return &handler{
		svc:      svc,
		styles:   styles,
		markdown: pipeline.NewMarkdownConverter(),
		log:      log,
	}
}

// convertRequest is the JSON body of POST /convert. Exactly one of HTML
// and Markdown must be set.
type convertRequest struct {
	HTML     string `json:"html,omitempty"`
	Markdown string `json:"markdown,omitempty"`

	Format       string   `json:"format"`
	Backend      string   `json:"backend,omitempty"`
	Style        string   `json:"style,omitempty"` // markdown input only
	FontFamilies []string `json:"fontFamilies,omitempty"`
	StrictFonts  bool     `json:"strictFonts,omitempty"`
	RequiresJS   bool     `json:"requiresJs,omitempty"`
	TimeoutMs    int      `json:"timeoutMs,omitempty"`

	Options convertOptions `json:"options"`
}

type convertOptions struct {
	Page        *pageOptions   `json:"page,omitempty"`
	Scale       float64        `json:"scale,omitempty"`
	Footer      *footerOptions `json:"footer,omitempty"`
	SlideLayout string         `json:"slideLayout,omitempty"`
	SlideStyle  string         `json:"slideStyle,omitempty"`
}

type pageOptions struct {
	Size        string  `json:"size"`
	Orientation string  `json:"orientation,omitempty"`
	Margin      float64 `json:"margin,omitempty"`
}

type footerOptions struct {
	ShowPageNumber bool   `json:"showPageNumber,omitempty"`
	DateFormat     string `json:"dateFormat,omitempty"`
	Text           string `json:"text,omitempty"`
}

type errorResponse struct {
	Error struct {
		Code      string `json:"code"`
		Message   string `json:"message"`
		RequestID string `json:"requestId"`
	} `json:"error"`
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	var resp errorResponse
	resp.Error.Code = code
	resp.Error.Message = message
	resp.Error.RequestID = requestID(r)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

// statusFor maps the conversion error taxonomy to HTTP.
func statusFor(err error) (status int, code string) {
	switch {
	case errors.Is(err, html2doc.ErrInvalidInput):
		return http.StatusBadRequest, "invalid_input"
	case errors.Is(err, html2doc.ErrFontCoverage):
		return http.StatusUnprocessableEntity, "font_coverage"
	case errors.Is(err, html2doc.ErrResourceExhausted):
		return http.StatusServiceUnavailable, "resource_exhausted"
	case errors.Is(err, html2doc.ErrTimeout):
		return http.StatusGatewayTimeout, "timeout"
	case errors.Is(err, html2doc.ErrRenderFailure):
		return http.StatusInternalServerError, "render_failure"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func (h *handler) handleConvert(w http.ResponseWriter, r *http.Request) {
	req, err := h.parseConvertRequest(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_input", err.Error())
		return
	}
	h.convert(w, r, req)
}

// handleConvertPPTX is a convenience route that pins the output format.
func (h *handler) handleConvertPPTX(w http.ResponseWriter, r *http.Request) {
	req, err := h.parseConvertRequest(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_input", err.Error())
		return
	}
	req.Format = html2doc.FormatPPTX
	h.convert(w, r, req)
}

func (h *handler) convert(w http.ResponseWriter, r *http.Request, req *html2doc.Request) {
	res, err := h.svc.Convert(r.Context(), *req)
	if err != nil {
		status, code := statusFor(err)
		if status == http.StatusServiceUnavailable {
			w.Header().Set("Retry-After", "5")
		}
		h.log.Warn("conversion failed",
			zap.String("code", code),
			zap.String("request_id", requestID(r)),
			zap.Error(err),
		)
		writeError(w, r, status, code, err.Error())
		return
	}

	w.Header().Set("Content-Type", res.ContentType)
	w.Header().Set("X-Render-Backend", string(res.Diagnostics.Backend))
	w.Header().Set("X-Render-Warnings", strconv.Itoa(len(res.Diagnostics.Warnings)))
	for _, warning := range res.Diagnostics.Warnings {
		h.log.Info("render warning",
			zap.String("warning", warning),
			zap.String("request_id", requestID(r)),
		)
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(res.Bytes)
}

// parseConvertRequest accepts three input shapes: a JSON envelope, raw
// text/html, and raw text/markdown. Raw bodies take their settings from
// query parameters.
func (h *handler) parseConvertRequest(r *http.Request) (*html2doc.Request, error) {
	contentType := r.Header.Get("Content-Type")
	mediaType := contentType
	if parsed, _, err := mime.ParseMediaType(contentType); err == nil {
		mediaType = parsed
	}

	switch mediaType {
	case "", "application/json":
		return h.parseJSONRequest(r)
	case "text/html":
		body, err := io.ReadAll(r.Body)
		if err != nil {
			return nil, fmt.Errorf("reading body: %w", err)
		}
		return h.requestFromQuery(r, body)
	case "text/markdown":
		body, err := io.ReadAll(r.Body)
		if err != nil {
			return nil, fmt.Errorf("reading body: %w", err)
		}
		htmlBody, err := h.renderMarkdown(r, body, r.URL.Query().Get("style"))
		if err != nil {
			return nil, err
		}
		return h.requestFromQuery(r, htmlBody)
	default:
		return nil, fmt.Errorf("unsupported content type %q", contentType)
	}
}

func (h *handler) parseJSONRequest(r *http.Request) (*html2doc.Request, error) {
	var body convertRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		return nil, fmt.Errorf("decoding request: %w", err)
	}

	if (body.HTML == "") == (body.Markdown == "") {
		return nil, errors.New("exactly one of html and markdown must be set")
	}

	htmlContent := []byte(body.HTML)
	if body.Markdown != "" {
		rendered, err := h.renderMarkdown(r, []byte(body.Markdown), body.Style)
		if err != nil {
			return nil, err
		}
		htmlContent = rendered
	}

	req := &html2doc.Request{
		HTML:         htmlContent,
		Format:       html2doc.OutputFormat(body.Format),
		Backend:      html2doc.BackendKind(body.Backend),
		FontFamilies: body.FontFamilies,
		StrictFonts:  body.StrictFonts,
		RequiresJS:   body.RequiresJS,
	}
	if body.TimeoutMs > 0 {
		req.Timeout = time.Duration(body.TimeoutMs) * time.Millisecond
	}

	opts := &req.Options
	opts.Scale = body.Options.Scale
	opts.SlideLayout = body.Options.SlideLayout
	opts.SlideStyle = body.Options.SlideStyle
	if p := body.Options.Page; p != nil {
		opts.Page = &html2doc.PageSettings{
			Size:        p.Size,
			Orientation: p.Orientation,
			Margin:      p.Margin,
		}
	}
	if f := body.Options.Footer; f != nil {
		opts.Footer = &html2doc.Footer{
			ShowPageNumber: f.ShowPageNumber,
			DateFormat:     f.DateFormat,
			Text:           f.Text,
		}
	}
	return req, nil
}

func (h *handler) requestFromQuery(r *http.Request, htmlContent []byte) (*html2doc.Request, error) {
	q := r.URL.Query()
	format := q.Get("format")
	if format == "" {
		format = string(html2doc.FormatPDF)
	}

	req := &html2doc.Request{
		HTML:        htmlContent,
		Format:      html2doc.OutputFormat(format),
		Backend:     html2doc.BackendKind(q.Get("backend")),
		StrictFonts: q.Get("strictFonts") == "true",
		RequiresJS:  q.Get("requiresJs") == "true",
	}
	req.Options.SlideLayout = q.Get("slideLayout")
	req.Options.SlideStyle = q.Get("slideStyle")
	return req, nil
}

// renderMarkdown converts markdown to HTML and injects the named
// stylesheet so the document arrives at the backends fully styled.
func (h *handler) renderMarkdown(r *http.Request, md []byte, style string) ([]byte, error) {
	htmlContent, err := h.markdown.ToHTML(r.Context(), md)
	if err != nil {
		return nil, fmt.Errorf("converting markdown: %w", err)
	}

	if style == "" {
		style = assets.DefaultStyleName
	}
	css, err := h.styles.LoadStyle(style)
	if err != nil {
		return nil, fmt.Errorf("loading style %q: %w", style, err)
	}
	return []byte(pipeline.InjectCSS(string(htmlContent), css)), nil
}

type healthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	Browsers struct {
		Created int `json:"created"`
		Idle    int `json:"idle"`
	} `json:"browsers"`
	FontFamilies int `json:"fontFamilies"`
}

func (h *handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	var resp healthResponse
	resp.Status = "ok"
	resp.Version = version
	resp.Browsers.Created, resp.Browsers.Idle = h.svc.BrowserStats()
	resp.FontFamilies = len(h.svc.Registry().Families())

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

type fontsResponse struct {
	Families  []string `json:"families"`
	ScanNotes []string `json:"scanNotes,omitempty"`
}

func (h *handler) handleFonts(w http.ResponseWriter, r *http.Request) {
	resp := fontsResponse{
		Families:  h.svc.Registry().Families(),
		ScanNotes: h.svc.Registry().ScanNotes(),
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

type stylesResponse struct {
	Styles []string `json:"styles"`
}

func (h *handler) handleStyles(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(stylesResponse{Styles: h.styles.Names()})
}
