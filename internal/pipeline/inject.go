package pipeline

import (
	"fmt"
	"strings"
)

// InjectCSS inserts a <style> block into HTML content.
// Tries </head> first, then after <body...>, then prepends. CSS content is
// sanitized so it cannot close the style tag prematurely.
func InjectCSS(htmlContent, cssContent string) string {
	if cssContent == "" {
		return htmlContent
	}

	styleBlock := "<style>" + sanitizeCSS(cssContent) + "</style>"
	lowerHTML := strings.ToLower(htmlContent)

	if idx := strings.Index(lowerHTML, "</head>"); idx != -1 {
		return htmlContent[:idx] + styleBlock + htmlContent[idx:]
	}

	if idx := strings.Index(lowerHTML, "<body"); idx != -1 {
		if closeIdx := strings.Index(htmlContent[idx:], ">"); closeIdx != -1 {
			insertPos := idx + closeIdx + 1
			return htmlContent[:insertPos] + styleBlock + htmlContent[insertPos:]
		}
	}

	return styleBlock + htmlContent
}

// sanitizeCSS escapes sequences that could break out of a <style> block.
func sanitizeCSS(css string) string {
	return strings.ReplaceAll(css, "</", `<\/`)
}

// FontStackCSS builds a body-level font-family rule from the resolved
// family names, quoted and in resolution order. Injected before rendering
// so every backend sees the same substitution the registry decided on.
func FontStackCSS(families []string) string {
	if len(families) == 0 {
		return ""
	}
	quoted := make([]string, 0, len(families)+1)
	seen := make(map[string]bool, len(families))
	for _, f := range families {
		if f == "" || seen[f] {
			continue
		}
		seen[f] = true
		quoted = append(quoted, fmt.Sprintf("%q", f))
	}
	if len(quoted) == 0 {
		return ""
	}
	quoted = append(quoted, "sans-serif")
	return fmt.Sprintf("body { font-family: %s; }", strings.Join(quoted, ", "))
}
