// Package hints provides actionable error hints for common failure scenarios.
// Hints are formatted consistently as "\n  hint: <text>" for appending to error messages.
package hints

import (
	"os"
	"strings"

	"github.com/renderkit/html2doc/internal/fileutil"
)

// IsInContainer detects if running inside a Docker container or similar.
// Checks for /.dockerenv file which Docker creates automatically.
var IsInContainer = func() bool {
	return fileutil.FileExists("/.dockerenv")
}

// ForBrowserConnect returns hints for browser connection errors.
// Detects CI/Docker environment and suggests relevant environment variables.
func ForBrowserConnect() string {
	var out []string

	inCI := os.Getenv("CI") != "" ||
		os.Getenv("GITHUB_ACTIONS") != "" ||
		os.Getenv("GITLAB_CI") != "" ||
		os.Getenv("JENKINS_URL") != ""

	if (inCI || IsInContainer()) && os.Getenv("ROD_NO_SANDBOX") != "1" {
		out = append(out, "set ROD_NO_SANDBOX=1 for Docker/CI")
	}

	if os.Getenv("HTML2DOC_BROWSER_BIN") == "" && os.Getenv("ROD_BROWSER_BIN") == "" {
		out = append(out, "set HTML2DOC_BROWSER_BIN to use a pre-installed Chromium")
	}

	return formatHints(out)
}

// ForTimeout returns a hint about raising timeouts for slow documents.
func ForTimeout() string {
	return format("for large documents, raise HTML2DOC_RENDER_TIMEOUT or the per-request timeout")
}

// ForFontCoverage returns a hint when strict font coverage fails.
func ForFontCoverage(available []string) string {
	hint := "install a CJK-capable font (e.g. Noto Sans CJK KR) and set HTML2DOC_FONT_CJK"
	if len(available) > 0 {
		hint += "; installed families: " + strings.Join(available, ", ")
	}
	return format(hint)
}

// ForPoolSaturated returns a hint for queue-wait exhaustion.
func ForPoolSaturated() string {
	return format("retry with backoff, or raise HTML2DOC_WORKERS / HTML2DOC_GLOBAL_LIMIT")
}

// format creates a single hint string with consistent formatting.
func format(hint string) string {
	if hint == "" {
		return ""
	}
	return "\n  hint: " + hint
}

// formatHints joins multiple hints with consistent formatting.
func formatHints(all []string) string {
	if len(all) == 0 {
		return ""
	}
	return format(strings.Join(all, "; "))
}
