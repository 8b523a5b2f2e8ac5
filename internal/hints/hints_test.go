package hints

// Notes:
// - ForBrowserConnect tests cannot use t.Parallel() because they:
//   1. Use t.Setenv() which modifies process environment
//   2. Modify the package-level IsInContainer variable

import (
	"strings"
	"testing"
)

func TestForBrowserConnectInCI(t *testing.T) {
	orig := IsInContainer
	defer func() { IsInContainer = orig }()
	IsInContainer = func() bool { return false }

	t.Setenv("CI", "true")
	t.Setenv("ROD_NO_SANDBOX", "")
	t.Setenv("HTML2DOC_BROWSER_BIN", "")
	t.Setenv("ROD_BROWSER_BIN", "")

	hint := ForBrowserConnect()

	if !strings.Contains(hint, "hint:") {
		t.Error("expected hint prefix")
	}
	if !strings.Contains(hint, "ROD_NO_SANDBOX") {
		t.Error("expected ROD_NO_SANDBOX suggestion in CI")
	}
	if !strings.Contains(hint, "HTML2DOC_BROWSER_BIN") {
		t.Error("expected HTML2DOC_BROWSER_BIN suggestion")
	}
}

func TestForBrowserConnectInDocker(t *testing.T) {
	orig := IsInContainer
	defer func() { IsInContainer = orig }()
	IsInContainer = func() bool { return true }

	t.Setenv("CI", "")
	t.Setenv("ROD_NO_SANDBOX", "")
	t.Setenv("HTML2DOC_BROWSER_BIN", "")
	t.Setenv("ROD_BROWSER_BIN", "")

	hint := ForBrowserConnect()

	if !strings.Contains(hint, "ROD_NO_SANDBOX") {
		t.Error("expected ROD_NO_SANDBOX suggestion in Docker")
	}
}

func TestForBrowserConnectSandboxAlreadySet(t *testing.T) {
	orig := IsInContainer
	defer func() { IsInContainer = orig }()
	IsInContainer = func() bool { return true }

	t.Setenv("CI", "")
	t.Setenv("ROD_NO_SANDBOX", "1")
	t.Setenv("HTML2DOC_BROWSER_BIN", "/usr/bin/chromium")
	t.Setenv("ROD_BROWSER_BIN", "")

	if hint := ForBrowserConnect(); hint != "" {
		t.Errorf("expected no hints when everything is configured, got %q", hint)
	}
}

func TestForBrowserConnectOutsideContainer(t *testing.T) {
	orig := IsInContainer
	defer func() { IsInContainer = orig }()
	IsInContainer = func() bool { return false }

	t.Setenv("CI", "")
	t.Setenv("GITHUB_ACTIONS", "")
	t.Setenv("GITLAB_CI", "")
	t.Setenv("JENKINS_URL", "")
	t.Setenv("ROD_NO_SANDBOX", "")
	t.Setenv("HTML2DOC_BROWSER_BIN", "")
	t.Setenv("ROD_BROWSER_BIN", "")

	hint := ForBrowserConnect()

	if strings.Contains(hint, "ROD_NO_SANDBOX") {
		t.Error("sandbox hint should not fire outside CI/Docker")
	}
	if !strings.Contains(hint, "HTML2DOC_BROWSER_BIN") {
		t.Error("expected HTML2DOC_BROWSER_BIN suggestion")
	}
}

func TestForTimeout(t *testing.T) {
	t.Parallel()

	hint := ForTimeout()
	if !strings.HasPrefix(hint, "\n  hint: ") {
		t.Errorf("hint = %q, want \"\\n  hint: \" prefix", hint)
	}
	if !strings.Contains(hint, "HTML2DOC_RENDER_TIMEOUT") {
		t.Error("expected HTML2DOC_RENDER_TIMEOUT in timeout hint")
	}
}

func TestForFontCoverage(t *testing.T) {
	t.Parallel()

	hint := ForFontCoverage([]string{"Noto Sans", "Arial"})
	if !strings.Contains(hint, "HTML2DOC_FONT_CJK") {
		t.Error("expected HTML2DOC_FONT_CJK in coverage hint")
	}
	if !strings.Contains(hint, "Noto Sans, Arial") {
		t.Errorf("hint = %q, want installed families listed", hint)
	}

	bare := ForFontCoverage(nil)
	if strings.Contains(bare, "installed families") {
		t.Error("empty inventory should not list families")
	}
}

func TestForPoolSaturated(t *testing.T) {
	t.Parallel()

	hint := ForPoolSaturated()
	if !strings.Contains(hint, "HTML2DOC_WORKERS") {
		t.Error("expected HTML2DOC_WORKERS in saturation hint")
	}
}
