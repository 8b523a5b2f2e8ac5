//go:build windows

package process

import (
	"os/exec"
	"strconv"
)

// KillProcessGroup kills a browser process and all its children using
// taskkill. /F = force kill, /T = terminate child processes (tree kill).
func KillProcessGroup(pid int) {
	// Best-effort cleanup; a stale PID is harmless here
	_ = exec.Command("taskkill", "/F", "/T", "/PID", strconv.Itoa(pid)).Run()
}
