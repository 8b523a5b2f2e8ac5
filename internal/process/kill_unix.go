//go:build !windows

package process

import "syscall"

// KillProcessGroup kills a browser process and all its children by sending
// SIGKILL to the process group (negative PID).
func KillProcessGroup(pid int) {
	// Best-effort cleanup; a stale PID is harmless here
	_ = syscall.Kill(-pid, syscall.SIGKILL)
}
