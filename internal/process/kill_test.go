package process

// KillProcessGroup is only unit-tested against an invalid PID to verify it
// doesn't panic. Real termination behavior is covered by the browser
// timeout integration tests; we cannot safely kill arbitrary processes
// here, and PID 0 would target the current process group.

import "testing"

func TestKillProcessGroup_InvalidPID(t *testing.T) {
	t.Parallel()

	KillProcessGroup(999999999)
}
