package command

import (
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

// syscallWaitStatus is a minimal decoding of unix.WaitStatus for tests that
// spawn a real process directly against Command.Spawn (package command has
// no group-wide reaper of its own; that is pipeline's job).
type syscallWaitStatus struct {
	exited bool
	code   int
}

func waitPid(t *testing.T, pid int, out *syscallWaitStatus) {
	t.Helper()
	var ws unix.WaitStatus
	_, err := unix.Wait4(pid, &ws, 0, nil)
	require.NoError(t, err)
	out.exited = ws.Exited()
	out.code = ws.ExitStatus()
}
