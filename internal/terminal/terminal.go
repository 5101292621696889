// Package terminal wraps the controlling-terminal foreground process-group
// handoff (tcsetpgrp/tcgetpgrp) that the job supervisor's fg/bg transitions
// depend on.
//
// Grounded on flavour-fence's ptyForegroundPgrp, which reads a pty's
// foreground process group via unix.IoctlGetInt(fd, unix.TIOCGPGRP); this
// package adds the write side (TIOCSPGRP) that tcsetpgrp needs and that
// flavour-fence's read-only pty supervisor had no reason to implement.
package terminal

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// SetpgidError wraps a failed ioctl(TIOCSPGRP) call (spec §7's
// TcsetpgrpFailed).
type SetpgidError struct {
	Pgid int
	Err  error
}

func (e *SetpgidError) Error() string {
	return fmt.Sprintf("terminal: set foreground pgrp %d: %v", e.Pgid, e.Err)
}

func (e *SetpgidError) Unwrap() error { return e.Err }

// Foreground returns the process group currently in the foreground of the
// controlling terminal reachable via fd.
func Foreground(fd int) (int, error) {
	pgid, err := unix.IoctlGetInt(fd, unix.TIOCGPGRP)
	if err != nil {
		return 0, fmt.Errorf("terminal: get foreground pgrp: %w", err)
	}
	return pgid, nil
}

// SetForeground makes pgid the foreground process group of the controlling
// terminal reachable via fd. This is the Go-idiomatic equivalent of POSIX
// tcsetpgrp(fd, pgid).
func SetForeground(fd, pgid int) error {
	if err := unix.IoctlSetInt(fd, unix.TIOCSPGRP, pgid); err != nil {
		return &SetpgidError{Pgid: pgid, Err: err}
	}
	return nil
}
