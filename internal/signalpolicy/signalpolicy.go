// Package signalpolicy sets the process-wide dispositions for the five
// tty-related signals a job-control shell must manage: ignored in the shell
// itself, reset to default for every spawned command (spec §4.2).
package signalpolicy

import (
	"os"
	"os/signal"
	"syscall"
)

// Controlled is the fixed set of signals the shell manages. Never mutated
// at runtime; the shell's signal policy is installed once at startup, and
// each spawned command is bracketed by install-child-default before its
// Start and install-shell-policy after it.
var Controlled = []os.Signal{
	syscall.SIGINT,
	syscall.SIGQUIT,
	syscall.SIGTSTP,
	syscall.SIGTTIN,
	syscall.SIGTTOU,
}

// InstallShellPolicy sets the dispositions of Controlled to ignore. Called
// once during supervisor initialization so the shell survives Ctrl-C and is
// never stopped by tty I/O directed at a background group it owns, and again
// by command.Spawn right after each Start (see InstallChildDefault).
func InstallShellPolicy() {
	signal.Ignore(Controlled...)
}

// InstallChildDefault resets the dispositions of Controlled to their
// process default.
//
// Go offers no hook to run arbitrary code between fork and exec inside a
// spawned child (os/exec performs both in one clone+execve without handing
// control back to user code in between), so this cannot be called "in the
// child" the way spec §4.2 literally describes. Instead it brackets the
// call to exec.Cmd.Start() in command.Spawn: dispositions are reset here
// immediately before Start(), and InstallShellPolicy is called again
// immediately after Start() returns. Because Start() synchronously performs
// the clone/execve on the calling goroutine's locked OS thread, the child
// inherits exactly the disposition in effect at the moment of exec, which
// is the default — satisfying the same "child never inherits the shell's
// ignored tty signals" guarantee spec §4.2 requires, without requiring a
// raw fork primitive the Go runtime does not expose.
func InstallChildDefault() {
	signal.Reset(Controlled...)
}
