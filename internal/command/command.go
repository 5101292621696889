// Package command implements a single parsed shell invocation plus its
// runtime state (spec §3, §4.3): a program, an argument list, its stdin/
// stdout endpoints, and the pid/status pair the pipeline supervisor
// maintains once it has been spawned.
package command

import (
	"os"
	"os/exec"
	"runtime"
	"strings"
	"syscall"

	"github.com/forksh/forksh/internal/signalpolicy"
	"github.com/forksh/forksh/internal/stdio"
)

// Status is one of Running, Completed, Suspended, Terminated (spec §3).
type Status int

const (
	Running Status = iota
	Completed
	Suspended
	Terminated
)

func (s Status) String() string {
	switch s {
	case Running:
		return "Running"
	case Completed:
		return "Completed"
	case Suspended:
		return "Suspended"
	case Terminated:
		return "Terminated"
	default:
		return "Unknown"
	}
}

// Command is a parsed invocation plus its runtime state. A Command created
// by New is in state (pid=0, status=Running); its pid is assigned exactly
// once by SetPid, immediately after the parent returns from spawning it.
// Command owns no file descriptors of its own: the pipeline that spawns it
// is responsible for any *Pipe endpoint placed in its Stdin/Stdout.
type Command struct {
	program string
	args    []string
	stdin   stdio.Endpoint
	stdout  stdio.Endpoint
	pid     int
	status  Status
}

// New constructs a Command in its initial state. program must be non-empty
// and free of embedded NUL bytes (spec §3).
func New(program string) (*Command, error) {
	if err := checkNul("program", program); err != nil {
		return nil, err
	}
	if program == "" {
		return nil, &ErrNullInArgument{Field: "program", Value: program}
	}
	return &Command{
		program: program,
		stdin:   stdio.Stdin(),
		stdout:  stdio.Stdout(),
		status:  Running,
	}, nil
}

func checkNul(field, s string) error {
	if strings.IndexByte(s, 0) >= 0 {
		return &ErrNullInArgument{Field: field, Value: s}
	}
	return nil
}

// Arg appends a single argument.
func (c *Command) Arg(s string) (*Command, error) {
	if err := checkNul("arg", s); err != nil {
		return c, err
	}
	c.args = append(c.args, s)
	return c, nil
}

// Args appends a list of arguments in order.
func (c *Command) Args(list []string) (*Command, error) {
	for _, a := range list {
		if _, err := c.Arg(a); err != nil {
			return c, err
		}
	}
	return c, nil
}

// SetStdin binds the stdin slot. It fails with ErrInvalidEndpoint if e may
// never occupy a stdin slot (spec §3).
func (c *Command) SetStdin(e stdio.Endpoint) error {
	if err := stdio.ValidateStdin(e); err != nil {
		return err
	}
	c.stdin = e
	return nil
}

// SetStdout binds the stdout slot. It fails with ErrInvalidEndpoint if e
// may never occupy a stdout slot (spec §3).
func (c *Command) SetStdout(e stdio.Endpoint) error {
	if err := stdio.ValidateStdout(e); err != nil {
		return err
	}
	c.stdout = e
	return nil
}

// Program returns the command's program name.
func (c *Command) Program() string { return c.program }

// ArgList returns the command's arguments, in order.
func (c *Command) ArgList() []string { return c.args }

// Stdin returns the command's current stdin endpoint.
func (c *Command) Stdin() stdio.Endpoint { return c.stdin }

// Stdout returns the command's current stdout endpoint.
func (c *Command) Stdout() stdio.Endpoint { return c.stdout }

// Pid returns the command's pid, or 0 if it has not been spawned.
func (c *Command) Pid() int { return c.pid }

// StatusValue returns the command's current status.
func (c *Command) StatusValue() Status { return c.status }

// SetPid is a supervisor-only setter: the pipeline calls it exactly once,
// immediately after spawning this command.
func (c *Command) SetPid(pid int) { c.pid = pid }

// SetStatus is a supervisor-only setter: the pipeline calls it in response
// to a reaped status-change event for this command's pid.
func (c *Command) SetStatus(s Status) { c.status = s }

// IsCompleted reports whether the command has completed.
func (c *Command) IsCompleted() bool { return c.status == Completed }

// IsSuspended reports whether the command is suspended.
func (c *Command) IsSuspended() bool { return c.status == Suspended }

// IsTerminated reports whether the command was terminated.
func (c *Command) IsTerminated() bool { return c.status == Terminated }

// IsRunning reports whether the command is still running.
func (c *Command) IsRunning() bool { return c.status == Running }

// String renders the command in the pipeline's canonical textual form
// (spec §8 invariant 4's round-trip grammar), e.g. `sort -r < in > out`.
func (c *Command) String() string {
	var b strings.Builder
	b.WriteString(c.program)
	for _, a := range c.args {
		b.WriteByte(' ')
		b.WriteString(a)
	}
	if c.stdin.Kind == stdio.Redirect {
		b.WriteString(" < ")
		b.WriteString(c.stdin.Path)
	}
	if c.stdout.Kind == stdio.Redirect {
		b.WriteString(" > ")
		b.WriteString(c.stdout.Path)
	}
	return b.String()
}

// resolvedFile materializes an Endpoint into the *os.File exec.Cmd needs,
// plus whether Spawn opened it itself (and must therefore close its own
// copy after Start, per spec §3's fd-ownership rules: a redirected file is
// owned by the child after dup-and-close).
func resolvedFile(e stdio.Endpoint, forStdin bool, inherited *os.File) (*os.File, bool, error) {
	switch e.Kind {
	case stdio.InheritStdin, stdio.InheritStdout, stdio.InheritStderr:
		return inherited, false, nil
	case stdio.Pipe:
		return e.File, false, nil
	case stdio.Redirect:
		var f *os.File
		var err error
		if forStdin {
			f, err = os.Open(e.Path)
		} else {
			f, err = os.OpenFile(e.Path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
		}
		if err != nil {
			return nil, false, &OpenError{Path: e.Path, Err: err}
		}
		return f, true, nil
	default:
		return inherited, false, nil
	}
}

// shProgram is the interposing interpreter Spawn always forks into (see
// execScript below). It is looked up once per Spawn via the same lookPath
// spawnexec's lookpath.go is adapted from; a POSIX /bin/sh is about as safe
// an assumption as a Unix job-control shell gets to make.
const shProgram = "sh"

// execScript is run as `sh -c execScript sh <program> <args...>`. $1 is the
// target program, "$@" (after the shift) is its argument list. It looks the
// program up itself before exec'ing, so a missing program is reported by
// the child writing a message to its inherited stderr and exiting 0 — never
// by failing the fork that produced it.
const execScript = `prog=$1; shift; if command -v "$prog" >/dev/null 2>&1; then exec "$prog" "$@"; fi; echo "$prog: command not found" 1>&2; exit 0`

// Spawn forks and execs the command (spec §4.3). pgid is the process group
// to place the child into; 0 means "create a new group" (the child's own
// pid becomes the group id). It returns the child's pid.
//
// spec §4.3/§7 requires fork to always succeed for an ordinary bad-program
// name: a missing program is discovered and reported from inside the
// child, which writes the errno description to its inherited stderr and
// exits with status 0, leaving the parent to reap it later as any other
// Completed command (spec.md:73, :152) — only a genuine fork failure is
// ForkFailed. Go's exec.Cmd.Start does not offer that shape directly: it
// performs fork and exec as one clone+execve, and if execve itself fails,
// the runtime observes that failure over a pipe before the child ever
// becomes a process Start's caller can see, collapsing "no such program"
// into the same synchronous error as a real fork failure. Interposing a
// shell (execScript above) recovers the spec's contract without hand-rolling
// a raw fork/exec primitive ourselves: Start always forks and execs "sh",
// which is assumed to exist, so Start's only failure mode left is a genuine
// ForkError; the shell then does the program lookup and exec on its own
// already-alive pid, and a missing program becomes a message on stderr and
// a clean exit(0) that Pipeline.Wait reaps exactly like spec.md:152
// describes, rather than an error this function returns synchronously.
//
// The six steps spec §4.3 describes as happening "in the child" are
// realized here as: (1)/(2) signalpolicy.InstallChildDefault plus
// SysProcAttr.Setpgid/Pgid, both of which take effect inside the runtime's
// fork/exec machinery before execve, deliberately bracketing the call to
// Start so the child observes default dispositions and its target group at
// the moment of exec; (3)/(4) dup-and-close of stdin/stdout onto fd 0/1,
// performed by the clone's file-descriptor remapping from
// exec.Cmd.Stdin/Stdout; (5)/(6) argv construction and exec-with-path-search,
// performed inside execScript once the shell itself is running.
func (c *Command) Spawn(pgid int, stderr *os.File) (int, error) {
	shPath, err := lookPath(shProgram)
	if err != nil {
		return 0, &ForkError{Program: c.program, Err: err}
	}

	stdinFile, openedStdin, err := resolvedFile(c.stdin, true, os.Stdin)
	if err != nil {
		return 0, err
	}
	if openedStdin {
		defer stdinFile.Close()
	}

	stdoutFile, openedStdout, err := resolvedFile(c.stdout, false, os.Stdout)
	if err != nil {
		return 0, err
	}
	if openedStdout {
		defer stdoutFile.Close()
	}

	argv := append([]string{shProgram, "-c", execScript, shProgram, c.program}, c.args...)
	execCmd := &exec.Cmd{
		Path:   shPath,
		Args:   argv,
		Stdin:  stdinFile,
		Stdout: stdoutFile,
		Stderr: stderr,
		SysProcAttr: &syscall.SysProcAttr{
			Setpgid: true,
			Pgid:    pgid,
		},
	}

	runtime.LockOSThread()
	signalpolicy.InstallChildDefault()
	startErr := execCmd.Start()
	signalpolicy.InstallShellPolicy()
	runtime.UnlockOSThread()

	if startErr != nil {
		return 0, &ForkError{Program: c.program, Err: startErr}
	}

	pid := execCmd.Process.Pid
	if err := syscall.Setpgid(pid, pgid); err != nil && !isBenignRace(err) {
		return pid, &SetpgidError{Pid: pid, Pgid: pgid, Err: err}
	}

	c.pid = pid
	return pid, nil
}

// isBenignRace reports whether err is the EACCES the parent-side setpgid
// races against when the child has already exec'd (spec §4.3, §7).
func isBenignRace(err error) bool {
	return err == syscall.EACCES
}
