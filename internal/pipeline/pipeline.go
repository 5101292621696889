// Package pipeline launches the pipe graph for a parsed pipeline, owns its
// process group, and drives foreground/background transitions and reaping
// (spec §4.4). This is the component that does the most work in the shell:
// it is where the per-command fork/exec calls of package command are wired
// into anonymous pipes, and where the controlling-terminal handoff and
// group-wide waitpid loop live.
package pipeline

import (
	"fmt"
	"os"
	"strings"
	"syscall"

	"golang.org/x/sys/unix"

	"github.com/forksh/forksh/internal/command"
	"github.com/forksh/forksh/internal/parser"
	"github.com/forksh/forksh/internal/stdio"
	"github.com/forksh/forksh/internal/terminal"
)

// Pipeline is an ordered, non-empty sequence of commands plus the
// background flag, job id, and process-group id spec §3 assigns it.
type Pipeline struct {
	commands   []*command.Command
	background bool
	jobID      int
	pgid       int
}

// New constructs a Pipeline from an already-parsed command list. It fails
// with *EmptyPipelineError if cmds is empty (spec §4.1: "zero commands is a
// parse error").
func New(cmds []*command.Command, background bool) (*Pipeline, error) {
	if len(cmds) == 0 {
		return nil, &EmptyPipelineError{}
	}
	return &Pipeline{commands: cmds, background: background}, nil
}

// Parse is a thin wrapper over package parser (spec §4.4's
// `parse(line) -> pipeline | none`).
func Parse(line string) (*Pipeline, error) {
	cmds, background, err := parser.Parse(line)
	if err != nil {
		return nil, err
	}
	return New(cmds, background)
}

// Commands returns the pipeline's commands, in order.
func (p *Pipeline) Commands() []*command.Command { return p.commands }

// Background reports whether this pipeline was parsed with a trailing `&`.
func (p *Pipeline) Background() bool { return p.background }

// JobID returns the job id the supervisor assigned, or 0 if unassigned.
func (p *Pipeline) JobID() int { return p.jobID }

// SetJobID is a supervisor-only setter, called exactly once when a
// pipeline is pushed onto a job list.
func (p *Pipeline) SetJobID(id int) { p.jobID = id }

// Pgid returns the pipeline's process-group id, or 0 before Spawn.
func (p *Pipeline) Pgid() int { return p.pgid }

// String renders the pipeline in its canonical textual form (spec §8
// invariant 4), e.g. "ls -la | wc &".
func (p *Pipeline) String() string {
	parts := make([]string, len(p.commands))
	for i, c := range p.commands {
		parts[i] = c.String()
	}
	s := strings.Join(parts, " | ")
	if p.background {
		s += " &"
	}
	return s
}

// Spawn launches every command, wiring pipes between consecutive commands,
// and returns their pids in command order (spec §4.4's spawn algorithm).
func (p *Pipeline) Spawn() ([]int, error) {
	n := len(p.commands)
	pids := make([]int, 0, n)
	pgid := 0

	if n == 1 {
		pid, err := p.commands[0].Spawn(pgid, os.Stderr)
		if err != nil {
			return nil, err
		}
		p.commands[0].SetPid(pid)
		pids = append(pids, pid)
		pgid = pid
		p.pgid = pgid
		return pids, nil
	}

	var prevRead *os.File
	for i := 0; i < n-1; i++ {
		r, w, err := os.Pipe()
		if err != nil {
			if prevRead != nil {
				prevRead.Close()
			}
			return pids, &PipeError{Err: err}
		}

		bindPipeEnds(p.commands[i], p.commands[i+1], r, w)

		pid, err := p.commands[i].Spawn(pgid, os.Stderr)
		if err != nil {
			w.Close()
			r.Close()
			if prevRead != nil {
				prevRead.Close()
			}
			return pids, err
		}
		p.commands[i].SetPid(pid)
		pids = append(pids, pid)
		if pgid == 0 {
			pgid = pid
			// Recorded as soon as it exists, not only once every command
			// has spawned successfully, so a later command's ForkError
			// still leaves Pgid() reporting the group the already-spawned
			// commands actually belong to.
			p.pgid = pgid
		}

		w.Close()
		if prevRead != nil {
			prevRead.Close()
		}
		prevRead = r
	}

	last := p.commands[n-1]
	pid, err := last.Spawn(pgid, os.Stderr)
	if err != nil {
		if prevRead != nil {
			prevRead.Close()
		}
		return pids, err
	}
	last.SetPid(pid)
	pids = append(pids, pid)
	if prevRead != nil {
		prevRead.Close()
	}

	return pids, nil
}

// bindPipeEnds places the write end of a freshly created pipe into cur's
// stdout slot and the read end into next's stdin slot. Both slots always
// accept a Pipe endpoint (spec §3's invariants only restrict the Inherit*
// cases), so a failure here would mean package stdio's own invariants
// changed out from under this call — a programming error, not a runtime
// condition callers should handle.
func bindPipeEnds(cur, next *command.Command, r, w *os.File) {
	if err := cur.SetStdout(stdio.PipeEnd(w)); err != nil {
		panic(fmt.Sprintf("pipeline: Pipe rejected by stdout slot: %v", err))
	}
	if err := next.SetStdin(stdio.PipeEnd(r)); err != nil {
		panic(fmt.Sprintf("pipeline: Pipe rejected by stdin slot: %v", err))
	}
}

// Fg gives the terminal reachable via ttyFd to the pipeline's group,
// continues the group with SIGCONT if any of its commands is suspended,
// waits until it is no longer running, then returns the terminal to
// shellPgid (spec §4.4's foreground handoff). The handoff back to shellPgid
// happens on every exit path, including when Wait returns an error.
func (p *Pipeline) Fg(ttyFd, shellPgid int) error {
	if err := terminal.SetForeground(ttyFd, p.pgid); err != nil {
		_ = terminal.SetForeground(ttyFd, shellPgid)
		return err
	}

	if p.IsSuspended() {
		for _, c := range p.commands {
			if c.IsSuspended() {
				c.SetStatus(command.Running)
			}
		}
		_ = unix.Kill(-p.pgid, syscall.SIGCONT)
	}

	waitErr := p.Wait()

	if err := terminal.SetForeground(ttyFd, shellPgid); err != nil {
		if waitErr == nil {
			return err
		}
	}

	return waitErr
}

// Abandon is the supervisor's best-effort cleanup after Spawn returns an
// error partway through a multi-stage pipeline (spec.md:150's
// acknowledged open case): any already-spawned members of the group are
// killed and reaped so they don't outlive the Pipeline value that was
// never fully constructed. It is safe to call when no command ever spawned
// (Pgid() still 0): there is nothing to clean up.
func (p *Pipeline) Abandon() {
	if p.pgid == 0 {
		return
	}
	_ = unix.Kill(-p.pgid, syscall.SIGKILL)
	_ = p.Wait()
}

// Bg emits the pipeline's background announcement (spec §4.4, §6) and
// returns immediately.
func (p *Pipeline) Bg(out *os.File) {
	pid := 0
	if len(p.commands) > 0 {
		pid = p.commands[0].Pid()
	}
	fmt.Fprintf(out, "[%d]  + %d suspended  %s\n", p.jobID, pid, p.String())
}

// anyRunning reports whether any command has not yet left the Running
// state.
func (p *Pipeline) anyRunning() bool {
	for _, c := range p.commands {
		if c.IsRunning() {
			return true
		}
	}
	return false
}

// IsCompleted reports whether every command in the pipeline has completed.
func (p *Pipeline) IsCompleted() bool {
	for _, c := range p.commands {
		if !c.IsCompleted() {
			return false
		}
	}
	return true
}

// IsSuspended reports whether any command in the pipeline is suspended.
func (p *Pipeline) IsSuspended() bool {
	for _, c := range p.commands {
		if c.IsSuspended() {
			return true
		}
	}
	return false
}

func (p *Pipeline) findByPid(pid int) *command.Command {
	for _, c := range p.commands {
		if c.Pid() == pid {
			return c
		}
	}
	return nil
}

// Wait drains child-status events for this pipeline's process group until
// no command remains Running (spec §4.4). Reaping order across commands is
// unordered (it reflects the kernel), so this loops on aggregate state
// rather than per-event order.
func (p *Pipeline) Wait() error {
	for p.anyRunning() {
		var status unix.WaitStatus
		pid, err := unix.Wait4(-p.pgid, &status, unix.WUNTRACED, nil)
		if err != nil {
			if err == syscall.EINTR {
				continue
			}
			return &WaitError{Pgid: p.pgid, Err: err}
		}

		cmd := p.findByPid(pid)
		if cmd == nil {
			// A reaped pid with no matching command is a programming
			// error per spec §4.4, but killing the whole shell over an
			// unexpected grandchild reparented into this group (e.g. a
			// spawned command that itself forked) is worse than ignoring
			// the event, so it is skipped rather than treated as fatal.
			continue
		}

		switch {
		case status.Exited():
			cmd.SetStatus(command.Completed)
		case status.Signaled():
			cmd.SetStatus(command.Terminated)
		case status.Stopped():
			cmd.SetStatus(command.Suspended)
		}
	}
	return nil
}
