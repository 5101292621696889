// Package shell implements the per-input-line dispatch loop described by
// spec §4.5: it owns the background and suspended job lists, performs the
// initial terminal/pgid setup, and wires one input line at a time from the
// REPL into a parsed Pipeline's spawn/fg/bg lifecycle.
//
// Its readline-based Run loop is adapted from Pur1st2EpicONE-Ebash's
// internal/ebash package (boot/Run): readline.Config with history disabled,
// ErrInterrupt/io.EOF handled as distinct loop outcomes, trim-then-dispatch
// per line.
package shell

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"syscall"

	"github.com/chzyer/readline"
	"go.uber.org/zap"

	"github.com/forksh/forksh/internal/pipeline"
	"github.com/forksh/forksh/internal/signalpolicy"
	"github.com/forksh/forksh/internal/terminal"
)

// prompt is the fixed REPL prompt spec §6 requires: space-terminated,
// written without a trailing newline.
const prompt = "$ "

// Shell is the supervisor: one control thread, a readline terminal, and the
// two ordered job lists spec §3 assigns it.
type Shell struct {
	logger    *zap.Logger
	terminal  *readline.Instance
	ttyFd     int
	shellPgid int

	backgroundJobs []*pipeline.Pipeline
	suspendedJobs  []*pipeline.Pipeline
	jobOrder       []*pipeline.Pipeline // chronological order across both lists, for the fg builtin
	nextJobID      int
}

// New performs the startup sequence spec §4.5 describes: install the shell
// signal policy, place the shell into its own process group, and make the
// shell the terminal's foreground group. Job lists start empty.
func New(logger *zap.Logger) (*Shell, error) {
	signalpolicy.InstallShellPolicy()

	pid := os.Getpid()
	if err := syscall.Setpgid(0, 0); err != nil {
		return nil, fmt.Errorf("shell: become process group leader: %w", err)
	}

	ttyFd := int(os.Stdin.Fd())
	if err := terminal.SetForeground(ttyFd, pid); err != nil {
		return nil, fmt.Errorf("shell: claim controlling terminal: %w", err)
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt: prompt,
		// History, completion, and richer line editing are the REPL's
		// business, not the core's (spec §1's Non-goals); history is
		// disabled outright rather than wired to a file.
		HistoryFile:     "",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("shell: create terminal: %w", err)
	}

	return &Shell{
		logger:    logger,
		terminal:  rl,
		ttyFd:     ttyFd,
		shellPgid: pid,
	}, nil
}

// Run drives the REPL: one input line at a time, dispatched to the exit/fg
// builtins or to a freshly parsed Pipeline (spec §4.5, §6). It returns when
// the user types "exit" or the terminal reaches EOF.
func (s *Shell) Run() error {
	defer s.terminal.Close()

	for {
		line, err := s.terminal.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				continue
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("shell: read line: %w", err)
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == "exit" {
			return nil
		}
		if line == "fg" {
			s.runFgBuiltin()
			continue
		}

		pl, err := pipeline.Parse(line)
		if err != nil {
			// spec §4.5/§9: a parse failure prints nothing to the user and
			// the REPL continues. It is still logged at debug level, which
			// the entrypoint's info-level logger does not emit, so the line
			// appears only when the logger is built with debug enabled.
			s.logger.Debug("parse failure", zap.String("line", line), zap.Error(err))
			continue
		}

		s.dispatch(pl)
	}
}

// dispatch spawns pl and routes it to the foreground or background path per
// spec §4.5.
func (s *Shell) dispatch(pl *pipeline.Pipeline) {
	pids, err := pl.Spawn()
	if err != nil {
		s.logger.Error("spawn failed",
			zap.String("pipeline", pl.String()),
			zap.Ints("spawned_pids", pids),
			zap.Error(err))
		fmt.Fprintln(os.Stderr, err)
		// pl.Spawn fails synchronously on a ForkError, PipeError,
		// OpenError (an unopenable redirect path) or SetpgidError, never
		// on a missing program; anything already spawned before that point
		// is still alive in pl.Pgid()'s group and needs cleaning up rather
		// than being silently leaked.
		pl.Abandon()
		return
	}

	if pl.Background() {
		s.pushBackground(pl)
		pl.Bg(os.Stdout)
		return
	}

	if err := pl.Fg(s.ttyFd, s.shellPgid); err != nil {
		s.logger.Error("fg failed", zap.String("pipeline", pl.String()), zap.Error(err))
		fmt.Fprintln(os.Stderr, err)
	}
	if pl.IsSuspended() {
		s.pushSuspended(pl)
	}
}

// runFgBuiltin resumes the most recently pushed background or suspended
// job (spec §4.5's `fg` builtin). With no current job it prints the
// diagnostic spec §4.5 names and does nothing else.
func (s *Shell) runFgBuiltin() {
	pl, ok := s.popMostRecentJob()
	if !ok {
		fmt.Fprintln(os.Stdout, "fg: no current job")
		return
	}

	if err := pl.Fg(s.ttyFd, s.shellPgid); err != nil {
		s.logger.Error("fg failed", zap.String("pipeline", pl.String()), zap.Error(err))
		fmt.Fprintln(os.Stderr, err)
		return
	}
	if pl.IsSuspended() {
		s.pushSuspended(pl)
	}
}

// pushBackground assigns pl a fresh job id and appends it to background_jobs
// (spec §3).
func (s *Shell) pushBackground(pl *pipeline.Pipeline) {
	s.nextJobID++
	pl.SetJobID(s.nextJobID)
	s.backgroundJobs = append(s.backgroundJobs, pl)
	s.jobOrder = append(s.jobOrder, pl)
}

// pushSuspended assigns pl a fresh job id and appends it to suspended_jobs
// (spec §3).
func (s *Shell) pushSuspended(pl *pipeline.Pipeline) {
	s.nextJobID++
	pl.SetJobID(s.nextJobID)
	s.suspendedJobs = append(s.suspendedJobs, pl)
	s.jobOrder = append(s.jobOrder, pl)
}

// popMostRecentJob removes and returns the most recently pushed job across
// both job lists (spec §4.5's fg builtin addresses "the most recently
// pushed background or suspended job").
func (s *Shell) popMostRecentJob() (*pipeline.Pipeline, bool) {
	if len(s.jobOrder) == 0 {
		return nil, false
	}
	pl := s.jobOrder[len(s.jobOrder)-1]
	s.jobOrder = s.jobOrder[:len(s.jobOrder)-1]
	s.backgroundJobs = removePipeline(s.backgroundJobs, pl)
	s.suspendedJobs = removePipeline(s.suspendedJobs, pl)
	return pl, true
}

func removePipeline(list []*pipeline.Pipeline, target *pipeline.Pipeline) []*pipeline.Pipeline {
	out := list[:0]
	for _, pl := range list {
		if pl != target {
			out = append(out, pl)
		}
	}
	return out
}
