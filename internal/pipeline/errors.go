package pipeline

import "fmt"

// PipeError wraps a failed pipe(2) call (spec §7's PipeFailed).
type PipeError struct {
	Err error
}

func (e *PipeError) Error() string { return fmt.Sprintf("pipeline: pipe: %v", e.Err) }
func (e *PipeError) Unwrap() error  { return e.Err }

// WaitError wraps a failed wait4(2) call (spec §7's WaitFailed).
type WaitError struct {
	Pgid int
	Err  error
}

func (e *WaitError) Error() string { return fmt.Sprintf("pipeline: wait on pgid %d: %v", e.Pgid, e.Err) }
func (e *WaitError) Unwrap() error  { return e.Err }

// EmptyPipelineError reports a Pipeline constructed with zero commands,
// which spec §4.1 treats as a parse error but which the builder API (spec
// §8 invariant 4) must also reject directly.
type EmptyPipelineError struct{}

func (e *EmptyPipelineError) Error() string { return "pipeline: zero commands" }
