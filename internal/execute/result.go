package execute

import "time"

// ExitNotRun is the sentinel exit code for results that carry no real
// process exit: timeouts, launch failures, skipped and not-executed files.
const ExitNotRun = -1

// Result captures everything observed about one execution. Sentinel results
// (skipped, not executed) are well-formed Results rather than nils so
// formatters render one uniform shape.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
	// Command is the argv of the step whose streams are reported: the run
	// step on success, the failing step otherwise. Kept as tokens, never a
	// shell string.
	Command  []string
	Context  Context
	TimedOut bool
	Skipped  bool
	// SkipReason explains a Skipped result ("no runner for language x",
	// "execution disabled").
	SkipReason string
}

// Context is the snapshot of the environment a command ran in. Env holds a
// whitelisted subset only; the full environment never reaches the document.
type Context struct {
	WorkDir string
	Env     map[string]string
}

// Failed reports whether the result represents anything other than a clean,
// completed run.
func (r *Result) Failed() bool {
	return !r.Skipped && (r.TimedOut || r.ExitCode != 0)
}

// SkippedResult builds the sentinel for a file that was never handed to a
// subprocess.
func SkippedResult(reason string) Result {
	return Result{
		ExitCode:   ExitNotRun,
		Skipped:    true,
		SkipReason: reason,
	}
}
