// Package execute runs command sequences produced by the runner registry,
// enforcing a wall-clock timeout over the whole sequence, feeding stdin per
// the configured strategy, and capturing stdout/stderr as separate streams.
package execute

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"sort"
	"time"
)

// Invocation is one subprocess call: an argv token list plus an optional
// working directory override. Argv is never joined into a shell string.
type Invocation struct {
	Argv []string
	Dir  string
}

// Options carries the execution policy the runner deliberately knows nothing
// about: stdin strategy, timeout, default working directory and the artifact
// directory the executor must remove when it is done.
type Options struct {
	Stdin   StdinSource
	Timeout time.Duration
	WorkDir string
	// ArtifactDir, when set, is removed after the result is captured on
	// every exit path: success, failure or timeout.
	ArtifactDir string
}

// envWhitelist lists the only variables a subprocess inherits and the only
// ones recorded in the result's context snapshot. Everything else stays out
// of the document.
var envWhitelist = []string{"PATH", "HOME", "LANG", "LC_ALL", "TMPDIR"}

// reapDelay bounds how long Wait may block on lingering pipe readers after
// the process group has been killed.
const reapDelay = 5 * time.Second

// Execute runs the invocation sequence under one shared timeout. Later
// steps are skipped when an earlier step fails; the reported streams, argv
// and exit code are those of the last step that actually ran. On timeout the
// whole process group is killed and reaped before Execute returns, with any
// partial output preserved.
func Execute(ctx context.Context, invocations []Invocation, opts Options) Result {
	if opts.ArtifactDir != "" {
		defer func() {
			if err := os.RemoveAll(opts.ArtifactDir); err != nil {
				slog.Warn("artifact cleanup failed", "dir", opts.ArtifactDir, "error", err)
			}
		}()
	}

	env := snapshotEnv()
	res := Result{
		ExitCode: ExitNotRun,
		Context:  Context{WorkDir: opts.WorkDir, Env: env},
	}
	if len(invocations) == 0 {
		return SkippedResult("no commands to execute")
	}

	// Timeout zero means unbounded; the config layer always supplies a
	// positive default.
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	var total time.Duration
	for i, inv := range invocations {
		dir := inv.Dir
		if dir == "" {
			dir = opts.WorkDir
		}

		cmd := exec.CommandContext(ctx, inv.Argv[0], inv.Argv[1:]...)
		cmd.Dir = dir
		cmd.Env = envPairs(env)
		cmd.WaitDelay = reapDelay
		setupProcessGroup(cmd)

		// Only the final step (the program itself) receives the configured
		// input; compile steps read nothing.
		if i == len(invocations)-1 {
			cmd.Stdin = opts.Stdin.Reader()
		}

		var stdout, stderr bytes.Buffer
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr

		slog.Debug("executing", "argv", inv.Argv, "dir", dir, "step", i+1, "steps", len(invocations))

		start := time.Now()
		err := cmd.Run()
		total += time.Since(start)

		res.Stdout = stdout.String()
		res.Stderr = stderr.String()
		res.Command = inv.Argv
		res.Duration = total

		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			res.TimedOut = true
			res.ExitCode = ExitNotRun
			slog.Debug("timed out", "argv", inv.Argv, "after", total)
			return res
		}

		if err != nil {
			var exitErr *exec.ExitError
			if errors.As(err, &exitErr) {
				res.ExitCode = exitErr.ExitCode()
			} else {
				// Could not launch at all (e.g. interpreter missing from
				// PATH). Recorded as data, not raised: the document must
				// show the real diagnostic.
				res.ExitCode = ExitNotRun
				if res.Stderr != "" {
					res.Stderr += "\n"
				}
				res.Stderr += fmt.Sprintf("execution failed: %v", err)
			}
			return res
		}
		res.ExitCode = 0
	}

	return res
}

// snapshotEnv captures the whitelisted subset of the current environment.
func snapshotEnv() map[string]string {
	env := make(map[string]string, len(envWhitelist))
	for _, key := range envWhitelist {
		if val, ok := os.LookupEnv(key); ok {
			env[key] = val
		}
	}
	return env
}

// envPairs renders the snapshot as KEY=VALUE pairs in stable order.
func envPairs(env map[string]string) []string {
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+env[k])
	}
	return pairs
}
