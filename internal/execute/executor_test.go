//go:build !windows

package execute

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func sh(script string) Invocation {
	return Invocation{Argv: []string{"sh", "-c", script}}
}

func TestExecute_Success(t *testing.T) {
	res := Execute(context.Background(), []Invocation{sh(`echo "Hello World"`)}, Options{
		Timeout: 5 * time.Second,
		WorkDir: t.TempDir(),
	})

	if res.ExitCode != 0 {
		t.Fatalf("expected exit 0, got %d (stderr: %s)", res.ExitCode, res.Stderr)
	}
	if res.Stdout != "Hello World\n" {
		t.Errorf("expected %q, got %q", "Hello World\n", res.Stdout)
	}
	if res.TimedOut {
		t.Error("unexpected timeout")
	}
	if res.Skipped {
		t.Error("unexpected skip")
	}
	if res.Duration <= 0 {
		t.Error("expected positive duration")
	}
}

func TestExecute_NonzeroExit(t *testing.T) {
	res := Execute(context.Background(), []Invocation{sh(`echo boom >&2; exit 3`)}, Options{
		Timeout: 5 * time.Second,
		WorkDir: t.TempDir(),
	})

	if res.ExitCode != 3 {
		t.Fatalf("expected exit 3, got %d", res.ExitCode)
	}
	if !strings.Contains(res.Stderr, "boom") {
		t.Errorf("expected stderr to contain boom, got %q", res.Stderr)
	}
	if res.TimedOut {
		t.Error("unexpected timeout")
	}
}

func TestExecute_SeparateStreams(t *testing.T) {
	res := Execute(context.Background(), []Invocation{sh(`echo out; echo err >&2`)}, Options{
		Timeout: 5 * time.Second,
		WorkDir: t.TempDir(),
	})

	if res.Stdout != "out\n" {
		t.Errorf("stdout = %q", res.Stdout)
	}
	if res.Stderr != "err\n" {
		t.Errorf("stderr = %q", res.Stderr)
	}
}

func TestExecute_TimeoutPreservesPartialOutput(t *testing.T) {
	timeout := 500 * time.Millisecond
	res := Execute(context.Background(), []Invocation{sh(`echo partial; sleep 30`)}, Options{
		Timeout: timeout,
		WorkDir: t.TempDir(),
	})

	if !res.TimedOut {
		t.Fatal("expected timeout")
	}
	if res.ExitCode != ExitNotRun {
		t.Errorf("expected exit sentinel %d, got %d", ExitNotRun, res.ExitCode)
	}
	if !strings.Contains(res.Stdout, "partial") {
		t.Errorf("partial output lost: %q", res.Stdout)
	}
	if res.Duration < timeout {
		t.Errorf("duration %s shorter than timeout %s", res.Duration, timeout)
	}
	if res.Duration > timeout+5*time.Second {
		t.Errorf("duration %s far past timeout %s", res.Duration, timeout)
	}
}

func TestExecute_StdinNoneTerminatesReader(t *testing.T) {
	// cat with the default empty stdin sees immediate EOF and exits
	// instead of blocking until the timeout.
	start := time.Now()
	res := Execute(context.Background(), []Invocation{sh(`cat`)}, Options{
		Stdin:   NoStdin(),
		Timeout: 10 * time.Second,
		WorkDir: t.TempDir(),
	})

	if res.TimedOut {
		t.Fatal("cat should see EOF, not hang until timeout")
	}
	if res.ExitCode != 0 {
		t.Fatalf("expected exit 0, got %d", res.ExitCode)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("took %s, expected immediate EOF", elapsed)
	}
}

func TestExecute_StdinFromFile(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "input.txt")
	if err := os.WriteFile(input, []byte("line one\nline two\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	stdin, err := StdinFromFile(input)
	if err != nil {
		t.Fatal(err)
	}
	res := Execute(context.Background(), []Invocation{sh(`cat`)}, Options{
		Stdin:   stdin,
		Timeout: 5 * time.Second,
		WorkDir: dir,
	})

	if res.ExitCode != 0 {
		t.Fatalf("expected exit 0, got %d (stderr: %s)", res.ExitCode, res.Stderr)
	}
	if res.Stdout != "line one\nline two\n" {
		t.Errorf("stdin not streamed: %q", res.Stdout)
	}
}

func TestStdinFromFile_Missing(t *testing.T) {
	_, err := StdinFromFile(filepath.Join(t.TempDir(), "nope.txt"))
	if err == nil {
		t.Fatal("expected error for missing input file")
	}
}

func TestExecute_MultiStepFailureSkipsLaterSteps(t *testing.T) {
	dir := t.TempDir()
	marker := filepath.Join(dir, "ran")

	res := Execute(context.Background(), []Invocation{
		sh(`echo compile error >&2; exit 2`),
		sh(`touch ` + marker),
	}, Options{
		Timeout: 5 * time.Second,
		WorkDir: dir,
	})

	if res.ExitCode != 2 {
		t.Fatalf("expected compile step exit 2, got %d", res.ExitCode)
	}
	if !strings.Contains(res.Stderr, "compile error") {
		t.Errorf("expected compile diagnostics, got %q", res.Stderr)
	}
	if _, err := os.Stat(marker); err == nil {
		t.Error("run step executed despite compile failure")
	}
}

func TestExecute_MultiStepReportsRunStep(t *testing.T) {
	res := Execute(context.Background(), []Invocation{
		sh(`echo compiling`),
		sh(`echo running`),
	}, Options{
		Timeout: 5 * time.Second,
		WorkDir: t.TempDir(),
	})

	if res.ExitCode != 0 {
		t.Fatalf("expected exit 0, got %d", res.ExitCode)
	}
	// Streams and argv belong to the final step.
	if res.Stdout != "running\n" {
		t.Errorf("expected run step output, got %q", res.Stdout)
	}
	if len(res.Command) != 3 || !strings.Contains(res.Command[2], "running") {
		t.Errorf("expected run step argv, got %v", res.Command)
	}
}

func TestExecute_LaunchFailure(t *testing.T) {
	res := Execute(context.Background(), []Invocation{
		{Argv: []string{"subdoc-no-such-binary-xyz"}},
	}, Options{
		Timeout: 5 * time.Second,
		WorkDir: t.TempDir(),
	})

	if res.ExitCode != ExitNotRun {
		t.Errorf("expected exit sentinel, got %d", res.ExitCode)
	}
	if !strings.Contains(res.Stderr, "execution failed") {
		t.Errorf("expected launch diagnostic, got %q", res.Stderr)
	}
	if res.TimedOut {
		t.Error("launch failure is not a timeout")
	}
}

func TestExecute_ArtifactCleanup(t *testing.T) {
	artifacts, err := os.MkdirTemp("", "subdoc-test-artifacts-*")
	if err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		name   string
		script string
	}{
		{"success", `true`},
		{"failure", `exit 1`},
		{"timeout", `sleep 30`},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			dir := filepath.Join(artifacts, c.name)
			if err := os.MkdirAll(dir, 0o755); err != nil {
				t.Fatal(err)
			}
			Execute(context.Background(), []Invocation{sh(c.script)}, Options{
				Timeout:     300 * time.Millisecond,
				WorkDir:     t.TempDir(),
				ArtifactDir: dir,
			})
			if _, err := os.Stat(dir); !os.IsNotExist(err) {
				t.Errorf("artifact dir %s not cleaned up", dir)
			}
		})
	}
	_ = os.RemoveAll(artifacts)
}

func TestExecute_EnvWhitelist(t *testing.T) {
	t.Setenv("SUBDOC_TEST_SECRET", "hunter2")

	res := Execute(context.Background(), []Invocation{sh(`env`)}, Options{
		Timeout: 5 * time.Second,
		WorkDir: t.TempDir(),
	})

	if strings.Contains(res.Stdout, "SUBDOC_TEST_SECRET") {
		t.Error("non-whitelisted variable leaked into subprocess")
	}
	if _, ok := res.Context.Env["SUBDOC_TEST_SECRET"]; ok {
		t.Error("non-whitelisted variable leaked into context snapshot")
	}
	if _, ok := res.Context.Env["PATH"]; !ok {
		t.Error("PATH missing from context snapshot")
	}
}

func TestExecute_EmptyInvocations(t *testing.T) {
	res := Execute(context.Background(), nil, Options{Timeout: time.Second})
	if !res.Skipped {
		t.Fatal("expected skipped sentinel for empty invocation list")
	}
	if res.ExitCode != ExitNotRun {
		t.Errorf("expected exit sentinel, got %d", res.ExitCode)
	}
}

func TestSkippedResult(t *testing.T) {
	res := SkippedResult("no runner for language \"ruby\"")
	if !res.Skipped || res.ExitCode != ExitNotRun {
		t.Fatalf("malformed sentinel: %+v", res)
	}
	if res.Failed() {
		t.Error("skipped results do not count as failures")
	}
}
