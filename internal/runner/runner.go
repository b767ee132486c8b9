// Package runner maps languages to command templates. Runners are data — an
// ordered list of argv templates per language — so adding a language is a
// registry entry or a config override, not a new type.
package runner

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/nvoss/subdoc/internal/execute"
	"github.com/nvoss/subdoc/internal/scan"
)

// Plan is the resolved invocation sequence for one file. ArtifactDir is a
// scoped temporary directory for compile output; the executor removes it
// after the result is captured. Empty for interpreted languages.
type Plan struct {
	Invocations []execute.Invocation
	ArtifactDir string
}

// Template holds the argv templates for one language, one template per
// step. Placeholders:
//
//	{file}          absolute path of the source file
//	{dir}           directory containing the source file
//	{artifact_dir}  temporary directory for compile output
//	{base}          file name without extension (e.g. Java main class)
type Template struct {
	Language string
	Steps    [][]string
}

// needsArtifactDir reports whether any step references {artifact_dir}.
func (t Template) needsArtifactDir() bool {
	for _, step := range t.Steps {
		for _, tok := range step {
			if strings.Contains(tok, "{artifact_dir}") {
				return true
			}
		}
	}
	return false
}

// Plan expands the template against a concrete file. When the template uses
// {artifact_dir} a fresh temp directory is created; ownership passes to the
// executor via Plan.ArtifactDir.
func (t Template) Plan(file scan.SourceFile) (Plan, error) {
	dir := filepath.Dir(file.Path)
	base := strings.TrimSuffix(filepath.Base(file.Path), filepath.Ext(file.Path))

	artifactDir := ""
	if t.needsArtifactDir() {
		tmp, err := os.MkdirTemp("", "subdoc-build-*")
		if err != nil {
			return Plan{}, fmt.Errorf("create artifact dir: %w", err)
		}
		artifactDir = tmp
	}

	repl := strings.NewReplacer(
		"{file}", file.Path,
		"{dir}", dir,
		"{artifact_dir}", artifactDir,
		"{base}", base,
	)

	invocations := make([]execute.Invocation, 0, len(t.Steps))
	for _, step := range t.Steps {
		argv := make([]string, len(step))
		for i, tok := range step {
			argv[i] = repl.Replace(tok)
		}
		invocations = append(invocations, execute.Invocation{Argv: argv, Dir: dir})
	}

	return Plan{Invocations: invocations, ArtifactDir: artifactDir}, nil
}
