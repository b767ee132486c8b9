// Package config loads subdoc settings from a YAML file and validates the
// combinations that must fail before anything executes.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/nvoss/subdoc/internal/execute"
)

// Defaults applied when a field is absent from the config file.
const (
	DefaultTimeout = 10 * time.Second
	DefaultOutput  = "submission.md"
)

// DefaultExtensions covers the two reference runners.
var DefaultExtensions = []string{".py", ".java"}

// Settings holds everything a generation run needs. It is passed explicitly
// into the pipeline rather than read from globals so runs stay testable in
// isolation.
type Settings struct {
	Extensions []string  `yaml:"extensions"`
	Excludes   []string  `yaml:"excludes"`
	Execution  Execution `yaml:"execution"`
	// Overrides replaces a language's command template, one argv template
	// per step. Placeholders: {file}, {dir}, {artifact_dir}, {base}.
	Overrides map[string][][]string `yaml:"command_overrides"`
	Output    string                `yaml:"output"`
	HistoryDB string                `yaml:"history_db"`
}

// Execution controls whether and how discovered files are run.
type Execution struct {
	Enabled   bool          `yaml:"enabled"`
	Timeout   time.Duration `yaml:"timeout"`
	Stdin     string        `yaml:"stdin"` // "none" (default) or "file"
	InputFile string        `yaml:"input_file"`
}

// LoadSettings reads a YAML config file. A missing file yields defaults and
// nil error; a malformed file is an error.
func LoadSettings(path string) (*Settings, error) {
	s := &Settings{}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.applyDefaults()
			return s, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	s.applyDefaults()
	return s, nil
}

func (s *Settings) applyDefaults() {
	if len(s.Extensions) == 0 {
		s.Extensions = append([]string(nil), DefaultExtensions...)
	}
	if s.Execution.Timeout <= 0 {
		s.Execution.Timeout = DefaultTimeout
	}
	if s.Execution.Stdin == "" {
		s.Execution.Stdin = execute.StdinNone
	}
	if s.Output == "" {
		s.Output = DefaultOutput
	}
}

// Validate rejects combinations the run must not silently paper over.
func (s *Settings) Validate() error {
	switch s.Execution.Stdin {
	case execute.StdinNone:
		if s.Execution.InputFile != "" {
			return fmt.Errorf("input_file set but stdin strategy is %q", execute.StdinNone)
		}
	case execute.StdinFile:
		if s.Execution.InputFile == "" {
			return fmt.Errorf("stdin strategy %q requires input_file", execute.StdinFile)
		}
	default:
		return fmt.Errorf("unknown stdin strategy %q", s.Execution.Stdin)
	}

	for lang, steps := range s.Overrides {
		if len(steps) == 0 {
			return fmt.Errorf("command override for %q has no steps", lang)
		}
		for i, step := range steps {
			if len(step) == 0 {
				return fmt.Errorf("command override for %q: step %d is empty", lang, i+1)
			}
		}
	}
	return nil
}

// StdinSource resolves the configured stdin strategy. A missing or
// unreadable input file is a fatal configuration error: silently falling
// back to empty stdin could mask a grading-relevant difference in program
// behavior.
func (s *Settings) StdinSource() (execute.StdinSource, error) {
	if s.Execution.Stdin == execute.StdinFile {
		return execute.StdinFromFile(s.Execution.InputFile)
	}
	return execute.NoStdin(), nil
}
