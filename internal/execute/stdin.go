package execute

import (
	"bytes"
	"fmt"
	"io"
	"os"
)

// Stdin strategy names as they appear in configuration.
const (
	StdinNone = "none"
	StdinFile = "file"
)

// StdinSource yields the reader fed to each executed program's standard
// input. The default empty source makes a program that reads stdin see
// immediate end-of-input instead of hanging on interactive input that will
// never arrive.
type StdinSource struct {
	data []byte
}

// NoStdin returns the default empty source.
func NoStdin() StdinSource {
	return StdinSource{}
}

// StdinFromFile loads the designated input file eagerly so a file that is
// missing or unreadable surfaces as a configuration error before anything
// runs, rather than silently degrading to empty input.
func StdinFromFile(path string) (StdinSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return StdinSource{}, fmt.Errorf("stdin input file: %w", err)
	}
	return StdinSource{data: data}, nil
}

// Reader returns a fresh reader over the source bytes. Each invocation gets
// its own reader so a compile step cannot consume the run step's input.
func (s StdinSource) Reader() io.Reader {
	return bytes.NewReader(s.data)
}
