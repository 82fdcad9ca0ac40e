package wordlist

import (
	"bufio"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// StdinPath selects standard input as the word source.
const StdinPath = "-"

// ErrInvalidSource is returned when the word list path is not a regular file.
var ErrInvalidSource = errors.New("invalid word list source")

//go:embed defaults/common.txt
var embeddedWordlist string

//go:embed defaults/extensions.txt
var embeddedExtensions string

// stdin is swapped out in tests.
var stdin io.Reader = os.Stdin

// Source is a sequential, line-oriented stream of words.
type Source struct {
	// Name describes where the words come from, for logging.
	Name string

	sc     *bufio.Scanner
	closer io.Closer
}

// NewSource wraps r as a word source labelled name.
func NewSource(name string, r io.Reader) *Source {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	s := &Source{Name: name, sc: sc}
	if c, ok := r.(io.Closer); ok && r != os.Stdin {
		s.closer = c
	}
	return s
}

// Open returns the word source for path. An empty path selects the embedded
// default list and "-" selects standard input; anything else must be a
// regular file.
func Open(path string) (*Source, error) {
	switch path {
	case "":
		return NewSource("default", strings.NewReader(embeddedWordlist)), nil
	case StdinPath:
		return NewSource("stdin (pipe)", stdin), nil
	}

	fi, err := os.Stat(path)
	if err != nil || !fi.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: '%s' is an invalid file", ErrInvalidSource, path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening word list %s: %w", path, err)
	}
	return NewSource(path, f), nil
}

// Next returns the next raw line without its line terminator. It returns
// io.EOF once the source is exhausted.
func (s *Source) Next() (string, error) {
	if s.sc.Scan() {
		return s.sc.Text(), nil
	}
	if err := s.sc.Err(); err != nil {
		return "", fmt.Errorf("reading word list %s: %w", s.Name, err)
	}
	return "", io.EOF
}

// Close releases the underlying file, if any.
func (s *Source) Close() error {
	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}

// Extensions normalizes user extensions so each carries exactly one leading
// dot, then appends the built-in list when useDefaults is set. Order is
// kept and duplicates are not removed.
func Extensions(exts []string, useDefaults bool) []string {
	out := make([]string, 0, len(exts))
	for _, e := range exts {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		out = append(out, e)
	}
	if useDefaults {
		for _, line := range strings.Split(embeddedExtensions, "\n") {
			if line = strings.TrimSpace(line); line != "" {
				out = append(out, line)
			}
		}
	}
	return out
}
