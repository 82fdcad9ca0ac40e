package wordlist

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readAll(t *testing.T, s *Source) []string {
	t.Helper()
	var lines []string
	for {
		line, err := s.Next()
		if errors.Is(err, io.EOF) {
			return lines
		}
		require.NoError(t, err)
		lines = append(lines, line)
	}
}

func TestOpenEmbedded(t *testing.T) {
	s, err := Open("")
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, "default", s.Name)
	lines := readAll(t, s)
	assert.Greater(t, len(lines), 100)
	assert.Contains(t, lines, "admin")
}

func TestOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "words.txt")
	require.NoError(t, os.WriteFile(path, []byte("admin\r\nlogin\n\nadmin\n"), 0644))

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, path, s.Name)
	// Duplicates and blank lines are passed through untouched.
	assert.Equal(t, []string{"admin", "login", "", "admin"}, readAll(t, s))
}

func TestOpenStdin(t *testing.T) {
	old := stdin
	stdin = strings.NewReader("one\ntwo\n")
	defer func() { stdin = old }()

	s, err := Open(StdinPath)
	require.NoError(t, err)
	assert.Equal(t, "stdin (pipe)", s.Name)
	assert.Equal(t, []string{"one", "two"}, readAll(t, s))
}

func TestOpenRejectsNonFiles(t *testing.T) {
	dir := t.TempDir()

	_, err := Open(dir)
	assert.ErrorIs(t, err, ErrInvalidSource)

	_, err = Open(filepath.Join(dir, "missing.txt"))
	assert.ErrorIs(t, err, ErrInvalidSource)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("disk on fire") }

func TestNextPropagatesReadErrors(t *testing.T) {
	s := NewSource("broken", failingReader{})
	_, err := s.Next()
	require.Error(t, err)
	assert.NotErrorIs(t, err, io.EOF)
	assert.Contains(t, err.Error(), "disk on fire")
}

func TestExtensions(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{"adds dot", []string{"php", "bak"}, []string{".php", ".bak"}},
		{"keeps dot", []string{".php", " .bak "}, []string{".php", ".bak"}},
		{"keeps order and duplicates", []string{"php", ".php", "html"}, []string{".php", ".php", ".html"}},
		{"skips blanks", []string{"", "  "}, []string{}},
		{"nil", nil, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Extensions(tt.in, false))
		})
	}
}

func TestExtensionsWithDefaults(t *testing.T) {
	got := Extensions([]string{"inc"}, true)
	require.Greater(t, len(got), 1)
	assert.Equal(t, ".inc", got[0])
	assert.Contains(t, got, ".php")
	for _, e := range got {
		assert.True(t, strings.HasPrefix(e, "."), "extension %q lacks a dot", e)
	}
}
