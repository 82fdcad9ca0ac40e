package resume

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// ErrTargetMismatch is returned when a resume file belongs to another scan.
var ErrTargetMismatch = errors.New("resume file was written for a different target")

// State records which words of a scan have been fully processed so an
// interrupted run can skip them next time. It satisfies scanner.Completer.
type State struct {
	Target         string   `json:"target"`
	Wordlist       string   `json:"wordlist"`
	CompletedWords []string `json:"completed_words"`

	mu   sync.Mutex
	path string
	done map[string]struct{}
}

// New creates an empty state that will be saved to path.
func New(path, target, wordlist string) *State {
	return &State{
		Target:   target,
		Wordlist: wordlist,
		path:     path,
		done:     make(map[string]struct{}),
	}
}

// Load reads the state at path. A missing file yields a fresh state. A file
// written for another target fails with ErrTargetMismatch.
func Load(path, target, wordlist string) (*State, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return New(path, target, wordlist), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading resume file: %w", err)
	}

	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing resume file: %w", err)
	}
	if s.Target != target {
		return nil, fmt.Errorf("%w: %s", ErrTargetMismatch, s.Target)
	}

	s.path = path
	s.Wordlist = wordlist
	s.done = make(map[string]struct{}, len(s.CompletedWords))
	for _, w := range s.CompletedWords {
		s.done[w] = struct{}{}
	}
	return &s, nil
}

// Len returns the number of completed words.
func (s *State) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.done)
}

// IsCompleted reports whether word was finished by this or an earlier run.
func (s *State) IsCompleted(word string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.done[word]
	return ok
}

// MarkCompleted records word as done.
func (s *State) MarkCompleted(word string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.done[word]; !ok {
		s.done[word] = struct{}{}
		s.CompletedWords = append(s.CompletedWords, word)
	}
}

// Save writes the state next to its final path and renames it into place,
// so a crash mid-write never leaves a truncated file.
func (s *State) Save() error {
	s.mu.Lock()
	data, err := json.Marshal(s)
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("serializing resume state: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".resume-*")
	if err != nil {
		return fmt.Errorf("saving resume state: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("saving resume state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("saving resume state: %w", err)
	}
	return os.Rename(tmp.Name(), s.path)
}

// Remove deletes the resume file after a completed scan.
func (s *State) Remove() error {
	err := os.Remove(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
