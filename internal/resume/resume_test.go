package resume

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileStartsFresh(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scan.resume")
	s, err := Load(path, "http://t/", "default")
	require.NoError(t, err)
	assert.Zero(t, s.Len())
	assert.False(t, s.IsCompleted("admin"))
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scan.resume")
	s := New(path, "http://t/", "words.txt")
	s.MarkCompleted("admin")
	s.MarkCompleted("login")
	s.MarkCompleted("admin")
	require.NoError(t, s.Save())

	loaded, err := Load(path, "http://t/", "words.txt")
	require.NoError(t, err)
	assert.Equal(t, 2, loaded.Len())
	assert.True(t, loaded.IsCompleted("admin"))
	assert.True(t, loaded.IsCompleted("login"))
	assert.False(t, loaded.IsCompleted("backup"))
	assert.Equal(t, []string{"admin", "login"}, loaded.CompletedWords)
}

func TestLoadRejectsOtherTarget(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scan.resume")
	require.NoError(t, New(path, "http://a/", "default").Save())

	_, err := Load(path, "http://b/", "default")
	assert.ErrorIs(t, err, ErrTargetMismatch)
}

func TestLoadRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scan.resume")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := Load(path, "http://t/", "default")
	assert.Error(t, err)
}

func TestMarkCompletedConcurrent(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "r"), "http://t/", "default")
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for _, w := range []string{"a", "b", "c"} {
				s.MarkCompleted(w)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 3, s.Len())
}

func TestRemove(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scan.resume")
	s := New(path, "http://t/", "default")
	require.NoError(t, s.Save())
	require.NoError(t, s.Remove())
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
	assert.NoError(t, s.Remove(), "removing twice is fine")
}
