package scanner

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPauserWaitNotPaused(t *testing.T) {
	p := NewPauser()
	done := make(chan error, 1)
	go func() { done <- p.Wait(context.Background()) }()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Wait() blocked when not paused")
	}
}

func TestPauserToggle(t *testing.T) {
	p := NewPauser()
	require.False(t, p.IsPaused())

	assert.True(t, p.Toggle(), "first toggle pauses")
	assert.True(t, p.IsPaused())

	assert.False(t, p.Toggle(), "second toggle resumes")
	assert.False(t, p.IsPaused())
}

func TestPauserBlocksAndResumes(t *testing.T) {
	p := NewPauser()
	p.Toggle()

	var blocked atomic.Int32
	var wg sync.WaitGroup
	n := 5
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			blocked.Add(1)
			_ = p.Wait(context.Background())
		}()
	}

	time.Sleep(50 * time.Millisecond)
	require.Equal(t, int32(n), blocked.Load())

	p.Toggle()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("goroutines did not unblock after resume")
	}
}

func TestPauserWaitHonoursContext(t *testing.T) {
	p := NewPauser()
	p.Toggle()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, p.Wait(ctx), context.DeadlineExceeded)
}

func TestPauserDuration(t *testing.T) {
	p := NewPauser()

	p.Toggle()
	time.Sleep(60 * time.Millisecond)
	p.Toggle()

	p.Toggle()
	time.Sleep(60 * time.Millisecond)
	p.Toggle()

	total := p.PausedDuration()
	assert.GreaterOrEqual(t, total, 100*time.Millisecond)
	assert.Less(t, total, 400*time.Millisecond)
}
