package filter

import (
	"testing"

	"github.com/maxvaer/dirprobe/internal/scanner"
	"github.com/stretchr/testify/assert"
)

func TestStatusFilterIgnoreSet(t *testing.T) {
	f := NewStatusFilter(nil, []int{404, 500})

	assert.False(t, f.ShouldFilter(&scanner.Result{StatusCode: 200}))
	assert.False(t, f.ShouldFilter(&scanner.Result{StatusCode: 403}))
	assert.True(t, f.ShouldFilter(&scanner.Result{StatusCode: 404}))
	assert.True(t, f.ShouldFilter(&scanner.Result{StatusCode: 500}))
}

func TestStatusFilterInclude(t *testing.T) {
	f := NewStatusFilter([]int{200, 301}, nil)

	assert.False(t, f.ShouldFilter(&scanner.Result{StatusCode: 200}))
	assert.False(t, f.ShouldFilter(&scanner.Result{StatusCode: 301}))
	assert.True(t, f.ShouldFilter(&scanner.Result{StatusCode: 404}))
}

func TestSizeFilter(t *testing.T) {
	f := NewSizeFilter([]int{0, 1234, -1})

	assert.True(t, f.ShouldFilter(&scanner.Result{ContentLength: 1234}))
	assert.True(t, f.ShouldFilter(&scanner.Result{ContentLength: 0}))
	assert.False(t, f.ShouldFilter(&scanner.Result{ContentLength: 5678}))
}

func TestChainShortCircuits(t *testing.T) {
	chain := Build(nil, []int{404}, []int{0})
	assert.Equal(t, 2, chain.Len())

	filtered, reason := chain.Apply(&scanner.Result{StatusCode: 404, ContentLength: 0})
	assert.True(t, filtered)
	assert.Equal(t, "status", reason)

	filtered, reason = chain.Apply(&scanner.Result{StatusCode: 200, ContentLength: 0})
	assert.True(t, filtered)
	assert.Equal(t, "size", reason)

	filtered, _ = chain.Apply(&scanner.Result{StatusCode: 200, ContentLength: 10})
	assert.False(t, filtered)
}

func TestBuildEmpty(t *testing.T) {
	chain := Build(nil, nil, nil)
	assert.Equal(t, 0, chain.Len())
	filtered, _ := chain.Apply(&scanner.Result{StatusCode: 404})
	assert.False(t, filtered)
}
