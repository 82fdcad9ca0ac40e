package filter

import "github.com/maxvaer/dirprobe/internal/scanner"

// Filter decides whether a probe result is silently dropped. Dropped results
// never reach the log or any output file.
type Filter interface {
	Name() string
	ShouldFilter(result *scanner.Result) bool
}

// Chain applies multiple filters in order, short-circuiting on the first match.
// It is read-only once the scan starts and safe for concurrent use.
type Chain struct {
	filters []Filter
}

// NewChain returns an empty filter chain.
func NewChain() *Chain {
	return &Chain{}
}

// Build assembles the chain for a scan: the status filter (include list or
// ignore set) first, then excluded body sizes.
func Build(include, ignore, excludeSizes []int) *Chain {
	c := NewChain()
	if len(include) > 0 || len(ignore) > 0 {
		c.Add(NewStatusFilter(include, ignore))
	}
	if len(excludeSizes) > 0 {
		c.Add(NewSizeFilter(excludeSizes))
	}
	return c
}

// Add appends a filter to the chain.
func (c *Chain) Add(f Filter) {
	c.filters = append(c.filters, f)
}

// Len reports how many filters the chain holds.
func (c *Chain) Len() int { return len(c.filters) }

// Apply runs every filter against the result. Returns true and the filter
// name if the result should be dropped.
func (c *Chain) Apply(result *scanner.Result) (bool, string) {
	for _, f := range c.filters {
		if f.ShouldFilter(result) {
			return true, f.Name()
		}
	}
	return false, ""
}
