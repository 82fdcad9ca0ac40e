package filter

import "github.com/maxvaer/dirprobe/internal/scanner"

// StatusFilter drops results by HTTP status code.
type StatusFilter struct {
	include map[int]struct{}
	ignore  map[int]struct{}
}

// NewStatusFilter creates a status code filter. With a non-empty include
// list only those codes pass; otherwise codes in the ignore set are dropped.
func NewStatusFilter(include, ignore []int) *StatusFilter {
	f := &StatusFilter{
		include: make(map[int]struct{}, len(include)),
		ignore:  make(map[int]struct{}, len(ignore)),
	}
	for _, code := range include {
		f.include[code] = struct{}{}
	}
	for _, code := range ignore {
		f.ignore[code] = struct{}{}
	}
	return f
}

func (f *StatusFilter) Name() string { return "status" }

func (f *StatusFilter) ShouldFilter(result *scanner.Result) bool {
	if len(f.include) > 0 {
		_, ok := f.include[result.StatusCode]
		return !ok
	}
	_, ok := f.ignore[result.StatusCode]
	return ok
}
