package filter

import "github.com/maxvaer/dirprobe/internal/scanner"

// SizeFilter drops results whose body length matches one of a set of sizes,
// typically the length of a catch-all page that answers 200 for every path.
type SizeFilter struct {
	sizes map[int64]struct{}
}

// NewSizeFilter creates a filter for the given body sizes. Negative sizes
// can never match and are skipped.
func NewSizeFilter(excludeSizes []int) *SizeFilter {
	f := &SizeFilter{sizes: make(map[int64]struct{}, len(excludeSizes))}
	for _, s := range excludeSizes {
		if s >= 0 {
			f.sizes[int64(s)] = struct{}{}
		}
	}
	return f
}

func (f *SizeFilter) Name() string { return "size" }

func (f *SizeFilter) ShouldFilter(result *scanner.Result) bool {
	_, ok := f.sizes[result.ContentLength]
	return ok
}
