package output

import (
	"sort"

	"github.com/maxvaer/dirprobe/internal/scanner"
)

// SortedWriter buffers results and replays them, ordered by one field, when
// the footer is written. Ties keep arrival order.
type SortedWriter struct {
	inner   Writer
	sortBy  string
	results []scanner.Result
}

// NewSortedWriter wraps inner. sortBy is status, size or path.
func NewSortedWriter(inner Writer, sortBy string) *SortedWriter {
	return &SortedWriter{inner: inner, sortBy: sortBy}
}

func (w *SortedWriter) WriteHeader() error {
	return w.inner.WriteHeader()
}

func (w *SortedWriter) WriteResult(result *scanner.Result) error {
	w.results = append(w.results, *result)
	return nil
}

func (w *SortedWriter) WriteFooter(stats Stats) error {
	sort.SliceStable(w.results, func(i, j int) bool {
		a, b := &w.results[i], &w.results[j]
		switch w.sortBy {
		case "status":
			return a.StatusCode < b.StatusCode
		case "size":
			return a.ContentLength < b.ContentLength
		case "path":
			return a.Path < b.Path
		default:
			return false
		}
	})
	for i := range w.results {
		if err := w.inner.WriteResult(&w.results[i]); err != nil {
			return err
		}
	}
	return w.inner.WriteFooter(stats)
}

func (w *SortedWriter) Close() error {
	return w.inner.Close()
}
