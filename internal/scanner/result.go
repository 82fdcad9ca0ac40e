package scanner

import "time"

// Result is one classified probe of a single suffix.
type Result struct {
	Worker        int
	Word          string // word taken from the queue
	Path          string // suffix that was requested, relative to the target
	URL           string // final absolute URL
	StatusCode    int
	ContentLength int64
	Duration      time.Duration
}

// Success reports whether the status code is in the 2xx class.
func (r *Result) Success() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}
