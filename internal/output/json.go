package output

import (
	"encoding/json"
	"io"

	"github.com/maxvaer/dirprobe/internal/scanner"
)

type jsonEntry struct {
	Word          string `json:"word"`
	Path          string `json:"path"`
	URL           string `json:"url"`
	StatusCode    int    `json:"status"`
	ContentLength int64  `json:"size"`
	DurationMS    int64  `json:"duration_ms"`
}

type jsonReport struct {
	Results []jsonEntry `json:"results"`
	Stats   jsonStats   `json:"stats"`
}

type jsonStats struct {
	Words          int64   `json:"words"`
	Requests       int64   `json:"requests"`
	Reported       int64   `json:"reported"`
	Errors         int64   `json:"errors"`
	DurationMS     int64   `json:"duration_ms"`
	RequestsPerSec float64 `json:"requests_per_sec"`
}

// JSONWriter collects results and writes a single JSON document in the
// footer.
type JSONWriter struct {
	w       io.Writer
	closer  io.Closer
	entries []jsonEntry
}

// NewJSONWriter writes to w. closer may be nil.
func NewJSONWriter(w io.Writer, closer io.Closer) *JSONWriter {
	return &JSONWriter{w: w, closer: closer, entries: []jsonEntry{}}
}

func (j *JSONWriter) WriteHeader() error { return nil }

func (j *JSONWriter) WriteResult(result *scanner.Result) error {
	j.entries = append(j.entries, jsonEntry{
		Word:          result.Word,
		Path:          result.Path,
		URL:           result.URL,
		StatusCode:    result.StatusCode,
		ContentLength: result.ContentLength,
		DurationMS:    result.Duration.Milliseconds(),
	})
	return nil
}

func (j *JSONWriter) WriteFooter(stats Stats) error {
	enc := json.NewEncoder(j.w)
	enc.SetIndent("", "  ")
	return enc.Encode(jsonReport{
		Results: j.entries,
		Stats: jsonStats{
			Words:          stats.Words,
			Requests:       stats.Requests,
			Reported:       stats.Reported,
			Errors:         stats.Errors,
			DurationMS:     stats.Duration.Milliseconds(),
			RequestsPerSec: stats.RequestsPerSec,
		},
	})
}

func (j *JSONWriter) Close() error { return closeIf(j.closer) }
