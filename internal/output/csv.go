package output

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/maxvaer/dirprobe/internal/scanner"
)

// CSVWriter writes one row per result. Rows are flushed as they arrive so a
// partial file survives an interrupted scan.
type CSVWriter struct {
	w      *csv.Writer
	closer io.Closer
}

// NewCSVWriter writes to w. closer may be nil.
func NewCSVWriter(w io.Writer, closer io.Closer) *CSVWriter {
	return &CSVWriter{w: csv.NewWriter(w), closer: closer}
}

func (c *CSVWriter) WriteHeader() error {
	return c.write([]string{"word", "path", "url", "status", "size", "duration_ms"})
}

func (c *CSVWriter) WriteResult(result *scanner.Result) error {
	return c.write([]string{
		result.Word,
		result.Path,
		result.URL,
		strconv.Itoa(result.StatusCode),
		strconv.FormatInt(result.ContentLength, 10),
		strconv.FormatInt(result.Duration.Milliseconds(), 10),
	})
}

func (c *CSVWriter) WriteFooter(_ Stats) error {
	c.w.Flush()
	return c.w.Error()
}

func (c *CSVWriter) Close() error { return closeIf(c.closer) }

func (c *CSVWriter) write(record []string) error {
	if err := c.w.Write(record); err != nil {
		return err
	}
	c.w.Flush()
	return c.w.Error()
}
