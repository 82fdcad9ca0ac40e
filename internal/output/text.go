package output

import (
	"fmt"
	"io"
	"time"

	"github.com/maxvaer/dirprobe/internal/scanner"
)

// ANSI color codes.
const (
	colorReset  = "\033[0m"
	colorDim    = "\033[2m"
	colorGreen  = "\033[32m"
	colorCyan   = "\033[36m"
	colorYellow = "\033[33m"
	colorRed    = "\033[31m"
)

// TextWriter writes one aligned line per result.
type TextWriter struct {
	w      io.Writer
	closer io.Closer
	color  bool
}

// NewTextWriter writes to w. closer may be nil when w must stay open.
func NewTextWriter(w io.Writer, closer io.Closer, color bool) *TextWriter {
	return &TextWriter{w: w, closer: closer, color: color}
}

func (t *TextWriter) WriteHeader() error {
	_, err := fmt.Fprintf(t.w, "%sCode      Size  Duration  URL%s\n", t.paint(colorDim), t.paint(colorReset))
	return err
}

func (t *TextWriter) WriteResult(result *scanner.Result) error {
	_, err := fmt.Fprintf(t.w, "%s%3d%s  %8d  %8s  %s\n",
		t.paint(statusColor(result.StatusCode)), result.StatusCode, t.paint(colorReset),
		result.ContentLength,
		result.Duration.Round(time.Millisecond),
		result.URL,
	)
	return err
}

func (t *TextWriter) WriteFooter(stats Stats) error {
	_, err := fmt.Fprintf(t.w,
		"\n# words: %d | requests: %d | reported: %d | errors: %d | duration: %s | %.1f req/s\n",
		stats.Words,
		stats.Requests,
		stats.Reported,
		stats.Errors,
		stats.Duration.Round(time.Millisecond),
		stats.RequestsPerSec,
	)
	return err
}

func (t *TextWriter) Close() error { return closeIf(t.closer) }

func (t *TextWriter) paint(code string) string {
	if !t.color {
		return ""
	}
	return code
}

func statusColor(code int) string {
	switch {
	case code >= 200 && code < 300:
		return colorGreen
	case code >= 300 && code < 400:
		return colorCyan
	case code >= 400 && code < 500:
		return colorYellow
	case code >= 500:
		return colorRed
	default:
		return ""
	}
}
