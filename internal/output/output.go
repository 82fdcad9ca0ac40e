package output

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/maxvaer/dirprobe/internal/logging"
	"github.com/maxvaer/dirprobe/internal/scanner"
)

// Stats holds the run totals written in the footer.
type Stats struct {
	Words          int64
	Requests       int64
	Reported       int64
	Errors         int64
	Duration       time.Duration
	RequestsPerSec float64
}

// Writer is implemented by each output format. Writers are not safe for
// concurrent use; wrap them in a Recorder.
type Writer interface {
	WriteHeader() error
	WriteResult(result *scanner.Result) error
	WriteFooter(stats Stats) error
	Close() error
}

// Options selects the results file and its format.
type Options struct {
	Path    string // "-" writes to stdout
	Format  string // text, json or csv
	SortBy  string // status, size, path or empty for arrival order
	NoColor bool
}

// New opens the writer for opts.Path in the requested format.
func New(opts Options) (Writer, error) {
	var w io.Writer = os.Stdout
	var closer io.Closer
	color := !opts.NoColor
	if opts.Path != "-" {
		f, err := os.Create(opts.Path)
		if err != nil {
			return nil, fmt.Errorf("creating output file: %w", err)
		}
		w, closer = f, f
		color = false
	}

	var out Writer
	switch opts.Format {
	case "", "text":
		out = NewTextWriter(w, closer, color)
	case "json":
		out = NewJSONWriter(w, closer)
	case "csv":
		out = NewCSVWriter(w, closer)
	default:
		if closer != nil {
			closer.Close()
		}
		return nil, fmt.Errorf("unknown output format %q", opts.Format)
	}
	if opts.SortBy != "" {
		out = NewSortedWriter(out, opts.SortBy)
	}
	return out, nil
}

// Recorder serializes results from concurrent workers into a Writer. It
// satisfies scanner.Sink. A failed write is logged once and later results
// are dropped.
type Recorder struct {
	mu     sync.Mutex
	w      Writer
	log    logging.Logger
	failed bool
}

// NewRecorder writes the header and returns a Recorder around w.
func NewRecorder(w Writer, log logging.Logger) (*Recorder, error) {
	if err := w.WriteHeader(); err != nil {
		return nil, fmt.Errorf("writing output header: %w", err)
	}
	return &Recorder{w: w, log: log}, nil
}

func (r *Recorder) Record(result *scanner.Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failed {
		return
	}
	if err := r.w.WriteResult(result); err != nil {
		r.failed = true
		r.log.Errorf("writing result, output disabled: %v", err)
	}
}

// Finish writes the footer and closes the writer.
func (r *Recorder) Finish(stats Stats) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ferr := r.w.WriteFooter(stats)
	cerr := r.w.Close()
	if ferr != nil {
		return ferr
	}
	return cerr
}

func closeIf(c io.Closer) error {
	if c != nil {
		return c.Close()
	}
	return nil
}
