package scanner

import (
	"context"
	"net/url"
	"sync/atomic"

	"github.com/maxvaer/dirprobe/internal/dispatch"
	"github.com/maxvaer/dirprobe/internal/logging"
	"golang.org/x/time/rate"
)

// Filter hides results from every output. filter.Chain implements it.
type Filter interface {
	Apply(result *Result) (bool, string)
}

// Sink receives every reported result. It is called concurrently.
type Sink interface {
	Record(result *Result)
}

// Completer is told when a word has been fully processed.
type Completer interface {
	MarkCompleted(word string)
}

// Counters are the run totals shared by all workers.
type Counters struct {
	Words    atomic.Int64
	Requests atomic.Int64
	Reported atomic.Int64
	Errors   atomic.Int64
}

// WorkerConfig is built once before the pool starts and shared read-only by
// every worker. Only Counters is written to, atomically.
type WorkerConfig struct {
	Client     Getter
	Target     *url.URL // must end in "/"
	Extensions []string // appended verbatim to each word
	Filter     Filter   // ignore set and other silent filters; may be nil
	ExpandURL  bool
	PrintFails bool
	Log        logging.Logger
	Queue      *dispatch.Queue[string]

	Throttler *Throttler    // may be nil
	Limiter   *rate.Limiter // may be nil
	Sink      Sink          // may be nil
	Completer Completer     // may be nil
	Counters  *Counters     // may be nil
}

// Worker pulls words from the shared queue and probes each of them.
type Worker struct {
	id  int
	cfg *WorkerConfig
}

// NewWorker satisfies dispatch.NewWorkerFunc.
func NewWorker(id int, cfg *WorkerConfig) dispatch.Worker {
	return &Worker{id: id, cfg: cfg}
}

// Run consumes words until the queue reports end-of-stream or ctx ends.
// Per-word failures are logged and never stop the worker.
func (w *Worker) Run(ctx context.Context) error {
	w.cfg.Log.Tracef("worker %d started", w.id)
	defer w.cfg.Log.Tracef("worker %d ended", w.id)

	for {
		word, ok := w.cfg.Queue.Receive(ctx)
		if !ok {
			return nil
		}
		if c := w.cfg.Counters; c != nil {
			c.Words.Add(1)
		}
		w.ProcessWord(ctx, word)
		if ctx.Err() != nil {
			return nil
		}
		if w.cfg.Completer != nil {
			w.cfg.Completer.MarkCompleted(word)
		}
	}
}

// Suffixes returns the candidate paths for word: the word itself followed by
// the word with each extension appended, in order.
func Suffixes(word string, extensions []string) []string {
	out := make([]string, 0, 1+len(extensions))
	out = append(out, word)
	for _, ext := range extensions {
		out = append(out, word+ext)
	}
	return out
}

// ProcessWord probes every suffix of word. A suffix that cannot be resolved
// or requested abandons the rest of the word.
func (w *Worker) ProcessWord(ctx context.Context, word string) {
	cfg := w.cfg

	ref, err := url.Parse(word)
	if err != nil {
		cfg.Log.Errorf("invalid word for a url: %s", word)
		w.countError()
		return
	}
	wordURL := cfg.Target.ResolveReference(ref)
	cfg.Log.Debugf("[worker %d] word url %s", w.id, wordURL)

	for _, suffix := range Suffixes(word, cfg.Extensions) {
		sref, err := url.Parse(suffix)
		if err != nil {
			cfg.Log.Errorf("invalid extension for a url: %s", suffix)
			w.countError()
			return
		}
		target := cfg.Target.ResolveReference(sref).String()

		if cfg.Limiter != nil {
			if err := cfg.Limiter.Wait(ctx); err != nil {
				return
			}
		}

		cfg.Log.Debugf("[worker %d] sending request to %s", w.id, target)
		if c := cfg.Counters; c != nil {
			c.Requests.Add(1)
		}
		resp, err := cfg.Client.Get(ctx, target)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			cfg.Log.Debugf("[worker %d] error while performing request: %v", w.id, err)
			cfg.Log.Warnf("error while performing request to %s", target)
			if cfg.Throttler != nil {
				cfg.Throttler.RecordError()
			}
			w.countError()
			return
		}
		if cfg.Throttler != nil {
			cfg.Throttler.RecordStatus(resp.StatusCode)
		}

		result := &Result{
			Worker:        w.id,
			Word:          word,
			Path:          suffix,
			URL:           resp.URL,
			StatusCode:    resp.StatusCode,
			ContentLength: resp.ContentLength,
			Duration:      resp.Duration,
		}

		if cfg.Filter != nil {
			if filtered, reason := cfg.Filter.Apply(result); filtered {
				cfg.Log.Tracef("ignoring /%s: %d filtered by %s", suffix, resp.StatusCode, reason)
				continue
			}
		}

		cfg.Log.Debugf("[worker %d] request responded with %d", w.id, resp.StatusCode)
		w.report(result)
	}
}

func (w *Worker) report(r *Result) {
	cfg := w.cfg
	shown := "/" + r.Path
	if cfg.ExpandURL {
		shown = r.URL
	}

	switch {
	case r.Success():
		cfg.Log.Infof("OK %d %s", r.StatusCode, shown)
	case cfg.PrintFails:
		cfg.Log.Warnf("ERR %d %s", r.StatusCode, shown)
	default:
		return
	}

	if c := cfg.Counters; c != nil {
		c.Reported.Add(1)
	}
	if cfg.Sink != nil {
		cfg.Sink.Record(r)
	}
}

func (w *Worker) countError() {
	if c := w.cfg.Counters; c != nil {
		c.Errors.Add(1)
	}
}
