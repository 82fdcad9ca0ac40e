package runner

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/maxvaer/dirprobe/internal/config"
	"github.com/maxvaer/dirprobe/internal/dispatch"
	"github.com/maxvaer/dirprobe/internal/feeder"
	"github.com/maxvaer/dirprobe/internal/filter"
	"github.com/maxvaer/dirprobe/internal/hook"
	"github.com/maxvaer/dirprobe/internal/logging"
	"github.com/maxvaer/dirprobe/internal/output"
	"github.com/maxvaer/dirprobe/internal/resume"
	"github.com/maxvaer/dirprobe/internal/scanner"
	"github.com/maxvaer/dirprobe/internal/wordlist"
	"github.com/maxvaer/dirprobe/pkg/version"
	"golang.org/x/time/rate"
)

// Summary describes a finished run.
type Summary struct {
	Feed     feeder.Stats
	Words    int64
	Requests int64
	Reported int64
	Errors   int64
	Duration time.Duration
}

// Run executes the scan pipeline: the word list is streamed into a bounded
// queue by the feeder while a fixed pool of workers probes every word.
// Per-word failures are logged and counted; only setup failures, read
// errors on the word list and fatal worker errors are returned.
func Run(ctx context.Context, opts *config.Options, log logging.Logger) (*Summary, error) {
	target, err := url.Parse(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("parsing target: %w", err)
	}

	// 1. Open the word list.
	src, err := wordlist.Open(opts.WordlistPath)
	if err != nil {
		return nil, err
	}
	defer src.Close()
	extensions := wordlist.Extensions(opts.Extensions, opts.DefaultExtensions)

	// 2. Create the HTTP requester.
	req, err := scanner.NewRequester(scanner.ClientOptions{
		Target:    target,
		Gzip:      opts.Gzip,
		Timeout:   opts.Timeout,
		Username:  opts.Username,
		Password:  opts.Password,
		UserAgent: opts.UserAgent,
		Headers:   opts.Headers,
		Proxy:     opts.Proxy,
		MaxConns:  opts.Threads,
	})
	if err != nil {
		return nil, fmt.Errorf("creating requester: %w", err)
	}

	// 3. Resume support.
	var state *resume.State
	if opts.ResumeFile != "" {
		state, err = resume.Load(opts.ResumeFile, opts.URL, src.Name)
		if err != nil {
			return nil, fmt.Errorf("loading resume file: %w", err)
		}
		if n := state.Len(); n > 0 {
			log.Infof("resuming: %d words already completed will be skipped", n)
		}
	}

	// 4. Result sinks: output file and hook.
	var sinks multiSink
	var recorder *output.Recorder
	if opts.OutputFile != "" {
		w, err := output.New(output.Options{
			Path:    opts.OutputFile,
			Format:  opts.OutputFormat,
			SortBy:  opts.SortBy,
			NoColor: opts.NoColor,
		})
		if err != nil {
			return nil, err
		}
		recorder, err = output.NewRecorder(w, log)
		if err != nil {
			w.Close()
			return nil, err
		}
		sinks = append(sinks, recorder)
	}
	if opts.OnResultCmd != "" {
		sinks = append(sinks, hook.NewRunner(opts.OnResultCmd, log))
	}

	printBanner(log, opts, src.Name, extensions)

	// 5. Build the worker configuration shared by the pool.
	throttler := scanner.NewThrottler(opts.Delay, opts.AdaptiveThrottle, log)
	var limiter *rate.Limiter
	if opts.Rate > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.Rate), 1)
	}
	counters := &scanner.Counters{}
	queue := dispatch.NewQueue[string](opts.QueueSize)

	cfg := &scanner.WorkerConfig{
		Client:     req,
		Target:     target,
		Extensions: extensions,
		Filter:     filter.Build(opts.IncludeStatus, opts.IgnoreCodes, opts.ExcludeSize),
		ExpandURL:  opts.ExpandURL,
		PrintFails: opts.PrintFails,
		Log:        log,
		Queue:      queue,
		Throttler:  throttler,
		Limiter:    limiter,
		Counters:   counters,
	}
	if len(sinks) > 0 {
		cfg.Sink = sinks
	}
	if state != nil {
		cfg.Completer = state
	}

	// 6. Start the pool and feed it.
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	d := dispatch.New(runCtx, cfg, scanner.NewWorker)
	if err := d.StartWorkers(opts.Threads); err != nil {
		return nil, err
	}
	log.Debugf("started %d workers", d.Size())

	feedOpts := feeder.Options{
		SendTimeout: opts.SendTimeout,
		Delay:       throttler.Delay,
	}
	if state != nil {
		feedOpts.Skip = state.IsCompleted
	}
	if opts.WordlistPath != wordlist.StdinPath {
		if pauser, restore := startStdinToggle(log); pauser != nil {
			defer restore()
			feedOpts.Pauser = pauser
		}
	}

	start := time.Now()
	feedStats, feedErr := feeder.Feed(d.Context(), src, queue, feedOpts, log)
	if feedErr != nil {
		// A read error aborts the whole run; in-flight requests are cancelled.
		cancel()
	}
	waitErr := d.FinishAndWait()

	summary := &Summary{
		Feed:     feedStats,
		Words:    counters.Words.Load(),
		Requests: counters.Requests.Load(),
		Reported: counters.Reported.Load(),
		Errors:   counters.Errors.Load(),
		Duration: time.Since(start),
	}
	log.Infof("finished: %d words, %d requests, %d reported, %d errors in %s",
		summary.Words, summary.Requests, summary.Reported, summary.Errors,
		summary.Duration.Round(time.Millisecond))
	if feedStats.Skipped > 0 {
		log.Infof("skipped %d words completed by an earlier run", feedStats.Skipped)
	}

	if recorder != nil {
		if err := recorder.Finish(summary.outputStats()); err != nil {
			log.Errorf("writing output footer: %v", err)
		}
	}

	runErr := firstError(ctx, waitErr, feedErr)
	if state != nil {
		finishResume(state, opts.ResumeFile, runErr != nil || feedStats.TimedOut, log)
	}
	return summary, runErr
}

// firstError prefers a fatal worker error over the feeder's. A run ended by
// the caller reports the interruption instead of the cancellation noise it
// caused downstream.
func firstError(ctx context.Context, waitErr, feedErr error) error {
	if waitErr != nil && !errors.Is(waitErr, context.Canceled) {
		return waitErr
	}
	if ctx.Err() != nil {
		return fmt.Errorf("scan interrupted: %w", ctx.Err())
	}
	return feedErr
}

func finishResume(state *resume.State, path string, incomplete bool, log logging.Logger) {
	if !incomplete {
		if err := state.Remove(); err != nil {
			log.Warnf("removing resume file: %v", err)
		}
		return
	}
	if err := state.Save(); err != nil {
		log.Errorf("saving resume file: %v", err)
		return
	}
	log.Infof("progress saved to %s, rerun with --resume-file to continue", path)
}

func (s *Summary) outputStats() output.Stats {
	st := output.Stats{
		Words:    s.Words,
		Requests: s.Requests,
		Reported: s.Reported,
		Errors:   s.Errors,
		Duration: s.Duration,
	}
	if secs := s.Duration.Seconds(); secs > 0 {
		st.RequestsPerSec = float64(s.Requests) / secs
	}
	return st
}

// multiSink hands each result to every sink in order.
type multiSink []scanner.Sink

func (m multiSink) Record(result *scanner.Result) {
	for _, s := range m {
		s.Record(result)
	}
}

func printBanner(log logging.Logger, opts *config.Options, source string, extensions []string) {
	log.Infof("dirprobe %s", version.Version)
	log.Infof("target: %s", opts.URL)
	log.Infof("word list: %s", source)
	log.Infof("threads: %d", opts.Threads)
	if len(extensions) > 0 {
		log.Infof("extensions: %s", strings.Join(extensions, ", "))
	}
	if opts.Delay > 0 || opts.Rate > 0 {
		log.Infof("pacing: %s delay, %.1f req/s limit", opts.Delay, opts.Rate)
	}
	log.Debugf("queue capacity %d, send timeout %s", opts.QueueSize, opts.SendTimeout)
}
