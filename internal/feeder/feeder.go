package feeder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/maxvaer/dirprobe/internal/dispatch"
	"github.com/maxvaer/dirprobe/internal/logging"
	"github.com/maxvaer/dirprobe/internal/wordlist"
)

// Gate blocks the feeder while a scan is paused. scanner.Pauser implements it.
type Gate interface {
	Wait(ctx context.Context) error
}

// Options tune the feeding loop. The zero value sends without pacing and
// never gives up on a slow pool.
type Options struct {
	// SendTimeout bounds how long a single word may wait for queue space.
	SendTimeout time.Duration
	// Delay returns the pause taken after each accepted word.
	Delay func() time.Duration
	Pauser Gate
	// Skip reports words that must not be sent, such as words finished by
	// an earlier run.
	Skip func(word string) bool
}

// Stats describe one feeding run.
type Stats struct {
	Sent     int
	Skipped  int
	TimedOut bool
}

// Feed streams words from src into q until the source is exhausted, ctx
// ends, or no worker accepts a word within SendTimeout. The send side of q
// is always closed on return so the workers can drain and exit.
//
// A send timeout is not an error: the words already queued are still
// processed. Read errors are returned as is.
func Feed(ctx context.Context, src *wordlist.Source, q *dispatch.Queue[string], opts Options, log logging.Logger) (Stats, error) {
	defer q.CloseSend()

	var stats Stats
	for {
		line, err := src.Next()
		if errors.Is(err, io.EOF) {
			log.Debugf("word list %s exhausted after %d words", src.Name, stats.Sent)
			return stats, nil
		}
		if err != nil {
			return stats, err
		}

		word := strings.TrimSpace(line)
		if word == "" || strings.HasPrefix(word, "#") {
			continue
		}
		if opts.Skip != nil && opts.Skip(word) {
			stats.Skipped++
			continue
		}

		if opts.Pauser != nil {
			if err := opts.Pauser.Wait(ctx); err != nil {
				return stats, err
			}
		}

		timedOut, err := send(ctx, q, word, opts.SendTimeout)
		switch {
		case timedOut:
			log.Warnf("no worker accepted a word within %s, stopping", opts.SendTimeout)
			stats.TimedOut = true
			return stats, nil
		case errors.Is(err, dispatch.ErrClosed):
			log.Debugf("queue closed by the workers, stopping")
			return stats, nil
		case err != nil:
			return stats, err
		}
		stats.Sent++
		log.Tracef("queued %s", word)

		if opts.Delay != nil {
			if err := sleep(ctx, opts.Delay()); err != nil {
				return stats, err
			}
		}
	}
}

// send reports timedOut only when the per-send deadline fired, not when the
// parent context ended.
func send(ctx context.Context, q *dispatch.Queue[string], word string, timeout time.Duration) (timedOut bool, err error) {
	if timeout <= 0 {
		return false, q.Send(ctx, word)
	}
	sendCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	err = q.Send(sendCtx, word)
	if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		return true, nil
	}
	if err != nil && ctx.Err() != nil {
		return false, fmt.Errorf("feeding %q: %w", word, ctx.Err())
	}
	return false, err
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
