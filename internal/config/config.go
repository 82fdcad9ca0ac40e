package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
)

// DefaultSendTimeout bounds how long the feeder waits for any worker to take
// the next word before giving up on the run.
const DefaultSendTimeout = 20 * time.Second

// Options holds all configuration for a dirprobe scan.
type Options struct {
	// Target
	URL               string
	WordlistPath      string // empty = embedded, "-" = stdin
	Extensions        []string
	DefaultExtensions bool

	// Performance
	Threads          int
	Timeout          time.Duration // per request, 0 = none
	Delay            time.Duration // pause between words
	Rate             float64       // requests per second across all workers, 0 = unlimited
	AdaptiveThrottle bool
	QueueSize        int
	SendTimeout      time.Duration

	// Classification
	IgnoreCodes   []int
	IncludeStatus []int
	ExcludeSize   []int
	PrintFails    bool
	ExpandURL     bool

	// HTTP
	Gzip      bool
	Username  string
	Password  string
	UserAgent string
	Headers   map[string]string
	Proxy     string

	// RequestFile is a raw captured request that seeds the target and
	// headers. Explicit flags win over its values.
	RequestFile string

	// Output
	OutputFile   string
	OutputFormat string // "text", "json", "csv"
	SortBy       string // "", "status", "path", "size"
	LogFile      string
	Verbose      int
	Silent       bool
	NoColor      bool
	OnResultCmd  string

	// Resume
	ResumeFile string
}

// Normalize fills defaults and canonicalizes the target. A target without a
// scheme gets http://, and the path always ends in "/" so words resolve
// beneath it rather than replacing its last segment.
func (o *Options) Normalize() {
	o.URL = strings.TrimSpace(o.URL)
	if o.URL != "" && !strings.HasPrefix(o.URL, "http://") && !strings.HasPrefix(o.URL, "https://") {
		o.URL = "http://" + o.URL
	}
	if u, err := url.Parse(o.URL); err == nil && u.Host != "" && !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
		u.RawPath = ""
		o.URL = u.String()
	}
	if o.Threads < 1 {
		o.Threads = 1
	}
	if o.QueueSize < 1 {
		o.QueueSize = 1
	}
	if o.SendTimeout <= 0 {
		o.SendTimeout = DefaultSendTimeout
	}
	if o.OutputFormat == "" {
		o.OutputFormat = "text"
	}
}

// Validate reports every problem with the options at once.
func (o *Options) Validate() error {
	var errs *multierror.Error

	if o.URL == "" {
		errs = multierror.Append(errs, fmt.Errorf("target URL required"))
	} else if u, err := url.Parse(o.URL); err != nil {
		errs = multierror.Append(errs, fmt.Errorf("invalid target URL %q: %w", o.URL, err))
	} else if u.Host == "" {
		errs = multierror.Append(errs, fmt.Errorf("target URL %q has no host", o.URL))
	}

	if o.Timeout < 0 {
		errs = multierror.Append(errs, fmt.Errorf("--timeout must not be negative"))
	}
	if o.Delay < 0 {
		errs = multierror.Append(errs, fmt.Errorf("--delay must not be negative"))
	}
	if o.Rate < 0 {
		errs = multierror.Append(errs, fmt.Errorf("--rate must not be negative"))
	}
	for _, code := range append(append([]int{}, o.IgnoreCodes...), o.IncludeStatus...) {
		if code < 100 || code > 999 {
			errs = multierror.Append(errs, fmt.Errorf("invalid status code %d", code))
		}
	}
	if len(o.IncludeStatus) > 0 && len(o.IgnoreCodes) > 0 {
		errs = multierror.Append(errs, fmt.Errorf("--include-status and --ignore-code are mutually exclusive"))
	}
	if o.Password != "" && o.Username == "" {
		errs = multierror.Append(errs, fmt.Errorf("--password requires --username"))
	}
	switch o.OutputFormat {
	case "", "text", "json", "csv":
	default:
		errs = multierror.Append(errs, fmt.Errorf("--format must be one of: text, json, csv"))
	}
	switch o.SortBy {
	case "", "status", "path", "size":
	default:
		errs = multierror.Append(errs, fmt.Errorf("--sort must be one of: status, path, size"))
	}
	if o.ResumeFile != "" && o.WordlistPath == "-" {
		errs = multierror.Append(errs, fmt.Errorf("--resume-file cannot be used with a word list on stdin"))
	}

	return errs.ErrorOrNil()
}
