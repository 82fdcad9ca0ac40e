package scanner

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/maxvaer/dirprobe/pkg/version"
)

// MaxRedirects caps how many same-host redirects a single probe follows.
const MaxRedirects = 5

// ErrTooManyRedirects is returned when a probe exceeds MaxRedirects.
var ErrTooManyRedirects = errors.New("too many redirects")

// Getter performs a GET request for an absolute URL. Implementations must
// be safe for concurrent use by every worker.
type Getter interface {
	Get(ctx context.Context, rawURL string) (*Response, error)
}

// Response holds what a probe needs from an HTTP response.
type Response struct {
	StatusCode    int
	URL           string // final URL after redirects
	ContentLength int64  // bytes actually read
	Duration      time.Duration
}

// ClientOptions configures the HTTP client shared by all workers.
type ClientOptions struct {
	Target    *url.URL // redirects are only followed while on this host
	Gzip      bool
	Timeout   time.Duration // 0 = no timeout
	Username  string
	Password  string
	UserAgent string
	Headers   map[string]string
	Proxy     string
	MaxConns  int
}

// Requester wraps an HTTP client for directory probing.
type Requester struct {
	client    *http.Client
	headers   map[string]string
	userAgent string
	username  string
	password  string
}

// NewRequester creates a Requester from the provided options.
func NewRequester(opts ClientOptions) (*Requester, error) {
	if opts.Target == nil || opts.Target.Host == "" {
		return nil, fmt.Errorf("requester needs a target with a host")
	}

	transport := &http.Transport{
		TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		DialContext: (&net.Dialer{
			Timeout: opts.Timeout,
		}).DialContext,
		DisableCompression:  !opts.Gzip,
		MaxIdleConnsPerHost: opts.MaxConns,
		MaxIdleConns:        opts.MaxConns,
	}

	if opts.Proxy != "" {
		proxyURL, err := url.Parse(opts.Proxy)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy URL %q: %w", opts.Proxy, err)
		}
		transport.Proxy = http.ProxyURL(proxyURL)
	}

	client := &http.Client{
		Transport:     transport,
		Timeout:       opts.Timeout,
		CheckRedirect: sameHostRedirects(opts.Target.Hostname()),
	}

	ua := opts.UserAgent
	if ua == "" {
		ua = "dirprobe/" + version.Version
	}

	return &Requester{
		client:    client,
		headers:   opts.Headers,
		userAgent: ua,
		username:  opts.Username,
		password:  opts.Password,
	}, nil
}

// sameHostRedirects follows redirects while they stay on host. An off-host
// redirect is not followed and the redirect response itself is returned.
func sameHostRedirects(host string) func(*http.Request, []*http.Request) error {
	return func(req *http.Request, via []*http.Request) error {
		if len(via) > MaxRedirects {
			return fmt.Errorf("stopped after %d redirects: %w", MaxRedirects, ErrTooManyRedirects)
		}
		if req.URL.Hostname() != host {
			return http.ErrUseLastResponse
		}
		return nil
	}
}

// Get sends a GET request to rawURL and drains the response body.
func (r *Requester) Get(ctx context.Context, rawURL string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", r.userAgent)
	for k, v := range r.headers {
		req.Header.Set(k, v)
	}
	if r.username != "" {
		req.SetBasicAuth(r.username, r.password)
	}

	start := time.Now()
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	n, err := io.Copy(io.Discard, resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body for %s: %w", rawURL, err)
	}

	return &Response{
		StatusCode:    resp.StatusCode,
		URL:           resp.Request.URL.String(),
		ContentLength: n,
		Duration:      time.Since(start),
	}, nil
}
