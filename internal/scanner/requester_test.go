package scanner

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func newTestRequester(t *testing.T, target string, mutate func(*ClientOptions)) *Requester {
	t.Helper()
	opts := ClientOptions{Target: mustParse(t, target), Timeout: 5 * time.Second, MaxConns: 4}
	if mutate != nil {
		mutate(&opts)
	}
	r, err := NewRequester(opts)
	require.NoError(t, err)
	return r
}

// hopServer redirects /hop/N to /hop/N+1 until N reaches hops.
func hopServer(hops int) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n, err := strconv.Atoi(strings.TrimPrefix(r.URL.Path, "/hop/"))
		if err != nil {
			http.NotFound(w, r)
			return
		}
		if n < hops {
			http.Redirect(w, r, fmt.Sprintf("/hop/%d", n+1), http.StatusFound)
			return
		}
		fmt.Fprint(w, "arrived")
	}))
}

func TestRedirectChainWithinCap(t *testing.T) {
	srv := hopServer(MaxRedirects)
	defer srv.Close()

	r := newTestRequester(t, srv.URL+"/", nil)
	resp, err := r.Get(context.Background(), srv.URL+"/hop/0")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, srv.URL+"/hop/5", resp.URL)
	assert.Equal(t, int64(len("arrived")), resp.ContentLength)
}

func TestRedirectChainOverCapFails(t *testing.T) {
	srv := hopServer(MaxRedirects + 1)
	defer srv.Close()

	r := newTestRequester(t, srv.URL+"/", nil)
	_, err := r.Get(context.Background(), srv.URL+"/hop/0")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTooManyRedirects)
}

func TestRedirectOffHostNotFollowed(t *testing.T) {
	other := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("off-host redirect was followed to %s", r.URL)
	}))
	defer other.Close()
	otherURL := mustParse(t, other.URL)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/start":
			http.Redirect(w, r, "/mid", http.StatusFound)
		case "/mid":
			// Same listener, different host name.
			http.Redirect(w, r, "http://localhost:"+otherURL.Port()+"/away", http.StatusMovedPermanently)
		}
	}))
	defer srv.Close()

	// The target host is 127.0.0.1, so localhost counts as off-host.
	r := newTestRequester(t, srv.URL+"/", nil)
	resp, err := r.Get(context.Background(), srv.URL+"/start")
	require.NoError(t, err)
	assert.Equal(t, http.StatusMovedPermanently, resp.StatusCode)
	assert.Equal(t, srv.URL+"/mid", resp.URL)
}

func TestRequesterHeaders(t *testing.T) {
	type seen struct {
		ua, encoding, custom string
		user, pass          string
		authOK              bool
	}
	got := make(chan seen, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, p, ok := r.BasicAuth()
		got <- seen{
			ua:       r.UserAgent(),
			encoding: r.Header.Get("Accept-Encoding"),
			custom:   r.Header.Get("X-Scan"),
			user:     u,
			pass:     p,
			authOK:   ok,
		}
	}))
	defer srv.Close()

	tests := []struct {
		name   string
		mutate func(*ClientOptions)
		check  func(t *testing.T, s seen)
	}{
		{
			name:   "defaults",
			mutate: nil,
			check: func(t *testing.T, s seen) {
				assert.True(t, strings.HasPrefix(s.ua, "dirprobe/"))
				assert.Empty(t, s.encoding, "gzip is off by default")
				assert.False(t, s.authOK)
			},
		},
		{
			name: "gzip, agent, headers and auth",
			mutate: func(o *ClientOptions) {
				o.Gzip = true
				o.UserAgent = "probe-test"
				o.Headers = map[string]string{"X-Scan": "1"}
				o.Username = "alice"
				o.Password = "s3cret"
			},
			check: func(t *testing.T, s seen) {
				assert.Equal(t, "probe-test", s.ua)
				assert.Equal(t, "gzip", s.encoding)
				assert.Equal(t, "1", s.custom)
				assert.True(t, s.authOK)
				assert.Equal(t, "alice", s.user)
				assert.Equal(t, "s3cret", s.pass)
			},
		},
		{
			name:   "username without password",
			mutate: func(o *ClientOptions) { o.Username = "bob" },
			check: func(t *testing.T, s seen) {
				assert.True(t, s.authOK)
				assert.Equal(t, "bob", s.user)
				assert.Empty(t, s.pass)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRequester(t, srv.URL+"/", tt.mutate)
			_, err := r.Get(context.Background(), srv.URL+"/x")
			require.NoError(t, err)
			tt.check(t, <-got)
		})
	}
}

func TestNewRequesterErrors(t *testing.T) {
	_, err := NewRequester(ClientOptions{})
	assert.Error(t, err)

	_, err = NewRequester(ClientOptions{Target: mustParse(t, "http://example.com/"), Proxy: "http://[::1"})
	assert.Error(t, err)
}

func TestRequesterTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	r := newTestRequester(t, addr+"/", nil)
	_, err := r.Get(context.Background(), addr+"/admin")
	assert.Error(t, err)
}
