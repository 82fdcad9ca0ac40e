package reqparse

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
)

// ErrNoHost is returned when the request names no host to scan.
var ErrNoHost = errors.New("request has no Host header")

// skipped are headers the scanner sets itself.
var skipped = map[string]bool{
	"Host":              true,
	"Content-Length":    true,
	"Accept-Encoding":   true,
	"Connection":        true,
	"User-Agent":        true,
	"Transfer-Encoding": true,
}

// Request is what a captured request (a Burp Suite export, say) contributes
// to a scan: the target root and the headers to replay.
type Request struct {
	Target    string // scheme://host/, the request path is dropped
	UserAgent string
	Headers   map[string]string
	// Username and Password come from a Basic Authorization header, which
	// is then left out of Headers.
	Username string
	Password string
}

// ParseFile reads a raw HTTP request from path.
func ParseFile(path string) (*Request, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening request file: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads one raw HTTP request. HTTP/2 request lines, as exported by
// intercepting proxies, are accepted and imply https.
func Parse(r io.Reader) (*Request, error) {
	br := bufio.NewReaderSize(r, 64*1024)
	line, err := br.ReadString('\n')
	if strings.TrimSpace(line) == "" {
		if err == nil || errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("request file is empty")
		}
		return nil, fmt.Errorf("reading request line: %w", err)
	}

	fields := strings.Fields(line)
	if len(fields) < 2 {
		return nil, fmt.Errorf("invalid request line: %q", strings.TrimSpace(line))
	}
	secure := true
	proto := "HTTP/1.1"
	if len(fields) >= 3 && strings.HasPrefix(strings.ToUpper(fields[2]), "HTTP/1") {
		proto = fields[2]
	}
	// Rebuild the request line so net/http accepts HTTP/2 exports and
	// missing versions.
	head := io.MultiReader(strings.NewReader(fields[0]+" "+fields[1]+" "+proto+"\r\n"), br)

	req, err := http.ReadRequest(bufio.NewReader(head))
	if err != nil {
		return nil, fmt.Errorf("parsing request: %w", err)
	}

	host := req.Host
	if req.URL.IsAbs() {
		host = req.URL.Host
		secure = req.URL.Scheme == "https"
	} else if strings.HasSuffix(host, ":80") {
		secure = false
	}
	if host == "" {
		return nil, ErrNoHost
	}

	scheme := "https"
	if !secure {
		scheme = "http"
	}
	out := &Request{
		Target:    scheme + "://" + host + "/",
		UserAgent: req.Header.Get("User-Agent"),
		Headers:   make(map[string]string),
	}
	if user, pass, ok := req.BasicAuth(); ok {
		out.Username, out.Password = user, pass
		req.Header.Del("Authorization")
	}
	for key, values := range req.Header {
		if skipped[key] {
			continue
		}
		out.Headers[key] = strings.Join(values, ", ")
	}
	return out, nil
}
