package api

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/agentuity/hoopstats/logger"
	"github.com/cockroachdb/errors"
)

var (
	Version = "dev"
	Commit  = "unknown"
)

// DefaultTimeout bounds a single upstream request.
const DefaultTimeout = 15 * time.Second

// maxBodySize caps how much of an upstream response is read.
const maxBodySize = 32 << 20

// Fetcher retrieves a JSON document from an upstream provider.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (json.RawMessage, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, url string) (json.RawMessage, error)

func (f FetcherFunc) Fetch(ctx context.Context, url string) (json.RawMessage, error) {
	return f(ctx, url)
}

// Error describes a failed upstream request.
type Error struct {
	URL      string
	Method   string
	Status   int
	Body     string
	TheError error
}

func (e *Error) Error() string {
	if e == nil || e.TheError == nil {
		return ""
	}
	return e.TheError.Error()
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.TheError
}

func NewError(url, method string, status int, body string, err error) *Error {
	return &Error{
		URL:      url,
		Method:   method,
		Status:   status,
		Body:     body,
		TheError: err,
	}
}

// ErrNotJSON is wrapped by the error returned for a body that is not valid JSON.
var ErrNotJSON = errors.New("response is not valid JSON")

// Client is an HTTP Fetcher. It never retries; a failed request is reported
// once and the caller decides what to do.
type Client struct {
	client  *http.Client
	logger  logger.Logger
	timeout time.Duration
}

var _ Fetcher = (*Client)(nil)

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.client = hc
		}
	}
}

// WithTimeout sets the per-request timeout. Defaults to DefaultTimeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) { c.timeout = d }
}

func New(logger logger.Logger, opts ...ClientOption) *Client {
	c := &Client{
		client:  http.DefaultClient,
		logger:  logger.WithPrefix("[api]"),
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func UserAgent() string {
	gitSHA := Commit
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range info.Settings {
			if setting.Key == "vcs.revision" {
				gitSHA = setting.Value
			}
		}
	}
	return "hoopstats/" + Version + " (" + gitSHA + ")"
}

// safeBodyPreview returns a short, loggable preview of a response body.
// Binary or unknown content is summarized by size and hash.
func safeBodyPreview(body []byte, contentType string, maxChars int) string {
	if maxChars == 0 {
		maxChars = 200
	}
	lower := strings.ToLower(contentType)
	textual := contentType == "" || strings.Contains(lower, "json") || strings.HasPrefix(lower, "text/")
	if !textual {
		hash := sha256.Sum256(body)
		return fmt.Sprintf("<%s: %d bytes, sha256=%s>", contentType, len(body), hex.EncodeToString(hash[:8]))
	}
	bodyStr := string(body)
	if len(bodyStr) > maxChars {
		return bodyStr[:maxChars] + fmt.Sprintf("[truncated, total: %d chars]", len(bodyStr))
	}
	return bodyStr
}

// Fetch issues a GET for url and returns the decoded JSON document.
func (c *Client) Fetch(ctx context.Context, url string) (json.RawMessage, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, NewError(url, http.MethodGet, 0, "", errors.Wrap(err, "error creating request"))
	}
	req.Header.Set("User-Agent", UserAgent())
	req.Header.Set("Accept", "application/json")

	c.logger.Trace("sending request: GET %s", url)
	started := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, NewError(url, http.MethodGet, 0, "", errors.Wrap(err, "error sending request"))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, NewError(url, http.MethodGet, resp.StatusCode, "", errors.Wrap(err, "error reading response body"))
	}
	contentType := resp.Header.Get("Content-Type")
	c.logger.Debug("GET %s -> %s in %s", url, resp.Status, time.Since(started).Round(time.Millisecond))
	c.logger.Trace("response body: %s", safeBodyPreview(body, contentType, 200))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, NewError(url, http.MethodGet, resp.StatusCode, safeBodyPreview(body, contentType, 200),
			errors.Newf("request failed with status (%s)", resp.Status))
	}
	if !json.Valid(body) {
		return nil, NewError(url, http.MethodGet, resp.StatusCode, safeBodyPreview(body, contentType, 200),
			errors.Wrapf(ErrNotJSON, "decoding %s", url))
	}
	return json.RawMessage(body), nil
}
