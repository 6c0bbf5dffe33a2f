package registry

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog"
)

// DefaultRetryMax is the number of retries used by the CLI for transient registry failures.
const DefaultRetryMax = 3

// userAgent is sent with every request; crates.io rejects anonymous clients.
const userAgent = "oneup (https://github.com/circlesac/oneup)"

// maxBody caps registry responses. Large npm packages produce documents of tens of megabytes.
const maxBody = 256 << 20

// ClientOptions configures the HTTP transport shared by all registry clients.
type ClientOptions struct {
	Logger   zerolog.Logger
	RetryMax int
	Timeout  time.Duration
}

// retryLogger implements the retryablehttp.LeveledLogger interface on top of zerolog.
type retryLogger struct {
	log zerolog.Logger
}

func (l *retryLogger) Error(msg string, keysAndValues ...interface{}) {
	l.log.Warn().Fields(keysAndValues).Msg(msg)
}

func (l *retryLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (l *retryLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.log.Trace().Fields(keysAndValues).Msg(msg)
}

func (l *retryLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.log.Warn().Fields(keysAndValues).Msg(msg)
}

type httpClient struct {
	client *retryablehttp.Client
	log    zerolog.Logger
}

func newHTTPClient(opts ClientOptions) *httpClient {
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	rc := retryablehttp.NewClient()
	rc.HTTPClient.Timeout = timeout
	rc.RetryMax = opts.RetryMax
	rc.RetryWaitMin = 500 * time.Millisecond
	rc.RetryWaitMax = 5 * time.Second
	rc.Logger = &retryLogger{log: opts.Logger}
	return &httpClient{client: rc, log: opts.Logger}
}

// get performs a GET and returns the status and body. Transport failures, including
// exhausted retries on 5xx answers, are reported as ErrUnavailable.
func (c *httpClient) get(ctx context.Context, url string, header http.Header) (int, []byte, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: building request for %s: %v", ErrUnavailable, url, err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("User-Agent", userAgent)

	c.log.Debug().Str("url", url).Msg("registry request")
	resp, err := c.client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: GET %s: %v", ErrUnavailable, url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("%w: reading %s: %v", ErrUnavailable, url, err)
	}
	c.log.Debug().Str("url", url).Int("status", resp.StatusCode).Int("bytes", len(body)).Msg("registry response")
	return resp.StatusCode, body, nil
}

// statusError maps unexpected HTTP statuses to registry errors.
func statusError(registryURL string, status int) error {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %w for %s (HTTP %d)", ErrUnavailable, ErrUnauthorized, registryURL, status)
	}
	return fmt.Errorf("%w: %s answered HTTP %d", ErrUnavailable, registryURL, status)
}
