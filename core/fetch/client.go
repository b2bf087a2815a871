package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"content-importer/core/retry"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %d", e.URL, e.Code)
}

// Temporary reports whether the server may answer differently later.
func (e *StatusError) Temporary() bool {
	return e.Code == fiber.StatusTooManyRequests || e.Code >= 500
}

// ErrTooLarge is returned when a response exceeds Config.MaxBytes.
var ErrTooLarge = errors.New("response body too large")

type requestError struct {
	url string
	err error
}

func (e *requestError) Error() string { return fmt.Sprintf("GET %s: %v", e.url, e.err) }
func (e *requestError) Unwrap() error { return e.err }

// Client downloads remote assets with the fiber HTTP agent.
type Client struct {
	cfg    Config
	logger *zap.Logger
}

// New creates a fetch client.
func New(cfg Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.TimeoutSeconds <= 0 {
		cfg.TimeoutSeconds = 30
	}
	if cfg.Attempts <= 0 {
		cfg.Attempts = 1
	}
	return &Client{cfg: cfg, logger: logger.With(zap.String("component", "fetch"))}
}

// Fetch downloads rawURL and returns the body. Network errors, 429 and 5xx
// responses are retried up to Config.Attempts times.
func (c *Client) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("invalid asset url %q", rawURL)
	}

	policy := retry.Policy{MaxAttempts: c.cfg.Attempts, BaseDelay: 500 * time.Millisecond, MaxDelay: 5 * time.Second}

	var body []byte
	err = retry.Do(ctx, policy, temporary,
		func(attempt int, wait time.Duration, err error) {
			c.logger.Debug("Retrying download",
				zap.String("url", rawURL),
				zap.Int("attempt", attempt),
				zap.Duration("wait", wait),
				zap.Error(err))
		},
		func(int) error {
			var getErr error
			body, getErr = c.get(rawURL)
			return getErr
		})
	if err != nil {
		return nil, err
	}
	return body, nil
}

func (c *Client) get(rawURL string) ([]byte, error) {
	a := fiber.Get(rawURL).
		Timeout(time.Duration(c.cfg.TimeoutSeconds) * time.Second).
		MaxRedirectsCount(5)
	if c.cfg.UserAgent != "" {
		a.UserAgent(c.cfg.UserAgent)
	}
	if c.cfg.Referer != "" {
		a.Referer(c.cfg.Referer)
	}

	code, body, errs := a.Bytes()
	if len(errs) > 0 {
		return nil, &requestError{url: rawURL, err: errors.Join(errs...)}
	}
	if code < 200 || code > 299 {
		return nil, &StatusError{URL: rawURL, Code: code}
	}
	if c.cfg.MaxBytes > 0 && len(body) > c.cfg.MaxBytes {
		return nil, fmt.Errorf("GET %s: %w (%d bytes)", rawURL, ErrTooLarge, len(body))
	}
	return body, nil
}

func temporary(err error) bool {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Temporary()
	}
	var reqErr *requestError
	return errors.As(err, &reqErr)
}
