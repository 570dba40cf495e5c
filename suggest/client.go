package suggest

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/hashicorp/golang-lru/v2/expirable"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

const (
	DefaultRetryMax = 3
	DefaultTimeout  = 10 * time.Second
)

// Client fetches value suggestions for membership conditions from the
// dashboard backend.
type Client struct {
	baseURL string
	http    *retryablehttp.Client
	cache   *expirable.LRU[string, []string]
	logger  zerolog.Logger
}

// Option configures a Client.
type Option func(c *Client)

// WithRetryMax sets how many times a failed request is retried.
func WithRetryMax(retryMax int) Option {
	return func(c *Client) {
		c.http.RetryMax = retryMax
	}
}

// WithRetryWait bounds the backoff between attempts.
func WithRetryWait(minWait, maxWait time.Duration) Option {
	return func(c *Client) {
		c.http.RetryWaitMin = minWait
		c.http.RetryWaitMax = maxWait
	}
}

// WithTimeout bounds every single attempt, including reading the body.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.http.HTTPClient.Timeout = timeout
	}
}

// WithCache keeps up to size responses for ttl.
func WithCache(size int, ttl time.Duration) Option {
	return func(c *Client) {
		c.cache = expirable.NewLRU[string, []string](size, nil, ttl)
	}
}

// WithLogger routes request and retry logs to logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient returns a client for the suggestion service at baseURL.
// It retries DefaultRetryMax times and caches nothing unless WithCache is given.
func NewClient(baseURL string, opts ...Option) *Client {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = DefaultRetryMax
	retryClient.HTTPClient = &http.Client{
		Timeout: DefaultTimeout,
	}

	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    retryClient,
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.http.Logger = leveledLogger{logger: c.logger}
	return c
}

func cacheKey(fieldID, prefix string) string {
	return fieldID + "\x00" + prefix
}

// Suggest returns the values the backend proposes for fieldID starting with prefix.
func (c *Client) Suggest(ctx context.Context, fieldID, prefix string) ([]string, error) {
	if fieldID == "" {
		return nil, errors.New("field id is empty")
	}
	key := cacheKey(fieldID, prefix)
	if c.cache != nil {
		if values, ok := c.cache.Get(key); ok {
			return append([]string{}, values...), nil
		}
	}

	endpoint := c.baseURL + "/fields/" + url.PathEscape(fieldID) + "/suggestions?q=" + url.QueryEscape(prefix)
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, errors.Wrap(err, "build suggestion request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "fetch suggestions for field %s", fieldID)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "read suggestion response")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("fetch suggestions for field %s: unexpected status %d: %s", fieldID, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	values := []string{}
	if err := jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(body, &values); err != nil {
		return nil, errors.Wrap(err, "decode suggestion response")
	}
	if values == nil {
		values = []string{}
	}

	c.logger.Debug().
		Str("field", fieldID).
		Str("prefix", prefix).
		Int("suggestions", len(values)).
		Msg("suggestions fetched")

	if c.cache != nil {
		c.cache.Add(key, append([]string{}, values...))
	}
	return values, nil
}

// leveledLogger routes retryablehttp logs to zerolog.
type leveledLogger struct {
	logger zerolog.Logger
}

var _ retryablehttp.LeveledLogger = leveledLogger{}

func (l leveledLogger) Error(msg string, keysAndValues ...any) {
	l.logger.Error().Fields(keysAndValues).Msg(msg)
}

func (l leveledLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Info().Fields(keysAndValues).Msg(msg)
}

func (l leveledLogger) Debug(msg string, keysAndValues ...any) {
	l.logger.Debug().Fields(keysAndValues).Msg(msg)
}

func (l leveledLogger) Warn(msg string, keysAndValues ...any) {
	l.logger.Warn().Fields(keysAndValues).Msg(msg)
}
