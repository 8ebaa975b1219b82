package restclient

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
)

const userAgent = "CryptoGraph/1.0"

// Options tunes a Client. Zero values fall back to defaults.
type Options struct {
	Timeout    time.Duration
	RetryCount int
	Proxy      string
	Headers    map[string]string
}

// Client is a thin JSON wrapper around resty bound to one base URL.
type Client struct {
	client *resty.Client
}

func New(baseURL string, opts Options) *Client {
	baseURL = strings.TrimSuffix(baseURL, "/")
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.RetryCount < 0 {
		opts.RetryCount = 0
	}

	c := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(opts.Timeout).
		SetRetryCount(opts.RetryCount).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(10 * time.Second).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", userAgent).
		AddRetryCondition(func(resp *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			return resp.StatusCode() == http.StatusTooManyRequests || resp.StatusCode() >= 500
		}).
		SetRetryAfter(func(_ *resty.Client, resp *resty.Response) (time.Duration, error) {
			if resp != nil && resp.StatusCode() == http.StatusTooManyRequests {
				if s, err := strconv.Atoi(resp.Header().Get("Retry-After")); err == nil && s > 0 {
					return time.Duration(s) * time.Second, nil
				}
			}
			return 0, nil
		})
	if opts.Proxy != "" {
		c.SetProxy(opts.Proxy)
	}
	for k, v := range opts.Headers {
		c.SetHeader(k, v)
	}
	return &Client{client: c}
}

// Get issues a GET and decodes a 2xx JSON body into out.
func (c *Client) Get(ctx context.Context, path string, params map[string]string, out any) error {
	r := c.client.R().SetContext(ctx).SetQueryParams(params)
	if out != nil {
		r.SetResult(out).ForceContentType("application/json")
	}
	return check(r.Get(path))
}

// PostJSON sends body as JSON and decodes a 2xx JSON reply into out.
func (c *Client) PostJSON(ctx context.Context, path string, headers map[string]string, body, out any) error {
	r := c.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeaders(headers).
		SetBody(body)
	if out != nil {
		r.SetResult(out).ForceContentType("application/json")
	}
	return check(r.Post(path))
}

// StatusError carries the status and body of a non-2xx reply.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return "http " + strconv.Itoa(e.Status) + ": " + e.Body
}

func check(resp *resty.Response, err error) error {
	if err != nil {
		return errors.Wrap(err, "request failed")
	}
	if resp.IsSuccess() {
		return nil
	}
	body := strings.TrimSpace(string(resp.Body()))
	if len(body) > 512 {
		body = body[:512]
	}
	return errors.WithStack(&StatusError{Status: resp.StatusCode(), Body: body})
}
