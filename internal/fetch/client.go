package fetch

import (
	"context"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type Options struct {
	BaseURL     string
	Timeout     time.Duration // per attempt, default 30s
	MaxAttempts int           // default 3
	BaseDelay   time.Duration // default 1s
	Header      http.Header   // sent on every request
	Online      func() bool   // optional connectivity probe
}

// Client is a retrying HTTP client for JSON APIs.
type Client struct {
	baseURL    string
	httpClient *http.Client
	policy     Policy
	header     http.Header
	online     func() bool
}

func New(opts Options) *Client {
	if opts.Timeout == 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.MaxAttempts == 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	if opts.BaseDelay == 0 {
		opts.BaseDelay = DefaultBaseDelay
	}

	return &Client{
		baseURL:    opts.BaseURL,
		httpClient: &http.Client{},
		policy: Policy{
			MaxAttempts: opts.MaxAttempts,
			BaseDelay:   opts.BaseDelay,
			Timeout:     opts.Timeout,
		},
		header: opts.Header,
		online: opts.Online,
	}
}

// GetJSON fetches path (joined to the base URL unless already absolute) and
// decodes the response body into out. Malformed bodies are surfaced as
// errors, never retried.
func (c *Client) GetJSON(ctx context.Context, path string, out any) error {
	body, err := Do(ctx, c.policy, c.online, func(ctx context.Context) ([]byte, error) {
		return c.get(ctx, path)
	})
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return errors.Wrap(err, "malformed response body")
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	url := path
	if c.baseURL != "" && !strings.HasPrefix(path, "http") {
		url = c.baseURL + path
	}

	log.Printf("GET %s", url)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}
	for key, values := range c.header {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			log.Printf("failed to close body: %v", err)
		}
	}()

	if resp.StatusCode > 299 {
		return nil, &StatusError{URL: url, Status: resp.Status, StatusCode: resp.StatusCode}
	}
	return io.ReadAll(resp.Body)
}
