package httpclient

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// Response is the subset of an HTTP response the harvester consumes.
type Response interface {
	StatusCode() int
	Body() []byte
	Header(name string) string
}

// Client issues GET requests with per-request headers and a fixed timeout.
type Client interface {
	Get(ctx context.Context, url string, headers map[string]string) (Response, error)
}

// restyClient wraps a resty client behind the Client interface.
type restyClient struct {
	client *resty.Client
}

// NewRestyClient returns a Client backed by resty with the given timeout.
func NewRestyClient(timeout time.Duration) Client {
	c := resty.New().
		SetTimeout(timeout).
		SetRedirectPolicy(resty.FlexibleRedirectPolicy(5))
	return &restyClient{client: c}
}

// Get performs a GET request against url with the supplied headers.
func (c *restyClient) Get(ctx context.Context, url string, headers map[string]string) (Response, error) {
	req := c.client.R().SetContext(ctx)
	if len(headers) > 0 {
		req.SetHeaders(headers)
	}

	resp, err := req.Get(url)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", url, err)
	}
	return &restyResponse{resp: resp}, nil
}

// restyResponse adapts resty.Response to the Response interface.
type restyResponse struct {
	resp *resty.Response
}

func (r *restyResponse) StatusCode() int { return r.resp.StatusCode() }
func (r *restyResponse) Body() []byte    { return r.resp.Body() }

func (r *restyResponse) Header(name string) string {
	return r.resp.Header().Get(name)
}
