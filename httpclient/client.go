// Package httpclient provides the outbound HTTP capability modules resolve
// through the registry, and its default resty-backed implementation.
package httpclient

import (
	"context"
	"errors"
	"net/http"

	"resty.dev/v3"
)

// ErrNotStarted is returned by requests made before Start or after Stop.
var ErrNotStarted = errors.New("httpclient: module not started")

// Response is the raw response of a request.
type Response = resty.Response

// Client sends requests relative to a fixed base URL. An empty endpoint
// means "/". Body-bearing verbs encode a non-nil body as JSON.
type Client interface {
	BaseURL() string
	Get(ctx context.Context, endpoint string, opts ...RequestOption) (*Response, error)
	Post(ctx context.Context, endpoint string, body any, opts ...RequestOption) (*Response, error)
	Put(ctx context.Context, endpoint string, body any, opts ...RequestOption) (*Response, error)
	Delete(ctx context.Context, endpoint string, opts ...RequestOption) (*Response, error)
	Patch(ctx context.Context, endpoint string, body any, opts ...RequestOption) (*Response, error)
}

type requestOptions struct {
	headers map[string]string
	cookies map[string]string
}

type RequestOption func(*requestOptions)

// WithHeaders adds headers to a single request.
func WithHeaders(h map[string]string) RequestOption {
	return func(o *requestOptions) {
		for k, v := range h {
			o.headers[k] = v
		}
	}
}

// WithCookies adds cookies to a single request.
func WithCookies(c map[string]string) RequestOption {
	return func(o *requestOptions) {
		for k, v := range c {
			o.cookies[k] = v
		}
	}
}

func buildOptions(opts []RequestOption) requestOptions {
	o := requestOptions{headers: map[string]string{}, cookies: map[string]string{}}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (o requestOptions) httpCookies() []*http.Cookie {
	cookies := make([]*http.Cookie, 0, len(o.cookies))
	for name, value := range o.cookies {
		cookies = append(cookies, &http.Cookie{Name: name, Value: value})
	}
	return cookies
}
