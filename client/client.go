// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package client

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/z5labs/typedapi/apierr"
	"github.com/z5labs/typedapi/codec"
	"github.com/z5labs/typedapi/router"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// DefaultBasePath is the path every endpoint is served under.
const DefaultBasePath = "/api"

// Options holds the configuration of a [Client] or a single call.
type Options struct {
	format        codec.Codec
	http          *http.Client
	header        http.Header
	trailingSlash bool
	basePath      string
}

// Option configures a [Client] or, when passed to [Do] or [DoRaw], a single
// call.
type Option interface {
	ApplyClientOption(*Options)
}

type optionFunc func(*Options)

func (f optionFunc) ApplyClientOption(o *Options) {
	f(o)
}

// WithFormat sets the wire format used for request bodies and asked for in
// the Accept header. The default is [codec.JSON].
func WithFormat(c codec.Codec) Option {
	return optionFunc(func(o *Options) {
		o.format = c
	})
}

// WithHTTPClient sets the [http.Client] requests are sent with.
func WithHTTPClient(hc *http.Client) Option {
	return optionFunc(func(o *Options) {
		o.http = hc
	})
}

// WithHeader adds a header to every request.
func WithHeader(name, value string) Option {
	return optionFunc(func(o *Options) {
		o.header.Add(name, value)
	})
}

// WithTrailingSlash appends a slash to every request path.
func WithTrailingSlash(enabled bool) Option {
	return optionFunc(func(o *Options) {
		o.trailingSlash = enabled
	})
}

// WithBasePath sets the path endpoints are served under. The default is
// [DefaultBasePath].
func WithBasePath(p string) Option {
	return optionFunc(func(o *Options) {
		o.basePath = p
	})
}

// Client holds the base URL and default options of an API.
type Client struct {
	base *url.URL
	opts Options
}

// New returns a [Client] for the API served at baseURL, which must be an
// absolute URL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}
	if !u.IsAbs() || u.Host == "" {
		return nil, fmt.Errorf("client: base url must be absolute: %q", baseURL)
	}

	o := Options{
		format:   codec.JSON,
		header:   make(http.Header),
		basePath: DefaultBasePath,
		http: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
	for _, opt := range opts {
		opt.ApplyClientOption(&o)
	}

	return &Client{
		base: u,
		opts: o,
	}, nil
}

func (c *Client) options(opts ...Option) Options {
	o := c.opts
	o.header = c.opts.header.Clone()
	for _, opt := range opts {
		opt.ApplyClientOption(&o)
	}
	return o
}

// Call identifies the handler a request targets.
type Call struct {
	// Endpoint is the endpoint identifier, e.g. "users/[id]".
	Endpoint string

	// Verb is the verb the handler is exported as.
	Verb string

	// Method is the HTTP method to send. It is required when Verb is
	// [router.All] and ignored otherwise.
	Method string

	// Params holds the values of the endpoint's path parameters.
	Params map[string]string

	// NoInput is set when the handler takes no input.
	NoInput bool
}

// Target is a resolved [Call].
type Target struct {
	Method string
	URL    *url.URL
}

// MissingParamError is returned when a [Call] lacks the value of one of
// its endpoint's path parameters.
type MissingParamError struct {
	Endpoint string
	Param    string
}

// Error implements the [error] interface.
func (e MissingParamError) Error() string {
	return fmt.Sprintf("client: missing value for parameter %q of endpoint %q", e.Param, e.Endpoint)
}

// Resolve returns the HTTP method and URL call is sent to.
//
// Calls to an [router.All] handler must set Method, otherwise an
// [apierr.MissingHTTPVerb] error is returned. A Method which is not an
// uppercase HTTP method yields [apierr.IncorrectHTTPVerb].
func (c *Client) Resolve(call Call, opts ...Option) (Target, error) {
	return c.resolve(call, c.options(opts...))
}

func (c *Client) resolve(call Call, o Options) (Target, error) {
	e, err := router.ParseEndpoint(call.Endpoint)
	if err != nil {
		return Target{}, err
	}
	display := "/" + e.String()

	method := call.Verb
	if call.Verb == router.All {
		if call.Method == "" {
			return Target{}, apierr.NewMissingHTTPVerb(display)
		}
		method = call.Method
	}
	if !router.IsMethod(method) {
		return Target{}, apierr.NewIncorrectHTTPVerb(method, display)
	}

	elems := make([]string, 0, len(e.Segments)+1)
	if bp := strings.Trim(o.basePath, "/"); bp != "" {
		elems = append(elems, bp)
	}
	for _, seg := range e.Segments {
		if seg.Kind == router.Static {
			elems = append(elems, url.PathEscape(seg.Name))
			continue
		}

		value, ok := call.Params[seg.Name]
		if !ok || value == "" {
			return Target{}, MissingParamError{Endpoint: e.String(), Param: seg.Name}
		}
		if seg.Kind == router.Param {
			elems = append(elems, url.PathEscape(value))
			continue
		}
		for part := range strings.SplitSeq(strings.Trim(value, "/"), "/") {
			elems = append(elems, url.PathEscape(part))
		}
	}

	u := c.base.JoinPath(elems...)
	if !strings.HasPrefix(u.Path, "/") {
		u.Path = "/" + u.Path
		if u.RawPath != "" {
			u.RawPath = "/" + u.RawPath
		}
	}
	if o.trailingSlash && !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
		if u.RawPath != "" {
			u.RawPath += "/"
		}
	}
	return Target{Method: method, URL: u}, nil
}
