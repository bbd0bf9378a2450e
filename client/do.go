// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/z5labs/typedapi/apierr"
	"github.com/z5labs/typedapi/codec"

	"github.com/z5labs/sdk-go/try"
)

// DoRaw sends call and returns the response as is. The caller must close
// the response body.
//
// GET requests carry input in the query string. Other requests carry it as
// a body encoded in the configured format, except for []byte and
// [io.Reader] input which is sent unchanged.
func DoRaw(ctx context.Context, c *Client, call Call, input any, opts ...Option) (*http.Response, error) {
	o := c.options(opts...)
	target, err := c.resolve(call, o)
	if err != nil {
		return nil, err
	}

	if call.NoInput {
		input = nil
	}

	var body io.Reader
	contentType := ""
	if input != nil && target.Method == http.MethodGet {
		values, err := codec.DataToParams(input)
		if err != nil {
			return nil, fmt.Errorf("client: failed to encode query: %w", err)
		}
		target.URL.RawQuery = values.Encode()
	}
	if input != nil && target.Method != http.MethodGet {
		switch in := input.(type) {
		case []byte:
			body = bytes.NewReader(in)
			contentType = "application/octet-stream"
		case io.Reader:
			body = in
			contentType = "application/octet-stream"
		default:
			b, err := o.format.Marshal(input)
			if err != nil {
				return nil, fmt.Errorf("client: failed to encode input: %w", err)
			}
			body = bytes.NewReader(b)
			contentType = o.format.MediaType()
		}
	}

	req, err := http.NewRequestWithContext(ctx, target.Method, target.URL.String(), body)
	if err != nil {
		return nil, err
	}
	for name, values := range o.header {
		for _, v := range values {
			req.Header.Add(name, v)
		}
	}
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", o.format.MediaType())
	}
	if contentType != "" && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", contentType)
	}

	return o.http.Do(req)
}

// Do sends call and decodes the response into O.
//
// A response status outside of the 2xx range yields an
// [apierr.ResponseNotOK] error and a Content-Type which is neither JSON
// nor the structured codec yields [apierr.UnknownResponseFormat]. In both
// cases the error's cause is the [*http.Response] with its body buffered so
// it can still be read.
func Do[O any](ctx context.Context, c *Client, call Call, input any, opts ...Option) (out O, err error) {
	resp, err := DoRaw(ctx, c, call, input, opts...)
	if err != nil {
		return out, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return out, buffered(apierr.NewResponseNotOK(resp), resp)
	}
	if resp.StatusCode == http.StatusNoContent {
		return out, resp.Body.Close()
	}

	cd, ok := codec.ForContentType(resp.Header.Get("Content-Type"))
	if !ok {
		return out, buffered(apierr.NewUnknownResponseFormat(resp), resp)
	}
	defer try.Close(&err, resp.Body)

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return out, err
	}
	if len(b) == 0 {
		return out, nil
	}

	err = cd.Unmarshal(b, &out)
	if err != nil {
		return out, fmt.Errorf("client: failed to decode %s response: %w", cd.MediaType(), err)
	}
	return out, nil
}

// buffered replaces the response body with an in-memory copy so the
// response carried by e stays readable after the connection is released.
func buffered(e *apierr.Error, resp *http.Response) error {
	b, err := io.ReadAll(resp.Body)
	closeErr := resp.Body.Close()
	resp.Body = io.NopCloser(bytes.NewReader(b))
	if err = errors.Join(err, closeErr); err != nil {
		return errors.Join(e, err)
	}
	return e
}
