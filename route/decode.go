// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package route

import (
	"context"
	"io"
	"net/http"

	"github.com/z5labs/sdk-go/try"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/z5labs/typedapi/apierr"
	"github.com/z5labs/typedapi/codec"
)

// decode extracts the business function input from r. An empty query
// string or an empty body without a recognized format yields nil.
func (h *Handler) decode(ctx context.Context, w http.ResponseWriter, r *http.Request) (any, error) {
	contentType := r.Header.Get("Content-Type")
	_, span := h.tracer.Start(ctx, "Handler.decode", trace.WithAttributes(
		attribute.String("http.request.method", r.Method),
		attribute.String("content_type", contentType),
	))
	defer span.End()

	if r.Method == http.MethodGet {
		data := codec.ParamsToData(r.URL.RawQuery)
		if data == nil {
			return nil, nil
		}
		return data, nil
	}

	if r.Body == nil {
		return nil, nil
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.opts.maxBodySize)

	if codec.IsMultipart(contentType) {
		err := r.ParseMultipartForm(h.opts.maxMemory)
		if err != nil {
			return nil, apierr.NewInputNotDeserializable(err, r.URL.String())
		}
		return r.MultipartForm, nil
	}

	c, known := codec.ForContentType(contentType)
	if !known && h.opts.strict && contentType != "" {
		return nil, apierr.NewUnknownRequestFormat(r)
	}

	body, err := readBody(r)
	if err != nil {
		return nil, apierr.NewInputNotDeserializable(err, r.URL.String())
	}

	if !known {
		if len(body) == 0 {
			return nil, nil
		}
		if h.opts.strict {
			return nil, apierr.NewUnknownRequestFormat(r)
		}
		return body, nil
	}

	var input any
	err = c.Unmarshal(body, &input)
	if err != nil {
		return nil, apierr.NewInputNotDeserializable(err, r.URL.String())
	}
	return input, nil
}

func readBody(r *http.Request) (b []byte, err error) {
	defer try.Close(&err, r.Body)

	return io.ReadAll(r.Body)
}
