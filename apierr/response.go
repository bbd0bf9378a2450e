// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package apierr

import (
	"context"
	"crypto/rand"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/oklog/ulid/v2"
)

// Body is the JSON document written when an [*Error] is rendered as a
// response.
type Body struct {
	Status  int    `json:"status"`
	Name    string `json:"name"`
	Message string `json:"message"`
	TraceID string `json:"traceId"`
	Cause   any    `json:"cause"`
}

// NewTraceID returns a new, lexically sortable trace identifier.
func NewTraceID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String()
}

// Body builds the response document for e. The cause is null unless
// exposeCause is true since it can carry internal details.
func (e *Error) Body(traceID string, exposeCause bool) Body {
	b := Body{
		Status:  e.Kind.Status(),
		Name:    e.Name(),
		Message: e.Message(),
		TraceID: traceID,
	}
	if exposeCause {
		b.Message = e.Error()
		b.Cause = causeView(e.Cause)
	}
	return b
}

// WriteHttpResponse writes e as a JSON response with the cause redacted.
func (e *Error) WriteHttpResponse(ctx context.Context, w http.ResponseWriter) {
	Write(ctx, w, e, NewTraceID(), false)
}

// Write renders e into w.
func Write(ctx context.Context, w http.ResponseWriter, e *Error, traceID string, exposeCause bool) {
	body := e.Body(traceID, exposeCause)
	b, err := sonic.ConfigStd.Marshal(body)
	if err != nil {
		// the cause could not be marshalled so render its string form instead
		body.Cause = describe(e.Cause)
		b, _ = sonic.ConfigStd.Marshal(body)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(body.Status)
	_, _ = w.Write(b)
}

type requestView struct {
	Method string `json:"method"`
	URL    string `json:"url"`
}

type responseView struct {
	Status int    `json:"status"`
	URL    string `json:"url,omitempty"`
}

func causeView(cause any) any {
	switch c := cause.(type) {
	case nil:
		return nil
	case *http.Request:
		return requestView{Method: c.Method, URL: requestURL(c)}
	case *http.Response:
		return responseView{Status: c.StatusCode, URL: responseURL(c)}
	case error:
		return c.Error()
	default:
		return c
	}
}
