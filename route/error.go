// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package route

import (
	"context"
	"errors"
	"net/http"

	"github.com/bytedance/sonic"
)

// Code is a business level error code.
type Code string

const (
	BadRequest           Code = "BAD_REQUEST"
	Unauthorized         Code = "UNAUTHORIZED"
	Forbidden            Code = "FORBIDDEN"
	NotFound             Code = "NOT_FOUND"
	MethodNotSupported   Code = "METHOD_NOT_SUPPORTED"
	Timeout              Code = "TIMEOUT"
	Conflict             Code = "CONFLICT"
	PreconditionFailed   Code = "PRECONDITION_FAILED"
	PayloadTooLarge      Code = "PAYLOAD_TOO_LARGE"
	UnsupportedMediaType Code = "UNSUPPORTED_MEDIA_TYPE"
	UnprocessableContent Code = "UNPROCESSABLE_CONTENT"
	TooManyRequests      Code = "TOO_MANY_REQUESTS"
	ClientClosedRequest  Code = "CLIENT_CLOSED_REQUEST"
	InternalServerError  Code = "INTERNAL_SERVER_ERROR"
	NotImplemented       Code = "NOT_IMPLEMENTED"
	BadGateway           Code = "BAD_GATEWAY"
	ServiceUnavailable   Code = "SERVICE_UNAVAILABLE"
	GatewayTimeout       Code = "GATEWAY_TIMEOUT"
)

var codeStatus = map[Code]int{
	BadRequest:           http.StatusBadRequest,
	Unauthorized:         http.StatusUnauthorized,
	Forbidden:            http.StatusForbidden,
	NotFound:             http.StatusNotFound,
	MethodNotSupported:   http.StatusMethodNotAllowed,
	Timeout:              http.StatusRequestTimeout,
	Conflict:             http.StatusConflict,
	PreconditionFailed:   http.StatusPreconditionFailed,
	PayloadTooLarge:      http.StatusRequestEntityTooLarge,
	UnsupportedMediaType: http.StatusUnsupportedMediaType,
	UnprocessableContent: http.StatusUnprocessableEntity,
	TooManyRequests:      http.StatusTooManyRequests,
	ClientClosedRequest:  499,
	InternalServerError:  http.StatusInternalServerError,
	NotImplemented:       http.StatusNotImplemented,
	BadGateway:           http.StatusBadGateway,
	ServiceUnavailable:   http.StatusServiceUnavailable,
	GatewayTimeout:       http.StatusGatewayTimeout,
}

// Status maps the code to its HTTP status. Unknown codes map to 500.
func (c Code) Status() int {
	status, ok := codeStatus[c]
	if !ok {
		return http.StatusInternalServerError
	}
	return status
}

// Error is returned by business functions to signal a specific HTTP outcome.
// It is rendered as a JSON document `{status, cause, details, message}`
// with the status of its [Code].
type Error struct {
	Code    Code
	Message string
	Details any
	Cause   any
}

// NewError returns an [Error] with the given code and message.
func NewError(code Code, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// Error implements the [error] interface.
func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Code)
	}
	return string(e.Code) + ": " + e.Message
}

// Status returns the HTTP status of the error's code.
func (e *Error) Status() int {
	return e.Code.Status()
}

// Unwrap returns the cause when it is itself an error.
func (e *Error) Unwrap() error {
	err, _ := e.Cause.(error)
	return err
}

type errorBody struct {
	Status  int    `json:"status"`
	Cause   any    `json:"cause"`
	Details any    `json:"details"`
	Message string `json:"message"`
}

// WriteHttpResponse writes the error as a JSON response.
func (e *Error) WriteHttpResponse(ctx context.Context, w http.ResponseWriter) {
	cause := e.Cause
	if err, ok := cause.(error); ok {
		cause = err.Error()
	}

	body := errorBody{
		Status:  e.Status(),
		Cause:   cause,
		Details: e.Details,
		Message: e.Message,
	}
	b, err := sonic.ConfigStd.Marshal(body)
	if err != nil {
		body.Cause = nil
		body.Details = nil
		b, _ = sonic.ConfigStd.Marshal(body)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(body.Status)
	_, _ = w.Write(b)
}

// AsError finds the first [*Error] in err's tree.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
