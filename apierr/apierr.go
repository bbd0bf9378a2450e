// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package apierr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind identifies a failure in the taxonomy.
type Kind int

const (
	MissingHTTPVerb Kind = iota + 1
	IncorrectHTTPVerb
	ResponseNotOK
	UnknownResponseFormat
	ValidatorNotInstalled
	InvalidSchema
	InputValidationFailed
	OutputValidationFailed
	InvalidHeaderEncountered
	AcceptHeaderMissing
	UnsupportedClient
	UnknownRequestFormat
	InputNotDeserializable
	ProcedureFailed
	OutputNotSerializable
)

var kindNames = map[Kind]string{
	MissingHTTPVerb:          "MissingHTTPVerb",
	IncorrectHTTPVerb:        "IncorrectHTTPVerb",
	ResponseNotOK:            "ResponseNotOK",
	UnknownResponseFormat:    "UnknownResponseFormat",
	ValidatorNotInstalled:    "ValidatorNotInstalled",
	InvalidSchema:            "InvalidSchema",
	InputValidationFailed:    "InputValidationFailed",
	OutputValidationFailed:   "OutputValidationFailed",
	InvalidHeaderEncountered: "InvalidHeaderEncountered",
	AcceptHeaderMissing:      "AcceptHeaderMissing",
	UnsupportedClient:        "UnsupportedClient",
	UnknownRequestFormat:     "UnknownRequestFormat",
	InputNotDeserializable:   "InputNotDeserializable",
	ProcedureFailed:          "ProcedureFailed",
	OutputNotSerializable:    "OutputNotSerializable",
}

// String returns the short name of the kind, e.g. "ProcedureFailed".
func (k Kind) String() string {
	name, ok := kindNames[k]
	if !ok {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return name
}

// Name returns the stable, machine readable name of the kind.
func (k Kind) Name() string {
	return "TypesafeAPIError." + k.String()
}

// Status returns the HTTP status code used when an error of this kind is
// rendered as a response.
func (k Kind) Status() int {
	switch k {
	case MissingHTTPVerb, IncorrectHTTPVerb:
		return http.StatusBadRequest
	case InputValidationFailed, InvalidHeaderEncountered, InputNotDeserializable:
		return http.StatusBadRequest
	case AcceptHeaderMissing, UnsupportedClient:
		return http.StatusNotAcceptable
	case UnknownRequestFormat:
		return http.StatusUnsupportedMediaType
	case UnknownResponseFormat:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Error is a structured pipeline failure.
type Error struct {
	Kind     Kind
	Messages []string
	Cause    any
}

func newError(kind Kind, cause any, messages ...string) *Error {
	return &Error{
		Kind:     kind,
		Messages: messages,
		Cause:    cause,
	}
}

// Error implements the [error] interface. It includes a description of the
// cause when the cause is an error or a string.
func (e *Error) Error() string {
	msg := e.Message()
	switch e.Cause.(type) {
	case error, string:
		return msg + "\n\n" + describe(e.Cause)
	default:
		return msg
	}
}

// Message returns the message lines without any description of the cause.
func (e *Error) Message() string {
	return strings.Join(e.Messages, "\n\n")
}

// Name returns the stable name of the error's kind.
func (e *Error) Name() string {
	return e.Kind.Name()
}

// Unwrap returns the cause when it is itself an error.
func (e *Error) Unwrap() error {
	err, _ := e.Cause.(error)
	return err
}

// Is reports whether target is an [*Error] of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// IsKind reports whether any error in err's tree is an [*Error] of the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}

func describe(cause any) string {
	switch c := cause.(type) {
	case nil:
		return "<nil>"
	case error:
		return c.Error()
	case string:
		return c
	default:
		return fmt.Sprint(c)
	}
}

// NewMissingHTTPVerb is raised by the client when an ALL route is called
// without a method.
func NewMissingHTTPVerb(endpoint string) *Error {
	return newError(
		MissingHTTPVerb,
		nil,
		fmt.Sprintf("Request to endpoint %s cannot be made because the method is missing.", endpoint),
		"Calls targeting an ALL route handler must provide the method.",
	)
}

// NewIncorrectHTTPVerb is raised by the client when the requested method is
// not an uppercase HTTP verb.
func NewIncorrectHTTPVerb(verb, endpoint string) *Error {
	return newError(
		IncorrectHTTPVerb,
		nil,
		fmt.Sprintf("Request to endpoint %s cannot be made because the method (%s) is not valid.", endpoint, verb),
		"The method must be an uppercase HTTP verb.",
	)
}

// NewResponseNotOK is raised by the client when the response status is
// outside of the 2xx range.
func NewResponseNotOK(resp *http.Response) *Error {
	status := resp.Status
	if status == "" {
		status = fmt.Sprint(resp.StatusCode)
	}
	return newError(
		ResponseNotOK,
		resp,
		fmt.Sprintf("The API call was unsuccessful: %s.", status),
		"See the error cause for the full response.",
	)
}

// NewUnknownResponseFormat is raised by the client when the response
// Content-Type is not one of the supported wire formats.
func NewUnknownResponseFormat(resp *http.Response) *Error {
	return newError(
		UnknownResponseFormat,
		resp,
		fmt.Sprintf(
			"The API call to %s was successful, but the server responded with an unexpected format: %s.",
			responseURL(resp),
			resp.Header.Get("Content-Type"),
		),
		"See the error cause for the full response.",
	)
}

// NewValidatorNotInstalled is raised when a route declares a schema but was
// built without a schema validation capability.
func NewValidatorNotInstalled() *Error {
	return newError(
		ValidatorNotInstalled,
		nil,
		"API Route defines a schema, but no schema validator is available.",
		"Schema validation must be enabled for routes which declare input, output or header schemas.",
	)
}

// NewInvalidSchema is raised when a declared schema is not a valid schema.
func NewInvalidSchema(cause any) *Error {
	return newError(
		InvalidSchema,
		cause,
		"API Route defines a schema, but the schema is not valid.",
	)
}

// NewInputValidationFailed is raised when the input schema rejects the
// decoded request input.
func NewInputValidationFailed(cause any, url string) *Error {
	return newError(
		InputValidationFailed,
		cause,
		fmt.Sprintf("The API Route failed to process the request for %s.", url),
		"The input for the fetch handler failed to validate against the schema.",
		"See the error cause for more details.",
	)
}

// NewOutputValidationFailed is raised when the output schema rejects the
// value returned by the business function.
func NewOutputValidationFailed(cause any, url string) *Error {
	return newError(
		OutputValidationFailed,
		cause,
		fmt.Sprintf("The API Route failed to process the request for %s.", url),
		"The output for the fetch handler failed to validate against the schema.",
		"See the error cause for more details.",
	)
}

// NewInvalidHeaderEncountered is raised when a declared header is missing or
// rejected by its schema.
func NewInvalidHeaderEncountered(cause any, url string) *Error {
	return newError(
		InvalidHeaderEncountered,
		cause,
		fmt.Sprintf("The API Route failed to process the request for %s.", url),
		"A header failed to validate against the schema.",
		"See the error cause for more details.",
	)
}

// NewAcceptHeaderMissing is raised when a request has no Accept header.
func NewAcceptHeaderMissing(r *http.Request) *Error {
	return newError(
		AcceptHeaderMissing,
		r,
		fmt.Sprintf("The API call to %s was invalid.", requestURL(r)),
		"The request must include an `Accept` header.",
		"See the error cause for the full request.",
	)
}

// NewUnsupportedClient is raised when the Accept header names none of the
// supported response formats.
func NewUnsupportedClient(r *http.Request) *Error {
	return newError(
		UnsupportedClient,
		r,
		fmt.Sprintf("The API request to %s was made by an unsupported client.", requestURL(r)),
		"The request's `Accept` header must include either `application/json` or `application/escodec`.",
		fmt.Sprintf("%q included neither.", r.Header.Get("Accept")),
		"See the error cause for the full request.",
	)
}

// NewUnknownRequestFormat is raised when the request body format is not
// recognized and no passthrough applies.
func NewUnknownRequestFormat(r *http.Request) *Error {
	return newError(
		UnknownRequestFormat,
		r,
		fmt.Sprintf("The API request to %s was invalid.", requestURL(r)),
		"Request format was neither JSON nor escodec.",
		fmt.Sprintf("Instead, it was %q.", r.Header.Get("Content-Type")),
		"See the error cause for the full request.",
	)
}

// NewInputNotDeserializable is raised when the request body could not be
// decoded in its declared format.
func NewInputNotDeserializable(cause any, url string) *Error {
	return newError(
		InputNotDeserializable,
		cause,
		fmt.Sprintf("The API Route failed to process the request for %s.", url),
		"The input for the fetch handler could not be parsed from the request.",
		"See the error cause for more details.",
	)
}

// NewProcedureFailed is raised when the business function fails with an
// error which is not an application error.
func NewProcedureFailed(cause any, url string) *Error {
	return newError(
		ProcedureFailed,
		cause,
		fmt.Sprintf("The API Route failed to process the request for %s.", url),
		"See the error cause for more details.",
	)
}

// NewOutputNotSerializable is raised when the business function's return
// value could not be encoded into the negotiated format.
func NewOutputNotSerializable(cause any, url string) *Error {
	return newError(
		OutputNotSerializable,
		cause,
		fmt.Sprintf("The API Route failed to process the request for %s.", url),
		"The output from the fetch handler could not be serialized.",
		"See the error cause for more details.",
	)
}

func requestURL(r *http.Request) string {
	if r == nil || r.URL == nil {
		return ""
	}
	return r.URL.String()
}

func responseURL(resp *http.Response) string {
	if resp == nil || resp.Request == nil {
		return ""
	}
	return requestURL(resp.Request)
}
