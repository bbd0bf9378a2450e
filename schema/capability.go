// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package schema

import (
	"context"

	"github.com/getkin/kin-openapi/openapi3"
)

// Capability describes whether schema validation can be enforced. It is
// either an [Engine] or [NoEngine] and is fixed when a route is built.
type Capability interface {
	isCapability()
}

// Engine is the available validation capability backed by kin-openapi.
type Engine struct {
	Options []openapi3.SchemaValidationOption
}

func (Engine) isCapability() {}

// Bind attaches the engine's validation options to ctx so that
// [JSON.Parse] applies them.
func (e Engine) Bind(ctx context.Context) context.Context {
	if len(e.Options) == 0 {
		return ctx
	}
	return context.WithValue(ctx, optionsCtxKey{}, e.Options)
}

// NoEngine represents the absence of a validation capability. Routes built
// with it which declare a schema refuse every request.
type NoEngine struct{}

func (NoEngine) isCapability() {}

// KinOpenAPI returns the kin-openapi backed validation capability.
func KinOpenAPI(opts ...openapi3.SchemaValidationOption) Capability {
	return Engine{Options: opts}
}

// Unavailable returns the capability representing no validation engine.
func Unavailable() Capability {
	return NoEngine{}
}

type optionsCtxKey struct{}

func validationOptions(ctx context.Context) []openapi3.SchemaValidationOption {
	opts, _ := ctx.Value(optionsCtxKey{}).([]openapi3.SchemaValidationOption)
	return opts
}
