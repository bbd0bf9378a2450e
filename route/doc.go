// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package route turns business functions into type-safe HTTP handlers.
//
// [New] builds the bare request pipeline: content negotiation, request
// decoding, invocation and response encoding. [Define] layers schema
// validation of headers, input and output on top of it and keeps the
// declared [Definition] around so that documentation and typed clients can
// be derived from it.
//
// A [Module] groups the handlers of one endpoint by uppercase HTTP verb,
// e.g.
//
//	route.Module{
//	    "GET": route.Define(route.Definition[struct{}, []User]{
//	        Input:  schema.Void(),
//	        Output: schema.MustReflect[[]User](),
//	        Fetch:  listUsers,
//	    }),
//	}
package route
