// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package client sends requests to typedapi routes.
//
// Generated clients call [Do] and [DoRaw] with a [Call] describing the
// endpoint and verb being targeted. Both resolve the call against the
// [Client]'s base URL, encode the input using the same wire rules the
// server decodes with and, for [Do], decode the output.
package client
