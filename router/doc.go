// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package router derives the callable surface of an API from its endpoints
// and generates a typed Go client for it.
//
// An endpoint identifier is a slash separated path where `[name]` segments
// are path parameters and a trailing `[...name]` segment is a catch-all
// parameter, e.g. `users/[id]/posts` or `files/[...path]`.
//
// [Build] merges a [Manifest] of endpoints into a [Tree] and [Generate]
// renders the tree as Go source.
package router
