// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package apierr defines the closed set of pipeline failures raised by the
// typedapi server pipeline and client.
//
// Every failure is an [*Error] carrying a [Kind], one or more human readable
// message lines and an opaque cause. The cause may be the originating error,
// the [*http.Request] that was rejected or the [*http.Response] that could not
// be consumed.
//
// These errors describe framework level failures. Business level HTTP
// outcomes (404, 409, ...) are declared with route.Error instead.
package apierr
