// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0

// Package linkbuilder implements expansion of the URI templates used to
// build hypermedia links, replacing each "{name}" placeholder in a path
// template with a caller-supplied value.
//
// The template language resembles the Level 1 subset of the URI Templates
// language described in [RFC 6570]: a placeholder is a name enclosed in a
// single pair of curly braces, and everything outside a placeholder is
// copied to the result verbatim. Unlike RFC 6570, substituted values are
// not percent-encoded; the templates handled here produce paths whose
// values are substituted exactly as given.
//
// Expansion is strict in both directions: every placeholder must receive a
// value, and every supplied value must be consumed. A partially-expanded
// URI embedded in a hypermedia link is a silent correctness bug for
// whatever client later follows it, so any mismatch is reported as an
// error at the call site that built the link rather than producing a
// plausible-looking but broken link.
//
// The API of this package is currently experimental and primarily intended
// for use in OpenTofu's own projects rather than external consumption. We
// may make breaking changes to the API before blessing this module with a
// stable version number, so third-party callers should be prepared to make
// adjustments if they choose to use this library before then.
//
// [RFC 6570]: https://www.rfc-editor.org/rfc/rfc6570
package linkbuilder
