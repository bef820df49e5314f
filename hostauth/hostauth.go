// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0

// Package hostauth provides some supporting types for representing
// credentials used to authenticate to the hosts that publish link index
// documents.
//
// The API of this package is currently experimental and primarily intended
// for use in OpenTofu's own projects rather than external consumption. We
// may make breaking changes to the API before blessing this module with a
// stable version number, so third-party callers should be prepared to make
// adjustments if they choose to use this library before then.
package hostauth
