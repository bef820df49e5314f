// Copyright (c) The OpenTofu Authors
// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// Package apihost deals with the hostnames of the API hosts that publish
// link index documents, converting between the form suitable for display
// to humans and the normalized form used for comparison and as map keys.
package apihost

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/net/idna"
)

// Hostname is a specialized name for string that indicates that the string
// has been converted to (or was already in) the comparison form.
//
// Values of this type are suitable for use as map keys when caching
// per-host state, since two hostnames that refer to the same host always
// have the same comparison form.
type Hostname string

// displayProfile is a liberal idna profile used to prepare a hostname for
// display to humans, without imposing validation rules.
var displayProfile = idna.New(
	idna.MapForLookup(),
	idna.Transitional(true),
)

// comparisonProfile is a stricter idna profile used to produce the
// comparison form of a hostname, rejecting names that could not appear in
// DNS at all.
var comparisonProfile = idna.New(
	idna.MapForLookup(),
	idna.ValidateLabels(true),
	idna.VerifyDNSLength(true),
	idna.BidiRule(),
	idna.Transitional(true),
)

// ForComparison takes a string presumed to be a hostname, optionally
// followed by a colon and a port number, and returns its comparison form:
// lowercase, punycode-encoded, and with a default HTTPS port removed.
//
// An error indicates that the given string is not a valid hostname at all.
// The error messages here are written with the expectation that the given
// string came from user input, such as a configuration file.
func ForComparison(given string) (Hostname, error) {
	host, port := splitPort(given)

	port, err := normalizePort(port)
	if err != nil {
		return Hostname(""), err
	}

	if host == "" {
		return Hostname(""), fmt.Errorf("empty string is not a valid hostname")
	}

	ascii, err := comparisonProfile.ToASCII(host)
	if err != nil {
		return Hostname(""), err
	}

	return Hostname(ascii + port), nil
}

// ForDisplay takes a string presumed to be a hostname and returns the form
// of it most suitable for display to humans, with any punycode-encoded
// labels decoded back to their Unicode form.
//
// No validation is performed. If any step of the conversion fails then the
// given string is returned with only the steps that succeeded applied, so
// this function is safe to use on input that has not been validated with
// [ForComparison] first.
func ForDisplay(given string) string {
	host, port := splitPort(given)
	port, _ = normalizePort(port)

	ascii, err := displayProfile.ToASCII(host)
	if err != nil {
		return host + port
	}
	display, err := displayProfile.ToUnicode(ascii)
	if err != nil {
		return ascii + port
	}
	return display + port
}

// ForDisplay returns the display form of the hostname, applying the same
// conversion as the package-level [ForDisplay] function.
func (h Hostname) ForDisplay() string {
	return ForDisplay(string(h))
}

// String returns the hostname as a plain string, in its comparison form.
func (h Hostname) String() string {
	return string(h)
}

// GoString implements fmt.GoStringer.
func (h Hostname) GoString() string {
	return fmt.Sprintf("apihost.Hostname(%q)", string(h))
}

// splitPort separates the optional port portion from the hostname portion,
// leaving the port's leading colon in place.
func splitPort(given string) (host, port string) {
	if colon := strings.Index(given, ":"); colon != -1 {
		return given[:colon], given[colon:]
	}
	return given, ""
}

// normalizePort validates the port portion of a hostname and returns it in
// normalized form. The default HTTPS port is removed entirely, since it is
// implied when no port is given.
func normalizePort(port string) (string, error) {
	if port == "" || port == ":" {
		return "", nil
	}

	num, err := strconv.Atoi(port[1:])
	if err != nil || num < 1 || num > 65535 {
		return "", fmt.Errorf("invalid port number %q", port[1:])
	}
	if num == 443 {
		return "", nil
	}
	return ":" + strconv.Itoa(num), nil
}
