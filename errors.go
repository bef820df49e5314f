// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0

package linkbuilder

import (
	"fmt"
	"strings"
)

// ErrTooManyValues is returned when positional expansion is given more
// values than the template has placeholders to consume.
type ErrTooManyValues struct {
	Template string

	// Unconsumed holds the values left over once every placeholder was
	// filled. For a template with no placeholders at all it holds every
	// supplied value.
	Unconsumed []any
}

func (e *ErrTooManyValues) Error() string {
	return fmt.Sprintf("too many values for URI template %q: no placeholder consumes %s", e.Template, valueList(e.Unconsumed))
}

// ErrNotEnoughValues is returned when positional expansion runs out of
// values before it runs out of placeholders.
type ErrNotEnoughValues struct {
	Template string

	// Values holds all of the supplied values, in order.
	Values []any
}

func (e *ErrNotEnoughValues) Error() string {
	return fmt.Sprintf("not enough values for URI template %q: placeholders remain after consuming %s", e.Template, valueList(e.Values))
}

// ErrNoMatchingVariable is returned when named expansion encounters a
// placeholder whose name has no entry in the variable mapping.
type ErrNoMatchingVariable struct {
	Template string

	// Name is the placeholder name that had no matching variable.
	Name string
}

func (e *ErrNoMatchingVariable) Error() string {
	return fmt.Sprintf("URI template %q has no matching variable for placeholder %q", e.Template, e.Name)
}

// ErrUnusedVariables is returned when named expansion completes with
// variables that no placeholder referenced.
type ErrUnusedVariables struct {
	Template string

	// Names lists the unused variable names.
	Names []string
}

func (e *ErrUnusedVariables) Error() string {
	return fmt.Sprintf("URI template %q leaves variables unused: %s", e.Template, strings.Join(e.Names, ", "))
}

// valueList renders a list of substitution values for an error message, in
// the same textual form that expansion would have substituted them.
func valueList(values []any) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = valueText(v)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
