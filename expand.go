// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0

package linkbuilder

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// placeholderPattern matches a well-formed placeholder: an opening brace,
// then one or more characters other than a closing brace, then a closing
// brace. A dangling opening brace never matches and so passes through to
// the result untouched.
var placeholderPattern = regexp.MustCompile(`\{([^}]+)\}`)

// IsTemplated reports whether the given string is a URI template, meaning
// that it is non-blank and contains at least one opening brace.
//
// This is a cheap pre-check rather than a validity check: a string whose
// only brace is dangling still counts as "templated" here even though
// expansion will find no placeholders in it.
func IsTemplated(template string) bool {
	return strings.TrimSpace(template) != "" && strings.Contains(template, "{")
}

// Expand replaces the placeholders in the given template with the given
// values in order of appearance, so the first placeholder takes the first
// value and so on.
//
// Each value is rendered with the default formatting of the fmt package,
// and the result is not percent-encoded.
//
// Expansion is strict: a template with more placeholders than values fails
// with [ErrNotEnoughValues], and more values than placeholders fails with
// [ErrTooManyValues]. A string that is not a template at all expands to
// itself, but only when called with no values.
func Expand(template string, values ...any) (string, error) {
	if !IsTemplated(template) {
		if len(values) == 0 {
			return template, nil
		}
		return "", &ErrTooManyValues{Template: template, Unconsumed: values}
	}

	matches := placeholderPattern.FindAllStringSubmatchIndex(template, -1)

	var buf strings.Builder
	pos := 0
	next := 0
	for _, m := range matches {
		if next >= len(values) {
			return "", &ErrNotEnoughValues{Template: template, Values: values}
		}
		buf.WriteString(template[pos:m[0]])
		buf.WriteString(valueText(values[next]))
		next++
		pos = m[1]
	}
	if next < len(values) {
		return "", &ErrTooManyValues{Template: template, Unconsumed: values[next:]}
	}

	buf.WriteString(template[pos:])
	return buf.String(), nil
}

// ExpandNamed replaces each placeholder in the given template with the
// value recorded under the placeholder's name in the given map.
//
// Name matching is case-sensitive, and the same name may be referenced by
// any number of placeholders. Each value is rendered with the default
// formatting of the fmt package, and the result is not percent-encoded.
//
// Expansion is strict: a placeholder whose name is absent from the map
// fails with [ErrNoMatchingVariable], and map keys that no placeholder
// references fail with [ErrUnusedVariables]. A string that is not a
// template at all expands to itself regardless of what the map contains,
// since without placeholders there is nothing for a key to go unused
// against.
func ExpandNamed(template string, vars map[string]any) (string, error) {
	if !IsTemplated(template) {
		return template, nil
	}

	expanded, used, err := expandNamed(template, vars)
	if err != nil {
		return "", err
	}

	var unused []string
	for name := range vars {
		if !used[name] {
			unused = append(unused, name)
		}
	}
	if len(unused) > 0 {
		// Map iteration order is randomized, so sort to keep the report
		// deterministic.
		sort.Strings(unused)
		return "", &ErrUnusedVariables{Template: template, Names: unused}
	}

	return expanded, nil
}

// ExpandPairs is a variant of [ExpandNamed] that takes its variables as an
// ordered [Pairs] list instead of a map. If the same name was added more
// than once then its last value is the one substituted, and the
// unused-variable report preserves the order in which names were added.
func ExpandPairs(template string, vars Pairs) (string, error) {
	if !IsTemplated(template) {
		return template, nil
	}

	expanded, used, err := expandNamed(template, vars.Map())
	if err != nil {
		return "", err
	}

	var unused []string
	seen := make(map[string]bool, len(vars))
	for _, pair := range vars {
		if !used[pair.Name] && !seen[pair.Name] {
			unused = append(unused, pair.Name)
			seen[pair.Name] = true
		}
	}
	if len(unused) > 0 {
		return "", &ErrUnusedVariables{Template: template, Names: unused}
	}

	return expanded, nil
}

// expandNamed substitutes every well-formed placeholder and reports which
// names it consumed, leaving the unused-variable policy to its callers.
func expandNamed(template string, vars map[string]any) (string, map[string]bool, error) {
	matches := placeholderPattern.FindAllStringSubmatchIndex(template, -1)
	used := make(map[string]bool, len(vars))

	var buf strings.Builder
	pos := 0
	for _, m := range matches {
		name := template[m[2]:m[3]]
		value, ok := vars[name]
		if !ok {
			return "", nil, &ErrNoMatchingVariable{Template: template, Name: name}
		}
		buf.WriteString(template[pos:m[0]])
		buf.WriteString(valueText(value))
		used[name] = true
		pos = m[1]
	}
	buf.WriteString(template[pos:])

	return buf.String(), used, nil
}

// valueText renders a substitution value in its textual form. All of the
// expansion functions substitute values through this one conversion.
func valueText(v any) string {
	return fmt.Sprintf("%v", v)
}
