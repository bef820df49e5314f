// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0

package linkbuilder

import (
	"fmt"
	"sort"
)

// Pair is a single named value for template expansion.
type Pair struct {
	Name  string
	Value any
}

// Pairs is an ordered list of named values, for callers that need a
// deterministic substitution and reporting order where a map cannot
// provide one.
//
// The zero value is an empty list ready to use.
type Pairs []Pair

// Add appends a named value to the list.
func (p *Pairs) Add(name string, value any) {
	*p = append(*p, Pair{Name: name, Value: value})
}

// Names returns the names in the list, in order.
func (p Pairs) Names() []string {
	if len(p) == 0 {
		return nil
	}
	names := make([]string, len(p))
	for i, pair := range p {
		names[i] = pair.Name
	}
	return names
}

// Values returns the values in the list, in order.
func (p Pairs) Values() []any {
	if len(p) == 0 {
		return nil
	}
	values := make([]any, len(p))
	for i, pair := range p {
		values[i] = pair.Value
	}
	return values
}

// Map returns the list's entries as a map. If a name was added more than
// once then its last value wins.
func (p Pairs) Map() map[string]any {
	vars := make(map[string]any, len(p))
	for _, pair := range p {
		vars[pair.Name] = pair.Value
	}
	return vars
}

// PairsFromMap returns the entries of the given map as a [Pairs] list,
// sorted by name so that the result is deterministic.
func PairsFromMap(vars map[string]any) Pairs {
	if len(vars) == 0 {
		return nil
	}
	names := make([]string, 0, len(vars))
	for name := range vars {
		names = append(names, name)
	}
	sort.Strings(names)

	pairs := make(Pairs, 0, len(vars))
	for _, name := range names {
		pairs = append(pairs, Pair{Name: name, Value: vars[name]})
	}
	return pairs
}

// ZipPairs combines a list of names and a list of values of the same
// length into a [Pairs] list, pairing them up by position.
func ZipPairs(names []string, values []any) (Pairs, error) {
	if len(names) != len(values) {
		return nil, fmt.Errorf("cannot pair %d names with %d values", len(names), len(values))
	}
	if len(names) == 0 {
		return nil, nil
	}
	pairs := make(Pairs, len(names))
	for i, name := range names {
		pairs[i] = Pair{Name: name, Value: values[i]}
	}
	return pairs, nil
}
