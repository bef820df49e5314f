// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0

package linkindex

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// LoadIndexFile reads an index document from a local file, for use with
// [Client.ForceIndex]. The file extension selects the format: ".json" for
// JSON, or ".yaml" and ".yml" for YAML.
func LoadIndexFile(path string) (map[string]any, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read link index file: %w", err)
	}

	switch ext := filepath.Ext(path); ext {
	case ".json":
		return ParseIndexJSON(src)
	case ".yaml", ".yml":
		return ParseIndexYAML(src)
	default:
		return nil, fmt.Errorf("unsupported link index file extension %q", ext)
	}
}

// ParseIndexJSON parses an index document in the same JSON format that a
// host would publish at its well-known index URL.
func ParseIndexJSON(src []byte) (map[string]any, error) {
	var doc map[string]any
	if err := json.Unmarshal(src, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode index document as a JSON object: %v", err)
	}
	return doc, nil
}

// ParseIndexYAML parses an index document written as a YAML mapping. YAML
// is supported only for local files, since hosts always publish JSON.
//
// The YAML decoder produces int values where JSON decoding would produce
// float64, which the document interpretation accommodates.
func ParseIndexYAML(src []byte) (map[string]any, error) {
	var doc map[string]any
	if err := yaml.Unmarshal(src, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode index document as a YAML mapping: %v", err)
	}
	return doc, nil
}
