// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0

package apihost

import (
	"fmt"
	"strings"
	"testing"
)

func TestForComparison(t *testing.T) {
	tests := []struct {
		input string
		want  string
		err   string
	}{
		{"example.com", "example.com", ""},
		{"EXAMPLE.COM", "example.com", ""},
		{"Example.Com:8080", "example.com:8080", ""},
		{"example.com:443", "example.com", ""},
		{"example.com:", "example.com", ""},
		{"example.com:08080", "example.com:8080", ""},
		{"Ü.example.com", "xn--tda.example.com", ""},
		{"127.0.0.1:8080", "127.0.0.1:8080", ""},
		{"", "", "empty string is not a valid hostname"},
		{":8080", "", "empty string is not a valid hostname"},
		{"example.com:boo", "", `invalid port number "boo"`},
		{"example.com:0", "", `invalid port number "0"`},
		{"example.com:70000", "", `invalid port number "70000"`},
		{"example..com", "", "idna"},
	}

	for _, test := range tests {
		t.Run(fmt.Sprintf("%q", test.input), func(t *testing.T) {
			got, err := ForComparison(test.input)
			if (err != nil || test.err != "") &&
				(err == nil || !strings.Contains(err.Error(), test.err)) {
				t.Fatalf("unexpected error: %s", err)
			}

			if string(got) != test.want {
				t.Errorf("wrong result\ngot:  %s\nwant: %s", got, test.want)
			}
		})
	}
}

func TestForDisplay(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"example.com", "example.com"},
		{"EXAMPLE.COM", "example.com"},
		{"xn--tda.example.com", "ü.example.com"},
		{"Ü.example.com:8080", "ü.example.com:8080"},
		{"example.com:443", "example.com"},
		{"127.0.0.1:8080", "127.0.0.1:8080"},
	}

	for _, test := range tests {
		t.Run(fmt.Sprintf("%q", test.input), func(t *testing.T) {
			if got := ForDisplay(test.input); got != test.want {
				t.Errorf("wrong result\ngot:  %s\nwant: %s", got, test.want)
			}
		})
	}
}

func TestHostnameForDisplay(t *testing.T) {
	host, err := ForComparison("Ü.example.com:8080")
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	if got, want := host.String(), "xn--tda.example.com:8080"; got != want {
		t.Errorf("wrong comparison form\ngot:  %s\nwant: %s", got, want)
	}
	if got, want := host.ForDisplay(), "ü.example.com:8080"; got != want {
		t.Errorf("wrong display form\ngot:  %s\nwant: %s", got, want)
	}
	if got, want := fmt.Sprintf("%#v", host), `apihost.Hostname("xn--tda.example.com:8080")`; got != want {
		t.Errorf("wrong GoString\ngot:  %s\nwant: %s", got, want)
	}
}
