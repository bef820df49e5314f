// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0

package linkindex

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/opentofu/linkbuilder/apihost"
)

func TestLoadIndexFile(t *testing.T) {
	t.Run("yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "links.yaml")
		src := `
version: "1.0"
links:
  users: /users
  user:
    href: "/users/{userId}"
    templated: true
oauth:
  client: cli
  authz: /oauth/authz
  token: /oauth/token
  ports: [1025, 1026]
`
		if err := os.WriteFile(path, []byte(src), 0o600); err != nil {
			t.Fatalf("unexpected error: %s", err)
		}

		doc, err := LoadIndexFile(path)
		if err != nil {
			t.Fatalf("unexpected error: %s", err)
		}

		client := New()
		hostname := apihost.Hostname("example.com")
		client.ForceIndex(hostname, doc)

		index, err := client.Index(context.Background(), hostname)
		if err != nil {
			t.Fatalf("unexpected error: %s", err)
		}

		userURL, err := index.LinkURL("user", map[string]any{"userId": 15})
		if err != nil {
			t.Fatalf("unexpected error: %s", err)
		}
		if got, want := userURL.String(), "https://example.com/users/15"; got != want {
			t.Errorf("wrong link URL\ngot:  %s\nwant: %s", got, want)
		}

		// The YAML loader produces int ports, which the document
		// interpretation must accept alongside JSON's float64.
		oauthClient, err := index.OAuthClient()
		if err != nil {
			t.Fatalf("unexpected error: %s", err)
		}
		if oauthClient.MinPort != 1025 || oauthClient.MaxPort != 1026 {
			t.Errorf("wrong port range: %d-%d; want 1025-1026", oauthClient.MinPort, oauthClient.MaxPort)
		}
	})

	t.Run("json", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "links.json")
		src := `{"links": {"users": "/users"}}`
		if err := os.WriteFile(path, []byte(src), 0o600); err != nil {
			t.Fatalf("unexpected error: %s", err)
		}

		doc, err := LoadIndexFile(path)
		if err != nil {
			t.Fatalf("unexpected error: %s", err)
		}

		client := New()
		hostname := apihost.Hostname("example.com")
		client.ForceIndex(hostname, doc)

		index, err := client.Index(context.Background(), hostname)
		if err != nil {
			t.Fatalf("unexpected error: %s", err)
		}

		usersURL, err := index.LinkURL("users", nil)
		if err != nil {
			t.Fatalf("unexpected error: %s", err)
		}
		if got, want := usersURL.String(), "https://example.com/users"; got != want {
			t.Errorf("wrong link URL\ngot:  %s\nwant: %s", got, want)
		}
	})

	t.Run("unsupported extension", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "links.toml")
		if err := os.WriteFile(path, []byte(""), 0o600); err != nil {
			t.Fatalf("unexpected error: %s", err)
		}

		_, err := LoadIndexFile(path)
		if err == nil {
			t.Fatal("unexpected success; want error")
		}
		if want := `unsupported link index file extension ".toml"`; !strings.Contains(err.Error(), want) {
			t.Errorf("wrong error\ngot:  %s\nwant: %s", err, want)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadIndexFile(filepath.Join(t.TempDir(), "nonexist.json"))
		if err == nil {
			t.Fatal("unexpected success; want error")
		}
		if want := "failed to read link index file"; !strings.Contains(err.Error(), want) {
			t.Errorf("wrong error\ngot:  %s\nwant: %s", err, want)
		}
	})
}

func TestParseIndexJSONInvalid(t *testing.T) {
	_, err := ParseIndexJSON([]byte(`{`))
	if err == nil {
		t.Fatal("unexpected success; want error")
	}
	if want := "failed to decode index document as a JSON object"; !strings.Contains(err.Error(), want) {
		t.Errorf("wrong error\ngot:  %s\nwant: %s", err, want)
	}
}

func TestParseIndexYAMLInvalid(t *testing.T) {
	_, err := ParseIndexYAML([]byte(`just a scalar`))
	if err == nil {
		t.Fatal("unexpected success; want error")
	}
	if want := "failed to decode index document as a YAML mapping"; !strings.Contains(err.Error(), want) {
		t.Errorf("wrong error\ngot:  %s\nwant: %s", err, want)
	}
}
