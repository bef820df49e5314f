// Copyright (c) The OpenTofu Authors
// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package linkindex

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	linkbuilder "github.com/opentofu/linkbuilder"
	"github.com/opentofu/linkbuilder/apihost"
	"github.com/opentofu/linkbuilder/hostauth"
)

// testIndexServer starts a TLS server that publishes the given document
// body at the well-known index path and returns 404 for everything else.
func testIndexServer(t *testing.T, doc string) (*httptest.Server, apihost.Hostname) {
	t.Helper()
	server := httptest.NewTLSServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/.well-known/links.json" {
				w.WriteHeader(404)
				w.Write([]byte("not found"))
				return
			}

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(200)
			w.Write([]byte(doc))
		},
	))
	t.Cleanup(server.Close)

	return server, apihost.Hostname(strings.TrimPrefix(server.URL, "https://"))
}

func TestClientIndex(t *testing.T) {
	server, hostname := testIndexServer(t, `{
		"version": "1.0",
		"links": {
			"users": "/users",
			"user": {"href": "/users/{userId}", "templated": true}
		}
	}`)

	client := New(WithHTTPClient(server.Client()))

	index, err := client.Index(context.Background(), hostname)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	userURL, err := index.LinkURL("user", map[string]any{"userId": 15})
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if got, want := userURL.String(), server.URL+"/users/15"; got != want {
		t.Errorf("wrong link URL\ngot:  %s\nwant: %s", got, want)
	}

	// A second lookup must be served from the cache.
	again, err := client.Index(context.Background(), hostname)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if again != index {
		t.Error("second lookup did not return the cached index")
	}
}

func TestClientIndexNoIndex(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(404)
		},
	))
	t.Cleanup(server.Close)
	hostname := apihost.Hostname(strings.TrimPrefix(server.URL, "https://"))

	client := New(WithHTTPClient(server.Client()))

	index, err := client.Index(context.Background(), hostname)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if index == nil {
		t.Fatal("nil index; want non-nil empty index")
	}

	_, err = index.LinkURL("users", nil)
	if err == nil {
		t.Fatal("unexpected success; want error")
	}
	if want := "does not provide a users link"; !strings.Contains(err.Error(), want) {
		t.Errorf("wrong error\ngot:  %s\nwant: %s", err, want)
	}
}

func TestClientIndexErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		err     string
	}{
		{
			"server error",
			func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(500)
			},
			"failed to request link index: 500 Internal Server Error",
		},
		{
			"unsupported content type",
			func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "text/html")
				w.WriteHeader(200)
				w.Write([]byte(`<html></html>`))
			},
			`index URL returned an unsupported Content-Type "text/html"`,
		},
		{
			"malformed content type",
			func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application@json")
				w.WriteHeader(200)
				w.Write([]byte(`{}`))
			},
			`index URL has a malformed Content-Type "application@json"`,
		},
		{
			"not json",
			func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(200)
				w.Write([]byte(`this is not JSON`))
			},
			"failed to decode index document as a JSON object",
		},
		{
			"response too large",
			func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Content-Length", "2097152")
				w.WriteHeader(200)
			},
			"index document response is too large",
		},
		{
			"unsupported version",
			func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(200)
				w.Write([]byte(`{"version": "9.0"}`))
			},
			"publishes link index version 9.0, which is not supported",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			server := httptest.NewTLSServer(test.handler)
			t.Cleanup(server.Close)
			hostname := apihost.Hostname(strings.TrimPrefix(server.URL, "https://"))

			client := New(WithHTTPClient(server.Client()))

			_, err := client.Index(context.Background(), hostname)
			if err == nil {
				t.Fatal("unexpected success; want error")
			}
			if !strings.Contains(err.Error(), test.err) {
				t.Errorf("wrong error\ngot:  %s\nwant: %s", err, test.err)
			}
		})
	}
}

func TestClientIndexNetworkError(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {},
	))
	hostname := apihost.Hostname(strings.TrimPrefix(server.URL, "https://"))
	httpClient := server.Client()
	server.Close()

	client := New(WithHTTPClient(httpClient))

	_, err := client.Index(context.Background(), hostname)
	if err == nil {
		t.Fatal("unexpected success; want error")
	}
	var reqErr ErrIndexRequest
	if !errors.As(err, &reqErr) {
		t.Fatalf("wrong error type: %s", err)
	}
	if reqErr.Unwrap() == nil {
		t.Error("no underlying error to unwrap")
	}
	if want := "failed to request link index"; !strings.Contains(err.Error(), want) {
		t.Errorf("wrong error\ngot:  %s\nwant: %s", err, want)
	}
}

func TestClientForceIndex(t *testing.T) {
	client := New()
	hostname := apihost.Hostname("example.com")
	client.ForceIndex(hostname, map[string]any{
		"links": map[string]any{
			"user": map[string]any{"href": "/users/{userId}", "templated": true},
		},
	})

	index, err := client.Index(context.Background(), hostname)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	// Relative hrefs resolve as if the document were published at the
	// host's default index location.
	userURL, err := index.LinkURL("user", map[string]any{"userId": 15})
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if got, want := userURL.String(), "https://example.com/users/15"; got != want {
		t.Errorf("wrong link URL\ngot:  %s\nwant: %s", got, want)
	}
}

func TestClientLinkURLShortcuts(t *testing.T) {
	client := New()
	hostname := apihost.Hostname("example.com")
	client.ForceIndex(hostname, map[string]any{
		"links": map[string]any{
			"user-posts": map[string]any{"href": "/users/{userId}/posts/{postId}", "templated": true},
		},
	})

	want := "https://example.com/users/15/posts/1015"

	t.Run("named", func(t *testing.T) {
		linkURL, err := client.LinkURL(context.Background(), hostname, "user-posts", map[string]any{
			"userId": 15,
			"postId": 1015,
		})
		if err != nil {
			t.Fatalf("unexpected error: %s", err)
		}
		if got := linkURL.String(); got != want {
			t.Errorf("wrong link URL\ngot:  %s\nwant: %s", got, want)
		}
	})

	t.Run("positional", func(t *testing.T) {
		linkURL, err := client.LinkURLValues(context.Background(), hostname, "user-posts", 15, 1015)
		if err != nil {
			t.Fatalf("unexpected error: %s", err)
		}
		if got := linkURL.String(); got != want {
			t.Errorf("wrong link URL\ngot:  %s\nwant: %s", got, want)
		}
	})

	t.Run("pairs", func(t *testing.T) {
		linkURL, err := client.LinkURLPairs(context.Background(), hostname, "user-posts", linkbuilder.Pairs{
			{Name: "userId", Value: 15},
			{Name: "postId", Value: 1015},
		})
		if err != nil {
			t.Fatalf("unexpected error: %s", err)
		}
		if got := linkURL.String(); got != want {
			t.Errorf("wrong link URL\ngot:  %s\nwant: %s", got, want)
		}
	})

	t.Run("lookup failure propagates", func(t *testing.T) {
		_, err := client.LinkURL(context.Background(), hostname, "nonexist", nil)
		if err == nil {
			t.Fatal("unexpected success; want error")
		}
		if want := "does not provide a nonexist link"; !strings.Contains(err.Error(), want) {
			t.Errorf("wrong error\ngot:  %s\nwant: %s", err, want)
		}
	})
}

func TestClientForceIndexNil(t *testing.T) {
	client := New()
	hostname := apihost.Hostname("example.com")
	client.ForceIndex(hostname, nil)

	index, err := client.Index(context.Background(), hostname)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if index == nil {
		t.Fatal("nil index; want non-nil empty index")
	}

	_, err = index.LinkURL("users", nil)
	if err == nil {
		t.Fatal("unexpected success; want error")
	}
}

func TestClientForget(t *testing.T) {
	requests := 0
	server := httptest.NewTLSServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			requests++
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(200)
			w.Write([]byte(`{}`))
		},
	))
	t.Cleanup(server.Close)
	hostname := apihost.Hostname(strings.TrimPrefix(server.URL, "https://"))

	client := New(WithHTTPClient(server.Client()))

	if _, err := client.Index(context.Background(), hostname); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if _, err := client.Index(context.Background(), hostname); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if requests != 1 {
		t.Fatalf("wrong request count after repeat lookups: %d; want 1", requests)
	}

	client.Forget(hostname)
	if _, err := client.Index(context.Background(), hostname); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if requests != 2 {
		t.Fatalf("wrong request count after Forget: %d; want 2", requests)
	}

	client.ForgetAll()
	if _, err := client.Index(context.Background(), hostname); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if requests != 3 {
		t.Fatalf("wrong request count after ForgetAll: %d; want 3", requests)
	}
}

func TestClientAlias(t *testing.T) {
	requests := 0
	server := httptest.NewTLSServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			requests++
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(200)
			w.Write([]byte(`{"links": {"users": "/users"}}`))
		},
	))
	t.Cleanup(server.Close)
	target := apihost.Hostname(strings.TrimPrefix(server.URL, "https://"))
	alias := apihost.Hostname("friendly.example.com")

	client := New(WithHTTPClient(server.Client()))
	client.Alias(alias, target)

	index, err := client.Index(context.Background(), alias)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	usersURL, err := index.LinkURL("users", nil)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if got, want := usersURL.String(), server.URL+"/users"; got != want {
		t.Errorf("wrong link URL\ngot:  %s\nwant: %s", got, want)
	}

	// The result is cached under the alias.
	if _, err := client.Index(context.Background(), alias); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if requests != 1 {
		t.Fatalf("wrong request count: %d; want 1", requests)
	}

	// Forgetting the alias drops its cache entry too.
	client.ForgetAlias(alias)
	client.Alias(alias, target)
	if _, err := client.Index(context.Background(), alias); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if requests != 2 {
		t.Fatalf("wrong request count after ForgetAlias: %d; want 2", requests)
	}
}

func TestClientCredentials(t *testing.T) {
	var gotAuthz string
	server := httptest.NewTLSServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			gotAuthz = r.Header.Get("Authorization")
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(200)
			w.Write([]byte(`{}`))
		},
	))
	t.Cleanup(server.Close)
	hostname := apihost.Hostname(strings.TrimPrefix(server.URL, "https://"))

	client := New(
		WithHTTPClient(server.Client()),
		WithCredentials(hostauth.StaticCredentialsSource(map[apihost.Hostname]hostauth.HostCredentials{
			hostname: hostauth.HostCredentialsToken("abc123"),
		})),
	)

	if _, err := client.Index(context.Background(), hostname); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if got, want := gotAuthz, "Bearer abc123"; got != want {
		t.Errorf("wrong Authorization header\ngot:  %s\nwant: %s", got, want)
	}
}

func TestClientCredentialsForHost(t *testing.T) {
	target := apihost.Hostname("api.example.com")
	alias := apihost.Hostname("friendly.example.com")

	client := New()
	if client.CredentialsSource() == nil {
		t.Error("nil credentials source; want NoCredentials")
	}
	got, err := client.CredentialsForHost(context.Background(), target)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if got != nil {
		t.Errorf("unexpected credentials with no source configured: %#v", got)
	}

	client.SetCredentialsSource(hostauth.StaticCredentialsSource(map[apihost.Hostname]hostauth.HostCredentials{
		target: hostauth.HostCredentialsToken("abc123"),
	}))
	client.Alias(alias, target)

	// Credentials lookups follow aliases just like index fetches do.
	got, err = client.CredentialsForHost(context.Background(), alias)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	token, ok := got.(hostauth.HostCredentialsToken)
	if !ok {
		t.Fatalf("wrong credentials type %T; want HostCredentialsToken", got)
	}
	if got, want := token.Token(), "abc123"; got != want {
		t.Errorf("wrong token\ngot:  %s\nwant: %s", got, want)
	}
}
