// Copyright (c) The OpenTofu Authors
// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// Package linkindex handles fetching and resolution of link index documents.
//
// A link index maps named link relations, for a host as produced by the
// apihost package, to the URI templates published by that host, so that
// clients can follow links by name instead of hard-coding resource paths.
package linkindex

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/hashicorp/go-cleanhttp"

	linkbuilder "github.com/opentofu/linkbuilder"
	"github.com/opentofu/linkbuilder/apihost"
	"github.com/opentofu/linkbuilder/hostauth"
)

const (
	// Fixed path to the link index document, following the well-known URI
	// convention so that a host needs no out-of-band configuration to
	// publish its links.
	indexPath = "/.well-known/links.json"

	// Arbitrary-but-small number to prevent runaway redirect loops. This
	// is used only when the caller doesn't provide their own HTTP client.
	maxRedirects = 3

	// Arbitrary-but-small time limit to prevent UI "hangs" during index
	// fetches. This is used only when the caller doesn't provide their own
	// HTTP client.
	fetchTimeout = 11 * time.Second

	// 1MB - to prevent abusive services from using loads of our memory.
	maxIndexDocBytes = 1 * 1024 * 1024
)

// Client is the main type in this package, which fetches link indexes for
// given hostnames and caches the results by hostname to avoid repeated
// requests for the same information.
type Client struct {
	// must lock "mu" while interacting with these maps
	aliases    map[apihost.Hostname]apihost.Hostname
	indexCache map[apihost.Hostname]*Index
	mu         sync.Mutex

	credsSrc hostauth.CredentialsSource

	httpClient *http.Client
}

// ErrIndexRequest represents the error that occurs when the index fetch
// fails for an unknown network problem.
type ErrIndexRequest struct {
	err error
}

func (e ErrIndexRequest) Error() string {
	wrappedError := fmt.Errorf("failed to request link index: %w", e.err)
	return wrappedError.Error()
}

// Unwrap returns another [error] value representing the underlying problem.
//
// This is intended for use with the standard library errors package, and its
// "Is", "As", and "Unwrap" functions.
func (e ErrIndexRequest) Unwrap() error {
	return e.err
}

// New returns a new client initialized with the given options.
//
// Use [WithHTTPClient] to specify an HTTP client to use when fetching index
// documents. If no client is provided then one will be created automatically,
// but the details of its behavior are subject to change in future versions.
//
// Use [WithCredentials] to specify a [hostauth.CredentialsSource] that can
// provide credentials to use when fetching index documents. If none is
// provided then all requests are made anonymously.
func New(options ...ClientOption) *Client {
	ret := &Client{
		aliases:    make(map[apihost.Hostname]apihost.Hostname),
		indexCache: make(map[apihost.Hostname]*Index),
	}
	for _, opt := range options {
		opt.applyOption(ret)
	}

	if ret.httpClient == nil {
		client := cleanhttp.DefaultPooledClient()
		client.Timeout = fetchTimeout
		client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			if len(via) > maxRedirects {
				return errors.New("too many redirects") // this error will never actually be seen
			}
			return nil
		}
		ret.httpClient = client
	}

	return ret
}

// SetCredentialsSource changes the credentials source that will be used to
// add credentials to outgoing index requests, where available.
func (c *Client) SetCredentialsSource(src hostauth.CredentialsSource) {
	c.credsSrc = src
}

// CredentialsSource returns the credentials source associated with the receiver,
// or an empty credentials source if none is associated.
func (c *Client) CredentialsSource() hostauth.CredentialsSource {
	if c.credsSrc == nil {
		// We'll return an empty one just to save the caller from having to
		// protect against the nil case, since this interface already allows
		// for the possibility of there being no credentials at all.
		return hostauth.NoCredentials
	}
	return c.credsSrc
}

// CredentialsForHost returns a non-nil HostCredentials if the embedded source has
// credentials available for the host, or host alias, and a nil HostCredentials if it does not.
func (c *Client) CredentialsForHost(ctx context.Context, hostname apihost.Hostname) (hostauth.HostCredentials, error) {
	if c.credsSrc == nil {
		return nil, nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if aliasedHost, aliasExists := c.aliases[hostname]; aliasExists {
		hostname = aliasedHost
	}
	return c.credsSrc.ForHost(ctx, hostname)
}

// ForceIndex provides a pre-defined index document for a given host, which
// prevents the receiver from attempting a network fetch for the given host.
// Instead, the given document will be used verbatim.
//
// When providing "forced" documents, any relative URLs are resolved against
// the index URL that would have been used for a network fetch, yielding the
// same results as if the given document were published at the host's default
// index location, though using absolute URLs is strongly recommended to make
// the configured behavior more explicit.
func (c *Client) ForceIndex(hostname apihost.Hostname, doc map[string]any) {
	if doc == nil {
		doc = map[string]any{}
	}

	c.mu.Lock()
	c.indexCache[hostname] = &Index{
		indexURL: &url.URL{
			Scheme: "https",
			Host:   string(hostname),
			Path:   indexPath,
		},
		hostname: hostname.ForDisplay(),
		doc:      doc,
	}
	c.mu.Unlock()
}

// Alias accepts an alias and target Hostname. When an index is fetched
// or credentials are requested for the alias hostname, the target will be consulted instead.
func (c *Client) Alias(alias, target apihost.Hostname) {
	c.mu.Lock()
	c.aliases[alias] = target
	c.mu.Unlock()
}

// Index fetches the link index published by the given hostname (which must
// already have been validated and prepared with apihost.ForComparison) and
// returns an object describing the links available at that host.
//
// If a given hostname publishes no link index at all, a non-nil but empty
// Index object is returned. When giving feedback to the end user about
// such situations, we say "host <name> does not provide a <rel> link",
// regardless of whether that is due to that link specifically being absent
// or due to the host not publishing an index at all, since we don't wish to
// expose the detail of whole-index fetching to an end-user.
func (c *Client) Index(ctx context.Context, hostname apihost.Hostname) (*Index, error) {
	// In this method we use c.mu locking only to avoid corrupting c.indexCache
	// by concurrent writes, and not to prevent concurrent fetch requests.
	// If two clients concurrently request the same hostname then we could
	// potentially send two concurrent fetch requests over the network,
	// in which case it's unspecified which one will "win" and end up being
	// stored in the cache for future requests. In practice this shouldn't
	// matter because we're already assuming (by caching the results at all)
	// that a host will generally not vary its results in meaningful ways
	// between requests made in close time proximity.
	trace := indexTraceFromContext(ctx)

	c.mu.Lock()
	if index, cached := c.indexCache[hostname]; cached {
		c.mu.Unlock()
		trace.indexCached(ctx, hostname)
		return index, nil
	}
	c.mu.Unlock()

	ctx = trace.fetchStart(ctx, hostname)
	index, err := c.fetchIndex(ctx, hostname)
	if err != nil {
		trace.fetchFailure(ctx, hostname, err)
		return nil, err
	}
	trace.fetchSuccess(ctx, hostname)

	c.mu.Lock()
	c.indexCache[hostname] = index
	c.mu.Unlock()

	return index, nil
}

// LinkURL is a convenience wrapper for fetching the index of a given
// hostname and then resolving a particular link in the result.
func (c *Client) LinkURL(ctx context.Context, hostname apihost.Hostname, rel string, vars map[string]any) (*url.URL, error) {
	index, err := c.Index(ctx, hostname)
	if err != nil {
		return nil, err
	}
	return index.LinkURL(rel, vars)
}

// LinkURLValues is like [Client.LinkURL] except that the link's placeholders
// are filled in positionally from the given values rather than by name.
func (c *Client) LinkURLValues(ctx context.Context, hostname apihost.Hostname, rel string, values ...any) (*url.URL, error) {
	index, err := c.Index(ctx, hostname)
	if err != nil {
		return nil, err
	}
	return index.LinkURLValues(rel, values...)
}

// LinkURLPairs is like [Client.LinkURL] except that the variables are given
// as an ordered [linkbuilder.Pairs] list.
func (c *Client) LinkURLPairs(ctx context.Context, hostname apihost.Hostname, rel string, vars linkbuilder.Pairs) (*url.URL, error) {
	index, err := c.Index(ctx, hostname)
	if err != nil {
		return nil, err
	}
	return index.LinkURLPairs(rel, vars)
}

// fetchIndex implements the actual fetch process, with its result cached
// by the public-facing Index method.
//
// This must be called _without_ c.mu locked. c.mu is there only to protect
// the integrity of our internal maps, and not to prevent multiple concurrent
// index fetches even for the same hostname.
func (c *Client) fetchIndex(ctx context.Context, hostname apihost.Hostname) (*Index, error) {
	c.mu.Lock()
	if aliasedHost, aliasExists := c.aliases[hostname]; aliasExists {
		hostname = aliasedHost
	}
	c.mu.Unlock()

	indexURL := &url.URL{
		Scheme: "https",
		Host:   hostname.String(),
		Path:   indexPath,
	}

	client := c.httpClient
	req, err := http.NewRequestWithContext(ctx, "GET", indexURL.String(), nil)
	if err != nil {
		// Should not get in here because everything about the request args is under our control.
		return nil, fmt.Errorf("invalid index request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	creds, err := c.CredentialsForHost(ctx, hostname)
	if err != nil {
		// If we fail to obtain credentials then we just treat it as anonymous
		creds = nil
	}
	if creds != nil {
		// Update the request to include credentials.
		creds.PrepareRequest(req)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, ErrIndexRequest{err}
	}
	defer resp.Body.Close()

	index := &Index{
		// Use the index URL from resp.Request in
		// case the client followed any redirects.
		indexURL: resp.Request.URL,
		hostname: hostname.ForDisplay(),
	}

	// Return the index without any links.
	if resp.StatusCode == 404 {
		return index, nil
	}

	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("failed to request link index: %s", resp.Status)
	}

	contentType := resp.Header.Get("Content-Type")
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return nil, fmt.Errorf("index URL has a malformed Content-Type %q", contentType)
	}
	if mediaType != "application/json" {
		return nil, fmt.Errorf("index URL returned an unsupported Content-Type %q", mediaType)
	}

	// This doesn't catch chunked encoding, because ContentLength is -1 in that case.
	if resp.ContentLength > maxIndexDocBytes {
		// Size limit here is not a contractual requirement and so we may
		// adjust it over time if we find a different limit is warranted.
		return nil, fmt.Errorf(
			"index document response is too large (got %d bytes; limit %d)",
			resp.ContentLength, maxIndexDocBytes,
		)
	}

	// If the response is using chunked encoding then we can't predict its
	// size, but we'll at least prevent reading the entire thing into memory.
	lr := io.LimitReader(resp.Body, maxIndexDocBytes)

	docBytes, err := io.ReadAll(lr)
	if err != nil {
		return nil, fmt.Errorf("error reading index document body: %v", err)
	}

	var doc map[string]any
	err = json.Unmarshal(docBytes, &doc)
	if err != nil {
		return nil, fmt.Errorf("failed to decode index document as a JSON object: %v", err)
	}
	if err := checkFormatVersion(hostname.ForDisplay(), doc); err != nil {
		return nil, err
	}
	index.doc = doc

	return index, nil
}

// Forget invalidates any cached record of the given hostname. If the host
// has no cache entry then this is a no-op.
func (c *Client) Forget(hostname apihost.Hostname) {
	c.mu.Lock()
	c.forgetInternal(hostname)
	c.mu.Unlock()
}

// forgetInternal is the main implementation of Forget that assumes the
// caller has already locked c.mu, so this can also be used in other
// places like ForgetAlias.
func (c *Client) forgetInternal(hostname apihost.Hostname) {
	delete(c.indexCache, hostname)
}

// ForgetAll is like Forget, but for all of the hostnames that have cache entries.
func (c *Client) ForgetAll() {
	c.mu.Lock()
	c.indexCache = make(map[apihost.Hostname]*Index)
	c.mu.Unlock()
}

// ForgetAlias removes a previously aliased hostname as well as its cached entry, if any exist.
// If the alias has no target then this is a no-op.
func (c *Client) ForgetAlias(alias apihost.Hostname) {
	c.mu.Lock()
	delete(c.aliases, alias)
	c.forgetInternal(alias)
	c.mu.Unlock()
}
