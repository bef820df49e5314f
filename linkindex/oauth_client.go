// Copyright (c) The OpenTofu Authors
// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package linkindex

import (
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/oauth2"
)

// OAuthClient represents an OAuth client application that a host publishes
// in its index document for end-user authorization of link requests.
type OAuthClient struct {
	// ID is the identifier for the client, to be used as the "client id"
	// in OAuth requests.
	ID string

	// AuthorizationURL is the URL of the authorization endpoint, set only
	// if one of the grant types in SupportedGrantTypes requires it.
	AuthorizationURL *url.URL

	// TokenURL is the URL of the token endpoint, set only if one of the
	// grant types in SupportedGrantTypes requires it.
	TokenURL *url.URL

	// MinPort and MaxPort are the inclusive range of TCP ports that the
	// host will accept in loopback redirect URIs during an authorization
	// code grant.
	MinPort, MaxPort uint16

	// SupportedGrantTypes describes the grant types the host is able to
	// support for this client.
	SupportedGrantTypes OAuthGrantTypeSet

	// Scopes is the list of scope keywords to request during
	// authorization, if any.
	Scopes []string
}

// Endpoint returns an oauth2.Endpoint value ready to be used with the
// oauth2 library, describing the client's endpoint URLs.
func (c *OAuthClient) Endpoint() oauth2.Endpoint {
	ep := oauth2.Endpoint{
		// We don't actually auth because the client is public, so we just
		// send the client id in the request body directly.
		AuthStyle: oauth2.AuthStyleInParams,
	}

	if c.AuthorizationURL != nil {
		ep.AuthURL = c.AuthorizationURL.String()
	}
	if c.TokenURL != nil {
		ep.TokenURL = c.TokenURL.String()
	}

	return ep
}

// OAuthGrantType is an enumeration of grant type keywords that a host can
// declare support for in its OAuth client definition.
type OAuthGrantType string

const (
	// OAuthAuthzCodeGrant represents an authorization code grant, as
	// defined in IETF RFC 6749 section 4.1.
	OAuthAuthzCodeGrant = OAuthGrantType("authz_code")

	// OAuthOwnerPasswordGrant represents a resource owner password
	// credentials grant, as defined in IETF RFC 6749 section 4.3.
	OAuthOwnerPasswordGrant = OAuthGrantType("password")
)

// UsesAuthorizationEndpoint returns true if the receiving grant type makes
// use of the authorization endpoint from the client configuration, and thus
// whether the client definition must include one.
func (t OAuthGrantType) UsesAuthorizationEndpoint() bool {
	switch t {
	case OAuthAuthzCodeGrant:
		return true
	case OAuthOwnerPasswordGrant:
		return false
	default:
		// We don't know, so we'll conservatively assume yes.
		return true
	}
}

// UsesTokenEndpoint returns true if the receiving grant type makes use of
// the token endpoint from the client configuration, and thus whether the
// client definition must include one.
func (t OAuthGrantType) UsesTokenEndpoint() bool {
	switch t {
	case OAuthAuthzCodeGrant:
		return true
	case OAuthOwnerPasswordGrant:
		return true
	default:
		// We don't know, so we'll conservatively assume yes.
		return true
	}
}

// OAuthGrantTypeSet represents a set of OAuthGrantTypes.
type OAuthGrantTypeSet map[OAuthGrantType]struct{}

// NewOAuthGrantTypeSet constructs a new grant type set from the given
// keywords. Duplicates are condensed into single elements.
func NewOAuthGrantTypeSet(keywords ...string) OAuthGrantTypeSet {
	ret := make(OAuthGrantTypeSet, len(keywords))
	for _, kw := range keywords {
		ret[OAuthGrantType(kw)] = struct{}{}
	}
	return ret
}

// Has returns true if the given grant type is in the receiving set.
func (s OAuthGrantTypeSet) Has(t OAuthGrantType) bool {
	_, has := s[t]
	return has
}

// RequiresAuthorizationEndpoint returns true if any of the grant types in
// the set use the authorization endpoint.
func (s OAuthGrantTypeSet) RequiresAuthorizationEndpoint() bool {
	for t := range s {
		if t.UsesAuthorizationEndpoint() {
			return true
		}
	}
	return false
}

// RequiresTokenEndpoint returns true if any of the grant types in the set
// use the token endpoint.
func (s OAuthGrantTypeSet) RequiresTokenEndpoint() bool {
	for t := range s {
		if t.UsesTokenEndpoint() {
			return true
		}
	}
	return false
}

// GoString implements fmt.GoStringer.
func (s OAuthGrantTypeSet) GoString() string {
	var buf strings.Builder
	buf.WriteString("linkindex.NewOAuthGrantTypeSet(")
	first := true
	for t := range s {
		if !first {
			buf.WriteString(", ")
		}
		fmt.Fprintf(&buf, "%q", string(t))
		first = false
	}
	buf.WriteString(")")
	return buf.String()
}
