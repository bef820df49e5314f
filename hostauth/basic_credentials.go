// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0

package hostauth

import (
	"net/http"

	"github.com/zclconf/go-cty/cty"
)

// HostCredentialsBasic is a HostCredentials implementation for HTTP basic
// authentication, sending a username and password pair in the Authorization
// header of each request.
//
// Prefer [HostCredentialsToken] for hosts that support it. Basic
// authentication is included for privately-hosted link indexes that sit
// behind a generic authenticating proxy.
type HostCredentialsBasic struct {
	Username string
	Password string
}

// Interface implementation assertions. Compilation will fail here if
// HostCredentialsBasic does not fully implement these interfaces.
var _ HostCredentials = HostCredentialsBasic{}
var _ NewHostCredentials = HostCredentialsBasic{}

// PrepareRequest alters the given HTTP request by setting its Authorization
// header to the basic authentication form of the receiver's username and
// password.
func (bc HostCredentialsBasic) PrepareRequest(req *http.Request) {
	if req.Header == nil {
		req.Header = http.Header{}
	}
	req.SetBasicAuth(bc.Username, bc.Password)
}

// ToStore returns a credentials object with the attributes "username" and
// "password". This implements [NewHostCredentials].
func (bc HostCredentialsBasic) ToStore() cty.Value {
	return cty.ObjectVal(map[string]cty.Value{
		"username": cty.StringVal(bc.Username),
		"password": cty.StringVal(bc.Password),
	})
}
