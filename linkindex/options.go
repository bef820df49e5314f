// Copyright (c) The OpenTofu Authors
// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package linkindex

import (
	"net/http"

	"github.com/opentofu/linkbuilder/hostauth"
)

type ClientOption interface {
	applyOption(client *Client)
}

type clientOption func(client *Client)

func (o clientOption) applyOption(client *Client) {
	o(client)
}

func WithHTTPClient(httpClient *http.Client) ClientOption {
	return clientOption(func(client *Client) {
		client.httpClient = httpClient
	})
}

func WithCredentials(creds hostauth.CredentialsSource) ClientOption {
	return clientOption(func(client *Client) {
		client.credsSrc = creds
	})
}
