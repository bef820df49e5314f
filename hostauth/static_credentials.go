// Copyright (c) The OpenTofu Authors
// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package hostauth

import (
	"context"

	"github.com/opentofu/linkbuilder/apihost"
)

// StaticCredentialsSource returns a [CredentialsSource] that looks up any
// requested credentials directly in the provided map.
//
// The caller should not modify the given map after passing it to this
// function.
func StaticCredentialsSource(creds map[apihost.Hostname]HostCredentials) CredentialsSource {
	return staticCredentialsSource(creds)
}

type staticCredentialsSource map[apihost.Hostname]HostCredentials

// ForHost implements [CredentialsSource].
func (s staticCredentialsSource) ForHost(_ context.Context, host apihost.Hostname) (HostCredentials, error) {
	return s[host], nil
}
