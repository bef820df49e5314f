// Copyright (c) The OpenTofu Authors
// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package linkindex

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/hashicorp/go-version"

	linkbuilder "github.com/opentofu/linkbuilder"
)

// Index represents the link index document published by one host.
type Index struct {
	indexURL *url.URL
	hostname string
	doc      map[string]any
}

// ErrLinkNotProvided is returned when the requested link is not provided.
type ErrLinkNotProvided struct {
	hostname string
	rel      string
}

// Error returns a customized error message.
func (e *ErrLinkNotProvided) Error() string {
	if e.hostname == "" {
		return fmt.Sprintf("host does not provide a %s link", e.rel)
	}
	return fmt.Sprintf("host %s does not provide a %s link", e.hostname, e.rel)
}

// ErrLinkNotTemplated is returned when expansion variables are supplied for
// a link that is not declared as a template.
type ErrLinkNotTemplated struct {
	hostname string
	rel      string
}

// Error returns a customized error message.
func (e *ErrLinkNotTemplated) Error() string {
	if e.hostname == "" {
		return fmt.Sprintf("link %s is not a template, so it takes no expansion variables", e.rel)
	}
	return fmt.Sprintf("link %s on host %s is not a template, so it takes no expansion variables", e.rel, e.hostname)
}

// ErrCurieNotDefined is returned when the index defines no curie for the
// requested compact link relation prefix.
type ErrCurieNotDefined struct {
	hostname string
	name     string
}

// Error returns a customized error message.
func (e *ErrCurieNotDefined) Error() string {
	if e.hostname == "" {
		return fmt.Sprintf("host does not define a curie named %s", e.name)
	}
	return fmt.Sprintf("host %s does not define a curie named %s", e.hostname, e.name)
}

// ErrUnsupportedIndexVersion is returned when the index document declares a
// format version that this package does not support.
type ErrUnsupportedIndexVersion struct {
	hostname string
	version  string
}

// Error returns a customized error message.
func (e *ErrUnsupportedIndexVersion) Error() string {
	if e.hostname == "" {
		return fmt.Sprintf("link index version %s is not supported", e.version)
	}
	return fmt.Sprintf("host %s publishes link index version %s, which is not supported", e.hostname, e.version)
}

// ErrOAuthNotConfigured is returned when the index does not describe an
// OAuth client.
type ErrOAuthNotConfigured struct {
	hostname string
}

// Error returns a customized error message.
func (e *ErrOAuthNotConfigured) Error() string {
	if e.hostname == "" {
		return "host does not define an OAuth client"
	}
	return fmt.Sprintf("host %s does not define an OAuth client", e.hostname)
}

// LinkURL returns the URL for the given link relation, filling in any
// placeholders of its URI template from the given variables by name.
//
// Links that are not templates take no variables, so passing any for such a
// link is an error rather than a silent no-op. That way callers notice
// immediately when a host stops declaring one of its links as a template.
//
// A non-nil result is always an absolute URL with a scheme of either HTTPS
// or HTTP.
func (i *Index) LinkURL(rel string, vars map[string]any) (*url.URL, error) {
	return i.resolveLink(rel, len(vars) > 0, func(href string) (string, error) {
		return linkbuilder.ExpandNamed(href, vars)
	})
}

// LinkURLValues is like [Index.LinkURL] except that placeholders are filled
// in positionally, in order of appearance, from the given values.
func (i *Index) LinkURLValues(rel string, values ...any) (*url.URL, error) {
	return i.resolveLink(rel, len(values) > 0, func(href string) (string, error) {
		return linkbuilder.Expand(href, values...)
	})
}

// LinkURLPairs is like [Index.LinkURL] except that the variables are given
// as an ordered list of name/value pairs.
func (i *Index) LinkURLPairs(rel string, vars linkbuilder.Pairs) (*url.URL, error) {
	return i.resolveLink(rel, len(vars) > 0, func(href string) (string, error) {
		return linkbuilder.ExpandPairs(href, vars)
	})
}

// resolveLink implements the common flow of the LinkURL variants: look up
// the relation, refuse variables for non-template links, expand, and parse.
func (i *Index) resolveLink(rel string, haveVars bool, expand func(href string) (string, error)) (*url.URL, error) {
	href, templated, err := i.link(rel)
	if err != nil {
		return nil, err
	}

	if haveVars && !templated {
		return nil, &ErrLinkNotTemplated{hostname: i.hostname, rel: rel}
	}

	urlStr := href
	if templated {
		urlStr, err = expand(href)
		if err != nil {
			return nil, fmt.Errorf("failed to expand link %s: %w", rel, err)
		}
	}

	u, err := i.parseURL(urlStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse link URL: %v", err)
	}

	return u, nil
}

// link returns the raw href declared for the given link relation, along with
// whether that href is to be interpreted as a URI template.
func (i *Index) link(rel string) (string, bool, error) {
	// No links provided by an empty Index.
	if i == nil || i.doc == nil {
		return "", false, &ErrLinkNotProvided{rel: rel}
	}

	links, ok := i.doc["links"].(map[string]any)
	if !ok {
		return "", false, &ErrLinkNotProvided{hostname: i.hostname, rel: rel}
	}

	switch entry := links[rel].(type) {
	case string:
		// A bare string is a template exactly when it contains a
		// placeholder, since there is no flag to consult.
		return entry, linkbuilder.IsTemplated(entry), nil
	case map[string]any:
		href, ok := entry["href"].(string)
		if !ok {
			return "", false, fmt.Errorf("link %s must have a string \"href\" property in the index document", rel)
		}
		templated, _ := entry["templated"].(bool)
		return href, templated, nil
	case nil:
		return "", false, &ErrLinkNotProvided{hostname: i.hostname, rel: rel}
	default:
		return "", false, fmt.Errorf("link %s must be declared with a string or object value in the index document", rel)
	}
}

// CurieURL returns the documentation URL for the given compact link
// relation, which should be of the form "prefix:reference".
//
// The index's "curies" array associates each prefix with a URI template
// taking a single "rel" variable, following the HAL convention.
//
// A non-nil result is always an absolute URL with a scheme of either HTTPS
// or HTTP.
func (i *Index) CurieURL(rel string) (*url.URL, error) {
	name, reference, err := parseCompactRel(rel)
	if err != nil {
		return nil, err
	}

	// No curies defined by an empty Index.
	if i == nil || i.doc == nil {
		return nil, &ErrCurieNotDefined{name: name}
	}

	curies, ok := i.doc["curies"].([]any)
	if !ok {
		return nil, &ErrCurieNotDefined{hostname: i.hostname, name: name}
	}

	for _, curieI := range curies {
		curie, ok := curieI.(map[string]any)
		if !ok {
			// We'll ignore this so that we can potentially introduce
			// other types into this array later if we need to.
			continue
		}
		if curieName, ok := curie["name"].(string); !ok || curieName != name {
			continue
		}

		href, ok := curie["href"].(string)
		if !ok {
			return nil, fmt.Errorf("curie %s must have a string \"href\" property in the index document", name)
		}
		urlStr, err := linkbuilder.ExpandNamed(href, map[string]any{"rel": reference})
		if err != nil {
			return nil, fmt.Errorf("failed to expand curie %s: %w", name, err)
		}

		u, err := i.parseURL(urlStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse curie URL: %v", err)
		}
		return u, nil
	}

	return nil, &ErrCurieNotDefined{hostname: i.hostname, name: name}
}

// OAuthClient returns the OAuth client configuration published in the index
// document's optional "oauth" property.
//
// This is for hosts whose links require end-user authorization: the result
// describes how to obtain a token that the hostauth layer can then attach
// to subsequent requests.
func (i *Index) OAuthClient() (*OAuthClient, error) {
	// No OAuth client described by an empty Index.
	if i == nil || i.doc == nil {
		return nil, &ErrOAuthNotConfigured{}
	}

	var raw map[string]any
	switch v := i.doc["oauth"].(type) {
	case map[string]any:
		raw = v // Great!
	case nil:
		return nil, &ErrOAuthNotConfigured{hostname: i.hostname}
	default:
		return nil, fmt.Errorf("oauth client must be declared with an object value in the index document")
	}

	var grantTypes OAuthGrantTypeSet
	//nolint:nestif
	if rawGTs, ok := raw["grant_types"]; ok {
		if gts, ok := rawGTs.([]any); ok {
			var kws []string
			for _, gtI := range gts {
				gt, ok := gtI.(string)
				if !ok {
					// We'll ignore this so that we can potentially introduce
					// other types into this array later if we need to.
					continue
				}
				kws = append(kws, gt)
			}
			grantTypes = NewOAuthGrantTypeSet(kws...)
		} else {
			return nil, fmt.Errorf("oauth client is defined with invalid grant_types property: must be an array of grant type strings")
		}
	} else {
		grantTypes = NewOAuthGrantTypeSet("authz_code")
	}

	ret := &OAuthClient{
		SupportedGrantTypes: grantTypes,
	}
	if clientIDStr, ok := raw["client"].(string); ok {
		ret.ID = clientIDStr
	} else {
		return nil, fmt.Errorf("oauth client definition is missing required property \"client\"")
	}
	if urlStr, ok := raw["authz"].(string); ok {
		u, err := i.parseURL(urlStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse authorization URL: %v", err)
		}
		ret.AuthorizationURL = u
	} else if grantTypes.RequiresAuthorizationEndpoint() {
		return nil, fmt.Errorf("oauth client definition is missing required property \"authz\"")
	}
	if urlStr, ok := raw["token"].(string); ok {
		u, err := i.parseURL(urlStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse token URL: %v", err)
		}
		ret.TokenURL = u
	} else if grantTypes.RequiresTokenEndpoint() {
		return nil, fmt.Errorf("oauth client definition is missing required property \"token\"")
	}
	//nolint:nestif
	if portsRaw, ok := raw["ports"].([]any); ok {
		if len(portsRaw) != 2 {
			return nil, fmt.Errorf("invalid \"ports\" definition for oauth client: must be a two-element array")
		}
		invalidPortsErr := fmt.Errorf("invalid \"ports\" definition for oauth client: both ports must be whole numbers between 1024 and 65535")
		ports := make([]uint16, 2)
		for idx := range ports {
			switch v := portsRaw[idx].(type) {
			case float64:
				// Decoding JSON always produces float64 for numbers.
				if float64(uint16(v)) != v || v < 1024 {
					return nil, invalidPortsErr
				}
				ports[idx] = uint16(v)
			case int:
				// The YAML loader produces int for whole numbers.
				if v < 1024 || v > 65535 {
					return nil, invalidPortsErr
				}
				ports[idx] = uint16(v)
			default:
				return nil, invalidPortsErr
			}
		}
		if ports[1] < ports[0] {
			return nil, fmt.Errorf("invalid \"ports\" definition for oauth client: minimum port cannot be greater than maximum port")
		}
		ret.MinPort = ports[0]
		ret.MaxPort = ports[1]
	} else {
		// Default is to accept any port in the range, for a client that is
		// able to call back to any localhost port.
		ret.MinPort = 1024
		ret.MaxPort = 65535
	}
	if scopesRaw, ok := raw["scopes"].([]any); ok {
		var scopes []string
		for _, scopeI := range scopesRaw {
			scope, ok := scopeI.(string)
			if !ok {
				return nil, fmt.Errorf("invalid \"scopes\" for oauth client: all scopes must be strings")
			}
			scopes = append(scopes, scope)
		}
		ret.Scopes = scopes
	}

	return ret, nil
}

func (i *Index) parseURL(urlStr string) (*url.URL, error) {
	u, err := url.Parse(urlStr)
	if err != nil {
		return nil, err
	}

	// Make relative URLs absolute using our index URL.
	if !u.IsAbs() {
		u = i.indexURL.ResolveReference(u)
	}

	if u.Scheme != "https" && u.Scheme != "http" {
		return nil, fmt.Errorf("unsupported scheme %s", u.Scheme)
	}
	if u.User != nil {
		return nil, fmt.Errorf("embedded username/password information is not permitted")
	}

	// The fragment part is kept: curie templates routinely anchor into a
	// specific section of a documentation page.

	return u, nil
}

func parseCompactRel(rel string) (string, string, error) {
	parts := strings.SplitN(rel, ":", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid compact link relation format (i.e. prefix:reference): %s", rel)
	}

	return parts[0], parts[1], nil
}

// supportedFormatVersions describes the range of index document format
// versions this package can interpret. A minor version bump signals
// backward-compatible additions only, so anything below the next major
// version is acceptable.
var supportedFormatVersions = version.MustConstraints(version.NewConstraint(">= 1.0, < 2.0"))

// checkFormatVersion validates the optional top-level "version" property of
// an index document. Documents that omit it are treated as format 1.0.
func checkFormatVersion(hostname string, doc map[string]any) error {
	raw, exists := doc["version"]
	if !exists {
		return nil
	}
	vStr, ok := raw.(string)
	if !ok {
		return fmt.Errorf("index document \"version\" property must be a string")
	}
	v, err := version.NewVersion(vStr)
	if err != nil {
		return fmt.Errorf("index document has invalid version %q", vStr)
	}
	if !supportedFormatVersions.Check(v) {
		return &ErrUnsupportedIndexVersion{hostname: hostname, version: vStr}
	}
	return nil
}
