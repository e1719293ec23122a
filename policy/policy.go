// Package policy describes how callers are identified.
package policy

import (
	"golang.org/x/oauth2"
)

// DefaultOwner owns every connection when callers are not identified.
const DefaultOwner = "default"

type Policy struct {

	// Oauth2Config names the identity provider issuing caller tokens. Without
	// it every caller shares the anonymous owner.
	Oauth2Config *oauth2.Config `json:"oauth2,omitempty" yaml:"oauth2,omitempty"`

	// RequireIdentityToken rejects callers without a token even when no
	// identity provider is configured.
	RequireIdentityToken bool `json:"requireIdentityToken,omitempty" yaml:"requireIdentityToken,omitempty"`

	// AnonymousOwner overrides DefaultOwner.
	AnonymousOwner string `json:"anonymousOwner,omitempty" yaml:"anonymousOwner,omitempty"`
}

// Anonymous returns the owner assigned to unidentified callers.
func (p *Policy) Anonymous() string {
	if p == nil || p.AnonymousOwner == "" {
		return DefaultOwner
	}
	return p.AnonymousOwner
}
