// Package auth derives the owner of a request from its identity token.
package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/viant/dbkit/policy"
	"github.com/viant/scy/auth/jwt/verifier"
)

// ErrMissingToken is returned when a policy requires an identity token and
// the context carries none.
var ErrMissingToken = errors.New("identity token is missing")

type tokenKey struct{}

// WithToken returns a context carrying the caller identity token.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

// Token returns the identity token carried by ctx.
func Token(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(tokenKey{}).(string)
	return token, ok && token != ""
}

type Service struct {
	Policy          *policy.Policy
	verifierService *verifier.Service
}

// Option customises the service.
type Option func(s *Service)

// WithVerifier verifies token signatures before reading claims.
func WithVerifier(verifierService *verifier.Service) Option {
	return func(s *Service) {
		s.verifierService = verifierService
	}
}

// IsAnonymous reports whether owner is the shared anonymous owner.
func (s *Service) IsAnonymous(owner string) bool {
	return owner == s.Policy.Anonymous()
}

// Owner returns the caller identity: the token email claim, else its subject.
// Without an identity provider every caller is the anonymous owner.
func (s *Service) Owner(ctx context.Context) (string, error) {
	token, hasToken := Token(ctx)
	if s == nil || s.Policy == nil {
		return policy.DefaultOwner, nil
	}
	if s.Policy.Oauth2Config == nil && !s.Policy.RequireIdentityToken {
		return s.Policy.Anonymous(), nil
	}
	if !hasToken {
		return "", ErrMissingToken
	}
	if s.verifierService == nil {
		if owner := unsafeSubjectOrEmail(token); owner != "" {
			return owner, nil
		}
		return "", fmt.Errorf("unable to extract owner from token")
	}
	claims, err := s.verifierService.VerifyClaims(ctx, token)
	if err != nil {
		return "", err
	}
	owner := claims.Email
	if owner == "" {
		owner = claims.Subject
	}
	if owner == "" {
		return "", fmt.Errorf("owner is empty in token claims")
	}
	return owner, nil
}

// unsafeSubjectOrEmail reads the "email" or "sub" claim without verifying the
// token signature. It is only used when no verifier is configured.
func unsafeSubjectOrEmail(tokenString string) string {
	var claimMap jwt.MapClaims
	_, _, err := new(jwt.Parser).ParseUnverified(tokenString, &claimMap)
	if err != nil {
		return ""
	}
	if email, _ := claimMap["email"].(string); email != "" {
		return email
	}
	if sub, _ := claimMap["sub"].(string); sub != "" {
		return sub
	}
	return ""
}

func New(policy *policy.Policy, options ...Option) *Service {
	ret := &Service{Policy: policy}
	for _, option := range options {
		option(ret)
	}
	return ret
}
