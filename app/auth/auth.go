// Package auth is the narrow seam to the identity subsystem: it knows who
// the caller is and whether they may run administrative operations.
package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

const RoleAdmin = "Admin"

var (
	// ErrUnauthenticated is returned when a request carries no usable credentials.
	ErrUnauthenticated = errors.New("unauthenticated")
)

// Principal is an authenticated caller.
type Principal struct {
	Subject string
	Roles   []string
}

func (p *Principal) HasRole(role string) bool {
	if p == nil {
		return false
	}
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}

func (p *Principal) IsAdmin() bool {
	return p.HasRole(RoleAdmin)
}

// Authenticator resolves the caller of a request.
type Authenticator interface {
	Authenticate(r *http.Request) (*Principal, error)
}

type principalKey struct{}

// WithPrincipal returns a copy of ctx carrying p.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext returns the principal stored by RequireAdmin, if any.
func PrincipalFromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(*Principal)
	return p, ok
}

// StaticTokens authenticates bearer tokens against a fixed set of admin
// tokens, typically loaded from configuration.
type StaticTokens struct {
	tokens map[string]struct{}
}

var _ Authenticator = (*StaticTokens)(nil)

func NewStaticTokens(tokens []string) *StaticTokens {
	set := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		if t = strings.TrimSpace(t); t != "" {
			set[t] = struct{}{}
		}
	}
	return &StaticTokens{tokens: set}
}

func (s *StaticTokens) Authenticate(r *http.Request) (*Principal, error) {
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return nil, ErrUnauthenticated
	}
	token = strings.TrimSpace(token)
	if _, found := s.tokens[token]; !found || token == "" {
		return nil, ErrUnauthenticated
	}
	return &Principal{Subject: "admin", Roles: []string{RoleAdmin}}, nil
}
