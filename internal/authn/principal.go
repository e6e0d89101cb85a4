// Package authn extracts the authenticated principal from bearer tokens
// issued by the external identity provider. Token issuance and revocation
// live with the provider; this package only verifies the shared-secret
// signature and carries the claims into the request context.
package authn

import "context"

// Principal is the authenticated identity a request acts as.
type Principal struct {
	ID    string
	Email string

	// AppRole comes from provider-managed metadata that the user cannot
	// edit. UserRole comes from user-editable signup metadata and is kept
	// separate so resolution can rank it below AppRole.
	AppRole  string
	UserRole string
}

type principalContextKey struct{}

// ContextWithPrincipal stores the principal in context.
func ContextWithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// PrincipalFromContext extracts the principal, nil when unauthenticated.
func PrincipalFromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalContextKey{}).(*Principal)
	return p
}
