package auth

import (
	"context"

	"github.com/fjod/go_cart/mobile-cart/internal/domain"
)

type ctxKey int

const principalKey ctxKey = iota

type principal struct {
	user  domain.User
	token string
}

// WithUser attaches an authenticated user and its bearer token to ctx.
func WithUser(ctx context.Context, user domain.User, token string) context.Context {
	return context.WithValue(ctx, principalKey, principal{user: user, token: token})
}

func UserFromContext(ctx context.Context) (domain.User, bool) {
	p, ok := ctx.Value(principalKey).(principal)
	return p.user, ok
}

func TokenFromContext(ctx context.Context) string {
	p, _ := ctx.Value(principalKey).(principal)
	return p.token
}

// Context answers from the user attached to the request context, for
// servers where each request carries its own credentials.
type Context struct{}

func (Context) IsAuthenticated(ctx context.Context) bool {
	_, ok := UserFromContext(ctx)
	return ok
}

func (Context) CurrentUser(ctx context.Context) (domain.User, bool) {
	return UserFromContext(ctx)
}

func (Context) Token(ctx context.Context) string {
	return TokenFromContext(ctx)
}
