package iam

import "context"

type tokenKey struct{}

// WithToken attaches the session token sent as a bearer credential on every
// backend call made with the returned context
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

func TokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey{}).(string)
	return token
}
