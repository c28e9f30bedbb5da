package middleware

import "context"

type actorKey struct{}

// WithActor records the admin session subject for downstream handlers.
func WithActor(ctx context.Context, subject string) context.Context {
	return context.WithValue(ctx, actorKey{}, subject)
}

// ActorFromContext is "" for anonymous storefront traffic.
func ActorFromContext(ctx context.Context) string {
	subject, _ := ctx.Value(actorKey{}).(string)
	return subject
}
