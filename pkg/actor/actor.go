// Package actor carries the acting user through request context so that
// stock movements and documents record who performed them.
package actor

import "context"

type contextKey string

const actorKey contextKey = "actor"

// Actor identifies the user performing an operation.
type Actor struct {
	ID   string
	Name string
}

// WithActor returns a context carrying the given actor.
func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, actorKey, a)
}

// FromContext retrieves the actor from context. The second return value
// is false when no actor was set.
func FromContext(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(actorKey).(Actor)
	return a, ok
}

// IDFromContext returns the acting user's ID, or "system" when the
// operation was not initiated by a request (scheduler, CLI).
func IDFromContext(ctx context.Context) string {
	if a, ok := FromContext(ctx); ok && a.ID != "" {
		return a.ID
	}
	return "system"
}
