// Package notifier signals downstream cached views that a logical path has
// gone stale after a mutation. Delivery is best-effort: a lost signal costs
// a stale page, never a failed mutation.
package notifier

import "context"

// Notifier emits a fire-and-forget invalidation for a logical path.
// Implementations must not block the caller beyond a local publish and
// must swallow (log) delivery failures.
type Notifier interface {
	Invalidate(ctx context.Context, path string)
}

// Noop drops every signal. Used in tests and when messaging is disabled.
type Noop struct{}

func (Noop) Invalidate(context.Context, string) {}
