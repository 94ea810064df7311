package context

import (
	"context"
	"testing"
	"time"
)

// WithTest bounds ctx by the deadline of t, less a second for cleanup.
//
// Without deadline, ctx is returned with a cancel func.
func WithTest(ctx context.Context, t *testing.T) (context.Context, context.CancelFunc) {
	if deadline, ok := t.Deadline(); ok {
		return context.WithDeadline(ctx, deadline.Add(-time.Second))
	}
	return context.WithCancel(ctx)
}
