package util

import (
	"context"
)

// Sel runs f in its own goroutine and returns its error, or the context
// error if ctx is done first. f keeps running after a cancellation until
// its blocking I/O fails, so callers close the underlying connection to
// release it.
func Sel(ctx context.Context, f func() error) error {
	var d = make(chan error, 1)
	go func() {
		d <- f()
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-d:
		return err
	}
}
