package utils

import (
	"context"
	"time"
)

// WaitFor blocks for d and returns early with the context error when ctx is
// done first. A non-nil sleep replaces the timer, which lets tests skip real
// waiting.
func WaitFor(ctx context.Context, d time.Duration, sleep func(time.Duration)) error {
	if d <= 0 {
		return nil
	}
	if sleep != nil {
		return waitWith(ctx, d, sleep)
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func waitWith(ctx context.Context, d time.Duration, sleep func(time.Duration)) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		sleep(d)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}
