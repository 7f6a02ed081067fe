package rabbitmq

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// stubConfirm answers after delay with ack, or blocks until ctx ends.
type stubConfirm struct {
	delay time.Duration
	ack   bool
}

func (s stubConfirm) WaitContext(ctx context.Context) (bool, error) {
	select {
	case <-time.After(s.delay):
		return s.ack, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

func TestAwaitConfirm(t *testing.T) {
	ctx := context.Background()

	t.Run("ack", func(t *testing.T) {
		assert.NoError(t, awaitConfirm(ctx, stubConfirm{ack: true}, 50*time.Millisecond))
	})

	t.Run("nack_is_an_error", func(t *testing.T) {
		assert.EqualError(t, awaitConfirm(ctx, stubConfirm{ack: false}, 50*time.Millisecond), "publish nack")
	})

	t.Run("late_confirm_is_best_effort", func(t *testing.T) {
		assert.NoError(t, awaitConfirm(ctx, stubConfirm{delay: time.Second, ack: false}, 10*time.Millisecond))
	})

	t.Run("late_nack_does_not_leak_into_next_publish", func(t *testing.T) {
		late := stubConfirm{delay: 30 * time.Millisecond, ack: false}
		assert.NoError(t, awaitConfirm(ctx, late, 5*time.Millisecond))
		time.Sleep(40 * time.Millisecond)

		assert.NoError(t, awaitConfirm(ctx, stubConfirm{ack: true}, 50*time.Millisecond))
	})

	t.Run("caller_cancellation_wins", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		assert.ErrorIs(t, awaitConfirm(cctx, stubConfirm{delay: time.Second}, time.Second), context.Canceled)
	})
}
