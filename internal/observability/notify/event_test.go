package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetry(t *testing.T) {
	t.Run("stops on first success", func(t *testing.T) {
		calls := 0
		err := Retry(context.Background(), 3, func(context.Context) error {
			calls++
			if calls < 2 {
				return errors.New("flaky")
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 2, calls)
	})

	t.Run("returns last error after limit", func(t *testing.T) {
		calls := 0
		err := Retry(context.Background(), 1, func(context.Context) error {
			calls++
			return errors.New("down")
		})
		require.EqualError(t, err, "down")
		assert.Equal(t, 2, calls)
	})

	t.Run("negative limit means one attempt", func(t *testing.T) {
		calls := 0
		_ = Retry(context.Background(), -4, func(context.Context) error {
			calls++
			return errors.New("down")
		})
		assert.Equal(t, 1, calls)
	})

	t.Run("cancelled while waiting", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		err := Retry(ctx, 5, func(context.Context) error {
			cancel()
			return errors.New("down")
		})
		require.ErrorIs(t, err, context.Canceled)
	})
}

func TestExcerpt(t *testing.T) {
	assert.Equal(t, "short", Excerpt("short", 10))
	assert.Equal(t, "abc…", Excerpt("abcdef", 3))
	assert.Equal(t, "abc", Excerpt("abc", 0))
}

func TestSinkFuncNil(t *testing.T) {
	var f SinkFunc
	assert.NoError(t, f.SendAlert(context.Background(), AlertPayload{}))
}
