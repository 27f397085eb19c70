package xretry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetryer_Do(t *testing.T) {
	t.Run("SuccessOnFirstAttempt", func(t *testing.T) {
		r := NewRetryer()
		var attempts int
		err := r.Do(context.Background(), func(context.Context) error {
			attempts++
			return nil
		})
		assert.NoError(t, err)
		assert.Equal(t, 1, attempts)
	})

	t.Run("SuccessAfterRetry", func(t *testing.T) {
		r := NewRetryer(WithAttempts(3), WithBackoff(NewNoBackoff()))
		var attempts int
		err := r.Do(context.Background(), func(context.Context) error {
			attempts++
			if attempts < 3 {
				return errors.New("connection reset")
			}
			return nil
		})
		assert.NoError(t, err)
		assert.Equal(t, 3, attempts)
	})

	t.Run("FailAfterMaxAttempts", func(t *testing.T) {
		boom := errors.New("persistent error")
		r := NewRetryer(WithAttempts(3), WithBackoff(NewNoBackoff()))
		var attempts int
		err := r.Do(context.Background(), func(context.Context) error {
			attempts++
			return boom
		})
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, 3, attempts)
	})

	t.Run("PermanentErrorNoRetry", func(t *testing.T) {
		r := NewRetryer(WithAttempts(5), WithBackoff(NewNoBackoff()))
		var attempts int
		err := r.Do(context.Background(), func(context.Context) error {
			attempts++
			return NewPermanentError(errors.New("bad request"))
		})
		assert.Error(t, err)
		assert.Equal(t, 1, attempts)
	})

	t.Run("OnRetry", func(t *testing.T) {
		var seen []int
		r := NewRetryer(WithAttempts(3), WithBackoff(NewNoBackoff()), WithOnRetry(func(attempt int, _ error) {
			seen = append(seen, attempt)
		}))
		_ = r.Do(context.Background(), func(context.Context) error { return errors.New("x") })
		// 每次失败都会回调，包括最后一次
		assert.Equal(t, []int{1, 2, 3}, seen)
	})

	t.Run("ContextCanceled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		r := NewRetryer(WithAttempts(10), WithBackoff(NewFixedBackoff(time.Hour)))
		var attempts int
		err := r.Do(ctx, func(context.Context) error {
			attempts++
			cancel()
			return errors.New("x")
		})
		assert.Error(t, err)
		assert.Equal(t, 1, attempts)
	})

	t.Run("NilArgs", func(t *testing.T) {
		var r *Retryer
		assert.ErrorIs(t, r.Do(context.Background(), func(context.Context) error { return nil }), ErrNilRetryer)
		assert.ErrorIs(t, NewRetryer().Do(context.Background(), nil), ErrNilFunc)
	})
}

func TestDoWithResult(t *testing.T) {
	r := NewRetryer(WithAttempts(3), WithBackoff(NewNoBackoff()))
	var attempts int
	v, err := DoWithResult(context.Background(), r, func(context.Context) (string, error) {
		attempts++
		if attempts == 1 {
			return "", errors.New("timeout")
		}
		return `{"timestamp":1,"hits":1}`, nil
	})
	require.NoError(t, err)
	assert.Equal(t, `{"timestamp":1,"hits":1}`, v)
	assert.Equal(t, 2, attempts)

	_, err = DoWithResult[string](context.Background(), nil, nil)
	assert.ErrorIs(t, err, ErrNilRetryer)
}

func TestWithAttempts_Minimum(t *testing.T) {
	assert.Equal(t, 1, NewRetryer(WithAttempts(0)).Attempts())
	assert.Equal(t, 3, NewRetryer().Attempts())
}

func TestIsRetryable(t *testing.T) {
	assert.False(t, IsRetryable(nil))
	assert.True(t, IsRetryable(errors.New("x")))
	assert.False(t, IsRetryable(NewPermanentError(errors.New("x"))))
	assert.Equal(t, "permanent error", NewPermanentError(nil).Error())
}

func TestExponentialBackoff(t *testing.T) {
	b := NewExponentialBackoff(
		WithInitialDelay(10*time.Millisecond),
		WithMaxDelay(50*time.Millisecond),
		WithMultiplier(2),
		WithJitter(0),
	)
	assert.Equal(t, 10*time.Millisecond, b.NextDelay(1))
	assert.Equal(t, 20*time.Millisecond, b.NextDelay(2))
	assert.Equal(t, 40*time.Millisecond, b.NextDelay(3))
	assert.Equal(t, 50*time.Millisecond, b.NextDelay(4))
	assert.Equal(t, 50*time.Millisecond, b.NextDelay(10000))
	assert.Equal(t, 10*time.Millisecond, b.NextDelay(0))

	jittered := NewExponentialBackoff(WithInitialDelay(100*time.Millisecond), WithJitter(0.5))
	for range 100 {
		d := jittered.NextDelay(1)
		assert.GreaterOrEqual(t, d, 50*time.Millisecond)
		assert.LessOrEqual(t, d, 150*time.Millisecond)
	}
}

func TestFixedBackoff(t *testing.T) {
	assert.Equal(t, time.Second, NewFixedBackoff(time.Second).NextDelay(7))
	assert.Zero(t, NewFixedBackoff(-time.Second).NextDelay(1))
	assert.Zero(t, NewNoBackoff().NextDelay(3))
}
