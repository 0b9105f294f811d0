package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "xscraper/pkg/errors"
	"xscraper/pkg/logger"
)

func testConfig(maxAttempts int) *Config {
	return &Config{
		MaxAttempts: maxAttempts,
		Backoff:     &ConstantBackoff{Delay: time.Millisecond},
		RetryIf:     DefaultRetryIf,
		Context:     context.Background(),
		Logger:      logger.NewTestLogger(),
	}
}

func TestDoSucceedsFirstAttempt(t *testing.T) {
	calls := 0
	err := Do(func() error {
		calls++
		return nil
	}, testConfig(3))

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoRetriesUntilSuccess(t *testing.T) {
	calls := 0
	err := Do(func() error {
		calls++
		if calls < 3 {
			return errs.New(errs.ErrorTypeNavigation, "not yet")
		}
		return nil
	}, testConfig(5))

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDoExhaustsAttempts(t *testing.T) {
	calls := 0
	err := Do(func() error {
		calls++
		return errs.New(errs.ErrorTypeNavigation, "always down")
	}, testConfig(3))

	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.Contains(t, err.Error(), "max retry attempts")
	assert.True(t, errs.Is(err, errs.ErrorTypeNavigation))
}

func TestDoStopsOnTerminalError(t *testing.T) {
	calls := 0
	err := Do(func() error {
		calls++
		return errs.New(errs.ErrorTypeAuth, "rejected")
	}, testConfig(5))

	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.True(t, errs.Is(err, errs.ErrorTypeAuth))
}

func TestDoSkipsCooldownAfterFinalAttempt(t *testing.T) {
	cfg := testConfig(3)
	cfg.Backoff = &ConstantBackoff{Delay: 200 * time.Millisecond}

	start := time.Now()
	err := Do(func() error {
		return errs.New(errs.ErrorTypeNavigation, "always down")
	}, cfg)
	elapsed := time.Since(start)

	require.Error(t, err)
	// Two cooldowns between three attempts, none after the last.
	assert.GreaterOrEqual(t, elapsed, 400*time.Millisecond)
	assert.Less(t, elapsed, 580*time.Millisecond)
}

func TestDoContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	cfg := testConfig(10)
	cfg.Context = ctx
	cfg.Backoff = &ConstantBackoff{Delay: time.Minute}

	calls := 0
	done := make(chan error, 1)
	go func() {
		done <- Do(func() error {
			calls++
			return errs.New(errs.ErrorTypeNavigation, "down")
		}, cfg)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.Error(t, err)
		assert.Contains(t, err.Error(), "retry cancelled")
		assert.Equal(t, 1, calls)
	case <-time.After(2 * time.Second):
		t.Fatal("retry did not observe context cancellation")
	}
}

func TestDoOnRetryCallback(t *testing.T) {
	var attempts []int

	cfg := testConfig(3)
	cfg.OnRetry = func(attempt int, err error, delay time.Duration) {
		attempts = append(attempts, attempt)
	}

	_ = Do(func() error {
		return errs.New(errs.ErrorTypeNavigation, "down")
	}, cfg)

	// The callback fires before each sleep, never after the last attempt.
	assert.Equal(t, []int{1, 2}, attempts)
}

func TestDoWithResult(t *testing.T) {
	calls := 0
	result, err := DoWithResult(func() (string, error) {
		calls++
		if calls < 2 {
			return "", errs.New(errs.ErrorTypeExtraction, "flaky")
		}
		return "done", nil
	}, testConfig(3))

	require.NoError(t, err)
	assert.Equal(t, "done", result)
	assert.Equal(t, 2, calls)
}

func TestDefaultRetryIf(t *testing.T) {
	assert.False(t, DefaultRetryIf(nil))
	assert.True(t, DefaultRetryIf(errs.New(errs.ErrorTypeNavigation, "down")))
	assert.False(t, DefaultRetryIf(errs.New(errs.ErrorTypeStaleSession, "expired")))
	assert.False(t, DefaultRetryIf(context.Canceled))
	assert.False(t, DefaultRetryIf(context.DeadlineExceeded))
	assert.True(t, DefaultRetryIf(errors.New("unclassified")))
}

func TestRetrierBuilders(t *testing.T) {
	base := NewRetrier(testConfig(3))
	tweaked := base.WithMaxAttempts(5).WithBackoff(&ConstantBackoff{Delay: time.Millisecond})

	calls := 0
	err := tweaked.Do(func() error {
		calls++
		return errs.New(errs.ErrorTypeNavigation, "down")
	})

	require.Error(t, err)
	assert.Equal(t, 5, calls)

	// The original retrier keeps its own attempt budget.
	calls = 0
	_ = base.Do(func() error {
		calls++
		return errs.New(errs.ErrorTypeNavigation, "down")
	})
	assert.Equal(t, 3, calls)
}

func TestBackoffStrategies(t *testing.T) {
	t.Run("exponential growth capped at max", func(t *testing.T) {
		eb := &ExponentialBackoff{BaseDelay: time.Second, MaxDelay: 4 * time.Second, Multiplier: 2.0}
		assert.Equal(t, time.Second, eb.NextDelay(1))
		assert.Equal(t, 2*time.Second, eb.NextDelay(2))
		assert.Equal(t, 4*time.Second, eb.NextDelay(3))
		assert.Equal(t, 4*time.Second, eb.NextDelay(10))
	})

	t.Run("linear growth", func(t *testing.T) {
		lb := &LinearBackoff{BaseDelay: time.Second, MaxDelay: 10 * time.Second, Increment: time.Second}
		assert.Equal(t, time.Second, lb.NextDelay(1))
		assert.Equal(t, 3*time.Second, lb.NextDelay(3))
	})

	t.Run("constant", func(t *testing.T) {
		cb := &ConstantBackoff{Delay: 5 * time.Second}
		assert.Equal(t, 5*time.Second, cb.NextDelay(1))
		assert.Equal(t, 5*time.Second, cb.NextDelay(9))
		assert.Equal(t, time.Duration(0), cb.NextDelay(0))
	})
}

func TestWait(t *testing.T) {
	t.Run("zero delay returns immediately", func(t *testing.T) {
		assert.NoError(t, Wait(context.Background(), 0))
	})

	t.Run("cancelled context aborts the wait", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		assert.Error(t, Wait(ctx, time.Minute))
	})
}
