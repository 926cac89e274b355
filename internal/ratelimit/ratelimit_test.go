package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimiter_UnlimitedNeverBlocks(t *testing.T) {
	l := New(0)
	for i := 0; i < 100; i++ {
		require.NoError(t, l.Wait(context.Background()))
	}
}

func TestLimiter_AllowsUpToRPMThenBlocks(t *testing.T) {
	l := New(2)
	l.window = 50 * time.Millisecond

	ctx := context.Background()
	require.NoError(t, l.Wait(ctx))
	require.NoError(t, l.Wait(ctx))

	start := time.Now()
	require.NoError(t, l.Wait(ctx))
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
}

func TestLimiter_ContextCancellation(t *testing.T) {
	l := New(1)
	l.window = time.Hour

	require.NoError(t, l.Wait(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := l.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestDefaultClassify(t *testing.T) {
	assert.False(t, DefaultClassify(nil))
	assert.True(t, DefaultClassify(errors.New("429 Too Many Requests")))
	assert.True(t, DefaultClassify(errors.New("rate limit exceeded, slow down")))
	assert.True(t, DefaultClassify(errors.New("Too Many Requests")))
	assert.False(t, DefaultClassify(errors.New("connection refused")))
}

func TestRetryLadder_SequenceThenStop(t *testing.T) {
	l := newRetryLadder()
	assert.Equal(t, time.Second, l.NextBackOff())
	assert.Equal(t, 2*time.Second, l.NextBackOff())
	assert.Equal(t, 5*time.Second, l.NextBackOff())
	assert.Equal(t, 10*time.Second, l.NextBackOff())
	assert.Equal(t, backoff.Stop, l.NextBackOff())
}

func TestExecute_SucceedsFirstTry(t *testing.T) {
	l := New(0)
	calls := 0
	result, err := Execute(context.Background(), l, nil, func(ctx context.Context) (int, error) {
		calls++
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, result)
	assert.Equal(t, 1, calls)
}

func TestExecute_NonRateLimitErrorNotRetried(t *testing.T) {
	l := New(0)
	calls := 0
	wantErr := errors.New("boom")
	_, err := Execute(context.Background(), l, nil, func(ctx context.Context) (int, error) {
		calls++
		return 0, wantErr
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, wantErr)
	assert.Equal(t, 1, calls)
}

func TestExecute_RetriesOnceThenSucceeds(t *testing.T) {
	l := New(0)
	calls := 0
	result, err := Execute(context.Background(), l, nil, func(ctx context.Context) (int, error) {
		calls++
		if calls == 1 {
			return 0, errors.New("429 Too Many Requests")
		}
		return 7, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 7, result)
	assert.Equal(t, 2, calls)
}

func TestExecute_ContextCanceledDuringWaitIsNotWrappedAsExhausted(t *testing.T) {
	l := New(1)
	l.window = time.Hour
	require.NoError(t, l.Wait(context.Background())) // consume the only slot

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := Execute(ctx, l, nil, func(ctx context.Context) (int, error) {
		t.Fatal("fn should never run while blocked on Wait")
		return 0, nil
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
