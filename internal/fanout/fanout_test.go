package fanout

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDo_IsolatesFailures(t *testing.T) {
	boom := errors.New("boom")

	results := Do(context.Background(),
		func(ctx context.Context) (int, error) { return 1, nil },
		func(ctx context.Context) (int, error) { return 0, boom },
		func(ctx context.Context) (int, error) { return 3, nil },
	)

	require.Len(t, results, 3)
	assert.True(t, results[0].OK())
	assert.Equal(t, 1, results[0].Value)
	assert.ErrorIs(t, results[1].Err, boom)
	assert.True(t, results[2].OK())
	assert.Equal(t, 3, results[2].Value)
}

func TestDo_FailureDoesNotCancelSiblings(t *testing.T) {
	results := Do(context.Background(),
		func(ctx context.Context) (string, error) { return "", errors.New("fast failure") },
		func(ctx context.Context) (string, error) {
			select {
			case <-time.After(50 * time.Millisecond):
				return "slow success", nil
			case <-ctx.Done():
				return "", ctx.Err()
			}
		},
	)

	assert.Error(t, results[0].Err)
	assert.NoError(t, results[1].Err)
	assert.Equal(t, "slow success", results[1].Value)
}

func TestDo_RunsConcurrently(t *testing.T) {
	var inFlight, peak int32
	branch := func(ctx context.Context) (bool, error) {
		n := atomic.AddInt32(&inFlight, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
		return true, nil
	}

	Do(context.Background(), branch, branch, branch, branch)
	assert.Greater(t, atomic.LoadInt32(&peak), int32(1))
}

func TestDoLimit(t *testing.T) {
	var inFlight, peak int32
	branch := func(ctx context.Context) (int, error) {
		n := atomic.AddInt32(&inFlight, 1)
		if n > atomic.LoadInt32(&peak) {
			atomic.StoreInt32(&peak, n)
		}
		time.Sleep(10 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
		return 0, nil
	}

	DoLimit(context.Background(), 1, branch, branch, branch)
	assert.Equal(t, int32(1), atomic.LoadInt32(&peak))
}

func TestDo_RecoversPanics(t *testing.T) {
	results := Do(context.Background(),
		func(ctx context.Context) (int, error) { panic("bad payload") },
		func(ctx context.Context) (int, error) { return 7, nil },
	)

	require.Error(t, results[0].Err)
	assert.Contains(t, results[0].Err.Error(), "bad payload")
	assert.Equal(t, 7, results[1].Value)
}

func TestDo_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	results := Do(ctx, func(ctx context.Context) (int, error) {
		called = true
		return 1, nil
	})

	assert.False(t, called)
	assert.ErrorIs(t, results[0].Err, context.Canceled)
}

func TestMap(t *testing.T) {
	results := Map(context.Background(),
		Task[string]{Name: "revenue", Run: func(ctx context.Context) (string, error) { return "r", nil }},
		Task[string]{Name: "channels", Run: func(ctx context.Context) (string, error) { return "", errors.New("down") }},
		Task[string]{Name: "nil"},
	)

	assert.Equal(t, "r", results["revenue"].Value)
	assert.False(t, results["channels"].OK())
	assert.Empty(t, results["channels"].Value)
	assert.Error(t, results["nil"].Err)
}

func TestDo_Empty(t *testing.T) {
	assert.Empty(t, Do[int](context.Background()))
}
