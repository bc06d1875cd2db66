package worker

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPool_PreservesInputOrder(t *testing.T) {
	pool := NewPool[int, int](4)
	items := make([]int, 50)
	for i := range items {
		items[i] = i
	}

	results := pool.Process(context.Background(), items, func(_ context.Context, v int) (int, error) {
		return v * 2, nil
	})

	require.Len(t, results, 50)
	for i, r := range results {
		assert.Equal(t, i, r.Index)
		assert.Equal(t, i*2, r.Value)
		assert.NoError(t, r.Err)
	}
}

func TestPool_CapturesPerItemErrors(t *testing.T) {
	pool := NewPool[int, int](2)
	boom := errors.New("boom")

	results := pool.Process(context.Background(), []int{1, 2, 3}, func(_ context.Context, v int) (int, error) {
		if v == 2 {
			return 0, fmt.Errorf("item failed: %w", boom)
		}
		return v, nil
	})

	require.Len(t, results, 3)
	assert.NoError(t, results[0].Err)
	assert.ErrorIs(t, results[1].Err, boom)
	assert.NoError(t, results[2].Err)
}

func TestPool_EmptyInput(t *testing.T) {
	pool := NewPool[int, int](2)
	assert.Nil(t, pool.Process(context.Background(), nil, func(_ context.Context, v int) (int, error) {
		return v, nil
	}))
}

func TestPool_CancelledContext(t *testing.T) {
	pool := NewPool[int, int](1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := pool.Process(ctx, []int{1, 2, 3}, func(_ context.Context, v int) (int, error) {
		return v, nil
	})

	require.Len(t, results, 3)
	for _, r := range results {
		assert.ErrorIs(t, r.Err, context.Canceled)
	}
}

func TestPool_DefaultConcurrency(t *testing.T) {
	pool := NewPool[int, int](0)
	assert.Greater(t, pool.concurrency, 0)
}
