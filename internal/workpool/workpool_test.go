package workpool

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunVisitsEveryItem(t *testing.T) {
	items := []int{1, 2, 3, 4, 5, 6, 7, 8}
	var mu sync.Mutex
	seen := make(map[int]bool)

	err := Run(context.Background(), items, 3, func(_ context.Context, n int) error {
		mu.Lock()
		defer mu.Unlock()
		seen[n] = true
		return nil
	})
	require.NoError(t, err)
	for _, n := range items {
		assert.True(t, seen[n])
	}
}

func TestRunPropagatesFirstFatalError(t *testing.T) {
	items := []int{1, 2, 3}
	boom := errors.New("boom")

	err := Run(context.Background(), items, 2, func(_ context.Context, n int) error {
		if n == 2 {
			return boom
		}
		return nil
	})
	require.ErrorIs(t, err, boom)
}

func TestRunCollectMergesPerWorkerResults(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}
	out, err := RunCollect(context.Background(), items, 2, func(_ context.Context, n int) ([]int, error) {
		return []int{n * n}, nil
	})
	require.NoError(t, err)
	assert.ElementsMatch(t, []int{1, 4, 9, 16, 25}, out)
}

func TestRunWithZeroItemsIsNoOp(t *testing.T) {
	err := Run[int](context.Background(), nil, 4, func(context.Context, int) error {
		t.Fatal("should not be called")
		return nil
	})
	require.NoError(t, err)
}
