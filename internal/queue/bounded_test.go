package queue

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPushDropsOldestWhenFull(t *testing.T) {
	q := NewBounded[int](2)
	assert.False(t, q.Push(1))
	assert.False(t, q.Push(2))
	assert.True(t, q.Push(3))
	assert.Equal(t, int64(1), q.Dropped())
	assert.Equal(t, 2, q.Len())

	var got []int
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	q.Run(ctx, func(v int) { got = append(got, v) })
	assert.Equal(t, []int{2, 3}, got)
}

func TestRunConsumesUntilCancelled(t *testing.T) {
	q := NewBounded[string](8)
	ctx, cancel := context.WithCancel(context.Background())

	var mu sync.Mutex
	var seen []string
	done := make(chan struct{})
	go func() {
		q.Run(ctx, func(s string) {
			mu.Lock()
			seen = append(seen, s)
			mu.Unlock()
		})
		close(done)
	}()

	q.Push("a")
	q.Push("b")
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) == 2
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestPushNeverBlocksUnderLoad(t *testing.T) {
	q := NewBounded[int](4)
	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				q.Push(i)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 4, q.Len())
	assert.Equal(t, int64(4000-4), q.Dropped())
}
