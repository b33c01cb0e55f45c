package scheduler_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/threeview/pkg/scheduler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPool_SameKeyRunsInOrder(t *testing.T) {
	pool := scheduler.NewPool(context.Background())
	defer pool.Shutdown(context.Background())

	var mu sync.Mutex
	var got []int
	var wg sync.WaitGroup

	for i := 0; i < 100; i++ {
		wg.Add(1)
		i := i
		pool.Spawn("socket-1", func(ctx context.Context) {
			defer wg.Done()
			mu.Lock()
			got = append(got, i)
			mu.Unlock()
		})
	}
	wg.Wait()

	require.Len(t, got, 100)
	for i, v := range got {
		assert.Equal(t, i, v)
	}
}

func TestPool_KeysAreIndependent(t *testing.T) {
	pool := scheduler.NewPool(context.Background())
	defer pool.Shutdown(context.Background())

	block := make(chan struct{})
	done := make(chan struct{})

	pool.Spawn("slow", func(ctx context.Context) {
		<-block
	})
	pool.Spawn("fast", func(ctx context.Context) {
		close(done)
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("task on another key was blocked by a slow lane")
	}
	close(block)
}

func TestPool_ShutdownCancelsTasks(t *testing.T) {
	pool := scheduler.NewPool(context.Background())

	started := make(chan struct{})
	pool.Spawn("k", func(ctx context.Context) {
		close(started)
		<-ctx.Done()
	})
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, pool.Shutdown(ctx))

	ran := false
	pool.Spawn("k", func(ctx context.Context) { ran = true })
	assert.False(t, ran)
	assert.Equal(t, 0, pool.Pending())
}

func TestPool_PanicDoesNotKillLane(t *testing.T) {
	pool := scheduler.NewPool(context.Background())
	defer pool.Shutdown(context.Background())

	done := make(chan struct{})
	pool.Spawn("k", func(ctx context.Context) { panic("boom") })
	pool.Spawn("k", func(ctx context.Context) { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lane stopped after a panicking task")
	}
}
