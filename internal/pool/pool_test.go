package pool

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tomb "gopkg.in/tomb.v2"
)

func TestWorkerPool_DispatchesEveryTaskExactlyOnce(t *testing.T) {
	const n = 50
	p := New(4, zerolog.Nop())

	var mu sync.Mutex
	seen := make(map[int]bool)
	var wg sync.WaitGroup
	wg.Add(n)

	tb, ctx := tomb.WithContext(context.Background())
	_ = ctx

	tb.Go(func() error {
		p.Run(tb, func(_ *tomb.Tomb, task any) error {
			defer wg.Done()
			mu.Lock()
			seen[task.(int)] = true
			mu.Unlock()
			return nil
		})
		return nil
	})

	for i := 0; i < n; i++ {
		p.AddTask(i)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for tasks to be processed")
	}

	tb.Kill(nil)
	require.NoError(t, tb.Wait())

	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, seen, n)
}

func TestWorkerPool_StopsWhenTombDies(t *testing.T) {
	p := New(2, zerolog.Nop())
	tb, _ := tomb.WithContext(context.Background())

	runDone := make(chan struct{})
	tb.Go(func() error {
		p.Run(tb, func(_ *tomb.Tomb, _ any) error { return nil })
		close(runDone)
		return nil
	})

	tb.Kill(nil)

	select {
	case <-runDone:
	case <-time.After(2 * time.Second):
		t.Fatal("pool did not stop after tomb died")
	}
}
