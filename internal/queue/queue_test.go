package queue

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEnqueueRunsTask(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	q := New(ctx, Config{BasePollInterval: 5 * time.Millisecond}, nil)
	defer q.Stop()

	var ran int32
	var wg sync.WaitGroup
	wg.Add(1)
	q.Enqueue("job-1", func(ctx context.Context) {
		atomic.AddInt32(&ran, 1)
		wg.Done()
	})

	wg.Wait()
	assert.EqualValues(t, 1, atomic.LoadInt32(&ran))
}

func TestEnqueueDedupsInFlightID(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	q := New(ctx, Config{BasePollInterval: 5 * time.Millisecond}, nil)
	defer q.Stop()

	block := make(chan struct{})
	var starts int32

	q.Enqueue("dup", func(ctx context.Context) {
		atomic.AddInt32(&starts, 1)
		<-block
	})
	time.Sleep(20 * time.Millisecond) // let the first task start and hold the slot

	q.Enqueue("dup", func(ctx context.Context) {
		atomic.AddInt32(&starts, 1)
	})
	close(block)
	time.Sleep(20 * time.Millisecond)

	assert.EqualValues(t, 1, atomic.LoadInt32(&starts))
}

func TestNewIDIsNonEmpty(t *testing.T) {
	assert.NotEmpty(t, NewID())
}
