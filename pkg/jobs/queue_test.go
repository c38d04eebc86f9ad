package jobs

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueProcessesJobs(t *testing.T) {
	var (
		wg        sync.WaitGroup
		processed atomic.Int64
	)
	queue := NewQueue("test", func(_ context.Context, job Job) error {
		processed.Add(1)
		wg.Done()
		return nil
	}, QueueConfig{Workers: 3, BufferSize: 10})
	queue.Start(context.Background())
	defer queue.Stop()

	for i := 0; i < 10; i++ {
		wg.Add(1)
		require.NoError(t, queue.Enqueue(Job{ID: "job", Type: "noop"}))
	}
	wg.Wait()
	assert.Equal(t, int64(10), processed.Load())
}

func TestQueueRetriesThenDrops(t *testing.T) {
	var attempts atomic.Int64
	dropped := make(chan Job, 1)
	failure := errors.New("boom")

	queue := NewQueue("test", func(_ context.Context, job Job) error {
		attempts.Add(1)
		return failure
	}, QueueConfig{
		Workers:    1,
		MaxRetries: 2,
		RetryDelay: time.Millisecond,
		OnDrop: func(job Job, err error) {
			assert.ErrorIs(t, err, failure)
			dropped <- job
		},
	})
	queue.Start(context.Background())
	defer queue.Stop()

	require.NoError(t, queue.Enqueue(Job{ID: "job-1"}))

	select {
	case job := <-dropped:
		assert.Equal(t, "job-1", job.ID)
		assert.Equal(t, 3, job.Attempt)
	case <-time.After(2 * time.Second):
		t.Fatal("job was never dropped")
	}
	assert.Equal(t, int64(3), attempts.Load())
}

func TestQueueSucceedsOnRetry(t *testing.T) {
	done := make(chan int, 1)
	queue := NewQueue("test", func(_ context.Context, job Job) error {
		if job.Attempt == 0 {
			return errors.New("first attempt fails")
		}
		done <- job.Attempt
		return nil
	}, QueueConfig{Workers: 1, RetryDelay: time.Millisecond})
	queue.Start(context.Background())
	defer queue.Stop()

	require.NoError(t, queue.Enqueue(Job{ID: "job-1"}))
	select {
	case attempt := <-done:
		assert.Equal(t, 1, attempt)
	case <-time.After(2 * time.Second):
		t.Fatal("job was never retried")
	}
}

func TestEnqueueBeforeStartFails(t *testing.T) {
	queue := NewQueue("test", func(context.Context, Job) error { return nil }, QueueConfig{})
	assert.Error(t, queue.Enqueue(Job{ID: "job-1"}))
}

func TestStopDropsPendingJobs(t *testing.T) {
	release := make(chan struct{})
	var dropped atomic.Int64
	queue := NewQueue("test", func(ctx context.Context, _ Job) error {
		<-release
		return nil
	}, QueueConfig{Workers: 1, BufferSize: 5, OnDrop: func(Job, error) { dropped.Add(1) }})
	queue.Start(context.Background())

	for i := 0; i < 4; i++ {
		require.NoError(t, queue.Enqueue(Job{ID: "job", Type: "block"}))
	}
	// let the worker pick up the first job
	require.Eventually(t, func() bool { return len(queue.jobs) == 3 }, time.Second, 5*time.Millisecond)

	go func() {
		time.Sleep(20 * time.Millisecond)
		close(release)
	}()
	queue.Stop()

	assert.EqualValues(t, 3, dropped.Load())
	assert.Error(t, queue.Enqueue(Job{ID: "late"}))
}

func TestEveryAcceptedJobIsProcessedOrDroppedWhenStopRaces(t *testing.T) {
	var processed, dropped, accepted atomic.Int64
	queue := NewQueue("race", func(ctx context.Context, _ Job) error {
		processed.Add(1)
		return nil
	}, QueueConfig{Workers: 2, BufferSize: 16, OnDrop: func(Job, error) { dropped.Add(1) }})
	queue.Start(context.Background())

	var producers sync.WaitGroup
	for p := 0; p < 8; p++ {
		producers.Add(1)
		go func() {
			defer producers.Done()
			for i := 0; i < 200; i++ {
				if err := queue.Enqueue(Job{ID: "job"}); err == nil {
					accepted.Add(1)
				}
			}
		}()
	}

	time.Sleep(time.Millisecond)
	queue.Stop()
	producers.Wait()

	assert.Equal(t, accepted.Load(), processed.Load()+dropped.Load())
	assert.Error(t, queue.Enqueue(Job{ID: "late"}))
	assert.Zero(t, len(queue.jobs))
}
