package pool

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingObserver struct {
	mu       sync.Mutex
	outcomes map[string]int
}

func newRecordingObserver() *recordingObserver {
	return &recordingObserver{outcomes: make(map[string]int)}
}

func (o *recordingObserver) ObserveTask(_ string, outcome string, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.outcomes[outcome]++
}

func (o *recordingObserver) count(outcome string) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.outcomes[outcome]
}

func TestDispatcher_RunsAndDrains(t *testing.T) {
	obs := newRecordingObserver()
	d := NewDispatcher(2, 16, zap.NewNop(), obs)
	d.Start(context.Background())

	var ran atomic.Int32
	for i := 0; i < 10; i++ {
		require.True(t, d.Submit("count", func(context.Context) error {
			ran.Add(1)
			return nil
		}))
	}

	require.NoError(t, d.Stop(context.Background()))
	assert.Equal(t, int32(10), ran.Load())
	assert.Equal(t, 10, obs.count(OutcomeSuccess))
}

func TestDispatcher_ErrorsAndPanicsAreContained(t *testing.T) {
	obs := newRecordingObserver()
	d := NewDispatcher(1, 4, zap.NewNop(), obs)
	d.Start(context.Background())

	d.Submit("fail", func(context.Context) error { return errors.New("smtp down") })
	d.Submit("panic", func(context.Context) error { panic("boom") })
	d.Submit("ok", func(context.Context) error { return nil })

	require.NoError(t, d.Stop(context.Background()))
	assert.Equal(t, 1, obs.count(OutcomeError))
	assert.Equal(t, 1, obs.count(OutcomePanic))
	assert.Equal(t, 1, obs.count(OutcomeSuccess))
}

func TestDispatcher_DropsWhenQueueFull(t *testing.T) {
	obs := newRecordingObserver()
	d := NewDispatcher(1, 1, zap.NewNop(), obs)
	d.Start(context.Background())

	release := make(chan struct{})
	started := make(chan struct{})
	require.True(t, d.Submit("block", func(context.Context) error {
		close(started)
		<-release
		return nil
	}))
	<-started

	// worker 被占用，队列容量为 1
	assert.True(t, d.Submit("queued", func(context.Context) error { return nil }))
	assert.False(t, d.Submit("dropped", func(context.Context) error { return nil }))
	assert.Equal(t, 1, obs.count(OutcomeDropped))

	close(release)
	require.NoError(t, d.Stop(context.Background()))
	assert.Equal(t, 2, obs.count(OutcomeSuccess))
}

func TestDispatcher_SubmitAfterStop(t *testing.T) {
	d := NewDispatcher(1, 1, zap.NewNop(), nil)
	d.Start(context.Background())
	require.NoError(t, d.Stop(context.Background()))

	assert.False(t, d.Submit("late", func(context.Context) error { return nil }))
	assert.ErrorIs(t, d.Stop(context.Background()), ErrStopped)
}

func TestDispatcher_StopTimeoutCancelsTasks(t *testing.T) {
	d := NewDispatcher(1, 1, zap.NewNop(), nil)
	d.Start(context.Background())

	cancelled := make(chan struct{})
	started := make(chan struct{})
	d.Submit("slow", func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		close(cancelled)
		return ctx.Err()
	})
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := d.Stop(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	select {
	case <-cancelled:
	case <-time.After(time.Second):
		t.Fatal("running task was not cancelled")
	}
}

func TestDispatcher_TaskTimeout(t *testing.T) {
	obs := newRecordingObserver()
	d := NewDispatcher(1, 1, zap.NewNop(), obs, WithTaskTimeout(10*time.Millisecond))
	d.Start(context.Background())

	d.Submit("slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	require.NoError(t, d.Stop(context.Background()))
	assert.Equal(t, 1, obs.count(OutcomeError))
}

func TestDispatcher_IgnoresStartContextCancellation(t *testing.T) {
	d := NewDispatcher(1, 1, zap.NewNop(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)
	cancel()

	var taskErr error
	done := make(chan struct{})
	d.Submit("after-cancel", func(ctx context.Context) error {
		taskErr = ctx.Err()
		close(done)
		return nil
	})
	<-done
	assert.NoError(t, taskErr)
	require.NoError(t, d.Stop(context.Background()))
}
