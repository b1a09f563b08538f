package core

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

type recorder struct {
	mu        sync.Mutex
	published []uint64
	errs      []error
}

func (r *recorder) publish(gen uint64, res Result) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.published = append(r.published, gen)
	res.Image.Close()
	return true
}

func (r *recorder) onError(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = append(r.errs, err)
}

func (r *recorder) snapshot() (Job, func(), error) {
	return Job{State: Defaults()}, func() {}, nil
}

func newTestScheduler(t *testing.T, delay time.Duration, compose ComposeFunc) (*Scheduler, *recorder) {
	t.Helper()
	rec := &recorder{}
	s := NewScheduler(nullLogger(), delay, rec.snapshot, compose, rec.publish)
	s.SetErrorHandler(rec.onError)
	t.Cleanup(func() {
		s.Stop()
		s.Wait()
	})
	return s, rec
}

func TestSchedulerCoalescesBursts(t *testing.T) {
	var runs atomic.Int32
	s, rec := newTestScheduler(t, 50*time.Millisecond, func(context.Context, Job) (Result, error) {
		runs.Add(1)
		return Result{Image: gocv.NewMat()}, nil
	})

	for range 5 {
		s.Trigger()
	}
	s.Wait()

	assert.EqualValues(t, 1, runs.Load())
	assert.Equal(t, []uint64{5}, rec.published)
	assert.Empty(t, rec.errs)
	assert.EqualValues(t, 5, s.Generation())
}

func TestSchedulerSupersedesRunningComposite(t *testing.T) {
	started := make(chan struct{})
	var calls atomic.Int32

	s, rec := newTestScheduler(t, time.Millisecond, func(ctx context.Context, _ Job) (Result, error) {
		if calls.Add(1) == 1 {
			close(started)
			<-ctx.Done()
			return Result{Image: gocv.NewMat()}, ctx.Err()
		}
		return Result{Image: gocv.NewMat()}, nil
	})

	s.Trigger()
	<-started
	s.Trigger()
	s.Wait()

	assert.EqualValues(t, 2, calls.Load())
	assert.Equal(t, []uint64{2}, rec.published)
	assert.Empty(t, rec.errs, "a superseded composite is not an error")
}

func TestSchedulerReportsFailures(t *testing.T) {
	boom := errors.New("boom")
	s, rec := newTestScheduler(t, time.Millisecond, func(context.Context, Job) (Result, error) {
		return Result{Image: gocv.NewMat()}, boom
	})

	s.Trigger()
	s.Wait()

	require.Len(t, rec.errs, 1)
	assert.ErrorIs(t, rec.errs[0], boom)
	assert.Empty(t, rec.published)
}

func TestSchedulerSurvivesPanickingComposite(t *testing.T) {
	var calls atomic.Int32
	s, rec := newTestScheduler(t, time.Millisecond, func(context.Context, Job) (Result, error) {
		if calls.Add(1) == 1 {
			panic("operator exploded")
		}
		return Result{Image: gocv.NewMat()}, nil
	})

	s.Trigger()
	s.Wait()

	rec.mu.Lock()
	require.Len(t, rec.errs, 1)
	assert.Contains(t, rec.errs[0].Error(), "operator exploded")
	assert.Empty(t, rec.published)
	rec.mu.Unlock()

	s.Trigger()
	s.Wait()

	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.Equal(t, []uint64{2}, rec.published)
	assert.Len(t, rec.errs, 1)
}

func TestSchedulerStop(t *testing.T) {
	var runs atomic.Int32
	s, rec := newTestScheduler(t, 20*time.Millisecond, func(context.Context, Job) (Result, error) {
		runs.Add(1)
		return Result{Image: gocv.NewMat()}, nil
	})

	s.Trigger()
	s.Stop()
	s.Trigger()
	s.Wait()

	assert.Zero(t, runs.Load())
	assert.Empty(t, rec.published)
	assert.EqualValues(t, 1, s.Generation())
}
