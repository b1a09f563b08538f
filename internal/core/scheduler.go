// Debounced background recomposition
package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"
)

// SnapshotFunc captures a Job that stays valid after the caller's locks are
// released, together with a func releasing the copies.
type SnapshotFunc func() (Job, func(), error)

// ComposeFunc runs one composite.
type ComposeFunc func(context.Context, Job) (Result, error)

// PublishFunc hands a finished composite over. It returns false when the
// result was not taken, in which case the scheduler closes it.
type PublishFunc func(generation uint64, res Result) bool

// Scheduler coalesces bursts of Trigger calls into one composite after a
// quiet period. At most one composite runs at a time; a newer trigger
// cancels the running one and its result is discarded.
type Scheduler struct {
	mu         sync.Mutex
	logger     *logrus.Logger
	delay      time.Duration
	timer      *time.Timer
	cancel     context.CancelFunc
	generation uint64
	stopped    bool

	composing sync.Mutex
	pending   sync.WaitGroup

	snapshot SnapshotFunc
	compose  ComposeFunc
	publish  PublishFunc
	onError  func(error)
}

func NewScheduler(logger *logrus.Logger, delay time.Duration, snapshot SnapshotFunc, compose ComposeFunc, publish PublishFunc) *Scheduler {
	return &Scheduler{
		logger:   logger,
		delay:    delay,
		snapshot: snapshot,
		compose:  compose,
		publish:  publish,
	}
}

// SetErrorHandler installs the callback for composites that failed for a
// reason other than being superseded.
func (s *Scheduler) SetErrorHandler(onError func(error)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onError = onError
}

// Generation returns the number of the most recent trigger.
func (s *Scheduler) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

// Trigger schedules a composite after the debounce delay, superseding any
// pending or running one.
func (s *Scheduler) Trigger() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return
	}

	s.generation++
	gen := s.generation

	if s.timer != nil && s.timer.Stop() {
		s.pending.Done()
	}
	if s.cancel != nil {
		s.logger.Debug("SCHEDULER: Cancelling in-flight composite")
		s.cancel()
		s.cancel = nil
	}

	s.logger.WithFields(logrus.Fields{
		"generation": gen,
		"delay_ms":   s.delay.Milliseconds(),
	}).Debug("SCHEDULER: Composite scheduled")

	s.pending.Add(1)
	s.timer = time.AfterFunc(s.delay, func() {
		defer s.pending.Done()
		s.run(gen)
	})
}

func (s *Scheduler) run(gen uint64) {
	s.composing.Lock()
	defer s.composing.Unlock()

	s.mu.Lock()
	if s.stopped || gen != s.generation {
		s.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	onError := s.onError
	s.mu.Unlock()
	defer cancel()

	job, release, err := s.snapshot()
	if err != nil {
		s.report(onError, err)
		return
	}
	defer release()

	res, err := s.composeSafely(ctx, job)

	s.mu.Lock()
	stale := s.stopped || gen != s.generation
	if gen == s.generation {
		s.cancel = nil
	}
	s.mu.Unlock()

	switch {
	case err != nil && (stale || errors.Is(err, context.Canceled)):
		res.Image.Close()
		s.logger.WithField("generation", gen).Debug("SCHEDULER: Superseded composite abandoned")
	case err != nil:
		res.Image.Close()
		s.report(onError, err)
	case stale:
		res.Image.Close()
		s.logger.WithField("generation", gen).Debug("SCHEDULER: Discarding stale result")
	default:
		if !s.publish(gen, res) {
			res.Image.Close()
		}
	}
}

// composeSafely turns a panic in the compose func into an error so the
// timer goroutine survives it.
func (s *Scheduler) composeSafely(ctx context.Context, job Job) (res Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.WithField("panic", r).Error("SCHEDULER: Panic during composite")
			res = Result{Image: gocv.NewMat()}
			err = fmt.Errorf("panic during composite: %v", r)
		}
	}()
	return s.compose(ctx, job)
}

func (s *Scheduler) report(onError func(error), err error) {
	s.logger.WithError(err).Warn("SCHEDULER: Composite failed")
	if onError != nil {
		onError(err)
	}
}

// Stop cancels pending and running work. Later triggers are ignored.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopped = true
	if s.timer != nil && s.timer.Stop() {
		s.pending.Done()
	}
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

// Wait blocks until every scheduled composite has finished or been dropped.
func (s *Scheduler) Wait() {
	s.pending.Wait()
}
