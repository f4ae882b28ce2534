/*
Copyright 2025 The Runwell Authors
Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at
    http://www.apache.org/licenses/LICENSE-2.0
Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package background

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/alphadose/haxmap"
	"k8s.io/apimachinery/pkg/util/wait"
	"k8s.io/utils/clock"

	"github.com/runwell/kit/logger"
	"github.com/runwell/kit/retry"
)

var (
	// ErrDisposed is returned when work is enqueued after Dispose.
	ErrDisposed = errors.New("processor is disposed")
	// ErrNilAction is returned when Enqueue is called with a nil action.
	ErrNilAction = errors.New("action must not be nil")
)

var log = logger.NewLogger("kit.events.background")

// Action is a unit of work run by the Processor.
// The context is canceled if the Processor is disposed with killQueue set.
type Action func(ctx context.Context) error

// ErrorHandler receives the error of a failed Action. An error returned by
// the handler itself is logged and otherwise ignored.
type ErrorHandler func(ctx context.Context, err error) error

type actionRecord struct {
	id           uint64
	action       Action
	errorHandler ErrorHandler
}

// Processor runs enqueued actions one at a time, in the order they were
// enqueued.
type Processor struct {
	defaultErrorHandler ErrorHandler
	breakInterval       time.Duration
	breakOnlyWhenNoWork bool
	retry               *retry.Config
	log                 logger.Logger
	clock               clock.Clock

	lock      sync.Mutex
	nextID    uint64
	pending   []*actionRecord
	draining  []*actionRecord
	executing *haxmap.Map[uint64, *actionRecord]
	disposed  bool

	ctx    context.Context
	cancel context.CancelFunc
	workCh chan struct{}
	stopCh chan struct{}
	doneCh chan struct{}
}

// New returns a Processor and starts its processing loop.
func New(opts Options) (*Processor, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	p := &Processor{
		defaultErrorHandler: opts.DefaultErrorHandler,
		breakInterval:       defaultBreakInterval,
		breakOnlyWhenNoWork: true,
		retry:               opts.Retry,
		log:                 opts.Logger,
		clock:               opts.clock,
		executing:           haxmap.New[uint64, *actionRecord](),
		workCh:              make(chan struct{}, 1),
		stopCh:              make(chan struct{}),
		doneCh:              make(chan struct{}),
	}
	if opts.BreakInterval != nil {
		p.breakInterval = *opts.BreakInterval
	}
	if opts.BreakOnlyWhenNoWork != nil {
		p.breakOnlyWhenNoWork = *opts.BreakOnlyWhenNoWork
	}
	if p.log == nil {
		p.log = log
	}
	if p.clock == nil {
		p.clock = clock.RealClock{}
	}
	if p.defaultErrorHandler == nil {
		p.defaultErrorHandler = func(_ context.Context, err error) error {
			p.log.Errorf("Background action failed: %v", err)
			return nil
		}
	}
	p.ctx, p.cancel = context.WithCancel(context.Background())

	go p.run()

	return p, nil
}

// Enqueue adds an action to the end of the queue. The first errorHandler, if
// given and non-nil, replaces the default error handler for this action.
func (p *Processor) Enqueue(action Action, errorHandler ...ErrorHandler) error {
	if action == nil {
		return ErrNilAction
	}

	handler := p.defaultErrorHandler
	if len(errorHandler) > 0 && errorHandler[0] != nil {
		handler = errorHandler[0]
	}
	if p.retry != nil {
		action = retrying(action, *p.retry, p.log)
	}

	p.lock.Lock()
	defer p.lock.Unlock()

	if p.disposed {
		return ErrDisposed
	}

	p.nextID++
	p.pending = append(p.pending, &actionRecord{
		id:           p.nextID,
		action:       action,
		errorHandler: handler,
	})

	// Wake the loop if it is idle with no break interval.
	select {
	case p.workCh <- struct{}{}:
	default:
	}

	return nil
}

// QueueLength returns the number of actions that have not started yet.
func (p *Processor) QueueLength() int {
	p.lock.Lock()
	defer p.lock.Unlock()
	return len(p.pending)
}

// ExecutingLength returns the number of actions that have started and not
// yet completed.
func (p *Processor) ExecutingLength() int {
	return int(p.executing.Len())
}

// Dispose stops the processor. No action can be enqueued afterwards.
//
// If killQueue is false, every action still pending is started, in order,
// after the action in progress (if any). If killQueue is true, pending
// actions are dropped and the context of the action in progress is canceled.
// In both cases Dispose blocks until all started actions have completed, or
// ctx is done.
//
// Only the first call has any effect; later calls return nil immediately.
func (p *Processor) Dispose(ctx context.Context, killQueue bool) error {
	p.lock.Lock()
	if p.disposed {
		p.lock.Unlock()
		return nil
	}
	p.disposed = true

	pending := p.pending
	p.pending = nil
	if killQueue {
		p.cancel()
	} else {
		for _, rec := range pending {
			p.executing.Set(rec.id, rec)
		}
		p.draining = pending
	}
	close(p.stopCh)
	p.lock.Unlock()

	err := wait.PollUntilContextCancel(ctx, disposePollInterval, true, func(context.Context) (bool, error) {
		return p.executing.Len() == 0, nil
	})
	if err != nil {
		return fmt.Errorf("waiting for background actions to complete: %w", err)
	}

	select {
	case <-p.doneCh:
	case <-ctx.Done():
		return fmt.Errorf("waiting for background processor to stop: %w", ctx.Err())
	}

	p.cancel()
	return nil
}

// run is the processing loop. There is a single loop per Processor, so
// actions never run in parallel with each other, apart from the drain that
// happens on Dispose.
func (p *Processor) run() {
	defer close(p.doneCh)

	// The first tick fires right away.
	for {
		rec, stop := p.pop()
		if stop {
			break
		}
		if rec != nil {
			p.execute(rec)
		}
		if !p.waitTick(p.nextDelay()) {
			break
		}
	}

	p.drain()
}

// waitTick blocks until the next tick is due. It returns false if the
// processor was stopped.
func (p *Processor) waitTick(delay time.Duration) bool {
	// Check for a stop signal first, so a timer that is already due cannot win.
	select {
	case <-p.stopCh:
		return false
	default:
	}

	if delay <= 0 {
		if p.QueueLength() > 0 {
			return true
		}
		// Nothing to do and no interval to wait: sleep until work arrives.
		select {
		case <-p.stopCh:
			return false
		case <-p.workCh:
			return true
		}
	}

	t := p.clock.NewTimer(delay)
	select {
	case <-p.stopCh:
		t.Stop()
		return false
	case <-t.C():
		return true
	}
}

// pop moves the head of the queue to the executing set.
func (p *Processor) pop() (rec *actionRecord, stop bool) {
	p.lock.Lock()
	defer p.lock.Unlock()

	if p.disposed {
		return nil, true
	}
	if len(p.pending) == 0 {
		return nil, false
	}

	rec = p.pending[0]
	p.pending[0] = nil
	p.pending = p.pending[1:]
	p.executing.Set(rec.id, rec)
	return rec, false
}

func (p *Processor) nextDelay() time.Duration {
	if p.breakOnlyWhenNoWork && p.QueueLength() > 0 {
		return 0
	}
	return p.breakInterval
}

// drain runs the actions captured by Dispose, in order.
func (p *Processor) drain() {
	p.lock.Lock()
	draining := p.draining
	p.draining = nil
	p.lock.Unlock()

	for _, rec := range draining {
		p.execute(rec)
	}
}

// execute runs a record and its error handler. It never panics, and always
// removes the record from the executing set.
func (p *Processor) execute(rec *actionRecord) {
	defer p.executing.Del(rec.id)

	err := runAction(p.ctx, rec.action)
	if err == nil {
		return
	}

	if herr := runErrorHandler(p.ctx, rec.errorHandler, err); herr != nil {
		p.log.WithFields(map[string]any{
			"action": rec.id,
		}).Errorf("Error handler of background action failed: %v (action error: %v)", herr, err)
	}
}

func runAction(ctx context.Context, action Action) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("background action panicked: %v", r)
		}
	}()
	return action(ctx)
}

func runErrorHandler(ctx context.Context, handler ErrorHandler, actionErr error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("error handler panicked: %v", r)
		}
	}()
	return handler(ctx, actionErr)
}
