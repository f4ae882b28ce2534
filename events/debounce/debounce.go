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

// Package debounce implements a call coalescing guard.
// At most one execution of the guarded function is in flight at any time.
// Calls that arrive while an execution is running (or waiting for its settle
// delay) replace each other in a single pending slot, so only the latest
// arguments are executed once the current run completes.
// Callers are not notified of whether their own call ran or was superseded.
package debounce

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"k8s.io/utils/clock"

	"github.com/runwell/kit/logger"
)

var (
	// ErrInvalidTarget is returned when the guarded function is nil.
	ErrInvalidTarget = errors.New("debounce target must be a non-nil function")
	// ErrInvalidDelay is returned when a settle delay is configured but is not
	// strictly positive.
	ErrInvalidDelay = errors.New("debounce delay must be > 0")
)

var log = logger.NewLogger("kit.events.debounce")

// Func is a function that can be guarded.
type Func[T any] func(args T) error

// Options configures a Guard.
type Options struct {
	// Delay is the settle delay waited before each run, so that calls made
	// shortly after each other are coalesced into one run.
	// If nil, runs start without waiting.
	Delay *time.Duration

	// OnError receives the error returned by a run, or the recovered value of
	// a run that panicked.
	// Defaults to logging the error.
	OnError func(err error)

	// Logger used by the default OnError.
	// Defaults to the package logger.
	Logger logger.Logger

	// clock is used for testing.
	clock clock.Clock
}

// Guard coalesces calls to a function.
type Guard[T any] struct {
	fn      Func[T]
	delay   time.Duration
	onError func(error)
	clock   clock.Clock

	lock    sync.Mutex
	active  bool
	pending *T
	idleCh  chan struct{}

	// release is called, under lock, when the guard retires. A retired
	// guard accepts no more calls.
	release   func()
	forgotten bool
	retired   bool
}

// New returns a Guard for fn.
func New[T any](fn Func[T], opts Options) (*Guard[T], error) {
	if fn == nil {
		return nil, ErrInvalidTarget
	}

	delay, onError, err := opts.resolve()
	if err != nil {
		return nil, err
	}

	clk := opts.clock
	if clk == nil {
		clk = clock.RealClock{}
	}

	return &Guard[T]{
		fn:      fn,
		delay:   delay,
		onError: onError,
		clock:   clk,
	}, nil
}

func (o Options) resolve() (time.Duration, func(error), error) {
	var delay time.Duration
	if o.Delay != nil {
		delay = *o.Delay
		if delay <= 0 {
			return 0, nil, fmt.Errorf("%w: got %v", ErrInvalidDelay, delay)
		}
	}

	onError := o.OnError
	if onError == nil {
		l := o.Logger
		if l == nil {
			l = log
		}
		onError = func(err error) {
			l.Errorf("Guarded call failed: %v", err)
		}
	}

	return delay, onError, nil
}

// Call records args as the pending call, replacing any previous pending
// call. If no run is active, a run starts in a background goroutine;
// otherwise the active run picks the call up once it completes.
func (g *Guard[T]) Call(args T) {
	g.call(args)
}

// call returns false if the guard has retired and the call was not recorded.
func (g *Guard[T]) call(args T) bool {
	g.lock.Lock()
	defer g.lock.Unlock()

	if g.retired {
		return false
	}
	g.forgotten = false

	g.pending = &args
	if g.active {
		return true
	}

	g.active = true
	g.idleCh = make(chan struct{})
	go g.run()
	return true
}

// forget retires the guard now if it is idle, or once the active run goes
// idle. A call made before then cancels the forget.
func (g *Guard[T]) forget() {
	g.lock.Lock()
	defer g.lock.Unlock()

	if g.retired {
		return
	}
	if g.active {
		g.forgotten = true
		return
	}
	g.retire()
}

// retire must be called with lock held.
func (g *Guard[T]) retire() {
	g.retired = true
	if g.release != nil {
		g.release()
	}
}

// Active returns true while a run is in progress or waiting for its delay.
func (g *Guard[T]) Active() bool {
	g.lock.Lock()
	defer g.lock.Unlock()
	return g.active
}

// Wait blocks until the guard is idle: no run active and no call pending.
func (g *Guard[T]) Wait(ctx context.Context) error {
	g.lock.Lock()
	if !g.active {
		g.lock.Unlock()
		return nil
	}
	idleCh := g.idleCh
	g.lock.Unlock()

	select {
	case <-idleCh:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// run is the loop owned by the single active runner.
func (g *Guard[T]) run() {
	for {
		if g.delay > 0 {
			<-g.clock.After(g.delay)
		}

		g.lock.Lock()
		args := g.pending
		g.pending = nil
		g.lock.Unlock()

		if args != nil {
			g.execute(*args)
		}

		g.lock.Lock()
		if g.pending == nil {
			g.active = false
			close(g.idleCh)
			if g.forgotten {
				g.retire()
			}
			g.lock.Unlock()
			return
		}
		g.lock.Unlock()
	}
}

// execute runs fn, routing both returned errors and panics to onError.
func (g *Guard[T]) execute(args T) {
	defer func() {
		if r := recover(); r != nil {
			g.reportError(fmt.Errorf("panic in guarded call: %v", r))
		}
	}()

	if err := g.fn(args); err != nil {
		g.reportError(err)
	}
}

func (g *Guard[T]) reportError(err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("Guarded call error handler panicked: %v (original error: %v)", r, err)
		}
	}()
	g.onError(err)
}
