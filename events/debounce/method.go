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

package debounce

import (
	"context"

	"github.com/runwell/kit/concurrency"
)

// Method guards a method-shaped function per owner. Each owner gets its own
// Guard, created on the first call for that owner, so calls for one owner
// never coalesce with or block calls for another.
type Method[O comparable, T any] struct {
	fn     func(owner O, args T) error
	opts   Options
	guards concurrency.Map[O, *Guard[T]]
}

// NewMethod returns a Method for fn. Options are validated here, not on the
// first call.
func NewMethod[O comparable, T any](fn func(owner O, args T) error, opts Options) (*Method[O, T], error) {
	if fn == nil {
		return nil, ErrInvalidTarget
	}
	if _, _, err := opts.resolve(); err != nil {
		return nil, err
	}

	return &Method[O, T]{
		fn:     fn,
		opts:   opts,
		guards: concurrency.NewMap[O, *Guard[T]](),
	}, nil
}

// Call invokes the method for owner with args, coalescing with any run in
// progress for the same owner.
func (m *Method[O, T]) Call(owner O, args T) {
	// A guard retires only after leaving the side table, so the next lookup
	// finds a fresh one.
	for !m.guard(owner).call(args) {
	}
}

// Wait blocks until the guard for owner is idle. It returns immediately if
// owner has never been called.
func (m *Method[O, T]) Wait(ctx context.Context, owner O) error {
	g, ok := m.guards.Load(owner)
	if !ok {
		return nil
	}
	return g.Wait(ctx)
}

// Active returns true if a run is in progress for owner.
func (m *Method[O, T]) Active(owner O) bool {
	g, ok := m.guards.Load(owner)
	return ok && g.Active()
}

// Forget drops the state kept for owner, once owner is discarded. If a run
// is in progress, the state is dropped when the run completes, so a later
// call for owner still never overlaps it. Calling owner again before then
// keeps the state.
func (m *Method[O, T]) Forget(owner O) {
	if g, ok := m.guards.Load(owner); ok {
		g.forget()
	}
}

// Owners returns the number of owners with state.
func (m *Method[O, T]) Owners() int {
	return m.guards.Len()
}

func (m *Method[O, T]) guard(owner O) *Guard[T] {
	g, _ := m.guards.LoadOrStore(owner, func() *Guard[T] {
		// Options were validated in NewMethod.
		g, _ := New(func(args T) error {
			return m.fn(owner, args)
		}, m.opts)
		g.release = func() {
			m.guards.Delete(owner)
		}
		return g
	})
	return g
}
