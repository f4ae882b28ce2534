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
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	clocktesting "k8s.io/utils/clock/testing"

	"github.com/runwell/kit/logger"
	"github.com/runwell/kit/ptr"
)

type recorder struct {
	lock   sync.Mutex
	values []int
}

func (r *recorder) record(v int) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.values = append(r.values, v)
	return nil
}

func (r *recorder) Values() []int {
	r.lock.Lock()
	defer r.lock.Unlock()
	out := make([]int, len(r.values))
	copy(out, r.values)
	return out
}

type errorCapture struct {
	logger.Logger
	lock sync.Mutex
	msgs []string
}

func newErrorCapture() *errorCapture {
	return &errorCapture{Logger: logger.NewNopLogger()}
}

func (c *errorCapture) Errorf(format string, args ...any) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.msgs = append(c.msgs, fmt.Sprintf(format, args...))
}

func (c *errorCapture) Messages() []string {
	c.lock.Lock()
	defer c.lock.Unlock()
	return append([]string(nil), c.msgs...)
}

func waitIdle(t *testing.T, g interface{ Wait(context.Context) error }) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, g.Wait(ctx))
}

func TestNew(t *testing.T) {
	fn := func(int) error { return nil }

	t.Run("nil function is rejected", func(t *testing.T) {
		_, err := New[int](nil, Options{})
		require.ErrorIs(t, err, ErrInvalidTarget)
	})

	t.Run("zero delay is rejected", func(t *testing.T) {
		_, err := New(fn, Options{Delay: ptr.Of(time.Duration(0))})
		require.ErrorIs(t, err, ErrInvalidDelay)
	})

	t.Run("negative delay is rejected", func(t *testing.T) {
		_, err := New(fn, Options{Delay: ptr.Of(-time.Second)})
		require.ErrorIs(t, err, ErrInvalidDelay)
	})

	t.Run("positive or no delay is accepted", func(t *testing.T) {
		g, err := New(fn, Options{Delay: ptr.Of(time.Millisecond)})
		require.NoError(t, err)
		assert.Equal(t, time.Millisecond, g.delay)

		g, err = New(fn, Options{})
		require.NoError(t, err)
		assert.Equal(t, time.Duration(0), g.delay)
		assert.False(t, g.Active())
	})
}

func TestGuardNoDelay(t *testing.T) {
	startedCh := make(chan int)
	releaseCh := make(chan struct{})
	g, err := New(func(v int) error {
		startedCh <- v
		<-releaseCh
		return nil
	}, Options{})
	require.NoError(t, err)

	assertStarted := func(t *testing.T, expect int) {
		t.Helper()
		select {
		case v := <-startedCh:
			assert.Equal(t, expect, v)
		case <-time.After(time.Second):
			require.Fail(t, "timeout waiting for run")
		}
	}

	g.Call(1)
	assertStarted(t, 1)
	assert.True(t, g.Active())

	// Calls made while the first run is in flight collapse into the last one.
	for i := 2; i <= 4; i++ {
		g.Call(i)
	}

	releaseCh <- struct{}{}
	assertStarted(t, 4)
	releaseCh <- struct{}{}

	waitIdle(t, g)
	assert.False(t, g.Active())

	select {
	case v := <-startedCh:
		require.Failf(t, "unexpected run", "got %d", v)
	case <-time.After(50 * time.Millisecond):
	}

	// Idle again, so the next call runs straight away.
	g.Call(5)
	assertStarted(t, 5)
	releaseCh <- struct{}{}
	waitIdle(t, g)
}

func TestGuardDelay(t *testing.T) {
	t.Run("calls within the delay execute once with the last arguments", func(t *testing.T) {
		r := new(recorder)
		g, err := New(r.record, Options{Delay: ptr.Of(50 * time.Millisecond)})
		require.NoError(t, err)

		for i := 1; i <= 5; i++ {
			g.Call(i)
		}

		waitIdle(t, g)
		assert.Equal(t, []int{5}, r.Values())
	})

	t.Run("run waits for the clock", func(t *testing.T) {
		clock := clocktesting.NewFakeClock(time.Now())
		r := new(recorder)
		g, err := New(r.record, Options{Delay: ptr.Of(time.Second), clock: clock})
		require.NoError(t, err)

		g.Call(1)
		require.Eventually(t, clock.HasWaiters, time.Second, time.Millisecond)
		g.Call(2)
		g.Call(3)

		clock.Step(500 * time.Millisecond)
		assert.Empty(t, r.Values())
		assert.True(t, g.Active())

		clock.Step(500 * time.Millisecond)
		waitIdle(t, g)
		assert.Equal(t, []int{3}, r.Values())
		assert.False(t, clock.HasWaiters())
	})

	t.Run("call during a run waits the delay again", func(t *testing.T) {
		clock := clocktesting.NewFakeClock(time.Now())
		startedCh := make(chan int)
		releaseCh := make(chan struct{})
		g, err := New(func(v int) error {
			startedCh <- v
			<-releaseCh
			return nil
		}, Options{Delay: ptr.Of(time.Second), clock: clock})
		require.NoError(t, err)

		g.Call(1)
		require.Eventually(t, clock.HasWaiters, time.Second, time.Millisecond)
		clock.Step(time.Second)
		assert.Equal(t, 1, <-startedCh)

		g.Call(2)
		releaseCh <- struct{}{}

		require.Eventually(t, clock.HasWaiters, time.Second, time.Millisecond)
		clock.Step(time.Second)
		assert.Equal(t, 2, <-startedCh)
		releaseCh <- struct{}{}

		waitIdle(t, g)
	})
}

func TestGuardFailures(t *testing.T) {
	t.Run("failing run does not leave the guard active", func(t *testing.T) {
		var errs []error
		var lock sync.Mutex
		var calls atomic.Int32
		g, err := New(func(v int) error {
			calls.Add(1)
			if v == 1 {
				return errors.New("boom")
			}
			return nil
		}, Options{OnError: func(err error) {
			lock.Lock()
			errs = append(errs, err)
			lock.Unlock()
		}})
		require.NoError(t, err)

		g.Call(1)
		waitIdle(t, g)
		assert.False(t, g.Active())

		g.Call(2)
		waitIdle(t, g)

		assert.Equal(t, int32(2), calls.Load())
		lock.Lock()
		defer lock.Unlock()
		require.Len(t, errs, 1)
		require.EqualError(t, errs[0], "boom")
	})

	t.Run("panicking run is recovered and reported", func(t *testing.T) {
		errCh := make(chan error, 1)
		g, err := New(func(int) error {
			panic("oh no")
		}, Options{OnError: func(err error) {
			errCh <- err
		}})
		require.NoError(t, err)

		g.Call(1)
		waitIdle(t, g)
		select {
		case err := <-errCh:
			assert.ErrorContains(t, err, "oh no")
		case <-time.After(time.Second):
			require.Fail(t, "timeout")
		}

		assert.False(t, g.Active())
	})

	t.Run("panicking error handler does not stop the guard", func(t *testing.T) {
		r := new(recorder)
		g, err := New(func(v int) error {
			_ = r.record(v)
			return errors.New("fail")
		}, Options{OnError: func(error) {
			panic("handler")
		}})
		require.NoError(t, err)

		g.Call(1)
		waitIdle(t, g)
		g.Call(2)
		waitIdle(t, g)
		assert.Equal(t, []int{1, 2}, r.Values())
	})
}

func TestGuardNeverRunsConcurrently(t *testing.T) {
	var inFlight, maxInFlight, runs atomic.Int32
	g, err := New(func(int) error {
		n := inFlight.Add(1)
		for {
			m := maxInFlight.Load()
			if n <= m || maxInFlight.CompareAndSwap(m, n) {
				break
			}
		}
		runs.Add(1)
		time.Sleep(time.Millisecond)
		inFlight.Add(-1)
		return nil
	}, Options{})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := range 50 {
				g.Call(i*100 + j)
			}
		}(i)
	}
	wg.Wait()
	waitIdle(t, g)

	assert.Equal(t, int32(1), maxInFlight.Load())
	assert.GreaterOrEqual(t, runs.Load(), int32(1))
	assert.LessOrEqual(t, runs.Load(), int32(1000))
}

func TestWaitContext(t *testing.T) {
	releaseCh := make(chan struct{})
	g, err := New(func(int) error {
		<-releaseCh
		return nil
	}, Options{})
	require.NoError(t, err)

	require.NoError(t, g.Wait(context.Background()))

	g.Call(1)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, g.Wait(ctx), context.DeadlineExceeded)

	close(releaseCh)
	waitIdle(t, g)
}

func TestDefaultOnErrorLogs(t *testing.T) {
	t.Run("returned error", func(t *testing.T) {
		capture := newErrorCapture()
		g, err := New(func(int) error { return errors.New("boom") }, Options{Logger: capture})
		require.NoError(t, err)

		g.Call(1)
		waitIdle(t, g)

		msgs := capture.Messages()
		require.Len(t, msgs, 1)
		assert.Contains(t, msgs[0], "boom")
	})

	t.Run("panic", func(t *testing.T) {
		capture := newErrorCapture()
		g, err := New(func(int) error { panic("oh no") }, Options{Logger: capture})
		require.NoError(t, err)

		g.Call(1)
		waitIdle(t, g)
		g.Call(2)
		waitIdle(t, g)

		msgs := capture.Messages()
		require.Len(t, msgs, 2)
		for _, msg := range msgs {
			assert.Contains(t, msg, "oh no")
		}
	})

	t.Run("OnError replaces the logger", func(t *testing.T) {
		capture := newErrorCapture()
		var calls atomic.Int32
		g, err := New(func(int) error { return errors.New("boom") }, Options{
			Logger:  capture,
			OnError: func(error) { calls.Add(1) },
		})
		require.NoError(t, err)

		g.Call(1)
		waitIdle(t, g)

		assert.Equal(t, int32(1), calls.Load())
		assert.Empty(t, capture.Messages())
	})
}
