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

package concurrency

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMap(t *testing.T) {
	m := NewMap[string, int]()

	_, ok := m.Load("a")
	assert.False(t, ok)

	v, loaded := m.LoadOrStore("a", func() int { return 1 })
	assert.False(t, loaded)
	assert.Equal(t, 1, v)

	v, ok = m.Load("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)
	assert.Equal(t, 1, m.Len())

	m.Delete("a")
	_, ok = m.Load("a")
	assert.False(t, ok)
	assert.Equal(t, 0, m.Len())
}

func TestMapLoadOrStore(t *testing.T) {
	m := NewMap[string, *int]()

	var created atomic.Int32
	newFn := func() *int {
		created.Add(1)
		return new(int)
	}

	const n = 50
	results := make([]*int, n)
	var wg sync.WaitGroup
	wg.Add(n)
	for i := range n {
		go func(i int) {
			defer wg.Done()
			results[i], _ = m.LoadOrStore("key", newFn)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), created.Load())
	for _, r := range results {
		assert.Same(t, results[0], r)
	}

	_, loaded := m.LoadOrStore("key", newFn)
	assert.True(t, loaded)
	_, loaded = m.LoadOrStore("other", newFn)
	assert.False(t, loaded)
}
