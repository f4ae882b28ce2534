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

// Package concurrency contains data structures that are safe for concurrent
// use.
package concurrency

import (
	"sync"
)

// Map is a simple _typed_ map which is safe for concurrent use.
// Favoured over sync.Map as it is typed.
type Map[K comparable, T any] interface {
	Delete(key K)
	Len() int
	Load(key K) (T, bool)
	LoadOrStore(key K, newFn func() T) (T, bool)
}

type mapimpl[K comparable, T any] struct {
	lock sync.RWMutex
	m    map[K]T
}

func NewMap[K comparable, T any]() Map[K, T] {
	return &mapimpl[K, T]{m: make(map[K]T)}
}

func (m *mapimpl[K, T]) Delete(k K) {
	m.lock.Lock()
	defer m.lock.Unlock()
	delete(m.m, k)
}

func (m *mapimpl[K, T]) Len() int {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return len(m.m)
}

func (m *mapimpl[K, T]) Load(k K) (T, bool) {
	m.lock.RLock()
	defer m.lock.RUnlock()
	v, ok := m.m[k]
	return v, ok
}

// LoadOrStore returns the value for k if present. Otherwise it stores and
// returns the result of newFn. The boolean is true if the value was loaded.
// newFn is called at most once, under the write lock.
func (m *mapimpl[K, T]) LoadOrStore(k K, newFn func() T) (T, bool) {
	m.lock.RLock()
	v, ok := m.m[k]
	m.lock.RUnlock()
	if ok {
		return v, true
	}

	m.lock.Lock()
	defer m.lock.Unlock()
	// Double-check the key exists to avoid race condition
	if v, ok = m.m[k]; ok {
		return v, true
	}
	v = newFn()
	m.m[k] = v
	return v, false
}
