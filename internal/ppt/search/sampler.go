// Copyright 2020-2025 Buf Technologies, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package search

import (
	"math/rand"
	"sync"
)

// Sampler is a fixed-capacity reservoir sampler (Algorithm R) producing a
// uniform random K-subset of an unknown-length stream of items, plus an
// exact count of everything observed. One instance is meant to be shared
// across every scanner worker; all operations take a single mutex
// (spec.md §4.6).
type Sampler[T any] struct {
	mu       sync.Mutex
	rng      *rand.Rand
	capacity int
	seen     int64
	items    []T
}

// NewSampler returns a sampler with the given capacity, seeded
// deterministically: the same sequence of offers always yields the same
// sample. When several scanner workers offer matches concurrently, the
// offer order follows scheduling, so once matches exceed capacity the
// retained positions can differ between runs.
func NewSampler[T any](capacity int, seed int64) *Sampler[T] {
	return &Sampler[T]{
		rng:      rand.New(rand.NewSource(seed)),
		capacity: capacity,
		items:    make([]T, 0, capacity),
	}
}

// Offer records one observation of item. The first `capacity` items
// offered are always kept; after that, item i (0-indexed, i >= capacity)
// replaces a uniformly random existing slot with probability
// capacity/(i+1), which is exactly Algorithm R.
func (s *Sampler[T]) Offer(item T) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.seen
	s.seen++

	if int(i) < s.capacity {
		s.items = append(s.items, item)
		return
	}
	if j := s.rng.Int63n(i + 1); j < int64(s.capacity) {
		s.items[j] = item
	}
}

// Count returns the total number of items offered so far.
func (s *Sampler[T]) Count() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seen
}

// Items returns a snapshot of the currently retained sample. Order is not
// meaningful: the sampler is unordered (spec.md §5).
func (s *Sampler[T]) Items() []T {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]T, len(s.items))
	copy(out, s.items)
	return out
}
