// Copyright 2025 Buf Technologies, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package sync2 contains typed wrappers over the sync package.
package sync2

import "sync"

// Pool is a typed [sync.Pool] of *T.
//
// Pooled values are reset before they go back into the pool, rather than
// when they come out, so that a message's shared handles are dropped as soon
// as its user is done with it.
type Pool[T any] struct {
	Reset func(*T) // Called to reset values before re-use; may be nil.

	impl sync.Pool
}

// Get returns a cached or new value of type T, and a function that returns it
// to the pool once its use is complete.
//
// Use like this:
//
//	v, drop := pool.Get()
//	defer drop()
func (p *Pool[T]) Get() (v *T, drop func()) {
	v, _ = p.impl.Get().(*T)
	if v == nil {
		v = new(T)
	}

	return v, func() {
		if p.Reset != nil {
			p.Reset(v)
		}
		p.impl.Put(v)
	}
}
