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

package sharedpb

import (
	"fmt"
	"sync/atomic"

	"github.com/tiendc/go-deepcopy"

	"buf.build/go/sharedpb/internal/dbg"
	"buf.build/go/sharedpb/internal/debug"
)

// Ptr is a reference-counted, copy-on-write handle to a value of type T.
//
// Many handles may alias the same allocation. Handles are only ever created by
// [NewPtr] and [Ptr.Clone]; two handles alias exactly when one was cloned
// from the other (possibly transitively), never because their values happen
// to be equal.
//
// The value may be read through [Ptr.Get] at any time. The only way to mutate
// it is [Ptr.Mut], which first gives this handle a private copy if the
// allocation is aliased. Writes through one handle are therefore never
// observable through another.
//
// Handles are used by pointer and must not be copied by value; copy them with
// [Ptr.Clone] instead. The reference count is updated atomically, so handles to
// the same allocation may live on different goroutines, but a single handle
// must not be used concurrently.
type Ptr[T any] struct {
	_   noCopy
	box *box[T]

	// Where this handle was released; only recorded in debug mode.
	released debug.Value[string]
}

// box is the shared allocation behind one or more [Ptr]s.
type box[T any] struct {
	refs  atomic.Int32
	value T
}

// NewPtr allocates a new value with a reference count of one.
func NewPtr[T any](value T) *Ptr[T] {
	b := &box[T]{value: value}
	b.refs.Store(1)
	return &Ptr[T]{box: b}
}

// Clone returns a new handle that aliases p, incrementing the reference count.
//
// Returns nil if p is nil.
func (p *Ptr[T]) Clone() *Ptr[T] {
	if p == nil {
		return nil
	}
	b := p.load("Clone")
	b.refs.Add(1)
	return &Ptr[T]{box: b}
}

// Get returns read-only access to the value. It never copies.
//
// The result must not be written through; use [Ptr.Mut] for that. The result
// may be invalidated by a later call to [Ptr.Mut] on this handle.
func (p *Ptr[T]) Get() *T {
	return &p.load("Get").value
}

// Mut returns exclusive mutable access to the value.
//
// If this handle is the only one referencing its allocation, this returns the
// existing value. Otherwise, it deep-copies the value into a new allocation
// with a reference count of one, drops this handle's reference to the old one,
// and returns the copy. Every other handle keeps observing the old value.
//
// The copy is made with the value's Clone() *T method if it has one, which is
// the case for all message types; otherwise it is made with
// [deepcopy.Copy].
func (p *Ptr[T]) Mut() *T {
	b := p.load("Mut")
	if b.refs.Load() == 1 {
		return &b.value
	}

	fork := &box[T]{value: forkValue(&b.value)}
	fork.refs.Store(1)
	p.box = fork

	if debug.Enabled {
		debug.Log(nil, "fork", "%p -> %p", b, fork)
	}

	// Another handle may have released concurrently, making us the last
	// owner of the old allocation.
	n := b.refs.Add(-1)
	debug.Assert(n >= 0, "negative count %d on %p after fork", n, b)
	if n == 0 {
		releaseValue(&b.value)
	}
	return &fork.value
}

// StrongCount returns the number of handles that reference p's allocation.
//
// This is intended for diagnostics and tests. Returns zero if p is nil.
func (p *Ptr[T]) StrongCount() int {
	if p == nil {
		return 0
	}
	return int(p.load("StrongCount").refs.Load())
}

// Release drops this handle, decrementing the reference count.
//
// If this was the last handle, and *T has a Release() method (as message types
// do), that method is called so that the value can drop any handles of its
// own. The handle must not be used again after calling Release.
//
// Release on a nil handle is a no-op.
func (p *Ptr[T]) Release() {
	if p == nil {
		return
	}
	b := p.load("Release")
	p.box = nil
	if debug.Enabled {
		*p.released.Get() = debug.Stack(2)
	}

	n := b.refs.Add(-1)
	debug.Assert(n >= 0, "negative count %d on %p after release", n, b)
	if n == 0 {
		if debug.Enabled {
			debug.Log(nil, "free", "%p", b)
		}
		releaseValue(&b.value)
	}
}

// Format implements [fmt.Formatter].
func (p *Ptr[T]) Format(s fmt.State, verb rune) {
	if p == nil || p.box == nil {
		fmt.Fprint(s, "Ptr{}")
		return
	}
	dbg.Dict("Ptr",
		"box", dbg.Fprintf("%p", p.box),
		"refs", p.box.refs.Load(),
		"value", dbg.Fprintf("%+v", p.box.value),
	).Format(s, verb)
}

// PtrEqual returns whether a and b reference the identical allocation.
//
// This is an identity test, not a value comparison. Two nil handles are
// considered equal.
func PtrEqual[T any](a, b *Ptr[T]) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.load("PtrEqual") == b.load("PtrEqual")
}

// load returns p's box, panicking if p has been released.
func (p *Ptr[T]) load(op string) *box[T] {
	if p.box == nil {
		if debug.Enabled {
			panic(fmt.Sprintf("sharedpb: called Ptr.%s() on a released handle; released at:\n%s",
				op, *p.released.Get()))
		}
		panic(fmt.Sprintf("sharedpb: called Ptr.%s() on a released handle", op))
	}
	return p.box
}

// forkValue makes the deep copy used by [Ptr.Mut].
func forkValue[T any](v *T) T {
	if c, ok := any(v).(interface{ Clone() *T }); ok {
		if cloned := c.Clone(); cloned != nil {
			return *cloned
		}
		var z T
		return z
	}

	var out T
	if err := deepcopy.Copy(&out, v); err != nil {
		panic(fmt.Errorf("sharedpb: cannot fork %T: %w", *v, err))
	}
	return out
}

// releaseValue is called when the last handle to v is dropped.
func releaseValue[T any](v *T) {
	if r, ok := any(v).(interface{ Release() }); ok {
		r.Release()
	}
}

// noCopy triggers go vet's copylocks check when a [Ptr] is copied by value.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}
