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

	"google.golang.org/protobuf/encoding/protowire"
	"google.golang.org/protobuf/reflect/protoreflect"
)

// Oneofs are represented the same way as in protoc-gen-go: an interface-typed
// struct field O, with one wrapper struct per variant implementing O. A nil O
// means no variant is set.
//
// Every variant of a oneof is a separate field for decoding purposes, but they
// all share a single member, so encoding, cloning, comparing and releasing
// look at whichever variant is active.

// Variant is a single variant of a oneof whose Go type is O. Build one with
// [OneofScalar] or [OneofShared], and pass it to [Oneof].
type Variant[O comparable] struct {
	v *variant[O]
}

type variant[O comparable] struct {
	number  protowire.Number
	name    string
	kind    protoreflect.Kind
	message string

	// is returns whether o holds this variant.
	is func(o O) bool

	// parse applies one occurrence of this variant to *cur.
	parse func(o *oneof[O], cur *O, wt protowire.Type, b []byte, d *decoder) (int, error)

	// These are only called with values o for which is(o) holds.
	append  func(b []byte, o O) []byte
	clone   func(o O) O
	equal   func(a, b O) bool
	release func(o O) // May be nil.
}

// oneof is the set of variants declared for one oneof.
type oneof[O comparable] struct {
	name     string
	variants []*variant[O]
}

// which returns the variant that o holds, or nil if o is unset.
//
// Returns an error if o is set to a value that is not one of the declared
// variants.
func (o *oneof[O]) which(v O) (*variant[O], error) {
	var zero O
	if v == zero {
		return nil, nil
	}
	for _, vr := range o.variants {
		if vr.is(v) {
			return vr, nil
		}
	}
	return nil, &DecodeError{code: ErrorVariant}
}

// mustWhich is like which, but panics on an undeclared variant.
func (o *oneof[O]) mustWhich(v O) *variant[O] {
	vr, err := o.which(v)
	if err != nil {
		panic(fmt.Sprintf("sharedpb: oneof %s holds undeclared variant %T", o.name, v))
	}
	return vr
}

// clear releases the active variant of *cur, if any, and unsets it.
func (o *oneof[O]) clear(cur *O, b []byte, d *decoder) error {
	vr, err := o.which(*cur)
	if err != nil {
		return d.fail(ErrorVariant, b)
	}
	if vr != nil && vr.release != nil {
		vr.release(*cur)
	}
	var zero O
	*cur = zero
	return nil
}

// Oneof declares a oneof with the given variants. get returns the address of
// the interface-typed field that holds the active variant.
//
// Decoding a variant that is already active merges into it, if it is a
// message; otherwise the active variant is released and replaced. Scalar
// variants are encoded even when they hold a zero value.
func Oneof[M any, O comparable](name string, get func(*M) *O, variants ...Variant[O]) FieldDecl[M] {
	if len(variants) == 0 {
		panic(fmt.Sprintf("sharedpb: oneof %s has no variants", name))
	}

	o := &oneof[O]{name: name}
	for _, v := range variants {
		o.variants = append(o.variants, v.v)
	}

	var decl FieldDecl[M]
	number := protowire.Number(-1)
	for _, v := range o.variants {
		if number < 0 || v.number < number {
			number = v.number
		}
		decl.fields = append(decl.fields, &field[M]{
			number:  v.number,
			name:    v.name,
			kind:    v.kind,
			oneof:   name,
			message: v.message,
			parse: func(m *M, wt protowire.Type, b []byte, d *decoder) (int, error) {
				return v.parse(o, get(m), wt, b, d)
			},
		})
	}

	decl.member = &member[M]{
		number: number,
		append: func(b []byte, m *M) []byte {
			cur := *get(m)
			if vr := o.mustWhich(cur); vr != nil {
				b = vr.append(b, cur)
			}
			return b
		},
		clone: func(dst, src *M) {
			cur := *get(src)
			if vr := o.mustWhich(cur); vr != nil {
				*get(dst) = vr.clone(cur)
			}
		},
		equal: func(a, b *M) bool {
			x, y := *get(a), *get(b)
			vx, vy := o.mustWhich(x), o.mustWhich(y)
			switch {
			case vx != vy:
				return false
			case vx == nil:
				return true
			default:
				return vx.equal(x, y)
			}
		},
		release: func(m *M) {
			p := get(m)
			if vr := o.mustWhich(*p); vr != nil && vr.release != nil {
				vr.release(*p)
			}
			var zero O
			*p = zero
		},
	}
	return decl
}

// OneofScalar declares a scalar variant of a oneof. wrap builds the variant's
// wrapper from a value, and unwrap extracts it, returning false if a oneof
// value is some other variant.
func OneofScalar[O comparable, T any](
	number protowire.Number, name string, kind Scalar[T],
	wrap func(T) O, unwrap func(O) (T, bool),
) Variant[O] {
	c := kind.c
	return Variant[O]{&variant[O]{
		number: number,
		name:   name,
		kind:   c.kind,
		is: func(o O) bool {
			_, ok := unwrap(o)
			return ok
		},
		parse: func(o *oneof[O], cur *O, wt protowire.Type, b []byte, d *decoder) (int, error) {
			if wt != c.wire {
				return 0, d.fail(ErrorWireType, b)
			}
			v, n, err := c.decode(b, d)
			if err != nil {
				return 0, err
			}
			if err := o.clear(cur, b, d); err != nil {
				return 0, err
			}
			*cur = wrap(v)
			return n, nil
		},
		append: func(b []byte, o O) []byte {
			v, _ := unwrap(o)
			b = protowire.AppendTag(b, number, c.wire)
			return c.append(b, v)
		},
		clone: func(o O) O {
			v, _ := unwrap(o)
			return wrap(c.copy(v))
		},
		equal: func(a, b O) bool {
			x, _ := unwrap(a)
			y, _ := unwrap(b)
			return c.equal(x, y)
		},
	}}
}

// OneofShared declares a message variant of a oneof, held behind a shared
// pointer. wrap builds the variant's wrapper from a handle, and unwrap
// extracts it, returning false if a oneof value is some other variant.
//
// A wrapper holding a nil handle counts as the variant being set to an empty
// message.
func OneofShared[O comparable, V any](
	number protowire.Number, name string, ty *Type[V],
	wrap func(*Ptr[V]) O, unwrap func(O) (*Ptr[V], bool),
) Variant[O] {
	return Variant[O]{&variant[O]{
		number:  number,
		name:    name,
		kind:    protoreflect.MessageKind,
		message: ty.name,
		is: func(o O) bool {
			_, ok := unwrap(o)
			return ok
		},
		parse: func(o *oneof[O], cur *O, wt protowire.Type, b []byte, d *decoder) (int, error) {
			payload, n, err := consumeMessage(wt, b, d)
			if err != nil {
				return 0, err
			}

			p, ok := unwrap(*cur)
			if !ok {
				if err := o.clear(cur, b, d); err != nil {
					return 0, err
				}
			}
			if p == nil {
				p = NewPtr(*new(V))
				*cur = wrap(p)
			}
			return n, mergeNested(ty, p.Mut(), payload, d)
		},
		append: func(b []byte, o O) []byte {
			b = protowire.AppendTag(b, number, protowire.BytesType)
			if p, _ := unwrap(o); p != nil {
				return appendMessage(b, ty, p.Get())
			}
			return protowire.AppendVarint(b, 0)
		},
		clone: func(o O) O {
			p, _ := unwrap(o)
			return wrap(p.Clone())
		},
		equal: func(a, b O) bool {
			x, _ := unwrap(a)
			y, _ := unwrap(b)
			switch {
			case x == nil && y == nil:
				return true
			case x == nil:
				return ty.Equal(new(V), y.Get())
			case y == nil:
				return ty.Equal(x.Get(), new(V))
			default:
				return sharedEqual(ty, x, y)
			}
		},
		release: func(o O) {
			p, _ := unwrap(o)
			p.Release()
		},
	}}
}
