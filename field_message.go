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
	"google.golang.org/protobuf/encoding/protowire"
	"google.golang.org/protobuf/reflect/protoreflect"
)

// SharedMessage declares a singular message field held behind a shared
// pointer. A nil handle means the field is absent.
//
// If the field is absent when it is merged, a new allocation is made for it.
// Otherwise, the existing value is made exclusive with [Ptr.Mut], forking it if
// it is shared, and the new bytes are merged into it.
func SharedMessage[M, V any](number protowire.Number, name string, ty *Type[V], get func(*M) **Ptr[V]) FieldDecl[M] {
	return FieldDecl[M]{
		fields: []*field[M]{{
			number:  number,
			name:    name,
			kind:    protoreflect.MessageKind,
			message: ty.name,
			parse: func(m *M, wt protowire.Type, b []byte, d *decoder) (int, error) {
				payload, n, err := consumeMessage(wt, b, d)
				if err != nil {
					return 0, err
				}

				p := get(m)
				if *p == nil {
					*p = NewPtr(*new(V))
				}
				return n, mergeNested(ty, (*p).Mut(), payload, d)
			},
		}},
		member: &member[M]{
			number: number,
			append: func(b []byte, m *M) []byte {
				p := *get(m)
				if p == nil {
					return b
				}
				b = protowire.AppendTag(b, number, protowire.BytesType)
				return appendMessage(b, ty, p.Get())
			},
			clone: func(dst, src *M) { *get(dst) = (*get(src)).Clone() },
			equal: func(a, b *M) bool { return sharedEqual(ty, *get(a), *get(b)) },
			release: func(m *M) {
				p := get(m)
				(*p).Release()
				*p = nil
			},
		},
	}
}

// OwnedMessage declares a singular message field that is owned outright by its
// parent. A nil pointer means the field is absent.
//
// Merging allocates the sub-message if needed, and then merges into it.
// Cloning the parent deep-copies the sub-message.
func OwnedMessage[M, V any](number protowire.Number, name string, ty *Type[V], get func(*M) **V) FieldDecl[M] {
	return FieldDecl[M]{
		fields: []*field[M]{{
			number:  number,
			name:    name,
			kind:    protoreflect.MessageKind,
			message: ty.name,
			parse: func(m *M, wt protowire.Type, b []byte, d *decoder) (int, error) {
				payload, n, err := consumeMessage(wt, b, d)
				if err != nil {
					return 0, err
				}

				p := get(m)
				if *p == nil {
					*p = new(V)
				}
				return n, mergeNested(ty, *p, payload, d)
			},
		}},
		member: &member[M]{
			number: number,
			append: func(b []byte, m *M) []byte {
				v := *get(m)
				if v == nil {
					return b
				}
				b = protowire.AppendTag(b, number, protowire.BytesType)
				return appendMessage(b, ty, v)
			},
			clone: func(dst, src *M) { *get(dst) = ty.Clone(*get(src)) },
			equal: func(a, b *M) bool { return ty.Equal(*get(a), *get(b)) },
			release: func(m *M) {
				p := get(m)
				ty.Release(*p)
				*p = nil
			},
		},
	}
}

// RepeatedMessage declares a repeated field of owned messages.
//
// Every occurrence in the input is decoded into a fresh message and appended;
// existing elements are never merged into. Cloning the parent deep-copies
// every element.
func RepeatedMessage[M, V any](number protowire.Number, name string, ty *Type[V], get func(*M) *[]*V) FieldDecl[M] {
	return FieldDecl[M]{
		fields: []*field[M]{{
			number:   number,
			name:     name,
			kind:     protoreflect.MessageKind,
			repeated: true,
			message:  ty.name,
			parse: func(m *M, wt protowire.Type, b []byte, d *decoder) (int, error) {
				payload, n, err := consumeMessage(wt, b, d)
				if err != nil {
					return 0, err
				}

				v := new(V)
				p := get(m)
				*p = append(*p, v)
				return n, mergeNested(ty, v, payload, d)
			},
		}},
		member: &member[M]{
			number: number,
			append: func(b []byte, m *M) []byte {
				for _, v := range *get(m) {
					b = protowire.AppendTag(b, number, protowire.BytesType)
					b = appendMessage(b, ty, v)
				}
				return b
			},
			clone: func(dst, src *M) {
				vs := *get(src)
				if vs == nil {
					return
				}
				out := make([]*V, len(vs))
				for i, v := range vs {
					out[i] = ty.Clone(v)
				}
				*get(dst) = out
			},
			equal: func(a, b *M) bool {
				x, y := *get(a), *get(b)
				if len(x) != len(y) {
					return false
				}
				for i := range x {
					if !ty.Equal(x[i], y[i]) {
						return false
					}
				}
				return true
			},
			release: func(m *M) {
				p := get(m)
				for _, v := range *p {
					ty.Release(v)
				}
				*p = nil
			},
		},
	}
}

// sharedEqual compares two shared messages by value, short-circuiting when
// they alias.
func sharedEqual[V any](ty *Type[V], a, b *Ptr[V]) bool {
	if a == nil || b == nil {
		return a == b
	}
	return PtrEqual(a, b) || ty.Equal(a.Get(), b.Get())
}
