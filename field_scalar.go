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
	"bytes"
	"math"
	"unicode/utf8"

	"google.golang.org/protobuf/encoding/protowire"
	"google.golang.org/protobuf/reflect/protoreflect"

	"buf.build/go/sharedpb/internal/zigzag"
)

// Scalar is a scalar Protobuf kind whose values are represented by the Go
// type T. Use one of the predefined values, such as [Int32] or [String], with
// the field constructors.
type Scalar[T any] struct {
	c *codec[T]
}

// codec is the wire behavior of a [Scalar].
type codec[T any] struct {
	kind protoreflect.Kind
	wire protowire.Type

	decode func(b []byte, d *decoder) (T, int, error)
	append func(b []byte, v T) []byte
	isZero func(v T) bool
	equal  func(a, b T) bool
	clone  func(v T) T // nil if values can be shallow-copied.
}

// copy returns a copy of v that shares no memory with it.
func (c *codec[T]) copy(v T) T {
	if c.clone == nil {
		return v
	}
	return c.clone(v)
}

// packable returns whether repeated fields of this kind may be packed.
func (c *codec[T]) packable() bool {
	return c.wire != protowire.BytesType
}

// Scalars for each Protobuf scalar type. Enums use [Enum].
var (
	Int32 = varintScalar(protoreflect.Int32Kind,
		func(v uint64) int32 { return int32(v) },
		func(v int32) uint64 { return uint64(v) })
	Int64 = varintScalar(protoreflect.Int64Kind,
		func(v uint64) int64 { return int64(v) },
		func(v int64) uint64 { return uint64(v) })
	Uint32 = varintScalar(protoreflect.Uint32Kind,
		func(v uint64) uint32 { return uint32(v) },
		func(v uint32) uint64 { return uint64(v) })
	Uint64 = varintScalar(protoreflect.Uint64Kind,
		func(v uint64) uint64 { return v },
		func(v uint64) uint64 { return v })
	Sint32 = varintScalar(protoreflect.Sint32Kind, zigzag.Decode64[int32], zigzag.Encode[int32])
	Sint64 = varintScalar(protoreflect.Sint64Kind, zigzag.Decode64[int64], zigzag.Encode[int64])
	Bool   = varintScalar(protoreflect.BoolKind,
		func(v uint64) bool { return v != 0 },
		protowire.EncodeBool)

	Fixed32 = fixed32Scalar(protoreflect.Fixed32Kind,
		func(v uint32) uint32 { return v },
		func(v uint32) uint32 { return v },
		exactEqual[uint32])
	Sfixed32 = fixed32Scalar(protoreflect.Sfixed32Kind,
		func(v uint32) int32 { return int32(v) },
		func(v int32) uint32 { return uint32(v) },
		exactEqual[int32])
	Float = fixed32Scalar(protoreflect.FloatKind,
		math.Float32frombits,
		math.Float32bits,
		floatEqual[float32])

	Fixed64 = fixed64Scalar(protoreflect.Fixed64Kind,
		func(v uint64) uint64 { return v },
		func(v uint64) uint64 { return v },
		exactEqual[uint64])
	Sfixed64 = fixed64Scalar(protoreflect.Sfixed64Kind,
		func(v uint64) int64 { return int64(v) },
		func(v int64) uint64 { return uint64(v) },
		exactEqual[int64])
	Double = fixed64Scalar(protoreflect.DoubleKind,
		math.Float64frombits,
		math.Float64bits,
		floatEqual[float64])

	String = Scalar[string]{&codec[string]{
		kind: protoreflect.StringKind,
		wire: protowire.BytesType,
		decode: func(b []byte, d *decoder) (string, int, error) {
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return "", 0, d.wireError(b, n)
			}
			if !d.allowInvalidUTF8 && !utf8.Valid(v) {
				return "", 0, d.fail(ErrorUTF8, b)
			}
			return string(v), n, nil
		},
		append: protowire.AppendString,
		isZero: func(v string) bool { return v == "" },
		equal:  exactEqual[string],
	}}

	Bytes = Scalar[[]byte]{&codec[[]byte]{
		kind: protoreflect.BytesKind,
		wire: protowire.BytesType,
		decode: func(b []byte, d *decoder) ([]byte, int, error) {
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return nil, 0, d.wireError(b, n)
			}
			// Never alias the input buffer.
			return append([]byte{}, v...), n, nil
		},
		append: protowire.AppendBytes,
		isZero: func(v []byte) bool { return len(v) == 0 },
		equal:  bytes.Equal,
		clone:  bytes.Clone,
	}}
)

// Enum returns the [Scalar] for an enum type E.
//
// Unrecognized enum values are kept as-is, as for open enums.
func Enum[E ~int32]() Scalar[E] {
	return varintScalar(protoreflect.EnumKind,
		func(v uint64) E { return E(v) },
		func(v E) uint64 { return uint64(v) })
}

// Singular declares a singular scalar field with implicit presence: a zero
// value is not encoded, and the last occurrence in the input wins.
func Singular[M, T any](number protowire.Number, name string, kind Scalar[T], get func(*M) *T) FieldDecl[M] {
	c := kind.c
	return FieldDecl[M]{
		fields: []*field[M]{{
			number: number,
			name:   name,
			kind:   c.kind,
			parse: func(m *M, wt protowire.Type, b []byte, d *decoder) (int, error) {
				if wt != c.wire {
					return 0, d.fail(ErrorWireType, b)
				}
				v, n, err := c.decode(b, d)
				if err != nil {
					return 0, err
				}
				*get(m) = v
				return n, nil
			},
		}},
		member: &member[M]{
			number: number,
			append: func(b []byte, m *M) []byte {
				v := *get(m)
				if c.isZero(v) {
					return b
				}
				b = protowire.AppendTag(b, number, c.wire)
				return c.append(b, v)
			},
			clone: func(dst, src *M) { *get(dst) = c.copy(*get(src)) },
			equal: func(a, b *M) bool { return c.equal(*get(a), *get(b)) },
		},
	}
}

// Repeated declares a repeated scalar field. Every occurrence is appended.
//
// Numeric kinds accept both packed and unpacked input, and are encoded packed.
func Repeated[M, T any](number protowire.Number, name string, kind Scalar[T], get func(*M) *[]T) FieldDecl[M] {
	c := kind.c
	return FieldDecl[M]{
		fields: []*field[M]{{
			number:   number,
			name:     name,
			kind:     c.kind,
			repeated: true,
			parse: func(m *M, wt protowire.Type, b []byte, d *decoder) (int, error) {
				p := get(m)
				switch {
				case wt == c.wire:
					v, n, err := c.decode(b, d)
					if err != nil {
						return 0, err
					}
					*p = append(*p, v)
					return n, nil

				case wt == protowire.BytesType && c.packable():
					packed, n := protowire.ConsumeBytes(b)
					if n < 0 {
						return 0, d.wireError(b, n)
					}
					for len(packed) > 0 {
						v, k, err := c.decode(packed, d)
						if err != nil {
							return 0, err
						}
						*p = append(*p, v)
						packed = packed[k:]
					}
					return n, nil

				default:
					return 0, d.fail(ErrorWireType, b)
				}
			},
		}},
		member: &member[M]{
			number: number,
			append: func(b []byte, m *M) []byte {
				vs := *get(m)
				if len(vs) == 0 {
					return b
				}
				if !c.packable() {
					for _, v := range vs {
						b = protowire.AppendTag(b, number, c.wire)
						b = c.append(b, v)
					}
					return b
				}

				var packed []byte
				for _, v := range vs {
					packed = c.append(packed, v)
				}
				b = protowire.AppendTag(b, number, protowire.BytesType)
				return protowire.AppendBytes(b, packed)
			},
			clone: func(dst, src *M) {
				vs := *get(src)
				if vs == nil {
					return
				}
				out := make([]T, len(vs))
				for i, v := range vs {
					out[i] = c.copy(v)
				}
				*get(dst) = out
			},
			equal: func(a, b *M) bool {
				x, y := *get(a), *get(b)
				if len(x) != len(y) {
					return false
				}
				for i := range x {
					if !c.equal(x[i], y[i]) {
						return false
					}
				}
				return true
			},
		},
	}
}

func varintScalar[T comparable](kind protoreflect.Kind, decode func(uint64) T, encode func(T) uint64) Scalar[T] {
	return Scalar[T]{&codec[T]{
		kind: kind,
		wire: protowire.VarintType,
		decode: func(b []byte, d *decoder) (T, int, error) {
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				var z T
				return z, 0, d.wireError(b, n)
			}
			return decode(v), n, nil
		},
		append: func(b []byte, v T) []byte { return protowire.AppendVarint(b, encode(v)) },
		isZero: func(v T) bool { return encode(v) == 0 },
		equal:  exactEqual[T],
	}}
}

func fixed32Scalar[T any](kind protoreflect.Kind, decode func(uint32) T, encode func(T) uint32, equal func(a, b T) bool) Scalar[T] {
	return Scalar[T]{&codec[T]{
		kind: kind,
		wire: protowire.Fixed32Type,
		decode: func(b []byte, d *decoder) (T, int, error) {
			v, n := protowire.ConsumeFixed32(b)
			if n < 0 {
				var z T
				return z, 0, d.wireError(b, n)
			}
			return decode(v), n, nil
		},
		append: func(b []byte, v T) []byte { return protowire.AppendFixed32(b, encode(v)) },
		// Comparing bits means -0.0 is not zero, so it survives a round trip.
		isZero: func(v T) bool { return encode(v) == 0 },
		equal:  equal,
	}}
}

func fixed64Scalar[T any](kind protoreflect.Kind, decode func(uint64) T, encode func(T) uint64, equal func(a, b T) bool) Scalar[T] {
	return Scalar[T]{&codec[T]{
		kind: kind,
		wire: protowire.Fixed64Type,
		decode: func(b []byte, d *decoder) (T, int, error) {
			v, n := protowire.ConsumeFixed64(b)
			if n < 0 {
				var z T
				return z, 0, d.wireError(b, n)
			}
			return decode(v), n, nil
		},
		append: func(b []byte, v T) []byte { return protowire.AppendFixed64(b, encode(v)) },
		isZero: func(v T) bool { return encode(v) == 0 },
		equal:  equal,
	}}
}

func exactEqual[T comparable](a, b T) bool { return a == b }

func floatEqual[F float32 | float64](a, b F) bool {
	x, y := float64(a), float64(b)
	if math.IsNaN(x) || math.IsNaN(y) {
		return math.IsNaN(x) && math.IsNaN(y)
	}
	return x == y
}
