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
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
	"google.golang.org/protobuf/reflect/protoreflect"

	"buf.build/go/sharedpb/internal/dbg"
)

// MessageState is embedded in every message type. It holds the message's
// unknown fields, and marks the type as usable with [NewType].
type MessageState struct {
	unknown []byte
}

// Unknown returns this message's unknown fields, in wire format, in the order
// they were merged.
func (s *MessageState) Unknown() []byte {
	return s.unknown
}

// SetUnknown replaces this message's unknown fields.
//
// b is not validated; it must be valid wire format.
func (s *MessageState) SetUnknown(b []byte) {
	s.unknown = b
}

func (s *MessageState) messageState() *MessageState { return s }

// MessagePointer is the constraint satisfied by *M for any struct M that
// embeds [MessageState].
type MessagePointer[M any] interface {
	*M
	messageState() *MessageState
}

// Type is the compiled handler table for messages of Go type M.
//
// A Type is built once, usually in a package initializer, with [Compile] or
// with [NewType] followed by [Type.Define]. Once defined, it is immutable and
// safe for concurrent use.
type Type[M any] struct {
	_ noCopy

	name  string
	desc  protoreflect.MessageDescriptor
	state func(*M) *MessageState

	defined bool

	// Field handlers, keyed by number. Numbers below len(dense) are looked up
	// in dense; the rest in sparse.
	dense  []*field[M]
	sparse map[protowire.Number]*field[M]

	fields  []*field[M]  // In field number order.
	members []*member[M] // In order of each member's lowest field number.
}

// field is the handler for a single field number.
type field[M any] struct {
	number protowire.Number
	name   string

	// Schema information, used by [WithDescriptor].
	kind     protoreflect.Kind
	repeated bool
	oneof    string // Name of the containing oneof, if any.
	message  string // Full name of the message type, for message fields.

	// parse applies one occurrence of this field to m. b starts just after the
	// tag, and parse returns how many bytes of b were consumed.
	parse func(m *M, wt protowire.Type, b []byte, d *decoder) (int, error)
}

// member is the handler for a single Go struct field. Every variant of a
// oneof shares one member.
type member[M any] struct {
	number protowire.Number // Lowest field number, which decides encoding order.

	append  func(b []byte, m *M) []byte
	clone   func(dst, src *M)
	equal   func(a, b *M) bool
	release func(m *M) // May be nil if the member holds no handles.
}

// FieldDecl is a field declaration for a message of type M, built with one of
// the field constructors such as [Singular] or [SharedMessage].
type FieldDecl[M any] struct {
	fields []*field[M]
	member *member[M]
}

// Name returns the full name of the message type.
func (t *Type[M]) Name() string {
	return t.name
}

// Descriptor returns the descriptor this type was checked against with
// [WithDescriptor], or nil.
func (t *Type[M]) Descriptor() protoreflect.MessageDescriptor {
	return t.desc
}

// New returns a newly allocated empty message.
func (t *Type[M]) New() *M {
	return new(M)
}

// Clone returns a copy of m.
//
// Scalar fields, owned sub-messages and unknown fields are deep-copied. Shared
// sub-messages, including shared oneof variants, are not: the clone receives a
// new handle to the same allocation, so [PtrEqual] holds between the two
// until one of them is mutated.
//
// Returns nil if m is nil.
func (t *Type[M]) Clone(m *M) *M {
	if m == nil {
		return nil
	}
	t.assertDefined()

	out := new(M)
	for _, mem := range t.members {
		mem.clone(out, m)
	}
	if u := t.state(m).unknown; len(u) > 0 {
		t.state(out).unknown = bytes.Clone(u)
	}
	return out
}

// Equal returns whether a and b have the same value, field by field.
//
// Pointer identity is ignored: shared fields are compared by the values they
// point to. Unknown fields are compared byte-wise. Floating-point fields
// compare NaN as equal to NaN.
func (t *Type[M]) Equal(a, b *M) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a == b {
		return true
	}
	t.assertDefined()

	for _, mem := range t.members {
		if !mem.equal(a, b) {
			return false
		}
	}
	return bytes.Equal(t.state(a).unknown, t.state(b).unknown)
}

// Release drops every handle held by m, and then resets m to the empty
// message.
//
// This is how a message's owner signals that it is done with it, which keeps
// the reference counts of any shared sub-messages accurate. m may be reused
// after it is released.
func (t *Type[M]) Release(m *M) {
	if m == nil {
		return
	}
	t.assertDefined()

	for _, mem := range t.members {
		if mem.release != nil {
			mem.release(m)
		}
	}

	var zero M
	*m = zero
}

// Format implements [fmt.Formatter].
func (t *Type[M]) Format(s fmt.State, verb rune) {
	if !s.Flag('#') {
		fmt.Fprint(s, t.name)
		return
	}

	numbers := make([]protowire.Number, len(t.fields))
	for i, f := range t.fields {
		numbers[i] = f.number
	}
	dbg.Dict(dbg.Fprintf("%p", t),
		"name", t.name,
		"fields", numbers,
		"dense", len(t.dense),
		"desc", t.desc,
	).Format(s, verb)
}

// lookup returns the handler for the given field number, or nil.
func (t *Type[M]) lookup(n protowire.Number) *field[M] {
	if n >= 0 && int(n) < len(t.dense) {
		return t.dense[n]
	}
	return t.sparse[n]
}

func (t *Type[M]) assertDefined() {
	if !t.defined {
		panic(fmt.Sprintf("sharedpb: type %s was used before Define() was called", t.name))
	}
}
