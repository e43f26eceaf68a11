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
	"cmp"
	"fmt"
	"slices"

	"google.golang.org/protobuf/encoding/protowire"
	"google.golang.org/protobuf/reflect/protoreflect"

	"buf.build/go/sharedpb/internal/debug"
)

// maxDense is the largest table of field handlers that is indexed directly by
// field number. Types with larger numbers spill into a map.
const maxDense = 256

// NewType allocates an undefined [Type] for messages of type M.
//
// The type's fields are provided later with [Type.Define]. Splitting the two
// steps allows recursive and mutually recursive message types, whose field
// declarations need to refer to each other's [Type].
//
//	var NodeType = sharedpb.NewType[Node]("example.Node")
func NewType[M any, P MessagePointer[M]](name string) *Type[M] {
	return &Type[M]{
		name:  name,
		state: func(m *M) *MessageState { return P(m).messageState() },
	}
}

// Compile builds a [Type] for messages of type M in one step.
//
// Panics if the field declarations are invalid; see [Type.Define].
func Compile[M any, P MessagePointer[M]](name string, fields []FieldDecl[M], opts ...CompileOption) *Type[M] {
	return NewType[M, P](name).Define(fields, opts...)
}

// Define provides the field declarations for a type allocated with [NewType],
// and builds its handler table. Returns t.
//
// Panics if t is already defined, if a field number is invalid or declared
// twice, or if a descriptor passed with [WithDescriptor] disagrees with the
// declarations.
func (t *Type[M]) Define(fields []FieldDecl[M], opts ...CompileOption) *Type[M] {
	if t.defined {
		panic(fmt.Sprintf("sharedpb: type %s defined twice", t.name))
	}

	var options compileOptions
	for _, opt := range opts {
		if opt.apply != nil {
			opt.apply(&options)
		}
	}

	seen := make(map[protowire.Number]string)
	for _, decl := range fields {
		if decl.member == nil {
			panic(fmt.Sprintf("sharedpb: zero FieldDecl in %s", t.name))
		}
		for _, f := range decl.fields {
			if !f.number.IsValid() ||
				f.number >= protowire.FirstReservedNumber && f.number <= protowire.LastReservedNumber {
				panic(fmt.Sprintf("sharedpb: %s.%s has invalid field number %d", t.name, f.name, f.number))
			}
			if prev, ok := seen[f.number]; ok {
				panic(fmt.Sprintf("sharedpb: %s.%s and %s.%s both use field number %d",
					t.name, prev, t.name, f.name, f.number))
			}
			seen[f.number] = f.name
			t.fields = append(t.fields, f)
		}
		t.members = append(t.members, decl.member)
	}

	slices.SortFunc(t.fields, func(a, b *field[M]) int { return cmp.Compare(a.number, b.number) })
	slices.SortStableFunc(t.members, func(a, b *member[M]) int { return cmp.Compare(a.number, b.number) })

	var size int
	for _, f := range t.fields {
		if f.number >= maxDense {
			if t.sparse == nil {
				t.sparse = make(map[protowire.Number]*field[M])
			}
			t.sparse[f.number] = f
			continue
		}
		size = max(size, int(f.number)+1)
	}
	t.dense = make([]*field[M], size)
	for _, f := range t.fields {
		if f.number < maxDense {
			t.dense[f.number] = f
		}
	}

	if options.desc != nil {
		t.check(options.desc)
		t.desc = options.desc
	}

	if debug.Enabled {
		debug.Log(nil, "define", "%#v", t)
	}

	t.defined = true
	return t
}

// check validates t's declarations against md.
func (t *Type[M]) check(md protoreflect.MessageDescriptor) {
	if string(md.FullName()) != t.name {
		panic(fmt.Sprintf("sharedpb: type %s checked against descriptor for %s", t.name, md.FullName()))
	}

	fds := md.Fields()
	for i := range fds.Len() {
		fd := fds.Get(i)
		if t.lookup(fd.Number()) == nil {
			panic(fmt.Sprintf("sharedpb: %s has no declaration", fd.FullName()))
		}
	}

	for _, f := range t.fields {
		fd := fds.ByNumber(f.number)
		mismatch := func(what string, want, got any) {
			panic(fmt.Sprintf("sharedpb: %s.%s: descriptor has %s %v, declaration has %v",
				t.name, f.name, what, want, got))
		}

		switch {
		case fd == nil:
			panic(fmt.Sprintf("sharedpb: %s.%s (%d) is not in the descriptor", t.name, f.name, f.number))
		case fd.IsMap():
			panic(fmt.Sprintf("sharedpb: %s is a map field, which is not supported", fd.FullName()))
		case string(fd.Name()) != f.name:
			mismatch("name", fd.Name(), f.name)
		case fd.Kind() != f.kind:
			mismatch("kind", fd.Kind(), f.kind)
		case fd.IsList() != f.repeated:
			mismatch("repeated", fd.IsList(), f.repeated)
		}

		var oneof string
		if od := fd.ContainingOneof(); od != nil && !od.IsSynthetic() {
			oneof = string(od.Name())
		}
		if oneof != f.oneof {
			mismatch("oneof", oneof, f.oneof)
		}

		if f.message != "" {
			if got := string(fd.Message().FullName()); got != f.message {
				mismatch("message type", got, f.message)
			}
		}
	}
}
