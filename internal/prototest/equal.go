// Copyright 2020-2025 Buf Technologies, Inc.
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

// Package prototest contains assertions over reflective Protobuf messages.
package prototest

import (
	"bytes"
	"fmt"
	"math"
	"reflect"
	"strings"
	"testing"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/known/emptypb"

	"buf.build/go/sharedpb/internal/dbg"
)

// Equal validates that two Protobuf messages have the same observable value.
//
// Unlike [proto.Equal], failures report the path to the first field that
// differs, and floats are compared bit-for-bit.
func Equal(t testing.TB, expect, got proto.Message) {
	t.Helper()
	e := &equal{TB: t}

	panicked := true
	defer func() {
		if panicked {
			t.Errorf("panicked at %s", e.formatPath())
		}
	}()

	e.message(expect.ProtoReflect(), got.ProtoReflect())
	panicked = false
}

type equal struct {
	testing.TB
	path []any
}

func (e *equal) any(v1, v2 protoreflect.Value) {
	e.Helper()

	switch a := v1.Interface().(type) {
	case string:
		b, ok := v2.Interface().(string)
		switch {
		case !ok:
			e.wrongType(a, v2.Interface())
		case a != b:
			e.fail("expected %q:`%x`, got %q:`%x`", a, a, b, b)
		}

	case []byte:
		b, ok := v2.Interface().([]byte)
		switch {
		case !ok:
			e.wrongType(a, v2.Interface())
		case !bytes.Equal(a, b):
			e.fail("expected %q:`%x`, got %q:`%x`", a, a, b, b)
		}

	case protoreflect.Message:
		b, ok := v2.Interface().(protoreflect.Message)
		if !ok {
			e.fail("expected protoreflect.Message, got %T", v2.Interface())
			return
		}
		e.message(a, b)

	case protoreflect.List:
		b, ok := v2.Interface().(protoreflect.List)
		if !ok {
			e.fail("expected protoreflect.List, got %T", v2.Interface())
			return
		}
		e.list(a, b)

	case float32:
		b, ok := v2.Interface().(float32)
		switch {
		case !ok:
			e.wrongType(a, v2.Interface())
		case math.Float32bits(a) != math.Float32bits(b):
			e.fail("expected %v:0x%x, got %v:0x%x", a, math.Float32bits(a), b, math.Float32bits(b))
		}

	case float64:
		b, ok := v2.Interface().(float64)
		switch {
		case !ok:
			e.wrongType(a, v2.Interface())
		case math.Float64bits(a) != math.Float64bits(b):
			e.fail("expected %v:0x%x, got %v:0x%x", a, math.Float64bits(a), b, math.Float64bits(b))
		}

	default:
		b := v2.Interface()
		switch {
		case reflect.TypeOf(a) != reflect.TypeOf(b):
			e.wrongType(a, b)
		case a != b:
			e.fail("expected %v, got %v (%T)", a, b, b)
		}
	}
}

func (e *equal) message(a, b protoreflect.Message) {
	e.Helper()

	if a.Descriptor().FullName() != b.Descriptor().FullName() {
		e.fail("expected %v, got %v", a.Descriptor().FullName(), b.Descriptor().FullName())
		return
	}

	// Can't just compare for equality, since go protobuf actually re-encodes
	// each unknown field minimally! This is not actually necessary to match
	// the contract of unknown fields.
	transcode := func(b []byte) []byte {
		empty := new(emptypb.Empty)
		_ = proto.Unmarshal(b, empty)
		return empty.ProtoReflect().GetUnknown()
	}

	if !bytes.Equal(transcode(a.GetUnknown()), transcode(b.GetUnknown())) {
		e.fail("unequal unknown fields: want `%x`, got `%x`", a.GetUnknown(), b.GetUnknown())
	}

	d := a.Descriptor()
	fds := d.Fields()
	for i := range fds.Len() {
		fd := fds.Get(i)
		e.push(fd.Name(), func() {
			e.Helper()
			if a.Has(fd) != b.Has(fd) {
				e.fail("unequal has: want %v, got %v", a.Has(fd), b.Has(fd))
				return
			}
			if a.Has(fd) {
				e.any(a.Get(fd), b.Get(fd))
			}
		})
	}

	ods := d.Oneofs()
	for i := range ods.Len() {
		od := ods.Get(i)
		e.push(od.Name(), func() {
			e.Helper()
			wa, wb := a.WhichOneof(od), b.WhichOneof(od)
			if (wa == nil) != (wb == nil) || (wa != nil && wa.Number() != wb.Number()) {
				e.fail("unequal which: want %v, got %v", wa, wb)
			}
		})
	}
}

func (e *equal) list(a, b protoreflect.List) {
	e.Helper()
	// Compare the common prefix.
	for i := range min(a.Len(), b.Len()) {
		e.push(i, func() {
			e.Helper()
			e.any(a.Get(i), b.Get(i))
		})
	}

	if a.Len() != b.Len() {
		e.fail("unequal lengths: want %d, got %d", a.Len(), b.Len())
	}
}

func (e *equal) push(v any, f func()) {
	e.Helper()
	e.path = append(e.path, v)
	f()
	e.path = e.path[:len(e.path)-1]
}

func (e *equal) wrongType(a, b any) {
	e.Helper()
	e.fail("expected %T, got %T", a, b)
}

func (e *equal) fail(format string, args ...any) {
	e.Helper()
	e.Errorf("failure at %s: %v", e.formatPath(), dbg.Fprintf(format, args...))
}

func (e *equal) formatPath() string {
	if len(e.path) == 0 {
		return "."
	}

	buf := new(strings.Builder)
	for _, e := range e.path {
		switch e := e.(type) {
		case protoreflect.Name, protoreflect.FullName:
			fmt.Fprintf(buf, ".%v", e)
		case string:
			fmt.Fprintf(buf, "[%q]", e)
		default:
			fmt.Fprintf(buf, "[%v]", e)
		}
	}

	return buf.String()
}
