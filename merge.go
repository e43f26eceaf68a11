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

	"buf.build/go/sharedpb/internal/debug"
)

// Merge decodes b and merges it into m.
//
// Fields may appear in any order and any number of times; each occurrence is
// applied in input order:
//
//   - Scalars are overwritten, so the last occurrence wins.
//   - Singular messages, shared or not, are merged recursively: fields absent
//     from the new bytes keep their old values. A shared sub-message is first
//     made exclusive with [Ptr.Mut], so other messages sharing it are
//     unaffected.
//   - A oneof variant that is already active is merged like a singular
//     message. Any other variant replaces the active one, releasing it.
//   - Repeated fields are appended to.
//   - Unknown fields are appended, verbatim, to m's unknown fields.
//
// If decoding fails, a [*DecodeError] is returned, and m may have been
// partially mutated by the fields that preceded the error, unless
// [WithAtomic] is set.
func (t *Type[M]) Merge(m *M, b []byte, opts ...MergeOption) error {
	options := newMergeOptions(opts)
	if options.atomic {
		scratch := new(M)
		err := t.merge(scratch, b, &decoder{src: b, mergeOptions: options})
		t.Release(scratch)
		if err != nil {
			return err
		}
	}
	return t.merge(m, b, &decoder{src: b, mergeOptions: options})
}

// Unmarshal decodes b into a new message.
//
// On failure, the partially decoded message is released and nil is returned.
func (t *Type[M]) Unmarshal(b []byte, opts ...MergeOption) (*M, error) {
	m := new(M)
	if err := t.Merge(m, b, opts...); err != nil {
		t.Release(m)
		return nil, err
	}
	return m, nil
}

// decoder is the state for a single call to [Type.Merge].
type decoder struct {
	// The buffer passed to Merge. Every slice the decoder sees is a subslice of
	// src, which is how errors compute their offsets.
	src   []byte
	depth int

	mergeOptions
}

// offset returns the offset of b within d.src.
//
// b must be a subslice of src that was not created with a full slice
// expression, so that it shares src's end of capacity.
func (d *decoder) offset(b []byte) int {
	return cap(d.src) - cap(b)
}

// fail returns an error with the given code, located at the start of b.
func (d *decoder) fail(code ErrorCode, b []byte) error {
	return &DecodeError{code: code, offset: d.offset(b)}
}

// wireError converts a negative length returned by protowire into an error.
func (d *decoder) wireError(b []byte, n int) error {
	code := ErrorCode(-n)
	if code <= ErrorOk || code > ErrorRecursionDepth {
		code = ErrorTruncated
	}
	return d.fail(code, b)
}

// merge is the driver loop: read a tag, dispatch it to its field's handler,
// repeat until the input is exhausted or an error occurs.
func (t *Type[M]) merge(m *M, b []byte, d *decoder) error {
	t.assertDefined()

	for len(b) > 0 {
		num, wt, n := protowire.ConsumeTag(b)
		if n < 0 {
			return d.wireError(b, n)
		}
		if num > protowire.MaxValidNumber {
			return d.fail(ErrorFieldNumber, b)
		}

		f := t.lookup(num)
		if debug.Enabled {
			debug.Log([]any{"%s", t.name}, "tag", "%d:%d @ %#x, known: %v", num, wt, d.offset(b), f != nil)
		}

		if f == nil {
			k := protowire.ConsumeFieldValue(num, wt, b[n:])
			if k < 0 {
				return d.wireError(b[n:], k)
			}
			if !d.discardUnknown {
				s := t.state(m)
				s.unknown = append(s.unknown, b[:n+k]...)
			}
			b = b[n+k:]
			continue
		}

		k, err := f.parse(m, wt, b[n:], d)
		if err != nil {
			if err, ok := err.(*DecodeError); ok && err.field == "" {
				err.field = t.name + "." + f.name
			}
			return err
		}
		b = b[n+k:]
	}

	return nil
}

// mergeNested merges b into a sub-message, enforcing the depth limit.
func mergeNested[V any](ty *Type[V], v *V, b []byte, d *decoder) error {
	if d.depth >= d.maxDepth {
		return d.fail(ErrorRecursionDepth, b)
	}
	d.depth++
	err := ty.merge(v, b, d)
	d.depth--
	debug.Assert(d.depth >= 0, "unbalanced depth %d in %s", d.depth, ty.name)
	return err
}

// consumeMessage consumes the length-delimited payload of a message field.
func consumeMessage(wt protowire.Type, b []byte, d *decoder) ([]byte, int, error) {
	if wt != protowire.BytesType {
		return nil, 0, d.fail(ErrorWireType, b)
	}
	v, n := protowire.ConsumeBytes(b)
	if n < 0 {
		return nil, 0, d.wireError(b, n)
	}
	return v, n, nil
}
