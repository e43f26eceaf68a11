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
	"encoding/binary"

	"google.golang.org/protobuf/encoding/protowire"
)

// Marshal encodes m in wire format.
func (t *Type[M]) Marshal(m *M) []byte {
	return t.Append(nil, m)
}

// Append appends the wire format encoding of m to b.
//
// Fields are written in field number order, followed by unknown fields.
// Scalars with their zero value are omitted, except as oneof variants.
// Repeated numeric fields are always packed.
func (t *Type[M]) Append(b []byte, m *M) []byte {
	if m == nil {
		return b
	}
	t.assertDefined()

	for _, mem := range t.members {
		b = mem.append(b, m)
	}
	return append(b, t.state(m).unknown...)
}

// appendMessage appends v as the length-prefixed payload of a message field.
// The tag must already have been appended.
func appendMessage[V any](b []byte, ty *Type[V], v *V) []byte {
	// The body is encoded first, and then shifted over to make room for its
	// length prefix, to avoid computing sizes ahead of time.
	start := len(b)
	b = ty.Append(b, v)
	n := len(b) - start

	var pad [binary.MaxVarintLen64]byte
	k := protowire.SizeVarint(uint64(n))
	b = append(b, pad[:k]...)
	copy(b[start+k:], b[start:start+n])
	_ = protowire.AppendVarint(b[:start], uint64(n))
	return b
}
