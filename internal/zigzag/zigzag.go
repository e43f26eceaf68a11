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

// Package zigzag implements the zigzag encoding used by sint32 and sint64
// fields, for signed integers of either width.
package zigzag

import (
	"unsafe"

	"google.golang.org/protobuf/encoding/protowire"
)

// Signed is a signed integer type that can be zigzag-encoded.
type Signed interface {
	~int32 | ~int64
}

// Decode decodes a zigzag-encoded value of any type.
//
// Calling [protowire.DecodeZigZag] directly does not work correctly for
// 32-bit values when sign extension is involved.
func Decode[T Signed](raw T) T {
	n := uint64(raw)
	n &= (1 << (unsafe.Sizeof(raw) * 8)) - 1

	return T(protowire.DecodeZigZag(n))
}

// Decode64 is a helper for calling zigzag with a raw 64-bit input, such as
// a freshly decoded varint.
func Decode64[T Signed](raw uint64) T {
	return Decode(T(raw))
}

// Encode zigzag-encodes v into a value suitable for appending as a varint.
//
// The result for a 32-bit input always fits in 32 bits.
func Encode[T Signed](v T) uint64 {
	return protowire.EncodeZigZag(int64(v))
}
