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
	"math"

	"google.golang.org/protobuf/reflect/protoreflect"
)

// CompileOption is a configuration setting for [Compile] and [Type.Define].
type CompileOption struct{ apply func(*compileOptions) }

type compileOptions struct {
	desc protoreflect.MessageDescriptor
}

// WithDescriptor checks a type's field declarations against a message
// descriptor when it is compiled.
//
// Compilation panics if any declared field disagrees with the descriptor on
// number, kind, cardinality or oneof membership, or if the descriptor has a
// field with no declaration.
func WithDescriptor(md protoreflect.MessageDescriptor) CompileOption {
	return CompileOption{func(c *compileOptions) { c.desc = md }}
}

// MergeOption is a configuration setting for [Type.Merge].
type MergeOption struct{ apply func(*mergeOptions) }

type mergeOptions struct {
	maxDepth         int
	discardUnknown   bool
	allowInvalidUTF8 bool
	atomic           bool
}

// defaultMaxDepth matches protobuf-go's default recursion limit.
const defaultMaxDepth = 10000

func newMergeOptions(opts []MergeOption) mergeOptions {
	o := mergeOptions{maxDepth: defaultMaxDepth}
	for _, opt := range opts {
		if opt.apply != nil {
			opt.apply(&o)
		}
	}
	return o
}

// WithMaxDepth sets the maximum message nesting depth for a merge.
//
// Setting a large value enables potential DoS vectors. The default is 10000.
func WithMaxDepth(depth int) MergeOption {
	return MergeOption{func(opts *mergeOptions) { opts.maxDepth = min(max(depth, 0), math.MaxInt32) }}
}

// WithDiscardUnknown sets whether unknown fields should be discarded while
// merging. Analogous to [proto.UnmarshalOptions].
//
// Setting this option will break round-tripping. Unknown fields are still
// validated.
func WithDiscardUnknown(discard bool) MergeOption {
	return MergeOption{func(opts *mergeOptions) { opts.discardUnknown = discard }}
}

// WithAllowInvalidUTF8 sets whether UTF-8 is validated when merging string
// fields.
func WithAllowInvalidUTF8(allow bool) MergeOption {
	return MergeOption{func(opts *mergeOptions) { opts.allowInvalidUTF8 = allow }}
}

// WithAtomic sets whether a merge is all-or-nothing.
//
// By default, a merge that fails part way leaves whatever it had already
// applied in place. With this option, the input is first decoded into a
// scratch message that is then released, and the target is only touched once
// that succeeds. The input is therefore decoded twice. The target is merged in
// place as usual, so its handles keep their identity and uniquely owned shared
// fields are not forked.
//
// The one failure the scratch pass cannot see is a target whose oneof holds a
// value of an undeclared variant type; that is still reported as
// [ErrorVariant] after a partial merge.
func WithAtomic(atomic bool) MergeOption {
	return MergeOption{func(opts *mergeOptions) { opts.atomic = atomic }}
}
