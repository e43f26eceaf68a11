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

// Package sharedpb is a Protobuf message representation in which sub-messages
// may be held behind reference-counted, copy-on-write pointers.
//
// Cloning a message whose sub-messages are shared is cheap: the clone receives
// new handles to the same allocations, rather than deep copies. Mutating a
// shared sub-message, including by merging new wire-format bytes into its
// parent, first gives the mutated message its own copy, so no other message
// observes the change.
//
// # Messages
//
// A message is a Go struct that embeds [MessageState]. Its fields are
// described to this package by a [Type], which is built once from a list of
// field declarations:
//
//   - [Singular] and [Repeated], for scalar fields.
//   - [SharedMessage], for a singular sub-message held in a [*Ptr].
//   - [OwnedMessage], for a singular sub-message owned by its parent.
//   - [RepeatedMessage], for a list of owned sub-messages.
//   - [Oneof], whose variants are [OneofScalar] or [OneofShared].
//
// Types for recursive messages are allocated with [NewType] and then filled in
// with [Type.Define]; other types may use [Compile]. [WithDescriptor] checks
// the declarations against a Protobuf descriptor.
//
// # Ownership
//
// Go does not run destructors, so a message that holds shared handles must be
// released with [Type.Release] when its owner is done with it. This is what
// keeps reference counts exact, and therefore what lets [Ptr.Mut] skip the
// copy when a handle is the only one left.
//
// # Support Status
//
// The following are not supported:
//
//   - Map fields.
//   - Groups, which are preserved as unknown fields.
//   - Extensions, which are also preserved as unknown fields.
//   - Proto2 explicit presence for scalars; zero values are not encoded.
package sharedpb
