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
	"errors"
	"fmt"
	"io"
)

const (
	ErrorOk ErrorCode = iota
	// These match the errors in protowire.
	ErrorTruncated
	ErrorFieldNumber
	ErrorOverflow
	ErrorReserved
	ErrorEndGroup
	ErrorRecursionDepth

	ErrorUTF8
	ErrorWireType
	ErrorVariant
)

var errs = [...]error{
	ErrorOk:             nil,
	ErrorTruncated:      io.ErrUnexpectedEOF,
	ErrorFieldNumber:    errors.New("invalid field number"),
	ErrorOverflow:       errors.New("variable length integer overflow"),
	ErrorReserved:       errors.New("cannot parse reserved wire type"),
	ErrorEndGroup:       errors.New("mismatching end group marker"),
	ErrorRecursionDepth: errors.New("recursion depth exceeded"),
	ErrorUTF8:           errors.New("invalid UTF-8 in string"),
	ErrorWireType:       errors.New("wrong wire type for declared field"),
	ErrorVariant:        errors.New("oneof holds an undeclared variant"),
}

// ErrorCode is one of the possible types of errors in [DecodeError].
type ErrorCode int

// String implements [fmt.Stringer].
func (c ErrorCode) String() string {
	if c < 0 || int(c) >= len(errs) {
		return fmt.Sprintf("ErrorCode(%d)", int(c))
	}
	if c == ErrorOk {
		return "ok"
	}
	return errs[c].Error()
}

// DecodeError is returned by a failed merge. It records why decoding failed
// and where, as a byte offset into the buffer passed to the top-level merge.
//
// A merge that fails may already have mutated its target; see [WithAtomic].
type DecodeError struct {
	code   ErrorCode
	offset int
	field  string // Full name of the field being decoded, if known.
}

// Code returns the kind of error that occurred.
func (e *DecodeError) Code() ErrorCode {
	return e.code
}

// Offset returns the offset at which the error occurred.
func (e *DecodeError) Offset() int {
	return e.offset
}

// Unwrap implements error unwrapping viz [errors.Unwrap].
func (e *DecodeError) Unwrap() error {
	return errs[e.code]
}

// Error implements [error].
func (e *DecodeError) Error() string {
	if e.field != "" {
		return fmt.Sprintf("sharedpb: decode error at offset %d/%#x in %s: %v", e.offset, e.offset, e.field, e.Unwrap())
	}
	return fmt.Sprintf("sharedpb: decode error at offset %d/%#x: %v", e.offset, e.offset, e.Unwrap())
}
