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

package debug

import (
	"fmt"
	"path"
	"runtime"
	"strings"
)

// Stack returns the caller's stack, skipping skip frames, with one line per
// frame. It is used to record where a handle was released, so that a later
// use-after-release can say so.
func Stack(skip int) string {
	trace := make([]uintptr, 16)
	for {
		n := runtime.Callers(skip+1, trace)
		if n < len(trace) {
			trace = trace[:n]
			break
		}
		trace = make([]uintptr, len(trace)*2)
	}

	var out strings.Builder
	frames := runtime.CallersFrames(trace)
	for more := len(trace) > 0; more; {
		var frame runtime.Frame
		frame, more = frames.Next()
		if strings.HasPrefix(frame.Function, "runtime.") {
			continue
		}
		fmt.Fprintf(&out, "  %s()\n    %s:%d\n", path.Base(frame.Function), frame.File, frame.Line)
	}
	return out.String()
}
