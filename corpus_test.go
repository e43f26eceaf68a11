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

package sharedpb_test

import (
	"flag"
	"fmt"
	"runtime"
	"testing"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/dynamicpb"

	"buf.build/go/sharedpb/internal/flag2"
	"buf.build/go/sharedpb/internal/testdata"
)

var verbose bool

func TestMain(m *testing.M) {
	flag.Parse()
	verbose = flag2.Lookup[bool]("test.v")

	if flag2.Lookup[string]("test.bench") != "" {
		// Annoyingly, benchmarking won't print the compiler used...
		fmt.Printf("compiler: %v %v\n", runtime.Compiler, runtime.Version())
	}

	m.Run()
}

func TestCorpus(t *testing.T) {
	t.Parallel()
	testdata.RunAll(t, func(t *testing.T, test *testdata.TestCase) {
		t.Helper()
		test.Run(t, verbose)
	})
}

func BenchmarkCorpus(b *testing.B) {
	testdata.RunAll(b, func(b *testing.B, test *testdata.TestCase) {
		b.Helper()
		b.Run("sharedpb", test.RunBenchmark)
		b.Run("dynamicpb", func(b *testing.B) {
			for i, specimen := range test.Specimens {
				b.Run(fmt.Sprint(i), func(b *testing.B) {
					b.SetBytes(int64(len(specimen)))
					b.ReportAllocs()
					for range b.N {
						m := dynamicpb.NewMessage(test.Type.Descriptor())
						_ = proto.Unmarshal(specimen, m)
						_, _ = proto.Marshal(m)
					}
				})
			}
		})
	})
}
