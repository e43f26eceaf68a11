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

// Package testdata contains the conformance corpus, and the harness that
// checks sharedpb against dynamicpb on it.
package testdata

import (
	"bytes"
	"embed"
	"encoding/hex"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/protocolbuffers/protoscope"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/encoding/prototext"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/dynamicpb"
	"gopkg.in/yaml.v3"

	"buf.build/go/sharedpb"
	"buf.build/go/sharedpb/internal/debug"
	"buf.build/go/sharedpb/internal/prototest"
	"buf.build/go/sharedpb/internal/testpb"
)

//go:embed *
var testdata embed.FS

// Harness is a generalization of [testing.TB] that also includes the
// [testing.T.Run] method. It must be generic because the signature of this
// function varies across [testing.T] and [testing.B].
type Harness[T any] interface {
	testing.TB
	Run(string, func(T)) bool
}

// Codec is a type-erased [sharedpb.Type].
type Codec interface {
	Name() string
	Descriptor() protoreflect.MessageDescriptor

	// Decode merges each input, in order, into one new message, and returns
	// its encoding.
	Decode(inputs [][]byte, opts ...sharedpb.MergeOption) ([]byte, error)
}

// Types is every type that the corpus may refer to, by full name.
var Types = map[string]Codec{}

func init() {
	register(testpb.InnerType)
	register(testpb.OuterType)
	register(testpb.ScalarsType)
}

func register[M any](ty *sharedpb.Type[M]) {
	Types[ty.Name()] = codec[M]{ty}
}

type codec[M any] struct {
	*sharedpb.Type[M]
}

func (c codec[M]) Decode(inputs [][]byte, opts ...sharedpb.MergeOption) ([]byte, error) {
	m := c.New()
	defer c.Release(m)

	for _, b := range inputs {
		if err := c.Merge(m, b, opts...); err != nil {
			return nil, err
		}
	}

	clone := c.Clone(m)
	defer c.Release(clone)
	if !c.Equal(m, clone) {
		return nil, fmt.Errorf("clone of %s is not equal to the original", c.Name())
	}
	return c.Marshal(m), nil
}

// TestCase is a test case from the test data corpus.
type TestCase struct {
	Name string `yaml:"-"`

	TypeName string `yaml:"type"`
	Type     Codec  `yaml:"-"`

	// If set, run this test as a benchmark.
	Benchmark bool `yaml:"benchmark"`

	// If set, the specimens are merged, in order, into a single message,
	// rather than each being decoded on its own.
	Merge bool `yaml:"merge"`

	// If set, decoding must fail with an error containing this string. This
	// is for inputs that protobuf-go accepts and we do not, such as a wrong
	// wire type for a declared field.
	Error string `yaml:"error"`

	DiscardUnknown bool `yaml:"discard_unknown"`

	// Three ways to encode the test: hex, textproto, and protoscope
	Hex        []string `yaml:"hex"`
	TextProto  []string `yaml:"textproto"`
	Protoscope []string `yaml:"protoscope"`

	Specimens [][]byte `yaml:"-"`
}

// RunAll runs all of the test cases against the given harness.
func RunAll[T Harness[T]](t T, f func(T, *TestCase)) {
	t.Helper()

	var failed atomic.Bool
	err := fs.WalkDir(testdata, ".", func(path string, d fs.DirEntry, err error) error {
		require.NoError(t, err, "loading test %q", path)

		if d.IsDir() || filepath.Ext(path) != ".yaml" {
			return nil
		}

		t.Run(strings.TrimSuffix(path, ".yaml"), func(t T) {
			if t, ok := any(t).(*testing.T); ok {
				t.Parallel()
			}

			defer failed.CompareAndSwap(false, t.Failed())

			data, err := fs.ReadFile(testdata, path)
			require.NoError(t, err, "loading test %q", path)

			test := parseTestCase(t, path, data)
			if test != nil {
				f(t, test)
			}
		})

		return nil
	})
	require.NoError(t, err)
}

// Options returns the merge options this test case asks for.
func (test *TestCase) Options() []sharedpb.MergeOption {
	return []sharedpb.MergeOption{
		sharedpb.WithDiscardUnknown(test.DiscardUnknown),
	}
}

// Run executes a single test case.
func (test *TestCase) Run(t *testing.T, verbose bool) {
	t.Helper()

	run := func(t *testing.T, inputs [][]byte) {
		t.Helper()
		defer debug.WithTesting(t)()

		// Decode using sharedpb.
		got, err2 := test.Type.Decode(inputs, test.Options()...)
		if test.Error != "" {
			require.ErrorContains(t, err2, test.Error)
			return
		}

		// Decode using dynamicpb.
		m1 := dynamicpb.NewMessage(test.Type.Descriptor())
		options := proto.UnmarshalOptions{Merge: true, DiscardUnknown: test.DiscardUnknown}
		var err1 error
		for _, b := range inputs {
			if err1 = options.Unmarshal(b, m1); err1 != nil {
				break
			}
		}

		if verbose {
			t.Logf("theirs: %v, ours: %v", err1, err2)
		}

		if err1 != nil {
			require.Error(t, err2, "dynamicpb error: %v", err1)
			return
		}
		require.NoError(t, err2)

		// Our encoding must decode to the same value.
		m2 := dynamicpb.NewMessage(test.Type.Descriptor())
		require.NoError(t, proto.Unmarshal(got, m2), "re-parsing %x", got)
		prototest.Equal(t, m1, m2)

		if verbose {
			options := protojson.MarshalOptions{
				Multiline:     true,
				Indent:        "  ",
				UseProtoNames: true,
			}
			b1, _ := options.Marshal(m1)
			b2, _ := options.Marshal(m2)
			t.Logf("theirs: %s", b1)
			t.Logf("ours: %s", b2)
		}
	}

	if test.Merge || len(test.Specimens) == 1 {
		run(t, test.Specimens)
		return
	}

	for _, specimen := range test.Specimens {
		t.Run("", func(t *testing.T) {
			t.Parallel()
			run(t, [][]byte{specimen})
		})
	}
}

// RunBenchmark benchmarks decoding and re-encoding each specimen.
func (test *TestCase) RunBenchmark(b *testing.B) {
	b.Helper()

	for i, specimen := range test.Specimens {
		inputs := [][]byte{specimen}
		b.Run(fmt.Sprint(i), func(b *testing.B) {
			b.SetBytes(int64(len(specimen)))
			b.ReportAllocs()
			for range b.N {
				_, _ = test.Type.Decode(inputs, test.Options()...)
			}
		})
	}
}

// parseTestCase parses a single test case from the given data.
//
// This will call t.FailNow() if testing fails.
func parseTestCase(t testing.TB, path string, file []byte) *TestCase {
	t.Helper()
	defer debug.WithTesting(t)()

	require.True(t, bytes.HasSuffix(file, []byte("\n")), "missing trailing newline in %q", path)

	test := new(TestCase)
	dec := yaml.NewDecoder(bytes.NewReader(file))
	dec.KnownFields(true)
	err := dec.Decode(&test)
	require.NoError(t, err, "loading test %q", path)

	_, isBench := t.(*testing.B)
	if isBench && !test.Benchmark {
		t.SkipNow()
	}

	test.Name = strings.TrimSuffix(path, ".yaml")
	test.Type = Types[test.TypeName]
	require.NotNil(t, test.Type, "unknown type %q in %q", test.TypeName, path)

	for _, raw := range test.Hex {
		r := strings.NewReplacer(" ", "", "\t", "", "\n", "", "\r", "")
		b, err := hex.DecodeString(r.Replace(raw))
		require.NoError(t, err, "loading test %q", path)

		test.Specimens = append(test.Specimens, b)
	}

	for _, raw := range test.TextProto {
		m := dynamicpb.NewMessage(test.Type.Descriptor())
		err = prototext.Unmarshal([]byte(raw), m)
		require.NoError(t, err, "loading test %q", path)

		b, err := proto.Marshal(m)
		require.NoError(t, err, "loading test %q", path)

		test.Specimens = append(test.Specimens, b)
	}

	for _, raw := range test.Protoscope {
		s := protoscope.NewScanner(raw)
		b, err := s.Exec()
		require.NoError(t, err, "loading test %q", path)

		test.Specimens = append(test.Specimens, b)
	}

	require.NotEmpty(t, test.Specimens, "no specimens in %q", path)
	return test
}
