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
	"math"
	"testing"

	"github.com/protocolbuffers/protoscope"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"buf.build/go/sharedpb"
	"buf.build/go/sharedpb/internal/testpb"
)

// scope assembles a Protoscope program.
func scope(t testing.TB, text string) []byte {
	t.Helper()
	b, err := protoscope.NewScanner(text).Exec()
	require.NoError(t, err)
	return b
}

func shared(data string, value int32) *sharedpb.Ptr[testpb.Inner] {
	return sharedpb.NewPtr(testpb.Inner{Data: data, Value: value})
}

func TestRoundTripShared(t *testing.T) {
	t.Parallel()

	m := &testpb.Outer{Inner: shared("hello", 123)}
	defer m.Release()

	out := new(testpb.Outer)
	defer out.Release()
	require.NoError(t, out.Merge(m.Marshal()))

	require.NotNil(t, out.Inner)
	assert.Equal(t, "hello", out.GetInner().Data)
	assert.Equal(t, int32(123), out.GetInner().Value)
	assert.True(t, m.Equal(out))
}

func TestRoundTripFull(t *testing.T) {
	t.Parallel()

	m := &testpb.Outer{
		Inner:      shared("a", 1),
		OneofField: &testpb.Outer_ArcInner{ArcInner: shared("b", 2)},
		InnerList:  []*testpb.Inner{{Data: "c"}, {Value: 4}, {}},
		Id:         -5,
		Tags:       []int32{1, -1, math.MaxInt32, math.MinInt32},
		Child: &testpb.Outer{
			OneofField: &testpb.Outer_Text{Text: ""},
			Child:      &testpb.Outer{Id: 9},
		},
	}
	defer m.Release()

	out, err := testpb.OuterType.Unmarshal(m.Marshal())
	require.NoError(t, err)
	defer out.Release()
	assert.True(t, m.Equal(out))
	assert.Equal(t, m.Marshal(), out.Marshal())

	// The empty text variant is still set.
	_, ok := out.Child.OneofField.(*testpb.Outer_Text)
	assert.True(t, ok)
}

func TestRoundTripScalars(t *testing.T) {
	t.Parallel()

	m := &testpb.Scalars{
		I32: -1, I64: math.MinInt64, U32: math.MaxUint32, U64: math.MaxUint64,
		S32: math.MinInt32, S64: math.MaxInt64, F32: 7, F64: 8, Sf32: -9, Sf64: -10,
		B: true, Fl: float32(math.Inf(-1)), Db: math.Copysign(0, -1),
		Str: "héllo", By: []byte{0, 1, 2}, Color: testpb.Color_COLOR_GREEN,
		Strs: []string{"", "x"}, Blobs: [][]byte{nil, {1}},
		Dbs: []float64{math.NaN(), 1}, Ss64: []int64{-1, 1}, Rf32: []uint32{0, 1},
		Bools: []bool{false, true}, Far: 1000,
	}

	out, err := testpb.ScalarsType.Unmarshal(m.Marshal())
	require.NoError(t, err)
	assert.True(t, m.Equal(out))

	// Negative zero is not the zero value.
	assert.True(t, math.Signbit(out.Db))
	assert.True(t, math.IsNaN(out.Dbs[0]))
}

func TestCloneAliases(t *testing.T) {
	t.Parallel()

	m := &testpb.Outer{
		Inner:      shared("a", 1),
		OneofField: &testpb.Outer_ArcInner{ArcInner: shared("b", 2)},
		InnerList:  []*testpb.Inner{{Data: "c"}},
		Tags:       []int32{1},
		Child:      &testpb.Outer{Id: 1},
	}
	defer m.Release()

	c := m.Clone()
	defer c.Release()

	assert.True(t, sharedpb.PtrEqual(m.Inner, c.Inner))
	assert.True(t, sharedpb.PtrEqual(m.GetArcInner(), c.GetArcInner()))
	assert.Equal(t, 2, m.Inner.StrongCount())
	assert.Equal(t, 2, m.GetArcInner().StrongCount())

	// Owned fields are deep copies.
	assert.NotSame(t, m.InnerList[0], c.InnerList[0])
	assert.NotSame(t, m.Child, c.Child)
	assert.True(t, m.Equal(c))

	c.Tags[0] = 2
	assert.Equal(t, int32(1), m.Tags[0])
	assert.False(t, m.Equal(c))
}

func TestForkOnMerge(t *testing.T) {
	t.Parallel()

	original := &testpb.Outer{Inner: shared("original", 1)}
	defer original.Release()

	clone := original.Clone()
	defer clone.Release()
	require.True(t, sharedpb.PtrEqual(original.Inner, clone.Inner))

	update := &testpb.Outer{Inner: shared("updated", 2)}
	defer update.Release()
	require.NoError(t, original.Merge(update.Marshal()))

	assert.False(t, sharedpb.PtrEqual(original.Inner, clone.Inner))
	assert.Equal(t, "updated", original.GetInner().Data)
	assert.Equal(t, int32(2), original.GetInner().Value)
	assert.Equal(t, "original", clone.GetInner().Data)
	assert.Equal(t, int32(1), clone.GetInner().Value)
	assert.Equal(t, 1, original.Inner.StrongCount())
	assert.Equal(t, 1, clone.Inner.StrongCount())
}

func TestMergeUnique(t *testing.T) {
	t.Parallel()

	// With only one handle, merging does not reallocate.
	m := &testpb.Outer{Inner: shared("a", 1)}
	defer m.Release()

	before := m.GetInner()
	require.NoError(t, m.Merge(scope(t, `1: {2: 5}`)))
	assert.Same(t, before, m.GetInner())
	assert.Equal(t, int32(5), before.Value)
}

func TestMergeRecursive(t *testing.T) {
	t.Parallel()

	m := &testpb.Outer{Inner: shared("keep", 1)}
	defer m.Release()

	require.NoError(t, m.Merge(scope(t, `1: {2: 99}`)))
	assert.Equal(t, "keep", m.GetInner().Data)
	assert.Equal(t, int32(99), m.GetInner().Value)

	require.NoError(t, m.Merge(scope(t, `1: {1: {"new"}}`)))
	assert.Equal(t, "new", m.GetInner().Data)
	assert.Equal(t, int32(99), m.GetInner().Value)

	// Owned sub-messages, too.
	require.NoError(t, m.Merge(scope(t, `7: {5: 1 1: {1: {"x"}}}`)))
	require.NoError(t, m.Merge(scope(t, `7: {1: {2: 2}}`)))
	require.NotNil(t, m.Child)
	assert.Equal(t, int64(1), m.Child.Id)
	assert.Equal(t, "x", m.Child.GetInner().Data)
	assert.Equal(t, int32(2), m.Child.GetInner().Value)
}

func TestMergeOneofReplace(t *testing.T) {
	t.Parallel()

	old := shared("old", 1)
	keep := old.Clone()
	defer keep.Release()

	m := &testpb.Outer{OneofField: &testpb.Outer_ArcInner{ArcInner: old}}
	defer m.Release()
	require.Equal(t, 2, keep.StrongCount())

	require.NoError(t, m.Merge(scope(t, `2: {"text"}`)))
	assert.Equal(t, "text", m.GetText())
	assert.Equal(t, 1, keep.StrongCount(), "old variant was released exactly once")

	require.NoError(t, m.Merge(scope(t, `3: {2: 7}`)))
	fresh := m.GetArcInner()
	require.NotNil(t, fresh)
	assert.Equal(t, 1, fresh.StrongCount())
	assert.False(t, sharedpb.PtrEqual(fresh, keep))
	assert.Equal(t, int32(7), fresh.Get().Value)
	assert.Empty(t, fresh.Get().Data, "no state carried over from the old variant")
	assert.Equal(t, "old", keep.Get().Data)
}

func TestMergeOneofSame(t *testing.T) {
	t.Parallel()

	m := &testpb.Outer{OneofField: &testpb.Outer_ArcInner{ArcInner: shared("a", 1)}}
	defer m.Release()

	c := m.Clone()
	defer c.Release()

	require.NoError(t, m.Merge(scope(t, `3: {2: 2}`)))
	assert.Equal(t, "a", m.GetArcInner().Get().Data)
	assert.Equal(t, int32(2), m.GetArcInner().Get().Value)

	// The clone kept the old value.
	assert.False(t, sharedpb.PtrEqual(m.GetArcInner(), c.GetArcInner()))
	assert.Equal(t, int32(1), c.GetArcInner().Get().Value)
}

func TestMergeOneofNilHandle(t *testing.T) {
	t.Parallel()

	// A variant wrapper with a nil handle is an empty message.
	m := &testpb.Outer{OneofField: &testpb.Outer_ArcInner{}}
	defer m.Release()
	assert.Equal(t, scope(t, `3: {}`), m.Marshal())

	require.NoError(t, m.Merge(scope(t, `3: {2: 3}`)))
	require.NotNil(t, m.GetArcInner())
	assert.Equal(t, int32(3), m.GetArcInner().Get().Value)
}

func TestMergeRepeated(t *testing.T) {
	t.Parallel()

	m := &testpb.Outer{InnerList: []*testpb.Inner{{Data: "a"}}, Tags: []int32{1}}
	defer m.Release()

	first := m.InnerList[0]
	require.NoError(t, m.Merge(scope(t, `
		4: {1: {"b"}}
		6: 2
		4: {2: 3}
		6: {3 4}
	`)))

	require.Len(t, m.InnerList, 3)
	assert.Same(t, first, m.InnerList[0])
	assert.Equal(t, "a", m.InnerList[0].Data)
	assert.Equal(t, "b", m.InnerList[1].Data)
	assert.Equal(t, int32(3), m.InnerList[2].Value)
	assert.Equal(t, []int32{1, 2, 3, 4}, m.Tags)
}

func TestMergeScalarsLastWins(t *testing.T) {
	t.Parallel()

	m := &testpb.Outer{Id: 1}
	require.NoError(t, m.Merge(scope(t, `5: 2 5: 3`)))
	assert.Equal(t, int64(3), m.Id)

	// Explicit zeros overwrite, too.
	require.NoError(t, m.Merge(scope(t, `5: 0`)))
	assert.Zero(t, m.Id)
}

func TestMergeBytesDoNotAlias(t *testing.T) {
	t.Parallel()

	b := scope(t, `15: {"abc"} 18: {"def"}`)
	m, err := testpb.ScalarsType.Unmarshal(b)
	require.NoError(t, err)

	for i := range b {
		b[i] = 0
	}
	assert.Equal(t, []byte("abc"), m.By)
	assert.Equal(t, [][]byte{[]byte("def")}, m.Blobs)
}

func TestUnknownFields(t *testing.T) {
	t.Parallel()

	b := scope(t, `
		5: 1
		100: 7
		101: !{1: 2}
		102: {"x"}
	`)

	m := new(testpb.Outer)
	require.NoError(t, m.Merge(b))
	assert.Equal(t, scope(t, `100: 7 101: !{1: 2} 102: {"x"}`), m.Unknown())
	assert.Equal(t, b, m.Marshal())

	// Unknown fields accumulate across merges, and are cloned.
	require.NoError(t, m.Merge(scope(t, `103: 1i32`)))
	assert.Equal(t, scope(t, `100: 7 101: !{1: 2} 102: {"x"} 103: 1i32`), m.Unknown())
	c := m.Clone()
	assert.Equal(t, m.Unknown(), c.Unknown())
	assert.True(t, m.Equal(c))

	c.SetUnknown(nil)
	assert.False(t, m.Equal(c))

	d := new(testpb.Outer)
	require.NoError(t, d.Merge(b, sharedpb.WithDiscardUnknown(true)))
	assert.Empty(t, d.Unknown())
	assert.Equal(t, int64(1), d.Id)
}

func TestSparseField(t *testing.T) {
	t.Parallel()

	m := new(testpb.Scalars)
	require.NoError(t, m.Merge(scope(t, `1000: 5 999: 1`)))
	assert.Equal(t, int32(5), m.Far)
	assert.Equal(t, scope(t, `999: 1`), m.Unknown())
}

func TestReleaseMessage(t *testing.T) {
	t.Parallel()

	inner := shared("a", 1)
	arc := shared("b", 2)
	watchInner, watchArc := inner.Clone(), arc.Clone()
	defer watchInner.Release()
	defer watchArc.Release()

	m := &testpb.Outer{
		Inner:      inner,
		OneofField: &testpb.Outer_ArcInner{ArcInner: arc},
		Child:      &testpb.Outer{Inner: watchInner.Clone()},
	}
	require.Equal(t, 3, watchInner.StrongCount())

	m.Release()
	assert.Equal(t, 1, watchInner.StrongCount())
	assert.Equal(t, 1, watchArc.StrongCount())
	assert.True(t, m.Equal(new(testpb.Outer)), "released messages are empty")

	// A released message may be reused.
	require.NoError(t, m.Merge(scope(t, `5: 1`)))
	assert.Equal(t, int64(1), m.Id)
}

func TestEqual(t *testing.T) {
	t.Parallel()

	a := &testpb.Outer{Inner: shared("a", 1), Tags: []int32{1}}
	b := &testpb.Outer{Inner: shared("a", 1), Tags: []int32{1}}
	defer a.Release()
	defer b.Release()

	assert.True(t, a.Equal(b), "equal values in distinct allocations")
	assert.True(t, testpb.OuterType.Equal(nil, nil))
	assert.False(t, testpb.OuterType.Equal(a, nil))

	b.Inner.Mut().Value = 2
	assert.False(t, a.Equal(b))

	c := &testpb.Outer{OneofField: &testpb.Outer_Text{Text: ""}}
	assert.False(t, c.Equal(new(testpb.Outer)), "an empty variant is still set")
	assert.False(t, c.Equal(&testpb.Outer{OneofField: &testpb.Outer_ArcInner{}}))

	// Tags: nil and empty are the same.
	assert.True(t, new(testpb.Outer).Equal(&testpb.Outer{Tags: []int32{}}))

	x := &testpb.Scalars{Db: math.NaN()}
	assert.True(t, x.Equal(&testpb.Scalars{Db: math.NaN()}))
}

func TestAtomicMerge(t *testing.T) {
	t.Parallel()

	m := &testpb.Outer{Inner: shared("a", 1), Id: 1}
	defer m.Release()
	keep := m.Inner.Clone()
	defer keep.Release()

	// The error comes after fields that would have been applied.
	bad := scope(t, `5: 2 1: {2: 9} 2: {"x"} 1: 3`)

	err := m.Merge(bad, sharedpb.WithAtomic(true))
	require.Error(t, err)
	assert.Equal(t, int64(1), m.Id)
	assert.Equal(t, int32(1), m.GetInner().Value)
	assert.Nil(t, m.OneofField)
	assert.Equal(t, 2, keep.StrongCount(), "the failed attempt's handles were released")

	// Without the option, the fields before the error stick.
	err = m.Merge(bad)
	require.Error(t, err)
	assert.Equal(t, int64(2), m.Id)
	assert.Equal(t, int32(9), m.GetInner().Value)
	assert.Equal(t, "x", m.GetText())
	assert.Equal(t, int32(1), keep.Get().Value)

	// And a successful atomic merge commits.
	require.NoError(t, m.Merge(scope(t, `5: 3`), sharedpb.WithAtomic(true)))
	assert.Equal(t, int64(3), m.Id)
	assert.Equal(t, "x", m.GetText())
}

func TestAtomicMergeInPlace(t *testing.T) {
	t.Parallel()

	m := &testpb.Outer{Inner: shared("a", 1)}
	defer m.Release()
	handle := m.Inner
	inner := m.GetInner()

	require.NoError(t, m.Merge(scope(t, `1: {2: 5}`), sharedpb.WithAtomic(true)))
	assert.Same(t, handle, m.Inner)
	assert.Same(t, inner, m.GetInner(), "a uniquely owned handle is not forked")
	assert.Equal(t, 1, handle.StrongCount())
	assert.Equal(t, int32(5), inner.Value)

	// A shared handle still forks, and only once.
	keep := m.Inner.Clone()
	defer keep.Release()
	require.NoError(t, m.Merge(scope(t, `1: {2: 6}`), sharedpb.WithAtomic(true)))
	assert.False(t, sharedpb.PtrEqual(keep, m.Inner))
	assert.Equal(t, 1, keep.StrongCount())
	assert.Equal(t, int32(5), keep.Get().Value)
	assert.Equal(t, int32(6), m.GetInner().Value)
}

func TestUnmarshalError(t *testing.T) {
	t.Parallel()

	m, err := testpb.OuterType.Unmarshal(scope(t, `1: {1: {"x"}} 5: 1i32`))
	require.Error(t, err)
	assert.Nil(t, m)
}
