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

package testpb

import (
	"buf.build/go/sharedpb"
)

// Color is sharedpb.test.Color.
type Color int32

const (
	Color_COLOR_UNSPECIFIED Color = 0
	Color_COLOR_RED         Color = 1
	Color_COLOR_GREEN       Color = 2
)

// Inner is sharedpb.test.Inner.
type Inner struct {
	sharedpb.MessageState

	Data  string
	Value int32
}

// Outer is sharedpb.test.Outer.
type Outer struct {
	sharedpb.MessageState

	Inner      *sharedpb.Ptr[Inner]
	OneofField isOuter_OneofField
	InnerList  []*Inner
	Id         int64
	Tags       []int32
	Child      *Outer
}

type isOuter_OneofField interface {
	isOuter_OneofField()
}

type Outer_Text struct {
	Text string
}

type Outer_ArcInner struct {
	ArcInner *sharedpb.Ptr[Inner]
}

func (*Outer_Text) isOuter_OneofField()     {}
func (*Outer_ArcInner) isOuter_OneofField() {}

// Scalars is sharedpb.test.Scalars.
type Scalars struct {
	sharedpb.MessageState

	I32   int32
	I64   int64
	U32   uint32
	U64   uint64
	S32   int32
	S64   int64
	F32   uint32
	F64   uint64
	Sf32  int32
	Sf64  int64
	B     bool
	Fl    float32
	Db    float64
	Str   string
	By    []byte
	Color Color
	Strs  []string
	Blobs [][]byte
	Dbs   []float64
	Ss64  []int64
	Rf32  []uint32
	Bools []bool
	Far   int32
}

var (
	InnerType   = sharedpb.NewType[Inner]("sharedpb.test.Inner")
	OuterType   = sharedpb.NewType[Outer]("sharedpb.test.Outer")
	ScalarsType = sharedpb.NewType[Scalars]("sharedpb.test.Scalars")
)

func init() {
	InnerType.Define([]sharedpb.FieldDecl[Inner]{
		sharedpb.Singular(1, "data", sharedpb.String, func(m *Inner) *string { return &m.Data }),
		sharedpb.Singular(2, "value", sharedpb.Int32, func(m *Inner) *int32 { return &m.Value }),
	}, sharedpb.WithDescriptor(Descriptor("Inner")))

	OuterType.Define([]sharedpb.FieldDecl[Outer]{
		sharedpb.SharedMessage(1, "inner", InnerType, func(m *Outer) **sharedpb.Ptr[Inner] { return &m.Inner }),
		sharedpb.Oneof("oneof_field", func(m *Outer) *isOuter_OneofField { return &m.OneofField },
			sharedpb.OneofScalar(2, "text", sharedpb.String,
				func(v string) isOuter_OneofField { return &Outer_Text{Text: v} },
				func(o isOuter_OneofField) (string, bool) {
					v, ok := o.(*Outer_Text)
					if !ok || v == nil {
						return "", ok
					}
					return v.Text, true
				}),
			sharedpb.OneofShared(3, "arc_inner", InnerType,
				func(p *sharedpb.Ptr[Inner]) isOuter_OneofField { return &Outer_ArcInner{ArcInner: p} },
				func(o isOuter_OneofField) (*sharedpb.Ptr[Inner], bool) {
					v, ok := o.(*Outer_ArcInner)
					if !ok || v == nil {
						return nil, ok
					}
					return v.ArcInner, true
				}),
		),
		sharedpb.RepeatedMessage(4, "inner_list", InnerType, func(m *Outer) *[]*Inner { return &m.InnerList }),
		sharedpb.Singular(5, "id", sharedpb.Int64, func(m *Outer) *int64 { return &m.Id }),
		sharedpb.Repeated(6, "tags", sharedpb.Int32, func(m *Outer) *[]int32 { return &m.Tags }),
		sharedpb.OwnedMessage(7, "child", OuterType, func(m *Outer) **Outer { return &m.Child }),
	}, sharedpb.WithDescriptor(Descriptor("Outer")))

	ScalarsType.Define([]sharedpb.FieldDecl[Scalars]{
		sharedpb.Singular(1, "i32", sharedpb.Int32, func(m *Scalars) *int32 { return &m.I32 }),
		sharedpb.Singular(2, "i64", sharedpb.Int64, func(m *Scalars) *int64 { return &m.I64 }),
		sharedpb.Singular(3, "u32", sharedpb.Uint32, func(m *Scalars) *uint32 { return &m.U32 }),
		sharedpb.Singular(4, "u64", sharedpb.Uint64, func(m *Scalars) *uint64 { return &m.U64 }),
		sharedpb.Singular(5, "s32", sharedpb.Sint32, func(m *Scalars) *int32 { return &m.S32 }),
		sharedpb.Singular(6, "s64", sharedpb.Sint64, func(m *Scalars) *int64 { return &m.S64 }),
		sharedpb.Singular(7, "f32", sharedpb.Fixed32, func(m *Scalars) *uint32 { return &m.F32 }),
		sharedpb.Singular(8, "f64", sharedpb.Fixed64, func(m *Scalars) *uint64 { return &m.F64 }),
		sharedpb.Singular(9, "sf32", sharedpb.Sfixed32, func(m *Scalars) *int32 { return &m.Sf32 }),
		sharedpb.Singular(10, "sf64", sharedpb.Sfixed64, func(m *Scalars) *int64 { return &m.Sf64 }),
		sharedpb.Singular(11, "b", sharedpb.Bool, func(m *Scalars) *bool { return &m.B }),
		sharedpb.Singular(12, "fl", sharedpb.Float, func(m *Scalars) *float32 { return &m.Fl }),
		sharedpb.Singular(13, "db", sharedpb.Double, func(m *Scalars) *float64 { return &m.Db }),
		sharedpb.Singular(14, "str", sharedpb.String, func(m *Scalars) *string { return &m.Str }),
		sharedpb.Singular(15, "by", sharedpb.Bytes, func(m *Scalars) *[]byte { return &m.By }),
		sharedpb.Singular(16, "color", sharedpb.Enum[Color](), func(m *Scalars) *Color { return &m.Color }),
		sharedpb.Repeated(17, "strs", sharedpb.String, func(m *Scalars) *[]string { return &m.Strs }),
		sharedpb.Repeated(18, "blobs", sharedpb.Bytes, func(m *Scalars) *[][]byte { return &m.Blobs }),
		sharedpb.Repeated(19, "dbs", sharedpb.Double, func(m *Scalars) *[]float64 { return &m.Dbs }),
		sharedpb.Repeated(20, "ss64", sharedpb.Sint64, func(m *Scalars) *[]int64 { return &m.Ss64 }),
		sharedpb.Repeated(21, "rf32", sharedpb.Fixed32, func(m *Scalars) *[]uint32 { return &m.Rf32 }),
		sharedpb.Repeated(22, "bools", sharedpb.Bool, func(m *Scalars) *[]bool { return &m.Bools }),
		sharedpb.Singular(1000, "far", sharedpb.Int32, func(m *Scalars) *int32 { return &m.Far }),
	}, sharedpb.WithDescriptor(Descriptor("Scalars")))
}

func (m *Inner) Merge(b []byte, opts ...sharedpb.MergeOption) error { return InnerType.Merge(m, b, opts...) }
func (m *Inner) Marshal() []byte                                    { return InnerType.Marshal(m) }
func (m *Inner) Clone() *Inner                                      { return InnerType.Clone(m) }
func (m *Inner) Equal(that *Inner) bool                             { return InnerType.Equal(m, that) }
func (m *Inner) Release()                                           { InnerType.Release(m) }

func (m *Outer) Merge(b []byte, opts ...sharedpb.MergeOption) error { return OuterType.Merge(m, b, opts...) }
func (m *Outer) Marshal() []byte                                    { return OuterType.Marshal(m) }
func (m *Outer) Clone() *Outer                                      { return OuterType.Clone(m) }
func (m *Outer) Equal(that *Outer) bool                             { return OuterType.Equal(m, that) }
func (m *Outer) Release()                                           { OuterType.Release(m) }

func (m *Scalars) Merge(b []byte, opts ...sharedpb.MergeOption) error {
	return ScalarsType.Merge(m, b, opts...)
}
func (m *Scalars) Marshal() []byte          { return ScalarsType.Marshal(m) }
func (m *Scalars) Clone() *Scalars          { return ScalarsType.Clone(m) }
func (m *Scalars) Equal(that *Scalars) bool { return ScalarsType.Equal(m, that) }
func (m *Scalars) Release()                 { ScalarsType.Release(m) }

// GetInner returns the value of the inner field, or nil if it is not set.
func (m *Outer) GetInner() *Inner {
	if m == nil || m.Inner == nil {
		return nil
	}
	return m.Inner.Get()
}

func (m *Outer) GetText() string {
	if v, ok := m.GetOneofField().(*Outer_Text); ok && v != nil {
		return v.Text
	}
	return ""
}

// GetArcInner returns the handle in the arc_inner variant, or nil if a
// different variant is set.
func (m *Outer) GetArcInner() *sharedpb.Ptr[Inner] {
	if v, ok := m.GetOneofField().(*Outer_ArcInner); ok && v != nil {
		return v.ArcInner
	}
	return nil
}

func (m *Outer) GetOneofField() isOuter_OneofField {
	if m == nil {
		return nil
	}
	return m.OneofField
}
