// Copyright 2020 CUE Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package adt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCombineNilIsIdentity(t *testing.T) {
	a := &AtomT{Value: "ok"}
	assert.True(t, Equal(Combine(nil, a), a))
	assert.True(t, Equal(Combine(a, nil), a))
}

func TestCombineNoneAbsorbs(t *testing.T) {
	a := &AtomT{Value: "ok"}
	assert.True(t, IsNone(Combine(None, a)))
	assert.True(t, IsNone(Combine(a, None)))
	assert.True(t, IsNone(Combine(None, nil)))
}

func TestCombineEqualOperandsCollapse(t *testing.T) {
	a := &TupleT{Elems: []Type{&AtomT{Value: "x"}}}
	b := &TupleT{Elems: []Type{&AtomT{Value: "x"}}}
	assert.True(t, Equal(Combine(a, b), a))
}

func TestCombineTupleMismatchedArity(t *testing.T) {
	a := &TupleT{Elems: []Type{NewInteger(1)}}
	b := &TupleT{Elems: []Type{NewInteger(1), NewInteger(2)}}
	assert.True(t, IsNone(Combine(a, b)))
}

func TestCombineTupleElementwise(t *testing.T) {
	a := &TupleT{Elems: []Type{nil, NewInteger(1)}}
	b := &TupleT{Elems: []Type{&AtomT{Value: "x"}, nil}}
	got := Combine(a, b)
	want := &TupleT{Elems: []Type{&AtomT{Value: "x"}, NewInteger(1)}}
	assert.True(t, Equal(got, want))
}

func TestCombineMapMapMergesFields(t *testing.T) {
	a := &MapT{Fields: []Field{{Key: "x", Value: NewInteger(1)}}}
	b := &MapT{Fields: []Field{{Key: "y", Value: &AtomT{Value: "ok"}}}}
	got := Combine(a, b)
	m, ok := got.(*MapT)
	if !ok {
		t.Fatalf("expected *MapT, got %T", got)
	}
	v, _ := Get(m.Fields, "x")
	assert.True(t, Equal(v, NewInteger(1)))
	v, _ = Get(m.Fields, "y")
	assert.True(t, Equal(v, &AtomT{Value: "ok"}))
}

func TestCombineMapMapConflictingFieldYieldsNone(t *testing.T) {
	a := &MapT{Fields: []Field{{Key: "x", Value: NewInteger(1)}}}
	b := &MapT{Fields: []Field{{Key: "x", Value: &AtomT{Value: "ok"}}}}
	assert.True(t, IsNone(Combine(a, b)))
}

func TestCombineStructStructDifferentModulesYieldsNone(t *testing.T) {
	a := &StructT{Module: &AtomT{Value: "A"}}
	b := &StructT{Module: &AtomT{Value: "B"}}
	assert.True(t, IsNone(Combine(a, b)))
}

func TestCombineStructStructSameModuleMergesFields(t *testing.T) {
	a := &StructT{
		Module: &AtomT{Value: "User"},
		Fields: []Field{{Key: "name", Value: &AtomT{Value: "joe"}}},
	}
	b := &StructT{
		Module: &AtomT{Value: "User"},
		Fields: []Field{{Key: "name", Value: nil}},
	}
	got := Combine(a, b)
	s, ok := got.(*StructT)
	if !ok {
		t.Fatalf("expected *StructT, got %T", got)
	}
	m, ok := ModuleAtom(s.Module)
	assert.True(t, ok)
	assert.Equal(t, Atom("User"), m)
	v, _ := Get(s.Fields, "name")
	assert.True(t, Equal(v, &AtomT{Value: "joe"}))
}

func TestCombineStructMapProjectsOntoStructKeys(t *testing.T) {
	s := &StructT{
		Module: &AtomT{Value: "User"},
		Fields: []Field{{Key: "name", Value: nil}},
	}
	m := &MapT{Fields: []Field{
		{Key: "name", Value: &AtomT{Value: "joe"}},
		{Key: "extra", Value: NewInteger(1)},
	}}
	got := Combine(s, m)
	out, ok := got.(*StructT)
	if !ok {
		t.Fatalf("expected *StructT, got %T", got)
	}
	_, hasExtra := Get(out.Fields, "extra")
	assert.False(t, hasExtra, "combining a struct with a map must not introduce keys the struct doesn't declare")
}

func TestCombineUnionTakesFirstNonNoneVariant(t *testing.T) {
	u := &UnionT{Variants: []Type{None, NewInteger(1), NewInteger(2)}}
	got := Combine(u, NewInteger(1))
	assert.True(t, Equal(got, NewInteger(1)))
}

func TestCombineUnionAllVariantsFailYieldsNone(t *testing.T) {
	u := &UnionT{Variants: []Type{NewInteger(1), NewInteger(2)}}
	assert.True(t, IsNone(Combine(u, NewInteger(3))))
}

func TestNormalizeUnionCollapsesEqualVariants(t *testing.T) {
	got := NormalizeUnion([]Type{NewInteger(1), NewInteger(1)})
	assert.True(t, Equal(got, NewInteger(1)))
}

func TestNormalizeUnionEmptyIsNone(t *testing.T) {
	assert.True(t, IsNone(NormalizeUnion(nil)))
}
