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

package eval

import (
	"testing"

	"github.com/cockroachdb/apd/v2"
	"github.com/stretchr/testify/assert"

	"github.com/J3RN/elixir-sense/internal/core/adt"
	"github.com/J3RN/elixir-sense/internal/core/runtime"
)

func newEnv() *runtime.Environment {
	return &runtime.Environment{
		Specs:       map[runtime.FunKey]runtime.SpecInfo{},
		Types:       map[runtime.TypeKey]runtime.TypeInfo{},
		ModsAndFuns: map[runtime.ModFunKey]runtime.ModFunInfo{},
	}
}

// TestExpandVariableLookup covers §8's variable-lookup scenario: a bound
// variable expands to its recorded type without consulting anything else.
func TestExpandVariableLookup(t *testing.T) {
	env := newEnv()
	env.Variables = []runtime.VarRecord{{Name: "x", Type: adt.NewInteger(1)}}

	got := Expand(env, &adt.VariableT{Name: "x"})
	assert.True(t, adt.Equal(got, adt.NewInteger(1)))
}

// TestExpandVariableUnderscoreIsAlwaysNone covers the underscore-prefix
// rule of §4.1: an ignored variable expands to None regardless of the
// environment.
func TestExpandVariableUnderscoreIsAlwaysNone(t *testing.T) {
	env := newEnv()
	got := Expand(env, &adt.VariableT{Name: "_unused"})
	assert.True(t, adt.IsNone(got))
}

// TestExpandVariableUnboundReinterpretsAsLocalCall covers the fallback
// named in expandVariable: an unbound bare name becomes a zero-arg
// LocalCall, resolved like any other.
func TestExpandVariableUnboundReinterpretsAsLocalCall(t *testing.T) {
	env := newEnv()
	mod := adt.Atom("App")
	env.CurrentModule = &mod
	env.ModsAndFuns[runtime.ModFunKey{Module: mod, Fun: "default_timeout"}] = runtime.ModFunInfo{
		Kind:    runtime.FuncDef,
		Arities: []runtime.ArityInfo{{Declared: 0}},
	}
	env.Specs[runtime.FunKey{Module: mod, Fun: "default_timeout", Arity: 0}] = runtime.SpecInfo{
		Variants: []runtime.SpecNode{{Kind: runtime.SpecIntegerLit, Int: apd.New(5000, 0)}},
	}

	got := Expand(env, &adt.VariableT{Name: "default_timeout"})
	assert.True(t, adt.Equal(got, adt.NewInteger(5000)))
}

// TestExpandTupleProjection covers §8's tuple-projection scenario: Kernel
// elem/2 with a literal index reduces through TupleNth.
func TestExpandTupleProjection(t *testing.T) {
	env := newEnv()
	tuple := &adt.TupleT{Elems: []adt.Type{&adt.AtomT{Value: "ok"}, adt.NewInteger(42)}}
	call := &adt.CallT{
		Target: &adt.AtomT{Value: string(runtime.Kernel)},
		Fun:    "elem",
		Args:   []adt.Type{tuple, adt.NewInteger(1)},
	}

	got := Expand(env, call)
	assert.True(t, adt.Equal(got, adt.NewInteger(42)))
}

// TestExpandTupleNthOutOfRangeIsNone covers invariant (2)'s out-of-range
// case.
func TestExpandTupleNthOutOfRangeIsNone(t *testing.T) {
	env := newEnv()
	tuple := &adt.TupleT{Elems: []adt.Type{adt.NewInteger(1)}}
	got := Expand(env, &adt.TupleNthT{Tuple: tuple, N: 5})
	assert.True(t, adt.IsNone(got))
}

// TestExpandMapPutThenGet covers §8's map put/get scenario.
func TestExpandMapPutThenGet(t *testing.T) {
	env := newEnv()
	m := &adt.MapT{}
	put := &adt.CallT{
		Target: &adt.AtomT{Value: string(runtime.MapModule)},
		Fun:    "put",
		Args:   []adt.Type{m, &adt.AtomT{Value: "count"}, adt.NewInteger(1)},
	}
	get := &adt.CallT{
		Target: &adt.AtomT{Value: string(runtime.MapModule)},
		Fun:    "get",
		Args:   []adt.Type{put, &adt.AtomT{Value: "count"}},
	}

	got := Expand(env, get)
	assert.True(t, adt.Equal(got, adt.NewInteger(1)))
}

// TestExpandMapMergeConflictingKeyTakesSecondValue covers builtinMapMerge's
// documented conflict behavior: a key present on both sides of merge/2
// keeps the second map's value (Overlay semantics, no combiner involved).
func TestExpandMapMergeConflictingKeyTakesSecondValue(t *testing.T) {
	env := newEnv()
	m1 := &adt.MapT{Fields: []adt.Field{{Key: "a", Value: adt.NewInteger(1)}}}
	m2 := &adt.MapT{Fields: []adt.Field{{Key: "a", Value: &adt.AtomT{Value: "ok"}}}}
	merge := &adt.CallT{
		Target: &adt.AtomT{Value: string(runtime.MapModule)},
		Fun:    "merge",
		Args:   []adt.Type{m1, m2},
	}

	got := Expand(env, merge)
	out, ok := got.(*adt.MapT)
	if !ok {
		t.Fatalf("expected *adt.MapT, got %T", got)
	}
	v, _ := adt.Get(out.Fields, "a")
	assert.True(t, adt.Equal(v, &adt.AtomT{Value: "ok"}))
}

// TestExpandMapMergeWithCombinerNilsSharedKeys covers merge/3: the
// conflict-resolving function is opaque to this engine, so a key present
// in both inputs resolves to Nil rather than either operand's value.
func TestExpandMapMergeWithCombinerNilsSharedKeys(t *testing.T) {
	env := newEnv()
	m1 := &adt.MapT{Fields: []adt.Field{{Key: "a", Value: adt.NewInteger(1)}}}
	m2 := &adt.MapT{Fields: []adt.Field{{Key: "a", Value: &adt.AtomT{Value: "ok"}}}}
	merge := &adt.CallT{
		Target: &adt.AtomT{Value: string(runtime.MapModule)},
		Fun:    "merge",
		Args:   []adt.Type{m1, m2, &adt.VariableT{Name: "combiner"}},
	}

	got := Expand(env, merge)
	out, ok := got.(*adt.MapT)
	if !ok {
		t.Fatalf("expected *adt.MapT, got %T", got)
	}
	v, present := adt.Get(out.Fields, "a")
	assert.True(t, present)
	assert.True(t, v == nil)
}

// TestExpandFromStruct covers §8's from_struct scenario: converting a
// struct literal to a map drops the __struct__ tag.
func TestExpandFromStruct(t *testing.T) {
	env := newEnv()
	s := &adt.StructT{
		Module: &adt.AtomT{Value: "User"},
		Fields: []adt.Field{
			{Key: adt.StructField, Value: &adt.AtomT{Value: "User"}},
			{Key: "name", Value: &adt.AtomT{Value: "joe"}},
		},
	}
	call := &adt.CallT{
		Target: &adt.AtomT{Value: string(runtime.MapModule)},
		Fun:    "from_struct",
		Args:   []adt.Type{s},
	}

	got := Expand(env, call)
	m, ok := got.(*adt.MapT)
	if !ok {
		t.Fatalf("expected *adt.MapT, got %T", got)
	}
	_, hasStructField := adt.Get(m.Fields, adt.StructField)
	assert.False(t, hasStructField)
	v, _ := adt.Get(m.Fields, "name")
	assert.True(t, adt.Equal(v, &adt.AtomT{Value: "joe"}))
}

// TestExpandIntersectionFoldsWithCombiner covers §8's intersection
// scenario and expandIntersection's left-fold over Combine.
func TestExpandIntersectionFoldsWithCombiner(t *testing.T) {
	env := newEnv()
	m1 := &adt.MapT{Fields: []adt.Field{{Key: "a", Value: adt.NewInteger(1)}}}
	m2 := &adt.MapT{Fields: []adt.Field{{Key: "b", Value: &adt.AtomT{Value: "ok"}}}}
	got := Expand(env, &adt.IntersectionT{Variants: []adt.Type{m1, m2}})

	out, ok := got.(*adt.MapT)
	if !ok {
		t.Fatalf("expected *adt.MapT, got %T", got)
	}
	v, _ := adt.Get(out.Fields, "a")
	assert.True(t, adt.Equal(v, adt.NewInteger(1)))
	v, _ = adt.Get(out.Fields, "b")
	assert.True(t, adt.Equal(v, &adt.AtomT{Value: "ok"}))
}

// TestExpandIntersectionConflictYieldsNone covers the Combiner's
// conflict case reached through Intersection.
func TestExpandIntersectionConflictYieldsNone(t *testing.T) {
	env := newEnv()
	m1 := &adt.MapT{Fields: []adt.Field{{Key: "a", Value: adt.NewInteger(1)}}}
	m2 := &adt.MapT{Fields: []adt.Field{{Key: "a", Value: &adt.AtomT{Value: "ok"}}}}
	got := Expand(env, &adt.IntersectionT{Variants: []adt.Type{m1, m2}})
	assert.True(t, adt.IsNone(got))
}

// TestExpandCallCycleIsNil covers invariant (3): a self-referential call
// expanded as its own argument is cut off by the visitation stack rather
// than recursing forever, and the loop-closing position is Nil, not
// None -- the call itself passes one argument to a function declared
// only at arity 0, so its lookup finds nothing and separately yields
// Nil, but the cycle guard alone must never force None.
func TestExpandCallCycleIsNil(t *testing.T) {
	env := newEnv()
	mod := adt.Atom("App")
	env.CurrentModule = &mod
	env.ModsAndFuns[runtime.ModFunKey{Module: mod, Fun: "loop"}] = runtime.ModFunInfo{
		Kind:    runtime.FuncDef,
		Arities: []runtime.ArityInfo{{Declared: 0}},
	}

	var call *adt.CallT
	call = &adt.CallT{Target: &adt.AtomT{Value: "App"}, Fun: "loop"}
	call.Args = []adt.Type{call}

	got := Expand(env, call)
	assert.True(t, got == nil)
}

// TestExpandTupleCycleLeavesOtherElementsIntact covers invariant (3)
// where it actually bites: a cyclic element expands to Nil, the
// Combiner's identity, so sibling elements survive instead of the
// cycle guard wrongly forcing the whole Tuple to None via an accidental
// None-absorption check.
func TestExpandTupleCycleLeavesOtherElementsIntact(t *testing.T) {
	env := newEnv()

	var tup *adt.TupleT
	tup = &adt.TupleT{}
	tup.Elems = []adt.Type{adt.NewInteger(1), tup}

	got := Expand(env, tup)
	result, ok := got.(*adt.TupleT)
	if !ok {
		t.Fatalf("expected *adt.TupleT, got %T", got)
	}
	assert.True(t, adt.Equal(result.Elems[0], adt.NewInteger(1)))
	assert.True(t, result.Elems[1] == nil)
}

// TestExpandCallNoSpecFlattensToNil covers §7: a declared-but-unspecced
// function call resolves to Nil at the Expander boundary, not to some
// internal no_spec sentinel leaking out.
func TestExpandCallNoSpecFlattensToNil(t *testing.T) {
	env := newEnv()
	env.ModsAndFuns[runtime.ModFunKey{Module: "App", Fun: "unspecced"}] = runtime.ModFunInfo{
		Kind:    runtime.FuncDef,
		Arities: []runtime.ArityInfo{{Declared: 0}},
	}

	got := Expand(env, &adt.CallT{Target: &adt.AtomT{Value: "App"}, Fun: "unspecced"})
	assert.True(t, got == nil)
}

// TestExpandLocalCallSkipsCandidateNotDeclaredThere covers §4.1's
// LocalCall search order: a candidate where the function isn't declared
// is Nil and the search continues to the next one.
func TestExpandLocalCallSkipsCandidateNotDeclaredThere(t *testing.T) {
	env := newEnv()
	mod := adt.Atom("App")
	env.CurrentModule = &mod
	env.Imports = []adt.Atom{"Helper"}
	env.ModsAndFuns[runtime.ModFunKey{Module: "Helper", Fun: "id"}] = runtime.ModFunInfo{
		Kind:    runtime.FuncDef,
		Arities: []runtime.ArityInfo{{Declared: 0}},
	}
	env.Specs[runtime.FunKey{Module: "Helper", Fun: "id", Arity: 0}] = runtime.SpecInfo{
		Variants: []runtime.SpecNode{{Kind: runtime.SpecAtomLit, Atom: "ok"}},
	}

	got := Expand(env, &adt.LocalCallT{Fun: "id"})
	assert.True(t, adt.Equal(got, &adt.AtomT{Value: "ok"}))
}

// fakeStructs is a minimal runtime.StructProvider for exercising
// projection-onto-registered-fields in isolation.
type fakeStructs map[adt.Atom][]adt.Atom

func (f fakeStructs) IsStruct(module adt.Atom) bool {
	_, ok := f[module]
	return ok
}

func (f fakeStructs) Fields(module adt.Atom) []adt.Atom {
	return f[module]
}

// TestExpandCallSpecStructTagsStruct covers invariant (c)/§3.1: a
// struct produced by the Spec Parser out of a remote call's return type
// carries __struct__ even though no Expander struct literal ever set
// it explicitly.
func TestExpandCallSpecStructTagsStruct(t *testing.T) {
	env := newEnv()
	env.ModsAndFuns[runtime.ModFunKey{Module: "App", Fun: "build"}] = runtime.ModFunInfo{
		Kind:    runtime.FuncDef,
		Arities: []runtime.ArityInfo{{Declared: 0}},
	}
	env.Specs[runtime.FunKey{Module: "App", Fun: "build", Arity: 0}] = runtime.SpecInfo{
		Variants: []runtime.SpecNode{{
			Kind: runtime.SpecStruct,
			Atom: "User",
			Fields: []runtime.SpecField{
				{Key: "a", Value: runtime.SpecNode{Kind: runtime.SpecLocalType, Atom: "integer"}},
			},
		}},
	}

	got := Expand(env, &adt.CallT{Target: &adt.AtomT{Value: "App"}, Fun: "build"})
	s, ok := got.(*adt.StructT)
	if !ok {
		t.Fatalf("expected *adt.StructT, got %T", got)
	}
	tag, has := adt.Get(s.Fields, adt.StructField)
	assert.True(t, has)
	assert.True(t, adt.Equal(tag, &adt.AtomT{Value: "User"}))
}

// TestExpandStructLiteralProjectionTagsStructWhenUnsupplied covers the
// corrected __struct__ tagging guard: Project fills every declared field the
// literal didn't supply with Nil, including __struct__ itself, so the
// tagging check must test for a user-supplied non-nil value rather than
// mere key presence.
func TestExpandStructLiteralProjectionTagsStructWhenUnsupplied(t *testing.T) {
	env := newEnv()
	env.Structs = fakeStructs{"User": {"__struct__", "name"}}

	lit := &adt.StructT{
		Fields: []adt.Field{{Key: "name", Value: &adt.AtomT{Value: "joe"}}},
		Module: &adt.AtomT{Value: "User"},
		Updated: &adt.MapT{},
	}

	got := Expand(env, lit)
	s, ok := got.(*adt.StructT)
	if !ok {
		t.Fatalf("expected *adt.StructT, got %T", got)
	}
	tag, has := adt.Get(s.Fields, adt.StructField)
	assert.True(t, has)
	assert.True(t, adt.Equal(tag, &adt.AtomT{Value: "User"}))
}

// TestExpandStructLiteralProjectionKeepsUserSuppliedTag covers the
// "unless the user supplied a different one" half of the same rule.
func TestExpandStructLiteralProjectionKeepsUserSuppliedTag(t *testing.T) {
	env := newEnv()
	env.Structs = fakeStructs{"User": {"__struct__", "name"}}

	lit := &adt.StructT{
		Fields: []adt.Field{
			{Key: "__struct__", Value: &adt.AtomT{Value: "Other"}},
			{Key: "name", Value: &adt.AtomT{Value: "joe"}},
		},
		Module: &adt.AtomT{Value: "User"},
		Updated: &adt.MapT{},
	}

	got := Expand(env, lit)
	s, ok := got.(*adt.StructT)
	if !ok {
		t.Fatalf("expected *adt.StructT, got %T", got)
	}
	tag, has := adt.Get(s.Fields, adt.StructField)
	assert.True(t, has)
	assert.True(t, adt.Equal(tag, &adt.AtomT{Value: "Other"}))
}
