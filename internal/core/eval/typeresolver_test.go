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

	"github.com/stretchr/testify/assert"

	"github.com/J3RN/elixir-sense/internal/core/adt"
	"github.com/J3RN/elixir-sense/internal/core/runtime"
)

// TestResolveTypeMetadataVisible covers §4.4's metadata step when the
// type is declared and visible: its spec is parsed and returned.
func TestResolveTypeMetadataVisible(t *testing.T) {
	env := newEnv()
	env.Types[runtime.TypeKey{Module: "App", Name: "id", Arity: 0}] = runtime.TypeInfo{
		Kind: runtime.TypeKindType,
		Spec: runtime.SpecNode{Kind: runtime.SpecAtomLit, Atom: "ok"},
	}

	got, isNoSpec := resolveType(env, "App", "id", nil, false)
	assert.False(t, isNoSpec)
	assert.True(t, adt.Equal(got, &adt.AtomT{Value: "ok"}))
}

// TestResolveTypeMetadataInvisibleIsNoSpec covers §4.4: a typep entry
// consulted without includePrivate is invisible and yields no_spec, not
// Nil.
func TestResolveTypeMetadataInvisibleIsNoSpec(t *testing.T) {
	env := newEnv()
	env.Types[runtime.TypeKey{Module: "App", Name: "secret", Arity: 0}] = runtime.TypeInfo{
		Kind: runtime.TypeKindTypep,
		Spec: runtime.SpecNode{Kind: runtime.SpecAtomLit, Atom: "ok"},
	}

	got, isNoSpec := resolveType(env, "App", "secret", nil, false)
	assert.True(t, isNoSpec)
	assert.True(t, got == nil)
}

// TestResolveTypeMetadataOpaqueRequiresIncludePrivate covers the
// corrected visibility rule: opaque, like typep, is NOT automatically
// visible -- only a plain `type` always is.
func TestResolveTypeMetadataOpaqueRequiresIncludePrivate(t *testing.T) {
	env := newEnv()
	env.Types[runtime.TypeKey{Module: "App", Name: "handle", Arity: 0}] = runtime.TypeInfo{
		Kind: runtime.TypeKindOpaque,
		Spec: runtime.SpecNode{Kind: runtime.SpecAtomLit, Atom: "ok"},
	}

	_, isNoSpec := resolveType(env, "App", "handle", nil, false)
	assert.True(t, isNoSpec)

	got, isNoSpec := resolveType(env, "App", "handle", nil, true)
	assert.False(t, isNoSpec)
	assert.True(t, adt.Equal(got, &adt.AtomT{Value: "ok"}))
}

// TestResolveTypeNotFoundFallsThroughToIntrospection covers §4.4: when
// metadata has no entry, the introspection provider is consulted next,
// and its own not-found case is no_spec too (never plain Nil).
func TestResolveTypeNotFoundFallsThroughToIntrospection(t *testing.T) {
	env := newEnv()
	env.Introspection = &fakeIntrospection{}
	_, isNoSpec := resolveType(env, "Host", "unknown", nil, false)
	assert.True(t, isNoSpec)
}

// fakeIntrospection is a minimal runtime.IntrospectionProvider for
// exercising resolveType's second tier in isolation.
type fakeIntrospection struct {
	docs  map[adt.Atom]runtime.FuncDocs
	types map[runtime.TypeKey]struct {
		kind   runtime.TypeKind
		params []string
		spec   runtime.SpecNode
	}
}

func (f *fakeIntrospection) Docs(module adt.Atom) (runtime.FuncDocs, bool) {
	d, ok := f.docs[module]
	return d, ok
}

func (f *fakeIntrospection) FunctionExported(module, fun adt.Atom, arity int) bool {
	return false
}

func (f *fakeIntrospection) GetSpec(module, fun adt.Atom, arity int) ([]runtime.SpecNode, bool) {
	return nil, false
}

func (f *fakeIntrospection) GetTypeSpec(module, name adt.Atom, arity int) (runtime.TypeKind, []string, runtime.SpecNode, bool) {
	v, ok := f.types[runtime.TypeKey{Module: module, Name: name, Arity: arity}]
	if !ok {
		return 0, nil, runtime.SpecNode{}, false
	}
	return v.kind, v.params, v.spec, true
}

// TestResolveTypeIntrospectionInvisibleIsNilNotNoSpec covers §4.4's
// asymmetry: an invisible introspection-tier type is plain Nil, unlike
// the metadata tier's no_spec, since the type genuinely exists (it's
// just not visible from here) rather than being altogether undeclared.
func TestResolveTypeIntrospectionInvisibleIsNilNotNoSpec(t *testing.T) {
	env := newEnv()
	env.Introspection = &fakeIntrospection{
		types: map[runtime.TypeKey]struct {
			kind   runtime.TypeKind
			params []string
			spec   runtime.SpecNode
		}{
			{Module: "Host", Name: "internal", Arity: 0}: {kind: runtime.TypeKindOpaque, spec: runtime.SpecNode{Kind: runtime.SpecAtomLit, Atom: "ok"}},
		},
	}

	got, isNoSpec := resolveType(env, "Host", "internal", nil, false)
	assert.False(t, isNoSpec)
	assert.True(t, got == nil)
}

// TestResolveTypeParameterizedSubstitution covers §4.3's "Parameterized
// types": a reference's raw argument subtree is spliced into the
// referenced type's declared body before parsing.
func TestResolveTypeParameterizedSubstitution(t *testing.T) {
	env := newEnv()
	env.Types[runtime.TypeKey{Module: "App", Name: "box", Arity: 1}] = runtime.TypeInfo{
		Kind:   runtime.TypeKindType,
		Params: []string{"t"},
		Spec: runtime.SpecNode{
			Kind: runtime.SpecTuple,
			Args: []runtime.SpecNode{
				{Kind: runtime.SpecParamRef, Param: "t"},
			},
		},
	}

	argNodes := []runtime.SpecNode{{Kind: runtime.SpecAtomLit, Atom: "ok"}}
	got, isNoSpec := resolveType(env, "App", "box", argNodes, false)
	assert.False(t, isNoSpec)
	assert.True(t, adt.Equal(got, &adt.TupleT{Elems: []adt.Type{&adt.AtomT{Value: "ok"}}}))
}
