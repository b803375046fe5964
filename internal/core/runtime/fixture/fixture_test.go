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

package fixture

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/J3RN/elixir-sense/internal/core/adt"
	"github.com/J3RN/elixir-sense/internal/core/eval"
	"github.com/J3RN/elixir-sense/internal/core/runtime"
)

const sampleFixture = `
current_module: App
imports: [Helper]
variables:
  x: "42"
attributes:
  moduledoc: ":ok"
struct_registry:
  User: [name, age]
specs:
  - module: App
    fun: greeting
    arity: 0
    variants: [":hello"]
types:
  - module: App
    name: id
    arity: 0
    kind: type
    spec: "integer()"
mods_and_funs:
  - module: App
    fun: greeting
    kind: def
    arities:
      - declared: 0
        defaults: 0
expression: "x"
`

func TestLoadBuildsEnvironment(t *testing.T) {
	fx, err := Load([]byte(sampleFixture))
	assert.NoError(t, err)

	assert.Equal(t, adt.Atom("App"), *fx.Env.CurrentModule)
	assert.Equal(t, []adt.Atom{"Helper"}, fx.Env.Imports)

	v, ok := fx.Env.Variable("x")
	assert.True(t, ok)
	assert.True(t, adt.Equal(v.Type, adt.NewInteger(42)))

	a, ok := fx.Env.Attribute("moduledoc")
	assert.True(t, ok)
	assert.True(t, adt.Equal(a.Type, &adt.AtomT{Value: "ok"}))

	assert.True(t, fx.Env.Structs.IsStruct("User"))
	assert.Equal(t, []adt.Atom{"name", "age"}, fx.Env.Structs.Fields("User"))

	spec, ok := fx.Env.Spec("App", "greeting", 0)
	assert.True(t, ok)
	assert.Equal(t, 1, len(spec.Variants))
	assert.Equal(t, runtime.SpecAtomLit, spec.Variants[0].Kind)

	ty, ok := fx.Env.Type("App", "id", 0)
	assert.True(t, ok)
	assert.Equal(t, runtime.TypeKindType, ty.Kind)

	mf, ok := fx.Env.ModFun("App", "greeting")
	assert.True(t, ok)
	assert.Equal(t, runtime.FuncDef, mf.Kind)
}

// TestLoadExpressionIsAVariableReference covers the fixture's binding
// expression being a real VariableT -- something Expand has to resolve
// -- rather than a pre-resolved literal.
func TestLoadExpressionIsAVariableReference(t *testing.T) {
	fx, err := Load([]byte(sampleFixture))
	assert.NoError(t, err)
	assert.True(t, adt.Equal(fx.Expression, &adt.VariableT{Name: "x"}))

	got := eval.Expand(fx.Env, fx.Expression)
	assert.True(t, adt.Equal(got, adt.NewInteger(42)))
}

// TestParseLiteralBuildsLocalCall covers --expr's call-syntax reuse: the
// same `name(args)` syntax used for a type reference in spec text is
// interpreted as a LocalCall when given to ParseLiteral.
func TestParseLiteralBuildsLocalCall(t *testing.T) {
	got, err := ParseLiteral("greeting()")
	assert.NoError(t, err)
	call, ok := got.(*adt.LocalCallT)
	if !ok {
		t.Fatalf("expected *adt.LocalCallT, got %T", got)
	}
	assert.Equal(t, adt.Atom("greeting"), call.Fun)
}

// TestParseLiteralAcceptsStructLiteral covers a plain literal expression
// passing through unchanged.
func TestParseLiteralAcceptsStructLiteral(t *testing.T) {
	got, err := ParseLiteral("%User{name: :joe}")
	assert.NoError(t, err)
	s, ok := got.(*adt.StructT)
	if !ok {
		t.Fatalf("expected *adt.StructT, got %T", got)
	}
	m, _ := adt.ModuleAtom(s.Module)
	assert.Equal(t, adt.Atom("User"), m)
}
