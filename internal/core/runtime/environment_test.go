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

package runtime

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/J3RN/elixir-sense/internal/core/adt"
)

func TestEnvironmentVariableFirstMatchWins(t *testing.T) {
	env := &Environment{
		Variables: []VarRecord{
			{Name: "x", Type: adt.NewInteger(1)},
			{Name: "x", Type: adt.NewInteger(2)},
		},
	}

	v, ok := env.Variable("x")
	assert.True(t, ok)
	assert.True(t, adt.Equal(v.Type, adt.NewInteger(1)))
}

func TestEnvironmentVariableNotFound(t *testing.T) {
	env := &Environment{}
	_, ok := env.Variable("missing")
	assert.False(t, ok)
}

func TestEnvironmentAttribute(t *testing.T) {
	env := &Environment{
		Attributes: []AttrRecord{{Name: "moduledoc", Type: &adt.AtomT{Value: "ok"}}},
	}

	a, ok := env.Attribute("moduledoc")
	assert.True(t, ok)
	assert.True(t, adt.Equal(a.Type, &adt.AtomT{Value: "ok"}))

	_, ok = env.Attribute("missing")
	assert.False(t, ok)
}

func TestEnvironmentModFunSpecType(t *testing.T) {
	env := &Environment{
		ModsAndFuns: map[ModFunKey]ModFunInfo{
			{Module: "App", Fun: "greet"}: {Kind: FuncDef, Arities: []ArityInfo{{Declared: 1, Defaults: 1}}},
		},
		Specs: map[FunKey]SpecInfo{
			{Module: "App", Fun: "greet", Arity: 1}: {Variants: []SpecNode{{Kind: SpecAtomLit, Atom: "ok"}}},
		},
		Types: map[TypeKey]TypeInfo{
			{Module: "App", Name: "id", Arity: 0}: {Kind: TypeKindType},
		},
	}

	mf, ok := env.ModFun("App", "greet")
	assert.True(t, ok)
	assert.Equal(t, FuncDef, mf.Kind)

	spec, ok := env.Spec("App", "greet", 1)
	assert.True(t, ok)
	assert.Equal(t, 1, len(spec.Variants))

	ty, ok := env.Type("App", "id", 0)
	assert.True(t, ok)
	assert.Equal(t, TypeKindType, ty.Kind)

	_, ok = env.ModFun("App", "missing")
	assert.False(t, ok)
}
