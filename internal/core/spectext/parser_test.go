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

package spectext

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/J3RN/elixir-sense/internal/core/adt"
	"github.com/J3RN/elixir-sense/internal/core/runtime"
)

func parse(t *testing.T, src string) runtime.SpecNode {
	t.Helper()
	p := Parser{}
	node, ok := p.Parse(src)
	if !ok {
		t.Fatalf("parsing %q failed", src)
	}
	return node
}

func TestParseAtomLiteral(t *testing.T) {
	got := parse(t, ":ok")
	assert.Equal(t, runtime.SpecAtomLit, got.Kind)
	assert.Equal(t, adt.Atom("ok"), got.Atom)
}

func TestParseIntegerLiteral(t *testing.T) {
	got := parse(t, "42")
	assert.Equal(t, runtime.SpecIntegerLit, got.Kind)
	i, err := got.Int.Int64()
	assert.NoError(t, err)
	assert.Equal(t, int64(42), i)
}

func TestParseNoReturn(t *testing.T) {
	got := parse(t, "no_return()")
	assert.Equal(t, runtime.SpecNoReturn, got.Kind)
}

func TestParseNullaryMap(t *testing.T) {
	got := parse(t, "map()")
	assert.Equal(t, runtime.SpecMapNullary, got.Kind)
}

func TestParseBareLowerIsParamRef(t *testing.T) {
	got := parse(t, "t")
	assert.Equal(t, runtime.SpecParamRef, got.Kind)
	assert.Equal(t, "t", got.Param)
}

func TestParseLocalType(t *testing.T) {
	got := parse(t, "integer()")
	assert.Equal(t, runtime.SpecLocalType, got.Kind)
	assert.Equal(t, adt.Atom("integer"), got.Atom)
	assert.Equal(t, 0, len(got.Args))
}

func TestParseRemoteType(t *testing.T) {
	got := parse(t, "Mod.Name(integer())")
	assert.Equal(t, runtime.SpecRemoteType, got.Kind)
	assert.Equal(t, adt.Atom("Mod"), got.Module)
	assert.Equal(t, adt.Atom("Name"), got.Atom)
	if assert.Equal(t, 1, len(got.Args)) {
		assert.Equal(t, runtime.SpecLocalType, got.Args[0].Kind)
	}
}

func TestParseUnion(t *testing.T) {
	got := parse(t, ":ok | :error")
	assert.Equal(t, runtime.SpecUnion, got.Kind)
	assert.Equal(t, 2, len(got.Args))
}

func TestParseTuple(t *testing.T) {
	got := parse(t, "{:ok, integer()}")
	assert.Equal(t, runtime.SpecTuple, got.Kind)
	if assert.Equal(t, 2, len(got.Args)) {
		assert.Equal(t, runtime.SpecAtomLit, got.Args[0].Kind)
		assert.Equal(t, runtime.SpecLocalType, got.Args[1].Kind)
	}
}

func TestParseStruct(t *testing.T) {
	got := parse(t, "%User{name: :string}")
	assert.Equal(t, runtime.SpecStruct, got.Kind)
	assert.Equal(t, adt.Atom("User"), got.Atom)
	if assert.Equal(t, 1, len(got.Fields)) {
		assert.Equal(t, adt.Atom("name"), got.Fields[0].Key)
	}
}

func TestParseMapWithOptionalField(t *testing.T) {
	got := parse(t, "%{optional(:id) => integer()}")
	assert.Equal(t, runtime.SpecMap, got.Kind)
	if assert.Equal(t, 1, len(got.Fields)) {
		assert.Equal(t, adt.Atom("id"), got.Fields[0].Key)
		assert.True(t, got.Fields[0].Optional)
	}
}
