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
)

func TestFuncKindVisibleWith(t *testing.T) {
	assert.True(t, FuncDef.VisibleWith(false))
	assert.True(t, FuncDefmacro.VisibleWith(false))
	assert.True(t, FuncDefguard.VisibleWith(false))
	assert.True(t, FuncDefdelegate.VisibleWith(false))

	assert.False(t, FuncDefp.VisibleWith(false))
	assert.True(t, FuncDefp.VisibleWith(true))
}

func TestArityInfoAccepts(t *testing.T) {
	a := ArityInfo{Declared: 3, Defaults: 2}

	assert.False(t, a.Accepts(0))
	assert.True(t, a.Accepts(1))
	assert.True(t, a.Accepts(2))
	assert.True(t, a.Accepts(3))
	assert.False(t, a.Accepts(4))
}

func TestArityInfoAcceptsNoDefaults(t *testing.T) {
	a := ArityInfo{Declared: 2, Defaults: 0}

	assert.False(t, a.Accepts(1))
	assert.True(t, a.Accepts(2))
	assert.False(t, a.Accepts(3))
}

func TestModFunInfoResolveArityFirstMatchWins(t *testing.T) {
	m := ModFunInfo{
		Kind: FuncDef,
		Arities: []ArityInfo{
			{Declared: 1, Defaults: 1},
			{Declared: 2, Defaults: 0},
		},
	}

	declared, ok := m.ResolveArity(0)
	assert.True(t, ok)
	assert.Equal(t, 1, declared)

	declared, ok = m.ResolveArity(2)
	assert.True(t, ok)
	assert.Equal(t, 2, declared)

	_, ok = m.ResolveArity(5)
	assert.False(t, ok)
}
