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

import "github.com/J3RN/elixir-sense/internal/core/adt"

// FuncKind is the defined kind of a user function, as recorded by the
// (out of scope) discovery layer in mods_and_funs.
type FuncKind int

const (
	FuncDef FuncKind = iota
	FuncDefp
	FuncDefmacro
	FuncDefguard
	FuncDefdelegate
)

// VisibleWith reports whether a function of this kind is visible given
// includePrivate, per §4.2.2: any kind other than strictly private is
// always visible; defp additionally requires includePrivate.
func (k FuncKind) VisibleWith(includePrivate bool) bool {
	if k != FuncDefp {
		return true
	}
	return includePrivate
}

// TypeKind is the declared kind of a user type.
type TypeKind int

const (
	TypeKindType TypeKind = iota
	TypeKindOpaque
	TypeKindTypep
)

// ArityInfo records one declared arity and how many trailing parameters
// have defaults, so a call can be resolved against a tolerance window.
type ArityInfo struct {
	Declared int
	Defaults int
}

// Accepts reports whether a call of the given arity may resolve to this
// declaration: arity_declared - defaults <= called <= arity_declared.
func (a ArityInfo) Accepts(called int) bool {
	return called <= a.Declared && called >= a.Declared-a.Defaults
}

// ModFunInfo is the value of env.mods_and_funs[(module, fun, nil)]: the
// function's kind plus the per-arity default counts needed to resolve a
// call of any tolerated arity.
type ModFunInfo struct {
	Kind    FuncKind
	Arities []ArityInfo
}

// ResolveArity finds a declared arity whose tolerance window includes
// called and returns it. The first matching declaration wins.
func (m ModFunInfo) ResolveArity(called int) (int, bool) {
	for _, a := range m.Arities {
		if a.Accepts(called) {
			return a.Declared, true
		}
	}
	return 0, false
}

// SpecInfo is the value of env.specs[(module, fun, arity)]: one or more
// raw spec variants (overloads), treated as a union of returns (§9).
type SpecInfo struct {
	Variants []SpecNode
}

// TypeInfo is the value of env.types[(module, type_name, arity)]. Params
// names the type's own declared parameters, in order, so a reference
// that supplies arguments can substitute them into Spec before parsing
// (§4.3, "Parameterized types").
type TypeInfo struct {
	Kind   TypeKind
	Params []string
	Spec   SpecNode
}

// FunKey indexes env.specs.
type FunKey struct {
	Module adt.Atom
	Fun    adt.Atom
	Arity  int
}

// TypeKey indexes env.types.
type TypeKey struct {
	Module adt.Atom
	Name   adt.Atom
	Arity  int
}

// ModFunKey indexes env.mods_and_funs. Arity is deliberately absent:
// one entry groups every declared arity of (module, fun).
type ModFunKey struct {
	Module adt.Atom
	Fun    adt.Atom
}
