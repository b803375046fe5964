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

// VarRecord is one entry of env.variables. The first record whose Name
// matches wins (§4.1 Variable case).
type VarRecord struct {
	Name string
	Type adt.Type
}

// AttrRecord is one entry of env.attributes.
type AttrRecord struct {
	Name string
	Type adt.Type
}

// Environment bundles everything the Expander consults besides the
// binding expression itself (§3.2). It is immutable during a single
// expansion; nothing in this module ever mutates an Environment's
// fields after construction.
type Environment struct {
	Structs       StructProvider
	Introspection IntrospectionProvider

	Variables     []VarRecord
	Attributes    []AttrRecord
	CurrentModule *adt.Atom
	Imports       []adt.Atom

	Specs       map[FunKey]SpecInfo
	Types       map[TypeKey]TypeInfo
	ModsAndFuns map[ModFunKey]ModFunInfo
}

// Variable returns the first variable record matching name, per the
// "first match wins" rule of §3.2.
func (e *Environment) Variable(name string) (VarRecord, bool) {
	for _, v := range e.Variables {
		if v.Name == name {
			return v, true
		}
	}
	return VarRecord{}, false
}

// Attribute returns the attribute record matching name, if any.
func (e *Environment) Attribute(name string) (AttrRecord, bool) {
	for _, a := range e.Attributes {
		if a.Name == name {
			return a, true
		}
	}
	return AttrRecord{}, false
}

// ModFun returns the mods_and_funs entry for (module, fun), if any.
func (e *Environment) ModFun(module, fun adt.Atom) (ModFunInfo, bool) {
	info, ok := e.ModsAndFuns[ModFunKey{Module: module, Fun: fun}]
	return info, ok
}

// Spec returns the specs entry for (module, fun, arity), if any.
func (e *Environment) Spec(module, fun adt.Atom, arity int) (SpecInfo, bool) {
	info, ok := e.Specs[FunKey{Module: module, Fun: fun, Arity: arity}]
	return info, ok
}

// Type returns the types entry for (module, name, arity), if any.
func (e *Environment) Type(module, name adt.Atom, arity int) (TypeInfo, bool) {
	info, ok := e.Types[TypeKey{Module: module, Name: name, Arity: arity}]
	return info, ok
}
