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

// StructProvider answers struct-registry questions (§6). Field order is
// significant: it is the declaration order a struct literal projects
// onto during expansion (§4.1), and Fields always includes
// adt.StructField ("__struct__").
type StructProvider interface {
	IsStruct(module adt.Atom) bool
	Fields(module adt.Atom) []adt.Atom
}

// FuncArity names one exported function signature for FuncDocs.
type FuncArity struct {
	Fun   adt.Atom
	Arity int
}

// DocMeta carries the documentation metadata the Call Resolver needs:
// how many trailing parameters have defaults.
type DocMeta struct {
	Defaults int
}

// FuncDocs is the per-module documentation index: nil (together with ok
// == false) means docs are unavailable for that module, in which case
// §4.2.3 falls back to an exact-arity FunctionExported check.
type FuncDocs map[FuncArity]DocMeta

// IntrospectionProvider answers questions about the host language's own
// modules: introspection of compiled code, independent of any
// user-declared metadata (§6).
type IntrospectionProvider interface {
	Docs(module adt.Atom) (FuncDocs, bool)
	FunctionExported(module, fun adt.Atom, arity int) bool
	GetSpec(module, fun adt.Atom, arity int) ([]SpecNode, bool)
	GetTypeSpec(module, name adt.Atom, arity int) (TypeKind, []string, SpecNode, bool)
}

// TypespecProvider normalizes a provider's stored macro-quoted spec
// representation into the SpecNode grammar the Spec Parser understands.
// Normalized access to stored type-specification syntax trees is out of
// scope for this engine (§1); this interface exists so the boundary is
// explicit, and a caller whose storage already matches the SpecNode
// grammar can satisfy it with the identity implementation below.
type TypespecProvider interface {
	SpecToQuoted(fun adt.Atom, raw SpecNode) SpecNode
	TypeToQuoted(raw SpecNode) SpecNode
}

// IdentityTypespec is the trivial TypespecProvider for callers whose
// Introspection/metadata layer already stores SpecNode trees directly.
type IdentityTypespec struct{}

func (IdentityTypespec) SpecToQuoted(_ adt.Atom, raw SpecNode) SpecNode { return raw }
func (IdentityTypespec) TypeToQuoted(raw SpecNode) SpecNode             { return raw }

// SpecTextParser parses stored spec source text into a SpecNode. This
// is the "String-to-syntax" collaborator of §6; internal/core/spectext
// provides one concrete implementation used by the fixture loader.
type SpecTextParser interface {
	Parse(src string) (SpecNode, bool)
}
