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

// Package runtime holds the data the Expander consults but does not
// compute itself: the Environment (§3.2), the provider interfaces
// external collaborators implement (§6), and the syntax-tree shape a
// stored typespec takes before the Spec Parser turns it into an
// adt.Type.
package runtime

import (
	"github.com/cockroachdb/apd/v2"

	"github.com/J3RN/elixir-sense/internal/core/adt"
)

// SpecKind discriminates the small typespec grammar of §4.3.
type SpecKind int

const (
	// SpecUnion is `A | B | ...`.
	SpecUnion SpecKind = iota
	// SpecStruct is `%ModAlias{field: T, ...}`.
	SpecStruct
	// SpecMap is `%{field: T, ...}` or `%{optional(field) => T, ...}`.
	SpecMap
	// SpecMapNullary is the nullary `map()`.
	SpecMapNullary
	// SpecTuple is `{T1, ..., Tn}`.
	SpecTuple
	// SpecRemoteType is `Mod.Name(args...)`.
	SpecRemoteType
	// SpecLocalType is `Name(args...)`.
	SpecLocalType
	// SpecNoReturn is `no_return(...)`.
	SpecNoReturn
	// SpecAtomLit is an atom literal.
	SpecAtomLit
	// SpecIntegerLit is an integer literal.
	SpecIntegerLit
	// SpecParamRef is a reference to one of the enclosing parameterized
	// type's own parameters; SubstituteParams replaces these before the
	// Spec Parser ever sees them.
	SpecParamRef
)

// SpecField is one field of a SpecStruct or SpecMap node.
type SpecField struct {
	Key      adt.Atom
	Value    SpecNode
	Optional bool
}

// SpecNode is a node of the typespec syntax tree a Typespec/Introspection
// provider hands back. It is intentionally small: it only needs to
// express the grammar the Spec Parser (§4.3) understands.
type SpecNode struct {
	Kind   SpecKind
	Atom   adt.Atom     // SpecAtomLit value; type/remote-type name
	Module adt.Atom     // SpecRemoteType module
	Int    *apd.Decimal // SpecIntegerLit value
	Args   []SpecNode   // union variants, tuple elements, type arguments
	Fields []SpecField  // struct/map fields
	Param  string       // SpecParamRef name
}

// SubstituteParams replaces every SpecParamRef in body whose name is a
// key of params with the corresponding argument subtree, per §4.3's
// "Parameterized types" rule for specs of the form
// `name(params) when params :: ast`.
func SubstituteParams(body SpecNode, params map[string]SpecNode) SpecNode {
	if body.Kind == SpecParamRef {
		if v, ok := params[body.Param]; ok {
			return v
		}
		return body
	}
	out := body
	if len(body.Args) > 0 {
		out.Args = make([]SpecNode, len(body.Args))
		for i, a := range body.Args {
			out.Args[i] = SubstituteParams(a, params)
		}
	}
	if len(body.Fields) > 0 {
		out.Fields = make([]SpecField, len(body.Fields))
		for i, f := range body.Fields {
			out.Fields[i] = SpecField{
				Key:      f.Key,
				Value:    SubstituteParams(f.Value, params),
				Optional: f.Optional,
			}
		}
	}
	return out
}
