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
	"github.com/J3RN/elixir-sense/internal/core/adt"
	"github.com/J3RN/elixir-sense/internal/core/runtime"
)

// parseSpec implements the Spec Parser (§4.3): it turns one typespec
// syntax-tree node into a lattice Type. module is the module a bare
// (non-remote) type reference or struct alias resolves against;
// includePrivate threads through to local type references only --
// remote references always resolve with includePrivate = false, since
// private status does not cross a module boundary.
func parseSpec(env *runtime.Environment, module adt.Atom, node runtime.SpecNode, includePrivate bool) adt.Type {
	switch node.Kind {
	case runtime.SpecUnion:
		variants := make([]adt.Type, len(node.Args))
		for i, a := range node.Args {
			variants[i] = parseSpec(env, module, a, includePrivate)
		}
		return adt.NormalizeUnion(variants)

	case runtime.SpecStruct:
		fields := parseSpecFields(env, module, node.Fields, includePrivate)
		if v, has := adt.Get(fields, adt.StructField); !has || v == nil {
			fields = adt.Put(fields, adt.StructField, &adt.AtomT{Value: node.Atom})
		}
		return &adt.StructT{
			Fields: fields,
			Module: &adt.AtomT{Value: node.Atom},
		}

	case runtime.SpecMap:
		return &adt.MapT{Fields: parseSpecFields(env, module, node.Fields, includePrivate)}

	case runtime.SpecMapNullary:
		return &adt.MapT{}

	case runtime.SpecTuple:
		elems := make([]adt.Type, len(node.Args))
		for i, a := range node.Args {
			elems[i] = parseSpec(env, module, a, includePrivate)
		}
		return &adt.TupleT{Elems: elems}

	case runtime.SpecRemoteType:
		t, isNoSpec := resolveType(env, node.Module, node.Atom, node.Args, false)
		if isNoSpec {
			return nil
		}
		return t

	case runtime.SpecLocalType:
		t, isNoSpec := resolveType(env, module, node.Atom, node.Args, includePrivate)
		if isNoSpec {
			return nil
		}
		return t

	case runtime.SpecNoReturn:
		return adt.None

	case runtime.SpecAtomLit:
		return &adt.AtomT{Value: node.Atom}

	case runtime.SpecIntegerLit:
		return &adt.IntegerT{Value: node.Int}

	default:
		return nil
	}
}

// parseSpecFields parses each field's value, keeping the optional()
// wrapper's effect implicit: SpecField already carries only atom keys,
// and adt.Field has no optionality marker of its own, so the wrapper
// simply disappears once parsed, per §4.3.
func parseSpecFields(env *runtime.Environment, module adt.Atom, fields []runtime.SpecField, includePrivate bool) []adt.Field {
	out := make([]adt.Field, len(fields))
	for i, f := range fields {
		out[i] = adt.Field{Key: f.Key, Value: parseSpec(env, module, f.Value, includePrivate)}
	}
	return out
}
