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

// Package eval implements the Expander (§4.1), the Call Resolver (§4.2),
// the Spec Parser (§4.3) and the Type Resolver (§4.4). The four are
// mutually recursive -- resolving a call may parse a spec, parsing a
// spec may resolve a type, resolving a type may expand a parameterized
// argument -- so, like cuelang's internal/core/eval, they share one
// package rather than importing each other in a cycle.
package eval

import (
	"strings"

	"github.com/J3RN/elixir-sense/internal/core/adt"
	"github.com/J3RN/elixir-sense/internal/core/runtime"
)

// Expand is the engine's single public entry point: it expands expr to
// its fullest known type under env, starting from an empty visitation
// stack.
func Expand(env *runtime.Environment, expr adt.Type) adt.Type {
	return expand(env, expr, Stack{})
}

// expand is the recursive worker behind Expand. A cycle guard (§4.1)
// returns Nil, not None: the loop-closing position is unknown, not
// provably impossible, so it must stay the Combiner's identity rather
// than its absorbing element.
func expand(env *runtime.Environment, expr adt.Type, stack Stack) adt.Type {
	switch x := expr.(type) {
	case nil, *adt.NoneT, *adt.AtomT, *adt.IntegerT:
		return expr

	case *adt.VariableT:
		return expandVariable(env, x, stack)

	case *adt.AttributeT:
		if a, ok := env.Attribute(x.Name); ok {
			return a.Type
		}
		return nil

	case *adt.StructT:
		if stack.Contains(x) {
			return nil
		}
		return expandStruct(env, x, stack.Push(x))

	case *adt.MapT:
		if stack.Contains(x) {
			return nil
		}
		return expandMap(env, x, stack.Push(x))

	case *adt.TupleT:
		if stack.Contains(x) {
			return nil
		}
		return expandTuple(env, x, stack.Push(x))

	case *adt.TupleNthT:
		if stack.Contains(x) {
			return nil
		}
		return expandTupleNth(env, x, stack.Push(x))

	case *adt.UnionT:
		if stack.Contains(x) {
			return nil
		}
		return expandUnion(env, x, stack.Push(x))

	case *adt.IntersectionT:
		if stack.Contains(x) {
			return nil
		}
		return expandIntersection(env, x, stack.Push(x))

	case *adt.CallT:
		if stack.Contains(x) {
			return nil
		}
		return expandCall(env, x, stack.Push(x))

	case *adt.LocalCallT:
		if stack.Contains(x) {
			return nil
		}
		return expandLocalCall(env, x, stack.Push(x))

	default:
		return adt.None
	}
}

// expandVariable implements §4.1's Variable case: an underscore-prefixed
// name is always-ignored and expands to None; otherwise a found binding
// yields its recorded type, and an unbound name is re-interpreted as a
// zero-argument local call (a bare identifier the parser could not tell
// apart from a variable reference until now).
func expandVariable(env *runtime.Environment, x *adt.VariableT, stack Stack) adt.Type {
	if strings.HasPrefix(x.Name, "_") {
		return adt.None
	}
	if v, ok := env.Variable(x.Name); ok {
		return v.Type
	}
	return expand(env, &adt.LocalCallT{Fun: adt.Atom(x.Name)}, stack)
}

// expandStruct implements §4.1's Struct case.
func expandStruct(env *runtime.Environment, x *adt.StructT, stack Stack) adt.Type {
	if _, ok := adt.ModuleAtom(x.Module); ok && x.Updated == nil {
		return x
	}

	switch x.Module.(type) {
	case nil, *adt.AtomT, *adt.AttributeT:
	default:
		return adt.None
	}

	moduleVal := expand(env, x.Module, stack)
	if adt.IsNone(moduleVal) {
		return adt.None
	}
	if moduleVal == nil {
		return &adt.StructT{Fields: x.Fields}
	}
	moduleAtom, ok := adt.ModuleAtom(moduleVal)
	if !ok {
		return adt.None
	}

	base := expand(env, x.Updated, stack)
	var baseFields []adt.Field
	switch b := base.(type) {
	case nil:
	case *adt.MapT:
		baseFields = b.Fields
	case *adt.StructT:
		baseFields = b.Fields
	default:
		return adt.None
	}

	merged := adt.Overlay(baseFields, x.Fields)

	if env.Structs != nil && env.Structs.IsStruct(moduleAtom) {
		merged = adt.Project(merged, env.Structs.Fields(moduleAtom))
	}
	if v, has := adt.Get(merged, adt.StructField); !has || v == nil {
		merged = adt.Put(merged, adt.StructField, &adt.AtomT{Value: moduleAtom})
	}

	return &adt.StructT{Fields: merged, Module: &adt.AtomT{Value: moduleAtom}}
}

// expandMap implements §4.1's Map case.
func expandMap(env *runtime.Environment, x *adt.MapT, stack Stack) adt.Type {
	base := expand(env, x.Updated, stack)
	switch b := base.(type) {
	case nil:
		return &adt.MapT{Fields: x.Fields}
	case *adt.MapT:
		return &adt.MapT{Fields: adt.Overlay(b.Fields, x.Fields)}
	case *adt.StructT:
		return &adt.StructT{Fields: adt.Overlay(b.Fields, x.Fields), Module: b.Module}
	default:
		return adt.None
	}
}

// expandTuple implements §4.1's Tuple case: each element is expanded in
// order, and a None element yields None for the whole tuple (invariant
// (2)).
func expandTuple(env *runtime.Environment, x *adt.TupleT, stack Stack) adt.Type {
	elems := make([]adt.Type, len(x.Elems))
	for i, e := range x.Elems {
		v := expand(env, e, stack)
		if adt.IsNone(v) {
			return adt.None
		}
		elems[i] = v
	}
	return &adt.TupleT{Elems: elems}
}

// expandTupleNth implements §4.1's TupleNth case.
func expandTupleNth(env *runtime.Environment, x *adt.TupleNthT, stack Stack) adt.Type {
	switch t := expand(env, x.Tuple, stack).(type) {
	case nil:
		return nil
	case *adt.TupleT:
		if x.N < 0 || x.N >= len(t.Elems) {
			return adt.None
		}
		return t.Elems[x.N]
	default:
		return adt.None
	}
}

// expandUnion implements §4.1's Union case.
func expandUnion(env *runtime.Environment, x *adt.UnionT, stack Stack) adt.Type {
	variants := make([]adt.Type, len(x.Variants))
	for i, v := range x.Variants {
		variants[i] = expand(env, v, stack)
	}
	return adt.NormalizeUnion(variants)
}

// expandIntersection implements §4.1's Intersection case: expand every
// variant, then fold left with the Combiner, starting from Nil (the
// Combiner's identity element).
func expandIntersection(env *runtime.Environment, x *adt.IntersectionT, stack Stack) adt.Type {
	var acc adt.Type
	for _, v := range x.Variants {
		acc = adt.Combine(acc, expand(env, v, stack))
	}
	return acc
}

// expandCall implements §4.1's Call case.
func expandCall(env *runtime.Environment, x *adt.CallT, stack Stack) adt.Type {
	for _, a := range x.Args {
		if adt.IsNone(expand(env, a, stack)) {
			return adt.None
		}
	}
	target := expand(env, x.Target, stack)
	result, isNoSpec := resolveCall(env, target, x.Fun, x.Args, false, stack)
	if isNoSpec {
		return nil
	}
	return result
}

// expandLocalCall implements §4.1's LocalCall case: try each candidate
// target in order, taking the first whose resolution is neither Nil
// (not declared there) nor falsy; a no_spec result (the function is
// declared in that candidate but has no recorded spec) stops the search
// there too, since the defining module has been found.
func expandLocalCall(env *runtime.Environment, x *adt.LocalCallT, stack Stack) adt.Type {
	for _, a := range x.Args {
		if adt.IsNone(expand(env, a, stack)) {
			return adt.None
		}
	}

	for _, c := range runtime.LocalCallCandidates(env.CurrentModule, env.Imports) {
		includePrivate := env.CurrentModule != nil && c == *env.CurrentModule
		result, isNoSpec := resolveCall(env, &adt.AtomT{Value: c}, x.Fun, x.Args, includePrivate, stack)
		if isNoSpec {
			return nil
		}
		if result != nil {
			return result
		}
	}
	return nil
}
