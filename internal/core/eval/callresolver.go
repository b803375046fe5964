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

// resolveCall implements the Call Resolver (§4.2). The bool result is
// isNoSpec: true means "this call target legitimately exists but no
// return spec could be found for it", a sentinel the Expander's Call
// and LocalCall cases flatten to Nil at the boundary -- never returned
// to a caller outside this package.
func resolveCall(env *runtime.Environment, target adt.Type, fun adt.Atom, args []adt.Type, includePrivate bool, stack Stack) (adt.Type, bool) {
	switch t := target.(type) {
	case nil:
		return nil, false
	case *adt.NoneT:
		return adt.None, false

	case *adt.MapT:
		if len(args) != 0 {
			return adt.None, false
		}
		v, _ := adt.Get(t.Fields, fun)
		return expand(env, v, stack), false

	case *adt.StructT:
		if len(args) != 0 {
			return adt.None, false
		}
		v, _ := adt.Get(t.Fields, fun)
		return expand(env, v, stack), false

	case *adt.AtomT:
		if result, matched := resolveBuiltin(env, t.Value, fun, args, stack); matched {
			return result, false
		}
		if isReservedAtom(t.Value) || isReservedAtom(fun) {
			return nil, false
		}
		return resolveUserOrHost(env, t.Value, fun, args, includePrivate)

	default:
		return adt.None, false
	}
}

// isReservedAtom reports whether a is one of the host language's three
// literal atoms, which never name a callable module or function.
func isReservedAtom(a adt.Atom) bool {
	return a == "nil" || a == "true" || a == "false"
}

// resolveUserOrHost implements the metadata-then-introspection fallback
// of §4.2's final case.
func resolveUserOrHost(env *runtime.Environment, module, fun adt.Atom, args []adt.Type, includePrivate bool) (adt.Type, bool) {
	arity := len(args)

	t, isNoSpec, found := resolveMetadataCall(env, module, fun, arity, includePrivate)
	if found {
		if isNoSpec {
			return nil, true
		}
		if !(t == nil || adt.IsNone(t)) {
			return t, false
		}
	}
	return resolveIntrospectionCall(env, module, fun, arity)
}

// resolveMetadataCall implements §4.2.2. found reports whether (module,
// fun) is declared there at all with an arity in tolerance of arity;
// when found is false the caller falls through to introspection.
func resolveMetadataCall(env *runtime.Environment, module, fun adt.Atom, arity int, includePrivate bool) (_ adt.Type, isNoSpec bool, found bool) {
	info, ok := env.ModFun(module, fun)
	if !ok || !info.Kind.VisibleWith(includePrivate) {
		return nil, false, false
	}
	resolvedArity, ok := info.ResolveArity(arity)
	if !ok {
		return nil, false, false
	}
	spec, ok := env.Spec(module, fun, resolvedArity)
	if !ok || len(spec.Variants) == 0 {
		return nil, true, true
	}
	return parseSpecVariants(env, module, spec.Variants, includePrivate), false, true
}

// resolveIntrospectionCall implements §4.2.3.
func resolveIntrospectionCall(env *runtime.Environment, module, fun adt.Atom, arity int) (adt.Type, bool) {
	if env.Introspection == nil {
		return nil, false
	}

	resolvedArity := arity
	if docs, hasDocs := env.Introspection.Docs(module); hasDocs {
		a, ok := resolveDocArity(docs, fun, arity)
		if !ok {
			return nil, false
		}
		resolvedArity = a
	} else if !env.Introspection.FunctionExported(module, fun, arity) {
		return nil, false
	}

	variants, ok := env.Introspection.GetSpec(module, fun, resolvedArity)
	if !ok || len(variants) == 0 {
		return nil, true
	}
	return parseSpecVariants(env, module, variants, false), false
}

// resolveDocArity scans docs for a declared arity of fun whose
// default-parameter tolerance window covers called.
func resolveDocArity(docs runtime.FuncDocs, fun adt.Atom, called int) (int, bool) {
	for k, meta := range docs {
		if k.Fun != fun {
			continue
		}
		ai := runtime.ArityInfo{Declared: k.Arity, Defaults: meta.Defaults}
		if ai.Accepts(called) {
			return k.Arity, true
		}
	}
	return 0, false
}

// parseSpecVariants parses each spec overload and normalizes the result
// as a union, per §9: multiple variants are multiple overloads, treated
// as a union over their returns.
func parseSpecVariants(env *runtime.Environment, module adt.Atom, variants []runtime.SpecNode, includePrivate bool) adt.Type {
	if len(variants) == 1 {
		return parseSpec(env, module, variants[0], includePrivate)
	}
	types := make([]adt.Type, len(variants))
	for i, v := range variants {
		types[i] = parseSpec(env, module, v, includePrivate)
	}
	return adt.NormalizeUnion(types)
}

// fieldsOf implements the fields-of(E) helper that prefixes §4.2.1: the
// fields of E if it expands to a Map or Struct, [] if it expands to Nil,
// and a None-propagating sentinel (reported via the bool) otherwise.
func fieldsOf(env *runtime.Environment, e adt.Type, stack Stack) (fields []adt.Field, isNoneSentinel bool) {
	switch v := expand(env, e, stack).(type) {
	case nil:
		return nil, false
	case *adt.MapT:
		return v.Fields, false
	case *adt.StructT:
		return v.Fields, false
	default:
		return nil, true
	}
}
