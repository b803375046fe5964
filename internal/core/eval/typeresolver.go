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

// resolveType implements the Type Resolver (§4.4). argNodes are the
// unparsed argument subtrees from the reference site (e.g. the
// `integer()` in `list(integer())`), substituted into the target type's
// own declared body before that body is parsed, per §4.3's
// "Parameterized types" rule. isNoSpec mirrors resolveCall's: true means
// neither metadata nor introspection knows this type at all, a private
// metadata entry was consulted without includePrivate, or a visible
// metadata entry's body parsed to Nil.
func resolveType(env *runtime.Environment, module, name adt.Atom, argNodes []runtime.SpecNode, includePrivate bool) (adt.Type, bool) {
	if info, ok := env.Type(module, name, len(argNodes)); ok {
		if !typeVisibleForParse(info.Kind, includePrivate) {
			return nil, true
		}
		body := substituteTypeParams(info.Params, argNodes, info.Spec)
		t := parseSpec(env, module, body, includePrivate)
		if t == nil {
			return nil, true
		}
		return t, false
	}

	if env.Introspection != nil {
		if kind, params, spec, ok := env.Introspection.GetTypeSpec(module, name, len(argNodes)); ok {
			if !typeVisibleForParse(kind, includePrivate) {
				return nil, false
			}
			body := substituteTypeParams(params, argNodes, spec)
			return parseSpec(env, module, body, includePrivate), false
		}
	}

	return nil, true
}

// typeVisibleForParse is the "kind = type or include_private" test §4.4
// applies identically at both the metadata and introspection steps.
func typeVisibleForParse(kind runtime.TypeKind, includePrivate bool) bool {
	return kind == runtime.TypeKindType || includePrivate
}

// substituteTypeParams builds the params map SubstituteParams needs by
// zipping the type's declared parameter names with the argument
// subtrees supplied at the reference site.
func substituteTypeParams(params []string, argNodes []runtime.SpecNode, body runtime.SpecNode) runtime.SpecNode {
	if len(params) == 0 || len(argNodes) == 0 {
		return body
	}
	m := make(map[string]runtime.SpecNode, len(params))
	for i, p := range params {
		if i < len(argNodes) {
			m[p] = argNodes[i]
		}
	}
	return runtime.SubstituteParams(body, m)
}
