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

// resolveBuiltin implements the structural built-in catalog of §4.2.1.
// matched is false when (module, fun, len(args)) names nothing in the
// catalog, telling the caller to fall through to the ordinary
// metadata/introspection path.
func resolveBuiltin(env *runtime.Environment, module, fun adt.Atom, args []adt.Type, stack Stack) (result adt.Type, matched bool) {
	arity := len(args)
	switch {
	case module == runtime.Kernel && fun == "elem" && arity == 2:
		return builtinElem(env, args, stack), true

	case module == runtime.MapModule:
		switch {
		case (fun == "fetch" || fun == "fetch!" || fun == "get") && arity == 2:
			return builtinMapGet(env, args, stack), true
		case fun == "get" && arity == 3:
			return builtinMapGetDefault(env, args, stack), true
		case fun == "get_lazy" && arity == 3:
			return builtinMapGet(env, args, stack), true
		case (fun == "put" || fun == "replace!") && arity == 3:
			return builtinMapPut(env, args, stack), true
		case fun == "put_new" && arity == 3:
			return builtinMapPutNew(env, args, stack, false), true
		case fun == "put_new_lazy" && arity == 3:
			return builtinMapPutNew(env, args, stack, true), true
		case fun == "delete" && arity == 2:
			return builtinMapDelete(env, args, stack), true
		case fun == "merge" && arity == 2:
			return builtinMapMerge(env, args, stack, false), true
		case fun == "merge" && arity == 3:
			return builtinMapMerge(env, args, stack, true), true
		case (fun == "update" && arity == 4) || (fun == "update!" && arity == 3):
			return builtinMapUpdate(env, args, stack), true
		case fun == "from_struct" && arity == 1:
			return builtinFromStruct(env, args, stack), true
		}
	}
	return nil, false
}

// builtinElem implements Kernel.elem/2: a known integer index reduces to
// a TupleNth projection.
func builtinElem(env *runtime.Environment, args []adt.Type, stack Stack) adt.Type {
	switch n := expand(env, args[1], stack).(type) {
	case nil:
		return nil
	case *adt.IntegerT:
		idx, ok := decimalIndex(n)
		if !ok {
			return adt.None
		}
		return expand(env, &adt.TupleNthT{Tuple: args[0], N: idx}, stack)
	default:
		return adt.None
	}
}

// builtinMapGet implements Map.fetch/2, Map.fetch!/2, Map.get/2 and
// Map.get_lazy/3: the key is expanded, and an absent key (or a Nil map)
// yields Nil since no default is consulted.
func builtinMapGet(env *runtime.Environment, args []adt.Type, stack Stack) adt.Type {
	fields, isNone := fieldsOf(env, args[0], stack)
	if isNone {
		return adt.None
	}
	switch k := expand(env, args[1], stack).(type) {
	case nil:
		return nil
	case *adt.AtomT:
		v, _ := adt.Get(fields, k.Value)
		return v
	default:
		return adt.None
	}
}

// builtinMapGetDefault implements Map.get/3: the default expression is
// expanded and returned in place of an absent key.
func builtinMapGetDefault(env *runtime.Environment, args []adt.Type, stack Stack) adt.Type {
	fields, isNone := fieldsOf(env, args[0], stack)
	if isNone {
		return adt.None
	}
	switch k := expand(env, args[1], stack).(type) {
	case nil:
		return nil
	case *adt.AtomT:
		if v, ok := adt.Get(fields, k.Value); ok {
			return v
		}
		return expand(env, args[2], stack)
	default:
		return adt.None
	}
}

// builtinMapPut implements Map.put/3 and Map.replace!/3: the value is
// kept unexpanded so a lazily-referenced field stays lazy.
func builtinMapPut(env *runtime.Environment, args []adt.Type, stack Stack) adt.Type {
	fields, isNone := fieldsOf(env, args[0], stack)
	if isNone {
		return adt.None
	}
	switch k := expand(env, args[1], stack).(type) {
	case nil:
		return &adt.MapT{Fields: fields}
	case *adt.AtomT:
		return &adt.MapT{Fields: adt.Put(fields, k.Value, args[2])}
	default:
		return adt.None
	}
}

// builtinMapPutNew implements Map.put_new/3 and Map.put_new_lazy/3: the
// field is set only if absent; put_new_lazy never evaluates its
// zero-arg producer, so the inserted value is always Nil.
func builtinMapPutNew(env *runtime.Environment, args []adt.Type, stack Stack, lazy bool) adt.Type {
	fields, isNone := fieldsOf(env, args[0], stack)
	if isNone {
		return adt.None
	}
	switch k := expand(env, args[1], stack).(type) {
	case nil:
		return &adt.MapT{Fields: fields}
	case *adt.AtomT:
		if _, exists := adt.Get(fields, k.Value); exists {
			return &adt.MapT{Fields: fields}
		}
		var value adt.Type
		if !lazy {
			value = args[2]
		}
		return &adt.MapT{Fields: adt.Put(fields, k.Value, value)}
	default:
		return adt.None
	}
}

// builtinMapDelete implements Map.delete/2.
func builtinMapDelete(env *runtime.Environment, args []adt.Type, stack Stack) adt.Type {
	fields, isNone := fieldsOf(env, args[0], stack)
	if isNone {
		return adt.None
	}
	switch k := expand(env, args[1], stack).(type) {
	case nil:
		return &adt.MapT{Fields: fields}
	case *adt.AtomT:
		return &adt.MapT{Fields: adt.Delete(fields, k.Value)}
	default:
		return adt.None
	}
}

// builtinMapMerge implements Map.merge/2 and Map.merge/3: merge/3's
// conflict-resolving function is opaque to this engine, so any key
// present in both inputs is set to Nil rather than guessed at.
func builtinMapMerge(env *runtime.Environment, args []adt.Type, stack Stack, withCombiner bool) adt.Type {
	f1, n1 := fieldsOf(env, args[0], stack)
	f2, n2 := fieldsOf(env, args[1], stack)
	if n1 || n2 {
		return adt.None
	}
	out := adt.Overlay(f1, f2)
	if withCombiner {
		for _, f := range f2 {
			if _, existed := adt.Get(f1, f.Key); existed {
				out = adt.Put(out, f.Key, nil)
			}
		}
	}
	return &adt.MapT{Fields: out}
}

// builtinMapUpdate implements Map.update/4 and Map.update!/3: the
// updating function is opaque, so the touched key is set to Nil.
func builtinMapUpdate(env *runtime.Environment, args []adt.Type, stack Stack) adt.Type {
	fields, isNone := fieldsOf(env, args[0], stack)
	if isNone {
		return adt.None
	}
	switch k := expand(env, args[1], stack).(type) {
	case nil:
		return &adt.MapT{Fields: fields}
	case *adt.AtomT:
		return &adt.MapT{Fields: adt.Put(fields, k.Value, nil)}
	default:
		return adt.None
	}
}

// builtinFromStruct implements Map.from_struct/1.
func builtinFromStruct(env *runtime.Environment, args []adt.Type, stack Stack) adt.Type {
	switch v := expand(env, args[0], stack).(type) {
	case nil:
		return nil
	case *adt.StructT:
		return &adt.MapT{Fields: adt.Delete(v.Fields, adt.StructField)}
	case *adt.AtomT:
		synth := expand(env, &adt.StructT{Module: v}, stack)
		s, ok := synth.(*adt.StructT)
		if !ok {
			return adt.None
		}
		return &adt.MapT{Fields: adt.Delete(s.Fields, adt.StructField)}
	default:
		return adt.None
	}
}

// decimalIndex converts an IntegerT to a non-negative slice index.
func decimalIndex(n *adt.IntegerT) (int, bool) {
	i, err := n.Value.Int64()
	if err != nil || i < 0 {
		return 0, false
	}
	return int(i), true
}
