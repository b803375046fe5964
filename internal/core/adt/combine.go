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

package adt

// Combine is the Intersection Combiner (§4.5): the pairwise meet of two
// expanded types, used to fold multiple constraints on the same
// expression together. It is pure: no Environment is needed, only the
// two operands.
//
// Laws: Combine(nil, t) == t (Nil is identity), Combine(None, t) ==
// None (None absorbs), Combine(t, t) == t.
func Combine(a, b Type) Type {
	switch {
	case IsNone(a) || IsNone(b):
		return None
	case a == nil:
		return b
	case b == nil:
		return a
	case Equal(a, b):
		return a
	}

	switch x := a.(type) {
	case *StructT:
		switch y := b.(type) {
		case *StructT:
			return combineStructStruct(x, y)
		case *MapT:
			return combineStructMap(x, y)
		}
		return None

	case *MapT:
		switch y := b.(type) {
		case *MapT:
			return combineMapMap(x, y)
		case *StructT:
			return combineStructMap(y, x)
		}
		return None

	case *TupleT:
		y, ok := b.(*TupleT)
		if !ok || len(x.Elems) != len(y.Elems) {
			return None
		}
		elems := make([]Type, len(x.Elems))
		for i := range elems {
			m := Combine(x.Elems[i], y.Elems[i])
			if IsNone(m) {
				return None
			}
			elems[i] = m
		}
		return &TupleT{Elems: elems}

	case *UnionT:
		return combineUnion(x, b)
	}

	if y, ok := b.(*UnionT); ok {
		return combineUnion(y, a)
	}
	return None
}

func combineStructStruct(x, y *StructT) Type {
	xm, xHasModule := ModuleAtom(x.Module)
	ym, yHasModule := ModuleAtom(y.Module)
	switch {
	case xHasModule && yHasModule:
		if xm != ym {
			return None
		}
		return combineFields(x.Fields, y.Fields, Keys(x.Fields), x.Module)
	case xHasModule:
		return combineFields(x.Fields, y.Fields, Keys(x.Fields), x.Module)
	case yHasModule:
		return combineFields(y.Fields, x.Fields, Keys(y.Fields), y.Module)
	default:
		return combineFields(x.Fields, y.Fields, UnionKeys(x.Fields, y.Fields), nil)
	}
}

func combineStructMap(s *StructT, m *MapT) Type {
	keys := UnionKeys(s.Fields, m.Fields)
	if _, ok := ModuleAtom(s.Module); ok {
		keys = Keys(s.Fields)
	}
	return combineFields(s.Fields, m.Fields, keys, s.Module)
}

func combineMapMap(x, y *MapT) Type {
	out := combineFields(x.Fields, y.Fields, UnionKeys(x.Fields, y.Fields), nil)
	if IsNone(out) {
		return None
	}
	return &MapT{Fields: out.(*StructT).Fields}
}

// combineFields folds Combine over keys, building either a StructT
// (when module != nil, or when called from a struct/struct or
// struct/map path) or, for the map/map path, returning the fields
// wrapped so combineMapMap can unwrap them. Returning a StructT in all
// cases and letting the two callers that want a MapT unwrap keeps the
// per-key logic in one place.
func combineFields(f1, f2 []Field, keys []Atom, module Type) Type {
	out := make([]Field, 0, len(keys))
	for _, k := range keys {
		v1, _ := Get(f1, k)
		v2, _ := Get(f2, k)
		m := Combine(v1, v2)
		if IsNone(m) {
			return None
		}
		out = append(out, Field{Key: k, Value: m})
	}
	return &StructT{Fields: out, Module: module}
}

func combineUnion(u *UnionT, other Type) Type {
	for _, v := range u.Variants {
		m := Combine(v, other)
		if !IsNone(m) {
			return m
		}
	}
	return None
}
