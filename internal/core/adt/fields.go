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

// Get looks up key in an ordered field association.
func Get(fields []Field, key Atom) (Type, bool) {
	for _, f := range fields {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

// Put returns fields with key set to value, overwriting in place if key
// already exists (last-write-wins) and appending otherwise. Order of
// existing keys is preserved.
func Put(fields []Field, key Atom, value Type) []Field {
	out := make([]Field, len(fields))
	copy(out, fields)
	for i, f := range out {
		if f.Key == key {
			out[i].Value = value
			return out
		}
	}
	return append(out, Field{Key: key, Value: value})
}

// Delete returns fields with key removed, if present.
func Delete(fields []Field, key Atom) []Field {
	out := make([]Field, 0, len(fields))
	for _, f := range fields {
		if f.Key != key {
			out = append(out, f)
		}
	}
	return out
}

// Keys returns the ordered key list of fields.
func Keys(fields []Field) []Atom {
	keys := make([]Atom, len(fields))
	for i, f := range fields {
		keys[i] = f.Key
	}
	return keys
}

// UnionKeys returns the keys of a followed by the keys of b not already
// seen in a, preserving first-seen order. Used wherever Combine needs to
// iterate the union of two field sets.
func UnionKeys(a, b []Field) []Atom {
	seen := make(map[Atom]bool, len(a)+len(b))
	keys := make([]Atom, 0, len(a)+len(b))
	for _, f := range a {
		if !seen[f.Key] {
			seen[f.Key] = true
			keys = append(keys, f.Key)
		}
	}
	for _, f := range b {
		if !seen[f.Key] {
			seen[f.Key] = true
			keys = append(keys, f.Key)
		}
	}
	return keys
}

// Project returns a new field list holding exactly the given keys, in
// the order given, pulling values from fields when present and using
// Nil (untyped nil) otherwise. Used by Struct expansion (§4.1) to drop
// unknown keys and fill unsupplied ones.
func Project(fields []Field, keys []Atom) []Field {
	out := make([]Field, len(keys))
	for i, k := range keys {
		v, _ := Get(fields, k)
		out[i] = Field{Key: k, Value: v}
	}
	return out
}

// Overlay returns base with each field of over applied via Put, in
// over's order. It is the structural merge used by Map/Struct literal
// expansion and by the Map.merge/2 builtin.
func Overlay(base, over []Field) []Field {
	out := base
	for _, f := range over {
		out = Put(out, f.Key, f.Value)
	}
	return out
}
