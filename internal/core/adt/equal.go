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

import "reflect"

// Equal reports whether a and b are structurally identical. It backs
// both union-variant collapsing (§3.1 invariant d) and the visitation
// stack's cycle check (§3.3): the stack holds binding expressions by
// value, and a repeat is detected by structural equality, not identity.
func Equal(a, b Type) bool {
	return reflect.DeepEqual(a, b)
}

// NormalizeUnion builds a UnionT from variants, collapsing duplicates
// and, per invariant (d)/(7), collapsing to the bare member when every
// variant is equal. An empty variant list normalizes to None: a
// disjunction over nothing is unsatisfiable.
func NormalizeUnion(variants []Type) Type {
	out := make([]Type, 0, len(variants))
	for _, v := range variants {
		dup := false
		for _, o := range out {
			if Equal(o, v) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, v)
		}
	}
	switch len(out) {
	case 0:
		return None
	case 1:
		return out[0]
	default:
		return &UnionT{Variants: out}
	}
}
