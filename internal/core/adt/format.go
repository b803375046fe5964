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

import (
	"fmt"
	"strings"
)

// Format renders t the way a hover or completion panel would: short,
// single-line, and close to the host language's own type syntax. It is
// a debugging/display convenience (§12 of SPEC_FULL.md), not part of
// the expansion algorithm.
func Format(t Type) string {
	var b strings.Builder
	format(&b, t)
	return b.String()
}

func format(b *strings.Builder, t Type) {
	switch x := t.(type) {
	case nil:
		b.WriteString("_")
	case *NoneT:
		b.WriteString("none()")
	case *AtomT:
		b.WriteString(":")
		b.WriteString(string(x.Value))
	case *IntegerT:
		b.WriteString(x.Value.String())
	case *TupleT:
		b.WriteString("{")
		for i, e := range x.Elems {
			if i > 0 {
				b.WriteString(", ")
			}
			format(b, e)
		}
		b.WriteString("}")
	case *MapT:
		b.WriteString("%{")
		formatFields(b, x.Fields)
		b.WriteString("}")
	case *StructT:
		if m, ok := ModuleAtom(x.Module); ok {
			b.WriteString("%")
			b.WriteString(string(m))
		} else {
			b.WriteString("%_")
		}
		b.WriteString("{")
		formatFields(b, x.Fields)
		b.WriteString("}")
	case *UnionT:
		for i, v := range x.Variants {
			if i > 0 {
				b.WriteString(" | ")
			}
			format(b, v)
		}
	case *IntersectionT:
		for i, v := range x.Variants {
			if i > 0 {
				b.WriteString(" & ")
			}
			format(b, v)
		}
	case *VariableT:
		b.WriteString(x.Name)
	case *AttributeT:
		b.WriteString("@")
		b.WriteString(x.Name)
	case *CallT:
		format(b, x.Target)
		b.WriteString(".")
		b.WriteString(string(x.Fun))
		formatArgs(b, x.Args)
	case *LocalCallT:
		b.WriteString(string(x.Fun))
		formatArgs(b, x.Args)
	case *TupleNthT:
		format(b, x.Tuple)
		fmt.Fprintf(b, "[%d]", x.N)
	default:
		fmt.Fprintf(b, "<%T>", t)
	}
}

func formatFields(b *strings.Builder, fields []Field) {
	for i, f := range fields {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(string(f.Key))
		b.WriteString(": ")
		format(b, f.Value)
	}
}

func formatArgs(b *strings.Builder, args []Type) {
	b.WriteString("(")
	for i, a := range args {
		if i > 0 {
			b.WriteString(", ")
		}
		format(b, a)
	}
	b.WriteString(")")
}
