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

// Package adt defines the type lattice: the closed set of tagged
// variants an expanded (or not-yet-expanded) binding expression can be,
// plus the pairwise meet (Combine) that folds multiple constraints on
// the same expression into one.
//
// The same variant set doubles as input (an unevaluated binding
// expression, e.g. Call or LocalCall) and output (a fully expanded
// type); Call and LocalCall simply never occur in fully expanded
// results. This mirrors how cuelang's internal/core/adt overlays Expr
// and Value on one recursive sum type.
package adt

import "github.com/cockroachdb/apd/v2"

// Atom is an interned atom-like name: a module, a function, a field
// label, or a literal atom value.
type Atom string

// Type is an element of the type lattice. The absence of a Type --
// untyped Go nil -- represents Nil, the unknown-but-plausible top
// element for Combine. There is no concrete Go type for Nil; every
// function in this module that can yield "unknown" returns a nil Type
// rather than a sentinel value, so callers pattern-match with a type
// switch exactly as they would for any other variant.
type Type interface {
	typeNode()
}

// None is the absurd/impossible type, the absorbing element for
// Combine. Unlike Nil it is a concrete singleton value.
var None Type = &NoneT{}

// NoneT is the concrete representation of None.
type NoneT struct{}

func (*NoneT) typeNode() {}

// IsNone reports whether t is the None sentinel. A nil t (Nil) is not
// None.
func IsNone(t Type) bool {
	_, ok := t.(*NoneT)
	return ok
}

// IsNil reports whether t is the Nil (unknown) lattice value.
func IsNil(t Type) bool { return t == nil }

// AtomT is a singleton atom value.
type AtomT struct{ Value Atom }

func (*AtomT) typeNode() {}

// IntegerT is a singleton integer value. The host language's integers
// are arbitrary precision, so they are stored the same way cuelang
// stores its own numeric literals: as an apd.Decimal.
type IntegerT struct{ Value *apd.Decimal }

func (*IntegerT) typeNode() {}

// NewInteger builds an IntegerT from a machine int, for tests and
// callers that don't need bignum precision.
func NewInteger(i int64) *IntegerT {
	d := apd.New(i, 0)
	return &IntegerT{Value: d}
}

// TupleT is a tuple of known arity; len(Elems) is the arity.
type TupleT struct{ Elems []Type }

func (*TupleT) typeNode() {}

// Field is one entry of an ordered atom-keyed association. Order is
// insertion order; it is irrelevant to equality but significant for
// rendering and for "first match wins" lookups elsewhere in the engine.
type Field struct {
	Key   Atom
	Value Type
}

// MapT is a map whose statically known keys are atoms.
type MapT struct {
	Fields []Field
	// Updated is an optional base-expression to be merged. It is nil
	// after expansion (see the Expander's Map case).
	Updated Type
}

func (*MapT) typeNode() {}

// StructT is a MapT additionally tagged with a module expression.
// Module holds the struct's defining-module *expression*: pre-expansion
// it may be any Type the Expander accepts there (§4.1: a literal atom,
// an attribute reference, or nil), while post-expansion it is always
// either nil or a resolved *AtomT. Keeping it a plain Type rather than
// a bare atom lets the same StructT node serve as both input and
// output, exactly like the rest of this lattice.
//
// A StructT with a known (post-expansion) Module always carries a
// __struct__ field whose value is that same *AtomT.
type StructT struct {
	Fields  []Field
	Module  Type
	Updated Type
}

func (*StructT) typeNode() {}

// StructField is the canonical label every struct carries once tagged.
const StructField Atom = "__struct__"

// ModuleAtom extracts the resolved module atom from a StructT's Module
// expression, succeeding only once Module has actually been expanded to
// a literal atom.
func ModuleAtom(module Type) (Atom, bool) {
	a, ok := module.(*AtomT)
	if !ok {
		return "", false
	}
	return a.Value, true
}

// UnionT is a disjunction. NormalizeUnion collapses equal variants; a
// UnionT should only ever be constructed through it so the invariant
// "all-equal collapses to the member" holds by construction.
type UnionT struct{ Variants []Type }

func (*UnionT) typeNode() {}

// IntersectionT is a conjunction, eliminated by Combine during
// expansion; it should not appear in a fully expanded result.
type IntersectionT struct{ Variants []Type }

func (*IntersectionT) typeNode() {}

// VariableT references a local variable slot. Input-only.
type VariableT struct{ Name string }

func (*VariableT) typeNode() {}

// AttributeT references a module attribute. Input-only.
type AttributeT struct{ Name string }

func (*AttributeT) typeNode() {}

// CallT is a remote call: Target is a lattice value (usually an atom
// naming a module, but it can be an arbitrary expanded type, e.g. a map
// literal being field-accessed). Input-only.
type CallT struct {
	Target Type
	Fun    Atom
	Args   []Type
}

func (*CallT) typeNode() {}

// LocalCallT is an unqualified call, resolved through the current
// module, then imports, then built-in modules. Input-only.
type LocalCallT struct {
	Fun  Atom
	Args []Type
}

func (*LocalCallT) typeNode() {}

// TupleNthT is a zero-based tuple projection. Input-only.
type TupleNthT struct {
	Tuple Type
	N     int
}

func (*TupleNthT) typeNode() {}
