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

// Package fixture loads a YAML-described runtime.Environment plus a fake
// StructProvider implementation, for tests and the cmd/expand CLI that
// don't have a real host language compiler to introspect (§10.4 of
// SPEC_FULL.md). No IntrospectionProvider is built: a loaded
// Environment's Introspection is nil.
package fixture

import (
	"github.com/cockroachdb/apd/v2"
	"gopkg.in/yaml.v3"

	"github.com/J3RN/elixir-sense/errors"
	"github.com/J3RN/elixir-sense/internal/core/adt"
	"github.com/J3RN/elixir-sense/internal/core/runtime"
	"github.com/J3RN/elixir-sense/internal/core/spectext"
)

// doc is the YAML shape a fixture file takes.
type doc struct {
	CurrentModule string            `yaml:"current_module"`
	Imports       []string          `yaml:"imports"`
	Variables     map[string]string `yaml:"variables"`
	Attributes    map[string]string `yaml:"attributes"`

	StructRegistry map[string][]string `yaml:"struct_registry"`

	Specs []struct {
		Module   string   `yaml:"module"`
		Fun      string   `yaml:"fun"`
		Arity    int      `yaml:"arity"`
		Variants []string `yaml:"variants"`
	} `yaml:"specs"`

	Types []struct {
		Module string   `yaml:"module"`
		Name   string   `yaml:"name"`
		Arity  int      `yaml:"arity"`
		Kind   string   `yaml:"kind"`
		Params []string `yaml:"params"`
		Spec   string   `yaml:"spec"`
	} `yaml:"types"`

	ModsAndFuns []struct {
		Module  string `yaml:"module"`
		Fun     string `yaml:"fun"`
		Kind    string `yaml:"kind"`
		Arities []struct {
			Declared int `yaml:"declared"`
			Defaults int `yaml:"defaults"`
		} `yaml:"arities"`
	} `yaml:"mods_and_funs"`

	Expression string `yaml:"expression"`
}

// Fixture is a loaded test/CLI case: a ready Environment plus the
// binding expression to expand, already parsed into the lattice.
type Fixture struct {
	Env        *runtime.Environment
	Expression adt.Type
}

// Load parses src (a fixture's YAML body) into a Fixture.
func Load(src []byte) (*Fixture, error) {
	var d doc
	if err := yaml.Unmarshal(src, &d); err != nil {
		return nil, errors.Newf("fixture", "parsing fixture: %v", err)
	}

	p := spectext.Parser{}

	env := &runtime.Environment{
		Structs:     structProvider(d.StructRegistry),
		ModsAndFuns: map[runtime.ModFunKey]runtime.ModFunInfo{},
		Specs:       map[runtime.FunKey]runtime.SpecInfo{},
		Types:       map[runtime.TypeKey]runtime.TypeInfo{},
	}

	if d.CurrentModule != "" {
		m := adt.Atom(d.CurrentModule)
		env.CurrentModule = &m
	}
	for _, imp := range d.Imports {
		env.Imports = append(env.Imports, adt.Atom(imp))
	}

	for name, src := range d.Variables {
		t, err := literal(p, src)
		if err != nil {
			return nil, errors.Wrapf(err, "fixture", "variable %q", name)
		}
		env.Variables = append(env.Variables, runtime.VarRecord{Name: name, Type: t})
	}
	for name, src := range d.Attributes {
		t, err := literal(p, src)
		if err != nil {
			return nil, errors.Wrapf(err, "fixture", "attribute %q", name)
		}
		env.Attributes = append(env.Attributes, runtime.AttrRecord{Name: name, Type: t})
	}

	for _, s := range d.Specs {
		variants := make([]runtime.SpecNode, len(s.Variants))
		for i, v := range s.Variants {
			node, ok := p.Parse(v)
			if !ok {
				return nil, errors.Newf("fixture", "parsing spec %s.%s/%d variant %q", s.Module, s.Fun, s.Arity, v)
			}
			variants[i] = node
		}
		key := runtime.FunKey{Module: adt.Atom(s.Module), Fun: adt.Atom(s.Fun), Arity: s.Arity}
		env.Specs[key] = runtime.SpecInfo{Variants: variants}
	}

	for _, t := range d.Types {
		node, ok := p.Parse(t.Spec)
		if !ok {
			return nil, errors.Newf("fixture", "parsing type %s.%s/%d", t.Module, t.Name, t.Arity)
		}
		key := runtime.TypeKey{Module: adt.Atom(t.Module), Name: adt.Atom(t.Name), Arity: t.Arity}
		env.Types[key] = runtime.TypeInfo{Kind: typeKind(t.Kind), Params: t.Params, Spec: node}
	}

	for _, mf := range d.ModsAndFuns {
		arities := make([]runtime.ArityInfo, len(mf.Arities))
		for i, a := range mf.Arities {
			arities[i] = runtime.ArityInfo{Declared: a.Declared, Defaults: a.Defaults}
		}
		key := runtime.ModFunKey{Module: adt.Atom(mf.Module), Fun: adt.Atom(mf.Fun)}
		env.ModsAndFuns[key] = runtime.ModFunInfo{Kind: funcKind(mf.Kind), Arities: arities}
	}

	var expr adt.Type
	if d.Expression != "" {
		t, err := bindingExpr(p, d.Expression)
		if err != nil {
			return nil, errors.Wrapf(err, "fixture", "expression")
		}
		expr = t
	}

	return &Fixture{Env: env, Expression: expr}, nil
}

func typeKind(s string) runtime.TypeKind {
	switch s {
	case "opaque":
		return runtime.TypeKindOpaque
	case "typep":
		return runtime.TypeKindTypep
	default:
		return runtime.TypeKindType
	}
}

func funcKind(s string) runtime.FuncKind {
	switch s {
	case "defp":
		return runtime.FuncDefp
	case "defmacro":
		return runtime.FuncDefmacro
	case "defguard":
		return runtime.FuncDefguard
	case "defdelegate":
		return runtime.FuncDefdelegate
	default:
		return runtime.FuncDef
	}
}

// ParseLiteral converts spec text into a binding expression the same way
// a fixture's expression field is converted, without needing a full
// fixture document around it (used by cmd/expand's --expr override).
func ParseLiteral(src string) (adt.Type, error) {
	return bindingExpr(spectext.Parser{}, src)
}

// literal converts fixture spec text into an adt.Type directly, without
// involving the Type/Call Resolvers: a variable's or attribute's
// recorded type is always a concrete shape (atoms, integers, structs,
// maps, tuples, unions), never a type reference. The expression under
// test goes through bindingExpr instead.
func literal(p spectext.Parser, src string) (adt.Type, error) {
	node, ok := p.Parse(src)
	if !ok {
		return nil, errors.Newf("fixture", "parsing %q", src)
	}
	return literalFromNode(node)
}

func literalFromNode(node runtime.SpecNode) (adt.Type, error) {
	switch node.Kind {
	case runtime.SpecAtomLit:
		return &adt.AtomT{Value: node.Atom}, nil
	case runtime.SpecIntegerLit:
		v := node.Int
		if v == nil {
			v = apd.New(0, 0)
		}
		return &adt.IntegerT{Value: v}, nil
	case runtime.SpecNoReturn:
		return adt.None, nil
	case runtime.SpecMapNullary:
		return &adt.MapT{}, nil
	case runtime.SpecTuple:
		elems := make([]adt.Type, len(node.Args))
		for i, a := range node.Args {
			t, err := literalFromNode(a)
			if err != nil {
				return nil, err
			}
			elems[i] = t
		}
		return &adt.TupleT{Elems: elems}, nil
	case runtime.SpecUnion:
		variants := make([]adt.Type, len(node.Args))
		for i, a := range node.Args {
			t, err := literalFromNode(a)
			if err != nil {
				return nil, err
			}
			variants[i] = t
		}
		return adt.NormalizeUnion(variants), nil
	case runtime.SpecMap:
		fields, err := literalFields(node.Fields)
		if err != nil {
			return nil, err
		}
		return &adt.MapT{Fields: fields}, nil
	case runtime.SpecStruct:
		fields, err := literalFields(node.Fields)
		if err != nil {
			return nil, err
		}
		return &adt.StructT{Fields: fields, Module: &adt.AtomT{Value: node.Atom}}, nil
	default:
		return nil, errors.Newf("fixture", "%v is not a literal value", node.Kind)
	}
}

func literalFields(specFields []runtime.SpecField) ([]adt.Field, error) {
	fields := make([]adt.Field, len(specFields))
	for i, f := range specFields {
		v, err := literalFromNode(f.Value)
		if err != nil {
			return nil, err
		}
		fields[i] = adt.Field{Key: f.Key, Value: v}
	}
	return fields, nil
}

// bindingExpr parses src as a fixture's binding expression: unlike
// literal (used for variables/attributes, which the Environment always
// records as already-resolved types), an expression is exactly what
// Expand needs something to do with, so it reuses the same spec-text
// grammar's call syntax to build adt.CallT/LocalCallT/VariableT nodes
// instead of rejecting them.
func bindingExpr(p spectext.Parser, src string) (adt.Type, error) {
	node, ok := p.Parse(src)
	if !ok {
		return nil, errors.Newf("fixture", "parsing %q", src)
	}
	return exprFromNode(node)
}

// exprFromNode mirrors literalFromNode but interprets the three
// reference-shaped SpecNode kinds as binding-expression constructors
// rather than rejecting them: Mod.Name(args) becomes a Call on Mod,
// name(args) becomes a LocalCall, and a bare lowercase identifier
// becomes a Variable reference.
func exprFromNode(node runtime.SpecNode) (adt.Type, error) {
	switch node.Kind {
	case runtime.SpecRemoteType:
		args, err := exprArgs(node.Args)
		if err != nil {
			return nil, err
		}
		return &adt.CallT{Target: &adt.AtomT{Value: node.Module}, Fun: node.Atom, Args: args}, nil

	case runtime.SpecLocalType:
		args, err := exprArgs(node.Args)
		if err != nil {
			return nil, err
		}
		return &adt.LocalCallT{Fun: node.Atom, Args: args}, nil

	case runtime.SpecParamRef:
		return &adt.VariableT{Name: node.Param}, nil

	case runtime.SpecUnion:
		variants, err := exprArgs(node.Args)
		if err != nil {
			return nil, err
		}
		return &adt.UnionT{Variants: variants}, nil

	case runtime.SpecTuple:
		elems, err := exprArgs(node.Args)
		if err != nil {
			return nil, err
		}
		return &adt.TupleT{Elems: elems}, nil

	case runtime.SpecMap:
		fields, err := exprFields(node.Fields)
		if err != nil {
			return nil, err
		}
		return &adt.MapT{Fields: fields}, nil

	case runtime.SpecStruct:
		fields, err := exprFields(node.Fields)
		if err != nil {
			return nil, err
		}
		return &adt.StructT{Fields: fields, Module: &adt.AtomT{Value: node.Atom}}, nil

	default:
		return literalFromNode(node)
	}
}

func exprArgs(nodes []runtime.SpecNode) ([]adt.Type, error) {
	out := make([]adt.Type, len(nodes))
	for i, n := range nodes {
		v, err := exprFromNode(n)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func exprFields(specFields []runtime.SpecField) ([]adt.Field, error) {
	fields := make([]adt.Field, len(specFields))
	for i, f := range specFields {
		v, err := exprFromNode(f.Value)
		if err != nil {
			return nil, err
		}
		fields[i] = adt.Field{Key: f.Key, Value: v}
	}
	return fields, nil
}

// fakeStructs is the StructProvider a struct_registry stanza builds.
type fakeStructs map[adt.Atom][]adt.Atom

func structProvider(reg map[string][]string) runtime.StructProvider {
	out := make(fakeStructs, len(reg))
	for module, fields := range reg {
		atoms := make([]adt.Atom, len(fields))
		for i, f := range fields {
			atoms[i] = adt.Atom(f)
		}
		out[adt.Atom(module)] = atoms
	}
	return out
}

func (f fakeStructs) IsStruct(module adt.Atom) bool {
	_, ok := f[module]
	return ok
}

func (f fakeStructs) Fields(module adt.Atom) []adt.Atom {
	return f[module]
}
