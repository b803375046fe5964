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

package spectext

import (
	"unicode"

	"github.com/cockroachdb/apd/v2"

	"github.com/J3RN/elixir-sense/internal/core/adt"
	"github.com/J3RN/elixir-sense/internal/core/runtime"
)

// Parser is the concrete runtime.SpecTextParser implementation.
type Parser struct{}

// Parse implements runtime.SpecTextParser.
func (Parser) Parse(src string) (runtime.SpecNode, bool) {
	p := &parser{l: newLexer(src)}
	node, ok := p.parseUnion()
	if !ok {
		return runtime.SpecNode{}, false
	}
	return node, true
}

type parser struct {
	l   *lexer
	err bool
}

func (p *parser) fail() runtime.SpecNode {
	p.err = true
	return runtime.SpecNode{}
}

func (p *parser) is(text string) bool {
	return p.l.tok.kind == tokPunct && p.l.tok.text == text
}

func (p *parser) expect(text string) bool {
	if !p.is(text) {
		p.err = true
		return false
	}
	p.l.advance()
	return true
}

// parseUnion is the entry point: `primary ('|' primary)*`.
func (p *parser) parseUnion() (runtime.SpecNode, bool) {
	first := p.parsePrimary()
	if p.err {
		return runtime.SpecNode{}, false
	}
	if !p.is("|") {
		return first, true
	}
	variants := []runtime.SpecNode{first}
	for p.is("|") {
		p.l.advance()
		v := p.parsePrimary()
		if p.err {
			return runtime.SpecNode{}, false
		}
		variants = append(variants, v)
	}
	return runtime.SpecNode{Kind: runtime.SpecUnion, Args: variants}, true
}

func (p *parser) parsePrimary() runtime.SpecNode {
	switch {
	case p.l.tok.kind == tokAtom:
		a := p.l.tok.text
		p.l.advance()
		return runtime.SpecNode{Kind: runtime.SpecAtomLit, Atom: adt.Atom(a)}

	case p.l.tok.kind == tokInt:
		d, _, err := apd.NewFromString(p.l.tok.text)
		if err != nil {
			return p.fail()
		}
		p.l.advance()
		return runtime.SpecNode{Kind: runtime.SpecIntegerLit, Int: d}

	case p.is("%"):
		return p.parsePercent()

	case p.is("{"):
		return p.parseTuple()

	case p.l.tok.kind == tokIdent:
		return p.parseIdentifierForm()

	default:
		return p.fail()
	}
}

// parsePercent handles both `%{...}` (map) and `%Mod{...}` (struct).
func (p *parser) parsePercent() runtime.SpecNode {
	p.l.advance() // consume '%'
	if p.is("{") {
		fields := p.parseFieldBody(true)
		return runtime.SpecNode{Kind: runtime.SpecMap, Fields: fields}
	}
	module := p.parseModuleName()
	if p.err {
		return p.fail()
	}
	if !p.expect("{") {
		return p.fail()
	}
	fields := p.parseStructFields()
	if !p.expect("}") {
		return p.fail()
	}
	return runtime.SpecNode{Kind: runtime.SpecStruct, Atom: adt.Atom(module), Fields: fields}
}

// parseModuleName reads a dotted, capitalized alias chain (`A.B.C`) and
// joins it into a single atom, the engine's module-naming convention.
func (p *parser) parseModuleName() string {
	if p.l.tok.kind != tokIdent || !unicode.IsUpper([]rune(p.l.tok.text)[0]) {
		p.err = true
		return ""
	}
	name := p.l.tok.text
	p.l.advance()
	for p.is(".") {
		// Only consume the dot as a module separator if it's followed
		// by another capitalized segment; otherwise it belongs to
		// whatever comes after the module (there is none here).
		save := *p.l
		p.l.advance()
		if p.l.tok.kind == tokIdent && unicode.IsUpper([]rune(p.l.tok.text)[0]) {
			name += "." + p.l.tok.text
			p.l.advance()
			continue
		}
		*p.l = save
		break
	}
	return name
}

// parseStructFields parses `a: T, b: T` without surrounding braces.
func (p *parser) parseStructFields() []runtime.SpecField {
	var fields []runtime.SpecField
	if p.is("}") {
		return fields
	}
	for {
		if p.l.tok.kind != tokIdent {
			p.err = true
			return fields
		}
		key := p.l.tok.text
		p.l.advance()
		if !p.expect(":") {
			return fields
		}
		v, ok := p.parseUnion()
		if !ok {
			return fields
		}
		fields = append(fields, runtime.SpecField{Key: adt.Atom(key), Value: v})
		if p.is(",") {
			p.l.advance()
			continue
		}
		break
	}
	return fields
}

// parseFieldBody parses a `{...}` map body, including optional(k) => v
// entries, and consumes both braces.
func (p *parser) parseFieldBody(isMap bool) []runtime.SpecField {
	if !p.expect("{") {
		return nil
	}
	var fields []runtime.SpecField
	for !p.is("}") {
		if p.l.tok.kind == tokIdent && p.l.tok.text == "optional" {
			p.l.advance()
			if !p.expect("(") {
				break
			}
			if p.l.tok.kind != tokIdent && p.l.tok.kind != tokAtom {
				p.err = true
				break
			}
			key := p.l.tok.text
			p.l.advance()
			if !p.expect(")") {
				break
			}
			if !p.expect("=>") {
				break
			}
			v, ok := p.parseUnion()
			if !ok {
				break
			}
			fields = append(fields, runtime.SpecField{Key: adt.Atom(key), Value: v, Optional: true})
		} else if p.l.tok.kind == tokIdent {
			key := p.l.tok.text
			p.l.advance()
			if !p.expect(":") {
				break
			}
			v, ok := p.parseUnion()
			if !ok {
				break
			}
			fields = append(fields, runtime.SpecField{Key: adt.Atom(key), Value: v})
		} else {
			p.err = true
			break
		}
		if p.is(",") {
			p.l.advance()
			continue
		}
		break
	}
	p.expect("}")
	_ = isMap
	return fields
}

// parseTuple parses `{T1, T2, ...}`.
func (p *parser) parseTuple() runtime.SpecNode {
	p.l.advance() // consume '{'
	var elems []runtime.SpecNode
	if !p.is("}") {
		for {
			v, ok := p.parseUnion()
			if !ok {
				return p.fail()
			}
			elems = append(elems, v)
			if p.is(",") {
				p.l.advance()
				continue
			}
			break
		}
	}
	if !p.expect("}") {
		return p.fail()
	}
	return runtime.SpecNode{Kind: runtime.SpecTuple, Args: elems}
}

// parseIdentifierForm handles `no_return()`, `map()`, a bare lowercase
// parameter reference, a nullary local type, a local type with
// arguments, and a remote type `Mod.Name(args)`.
func (p *parser) parseIdentifierForm() runtime.SpecNode {
	name := p.l.tok.text
	isUpper := unicode.IsUpper([]rune(name)[0])
	p.l.advance()

	if isUpper {
		module := name
		for p.is(".") {
			save := *p.l
			p.l.advance()
			if p.l.tok.kind == tokIdent && unicode.IsUpper([]rune(p.l.tok.text)[0]) {
				segment := p.l.tok.text
				p.l.advance()
				if p.is("(") {
					// A capitalized segment followed by arguments is the
					// type name, not another module segment.
					*p.l = save
					break
				}
				module += "." + segment
				continue
			}
			*p.l = save
			break
		}
		if !p.expect(".") {
			return p.fail()
		}
		if p.l.tok.kind != tokIdent {
			return p.fail()
		}
		fun := p.l.tok.text
		p.l.advance()
		args := p.parseOptionalArgs()
		if p.err {
			return p.fail()
		}
		return runtime.SpecNode{Kind: runtime.SpecRemoteType, Module: adt.Atom(module), Atom: adt.Atom(fun), Args: args}
	}

	if !p.is("(") {
		// Bare lowercase name with no call syntax: a parameterized
		// type's own parameter reference (§4.3).
		return runtime.SpecNode{Kind: runtime.SpecParamRef, Param: name}
	}

	args := p.parseOptionalArgs()
	if p.err {
		return p.fail()
	}

	switch name {
	case "no_return":
		return runtime.SpecNode{Kind: runtime.SpecNoReturn}
	case "map":
		if len(args) == 0 {
			return runtime.SpecNode{Kind: runtime.SpecMapNullary}
		}
	}
	return runtime.SpecNode{Kind: runtime.SpecLocalType, Atom: adt.Atom(name), Args: args}
}

// parseOptionalArgs parses a parenthesized, possibly empty argument
// list, consuming both parens.
func (p *parser) parseOptionalArgs() []runtime.SpecNode {
	if !p.is("(") {
		return nil
	}
	p.l.advance()
	var args []runtime.SpecNode
	if !p.is(")") {
		for {
			v, ok := p.parseUnion()
			if !ok {
				p.err = true
				return args
			}
			args = append(args, v)
			if p.is(",") {
				p.l.advance()
				continue
			}
			break
		}
	}
	p.expect(")")
	return args
}
