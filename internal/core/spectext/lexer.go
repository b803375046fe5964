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

// Package spectext implements runtime.SpecTextParser: it turns the
// small human-readable typespec surface syntax (`%Mod{a: integer()}`,
// `A | B`, `{T1, T2}`, `:atom`, `42`, `Mod.Name(args)`, `no_return()`)
// into the runtime.SpecNode tree the Spec Parser (internal/core/eval)
// understands. It is the "String-to-syntax" collaborator of §6,
// exercised by the fixture loader.
package spectext

import (
	"strings"
	"unicode"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokAtom
	tokInt
	tokPunct
)

type token struct {
	kind tokenKind
	text string
}

type lexer struct {
	src []rune
	pos int
	tok token
}

func newLexer(src string) *lexer {
	l := &lexer{src: []rune(src)}
	l.advance()
	return l
}

func (l *lexer) skipSpace() {
	for l.pos < len(l.src) && unicode.IsSpace(l.src[l.pos]) {
		l.pos++
	}
}

const punct = "{}()[],|.:%"

func (l *lexer) advance() {
	l.skipSpace()
	if l.pos >= len(l.src) {
		l.tok = token{kind: tokEOF}
		return
	}
	c := l.src[l.pos]

	if c == ':' && l.pos+1 < len(l.src) && (unicode.IsLetter(l.src[l.pos+1]) || l.src[l.pos+1] == '_') {
		l.pos++
		start := l.pos
		for l.pos < len(l.src) && isIdentRune(l.src[l.pos]) {
			l.pos++
		}
		l.tok = token{kind: tokAtom, text: string(l.src[start:l.pos])}
		return
	}

	if c == '=' && l.pos+1 < len(l.src) && l.src[l.pos+1] == '>' {
		l.pos += 2
		l.tok = token{kind: tokPunct, text: "=>"}
		return
	}

	if unicode.IsDigit(c) {
		start := l.pos
		for l.pos < len(l.src) && unicode.IsDigit(l.src[l.pos]) {
			l.pos++
		}
		l.tok = token{kind: tokInt, text: string(l.src[start:l.pos])}
		return
	}

	if unicode.IsLetter(c) || c == '_' {
		start := l.pos
		for l.pos < len(l.src) && isIdentRune(l.src[l.pos]) {
			l.pos++
		}
		l.tok = token{kind: tokIdent, text: string(l.src[start:l.pos])}
		return
	}

	if strings.ContainsRune(punct, c) {
		l.pos++
		l.tok = token{kind: tokPunct, text: string(c)}
		return
	}

	// Skip anything unrecognized (keeps the grammar forgiving of
	// surface syntax this small parser doesn't model, e.g. `when`).
	l.pos++
	l.advance()
}

func isIdentRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '!' || r == '?'
}
