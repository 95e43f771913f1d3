// © 2023 Microglot LLC
//
// SPDX-License-Identifier: Apache-2.0

package peg

import (
	"fmt"

	"gopkg.bondrewd.org/pegen.go/optional"
)

// RuleID identifies a rule in the memo table. Generated parsers declare one
// constant per rule.
type RuleID int

type memoKey struct {
	rule RuleID
	pos  int
}

type memoEntry struct {
	value interface{}
	end   int
}

// Parser is embedded by every generated parser. It is not safe for
// concurrent use: one Parser reads one token stream.
type Parser struct {
	cursor Cursor
	memo   map[memoKey]memoEntry
}

func NewParser(c Cursor) Parser {
	return Parser{
		cursor: c,
		memo:   make(map[memoKey]memoEntry),
	}
}

func (p *Parser) Tell() int {
	return p.cursor.Tell()
}

func (p *Parser) Seek(pos int) {
	p.cursor.Seek(pos)
}

// Current returns the token at the current position without consuming it.
func (p *Parser) Current() Token {
	pos := p.cursor.Tell()
	tok := p.cursor.Next()
	p.cursor.Seek(pos)
	return tok
}

func (p *Parser) expect(match func(Token) bool) optional.Optional[Token] {
	pos := p.cursor.Tell()
	tok := p.cursor.Next()
	if !match(tok) {
		p.cursor.Seek(pos)
		return optional.None[Token]()
	}
	return optional.Some(tok)
}

func (p *Parser) ExpectToken(t TokenType) optional.Optional[Token] {
	return p.expect(func(tok Token) bool { return tok.Type == t })
}

func (p *Parser) ExpectKeyword(k Keyword) optional.Optional[Token] {
	return p.expect(func(tok Token) bool { return tok.Type == TokenKeyword && tok.Keyword == k })
}

// ExpectSoftKeyword matches a NAME token spelled text. Soft keywords are
// ordinary names to the lexer.
func (p *Parser) ExpectSoftKeyword(text string) optional.Optional[Token] {
	return p.expect(func(tok Token) bool { return tok.Type == TokenName && tok.Text == text })
}

func (p *Parser) ExpectPunct(k Punct) optional.Optional[Token] {
	return p.expect(func(tok Token) bool { return tok.Type == TokenPunct && tok.Punct == k })
}

// Lookahead runs f and restores the position. It returns whether the
// success of f matches positive.
func (p *Parser) Lookahead(positive bool, f func() bool) bool {
	pos := p.cursor.Tell()
	ok := f()
	p.cursor.Seek(pos)
	return ok == positive
}

func (p *Parser) PeekToken(positive bool, t TokenType) bool {
	return p.Lookahead(positive, func() bool { return p.ExpectToken(t).IsPresent() })
}

func (p *Parser) PeekKeyword(positive bool, k Keyword) bool {
	return p.Lookahead(positive, func() bool { return p.ExpectKeyword(k).IsPresent() })
}

func (p *Parser) PeekSoftKeyword(positive bool, text string) bool {
	return p.Lookahead(positive, func() bool { return p.ExpectSoftKeyword(text).IsPresent() })
}

func (p *Parser) PeekPunct(positive bool, k Punct) bool {
	return p.Lookahead(positive, func() bool { return p.ExpectPunct(k).IsPresent() })
}

// StoreCached records value as the result of rule at pos. The current
// position is remembered as the end of the match.
func (p *Parser) StoreCached(rule RuleID, pos int, value interface{}) {
	p.memo[memoKey{rule: rule, pos: pos}] = memoEntry{value: value, end: p.cursor.Tell()}
}

// CacheSize is the number of memoized (rule, position) results.
func (p *Parser) CacheSize() int {
	return len(p.memo)
}

// GetCached looks up the memoized result of rule at pos. On a hit the
// cursor moves to the end of the cached match.
func GetCached[T any](p *Parser, rule RuleID, pos int) (optional.Optional[T], bool) {
	entry, ok := p.memo[memoKey{rule: rule, pos: pos}]
	if !ok {
		return optional.None[T](), false
	}
	value, ok := entry.value.(optional.Optional[T])
	if !ok {
		panic(fmt.Sprintf("peg: rule %d cached %T, not %T", rule, entry.value, value))
	}
	p.cursor.Seek(entry.end)
	return value, true
}

// SyntaxError is raised when a forced item fails to match.
type SyntaxError struct {
	Expected string
	Found    Token
	Offset   int
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s: expected %s, found %s", e.Found.Pos, e.Expected, e.Found)
}

// Forced returns v when it is present and otherwise panics with a
// *SyntaxError. The panic is not caught by alternative backtracking; it
// unwinds to the parser entry point where Recover turns it into an error.
func Forced[T any](p *Parser, v optional.Optional[T], expected string) optional.Optional[T] {
	if v.IsPresent() {
		return v
	}
	panic(&SyntaxError{
		Expected: expected,
		Found:    p.Current(),
		Offset:   p.Tell(),
	})
}

// ForcedTrue is Forced for lookahead results.
func ForcedTrue(p *Parser, ok bool, expected string) bool {
	if ok {
		return true
	}
	panic(&SyntaxError{
		Expected: expected,
		Found:    p.Current(),
		Offset:   p.Tell(),
	})
}

// Recover converts a *SyntaxError panic into *err. It must be deferred
// directly:
//
//	defer peg.Recover(&err)
func Recover(err *error) {
	r := recover()
	if r == nil {
		return
	}
	if se, ok := r.(*SyntaxError); ok {
		*err = se
		return
	}
	panic(r)
}
