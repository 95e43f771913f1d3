// © 2023 Microglot LLC
//
// SPDX-License-Identifier: Apache-2.0

// Package peg is the runtime used by generated parsers. It provides the
// token cursor, the memo table and the helpers that generated rule methods
// call for lookahead, forced items and caching.
package peg

import "fmt"

type TokenType uint8

const (
	TokenEndMarker TokenType = iota
	TokenName
	TokenNumber
	TokenString
	TokenKeyword
	TokenPunct
)

func (t TokenType) String() string {
	switch t {
	case TokenEndMarker:
		return "ENDMARKER"
	case TokenName:
		return "NAME"
	case TokenNumber:
		return "NUMBER"
	case TokenString:
		return "STRING"
	case TokenKeyword:
		return "KEYWORD"
	case TokenPunct:
		return "PUNCT"
	default:
		return fmt.Sprintf("TokenType(%d)", uint8(t))
	}
}

// Keyword and Punct are the identifiers generated from token listings.
// Zero means "not a keyword" or "not a punct".
type Keyword uint16
type Punct uint16

type Position struct {
	Line   int
	Column int
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

type Token struct {
	Type    TokenType
	Keyword Keyword
	Punct   Punct
	Text    string
	Pos     Position
}

func (t Token) String() string {
	if t.Type == TokenEndMarker {
		return "end of input"
	}
	return fmt.Sprintf("%s %q", t.Type, t.Text)
}
