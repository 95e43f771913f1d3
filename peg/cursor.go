// © 2023 Microglot LLC
//
// SPDX-License-Identifier: Apache-2.0

package peg

// Cursor is a seekable token stream. Positions are token indexes. Reading
// the end marker does not advance, so the end marker can be matched any
// number of times without making progress.
type Cursor interface {
	Tell() int
	Seek(pos int)
	// Next returns the token at the current position and advances past it
	// unless it is the end marker.
	Next() Token
}

// TokenSource yields tokens one at a time. It returns false once the input
// is exhausted.
type TokenSource func() (Token, bool)

// NewStreamCursor buffers tokens from src as they are first needed. An end
// marker is appended when src is exhausted.
func NewStreamCursor(src TokenSource) *StreamCursor {
	return &StreamCursor{src: src}
}

// NewSliceCursor is a cursor over a fixed set of tokens.
func NewSliceCursor(tokens []Token) *StreamCursor {
	offset := 0
	return NewStreamCursor(func() (Token, bool) {
		if offset >= len(tokens) {
			return Token{}, false
		}
		offset = offset + 1
		return tokens[offset-1], true
	})
}

type StreamCursor struct {
	src    TokenSource
	tokens []Token
	pos    int
	done   bool
}

func (c *StreamCursor) fill(pos int) {
	for !c.done && len(c.tokens) <= pos {
		tok, ok := c.src()
		if !ok || tok.Type == TokenEndMarker {
			if !ok {
				tok = c.endMarker()
			}
			c.tokens = append(c.tokens, tok)
			c.done = true
			return
		}
		c.tokens = append(c.tokens, tok)
	}
}

func (c *StreamCursor) endMarker() Token {
	if len(c.tokens) == 0 {
		return Token{Type: TokenEndMarker, Pos: Position{Line: 1, Column: 1}}
	}
	last := c.tokens[len(c.tokens)-1]
	return Token{
		Type: TokenEndMarker,
		Pos:  Position{Line: last.Pos.Line, Column: last.Pos.Column + len(last.Text)},
	}
}

func (c *StreamCursor) Tell() int {
	return c.pos
}

func (c *StreamCursor) Seek(pos int) {
	c.pos = pos
}

// Peek returns the token at the current position without advancing.
func (c *StreamCursor) Peek() Token {
	c.fill(c.pos)
	if c.pos >= len(c.tokens) {
		return c.tokens[len(c.tokens)-1]
	}
	return c.tokens[c.pos]
}

func (c *StreamCursor) Next() Token {
	tok := c.Peek()
	if tok.Type != TokenEndMarker {
		c.pos = c.pos + 1
	}
	return tok
}

// Buffered reports how many tokens have been read from the source.
func (c *StreamCursor) Buffered() int {
	return len(c.tokens)
}
