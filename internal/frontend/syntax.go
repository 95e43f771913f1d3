// © 2023 Microglot LLC
//
// SPDX-License-Identifier: Apache-2.0

package frontend

import (
	"regexp"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// nested builds a pattern for text enclosed by open and close that may
// itself contain balanced pairs up to depth levels deep.
func nested(open string, close string, depth int) string {
	class := `[^\` + open + `\` + close + `]`
	inner := class + `*`
	for x := 0; x < depth; x = x + 1 {
		inner = `(?:` + class + `|\` + open + inner + `\` + close + `)*`
	}
	return `\` + open + inner + `\` + close
}

var (
	identPattern      = `[A-Za-z_][A-Za-z0-9_]*`
	annotationPattern = nested("[", "]", 3)
	memoPattern       = `\(\s*memo\s*\)`

	// Lexer patterns must not capture.
	rulePattern    = identPattern + `\s*(?:` + annotationPattern + `)?\s*(?:` + memoPattern + `)?\s*:`
	bindingPattern = identPattern + `\s*(?:` + annotationPattern + `)?\s*=`

	ruleHeadRE = regexp.MustCompile(`^(` + identPattern + `)\s*(` + annotationPattern + `)?\s*(` + memoPattern + `)?\s*:$`)
	bindingRE  = regexp.MustCompile(`^(` + identPattern + `)\s*(` + annotationPattern + `)?\s*=$`)
)

var gramLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `#[^\n]*`},
	{Name: "Whitespace", Pattern: `\s+`},
	{Name: "RuleHead", Pattern: rulePattern},
	{Name: "Binding", Pattern: bindingPattern},
	{Name: "String", Pattern: `"""(?s:.*?)"""|'''(?s:.*?)'''|"(?:\\.|[^"\\\n])*"|'(?:\\.|[^'\\\n])*'`},
	{Name: "Action", Pattern: nested("{", "}", 3)},
	{Name: "Name", Pattern: identPattern},
	{Name: "Punct", Pattern: `&&|[|()\[\]?*+.&!~$@]`},
})

var gramParser = participle.MustBuild[gramFile](
	participle.Lexer(gramLexer),
	participle.Elide("Comment", "Whitespace"),
	participle.UseLookahead(2),
)

type gramFile struct {
	Metas []*gramMeta `parser:"@@*"`
	Rules []*gramRule `parser:"@@+"`
}

type gramMeta struct {
	Pos   lexer.Position
	Name  string  `parser:"'@' @Name"`
	Value *string `parser:"@(String | Name)?"`
}

type gramRule struct {
	Pos  lexer.Position
	Head string     `parser:"@RuleHead"`
	Alts []*gramAlt `parser:"'|'? @@ ( '|' @@ )*"`
}

type gramAlt struct {
	Pos    lexer.Position
	Items  []*gramNamedItem `parser:"@@*"`
	Action *string          `parser:"@Action?"`
}

type gramNamedItem struct {
	Pos       lexer.Position
	Forced    *gramAtom      `parser:"  '&&' @@"`
	Lookahead *gramLookahead `parser:"| @@"`
	Cut       bool           `parser:"| @'~'"`
	Binding   *string        `parser:"| @Binding?"`
	Item      *gramItem      `parser:"  @@"`
}

type gramLookahead struct {
	Op   string    `parser:"@('&' | '!')"`
	Atom *gramAtom `parser:"@@"`
}

type gramItem struct {
	Pos      lexer.Position
	Optional []*gramAlt `parser:"  '[' @@ ( '|' @@ )* ']'"`
	Atom     *gramAtom  `parser:"| @@"`
	Gather   *gramAtom  `parser:"  ( '.' @@ '+'"`
	Suffix   string     `parser:"  | @('?' | '*' | '+') )?"`
}

type gramAtom struct {
	Pos    lexer.Position
	Group  []*gramAlt `parser:"  '(' @@ ( '|' @@ )* ')'"`
	Name   string     `parser:"| @Name"`
	String string     `parser:"| @String"`
	End    bool       `parser:"| @'$'"`
}
