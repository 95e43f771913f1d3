// © 2023 Microglot LLC
//
// SPDX-License-Identifier: Apache-2.0

// Package frontend reads grammar text into the grammar model. The syntax
// is the pegen metagrammar: `@meta value` directives followed by rules of
// the form `name[type] (memo): alt | alt`.
package frontend

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
	"github.com/golang/glog"

	"gopkg.bondrewd.org/pegen.go/internal/exc"
	"gopkg.bondrewd.org/pegen.go/internal/grammar"
	"gopkg.bondrewd.org/pegen.go/internal/iter"
	"gopkg.bondrewd.org/pegen.go/internal/pegen"
	"gopkg.bondrewd.org/pegen.go/optional"
)

// Helper rule names are generated; a grammar may not declare them itself.
var reservedName = regexp.MustCompile(`^_(loop0|loop1|gather|tmp)_[0-9]+$`)

// Parse reads one grammar file. Syntax errors are reported to r and the
// first fatal one is returned.
func Parse(ctx context.Context, r exc.Reporter, f pegen.File) (*grammar.Grammar, error) {
	uri := f.Path(ctx)
	body, err := f.Body(ctx)
	if err != nil {
		return nil, err
	}
	text, err := iter.ReadAll(ctx, body)
	if err != nil {
		return nil, r.Report(exc.WrapUnknown(exc.Location{URI: uri}, err))
	}
	return ParseString(r, uri, text)
}

// ParseString is Parse for grammar text already in memory.
func ParseString(r exc.Reporter, uri string, text string) (*grammar.Grammar, error) {
	tree, err := gramParser.ParseString(uri, text)
	if err != nil {
		loc := exc.Location{URI: uri}
		message := err.Error()
		var perr participle.Error
		if errors.As(err, &perr) {
			loc.Location = location(perr.Position())
			message = perr.Message()
		}
		return nil, r.Report(exc.New(loc, exc.CodeGrammarSyntax, message))
	}
	b := &builder{
		g:   grammar.New(uri),
		r:   r,
		uri: uri,
	}
	for _, meta := range tree.Metas {
		value := optional.None[string]()
		if meta.Value != nil {
			value = optional.Some(grammar.Unquote(*meta.Value))
		}
		b.g.AddMeta(meta.Name, value)
	}
	for _, rule := range tree.Rules {
		b.rule(rule)
	}
	if b.first != nil {
		return nil, b.first
	}
	glog.V(1).Infof("parsed %d rules and %d directives from %s", len(b.g.Rules), len(b.g.Metas), uri)
	return b.g, nil
}

func location(pos lexer.Position) pegen.Location {
	return pegen.Location{
		Line:   int32(pos.Line),
		Column: int32(pos.Column),
		Offset: int32(pos.Offset),
	}
}

type builder struct {
	g       *grammar.Grammar
	r       exc.Reporter
	uri     string
	current string
	first   error
}

func (b *builder) fail(pos lexer.Position, code string, format string, args ...interface{}) {
	e := b.r.Report(exc.Newf(exc.Location{
		Location: location(pos),
		URI:      b.uri,
		Rule:     b.current,
	}, code, format, args...))
	if e != nil && b.first == nil {
		b.first = e
	}
}

func (b *builder) rule(node *gramRule) {
	head := ruleHeadRE.FindStringSubmatch(node.Head)
	if head == nil {
		b.fail(node.Pos, exc.CodeGrammarSyntax, "malformed rule head %q", node.Head)
		return
	}
	b.current = head[1]
	defer func() { b.current = "" }()
	if reservedName.MatchString(head[1]) {
		b.fail(node.Pos, exc.CodeDirectiveConflict, "rule name %s is reserved for generated rules", head[1])
		return
	}
	rule := &grammar.Rule{
		Name:       head[1],
		Annotation: stripBrackets(head[2]),
		Rhs:        b.alts(node.Alts),
		Memo:       head[3] != "",
		Location:   location(node.Pos),
	}
	if !b.g.AddRule(rule) {
		b.fail(node.Pos, exc.CodeDirectiveConflict, "rule %s is declared more than once", rule.Name)
	}
}

func stripBrackets(annotation string) string {
	if annotation == "" {
		return ""
	}
	return strings.TrimSpace(annotation[1 : len(annotation)-1])
}

func (b *builder) alts(nodes []*gramAlt) *grammar.Rhs {
	rhs := &grammar.Rhs{Alts: make([]*grammar.Alt, 0, len(nodes))}
	for _, node := range nodes {
		rhs.Alts = append(rhs.Alts, b.alt(node))
	}
	return rhs
}

func (b *builder) alt(node *gramAlt) *grammar.Alt {
	alt := &grammar.Alt{Location: location(node.Pos)}
	if len(node.Items) < 1 {
		b.fail(node.Pos, exc.CodeGrammarSyntax, "empty alternative")
	}
	for _, item := range node.Items {
		if named := b.namedItem(item); named != nil {
			alt.Items = append(alt.Items, named)
		}
	}
	if node.Action != nil {
		code := *node.Action
		alt.Action = &grammar.Action{
			Kind: grammar.ActionCode,
			Code: strings.TrimSpace(code[1 : len(code)-1]),
		}
	}
	return alt
}

func (b *builder) namedItem(node *gramNamedItem) *grammar.NamedItem {
	switch {
	case node.Forced != nil:
		return &grammar.NamedItem{Item: b.g.Forced(b.atom(node.Forced))}
	case node.Lookahead != nil:
		return &grammar.NamedItem{Item: b.g.Lookahead(node.Lookahead.Op == "&", b.atom(node.Lookahead.Atom))}
	case node.Cut:
		return &grammar.NamedItem{Item: b.g.Cut()}
	}
	named := &grammar.NamedItem{Item: b.item(node.Item)}
	if node.Binding != nil {
		binding := bindingRE.FindStringSubmatch(*node.Binding)
		if binding == nil {
			b.fail(node.Pos, exc.CodeGrammarSyntax, "malformed binding %q", *node.Binding)
			return nil
		}
		named.Name = binding[1]
		named.Annotation = stripBrackets(binding[2])
	}
	return named
}

func (b *builder) item(node *gramItem) grammar.Item {
	if node.Atom == nil {
		return b.g.Opt(b.g.Group(b.alts(node.Optional)))
	}
	atom := b.atom(node.Atom)
	if node.Gather != nil {
		return b.g.Gather(atom, b.atom(node.Gather))
	}
	switch node.Suffix {
	case "?":
		return b.g.Opt(atom)
	case "*":
		return b.g.Repeat0(atom)
	case "+":
		return b.g.Repeat1(atom)
	default:
		return atom
	}
}

func (b *builder) atom(node *gramAtom) grammar.Item {
	switch {
	case node.Group != nil:
		return b.g.Group(b.alts(node.Group))
	case node.String != "":
		return b.g.Literal(node.String)
	case node.End:
		return b.g.Name(grammar.TokenEndMarker)
	default:
		return b.g.Name(node.Name)
	}
}
