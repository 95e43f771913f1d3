// © 2023 Microglot LLC
//
// SPDX-License-Identifier: Apache-2.0

package compiler

import (
	"regexp"
	"strconv"
	"strings"

	"gopkg.bondrewd.org/pegen.go/internal/exc"
	"gopkg.bondrewd.org/pegen.go/internal/grammar"
)

type CallKind uint8

const (
	CallRule CallKind = iota
	CallToken
	CallKeyword
	CallSoftKeyword
	CallPunct
	// CallPeek is a lookahead fused into a single token check.
	CallPeek
	// CallLookahead runs its inner call in a closure.
	CallLookahead
	CallForced
	CallCut
)

func (k CallKind) String() string {
	switch k {
	case CallRule:
		return "rule"
	case CallToken:
		return "token"
	case CallKeyword:
		return "keyword"
	case CallSoftKeyword:
		return "soft_keyword"
	case CallPunct:
		return "punct"
	case CallPeek:
		return "peek"
	case CallLookahead:
		return "lookahead"
	case CallForced:
		return "forced"
	case CallCut:
		return "cut"
	default:
		return "unknown"
	}
}

// Call describes how one item is matched against the parser.
type Call struct {
	Kind CallKind
	// Rule is set for CallRule.
	Rule *grammar.Rule
	// Symbol is the token class for CallToken and the listing name for
	// keywords and puncts.
	Symbol string
	// Text is the unquoted spelling of a literal, or the expected item of
	// a forced call.
	Text string
	// ID is the 1-based listing position of a keyword or punct.
	ID       int
	Positive bool
	// Inner is the wrapped call of a lookahead or forced item.
	Inner *Call

	// Var is the default variable the result is bound to.
	Var string
	// AlwaysTrue marks optional items: the call result is bound as is and
	// never guards the rest of the alternative.
	AlwaysTrue bool
	// Bool calls yield a success flag rather than an optional value.
	Bool      bool
	Comment   string
	Function  string
	Arguments []string
}

// Expr is the Go expression performing the call.
func (c *Call) Expr() string {
	if c.Kind == CallCut {
		return "true"
	}
	return c.Function + "(" + strings.Join(c.Arguments, ", ") + ")"
}

// presence is the Go expression that is true when the call succeeds.
func (c *Call) presence() string {
	if c.Bool {
		return c.Expr()
	}
	return c.Expr() + ".IsPresent()"
}

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

var tokenTypes = map[string]string{
	grammar.TokenEndMarker: "peg.TokenEndMarker",
	grammar.TokenName:      "peg.TokenName",
	grammar.TokenNumber:    "peg.TokenNumber",
	grammar.TokenString:    "peg.TokenString",
	grammar.TokenKeyword:   "peg.TokenKeyword",
	grammar.TokenPunct:     "peg.TokenPunct",
}

// call returns the call for item, creating helper rules the first time a
// repeat, gather or non-trivial group is seen. Calls are cached by node.
func (gen *generator) call(owner *grammar.Rule, item grammar.Item) (*Call, error) {
	if c, ok := gen.calls[item.ID()]; ok {
		return c, nil
	}
	c, err := gen.makeCall(owner, item)
	if err != nil {
		return nil, err
	}
	gen.calls[item.ID()] = c
	return c, nil
}

func (gen *generator) ruleCall(r *grammar.Rule, comment string) *Call {
	return &Call{
		Kind:     CallRule,
		Rule:     r,
		Var:      r.Name + "_var",
		Comment:  comment,
		Function: "p." + methodName(r),
	}
}

func (gen *generator) makeCall(owner *grammar.Rule, item grammar.Item) (*Call, error) {
	switch n := item.(type) {
	case *grammar.NameLeaf:
		if grammar.IsTokenClass(n.Value) {
			return &Call{
				Kind:      CallToken,
				Symbol:    n.Value,
				Var:       n.Value + "_var",
				Comment:   "token=" + n.Value,
				Function:  "p.ExpectToken",
				Arguments: []string{tokenTypes[n.Value]},
			}, nil
		}
		r := gen.g.Rule(n.Value)
		if r == nil {
			return nil, gen.abort(owner, exc.CodeUndeclaredName, "%s is neither a rule nor a token class", n.Value)
		}
		return gen.ruleCall(r, n.String()), nil
	case *grammar.StringLeaf:
		return gen.literalCall(owner, n)
	case *grammar.Group:
		if inlinable(n.Rhs) {
			return gen.call(owner, n.Rhs.Alts[0].Items[0].Item)
		}
		return gen.ruleCall(gen.groupRule(n), n.String()), nil
	case *grammar.Opt:
		inner, err := gen.call(owner, n.Node)
		if err != nil {
			return nil, err
		}
		c := *inner
		c.Var = "_opt_var"
		c.AlwaysTrue = true
		c.Comment = n.String()
		return &c, nil
	case *grammar.Repeat0:
		return gen.ruleCall(gen.loopRule(n, n.Node, grammar.RuleLoop0), n.String()), nil
	case *grammar.Repeat1:
		return gen.ruleCall(gen.loopRule(n, n.Node, grammar.RuleLoop1), n.String()), nil
	case *grammar.Gather:
		return gen.ruleCall(gen.gatherRule(n), n.String()), nil
	case *grammar.PositiveLookahead:
		return gen.lookaheadCall(owner, n.Node, true)
	case *grammar.NegativeLookahead:
		return gen.lookaheadCall(owner, n.Node, false)
	case *grammar.Forced:
		inner, err := gen.call(owner, n.Node)
		if err != nil {
			return nil, err
		}
		function := "peg.Forced"
		if inner.Bool {
			function = "peg.ForcedTrue"
		}
		return &Call{
			Kind:      CallForced,
			Text:      n.Node.String(),
			Inner:     inner,
			Var:       inner.Var,
			Bool:      inner.Bool,
			Comment:   "forced: " + inner.Comment,
			Function:  function,
			Arguments: []string{"&p.Parser", inner.Expr(), strconv.Quote(n.Node.String())},
		}, nil
	case *grammar.Cut:
		return &Call{
			Kind:    CallCut,
			Var:     "_cut",
			Bool:    true,
			Comment: "cut",
		}, nil
	default:
		return nil, gen.abort(owner, exc.CodeUnknownFatal, "unexpected item %T", item)
	}
}

// literalCall classifies a quoted literal. Double quotes make a soft
// keyword, which must not be listed. Otherwise identifier spellings are
// hard keywords and anything else is a punct; both must be listed.
func (gen *generator) literalCall(owner *grammar.Rule, n *grammar.StringLeaf) (*Call, error) {
	text := grammar.Unquote(n.Value)
	if strings.HasPrefix(n.Value, `"`) {
		if _, ok := gen.keywords.Lookup(text); ok {
			return nil, gen.abort(owner, exc.CodeUnknownLiteral, "%s is a hard keyword and cannot be used as a soft keyword", n.Value)
		}
		if _, ok := gen.puncts.Lookup(text); ok {
			return nil, gen.abort(owner, exc.CodeUnknownLiteral, "%s is a punct and cannot be used as a soft keyword", n.Value)
		}
		return &Call{
			Kind:      CallSoftKeyword,
			Text:      text,
			Var:       "_keyword",
			Comment:   "soft_keyword=" + n.Value,
			Function:  "p.ExpectSoftKeyword",
			Arguments: []string{strconv.Quote(text)},
		}, nil
	}
	if !identifier.MatchString(text) {
		entry, ok := gen.puncts.Lookup(text)
		if !ok {
			return nil, gen.abort(owner, exc.CodeUnknownLiteral, "punct %s is not in the punct listing", n.Value)
		}
		return &Call{
			Kind:      CallPunct,
			Symbol:    entry.Name,
			Text:      text,
			ID:        entry.ID,
			Var:       "_literal",
			Comment:   "punct=" + n.Value,
			Function:  "p.ExpectPunct",
			Arguments: []string{"Punct" + symbolName(entry.Name)},
		}, nil
	}
	entry, ok := gen.keywords.Lookup(text)
	if !ok {
		return nil, gen.abort(owner, exc.CodeUnknownLiteral, "keyword %s is not in the keyword listing", n.Value)
	}
	return &Call{
		Kind:      CallKeyword,
		Symbol:    entry.Name,
		Text:      text,
		ID:        entry.ID,
		Var:       "_keyword",
		Comment:   "keyword=" + n.Value,
		Function:  "p.ExpectKeyword",
		Arguments: []string{"Keyword" + symbolName(entry.Name)},
	}, nil
}

// lookaheadCall fuses direct token checks into a Peek call and wraps
// anything else in a closure.
func (gen *generator) lookaheadCall(owner *grammar.Rule, node grammar.Item, positive bool) (*Call, error) {
	inner, err := gen.call(owner, node)
	if err != nil {
		return nil, err
	}
	polarity := strconv.FormatBool(positive)
	var function string
	switch inner.Kind {
	case CallToken:
		function = "p.PeekToken"
	case CallKeyword:
		function = "p.PeekKeyword"
	case CallSoftKeyword:
		function = "p.PeekSoftKeyword"
	case CallPunct:
		function = "p.PeekPunct"
	}
	if function != "" && !inner.AlwaysTrue {
		return &Call{
			Kind:      CallPeek,
			Inner:     inner,
			Positive:  positive,
			Bool:      true,
			Comment:   "lookahead: " + inner.Comment,
			Function:  function,
			Arguments: append([]string{polarity}, inner.Arguments...),
		}, nil
	}
	return &Call{
		Kind:      CallLookahead,
		Inner:     inner,
		Positive:  positive,
		Bool:      true,
		Comment:   "lookahead: " + inner.Comment,
		Function:  "p.Lookahead",
		Arguments: []string{polarity, "func() bool { return " + inner.presence() + " }"},
	}, nil
}
