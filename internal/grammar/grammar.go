// © 2023 Microglot LLC
//
// SPDX-License-Identifier: Apache-2.0

// Package grammar is the in-memory model of a PEG grammar. A Grammar is
// built once by the front end, annotated in place by the generator passes
// and then printed.
package grammar

import (
	"strings"

	"gopkg.bondrewd.org/pegen.go/internal/pegen"
	"gopkg.bondrewd.org/pegen.go/optional"
)

// NodeID is the arena index of an Item. IDs are stable for the lifetime of
// the Grammar and are used to key per-node caches.
type NodeID int32

type RuleKind uint8

const (
	RuleOrdinary RuleKind = iota
	// RuleGroup is a helper created for a parenthesized sub-expression.
	RuleGroup
	RuleLoop0
	RuleLoop1
	RuleGather
)

func (k RuleKind) String() string {
	switch k {
	case RuleOrdinary:
		return "ordinary"
	case RuleGroup:
		return "group"
	case RuleLoop0:
		return "loop0"
	case RuleLoop1:
		return "loop1"
	case RuleGather:
		return "gather"
	default:
		return "unknown"
	}
}

// Token class names as written in grammars.
const (
	TokenEndMarker = "ENDMARKER"
	TokenName      = "NAME"
	TokenNumber    = "NUMBER"
	TokenString    = "STRING"
	TokenKeyword   = "KEYWORD"
	TokenPunct     = "PUNCT"
)

var tokenClasses = map[string]bool{
	TokenEndMarker: true,
	TokenName:      true,
	TokenNumber:    true,
	TokenString:    true,
	TokenKeyword:   true,
	TokenPunct:     true,
}

// IsTokenClass reports whether name refers to a lexer token class rather
// than a rule. Token classes are always spelled in upper case.
func IsTokenClass(name string) bool {
	return tokenClasses[name]
}

type Meta struct {
	Name  string
	Value optional.Optional[string]
}

type Grammar struct {
	URI   string
	Rules []*Rule
	Metas []*Meta

	byName map[string]*Rule
	nodes  NodeID
}

func New(uri string) *Grammar {
	return &Grammar{
		URI:    uri,
		byName: make(map[string]*Rule),
	}
}

// AddRule appends r to the grammar. It returns false, leaving the grammar
// unchanged, when a rule of the same case-folded name already exists.
func (g *Grammar) AddRule(r *Rule) bool {
	key := strings.ToLower(r.Name)
	if _, ok := g.byName[key]; ok {
		return false
	}
	g.byName[key] = r
	g.Rules = append(g.Rules, r)
	return true
}

// Rule looks up a rule by case-folded name.
func (g *Grammar) Rule(name string) *Rule {
	return g.byName[strings.ToLower(name)]
}

func (g *Grammar) AddMeta(name string, value optional.Optional[string]) {
	g.Metas = append(g.Metas, &Meta{Name: name, Value: value})
}

// Meta returns the last value given to the named directive.
func (g *Grammar) Meta(name string) (optional.Optional[string], bool) {
	for x := len(g.Metas) - 1; x >= 0; x = x - 1 {
		if g.Metas[x].Name == name {
			return g.Metas[x].Value, true
		}
	}
	return optional.None[string](), false
}

func (g *Grammar) HasMeta(name string) bool {
	_, ok := g.Meta(name)
	return ok
}

func (g *Grammar) String() string {
	var b strings.Builder
	for _, r := range g.Rules {
		b.WriteString(r.String())
		b.WriteString("\n")
	}
	return b.String()
}

type Rule struct {
	Name string
	// Annotation is the raw type text from the grammar, possibly quoted.
	Annotation string
	Rhs        *Rhs
	Kind       RuleKind
	Memo       bool
	Location   pegen.Location

	// Set by analysis.
	Type          *Type
	Nullable      bool
	LeftRecursive bool
	Leader        bool
}

func (r *Rule) IsLoop() bool {
	return r.Kind == RuleLoop0 || r.Kind == RuleLoop1
}

func (r *Rule) String() string {
	head := r.Name
	if r.Annotation != "" {
		head = head + "[" + r.Annotation + "]"
	}
	if r.Memo {
		head = head + " (memo)"
	}
	res := head + ": " + r.Rhs.String()
	if len(res) < 88 {
		return res
	}
	lines := []string{head + ":"}
	for _, alt := range r.Rhs.Alts {
		lines = append(lines, "    | "+alt.String())
	}
	return strings.Join(lines, "\n")
}

type Rhs struct {
	Alts []*Alt
}

func (r *Rhs) String() string {
	parts := make([]string, 0, len(r.Alts))
	for _, alt := range r.Alts {
		parts = append(parts, alt.String())
	}
	return strings.Join(parts, " | ")
}

type ActionKind uint8

const (
	// ActionCode is user supplied Go expression text.
	ActionCode ActionKind = iota
	// ActionTake yields the value bound by one item of the alternative.
	ActionTake
	// ActionGather joins a gather head element with its tail sequence.
	ActionGather
)

type Action struct {
	Kind ActionKind
	Code string
	Item int
}

type Alt struct {
	Items    []*NamedItem
	Action   *Action
	Location pegen.Location

	Type *Type
}

func (a *Alt) String() string {
	parts := make([]string, 0, len(a.Items))
	for _, item := range a.Items {
		parts = append(parts, item.String())
	}
	return strings.Join(parts, " ")
}

type NamedItem struct {
	Name       string
	Annotation string
	Item       Item

	Type *Type
}

func (n *NamedItem) String() string {
	if n.Name == "" {
		return n.Item.String()
	}
	return n.Name + "=" + n.Item.String()
}
