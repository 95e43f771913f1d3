// © 2023 Microglot LLC
//
// SPDX-License-Identifier: Apache-2.0

package grammar

// Item is the closed set of grammar expressions. Every implementation is
// declared in this file.
type Item interface {
	ID() NodeID
	String() string
	item()
}

type node struct {
	id NodeID
}

func (n node) ID() NodeID { return n.id }
func (n node) item()      {}

func (g *Grammar) newNode() node {
	g.nodes = g.nodes + 1
	return node{id: g.nodes}
}

// NameLeaf references a rule or a token class.
type NameLeaf struct {
	node
	Value string
}

func (n *NameLeaf) String() string {
	if n.Value == TokenEndMarker {
		return "$"
	}
	return n.Value
}

// StringLeaf is a quoted literal. Value keeps the quotes so that soft
// keywords (double quoted) can be told apart from hard ones.
type StringLeaf struct {
	node
	Value string
}

func (n *StringLeaf) String() string { return n.Value }

type Group struct {
	node
	Rhs *Rhs
}

func (n *Group) String() string { return "(" + n.Rhs.String() + ")" }

type Opt struct {
	node
	Node Item
}

func (n *Opt) String() string {
	if g, ok := n.Node.(*Group); ok {
		return "[" + g.Rhs.String() + "]"
	}
	return n.Node.String() + "?"
}

type Repeat0 struct {
	node
	Node Item
}

func (n *Repeat0) String() string { return n.Node.String() + "*" }

type Repeat1 struct {
	node
	Node Item
}

func (n *Repeat1) String() string { return n.Node.String() + "+" }

// Gather is `sep.node+`: one or more node separated by sep.
type Gather struct {
	node
	Separator Item
	Node      Item
}

func (n *Gather) String() string { return n.Separator.String() + "." + n.Node.String() + "+" }

type PositiveLookahead struct {
	node
	Node Item
}

func (n *PositiveLookahead) String() string { return "&" + n.Node.String() }

type NegativeLookahead struct {
	node
	Node Item
}

func (n *NegativeLookahead) String() string { return "!" + n.Node.String() }

// Forced turns a failed match of Node into a syntax error.
type Forced struct {
	node
	Node Item
}

func (n *Forced) String() string { return "&&" + n.Node.String() }

// Cut commits the enclosing alternative.
type Cut struct {
	node
}

func (n *Cut) String() string { return "~" }

func (g *Grammar) Name(value string) *NameLeaf {
	return &NameLeaf{node: g.newNode(), Value: value}
}

func (g *Grammar) Literal(value string) *StringLeaf {
	return &StringLeaf{node: g.newNode(), Value: value}
}

func (g *Grammar) Group(rhs *Rhs) *Group {
	return &Group{node: g.newNode(), Rhs: rhs}
}

func (g *Grammar) Opt(item Item) *Opt {
	return &Opt{node: g.newNode(), Node: item}
}

func (g *Grammar) Repeat0(item Item) *Repeat0 {
	return &Repeat0{node: g.newNode(), Node: item}
}

func (g *Grammar) Repeat1(item Item) *Repeat1 {
	return &Repeat1{node: g.newNode(), Node: item}
}

func (g *Grammar) Gather(separator Item, item Item) *Gather {
	return &Gather{node: g.newNode(), Separator: separator, Node: item}
}

func (g *Grammar) Lookahead(positive bool, item Item) Item {
	if positive {
		return &PositiveLookahead{node: g.newNode(), Node: item}
	}
	return &NegativeLookahead{node: g.newNode(), Node: item}
}

func (g *Grammar) Forced(item Item) *Forced {
	return &Forced{node: g.newNode(), Node: item}
}

func (g *Grammar) Cut() *Cut {
	return &Cut{node: g.newNode()}
}

// Walk visits item and its sub-items depth first. Children are skipped when
// f returns false.
func Walk(item Item, f func(Item) bool) {
	if !f(item) {
		return
	}
	switch n := item.(type) {
	case *NameLeaf, *StringLeaf, *Cut:
	case *Group:
		WalkRhs(n.Rhs, f)
	case *Opt:
		Walk(n.Node, f)
	case *Repeat0:
		Walk(n.Node, f)
	case *Repeat1:
		Walk(n.Node, f)
	case *Gather:
		Walk(n.Separator, f)
		Walk(n.Node, f)
	case *PositiveLookahead:
		Walk(n.Node, f)
	case *NegativeLookahead:
		Walk(n.Node, f)
	case *Forced:
		Walk(n.Node, f)
	}
}

func WalkRhs(rhs *Rhs, f func(Item) bool) {
	for _, alt := range rhs.Alts {
		for _, item := range alt.Items {
			Walk(item.Item, f)
		}
	}
}
