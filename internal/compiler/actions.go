// © 2023 Microglot LLC
//
// SPDX-License-Identifier: Apache-2.0

package compiler

import (
	"github.com/golang/glog"

	"gopkg.bondrewd.org/pegen.go/internal/exc"
	"gopkg.bondrewd.org/pegen.go/internal/grammar"
)

// contributes reports whether item yields a value worth returning.
// Literals, lookaheads and cuts only guard the alternative.
func contributes(item grammar.Item) bool {
	switch n := item.(type) {
	case *grammar.NameLeaf, *grammar.Group:
		return true
	case *grammar.Opt:
		return contributes(n.Node)
	case *grammar.Repeat0:
		return contributes(n.Node)
	case *grammar.Repeat1:
		return contributes(n.Node)
	case *grammar.Gather:
		return contributes(n.Node)
	case *grammar.Forced:
		return contributes(n.Node)
	case *grammar.StringLeaf, *grammar.PositiveLookahead, *grammar.NegativeLookahead, *grammar.Cut:
		return false
	default:
		return false
	}
}

// defaultAction picks the item an alternative without an action returns:
// the only contributing item, else the only named item, else a lone
// literal.
func defaultAction(alt *grammar.Alt) (*grammar.Action, bool) {
	contributing := -1
	named := -1
	nContributing, nNamed := 0, 0
	for offset, item := range alt.Items {
		if contributes(item.Item) {
			contributing = offset
			nContributing = nContributing + 1
		}
		if item.Name != "" {
			named = offset
			nNamed = nNamed + 1
		}
	}
	switch {
	case nContributing == 1:
		return &grammar.Action{Kind: grammar.ActionTake, Item: contributing}, true
	case nNamed == 1:
		return &grammar.Action{Kind: grammar.ActionTake, Item: named}, true
	case len(alt.Items) == 1:
		if _, ok := alt.Items[0].Item.(*grammar.StringLeaf); ok {
			return &grammar.Action{Kind: grammar.ActionTake, Item: 0}, true
		}
	}
	return nil, false
}

// synthesizeActions fills in the action of every alternative that has
// none. It must run before type deduction.
func (gen *generator) synthesizeActions() error {
	var first error
	for _, r := range gen.g.Rules {
		for _, alt := range r.Rhs.Alts {
			if alt.Action != nil {
				continue
			}
			action, ok := defaultAction(alt)
			if !ok {
				e := gen.reporter.Report(exc.Newf(exc.Location{
					Location: alt.Location,
					URI:      gen.g.URI,
					Rule:     r.Name,
				}, exc.CodeAmbiguousAction, "cannot choose a default action for alternative `%s`", alt))
				if e != nil && first == nil {
					first = e
				}
				continue
			}
			alt.Action = action
			glog.V(2).Infof("%s: rule %s: `%s` takes %s", gen.g.URI, r.Name, alt, alt.Items[action.Item])
		}
	}
	return first
}
