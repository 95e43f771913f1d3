// © 2023 Microglot LLC
//
// SPDX-License-Identifier: Apache-2.0

package compiler

import (
	"strings"

	"github.com/golang/glog"

	"gopkg.bondrewd.org/pegen.go/internal/exc"
	"gopkg.bondrewd.org/pegen.go/internal/grammar"
)

// deduced is the outcome of typing one item. A nil typ means the type is
// not known; ignored items yield no value at all.
type deduced struct {
	typ     *grammar.Type
	ignored bool
}

var ignoredType = deduced{ignored: true}

// deducer infers rule types. stack holds the rules being deduced so that
// unannotated recursion is caught instead of looping forever.
type deducer struct {
	gen     *generator
	stack   []*grammar.Rule
	visited map[*grammar.Rule]bool
}

func (gen *generator) deduceTypes() error {
	d := &deducer{
		gen:     gen,
		visited: make(map[*grammar.Rule]bool, len(gen.g.Rules)),
	}
	for _, r := range gen.g.Rules {
		if _, err := d.ruleType(r); err != nil {
			return err
		}
	}
	return nil
}

func (d *deducer) active(r *grammar.Rule) bool {
	for _, s := range d.stack {
		if s == r {
			return true
		}
	}
	return false
}

// annotation parses user supplied type text.
func (d *deducer) annotation(text string) *grammar.Type {
	t := d.gen.names.Parse(grammar.Unquote(text))
	if d.gen.wrap {
		t = d.gen.names.Wrap(t)
	}
	return t
}

func (d *deducer) ruleType(r *grammar.Rule) (*grammar.Type, error) {
	if r.Type != nil && (d.visited[r] || d.active(r)) {
		return r.Type, nil
	}
	if d.active(r) {
		return nil, d.gen.abort(r, exc.CodeRecursiveType, "cannot deduce type for recursive rule %s; annotate it", r.Name)
	}
	d.stack = append(d.stack, r)
	t, err := d.visitRule(r)
	d.stack = d.stack[:len(d.stack)-1]
	if err != nil {
		return nil, err
	}
	d.visited[r] = true
	r.Type = t
	glog.V(2).Infof("%s: rule %s has type %s", d.gen.g.URI, r.Name, t)
	return t, nil
}

func (d *deducer) visitRule(r *grammar.Rule) (*grammar.Type, error) {
	if r.Annotation != "" {
		// Fixed before the alternatives are visited so they may recurse.
		r.Type = d.annotation(r.Annotation)
		if _, err := d.rhs(r.Rhs); err != nil {
			return nil, err
		}
		return r.Type, nil
	}
	if r.IsLoop() {
		elem, err := d.alt(r.Rhs.Alts[0])
		if err != nil {
			return nil, err
		}
		if elem.typ == nil {
			return nil, d.gen.abort(r, exc.CodeUndeducibleType, "cannot deduce type for rule %s: the repeated item `%s` has no type", r.Name, r.Rhs.Alts[0])
		}
		return grammar.SequenceOf(elem.typ), nil
	}
	// A gather alternative takes the type of its tail loop.
	candidates, err := d.rhs(r.Rhs)
	if err != nil {
		return nil, err
	}
	if len(candidates) != 1 {
		names := make([]string, 0, len(candidates))
		for _, c := range candidates {
			names = append(names, c.Render(d.gen.names))
		}
		reason := "no alternative has a known type"
		if len(candidates) > 1 {
			reason = "alternatives disagree between " + strings.Join(names, ", ")
		}
		return nil, d.gen.abort(r, exc.CodeUndeducibleType, "cannot deduce type for rule %s: %s", r.Name, reason)
	}
	return candidates[0], nil
}

// rhs types every alternative and returns the distinct known types in
// order of appearance.
func (d *deducer) rhs(rhs *grammar.Rhs) ([]*grammar.Type, error) {
	var candidates []*grammar.Type
	for _, alt := range rhs.Alts {
		t, err := d.alt(alt)
		if err != nil {
			return nil, err
		}
		if t.typ == nil || t.ignored {
			continue
		}
		seen := false
		for _, c := range candidates {
			if c.Equal(t.typ) {
				seen = true
				break
			}
		}
		if !seen {
			candidates = append(candidates, t.typ)
		}
	}
	return candidates, nil
}

func (d *deducer) alt(alt *grammar.Alt) (deduced, error) {
	types := make([]deduced, len(alt.Items))
	for offset, item := range alt.Items {
		t, err := d.namedItem(item)
		if err != nil {
			return deduced{}, err
		}
		item.Type = t.typ
		types[offset] = t
	}
	var result deduced
	if alt.Action != nil {
		switch alt.Action.Kind {
		case grammar.ActionTake:
			result = types[alt.Action.Item]
		case grammar.ActionGather:
			result = types[1]
		case grammar.ActionCode:
			// Only an action naming a bound item has a known type.
			for offset, item := range alt.Items {
				if item.Name != "" && item.Name == alt.Action.Code {
					result = types[offset]
				}
			}
		}
	}
	alt.Type = result.typ
	return result, nil
}

func (d *deducer) namedItem(item *grammar.NamedItem) (deduced, error) {
	if item.Annotation != "" {
		if _, err := d.item(item.Item); err != nil {
			return deduced{}, err
		}
		return deduced{typ: d.annotation(item.Annotation)}, nil
	}
	return d.item(item.Item)
}

func (d *deducer) item(item grammar.Item) (deduced, error) {
	switch n := item.(type) {
	case *grammar.NameLeaf:
		if grammar.IsTokenClass(n.Value) {
			return deduced{typ: grammar.TokenType()}, nil
		}
		return d.helperType(d.gen.g.Rule(n.Value))
	case *grammar.StringLeaf:
		return deduced{typ: grammar.TokenType()}, nil
	case *grammar.Group:
		if inlinable(n.Rhs) {
			return d.namedItem(n.Rhs.Alts[0].Items[0])
		}
		return d.helperType(d.gen.helpers[n.ID()])
	case *grammar.Opt:
		inner, err := d.item(n.Node)
		if err != nil || inner.typ == nil {
			return inner, err
		}
		return deduced{typ: grammar.OptionalOf(inner.typ)}, nil
	case *grammar.Repeat0, *grammar.Repeat1, *grammar.Gather:
		return d.helperType(d.gen.helpers[n.ID()])
	case *grammar.Forced:
		return d.item(n.Node)
	case *grammar.PositiveLookahead, *grammar.NegativeLookahead, *grammar.Cut:
		return ignoredType, nil
	default:
		return deduced{}, nil
	}
}

func (d *deducer) helperType(r *grammar.Rule) (deduced, error) {
	t, err := d.ruleType(r)
	if err != nil {
		return deduced{}, err
	}
	return deduced{typ: t}, nil
}
