// © 2023 Microglot LLC
//
// SPDX-License-Identifier: Apache-2.0

package compiler

import (
	"fmt"
	"sort"

	"gopkg.bondrewd.org/pegen.go/internal/exc"
	"gopkg.bondrewd.org/pegen.go/internal/grammar"
	"gopkg.bondrewd.org/pegen.go/internal/listing"
	"gopkg.bondrewd.org/pegen.go/peg"
)

// Mode selects how a rule body is generated.
type Mode uint8

const (
	ModeOrdinary Mode = iota
	ModeLoop
	// ModeLeader grows a left-recursive rule from a failed seed.
	ModeLeader
)

func (m Mode) String() string {
	switch m {
	case ModeOrdinary:
		return "ordinary"
	case ModeLoop:
		return "loop"
	case ModeLeader:
		return "leader"
	default:
		return "unknown"
	}
}

// Plan is everything needed to print or interpret a compiled grammar.
type Plan struct {
	Grammar   *grammar.Grammar
	Subheader string
	Trailer   string
	Keywords  *listing.Listing
	Puncts    *listing.Listing
	// Rules are in grammar order followed by helpers in creation order.
	Rules     []*RulePlan
	Start     *RulePlan
	TypeNames grammar.TypeNames

	byRule map[*grammar.Rule]*RulePlan
}

// Rule finds the plan of a rule by name.
func (p *Plan) Rule(name string) *RulePlan {
	r := p.Grammar.Rule(name)
	if r == nil {
		return nil
	}
	return p.byRule[r]
}

// For returns the plan of r.
func (p *Plan) For(r *grammar.Rule) *RulePlan {
	return p.byRule[r]
}

type RulePlan struct {
	Rule *grammar.Rule
	// Index is the memo key. Indexes follow the sorted rule names.
	Index     peg.RuleID
	ID        string
	Method    string
	RawMethod string
	Type      *grammar.Type
	Mode      Mode
	Cache     bool
	Loop1     bool
	Alts      []*AltPlan
}

type AltPlan struct {
	Alt    *grammar.Alt
	Steps  []*Step
	HasCut bool
	// Action is the Go expression producing the result.
	Action string
}

type Step struct {
	Item *grammar.NamedItem
	Call *Call
	// Var is the variable bound to the item's value. Bool calls bind
	// nothing.
	Var string
}

func (gen *generator) plan() (*Plan, error) {
	p := &Plan{
		Grammar:   gen.g,
		Keywords:  gen.keywords,
		Puncts:    gen.puncts,
		TypeNames: gen.names,
		byRule:    make(map[*grammar.Rule]*RulePlan, len(gen.g.Rules)),
	}
	if v, ok := gen.g.Meta("subheader"); ok {
		p.Subheader = v.ValueOr("")
	}
	if v, ok := gen.g.Meta("trailer"); ok {
		p.Trailer = v.ValueOr("")
	}
	names := make([]string, 0, len(gen.g.Rules))
	for _, r := range gen.g.Rules {
		names = append(names, r.Name)
	}
	sort.Strings(names)
	index := make(map[string]peg.RuleID, len(names))
	for offset, name := range names {
		index[name] = peg.RuleID(offset)
	}
	for _, r := range gen.g.Rules {
		rp, err := gen.rulePlan(r)
		if err != nil {
			return nil, err
		}
		rp.Index = index[r.Name]
		p.Rules = append(p.Rules, rp)
		p.byRule[r] = rp
	}
	if start := gen.g.Rule("start"); start != nil {
		p.Start = p.byRule[start]
	}
	return p, nil
}

func (gen *generator) rulePlan(r *grammar.Rule) (*RulePlan, error) {
	rp := &RulePlan{
		Rule:   r,
		ID:     ruleConst(r),
		Method: methodName(r),
		Type:   r.Type,
		Cache:  r.Memo && !r.LeftRecursive,
		Loop1:  r.Kind == grammar.RuleLoop1,
	}
	switch {
	case r.IsLoop():
		rp.Mode = ModeLoop
	case r.LeftRecursive && r.Leader:
		rp.Mode = ModeLeader
		rp.RawMethod = rawMethodName(r)
	}
	for _, alt := range r.Rhs.Alts {
		ap, err := gen.altPlan(r, alt)
		if err != nil {
			return nil, err
		}
		rp.Alts = append(rp.Alts, ap)
	}
	return rp, nil
}

func (gen *generator) altPlan(r *grammar.Rule, alt *grammar.Alt) (*AltPlan, error) {
	ap := &AltPlan{Alt: alt}
	used := map[string]bool{}
	dedupe := func(name string) string {
		candidate := name
		for n := 1; used[candidate]; n = n + 1 {
			candidate = fmt.Sprintf("%s_%d", name, n)
		}
		used[candidate] = true
		return candidate
	}
	for _, item := range alt.Items {
		c, err := gen.call(r, item.Item)
		if err != nil {
			return nil, err
		}
		step := &Step{Item: item, Call: c}
		switch {
		case c.Kind == CallCut:
			ap.HasCut = true
		case c.Bool:
		case item.Name != "":
			step.Var = dedupe(item.Name)
		default:
			step.Var = dedupe(c.Var)
		}
		ap.Steps = append(ap.Steps, step)
	}
	if alt.Action == nil {
		return nil, gen.abort(r, exc.CodeAmbiguousAction, "alternative `%s` has no action", alt)
	}
	switch alt.Action.Kind {
	case grammar.ActionCode:
		ap.Action = alt.Action.Code
	case grammar.ActionTake:
		ap.Action = ap.Steps[alt.Action.Item].Var
		if ap.Action == "" {
			return nil, gen.abort(r, exc.CodeAmbiguousAction, "alternative `%s` returns %s which has no value", alt, alt.Items[alt.Action.Item])
		}
	case grammar.ActionGather:
		ap.Action = fmt.Sprintf("append(%s{%s}, %s...)", r.Type.Render(gen.names), ap.Steps[0].Var, ap.Steps[1].Var)
	}
	return ap, nil
}
