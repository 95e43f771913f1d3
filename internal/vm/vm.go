// © 2023 Microglot LLC
//
// SPDX-License-Identifier: Apache-2.0

// Package vm interprets compiled rule plans directly over a token cursor.
// It follows the control flow of generated parsers step for step, which
// makes it possible to exercise a grammar without building Go code.
package vm

import (
	"fmt"

	"github.com/golang/glog"

	"gopkg.bondrewd.org/pegen.go/internal/compiler"
	"gopkg.bondrewd.org/pegen.go/internal/grammar"
	"gopkg.bondrewd.org/pegen.go/optional"
	"gopkg.bondrewd.org/pegen.go/peg"
)

// Bindings are the values matched by the items of one alternative, keyed
// by the variable names generated code would use.
type Bindings map[string]interface{}

// ActionFunc evaluates the action code of an alternative of rule. Actions
// that are just a binding name never reach it.
type ActionFunc func(rule string, code string, b Bindings) interface{}

// Stats counts the work done by a VM.
type Stats struct {
	// Traversals is the number of alternatives tried.
	Traversals int
	// Hits counts memo table hits of cached rules.
	Hits int
	// Raw counts evaluations of left-recursive leader bodies.
	Raw int
	// Growths counts raw evaluations that extended a leader's match.
	Growths int
}

var tokenTypes = map[string]peg.TokenType{
	grammar.TokenEndMarker: peg.TokenEndMarker,
	grammar.TokenName:      peg.TokenName,
	grammar.TokenNumber:    peg.TokenNumber,
	grammar.TokenString:    peg.TokenString,
	grammar.TokenKeyword:   peg.TokenKeyword,
	grammar.TokenPunct:     peg.TokenPunct,
}

// VM executes one plan against one token stream.
type VM struct {
	plan   *compiler.Plan
	action ActionFunc
	p      peg.Parser
	Stats  Stats
}

// New returns a VM reading from c. A nil action returns the bindings of
// the alternative as its value.
func New(plan *compiler.Plan, c peg.Cursor, action ActionFunc) *VM {
	if action == nil {
		action = func(rule string, code string, b Bindings) interface{} { return b }
	}
	return &VM{
		plan:   plan,
		action: action,
		p:      peg.NewParser(c),
	}
}

// Tell is the current cursor position.
func (vm *VM) Tell() int {
	return vm.p.Tell()
}

// Run matches the named rule at the current position. Forced items that
// fail surface as a *peg.SyntaxError.
func (vm *VM) Run(rule string) (_ optional.Optional[interface{}], err error) {
	rp := vm.plan.Rule(rule)
	if rp == nil {
		return optional.None[interface{}](), fmt.Errorf("grammar %s has no rule %s", vm.plan.Grammar.URI, rule)
	}
	defer peg.Recover(&err)
	return vm.rule(rp), nil
}

func (vm *VM) rule(rp *compiler.RulePlan) optional.Optional[interface{}] {
	switch rp.Mode {
	case compiler.ModeLoop:
		return vm.loop(rp)
	case compiler.ModeLeader:
		return vm.leader(rp)
	default:
		return vm.ordinary(rp, rp.Cache)
	}
}

func (vm *VM) cached(rp *compiler.RulePlan, state int) (optional.Optional[interface{}], bool) {
	v, ok := peg.GetCached[interface{}](&vm.p, rp.Index, state)
	if ok {
		vm.Stats.Hits = vm.Stats.Hits + 1
	}
	return v, ok
}

func (vm *VM) ordinary(rp *compiler.RulePlan, cache bool) optional.Optional[interface{}] {
	state := vm.p.Tell()
	if cache {
		if v, ok := vm.cached(rp, state); ok {
			return v
		}
	}
	none := optional.None[interface{}]()
	for _, ap := range rp.Alts {
		vm.Stats.Traversals = vm.Stats.Traversals + 1
		b, cut, ok := vm.alt(ap)
		if ok {
			res := optional.Some(vm.value(rp, ap, b))
			if cache {
				vm.p.StoreCached(rp.Index, state, res)
			}
			return res
		}
		vm.p.Seek(state)
		if cut {
			break
		}
	}
	if cache {
		vm.p.StoreCached(rp.Index, state, none)
	}
	return none
}

func (vm *VM) loop(rp *compiler.RulePlan) optional.Optional[interface{}] {
	state := vm.p.Tell()
	if rp.Cache {
		if v, ok := vm.cached(rp, state); ok {
			return v
		}
	}
	mark := state
	children := []interface{}{}
grow:
	for {
		for _, ap := range rp.Alts {
			vm.Stats.Traversals = vm.Stats.Traversals + 1
			b, _, ok := vm.alt(ap)
			if ok {
				if vm.p.Tell() <= mark {
					break grow
				}
				children = append(children, vm.value(rp, ap, b))
				mark = vm.p.Tell()
				continue grow
			}
			vm.p.Seek(mark)
		}
		break
	}
	vm.p.Seek(mark)
	res := optional.Some[interface{}](children)
	if rp.Loop1 && len(children) == 0 {
		res = optional.None[interface{}]()
	}
	if rp.Cache {
		vm.p.StoreCached(rp.Index, state, res)
	}
	return res
}

// leader grows the match of a left-recursive rule: each round seeds the
// memo table with the best result so far and reruns the body until it
// stops advancing.
func (vm *VM) leader(rp *compiler.RulePlan) optional.Optional[interface{}] {
	state := vm.p.Tell()
	if v, ok := vm.cached(rp, state); ok {
		return v
	}
	res := optional.None[interface{}]()
	resState := state
	for {
		vm.p.StoreCached(rp.Index, state, res)
		vm.p.Seek(state)
		vm.Stats.Raw = vm.Stats.Raw + 1
		raw := vm.ordinary(rp, false)
		if !raw.IsPresent() || vm.p.Tell() <= resState {
			break
		}
		vm.Stats.Growths = vm.Stats.Growths + 1
		res = raw
		resState = vm.p.Tell()
	}
	glog.V(2).Infof("rule %s grew from %d to %d", rp.Rule.Name, state, resState)
	vm.p.Seek(resState)
	return res
}

// alt matches the steps of an alternative in order. cut reports whether a
// cut was passed before the alternative failed.
func (vm *VM) alt(ap *compiler.AltPlan) (b Bindings, cut bool, ok bool) {
	b = make(Bindings, len(ap.Steps))
	for _, step := range ap.Steps {
		c := step.Call
		if c.Kind == compiler.CallCut {
			cut = true
			continue
		}
		v := vm.call(c)
		switch {
		case c.AlwaysTrue:
			if step.Var != "" {
				b[step.Var] = v
			}
		case !v.IsPresent():
			return b, cut, false
		case step.Var != "":
			b[step.Var] = v.Value()
		}
	}
	return b, cut, true
}

func tokenValue(t optional.Optional[peg.Token]) optional.Optional[interface{}] {
	return optional.Map(t, func(tok peg.Token) interface{} { return tok })
}

func presence(ok bool) optional.Optional[interface{}] {
	return optional.Of[interface{}](true, ok)
}

func (vm *VM) call(c *compiler.Call) optional.Optional[interface{}] {
	switch c.Kind {
	case compiler.CallRule:
		return vm.rule(vm.plan.For(c.Rule))
	case compiler.CallToken:
		return tokenValue(vm.p.ExpectToken(tokenTypes[c.Symbol]))
	case compiler.CallKeyword:
		return tokenValue(vm.p.ExpectKeyword(peg.Keyword(c.ID)))
	case compiler.CallSoftKeyword:
		return tokenValue(vm.p.ExpectSoftKeyword(c.Text))
	case compiler.CallPunct:
		return tokenValue(vm.p.ExpectPunct(peg.Punct(c.ID)))
	case compiler.CallPeek, compiler.CallLookahead:
		return presence(vm.p.Lookahead(c.Positive, func() bool {
			return vm.call(c.Inner).IsPresent()
		}))
	case compiler.CallForced:
		return peg.Forced(&vm.p, vm.call(c.Inner), c.Text)
	default:
		panic(fmt.Sprintf("vm: cannot execute %s call", c.Kind))
	}
}

// value computes the result of a matched alternative.
func (vm *VM) value(rp *compiler.RulePlan, ap *compiler.AltPlan, b Bindings) interface{} {
	action := ap.Alt.Action
	switch action.Kind {
	case grammar.ActionTake:
		return b[ap.Steps[action.Item].Var]
	case grammar.ActionGather:
		tail, _ := b[ap.Steps[1].Var].([]interface{})
		return append([]interface{}{b[ap.Steps[0].Var]}, tail...)
	default:
		if v, ok := b[action.Code]; ok {
			return v
		}
		return vm.action(rp.Rule.Name, action.Code, b)
	}
}
