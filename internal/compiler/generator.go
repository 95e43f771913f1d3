// © 2023 Microglot LLC
//
// SPDX-License-Identifier: Apache-2.0

package compiler

import (
	"fmt"
	"go/token"
	"strings"

	"github.com/golang/glog"

	"gopkg.bondrewd.org/pegen.go/internal/exc"
	"gopkg.bondrewd.org/pegen.go/internal/grammar"
	"gopkg.bondrewd.org/pegen.go/internal/listing"
)

// generator carries the state shared by the passes that turn a grammar
// into rule plans. One generator serves exactly one grammar.
type generator struct {
	g        *grammar.Grammar
	reporter exc.Reporter
	keywords *listing.Listing
	puncts   *listing.Listing
	names    grammar.TypeNames
	wrap     bool

	// counter numbers helper rules in creation order.
	counter int
	calls   map[grammar.NodeID]*Call
	// helpers maps a Group, Repeat0, Repeat1 or Gather node to the rule
	// created for it.
	helpers map[grammar.NodeID]*grammar.Rule
}

func newGenerator(g *grammar.Grammar, r exc.Reporter, keywords *listing.Listing, puncts *listing.Listing, names grammar.TypeNames) *generator {
	return &generator{
		g:        g,
		reporter: r,
		keywords: keywords,
		puncts:   puncts,
		names:    names.WithDefaults(),
		wrap:     g.HasMeta("wrap_ast_types"),
		calls:    make(map[grammar.NodeID]*Call),
		helpers:  make(map[grammar.NodeID]*grammar.Rule),
	}
}

func (gen *generator) location(r *grammar.Rule) exc.Location {
	loc := exc.Location{URI: gen.g.URI}
	if r != nil {
		loc.Location = r.Location
		loc.Rule = r.Name
	}
	return loc
}

// fail reports an analysis error. The returned value is non-nil when the
// reporter treats the code as fatal.
func (gen *generator) fail(r *grammar.Rule, code string, format string, args ...interface{}) exc.Exception {
	return gen.reporter.Report(exc.Newf(gen.location(r), code, format, args...))
}

// abort reports an error the current pass cannot continue past. The
// exception is returned even when the reporter does not consider it fatal.
func (gen *generator) abort(r *grammar.Rule, code string, format string, args ...interface{}) error {
	e := exc.Newf(gen.location(r), code, format, args...)
	gen.reporter.Report(e)
	return e
}

// run applies every pass in order and stops at the first fatal error.
func (gen *generator) run() (*Plan, error) {
	passes := []struct {
		name string
		pass func() error
	}{
		{"directives", gen.checkDirectives},
		{"names", gen.checkNames},
		{"helpers", gen.collectTodo},
		{"left recursion", gen.leftRecursion},
		{"methods", gen.checkMethods},
		{"actions", gen.synthesizeActions},
		{"types", gen.deduceTypes},
	}
	for _, p := range passes {
		if err := p.pass(); err != nil {
			return nil, err
		}
		glog.V(1).Infof("%s: %s pass done", gen.g.URI, p.name)
	}
	return gen.plan()
}

func (gen *generator) checkDirectives() error {
	if gen.g.HasMeta("header") {
		if err := gen.fail(nil, exc.CodeUnsupportedHeader, "overriding the header is not supported; use subheader instead"); err != nil {
			return err
		}
	}
	if gen.g.Rule("start") == nil {
		trailer, _ := gen.g.Meta("trailer")
		if strings.TrimSpace(trailer.ValueOr("")) == "" {
			if err := gen.fail(nil, exc.CodeMissingEntryPoint, "grammar has no start rule and no trailer"); err != nil {
				return err
			}
		}
	}
	return nil
}

// checkNames verifies that every reference resolves and that rule and
// binding names can be spelled in Go.
func (gen *generator) checkNames() error {
	var first error
	report := func(e exc.Exception) {
		if e != nil && first == nil {
			first = e
		}
	}
	generated := gen.generatedNames()
	for _, r := range gen.g.Rules {
		if grammar.IsTokenClass(r.Name) {
			report(gen.fail(r, exc.CodeDirectiveConflict, "rule %s shadows a token class", r.Name))
		}
		bindings := func(rhs *grammar.Rhs) {
			for _, alt := range rhs.Alts {
				for _, item := range alt.Items {
					switch {
					case item.Name == "":
					case token.IsKeyword(item.Name):
						report(gen.fail(r, exc.CodeDirectiveConflict, "binding %s is a Go keyword", item.Name))
					case strings.HasPrefix(item.Name, "_") || generated[item.Name]:
						report(gen.fail(r, exc.CodeDirectiveConflict, "binding %s clashes with a generated identifier", item.Name))
					}
				}
			}
		}
		bindings(r.Rhs)
		grammar.WalkRhs(r.Rhs, func(item grammar.Item) bool {
			if group, ok := item.(*grammar.Group); ok {
				bindings(group.Rhs)
			}
			name, ok := item.(*grammar.NameLeaf)
			if !ok || grammar.IsTokenClass(name.Value) || gen.g.Rule(name.Value) != nil {
				return true
			}
			report(gen.fail(r, exc.CodeUndeclaredName, "%s is neither a rule nor a token class", name.Value))
			return true
		})
	}
	return first
}

// generatedNames are the identifiers rule methods refer to besides their
// bindings: the receiver, the runtime packages and the rule and symbol
// constants. Generated locals all start with an underscore.
func (gen *generator) generatedNames() map[string]bool {
	names := map[string]bool{"p": true, "peg": true, "optional": true}
	for _, r := range gen.g.Rules {
		names[ruleConst(r)] = true
	}
	for _, e := range gen.keywords.Entries {
		names["Keyword"+symbolName(e.Name)] = true
	}
	for _, e := range gen.puncts.Entries {
		names["Punct"+symbolName(e.Name)] = true
	}
	return names
}

// checkMethods verifies that no two rules share a Go method, counting the
// raw methods of left-recursive leaders.
func (gen *generator) checkMethods() error {
	var first error
	methods := make(map[string]string, len(gen.g.Rules))
	claim := func(r *grammar.Rule, method string) {
		if other, ok := methods[method]; ok {
			if e := gen.fail(r, exc.CodeDirectiveConflict, "rules %s and %s both map to %s", other, r.Name, method); e != nil && first == nil {
				first = e
			}
			return
		}
		methods[method] = r.Name
	}
	for _, r := range gen.g.Rules {
		claim(r, methodName(r))
		if r.LeftRecursive && r.Leader {
			claim(r, rawMethodName(r))
		}
	}
	return first
}

// collectTodo creates the call for every item, registering helper rules
// as they are found. Helper rules are scanned in later rounds until no new
// rule appears.
func (gen *generator) collectTodo() error {
	done := 0
	for done < len(gen.g.Rules) {
		rules := gen.g.Rules[done:]
		done = len(gen.g.Rules)
		for _, r := range rules {
			for _, alt := range r.Rhs.Alts {
				for _, item := range alt.Items {
					if _, err := gen.call(r, item.Item); err != nil {
						return err
					}
				}
			}
		}
	}
	glog.V(1).Infof("%s: %d rules after creating %d helpers", gen.g.URI, len(gen.g.Rules), gen.counter)
	return nil
}

func (gen *generator) leftRecursion() error {
	if err := grammar.ComputeLeftRecursives(gen.g); err != nil {
		if e := gen.reporter.Report(err); e != nil {
			return e
		}
	}
	for _, r := range gen.g.Rules {
		if r.Leader {
			glog.V(2).Infof("%s: rule %s leads a left-recursive cycle", gen.g.URI, r.Name)
		}
	}
	return nil
}

func (gen *generator) nextName(prefix string) string {
	gen.counter = gen.counter + 1
	return fmt.Sprintf("%s_%d", prefix, gen.counter)
}

func (gen *generator) addHelper(node grammar.Item, r *grammar.Rule) *grammar.Rule {
	gen.g.AddRule(r)
	gen.helpers[node.ID()] = r
	glog.V(2).Infof("%s: helper %s for %s", gen.g.URI, r.Name, node)
	return r
}

// loopRule creates `_loop0_N` or `_loop1_N` repeating node.
func (gen *generator) loopRule(owner grammar.Item, node grammar.Item, kind grammar.RuleKind) *grammar.Rule {
	prefix := "_loop0"
	if kind == grammar.RuleLoop1 {
		prefix = "_loop1"
	}
	return gen.addHelper(owner, &grammar.Rule{
		Name: gen.nextName(prefix),
		Kind: kind,
		Rhs: &grammar.Rhs{Alts: []*grammar.Alt{{
			Items:  []*grammar.NamedItem{{Item: node}},
			Action: &grammar.Action{Kind: grammar.ActionTake, Item: 0},
		}}},
	})
}

// gatherRule creates `_gather_N` for `sep.node+` along with its tail loop
// `_loop0_N+1` matching `sep node` pairs.
func (gen *generator) gatherRule(node *grammar.Gather) *grammar.Rule {
	name := gen.nextName("_gather")
	tail := &grammar.Rule{
		Name: gen.nextName("_loop0"),
		Kind: grammar.RuleLoop0,
		Rhs: &grammar.Rhs{Alts: []*grammar.Alt{{
			Items: []*grammar.NamedItem{
				{Item: node.Separator},
				{Name: "elem", Item: node.Node},
			},
			Action: &grammar.Action{Kind: grammar.ActionTake, Item: 1},
		}}},
	}
	r := gen.addHelper(node, &grammar.Rule{
		Name: name,
		Kind: grammar.RuleGather,
		Rhs: &grammar.Rhs{Alts: []*grammar.Alt{{
			Items: []*grammar.NamedItem{
				{Item: node.Node},
				{Name: "seq", Item: gen.g.Name(tail.Name)},
			},
			Action: &grammar.Action{Kind: grammar.ActionGather},
		}}},
	})
	gen.g.AddRule(tail)
	return r
}

func (gen *generator) groupRule(node *grammar.Group) *grammar.Rule {
	return gen.addHelper(node, &grammar.Rule{
		Name: gen.nextName("_tmp"),
		Kind: grammar.RuleGroup,
		Rhs:  node.Rhs,
	})
}

// inlinable reports whether a group is replaced by its only item.
func inlinable(rhs *grammar.Rhs) bool {
	return len(rhs.Alts) == 1 && len(rhs.Alts[0].Items) == 1 && rhs.Alts[0].Action == nil
}

// methodName is the Go method implementing r.
func methodName(r *grammar.Rule) string {
	if strings.HasPrefix(r.Name, "_") {
		return "parse" + r.Name
	}
	return "parse" + exportName(r.Name)
}

// rawMethodName is the memo-free method holding the alternatives of a
// left-recursive leader.
func rawMethodName(r *grammar.Rule) string {
	return methodName(r) + "Raw"
}

// ruleConst is the RuleID constant of r.
func ruleConst(r *grammar.Rule) string {
	if strings.HasPrefix(r.Name, "_") {
		return "rule" + r.Name
	}
	return "rule" + exportName(r.Name)
}

// exportName upper-cases the first letter of every underscore separated
// part: expr_stmt becomes ExprStmt.
func exportName(name string) string {
	var b strings.Builder
	for _, part := range strings.Split(name, "_") {
		if part == "" {
			continue
		}
		b.WriteString(strings.ToUpper(part[:1]))
		b.WriteString(part[1:])
	}
	return b.String()
}

// symbolName turns a listing name such as NOT_EQUAL into NotEqual.
func symbolName(name string) string {
	return exportName(strings.ToLower(name))
}
