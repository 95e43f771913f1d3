// © 2023 Microglot LLC
//
// SPDX-License-Identifier: Apache-2.0

package compiler

import (
	"bytes"
	"fmt"
	"go/format"
	"sort"
	"strconv"
	"strings"

	"gopkg.bondrewd.org/pegen.go/internal/exc"
	"gopkg.bondrewd.org/pegen.go/internal/listing"
)

// DefaultRuntime is the import path prefix of the peg and optional
// packages used by generated parsers.
const DefaultRuntime = "gopkg.bondrewd.org/pegen.go"

type printer struct {
	buf   bytes.Buffer
	level int
}

func (p *printer) line(s string) {
	if s == "" {
		p.buf.WriteByte('\n')
		return
	}
	p.buf.WriteString(strings.Repeat("\t", p.level))
	p.buf.WriteString(s)
	p.buf.WriteByte('\n')
}

func (p *printer) linef(format string, args ...interface{}) {
	p.line(fmt.Sprintf(format, args...))
}

func (p *printer) open(format string, args ...interface{}) {
	p.linef(format, args...)
	p.level = p.level + 1
}

func (p *printer) close(s string) {
	p.level = p.level - 1
	p.line(s)
}

// renderer prints the Go source of a plan.
type renderer struct {
	printer
	plan    *Plan
	pkg     string
	runtime string
}

// Render prints plan as a formatted Go file in package pkg. Generated code
// imports the runtime packages from below runtime.
func Render(plan *Plan, pkg string, runtime string) ([]byte, error) {
	if runtime == "" {
		runtime = DefaultRuntime
	}
	r := &renderer{plan: plan, pkg: pkg, runtime: strings.TrimSuffix(runtime, "/")}
	r.file()
	src, err := format.Source(r.buf.Bytes())
	if err != nil {
		return nil, exc.Newf(exc.Location{URI: plan.Grammar.URI}, exc.CodeInvalidOutput, "generated code does not parse: %s", err)
	}
	return src, nil
}

func (r *renderer) file() {
	r.linef("// Code generated by pegen from %s. DO NOT EDIT.", r.plan.Grammar.URI)
	r.line("")
	r.linef("package %s", r.pkg)
	r.line("")
	r.open("import (")
	r.linef("%q", r.runtime+"/optional")
	r.linef("%q", r.runtime+"/peg")
	r.close(")")
	if strings.TrimSpace(r.plan.Subheader) != "" {
		r.line("")
		r.line(strings.Trim(r.plan.Subheader, "\n"))
	}
	r.symbols("Keyword", r.plan.Keywords)
	r.symbols("Punct", r.plan.Puncts)
	r.ruleIDs()
	r.line("")
	r.open("type Parser struct {")
	r.line("peg.Parser")
	r.close("}")
	r.line("")
	r.open("func NewParser(c peg.Cursor) *Parser {")
	r.line("return &Parser{Parser: peg.NewParser(c)}")
	r.close("}")
	r.entryPoint()
	for _, rp := range r.plan.Rules {
		r.rule(rp)
	}
}

// symbols prints the ID constants and spelling table of a listing.
func (r *renderer) symbols(kind string, l *listing.Listing) {
	if l.Len() == 0 {
		return
	}
	r.line("")
	r.open("const (")
	for offset, e := range l.Entries {
		if offset == 0 {
			r.linef("%s%s peg.%s = iota + 1 // %s", kind, symbolName(e.Name), kind, strconv.Quote(e.Literal))
			continue
		}
		r.linef("%s%s // %s", kind, symbolName(e.Name), strconv.Quote(e.Literal))
	}
	r.close(")")
	r.line("")
	r.linef("// %sSpellings maps source spellings to %s IDs for the lexer.", kind, strings.ToLower(kind))
	r.open("var %sSpellings = map[string]peg.%s{", kind, kind)
	for _, e := range l.Entries {
		r.linef("%s: %s%s,", strconv.Quote(e.Literal), kind, symbolName(e.Name))
	}
	r.close("}")
}

func (r *renderer) ruleIDs() {
	sorted := append([]*RulePlan(nil), r.plan.Rules...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Index < sorted[j].Index })
	r.line("")
	r.open("const (")
	for offset, rp := range sorted {
		if offset == 0 {
			r.linef("%s peg.RuleID = iota", rp.ID)
			continue
		}
		r.line(rp.ID)
	}
	r.close(")")
}

func (r *renderer) entryPoint() {
	r.line("")
	if r.plan.Start == nil {
		r.line(strings.Trim(r.plan.Trailer, "\n"))
		return
	}
	r.open("func (p *Parser) Parse() (_res optional.Optional[%s], _err error) {", r.typ(r.plan.Start))
	r.line("defer peg.Recover(&_err)")
	r.linef("return p.%s(), nil", r.plan.Start.Method)
	r.close("}")
}

func (r *renderer) typ(rp *RulePlan) string {
	return rp.Type.Render(r.plan.TypeNames)
}

func (r *renderer) none(rp *RulePlan) string {
	return fmt.Sprintf("optional.None[%s]()", r.typ(rp))
}

func (r *renderer) comment(rp *RulePlan) {
	if rp.Rule.LeftRecursive {
		r.line("// Left-recursive")
	}
	for _, line := range strings.Split(rp.Rule.String(), "\n") {
		r.linef("// %s", line)
	}
}

func (r *renderer) rule(rp *RulePlan) {
	r.line("")
	r.comment(rp)
	switch rp.Mode {
	case ModeLoop:
		r.open("func (p *Parser) %s() optional.Optional[%s] {", rp.Method, r.typ(rp))
		r.loopBody(rp)
		r.close("}")
	case ModeLeader:
		r.open("func (p *Parser) %s() optional.Optional[%s] {", rp.Method, r.typ(rp))
		r.leaderBody(rp)
		r.close("}")
		r.line("")
		r.open("func (p *Parser) %s() optional.Optional[%s] {", rp.RawMethod, r.typ(rp))
		r.ordinaryBody(rp, false)
		r.close("}")
	default:
		r.open("func (p *Parser) %s() optional.Optional[%s] {", rp.Method, r.typ(rp))
		r.ordinaryBody(rp, rp.Cache)
		r.close("}")
	}
}

func (r *renderer) cacheProbe(rp *RulePlan) {
	r.open("if _cached, ok := peg.GetCached[%s](&p.Parser, %s, _state); ok {", r.typ(rp), rp.ID)
	r.line("return _cached")
	r.close("}")
}

func (r *renderer) fail(rp *RulePlan, cache bool) {
	if cache {
		r.linef("p.StoreCached(%s, _state, %s)", rp.ID, r.none(rp))
	}
	r.linef("return %s", r.none(rp))
}

func (r *renderer) ordinaryBody(rp *RulePlan, cache bool) {
	r.line("_state := p.Tell()")
	if cache {
		r.cacheProbe(rp)
	}
	for _, ap := range rp.Alts {
		r.open("{ // %s", ap.Alt)
		if ap.HasCut {
			r.line("_cut := false")
		}
		depth := r.guards(ap)
		r.linef("_res := optional.Some[%s](%s)", r.typ(rp), ap.Action)
		if cache {
			r.linef("p.StoreCached(%s, _state, _res)", rp.ID)
		}
		r.line("return _res")
		for ; depth > 0; depth = depth - 1 {
			r.close("}")
		}
		r.line("p.Seek(_state)")
		if ap.HasCut {
			r.open("if _cut {")
			r.fail(rp, cache)
			r.close("}")
		}
		r.close("}")
	}
	r.fail(rp, cache)
}

func (r *renderer) loopBody(rp *RulePlan) {
	if rp.Cache {
		r.line("_state := p.Tell()")
		r.cacheProbe(rp)
		r.line("_mark := _state")
	} else {
		r.line("_mark := p.Tell()")
	}
	r.linef("_children := %s{}", r.typ(rp))
	r.open("for {")
	for _, ap := range rp.Alts {
		depth := r.guards(ap)
		r.open("if p.Tell() <= _mark {")
		r.line("break")
		r.close("}")
		r.linef("_children = append(_children, %s)", ap.Action)
		r.line("_mark = p.Tell()")
		r.line("continue")
		for ; depth > 0; depth = depth - 1 {
			r.close("}")
		}
		r.line("p.Seek(_mark)")
	}
	r.line("break")
	r.close("}")
	r.line("p.Seek(_mark)")
	if rp.Loop1 {
		r.open("if len(_children) == 0 {")
		r.fail(rp, rp.Cache)
		r.close("}")
	}
	r.line("_res := optional.Some(_children)")
	if rp.Cache {
		r.linef("p.StoreCached(%s, _state, _res)", rp.ID)
	}
	r.line("return _res")
}

func (r *renderer) leaderBody(rp *RulePlan) {
	r.line("_state := p.Tell()")
	r.cacheProbe(rp)
	r.linef("_res := %s", r.none(rp))
	r.line("_resState := _state")
	r.open("for {")
	r.linef("p.StoreCached(%s, _state, _res)", rp.ID)
	r.line("p.Seek(_state)")
	r.linef("_raw := p.%s()", rp.RawMethod)
	r.open("if !_raw.IsPresent() || p.Tell() <= _resState {")
	r.line("break")
	r.close("}")
	r.line("_res = _raw")
	r.line("_resState = p.Tell()")
	r.close("}")
	r.line("p.Seek(_resState)")
	r.line("return _res")
}

// guards prints the nested success checks of an alternative and returns
// how many blocks were opened.
func (r *renderer) guards(ap *AltPlan) int {
	depth := 0
	for _, step := range ap.Steps {
		c := step.Call
		comment := ""
		if c.Comment != "" {
			comment = " // " + c.Comment
		}
		switch {
		case c.Kind == CallCut:
			r.line("_cut = true")
		case c.AlwaysTrue && c.Bool:
			r.linef("_ = %s%s", c.Expr(), comment)
		case c.AlwaysTrue:
			r.linef("%s := %s%s", step.Var, c.Expr(), comment)
			r.linef("_ = %s", step.Var)
		case c.Bool:
			r.open("if %s {%s", c.Expr(), comment)
			depth = depth + 1
		default:
			r.open("if _opt := %s; _opt.IsPresent() {%s", c.Expr(), comment)
			r.linef("%s := _opt.Value()", step.Var)
			r.linef("_ = %s", step.Var)
			depth = depth + 1
		}
	}
	return depth
}
