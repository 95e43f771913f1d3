package compiler

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"gopkg.bondrewd.org/pegen.go/internal/exc"
	"gopkg.bondrewd.org/pegen.go/internal/frontend"
	"gopkg.bondrewd.org/pegen.go/internal/fs"
	"gopkg.bondrewd.org/pegen.go/internal/grammar"
	"gopkg.bondrewd.org/pegen.go/internal/listing"
	"gopkg.bondrewd.org/pegen.go/internal/pegen"
)

func testKeywords() *listing.Listing {
	return listing.New("/keywords.tokens",
		listing.Entry{Name: "PASS", Literal: "pass"},
		listing.Entry{Name: "IF", Literal: "if"},
	)
}

func testPuncts() *listing.Listing {
	return listing.New("/puncts.tokens",
		listing.Entry{Name: "PLUS", Literal: "+"},
		listing.Entry{Name: "COMMA", Literal: ","},
		listing.Entry{Name: "RPAR", Literal: ")"},
	)
}

func planString(t *testing.T, text string) (*Plan, error) {
	t.Helper()
	r := exc.NewReporter(nil)
	g, err := frontend.ParseString(r, "/test.gram", text)
	require.NoError(t, err)
	return PlanGrammar(g, r, testKeywords(), testPuncts(), grammar.TypeNames{})
}

func TestHelperRules(t *testing.T) {
	t.Parallel()

	plan, err := planString(t, `
start[int]: xs=','.NAME+ b* c+ (NAME | NUMBER) $ { len(xs) }
b: NAME
c: NUMBER
`)
	require.NoError(t, err)

	names := make([]string, 0, len(plan.Rules))
	for _, rp := range plan.Rules {
		names = append(names, rp.Rule.Name)
	}
	require.Equal(t, []string{"start", "b", "c", "_gather_1", "_loop0_2", "_loop0_3", "_loop1_4", "_tmp_5"}, names)

	testCases := []struct {
		name   string
		kind   grammar.RuleKind
		mode   Mode
		typ    string
		method string
	}{
		{name: "_gather_1", kind: grammar.RuleGather, mode: ModeOrdinary, typ: "[]peg.Token", method: "parse_gather_1"},
		{name: "_loop0_2", kind: grammar.RuleLoop0, mode: ModeLoop, typ: "[]peg.Token", method: "parse_loop0_2"},
		{name: "_loop0_3", kind: grammar.RuleLoop0, mode: ModeLoop, typ: "[]peg.Token", method: "parse_loop0_3"},
		{name: "_loop1_4", kind: grammar.RuleLoop1, mode: ModeLoop, typ: "[]peg.Token", method: "parse_loop1_4"},
		{name: "_tmp_5", kind: grammar.RuleGroup, mode: ModeOrdinary, typ: "peg.Token", method: "parse_tmp_5"},
		{name: "b", kind: grammar.RuleOrdinary, mode: ModeOrdinary, typ: "peg.Token", method: "parseB"},
	}
	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()
			rp := plan.Rule(testCase.name)
			require.NotNil(t, rp)
			require.Equal(t, testCase.kind, rp.Rule.Kind)
			require.Equal(t, testCase.mode, rp.Mode)
			require.Equal(t, testCase.typ, rp.Type.String())
			require.Equal(t, testCase.method, rp.Method)
		})
	}

	gather := plan.Rule("_gather_1")
	require.True(t, gather.Type.Equal(plan.Rule("_loop0_2").Type))
	require.Equal(t, "append([]peg.Token{NAME_var}, seq...)", gather.Alts[0].Action)
	require.Equal(t, "elem", plan.Rule("_loop0_2").Alts[0].Action)
	require.True(t, plan.Rule("_loop1_4").Loop1)
	require.False(t, plan.Rule("_loop0_3").Loop1)
}

func TestCalls(t *testing.T) {
	t.Parallel()

	plan, err := planString(t, `
start[int]: &NAME !b ~ &&')' [NAME] "soft" NAME NAME { 1 }
b: NUMBER
`)
	require.NoError(t, err)
	ap := plan.Rule("start").Alts[0]
	require.True(t, ap.HasCut)
	require.Equal(t, "1", ap.Action)

	testCases := []struct {
		name       string
		kind       CallKind
		expr       string
		variable   string
		alwaysTrue bool
	}{
		{name: "fused lookahead", kind: CallPeek, expr: "p.PeekToken(true, peg.TokenName)"},
		{name: "rule lookahead", kind: CallLookahead, expr: "p.Lookahead(false, func() bool { return p.parseB().IsPresent() })"},
		{name: "cut", kind: CallCut, expr: "true"},
		{name: "forced", kind: CallForced, expr: `peg.Forced(&p.Parser, p.ExpectPunct(PunctRpar), "')'")`, variable: "_literal"},
		{name: "optional", kind: CallToken, expr: "p.ExpectToken(peg.TokenName)", variable: "_opt_var", alwaysTrue: true},
		{name: "soft keyword", kind: CallSoftKeyword, expr: `p.ExpectSoftKeyword("soft")`, variable: "_keyword"},
		{name: "first name", kind: CallToken, expr: "p.ExpectToken(peg.TokenName)", variable: "NAME_var"},
		{name: "second name", kind: CallToken, expr: "p.ExpectToken(peg.TokenName)", variable: "NAME_var_1"},
	}
	require.Len(t, ap.Steps, len(testCases))
	for offset, testCase := range testCases {
		offset, testCase := offset, testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()
			step := ap.Steps[offset]
			require.Equal(t, testCase.kind, step.Call.Kind)
			require.Equal(t, testCase.expr, step.Call.Expr())
			require.Equal(t, testCase.variable, step.Var)
			require.Equal(t, testCase.alwaysTrue, step.Call.AlwaysTrue)
		})
	}
}

func TestLeftRecursivePlan(t *testing.T) {
	t.Parallel()

	plan, err := planString(t, `
start: e=expr $
expr[string] (memo):
    | l=expr '+' r=term { l + r }
    | term
term[string]: n=NUMBER { n.Text }
`)
	require.NoError(t, err)
	expr := plan.Rule("expr")
	require.Equal(t, ModeLeader, expr.Mode)
	require.False(t, expr.Cache)
	require.Equal(t, "parseExprRaw", expr.RawMethod)
	require.Equal(t, "l + r", expr.Alts[0].Action)
	require.Equal(t, "term_var", expr.Alts[1].Action)
	require.Equal(t, "string", plan.Start.Type.String())
	require.Equal(t, ModeOrdinary, plan.Rule("term").Mode)
}

func TestDefaultAction(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		input    string
		expected int
		ok       bool
	}{
		{name: "only contributing item", input: "r: '(' e ')'\ne: NAME\n", expected: 1, ok: true},
		{name: "only named item", input: "r: a b=c\na: NAME\nc: NAME\n", expected: 1, ok: true},
		{name: "lone literal", input: "r: 'x'\n", expected: 0, ok: true},
		{name: "lookahead ignored", input: "r: &NAME NAME\n", expected: 1, ok: true},
		{name: "two values", input: "r: NAME NUMBER\n", ok: false},
		{name: "only literals", input: "r: 'x' 'y'\n", ok: false},
	}
	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()
			g, err := frontend.ParseString(exc.NewReporter(nil), "/test.gram", testCase.input)
			require.NoError(t, err)
			action, ok := defaultAction(g.Rule("r").Rhs.Alts[0])
			require.Equal(t, testCase.ok, ok)
			if !ok {
				return
			}
			require.Equal(t, grammar.ActionTake, action.Kind)
			require.Equal(t, testCase.expected, action.Item)
		})
	}
}

func TestAnalysisErrors(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name  string
		input string
		code  string
	}{
		{name: "ambiguous action", input: "start: NAME NUMBER\n", code: exc.CodeAmbiguousAction},
		{name: "conflicting types", input: "start: a\na: NAME | x\nx[int]: NUMBER { 1 }\n", code: exc.CodeUndeducibleType},
		{name: "unknown type", input: "start: NAME { ast.Name(NAME) }\n", code: exc.CodeUndeducibleType},
		{name: "recursive type", input: "start: a\na: x=NAME y=a { y } | NAME\n", code: exc.CodeRecursiveType},
		{name: "undeclared rule", input: "start: missing\n", code: exc.CodeUndeclaredName},
		{name: "unlisted keyword", input: "start: 'else' NAME\n", code: exc.CodeUnknownLiteral},
		{name: "unlisted punct", input: "start: '-' NAME\n", code: exc.CodeUnknownLiteral},
		{name: "listed soft keyword", input: "start: \"if\" NAME\n", code: exc.CodeUnknownLiteral},
		{name: "header override", input: "@header 'x'\nstart: NAME\n", code: exc.CodeUnsupportedHeader},
		{name: "no entry point", input: "expr: NAME\n", code: exc.CodeMissingEntryPoint},
		{name: "token class rule", input: "start: NAME\nNAME: NUMBER\n", code: exc.CodeDirectiveConflict},
		{name: "keyword binding", input: "start: func=NAME\n", code: exc.CodeDirectiveConflict},
		{name: "method collision", input: "start: a_b\na_b: NAME\naB: NAME\n", code: exc.CodeDirectiveConflict},
		{name: "receiver binding", input: "start[int]: p=NAME q=NAME { 1 }\n", code: exc.CodeDirectiveConflict},
		{name: "package binding", input: "start: optional=NAME\n", code: exc.CodeDirectiveConflict},
		{name: "local binding", input: "start: _res=NAME\n", code: exc.CodeDirectiveConflict},
		{name: "rule constant binding", input: "start: ruleStart=NAME\n", code: exc.CodeDirectiveConflict},
		{name: "binding inside group", input: "start: (p=NAME | NUMBER) $\n", code: exc.CodeDirectiveConflict},
		{name: "symbol constant binding", input: "start: PunctPlus=NAME '+'\n", code: exc.CodeDirectiveConflict},
		{name: "raw method collision", input: "start: expr\nexpr: expr '+' NAME | NAME\nexpr_raw: NAME\n", code: exc.CodeDirectiveConflict},
	}
	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()
			_, err := planString(t, testCase.input)
			require.Error(t, err)
			var e exc.Exception
			require.True(t, errors.As(err, &e))
			require.Equal(t, testCase.code, e.Code(), e.Error())
		})
	}
}

const calcGrammar = `@subheader '''
// calculator helpers
'''
start[string]: e=expr $ { e }
expr[string]:
    | l=expr '+' r=atom { l + r }
    | atom
atom[string] (memo): n=NUMBER { n.Text } | 'pass' { "pass" } | "soft" { "soft" }
items[[]peg.Token]: ','.NAME+
`

func newTestCompiler(t *testing.T, files map[string]string) (pegen.Compiler, *fs.FileSystemMemory) {
	t.Helper()
	mem := fs.NewFileSystemMemory(files)
	c, err := New(
		OptionWithFS(mem),
		OptionWithLookupEnv(func(string) (string, bool) { return "", false }),
		OptionWithExcReporter(exc.NewReporter(nil)),
	)
	require.NoError(t, err)
	return c, mem
}

func TestCompile(t *testing.T) {
	t.Parallel()

	c, _ := newTestCompiler(t, map[string]string{
		"/calc.gram":       calcGrammar,
		"/keywords.tokens": "# hard keywords\nPASS 'pass'\n",
		"/puncts.tokens":   "PLUS '+'\n\nCOMMA ','\n",
	})
	resp, err := c.Compile(context.Background(), &pegen.CompileRequest{
		Grammar:     "/calc.gram",
		Keywords:    "/keywords.tokens",
		Puncts:      "/puncts.tokens",
		Package:     "calc",
		DumpGrammar: true,
	})
	require.NoError(t, err)

	expected := []string{
		"// Code generated by pegen from /calc.gram. DO NOT EDIT.",
		"package calc",
		`"gopkg.bondrewd.org/pegen.go/optional"`,
		`"gopkg.bondrewd.org/pegen.go/peg"`,
		"// calculator helpers",
		`KeywordPass peg.Keyword = iota + 1 // "pass"`,
		`"pass": KeywordPass,`,
		`"+": PunctPlus,`,
		`",": PunctComma,`,
		"rule_gather_1 peg.RuleID = iota",
		"func NewParser(c peg.Cursor) *Parser {",
		"func (p *Parser) Parse() (_res optional.Optional[string], _err error) {",
		"return p.parseStart(), nil",
		"// Left-recursive\n// expr[string]: l=expr '+' r=atom | atom\nfunc (p *Parser) parseExpr() optional.Optional[string] {",
		"_raw := p.parseExprRaw()",
		"func (p *Parser) parseExprRaw() optional.Optional[string] {",
		"_res := optional.Some[string](l + r)",
		"if _cached, ok := peg.GetCached[string](&p.Parser, ruleAtom, _state); ok {",
		"p.StoreCached(ruleAtom, _state, _res)",
		"if _opt := p.ExpectPunct(PunctPlus); _opt.IsPresent() {",
		"if _opt := p.ExpectKeyword(KeywordPass); _opt.IsPresent() {",
		`if _opt := p.ExpectSoftKeyword("soft"); _opt.IsPresent() {`,
		"func (p *Parser) parse_gather_1() optional.Optional[[]peg.Token] {",
		"_res := optional.Some[[]peg.Token](append([]peg.Token{NAME_var}, seq...))",
		"func (p *Parser) parse_loop0_2() optional.Optional[[]peg.Token] {",
		"_children = append(_children, elem)",
	}
	for _, snippet := range expected {
		require.Contains(t, resp.Source, snippet)
	}
	require.NotContains(t, resp.Source, "parseAtomRaw")

	require.Contains(t, resp.Dump, "name: expr")
	require.Contains(t, resp.Dump, "mode: leader")
	require.Contains(t, resp.Dump, "left_recursive: true")
	require.Contains(t, resp.Dump, "name: _gather_1")
}

func TestCompileTrailer(t *testing.T) {
	t.Parallel()

	c, _ := newTestCompiler(t, map[string]string{
		"/trailer.gram": "@trailer '''\nfunc (p *Parser) Run() bool { return p.parseExpr().IsPresent() }\n'''\nexpr: NAME\n",
	})
	resp, err := c.Compile(context.Background(), &pegen.CompileRequest{Grammar: "/trailer.gram"})
	require.NoError(t, err)
	require.Contains(t, resp.Source, "package parser")
	require.Contains(t, resp.Source, "func (p *Parser) Run() bool { return p.parseExpr().IsPresent() }")
	require.NotContains(t, resp.Source, "func (p *Parser) Parse()")
}

func TestCompileErrors(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name  string
		files map[string]string
		req   *pegen.CompileRequest
		code  string
	}{
		{
			name:  "missing grammar",
			files: map[string]string{},
			req:   &pegen.CompileRequest{Grammar: "/none.gram"},
			code:  exc.CodeFileNotFound,
		},
		{
			name:  "syntax",
			files: map[string]string{"/bad.gram": "start NAME\n"},
			req:   &pegen.CompileRequest{Grammar: "/bad.gram"},
			code:  exc.CodeGrammarSyntax,
		},
		{
			name:  "bad listing",
			files: map[string]string{"/a.gram": "start: NAME\n", "/k.tokens": "PASS\n"},
			req:   &pegen.CompileRequest{Grammar: "/a.gram", Keywords: "/k.tokens"},
			code:  exc.CodeListingSyntax,
		},
		{
			name:  "invalid output",
			files: map[string]string{"/a.gram": "start[int]: NAME { ( }\n"},
			req:   &pegen.CompileRequest{Grammar: "/a.gram"},
			code:  exc.CodeInvalidOutput,
		},
	}
	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()
			c, _ := newTestCompiler(t, testCase.files)
			_, err := c.Compile(context.Background(), testCase.req)
			require.Error(t, err)
			var me MultiException
			require.True(t, errors.As(err, &me))
			require.NotEmpty(t, me)
			require.Equal(t, testCase.code, me[0].Code(), err.Error())
		})
	}
}

func TestNames(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		input  string
		method string
		id     string
	}{
		{input: "expr", method: "parseExpr", id: "ruleExpr"},
		{input: "expr_stmt", method: "parseExprStmt", id: "ruleExprStmt"},
		{input: "_loop0_3", method: "parse_loop0_3", id: "rule_loop0_3"},
	}
	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.input, func(t *testing.T) {
			t.Parallel()
			r := &grammar.Rule{Name: testCase.input}
			require.Equal(t, testCase.method, methodName(r))
			require.Equal(t, testCase.id, ruleConst(r))
		})
	}
	require.Equal(t, "NotEqual", symbolName("NOT_EQUAL"))
}

func TestWrapAstTypes(t *testing.T) {
	t.Parallel()

	plan, err := planString(t, `@wrap_ast_types
start[ast.Module]: b=body $ { ast.NewModule(b) }
body: stmt+
stmt[ast.Stmt]: n=NAME { ast.NewStmt(n) }
maybe: [stmt]
owned[ast.Field[ast.Expr]]: n=NAME { ast.NewExpr(n) }
name[string]: n=NAME { n.Text }
`)
	require.NoError(t, err)

	testCases := []struct {
		rule     string
		expected string
	}{
		{rule: "start", expected: "ast.Field[ast.Module]"},
		{rule: "stmt", expected: "ast.Field[ast.Stmt]"},
		{rule: "body", expected: "ast.Sequence[ast.Stmt]"},
		{rule: "_loop1_1", expected: "ast.Sequence[ast.Stmt]"},
		{rule: "maybe", expected: "optional.Optional[ast.Field[ast.Stmt]]"},
		{rule: "owned", expected: "ast.Field[ast.Expr]"},
		{rule: "name", expected: "string"},
	}
	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.rule, func(t *testing.T) {
			t.Parallel()
			rp := plan.Rule(testCase.rule)
			require.NotNil(t, rp)
			require.Equal(t, testCase.expected, rp.Type.Render(plan.TypeNames))
		})
	}
}
