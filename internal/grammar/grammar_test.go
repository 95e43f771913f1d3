package grammar

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"gopkg.bondrewd.org/pegen.go/internal/exc"
	"gopkg.bondrewd.org/pegen.go/optional"
)

// seq builds a single-alternative Rhs from items.
func seq(items ...Item) *Rhs {
	alt := &Alt{}
	for _, item := range items {
		alt.Items = append(alt.Items, &NamedItem{Item: item})
	}
	return &Rhs{Alts: []*Alt{alt}}
}

func choice(alts ...*Rhs) *Rhs {
	rhs := &Rhs{}
	for _, alt := range alts {
		rhs.Alts = append(rhs.Alts, alt.Alts...)
	}
	return rhs
}

func TestRuleString(t *testing.T) {
	t.Parallel()

	g := New("/test.gram")
	short := &Rule{
		Name:       "atom",
		Annotation: "ast.Expr",
		Memo:       true,
		Rhs: choice(
			seq(g.Name("NAME")),
			seq(g.Literal("'('"), g.Forced(g.Name("expr")), g.Literal("')'")),
		),
	}
	require.Equal(t, "atom[ast.Expr] (memo): NAME | '(' &&expr ')'", short.String())

	long := &Rule{
		Name: "statement",
		Rhs: choice(
			seq(g.Name("compound_statement_with_a_long_name"), g.Opt(g.Group(seq(g.Name("x"), g.Name("y"))))),
			seq(g.Gather(g.Literal("','"), g.Name("simple_statement_with_a_long_name")), g.Name("ENDMARKER")),
		),
	}
	require.Equal(t, strings.Join([]string{
		"statement:",
		"    | compound_statement_with_a_long_name [x y]",
		"    | ','.simple_statement_with_a_long_name+ $",
	}, "\n"), long.String())

	items := []Item{
		g.Opt(g.Name("a")),
		g.Repeat0(g.Name("a")),
		g.Repeat1(g.Group(choice(seq(g.Name("a")), seq(g.Name("b"))))),
		g.Lookahead(true, g.Literal("'('")),
		g.Lookahead(false, g.Name("NAME")),
		g.Cut(),
	}
	var printed []string
	for _, item := range items {
		printed = append(printed, item.String())
	}
	require.Equal(t, []string{"a?", "a*", "(a | b)+", "&'('", "!NAME", "~"}, printed)

	named := &NamedItem{Name: "x", Item: g.Name("atom")}
	require.Equal(t, "x=atom", named.String())
}

func TestGrammarLookup(t *testing.T) {
	t.Parallel()

	g := New("/test.gram")
	require.True(t, g.AddRule(&Rule{Name: "Start", Rhs: seq(g.Name("NAME"))}))
	require.False(t, g.AddRule(&Rule{Name: "start", Rhs: seq(g.Name("NUMBER"))}))
	require.Len(t, g.Rules, 1)
	require.Equal(t, "Start", g.Rule("START").Name)
	require.Nil(t, g.Rule("missing"))

	g.AddMeta("trailer", optional.Some("one"))
	g.AddMeta("trailer", optional.Some("two"))
	g.AddMeta("wrap_ast_types", optional.None[string]())
	v, ok := g.Meta("trailer")
	require.True(t, ok)
	require.Equal(t, "two", v.Value())
	require.True(t, g.HasMeta("wrap_ast_types"))
	require.False(t, g.HasMeta("header"))

	require.True(t, IsTokenClass("NAME"))
	require.False(t, IsTokenClass("name"))
}

func TestTypes(t *testing.T) {
	t.Parallel()

	names := DefaultTypeNames
	testCases := []struct {
		name     string
		input    string
		wrap     bool
		expected string
		kind     TypeKind
	}{
		{name: "named", input: "ast.Expr", expected: "ast.Expr", kind: TypeNamed},
		{name: "wrapped", input: "ast.Expr", wrap: true, expected: "ast.Field[ast.Expr]", kind: TypeField},
		{name: "already wrapped", input: "ast.Field[ast.Expr]", wrap: true, expected: "ast.Field[ast.Expr]", kind: TypeField},
		{name: "outside namespace", input: "string", wrap: true, expected: "string", kind: TypeNamed},
		{name: "token", input: "peg.Token", expected: "peg.Token", kind: TypeToken},
		{name: "slice", input: "[]ast.Expr", expected: "[]ast.Expr", kind: TypeSequence},
		{name: "optional", input: " optional.Optional[peg.Token] ", expected: "optional.Optional[peg.Token]", kind: TypeOptional},
		{name: "field sequence", input: "ast.Sequence[ast.Stmt]", expected: "ast.Sequence[ast.Stmt]", kind: TypeFieldSequence},
	}
	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()
			typ := names.Parse(testCase.input)
			if testCase.wrap {
				typ = names.Wrap(typ)
			}
			require.Equal(t, testCase.kind, typ.Kind)
			require.Equal(t, testCase.expected, typ.String())
		})
	}

	field := FieldOf(Named("ast.Stmt"))
	fs := SequenceOf(field)
	require.Equal(t, TypeFieldSequence, fs.Kind)
	require.Equal(t, "ast.Sequence[ast.Stmt]", fs.String())
	require.True(t, fs.ElemType().Equal(field))
	require.Equal(t, "[]peg.Token", SequenceOf(TokenType()).String())
	require.True(t, Named("x").Equal(Named("x")))
	require.False(t, Named("x").Equal(nil))

	custom := TypeNames{Token: "lex.Token"}.WithDefaults()
	require.Equal(t, "ast.", custom.Namespace)
	require.Equal(t, "[]lex.Token", SequenceOf(TokenType()).Render(custom))
}

func TestUnquote(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		input    string
		expected string
	}{
		{input: "'('", expected: "("},
		{input: `"if"`, expected: "if"},
		{input: `'\''`, expected: "'"},
		{input: `'"'`, expected: `"`},
		{input: `"a\nb"`, expected: "a\nb"},
		{input: "'''x'y'''", expected: "x'y"},
		{input: "ast.Expr", expected: "ast.Expr"},
		{input: "'", expected: "'"},
	}
	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.input, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, testCase.expected, Unquote(testCase.input))
		})
	}
}

func TestNullable(t *testing.T) {
	t.Parallel()

	g := New("/test.gram")
	g.AddRule(&Rule{Name: "a", Rhs: seq(g.Opt(g.Name("NAME")), g.Repeat0(g.Name("b")))})
	g.AddRule(&Rule{Name: "b", Rhs: seq(g.Name("a"), g.Lookahead(false, g.Name("NUMBER")))})
	g.AddRule(&Rule{Name: "c", Rhs: seq(g.Repeat1(g.Name("NAME")))})
	g.AddRule(&Rule{Name: "d", Rhs: seq(g.Literal("''"))})
	ComputeNullables(g)
	require.True(t, g.Rule("a").Nullable)
	require.True(t, g.Rule("b").Nullable)
	require.False(t, g.Rule("c").Nullable)
	require.True(t, g.Rule("d").Nullable)
}

func TestLeftRecursion(t *testing.T) {
	t.Parallel()

	g := New("/test.gram")
	g.AddRule(&Rule{Name: "start", Rhs: seq(g.Name("expr"), g.Name("ENDMARKER"))})
	g.AddRule(&Rule{Name: "expr", Rhs: choice(
		seq(g.Name("expr"), g.Literal("'+'"), g.Name("term")),
		seq(g.Name("term")),
	)})
	g.AddRule(&Rule{Name: "term", Rhs: seq(g.Name("NUMBER"))})
	// Indirect: the cycle a -> b -> a passes through both; a is the smaller name.
	g.AddRule(&Rule{Name: "b", Rhs: choice(seq(g.Name("a"), g.Literal("'x'")), seq(g.Name("NAME")))})
	g.AddRule(&Rule{Name: "a", Rhs: choice(seq(g.Opt(g.Name("NUMBER")), g.Name("b")), seq(g.Name("NAME")))})

	require.NoError(t, ComputeLeftRecursives(g))
	require.True(t, g.Rule("expr").LeftRecursive)
	require.True(t, g.Rule("expr").Leader)
	require.False(t, g.Rule("start").LeftRecursive)
	require.False(t, g.Rule("term").LeftRecursive)
	require.True(t, g.Rule("a").LeftRecursive)
	require.True(t, g.Rule("a").Leader)
	require.True(t, g.Rule("b").LeftRecursive)
	require.False(t, g.Rule("b").Leader)

	graph := FirstGraph(g)
	require.Equal(t, []string{"expr"}, graph["start"])
	require.Equal(t, []string{"expr", "term"}, graph["expr"])
	require.Equal(t, []string{"b"}, graph["a"])
}

func TestLeftRecursionWithoutLeader(t *testing.T) {
	t.Parallel()

	// Every pair of a, b and c forms a cycle, so no rule lies on all of them.
	g := New("/test.gram")
	g.AddRule(&Rule{Name: "a", Rhs: choice(seq(g.Name("b")), seq(g.Name("c")), seq(g.Name("NAME")))})
	g.AddRule(&Rule{Name: "b", Rhs: choice(seq(g.Name("a")), seq(g.Name("c")))})
	g.AddRule(&Rule{Name: "c", Rhs: choice(seq(g.Name("a")), seq(g.Name("b")))})

	err := ComputeLeftRecursives(g)
	require.Error(t, err)
	require.Equal(t, exc.CodeNoLeftRecursiveLead, err.Code())
	require.Contains(t, err.Message(), "a, b, c")
}

func TestStronglyConnectedComponents(t *testing.T) {
	t.Parallel()

	graph := map[string][]string{
		"a": {"b"},
		"b": {"c"},
		"c": {"a", "d"},
		"d": nil,
	}
	sccs := StronglyConnectedComponents([]string{"a", "b", "c", "d"}, graph)
	require.Equal(t, [][]string{{"d"}, {"a", "b", "c"}}, sccs)
	require.Equal(t, [][]string{{"a", "b", "c"}}, CyclesInSCC(graph, []string{"a", "b", "c"}, "a"))
}
