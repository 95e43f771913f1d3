package compiler

import (
	"context"
	"errors"
	"os"
	"strings"

	"github.com/golang/glog"

	"gopkg.bondrewd.org/pegen.go/internal/exc"
	"gopkg.bondrewd.org/pegen.go/internal/frontend"
	"gopkg.bondrewd.org/pegen.go/internal/grammar"
	"gopkg.bondrewd.org/pegen.go/internal/listing"
	"gopkg.bondrewd.org/pegen.go/internal/pegen"
	"gopkg.bondrewd.org/pegen.go/internal/target"
)

// DefaultPackage is the package clause used when a request names none.
const DefaultPackage = "parser"

type Option func(c *compiler) error

func OptionWithFS(fs pegen.FileSystem) Option {
	return func(c *compiler) error {
		c.FS = fs
		return nil
	}
}

func OptionWithLookupEnv(lookupEnv func(string) (string, bool)) Option {
	return func(c *compiler) error {
		c.LookupENV = lookupEnv
		return nil
	}
}

func OptionWithExcReporter(reporter exc.Reporter) Option {
	return func(c *compiler) error {
		c.Reporter = reporter
		return nil
	}
}

// OptionWithTypeNames sets the spellings of the wrapper types used by
// annotations. Empty names keep their defaults.
func OptionWithTypeNames(names grammar.TypeNames) Option {
	return func(c *compiler) error {
		c.TypeNames = names.WithDefaults()
		return nil
	}
}

// OptionWithRuntime sets the import path prefix of the peg and optional
// packages imported by generated code.
func OptionWithRuntime(runtime string) Option {
	return func(c *compiler) error {
		if strings.TrimSpace(runtime) == "" {
			return errors.New("runtime import path must not be empty")
		}
		c.Runtime = runtime
		return nil
	}
}

func New(opts ...Option) (pegen.Compiler, error) {
	c := &compiler{}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	if c.LookupENV == nil {
		c.LookupENV = os.LookupEnv
	}
	if c.FS == nil {
		dfs, err := NewDefaultFS(c.LookupENV)
		if err != nil {
			return nil, err
		}
		c.FS = dfs
	}
	if c.Reporter == nil {
		c.Reporter = exc.NewReporter(nil)
	}
	if c.Runtime == "" {
		c.Runtime = DefaultRuntime
	}
	c.TypeNames = c.TypeNames.WithDefaults()
	return c, nil
}

type compiler struct {
	LookupENV func(string) (string, bool)
	FS        pegen.FileSystem
	Reporter  exc.Reporter
	TypeNames grammar.TypeNames
	Runtime   string
}

func (self *compiler) Compile(ctx context.Context, req *pegen.CompileRequest) (*pegen.CompileResponse, error) {
	g, err := self.loadGrammar(ctx, target.Normalize(req.Grammar))
	if err != nil {
		return nil, self.failure(err)
	}
	keywords, err := self.loadListing(ctx, target.Normalize(req.Keywords))
	if err != nil {
		return nil, self.failure(err)
	}
	puncts, err := self.loadListing(ctx, target.Normalize(req.Puncts))
	if err != nil {
		return nil, self.failure(err)
	}
	plan, err := PlanGrammar(g, self.Reporter, keywords, puncts, self.TypeNames)
	if err != nil {
		return nil, self.failure(err)
	}
	pkg := req.Package
	if pkg == "" {
		pkg = DefaultPackage
	}
	src, err := Render(plan, pkg, self.Runtime)
	if err != nil {
		return nil, self.failure(err)
	}
	resp := &pegen.CompileResponse{Source: string(src)}
	if req.DumpGrammar {
		dump, err := Dump(plan)
		if err != nil {
			return nil, self.failure(exc.WrapUnknown(exc.Location{URI: g.URI}, err))
		}
		resp.Dump = dump
	}
	glog.V(1).Infof("%s: generated %d rules into package %s", g.URI, len(plan.Rules), pkg)
	caught := self.Reporter.Reported()
	if len(caught) > 0 {
		return resp, MultiException(caught)
	}
	return resp, nil
}

// PlanGrammar runs the analysis passes over g and returns its rule plans.
// Either listing may be nil when the grammar has no literal of that class.
func PlanGrammar(g *grammar.Grammar, r exc.Reporter, keywords *listing.Listing, puncts *listing.Listing, names grammar.TypeNames) (*Plan, error) {
	if keywords == nil {
		keywords = listing.New("")
	}
	if puncts == nil {
		puncts = listing.New("")
	}
	return newGenerator(g, r, keywords, puncts, names).run()
}

func (self *compiler) open(ctx context.Context, uri string, kind pegen.FileKind) (pegen.File, error) {
	files, err := self.FS.Open(ctx, uri)
	if err != nil {
		return nil, err
	}
	var found []pegen.File
	for _, f := range files {
		if f.Kind(ctx) == kind {
			found = append(found, f)
		}
	}
	if len(found) != 1 {
		return nil, exc.Newf(exc.Location{URI: uri}, exc.CodeUnsupportedFileFormat, "expected one %s file at %s but found %d", kind, uri, len(found))
	}
	return found[0], nil
}

func (self *compiler) loadGrammar(ctx context.Context, uri string) (*grammar.Grammar, error) {
	if uri == "" {
		return nil, exc.New(exc.Location{}, exc.CodeFileNotFound, "no grammar given")
	}
	f, err := self.open(ctx, uri, pegen.FileKindGrammar)
	if err != nil {
		return nil, err
	}
	g, err := frontend.Parse(ctx, self.Reporter, f)
	if err != nil {
		return nil, err
	}
	if g == nil {
		return nil, exc.Newf(exc.Location{URI: uri}, exc.CodeGrammarSyntax, "%s could not be parsed", uri)
	}
	return g, nil
}

// loadListing reads an optional listing. An empty uri yields no listing.
func (self *compiler) loadListing(ctx context.Context, uri string) (*listing.Listing, error) {
	if uri == "" {
		return nil, nil
	}
	files, err := self.FS.Open(ctx, uri)
	if err != nil {
		return nil, err
	}
	if len(files) != 1 {
		return nil, exc.Newf(exc.Location{URI: uri}, exc.CodeUnsupportedFileFormat, "expected one listing at %s but found %d files", uri, len(files))
	}
	return listing.Read(ctx, self.Reporter, files[0])
}

// failure makes sure err is recorded and returns everything reported so
// far as a MultiException.
func (self *compiler) failure(err error) error {
	var e exc.Exception
	if !errors.As(err, &e) {
		e = exc.WrapUnknown(exc.Location{}, err)
	}
	recorded := false
	for _, r := range self.Reporter.Reported() {
		if r == e {
			recorded = true
			break
		}
	}
	if !recorded {
		self.Reporter.Report(e)
	}
	return MultiException(self.Reporter.Reported())
}

type MultiException []exc.Exception

func (self MultiException) Error() string {
	var b strings.Builder
	for _, err := range self[:len(self)-1] {
		b.WriteString(err.Error())
		b.WriteString("; ")
	}
	b.WriteString(self[len(self)-1].Error())
	return b.String()
}
