package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/golang/glog"
	"github.com/spf13/pflag"

	"gopkg.bondrewd.org/pegen.go/internal/compiler"
	"gopkg.bondrewd.org/pegen.go/internal/config"
	"gopkg.bondrewd.org/pegen.go/internal/fs"
	"gopkg.bondrewd.org/pegen.go/internal/pegen"
	"gopkg.bondrewd.org/pegen.go/internal/target"
)

type opts struct {
	Roots       []string
	Config      string
	Keywords    string
	Puncts      string
	Output      string
	Package     string
	Runtime     string
	DumpGrammar bool
}

func fail(err error) {
	var me compiler.MultiException
	if errors.As(err, &me) {
		for _, err := range me {
			fmt.Fprintln(os.Stderr, err.Error())
		}
		os.Exit(1)
	}
	fmt.Fprintln(os.Stderr, err.Error())
	os.Exit(1)
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	op := &opts{}
	flags := pflag.NewFlagSet("pegen", pflag.ExitOnError)
	flags.StringSliceVar(&op.Roots, "root", []string{"."}, "Root search paths for grammars and listings.")
	flags.StringVar(&op.Config, "config", "", "YAML configuration file. Flags override its values.")
	flags.StringVar(&op.Keywords, "keywords", "", "Keyword listing.")
	flags.StringVar(&op.Puncts, "puncts", "", "Punctuation listing.")
	flags.StringVar(&op.Output, "output", "", "Output file or - for STDOUT.")
	flags.StringVar(&op.Package, "package", "", "Package clause of the generated file.")
	flags.StringVar(&op.Runtime, "runtime", "", "Import path prefix of the peg and optional runtime packages.")
	flags.BoolVar(&op.DumpGrammar, "dump-grammar", false, "Write the analysed grammar as YAML to STDERR.")
	flags.AddGoFlagSet(flag.CommandLine)
	_ = flag.Set("logtostderr", "true")
	_ = flags.Parse(os.Args[1:])
	args := flags.Args()
	if len(args) > 1 {
		fail(fmt.Errorf("expected at most one grammar but got %d", len(args)))
	}
	defer glog.Flush()

	dfs, err := compiler.NewDefaultFS(os.LookupEnv)
	if err != nil {
		fail(err)
	}
	mf := make(fs.FileSystemMulti, 0, len(op.Roots)+1)
	for _, root := range op.Roots {
		absRoot, errAbs := filepath.Abs(root)
		if errAbs != nil {
			fail(errAbs)
		}
		rf, err := fs.NewFileSystemLocal(absRoot)
		if err != nil {
			fail(err)
		}
		mf = append(mf, rf)
	}
	mf = append(mf, dfs)

	cfg := &config.Config{}
	if op.Config != "" {
		cfg, err = config.Load(ctx, mf, target.Normalize(op.Config))
		if err != nil {
			fail(err)
		}
	}
	fromFlags := config.Config{
		Keywords:    target.Normalize(op.Keywords),
		Puncts:      target.Normalize(op.Puncts),
		Output:      op.Output,
		Package:     op.Package,
		Runtime:     op.Runtime,
		DumpGrammar: op.DumpGrammar,
	}
	if len(args) == 1 {
		fromFlags.Grammar = target.Normalize(args[0])
	}
	if fromFlags.Output != "" && fromFlags.Output != config.Stdout {
		fromFlags.Output = target.Normalize(fromFlags.Output)
	}
	cfg.Override(fromFlags)
	glog.V(1).Infof("compiling %s with keywords %q and puncts %q", cfg.Grammar, cfg.Keywords, cfg.Puncts)

	copts := []compiler.Option{
		compiler.OptionWithLookupEnv(os.LookupEnv),
		compiler.OptionWithFS(mf),
		compiler.OptionWithTypeNames(cfg.Types),
	}
	if cfg.Runtime != "" {
		copts = append(copts, compiler.OptionWithRuntime(cfg.Runtime))
	}
	c, err := compiler.New(copts...)
	if err != nil {
		fail(err)
	}

	out, err := c.Compile(ctx, &pegen.CompileRequest{
		Grammar:     cfg.Grammar,
		Keywords:    cfg.Keywords,
		Puncts:      cfg.Puncts,
		Package:     cfg.Package,
		DumpGrammar: cfg.DumpGrammar,
	})
	if err != nil {
		fail(err)
	}

	if cfg.DumpGrammar {
		fmt.Fprint(os.Stderr, out.Dump)
	}
	if cfg.Output == "" || cfg.Output == config.Stdout {
		fmt.Print(out.Source)
		return
	}
	if err := mf.Write(ctx, cfg.Output, out.Source); err != nil {
		fail(err)
	}
	glog.V(1).Infof("wrote %s", cfg.Output)
}
