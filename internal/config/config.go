// © 2023 Microglot LLC
//
// SPDX-License-Identifier: Apache-2.0

// Package config reads generator settings from a YAML file. Paths in the
// file are relative to the file itself.
package config

import (
	"bytes"
	"context"
	"errors"
	"io"

	"gopkg.in/yaml.v3"

	"gopkg.bondrewd.org/pegen.go/internal/exc"
	"gopkg.bondrewd.org/pegen.go/internal/grammar"
	"gopkg.bondrewd.org/pegen.go/internal/iter"
	"gopkg.bondrewd.org/pegen.go/internal/pegen"
	"gopkg.bondrewd.org/pegen.go/internal/target"
)

// Stdout is the output value that writes generated code to standard output.
const Stdout = "-"

type Config struct {
	Grammar     string            `yaml:"grammar"`
	Keywords    string            `yaml:"keywords"`
	Puncts      string            `yaml:"puncts"`
	Output      string            `yaml:"output"`
	Package     string            `yaml:"package"`
	Runtime     string            `yaml:"runtime"`
	DumpGrammar bool              `yaml:"dump_grammar"`
	Types       grammar.TypeNames `yaml:"types"`
}

// Load reads the configuration at uri from fsys.
func Load(ctx context.Context, fsys pegen.FileSystem, uri string) (*Config, error) {
	files, err := fsys.Open(ctx, uri)
	if err != nil {
		return nil, err
	}
	if len(files) != 1 || files[0].Kind(ctx) != pegen.FileKindConfig {
		return nil, exc.Newf(exc.Location{URI: uri}, exc.CodeUnsupportedFileFormat, "%s is not a configuration file", uri)
	}
	body, err := files[0].Body(ctx)
	if err != nil {
		return nil, err
	}
	content, err := iter.ReadAll(ctx, body)
	if err != nil {
		return nil, exc.WrapUnknown(exc.Location{URI: uri}, err)
	}
	return Parse(files[0].Path(ctx), content)
}

// Parse decodes content and resolves its paths against uri. Unknown keys
// are rejected.
func Parse(uri string, content string) (*Config, error) {
	c := &Config{}
	dec := yaml.NewDecoder(bytes.NewBufferString(content))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return nil, exc.Wrap(exc.Location{URI: uri}, exc.CodeConfigSyntax, err)
	}
	c.Grammar = target.Resolve(uri, c.Grammar)
	c.Keywords = target.Resolve(uri, c.Keywords)
	c.Puncts = target.Resolve(uri, c.Puncts)
	if c.Output != Stdout {
		c.Output = target.Resolve(uri, c.Output)
	}
	return c, nil
}

// Override replaces every setting of c that is set in o.
func (c *Config) Override(o Config) {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&c.Grammar, o.Grammar)
	set(&c.Keywords, o.Keywords)
	set(&c.Puncts, o.Puncts)
	set(&c.Output, o.Output)
	set(&c.Package, o.Package)
	set(&c.Runtime, o.Runtime)
	set(&c.Types.Namespace, o.Types.Namespace)
	set(&c.Types.Field, o.Types.Field)
	set(&c.Types.FieldSequence, o.Types.FieldSequence)
	set(&c.Types.Token, o.Types.Token)
	set(&c.Types.Optional, o.Types.Optional)
	c.DumpGrammar = c.DumpGrammar || o.DumpGrammar
}
