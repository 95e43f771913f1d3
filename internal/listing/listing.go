// © 2023 Microglot LLC
//
// SPDX-License-Identifier: Apache-2.0

// Package listing reads keyword and punctuation listings. A listing has
// one `NAME 'literal'` pair per line. Blank lines and lines starting with
// '#' are ignored.
package listing

import (
	"context"
	"regexp"
	"strings"

	"github.com/golang/glog"

	"gopkg.bondrewd.org/pegen.go/internal/exc"
	"gopkg.bondrewd.org/pegen.go/internal/grammar"
	"gopkg.bondrewd.org/pegen.go/internal/iter"
	"gopkg.bondrewd.org/pegen.go/internal/pegen"
)

var symbolName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

type Entry struct {
	// ID is the 1-based position of the entry in its listing.
	ID int
	// Name is the symbolic name, e.g. LPAR.
	Name string
	// Literal is the unquoted spelling, e.g. "(".
	Literal  string
	Location pegen.Location
}

type Listing struct {
	URI     string
	Entries []Entry

	byLiteral map[string]int
}

// New builds a listing from entries already in memory.
func New(uri string, entries ...Entry) *Listing {
	l := &Listing{URI: uri, byLiteral: make(map[string]int, len(entries))}
	for _, e := range entries {
		l.add(e)
	}
	return l
}

func (l *Listing) add(e Entry) bool {
	if _, ok := l.byLiteral[e.Literal]; ok {
		return false
	}
	l.byLiteral[e.Literal] = len(l.Entries)
	e.ID = len(l.Entries) + 1
	l.Entries = append(l.Entries, e)
	return true
}

// Lookup finds the entry for an unquoted literal spelling.
func (l *Listing) Lookup(literal string) (Entry, bool) {
	if l == nil {
		return Entry{}, false
	}
	offset, ok := l.byLiteral[literal]
	if !ok {
		return Entry{}, false
	}
	return l.Entries[offset], true
}

func (l *Listing) Len() int {
	if l == nil {
		return 0
	}
	return len(l.Entries)
}

// Read parses a listing file. Every malformed line is reported; the error
// returned is the first fatal one.
func Read(ctx context.Context, r exc.Reporter, f pegen.File) (*Listing, error) {
	uri := f.Path(ctx)
	body, err := f.Body(ctx)
	if err != nil {
		return nil, err
	}
	lines, err := iter.Collect(ctx, iter.NewIteratorFilter(iter.NewLineFileBodyCtx(ctx, body), pegen.Filter[iter.Line](iter.FilterFunc[iter.Line](func(ctx context.Context, line iter.Line) bool {
		text := strings.TrimSpace(line.Text)
		return text != "" && !strings.HasPrefix(text, "#")
	}))))
	if err != nil {
		return nil, exc.WrapUnknown(exc.Location{URI: uri}, err)
	}
	result := New(uri)
	var first error
	fail := func(line iter.Line, format string, args ...interface{}) {
		e := r.Report(exc.Newf(exc.Location{
			URI:      uri,
			Location: pegen.Location{Line: line.Number, Column: 1},
		}, exc.CodeListingSyntax, format, args...))
		if e != nil && first == nil {
			first = e
		}
	}
	for _, line := range lines {
		text := strings.TrimSpace(line.Text)
		split := strings.IndexAny(text, " \t")
		if split < 0 {
			fail(line, "expected NAME 'literal' but found %q", line.Text)
			continue
		}
		name, raw := text[:split], strings.TrimSpace(text[split:])
		if !symbolName.MatchString(name) {
			fail(line, "%q is not a valid symbol name", name)
			continue
		}
		literal := grammar.Unquote(raw)
		if literal == raw || literal == "" {
			fail(line, "literal for %s must be a non-empty quoted string, found %s", name, raw)
			continue
		}
		if !result.add(Entry{Name: name, Literal: literal, Location: pegen.Location{Line: line.Number, Column: 1}}) {
			fail(line, "literal %s is listed more than once", raw)
			continue
		}
	}
	if first != nil {
		return nil, first
	}
	glog.V(1).Infof("read %d entries from listing %s", result.Len(), uri)
	return result, nil
}
