// © 2023 Microglot LLC
//
// SPDX-License-Identifier: Apache-2.0

// Package pegen holds the interfaces shared by the generator's packages.
package pegen

import (
	"context"
	"fmt"

	"gopkg.bondrewd.org/pegen.go/optional"
)

type Closer interface {
	Close(ctx context.Context) error
}

type Iterator[T any] interface {
	Next(ctx context.Context) optional.Optional[T]
	Closer
}

type Lookahead[T any] interface {
	Iterator[T]
	Lookahead(ctx context.Context, n uint8) optional.Optional[T]
}

type Filter[T any] interface {
	Keep(ctx context.Context, v T) bool
}

type Reader interface {
	Read(ctx context.Context, size int32) ([]byte, error)
}

type FileBody interface {
	Reader
	Closer
}

type FileKind uint32

const (
	FileKindNone FileKind = iota
	FileKindGrammar
	FileKindListing
	FileKindConfig
	FileKindGo
)

func (k FileKind) String() string {
	switch k {
	case FileKindNone:
		return "none"
	case FileKindGrammar:
		return "grammar"
	case FileKindListing:
		return "listing"
	case FileKindConfig:
		return "config"
	case FileKindGo:
		return "go"
	default:
		return fmt.Sprintf("unknown-%d", k)
	}
}

type File interface {
	Path(ctx context.Context) string
	Kind(ctx context.Context) FileKind
	Body(ctx context.Context) (FileBody, error)
}

type FileSystem interface {
	Open(ctx context.Context, uri string) ([]File, error)
	Write(ctx context.Context, uri string, content string) error
}

// Location is a position within a source file. Lines and columns are
// 1-based; a zero Line means the position is unknown.
type Location struct {
	Line   int32
	Column int32
	Offset int32
}

type Compiler interface {
	Compile(ctx context.Context, req *CompileRequest) (*CompileResponse, error)
}

type CompileRequest struct {
	// Grammar is the URI of the .gram file to compile.
	Grammar string
	// Keywords and Puncts are URIs of token listings. Either may be empty
	// when the grammar uses no literal of that class.
	Keywords string
	Puncts   string
	// Package is the Go package clause of the generated file.
	Package string
	// DumpGrammar requests a YAML rendering of the analysed grammar.
	DumpGrammar bool
}

type CompileResponse struct {
	// Source is the formatted Go source of the generated parser.
	Source string
	// Dump holds the analysed grammar when requested.
	Dump string
}
