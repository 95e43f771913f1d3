// © 2023 Microglot LLC
//
// SPDX-License-Identifier: Apache-2.0

package fs

import (
	"bufio"
	"context"
	"io"
	"strings"

	"gopkg.bondrewd.org/pegen.go/internal/exc"
	"gopkg.bondrewd.org/pegen.go/internal/pegen"
)

// NewFileString wraps static string content in pegen.File.
func NewFileString(path string, content string, kind pegen.FileKind) pegen.File {
	return NewFileFN(path, func() (io.ReadCloser, error) {
		return io.NopCloser(strings.NewReader(content)), nil
	}, kind)
}

// NewFileFN is intended to wrap actual file based content in the pegen.File
// interface. The given body function is used each time there is a call to the
// pegen.File.Body method so it must return a new io.ReadCloser handle.
func NewFileFN(path string, body func() (io.ReadCloser, error), kind pegen.FileKind) pegen.File {
	return &fileIOFunc{
		path: path,
		kind: kind,
		body: body,
	}
}

type fileIOFunc struct {
	path string
	kind pegen.FileKind
	body func() (io.ReadCloser, error)
}

func (f *fileIOFunc) Path(ctx context.Context) string {
	return f.path
}

func (f *fileIOFunc) Kind(ctx context.Context) pegen.FileKind {
	return f.kind
}

func (f *fileIOFunc) Body(ctx context.Context) (pegen.FileBody, error) {
	rc, err := f.body()
	if err != nil {
		return nil, fsErr(f.path, err)
	}
	return &ioFileBody{
		uri: f.path,
		r:   bufio.NewReader(rc),
		c:   rc,
	}, nil
}

// ioFileBody adapts a buffered reader to pegen.FileBody. End of input is
// reported as an exception carrying CodeEOF that still matches io.EOF.
type ioFileBody struct {
	uri string
	r   *bufio.Reader
	c   io.Closer
	b   []byte
}

func (self *ioFileBody) Read(ctx context.Context, size int32) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, exc.WrapUnknown(exc.Location{URI: self.uri}, err)
	}
	if cap(self.b) < int(size) {
		self.b = make([]byte, size)
	}
	count, err := self.r.Read(self.b[:size])
	if err == io.EOF {
		return self.b[:count], exc.Wrap(exc.Location{URI: self.uri}, exc.CodeEOF, err)
	}
	if err != nil {
		return nil, exc.WrapUnknown(exc.Location{URI: self.uri}, err)
	}
	return self.b[:count], nil
}

func (self *ioFileBody) Close(ctx context.Context) error {
	return self.c.Close()
}
