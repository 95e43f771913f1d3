// © 2023 Microglot LLC
//
// SPDX-License-Identifier: Apache-2.0

package iter

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strings"

	"gopkg.bondrewd.org/pegen.go/internal/pegen"
	"gopkg.bondrewd.org/pegen.go/optional"
)

// Line is one line of a file body without its terminator.
type Line struct {
	Number int32
	Text   string
}

// NewLineFileBody converts a FileBody into an iterator of lines.
func NewLineFileBody(b pegen.FileBody) pegen.Iterator[Line] {
	return NewLineFileBodyCtx(context.Background(), b)
}

// NewLineFileBodyCtx is the same as NewLineFileBody but uses the given
// context for all read operations for cancellation or other purposes.
func NewLineFileBodyCtx(ctx context.Context, b pegen.FileBody) pegen.Iterator[Line] {
	rc := &fileBodyIO{
		ctx:  ctx,
		body: b,
	}
	scanner := bufio.NewScanner(rc)
	scanner.Split(bufio.ScanLines)
	return &lineBody{
		readCloser: rc,
		scanner:    scanner,
	}
}

type lineBody struct {
	readCloser io.ReadCloser
	scanner    *bufio.Scanner
	line       int32
}

func (f *lineBody) Next(ctx context.Context) optional.Optional[Line] {
	if !f.scanner.Scan() {
		return optional.None[Line]()
	}
	f.line = f.line + 1
	return optional.Some(Line{
		Number: f.line,
		Text:   strings.TrimSuffix(f.scanner.Text(), "\r"),
	})
}

func (f *lineBody) Close(context.Context) error {
	_ = f.readCloser.Close()
	return f.scanner.Err()
}

// ReadAll returns the whole content of a file body as a string.
func ReadAll(ctx context.Context, b pegen.FileBody) (string, error) {
	rc := &fileBodyIO{ctx: ctx, body: b}
	defer rc.Close()
	content, err := io.ReadAll(rc)
	if err != nil {
		return "", err
	}
	return string(content), nil
}

type fileBodyIO struct {
	ctx  context.Context
	body pegen.FileBody
}

func (self *fileBodyIO) Read(p []byte) (int, error) {
	b, err := self.body.Read(self.ctx, int32(len(p)))
	if err != nil && !errors.Is(err, io.EOF) {
		return len(b), err
	}
	copy(p, b)
	if errors.Is(err, io.EOF) {
		return len(b), io.EOF
	}
	return len(b), nil
}

func (self *fileBodyIO) Close() error {
	return self.body.Close(self.ctx)
}
