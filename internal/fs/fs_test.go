package fs

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"gopkg.bondrewd.org/pegen.go/internal/exc"
	"gopkg.bondrewd.org/pegen.go/internal/iter"
	"gopkg.bondrewd.org/pegen.go/internal/pegen"
)

func readFile(t *testing.T, f pegen.File) string {
	t.Helper()
	ctx := context.Background()
	body, err := f.Body(ctx)
	require.NoError(t, err)
	content, err := iter.ReadAll(ctx, body)
	require.NoError(t, err)
	return content
}

func TestFileSystemLocal(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "expr.gram"), []byte("start: NAME\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.md"), []byte("ignored"), 0o644))

	local, err := NewFileSystemLocal(root)
	require.NoError(t, err)

	files, err := local.Open(ctx, "/expr.gram")
	require.NoError(t, err)
	require.Len(t, files, 1)
	require.Equal(t, pegen.FileKindGrammar, files[0].Kind(ctx))
	require.Equal(t, "start: NAME\n", readFile(t, files[0]))

	files, err = local.Open(ctx, "/")
	require.NoError(t, err)
	require.Len(t, files, 1)

	_, err = local.Open(ctx, "/missing.gram")
	require.Error(t, err)
	var e exc.Exception
	require.ErrorAs(t, err, &e)
	require.Equal(t, exc.CodeFileNotFound, e.Code())

	require.NoError(t, local.Write(ctx, "/out/parser.go", "package out\n"))
	written, err := os.ReadFile(filepath.Join(root, "out", "parser.go"))
	require.NoError(t, err)
	require.Equal(t, "package out\n", string(written))
}

func TestFileSystemMulti(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	first := NewFileSystemMemory(map[string]string{"/a.gram": "first"})
	second := NewFileSystemMemory(map[string]string{"/a.gram": "second", "/b.tokens": "LPAR '('"})
	multi := FileSystemMulti{first, second}

	files, err := multi.Open(ctx, "/a.gram")
	require.NoError(t, err)
	require.Equal(t, "first", readFile(t, files[0]))

	files, err = multi.Open(ctx, "/b.tokens")
	require.NoError(t, err)
	require.Equal(t, pegen.FileKindListing, files[0].Kind(ctx))

	_, err = multi.Open(ctx, "/c.gram")
	require.Error(t, err)

	require.NoError(t, multi.Write(ctx, "/out.go", "x"))
	content, ok := first.Content("/out.go")
	require.True(t, ok)
	require.Equal(t, "x", content)

	require.Error(t, FileSystemMulti{}.Write(ctx, "/out.go", "x"))
}

func TestFileSystemMemoryDirectory(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := NewFileSystemMemory(map[string]string{
		"/grammars/b.gram": "b",
		"/grammars/a.gram": "a",
		"/other/c.gram":    "c",
	})
	files, err := m.Open(ctx, "/grammars")
	require.NoError(t, err)
	require.Len(t, files, 2)
	require.Equal(t, "/grammars/a.gram", files[0].Path(ctx))
	require.Equal(t, "/grammars/b.gram", files[1].Path(ctx))
}
