package vfs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleReadWrite(t *testing.T) {
	f := New("/workspace")
	h := f.Path("notes/today.md")

	require.NoError(t, h.Parent().Mkdir(false, false))
	require.NoError(t, h.WriteText("# today"))
	assert.True(t, h.Exists())
	assert.True(t, h.IsFile())
	assert.False(t, h.IsDir())

	text, err := h.ReadText()
	require.NoError(t, err)
	assert.Equal(t, "# today", text)

	assert.Equal(t, "today.md", h.Name())
	assert.Equal(t, ".md", h.Suffix())
	assert.Equal(t, "today", h.Stem())
	assert.Equal(t, "/workspace/notes/today.md", h.String())
	assert.Same(t, f, h.Filesystem())

	info, err := h.Stat()
	require.NoError(t, err)
	assert.EqualValues(t, 7, info.Size)

	require.NoError(t, h.Unlink(false))
	assert.False(t, h.Exists())
	require.NoError(t, h.Parent().Rmdir())
}

func TestHandleRoot(t *testing.T) {
	f := New("/custom")
	root := f.Root()

	assert.Equal(t, "custom", root.Name())
	assert.True(t, root.IsDir())
	assert.True(t, root.Parent().Equal(root))
}

func TestHandleIterdirAndGlob(t *testing.T) {
	f := New("/workspace")
	root := f.Root()
	require.NoError(t, root.Join("b").Mkdir(false, false))
	require.NoError(t, root.Join("a.txt").WriteBytes([]byte("a")))
	require.NoError(t, root.Join("b", "c.txt").WriteText("c"))

	children, err := root.Iterdir()
	require.NoError(t, err)
	require.Len(t, children, 2)
	assert.Equal(t, "/workspace/a.txt", children[0].String())
	assert.Equal(t, "/workspace/b", children[1].String())

	matches, err := root.Glob("**/*.txt")
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "/workspace/b/c.txt", matches[1].String())

	_, err = root.Join("a.txt").Iterdir()
	assert.ErrorIs(t, err, ErrNotADirectory)
}
