package sandbox

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/dkedar7/cowork-dash/backend/internal/vfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryReturnsCachedExecutor(t *testing.T) {
	r := NewRegistry(WithBaseDir(t.TempDir()), WithBackend(None{}))
	fs := vfs.New("/workspace")

	e1 := r.GetExecutor("test-1", fs)
	e2 := r.GetExecutor("test-1", fs)
	require.NotNil(t, e1)
	assert.Same(t, e1, e2)
	assert.Same(t, fs, e2.Filesystem())
	assert.Equal(t, 1, r.Len())

	other := r.GetExecutor("test-2", fs)
	assert.NotSame(t, e1, other)
	assert.Equal(t, []string{"test-1", "test-2"}, r.Sessions())
	assert.Equal(t, KindNone, r.Kind())
}

func TestRegistryRebindsRecreatedSession(t *testing.T) {
	var seen []string
	backend := diskBackend(func(_ context.Context, req Request) (*Output, error) {
		entries, err := os.ReadDir(req.Dir)
		require.NoError(t, err)
		for _, e := range entries {
			seen = append(seen, e.Name())
		}
		return &Output{}, nil
	})
	r := NewRegistry(WithBaseDir(t.TempDir()), WithBackend(backend))

	old := vfs.New("/workspace")
	require.NoError(t, old.WriteText("/workspace/old.txt", "old"))
	e := r.GetExecutor("reused", old)
	e.Execute(context.Background(), "ls", time.Second, nil)
	require.Equal(t, 1, e.Stats().Runs)

	fresh := vfs.New("/workspace")
	require.NoError(t, fresh.WriteText("/workspace/new.txt", "new"))
	again := r.GetExecutor("reused", fresh)
	assert.Same(t, fresh, again.Filesystem())
	assert.Zero(t, again.Stats().Runs)

	seen = nil
	again.Execute(context.Background(), "ls", time.Second, nil)
	assert.Equal(t, []string{"new.txt"}, seen)
	assert.False(t, fresh.Exists("/workspace/old.txt"))
	assert.Equal(t, 1, r.Len())
}

func TestRegistryCleanupSession(t *testing.T) {
	r := NewRegistry(WithBaseDir(t.TempDir()), WithBackend(None{}))
	e := r.GetExecutor("s", vfs.New("/workspace"))
	dir, err := e.TempDir()
	require.NoError(t, err)

	r.CleanupSession("s")
	assert.NoDirExists(t, dir)
	_, ok := r.Lookup("s")
	assert.False(t, ok)

	r.CleanupSession("s")
	r.CleanupSession("never-existed")
	assert.Zero(t, r.Len())

	assert.NotSame(t, e, r.GetExecutor("s", vfs.New("/workspace")))
}

func TestRegistryCleanupAll(t *testing.T) {
	r := NewRegistry(WithBaseDir(t.TempDir()), WithBackend(None{}))
	var dirs []string
	for _, sid := range []string{"a", "b", "c"} {
		dir, err := r.GetExecutor(sid, vfs.New("/workspace")).TempDir()
		require.NoError(t, err)
		dirs = append(dirs, dir)
	}

	r.CleanupAll()
	assert.Zero(t, r.Len())
	for _, dir := range dirs {
		assert.NoDirExists(t, dir)
	}
}

func TestRegistrySharesBackend(t *testing.T) {
	backend := diskBackend(func(context.Context, Request) (*Output, error) {
		return &Output{Stdout: "ok"}, nil
	})
	r := NewRegistry(WithBaseDir(t.TempDir()), WithBackend(backend))

	result := r.GetExecutor("s", vfs.New("/workspace")).Execute(context.Background(), "true", time.Second, nil)
	assert.Equal(t, "ok", result.Stdout)
	assert.Equal(t, KindNamespace, r.Kind())
}

func TestDefaultRegistry(t *testing.T) {
	assert.Same(t, DefaultRegistry(), DefaultRegistry())
}
