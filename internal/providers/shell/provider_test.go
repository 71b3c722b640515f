package shell_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkedar7/cowork-dash/backend/internal/providers/shell"
	"github.com/dkedar7/cowork-dash/backend/internal/sandbox"
	"github.com/dkedar7/cowork-dash/backend/internal/shared/types"
	"github.com/dkedar7/cowork-dash/backend/internal/testutil"
)

const testSession = "sess_shell"

type fakeBackend struct {
	kind sandbox.Kind
	run  func(ctx context.Context, req sandbox.Request) (*sandbox.Output, error)
}

func (b fakeBackend) Kind() sandbox.Kind { return b.kind }

func (b fakeBackend) Run(ctx context.Context, req sandbox.Request) (*sandbox.Output, error) {
	return b.run(ctx, req)
}

func newProvider(t *testing.T, backend sandbox.Backend) (*shell.Provider, *sandbox.Registry, *types.Context) {
	t.Helper()
	fs := testutil.SeedWorkspace(t)
	reg := sandbox.NewRegistry(sandbox.WithBackend(backend), sandbox.WithBaseDir(t.TempDir()))
	t.Cleanup(reg.CleanupAll)
	return shell.NewProvider(testutil.Sessions{testSession: fs}, reg), reg, testutil.SessionContext(testSession)
}

func TestShellDefinition(t *testing.T) {
	p, _, _ := newProvider(t, sandbox.None{})
	def := p.Definition()

	assert.Equal(t, "shell", def.ID)
	assert.Equal(t, types.CategorySystem, def.Category)
	ids := make([]string, 0, len(def.Tools))
	for _, tool := range def.Tools {
		ids = append(ids, tool.ID)
	}
	assert.ElementsMatch(t, []string{"shell.execute", "shell.backend", "shell.stats"}, ids)

	_, err := p.Execute(context.Background(), "shell.nope", nil, nil)
	assert.Error(t, err)
}

func TestShellExecuteSyncsWorkspace(t *testing.T) {
	var got sandbox.Request
	backend := fakeBackend{kind: sandbox.KindNamespace, run: func(_ context.Context, req sandbox.Request) (*sandbox.Output, error) {
		got = req
		data, err := os.ReadFile(filepath.Join(req.Dir, "file1.txt"))
		if err != nil {
			return nil, err
		}
		if err := os.WriteFile(filepath.Join(req.Dir, "out.txt"), []byte("from sandbox"), 0o644); err != nil {
			return nil, err
		}
		return &sandbox.Output{Stdout: string(data)}, nil
	}}
	p, _, appCtx := newProvider(t, backend)

	r, err := p.Execute(context.Background(), "shell.execute", map[string]interface{}{
		"command": "cat file1.txt > /dev/stdout",
		"env":     map[string]interface{}{"MODE": "test", "N": float64(3)},
	}, appCtx)
	require.NoError(t, err)
	require.True(t, r.Success)
	assert.Equal(t, "content of file 1", r.Data["stdout"])
	assert.Equal(t, 0, r.Data["return_code"])
	assert.Equal(t, sandbox.StatusSuccess, r.Data["status"])
	assert.Equal(t, map[string]string{"MODE": "test", "N": "3"}, got.Env)
	assert.Equal(t, "cat file1.txt > /dev/stdout", got.Command)

	stats, err := p.Execute(context.Background(), "shell.stats", nil, appCtx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Data["runs"])

	again, err := p.Execute(context.Background(), "shell.execute", map[string]interface{}{"command": "true"}, appCtx)
	require.NoError(t, err)
	assert.True(t, again.Success)
}

func TestShellExecuteNonZeroExit(t *testing.T) {
	backend := fakeBackend{kind: sandbox.KindNamespace, run: func(context.Context, sandbox.Request) (*sandbox.Output, error) {
		return &sandbox.Output{Stderr: "boom", ExitCode: 2}, nil
	}}
	p, _, appCtx := newProvider(t, backend)

	r, err := p.Execute(context.Background(), "shell.execute", map[string]interface{}{"command": "exit 2"}, appCtx)
	require.NoError(t, err)
	assert.False(t, r.Success)
	require.NotNil(t, r.Error)
	assert.Equal(t, "boom", *r.Error)
	assert.Equal(t, 2, r.Data["return_code"])
	assert.Equal(t, sandbox.StatusError, r.Data["status"])
}

func TestShellExecuteTimeout(t *testing.T) {
	backend := fakeBackend{kind: sandbox.KindNamespace, run: func(ctx context.Context, _ sandbox.Request) (*sandbox.Output, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}}
	p, _, appCtx := newProvider(t, backend)

	r, err := p.Execute(context.Background(), "shell.execute", map[string]interface{}{
		"command": "sleep 10",
		"timeout": 0.05,
	}, appCtx)
	require.NoError(t, err)
	assert.False(t, r.Success)
	assert.Equal(t, sandbox.TimeoutExitCode, r.Data["return_code"])
	assert.Equal(t, "Command timed out after 0.05 seconds", r.Data["stderr"])
}

func TestShellExecuteWithoutBackend(t *testing.T) {
	p, _, appCtx := newProvider(t, sandbox.None{})

	r, err := p.Execute(context.Background(), "shell.execute", map[string]interface{}{"command": "ls"}, appCtx)
	require.NoError(t, err)
	assert.False(t, r.Success)
	assert.Equal(t, sandbox.UnavailableMessage, r.Data["stderr"])
	assert.Equal(t, 1, r.Data["return_code"])

	b, err := p.Execute(context.Background(), "shell.backend", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "none", b.Data["backend"])
	assert.Equal(t, false, b.Data["available"])
}

func TestShellExecuteValidation(t *testing.T) {
	p, _, appCtx := newProvider(t, sandbox.None{})

	tests := []struct {
		name   string
		params map[string]interface{}
		ctx    *types.Context
		want   string
	}{
		{"missing command", map[string]interface{}{}, appCtx, "command parameter required"},
		{"missing session", map[string]interface{}{"command": "ls"}, nil, "session_id required"},
		{"unknown session", map[string]interface{}{"command": "ls"}, testutil.SessionContext("sess_other"), "not found"},
		{"bad timeout", map[string]interface{}{"command": "ls", "timeout": "soon"}, appCtx, "timeout must be"},
		{"negative timeout", map[string]interface{}{"command": "ls", "timeout": -1.0}, appCtx, "timeout must be positive"},
		{"bad env", map[string]interface{}{"command": "ls", "env": []interface{}{"A=1"}}, appCtx, "env must be an object"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := p.Execute(context.Background(), "shell.execute", tt.params, tt.ctx)
			require.NoError(t, err)
			assert.False(t, r.Success)
			require.NotNil(t, r.Error)
			assert.Contains(t, *r.Error, tt.want)
		})
	}
}

func TestShellStatsBeforeFirstRun(t *testing.T) {
	p, reg, appCtx := newProvider(t, sandbox.None{})

	r, err := p.Execute(context.Background(), "shell.stats", nil, appCtx)
	require.NoError(t, err)
	assert.True(t, r.Success)
	assert.Equal(t, 0, r.Data["runs"])
	assert.Zero(t, reg.Len())
}
