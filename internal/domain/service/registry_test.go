package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dkedar7/cowork-dash/backend/internal/shared/types"
	"github.com/dkedar7/cowork-dash/backend/internal/testutil"
)

type mockProvider struct {
	id       string
	category types.Category
}

func (m *mockProvider) Definition() types.Service {
	category := m.category
	if category == "" {
		category = types.CategoryFilesystem
	}
	return types.Service{
		ID:           m.id,
		Name:         "Mock Service",
		Description:  "A mock service for testing",
		Category:     category,
		Capabilities: []string{"read", "write"},
		Tools: []types.Tool{
			{
				ID:          m.id + ".test",
				Name:        "Test Tool",
				Description: "A test tool",
				Returns:     "string",
			},
		},
	}
}

func (m *mockProvider) Execute(ctx context.Context, toolID string, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	return &types.Result{
		Success: true,
		Data:    map[string]interface{}{"result": "success", "tool": toolID},
	}, nil
}

type toolCall struct {
	service, tool, status string
}

type recordingObserver struct {
	mu    sync.Mutex
	calls []toolCall
}

func (r *recordingObserver) ObserveTool(service, tool, status string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, toolCall{service, tool, status})
}

func TestRegister(t *testing.T) {
	r := NewRegistry(nil)

	require.NoError(t, r.Register(&mockProvider{id: "test"}))
	_, ok := r.Get("test")
	assert.True(t, ok)

	assert.Error(t, r.Register(&mockProvider{id: ""}))
	assert.Error(t, r.Register(&mockProvider{id: "bad.id"}))

	r.Unregister("test")
	_, ok = r.Get("test")
	assert.False(t, ok)
}

func TestList(t *testing.T) {
	r := NewRegistry(nil)
	require.NoError(t, r.Register(&mockProvider{id: "test2"}))
	require.NoError(t, r.Register(&mockProvider{id: "test1"}))
	require.NoError(t, r.Register(&mockProvider{id: "shell", category: types.CategorySystem}))

	services := r.List(nil)
	require.Len(t, services, 3)
	assert.Equal(t, "shell", services[0].ID)
	assert.Equal(t, "test1", services[1].ID)

	cat := types.CategoryFilesystem
	assert.Len(t, r.List(&cat), 2)

	empty := NewRegistry(nil).List(nil)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestDiscover(t *testing.T) {
	r := NewRegistry(nil)
	require.NoError(t, r.Register(&mockProvider{id: "storage"}))
	require.NoError(t, r.Register(&mockProvider{id: "shell", category: types.CategorySystem}))

	results := r.Discover("storage read write", 5)
	require.NotEmpty(t, results)
	assert.Equal(t, "storage", results[0].ID)

	assert.Len(t, r.Discover("storage read write", 1), 1)
	assert.Empty(t, r.Discover("zzz", 5))
}

func TestExecute(t *testing.T) {
	r := NewRegistry(nil)
	obs := &recordingObserver{}
	r.SetObserver(obs)
	require.NoError(t, r.Register(&mockProvider{id: "test"}))

	result, err := r.Execute(context.Background(), "test.test", nil, nil)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "test.test", result.Data["tool"])

	result, err = r.Execute(context.Background(), "invalid", nil, nil)
	assert.Error(t, err)
	assert.False(t, result.Success)

	result, err = r.Execute(context.Background(), "missing.tool", nil, nil)
	assert.Error(t, err)
	require.NotNil(t, result.Error)
	assert.Contains(t, *result.Error, "service not found")

	assert.Equal(t, []toolCall{{"test", "test.test", StatusSuccess}}, obs.calls)
}

func TestExecuteWithMockProvider(t *testing.T) {
	r := NewRegistry(nil)
	obs := &recordingObserver{}
	r.SetObserver(obs)

	m := testutil.NewMockServiceProvider("files", "files.read", "files.fail")
	appCtx := testutil.SessionContext("sess_1")
	msg := "nope"
	m.On("Execute", mock.Anything, "files.read", mock.Anything, appCtx).
		Return(&types.Result{Success: true}, nil).Once()
	m.On("Execute", mock.Anything, "files.fail", mock.Anything, appCtx).
		Return(&types.Result{Success: false, Error: &msg}, nil).Once()
	m.On("Execute", mock.Anything, "files.boom", mock.Anything, appCtx).
		Return(nil, errors.New("boom")).Once()
	require.NoError(t, r.Register(m))

	_, err := r.Execute(context.Background(), "files.read", map[string]interface{}{"path": "a"}, appCtx)
	require.NoError(t, err)
	_, err = r.Execute(context.Background(), "files.fail", nil, appCtx)
	require.NoError(t, err)
	_, err = r.Execute(context.Background(), "files.boom", nil, appCtx)
	assert.EqualError(t, err, "boom")

	m.AssertExpectations(t)
	assert.Equal(t, []toolCall{
		{"files", "files.read", StatusSuccess},
		{"files", "files.fail", StatusFailure},
		{"files", "files.boom", StatusError},
	}, obs.calls)
}

func TestStats(t *testing.T) {
	r := NewRegistry(nil)
	require.NoError(t, r.Register(&mockProvider{id: "a"}))
	require.NoError(t, r.Register(&mockProvider{id: "b", category: types.CategorySystem}))

	stats := r.Stats()
	assert.Equal(t, 2, stats["total_services"])
	assert.Equal(t, 2, stats["total_tools"])
	assert.Equal(t, map[string]int{"filesystem": 1, "system": 1}, stats["categories"])
}
