// Package testutil provides testing utilities and helpers for backend tests.
package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dkedar7/cowork-dash/backend/internal/shared/types"
	"github.com/dkedar7/cowork-dash/backend/internal/vfs"
)

// WorkspaceRoot is the root every fixture workspace uses.
const WorkspaceRoot = "/workspace"

// NewWorkspace returns an empty workspace rooted at WorkspaceRoot.
func NewWorkspace(t *testing.T) *vfs.Filesystem {
	t.Helper()
	return vfs.New(WorkspaceRoot)
}

// SeedWorkspace returns a workspace holding:
//
//	/workspace/file1.txt          "content of file 1"
//	/workspace/file2.py           "print('hello')"
//	/workspace/subdir/nested.txt  "nested content"
func SeedWorkspace(t *testing.T) *vfs.Filesystem {
	t.Helper()
	fs := NewWorkspace(t)
	require.NoError(t, fs.WriteText("/workspace/file1.txt", "content of file 1"))
	require.NoError(t, fs.WriteText("/workspace/file2.py", "print('hello')"))
	require.NoError(t, fs.Mkdir("/workspace/subdir", true, false))
	require.NoError(t, fs.WriteText("/workspace/subdir/nested.txt", "nested content"))
	return fs
}

// Sessions is a fixed session store keyed by id.
type Sessions map[string]*vfs.Filesystem

// GetFilesystem implements the provider session lookup.
func (s Sessions) GetFilesystem(id string) (*vfs.Filesystem, bool) {
	fs, ok := s[id]
	return fs, ok
}

// SessionContext builds a tool context for id.
func SessionContext(id string) *types.Context {
	return &types.Context{SessionID: &id}
}

// MockServiceProvider is a mock implementation of service.Provider for testing.
type MockServiceProvider struct {
	mock.Mock
}

// Definition mocks the Definition method.
func (m *MockServiceProvider) Definition() types.Service {
	args := m.Called()
	return args.Get(0).(types.Service)
}

// Execute mocks the Execute method.
func (m *MockServiceProvider) Execute(ctx context.Context, toolID string, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	args := m.Called(ctx, toolID, params, appCtx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Result), args.Error(1)
}

// NewMockServiceProvider returns a provider mock whose Definition reports
// a service with the given id and tool ids.
func NewMockServiceProvider(id string, toolIDs ...string) *MockServiceProvider {
	m := new(MockServiceProvider)
	def := types.Service{ID: id, Name: id, Category: types.CategorySystem}
	for _, tid := range toolIDs {
		def.Tools = append(def.Tools, types.Tool{ID: tid, Name: tid})
	}
	m.On("Definition").Return(def).Maybe()
	return m
}
