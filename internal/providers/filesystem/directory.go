package filesystem

import (
	"context"
	"fmt"

	"github.com/dkedar7/cowork-dash/backend/internal/shared/types"
)

// DirectoryOps serves the workspace file tree
type DirectoryOps struct {
	*FilesystemOps
}

// GetTools returns directory tool definitions
func (d *DirectoryOps) GetTools() []types.Tool {
	return []types.Tool{
		{
			ID:          "filesystem.tree",
			Name:        "Directory Tree",
			Description: "Build the workspace file tree (hidden entries skipped, folders first)",
			Parameters: []types.Parameter{
				{Name: "path", Type: "string", Description: "Directory relative to the workspace (default root)", Required: false},
				{Name: "lazy", Type: "boolean", Description: "Only list immediate children", Required: false},
			},
			Returns: "array",
		},
		{
			ID:          "filesystem.read_content",
			Name:        "Read For Display",
			Description: "Read a text file for display with charset detection",
			Parameters: []types.Parameter{
				{Name: "path", Type: "string", Description: "File path relative to the workspace", Required: true},
			},
			Returns: "object",
		},
	}
}

// Tree builds a file tree
func (d *DirectoryOps) Tree(ctx context.Context, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	be, err := d.Backend(appCtx)
	if err != nil {
		return Failure(err.Error())
	}

	path, _ := GetString(params, "path")
	items, err := BuildFileTree(be.Filesystem(), path, GetBool(params, "lazy", false))
	if err != nil {
		return Failure(fmt.Sprintf("tree failed: %v", err))
	}
	return Success(map[string]interface{}{"path": be.NormalizePath(path), "items": items})
}

// ReadContent reads a file for display
func (d *DirectoryOps) ReadContent(ctx context.Context, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	path, ok := GetString(params, "path")
	if !ok || path == "" {
		return Failure("path parameter required")
	}
	be, err := d.Backend(appCtx)
	if err != nil {
		return Failure(err.Error())
	}

	content, _, charset, err := ReadFileContent(be.Filesystem(), path)
	if err != nil {
		return Failure(err.Error())
	}
	return Success(map[string]interface{}{"path": be.NormalizePath(path), "content": content, "charset": charset})
}
