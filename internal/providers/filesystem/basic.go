package filesystem

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dkedar7/cowork-dash/backend/internal/shared/types"
	"github.com/dkedar7/cowork-dash/backend/internal/vfs"
)

// DefaultReadLimit caps filesystem.read when no limit is given.
const DefaultReadLimit = 2000

// BasicOps handles basic file operations
type BasicOps struct {
	*FilesystemOps
}

// GetTools returns basic file operation tool definitions
func (b *BasicOps) GetTools() []types.Tool {
	return []types.Tool{
		{
			ID:          "filesystem.ls",
			Name:        "List Directory",
			Description: "List direct children of a directory (directories end with /)",
			Parameters: []types.Parameter{
				{Name: "path", Type: "string", Description: "Directory path (default workspace root)", Required: false},
			},
			Returns: "array",
		},
		{
			ID:          "filesystem.read",
			Name:        "Read File",
			Description: "Read file contents with line numbers",
			Parameters: []types.Parameter{
				{Name: "path", Type: "string", Description: "File path", Required: true},
				{Name: "offset", Type: "number", Description: "Lines to skip (default 0)", Required: false},
				{Name: "limit", Type: "number", Description: "Maximum lines (default 2000)", Required: false},
			},
			Returns: "string",
		},
		{
			ID:          "filesystem.write",
			Name:        "Write File",
			Description: "Create a new file (fails if it exists)",
			Parameters: []types.Parameter{
				{Name: "path", Type: "string", Description: "File path", Required: true},
				{Name: "content", Type: "string", Description: "File content", Required: true},
			},
			Returns: "object",
		},
		{
			ID:          "filesystem.edit",
			Name:        "Edit File",
			Description: "Replace a string in a file",
			Parameters: []types.Parameter{
				{Name: "path", Type: "string", Description: "File path", Required: true},
				{Name: "old_string", Type: "string", Description: "Text to replace", Required: true},
				{Name: "new_string", Type: "string", Description: "Replacement text", Required: true},
				{Name: "replace_all", Type: "boolean", Description: "Replace every occurrence", Required: false},
			},
			Returns: "object",
		},
		{
			ID:          "filesystem.mkdir",
			Name:        "Create Directory",
			Description: "Create a directory",
			Parameters: []types.Parameter{
				{Name: "path", Type: "string", Description: "Directory path", Required: true},
				{Name: "parents", Type: "boolean", Description: "Create missing parents (default true)", Required: false},
				{Name: "exist_ok", Type: "boolean", Description: "Accept an existing directory (default true)", Required: false},
			},
			Returns: "boolean",
		},
		{
			ID:          "filesystem.delete",
			Name:        "Delete",
			Description: "Delete a file or directory",
			Parameters: []types.Parameter{
				{Name: "path", Type: "string", Description: "File or directory path", Required: true},
				{Name: "recursive", Type: "boolean", Description: "Delete non-empty directories", Required: false},
			},
			Returns: "boolean",
		},
		{
			ID:          "filesystem.exists",
			Name:        "Check Existence",
			Description: "Check if a file or directory exists",
			Parameters: []types.Parameter{
				{Name: "path", Type: "string", Description: "File or directory path", Required: true},
			},
			Returns: "boolean",
		},
	}
}

// List lists a directory
func (b *BasicOps) List(ctx context.Context, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	be, err := b.Backend(appCtx)
	if err != nil {
		return Failure(err.Error())
	}
	path, _ := GetString(params, "path")
	entries := be.LsInfo(path)
	return Success(map[string]interface{}{"path": be.NormalizePath(path), "entries": entries, "count": len(entries)})
}

// Read reads a file with line numbers
func (b *BasicOps) Read(ctx context.Context, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	path, ok := GetString(params, "path")
	if !ok || path == "" {
		return Failure("path parameter required")
	}
	be, err := b.Backend(appCtx)
	if err != nil {
		return Failure(err.Error())
	}

	content := be.Read(path, GetInt(params, "offset", 0), GetInt(params, "limit", DefaultReadLimit))
	if strings.HasPrefix(content, "Error") {
		return Failure(content)
	}
	return Success(map[string]interface{}{"path": be.NormalizePath(path), "content": content})
}

// Write creates a new file
func (b *BasicOps) Write(ctx context.Context, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	path, ok := GetString(params, "path")
	if !ok || path == "" {
		return Failure("path parameter required")
	}
	content, ok := GetString(params, "content")
	if !ok {
		return Failure("content parameter required")
	}
	be, err := b.Backend(appCtx)
	if err != nil {
		return Failure(err.Error())
	}

	res := be.Write(path, content)
	if res.Error != "" {
		return Failure(res.Error)
	}
	return Success(map[string]interface{}{"written": true, "path": res.Path, "size": len(content)})
}

// Edit replaces text in a file
func (b *BasicOps) Edit(ctx context.Context, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	path, ok := GetString(params, "path")
	if !ok || path == "" {
		return Failure("path parameter required")
	}
	oldString, ok := GetString(params, "old_string")
	if !ok {
		return Failure("old_string parameter required")
	}
	newString, ok := GetString(params, "new_string")
	if !ok {
		return Failure("new_string parameter required")
	}
	be, err := b.Backend(appCtx)
	if err != nil {
		return Failure(err.Error())
	}

	res := be.Edit(path, oldString, newString, GetBool(params, "replace_all", false))
	if res.Error != "" {
		return Failure(res.Error)
	}
	return Success(map[string]interface{}{"path": res.Path, "occurrences": res.Occurrences})
}

// Mkdir creates a directory
func (b *BasicOps) Mkdir(ctx context.Context, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	path, ok := GetString(params, "path")
	if !ok || path == "" {
		return Failure("path parameter required")
	}
	be, err := b.Backend(appCtx)
	if err != nil {
		return Failure(err.Error())
	}

	fs := be.Filesystem()
	if err := fs.Mkdir(path, GetBool(params, "parents", true), GetBool(params, "exist_ok", true)); err != nil {
		return Failure(fmt.Sprintf("mkdir failed: %v", err))
	}
	return Success(map[string]interface{}{"created": true, "path": fs.Normalize(path)})
}

// Delete removes a file or directory
func (b *BasicOps) Delete(ctx context.Context, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	path, ok := GetString(params, "path")
	if !ok || path == "" {
		return Failure("path parameter required")
	}
	be, err := b.Backend(appCtx)
	if err != nil {
		return Failure(err.Error())
	}

	fs := be.Filesystem()
	name := fs.Normalize(path)
	switch {
	case !fs.Exists(name):
		return Failure(fmt.Sprintf("delete failed: %s not found", name))
	case fs.IsFile(name):
		err = fs.Unlink(name, false)
	case GetBool(params, "recursive", false):
		err = fs.RemoveAll(name)
	default:
		err = fs.Rmdir(name)
	}
	if err != nil {
		if errors.Is(err, vfs.ErrDirectoryNotEmpty) {
			return Failure(fmt.Sprintf("delete failed: %v (set recursive to remove)", err))
		}
		return Failure(fmt.Sprintf("delete failed: %v", err))
	}
	return Success(map[string]interface{}{"deleted": true, "path": name})
}

// Exists checks existence
func (b *BasicOps) Exists(ctx context.Context, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	path, ok := GetString(params, "path")
	if !ok || path == "" {
		return Failure("path parameter required")
	}
	be, err := b.Backend(appCtx)
	if err != nil {
		return Failure(err.Error())
	}

	fs := be.Filesystem()
	return Success(map[string]interface{}{
		"exists":  fs.Exists(path),
		"is_file": fs.IsFile(path),
		"is_dir":  fs.IsDir(path),
	})
}
