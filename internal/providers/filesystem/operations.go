package filesystem

import (
	"context"
	"encoding/base64"
	"fmt"
	"path"

	"github.com/dkedar7/cowork-dash/backend/internal/shared/types"
	"github.com/dkedar7/cowork-dash/backend/internal/vfs"
)

// OperationsOps handles bulk transfer and file manipulation
type OperationsOps struct {
	*FilesystemOps
}

// GetTools returns operation tool definitions
func (o *OperationsOps) GetTools() []types.Tool {
	return []types.Tool{
		{
			ID:          "filesystem.upload",
			Name:        "Upload Files",
			Description: "Write base64 encoded files, overwriting existing ones",
			Parameters: []types.Parameter{
				{Name: "files", Type: "array", Description: "Array of {path, content} with base64 content", Required: true},
			},
			Returns: "array",
		},
		{
			ID:          "filesystem.download",
			Name:        "Download Files",
			Description: "Read files as base64 with per-file errors",
			Parameters: []types.Parameter{
				{Name: "paths", Type: "array", Description: "File paths", Required: true},
			},
			Returns: "array",
		},
		{
			ID:          "filesystem.copy",
			Name:        "Copy",
			Description: "Copy a file or directory",
			Parameters: []types.Parameter{
				{Name: "source", Type: "string", Description: "Source path", Required: true},
				{Name: "destination", Type: "string", Description: "Destination path", Required: true},
			},
			Returns: "boolean",
		},
		{
			ID:          "filesystem.move",
			Name:        "Move",
			Description: "Move or rename a file or directory",
			Parameters: []types.Parameter{
				{Name: "source", Type: "string", Description: "Source path", Required: true},
				{Name: "destination", Type: "string", Description: "Destination path", Required: true},
			},
			Returns: "boolean",
		},
	}
}

// Upload writes files in bulk
func (o *OperationsOps) Upload(ctx context.Context, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	raw, ok := params["files"].([]interface{})
	if !ok {
		return Failure("files parameter required")
	}
	be, err := o.Backend(appCtx)
	if err != nil {
		return Failure(err.Error())
	}

	uploads := make([]FileUpload, 0, len(raw))
	for i, item := range raw {
		m, ok := item.(map[string]interface{})
		if !ok {
			return Failure(fmt.Sprintf("files[%d] must be an object", i))
		}
		p, _ := GetString(m, "path")
		encoded, _ := GetString(m, "content")
		content, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return Failure(fmt.Sprintf("files[%d]: invalid base64 content: %v", i, err))
		}
		uploads = append(uploads, FileUpload{Path: p, Content: content})
	}

	results := be.UploadFiles(uploads)
	failed := 0
	for _, r := range results {
		if r.Error != "" {
			failed++
		}
	}
	return Success(map[string]interface{}{"results": results, "uploaded": len(results) - failed, "failed": failed})
}

// Download reads files in bulk
func (o *OperationsOps) Download(ctx context.Context, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	raw, ok := params["paths"].([]interface{})
	if !ok {
		return Failure("paths parameter required")
	}
	be, err := o.Backend(appCtx)
	if err != nil {
		return Failure(err.Error())
	}

	paths := make([]string, 0, len(raw))
	for _, item := range raw {
		p, _ := item.(string)
		paths = append(paths, p)
	}

	files := make([]map[string]interface{}, 0, len(paths))
	for _, r := range be.DownloadFiles(paths) {
		entry := map[string]interface{}{"path": r.Path, "content": nil, "error": nil}
		if r.Error != "" {
			entry["error"] = r.Error
		} else {
			entry["content"] = base64.StdEncoding.EncodeToString(r.Content)
		}
		files = append(files, entry)
	}
	return Success(map[string]interface{}{"files": files})
}

// Copy duplicates a file or directory tree
func (o *OperationsOps) Copy(ctx context.Context, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	return o.transfer(ctx, params, appCtx, false)
}

// Move relocates a file or directory tree
func (o *OperationsOps) Move(ctx context.Context, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	return o.transfer(ctx, params, appCtx, true)
}

func (o *OperationsOps) transfer(ctx context.Context, params map[string]interface{}, appCtx *types.Context, remove bool) (*types.Result, error) {
	source, ok := GetString(params, "source")
	if !ok || source == "" {
		return Failure("source parameter required")
	}
	destination, ok := GetString(params, "destination")
	if !ok || destination == "" {
		return Failure("destination parameter required")
	}
	be, err := o.Backend(appCtx)
	if err != nil {
		return Failure(err.Error())
	}

	op := "copy"
	if remove {
		op = "move"
	}
	fs := be.Filesystem()
	src, dst := fs.Normalize(source), fs.Normalize(destination)
	if src == fs.RootPath() {
		return Failure(fmt.Sprintf("%s failed: cannot %s the workspace root", op, op))
	}
	if dst == src || vfs.Within(src, dst) {
		return Failure(fmt.Sprintf("%s failed: destination %s is inside source %s", op, dst, src))
	}

	n, err := CopyTree(ctx, fs, src, dst)
	if err != nil {
		return Failure(fmt.Sprintf("%s failed: %v", op, err))
	}
	if remove {
		if err := fs.RemoveAll(src); err != nil {
			return Failure(fmt.Sprintf("%s failed: %v", op, err))
		}
	}
	return Success(map[string]interface{}{"source": src, "destination": dst, "files": n})
}

// CopyTree copies src (a file or directory) to dst within one filesystem.
// dst must not exist. It returns the number of files copied.
func CopyTree(ctx context.Context, fs *vfs.Filesystem, src, dst string) (int, error) {
	info, err := fs.Stat(src)
	if err != nil {
		return 0, err
	}
	if fs.Exists(dst) {
		return 0, fmt.Errorf("%s: %w", dst, vfs.ErrAlreadyExists)
	}
	if err := fs.MkdirAll(path.Dir(dst)); err != nil {
		return 0, err
	}

	if !info.IsDir {
		data, err := fs.ReadBytes(src)
		if err != nil {
			return 0, err
		}
		return 1, fs.WriteBytes(dst, data)
	}

	if err := fs.Mkdir(dst, false, false); err != nil {
		return 0, err
	}
	files := 0
	err = fs.Walk(src, func(info vfs.Info) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		target := path.Join(dst, vfs.Relative(src, info.Path))
		if info.IsDir {
			return fs.MkdirAll(target)
		}
		data, err := fs.ReadBytes(info.Path)
		if err != nil {
			return err
		}
		files++
		return fs.WriteBytes(target, data)
	})
	return files, err
}
