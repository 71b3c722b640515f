package filesystem

import (
	"context"
	"fmt"

	"github.com/dkedar7/cowork-dash/backend/internal/shared/types"
	"github.com/dkedar7/cowork-dash/backend/internal/vfs"
)

// MetadataOps handles file metadata
type MetadataOps struct {
	*FilesystemOps
}

// GetTools returns metadata tool definitions
func (m *MetadataOps) GetTools() []types.Tool {
	return []types.Tool{
		{
			ID:          "filesystem.stat",
			Name:        "File Info",
			Description: "Get file or directory metadata",
			Parameters: []types.Parameter{
				{Name: "path", Type: "string", Description: "File or directory path", Required: true},
			},
			Returns: "object",
		},
		{
			ID:          "filesystem.total_size",
			Name:        "Total Size",
			Description: "Sum file sizes below a directory",
			Parameters: []types.Parameter{
				{Name: "path", Type: "string", Description: "Directory path (default workspace root)", Required: false},
			},
			Returns: "object",
		},
		{
			ID:          "filesystem.mime_type",
			Name:        "Detect MIME Type",
			Description: "Detect file MIME type from name and content",
			Parameters: []types.Parameter{
				{Name: "path", Type: "string", Description: "File path", Required: true},
			},
			Returns: "object",
		},
	}
}

// Stat gets file info
func (m *MetadataOps) Stat(ctx context.Context, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	path, ok := GetString(params, "path")
	if !ok || path == "" {
		return Failure("path parameter required")
	}
	be, err := m.Backend(appCtx)
	if err != nil {
		return Failure(err.Error())
	}

	info, err := be.Filesystem().Stat(path)
	if err != nil {
		return Failure(fmt.Sprintf("stat failed: %v", err))
	}
	result := map[string]interface{}{
		"path":   info.Path,
		"name":   info.Name,
		"is_dir": info.IsDir,
		"size":   info.Size,
	}
	if !info.IsDir {
		result["size_human"] = formatBytes(info.Size)
		result["viewable"] = IsTextFile(info.Name)
	}
	return Success(result)
}

// TotalSize sums file sizes
func (m *MetadataOps) TotalSize(ctx context.Context, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	be, err := m.Backend(appCtx)
	if err != nil {
		return Failure(err.Error())
	}

	path, _ := GetString(params, "path")
	var total int64
	var files, dirs int
	err = be.Filesystem().Walk(path, func(info vfs.Info) error {
		if info.IsDir {
			dirs++
			return nil
		}
		files++
		total += info.Size
		return nil
	})
	if err != nil {
		return Failure(fmt.Sprintf("walk failed: %v", err))
	}

	return Success(map[string]interface{}{
		"path":        be.NormalizePath(path),
		"total_bytes": total,
		"total_human": formatBytes(total),
		"files":       files,
		"dirs":        dirs,
	})
}

// MIMEType detects file MIME type
func (m *MetadataOps) MIMEType(ctx context.Context, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	path, ok := GetString(params, "path")
	if !ok || path == "" {
		return Failure("path parameter required")
	}
	be, err := m.Backend(appCtx)
	if err != nil {
		return Failure(err.Error())
	}

	fs := be.Filesystem()
	data, err := fs.ReadBytes(path)
	if err != nil {
		return Failure(fmt.Sprintf("mime detection failed: %v", err))
	}
	name := fs.Path(path).Name()
	return Success(map[string]interface{}{
		"path":      fs.Normalize(path),
		"mime_type": MimeType(name, data),
		"is_text":   IsTextFile(name) && looksLikeText(data),
	})
}

// formatBytes formats bytes to human-readable size
func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}

	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}

	units := []string{"KB", "MB", "GB", "TB", "PB"}
	return fmt.Sprintf("%.2f %s", float64(bytes)/float64(div), units[exp])
}
