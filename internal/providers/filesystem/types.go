package filesystem

import (
	"fmt"

	"github.com/dkedar7/cowork-dash/backend/internal/shared/types"
	"github.com/dkedar7/cowork-dash/backend/internal/vfs"
)

// FileInfo is one entry of a listing or glob. Directory paths carry a
// trailing slash.
type FileInfo struct {
	Path  string `json:"path"`
	IsDir bool   `json:"is_dir"`
	Size  int64  `json:"size,omitempty"`
}

// WriteResult reports the outcome of a create-only write.
type WriteResult struct {
	Path  string `json:"path"`
	Error string `json:"error,omitempty"`
}

// EditResult reports the outcome of a string replacement.
type EditResult struct {
	Path        string `json:"path"`
	Occurrences int    `json:"occurrences"`
	Error       string `json:"error,omitempty"`
}

// GrepMatch is a single matching line. Line is 1-based.
type GrepMatch struct {
	Path string `json:"path"`
	Line int    `json:"line"`
	Text string `json:"text"`
}

// FileUpload is one file of a bulk upload.
type FileUpload struct {
	Path    string `json:"path"`
	Content []byte `json:"content"`
}

// Transfer error tags.
const (
	ErrTagFileNotFound     = "file_not_found"
	ErrTagIsDirectory      = "is_directory"
	ErrTagInvalidPath      = "invalid_path"
	ErrTagPermissionDenied = "permission_denied"
)

// FileUploadResponse is the per-file result of UploadFiles.
type FileUploadResponse struct {
	Path  string `json:"path"`
	Error string `json:"error,omitempty"`
}

// FileDownloadResponse is the per-file result of DownloadFiles. Content is
// nil whenever Error is set.
type FileDownloadResponse struct {
	Path    string `json:"path"`
	Content []byte `json:"content"`
	Error   string `json:"error,omitempty"`
}

// Sessions resolves a session id to its workspace.
type Sessions interface {
	GetFilesystem(id string) (*vfs.Filesystem, bool)
}

// FilesystemOps provides common filesystem operation helpers
type FilesystemOps struct {
	Sessions Sessions
}

// Backend returns the adapter for the session named in appCtx.
func (ops *FilesystemOps) Backend(appCtx *types.Context) (*Backend, error) {
	id := appCtx.Session()
	if id == "" {
		return nil, fmt.Errorf("session_id required")
	}
	if ops.Sessions == nil {
		return nil, fmt.Errorf("no session store configured")
	}
	fs, ok := ops.Sessions.GetFilesystem(id)
	if !ok {
		return nil, fmt.Errorf("session %s not found", id)
	}
	return NewBackend(fs), nil
}

// Success helper
func Success(data map[string]interface{}) (*types.Result, error) {
	return &types.Result{Success: true, Data: data}, nil
}

// Failure helper
func Failure(message string) (*types.Result, error) {
	msg := message
	return &types.Result{Success: false, Error: &msg}, nil
}

// GetString extracts a string parameter.
func GetString(params map[string]interface{}, key string) (string, bool) {
	v, ok := params[key].(string)
	return v, ok
}

// GetBool extracts a boolean parameter, returning def when absent.
func GetBool(params map[string]interface{}, key string, def bool) bool {
	if v, ok := params[key].(bool); ok {
		return v
	}
	return def
}

// GetInt extracts an integer parameter. JSON numbers arrive as float64.
func GetInt(params map[string]interface{}, key string, def int) int {
	switch v := params[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return def
}
