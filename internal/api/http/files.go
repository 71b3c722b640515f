package http

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dkedar7/cowork-dash/backend/internal/providers/filesystem"
	"github.com/dkedar7/cowork-dash/backend/internal/shared/types"
	"github.com/dkedar7/cowork-dash/backend/internal/shared/utils"
	"github.com/dkedar7/cowork-dash/backend/internal/vfs"
)

// workspace resolves the :id param to a live filesystem and touches the
// session. It writes a 404 and returns nil when the session is unknown.
func (h *Handlers) workspace(c *gin.Context) *vfs.Filesystem {
	sessionID := c.Param("id")
	if _, ok := h.sessions.GetSession(sessionID); !ok {
		errorJSON(c, http.StatusNotFound, "session not found")
		return nil
	}
	fs, ok := h.sessions.GetFilesystem(sessionID)
	if !ok {
		errorJSON(c, http.StatusNotFound, "session not found")
		return nil
	}
	return fs
}

// filePath returns the *path wildcard without its leading slash.
func filePath(c *gin.Context) string {
	return strings.TrimPrefix(c.Param("path"), "/")
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, vfs.ErrIsADirectory), errors.Is(err, vfs.ErrNotADirectory):
		return http.StatusBadRequest
	case errors.Is(err, vfs.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, vfs.ErrAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, vfs.ErrPermission):
		return http.StatusForbidden
	case errors.Is(err, filesystem.ErrBinaryFile):
		return http.StatusUnsupportedMediaType
	default:
		return http.StatusInternalServerError
	}
}

// Tree returns the file browser tree under ?path= (default: the root).
// ?lazy=true leaves folder children empty.
func (h *Handlers) Tree(c *gin.Context) {
	fs := h.workspace(c)
	if fs == nil {
		return
	}
	lazy, _ := strconv.ParseBool(c.DefaultQuery("lazy", "false"))

	items, err := filesystem.BuildFileTree(fs, c.Query("path"), lazy)
	if err != nil {
		errorJSON(c, statusFor(err), err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// ReadFile serves a workspace file. By default the raw bytes are sent as an
// attachment; ?view=true returns decoded text content as JSON instead.
func (h *Handlers) ReadFile(c *gin.Context) {
	fs := h.workspace(c)
	if fs == nil {
		return
	}
	rel := filePath(c)

	if view, _ := strconv.ParseBool(c.DefaultQuery("view", "false")); view {
		content, isText, charset, err := filesystem.ReadFileContent(fs, rel)
		if err != nil {
			errorJSON(c, statusFor(err), err.Error())
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"path":    rel,
			"content": content,
			"is_text": isText,
			"charset": charset,
		})
		return
	}

	b64, name, mime, ok := filesystem.GetFileDownloadData(fs, rel)
	if !ok {
		errorJSON(c, http.StatusNotFound, fmt.Sprintf("file not found: %s", rel))
		return
	}
	data, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		errorJSON(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Data(http.StatusOK, mime, data)
}

// WriteFile creates or replaces a workspace file, creating parents.
func (h *Handlers) WriteFile(c *gin.Context) {
	fs := h.workspace(c)
	if fs == nil {
		return
	}
	rel := filePath(c)
	if rel == "" {
		errorJSON(c, http.StatusBadRequest, "path is required")
		return
	}

	var req types.WriteFileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorJSON(c, http.StatusBadRequest, err.Error())
		return
	}

	var data []byte
	switch strings.ToLower(req.Encoding) {
	case "", "utf-8", "utf8", "text":
		data = []byte(req.Content)
	case "base64":
		decoded, err := base64.StdEncoding.DecodeString(req.Content)
		if err != nil {
			errorJSON(c, http.StatusBadRequest, "content is not valid base64")
			return
		}
		data = decoded
	default:
		errorJSON(c, http.StatusBadRequest, fmt.Sprintf("unsupported encoding: %s", req.Encoding))
		return
	}

	if err := filesystem.WriteFile(fs, rel, data); err != nil {
		errorJSON(c, statusFor(err), err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"path":    fs.Normalize(rel),
		"size":    len(data),
	})
}

// Exec runs a command in the session's sandbox and returns the result
// record. Command failures are reported in the body with a 200.
func (h *Handlers) Exec(c *gin.Context) {
	fs := h.workspace(c)
	if fs == nil {
		return
	}

	var req types.ShellRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorJSON(c, http.StatusBadRequest, err.Error())
		return
	}
	if err := utils.ValidateCommand(req.Command); err != nil {
		errorJSON(c, http.StatusBadRequest, err.Error())
		return
	}
	if err := utils.ValidateEnv(req.Env); err != nil {
		errorJSON(c, http.StatusBadRequest, err.Error())
		return
	}
	if req.TimeoutSeconds < 0 {
		errorJSON(c, http.StatusBadRequest, "timeout_seconds must not be negative")
		return
	}

	executor := h.executors.GetExecutor(c.Param("id"), fs)
	result := executor.Execute(c.Request.Context(), req.Command,
		time.Duration(req.TimeoutSeconds)*time.Second, req.Env)
	c.JSON(http.StatusOK, result)
}
