package http

import (
	"errors"
	"io"
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"

	"github.com/dkedar7/cowork-dash/backend/internal/domain/session"
	"github.com/dkedar7/cowork-dash/backend/internal/infrastructure/logging"
	"github.com/dkedar7/cowork-dash/backend/internal/shared/types"
	"github.com/dkedar7/cowork-dash/backend/internal/shared/utils"
	"github.com/dkedar7/cowork-dash/backend/internal/vfs"
)

// CreateSession creates a workspace session. The body is optional; an
// empty id is generated server-side.
func (h *Handlers) CreateSession(c *gin.Context) {
	var req types.CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		errorJSON(c, http.StatusBadRequest, err.Error())
		return
	}
	if err := utils.ValidateID(req.ID, "id", false); err != nil {
		errorJSON(c, http.StatusBadRequest, err.Error())
		return
	}

	sessionID, err := h.sessions.CreateSession(req.ID)
	if errors.Is(err, session.ErrSessionExists) {
		errorJSON(c, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		errorJSON(c, http.StatusInternalServerError, err.Error())
		return
	}

	info, _ := h.sessions.GetSession(sessionID)
	h.log.Info("Session created via API", logging.Session(sessionID))
	c.JSON(http.StatusCreated, info)
}

// ListSessions lists live sessions, oldest first
func (h *Handlers) ListSessions(c *gin.Context) {
	sessions := h.sessions.List()
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].CreatedAt.Before(sessions[j].CreatedAt)
	})
	c.JSON(http.StatusOK, gin.H{
		"sessions": sessions,
		"stats":    h.sessions.Stats(),
	})
}

// GetSession returns session metadata and file totals
func (h *Handlers) GetSession(c *gin.Context) {
	sessionID := c.Param("id")
	info, ok := h.sessions.GetSession(sessionID)
	if !ok {
		errorJSON(c, http.StatusNotFound, "session not found")
		return
	}

	fs, _ := h.sessions.GetFilesystem(sessionID)
	resp := gin.H{"session": info}
	if fs != nil {
		var files int
		var bytes int64
		_ = fs.Walk(fs.RootPath(), func(e vfs.Info) error {
			if !e.IsDir {
				files++
				bytes += e.Size
			}
			return nil
		})
		resp["files"] = files
		resp["bytes"] = bytes
	}
	if exec, ok := h.executors.Lookup(sessionID); ok {
		resp["executor"] = exec.Stats()
	}
	c.JSON(http.StatusOK, resp)
}

// DeleteSession removes a session; deleting an unknown id is a 404
func (h *Handlers) DeleteSession(c *gin.Context) {
	sessionID := c.Param("id")
	if !h.sessions.Exists(sessionID) {
		errorJSON(c, http.StatusNotFound, "session not found")
		return
	}
	h.sessions.DeleteSession(sessionID)
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"session_id": sessionID,
	})
}
