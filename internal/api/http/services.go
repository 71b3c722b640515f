package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/dkedar7/cowork-dash/backend/internal/api/middleware"
	"github.com/dkedar7/cowork-dash/backend/internal/shared/types"
	"github.com/dkedar7/cowork-dash/backend/internal/shared/utils"
)

// DiscoverRequest asks for services relevant to a free-text query.
type DiscoverRequest struct {
	Query string `json:"query" binding:"required"`
	Limit int    `json:"limit"`
}

// ListServices lists all available services
func (h *Handlers) ListServices(c *gin.Context) {
	categoryStr := c.Query("category")
	if err := utils.ValidateCategory(categoryStr, false); err != nil {
		errorJSON(c, http.StatusBadRequest, err.Error())
		return
	}

	var category *types.Category
	if categoryStr != "" {
		cat := types.Category(categoryStr)
		category = &cat
	}

	c.JSON(http.StatusOK, gin.H{
		"services": h.services.List(category),
		"stats":    h.services.Stats(),
	})
}

// DiscoverServices ranks services against a query
func (h *Handlers) DiscoverServices(c *gin.Context) {
	var req DiscoverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorJSON(c, http.StatusBadRequest, err.Error())
		return
	}
	if err := utils.ValidateQuery(req.Query); err != nil {
		errorJSON(c, http.StatusBadRequest, err.Error())
		return
	}
	if req.Limit <= 0 {
		req.Limit = 5
	}

	c.JSON(http.StatusOK, gin.H{
		"query":    req.Query,
		"services": h.services.Discover(req.Query, req.Limit),
	})
}

// ExecuteService executes a service tool. Tool-level failures come back as
// a 200 with success=false; routing errors are 4xx.
func (h *Handlers) ExecuteService(c *gin.Context) {
	var req types.ExecuteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorJSON(c, http.StatusBadRequest, err.Error())
		return
	}
	if err := utils.ValidateToolID(req.ToolID, "tool_id", true); err != nil {
		errorJSON(c, http.StatusBadRequest, err.Error())
		return
	}

	serviceID, _, ok := strings.Cut(req.ToolID, ".")
	if !ok {
		errorJSON(c, http.StatusBadRequest, "tool_id must have the form service.tool")
		return
	}
	if _, found := h.services.Get(serviceID); !found {
		errorJSON(c, http.StatusNotFound, "service not found: "+serviceID)
		return
	}

	appCtx := &types.Context{}
	if req.SessionID != nil && *req.SessionID != "" {
		if !h.sessions.Exists(*req.SessionID) {
			errorJSON(c, http.StatusNotFound, "session not found")
			return
		}
		h.sessions.GetSession(*req.SessionID)
		appCtx.SessionID = req.SessionID
	}
	if rid := middleware.GetRequestID(c); rid != "" {
		appCtx.RequestID = &rid
	}

	result, err := h.services.Execute(c.Request.Context(), req.ToolID, req.Params, appCtx)
	if err != nil {
		errorJSON(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusOK, result)
}
