package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/aironrush/assistant/internal/common"
)

// createSessionReq mirrors the identity payload the frontend sends.
type createSessionReq struct {
	CognitoID string `json:"cognitoId" binding:"required"`
	Name      string `json:"name"`
	UserName  string `json:"userName"`
	UserEmail string `json:"userEmail"`
	Role      string `json:"role"`
	Title     string `json:"title"`
}

func (h *Handler) CreateSession(c *gin.Context) {
	var req createSessionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, "invalid json")
		return
	}

	sess, err := h.Svc.CreateSession(c.Request.Context(), req.CognitoID, req.Title)
	if err != nil {
		h.failErr(c, err)
		return
	}

	common.OK(c, gin.H{
		"session_id": sess.SessionID,
		"title":      sess.Title,
		"created_at": sess.CreatedAt,
		"message":    "Session created successfully",
	})
}

func (h *Handler) ListUserSessions(c *gin.Context) {
	sessions, err := h.Svc.Sessions(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		h.failErr(c, err)
		return
	}
	common.OK(c, gin.H{"sessions": sessions})
}

func (h *Handler) SessionHistory(c *gin.Context) {
	sessionID := c.Param("session_id")

	limit := 10
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	msgs := h.Svc.History(c.Request.Context(), sessionID, limit)
	common.OK(c, gin.H{
		"session_id": sessionID,
		"messages":   msgs,
	})
}
