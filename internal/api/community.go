package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/neurobridge/portal-api/internal/middleware"
	"github.com/neurobridge/portal-api/internal/service"
)

// CommunityHandler serves community and community-message endpoints.
type CommunityHandler struct {
	svc    *service.CommunityService
	logger *zap.Logger
}

func NewCommunityHandler(svc *service.CommunityService, logger *zap.Logger) *CommunityHandler {
	return &CommunityHandler{svc: svc, logger: logger}
}

// List handles GET /api/communities (therapist only)
func (h *CommunityHandler) List(c *gin.Context) {
	caller := middleware.CurrentIdentity(c)
	communities, err := h.svc.List(c.Request.Context(), caller)
	if err != nil {
		respondError(c, h.logger, "list communities", err)
		return
	}
	c.JSON(http.StatusOK, communities)
}

// GetDefault handles GET /api/communities/default — get-or-create of the
// default support community.
func (h *CommunityHandler) GetDefault(c *gin.Context) {
	community, err := h.svc.GetOrCreateDefault(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, "get default community", err)
		return
	}
	c.JSON(http.StatusOK, community)
}

// Get handles GET /api/communities/:id
func (h *CommunityHandler) Get(c *gin.Context) {
	community, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, "get community", err)
		return
	}
	c.JSON(http.StatusOK, community)
}

// Join handles POST /api/communities/:id/join
func (h *CommunityHandler) Join(c *gin.Context) {
	caller := middleware.CurrentIdentity(c)
	result, err := h.svc.Join(c.Request.Context(), c.Param("id"), caller)
	if err != nil {
		respondError(c, h.logger, "join community", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Leave handles DELETE /api/communities/:id/leave
func (h *CommunityHandler) Leave(c *gin.Context) {
	caller := middleware.CurrentIdentity(c)
	if err := h.svc.Leave(c.Request.Context(), c.Param("id"), caller); err != nil {
		respondError(c, h.logger, "leave community", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

// Members handles GET /api/communities/:id/members
func (h *CommunityHandler) Members(c *gin.Context) {
	members, err := h.svc.Members(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, "list community members", err)
		return
	}
	c.JSON(http.StatusOK, members)
}

// ListMessages handles GET /api/communities/:id/messages?limit=&offset=
func (h *CommunityHandler) ListMessages(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid 'limit' parameter"})
		return
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid 'offset' parameter"})
		return
	}

	caller := middleware.CurrentIdentity(c)
	page, err := h.svc.ListMessages(c.Request.Context(), c.Param("id"), caller, limit, offset)
	if err != nil {
		respondError(c, h.logger, "list community messages", err)
		return
	}
	c.JSON(http.StatusOK, page)
}

type sendCommunityMessageRequest struct {
	Content     string   `json:"content" binding:"required"`
	Attachments []string `json:"attachments"`
}

// SendMessage handles POST /api/communities/:id/messages
func (h *CommunityHandler) SendMessage(c *gin.Context) {
	var req sendCommunityMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	caller := middleware.CurrentIdentity(c)
	msg, err := h.svc.SendMessage(c.Request.Context(), c.Param("id"), caller, req.Content, req.Attachments)
	if err != nil {
		respondError(c, h.logger, "send community message", err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}

// React handles PATCH /api/communities/:id/messages/:messageId/react?emoji=
func (h *CommunityHandler) React(c *gin.Context) {
	caller := middleware.CurrentIdentity(c)
	reactions, err := h.svc.React(c.Request.Context(), c.Param("id"), c.Param("messageId"), c.Query("emoji"), caller)
	if err != nil {
		respondError(c, h.logger, "react to community message", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reactions": reactions})
}

// DeleteMessage handles DELETE /api/communities/:id/messages/:messageId?mode=
func (h *CommunityHandler) DeleteMessage(c *gin.Context) {
	caller := middleware.CurrentIdentity(c)
	mode := c.DefaultQuery("mode", service.DeleteForMe)

	status, err := h.svc.Delete(c.Request.Context(), c.Param("id"), c.Param("messageId"), mode, caller)
	if err != nil {
		respondError(c, h.logger, "delete community message", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": status, "message_id": c.Param("messageId")})
}
