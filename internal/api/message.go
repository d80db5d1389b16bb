package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/neurobridge/portal-api/internal/middleware"
	"github.com/neurobridge/portal-api/internal/service"
)

// MessageHandler serves the direct (1:1) messaging endpoints.
type MessageHandler struct {
	svc    *service.MessageService
	logger *zap.Logger
}

func NewMessageHandler(svc *service.MessageService, logger *zap.Logger) *MessageHandler {
	return &MessageHandler{svc: svc, logger: logger}
}

// Send handles POST /api/messages
func (h *MessageHandler) Send(c *gin.Context) {
	var req service.SendDirectMessageInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	caller := middleware.CurrentIdentity(c)
	msg, err := h.svc.Send(c.Request.Context(), caller, req)
	if err != nil {
		respondError(c, h.logger, "send direct message", err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}

// ListForUser handles GET /api/messages/user/:id
func (h *MessageHandler) ListForUser(c *gin.Context) {
	caller := middleware.CurrentIdentity(c)
	messages, err := h.svc.ListForUser(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		respondError(c, h.logger, "list direct messages", err)
		return
	}
	c.JSON(http.StatusOK, messages)
}

// UnreadCount handles GET /api/messages/unread/count
func (h *MessageHandler) UnreadCount(c *gin.Context) {
	caller := middleware.CurrentIdentity(c)
	count, err := h.svc.UnreadCount(c.Request.Context(), caller)
	if err != nil {
		respondError(c, h.logger, "count unread messages", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": count})
}

// MarkRead handles PATCH /api/messages/:id/read
func (h *MessageHandler) MarkRead(c *gin.Context) {
	caller := middleware.CurrentIdentity(c)
	if err := h.svc.MarkRead(c.Request.Context(), caller, c.Param("id")); err != nil {
		respondError(c, h.logger, "mark message read", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

// React handles PATCH /api/messages/:id/react?emoji=
func (h *MessageHandler) React(c *gin.Context) {
	caller := middleware.CurrentIdentity(c)
	reactions, err := h.svc.React(c.Request.Context(), caller, c.Param("id"), c.Query("emoji"))
	if err != nil {
		respondError(c, h.logger, "react to message", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reactions": reactions})
}

// Delete handles DELETE /api/messages/:id?mode=for_me|for_everyone
func (h *MessageHandler) Delete(c *gin.Context) {
	caller := middleware.CurrentIdentity(c)
	mode := c.DefaultQuery("mode", service.DeleteForMe)

	status, err := h.svc.Delete(c.Request.Context(), caller, c.Param("id"), mode)
	if err != nil {
		respondError(c, h.logger, "delete message", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": status, "message_id": c.Param("id")})
}
