package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"horror-story-server/internal/models"
)

// chatReply принимает OpenAI-совместимые запросы. Лишние поля (model, stream и т.п.) игнорируются.
func (h *Handler) chatReply(c *gin.Context) {
	var req models.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.invalidInput(c, err)
		return
	}

	resp, err := h.chat.Reply(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	chatRepliesTotal.Inc()
	c.JSON(http.StatusOK, resp)
}
