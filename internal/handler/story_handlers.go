package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"horror-story-server/internal/middleware"
	"horror-story-server/internal/models"
)

// maxJSONBodyBytes ограничивает тело JSON-запросов (история приходит целиком от клиента).
const maxJSONBodyBytes = 1 << 20

func (h *Handler) generateChapter(c *gin.Context) {
	var req models.ChapterRequest
	if err := decodeStrictJSON(c, &req); err != nil {
		h.invalidInput(c, err)
		return
	}

	resp, err := h.story.GenerateChapter(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	chaptersGeneratedTotal.WithLabelValues(chapterKind(resp.ChapterNumber, resp.IsFinal)).Inc()
	h.logger.Info("Chapter generated",
		zap.String("request_id", middleware.GetRequestID(c)),
		zap.String("sessionId", req.SessionID),
		zap.Int("chapter", resp.ChapterNumber),
		zap.Bool("isFinal", resp.IsFinal),
	)
	c.JSON(http.StatusOK, resp)
}

// decodeStrictJSON читает тело запроса и отклоняет неизвестные поля и лишние данные после объекта.
func decodeStrictJSON(c *gin.Context, dst any) error {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxJSONBodyBytes))
	if err != nil {
		return err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return errors.New("empty body")
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if dec.More() {
		return errors.New("unexpected data after JSON object")
	}
	return nil
}
