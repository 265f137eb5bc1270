package handler

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"horror-story-server/internal/models"
)

// multipartOverhead - запас на текстовые поля и заголовки частей формы.
const multipartOverhead = 1 << 20

const defaultImageMIME = "image/jpeg"

func (h *Handler) palmReading(c *gin.Context) {
	h.limitMultipart(c, 1)
	image, err := h.formImage(c, "image")
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	if image == nil {
		h.badRequest(c, "image is required")
		return
	}

	text, err := h.reading.PalmReading(c.Request.Context(), image)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	readingsTotal.WithLabelValues("palm").Inc()
	c.JSON(http.StatusOK, models.PalmReadingResponse{OK: true, Text: text})
}

func (h *Handler) faceReading(c *gin.Context) {
	h.limitMultipart(c, 2)
	req := &models.FaceReadingRequest{
		Mode:   strings.TrimSpace(c.PostForm("mode")),
		Prompt: c.PostForm("prompt"),
		Images: make([]models.UploadedImage, 2),
	}
	for i, field := range []string{"image1", "image2"} {
		image, err := h.formImage(c, field)
		if err != nil {
			h.handleServiceError(c, err)
			return
		}
		if image != nil {
			req.Images[i] = *image
		}
	}

	content, err := h.reading.FaceReading(c.Request.Context(), req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	readingsTotal.WithLabelValues("face").Inc()
	c.JSON(http.StatusOK, models.FaceReadingResponse{OK: true, Content: content})
}

func (h *Handler) limitMultipart(c *gin.Context, images int64) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, images*h.maxImageBytes+multipartOverhead)
}

// formImage читает файл из поля формы. Отсутствующее поле - не ошибка, возвращается nil.
func (h *Handler) formImage(c *gin.Context, field string) (*models.UploadedImage, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil
		}
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, models.NewInputError("request body is too large")
		}
		return nil, models.NewInputError("invalid multipart form: %s", err.Error())
	}
	if fh.Size > h.maxImageBytes {
		return nil, models.NewInputError("%s exceeds %d bytes", field, h.maxImageBytes)
	}
	data, err := readFormFile(fh, h.maxImageBytes)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}
	mime := fh.Header.Get("Content-Type")
	if mime == "" || mime == "application/octet-stream" {
		mime = defaultImageMIME
	}
	return &models.UploadedImage{MIMEType: mime, Data: data}, nil
}

func readFormFile(fh *multipart.FileHeader, limit int64) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("не удалось открыть загруженный файл: %w", err)
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		return nil, fmt.Errorf("не удалось прочитать загруженный файл: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, models.NewInputError("image exceeds %d bytes", limit)
	}
	return data, nil
}
