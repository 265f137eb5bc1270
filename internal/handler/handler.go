// Package handler - HTTP-слой сервиса на gin.
package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"horror-story-server/internal/middleware"
	"horror-story-server/internal/models"
	"horror-story-server/internal/provider"
)

// StoryGenerator генерирует главы истории.
type StoryGenerator interface {
	GenerateChapter(ctx context.Context, req *models.ChapterRequest) (*models.ChapterResponse, error)
	ProviderName() string
}

// ChatResponder отвечает на сообщения консультанту.
type ChatResponder interface {
	Reply(ctx context.Context, req *models.ChatRequest) (*models.ChatResponse, error)
	ProviderName() string
}

// Reader выполняет чтение по ладони и по лицу.
type Reader interface {
	PalmReading(ctx context.Context, image *models.UploadedImage) (string, error)
	FaceReading(ctx context.Context, req *models.FaceReadingRequest) (string, error)
	ProviderName() string
}

// StatusReporter сообщает модель провайдера и наличие ключа.
type StatusReporter interface {
	Status(name string) provider.Status
}

// Handler обслуживает все эндпоинты /api.
type Handler struct {
	story         StoryGenerator
	chat          ChatResponder
	reading       Reader
	status        StatusReporter
	maxImageBytes int64
	logger        *zap.Logger
}

// NewHandler создает HTTP-обработчик.
func NewHandler(story StoryGenerator, chat ChatResponder, reading Reader, status StatusReporter, maxImageBytes int64, logger *zap.Logger) *Handler {
	return &Handler{
		story:         story,
		chat:          chat,
		reading:       reading,
		status:        status,
		maxImageBytes: maxImageBytes,
		logger:        logger.Named("handler"),
	}
}

// RegisterRoutes регистрирует маршруты /api и /health. Дополнительные middleware (лимиты, no-store)
// передаются снаружи и применяются только к группе /api.
func (h *Handler) RegisterRoutes(router *gin.Engine, apiMiddleware ...gin.HandlerFunc) {
	router.GET("/health", h.health)
	router.HEAD("/health", h.health)

	api := router.Group("/api")
	api.Use(apiMiddleware...)
	{
		api.POST("/horror", h.generateChapter)
		api.GET("/horror", h.diagnostics(h.story.ProviderName))

		api.POST("/chat", h.chatReply)
		api.GET("/chat", h.diagnostics(h.chat.ProviderName))
		api.POST("/chatGPT", h.chatReply)
		api.GET("/chatGPT", h.diagnostics(h.chat.ProviderName))

		api.POST("/handreading", h.palmReading)
		api.POST("/face-read", h.faceReading)

		// Запросы с Origin перехватывает CORS middleware; сюда доходят только OPTIONS без Origin
		api.OPTIONS("/*any", h.preflight)
	}
}

func (h *Handler) preflight(c *gin.Context) {
	c.Header("Allow", strings.Join(middleware.CORSAllowedMethods, ", "))
	c.Header("Access-Control-Allow-Origin", "*")
	c.Header("Access-Control-Allow-Methods", strings.Join(middleware.CORSAllowedMethods, ", "))
	c.Header("Access-Control-Allow-Headers", strings.Join(middleware.CORSAllowedHeaders, ", "))
	c.Status(http.StatusNoContent)
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// diagnostics отдает выбранного провайдера и наличие ключа. Сам ключ не раскрывается.
func (h *Handler) diagnostics(providerName func() string) gin.HandlerFunc {
	return func(c *gin.Context) {
		st := h.status.Status(providerName())
		c.JSON(http.StatusOK, models.DiagnosticsResponse{
			OK:                   true,
			Provider:             st.Name,
			Model:                st.Model,
			CredentialConfigured: st.CredentialConfigured,
		})
	}
}
