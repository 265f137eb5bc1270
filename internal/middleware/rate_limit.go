package middleware

import (
	"fmt"
	"net/http"
	"time"

	rateli "github.com/JGLTechnologies/gin-rate-limit"
	"github.com/gin-gonic/gin"
	redis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"horror-story-server/internal/models"
)

// NewRateLimitStore возвращает хранилище счетчиков: Redis, если клиент передан, иначе в памяти процесса.
func NewRateLimitStore(redisClient *redis.Client, limitPerMinute uint) rateli.Store {
	if redisClient != nil {
		return rateli.RedisStore(&rateli.RedisOptions{
			RedisClient: redisClient,
			Rate:        time.Minute,
			Limit:       limitPerMinute,
		})
	}
	return rateli.InMemoryStore(&rateli.InMemoryOptions{
		Rate:  time.Minute,
		Limit: limitPerMinute,
	})
}

// RateLimiter ограничивает число запросов с одного IP. При превышении отдает 429 в формате ErrorResponse.
func RateLimiter(store rateli.Store, log *zap.Logger) gin.HandlerFunc {
	return rateli.RateLimiter(store, &rateli.Options{
		ErrorHandler: func(c *gin.Context, info rateli.Info) {
			retryAfter := time.Until(info.ResetTime).Round(time.Second)
			log.Warn("Rate limit exceeded",
				zap.String("clientIP", c.ClientIP()),
				zap.String("path", c.Request.URL.Path),
				zap.Time("resetTime", info.ResetTime),
			)
			c.Header("Retry-After", fmt.Sprintf("%d", int(retryAfter.Seconds())))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, models.ErrorResponse{
				OK:    false,
				Error: "Too many requests. Try again in " + retryAfter.String(),
				Code:  models.ErrCodeRateLimited,
			})
		},
		KeyFunc: func(c *gin.Context) string {
			return c.ClientIP()
		},
	})
}
