package middleware

import (
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Методы и заголовки, разрешенные для кросс-доменных запросов.
var (
	CORSAllowedMethods = []string{"GET", "POST", "OPTIONS"}
	CORSAllowedHeaders = []string{"Content-Type", "Authorization"}
)

// CORS возвращает middleware gin-contrib/cors. Пустой список или "*" разрешают любой origin.
func CORS(allowedOrigins []string) gin.HandlerFunc {
	corsConfig := cors.DefaultConfig()
	if len(allowedOrigins) == 0 || slices.Contains(allowedOrigins, "*") {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = allowedOrigins
	}
	corsConfig.AllowMethods = CORSAllowedMethods
	corsConfig.AllowHeaders = CORSAllowedHeaders
	corsConfig.MaxAge = 12 * time.Hour
	return cors.New(corsConfig)
}
