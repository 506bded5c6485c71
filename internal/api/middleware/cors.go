package middleware

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func ConfigCORS(allowedDomains []string) gin.HandlerFunc {
	conf := cors.Config{
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowWebSockets:  true,
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}

	if len(allowedDomains) == 0 {
		conf.AllowAllOrigins = true
		return cors.New(conf)
	}
	for _, d := range allowedDomains {
		if d == "*" {
			conf.AllowAllOrigins = true
			return cors.New(conf)
		}
	}
	conf.AllowOrigins = allowedDomains

	return cors.New(conf)
}
