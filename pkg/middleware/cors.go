package middleware

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// CORSMiddleware allows the configured origins with credentials. A "*" entry
// opens the API to every origin without credentials; an empty list adds no
// CORS headers at all.
func CORSMiddleware(allowedOrigins ...string) gin.HandlerFunc {
	origins := make([]string, 0, len(allowedOrigins))
	allowAll := false
	for _, o := range allowedOrigins {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		switch o {
		case "":
			continue
		case "*":
			allowAll = true
		default:
			origins = append(origins, o)
		}
	}

	if !allowAll && len(origins) == 0 {
		return func(c *gin.Context) { c.Next() }
	}

	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", "X-Trace-ID"},
		ExposeHeaders: []string{"X-Trace-ID"},
		MaxAge:        12 * time.Hour,
	}
	if allowAll {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
		cfg.AllowCredentials = true
	}
	return cors.New(cfg)
}
