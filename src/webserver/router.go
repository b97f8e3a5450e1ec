package webserver

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func attachRoutes(r *gin.Engine, opts Options) {
	if len(opts.CORSOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     opts.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
			ExposeHeaders:    []string{"Content-Length"},
			AllowCredentials: true,
		}))
	}

	limiter := NewRateLimiter(opts.RateLimit, opts.RateWindow)
	sessH := NewSessions(opts.Sessions, opts.Issuer)
	verifyH := NewVerify(opts.Sessions, opts.Service, opts.MaxUploadBytes)
	dashH := NewDashboard(opts.Sessions, opts.Service, opts.TrendWindow)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "sessions": opts.Sessions.Len()})
	})

	v1 := r.Group("/v1")
	{
		v1.POST("/sessions", RateLimitMiddleware(limiter), sessH.Create)

		secured := v1.Use(JWTMiddleware(opts.Issuer), RateLimitMiddleware(limiter))
		secured.POST("/verify", verifyH.Submit)
		secured.POST("/verify/upload", verifyH.Upload)
		secured.GET("/dashboard", dashH.Overview)
		secured.GET("/history", dashH.History)
	}
}
