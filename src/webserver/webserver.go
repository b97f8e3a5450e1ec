package webserver

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/stake-plus/veritrust/src/dashboard"
	"github.com/stake-plus/veritrust/src/session"
)

// Options wires the HTTP surface.
type Options struct {
	Sessions *session.Manager
	Issuer   *session.Issuer
	Service  *dashboard.Service

	CORSOrigins    []string
	RateLimit      int
	RateWindow     time.Duration
	TrendWindow    int
	MaxUploadBytes int64
}

func New(opts Options) *gin.Engine {
	g := gin.New()
	g.Use(gin.Logger(), gin.Recovery())
	attachRoutes(g, opts)
	return g
}
