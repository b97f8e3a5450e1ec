package webserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stake-plus/veritrust/src/logging"
	"github.com/stake-plus/veritrust/src/session"
	"github.com/stake-plus/veritrust/src/verify"
)

const retryMessage = "analysis failed, please try again"

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, verify.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
	case errors.Is(err, session.ErrBusy):
		c.JSON(http.StatusConflict, gin.H{"err": "a verification is already in progress"})
	case verify.Retryable(err):
		c.JSON(http.StatusBadGateway, gin.H{"err": retryMessage})
	default:
		logging.New("webserver").Error("request failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"err": "internal error"})
	}
}
