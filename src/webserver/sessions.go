package webserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stake-plus/veritrust/src/session"
)

type Sessions struct {
	manager *session.Manager
	issuer  *session.Issuer
}

func NewSessions(manager *session.Manager, issuer *session.Issuer) Sessions {
	return Sessions{manager: manager, issuer: issuer}
}

func (s Sessions) Create(c *gin.Context) {
	sess := s.manager.Create()
	token, exp, err := s.issuer.Issue(sess.ID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"token": token, "sessionId": sess.ID, "expiresAt": exp})
}

// current resolves the session named by the token. An unknown id (e.g. after a
// restart) starts with empty history.
func current(c *gin.Context, manager *session.Manager) *session.Session {
	return manager.Resolve(c.GetString(sessionKey))
}
