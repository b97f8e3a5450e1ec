package webserver

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/stake-plus/veritrust/src/dashboard"
	"github.com/stake-plus/veritrust/src/session"
	"github.com/stake-plus/veritrust/src/verify"
)

const (
	defaultMaxUpload = 20 << 20
	// room for the JSON envelope or multipart headers around the payload
	bodySlack = 4096
)

type Verify struct {
	sessions  *session.Manager
	svc       *dashboard.Service
	maxUpload int64
}

func NewVerify(sessions *session.Manager, svc *dashboard.Service, maxUpload int64) Verify {
	if maxUpload <= 0 {
		maxUpload = defaultMaxUpload
	}
	return Verify{sessions: sessions, svc: svc, maxUpload: maxUpload}
}

func (v Verify) Submit(c *gin.Context) {
	var req struct {
		Kind     string `json:"kind" binding:"required"`
		Text     string `json:"text"`
		Data     string `json:"data"`
		MimeType string `json:"mimeType"`
	}
	// base64 inflates media by 4/3
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, v.maxUpload*4/3+bodySlack)
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}
	kind, err := verify.ParseKind(req.Kind)
	if err != nil {
		writeError(c, err)
		return
	}
	input := req.Data
	if kind == verify.KindText {
		input = req.Text
	}

	rec, err := v.svc.Submit(c.Request.Context(), current(c, v.sessions), dashboard.Submission{
		Kind:     kind,
		Input:    input,
		MimeType: req.MimeType,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"record": rec})
}

func (v Verify) Upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, v.maxUpload+bodySlack)
	kind, err := verify.ParseKind(c.PostForm("kind"))
	if err != nil {
		writeError(c, err)
		return
	}
	if !kind.Binary() {
		c.JSON(http.StatusBadRequest, gin.H{"err": "uploads accept image or audio"})
		return
	}
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": "missing file"})
		return
	}
	if fh.Size > v.maxUpload {
		c.JSON(http.StatusBadRequest, gin.H{"err": fmt.Sprintf("file exceeds %d bytes", v.maxUpload)})
		return
	}
	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": "unreadable file"})
		return
	}
	defer f.Close()
	blob, err := io.ReadAll(io.LimitReader(f, v.maxUpload+1))
	if err != nil || int64(len(blob)) > v.maxUpload {
		c.JSON(http.StatusBadRequest, gin.H{"err": "unreadable file"})
		return
	}

	mimeType := c.PostForm("mimeType")
	if ct := fh.Header.Get("Content-Type"); mimeType == "" && strings.HasPrefix(ct, string(kind)+"/") {
		mimeType = ct
	}

	rec, err := v.svc.Submit(c.Request.Context(), current(c, v.sessions), dashboard.Submission{
		Kind:     kind,
		Data:     blob,
		MimeType: mimeType,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"record": rec})
}
