package webserver

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/stake-plus/veritrust/src/dashboard"
	"github.com/stake-plus/veritrust/src/ledger"
	"github.com/stake-plus/veritrust/src/session"
)

type historyRow struct {
	ledger.Record
	Band string `json:"band"`
	Tone string `json:"tone"`
}

type Dashboard struct {
	sessions *session.Manager
	svc      *dashboard.Service
	trend    int
}

func NewDashboard(sessions *session.Manager, svc *dashboard.Service, trend int) Dashboard {
	if trend <= 0 {
		trend = dashboard.DefaultTrendWindow
	}
	return Dashboard{sessions: sessions, svc: svc, trend: trend}
}

func (d Dashboard) Overview(c *gin.Context) {
	n := d.trend
	if raw := c.Query("trend"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 || v > 1000 {
			c.JSON(http.StatusBadRequest, gin.H{"err": "bad trend"})
			return
		}
		n = v
	}
	c.JSON(http.StatusOK, d.svc.Overview(current(c, d.sessions), n))
}

func (d Dashboard) History(c *gin.Context) {
	records := d.svc.History(current(c, d.sessions))
	out := make([]historyRow, len(records))
	for i, rec := range records {
		out[i] = historyRow{
			Record: rec,
			Band:   dashboard.Band(rec.Result.TrustScore),
			Tone:   dashboard.Tone(rec.Result.AuthenticityRating),
		}
	}
	c.JSON(http.StatusOK, gin.H{"records": out})
}
