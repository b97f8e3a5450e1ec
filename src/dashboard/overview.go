package dashboard

import (
	"math"
	"time"

	"github.com/stake-plus/veritrust/src/ledger"
	"github.com/stake-plus/veritrust/src/session"
	"github.com/stake-plus/veritrust/src/verify"
)

// DefaultTrendWindow matches the "last 10 artifacts" chart.
const DefaultTrendWindow = 10

// Slice is one segment of the rating breakdown.
type Slice struct {
	Rating verify.Rating `json:"rating"`
	Count  int           `json:"count"`
	Tone   string        `json:"tone"`
}

// TrendPoint is one score on the trend chart.
type TrendPoint struct {
	ID         string    `json:"id"`
	Timestamp  time.Time `json:"timestamp"`
	TrustScore int       `json:"trustScore"`
	Band       string    `json:"band"`
}

// Overview is the dashboard payload.
type Overview struct {
	Stats             ledger.Stats `json:"stats"`
	AverageTrust      int          `json:"averageTrust"`
	SuspiciousPercent int          `json:"suspiciousPercent"`
	SyntheticCount    int          `json:"syntheticCount"`
	Breakdown         []Slice      `json:"breakdown"`
	Trend             []TrendPoint `json:"trend"`
}

// Overview computes the dashboard for sess using the latest trendN records.
func (s *Service) Overview(sess *session.Session, trendN int) Overview {
	if trendN <= 0 {
		trendN = DefaultTrendWindow
	}
	stats := sess.Ledger.Statistics()

	out := Overview{
		Stats:             stats,
		AverageTrust:      int(math.Round(stats.MeanTrustScore)),
		SuspiciousPercent: int(math.Round(stats.SuspiciousRate)),
		SyntheticCount:    stats.Counts[verify.RatingSynthetic],
		Breakdown:         []Slice{},
		Trend:             []TrendPoint{},
	}
	for _, r := range verify.Ratings {
		if n := stats.Counts[r]; n > 0 {
			out.Breakdown = append(out.Breakdown, Slice{Rating: r, Count: n, Tone: Tone(r)})
		}
	}
	for _, rec := range sess.Ledger.Recent(trendN) {
		out.Trend = append(out.Trend, TrendPoint{
			ID:         rec.ID,
			Timestamp:  rec.Timestamp,
			TrustScore: rec.Result.TrustScore,
			Band:       Band(rec.Result.TrustScore),
		})
	}
	return out
}

// Band buckets a trust score into the dashboard colour bands.
func Band(score int) string {
	switch {
	case score > 70:
		return "high"
	case score > 40:
		return "medium"
	default:
		return "low"
	}
}

// Tone is the display tag for a rating. Undetermined keeps its own neutral tag.
func Tone(r verify.Rating) string {
	switch r {
	case verify.RatingAuthentic:
		return "positive"
	case verify.RatingSuspicious:
		return "warning"
	case verify.RatingSynthetic:
		return "negative"
	default:
		return "neutral"
	}
}
