package dashboard

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/stake-plus/veritrust/src/ai/core"
	"github.com/stake-plus/veritrust/src/ledger"
	"github.com/stake-plus/veritrust/src/session"
	"github.com/stake-plus/veritrust/src/verify"
)

type stubAI struct {
	reply string
	err   error
	calls int
}

func (s *stubAI) Analyze(context.Context, core.Request, core.Options) (string, error) {
	s.calls++
	return s.reply, s.err
}

func reply(score int, rating string) string {
	return fmt.Sprintf(`{"trustScore":%d,"authenticityRating":%q,"summary":"s","analysisPoints":["p"],"intentAnalysis":"i","metadata":{"detectedFormat":"plain text"}}`, score, rating)
}

func newService(ai core.Client) *Service {
	return NewService(Dependencies{
		Analyzer: verify.NewClient(ai, verify.ClientConfig{}),
		Builder:  verify.Builder{},
	})
}

func TestSubmitRecordsSuspiciousResult(t *testing.T) {
	const headline = "Breaking: local election results are fraudulent!!!"
	ai := &stubAI{reply: `{"trustScore":32,"authenticityRating":"Suspicious","summary":"Unverified claim about an election.","analysisPoints":["Emotionally charged framing"],"intentAnalysis":"Likely meant to provoke outrage.","metadata":{"detectedFormat":"text/plain"}}`}
	svc := newService(ai)
	sess := session.NewManager(time.Hour, 0).Create()

	rec, err := svc.Submit(context.Background(), sess, Submission{Kind: verify.KindText, Input: headline})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if rec.ID == "" || rec.Timestamp.IsZero() {
		t.Fatalf("record missing identity: %+v", rec)
	}
	if rec.Kind != verify.KindText {
		t.Fatalf("kind = %q, want %q", rec.Kind, verify.KindText)
	}
	if rec.InputSummary != headline {
		t.Fatalf("summary = %q", rec.InputSummary)
	}
	if rec.Fingerprint != Fingerprint(headline) {
		t.Fatalf("fingerprint = %q", rec.Fingerprint)
	}
	if rec.Result.TrustScore != 32 || rec.Result.AuthenticityRating != verify.RatingSuspicious {
		t.Fatalf("result = %+v", rec.Result)
	}

	if sess.Ledger.Len() != 1 {
		t.Fatalf("ledger len = %d", sess.Ledger.Len())
	}
	ov := svc.Overview(sess, 10)
	if ov.Stats.Total != 1 || ov.SuspiciousPercent != 100 || ov.AverageTrust != 32 {
		t.Fatalf("overview = %+v", ov)
	}
	want := []Slice{{Rating: verify.RatingSuspicious, Count: 1, Tone: "warning"}}
	if diff := cmp.Diff(want, ov.Breakdown); diff != "" {
		t.Fatalf("breakdown mismatch (-want +got):\n%s", diff)
	}
	if len(ov.Trend) != 1 || ov.Trend[0].TrustScore != 32 || ov.Trend[0].Band != "low" {
		t.Fatalf("trend = %+v", ov.Trend)
	}
}

func TestSubmitFailureLeavesHistoryUnchanged(t *testing.T) {
	cases := map[string]struct {
		ai      *stubAI
		sub     Submission
		wantErr error
		calls   int
	}{
		"empty body": {
			ai:      &stubAI{reply: ""},
			sub:     Submission{Kind: verify.KindText, Input: "x"},
			wantErr: verify.ErrMalformedResponse,
			calls:   1,
		},
		"transport": {
			ai:      &stubAI{err: errors.New("connection reset")},
			sub:     Submission{Kind: verify.KindText, Input: "x"},
			wantErr: verify.ErrTransportFailure,
			calls:   1,
		},
		"blank text": {
			ai:      &stubAI{reply: reply(90, "Authentic")},
			sub:     Submission{Kind: verify.KindText, Input: "   "},
			wantErr: verify.ErrInvalidInput,
		},
		"bad base64": {
			ai:      &stubAI{reply: reply(90, "Authentic")},
			sub:     Submission{Kind: verify.KindImage, Input: "!!!"},
			wantErr: verify.ErrInvalidInput,
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			svc := newService(tc.ai)
			sess := session.NewManager(time.Hour, 0).Create()

			_, err := svc.Submit(context.Background(), sess, tc.sub)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("err = %v, want %v", err, tc.wantErr)
			}
			if sess.Ledger.Len() != 0 {
				t.Fatalf("ledger len = %d after failure", sess.Ledger.Len())
			}
			if tc.ai.calls != tc.calls {
				t.Fatalf("provider calls = %d, want %d", tc.ai.calls, tc.calls)
			}
		})
	}
}

func TestSubmitBusySession(t *testing.T) {
	gate := session.NewMemoryGate()
	ai := &stubAI{reply: reply(80, "Authentic")}
	svc := NewService(Dependencies{
		Analyzer: verify.NewClient(ai, verify.ClientConfig{}),
		Gate:     gate,
	})
	sess := session.NewManager(time.Hour, 0).Create()

	release, err := gate.Acquire(context.Background(), sess.ID)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	_, err = svc.Submit(context.Background(), sess, Submission{Kind: verify.KindText, Input: "x"})
	if !errors.Is(err, session.ErrBusy) {
		t.Fatalf("err = %v, want ErrBusy", err)
	}
	if ai.calls != 0 || sess.Ledger.Len() != 0 {
		t.Fatalf("busy submit reached provider (%d calls) or ledger (%d)", ai.calls, sess.Ledger.Len())
	}
	release()

	if _, err := svc.Submit(context.Background(), sess, Submission{Kind: verify.KindText, Input: "x"}); err != nil {
		t.Fatalf("submit after release: %v", err)
	}
}

func TestSubmitReleasesGateAfterFailure(t *testing.T) {
	ai := &stubAI{err: errors.New("connection reset")}
	svc := newService(ai)
	sess := session.NewManager(time.Hour, 0).Create()
	sub := Submission{Kind: verify.KindText, Input: "x"}

	if _, err := svc.Submit(context.Background(), sess, sub); !errors.Is(err, verify.ErrTransportFailure) {
		t.Fatalf("first submit err = %v, want ErrTransportFailure", err)
	}

	ai.err = nil
	ai.reply = reply(70, "Authentic")
	if _, err := svc.Submit(context.Background(), sess, sub); err != nil {
		t.Fatalf("retry after failure: %v", err)
	}
	if ai.calls != 2 || sess.Ledger.Len() != 1 {
		t.Fatalf("calls = %d, ledger len = %d", ai.calls, sess.Ledger.Len())
	}
}

func TestSubmitMediaSummary(t *testing.T) {
	svc := newService(&stubAI{reply: reply(90, "Authentic")})
	sess := session.NewManager(time.Hour, 0).Create()

	rec, err := svc.Submit(context.Background(), sess, Submission{
		Kind: verify.KindImage,
		Data: []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0},
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if rec.InputSummary != mediaSummary {
		t.Fatalf("summary = %q", rec.InputSummary)
	}
}

func TestSummaryTruncatesAndStripsMarkup(t *testing.T) {
	svc := newService(&stubAI{})

	long := strings.Repeat("a", 150)
	got := svc.summarize(verify.Request{Kind: verify.KindText, Payload: long})
	if got != strings.Repeat("a", 100)+"..." {
		t.Fatalf("long summary = %q", got)
	}

	exact := strings.Repeat("b", 100)
	if got := svc.summarize(verify.Request{Kind: verify.KindText, Payload: exact}); got != exact {
		t.Fatalf("exact summary = %q", got)
	}

	markup := map[string]string{
		`<script>alert(1)</script><b>Tom &amp; Jerry</b>`:         "Tom & Jerry",
		`&lt;img src=x onerror=alert(1)&gt; hi`:                   "hi",
		`&amp;lt;script&amp;gt;alert(1)&amp;lt;/script&amp;gt;ok`: "ok",
		`<<img>img src=x onerror=alert(1)> hi`:                    "img src=x onerror=alert(1) hi",
		`2 < 3 and 5 > 4`:                                         "2 3 and 5 4",
	}
	for in, want := range markup {
		got := svc.summarize(verify.Request{Kind: verify.KindText, Payload: in})
		if got != want {
			t.Errorf("summarize(%q) = %q, want %q", in, got, want)
		}
		if strings.ContainsAny(got, "<>") {
			t.Errorf("summarize(%q) kept markup: %q", in, got)
		}
	}
}

func TestOverviewEmptyAndTrendWindow(t *testing.T) {
	svc := newService(&stubAI{})
	sess := session.NewManager(time.Hour, 0).Create()

	ov := svc.Overview(sess, 0)
	if ov.Stats.Total != 0 || ov.AverageTrust != 0 || ov.SuspiciousPercent != 0 {
		t.Fatalf("empty overview = %+v", ov)
	}
	if len(ov.Breakdown) != 0 || len(ov.Trend) != 0 {
		t.Fatalf("empty overview has slices: %+v", ov)
	}

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 12; i++ {
		rec := ledger.Record{
			ID:        fmt.Sprintf("r%d", i),
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			Kind:      verify.KindText,
			Result: verify.Result{
				TrustScore:         i * 5,
				AuthenticityRating: verify.RatingUndetermined,
				AnalysisPoints:     []string{},
				Metadata:           map[string]any{verify.MetaDetectedFormat: "text"},
			},
		}
		if err := sess.Ledger.Append(rec); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	ov = svc.Overview(sess, 0)
	if len(ov.Trend) != DefaultTrendWindow {
		t.Fatalf("trend len = %d", len(ov.Trend))
	}
	if ov.Trend[0].ID != "r2" || ov.Trend[9].ID != "r11" {
		t.Fatalf("trend order = %s..%s", ov.Trend[0].ID, ov.Trend[9].ID)
	}
	want := []Slice{{Rating: verify.RatingUndetermined, Count: 12, Tone: "neutral"}}
	if diff := cmp.Diff(want, ov.Breakdown); diff != "" {
		t.Fatalf("breakdown mismatch (-want +got):\n%s", diff)
	}
}

func TestBand(t *testing.T) {
	for score, want := range map[int]string{100: "high", 71: "high", 70: "medium", 41: "medium", 40: "low", 0: "low"} {
		if got := Band(score); got != want {
			t.Errorf("Band(%d) = %q, want %q", score, got, want)
		}
	}
}
