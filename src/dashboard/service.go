package dashboard

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/OneOfOne/xxhash"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"

	"github.com/stake-plus/veritrust/src/ledger"
	"github.com/stake-plus/veritrust/src/logging"
	"github.com/stake-plus/veritrust/src/session"
	"github.com/stake-plus/veritrust/src/verify"
)

const (
	summaryRunes = 100
	mediaSummary = "Uploaded Media"
)

// Dependencies wires a Service.
type Dependencies struct {
	Analyzer verify.Analyzer
	Builder  verify.Builder
	Gate     session.Gate
}

// Service runs verifications for sessions and serves the dashboard views.
type Service struct {
	analyzer verify.Analyzer
	builder  verify.Builder
	gate     session.Gate
	policy   *bluemonday.Policy
	now      func() time.Time
	log      *slog.Logger
}

func NewService(deps Dependencies) *Service {
	gate := deps.Gate
	if gate == nil {
		gate = session.NewMemoryGate()
	}
	return &Service{
		analyzer: deps.Analyzer,
		builder:  deps.Builder,
		gate:     gate,
		policy:   bluemonday.StrictPolicy(),
		now:      time.Now,
		log:      logging.New("dashboard"),
	}
}

// Submission is one user request. Input carries text or base64 media; Data carries raw
// uploaded bytes and takes precedence when set.
type Submission struct {
	Kind     verify.ContentKind
	Input    string
	Data     []byte
	MimeType string
}

// Submit verifies sub for sess and appends the outcome to the session history. Nothing
// is recorded when any step fails.
func (s *Service) Submit(ctx context.Context, sess *session.Session, sub Submission) (ledger.Record, error) {
	release, err := s.gate.Acquire(ctx, sess.ID)
	if err != nil {
		return ledger.Record{}, err
	}
	defer release()

	var req verify.Request
	if sub.Data != nil {
		req, err = s.builder.BuildBytes(sub.Kind, sub.Data, sub.MimeType)
	} else {
		req, err = s.builder.Build(sub.Kind, sub.Input, sub.MimeType)
	}
	if err != nil {
		return ledger.Record{}, err
	}

	res, err := s.analyzer.Analyze(ctx, req)
	if err != nil {
		return ledger.Record{}, err
	}

	rec := ledger.Record{
		ID:           uuid.NewString(),
		Timestamp:    s.now().UTC(),
		Kind:         req.Kind,
		InputSummary: s.summarize(req),
		Fingerprint:  Fingerprint(req.Payload),
		Result:       res,
	}
	if err := sess.Ledger.Append(rec); err != nil {
		return ledger.Record{}, fmt.Errorf("dashboard: record result: %w", err)
	}
	s.log.Info("verification recorded",
		"session", sess.ID, "record", rec.ID, "kind", rec.Kind,
		"rating", res.AuthenticityRating, "trust_score", res.TrustScore, "history", sess.Ledger.Len())
	return rec, nil
}

func (s *Service) summarize(req verify.Request) string {
	if req.Kind.Binary() {
		return mediaSummary
	}
	// Decode entities before sanitizing so encoded markup is seen as markup.
	text := req.Payload
	for i := 0; i < maxUnescape; i++ {
		next := html.UnescapeString(text)
		if next == text {
			break
		}
		text = next
	}
	clean := html.UnescapeString(s.policy.Sanitize(text))
	// Stray brackets the tokenizer kept as text could still pair up into a tag.
	clean = angleBrackets.Replace(clean)
	clean = strings.Join(strings.Fields(clean), " ")
	return truncate(clean, summaryRunes)
}

const maxUnescape = 4

var angleBrackets = strings.NewReplacer("<", "", ">", "")

func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit]) + "..."
}

// Fingerprint is the 64-bit xxhash of a request payload in hex.
func Fingerprint(payload string) string {
	return fmt.Sprintf("%016x", xxhash.ChecksumString64(payload))
}

// History returns the session's records newest first.
func (s *Service) History(sess *session.Session) []ledger.Record {
	return sess.Ledger.Records()
}
