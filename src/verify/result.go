package verify

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
)

// Rating is the coarse provenance classification returned by the model.
type Rating string

const (
	RatingAuthentic    Rating = "Authentic"
	RatingSuspicious   Rating = "Suspicious"
	RatingSynthetic    Rating = "Synthetic"
	RatingUndetermined Rating = "Undetermined"
)

// Ratings lists every rating in display order.
var Ratings = []Rating{RatingAuthentic, RatingSuspicious, RatingSynthetic, RatingUndetermined}

func (r Rating) Valid() bool {
	switch r {
	case RatingAuthentic, RatingSuspicious, RatingSynthetic, RatingUndetermined:
		return true
	}
	return false
}

// MetaDetectedFormat is the metadata key every result must carry.
const MetaDetectedFormat = "detectedFormat"

// Result is a validated verdict from the analysis service.
type Result struct {
	TrustScore         int            `json:"trustScore"`
	AuthenticityRating Rating         `json:"authenticityRating"`
	Summary            string         `json:"summary"`
	AnalysisPoints     []string       `json:"analysisPoints"`
	IntentAnalysis     string         `json:"intentAnalysis"`
	Metadata           map[string]any `json:"metadata"`
}

// DetectedFormat returns the format the model reported for the content.
func (r Result) DetectedFormat() string {
	s, _ := r.Metadata[MetaDetectedFormat].(string)
	return s
}

// Validate checks the invariants a Result must hold wherever it came from.
func (r Result) Validate() error {
	if r.TrustScore < 0 || r.TrustScore > 100 {
		return fmt.Errorf("trustScore %d out of range 0-100", r.TrustScore)
	}
	if !r.AuthenticityRating.Valid() {
		return fmt.Errorf("authenticityRating %q not recognised", r.AuthenticityRating)
	}
	if r.AnalysisPoints == nil {
		return errors.New("analysisPoints missing")
	}
	if _, ok := r.Metadata[MetaDetectedFormat].(string); !ok {
		return errors.New("metadata.detectedFormat missing")
	}
	return nil
}

// Reply keys as spelled in the response schema. encoding/json matches struct tags
// case-insensitively, so replies are decoded key by key instead.
const (
	keyTrustScore     = "trustScore"
	keyRating         = "authenticityRating"
	keySummary        = "summary"
	keyAnalysisPoints = "analysisPoints"
	keyIntent         = "intentAnalysis"
	keyMetadata       = "metadata"
)

var resultKeys = []string{keyTrustScore, keyRating, keySummary, keyAnalysisPoints, keyIntent, keyMetadata}

// ParseResult decodes a model reply into a Result. The reply must be exactly one JSON
// object carrying every required field under its exact name; anything else is
// ErrMalformedResponse and no partial result is returned.
func ParseResult(raw string) (Result, error) {
	body := strings.TrimSpace(raw)
	if body == "" {
		return Result{}, fmt.Errorf("%w: empty body", ErrMalformedResponse)
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(body)))
	var fields map[string]json.RawMessage
	if err := dec.Decode(&fields); err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return Result{}, fmt.Errorf("%w: trailing data after result object", ErrMalformedResponse)
	}

	for name := range fields {
		for _, key := range resultKeys {
			if name != key && strings.EqualFold(name, key) {
				return Result{}, fmt.Errorf("%w: field %q must be spelled %q", ErrMalformedResponse, name, key)
			}
		}
	}
	var missing []string
	for _, key := range resultKeys {
		if v, ok := fields[key]; !ok || string(bytes.TrimSpace(v)) == "null" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return Result{}, fmt.Errorf("%w: missing %s", ErrMalformedResponse, strings.Join(missing, ", "))
	}

	var (
		score  float64
		rating string
		res    Result
	)
	decodes := []struct {
		key string
		dst any
	}{
		{keyTrustScore, &score},
		{keyRating, &rating},
		{keySummary, &res.Summary},
		{keyAnalysisPoints, &res.AnalysisPoints},
		{keyIntent, &res.IntentAnalysis},
		{keyMetadata, &res.Metadata},
	}
	for _, d := range decodes {
		if err := json.Unmarshal(fields[d.key], d.dst); err != nil {
			return Result{}, fmt.Errorf("%w: %s: %v", ErrMalformedResponse, d.key, err)
		}
	}

	if score != math.Trunc(score) {
		return Result{}, fmt.Errorf("%w: trustScore %v is not an integer", ErrMalformedResponse, score)
	}
	if score < 0 || score > 100 {
		return Result{}, fmt.Errorf("%w: trustScore %v out of range 0-100", ErrMalformedResponse, score)
	}
	res.TrustScore = int(score)
	res.AuthenticityRating = Rating(rating)

	if err := res.Validate(); err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return res, nil
}
