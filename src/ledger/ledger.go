package ledger

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/stake-plus/veritrust/src/verify"
)

// ErrInvalidRecord is returned by Append for records that are not well-formed.
var ErrInvalidRecord = errors.New("ledger: invalid record")

// Record is one completed verification. It is never modified after Append.
type Record struct {
	ID           string             `json:"id"`
	Timestamp    time.Time          `json:"timestamp"`
	Kind         verify.ContentKind `json:"kind"`
	InputSummary string             `json:"inputSummary"`
	Fingerprint  string             `json:"fingerprint,omitempty"`
	Result       verify.Result      `json:"result"`
}

// Stats is the aggregate dashboard view.
type Stats struct {
	Total          int                   `json:"total"`
	Counts         map[verify.Rating]int `json:"counts"`
	MeanTrustScore float64               `json:"meanTrustScore"`
	SuspiciousRate float64               `json:"suspiciousRate"`
}

// Ledger is the append-only history of one session. Reads may run concurrently with
// the single append path.
type Ledger struct {
	mu sync.RWMutex
	// oldest first; views reverse it
	items    []Record
	capacity int
}

// New returns an empty ledger. capacity <= 0 keeps every record for the ledger's
// lifetime; a positive capacity keeps only the newest records.
func New(capacity int) *Ledger {
	if capacity < 0 {
		capacity = 0
	}
	return &Ledger{capacity: capacity}
}

// Append records rec as the newest entry.
func (l *Ledger) Append(rec Record) error {
	if rec.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidRecord)
	}
	if rec.Timestamp.IsZero() {
		return fmt.Errorf("%w: missing timestamp", ErrInvalidRecord)
	}
	if _, err := verify.ParseKind(string(rec.Kind)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	if err := rec.Result.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.items = append(l.items, rec)
	if l.capacity > 0 && len(l.items) > l.capacity {
		l.items = l.items[len(l.items)-l.capacity:]
	}
	return nil
}

// Len returns the number of records held.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.items)
}

// Records returns a snapshot, newest first.
func (l *Ledger) Records() []Record {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]Record, len(l.items))
	for i, rec := range l.items {
		out[len(l.items)-1-i] = rec
	}
	return out
}

// Latest returns the most recently appended record.
func (l *Ledger) Latest() (Record, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if len(l.items) == 0 {
		return Record{}, false
	}
	return l.items[len(l.items)-1], true
}

// Statistics computes counts per rating, mean trust score and the suspicious rate in
// percent over every record. Empty ledgers yield zeros.
func (l *Ledger) Statistics() Stats {
	l.mu.RLock()
	defer l.mu.RUnlock()

	st := Stats{Counts: make(map[verify.Rating]int, len(verify.Ratings))}
	for _, r := range verify.Ratings {
		st.Counts[r] = 0
	}

	var sum int
	for _, rec := range l.items {
		st.Counts[rec.Result.AuthenticityRating]++
		sum += rec.Result.TrustScore
	}
	st.Total = len(l.items)
	if st.Total == 0 {
		return st
	}
	st.MeanTrustScore = float64(sum) / float64(st.Total)
	st.SuspiciousRate = float64(st.Counts[verify.RatingSuspicious]) * 100 / float64(st.Total)
	return st
}

// Recent returns the newest n records in chronological order (oldest first). Fewer
// are returned when the ledger holds fewer.
func (l *Ledger) Recent(n int) []Record {
	if n <= 0 {
		return []Record{}
	}
	l.mu.RLock()
	defer l.mu.RUnlock()

	start := len(l.items) - n
	if start < 0 {
		start = 0
	}
	return append([]Record(nil), l.items[start:]...)
}

// RecentTrend returns the trust scores of the newest n records, oldest first.
func (l *Ledger) RecentTrend(n int) []int {
	recent := l.Recent(n)
	out := make([]int, len(recent))
	for i, rec := range recent {
		out[i] = rec.Result.TrustScore
	}
	return out
}
