// Package usagelog persists per-invocation usage records emitted by the
// forwarder: who called which provider and model, how many tokens it cost,
// and how long the upstream took. Writers are pluggable; a failed write must
// never fail the proxied request.
package usagelog

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Record is one completed (or failed) proxied invocation.
type Record struct {
	ID               string    `json:"id"`
	TraceID          string    `json:"trace_id"`
	Project          string    `json:"project"`
	Provider         string    `json:"provider"`
	Model            string    `json:"model,omitempty"`
	Modality         string    `json:"modality,omitempty"`
	StatusCode       int       `json:"status_code"`
	PromptTokens     int       `json:"prompt_tokens"`
	CompletionTokens int       `json:"completion_tokens"`
	CostUSD          float64   `json:"cost_usd"`
	LatencyMS        int64     `json:"latency_ms"`
	CreatedAt        time.Time `json:"created_at"`
}

// Writer persists usage records.
type Writer interface {
	Write(ctx context.Context, rec Record) error
}

// Reader lists recent usage records, newest first.
type Reader interface {
	Recent(ctx context.Context, limit int) ([]Record, error)
}

// NoopWriter ignores all usage writes.
type NoopWriter struct{}

func (NoopWriter) Write(_ context.Context, _ Record) error { return nil }

// Ring is a fixed-capacity in-memory record buffer. The oldest record is
// overwritten once the buffer is full. It backs /admin/usage when no SQL
// store is configured.
type Ring struct {
	mu      sync.Mutex
	records []Record
	next    int
	full    bool
}

// NewRing creates a ring buffer holding up to capacity records.
func NewRing(capacity int) *Ring {
	if capacity <= 0 {
		capacity = 1024
	}
	return &Ring{records: make([]Record, capacity)}
}

func (r *Ring) Write(_ context.Context, rec Record) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[r.next] = rec
	r.next = (r.next + 1) % len(r.records)
	if r.next == 0 {
		r.full = true
	}
	return nil
}

// Recent returns up to limit records, newest first.
func (r *Ring) Recent(_ context.Context, limit int) ([]Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	size := r.next
	if r.full {
		size = len(r.records)
	}
	if limit <= 0 || limit > size {
		limit = size
	}

	out := make([]Record, 0, limit)
	for i := 1; i <= limit; i++ {
		idx := (r.next - i + len(r.records)) % len(r.records)
		out = append(out, r.records[idx])
	}
	return out, nil
}

// Len returns the number of records currently held.
func (r *Ring) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.full {
		return len(r.records)
	}
	return r.next
}
