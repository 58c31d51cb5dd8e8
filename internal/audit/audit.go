// Package audit records one activity-log entry per successful ledger or pairing mutation.
package audit

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/oatsaysai/partner-ledger/internal/models"
)

// Sink persists audit entries
type Sink interface {
	AppendAudit(ctx context.Context, e models.AuditEntry) error
	PruneAudit(ctx context.Context, before time.Time) (int64, error)
}

// Recorder writes audit entries and never lets a logging failure reach the caller
type Recorder struct {
	sink Sink
	now  func() time.Time
}

// NewRecorder creates a recorder writing to sink. A nil sink disables auditing.
func NewRecorder(sink Sink) *Recorder {
	return &Recorder{sink: sink, now: time.Now}
}

// Record appends an entry for action performed by actor. Failures are logged and dropped.
func (r *Recorder) Record(ctx context.Context, action string, actor uuid.UUID, metadata map[string]any) {
	if r == nil || r.sink == nil {
		return
	}
	entry := models.AuditEntry{
		ID:        uuid.New(),
		Action:    action,
		ActorID:   actor,
		Metadata:  metadata,
		CreatedAt: r.now().UTC(),
	}
	defer func() {
		if p := recover(); p != nil {
			log.Printf("audit: panic while recording %s for %s: %v", action, actor, p)
		}
	}()
	if err := r.sink.AppendAudit(ctx, entry); err != nil {
		log.Printf("audit: failed to record %s for %s (ignored): %v", action, actor, err)
	}
}

// Prune deletes entries older than retention. Re-running with the same cutoff is a no-op.
func (r *Recorder) Prune(ctx context.Context, retention time.Duration) (int64, error) {
	if r == nil || r.sink == nil {
		return 0, nil
	}
	cutoff := r.now().UTC().Add(-retention)
	n, err := r.sink.PruneAudit(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	log.Printf("audit: pruned %d entries older than %s", n, cutoff.Format(time.RFC3339))
	return n, nil
}
