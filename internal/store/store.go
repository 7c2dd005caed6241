package store

import (
	"context"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/zeebo/blake3"
)

// DefaultOpTimeout bounds every storage call so ingestion never blocks the
// acknowledgment path on a wedged database.
const DefaultOpTimeout = 5 * time.Second

const (
	DefaultRecentLimit = 50
	MaxRecentLimit     = 500
)

// Record is a webhook delivery to be persisted.
type Record struct {
	// DeliveryID is the X-GitHub-Delivery value. Nil when the header was
	// absent; such rows are kept but do not participate in idempotency.
	DeliveryID  *string
	EventType   string
	Action      string
	IssueNumber *int
	Payload     json.RawMessage
}

// StoredEvent is a persisted delivery as returned by Recent.
type StoredEvent struct {
	DeliveryID    string    `json:"id"`
	EventType     string    `json:"event"`
	Action        string    `json:"action"`
	IssueNumber   *int      `json:"issue_number"`
	PayloadDigest string    `json:"payload_digest"`
	ReceivedAt    time.Time `json:"timestamp"`
}

// Store persists webhook events in SQLite. The delivery_id UNIQUE constraint
// is the only synchronization primitive: concurrent inserts with the same id
// resolve inside the storage engine, one wins, the rest are no-ops.
type Store struct {
	db        *sql.DB
	opTimeout time.Duration
}

func New(db *sql.DB) *Store {
	return &Store{
		db:        db,
		opTimeout: DefaultOpTimeout,
	}
}

// InsertIfAbsent appends a webhook event. A row whose delivery id already
// exists is left untouched and no error is returned: replayed deliveries are
// a normal condition, not a failure. Callers decide what to do with a real
// storage error; the webhook pipeline logs and continues.
func (s *Store) InsertIfAbsent(ctx context.Context, rec Record) error {
	if rec.EventType == "" {
		return fmt.Errorf("event type is empty")
	}

	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	var deliveryID any
	if rec.DeliveryID != nil {
		deliveryID = *rec.DeliveryID
	}
	var issueNumber any
	if rec.IssueNumber != nil {
		issueNumber = *rec.IssueNumber
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)

	_, err := s.db.ExecContext(ctx, `
INSERT OR IGNORE INTO webhook_events(
  delivery_id, event_type, action, issue_number, payload, payload_digest, received_at
)
VALUES(?, ?, ?, ?, ?, ?, ?);
`, deliveryID, rec.EventType, rec.Action, issueNumber, string(rec.Payload), digest(rec.Payload), now)
	if err != nil {
		return fmt.Errorf("insert webhook event: %w", err)
	}
	return nil
}

// Recent returns stored events newest first, bounded by limit. Insertion
// order (rowid) is the ordering, not the timestamp text, so same-instant
// inserts still come back in a stable order.
func (s *Store) Recent(ctx context.Context, limit int) ([]StoredEvent, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	if limit > MaxRecentLimit {
		limit = MaxRecentLimit
	}

	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `
SELECT delivery_id, event_type, action, issue_number, payload_digest, received_at
FROM webhook_events
ORDER BY id DESC
LIMIT ?;
`, limit)
	if err != nil {
		return nil, fmt.Errorf("query webhook events: %w", err)
	}
	defer rows.Close()

	var events []StoredEvent
	for rows.Next() {
		var (
			ev          StoredEvent
			deliveryID  sql.NullString
			issueNumber sql.NullInt64
			receivedAtS string
		)
		if err := rows.Scan(&deliveryID, &ev.EventType, &ev.Action, &issueNumber, &ev.PayloadDigest, &receivedAtS); err != nil {
			return nil, fmt.Errorf("scan webhook event: %w", err)
		}
		if deliveryID.Valid {
			ev.DeliveryID = deliveryID.String
		}
		if issueNumber.Valid {
			n := int(issueNumber.Int64)
			ev.IssueNumber = &n
		}
		if t, err := time.Parse(time.RFC3339Nano, receivedAtS); err == nil {
			ev.ReceivedAt = t
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate webhook events: %w", err)
	}
	return events, nil
}

// digest fingerprints a payload so identical bodies replayed under fresh
// delivery ids are visible in the debug endpoint without exposing contents.
func digest(payload []byte) string {
	sum := blake3.Sum256(payload)
	return hex.EncodeToString(sum[:])
}
