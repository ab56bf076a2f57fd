package outbox

import (
	"context"
	"time"
)

// Repository defines the interface for outbox persistence.
type Repository interface {
	// Save stores a new outbox message.
	Save(ctx context.Context, msg *Message) error

	// SaveBatch stores multiple outbox messages atomically.
	SaveBatch(ctx context.Context, msgs []*Message) error

	// GetUnpublished retrieves publishable messages ordered by creation time,
	// skipping messages whose retry backoff has not elapsed.
	GetUnpublished(ctx context.Context, limit int) ([]*Message, error)

	// CountPending returns the number of messages not yet published,
	// including those waiting out a retry backoff.
	CountPending(ctx context.Context) (int, error)

	// MarkPublished marks a message as successfully published.
	MarkPublished(ctx context.Context, id int64) error

	// MarkFailed records a publish failure and schedules the next retry.
	MarkFailed(ctx context.Context, id int64, errMsg string, nextRetryAt time.Time) error

	// DeleteOld removes published messages older than the retention period.
	DeleteOld(ctx context.Context, olderThan time.Duration) (int64, error)
}
