package outbox

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	sharedPersistence "github.com/rotahq/rota/internal/shared/infrastructure/persistence"
)

// SQLiteRepository implements Repository on SQLite for local mode.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite outbox repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const sqliteInsertMessage = `
	INSERT INTO outbox_messages (
		event_id, aggregate_type, aggregate_id, routing_key,
		payload, metadata, created_at
	) VALUES (?, ?, ?, ?, ?, ?, ?)
`

// Save stores a new outbox message.
func (r *SQLiteRepository) Save(ctx context.Context, msg *Message) error {
	exec := sharedPersistence.SQLiteQuerier(ctx, r.db)
	result, err := exec.ExecContext(ctx, sqliteInsertMessage,
		msg.EventID.String(), msg.AggregateType, msg.AggregateID.String(), msg.RoutingKey,
		string(msg.Payload), string(msg.Metadata), msg.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return err
	}
	msg.ID, err = result.LastInsertId()
	return err
}

// SaveBatch stores multiple outbox messages atomically.
func (r *SQLiteRepository) SaveBatch(ctx context.Context, msgs []*Message) error {
	if len(msgs) == 0 {
		return nil
	}

	if _, ok := sharedPersistence.SQLiteTxInfoFromContext(ctx); ok {
		for _, msg := range msgs {
			if err := r.Save(ctx, msg); err != nil {
				return err
			}
		}
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	txCtx := sharedPersistence.WithSQLiteTx(ctx, tx, true)
	for _, msg := range msgs {
		if err := r.Save(txCtx, msg); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// GetUnpublished retrieves publishable messages ordered by creation time.
func (r *SQLiteRepository) GetUnpublished(ctx context.Context, limit int) ([]*Message, error) {
	query := `
		SELECT id, event_id, aggregate_type, aggregate_id, routing_key,
		       payload, metadata, created_at, published_at, next_retry_at,
		       retry_count, last_error
		FROM outbox_messages
		WHERE published_at IS NULL
		  AND (next_retry_at IS NULL OR next_retry_at <= ?)
		ORDER BY created_at
		LIMIT ?
	`

	rows, err := r.db.QueryContext(ctx, query, time.Now().UTC().Format(time.RFC3339), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	msgs := make([]*Message, 0)
	for rows.Next() {
		m, err := scanSQLiteMessage(rows)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

// CountPending returns the number of messages not yet published.
func (r *SQLiteRepository) CountPending(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM outbox_messages WHERE published_at IS NULL`,
	).Scan(&n)
	return n, err
}

// MarkPublished marks a message as successfully published.
func (r *SQLiteRepository) MarkPublished(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE outbox_messages SET published_at = ? WHERE id = ?`,
		time.Now().UTC().Format(time.RFC3339), id)
	return err
}

// MarkFailed records a publish failure and schedules the next retry.
func (r *SQLiteRepository) MarkFailed(ctx context.Context, id int64, errMsg string, nextRetryAt time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE outbox_messages
		SET retry_count = retry_count + 1, last_error = ?, next_retry_at = ?
		WHERE id = ?
	`, errMsg, nextRetryAt.UTC().Format(time.RFC3339), id)
	return err
}

// DeleteOld removes published messages older than the retention period.
func (r *SQLiteRepository) DeleteOld(ctx context.Context, olderThan time.Duration) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM outbox_messages
		WHERE published_at IS NOT NULL AND published_at < ?
	`, time.Now().UTC().Add(-olderThan).Format(time.RFC3339))
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func scanSQLiteMessage(rows *sql.Rows) (*Message, error) {
	var (
		m                      Message
		eventID, aggregateID   string
		payload, metadata      string
		createdAt              string
		publishedAt, nextRetry sql.NullString
		lastError              sql.NullString
	)
	if err := rows.Scan(
		&m.ID, &eventID, &m.AggregateType, &aggregateID, &m.RoutingKey,
		&payload, &metadata, &createdAt, &publishedAt, &nextRetry,
		&m.RetryCount, &lastError,
	); err != nil {
		return nil, err
	}

	var err error
	if m.EventID, err = uuid.Parse(eventID); err != nil {
		return nil, err
	}
	if m.AggregateID, err = uuid.Parse(aggregateID); err != nil {
		return nil, err
	}
	m.Payload = []byte(payload)
	m.Metadata = []byte(metadata)
	if m.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return nil, err
	}
	if publishedAt.Valid {
		t, err := time.Parse(time.RFC3339, publishedAt.String)
		if err != nil {
			return nil, err
		}
		m.PublishedAt = &t
	}
	if nextRetry.Valid {
		t, err := time.Parse(time.RFC3339, nextRetry.String)
		if err != nil {
			return nil, err
		}
		m.NextRetryAt = &t
	}
	if lastError.Valid {
		m.LastError = &lastError.String
	}
	return &m, nil
}
