package outbox

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	sharedPersistence "github.com/rotahq/rota/internal/shared/infrastructure/persistence"
)

// PostgresRepository implements Repository on PostgreSQL.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new Postgres outbox repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const pgInsertMessage = `
	INSERT INTO outbox_messages (
		event_id, aggregate_type, aggregate_id, routing_key,
		payload, metadata, created_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7)
	RETURNING id
`

// Save stores a new outbox message.
func (r *PostgresRepository) Save(ctx context.Context, msg *Message) error {
	exec := sharedPersistence.Executor(ctx, r.pool)
	return exec.QueryRow(ctx, pgInsertMessage,
		msg.EventID, msg.AggregateType, msg.AggregateID, msg.RoutingKey,
		msg.Payload, msg.Metadata, msg.CreatedAt,
	).Scan(&msg.ID)
}

// SaveBatch stores multiple outbox messages. When called inside a unit of
// work the context transaction makes the batch atomic with the state change.
func (r *PostgresRepository) SaveBatch(ctx context.Context, msgs []*Message) error {
	if len(msgs) == 0 {
		return nil
	}

	if _, ok := sharedPersistence.TxInfoFromContext(ctx); ok {
		for _, msg := range msgs {
			if err := r.Save(ctx, msg); err != nil {
				return err
			}
		}
		return nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	txCtx := sharedPersistence.WithTx(ctx, tx, true)
	for _, msg := range msgs {
		if err := r.Save(txCtx, msg); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

// GetUnpublished retrieves publishable messages ordered by creation time.
func (r *PostgresRepository) GetUnpublished(ctx context.Context, limit int) ([]*Message, error) {
	query := `
		SELECT id, event_id, aggregate_type, aggregate_id, routing_key,
		       payload, metadata, created_at, published_at, next_retry_at,
		       retry_count, last_error
		FROM outbox_messages
		WHERE published_at IS NULL
		  AND (next_retry_at IS NULL OR next_retry_at <= NOW())
		ORDER BY created_at
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	msgs := make([]*Message, 0)
	for rows.Next() {
		var m Message
		if err := rows.Scan(
			&m.ID, &m.EventID, &m.AggregateType, &m.AggregateID, &m.RoutingKey,
			&m.Payload, &m.Metadata, &m.CreatedAt, &m.PublishedAt, &m.NextRetryAt,
			&m.RetryCount, &m.LastError,
		); err != nil {
			return nil, err
		}
		msgs = append(msgs, &m)
	}
	return msgs, rows.Err()
}

// CountPending returns the number of messages not yet published.
func (r *PostgresRepository) CountPending(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM outbox_messages WHERE published_at IS NULL`,
	).Scan(&n)
	return n, err
}

// MarkPublished marks a message as successfully published.
func (r *PostgresRepository) MarkPublished(ctx context.Context, id int64) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE outbox_messages SET published_at = NOW() WHERE id = $1`, id)
	return err
}

// MarkFailed records a publish failure and schedules the next retry.
func (r *PostgresRepository) MarkFailed(ctx context.Context, id int64, errMsg string, nextRetryAt time.Time) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE outbox_messages
		SET retry_count = retry_count + 1, last_error = $2, next_retry_at = $3
		WHERE id = $1
	`, id, errMsg, nextRetryAt)
	return err
}

// DeleteOld removes published messages older than the retention period.
func (r *PostgresRepository) DeleteOld(ctx context.Context, olderThan time.Duration) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM outbox_messages
		WHERE published_at IS NOT NULL AND published_at < $1
	`, time.Now().UTC().Add(-olderThan))
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
