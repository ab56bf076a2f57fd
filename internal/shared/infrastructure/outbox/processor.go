package outbox

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/rotahq/rota/internal/shared/infrastructure/eventbus"
	"github.com/rotahq/rota/pkg/observability"
)

// ProcessorConfig holds configuration for the outbox processor.
type ProcessorConfig struct {
	PollInterval     time.Duration
	BatchSize        int
	MaxRetries       int
	RetryBackoffBase time.Duration
	RetryBackoffMax  time.Duration
	Retention        time.Duration
	CleanupInterval  time.Duration
}

// DefaultProcessorConfig returns sensible defaults.
func DefaultProcessorConfig() ProcessorConfig {
	return ProcessorConfig{
		PollInterval:     100 * time.Millisecond,
		BatchSize:        100,
		MaxRetries:       5,
		RetryBackoffBase: time.Second,
		RetryBackoffMax:  time.Minute,
		Retention:        14 * 24 * time.Hour,
		CleanupInterval:  24 * time.Hour,
	}
}

// Processor polls the outbox and publishes pending messages to the broker.
type Processor struct {
	repo      Repository
	publisher eventbus.Publisher
	config    ProcessorConfig
	logger    *slog.Logger
	metrics   observability.Metrics

	wg       sync.WaitGroup
	stopChan chan struct{}
	running  bool
	mu       sync.Mutex
}

// NewProcessor creates a new outbox processor.
func NewProcessor(repo Repository, publisher eventbus.Publisher, config ProcessorConfig, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		repo:      repo,
		publisher: publisher,
		config:    config,
		logger:    logger,
		metrics:   observability.NoopMetrics{},
		stopChan:  make(chan struct{}),
	}
}

// WithMetrics replaces the processor's metrics collector.
func (p *Processor) WithMetrics(metrics observability.Metrics) *Processor {
	p.metrics = metrics
	return p
}

// Start begins the polling loop in a goroutine.
func (p *Processor) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = true
	p.stopChan = make(chan struct{})
	p.mu.Unlock()

	p.wg.Add(1)
	go p.run(ctx)

	p.logger.Info("outbox processor started",
		"poll_interval", p.config.PollInterval,
		"batch_size", p.config.BatchSize,
	)
	return nil
}

// Stop gracefully stops the processor.
func (p *Processor) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	close(p.stopChan)
	p.mu.Unlock()

	p.wg.Wait()
	p.logger.Info("outbox processor stopped")
}

func (p *Processor) run(ctx context.Context) {
	defer p.wg.Done()

	poll := time.NewTicker(p.config.PollInterval)
	defer poll.Stop()
	cleanup := time.NewTicker(p.config.CleanupInterval)
	defer cleanup.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.stopChan:
			return
		case <-poll.C:
			if err := p.ProcessBatch(ctx); err != nil {
				p.logger.Error("outbox batch failed", "error", err)
			}
		case <-cleanup.C:
			deleted, err := p.repo.DeleteOld(ctx, p.config.Retention)
			if err != nil {
				p.logger.Error("outbox cleanup failed", "error", err)
			} else if deleted > 0 {
				p.logger.Info("outbox cleanup", "deleted", deleted)
			}
		}
	}
}

// ProcessBatch publishes one batch of pending messages. Messages that exceed
// their retry budget are left for the next cleanup with their last error.
func (p *Processor) ProcessBatch(ctx context.Context) error {
	msgs, err := p.repo.GetUnpublished(ctx, p.config.BatchSize)
	if err != nil {
		return err
	}
	if len(msgs) == 0 {
		return nil
	}

	timer := observability.StartTimer("outbox.process_batch").WithMetrics(p.metrics)
	defer timer.Stop()

	for _, msg := range msgs {
		if !msg.CanRetry(p.config.MaxRetries) {
			continue
		}

		if err := p.publisher.Publish(ctx, msg.RoutingKey, msg.Payload); err != nil {
			p.metrics.Counter(observability.MetricOperationErrors, 1,
				observability.T("operation", "outbox.publish"))
			backoff := p.backoff(msg.RetryCount)
			p.logger.Warn("publish failed, scheduling retry",
				"message_id", msg.ID,
				"routing_key", msg.RoutingKey,
				"retry_count", msg.RetryCount,
				"backoff", backoff,
				"error", err,
			)
			if markErr := p.repo.MarkFailed(ctx, msg.ID, err.Error(), time.Now().UTC().Add(backoff)); markErr != nil {
				return markErr
			}
			continue
		}

		if err := p.repo.MarkPublished(ctx, msg.ID); err != nil {
			return err
		}
		p.metrics.Counter(observability.MetricEventsPublished, 1,
			observability.T("routing_key", msg.RoutingKey))
	}
	return nil
}

// backoff doubles per retry up to the configured cap.
func (p *Processor) backoff(retryCount int) time.Duration {
	d := p.config.RetryBackoffBase << uint(retryCount)
	if d > p.config.RetryBackoffMax || d <= 0 {
		return p.config.RetryBackoffMax
	}
	return d
}
