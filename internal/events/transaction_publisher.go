package events

import (
	"context"
	"fmt"

	"log/slog"

	"github.com/pepinilloalsofrito-cell/gemini-financial/internal/journal"
)

// TransactionPublisher emits a TransactionEvent for every applied ledger
// operation. A nil publisher is valid and publishes nothing, so the service
// can run without a broker.
type TransactionPublisher struct {
	producer Publisher
	topic    string
	logger   *slog.Logger
}

func NewTransactionPublisher(producer Publisher, topic string, logger *slog.Logger) *TransactionPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	if topic == "" {
		topic = "bank.transactions"
	}
	return &TransactionPublisher{
		producer: producer,
		topic:    topic,
		logger:   logger,
	}
}

func (p *TransactionPublisher) Publish(ctx context.Context, tx journal.Transaction) error {
	if p == nil || p.producer == nil {
		return nil
	}

	envelope, err := NewEnvelope(EventTypeTransactionExecuted, transactionEventVersion, tx.ID.String())
	if err != nil {
		return fmt.Errorf("build envelope: %w", err)
	}

	event := TransactionEvent{
		Envelope:    envelope,
		Transaction: tx,
	}

	// keyed by session so one user's history stays ordered per partition
	if _, _, err := p.producer.PublishJSON(ctx, p.topic, tx.SessionID.String(), event); err != nil {
		return err
	}

	p.logger.Debug("transaction event published",
		slog.String("topic", p.topic),
		slog.String("transaction_id", tx.ID.String()),
	)
	return nil
}

func (p *TransactionPublisher) Close() error {
	if p == nil || p.producer == nil {
		return nil
	}
	return p.producer.Close()
}
