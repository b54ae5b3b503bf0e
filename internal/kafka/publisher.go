package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/patteeraL/movra/services/currency-service/internal/model"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// SnapshotCreatedEvent is published after a new daily snapshot is persisted
type SnapshotCreatedEvent struct {
	SnapshotID        string    `json:"snapshotId"`
	Base              string    `json:"base"`
	Date              string    `json:"date"`
	Provider          string    `json:"provider"`
	ProviderTimestamp *int64    `json:"providerTimestamp,omitempty"`
	RateCount         int       `json:"rateCount"`
	CreatedAt         time.Time `json:"createdAt"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher produces snapshot events to Kafka
type Publisher struct {
	writer messageWriter
	logger *zap.Logger
}

// NewPublisher creates a publisher for a comma-separated broker list
func NewPublisher(brokers string, topic string, logger *zap.Logger) *Publisher {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(splitBrokers(brokers)...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
		WriteTimeout:           5 * time.Second,
	}

	return &Publisher{
		writer: writer,
		logger: logger,
	}
}

// PublishSnapshotCreated sends one event keyed by base currency
func (p *Publisher) PublishSnapshotCreated(ctx context.Context, snapshot *model.RateSnapshot) error {
	event := SnapshotCreatedEvent{
		SnapshotID:        snapshot.ID.String(),
		Base:              snapshot.Base,
		Date:              snapshot.Date,
		Provider:          snapshot.Source(),
		ProviderTimestamp: snapshot.ProviderTimestamp,
		RateCount:         len(snapshot.Rates),
		CreatedAt:         snapshot.CreatedAt,
	}

	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	if err := p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(snapshot.Base),
		Value: value,
	}); err != nil {
		return fmt.Errorf("write snapshot event: %w", err)
	}

	p.logger.Info("Published snapshot.created event",
		zap.String("snapshotId", event.SnapshotID),
		zap.String("base", event.Base),
		zap.String("date", event.Date),
	)
	return nil
}

// Close closes the writer
func (p *Publisher) Close() error {
	return p.writer.Close()
}

func splitBrokers(brokers string) []string {
	var out []string
	for _, b := range strings.Split(brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}
