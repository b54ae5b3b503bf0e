package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/patteeraL/movra/services/currency-service/internal/model"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeWriter struct {
	messages []kafka.Message
	err      error
	closed   bool
}

func (w *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestPublishSnapshotCreated(t *testing.T) {
	writer := &fakeWriter{}
	publisher := &Publisher{writer: writer, logger: zap.NewNop()}
	ts := int64(1704067200)
	snap := &model.RateSnapshot{
		ID:                uuid.New(),
		Base:              "USD",
		Date:              "2024-01-01",
		ProviderTimestamp: &ts,
		Rates:             map[string]float64{"PKR": 280, "EUR": 0.9},
		CreatedAt:         time.Now(),
	}

	err := publisher.PublishSnapshotCreated(context.Background(), snap)

	require.NoError(t, err)
	require.Len(t, writer.messages, 1)
	assert.Equal(t, "USD", string(writer.messages[0].Key))

	var event SnapshotCreatedEvent
	require.NoError(t, json.Unmarshal(writer.messages[0].Value, &event))
	assert.Equal(t, snap.ID.String(), event.SnapshotID)
	assert.Equal(t, "openexchangerates", event.Provider)
	assert.Equal(t, 2, event.RateCount)
	assert.Equal(t, ts, *event.ProviderTimestamp)
}

func TestPublishSnapshotCreated_WriterError(t *testing.T) {
	writer := &fakeWriter{err: errors.New("broker down")}
	publisher := &Publisher{writer: writer, logger: zap.NewNop()}

	err := publisher.PublishSnapshotCreated(context.Background(), &model.RateSnapshot{Base: "USD", Date: "2024-01-01"})

	assert.ErrorContains(t, err, "broker down")
}

func TestSplitBrokers(t *testing.T) {
	assert.Equal(t, []string{"a:9092", "b:9092"}, splitBrokers(" a:9092, ,b:9092 "))
	assert.Nil(t, splitBrokers(""))
}

func TestPublisher_Close(t *testing.T) {
	writer := &fakeWriter{}
	publisher := &Publisher{writer: writer, logger: zap.NewNop()}

	require.NoError(t, publisher.Close())
	assert.True(t, writer.closed)
}
