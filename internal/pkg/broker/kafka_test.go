package broker

import (
	"context"
	"errors"
	"testing"

	"github.com/fekuna/omnipos-price-service/internal/pkg/logger"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	w.msgs = append(w.msgs, msgs...)
	return w.err
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestNewProducerConfiguresAsyncWriter(t *testing.T) {
	p := NewProducer(&Config{Brokers: []string{"localhost:9092"}, Topic: "catalog.ingested"}, logger.NewNop())

	w, ok := p.writer.(*kafka.Writer)
	require.True(t, ok)
	assert.Equal(t, "catalog.ingested", w.Topic)
	assert.True(t, w.Async)
	assert.Equal(t, "localhost:9092", w.Addr.String())
	assert.NotNil(t, w.Completion)
}

func TestPublishWritesKeyAndValue(t *testing.T) {
	w := &fakeWriter{}
	p := &KafkaProducer{writer: w}

	require.NoError(t, p.Publish(context.Background(), []byte("729:1:12"), []byte(`{"event_type":"CatalogIngested"}`)))
	require.Len(t, w.msgs, 1)
	assert.Equal(t, "729:1:12", string(w.msgs[0].Key))
	assert.JSONEq(t, `{"event_type":"CatalogIngested"}`, string(w.msgs[0].Value))
	assert.False(t, w.msgs[0].Time.IsZero())

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestPublishReturnsWriterError(t *testing.T) {
	errClosed := errors.New("kafka: writer closed")
	p := &KafkaProducer{writer: &fakeWriter{err: errClosed}}

	assert.ErrorIs(t, p.Publish(context.Background(), nil, []byte("{}")), errClosed)
}
