package kafkaevents

import (
	"context"
	"errors"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	sdk "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RomanPilyushin/Backtesting-Engine/internal/domain"
)

type fakeWriter struct {
	msgs   []sdk.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...sdk.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func TestNewDisabledWithoutBrokers(t *testing.T) {
	assert.Nil(t, New(domain.KafkaConfig{Topic: "t"}))
	assert.Nil(t, New(domain.KafkaConfig{Brokers: []string{"localhost:9092"}}))

	p := New(domain.KafkaConfig{Brokers: []string{"localhost:9092"}, Topic: "t"})
	require.NotNil(t, p)
	require.NoError(t, p.Close())
}

func TestPublishWritesOneMessagePerOrder(t *testing.T) {
	fw := &fakeWriter{}
	p := &Publisher{writer: fw, topic: "orders"}

	at := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	orders := []domain.ClosedOrder{
		domain.Close(domain.Order{ID: 1, Instrument: "AAPL", OpenedAt: at, OpenPrice: 10, Amount: 5}, 12, at.AddDate(0, 0, 1)),
		domain.Close(domain.Order{ID: 2, Instrument: "AMZN", OpenedAt: at, OpenPrice: 20, Amount: -3}, 19, at.AddDate(0, 0, 1)),
	}

	require.NoError(t, p.Publish(context.Background(), "run-1", orders))
	require.Len(t, fw.msgs, 2)

	for _, m := range fw.msgs {
		assert.Equal(t, "run-1", string(m.Key))
	}

	var ev OrderEvent
	require.NoError(t, json.Unmarshal(fw.msgs[1].Value, &ev))
	assert.Equal(t, "run-1", ev.RunID)
	assert.Equal(t, 2, ev.OrderID)
	assert.Equal(t, "sell", ev.Side)
	assert.InDelta(t, 3.0, ev.PL, 1e-12)
}

func TestPublishSkipsEmptyAndWrapsErrors(t *testing.T) {
	fw := &fakeWriter{err: errors.New("broker down")}
	p := &Publisher{writer: fw, topic: "orders"}

	require.NoError(t, p.Publish(context.Background(), "run-1", nil))

	err := p.Publish(context.Background(), "run-1", []domain.ClosedOrder{{Order: domain.Order{ID: 1}}})
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindExecution))
	assert.Contains(t, err.Error(), "broker down")
}
