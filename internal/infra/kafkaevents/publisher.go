// Package kafkaevents publishes closed orders of a run to a Kafka topic.
package kafkaevents

import (
	"context"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	sdk "github.com/segmentio/kafka-go"

	"github.com/RomanPilyushin/Backtesting-Engine/internal/domain"
	"github.com/RomanPilyushin/Backtesting-Engine/internal/ports"
)

// messageWriter is the subset of *kafka.Writer the publisher needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...sdk.Message) error
	Close() error
}

// OrderEvent is the message payload for one closed order.
type OrderEvent struct {
	RunID      string    `json:"run_id"`
	OrderID    int       `json:"order_id"`
	Instrument string    `json:"instrument"`
	Side       string    `json:"side"`
	Amount     int       `json:"amount"`
	OpenedAt   time.Time `json:"opened_at"`
	OpenPrice  float64   `json:"open_price"`
	ClosedAt   time.Time `json:"closed_at"`
	ClosePrice float64   `json:"close_price"`
	PL         float64   `json:"pl"`
}

type Publisher struct {
	writer messageWriter
	topic  string
}

var _ ports.OrderPublisher = (*Publisher)(nil)

// New returns a publisher for cfg, or nil when publishing is not configured.
func New(cfg domain.KafkaConfig) *Publisher {
	if !cfg.Enabled() {
		return nil
	}
	w := &sdk.Writer{
		Addr:         sdk.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		RequiredAcks: sdk.RequireAll,
		Balancer:     &sdk.LeastBytes{},
	}
	return &Publisher{writer: w, topic: cfg.Topic}
}

// Publish writes one message per order, keyed by the run id so a run stays on one partition.
func (p *Publisher) Publish(ctx context.Context, runID string, orders []domain.ClosedOrder) error {
	if len(orders) == 0 {
		return nil
	}

	msgs := make([]sdk.Message, 0, len(orders))
	for _, o := range orders {
		payload, err := json.Marshal(toEvent(runID, o))
		if err != nil {
			return &domain.OpError{Op: "kafka.marshal", Kind: domain.KindExecution, Err: err}
		}
		msgs = append(msgs, sdk.Message{
			Key:   []byte(runID),
			Value: payload,
		})
	}

	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return &domain.OpError{Op: "kafka.publish", Kind: domain.KindExecution,
			Err: fmt.Errorf("topic %s: %w", p.topic, err)}
	}
	return nil
}

func (p *Publisher) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}

func toEvent(runID string, o domain.ClosedOrder) OrderEvent {
	return OrderEvent{
		RunID:      runID,
		OrderID:    o.ID,
		Instrument: o.Instrument,
		Side:       o.Side(),
		Amount:     o.Amount,
		OpenedAt:   o.OpenedAt,
		OpenPrice:  o.OpenPrice,
		ClosedAt:   o.ClosedAt,
		ClosePrice: o.ClosePrice,
		PL:         o.PL,
	}
}
