// Package kafkanotify publishes store owner notifications to a Kafka
// topic. Delivery downstream (email, push, in-app) is someone else's
// consumer.
package kafkanotify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-faster/errors"
	"github.com/segmentio/kafka-go"

	"github.com/amazonas-market/checkout/internal/domain/notify"
)

var _ notify.Notifier = (*Notifier)(nil)

// Notifier implements notify.Notifier on top of a kafka.Writer. Messages
// are keyed by recipient so one recipient's notifications stay ordered
// within a partition.
type Notifier struct {
	w *kafka.Writer
}

// New creates a Notifier publishing to the given brokers and topic.
func New(brokers []string, topic string) *Notifier {
	return &Notifier{
		w: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
			BatchTimeout: 50 * time.Millisecond,
		},
	}
}

// Send publishes the notification as a JSON message.
func (n *Notifier) Send(ctx context.Context, msg notify.Notification) error {
	value, err := json.Marshal(msg)
	if err != nil {
		return errors.Wrap(err, "encode notification")
	}
	err = n.w.WriteMessages(ctx, kafka.Message{
		Key:   []byte(msg.RecipientID),
		Value: value,
		Time:  time.Now(),
	})
	if err != nil {
		return errors.Wrap(err, "publish notification")
	}
	return nil
}

// Close flushes and closes the underlying writer.
func (n *Notifier) Close() error {
	return n.w.Close()
}
